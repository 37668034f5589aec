package models

// Reservation represents one cleaned booking row, ready for aggregation and storage
type Reservation struct {
	ID                  int64
	Hotel               string
	IsCanceled          bool
	LeadTime            int // days between booking and arrival
	ArrivalYear         int
	ArrivalMonth        string
	WeekendNights       int
	WeekNights          int
	Adults              int
	Children            int
	Babies              int
	Country             string
	MarketSegment       string
	DistributionChannel string
	DepositType         string
	CustomerType        string
	Agent               int
	Company             int
	ADR                 float64 // average daily rate
}

// TotalStay is the number of booked nights
func (r Reservation) TotalStay() int {
	return r.WeekendNights + r.WeekNights
}

// TotalGuests counts adults, children and babies together
func (r Reservation) TotalGuests() int {
	return r.Adults + r.Children + r.Babies
}

// CancellationRateRow holds the cancellation statistics of one group
type CancellationRateRow struct {
	GroupKey   []string
	Count      int
	Canceled   int
	CancelRate float64
}

// Key joins the group values into a single printable key
func (r CancellationRateRow) Key() string {
	return JoinKey(r.GroupKey)
}

// Breakdown is one named aggregation over the dataset
type Breakdown struct {
	Name    string
	GroupBy []string
	Rows    []CancellationRateRow
}

// Find returns the row whose key matches the given values
func (b Breakdown) Find(values ...string) (CancellationRateRow, bool) {
	key := JoinKey(values)
	for _, row := range b.Rows {
		if row.Key() == key {
			return row, true
		}
	}
	return CancellationRateRow{}, false
}

// HypothesisResult records whether the data supports a business hypothesis
type HypothesisResult struct {
	ID        string
	Statement string
	Supported bool
	Evidence  string
}

// InsightReport holds computed analytics from the final dataset
type InsightReport struct {
	TotalReservations int
	Canceled          int
	CancelRate        float64
	AverageADR        float64
	AverageStay       float64
	AverageGuests     float64
	DroppedColumns    []string
	Breakdowns        []Breakdown
	Hypotheses        []HypothesisResult
}

// Breakdown looks up a breakdown by name
func (r *InsightReport) Breakdown(name string) (Breakdown, bool) {
	for _, b := range r.Breakdowns {
		if b.Name == name {
			return b, true
		}
	}
	return Breakdown{}, false
}
