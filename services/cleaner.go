package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"hotel-bookings/models"
	"hotel-bookings/utils"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// CleanOptions controls the cleaning thresholds
type CleanOptions struct {
	NAThreshold     float64
	OutlierQuantile float64
	DropDuplicates  bool
}

// CleanResult is the typed dataset plus what cleaning removed
type CleanResult struct {
	Reservations      []models.Reservation
	DroppedColumns    []string
	OutliersRemoved   int
	DuplicatesRemoved int
}

// missing-value replacements, applied in this order
var fillValues = []struct {
	col   string
	value string
}{
	{models.ColChildren, "0"},
	{models.ColCountry, "Donno"},
	{models.ColAgent, "0"},
	{models.ColCompany, "0"},
}

// DataCleaner normalizes the raw DataFrame into Reservation records
type DataCleaner struct {
	opts   CleanOptions
	logger *utils.Logger
}

// NewDataCleaner creates a new DataCleaner
func NewDataCleaner(opts CleanOptions, logger *utils.Logger) *DataCleaner {
	return &DataCleaner{opts: opts, logger: logger}
}

// Clean runs every cleaning step in order: drop high-NA columns, fill
// missing values, remove outliers, optionally deduplicate, then type the rows.
func (c *DataCleaner) Clean(df dataframe.DataFrame) (*CleanResult, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("clean: %w", df.Err)
	}
	rawRows := df.Nrow()
	if rawRows == 0 {
		return nil, models.ErrEmptyInput
	}

	df, dropped := c.dropHighNAColumns(df)
	if len(dropped) > 0 {
		c.logger.Info("Dropped %d high-NA columns: %s", len(dropped), strings.Join(dropped, ", "))
	}

	df, err := fillMissingValues(df)
	if err != nil {
		return nil, err
	}

	df, err = c.removeOutliers(df)
	if err != nil {
		return nil, err
	}
	outliers := rawRows - df.Nrow()

	reservations, duplicates, err := c.toReservations(df)
	if err != nil {
		return nil, err
	}
	if len(reservations) == 0 {
		return nil, models.ErrEmptyInput
	}

	c.logger.Info("Cleaned %d reservations from %d raw records (%d outliers, %d duplicates removed)",
		len(reservations), rawRows, outliers, duplicates)

	return &CleanResult{
		Reservations:      reservations,
		DroppedColumns:    dropped,
		OutliersRemoved:   outliers,
		DuplicatesRemoved: duplicates,
	}, nil
}

// dropHighNAColumns removes optional columns whose missing fraction exceeds the threshold
func (c *DataCleaner) dropHighNAColumns(df dataframe.DataFrame) (dataframe.DataFrame, []string) {
	n := float64(df.Nrow())
	var drop []string
	for _, name := range df.Names() {
		if models.IsRequired(name) {
			continue
		}
		missing := 0
		for _, v := range df.Col(name).Records() {
			if models.IsMissing(strings.TrimSpace(v)) {
				missing++
			}
		}
		if float64(missing)/n > c.opts.NAThreshold {
			drop = append(drop, name)
		}
	}
	if len(drop) == 0 {
		return df, nil
	}
	return df.Drop(drop), drop
}

func fillMissingValues(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	for _, f := range fillValues {
		if !hasColumn(df, f.col) {
			continue
		}
		values := df.Col(f.col).Records()
		changed := false
		for i, v := range values {
			if models.IsMissing(strings.TrimSpace(v)) {
				values[i] = f.value
				changed = true
			}
		}
		if changed {
			df = df.Mutate(series.New(values, series.String, f.col))
		}
	}
	if df.Err != nil {
		return df, fmt.Errorf("fill missing values: %w", df.Err)
	}
	return df, nil
}

// removeOutliers keeps rows at or below the configured quantile of lead_time and adr
func (c *DataCleaner) removeOutliers(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	q := c.opts.OutlierQuantile
	if q <= 0 || q >= 1 {
		return df, nil
	}
	for _, col := range []string{models.ColLeadTime, models.ColADR} {
		if !hasColumn(df, col) || df.Nrow() == 0 {
			continue
		}
		// a missing adr is NaN, which fails the comparison and drops the row
		values, err := floatColumn(df, col, col == models.ColADR)
		if err != nil {
			return df, err
		}
		present := make([]float64, 0, len(values))
		for _, v := range values {
			if !math.IsNaN(v) {
				present = append(present, v)
			}
		}
		limit := series.New(present, series.Float, col).Quantile(q)
		tmp := col + "__numeric"
		df = df.Mutate(series.New(values, series.Float, tmp))
		before := df.Nrow()
		df = df.Filter(dataframe.F{Colname: tmp, Comparator: series.LessEq, Comparando: limit})
		df = df.Drop([]string{tmp})
		if df.Err != nil {
			return df, fmt.Errorf("remove %s outliers: %w", col, df.Err)
		}
		c.logger.Debug("%s: q%.2f = %.2f, removed %d rows", col, q, limit, before-df.Nrow())
	}
	return df, nil
}

func (c *DataCleaner) toReservations(df dataframe.DataFrame) ([]models.Reservation, int, error) {
	records := df.Records()
	if len(records) < 2 {
		return nil, 0, nil
	}
	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[strings.TrimSpace(name)] = i
	}

	var tracker *utils.RowTracker
	if c.opts.DropDuplicates {
		tracker = utils.NewRowTracker()
	}

	out := make([]models.Reservation, 0, len(records)-1)
	duplicates := 0
	for n, row := range records[1:] {
		if tracker != nil && !tracker.Add(row) {
			duplicates++
			continue
		}
		r, err := parseReservation(rowReader{row: row, idx: idx})
		if err != nil {
			return nil, duplicates, fmt.Errorf("row %d: %w", n+1, err)
		}
		r.ID = int64(len(out) + 1)
		out = append(out, r)
	}
	return out, duplicates, nil
}

func parseReservation(rr rowReader) (models.Reservation, error) {
	var (
		r   models.Reservation
		err error
	)
	if r.Hotel, err = rr.requiredString(models.ColHotel); err != nil {
		return r, err
	}
	if r.IsCanceled, err = rr.flag(models.ColIsCanceled); err != nil {
		return r, err
	}
	if r.LeadTime, err = rr.count(models.ColLeadTime, true); err != nil {
		return r, err
	}
	if r.MarketSegment, err = rr.requiredString(models.ColMarketSegment); err != nil {
		return r, err
	}
	if r.DistributionChannel, err = rr.requiredString(models.ColDistributionChannel); err != nil {
		return r, err
	}
	if r.DepositType, err = rr.requiredString(models.ColDepositType); err != nil {
		return r, err
	}

	ints := []struct {
		col string
		dst *int
	}{
		{models.ColArrivalYear, &r.ArrivalYear},
		{models.ColWeekendNights, &r.WeekendNights},
		{models.ColWeekNights, &r.WeekNights},
		{models.ColAdults, &r.Adults},
		{models.ColChildren, &r.Children},
		{models.ColBabies, &r.Babies},
		{models.ColAgent, &r.Agent},
		{models.ColCompany, &r.Company},
	}
	for _, f := range ints {
		if *f.dst, err = rr.count(f.col, false); err != nil {
			return r, err
		}
	}
	if r.ADR, err = rr.float(models.ColADR); err != nil {
		return r, err
	}
	r.ArrivalMonth = rr.str(models.ColArrivalMonth)
	r.Country = rr.str(models.ColCountry)
	r.CustomerType = rr.str(models.ColCustomerType)
	return r, nil
}

// rowReader reads typed fields from one raw record
type rowReader struct {
	row []string
	idx map[string]int
}

func (rr rowReader) str(col string) string {
	i, ok := rr.idx[col]
	if !ok || i >= len(rr.row) {
		return ""
	}
	v := strings.TrimSpace(rr.row[i])
	if models.IsMissing(v) {
		return ""
	}
	return v
}

func (rr rowReader) requiredString(col string) (string, error) {
	v := rr.str(col)
	if v == "" {
		return "", fmt.Errorf("%w: %s is missing", models.ErrSchemaMismatch, col)
	}
	return v, nil
}

func (rr rowReader) flag(col string) (bool, error) {
	switch strings.ToLower(rr.str(col)) {
	case "1", "1.0", "true":
		return true, nil
	case "0", "0.0", "false":
		return false, nil
	case "":
		return false, fmt.Errorf("%w: %s is missing", models.ErrSchemaMismatch, col)
	default:
		return false, fmt.Errorf("%w: %s must be 0 or 1, got %q", models.ErrSchemaMismatch, col, rr.str(col))
	}
}

// count parses a non-negative integer, accepting whole floats such as "2.0"
func (rr rowReader) count(col string, required bool) (int, error) {
	v := rr.str(col)
	if v == "" {
		if required {
			return 0, fmt.Errorf("%w: %s is missing", models.ErrSchemaMismatch, col)
		}
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || f != math.Trunc(f) {
			return 0, fmt.Errorf("%w: %s is not an integer: %q", models.ErrSchemaMismatch, col, v)
		}
		n = int(f)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s must be non-negative, got %d", models.ErrSchemaMismatch, col, n)
	}
	return n, nil
}

func (rr rowReader) float(col string) (float64, error) {
	v := rr.str(col)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not a number: %q", models.ErrSchemaMismatch, col, v)
	}
	return f, nil
}

// floatColumn parses a numeric column. Missing cells become NaN when
// allowMissing is set and are a schema error otherwise.
func floatColumn(df dataframe.DataFrame, col string, allowMissing bool) ([]float64, error) {
	records := df.Col(col).Records()
	values := make([]float64, len(records))
	for i, v := range records {
		v = strings.TrimSpace(v)
		if models.IsMissing(v) {
			if allowMissing {
				values[i] = math.NaN()
				continue
			}
			return nil, fmt.Errorf("%w: %s row %d is missing", models.ErrSchemaMismatch, col, i+1)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) {
			return nil, fmt.Errorf("%w: %s row %d is not numeric: %q", models.ErrSchemaMismatch, col, i+1, v)
		}
		values[i] = f
	}
	return values, nil
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}
