package services

import (
	"fmt"
	"math"
	"strings"

	"hotel-bookings/models"
	"hotel-bookings/utils"
)

// AnalysisOptions controls which breakdowns are computed and how hypotheses are judged
type AnalysisOptions struct {
	Buckets            LeadTimeBuckets
	Breakdowns         []string
	MonotonicTolerance float64
	DepositGap         float64
}

// InsightService computes analytics from the cleaned dataset
type InsightService struct {
	opts   AnalysisOptions
	logger *utils.Logger
}

// NewInsightService validates the options and creates a new InsightService.
// Invalid buckets or unknown selectors fail here, before any data is read.
func NewInsightService(opts AnalysisOptions, logger *utils.Logger) (*InsightService, error) {
	if err := opts.Buckets.Validate(); err != nil {
		return nil, err
	}
	for _, b := range opts.Breakdowns {
		if _, err := ParseSelectors(b, opts.Buckets); err != nil {
			return nil, fmt.Errorf("breakdown %q: %w", b, err)
		}
	}
	return &InsightService{opts: opts, logger: logger}, nil
}

// Generate computes totals, every configured breakdown and the hypothesis checks
func (s *InsightService) Generate(reservations []models.Reservation) (*models.InsightReport, error) {
	if len(reservations) == 0 {
		s.logger.Warn("No reservations to generate insights from")
		return nil, models.ErrEmptyInput
	}

	report := &models.InsightReport{TotalReservations: len(reservations)}

	var adr, stay, guests float64
	for _, r := range reservations {
		if r.IsCanceled {
			report.Canceled++
		}
		adr += r.ADR
		stay += float64(r.TotalStay())
		guests += float64(r.TotalGuests())
	}
	n := float64(len(reservations))
	report.CancelRate = float64(report.Canceled) / n
	report.AverageADR = adr / n
	report.AverageStay = stay / n
	report.AverageGuests = guests / n

	for _, name := range s.opts.Breakdowns {
		b, err := s.breakdown(reservations, name)
		if err != nil {
			return nil, err
		}
		report.Breakdowns = append(report.Breakdowns, b)
		s.logger.Debug("Breakdown %s: %d groups", name, len(b.Rows))
	}

	hyps, err := s.evaluateHypotheses(reservations)
	if err != nil {
		return nil, err
	}
	report.Hypotheses = hyps
	return report, nil
}

func (s *InsightService) breakdown(reservations []models.Reservation, name string) (models.Breakdown, error) {
	selectors, err := ParseSelectors(name, s.opts.Buckets)
	if err != nil {
		return models.Breakdown{}, err
	}
	rows, err := ComputeCancellationRates(reservations, selectors)
	if err != nil {
		return models.Breakdown{}, utils.NewAppError("breakdown", name, err)
	}
	groupBy := make([]string, len(selectors))
	for i, sel := range selectors {
		groupBy[i] = sel.Name
	}
	return models.Breakdown{Name: name, GroupBy: groupBy, Rows: rows}, nil
}

func (s *InsightService) evaluateHypotheses(reservations []models.Reservation) ([]models.HypothesisResult, error) {
	leadTime, err := s.breakdown(reservations, LeadTimeBucketField)
	if err != nil {
		return nil, err
	}
	segment, err := s.breakdown(reservations, "market_segment")
	if err != nil {
		return nil, err
	}
	deposit, err := s.breakdown(reservations, "deposit_type")
	if err != nil {
		return nil, err
	}
	return []models.HypothesisResult{
		s.leadTimeHypothesis(leadTime),
		channelHypothesis(segment),
		s.depositHypothesis(deposit),
	}, nil
}

// leadTimeHypothesis checks that the rate rises across buckets, allowing small dips
func (s *InsightService) leadTimeHypothesis(b models.Breakdown) models.HypothesisResult {
	res := models.HypothesisResult{
		ID:        "H1",
		Statement: "Cancellation rate rises with lead time",
	}
	var (
		rates    []float64
		evidence []string
	)
	for _, label := range s.opts.Buckets.Labels() {
		row, ok := b.Find(label)
		if !ok {
			continue
		}
		rates = append(rates, row.CancelRate)
		evidence = append(evidence, fmt.Sprintf("%s: %s", label, percent(row.CancelRate)))
	}
	if len(rates) < 2 {
		res.Evidence = "fewer than two lead-time buckets have reservations"
		return res
	}
	res.Supported = rates[len(rates)-1] > rates[0]
	for i := 1; i < len(rates) && res.Supported; i++ {
		if rates[i] < rates[i-1]-s.opts.MonotonicTolerance {
			res.Supported = false
		}
	}
	res.Evidence = strings.Join(evidence, ", ")
	return res
}

func channelHypothesis(b models.Breakdown) models.HypothesisResult {
	res := models.HypothesisResult{
		ID:        "H2",
		Statement: "Online TA bookings cancel more often than Direct bookings",
	}
	ota, okOTA := b.Find("Online TA")
	direct, okDirect := b.Find("Direct")
	switch {
	case !okOTA:
		res.Evidence = "no Online TA reservations"
	case !okDirect:
		res.Evidence = "no Direct reservations"
	default:
		res.Supported = ota.CancelRate > direct.CancelRate
		res.Evidence = fmt.Sprintf("Online TA: %s (n=%d), Direct: %s (n=%d)",
			percent(ota.CancelRate), ota.Count, percent(direct.CancelRate), direct.Count)
	}
	return res
}

func (s *InsightService) depositHypothesis(b models.Breakdown) models.HypothesisResult {
	res := models.HypothesisResult{
		ID:        "H3",
		Statement: "Deposit policy changes the cancellation rate",
	}
	nonRefund, okNR := b.Find("Non Refund")
	noDeposit, okND := b.Find("No Deposit")
	switch {
	case !okNR:
		res.Evidence = "no Non Refund reservations"
	case !okND:
		res.Evidence = "no No Deposit reservations"
	default:
		gap := math.Abs(nonRefund.CancelRate - noDeposit.CancelRate)
		res.Supported = gap >= s.opts.DepositGap
		res.Evidence = fmt.Sprintf("Non Refund: %s, No Deposit: %s, gap %s (threshold %s)",
			percent(nonRefund.CancelRate), percent(noDeposit.CancelRate), percent(gap), percent(s.opts.DepositGap))
	}
	return res
}

func percent(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}
