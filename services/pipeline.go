package services

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"time"

	"hotel-bookings/config"
	"hotel-bookings/metrics"
	"hotel-bookings/models"
	"hotel-bookings/storage"
	"hotel-bookings/utils"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	processedFileName = "hotel_bookings_clean.csv"
	workbookFileName  = "cancellation_rates.xlsx"
)

// Pipeline runs load -> clean -> aggregate -> report -> export
type Pipeline struct {
	cfg      *config.Config
	reader   *storage.CSVReader
	cleaner  *DataCleaner
	insights *InsightService
	csv      *storage.CSVWriter
	xlsx     *storage.XLSXWriter
	store    storage.RateStore
	out      io.Writer
	logger   *utils.Logger

	mu sync.Mutex
}

// NewPipeline wires every step from cfg. store may be nil when persistence is disabled.
func NewPipeline(cfg *config.Config, store storage.RateStore, out io.Writer, logger *utils.Logger) (*Pipeline, error) {
	buckets, err := ParseLeadTimeBuckets(cfg.Analysis.LeadTimeBuckets)
	if err != nil {
		return nil, utils.NewAppError("config", "analysis.leadTimeBuckets", err)
	}
	insights, err := NewInsightService(AnalysisOptions{
		Buckets:            buckets,
		Breakdowns:         cfg.Analysis.Breakdowns,
		MonotonicTolerance: cfg.Analysis.MonotonicTolerance,
		DepositGap:         cfg.Analysis.DepositGap,
	}, logger)
	if err != nil {
		return nil, utils.NewAppError("config", "analysis.breakdowns", err)
	}

	cleaner := NewDataCleaner(CleanOptions{
		NAThreshold:     cfg.Cleaning.NAThreshold,
		OutlierQuantile: cfg.Cleaning.OutlierQuantile,
		DropDuplicates:  cfg.Cleaning.DropDuplicates,
	}, logger)

	return &Pipeline{
		cfg:      cfg,
		reader:   storage.NewCSVReader(logger),
		cleaner:  cleaner,
		insights: insights,
		csv:      storage.NewCSVWriter(logger),
		xlsx:     storage.NewXLSXWriter(logger),
		store:    store,
		out:      out,
		logger:   logger,
	}, nil
}

// Run executes one analysis. Runs never overlap.
// Load, clean and aggregate failures abort the run; export failures are only logged.
func (p *Pipeline) Run(ctx context.Context) (*models.InsightReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	report, err := p.run(ctx)
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.ObserveRun(time.Since(start), outcome)
	return report, err
}

func (p *Pipeline) run(ctx context.Context) (*models.InsightReport, error) {
	runID := uuid.NewString()
	p.logger.Info("Starting analysis run %s on %s", runID, p.cfg.Data.RawPath)

	df, err := p.reader.ReadFile(p.cfg.Data.RawPath)
	if err != nil {
		return nil, utils.NewAppError("load", p.cfg.Data.RawPath, err)
	}
	metrics.SetReservations("raw", df.Nrow())

	cleaned, err := p.cleaner.Clean(df)
	if err != nil {
		return nil, utils.NewAppError("clean", p.cfg.Data.RawPath, err)
	}
	metrics.SetReservations("clean", len(cleaned.Reservations))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report, err := p.insights.Generate(cleaned.Reservations)
	if err != nil {
		return nil, utils.NewAppError("aggregate", runID, err)
	}
	report.DroppedColumns = cleaned.DroppedColumns
	metrics.SetReservations("canceled", report.Canceled)
	metrics.ResetGroupRates()
	for _, b := range report.Breakdowns {
		for _, row := range b.Rows {
			metrics.SetGroupRate(b.Name, row.Key(), row.CancelRate)
		}
	}

	PrintInsightReport(p.out, report)
	p.export(ctx, runID, cleaned.Reservations, report)

	p.logger.Info("Run %s finished: %d reservations, %d breakdowns", runID, report.TotalReservations, len(report.Breakdowns))
	return report, nil
}

// export writes every configured sink concurrently; each failure is logged on its own
func (p *Pipeline) export(ctx context.Context, runID string, reservations []models.Reservation, report *models.InsightReport) {
	var g errgroup.Group

	if dir := p.cfg.Data.ProcessedDir; dir != "" {
		g.Go(func() error {
			if err := p.csv.WriteReservations(filepath.Join(dir, processedFileName), reservations); err != nil {
				p.logger.Error("Failed to write processed CSV: %v", err)
				return err
			}
			return nil
		})
	}

	if dir := p.cfg.Data.ReportsDir; dir != "" {
		g.Go(func() error {
			if err := p.csv.WriteBreakdowns(dir, report.Breakdowns); err != nil {
				p.logger.Error("Failed to write rate tables: %v", err)
				return err
			}
			return nil
		})
		g.Go(func() error {
			if err := p.xlsx.WriteBreakdowns(filepath.Join(dir, workbookFileName), report.Breakdowns); err != nil {
				p.logger.Error("Failed to write rate workbook: %v", err)
				return err
			}
			return nil
		})
	}

	if p.store != nil {
		g.Go(func() error {
			if err := p.store.SaveReservations(ctx, reservations); err != nil {
				p.logger.Error("Failed to store reservations: %v", err)
				return err
			}
			for _, b := range report.Breakdowns {
				if err := p.store.SaveRates(ctx, runID, b); err != nil {
					p.logger.Error("Failed to store %s rates: %v", b.Name, err)
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.logger.Warn("Run %s exported partially", runID)
	}
}
