package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"hotel-bookings/models"
	"hotel-bookings/utils"
)

// dialect holds the SQL differences between the supported drivers
type dialect struct {
	name        string
	placeholder func(n int) string
	realType    string
}

// sqlStore implements RateStore over database/sql
type sqlStore struct {
	db      *sql.DB
	dialect dialect
	logger  *utils.Logger
}

func (s *sqlStore) params(from, count int) string {
	ps := make([]string, count)
	for i := range ps {
		ps[i] = s.dialect.placeholder(from + i)
	}
	return strings.Join(ps, ", ")
}

// CreateTables creates the reservations and cancellation_rates tables if they don't exist, with indexes
func (s *sqlStore) CreateTables(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS reservations (
			id                   BIGINT PRIMARY KEY,
			hotel                TEXT    NOT NULL,
			is_canceled          BOOLEAN NOT NULL,
			lead_time            INTEGER NOT NULL,
			arrival_year         INTEGER,
			arrival_month        TEXT,
			weekend_nights       INTEGER,
			week_nights          INTEGER,
			adults               INTEGER,
			children             INTEGER,
			babies               INTEGER,
			country              TEXT,
			market_segment       TEXT    NOT NULL,
			distribution_channel TEXT    NOT NULL,
			deposit_type         TEXT    NOT NULL,
			customer_type        TEXT,
			agent                INTEGER,
			company              INTEGER,
			adr                  %s
		)`, s.dialect.realType),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS cancellation_rates (
			run_id      TEXT    NOT NULL,
			breakdown   TEXT    NOT NULL,
			group_key   TEXT    NOT NULL,
			count       INTEGER NOT NULL,
			canceled    INTEGER NOT NULL,
			cancel_rate %s NOT NULL,
			computed_at TIMESTAMP NOT NULL,
			PRIMARY KEY (run_id, breakdown, group_key)
		)`, s.dialect.realType),
		`CREATE INDEX IF NOT EXISTS idx_reservations_segment ON reservations (market_segment)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_deposit ON reservations (deposit_type)`,
		`CREATE INDEX IF NOT EXISTS idx_rates_breakdown ON cancellation_rates (breakdown)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	s.logger.Info("Tables 'reservations' and 'cancellation_rates' are ready (%s)", s.dialect.name)
	return nil
}

// SaveReservations replaces the stored dataset with the current run's rows in a single transaction
func (s *sqlStore) SaveReservations(ctx context.Context, reservations []models.Reservation) (err error) {
	if len(reservations) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM reservations`); err != nil {
		return fmt.Errorf("failed to clear reservations: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reservations (id, hotel, is_canceled, lead_time, arrival_year, arrival_month,
			weekend_nights, week_nights, adults, children, babies, country, market_segment,
			distribution_channel, deposit_type, customer_type, agent, company, adr)
		VALUES (`+s.params(1, 19)+`)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range reservations {
		_, err = stmt.ExecContext(ctx,
			r.ID, r.Hotel, r.IsCanceled, r.LeadTime, r.ArrivalYear, r.ArrivalMonth,
			r.WeekendNights, r.WeekNights, r.Adults, r.Children, r.Babies, r.Country, r.MarketSegment,
			r.DistributionChannel, r.DepositType, r.CustomerType, r.Agent, r.Company, r.ADR,
		)
		if err != nil {
			return fmt.Errorf("failed to insert reservation %d: %w", r.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Inserted %d reservations into %s", len(reservations), s.dialect.name)
	return nil
}

// SaveRates upserts one breakdown's rows under runID
func (s *sqlStore) SaveRates(ctx context.Context, runID string, b models.Breakdown) (err error) {
	if len(b.Rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cancellation_rates (run_id, breakdown, group_key, count, canceled, cancel_rate, computed_at)
		VALUES (`+s.params(1, 7)+`)
		ON CONFLICT (run_id, breakdown, group_key) DO UPDATE
		SET count = excluded.count, canceled = excluded.canceled,
			cancel_rate = excluded.cancel_rate, computed_at = excluded.computed_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, row := range b.Rows {
		if _, err = stmt.ExecContext(ctx, runID, b.Name, row.Key(), row.Count, row.Canceled, row.CancelRate, now); err != nil {
			return fmt.Errorf("failed to insert rate %s/%s: %w", b.Name, row.Key(), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.logger.Debug("Stored %d rate rows for %s (run %s)", len(b.Rows), b.Name, runID)
	return nil
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
