package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"hotel-bookings/utils"

	_ "github.com/lib/pq"
)

// PostgresWriter stores clean reservations and rate tables in PostgreSQL
type PostgresWriter struct {
	sqlStore
}

// NewPostgresWriter opens the DB and pings it, retrying with backoff
func NewPostgresWriter(ctx context.Context, connStr string, maxRetries int, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	ping := func() error { return db.PingContext(ctx) }
	if err := utils.RetryWithBackoff(ctx, maxRetries, time.Second, ping, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.Info("Connected to PostgreSQL successfully")
	return &PostgresWriter{sqlStore{
		db: db,
		dialect: dialect{
			name:        "postgres",
			placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
			realType:    "DOUBLE PRECISION",
		},
		logger: logger,
	}}, nil
}
