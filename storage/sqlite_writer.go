package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"hotel-bookings/utils"

	_ "modernc.org/sqlite"
)

// SQLiteWriter stores clean reservations and rate tables in a local SQLite file
type SQLiteWriter struct {
	sqlStore
}

// NewSQLiteWriter opens (or creates) the database file at path
func NewSQLiteWriter(ctx context.Context, path string, logger *utils.Logger) (*SQLiteWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		logger.Warn("Failed to set WAL mode: %v", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		logger.Warn("Failed to set synchronous mode: %v", err)
	}

	logger.Info("Opened SQLite database at %s", path)
	return &SQLiteWriter{sqlStore{
		db: db,
		dialect: dialect{
			name:        "sqlite",
			placeholder: func(int) string { return "?" },
			realType:    "REAL",
		},
		logger: logger,
	}}, nil
}
