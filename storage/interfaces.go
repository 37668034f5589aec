package storage

import (
	"context"

	"hotel-bookings/models"
)

// RateStore persists the cleaned dataset and the rate tables of each run
type RateStore interface {
	CreateTables(ctx context.Context) error
	SaveReservations(ctx context.Context, reservations []models.Reservation) error
	SaveRates(ctx context.Context, runID string, breakdown models.Breakdown) error
	Close() error
}
