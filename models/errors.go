package models

import "errors"

var (
	// ErrInvalidGroupKey is returned when a selector names a field absent from the reservation schema
	ErrInvalidGroupKey = errors.New("invalid group key")
	// ErrEmptyInput is returned when there are no reservations to aggregate
	ErrEmptyInput = errors.New("empty input")
	// ErrSchemaMismatch is returned when a record or file is missing a required field
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrInvalidBuckets is returned for lead-time bucket configurations with gaps or overlaps
	ErrInvalidBuckets = errors.New("invalid lead-time buckets")
)
