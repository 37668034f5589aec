package services

import (
	"fmt"
	"strconv"
	"strings"

	"hotel-bookings/models"
)

// Unbounded marks the open upper end of the last bucket
const Unbounded = -1

// Bucket is a half-open lead-time range [Lower, Upper)
type Bucket struct {
	Lower int
	Upper int
}

// Contains reports whether a lead time falls in the bucket
func (b Bucket) Contains(leadTime int) bool {
	if leadTime < b.Lower {
		return false
	}
	return b.Upper == Unbounded || leadTime < b.Upper
}

// minLabelWidth keeps the default labels at three digits ("007-030")
const minLabelWidth = 3

// Label renders the bucket with bounds zero-padded to width digits
func (b Bucket) Label(width int) string {
	if b.Upper == Unbounded {
		return fmt.Sprintf("%0*d+", width, b.Lower)
	}
	return fmt.Sprintf("%0*d-%0*d", width, b.Lower, width, b.Upper)
}

// LeadTimeBuckets partitions all non-negative lead times
type LeadTimeBuckets []Bucket

// DefaultLeadTimeBuckets is [0,7) [7,30) [30,90) [90,180) [180,inf)
var DefaultLeadTimeBuckets = LeadTimeBuckets{
	{Lower: 0, Upper: 7},
	{Lower: 7, Upper: 30},
	{Lower: 30, Upper: 90},
	{Lower: 90, Upper: 180},
	{Lower: 180, Upper: Unbounded},
}

// ParseLeadTimeBuckets parses "0-7,7-30,30-" into validated buckets.
// An empty upper bound means unbounded.
func ParseLeadTimeBuckets(spec string) (LeadTimeBuckets, error) {
	var buckets LeadTimeBuckets
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, ok := strings.Cut(part, "-")
		if !ok {
			return nil, fmt.Errorf("%w: bucket %q is not of the form lower-upper", models.ErrInvalidBuckets, part)
		}
		lower, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("%w: bucket %q has a bad lower bound", models.ErrInvalidBuckets, part)
		}
		upper := Unbounded
		if hi = strings.TrimSpace(hi); hi != "" {
			upper, err = strconv.Atoi(hi)
			if err != nil {
				return nil, fmt.Errorf("%w: bucket %q has a bad upper bound", models.ErrInvalidBuckets, part)
			}
		}
		buckets = append(buckets, Bucket{Lower: lower, Upper: upper})
	}
	if err := buckets.Validate(); err != nil {
		return nil, err
	}
	return buckets, nil
}

// Validate checks that the buckets cover [0, inf) exactly once
func (bs LeadTimeBuckets) Validate() error {
	if len(bs) == 0 {
		return fmt.Errorf("%w: no buckets configured", models.ErrInvalidBuckets)
	}
	if bs[0].Lower != 0 {
		return fmt.Errorf("%w: first bucket must start at 0, got %d", models.ErrInvalidBuckets, bs[0].Lower)
	}
	for i, b := range bs {
		last := i == len(bs)-1
		if b.Upper == Unbounded {
			if !last {
				return fmt.Errorf("%w: unbounded bucket starting at %d must be last", models.ErrInvalidBuckets, b.Lower)
			}
			continue
		}
		if b.Upper <= b.Lower {
			return fmt.Errorf("%w: bucket [%d,%d) is empty", models.ErrInvalidBuckets, b.Lower, b.Upper)
		}
		if last {
			return fmt.Errorf("%w: last bucket must be unbounded, got upper %d", models.ErrInvalidBuckets, b.Upper)
		}
		next := bs[i+1]
		switch {
		case next.Lower > b.Upper:
			return fmt.Errorf("%w: gap between %d and %d", models.ErrInvalidBuckets, b.Upper, next.Lower)
		case next.Lower < b.Upper:
			return fmt.Errorf("%w: overlap between [%d,%d) and bucket starting at %d", models.ErrInvalidBuckets, b.Lower, b.Upper, next.Lower)
		}
	}
	return nil
}

// Label returns the label of the bucket holding leadTime.
// Validated buckets always match a non-negative lead time.
func (bs LeadTimeBuckets) Label(leadTime int) (string, bool) {
	width := bs.labelWidth()
	for _, b := range bs {
		if b.Contains(leadTime) {
			return b.Label(width), true
		}
	}
	return "", false
}

// Labels lists the bucket labels in bucket order. Every bound is padded to the
// width of the largest one, so sorted labels follow numeric order.
func (bs LeadTimeBuckets) Labels() []string {
	width := bs.labelWidth()
	labels := make([]string, len(bs))
	for i, b := range bs {
		labels[i] = b.Label(width)
	}
	return labels
}

func (bs LeadTimeBuckets) labelWidth() int {
	width := minLabelWidth
	for _, b := range bs {
		for _, bound := range []int{b.Lower, b.Upper} {
			if n := len(strconv.Itoa(bound)); bound > 0 && n > width {
				width = n
			}
		}
	}
	return width
}
