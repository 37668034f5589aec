package services

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"hotel-bookings/models"
)

// Selector extracts one grouping attribute from a reservation
type Selector struct {
	Name    string
	Extract func(models.Reservation) (string, error)
}

const LeadTimeBucketField = "lead_time_bucket"

var fieldSelectors = map[string]func(models.Reservation) string{
	"hotel":                func(r models.Reservation) string { return r.Hotel },
	"market_segment":       func(r models.Reservation) string { return r.MarketSegment },
	"distribution_channel": func(r models.Reservation) string { return r.DistributionChannel },
	"deposit_type":         func(r models.Reservation) string { return r.DepositType },
	"customer_type":        func(r models.Reservation) string { return r.CustomerType },
	"arrival_date_month":   func(r models.Reservation) string { return r.ArrivalMonth },
	"country":              func(r models.Reservation) string { return r.Country },
}

// SelectorNames lists every name ParseSelector accepts
func SelectorNames() []string {
	names := make([]string, 0, len(fieldSelectors)+1)
	for name := range fieldSelectors {
		names = append(names, name)
	}
	names = append(names, LeadTimeBucketField)
	sort.Strings(names)
	return names
}

// ParseSelector builds a Selector for a reservation field.
// lead_time_bucket needs validated buckets.
func ParseSelector(name string, buckets LeadTimeBuckets) (Selector, error) {
	name = strings.TrimSpace(name)
	if fn, ok := fieldSelectors[name]; ok {
		return Selector{
			Name:    name,
			Extract: func(r models.Reservation) (string, error) { return fn(r), nil },
		}, nil
	}
	if name != LeadTimeBucketField {
		return Selector{}, fmt.Errorf("%w: %q (known: %s)", models.ErrInvalidGroupKey, name, strings.Join(SelectorNames(), ", "))
	}
	if err := buckets.Validate(); err != nil {
		return Selector{}, err
	}
	return Selector{
		Name: name,
		Extract: func(r models.Reservation) (string, error) {
			label, ok := buckets.Label(r.LeadTime)
			if !ok {
				return "", fmt.Errorf("%w: lead_time %d outside every bucket", models.ErrSchemaMismatch, r.LeadTime)
			}
			return label, nil
		},
	}, nil
}

// ParseSelectors parses a "+"-joined breakdown such as "hotel+deposit_type"
func ParseSelectors(breakdown string, buckets LeadTimeBuckets) ([]Selector, error) {
	var selectors []Selector
	for _, name := range strings.Split(breakdown, "+") {
		sel, err := ParseSelector(name, buckets)
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, sel)
	}
	return selectors, nil
}

type groupCount struct {
	key      []string
	count    int
	canceled int
}

// ComputeCancellationRates partitions records by the selected attributes and
// returns one row per non-empty group, ordered by cancel rate descending,
// then count descending, then group key ascending.
func ComputeCancellationRates(records []models.Reservation, groupBy []Selector) ([]models.CancellationRateRow, error) {
	if len(groupBy) == 0 {
		return nil, fmt.Errorf("%w: no selectors given", models.ErrInvalidGroupKey)
	}
	for _, sel := range groupBy {
		if sel.Extract == nil {
			return nil, fmt.Errorf("%w: selector %q has no extractor", models.ErrInvalidGroupKey, sel.Name)
		}
	}
	if len(records) == 0 {
		return nil, models.ErrEmptyInput
	}

	groups := make(map[string]*groupCount)
	for i, r := range records {
		values := make([]string, len(groupBy))
		for j, sel := range groupBy {
			v, err := sel.Extract(r)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			values[j] = v
		}
		key := partitionKey(values)
		g, ok := groups[key]
		if !ok {
			g = &groupCount{key: values}
			groups[key] = g
		}
		g.count++
		if r.IsCanceled {
			g.canceled++
		}
	}

	rows := make([]models.CancellationRateRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, models.CancellationRateRow{
			GroupKey:   g.key,
			Count:      g.count,
			Canceled:   g.canceled,
			CancelRate: float64(g.canceled) / float64(g.count),
		})
	}
	SortRates(rows)
	return rows, nil
}

// partitionKey quotes each value so that distinct tuples never share a key,
// whatever separators the values contain. JoinKey is only for display.
func partitionKey(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return strings.Join(quoted, ",")
}

// SortRates applies the reporting order in place
func SortRates(rows []models.CancellationRateRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.CancelRate != b.CancelRate {
			return a.CancelRate > b.CancelRate
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if ka, kb := a.Key(), b.Key(); ka != kb {
			return ka < kb
		}
		return slices.Compare(a.GroupKey, b.GroupKey) < 0
	})
}
