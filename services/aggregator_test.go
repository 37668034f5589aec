package services

import (
	"testing"

	"hotel-bookings/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSelectors(t *testing.T, breakdown string) []Selector {
	t.Helper()
	sel, err := ParseSelectors(breakdown, DefaultLeadTimeBuckets)
	require.NoError(t, err)
	return sel
}

func TestComputeCancellationRates_SegmentScenario(t *testing.T) {
	records := []models.Reservation{
		res("Direct", "No Deposit", 1, false),
		res("Direct", "No Deposit", 1, true),
		res("Online TA", "No Deposit", 1, true),
	}

	rows, err := ComputeCancellationRates(records, mustSelectors(t, "market_segment"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"Online TA"}, rows[0].GroupKey)
	assert.Equal(t, 1, rows[0].Count)
	assert.Equal(t, 1, rows[0].Canceled)
	assert.InDelta(t, 1.0, rows[0].CancelRate, 1e-9)

	assert.Equal(t, []string{"Direct"}, rows[1].GroupKey)
	assert.Equal(t, 2, rows[1].Count)
	assert.Equal(t, 1, rows[1].Canceled)
	assert.InDelta(t, 0.5, rows[1].CancelRate, 1e-9)
}

func TestComputeCancellationRates_EmptyInput(t *testing.T) {
	_, err := ComputeCancellationRates(nil, mustSelectors(t, "market_segment"))
	assert.ErrorIs(t, err, models.ErrEmptyInput)
}

func TestComputeCancellationRates_InvalidGroupKey(t *testing.T) {
	records := sampleReservations(10)

	_, err := ComputeCancellationRates(records, nil)
	assert.ErrorIs(t, err, models.ErrInvalidGroupKey)

	_, err = ComputeCancellationRates(records, []Selector{{Name: "broken"}})
	assert.ErrorIs(t, err, models.ErrInvalidGroupKey)

	_, err = ParseSelector("room_type", DefaultLeadTimeBuckets)
	assert.ErrorIs(t, err, models.ErrInvalidGroupKey)

	_, err = ParseSelectors("hotel+", DefaultLeadTimeBuckets)
	assert.ErrorIs(t, err, models.ErrInvalidGroupKey)
}

func TestComputeCancellationRates_Invariants(t *testing.T) {
	records := sampleReservations(250)
	canceled := 0
	for _, r := range records {
		if r.IsCanceled {
			canceled++
		}
	}

	for _, breakdown := range []string{
		"market_segment",
		"deposit_type",
		"lead_time_bucket",
		"hotel+deposit_type",
		"market_segment+lead_time_bucket",
	} {
		t.Run(breakdown, func(t *testing.T) {
			rows, err := ComputeCancellationRates(records, mustSelectors(t, breakdown))
			require.NoError(t, err)

			total, totalCanceled := 0, 0
			seen := map[string]bool{}
			for _, row := range rows {
				assert.Greater(t, row.Count, 0)
				assert.GreaterOrEqual(t, row.CancelRate, 0.0)
				assert.LessOrEqual(t, row.CancelRate, 1.0)
				assert.LessOrEqual(t, row.Canceled, row.Count)
				assert.False(t, seen[row.Key()], "duplicate group %s", row.Key())
				seen[row.Key()] = true
				total += row.Count
				totalCanceled += row.Canceled
			}
			assert.Equal(t, len(records), total)
			assert.Equal(t, canceled, totalCanceled)

			for i := 1; i < len(rows); i++ {
				assert.GreaterOrEqual(t, rows[i-1].CancelRate, rows[i].CancelRate)
			}
		})
	}
}

func TestComputeCancellationRates_Idempotent(t *testing.T) {
	records := sampleReservations(120)
	sel := mustSelectors(t, "hotel+market_segment")

	first, err := ComputeCancellationRates(records, sel)
	require.NoError(t, err)
	second, err := ComputeCancellationRates(records, sel)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeCancellationRates_TieBreak(t *testing.T) {
	records := []models.Reservation{
		res("B", "No Deposit", 1, true),
		res("B", "No Deposit", 1, false),
		res("A", "No Deposit", 1, true),
		res("A", "No Deposit", 1, false),
		res("C", "No Deposit", 1, true),
		res("C", "No Deposit", 1, false),
		res("C", "No Deposit", 1, true),
		res("C", "No Deposit", 1, false),
	}

	rows, err := ComputeCancellationRates(records, mustSelectors(t, "market_segment"))
	require.NoError(t, err)

	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.Key()
	}
	// equal rates: larger group first, then key order
	assert.Equal(t, []string{"C", "A", "B"}, keys)
}

func TestComputeCancellationRates_CompositeKey(t *testing.T) {
	records := []models.Reservation{
		res("Online TA", "Non Refund", 3, true),
		res("Online TA", "No Deposit", 3, false),
		res("Online TA", "Non Refund", 400, true),
	}
	rows, err := ComputeCancellationRates(records, mustSelectors(t, "deposit_type+lead_time_bucket"))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	b := models.Breakdown{Rows: rows}
	row, ok := b.Find("Non Refund", "000-007")
	require.True(t, ok)
	assert.Equal(t, 1, row.Count)
	assert.Equal(t, "Non Refund | 000-007", row.Key())

	row, ok = b.Find("Non Refund", "180+")
	require.True(t, ok)
	assert.Equal(t, 1, row.Canceled)

	_, ok = b.Find("Refundable", "000-007")
	assert.False(t, ok)
}

func TestSelectorNames(t *testing.T) {
	names := SelectorNames()
	assert.Contains(t, names, "market_segment")
	assert.Contains(t, names, LeadTimeBucketField)
	assert.IsIncreasing(t, names)
}

func TestComputeCancellationRates_SeparatorInValues(t *testing.T) {
	first := res("Online TA", "C", 1, true)
	first.Hotel = "A | B"
	second := res("Online TA", "B | C", 1, false)
	second.Hotel = "A"

	rows, err := ComputeCancellationRates([]models.Reservation{first, second}, mustSelectors(t, "hotel+deposit_type"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"A | B", "C"}, rows[0].GroupKey)
	assert.Equal(t, 1, rows[0].Count)
	assert.Equal(t, []string{"A", "B | C"}, rows[1].GroupKey)
	assert.Equal(t, 1, rows[1].Count)
}

func TestSortRates_SameDisplayKey(t *testing.T) {
	rows := []models.CancellationRateRow{
		{GroupKey: []string{"A | B", "C"}, Count: 1, CancelRate: 0.5},
		{GroupKey: []string{"A", "B | C"}, Count: 1, CancelRate: 0.5},
	}
	SortRates(rows)
	assert.Equal(t, []string{"A", "B | C"}, rows[0].GroupKey)
}
