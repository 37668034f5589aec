package storage

import (
	"context"
	"database/sql"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"hotel-bookings/models"
	"hotel-bookings/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func quietLogger() *utils.Logger {
	return utils.NewLoggerWithLevel(utils.LevelError, io.Discard, io.Discard)
}

func sampleBreakdowns() []models.Breakdown {
	return []models.Breakdown{
		{
			Name:    "market_segment",
			GroupBy: []string{"market_segment"},
			Rows: []models.CancellationRateRow{
				{GroupKey: []string{"Online TA"}, Count: 1, Canceled: 1, CancelRate: 1},
				{GroupKey: []string{"Direct"}, Count: 2, Canceled: 1, CancelRate: 0.5},
			},
		},
		{
			Name:    "hotel+deposit_type",
			GroupBy: []string{"hotel", "deposit_type"},
			Rows: []models.CancellationRateRow{
				{GroupKey: []string{"City Hotel", "Non Refund"}, Count: 3, Canceled: 2, CancelRate: 2.0 / 3},
			},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVReader_Read(t *testing.T) {
	in := "hotel,is_canceled,lead_time,market_segment,distribution_channel,deposit_type,children\n" +
		"City Hotel,1,10,Online TA,TA/TO,No Deposit,NA\n" +
		"Resort Hotel,0,3,Direct,Direct,No Deposit,1\n"

	df, err := NewCSVReader(quietLogger()).Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, df.Nrow())
	assert.Equal(t, 7, df.Ncol())
	// read as text, typing happens later
	assert.Equal(t, "10", df.Col(models.ColLeadTime).Records()[0])
	assert.True(t, models.IsMissing(df.Col(models.ColChildren).Records()[0]))
}

func TestCSVReader_MissingColumns(t *testing.T) {
	_, err := NewCSVReader(quietLogger()).Read(strings.NewReader("hotel,lead_time\nCity Hotel,3\n"))
	require.ErrorIs(t, err, models.ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "is_canceled")
	assert.Contains(t, err.Error(), "deposit_type")
}

func TestCSVReader_ReadFileNotFound(t *testing.T) {
	_, err := NewCSVReader(quietLogger()).ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCheckSchema(t *testing.T) {
	assert.NoError(t, CheckSchema(models.RequiredColumns))
	assert.ErrorIs(t, CheckSchema([]string{"hotel"}), models.ErrSchemaMismatch)
}

func TestCSVWriter_WriteBreakdowns(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tables")
	require.NoError(t, NewCSVWriter(quietLogger()).WriteBreakdowns(dir, sampleBreakdowns()))

	records := readCSV(t, filepath.Join(dir, "cancel_rate_by_market_segment.csv"))
	assert.Equal(t, [][]string{
		{"group_key", "count", "canceled", "cancel_rate"},
		{"Online TA", "1", "1", "1.000000"},
		{"Direct", "2", "1", "0.500000"},
	}, records)

	records = readCSV(t, filepath.Join(dir, "cancel_rate_by_hotel_and_deposit_type.csv"))
	require.Len(t, records, 2)
	assert.Equal(t, "City Hotel | Non Refund", records[1][0])
	assert.Equal(t, "0.666667", records[1][3])
}

func TestCSVWriter_WriteReservations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed", "clean.csv")
	rows := []models.Reservation{{
		ID: 1, Hotel: "City Hotel", IsCanceled: true, LeadTime: 12, ArrivalMonth: "July",
		WeekendNights: 1, WeekNights: 2, Adults: 2, Children: 1, Country: "PRT",
		MarketSegment: "Online TA", DistributionChannel: "TA/TO", DepositType: "No Deposit", ADR: 99.5,
	}}
	require.NoError(t, NewCSVWriter(quietLogger()).WriteReservations(path, rows))

	records := readCSV(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, reservationHeader, records[0])
	got := map[string]string{}
	for i, col := range records[0] {
		got[col] = records[1][i]
	}
	assert.Equal(t, "1", got[models.ColIsCanceled])
	assert.Equal(t, "99.5", got[models.ColADR])
	assert.Equal(t, "3", got["total_stay"])
	assert.Equal(t, "3", got["total_guests"])
}

func TestBreakdownFileName(t *testing.T) {
	assert.Equal(t, "cancel_rate_by_deposit_type", BreakdownFileName("deposit_type"))
	assert.Equal(t, "cancel_rate_by_hotel_and_deposit_type", BreakdownFileName("hotel+deposit_type"))
}

func TestXLSXWriter_WriteBreakdowns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "rates.xlsx")
	require.NoError(t, NewXLSXWriter(quietLogger()).WriteBreakdowns(path, sampleBreakdowns()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"market_segment", "hotel+deposit_type"}, f.GetSheetList())

	rows, err := f.GetRows("market_segment")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, rateHeader, rows[0])
	assert.Equal(t, "Online TA", rows[1][0])
	assert.Equal(t, "2", rows[2][1])

	v, err := f.GetCellValue("hotel+deposit_type", "A2")
	require.NoError(t, err)
	assert.Equal(t, "City Hotel | Non Refund", v)
}

func TestXLSXWriter_NoBreakdowns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, NewXLSXWriter(quietLogger()).WriteBreakdowns(path, nil))
	assert.NoFileExists(t, path)
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	long := "market_segment+distribution_channel+deposit_type"
	assert.Len(t, sheetName(long, used), maxSheetName)
	assert.Equal(t, "hotel", sheetName("hotel", used))
	assert.Equal(t, "hotel~2", sheetName("hotel", used))
	assert.Equal(t, "hotel~3", sheetName("Hotel", used))
}

func TestXLSXWriter_LongNamesSharingPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.xlsx")
	breakdowns := []models.Breakdown{
		{
			Name: "distribution_channel+deposit_type",
			Rows: []models.CancellationRateRow{
				{GroupKey: []string{"a", "b"}, Count: 1},
				{GroupKey: []string{"c", "d"}, Count: 2},
				{GroupKey: []string{"e", "f"}, Count: 3},
			},
		},
		{
			Name: "distribution_channel+deposit_type+hotel",
			Rows: []models.CancellationRateRow{{GroupKey: []string{"x", "y", "z"}, Count: 9}},
		},
	}
	require.NoError(t, NewXLSXWriter(quietLogger()).WriteBreakdowns(path, breakdowns))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 2)
	assert.Equal(t, "distribution_channel+deposit_ty", sheets[0])
	assert.Equal(t, "distribution_channel+deposit_~2", sheets[1])

	first, err := f.GetRows(sheets[0])
	require.NoError(t, err)
	assert.Len(t, first, 4)
	assert.Equal(t, "a | b", first[1][0])

	second, err := f.GetRows(sheets[1])
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "x | y | z", second[1][0])
}

func TestSQLiteWriter_SaveAndReplace(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "bookings.db")

	store, err := NewSQLiteWriter(ctx, path, quietLogger())
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.CreateTables(ctx))
	// idempotent
	require.NoError(t, store.CreateTables(ctx))

	reservations := []models.Reservation{
		{ID: 1, Hotel: "City Hotel", IsCanceled: true, LeadTime: 3, MarketSegment: "Online TA", DistributionChannel: "TA/TO", DepositType: "No Deposit", ADR: 80},
		{ID: 2, Hotel: "City Hotel", LeadTime: 40, MarketSegment: "Direct", DistributionChannel: "Direct", DepositType: "No Deposit", ADR: 120},
	}
	require.NoError(t, store.SaveReservations(ctx, reservations))
	require.NoError(t, store.SaveReservations(ctx, reservations[:1]))

	var n int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations`).Scan(&n))
	assert.Equal(t, 1, n)

	for _, b := range sampleBreakdowns() {
		require.NoError(t, store.SaveRates(ctx, "run-1", b))
	}
	// same run again updates in place
	updated := sampleBreakdowns()[0]
	updated.Rows[1].Canceled = 2
	updated.Rows[1].CancelRate = 1
	require.NoError(t, store.SaveRates(ctx, "run-1", updated))

	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cancellation_rates`).Scan(&n))
	assert.Equal(t, 3, n)

	var rate float64
	err = store.db.QueryRowContext(ctx,
		`SELECT cancel_rate FROM cancellation_rates WHERE run_id = ? AND breakdown = ? AND group_key = ?`,
		"run-1", "market_segment", "Direct").Scan(&rate)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rate, 1e-9)

	var key string
	err = store.db.QueryRowContext(ctx,
		`SELECT group_key FROM cancellation_rates WHERE breakdown = ?`, "hotel+deposit_type").Scan(&key)
	require.NoError(t, err)
	assert.Equal(t, "City Hotel | Non Refund", key)
}

func TestSQLiteWriter_EmptyInputsAreNoops(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteWriter(ctx, filepath.Join(t.TempDir(), "b.db"), quietLogger())
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.CreateTables(ctx))

	assert.NoError(t, store.SaveReservations(ctx, nil))
	assert.NoError(t, store.SaveRates(ctx, "run", models.Breakdown{Name: "hotel"}))
}

func TestDialectPlaceholders(t *testing.T) {
	s := &sqlStore{dialect: dialect{placeholder: func(n int) string { return "$" + strconv.Itoa(n) }}}
	assert.Equal(t, "$1, $2, $3", s.params(1, 3))
}

var (
	_ RateStore = (*SQLiteWriter)(nil)
	_ RateStore = (*PostgresWriter)(nil)
)

func openRaw(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteWriter_WALMode(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wal.db")
	store, err := NewSQLiteWriter(ctx, path, quietLogger())
	require.NoError(t, err)
	defer store.Close()

	var mode string
	require.NoError(t, openRaw(t, path).QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}
