package services

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"hotel-bookings/models"
	"hotel-bookings/storage"
	"hotel-bookings/utils"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/require"
)

const csvHeader = "hotel,is_canceled,lead_time,arrival_date_year,arrival_date_month," +
	"stays_in_weekend_nights,stays_in_week_nights,adults,children,babies,country," +
	"market_segment,distribution_channel,deposit_type,customer_type,agent,company,adr"

func quietLogger() *utils.Logger {
	return utils.NewLoggerWithLevel(utils.LevelError, io.Discard, io.Discard)
}

// bookingRow renders one CSV line with sensible defaults for the columns a test does not care about
type bookingRow struct {
	hotel    string
	canceled string
	leadTime string
	children string
	country  string
	segment  string
	channel  string
	deposit  string
	agent    string
	company  string
	adr      string
}

func (b bookingRow) String() string {
	def := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return strings.Join([]string{
		def(b.hotel, "City Hotel"),
		def(b.canceled, "0"),
		def(b.leadTime, "10"),
		"2016", "July", "1", "2", "2",
		def(b.children, "0"),
		"0",
		def(b.country, "PRT"),
		def(b.segment, "Online TA"),
		def(b.channel, "TA/TO"),
		def(b.deposit, "No Deposit"),
		"Transient",
		def(b.agent, "9"),
		def(b.company, "40"),
		def(b.adr, "100"),
	}, ",")
}

func buildCSV(rows ...bookingRow) string {
	lines := []string{csvHeader}
	for _, r := range rows {
		lines = append(lines, r.String())
	}
	return strings.Join(lines, "\n") + "\n"
}

func loadFrame(t *testing.T, csv string) dataframe.DataFrame {
	t.Helper()
	df, err := storage.NewCSVReader(quietLogger()).Read(strings.NewReader(csv))
	require.NoError(t, err)
	return df
}

func res(segment, deposit string, leadTime int, canceled bool) models.Reservation {
	return models.Reservation{
		Hotel:               "City Hotel",
		MarketSegment:       segment,
		DistributionChannel: "TA/TO",
		DepositType:         deposit,
		LeadTime:            leadTime,
		IsCanceled:          canceled,
	}
}

// sampleReservations builds a deterministic mixed dataset
func sampleReservations(n int) []models.Reservation {
	segments := []string{"Direct", "Corporate", "Online TA", "Offline TA/TO", "Groups"}
	deposits := []string{"No Deposit", "Non Refund", "Refundable"}
	out := make([]models.Reservation, n)
	for i := range out {
		out[i] = res(segments[i%len(segments)], deposits[(i/2)%len(deposits)], (i*37)%400, i%3 == 0 || i%7 == 0)
		out[i].ID = int64(i + 1)
		out[i].Hotel = fmt.Sprintf("Hotel %d", i%2)
	}
	return out
}
