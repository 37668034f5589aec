package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"hotel-bookings/models"
	"hotel-bookings/utils"
)

var reservationHeader = []string{
	models.ColHotel, models.ColIsCanceled, models.ColLeadTime,
	models.ColArrivalYear, models.ColArrivalMonth,
	models.ColWeekendNights, models.ColWeekNights,
	models.ColAdults, models.ColChildren, models.ColBabies,
	models.ColCountry, models.ColMarketSegment, models.ColDistributionChannel,
	models.ColDepositType, models.ColCustomerType,
	models.ColAgent, models.ColCompany, models.ColADR,
	"total_stay", "total_guests",
}

var rateHeader = []string{"group_key", "count", "canceled", "cancel_rate"}

// CSVWriter writes processed reservations and rate tables to CSV files
type CSVWriter struct {
	logger *utils.Logger
}

// NewCSVWriter creates a new CSVWriter
func NewCSVWriter(logger *utils.Logger) *CSVWriter {
	return &CSVWriter{logger: logger}
}

// WriteReservations writes the cleaned dataset, including the engineered features
func (w *CSVWriter) WriteReservations(path string, reservations []models.Reservation) error {
	rows := make([][]string, 0, len(reservations))
	for _, r := range reservations {
		rows = append(rows, []string{
			r.Hotel,
			boolDigit(r.IsCanceled),
			strconv.Itoa(r.LeadTime),
			strconv.Itoa(r.ArrivalYear),
			r.ArrivalMonth,
			strconv.Itoa(r.WeekendNights),
			strconv.Itoa(r.WeekNights),
			strconv.Itoa(r.Adults),
			strconv.Itoa(r.Children),
			strconv.Itoa(r.Babies),
			r.Country,
			r.MarketSegment,
			r.DistributionChannel,
			r.DepositType,
			r.CustomerType,
			strconv.Itoa(r.Agent),
			strconv.Itoa(r.Company),
			strconv.FormatFloat(r.ADR, 'f', -1, 64),
			strconv.Itoa(r.TotalStay()),
			strconv.Itoa(r.TotalGuests()),
		})
	}
	if err := w.write(path, reservationHeader, rows); err != nil {
		return err
	}
	w.logger.Info("Processed reservations written to: %s (%d rows)", path, len(rows))
	return nil
}

// WriteRates writes one breakdown as group_key,count,canceled,cancel_rate
func (w *CSVWriter) WriteRates(path string, rates []models.CancellationRateRow) error {
	rows := make([][]string, 0, len(rates))
	for _, r := range rates {
		rows = append(rows, []string{
			r.Key(),
			strconv.Itoa(r.Count),
			strconv.Itoa(r.Canceled),
			strconv.FormatFloat(r.CancelRate, 'f', 6, 64),
		})
	}
	if err := w.write(path, rateHeader, rows); err != nil {
		return err
	}
	w.logger.Debug("Rate table written to: %s (%d groups)", path, len(rows))
	return nil
}

// WriteBreakdowns writes every breakdown to dir/cancel_rate_by_<name>.csv
func (w *CSVWriter) WriteBreakdowns(dir string, breakdowns []models.Breakdown) error {
	for _, b := range breakdowns {
		if err := w.WriteRates(filepath.Join(dir, BreakdownFileName(b.Name)+".csv"), b.Rows); err != nil {
			return err
		}
	}
	w.logger.Info("Wrote %d rate tables to %s", len(breakdowns), dir)
	return nil
}

// BreakdownFileName turns "hotel+deposit_type" into "cancel_rate_by_hotel_and_deposit_type"
func BreakdownFileName(name string) string {
	return "cancel_rate_by_" + strings.ReplaceAll(name, "+", "_and_")
}

func (w *CSVWriter) write(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
