package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"hotel-bookings/models"
	"hotel-bookings/utils"

	"github.com/xuri/excelize/v2"
)

// sheet names are limited to 31 characters by Excel
const maxSheetName = 31

// XLSXWriter exports rate tables as one workbook, one sheet per breakdown
type XLSXWriter struct {
	logger *utils.Logger
}

// NewXLSXWriter creates a new XLSXWriter
func NewXLSXWriter(logger *utils.Logger) *XLSXWriter {
	return &XLSXWriter{logger: logger}
}

// WriteBreakdowns saves every breakdown to path
func (w *XLSXWriter) WriteBreakdowns(path string, breakdowns []models.Breakdown) error {
	if len(breakdowns) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	used := make(map[string]bool, len(breakdowns))
	for i, b := range breakdowns {
		sheet := sheetName(b.Name, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		if err := writeRateSheet(f, sheet, b.Rows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	w.logger.Info("Rate workbook written to: %s (%d sheets)", path, len(breakdowns))
	return nil
}

func writeRateSheet(f *excelize.File, sheet string, rows []models.CancellationRateRow) error {
	for col, name := range rateHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("failed to write header on %s: %w", sheet, err)
		}
	}
	for i, r := range rows {
		values := []interface{}{r.Key(), r.Count, r.Canceled, r.CancelRate}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write %s on %s: %w", cell, sheet, err)
			}
		}
	}
	return nil
}

// sheetName trims name to the Excel limit and appends ~2, ~3, ... when the
// result is already taken. Excel compares sheet names case-insensitively.
func sheetName(name string, used map[string]bool) string {
	candidate := trimRunes(name, maxSheetName)
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := "~" + strconv.Itoa(n)
		candidate = trimRunes(name, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func trimRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) > max {
		runes = runes[:max]
	}
	return string(runes)
}
