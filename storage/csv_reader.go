package storage

import (
	"fmt"
	"io"
	"os"
	"strings"

	"hotel-bookings/models"
	"hotel-bookings/utils"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// CSVReader loads the raw bookings file into a DataFrame
type CSVReader struct {
	logger *utils.Logger
}

// NewCSVReader creates a new CSVReader
func NewCSVReader(logger *utils.Logger) *CSVReader {
	return &CSVReader{logger: logger}
}

// ReadFile loads the whole CSV at path. Every column is read as a string;
// typing happens in the cleaner.
func (r *CSVReader) ReadFile(path string) (dataframe.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	df, err := r.Read(file)
	if err != nil {
		return df, fmt.Errorf("%s: %w", path, err)
	}
	r.logger.Info("Loaded %d rows x %d columns from %s", df.Nrow(), df.Ncol(), path)
	return df, nil
}

// Read loads CSV data from any reader and checks the required schema
func (r *CSVReader) Read(in io.Reader) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(in,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(models.NATokens),
	)
	if df.Err != nil {
		return df, fmt.Errorf("failed to parse CSV: %w", df.Err)
	}
	if err := CheckSchema(df.Names()); err != nil {
		return df, err
	}
	return df, nil
}

// CheckSchema returns ErrSchemaMismatch listing every missing required column
func CheckSchema(names []string) error {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[strings.TrimSpace(n)] = true
	}
	var missing []string
	for _, col := range models.RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %s", models.ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	return nil
}
