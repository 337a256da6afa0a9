package experiment

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSV errors.
var (
	ErrValueColumnNotFound = errors.New("value column not found in header")
	ErrNoRows              = errors.New("no data rows in CSV")
)

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	ValueColumn string // Column name for values (default: "y")
	DateColumn  string // Column name for dates (optional)
	DateFormat  string // Date format (default: "2006-01-02")
	Delimiter   rune   // Field delimiter (default: ',')
	SkipRows    int    // Number of rows to skip at start
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		ValueColumn: "y",
		DateFormat:  "2006-01-02",
		Delimiter:   ',',
	}
}

// LoadCSV loads a univariate time series from a CSV file.
func LoadCSV(path string, opts *CSVOptions) (*Series, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	s, err := LoadCSVFromReader(file, opts)
	if err != nil {
		return nil, err
	}

	s.Name = path

	return s, nil
}

// LoadCSVFromReader loads a time series from an io.Reader.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}
	if opts.ValueColumn == "" {
		opts.ValueColumn = "y"
	}
	if opts.DateFormat == "" {
		opts.DateFormat = "2006-01-02"
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("failed to skip row %d: %w", i, err)
		}
	}

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	valueIdx, dateIdx := -1, -1
	for i, col := range header {
		name := strings.TrimSpace(col)
		if strings.EqualFold(name, opts.ValueColumn) {
			valueIdx = i
		}
		if opts.DateColumn != "" && strings.EqualFold(name, opts.DateColumn) {
			dateIdx = i
		}
	}

	if valueIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrValueColumnNotFound, opts.ValueColumn)
	}

	var (
		values     []float64
		timestamps []time.Time
	)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		if valueIdx >= len(record) {
			continue
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(record[valueIdx]), 64)
		if err != nil {
			// Non-numeric rows are skipped, not fatal.
			continue
		}

		values = append(values, v)

		if dateIdx >= 0 && dateIdx < len(record) {
			if t, err := time.Parse(opts.DateFormat, strings.TrimSpace(record[dateIdx])); err == nil {
				timestamps = append(timestamps, t)
			} else {
				timestamps = append(timestamps, time.Time{})
			}
		}
	}

	if len(values) == 0 {
		return nil, ErrNoRows
	}

	if len(timestamps) == len(values) && dateIdx >= 0 {
		return NewWithTimestamps(timestamps, values)
	}

	return New(values), nil
}
