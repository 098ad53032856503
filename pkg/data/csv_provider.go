package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/ducminhle1904/ict-trading-agent/internal/errors"
	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
	"github.com/rs/zerolog"
)

// CSVProvider implements BarProvider over files laid out by a FileLocator
type CSVProvider struct {
	format   CSVColumnMapping
	dataRoot string
	exchange string
	locator  FileLocator
	filter   DataFilter
	log      zerolog.Logger
}

// NewCSVProvider creates a new CSV data provider with default format
func NewCSVProvider(dataRoot, exchange string, logger zerolog.Logger) *CSVProvider {
	return NewCSVProviderWithFormat(dataRoot, exchange, DefaultCSVFormat, logger)
}

// NewCSVProviderWithFormat creates a new CSV data provider with custom format
func NewCSVProviderWithFormat(dataRoot, exchange string, format CSVColumnMapping, logger zerolog.Logger) *CSVProvider {
	log := logger.With().Str("component", "csv_provider").Logger()
	return &CSVProvider{
		format:   format,
		dataRoot: dataRoot,
		exchange: exchange,
		locator:  NewDefaultFileLocator(log),
		filter:   NewDefaultDataFilter(),
		log:      log,
	}
}

// Name returns the name of the data provider
func (p *CSVProvider) Name() string {
	return "CSV Provider"
}

// FetchBars locates the file for symbol and interval and returns the bars in [start, end]
func (p *CSVProvider) FetchBars(ctx context.Context, symbol string, start, end time.Time, interval string) ([]types.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := p.locator.FindDataFile(p.dataRoot, p.exchange, symbol, interval)
	if path == "" {
		return nil, apperrors.NewDataUnavailable("csv_provider", "fetch_bars", "no data file found").
			WithContext("symbol", symbol).
			WithContext("interval", interval)
	}

	bars, err := p.LoadFile(path)
	if err != nil {
		return nil, err
	}

	bars = p.filter.RemoveDuplicates(p.filter.SortByTimestamp(bars))
	return p.filter.FilterByDateRange(bars, start, end), nil
}

// LoadFile reads every valid row of a CSV file. Rows that cannot be parsed or
// break the OHLC invariants are skipped with a warning.
func (p *CSVProvider) LoadFile(filename string) ([]types.OHLCV, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorCategoryIO, "csv_provider", "open")
	}
	defer file.Close()
	return p.Read(file)
}

// Read parses CSV rows from r, skipping the header line
func (p *CSVProvider) Read(r io.Reader) ([]types.OHLCV, error) {
	format := p.format
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	var data []types.OHLCV

	lineNum := 1 // Start from 1 since we already read header
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum, err)
		}
		lineNum++

		// Check minimum columns based on format
		if len(record) < format.MinColumns {
			p.log.Warn().Int("line", lineNum).Int("expected", format.MinColumns).Int("got", len(record)).Msg("Insufficient columns, skipping")
			continue
		}

		timestamp, err := parseTimestamp(record[format.TimestampCol], format.DateFormat)
		if err != nil {
			p.log.Warn().Int("line", lineNum).Str("value", record[format.TimestampCol]).Err(err).Msg("Invalid timestamp, skipping")
			continue
		}

		var values [5]float64
		cols := [5]int{format.OpenCol, format.HighCol, format.LowCol, format.CloseCol, format.VolumeCol}
		ok := true
		for k, col := range cols {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				p.log.Warn().Int("line", lineNum).Str("value", record[col]).Err(err).Msg("Invalid number, skipping")
				ok = false
				break
			}
			values[k] = v
		}
		if !ok {
			continue
		}

		candle := types.OHLCV{
			Timestamp: timestamp,
			Open:      values[0],
			High:      values[1],
			Low:       values[2],
			Close:     values[3],
			Volume:    values[4],
		}
		if err := validateCandle(candle); err != nil {
			p.log.Warn().Int("line", lineNum).Err(err).Msg("Invalid price data, skipping")
			continue
		}

		data = append(data, candle)
	}

	return data, nil
}

// parseTimestamp accepts the column's layout, RFC3339 or epoch milliseconds
func parseTimestamp(value, layout string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(layout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func validateCandle(c types.OHLCV) error {
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return fmt.Errorf("prices must be positive")
	}
	if c.High < c.Low {
		return fmt.Errorf("high (%.4f) cannot be less than low (%.4f)", c.High, c.Low)
	}
	if c.High < c.Open || c.High < c.Close {
		return fmt.Errorf("high (%.4f) must be >= open (%.4f) and close (%.4f)", c.High, c.Open, c.Close)
	}
	if c.Low > c.Open || c.Low > c.Close {
		return fmt.Errorf("low (%.4f) must be <= open (%.4f) and close (%.4f)", c.Low, c.Open, c.Close)
	}
	if c.Volume < 0 {
		return fmt.Errorf("volume cannot be negative")
	}
	return nil
}

// ValidateData checks the bar invariants the core relies on: positive prices,
// a consistent high/low envelope and strictly increasing timestamps
func ValidateData(data []types.OHLCV) error {
	if len(data) == 0 {
		return fmt.Errorf("no data provided")
	}

	for i, candle := range data {
		if err := validateCandle(candle); err != nil {
			return fmt.Errorf("invalid price data at index %d: %w", i, err)
		}
		if i > 0 && !candle.Timestamp.After(data[i-1].Timestamp) {
			return fmt.Errorf("invalid timestamp sequence at index %d: timestamps must be strictly increasing", i)
		}
	}

	return nil
}
