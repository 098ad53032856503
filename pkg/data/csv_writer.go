package data

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/ducminhle1904/ict-trading-agent/internal/errors"
	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
)

// CandlesPath is where CSVProvider looks first for exchange downloads
func CandlesPath(dataRoot, exchange, category, symbol, interval string) string {
	return filepath.Join(dataRoot, exchange, category, strings.ToUpper(symbol), IntervalMinutes(interval), "candles.csv")
}

// WriteCSV saves bars in DefaultCSVFormat, creating the directory
func WriteCSV(path string, bars []types.OHLCV) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorCategoryIO, "csv_writer", "mkdir")
	}

	file, err := os.Create(path)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrorCategoryIO, "csv_writer", "create")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorCategoryIO, "csv_writer", "write")
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, b := range bars {
		record := []string{
			b.Timestamp.UTC().Format(DefaultCSVFormat.DateFormat),
			format(b.Open),
			format(b.High),
			format(b.Low),
			format(b.Close),
			format(b.Volume),
		}
		if err := writer.Write(record); err != nil {
			return apperrors.Wrap(err, apperrors.ErrorCategoryIO, "csv_writer", "write")
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorCategoryIO, "csv_writer", "flush")
	}
	return nil
}
