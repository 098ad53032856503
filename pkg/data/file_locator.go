package data

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultFileLocator implements FileLocator for standard file system operations
type DefaultFileLocator struct {
	log zerolog.Logger
}

// NewDefaultFileLocator creates a new default file locator
func NewDefaultFileLocator(logger zerolog.Logger) *DefaultFileLocator {
	return &DefaultFileLocator{log: logger}
}

// FindDataFile locates candles for an exchange and symbol.
// Structure: {dataRoot}/{exchange}/{category}/{symbol}/{interval minutes}/candles.csv,
// falling back to {dataRoot}/{symbol}_{interval}.csv and {dataRoot}/{symbol}.csv.
// Returns empty string if no file is found.
func (f *DefaultFileLocator) FindDataFile(dataRoot, exchange, symbol, interval string) string {
	symbol = strings.ToUpper(symbol)
	minutes := IntervalMinutes(interval)

	var categories []string
	switch strings.ToLower(exchange) {
	case "bybit":
		categories = []string{"spot", "linear", "inverse"}
	case "yahoo":
		categories = []string{"futures", "spot"}
	default:
		categories = []string{"spot", "futures", "linear", "inverse"}
	}

	var candidates []string
	if exchange != "" {
		for _, category := range categories {
			candidates = append(candidates, filepath.Join(dataRoot, exchange, category, symbol, minutes, "candles.csv"))
		}
	}
	candidates = append(candidates,
		filepath.Join(dataRoot, symbol+"_"+interval+".csv"),
		filepath.Join(dataRoot, symbol+".csv"),
	)

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}

	f.log.Warn().
		Str("exchange", exchange).
		Str("symbol", symbol).
		Str("interval", interval).
		Strs("attempted", candidates).
		Msg("No data file found")
	return ""
}
