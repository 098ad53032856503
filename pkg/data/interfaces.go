package data

import (
	"context"
	"time"

	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
)

// BarProvider fetches an ordered bar series for a symbol and date range
type BarProvider interface {
	// FetchBars returns bars with start <= timestamp <= end in ascending order
	FetchBars(ctx context.Context, symbol string, start, end time.Time, interval string) ([]types.OHLCV, error)
	Name() string
}

// DataCache stores fetched series by request key
type DataCache interface {
	Get(key string) ([]types.OHLCV, bool)
	Set(key string, bars []types.OHLCV)
	Clear()
	Size() int
}

// DataFilter cleans a raw series before it reaches the backtest
type DataFilter interface {
	SortByTimestamp(bars []types.OHLCV) []types.OHLCV
	RemoveDuplicates(bars []types.OHLCV) []types.OHLCV
	FilterByDateRange(bars []types.OHLCV, start, end time.Time) []types.OHLCV
	FilterByPeriod(bars []types.OHLCV, period time.Duration) []types.OHLCV

	// ValidateTimeSequence fails unless timestamps strictly increase
	ValidateTimeSequence(bars []types.OHLCV) error
}

// FileLocator resolves the CSV file holding a symbol's bars, empty when none exists
type FileLocator interface {
	FindDataFile(dataRoot, exchange, symbol, interval string) string
}

// CSVColumnMapping gives zero-based column positions and the timestamp layout of a CSV export
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
}

var (
	// DefaultCSVFormat is timestamp,open,high,low,close,volume as written by WriteCSV
	DefaultCSVFormat = CSVColumnMapping{
		TimestampCol: 0,
		OpenCol:      1,
		HighCol:      2,
		LowCol:       3,
		CloseCol:     4,
		VolumeCol:    5,
		MinColumns:   6,
		DateFormat:   "2006-01-02 15:04:05",
	}

	// YahooCSVFormat matches Date,Open,High,Low,Close,Adj Close,Volume exports
	YahooCSVFormat = CSVColumnMapping{
		TimestampCol: 0,
		OpenCol:      1,
		HighCol:      2,
		LowCol:       3,
		CloseCol:     4,
		VolumeCol:    6,
		MinColumns:   7,
		DateFormat:   "2006-01-02",
	}
)
