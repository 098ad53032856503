package data

import (
	"fmt"
	"sort"
	"time"

	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
)

// DefaultDataFilter is the DataFilter used by the CSV and Bybit providers
type DefaultDataFilter struct{}

func NewDefaultDataFilter() *DefaultDataFilter {
	return &DefaultDataFilter{}
}

// FilterByPeriod keeps the bars within period of the latest timestamp.
// bars must be sorted.
func (f *DefaultDataFilter) FilterByPeriod(bars []types.OHLCV, period time.Duration) []types.OHLCV {
	if period <= 0 || len(bars) == 0 {
		return bars
	}
	cutoff := bars[len(bars)-1].Timestamp.Add(-period)
	from := sort.Search(len(bars), func(i int) bool {
		return !bars[i].Timestamp.Before(cutoff)
	})
	return bars[from:]
}

// FilterByDateRange keeps bars with start <= timestamp <= end
func (f *DefaultDataFilter) FilterByDateRange(bars []types.OHLCV, start, end time.Time) []types.OHLCV {
	var kept []types.OHLCV
	for _, b := range bars {
		if !b.Timestamp.Before(start) && !b.Timestamp.After(end) {
			kept = append(kept, b)
		}
	}
	return kept
}

func (f *DefaultDataFilter) ValidateTimeSequence(bars []types.OHLCV) error {
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1].Timestamp, bars[i].Timestamp
		if !cur.After(prev) {
			return fmt.Errorf("bar %d at %s does not follow %s", i, cur.Format(time.RFC3339), prev.Format(time.RFC3339))
		}
	}
	return nil
}

// SortByTimestamp returns a sorted copy; equal timestamps keep their order
func (f *DefaultDataFilter) SortByTimestamp(bars []types.OHLCV) []types.OHLCV {
	sorted := append([]types.OHLCV(nil), bars...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// RemoveDuplicates keeps the first bar for each timestamp
func (f *DefaultDataFilter) RemoveDuplicates(bars []types.OHLCV) []types.OHLCV {
	if len(bars) <= 1 {
		return bars
	}
	seen := make(map[int64]struct{}, len(bars))
	unique := make([]types.OHLCV, 0, len(bars))
	for _, b := range bars {
		ts := b.Timestamp.UnixNano()
		if _, dup := seen[ts]; dup {
			continue
		}
		seen[ts] = struct{}{}
		unique = append(unique, b)
	}
	return unique
}

// FilterOutliers drops bars whose open gaps more than maxPercentChange percent
// from the previous kept close
func (f *DefaultDataFilter) FilterOutliers(bars []types.OHLCV, maxPercentChange float64) []types.OHLCV {
	if len(bars) <= 1 || maxPercentChange <= 0 {
		return bars
	}
	kept := []types.OHLCV{bars[0]}
	for _, b := range bars[1:] {
		prevClose := kept[len(kept)-1].Close
		if prevClose == 0 {
			kept = append(kept, b)
			continue
		}
		change := (b.Open - prevClose) / prevClose * 100
		if change <= maxPercentChange && change >= -maxPercentChange {
			kept = append(kept, b)
		}
	}
	return kept
}
