package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// IntervalAnalysis holds the results of one symbol across several intervals
type IntervalAnalysis struct {
	Symbol  string   `json:"symbol"`
	Results []Result `json:"results"`
	Best    *Result  `json:"best,omitempty"`
}

// AvailableIntervals lists the minute intervals with a candles.csv under
// {dataRoot}/{exchange}/{category}/{SYMBOL}/{minutes}/, smallest first
func AvailableIntervals(dataRoot, exchange, symbol string) ([]string, error) {
	sym := strings.ToUpper(symbol)

	var categories []string
	switch strings.ToLower(exchange) {
	case "bybit":
		categories = []string{"spot", "linear", "inverse"}
	case "yahoo":
		categories = []string{"futures", "spot"}
	default:
		categories = []string{"spot", "futures", "linear", "inverse"}
	}

	seen := make(map[string]bool)
	var intervals []string
	for _, category := range categories {
		dir := filepath.Join(dataRoot, exchange, category, sym)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() || seen[e.Name()] {
				continue
			}
			if _, err := os.Stat(filepath.Join(dir, e.Name(), "candles.csv")); err == nil {
				seen[e.Name()] = true
				intervals = append(intervals, e.Name())
			}
		}
	}

	if len(intervals) == 0 {
		return nil, fmt.Errorf("no data found for symbol %s in exchange %s at %s", sym, exchange, dataRoot)
	}

	sort.Slice(intervals, func(i, j int) bool {
		a, errA := strconv.Atoi(intervals[i])
		b, errB := strconv.Atoi(intervals[j])
		if errA != nil || errB != nil {
			return intervals[i] < intervals[j]
		}
		return a < b
	})
	return intervals, nil
}

// RunIntervals runs base once per interval and picks the best total return
func (r *Runner) RunIntervals(ctx context.Context, base Request, intervals []string) IntervalAnalysis {
	reqs := make([]Request, len(intervals))
	for i, interval := range intervals {
		reqs[i] = base
		reqs[i].Interval = interval
	}

	analysis := IntervalAnalysis{Symbol: base.Symbol, Results: r.RunBatch(ctx, reqs)}
	analysis.Best = Best(analysis.Results)
	if analysis.Best != nil {
		r.log.Info().
			Str("symbol", base.Symbol).
			Str("interval", analysis.Best.Interval).
			Float64("return_pct", analysis.Best.TotalReturn()*100).
			Msg("✅ Multi-interval analysis completed")
	} else {
		r.log.Warn().Str("symbol", base.Symbol).Msg("No successful results found for any interval")
	}
	return analysis
}

// Best returns the successful result with the highest total return, nil if none succeeded
func Best(results []Result) *Result {
	var best *Result
	for i := range results {
		if !results[i].OK() {
			continue
		}
		if best == nil || results[i].TotalReturn() > best.TotalReturn() {
			best = &results[i]
		}
	}
	return best
}
