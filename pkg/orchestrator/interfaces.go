package orchestrator

import (
	"context"
	"time"

	"github.com/ducminhle1904/ict-trading-agent/internal/backtest"
	"github.com/ducminhle1904/ict-trading-agent/internal/performance"
	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
)

// ErrNoData is the Result.Error of a run whose provider returned no bars
const ErrNoData = "No data available"

// Orchestrator coordinates data loading, simulation and reporting
type Orchestrator interface {
	// RunBacktest executes a single backtest
	RunBacktest(ctx context.Context, req Request) Result

	// RunBatch executes several backtests in parallel, results in request order
	RunBatch(ctx context.Context, reqs []Request) []Result
}

// Request describes one backtest run. A zero InitialCapital and nil costs
// keep the runner's configured engine values.
type Request struct {
	Symbol         string    `json:"symbol"`
	Interval       string    `json:"interval"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	InitialCapital float64   `json:"initial_capital"`
	Commission     *float64  `json:"commission,omitempty"`
	Slippage       *float64  `json:"slippage,omitempty"`
}

// Cost returns a pointer to v for the Request cost overrides
func Cost(v float64) *float64 {
	return &v
}

// Result is the outcome of a run. Error is set instead of the other fields
// when the run could not be performed.
type Result struct {
	Symbol       string                    `json:"symbol"`
	Interval     string                    `json:"interval"`
	FinalCapital float64                   `json:"final_capital"`
	Trades       []types.Trade             `json:"trades"`
	EquityCurve  []types.EquitySample      `json:"equity_curve"`
	Report       performance.Report        `json:"metrics"`
	Duration     time.Duration             `json:"duration"`
	Error        string                    `json:"error,omitempty"`
	Backtest     *backtest.BacktestResults `json:"-"`
}

// OK reports whether the run produced results
func (r Result) OK() bool {
	return r.Error == "" && r.Backtest != nil
}

// TotalReturn is the simple return of the run, 0 for failed runs
func (r Result) TotalReturn() float64 {
	if !r.OK() {
		return 0
	}
	return r.Backtest.TotalReturn()
}
