package orchestrator

import (
	"context"
	"runtime"
	"time"

	"github.com/ducminhle1904/ict-trading-agent/internal/agent"
	"github.com/ducminhle1904/ict-trading-agent/internal/backtest"
	apperrors "github.com/ducminhle1904/ict-trading-agent/internal/errors"
	"github.com/ducminhle1904/ict-trading-agent/internal/monitoring"
	"github.com/ducminhle1904/ict-trading-agent/internal/risk"
	"github.com/ducminhle1904/ict-trading-agent/pkg/config"
	"github.com/ducminhle1904/ict-trading-agent/pkg/data"
	"github.com/rs/zerolog"
)

// Options holds the components every run is built from
type Options struct {
	Agent  agent.Config
	Risk   risk.Config
	Engine backtest.EngineConfig

	// FixedPeriodsPerYear keeps Engine.Performance.PeriodsPerYear instead of
	// deriving it from each request's interval
	FixedPeriodsPerYear bool

	// Workers bounds RunBatch parallelism, runtime.NumCPU() when <= 0
	Workers int

	// Health, when set, records every run outcome
	Health *monitoring.HealthChecker
}

// DefaultOptions returns the standard pipeline settings
func DefaultOptions() Options {
	return Options{
		Agent:  agent.DefaultConfig(),
		Risk:   risk.DefaultConfig(),
		Engine: backtest.DefaultEngineConfig(),
	}
}

// OptionsFromConfig converts a loaded configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Agent:               cfg.AgentConfig(),
		Risk:                cfg.RiskLimits(),
		Engine:              cfg.EngineConfig(),
		FixedPeriodsPerYear: cfg.Backtesting.PeriodsPerYear > 0,
	}
}

// RequestFromConfig builds the request described by the trading and backtesting sections
func RequestFromConfig(cfg *config.Config) (Request, error) {
	start, end, err := cfg.DateRange()
	if err != nil {
		return Request{}, err
	}
	return Request{
		Symbol:         cfg.Trading.Symbol,
		Interval:       cfg.Trading.Timeframe,
		Start:          start,
		End:            end,
		InitialCapital: cfg.Backtesting.InitialCapital,
		Commission:     Cost(cfg.Backtesting.Commission),
		Slippage:       Cost(cfg.Backtesting.Slippage),
	}, nil
}

// Runner implements Orchestrator on top of a bar provider
type Runner struct {
	provider data.BarProvider
	opts     Options
	log      zerolog.Logger
}

// NewRunner creates a new runner
func NewRunner(provider data.BarProvider, opts Options, logger zerolog.Logger) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Runner{
		provider: provider,
		opts:     opts,
		log:      logger.With().Str("component", "orchestrator").Logger(),
	}
}

// RunBacktest fetches bars for req and simulates them. Provider failures and
// empty series come back as a Result with Error set to ErrNoData.
func (r *Runner) RunBacktest(ctx context.Context, req Request) Result {
	began := time.Now()
	res := Result{Symbol: req.Symbol, Interval: req.Interval}

	r.log.Info().
		Str("symbol", req.Symbol).
		Str("interval", req.Interval).
		Time("start", req.Start).
		Time("end", req.End).
		Str("provider", r.provider.Name()).
		Msg("🚀 Starting backtest")

	bars, err := r.provider.FetchBars(ctx, req.Symbol, req.Start, req.End, req.Interval)
	if err != nil {
		appErr := apperrors.Categorize(err, "orchestrator", "fetch bars")
		r.log.Error().Err(appErr).Str("symbol", req.Symbol).Str("category", string(appErr.Category)).Msg("Failed to fetch bars")
		monitoring.RecordError(string(appErr.Category))
		return r.fail(res, ErrNoData, began)
	}
	if len(bars) == 0 {
		r.log.Warn().
			Str("symbol", req.Symbol).
			Str("category", string(apperrors.ErrorCategoryDataUnavailable)).
			Msg("Provider returned no bars")
		monitoring.RecordError(string(apperrors.ErrorCategoryDataUnavailable))
		return r.fail(res, ErrNoData, began)
	}

	engine := backtest.NewBacktestEngine(
		r.engineConfig(req),
		agent.New(r.opts.Agent, r.log),
		risk.NewManager(r.opts.Risk, r.log),
		r.log,
	)
	results := engine.Run(req.Symbol, bars)

	res.FinalCapital = results.FinalCapital
	res.Trades = results.Trades
	res.EquityCurve = results.EquityCurve
	res.Report = results.Report
	res.Backtest = results
	res.Duration = time.Since(began)

	if r.opts.Health != nil {
		r.opts.Health.RecordRun(req.Symbol, results.FinalCapital)
	}
	r.log.Info().
		Str("symbol", req.Symbol).
		Int("bars", len(bars)).
		Int("trades", len(results.Trades)).
		Float64("final_capital", results.FinalCapital).
		Dur("duration", res.Duration).
		Msg("✅ Backtest completed")
	return res
}

func (r *Runner) fail(res Result, msg string, began time.Time) Result {
	res.Error = msg
	res.Duration = time.Since(began)
	if r.opts.Health != nil {
		r.opts.Health.RecordFailure(res.Symbol + ": " + msg)
	}
	return res
}

// engineConfig applies the request's capital and costs to the configured engine
func (r *Runner) engineConfig(req Request) backtest.EngineConfig {
	cfg := r.opts.Engine
	if req.InitialCapital > 0 {
		cfg.InitialCapital = req.InitialCapital
	}
	if req.Commission != nil {
		cfg.Commission = *req.Commission
	}
	if req.Slippage != nil {
		cfg.Slippage = *req.Slippage
	}
	if !r.opts.FixedPeriodsPerYear {
		if ppy, err := data.BarsPerYear(req.Interval); err == nil {
			cfg.Performance.PeriodsPerYear = ppy
		}
	}
	return cfg
}
