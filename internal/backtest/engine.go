package backtest

import (
	"sort"
	"strings"
	"time"

	"github.com/ducminhle1904/ict-trading-agent/internal/monitoring"
	"github.com/ducminhle1904/ict-trading-agent/internal/performance"
	"github.com/ducminhle1904/ict-trading-agent/internal/risk"
	"github.com/ducminhle1904/ict-trading-agent/internal/signals"
	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
	"github.com/rs/zerolog"
)

// SignalSource produces ranked signals, strongest first, for a bar window
// whose last bar is the current one
type SignalSource interface {
	Signals(window []types.OHLCV) []signals.Signal
}

// EngineConfig holds the simulation parameters
type EngineConfig struct {
	InitialCapital    float64
	Commission        float64 // fixed amount per fill
	Slippage          float64 // fraction of price
	Lookback          int     // bars of history before the first simulated bar
	MinSignalStrength float64
	MaxPositions      int
	Performance       performance.Options
}

// DefaultEngineConfig returns the standard simulation parameters
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		InitialCapital:    10000,
		Commission:        2.0,
		Slippage:          0.001,
		Lookback:          100,
		MinSignalStrength: 0.6,
		MaxPositions:      3,
		Performance:       performance.DefaultOptions(),
	}
}

// BacktestEngine replays a bar series bar by bar against a signal source
type BacktestEngine struct {
	cfg    EngineConfig
	source SignalSource
	risk   risk.RiskManager
	log    zerolog.Logger
}

// BacktestResults is the outcome of one run
type BacktestResults struct {
	Symbol         string               `json:"symbol"`
	StartTime      time.Time            `json:"start_time"`
	EndTime        time.Time            `json:"end_time"`
	InitialCapital float64              `json:"initial_capital"`
	FinalCapital   float64              `json:"final_capital"`
	Trades         []types.Trade        `json:"trades"`
	EquityCurve    []types.EquitySample `json:"equity_curve"`
	Report         performance.Report   `json:"report"`
}

// NewBacktestEngine creates a new backtest engine
func NewBacktestEngine(cfg EngineConfig, source SignalSource, rm risk.RiskManager, logger zerolog.Logger) *BacktestEngine {
	def := DefaultEngineConfig()
	if cfg.Lookback <= 0 {
		cfg.Lookback = def.Lookback
	}
	if cfg.MaxPositions <= 0 {
		cfg.MaxPositions = def.MaxPositions
	}
	return &BacktestEngine{
		cfg:    cfg,
		source: source,
		risk:   rm,
		log:    logger.With().Str("component", "backtest").Logger(),
	}
}

// Config returns the simulation parameters in use
func (b *BacktestEngine) Config() EngineConfig {
	return b.cfg
}

// Run simulates bars[Lookback:] and returns the trade log, equity curve and report.
// Signals at bar i only see bars up to and including i.
func (b *BacktestEngine) Run(symbol string, bars []types.OHLCV) *BacktestResults {
	began := time.Now()
	results := &BacktestResults{
		Symbol:         symbol,
		InitialCapital: b.cfg.InitialCapital,
		FinalCapital:   b.cfg.InitialCapital,
		Trades:         make([]types.Trade, 0),
		EquityCurve:    make([]types.EquitySample, 0),
	}
	if len(bars) == 0 {
		b.log.Warn().Str("symbol", symbol).Msg("No bars to backtest")
		results.Report = performance.Generate(nil, nil, b.cfg.InitialCapital, b.cfg.Performance)
		return results
	}
	results.StartTime = bars[0].Timestamp
	results.EndTime = bars[len(bars)-1].Timestamp

	sim := newSimulation(symbol, b.cfg)
	for i := b.cfg.Lookback; i < len(bars); i++ {
		bar := bars[i]

		sim.recordEquity(bar)

		for _, id := range sim.openIDs() {
			pos := sim.positions[id]
			if reason, ok := exitReason(pos, bar.Close); ok {
				sim.close(id, bar, reason)
			}
		}

		if len(sim.positions) < b.cfg.MaxPositions {
			start := max(0, i+1-b.cfg.Lookback)
			b.tryOpen(sim, bars[start:i+1], bar)
		}
	}

	last := bars[len(bars)-1]
	for _, id := range sim.openIDs() {
		sim.close(id, last, types.ExitEndOfBacktest)
	}

	results.FinalCapital = sim.cash
	results.Trades = sim.trades
	results.EquityCurve = sim.curve
	results.Report = performance.Generate(sim.trades, sim.curve, b.cfg.InitialCapital, b.cfg.Performance)

	for _, t := range sim.trades {
		monitoring.RecordTrade(symbol, string(t.Side), string(t.ExitReason), t.PnL)
	}
	monitoring.RecordBacktestRun(symbol, time.Since(began).Seconds(), results.FinalCapital)

	b.log.Info().
		Str("symbol", symbol).
		Int("bars", len(bars)).
		Int("trades", len(sim.trades)).
		Float64("final_capital", sim.cash).
		Msg("Backtest complete")

	return results
}

// tryOpen admits the strongest signal for window if it clears the threshold,
// the risk checks and the cash check
func (b *BacktestEngine) tryOpen(sim *simulation, window []types.OHLCV, bar types.OHLCV) {
	sigs := b.source.Signals(window)
	if len(sigs) == 0 {
		return
	}
	sig := sigs[0]
	if sig.Strength < b.cfg.MinSignalStrength {
		return
	}

	if ok, reason := b.risk.ValidateTrade(sig, sim.cash, sim.riskPositions()); !ok {
		monitoring.RecordRejection(rejectionLabel(reason))
		b.log.Debug().Str("reason", reason).Time("bar", bar.Timestamp).Msg("Signal rejected")
		return
	}

	size := b.risk.PositionSize(sim.cash, sig.Entry, sig.StopLoss, 0)
	if size <= 0 {
		return
	}

	fill := sig.Entry * (1 + b.cfg.Slippage)
	cost := float64(size)*fill + b.cfg.Commission
	if cost > sim.cash {
		monitoring.RecordRejection("insufficient_cash")
		return
	}

	sim.open(sig, size, fill, cost, bar.Timestamp)
	monitoring.RecordSignal(sim.symbol, sig.Label)
}

// exitReason checks the stop first, then the target, against the bar close
func exitReason(pos risk.Position, price float64) (types.ExitReason, bool) {
	switch pos.Side {
	case types.Short:
		if price >= pos.StopLoss {
			return types.ExitStopLoss, true
		}
		if price <= pos.TakeProfit {
			return types.ExitTakeProfit, true
		}
	default:
		if price <= pos.StopLoss {
			return types.ExitStopLoss, true
		}
		if price >= pos.TakeProfit {
			return types.ExitTakeProfit, true
		}
	}
	return "", false
}

// rejectionLabel keeps metric label cardinality bounded for formatted reasons
func rejectionLabel(reason string) string {
	if strings.HasPrefix(reason, "Risk/reward ratio") {
		return "Risk/reward ratio below minimum"
	}
	return reason
}

// simulation is the mutable state of one run. Open positions live in an
// arena keyed by id and are always visited in id order.
type simulation struct {
	symbol    string
	cfg       EngineConfig
	cash      float64
	positions map[int]risk.Position
	nextID    int
	trades    []types.Trade
	curve     []types.EquitySample
}

func newSimulation(symbol string, cfg EngineConfig) *simulation {
	return &simulation{
		symbol:    symbol,
		cfg:       cfg,
		cash:      cfg.InitialCapital,
		positions: make(map[int]risk.Position),
		trades:    make([]types.Trade, 0),
		curve:     make([]types.EquitySample, 0),
	}
}

func (s *simulation) openIDs() []int {
	ids := make([]int, 0, len(s.positions))
	for id := range s.positions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *simulation) riskPositions() []risk.Position {
	out := make([]risk.Position, 0, len(s.positions))
	for _, id := range s.openIDs() {
		out = append(out, s.positions[id])
	}
	return out
}

// markValue is the cash a position would release at price before slippage
// and commission: the cost basis plus unrealized PnL
func markValue(pos risk.Position, price float64) float64 {
	if pos.Side == types.Short {
		return float64(pos.Quantity) * (2*pos.EntryPrice - price)
	}
	return float64(pos.Quantity) * price
}

func (s *simulation) recordEquity(bar types.OHLCV) {
	value := 0.0
	for _, id := range s.openIDs() {
		value += markValue(s.positions[id], bar.Close)
	}
	s.curve = append(s.curve, types.EquitySample{
		Timestamp:      bar.Timestamp,
		Cash:           s.cash,
		PositionsValue: value,
		Equity:         s.cash + value,
	})
}

func (s *simulation) open(sig signals.Signal, size int, fill, cost float64, at time.Time) {
	s.nextID++
	s.cash -= cost
	s.positions[s.nextID] = risk.Position{
		ID:         s.nextID,
		Symbol:     s.symbol,
		Side:       sig.Side(),
		EntryPrice: fill,
		Quantity:   size,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		EntryTime:  at,
		Pattern:    sig.Label,
	}
}

// close fills pos at the bar close with slippage against it, credits the cost
// basis plus gross PnL less the exit commission, and logs the trade. The
// logged PnL is net of both commissions, so the trade log sums to
// FinalCapital - InitialCapital.
func (s *simulation) close(id int, bar types.OHLCV, reason types.ExitReason) {
	pos := s.positions[id]
	qty := float64(pos.Quantity)

	var exit, gross float64
	if pos.Side == types.Short {
		exit = bar.Close * (1 + s.cfg.Slippage)
		gross = (pos.EntryPrice - exit) * qty
	} else {
		exit = bar.Close * (1 - s.cfg.Slippage)
		gross = (exit - pos.EntryPrice) * qty
	}
	roundTrip := 2 * s.cfg.Commission
	pnl := gross - roundTrip

	s.cash += pos.EntryPrice*qty + gross - s.cfg.Commission
	s.trades = append(s.trades, types.Trade{
		Symbol:     s.symbol,
		EntryTime:  pos.EntryTime,
		ExitTime:   bar.Timestamp,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exit,
		Side:       pos.Side,
		Quantity:   pos.Quantity,
		PnL:        pnl,
		Commission: roundTrip,
		ExitReason: reason,
		Pattern:    pos.Pattern,
	})
	delete(s.positions, id)
}

// TotalReturn is (final - initial) / initial
func (r *BacktestResults) TotalReturn() float64 {
	if r.InitialCapital == 0 {
		return 0
	}
	return (r.FinalCapital - r.InitialCapital) / r.InitialCapital
}
