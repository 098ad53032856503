package risk

import (
	"testing"
	"time"

	"github.com/ducminhle1904/ict-trading-agent/internal/signals"
	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(DefaultConfig(), zerolog.Nop())
}

func longSignal(entry, stop, target float64) signals.Signal {
	return signals.Signal{
		Direction:  types.Bullish,
		Entry:      entry,
		StopLoss:   stop,
		TakeProfit: target,
		Strength:   0.9,
		Label:      "Fair Value Gap",
	}
}

func openPosition(entry, stop float64, qty int) Position {
	return Position{Symbol: "NQ=F", Side: types.Long, EntryPrice: entry, StopLoss: stop, Quantity: qty}
}

// TestPositionSize_ClampedToMaxFraction tests the 30% position cap
func TestPositionSize_ClampedToMaxFraction(t *testing.T) {
	rm := newTestManager()
	// floor(200 / 0.001) is capped at floor(3000 / 100)
	assert.Equal(t, 30, rm.PositionSize(10000, 100, 99.999, 0.02))
}

// TestPositionSize_RiskBased tests sizing from the risk amount
func TestPositionSize_RiskBased(t *testing.T) {
	rm := newTestManager()
	// 10000 * 0.01 / 5 = 20 units, 2000 notional is under the 3000 cap
	assert.Equal(t, 20, rm.PositionSize(10000, 100, 95, 0.01))
	// zero risk falls back to the configured 2%
	assert.Equal(t, 30, rm.PositionSize(10000, 100, 95, 0))
}

// TestPositionSize_Affordability tests that size*entry never exceeds capital
func TestPositionSize_Affordability(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPositionSize = 2
	rm := NewManager(cfg, zerolog.Nop())

	size := rm.PositionSize(1000, 100, 99, 0.5)
	assert.Equal(t, 10, size)
	assert.LessOrEqual(t, float64(size)*100, 1000.0)
}

// TestPositionSize_InvalidInputs tests zero results for invalid risk inputs
func TestPositionSize_InvalidInputs(t *testing.T) {
	rm := newTestManager()
	for _, x := range []float64{1, 50, 100, 12345.678} {
		assert.Equal(t, 0, rm.PositionSize(10000, x, x, 0.02))
	}
	assert.Equal(t, 0, rm.PositionSize(0, 100, 95, 0.02))
	assert.Equal(t, 0, rm.PositionSize(-500, 100, 95, 0.02))
	assert.Equal(t, 0, rm.PositionSize(10000, 0, 95, 0.02))
}

// TestPositionSize_Monotonic tests monotonicity in capital and stop distance
func TestPositionSize_Monotonic(t *testing.T) {
	rm := newTestManager()

	prev := 0
	for capital := 100.0; capital <= 100000; capital *= 1.7 {
		size := rm.PositionSize(capital, 50, 48, 0.02)
		assert.GreaterOrEqual(t, size, prev, "capital %.2f", capital)
		prev = size
	}

	prev = rm.PositionSize(10000, 50, 49.99, 0.02)
	for stop := 49.9; stop > 30; stop -= 0.7 {
		size := rm.PositionSize(10000, 50, stop, 0.02)
		assert.LessOrEqual(t, size, prev, "stop %.2f", stop)
		prev = size
	}
}

// TestStopLoss tests ATR stops and support/resistance tightening
func TestStopLoss(t *testing.T) {
	rm := newTestManager()
	level := func(v float64) *float64 { return &v }

	assert.Equal(t, 97.0, rm.StopLoss(100, types.Long, 1.5, nil))
	assert.Equal(t, 98.0, rm.StopLoss(100, types.Long, 1.5, level(98)))
	assert.Equal(t, 97.0, rm.StopLoss(100, types.Long, 1.5, level(95)))
	assert.Equal(t, 97.0, rm.StopLoss(100, types.Long, 1.5, level(101)))

	assert.Equal(t, 103.0, rm.StopLoss(100, types.Short, 1.5, nil))
	assert.Equal(t, 102.0, rm.StopLoss(100, types.Short, 1.5, level(102)))
	assert.Equal(t, 103.0, rm.StopLoss(100, types.Short, 1.5, level(105)))
	assert.Equal(t, 103.0, rm.StopLoss(100, types.Short, 1.5, level(99)))
}

// TestTakeProfit tests the exact reward distance for both sides
func TestTakeProfit(t *testing.T) {
	rm := newTestManager()

	assert.Equal(t, 104.0, rm.TakeProfit(100, 98, types.Long, 0))
	assert.Equal(t, 96.0, rm.TakeProfit(100, 102, types.Short, 0))

	tp := rm.TakeProfit(100, 97.5, types.Long, 3)
	assert.Equal(t, 107.5, tp)
	assert.Equal(t, 3*2.5, tp-100)

	tp = rm.TakeProfit(100, 102.5, types.Short, 3)
	assert.Equal(t, 92.5, tp)
	assert.Equal(t, 3*2.5, 100-tp)
}

// TestValidateTrade_MaxPositions tests rejection when the position limit is reached
func TestValidateTrade_MaxPositions(t *testing.T) {
	rm := newTestManager()
	positions := []Position{
		openPosition(100, 99, 1),
		openPosition(100, 99, 1),
		openPosition(100, 99, 1),
	}

	ok, reason := rm.ValidateTrade(longSignal(100, 99, 110), 1_000_000, positions)
	assert.False(t, ok)
	assert.Equal(t, ReasonMaxPositions, reason)
}

// TestValidateTrade_InsufficientCapital tests rejection when no unit is affordable
func TestValidateTrade_InsufficientCapital(t *testing.T) {
	ok, reason := newTestManager().ValidateTrade(longSignal(100, 99, 110), 50, nil)
	assert.False(t, ok)
	assert.Equal(t, ReasonInsufficientCapital, reason)
}

// TestValidateTrade_PortfolioRisk tests rejection when the risk budget is spent
func TestValidateTrade_PortfolioRisk(t *testing.T) {
	positions := []Position{openPosition(100, 95, 100)} // 500 at risk, 5% of 10000

	ok, reason := newTestManager().ValidateTrade(longSignal(100, 99, 110), 10000, positions)
	assert.False(t, ok)
	assert.Equal(t, ReasonMaxPortfolioRisk, reason)
}

// TestValidateTrade_RiskReward tests rejection of a poor reward/risk ratio
func TestValidateTrade_RiskReward(t *testing.T) {
	ok, reason := newTestManager().ValidateTrade(longSignal(100, 99, 101), 10000, nil)
	assert.False(t, ok)
	assert.Equal(t, "Risk/reward ratio 1.00 below minimum 2", reason)
}

// TestValidateTrade_Accepted tests a signal that passes every check
func TestValidateTrade_Accepted(t *testing.T) {
	positions := []Position{openPosition(100, 99, 10)}

	ok, reason := newTestManager().ValidateTrade(longSignal(100, 99, 103), 10000, positions)
	assert.True(t, ok)
	assert.Equal(t, ReasonValidated, reason)
}

// TestDailyLossLimit tests the daily loss check
func TestDailyLossLimit(t *testing.T) {
	rm := newTestManager()

	reached, loss := rm.DailyLossLimit(10000, 9500)
	assert.True(t, reached)
	assert.InDelta(t, 0.05, loss, 1e-12)

	reached, loss = rm.DailyLossLimit(10000, 9600)
	assert.False(t, reached)
	assert.InDelta(t, 0.04, loss, 1e-12)

	reached, loss = rm.DailyLossLimit(0, 9600)
	assert.False(t, reached)
	assert.Equal(t, 0.0, loss)
}

// TestDrawdownLimit tests the drawdown check
func TestDrawdownLimit(t *testing.T) {
	rm := newTestManager()

	reached, dd := rm.DrawdownLimit(11000, 9000)
	assert.False(t, reached)
	assert.InDelta(t, 0.1818, dd, 1e-4)

	reached, dd = rm.DrawdownLimit(10000, 8000)
	assert.True(t, reached)
	assert.InDelta(t, 0.2, dd, 1e-12)
}

// TestKellyCriterion tests quarter-Kelly sizing
func TestKellyCriterion(t *testing.T) {
	rm := newTestManager()

	assert.InDelta(t, 0.10, rm.KellyCriterion(0.6, 150, 75), 1e-12)
	assert.Equal(t, 0.0, rm.KellyCriterion(0.6, 150, 0))
	assert.Equal(t, 0.0, rm.KellyCriterion(0.6, 150, -10))
	assert.Equal(t, 0.0, rm.KellyCriterion(0.2, 50, 100))

	cfg := DefaultConfig()
	cfg.MaxPositionSize = 0.1
	capped := NewManager(cfg, zerolog.Nop())
	assert.Equal(t, 0.1, capped.KellyCriterion(0.9, 1000, 1))
}

// TestPortfolioRisk tests the sum of per-position risk fractions
func TestPortfolioRisk(t *testing.T) {
	positions := []Position{openPosition(100, 95, 10), openPosition(50, 52, 25)}
	assert.InDelta(t, 0.01, PortfolioRisk(positions, 10000), 1e-12)
	assert.Equal(t, 0.0, PortfolioRisk(positions, 0))
	assert.Equal(t, 0.0, PortfolioRisk(nil, 10000))
}

// TestRegistry tests adding and removing tracked positions
func TestRegistry(t *testing.T) {
	rm := newTestManager()

	a := rm.AddPosition(openPosition(100, 99, 1))
	b := rm.AddPosition(openPosition(100, 99, 1))
	assert.NotEqual(t, a, b)
	assert.Len(t, rm.Positions(), 2)

	assert.True(t, rm.RemovePosition(a))
	assert.False(t, rm.RemovePosition(a))
	require.Len(t, rm.Positions(), 1)
	assert.Equal(t, b, rm.Positions()[0].ID)

	rm.AddPosition(openPosition(100, 99, 1))
	rm.AddPosition(openPosition(100, 99, 1))
	ok, reason := rm.ValidateWithRegistry(longSignal(100, 99, 110), 10000)
	assert.False(t, ok)
	assert.Equal(t, ReasonMaxPositions, reason)
}

// TestValueAtRisk tests the empirical percentile and tail mean
func TestValueAtRisk(t *testing.T) {
	returns := make([]float64, 20)
	for i := range returns {
		returns[i] = -0.05 + 0.01*float64(19-i) // unsorted on purpose
	}

	assert.InDelta(t, -0.0405, ValueAtRisk(returns, 0.95), 1e-9)
	assert.InDelta(t, -0.05, ConditionalVaR(returns, 0.95), 1e-9)
	assert.Equal(t, 0.0, ValueAtRisk(nil, 0.95))
	assert.Equal(t, 0.0, ConditionalVaR(nil, 0.95))
}

// TestPercentile tests interpolation and bounds
func TestPercentile(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	assert.Equal(t, 1.0, Percentile(values, 0))
	assert.Equal(t, 4.0, Percentile(values, 100))
	assert.InDelta(t, 2.5, Percentile(values, 50), 1e-12)
	assert.Equal(t, []float64{4, 1, 3, 2}, values)
}

// TestPlanTrade tests ATR stop placement, target and sizing for a signal
func TestPlanTrade(t *testing.T) {
	rm := newTestManager()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.OHLCV, 20)
	for i := range bars {
		bars[i] = types.OHLCV{Timestamp: start.Add(time.Duration(i) * time.Hour), Open: 100, High: 101, Low: 99, Close: 100}
	}

	// ATR 2 gives a stop at 96; the pattern stop at 97 is nearer and wins
	plan, err := rm.PlanTrade(bars, longSignal(100, 97, 110), 10000)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, plan.ATR, 1e-9)
	assert.InDelta(t, 97.0, plan.StopLoss, 1e-9)
	assert.InDelta(t, 106.0, plan.TakeProfit, 1e-9)
	assert.Equal(t, 30, plan.Quantity)
	assert.True(t, plan.Valid)
	assert.Equal(t, ReasonValidated, plan.Reason)

	// a pattern stop beyond the ATR stop is replaced by it
	plan, err = rm.PlanTrade(bars, longSignal(100, 90, 130), 10000)
	require.NoError(t, err)
	assert.InDelta(t, 96.0, plan.StopLoss, 1e-9)
	assert.InDelta(t, 108.0, plan.TakeProfit, 1e-9)

	plans, err := rm.PlanTrades(bars, []signals.Signal{longSignal(100, 97, 110), longSignal(100, 90, 130)}, 10000)
	require.NoError(t, err)
	assert.Len(t, plans, 2)

	_, err = rm.PlanTrades(bars[:5], []signals.Signal{longSignal(100, 97, 110)}, 10000)
	assert.Error(t, err)
}
