package performance

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func tradesWithPnL(pnls ...float64) []types.Trade {
	out := make([]types.Trade, len(pnls))
	for i, p := range pnls {
		entry := start.Add(time.Duration(i) * 24 * time.Hour)
		out[i] = types.Trade{
			Symbol:     "NQ=F",
			EntryTime:  entry,
			ExitTime:   entry.Add(2 * time.Hour),
			EntryPrice: 100,
			ExitPrice:  100 + p,
			Side:       types.Long,
			Quantity:   1,
			PnL:        p,
			ExitReason: types.ExitTakeProfit,
			Pattern:    "Fair Value Gap",
		}
	}
	return out
}

func curveOf(equity ...float64) []types.EquitySample {
	out := make([]types.EquitySample, len(equity))
	for i, e := range equity {
		out[i] = types.EquitySample{Timestamp: start.Add(time.Duration(i) * time.Hour), Cash: e, Equity: e}
	}
	return out
}

// TestMaxDrawdown tests peak-to-trough tracking against the running peak
func TestMaxDrawdown(t *testing.T) {
	assert.InDelta(t, 2000.0/11000.0, MaxDrawdown([]float64{10000, 11000, 9000, 9500}), 1e-12)
	assert.InDelta(t, 0.1818, MaxDrawdown([]float64{10000, 11000, 9000, 9500}), 1e-4)
	assert.Equal(t, 0.0, MaxDrawdown([]float64{1, 2, 3}))
	assert.Equal(t, 0.0, MaxDrawdown(nil))
}

// TestAnalyzeDrawdowns tests period splitting and ordering
func TestAnalyzeDrawdowns(t *testing.T) {
	rep := AnalyzeDrawdowns([]float64{10000, 11000, 9000, 9500})
	require.Len(t, rep.Periods, 1)
	assert.Equal(t, 1, rep.Periods[0].StartIndex)
	assert.Equal(t, 2, rep.Periods[0].TroughIndex)
	assert.Equal(t, 1, rep.Periods[0].Duration)
	assert.InDelta(t, 0.1818, rep.Periods[0].Drawdown, 1e-4)

	rep = AnalyzeDrawdowns([]float64{100, 90, 110, 99, 120, 60, 70})
	assert.Equal(t, 3, rep.TotalDrawdowns)
	assert.InDelta(t, 0.5, rep.MaxDrawdown, 1e-12)
	assert.InDelta(t, 0.7/3, rep.AverageDrawdown, 1e-9)
	assert.Equal(t, 1, rep.MaxDrawdownDuration)
	require.Len(t, rep.Periods, 3)
	assert.Equal(t, 4, rep.Periods[0].StartIndex)
	assert.Equal(t, 0, rep.Periods[1].StartIndex)
	assert.Equal(t, 2, rep.Periods[2].StartIndex)

	empty := AnalyzeDrawdowns([]float64{1, 2, 3})
	assert.Zero(t, empty.TotalDrawdowns)
	assert.Empty(t, empty.Periods)
}

// TestGenerate_Summary tests totals, averages and expectancy
func TestGenerate_Summary(t *testing.T) {
	rep := Generate(tradesWithPnL(100, -50, 200, 0, -25), nil, 10000, DefaultOptions())
	s := rep.Summary

	assert.Equal(t, 5, s.TotalTrades)
	assert.Equal(t, 2, s.WinningTrades)
	assert.Equal(t, 3, s.LosingTrades)
	assert.InDelta(t, 0.4, s.WinRate, 1e-12)
	assert.InDelta(t, 225.0, s.TotalPnL, 1e-9)
	assert.InDelta(t, 45.0, s.AvgPnL, 1e-9)
	assert.InDelta(t, 300.0, s.GrossProfit, 1e-9)
	assert.InDelta(t, 75.0, s.GrossLoss, 1e-9)
	assert.InDelta(t, 4.0, s.ProfitFactor, 1e-9)
	assert.InDelta(t, 150.0, s.AvgWin, 1e-9)
	assert.InDelta(t, 25.0, s.AvgLoss, 1e-9)
	assert.InDelta(t, 6.0, s.WinLossRatio, 1e-9)
	assert.InDelta(t, 45.0, s.Expectancy, 1e-9)
	assert.InDelta(t, 2.0, s.AvgDurationHours, 1e-9)
	assert.InDelta(t, 0.0225, s.TotalReturn, 1e-12)
	assert.Equal(t, 200.0, s.BestTrade)
	assert.Equal(t, -50.0, s.WorstTrade)
}

// TestGenerate_NoLosses tests that the profit factor is zero without losses
func TestGenerate_NoLosses(t *testing.T) {
	rep := Generate(tradesWithPnL(10, 20), nil, 10000, DefaultOptions())
	assert.Equal(t, 0.0, rep.Summary.ProfitFactor)
	assert.Equal(t, 0.0, rep.Summary.WinLossRatio)
	assert.Equal(t, 2, rep.Streaks.MaxWinStreak)
}

// TestGenerate_Empty tests that empty inputs give a zero report
func TestGenerate_Empty(t *testing.T) {
	rep := Generate(nil, nil, 10000, Options{})

	assert.Zero(t, rep.Summary.TotalTrades)
	assert.Zero(t, rep.Summary.WinRate)
	assert.Zero(t, rep.Risk.SharpeRatio)
	assert.Zero(t, rep.Drawdown.MaxDrawdown)
	assert.Empty(t, rep.Monthly)
	assert.Equal(t, 0.95, rep.Risk.Confidence)
}

// TestStreaks tests the longest consecutive runs
func TestStreaks(t *testing.T) {
	s := streaks(tradesWithPnL(1, 1, -1, 1, 1, 1, -1, -1))
	assert.Equal(t, 3, s.MaxWinStreak)
	assert.Equal(t, 2, s.MaxLossStreak)

	s = streaks(tradesWithPnL(1, 0, 1))
	assert.Equal(t, 2, s.MaxWinStreak)
	assert.Equal(t, 0, s.MaxLossStreak)
}

// TestGenerate_Breakdowns tests the per-pattern, per-direction and monthly groups
func TestGenerate_Breakdowns(t *testing.T) {
	trades := tradesWithPnL(100, -50, 20)
	trades[1].Pattern = "Order Block"
	trades[1].Side = types.Short
	trades[1].ExitTime = time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	trades[2].ExitTime = time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)

	rep := Generate(trades, nil, 10000, DefaultOptions())

	require.Contains(t, rep.ByPattern, "Fair Value Gap")
	assert.Equal(t, 2, rep.ByPattern["Fair Value Gap"].Trades)
	assert.Equal(t, 1.0, rep.ByPattern["Fair Value Gap"].WinRate)
	assert.Equal(t, -50.0, rep.ByPattern["Order Block"].TotalPnL)

	assert.Equal(t, 2, rep.ByDirection["BULLISH"].Trades)
	assert.Equal(t, 1, rep.ByDirection["BEARISH"].Trades)

	require.Len(t, rep.Monthly, 2)
	assert.Equal(t, "2024-01", rep.Monthly[0].Month)
	assert.Equal(t, "2024-02", rep.Monthly[1].Month)
	assert.Equal(t, 2, rep.Monthly[1].Trades)
	assert.InDelta(t, -30.0, rep.Monthly[1].TotalPnL, 1e-9)
	assert.Equal(t, 20.0, rep.Monthly[1].BestTrade)
	assert.Equal(t, -50.0, rep.Monthly[1].WorstTrade)
	assert.Equal(t, "2024-01", rep.BestMonth)
	assert.Equal(t, "2024-02", rep.WorstMonth)
}

// TestSharpeAndSortino tests the annualized ratios on known returns
func TestSharpeAndSortino(t *testing.T) {
	assert.InDelta(t, 2.0, SharpeRatio([]float64{0.02, 0}, 0, 4), 1e-9)
	assert.Equal(t, 0.0, SharpeRatio([]float64{0.01, 0.01, 0.01}, 0, 4))
	assert.Equal(t, 0.0, SharpeRatio(nil, 0.02, 8760))

	assert.InDelta(t, 1.0/3, SortinoRatio([]float64{0.05, -0.01, -0.03}, 0, 1), 1e-9)
	assert.Equal(t, 0.0, SortinoRatio([]float64{0.01, 0.02}, 0, 1))
	assert.Equal(t, 0.0, SortinoRatio([]float64{0.03, -0.01}, 0, 1))
}

// TestRiskMetrics_Calmar tests the annualized return over max drawdown
func TestRiskMetrics_Calmar(t *testing.T) {
	rep := Generate(nil, curveOf(100, 110, 99), 100, Options{PeriodsPerYear: 3})

	assert.InDelta(t, -0.01, rep.Risk.AnnualReturn, 1e-9)
	assert.InDelta(t, 0.1, rep.Risk.MaxDrawdown, 1e-9)
	assert.InDelta(t, -0.1, rep.Risk.CalmarRatio, 1e-9)
	assert.InDelta(t, -0.1, rep.Risk.ConditionalVaR, 1e-9)
}

// TestGenerate_FlatCurve tests that zero denominators give zero ratios
func TestGenerate_FlatCurve(t *testing.T) {
	rep := Generate(nil, curveOf(10000, 10000, 10000, 10000), 10000, DefaultOptions())

	assert.Zero(t, rep.Risk.SharpeRatio)
	assert.Zero(t, rep.Risk.SortinoRatio)
	assert.Zero(t, rep.Risk.CalmarRatio)
	assert.Zero(t, rep.Risk.Volatility)
	assert.Zero(t, rep.Risk.MaxDrawdown)
}

// TestGenerate_JSONSafe tests that overflowing annualization still encodes
func TestGenerate_JSONSafe(t *testing.T) {
	rep := Generate(tradesWithPnL(10000), curveOf(10000, 20000), 10000, DefaultOptions())

	assert.Zero(t, rep.Risk.AnnualReturn)
	_, err := json.Marshal(rep)
	assert.NoError(t, err)
}

// TestReturns tests simple returns and zero-equity skipping
func TestReturns(t *testing.T) {
	r := Returns([]float64{100, 110, 99})
	require.Len(t, r, 2)
	assert.InDelta(t, 0.1, r[0], 1e-12)
	assert.InDelta(t, -0.1, r[1], 1e-12)

	assert.Len(t, Returns([]float64{0, 10, 20}), 1)
	assert.Nil(t, Returns([]float64{1}))
}
