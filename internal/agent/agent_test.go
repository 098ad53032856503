package agent

import (
	"testing"
	"time"

	"github.com/ducminhle1904/ict-trading-agent/internal/patterns"
	"github.com/ducminhle1904/ict-trading-agent/internal/structure"
	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateUptrend creates a rising zig-zag of flat-bodied bars
func generateUptrend(n int) []types.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.OHLCV, n)
	for k := range bars {
		m := k % 12
		leg := float64(m)
		if m >= 6 {
			leg = float64(12 - m)
		}
		c := 100 + 2*leg + 0.5*float64(k)
		bars[k] = types.OHLCV{
			Timestamp: start.Add(time.Duration(k) * time.Hour),
			Open:      c,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func countDirection(found []patterns.Pattern, d types.Direction) int {
	n := 0
	for _, p := range found {
		if p.Direction == d {
			n++
		}
	}
	return n
}

// TestAnalyze_Uptrend tests the pipeline on a rising market
func TestAnalyze_Uptrend(t *testing.T) {
	a := New(DefaultConfig(), zerolog.Nop())
	bars := generateUptrend(72)

	res := a.Analyze(bars)
	assert.Equal(t, structure.Uptrend, res.Structure.Trend)
	assert.Equal(t, 72, res.BarsAnalyzed)
	assert.Empty(t, res.Gaps)
	require.NotEmpty(t, res.OrderBlocks)

	require.Len(t, res.Signals, countDirection(res.OrderBlocks, types.Bullish))
	for i, s := range res.Signals {
		assert.Equal(t, types.Bullish, s.Direction)
		assert.Equal(t, "Order Block", s.Label)
		assert.GreaterOrEqual(t, s.Strength, 0.0)
		assert.LessOrEqual(t, s.Strength, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, res.Signals[i-1].Strength, s.Strength)
		}
	}

	assert.Equal(t, res.Signals, a.Signals(bars))
	assert.Len(t, res.Patterns(), len(res.Gaps)+len(res.OrderBlocks)+len(res.Liquidity))
}

// TestAnalyze_IncludeLiquidity tests that pools only feed signals when enabled
func TestAnalyze_IncludeLiquidity(t *testing.T) {
	bars := generateUptrend(72)

	cfg := DefaultConfig()
	cfg.IncludeLiquidity = true
	res := New(cfg, zerolog.Nop()).Analyze(bars)

	want := countDirection(res.OrderBlocks, types.Bullish) + countDirection(res.Liquidity, types.Bullish)
	assert.Len(t, res.Signals, want)

	without := New(DefaultConfig(), zerolog.Nop()).Analyze(bars)
	assert.Equal(t, res.Liquidity, without.Liquidity)
	assert.Len(t, without.Signals, countDirection(without.OrderBlocks, types.Bullish))
}

// TestAnalyze_ShortWindow tests that tiny windows produce nothing
func TestAnalyze_ShortWindow(t *testing.T) {
	a := New(Config{}, zerolog.Nop())

	res := a.Analyze(generateUptrend(2))
	assert.Equal(t, structure.Sideways, res.Structure.Trend)
	assert.Empty(t, res.Patterns())
	assert.Empty(t, res.Signals)
	assert.Empty(t, a.Signals(nil))
}

// TestAnalyze_Deterministic tests that repeated runs agree
func TestAnalyze_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IncludeLiquidity = true
	a := New(cfg, zerolog.Nop())
	bars := generateUptrend(100)

	assert.Equal(t, a.Analyze(bars), a.Analyze(bars))
}
