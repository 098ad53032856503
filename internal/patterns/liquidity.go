package patterns

import (
	"math"

	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
)

const (
	liquidityMargin     = 20
	liquidityMinMatches = 2
	liquidityScale      = 10.0
	liquidityStopBuffer = 0.001
	liquidityRewardRisk = 2.0
)

// DetectLiquidityPools finds price levels touched by at least three highs
// (resistance) or three lows (support) within a 41-bar neighbourhood.
// Resistance pools are emitted first, then support pools.
func (d *Detector) DetectLiquidityPools(bars []types.OHLCV) []Pattern {
	if len(bars) < liquidityMinBars {
		return nil
	}

	out := d.scanLevels(bars, types.Highs(bars), Resistance)
	return append(out, d.scanLevels(bars, types.Lows(bars), Support)...)
}

func (d *Detector) scanLevels(bars []types.OHLCV, levels []float64, kind LevelType) []Pattern {
	tol := d.cfg.LiquidityTolerance

	var out []Pattern
	for i := liquidityMargin; i < len(levels)-liquidityMargin; i++ {
		base := levels[i]
		if base == 0 {
			continue
		}

		matches := 0
		upper, lower := base, base
		for j := i - liquidityMargin; j <= i+liquidityMargin; j++ {
			if j == i || math.Abs(levels[j]-base)/base > tol {
				continue
			}
			matches++
			upper = math.Max(upper, levels[j])
			lower = math.Min(lower, levels[j])
		}
		if matches < liquidityMinMatches {
			continue
		}

		p := Pattern{
			Kind:      LiquidityPool,
			Index:     i,
			Timestamp: bars[i].Timestamp,
			Upper:     upper,
			Lower:     lower,
			Entry:     base,
			Strength:  clamp01(float64(matches) / liquidityScale),
			Pool: &PoolDetails{
				Level:     base,
				Touches:   matches + 1,
				LevelType: kind,
			},
		}
		if kind == Resistance {
			p.Direction = types.Bearish
			p.StopLoss = upper * (1 + liquidityStopBuffer)
			p.TakeProfit = base - liquidityRewardRisk*(p.StopLoss-base)
		} else {
			p.Direction = types.Bullish
			p.StopLoss = lower * (1 - liquidityStopBuffer)
			p.TakeProfit = base + liquidityRewardRisk*(base-p.StopLoss)
		}
		out = append(out, p)
	}
	return out
}
