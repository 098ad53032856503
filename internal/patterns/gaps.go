package patterns

import (
	"math"

	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
)

const (
	gapStopBuffer     = 0.001
	gapTargetMultiple = 2.0
	gapSizeCap        = 0.5
	gapSizeScale      = 100.0
	gapMomentumBars   = 3
	gapMomentumScale  = 5.0
	gapVolumeLookback = 10
)

// DetectFairValueGaps finds three-bar imbalances where bars i-1 and i+1 do not overlap.
// A bullish gap needs a bullish middle candle, a bearish gap a bearish one.
func (d *Detector) DetectFairValueGaps(bars []types.OHLCV) []Pattern {
	if len(bars) < gapMinBars {
		return nil
	}

	var out []Pattern
	for i := 1; i < len(bars)-1; i++ {
		prev, mid, next := bars[i-1], bars[i], bars[i+1]

		switch {
		case prev.Low > next.High && mid.Close > mid.Open:
			size := (prev.Low - next.High) / next.High
			if size < d.cfg.MinGapSize {
				continue
			}
			strength, vol := gapStrength(bars, i, size)
			out = append(out, Pattern{
				Kind:            FairValueGap,
				Direction:       types.Bullish,
				Index:           i,
				Timestamp:       mid.Timestamp,
				Upper:           prev.Low,
				Lower:           next.High,
				Entry:           next.High,
				StopLoss:        next.High * (1 - gapStopBuffer),
				TakeProfit:      prev.Low + gapTargetMultiple*size*prev.Low,
				Strength:        strength,
				VolumeConfirmed: vol,
				Gap:             &GapDetails{Size: size},
			})

		case prev.High < next.Low && mid.Close < mid.Open:
			size := (next.Low - prev.High) / prev.High
			if size < d.cfg.MinGapSize {
				continue
			}
			strength, vol := gapStrength(bars, i, size)
			out = append(out, Pattern{
				Kind:            FairValueGap,
				Direction:       types.Bearish,
				Index:           i,
				Timestamp:       mid.Timestamp,
				Upper:           next.Low,
				Lower:           prev.High,
				Entry:           prev.High,
				StopLoss:        next.Low * (1 + gapStopBuffer),
				TakeProfit:      next.Low - gapTargetMultiple*size*next.Low,
				Strength:        strength,
				VolumeConfirmed: vol,
				Gap:             &GapDetails{Size: size},
			})
		}
	}
	return out
}

// gapStrength scores a gap from its size, a volume surge on the middle bar and
// the three-bar momentum into it
func gapStrength(bars []types.OHLCV, i int, size float64) (float64, bool) {
	strength := math.Min(size*gapSizeScale, gapSizeCap)

	vol := volumeSurgeAt(bars, i, gapVolumeLookback)
	if vol {
		strength += volumeBonus
	}

	if i >= gapMomentumBars {
		base := bars[i-gapMomentumBars].Close
		if base != 0 {
			strength += math.Abs(bars[i].Close-base) / base * gapMomentumScale
		}
	}

	return clamp01(strength), vol
}
