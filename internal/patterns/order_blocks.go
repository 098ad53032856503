package patterns

import (
	"math"

	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
)

const (
	orderBlockMargin         = 10
	orderBlockZoneBars       = 5 // zone spans i-5..i
	orderBlockStopFraction   = 0.5
	orderBlockTargetMultiple = 2.0
	orderBlockMoveScale      = 10.0
	orderBlockMoveCap        = 0.8
	orderBlockVolumeLookback = 20
	orderBlockNeutral        = 0.5
)

// DetectOrderBlocks finds the bar cluster that precedes a run of strictly
// rising (bullish) or strictly falling (bearish) closes
func (d *Detector) DetectOrderBlocks(bars []types.OHLCV) []Pattern {
	if len(bars) < orderBlockMinBars {
		return nil
	}

	var out []Pattern
	for i := orderBlockMargin; i < len(bars)-orderBlockMargin; i++ {
		var dir types.Direction
		switch {
		case strongMove(bars, i, d.cfg.OrderBlockStrength, true):
			dir = types.Bullish
		case strongMove(bars, i, d.cfg.OrderBlockStrength, false):
			dir = types.Bearish
		default:
			continue
		}

		high, low := zoneExtremes(bars, i-orderBlockZoneBars, i)
		height := high - low
		strength, vol := orderBlockStrength(bars, i)

		p := Pattern{
			Kind:            OrderBlock,
			Direction:       dir,
			Index:           i,
			Timestamp:       bars[i].Timestamp,
			Upper:           high,
			Lower:           low,
			Strength:        strength,
			VolumeConfirmed: vol,
		}
		if dir == types.Bullish {
			p.Entry = low
			p.StopLoss = low - height*orderBlockStopFraction
			p.TakeProfit = high + height*orderBlockTargetMultiple
		} else {
			p.Entry = high
			p.StopLoss = high + height*orderBlockStopFraction
			p.TakeProfit = low - height*orderBlockTargetMultiple
		}
		out = append(out, p)
	}
	return out
}

// strongMove reports whether closes i-n..i are strictly monotonic in the given direction
func strongMove(bars []types.OHLCV, i, n int, rising bool) bool {
	if i < n || i >= len(bars) {
		return false
	}
	for k := i - n + 1; k <= i; k++ {
		if rising && bars[k].Close <= bars[k-1].Close {
			return false
		}
		if !rising && bars[k].Close >= bars[k-1].Close {
			return false
		}
	}
	return true
}

// zoneExtremes returns max high and min low over bars[from..to] inclusive
func zoneExtremes(bars []types.OHLCV, from, to int) (float64, float64) {
	if from < 0 {
		from = 0
	}
	high := bars[from].High
	low := bars[from].Low
	for k := from + 1; k <= to; k++ {
		high = math.Max(high, bars[k].High)
		low = math.Min(low, bars[k].Low)
	}
	return high, low
}

// orderBlockStrength scores the displacement from close[i-5] to close[i+4]
// plus a volume surge bonus on bar i
func orderBlockStrength(bars []types.OHLCV, i int) (float64, bool) {
	if i < orderBlockZoneBars || i >= len(bars)-orderBlockZoneBars {
		return orderBlockNeutral, false
	}

	base := bars[i-orderBlockZoneBars].Close
	strength := 0.0
	if base != 0 {
		move := math.Abs(bars[i+orderBlockZoneBars-1].Close-base) / base
		strength = math.Min(move*orderBlockMoveScale, orderBlockMoveCap)
	}

	vol := volumeSurgeAt(bars, i, orderBlockVolumeLookback)
	if vol {
		strength += volumeBonus
	}
	return clamp01(strength), vol
}
