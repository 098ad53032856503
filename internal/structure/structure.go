package structure

import (
	"time"

	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
)

// DefaultSwingWindow is the number of bars on each side a swing point must dominate
const DefaultSwingWindow = 5

// trendPoints is how many of the latest swing points classify the trend
const trendPoints = 5

// Trend is the prevailing market direction
type Trend string

const (
	Uptrend   Trend = "UPTREND"
	Downtrend Trend = "DOWNTREND"
	Sideways  Trend = "SIDEWAYS"
)

// Admits reports whether a pattern direction trades with the trend
func (t Trend) Admits(d types.Direction) bool {
	switch t {
	case Uptrend:
		return d == types.Bullish
	case Downtrend:
		return d == types.Bearish
	default:
		return false
	}
}

// SwingPoint is a local extreme of the bar window
type SwingPoint struct {
	Index     int       `json:"index"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// MarketStructure is recomputed from scratch on every Analyze call
type MarketStructure struct {
	Trend      Trend        `json:"trend"`
	SwingHighs []SwingPoint `json:"swing_highs"`
	SwingLows  []SwingPoint `json:"swing_lows"`
	Breaks     []Break      `json:"breaks"`
}

// Analyze derives swing points, trend and structure breaks from bars.
// A non-positive window uses DefaultSwingWindow.
func Analyze(bars []types.OHLCV, swingWindow int) MarketStructure {
	if swingWindow <= 0 {
		swingWindow = DefaultSwingWindow
	}

	highs, lows := SwingPoints(bars, swingWindow)
	return MarketStructure{
		Trend:      ClassifyTrend(highs, lows),
		SwingHighs: highs,
		SwingLows:  lows,
		Breaks:     DetectBreaks(bars, highs, lows, swingWindow),
	}
}

// SwingPoints returns bars whose high (low) is strictly above (below) every other
// high (low) within window bars on either side
func SwingPoints(bars []types.OHLCV, window int) (highs, lows []SwingPoint) {
	for i := window; i < len(bars)-window; i++ {
		isHigh, isLow := true, true
		for j := i - window; j <= i+window; j++ {
			if j == i {
				continue
			}
			if bars[j].High >= bars[i].High {
				isHigh = false
			}
			if bars[j].Low <= bars[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			highs = append(highs, SwingPoint{Index: i, Price: bars[i].High, Timestamp: bars[i].Timestamp})
		}
		if isLow {
			lows = append(lows, SwingPoint{Index: i, Price: bars[i].Low, Timestamp: bars[i].Timestamp})
		}
	}
	return highs, lows
}

// ClassifyTrend looks at the last five swing highs and lows: both strictly rising is an
// uptrend, both strictly falling a downtrend, anything else sideways
func ClassifyTrend(highs, lows []SwingPoint) Trend {
	h := lastN(highs, trendPoints)
	l := lastN(lows, trendPoints)
	if len(h) < 2 || len(l) < 2 {
		return Sideways
	}

	if monotonic(h, true) && monotonic(l, true) {
		return Uptrend
	}
	if monotonic(h, false) && monotonic(l, false) {
		return Downtrend
	}
	return Sideways
}

func lastN(points []SwingPoint, n int) []SwingPoint {
	if len(points) <= n {
		return points
	}
	return points[len(points)-n:]
}

func monotonic(points []SwingPoint, rising bool) bool {
	for i := 1; i < len(points); i++ {
		if rising && points[i].Price <= points[i-1].Price {
			return false
		}
		if !rising && points[i].Price >= points[i-1].Price {
			return false
		}
	}
	return true
}
