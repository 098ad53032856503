package indicators

import (
	"errors"
	"math"

	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
	"github.com/markcheno/go-talib"
)

// DefaultATRPeriod is the lookback for stop-distance volatility
const DefaultATRPeriod = 14

// ErrInsufficientData is returned when a series is shorter than the indicator period
var ErrInsufficientData = errors.New("insufficient data points for indicator calculation")

// TrueRange returns the per-bar true range. The first bar uses high-low.
func TrueRange(bars []types.OHLCV) []float64 {
	tr := make([]float64, len(bars))
	for i, b := range bars {
		if i == 0 {
			tr[i] = b.High - b.Low
			continue
		}
		prevClose := bars[i-1].Close
		tr[i] = math.Max(b.High-b.Low, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
	}
	return tr
}

// ATR returns the latest average true range, a simple rolling mean of the last period true ranges
func ATR(bars []types.OHLCV, period int) (float64, error) {
	if period <= 0 {
		period = DefaultATRPeriod
	}
	if len(bars) < period {
		return 0, ErrInsufficientData
	}
	sma := talib.Sma(TrueRange(bars), period)
	return sma[len(sma)-1], nil
}

// WilderATR returns the latest Wilder-smoothed ATR
func WilderATR(bars []types.OHLCV, period int) (float64, error) {
	if period <= 0 {
		period = DefaultATRPeriod
	}
	if len(bars) <= period {
		return 0, ErrInsufficientData
	}
	atr := talib.Atr(types.Highs(bars), types.Lows(bars), types.Closes(bars), period)
	return atr[len(atr)-1], nil
}

// SMA returns the latest simple moving average of closes
func SMA(bars []types.OHLCV, period int) (float64, error) {
	if period <= 0 || len(bars) < period {
		return 0, ErrInsufficientData
	}
	sma := talib.Sma(types.Closes(bars), period)
	return sma[len(sma)-1], nil
}
