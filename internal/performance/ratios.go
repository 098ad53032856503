package performance

import (
	"math"

	"github.com/ducminhle1904/ict-trading-agent/internal/risk"
)

// minStdDev treats float noise on a flat curve as zero deviation
const minStdDev = 1e-12

// Returns converts an equity curve into per-bar simple returns. Bars following
// a zero equity are skipped.
func Returns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			continue
		}
		out = append(out, equity[i]/equity[i-1]-1)
	}
	return out
}

// SharpeRatio is the annualized mean excess return over the return stdev
func SharpeRatio(returns []float64, riskFreeRate, periodsPerYear float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sd := stdDev(returns)
	if sd < minStdDev {
		return 0
	}
	excess := mean(returns) - riskFreeRate/periodsPerYear
	return finite(excess * math.Sqrt(periodsPerYear) / sd)
}

// SortinoRatio is SharpeRatio with only the negative returns in the denominator
func SortinoRatio(returns []float64, riskFreeRate, periodsPerYear float64) float64 {
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return 0
	}
	sd := stdDev(downside)
	if sd < minStdDev {
		return 0
	}
	excess := mean(returns) - riskFreeRate/periodsPerYear
	return finite(excess * math.Sqrt(periodsPerYear) / sd)
}

// AnnualizedReturn compounds final/initial over len(curve) bars to one year
func AnnualizedReturn(final, initial float64, bars int, periodsPerYear float64) float64 {
	if initial <= 0 || bars == 0 || final < 0 {
		return 0
	}
	return finite(math.Pow(final/initial, periodsPerYear/float64(bars)) - 1)
}

func riskMetrics(equity []float64, initialCapital float64, opts Options) RiskMetrics {
	m := RiskMetrics{Confidence: opts.Confidence}
	if len(equity) == 0 {
		return m
	}

	returns := Returns(equity)
	m.MaxDrawdown = MaxDrawdown(equity)
	m.SharpeRatio = SharpeRatio(returns, opts.RiskFreeRate, opts.PeriodsPerYear)
	m.SortinoRatio = SortinoRatio(returns, opts.RiskFreeRate, opts.PeriodsPerYear)
	m.Volatility = finite(stdDev(returns) * math.Sqrt(opts.PeriodsPerYear))
	m.AnnualReturn = AnnualizedReturn(equity[len(equity)-1], initialCapital, len(equity), opts.PeriodsPerYear)
	m.CalmarRatio = ratio(m.AnnualReturn, m.MaxDrawdown)
	m.ValueAtRisk = risk.ValueAtRisk(returns, opts.Confidence)
	m.ConditionalVaR = risk.ConditionalVaR(returns, opts.Confidence)
	return m
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mu := mean(values)
	variance := 0.0
	for _, v := range values {
		variance += (v - mu) * (v - mu)
	}
	return math.Sqrt(variance / float64(len(values)))
}
