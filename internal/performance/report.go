package performance

import (
	"math"

	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
)

// Options tunes the risk-adjusted metrics
type Options struct {
	PeriodsPerYear float64 // bars per year used to annualize (8760 for hourly bars)
	RiskFreeRate   float64 // annual
	Confidence     float64 // VaR confidence level
}

// DefaultOptions returns hourly annualization, a 2% risk-free rate and 95% VaR
func DefaultOptions() Options {
	return Options{
		PeriodsPerYear: 8760,
		RiskFreeRate:   0.02,
		Confidence:     0.95,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.PeriodsPerYear <= 0 {
		o.PeriodsPerYear = def.PeriodsPerYear
	}
	if o.Confidence <= 0 || o.Confidence >= 1 {
		o.Confidence = def.Confidence
	}
	return o
}

// Summary holds the trade totals and averages
type Summary struct {
	TotalTrades      int     `json:"total_trades"`
	WinningTrades    int     `json:"winning_trades"`
	LosingTrades     int     `json:"losing_trades"`
	WinRate          float64 `json:"win_rate"`
	TotalPnL         float64 `json:"total_pnl"`
	AvgPnL           float64 `json:"avg_pnl"`
	GrossProfit      float64 `json:"gross_profit"`
	GrossLoss        float64 `json:"gross_loss"`
	ProfitFactor     float64 `json:"profit_factor"`
	AvgWin           float64 `json:"avg_win"`
	AvgLoss          float64 `json:"avg_loss"`
	WinLossRatio     float64 `json:"win_loss_ratio"`
	Expectancy       float64 `json:"expectancy"`
	AvgDurationHours float64 `json:"avg_duration_hours"`
	BestTrade        float64 `json:"best_trade"`
	WorstTrade       float64 `json:"worst_trade"`
	TotalReturn      float64 `json:"total_return"`
}

// Streaks holds the longest consecutive winning and losing runs
type Streaks struct {
	MaxWinStreak  int `json:"max_win_streak"`
	MaxLossStreak int `json:"max_loss_streak"`
}

// GroupStats aggregates the trades sharing one key
type GroupStats struct {
	Trades   int     `json:"trades"`
	Wins     int     `json:"wins"`
	WinRate  float64 `json:"win_rate"`
	TotalPnL float64 `json:"total_pnl"`
	AvgPnL   float64 `json:"avg_pnl"`
}

// MonthlyStats aggregates trades by exit month
type MonthlyStats struct {
	Month         string  `json:"month"`
	Trades        int     `json:"trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	TotalPnL      float64 `json:"total_pnl"`
	AvgPnL        float64 `json:"avg_pnl"`
	BestTrade     float64 `json:"best_trade"`
	WorstTrade    float64 `json:"worst_trade"`
}

// RiskMetrics holds the equity-curve based ratios
type RiskMetrics struct {
	SharpeRatio    float64 `json:"sharpe_ratio"`
	SortinoRatio   float64 `json:"sortino_ratio"`
	CalmarRatio    float64 `json:"calmar_ratio"`
	AnnualReturn   float64 `json:"annual_return"`
	Volatility     float64 `json:"volatility"`
	ValueAtRisk    float64 `json:"value_at_risk"`
	ConditionalVaR float64 `json:"conditional_var"`
	Confidence     float64 `json:"confidence"`
	MaxDrawdown    float64 `json:"max_drawdown"`
}

// Report is the full performance report of one backtest
type Report struct {
	Summary     Summary               `json:"summary"`
	Streaks     Streaks               `json:"streaks"`
	ByPattern   map[string]GroupStats `json:"pattern_performance"`
	ByDirection map[string]GroupStats `json:"direction_performance"`
	ByHour      map[int]GroupStats    `json:"hourly_performance"`
	ByWeekday   map[string]GroupStats `json:"daily_performance"`
	Monthly     []MonthlyStats        `json:"monthly_performance"`
	BestMonth   string                `json:"best_month,omitempty"`
	WorstMonth  string                `json:"worst_month,omitempty"`
	Drawdown    DrawdownReport        `json:"drawdown"`
	Risk        RiskMetrics           `json:"risk"`
}

// Generate aggregates trades and the equity curve into a Report. It never
// fails: empty inputs give zero metrics.
func Generate(trades []types.Trade, curve []types.EquitySample, initialCapital float64, opts Options) Report {
	opts = opts.withDefaults()

	equity := make([]float64, len(curve))
	for i, s := range curve {
		equity[i] = s.Equity
	}

	r := Report{
		Summary:     summarize(trades, initialCapital),
		Streaks:     streaks(trades),
		ByPattern:   groupBy(trades, func(t types.Trade) string { return t.Pattern }),
		ByDirection: groupBy(trades, func(t types.Trade) string { return string(t.Direction()) }),
		ByHour:      groupBy(trades, func(t types.Trade) int { return t.ExitTime.Hour() }),
		ByWeekday:   groupBy(trades, func(t types.Trade) string { return t.ExitTime.Weekday().String() }),
		Drawdown:    AnalyzeDrawdowns(equity),
		Risk:        riskMetrics(equity, initialCapital, opts),
	}
	r.Monthly, r.BestMonth, r.WorstMonth = monthly(trades)
	return r
}

// finite maps NaN and infinities to zero
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return finite(num / den)
}
