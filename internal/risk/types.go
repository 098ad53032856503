package risk

import (
	"time"

	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
)

// Config holds the risk budget. It is read, never mutated, by the manager.
type Config struct {
	RiskPerTrade          float64 `json:"risk_per_trade"`
	MaxPositions          int     `json:"max_positions"`
	MaxPortfolioRisk      float64 `json:"max_portfolio_risk"`
	MaxPositionSize       float64 `json:"max_position_size"` // fraction of capital
	StopLossATRMultiplier float64 `json:"stop_loss_atr_multiplier"`
	TakeProfitRatio       float64 `json:"take_profit_ratio"`
	MaxDailyLoss          float64 `json:"max_daily_loss"`
	MaxDrawdown           float64 `json:"max_drawdown"`
}

// DefaultConfig returns the standard risk budget
func DefaultConfig() Config {
	return Config{
		RiskPerTrade:          0.02,
		MaxPositions:          3,
		MaxPortfolioRisk:      0.06,
		MaxPositionSize:       0.3,
		StopLossATRMultiplier: 2,
		TakeProfitRatio:       2,
		MaxDailyLoss:          0.05,
		MaxDrawdown:           0.20,
	}
}

// Position is an open trade
type Position struct {
	ID         int        `json:"id"`
	Symbol     string     `json:"symbol"`
	Side       types.Side `json:"side"`
	EntryPrice float64    `json:"entry_price"`
	Quantity   int        `json:"quantity"`
	StopLoss   float64    `json:"stop_loss"`
	TakeProfit float64    `json:"take_profit"`
	EntryTime  time.Time  `json:"entry_time"`
	Pattern    string     `json:"pattern"`
}

// Risk is the capital lost if the position stops out
func (p Position) Risk() float64 {
	d := p.EntryPrice - p.StopLoss
	if d < 0 {
		d = -d
	}
	return d * float64(p.Quantity)
}
