package types

import "time"

// Direction is the bias of a pattern or signal
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
)

// Side is the direction of an open position
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// SideOf maps a pattern direction to the position side that trades it
func SideOf(d Direction) Side {
	if d == Bearish {
		return Short
	}
	return Long
}

// ExitReason records why a position was closed
type ExitReason string

const (
	ExitStopLoss      ExitReason = "Stop Loss"
	ExitTakeProfit    ExitReason = "Take Profit"
	ExitEndOfBacktest ExitReason = "End of backtest"
)

// Trade is a closed position. Trades are appended to the log and never changed.
type Trade struct {
	Symbol     string     `json:"symbol"`
	EntryTime  time.Time  `json:"entry_time"`
	ExitTime   time.Time  `json:"exit_time"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	Side       Side       `json:"side"`
	Quantity   int        `json:"quantity"`
	PnL        float64    `json:"pnl"`
	Commission float64    `json:"commission"`
	ExitReason ExitReason `json:"exit_reason"`
	Pattern    string     `json:"pattern"`
}

// Direction returns the pattern direction the trade was opened on
func (t Trade) Direction() Direction {
	if t.Side == Short {
		return Bearish
	}
	return Bullish
}

// EquitySample is the account state at the close of one simulated bar
type EquitySample struct {
	Timestamp      time.Time `json:"timestamp"`
	Cash           float64   `json:"cash"`
	PositionsValue float64   `json:"positions_value"`
	Equity         float64   `json:"equity"`
}
