package risk

import (
	"fmt"

	"github.com/ducminhle1904/ict-trading-agent/internal/indicators"
	"github.com/ducminhle1904/ict-trading-agent/internal/signals"
	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
)

// TradePlan is a signal with its stop re-levelled against ATR and sized for capital
type TradePlan struct {
	Pattern    string          `json:"pattern"`
	Direction  types.Direction `json:"direction"`
	Entry      float64         `json:"entry"`
	ATR        float64         `json:"atr"`
	StopLoss   float64         `json:"stop_loss"`
	TakeProfit float64         `json:"take_profit"`
	Quantity   int             `json:"quantity"`
	Valid      bool            `json:"valid"`
	Reason     string          `json:"reason"`
}

// PlanTrade places the ATR stop over bars, keeping the pattern stop when it is
// nearer, sets the target at the configured ratio and sizes the position.
// The plan carries the ValidateTrade outcome against an empty book.
func (m *Manager) PlanTrade(bars []types.OHLCV, sig signals.Signal, capital float64) (TradePlan, error) {
	atr, err := indicators.ATR(bars, indicators.DefaultATRPeriod)
	if err != nil {
		return TradePlan{}, fmt.Errorf("trade plan atr: %w", err)
	}

	side := sig.Side()
	level := sig.StopLoss
	stop := m.StopLoss(sig.Entry, side, atr, &level)
	target := m.TakeProfit(sig.Entry, stop, side, 0)

	planned := sig
	planned.StopLoss, planned.TakeProfit = stop, target
	valid, reason := m.ValidateTrade(planned, capital, nil)

	return TradePlan{
		Pattern:    sig.Label,
		Direction:  sig.Direction,
		Entry:      sig.Entry,
		ATR:        atr,
		StopLoss:   stop,
		TakeProfit: target,
		Quantity:   m.PositionSize(capital, sig.Entry, stop, 0),
		Valid:      valid,
		Reason:     reason,
	}, nil
}

// PlanTrades plans every signal over the same bars, strongest first
func (m *Manager) PlanTrades(bars []types.OHLCV, sigs []signals.Signal, capital float64) ([]TradePlan, error) {
	plans := make([]TradePlan, 0, len(sigs))
	for _, sig := range sigs {
		plan, err := m.PlanTrade(bars, sig, capital)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}
