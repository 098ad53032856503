package risk

import "github.com/ducminhle1904/ict-trading-agent/internal/signals"

// RiskManager sizes and admits signals against a risk budget
type RiskManager interface {
	// PositionSize returns whole units to trade; riskPerTrade <= 0 uses the configured value
	PositionSize(capital, entry, stop, riskPerTrade float64) int

	// ValidateTrade returns whether the signal may be opened and why
	ValidateTrade(sig signals.Signal, capital float64, positions []Position) (bool, string)
}
