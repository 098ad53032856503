package risk

import (
	"fmt"
	"math"

	"github.com/ducminhle1904/ict-trading-agent/internal/signals"
	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
	"github.com/rs/zerolog"
)

// Validation outcomes
const (
	ReasonValidated            = "Trade validated"
	ReasonMaxPositions         = "Maximum number of positions reached"
	ReasonInsufficientCapital  = "Insufficient capital for position"
	ReasonMaxPortfolioRisk     = "Would exceed maximum portfolio risk"
	reasonRiskRewardBelowRatio = "Risk/reward ratio %.2f below minimum %v"

	kellyFraction = 0.25
)

// Manager implements RiskManager. Apart from the optional position
// registry it holds no mutable state.
type Manager struct {
	cfg       Config
	log       zerolog.Logger
	positions []Position
	nextID    int
}

// NewManager creates a new risk manager
func NewManager(cfg Config, logger zerolog.Logger) *Manager {
	return &Manager{
		cfg: cfg,
		log: logger.With().Str("component", "risk").Logger(),
	}
}

// Config returns the risk budget in use
func (m *Manager) Config() Config {
	return m.cfg
}

// PositionSize sizes a trade so that a stop-out loses capital*riskPerTrade, then
// clamps to the maximum position fraction and to what capital can pay for
func (m *Manager) PositionSize(capital, entry, stop, riskPerTrade float64) int {
	if riskPerTrade <= 0 {
		riskPerTrade = m.cfg.RiskPerTrade
	}
	if capital <= 0 || entry <= 0 {
		m.log.Warn().Float64("capital", capital).Float64("entry", entry).Msg("Non-positive capital or entry price, position size is zero")
		return 0
	}

	priceRisk := math.Abs(entry - stop)
	if priceRisk <= 0 {
		m.log.Warn().Float64("entry", entry).Float64("stop", stop).Msg("Invalid stop loss: price risk is zero")
		return 0
	}

	size := int(math.Floor(capital * riskPerTrade / priceRisk))

	maxSize := int(math.Floor(capital * m.cfg.MaxPositionSize / entry))
	if size > maxSize {
		size = maxSize
	}

	if float64(size)*entry > capital {
		size = int(math.Floor(capital / entry))
	}
	if size < 0 {
		return 0
	}
	return size
}

// StopLoss places the stop atr*multiplier away from entry on the protective side.
// A support (long) or resistance (short) level beyond entry replaces it when nearer.
func (m *Manager) StopLoss(entry float64, side types.Side, atr float64, level *float64) float64 {
	offset := atr * m.cfg.StopLossATRMultiplier

	switch side {
	case types.Short:
		stop := entry + offset
		if level != nil && *level > entry {
			return math.Min(stop, *level)
		}
		return stop
	default:
		stop := entry - offset
		if level != nil && *level < entry {
			return math.Max(stop, *level)
		}
		return stop
	}
}

// TakeProfit places the target ratio times the stop distance from entry.
// A non-positive ratio uses the configured one.
func (m *Manager) TakeProfit(entry, stop float64, side types.Side, ratio float64) float64 {
	if ratio <= 0 {
		ratio = m.cfg.TakeProfitRatio
	}
	reward := math.Abs(entry-stop) * ratio
	if side == types.Short {
		return entry - reward
	}
	return entry + reward
}

// ValidateTrade runs the admission checks in order and returns the first failure
func (m *Manager) ValidateTrade(sig signals.Signal, capital float64, positions []Position) (bool, string) {
	if len(positions) >= m.cfg.MaxPositions {
		return false, ReasonMaxPositions
	}

	if m.PositionSize(capital, sig.Entry, sig.StopLoss, 0) <= 0 {
		return false, ReasonInsufficientCapital
	}

	if PortfolioRisk(positions, capital)+m.cfg.RiskPerTrade > m.cfg.MaxPortfolioRisk {
		return false, ReasonMaxPortfolioRisk
	}

	risk := math.Abs(sig.Entry - sig.StopLoss)
	if risk > 0 {
		rr := math.Abs(sig.TakeProfit-sig.Entry) / risk
		if rr < m.cfg.TakeProfitRatio {
			return false, fmt.Sprintf(reasonRiskRewardBelowRatio, rr, m.cfg.TakeProfitRatio)
		}
	}

	return true, ReasonValidated
}

// DailyLossLimit reports whether the loss since the start of day reached MaxDailyLoss
func (m *Manager) DailyLossLimit(startingCapital, currentCapital float64) (bool, float64) {
	loss := 0.0
	if startingCapital > 0 {
		loss = (startingCapital - currentCapital) / startingCapital
	}
	reached := loss >= m.cfg.MaxDailyLoss
	if reached {
		m.log.Warn().Float64("loss", loss).Float64("limit", m.cfg.MaxDailyLoss).Msg("Daily loss limit reached")
	}
	return reached, loss
}

// DrawdownLimit reports whether the decline from peak reached MaxDrawdown
func (m *Manager) DrawdownLimit(peakCapital, currentCapital float64) (bool, float64) {
	dd := 0.0
	if peakCapital > 0 {
		dd = (peakCapital - currentCapital) / peakCapital
	}
	reached := dd >= m.cfg.MaxDrawdown
	if reached {
		m.log.Warn().Float64("drawdown", dd).Float64("limit", m.cfg.MaxDrawdown).Msg("Maximum drawdown limit reached")
	}
	return reached, dd
}

// KellyCriterion returns a quarter-Kelly fraction clamped to [0, MaxPositionSize]
func (m *Manager) KellyCriterion(winRate, avgWin, avgLoss float64) float64 {
	if avgLoss <= 0 || avgWin <= 0 {
		return 0
	}
	ratio := avgWin / avgLoss
	kelly := (winRate*ratio - (1 - winRate)) / ratio
	return math.Max(0, math.Min(kelly*kellyFraction, m.cfg.MaxPositionSize))
}

// PortfolioRisk sums each position's stop-out loss as a fraction of capital
func PortfolioRisk(positions []Position, capital float64) float64 {
	if capital <= 0 {
		return 0
	}
	total := 0.0
	for _, p := range positions {
		total += p.Risk() / capital
	}
	return total
}
