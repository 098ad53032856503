package signals

import (
	"sort"

	"github.com/ducminhle1904/ict-trading-agent/internal/patterns"
	"github.com/ducminhle1904/ict-trading-agent/internal/structure"
	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
)

const (
	trendBonus  = 0.2
	volumeBonus = 0.1
)

// Signal is a trend-aligned pattern ready for sizing
type Signal struct {
	Pattern    patterns.Pattern `json:"pattern"`
	Direction  types.Direction  `json:"direction"`
	Entry      float64          `json:"entry"`
	StopLoss   float64          `json:"stop_loss"`
	TakeProfit float64          `json:"take_profit"`
	Strength   float64          `json:"strength"`
	Label      string           `json:"label"`
}

// Side returns the position side that trades the signal
func (s Signal) Side() types.Side {
	return types.SideOf(s.Direction)
}

// Generate keeps patterns that trade with the trend and ranks them by strength,
// strongest first. Equal strengths keep their input order.
func Generate(found []patterns.Pattern, ms structure.MarketStructure) []Signal {
	var out []Signal
	for _, p := range found {
		if !ms.Trend.Admits(p.Direction) {
			continue
		}
		out = append(out, Signal{
			Pattern:    p,
			Direction:  p.Direction,
			Entry:      p.Entry,
			StopLoss:   p.StopLoss,
			TakeProfit: p.TakeProfit,
			Strength:   Strength(p),
			Label:      string(p.Kind),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Strength > out[j].Strength
	})
	return out
}

// Strength is the pattern strength plus the trend alignment bonus and, for
// volume-confirmed patterns, the volume bonus, capped at 1
func Strength(p patterns.Pattern) float64 {
	s := p.Strength + trendBonus
	if p.VolumeConfirmed {
		s += volumeBonus
	}
	if s > 1 {
		return 1
	}
	if s < 0 {
		return 0
	}
	return s
}
