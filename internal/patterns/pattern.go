package patterns

import (
	"time"

	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
)

// Kind discriminates the pattern variants
type Kind string

const (
	FairValueGap  Kind = "Fair Value Gap"
	OrderBlock    Kind = "Order Block"
	LiquidityPool Kind = "Liquidity Pool"
)

// LevelType tells whether a liquidity pool sits on highs or lows
type LevelType string

const (
	Support    LevelType = "SUPPORT"
	Resistance LevelType = "RESISTANCE"
)

// Pattern is a detected candidate setup anchored at one bar of the analysed window.
// Gap is set only for FairValueGap, Pool only for LiquidityPool.
type Pattern struct {
	Kind      Kind            `json:"kind"`
	Direction types.Direction `json:"direction"`
	Index     int             `json:"index"`
	Timestamp time.Time       `json:"timestamp"`

	Upper float64 `json:"upper"`
	Lower float64 `json:"lower"`

	Entry      float64 `json:"entry"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`

	Strength        float64 `json:"strength"`
	VolumeConfirmed bool    `json:"volume_confirmed"`

	// Resolved marks a filled gap or a tested block/pool. Detection never sets it.
	Resolved bool `json:"resolved"`

	Gap  *GapDetails  `json:"gap,omitempty"`
	Pool *PoolDetails `json:"pool,omitempty"`
}

// GapDetails carries the fair value gap payload
type GapDetails struct {
	Size float64 `json:"size"`
}

// PoolDetails carries the liquidity pool payload
type PoolDetails struct {
	Level     float64   `json:"level"`
	Touches   int       `json:"touches"`
	LevelType LevelType `json:"level_type"`
}

// Height returns the zone height
func (p Pattern) Height() float64 {
	return p.Upper - p.Lower
}
