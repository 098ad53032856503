package patterns

import (
	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
)

const (
	gapMinBars        = 3
	orderBlockMinBars = 20
	liquidityMinBars  = 50

	// volumeSurge is the multiple of trailing mean volume that earns a bonus
	volumeSurge = 1.5
	volumeBonus = 0.2
)

// Config holds pattern detection thresholds
type Config struct {
	MinGapSize         float64 // minimum relative gap size
	OrderBlockStrength int     // consecutive closes that make a strong move
	LiquidityTolerance float64 // relative distance for equal highs/lows
}

// DefaultConfig returns the standard detection thresholds
func DefaultConfig() Config {
	return Config{
		MinGapSize:         0.001,
		OrderBlockStrength: 3,
		LiquidityTolerance: 0.05,
	}
}

// Detector scans bar windows for gaps, order blocks and liquidity pools.
// It holds no state between calls.
type Detector struct {
	cfg Config
}

// NewDetector creates a new pattern detector, filling unset thresholds with defaults
func NewDetector(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.MinGapSize <= 0 {
		cfg.MinGapSize = def.MinGapSize
	}
	if cfg.OrderBlockStrength <= 0 {
		cfg.OrderBlockStrength = def.OrderBlockStrength
	}
	if cfg.LiquidityTolerance <= 0 {
		cfg.LiquidityTolerance = def.LiquidityTolerance
	}
	return &Detector{cfg: cfg}
}

// Config returns the effective thresholds
func (d *Detector) Config() Config {
	return d.cfg
}

// DetectAll runs every detector and concatenates the results: gaps, then blocks, then pools
func (d *Detector) DetectAll(bars []types.OHLCV) []Pattern {
	var out []Pattern
	out = append(out, d.DetectFairValueGaps(bars)...)
	out = append(out, d.DetectOrderBlocks(bars)...)
	out = append(out, d.DetectLiquidityPools(bars)...)
	return out
}

// meanVolume averages volume over bars[from:to], clipping from at zero
func meanVolume(bars []types.OHLCV, from, to int) (float64, bool) {
	if from < 0 {
		from = 0
	}
	if to > len(bars) {
		to = len(bars)
	}
	if to <= from {
		return 0, false
	}
	sum := 0.0
	for i := from; i < to; i++ {
		sum += bars[i].Volume
	}
	return sum / float64(to-from), true
}

// volumeSurgeAt reports whether bar i traded more than volumeSurge times the trailing mean
func volumeSurgeAt(bars []types.OHLCV, i, lookback int) bool {
	avg, ok := meanVolume(bars, i-lookback, i)
	if !ok {
		return false
	}
	return bars[i].Volume > avg*volumeSurge
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
