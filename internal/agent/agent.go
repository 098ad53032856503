package agent

import (
	"github.com/ducminhle1904/ict-trading-agent/internal/patterns"
	"github.com/ducminhle1904/ict-trading-agent/internal/signals"
	"github.com/ducminhle1904/ict-trading-agent/internal/structure"
	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
	"github.com/rs/zerolog"
)

// Config controls the analysis pipeline
type Config struct {
	SwingWindow int
	Patterns    patterns.Config

	// IncludeLiquidity lets liquidity pools produce signals. Pools are always
	// reported by Analyze.
	IncludeLiquidity bool
}

// DefaultConfig returns the standard pipeline settings
func DefaultConfig() Config {
	return Config{
		SwingWindow: structure.DefaultSwingWindow,
		Patterns:    patterns.DefaultConfig(),
	}
}

// Analysis is the full result of analyzing one bar window
type Analysis struct {
	Structure    structure.MarketStructure `json:"structure"`
	Gaps         []patterns.Pattern        `json:"fair_value_gaps"`
	OrderBlocks  []patterns.Pattern        `json:"order_blocks"`
	Liquidity    []patterns.Pattern        `json:"liquidity_pools"`
	Signals      []signals.Signal          `json:"signals"`
	BarsAnalyzed int                       `json:"bars_analyzed"`
}

// Patterns returns every detected pattern: gaps, then blocks, then pools
func (a Analysis) Patterns() []patterns.Pattern {
	out := make([]patterns.Pattern, 0, len(a.Gaps)+len(a.OrderBlocks)+len(a.Liquidity))
	out = append(out, a.Gaps...)
	out = append(out, a.OrderBlocks...)
	return append(out, a.Liquidity...)
}

// Agent runs structure analysis, pattern detection and signal generation
// over a bar window. It keeps no state between calls.
type Agent struct {
	cfg      Config
	detector *patterns.Detector
	log      zerolog.Logger
}

// New creates a new analysis agent
func New(cfg Config, logger zerolog.Logger) *Agent {
	if cfg.SwingWindow <= 0 {
		cfg.SwingWindow = structure.DefaultSwingWindow
	}
	return &Agent{
		cfg:      cfg,
		detector: patterns.NewDetector(cfg.Patterns),
		log:      logger.With().Str("component", "agent").Logger(),
	}
}

// Analyze runs the whole pipeline over window
func (a *Agent) Analyze(window []types.OHLCV) Analysis {
	ms := structure.Analyze(window, a.cfg.SwingWindow)

	res := Analysis{
		Structure:    ms,
		Gaps:         a.detector.DetectFairValueGaps(window),
		OrderBlocks:  a.detector.DetectOrderBlocks(window),
		Liquidity:    a.detector.DetectLiquidityPools(window),
		BarsAnalyzed: len(window),
	}

	candidates := make([]patterns.Pattern, 0, len(res.Gaps)+len(res.OrderBlocks))
	candidates = append(candidates, res.Gaps...)
	candidates = append(candidates, res.OrderBlocks...)
	if a.cfg.IncludeLiquidity {
		candidates = append(candidates, res.Liquidity...)
	}
	res.Signals = signals.Generate(candidates, ms)

	a.log.Debug().
		Int("bars", len(window)).
		Str("trend", string(ms.Trend)).
		Int("gaps", len(res.Gaps)).
		Int("order_blocks", len(res.OrderBlocks)).
		Int("liquidity_pools", len(res.Liquidity)).
		Int("signals", len(res.Signals)).
		Msg("Window analyzed")

	return res
}

// Signals returns the ranked signals for window, strongest first
func (a *Agent) Signals(window []types.OHLCV) []signals.Signal {
	return a.Analyze(window).Signals
}
