package config

import (
	"strings"
	"time"

	"github.com/ducminhle1904/ict-trading-agent/internal/agent"
	"github.com/ducminhle1904/ict-trading-agent/internal/backtest"
	"github.com/ducminhle1904/ict-trading-agent/internal/logger"
	"github.com/ducminhle1904/ict-trading-agent/internal/patterns"
	"github.com/ducminhle1904/ict-trading-agent/internal/performance"
	"github.com/ducminhle1904/ict-trading-agent/internal/risk"
	"github.com/ducminhle1904/ict-trading-agent/pkg/data"
)

// DetectorConfig converts the patterns section for the detector
func (c *Config) DetectorConfig() patterns.Config {
	return patterns.Config{
		MinGapSize:         c.Patterns.FVGMinSize,
		OrderBlockStrength: c.Patterns.OrderBlockStrength,
		LiquidityTolerance: c.Patterns.LiquidityThreshold,
	}
}

// AgentConfig converts the patterns section for the analysis pipeline
func (c *Config) AgentConfig() agent.Config {
	return agent.Config{
		SwingWindow:      c.Patterns.SwingWindow,
		Patterns:         c.DetectorConfig(),
		IncludeLiquidity: c.Patterns.IncludeLiquidity,
	}
}

// RiskLimits converts the risk section for the risk manager
func (c *Config) RiskLimits() risk.Config {
	return risk.Config{
		RiskPerTrade:          c.Risk.RiskPerTrade,
		MaxPositions:          c.Risk.MaxPositions,
		MaxPortfolioRisk:      c.Risk.MaxPortfolioRisk,
		MaxPositionSize:       c.Risk.MaxPositionSize,
		StopLossATRMultiplier: c.Risk.StopLossATRMultiplier,
		TakeProfitRatio:       c.Risk.TakeProfitRatio,
		MaxDailyLoss:          c.Risk.MaxDailyLoss,
		MaxDrawdown:           c.Risk.MaxDrawdown,
	}
}

// PerformanceOptions derives annualization from the timeframe unless
// periods_per_year is set
func (c *Config) PerformanceOptions() performance.Options {
	opts := performance.DefaultOptions()
	opts.RiskFreeRate = c.Backtesting.RiskFreeRate
	opts.Confidence = c.Backtesting.Confidence

	if c.Backtesting.PeriodsPerYear > 0 {
		opts.PeriodsPerYear = c.Backtesting.PeriodsPerYear
	} else if ppy, err := data.BarsPerYear(c.Trading.Timeframe); err == nil {
		opts.PeriodsPerYear = ppy
	}
	return opts
}

// EngineConfig converts the backtesting section for the engine
func (c *Config) EngineConfig() backtest.EngineConfig {
	return backtest.EngineConfig{
		InitialCapital:    c.Backtesting.InitialCapital,
		Commission:        c.Backtesting.Commission,
		Slippage:          c.Backtesting.Slippage,
		Lookback:          c.Trading.LookbackPeriod,
		MinSignalStrength: c.Backtesting.MinSignalStrength,
		MaxPositions:      c.Risk.MaxPositions,
		Performance:       c.PerformanceOptions(),
	}
}

// LoggerConfig converts the logging section. An empty file logs to stderr.
func (c *Config) LoggerConfig() logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = strings.ToLower(c.Logging.Level)
	cfg.Format = c.Logging.Format
	if c.Logging.File != "" {
		cfg.Output = c.Logging.File
	}
	return cfg
}

// CacheTTL returns the data cache duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Data.CacheDuration) * time.Second
}
