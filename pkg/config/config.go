package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/creasty/defaults"
	apperrors "github.com/ducminhle1904/ict-trading-agent/internal/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config/config.yaml"
	ExampleConfigPath = "config/config.example.yaml"
)

// RequiredSections are reported when absent from a loaded file
var RequiredSections = []string{"trading", "patterns", "risk", "backtesting"}

// Config is the full application configuration
type Config struct {
	Trading     TradingConfig     `yaml:"trading"`
	Patterns    PatternsConfig    `yaml:"patterns"`
	Risk        RiskConfig        `yaml:"risk"`
	Backtesting BacktestingConfig `yaml:"backtesting"`
	Data        DataConfig        `yaml:"data"`
	Logging     LoggingConfig     `yaml:"logging"`
	Reporting   ReportingConfig   `yaml:"reporting"`
	Monitoring  MonitoringConfig  `yaml:"monitoring"`

	source  string
	missing []string
}

type TradingConfig struct {
	Symbol         string `yaml:"symbol" default:"NQ=F" validate:"required"`
	Timeframe      string `yaml:"timeframe" default:"1h" validate:"required"`
	LookbackPeriod int    `yaml:"lookback_period" default:"100" validate:"gte=1"`
}

type PatternsConfig struct {
	FVGMinSize         float64 `yaml:"fvg_min_size" default:"0.001" validate:"gte=0"`
	OrderBlockStrength int     `yaml:"orderblock_strength" default:"3" validate:"gte=1"`
	LiquidityThreshold float64 `yaml:"liquidity_threshold" default:"0.05" validate:"gte=0"`
	SwingWindow        int     `yaml:"swing_window" default:"5" validate:"gte=1"`
	IncludeLiquidity   bool    `yaml:"include_liquidity"`
}

type RiskConfig struct {
	RiskPerTrade          float64 `yaml:"risk_per_trade" default:"0.02" validate:"gt=0,lte=1"`
	MaxPositions          int     `yaml:"max_positions" default:"3" validate:"gte=1"`
	MaxPortfolioRisk      float64 `yaml:"max_portfolio_risk" default:"0.06" validate:"gt=0,lte=1"`
	MaxPositionSize       float64 `yaml:"max_position_size" default:"0.3" validate:"gt=0,lte=1"`
	StopLossATRMultiplier float64 `yaml:"stop_loss_atr_multiplier" default:"2" validate:"gt=0"`
	TakeProfitRatio       float64 `yaml:"take_profit_ratio" default:"2" validate:"gt=0"`
	MaxDailyLoss          float64 `yaml:"max_daily_loss" default:"0.05" validate:"gt=0,lte=1"`
	MaxDrawdown           float64 `yaml:"max_drawdown" default:"0.2" validate:"gt=0,lte=1"`
}

type BacktestingConfig struct {
	InitialCapital    float64 `yaml:"initial_capital" default:"10000" validate:"gt=0"`
	Commission        float64 `yaml:"commission" default:"2.0" validate:"gte=0"`
	Slippage          float64 `yaml:"slippage" default:"0.001" validate:"gte=0,lt=1"`
	StartDate         string  `yaml:"start_date" default:"2023-01-01" validate:"omitempty,datetime=2006-01-02"`
	EndDate           string  `yaml:"end_date" default:"2023-12-31" validate:"omitempty,datetime=2006-01-02"`
	MinSignalStrength float64 `yaml:"min_signal_strength" default:"0.6" validate:"gte=0,lte=1"`
	RiskFreeRate      float64 `yaml:"risk_free_rate" default:"0.02"`
	Confidence        float64 `yaml:"confidence" default:"0.95" validate:"gt=0,lt=1"`

	// PeriodsPerYear annualizes ratios; zero derives it from the timeframe
	PeriodsPerYear float64 `yaml:"periods_per_year" validate:"gte=0"`
}

type DataConfig struct {
	PrimarySource string      `yaml:"primary_source" default:"csv" validate:"oneof=csv bybit"`
	DataRoot      string      `yaml:"data_root" default:"data"`
	Exchange      string      `yaml:"exchange" default:"bybit"`
	CacheDuration int         `yaml:"cache_duration" default:"300" validate:"gte=0"` // seconds
	Bybit         BybitConfig `yaml:"bybit"`
}

type BybitConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url" default:"https://api.bybit.com" validate:"omitempty,url"`
	Category  string `yaml:"category" default:"linear" validate:"oneof=spot linear inverse"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	File   string `yaml:"file"`
}

type ReportingConfig struct {
	OutputDir string   `yaml:"output_dir" default:"results"`
	Formats   []string `yaml:"formats" default:"[\"console\"]" validate:"dive,oneof=console csv json excel"`
}

type MonitoringConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" default:":9090"`
}

// DefaultConfig returns a configuration populated from the default tags
func DefaultConfig() *Config {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return c
}

// Load reads a YAML configuration file over the defaults. A missing file
// falls back to the example config next to the default path, then to
// defaults alone. Missing required sections are logged and keep their
// defaults.
func Load(path string, logger zerolog.Logger) (*Config, error) {
	log := logger.With().Str("component", "config").Logger()
	if path == "" {
		path = DefaultConfigPath
	}

	c := DefaultConfig()

	if _, err := os.Stat(path); err != nil {
		log.Warn().Str("path", path).Msg("Config file not found")
		if path != DefaultConfigPath {
			return c, nil
		}
		if _, err := os.Stat(ExampleConfigPath); err != nil {
			log.Warn().Msg("No config file found, using defaults")
			return c, nil
		}
		log.Info().Str("path", ExampleConfigPath).Msg("Loading example config")
		path = ExampleConfigPath
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigurationError("config", "read", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, apperrors.NewConfigurationError("config", "parse", err)
	}

	var sections map[string]yaml.Node
	if err := yaml.Unmarshal(b, &sections); err != nil {
		return nil, apperrors.NewConfigurationError("config", "parse", err)
	}
	for _, name := range RequiredSections {
		if _, ok := sections[name]; !ok {
			c.missing = append(c.missing, name)
			log.Warn().Err(apperrors.NewConfigGap("config", name)).Str("section", name).Msg("Missing required config section")
		}
	}

	if err := c.Validate(); err != nil {
		return nil, apperrors.NewConfigurationError("config", "validate", err)
	}

	c.source = path
	log.Info().Str("path", path).Msg("Configuration loaded")
	return c, nil
}

// Source returns the file the configuration was read from, empty for defaults
func (c *Config) Source() string {
	return c.source
}

// MissingSections lists the required sections that were absent from the file
func (c *Config) MissingSections() []string {
	return append([]string(nil), c.missing...)
}

// Save writes the configuration as YAML, creating the parent directory
func (c *Config) Save(path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Get looks up a value by dotted key such as "trading.symbol"
func (c *Config) Get(key string) (interface{}, bool) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, false
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(b, &tree); err != nil {
		return nil, false
	}

	var value interface{} = tree
	for _, k := range strings.Split(key, ".") {
		m, ok := value.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if value, ok = m[k]; !ok {
			return nil, false
		}
	}
	return value, true
}
