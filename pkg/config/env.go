package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/ducminhle1904/ict-trading-agent/internal/errors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// LoadWithEnv loads envFile into the process environment when present, reads
// the YAML config and applies environment overrides
func LoadWithEnv(path, envFile string, logger zerolog.Logger) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			logger.Debug().Str("file", envFile).Err(err).Msg("No env file loaded")
		}
	}

	c, err := Load(path, logger)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(); err != nil {
		return nil, apperrors.NewConfigurationError("config", "env", err)
	}
	if err := c.Validate(); err != nil {
		return nil, apperrors.NewConfigurationError("config", "validate", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from ICT_* variables and the Bybit credentials
func (c *Config) ApplyEnv() error {
	if v, ok := lookup("ICT_SYMBOL"); ok {
		c.Trading.Symbol = v
	}
	if v, ok := lookup("ICT_TIMEFRAME"); ok {
		c.Trading.Timeframe = v
	}
	if v, ok := lookup("ICT_DATA_SOURCE"); ok {
		c.Data.PrimarySource = strings.ToLower(v)
	}
	if v, ok := lookup("ICT_DATA_ROOT"); ok {
		c.Data.DataRoot = v
	}
	if v, ok := lookup("ICT_LOG_LEVEL"); ok {
		c.Logging.Level = strings.ToLower(v)
	}
	if v, ok := lookup("ICT_OUTPUT_DIR"); ok {
		c.Reporting.OutputDir = v
	}
	if v, ok := lookup("BYBIT_API_KEY"); ok {
		c.Data.Bybit.APIKey = v
	}
	if v, ok := lookup("BYBIT_API_SECRET"); ok {
		c.Data.Bybit.APISecret = v
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"ICT_INITIAL_CAPITAL", &c.Backtesting.InitialCapital},
		{"ICT_COMMISSION", &c.Backtesting.Commission},
		{"ICT_RISK_PER_TRADE", &c.Risk.RiskPerTrade},
	}
	for _, f := range floats {
		v, ok := lookup(f.name)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = parsed
	}

	if v, ok := lookup("ICT_LOOKBACK_PERIOD"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ICT_LOOKBACK_PERIOD: %w", err)
		}
		c.Trading.LookbackPeriod = n
	}
	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
