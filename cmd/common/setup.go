package common

import (
	"strings"

	"github.com/ducminhle1904/ict-trading-agent/internal/exchange/bybit"
	"github.com/ducminhle1904/ict-trading-agent/internal/logger"
	"github.com/ducminhle1904/ict-trading-agent/pkg/config"
	"github.com/ducminhle1904/ict-trading-agent/pkg/data"
	"github.com/rs/zerolog"
)

// BootstrapLogger is the stderr logger used while the configuration loads.
// It honours --log-level and --verbose so an invalid level fails before any
// file is read.
func BootstrapLogger(flags *CommonFlags) (zerolog.Logger, error) {
	cfg := logger.DefaultConfig()
	if *flags.LogLevel != "" {
		cfg.Level = strings.ToLower(*flags.LogLevel)
	}
	if *flags.Verbose {
		cfg.Level = "debug"
	}
	return logger.New(cfg)
}

// LoadConfig loads the configuration file and .env, then applies the flags
func LoadConfig(flags *CommonFlags, bootstrap zerolog.Logger) (*config.Config, error) {
	cfg, err := config.LoadWithEnv(*flags.ConfigFile, *flags.EnvFile, bootstrap)
	if err != nil {
		return nil, err
	}
	flags.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewLogger builds the process logger from the logging section
func NewLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logger.New(cfg.LoggerConfig())
}

// NewProvider builds the configured bar provider, wrapped in a cache when
// cache_duration is positive
func NewProvider(cfg *config.Config, log zerolog.Logger) data.BarProvider {
	var provider data.BarProvider
	switch cfg.Data.PrimarySource {
	case "bybit":
		provider = bybit.NewClient(bybit.Config{
			APIKey:    cfg.Data.Bybit.APIKey,
			APISecret: cfg.Data.Bybit.APISecret,
			BaseURL:   cfg.Data.Bybit.BaseURL,
			Category:  cfg.Data.Bybit.Category,
		}, log)
	default:
		format := data.DefaultCSVFormat
		if strings.EqualFold(cfg.Data.Exchange, "yahoo") {
			format = data.YahooCSVFormat
		}
		provider = data.NewCSVProviderWithFormat(cfg.Data.DataRoot, cfg.Data.Exchange, format, log)
	}

	if ttl := cfg.CacheTTL(); ttl > 0 {
		return data.NewCachedProvider(provider, ttl, log)
	}
	return provider
}
