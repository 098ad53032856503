package common

import (
	"bytes"
	"flag"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ducminhle1904/ict-trading-agent/internal/exchange/bybit"
	"github.com/ducminhle1904/ict-trading-agent/internal/monitoring"
	"github.com/ducminhle1904/ict-trading-agent/pkg/config"
	"github.com/ducminhle1904/ict-trading-agent/pkg/data"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) *CommonFlags {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := RegisterCommonFlags(fs)
	require.NoError(t, fs.Parse(args))
	return flags
}

// TestApply tests that only set flags override the configuration
func TestApply(t *testing.T) {
	cfg := config.DefaultConfig()
	parse(t).Apply(cfg)
	assert.Equal(t, config.DefaultConfig().Trading, cfg.Trading)

	parse(t, "--symbol", "ES=F", "--interval", "4h", "--source", "BYBIT", "--data-root", "/tmp/bars", "--verbose").Apply(cfg)
	assert.Equal(t, "ES=F", cfg.Trading.Symbol)
	assert.Equal(t, "4h", cfg.Trading.Timeframe)
	assert.Equal(t, "bybit", cfg.Data.PrimarySource)
	assert.Equal(t, "/tmp/bars", cfg.Data.DataRoot)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

// TestBootstrapLogger tests the pre-config logger level handling
func TestBootstrapLogger(t *testing.T) {
	log, err := BootstrapLogger(parse(t))
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())

	log, err = BootstrapLogger(parse(t, "--log-level", "WARN"))
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())

	log, err = BootstrapLogger(parse(t, "--verbose"))
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())

	_, err = BootstrapLogger(parse(t, "--log-level", "loud"))
	assert.Error(t, err)
}

// TestLoadConfig tests loading defaults with flag overrides and validation
func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	flags := parse(t, "--config", filepath.Join(dir, "none.yaml"), "--env", "", "--symbol", "CL=F")

	cfg, err := LoadConfig(flags, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "CL=F", cfg.Trading.Symbol)

	bad := parse(t, "--config", filepath.Join(dir, "none.yaml"), "--env", "", "--source", "ftp")
	_, err = LoadConfig(bad, zerolog.Nop())
	assert.Error(t, err)
}

// TestFlagValidator tests error accumulation
func TestFlagValidator(t *testing.T) {
	v := NewFlagValidator().
		ValidateFloat("capital", 100, 1, 1000).
		ValidateInt("workers", 3, 0, 64).
		ValidateChoice("source", "CSV", []string{"csv", "bybit"}).
		ValidateChoice("source", "", []string{"csv"})
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.GetError())

	v.ValidateFloat("commission", -1, 0, 10).ValidateDirectory("data-root", filepath.Join(t.TempDir(), "nope"), true)
	assert.True(t, v.HasErrors())
	assert.Contains(t, v.GetError().Error(), "commission must be between")
	assert.Contains(t, v.GetError().Error(), "data-root directory does not exist")
}

// TestNewProvider tests provider selection and caching
func TestNewProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Data.CacheDuration = 0
	_, ok := NewProvider(cfg, zerolog.Nop()).(*data.CSVProvider)
	assert.True(t, ok)

	cfg.Data.PrimarySource = "bybit"
	_, ok = NewProvider(cfg, zerolog.Nop()).(*bybit.Client)
	assert.True(t, ok)

	cfg.Data.CacheDuration = 60
	p := NewProvider(cfg, zerolog.Nop())
	_, ok = p.(*data.CachedProvider)
	assert.True(t, ok)
	assert.Equal(t, "Cached Bybit", p.Name())
}

// TestMonitoringMux tests the metrics and health routes
func TestMonitoringMux(t *testing.T) {
	health := monitoring.NewHealthChecker()
	health.RecordRun("NQ=F", 10500)
	mux := NewMonitoringMux(health)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "NQ=F")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestVersion tests the version output
func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintVersion(&buf, "ict-backtest")
	assert.Contains(t, buf.String(), "ict-backtest v"+ProjectVersion)
	assert.Contains(t, GetFullVersion(), ProjectVersion)
	assert.Equal(t, ProjectName, GetVersionInfo().ProjectName)
}
