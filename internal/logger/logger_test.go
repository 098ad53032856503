package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNew_FileOutput tests JSON logging to a file with level filtering
func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "backtest.log")

	log, err := New(Config{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("symbol", "NQ=F").Msg("shown")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.False(t, strings.Contains(out, "hidden"))
	assert.True(t, strings.Contains(out, `"symbol":"NQ=F"`))
	assert.True(t, strings.Contains(out, `"message":"shown"`))
}

// TestNew_InvalidLevel tests the level parse error
func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

// TestNew_Defaults tests that an empty config logs at info to stderr
func TestNew_Defaults(t *testing.T) {
	log, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())

	log, err = New(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}
