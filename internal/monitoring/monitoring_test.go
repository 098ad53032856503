package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMetricsHandler tests that recorded metrics are exposed
func TestMetricsHandler(t *testing.T) {
	RecordBacktestRun("NQ=F", 0.5, 10250)
	RecordTrade("NQ=F", "LONG", "Take Profit", 120)
	RecordSignal("NQ=F", "Fair Value Gap")
	RecordRejection("Maximum number of positions reached")
	RecordError("DATA_UNAVAILABLE")

	rec := httptest.NewRecorder()
	NewMetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, name := range []string{
		"ict_backtest_runs_total",
		"ict_backtest_final_equity",
		"ict_trades_total",
		"ict_trade_pnl",
		"ict_signals_total",
		"ict_signal_rejections_total",
		"ict_errors_total",
	} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}

// TestHealthChecker tests the status transitions
func TestHealthChecker(t *testing.T) {
	h := NewHealthChecker()
	assert.Equal(t, "idle", h.Status().Status)

	h.RecordRun("NQ=F", 10100)
	st := h.Status()
	assert.Equal(t, "healthy", st.Status)
	assert.Equal(t, "NQ=F", st.LastSymbol)
	assert.Equal(t, 10100.0, st.LastEquity)

	h.RecordFailure("No data available")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, []string{"No data available"}, body.Errors)
}
