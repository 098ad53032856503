package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker reports the outcome of the most recent backtest run
type HealthChecker struct {
	mu         sync.RWMutex
	lastRun    time.Time
	lastSymbol string
	lastEquity float64
	errors     []string
}

// HealthStatus is the JSON body served by HealthChecker
type HealthStatus struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	LastRun    time.Time `json:"last_run"`
	LastSymbol string    `json:"last_symbol,omitempty"`
	LastEquity float64   `json:"last_equity"`
	Uptime     string    `json:"uptime"`
	Errors     []string  `json:"errors,omitempty"`
}

// NewHealthChecker creates a new health checker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		errors: make([]string, 0),
	}
}

// RecordRun stores a completed run
func (h *HealthChecker) RecordRun(symbol string, equity float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastRun = time.Now()
	h.lastSymbol = symbol
	h.lastEquity = equity
}

// RecordFailure stores a run error
func (h *HealthChecker) RecordFailure(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
}

// Status returns the current health snapshot
func (h *HealthChecker) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	switch {
	case len(h.errors) > 0:
		status = "unhealthy"
	case h.lastRun.IsZero():
		status = "idle"
	}

	errs := make([]string, len(h.errors))
	copy(errs, h.errors)
	return HealthStatus{
		Status:     status,
		Timestamp:  time.Now(),
		LastRun:    h.lastRun,
		LastSymbol: h.lastSymbol,
		LastEquity: h.lastEquity,
		Uptime:     time.Since(startTime).String(),
		Errors:     errs,
	}
}

// ServeHTTP serves the health status as JSON
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	health := h.Status()

	w.Header().Set("Content-Type", "application/json")
	if health.Status == "unhealthy" {
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(health)
}
