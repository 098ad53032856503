package common

import (
	"errors"
	"net/http"
	"time"

	"github.com/ducminhle1904/ict-trading-agent/internal/monitoring"
	"github.com/rs/zerolog"
)

// NewMonitoringMux routes /metrics to Prometheus and /health to the health checker
func NewMonitoringMux(health *monitoring.HealthChecker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	mux.Handle("/health", health)
	return mux
}

// StartMonitoring serves the monitoring mux on addr in the background
func StartMonitoring(addr string, health *monitoring.HealthChecker, log zerolog.Logger) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMonitoringMux(health),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("📡 Serving /metrics and /health")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("Monitoring server failed")
		}
	}()
	return srv
}
