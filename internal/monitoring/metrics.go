package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Backtest metrics
	backtestRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ict_backtest_runs_total",
			Help: "Total number of backtest runs",
		},
		[]string{"symbol"},
	)

	backtestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ict_backtest_duration_seconds",
			Help:    "Wall time of backtest runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"symbol"},
	)

	finalEquity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ict_backtest_final_equity",
			Help: "Final capital of the last backtest run",
		},
		[]string{"symbol"},
	)

	// Trading metrics
	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ict_trades_total",
			Help: "Total number of simulated trades closed",
		},
		[]string{"symbol", "side", "exit_reason"},
	)

	tradePnL = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ict_trade_pnl",
			Help:    "Distribution of realized trade PnL",
			Buckets: []float64{-1000, -500, -100, -50, -10, 0, 10, 50, 100, 500, 1000},
		},
		[]string{"symbol"},
	)

	// Signal metrics
	signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ict_signals_total",
			Help: "Total number of signals admitted into positions",
		},
		[]string{"symbol", "pattern"},
	)

	signalRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ict_signal_rejections_total",
			Help: "Total number of signals rejected by risk checks",
		},
		[]string{"reason"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ict_errors_total",
			Help: "Total number of errors",
		},
		[]string{"category"},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(backtestRuns)
	prometheus.MustRegister(backtestDuration)
	prometheus.MustRegister(finalEquity)
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(tradePnL)
	prometheus.MustRegister(signalsTotal)
	prometheus.MustRegister(signalRejections)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordBacktestRun records a finished run
func RecordBacktestRun(symbol string, seconds, equity float64) {
	backtestRuns.WithLabelValues(symbol).Inc()
	backtestDuration.WithLabelValues(symbol).Observe(seconds)
	finalEquity.WithLabelValues(symbol).Set(equity)
}

// RecordTrade records a closed trade
func RecordTrade(symbol, side, exitReason string, pnl float64) {
	tradesTotal.WithLabelValues(symbol, side, exitReason).Inc()
	tradePnL.WithLabelValues(symbol).Observe(pnl)
}

// RecordSignal records a signal that opened a position
func RecordSignal(symbol, pattern string) {
	signalsTotal.WithLabelValues(symbol, pattern).Inc()
}

// RecordRejection records a signal refused by risk checks
func RecordRejection(reason string) {
	signalRejections.WithLabelValues(reason).Inc()
}

// RecordError records an error metric
func RecordError(category string) {
	errorsTotal.WithLabelValues(category).Inc()
}
