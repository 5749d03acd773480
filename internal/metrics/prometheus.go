package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for subtx
type Metrics struct {
	// Transaction counters
	TxSubmitted prometheus.Counter
	TxInBlock   prometheus.Counter
	TxFinalized prometheus.Counter
	TxFailed    prometheus.Counter
	TxDropped   prometheus.Counter
	TxRetracted prometheus.Counter

	// Latency histograms (buckets: 100ms, 500ms, 1s, 2s, 5s, 10s, 30s, 60s)
	SubmitDuration   prometheus.Histogram
	FinalizeDuration prometheus.Histogram

	// Gauges for current state
	PendingTxCount prometheus.Gauge
	SendRate       prometheus.Gauge

	// Fee metrics
	FeesPaidTotal prometheus.Counter

	// HTTP server
	registry *prometheus.Registry
	server   *http.Server
	mu       sync.Mutex
}

// NewMetrics creates a new Metrics instance with the given namespace. Each
// instance carries its own registry so the exposed endpoint serves exactly
// these metrics.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	m := &Metrics{
		registry: registry,
		TxSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_submitted_total",
			Help:      "Total number of transactions submitted",
		}),
		TxInBlock: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_in_block_total",
			Help:      "Total number of transactions included in a best block",
		}),
		TxFinalized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_finalized_total",
			Help:      "Total number of transactions finalized",
		}),
		TxFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_failed_total",
			Help:      "Total number of transactions rejected as invalid or errored",
		}),
		TxDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_dropped_total",
			Help:      "Total number of transactions dropped from the pool",
		}),
		TxRetracted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_retracted_total",
			Help:      "Total number of transactions that left the best chain",
		}),
		SubmitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submit_duration_seconds",
			Help:      "Time from submission to the first node status",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		FinalizeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "finalize_duration_seconds",
			Help:      "Time from submission to finalization",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		PendingTxCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_tx_count",
			Help:      "Number of submitted transactions not yet finalized",
		}),
		SendRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "send_rate",
			Help:      "Configured send rate in transactions per second",
		}),
		FeesPaidTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fees_paid_total",
			Help:      "Total estimated fees of submitted transactions",
		}),
	}

	return m
}

// Start starts the HTTP server for Prometheus metrics
func (m *Metrics) Start(_ context.Context, port int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.server != nil {
		return fmt.Errorf("metrics server already running")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	m.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Metrics server error: %v\n", err)
		}
	}()

	return nil
}

// Stop stops the HTTP server gracefully
func (m *Metrics) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.server == nil {
		return nil
	}

	err := m.server.Shutdown(ctx)
	m.server = nil
	return err
}

// RecordSubmitted increments the submitted counter and records how long the
// node took to acknowledge
func (m *Metrics) RecordSubmitted(duration time.Duration) {
	m.TxSubmitted.Inc()
	m.SubmitDuration.Observe(duration.Seconds())
	m.PendingTxCount.Inc()
}

// RecordInBlock increments the best-block inclusion counter
func (m *Metrics) RecordInBlock() {
	m.TxInBlock.Inc()
}

// RecordFinalized increments the finalized counter and records the total
// latency
func (m *Metrics) RecordFinalized(latency time.Duration) {
	m.TxFinalized.Inc()
	m.FinalizeDuration.Observe(latency.Seconds())
	m.PendingTxCount.Dec()
}

// RecordFailed increments the failed transaction counter
func (m *Metrics) RecordFailed() {
	m.TxFailed.Inc()
	m.PendingTxCount.Dec()
}

// RecordDropped increments the dropped transaction counter
func (m *Metrics) RecordDropped() {
	m.TxDropped.Inc()
	m.PendingTxCount.Dec()
}

// RecordRetracted increments the retraction counter
func (m *Metrics) RecordRetracted() {
	m.TxRetracted.Inc()
}

// RecordFeePaid adds an estimated fee to the running total
func (m *Metrics) RecordFeePaid(fee float64) {
	m.FeesPaidTotal.Add(fee)
}

// SetSendRate sets the send rate gauge
func (m *Metrics) SetSendRate(rate float64) {
	m.SendRate.Set(rate)
}

// IsRunning returns true if the metrics server is running
func (m *Metrics) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.server != nil
}
