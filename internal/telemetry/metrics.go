package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kernbench/internal/benchmark"
)

// Metrics holds the benchmark run metrics on a private registry, so that a
// textfile export contains only this run.
type Metrics struct {
	Registry *prometheus.Registry

	TrialsTotal  *prometheus.CounterVec
	TrialValue   *prometheus.HistogramVec
	SkippedTotal *prometheus.CounterVec
	RunInfo      *prometheus.GaugeVec
}

// NewMetrics creates and registers the run metrics.
func NewMetrics() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.TrialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kernbench_trials_total",
			Help: "Total number of benchmark trials by outcome",
		},
		[]string{"family", "variant", "outcome"},
	)

	m.TrialValue = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kernbench_trial_value",
			Help:    "Measured trial values in the family's unit (seconds or microseconds per op)",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 12),
		},
		[]string{"family", "variant"},
	)

	m.SkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kernbench_skipped_total",
			Help: "Configurations dropped because every trial failed",
		},
		[]string{"family"},
	)

	m.RunInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kernbench_run_info",
			Help: "Build and run identity; always 1",
		},
		[]string{"run_id", "locator", "version"},
	)

	m.Registry.MustRegister(
		m.TrialsTotal,
		m.TrialValue,
		m.SkippedTotal,
		m.RunInfo,
		collectors.NewGoCollector(),
	)
	return m
}

// RecordTrial implements benchmark.Recorder.
func (m *Metrics) RecordTrial(family string, variant benchmark.Variant, ok bool, value float64) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.TrialsTotal.WithLabelValues(family, string(variant), outcome).Inc()
	if ok {
		m.TrialValue.WithLabelValues(family, string(variant)).Observe(value)
	}
}

// RecordSkip implements benchmark.Recorder.
func (m *Metrics) RecordSkip(k benchmark.Key) {
	m.SkippedTotal.WithLabelValues(k.Family).Inc()
}

// SetRunInfo publishes the identity of the run.
func (m *Metrics) SetRunInfo(runID, locator, version string) {
	m.RunInfo.WithLabelValues(runID, locator, version).Set(1)
}

// WriteTextfile writes the registry in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// StartMetricsServer serves /metrics on addr until ctx is done. It returns
// the bound address once the listener is open.
func (m *Metrics) StartMetricsServer(ctx context.Context, addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			LogError("metrics server stopped", err, "addr", ln.Addr().String())
		}
	}()

	LogInfo("metrics server listening", "addr", ln.Addr().String())
	return ln.Addr().String(), nil
}
