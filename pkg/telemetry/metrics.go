package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics provides Prometheus metrics for the packsync engine.
type Metrics struct {
	config MetricsConfig

	// Cycle metrics
	cyclesStarted   *prometheus.CounterVec
	cyclesCompleted *prometheus.CounterVec
	cycleDuration   *prometheus.HistogramVec

	// Sync metrics
	filesCopied  *prometheus.CounterVec
	filesDeleted *prometheus.CounterVec
	filesSkipped *prometheus.CounterVec

	// Compile metrics
	compilesTotal *prometheus.CounterVec

	// Error metrics
	errorsByClass *prometheus.CounterVec

	// System metrics
	activeSessions prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
// When disabled, the returned instance is a no-op.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		cyclesStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_started_total",
				Help:      "Total number of build cycles started",
			},
			[]string{"project"},
		),
		cyclesCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_completed_total",
				Help:      "Total number of build cycles completed",
			},
			[]string{"project", "state"},
		),
		cycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cycle_duration_seconds",
				Help:      "Duration of build cycles in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"project", "state"},
		),

		filesCopied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_copied_total",
				Help:      "Total number of files copied to the deployment tree",
			},
			[]string{"project"},
		),
		filesDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_deleted_total",
				Help:      "Total number of entries removed from the deployment tree",
			},
			[]string{"project"},
		),
		filesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_skipped_total",
				Help:      "Total number of files skipped as current or ignorable",
			},
			[]string{"project"},
		),

		compilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compiles_total",
				Help:      "Total number of compiler invocations",
			},
			[]string{"project", "outcome"},
		),

		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of errors by error class",
			},
			[]string{"class"},
		),

		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_watch_sessions",
				Help:      "Current number of active watch sessions",
			},
		),
	}

	registry.MustRegister(
		m.cyclesStarted,
		m.cyclesCompleted,
		m.cycleDuration,
		m.filesCopied,
		m.filesDeleted,
		m.filesSkipped,
		m.compilesTotal,
		m.errorsByClass,
		m.activeSessions,
	)

	return m, nil
}

// RecordCycleStarted increments the counter for started cycles.
func (m *Metrics) RecordCycleStarted(project string) {
	if m.cyclesStarted == nil {
		return
	}
	m.cyclesStarted.WithLabelValues(project).Inc()
}

// RecordCycleCompleted records a completed cycle with its terminal state and
// duration.
func (m *Metrics) RecordCycleCompleted(project, state string, duration time.Duration) {
	if m.cyclesCompleted == nil {
		return
	}
	m.cyclesCompleted.WithLabelValues(project, state).Inc()
	m.cycleDuration.WithLabelValues(project, state).Observe(duration.Seconds())
}

// RecordSyncStats records the file counters from one sync pass.
func (m *Metrics) RecordSyncStats(project string, copied, deleted, skipped int) {
	if m.filesCopied == nil {
		return
	}
	m.filesCopied.WithLabelValues(project).Add(float64(copied))
	m.filesDeleted.WithLabelValues(project).Add(float64(deleted))
	m.filesSkipped.WithLabelValues(project).Add(float64(skipped))
}

// RecordCompile records a compiler invocation outcome ("success" or "failure").
func (m *Metrics) RecordCompile(project, outcome string) {
	if m.compilesTotal == nil {
		return
	}
	m.compilesTotal.WithLabelValues(project, outcome).Inc()
}

// RecordError records an error by class.
func (m *Metrics) RecordError(errorClass string) {
	if m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(errorClass).Inc()
}

// SessionStarted increments the active watch session gauge.
func (m *Metrics) SessionStarted() {
	if m.activeSessions == nil {
		return
	}
	m.activeSessions.Inc()
}

// SessionStopped decrements the active watch session gauge.
func (m *Metrics) SessionStopped() {
	if m.activeSessions == nil {
		return
	}
	m.activeSessions.Dec()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics. It returns
// immediately; serve errors are logged, not fatal.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Metrics server error")
		}
	}()

	return nil
}
