package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics tracks the consolidation pipeline: per-document outcomes,
// durations, in-flight work, and the lag between upload and processing start.
type WorkerMetrics struct {
	registry *prometheus.Registry

	consolidateTotal    *prometheus.CounterVec
	consolidateDuration *prometheus.HistogramVec
	consolidateInFlight prometheus.Gauge
	queueLag            *prometheus.HistogramVec
	fieldOverridesTotal *prometheus.CounterVec
	rentSupersedeTotal  *prometheus.CounterVec
	warningsTotal       *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	consolidateTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lease",
			Subsystem: "worker",
			Name:      "consolidation_total",
			Help:      "Total consolidated documents by outcome.",
		},
		[]string{"service", "status"},
	)
	consolidateDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lease",
			Subsystem: "worker",
			Name:      "consolidation_duration_seconds",
			Help:      "Document consolidation duration in seconds by outcome.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "status"},
	)
	consolidateInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lease",
			Subsystem: "worker",
			Name:      "consolidation_in_flight",
			Help:      "Number of documents currently being consolidated.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lease",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between document upload and consolidation start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	fieldOverridesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lease",
			Subsystem: "worker",
			Name:      "field_overrides_total",
			Help:      "Total business term overrides recorded by amendments.",
		},
		[]string{"service"},
	)
	rentSupersedeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lease",
			Subsystem: "worker",
			Name:      "rent_periods_superseded_total",
			Help:      "Total rent periods superseded by later documents.",
		},
		[]string{"service"},
	)
	warningsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lease",
			Subsystem: "worker",
			Name:      "data_quality_warnings_total",
			Help:      "Total data quality warnings attached to documents.",
		},
		[]string{"service", "kind"},
	)

	registry.MustRegister(
		consolidateTotal,
		consolidateDuration,
		consolidateInFlight,
		queueLag,
		fieldOverridesTotal,
		rentSupersedeTotal,
		warningsTotal,
	)

	return &WorkerMetrics{
		registry:            registry,
		consolidateTotal:    consolidateTotal,
		consolidateDuration: consolidateDuration,
		consolidateInFlight: consolidateInFlight,
		queueLag:            queueLag,
		fieldOverridesTotal: fieldOverridesTotal,
		rentSupersedeTotal:  rentSupersedeTotal,
		warningsTotal:       warningsTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartConsolidation() {
	m.consolidateInFlight.Inc()
}

func (m *WorkerMetrics) FinishConsolidation(service string, duration time.Duration, err error) {
	m.consolidateInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.consolidateTotal.WithLabelValues(service, status).Inc()
	m.consolidateDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) RecordOverrides(service string, count int) {
	if count <= 0 {
		return
	}
	m.fieldOverridesTotal.WithLabelValues(service).Add(float64(count))
}

func (m *WorkerMetrics) RecordSupersededPeriods(service string, count int) {
	if count <= 0 {
		return
	}
	m.rentSupersedeTotal.WithLabelValues(service).Add(float64(count))
}

func (m *WorkerMetrics) RecordWarning(service, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.warningsTotal.WithLabelValues(service, kind).Inc()
}
