package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	routeTotal       *prometheus.CounterVec
	routeDuration    *prometheus.HistogramVec
	routeInFlight    prometheus.Gauge
	queueLag         *prometheus.HistogramVec
	ocrFallbackTotal *prometheus.CounterVec
	escalationsTotal *prometheus.CounterVec
	escalationWait   *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	routeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docrouter",
			Subsystem: "worker",
			Name:      "document_route_total",
			Help:      "Total routed documents by final status.",
		},
		[]string{"service", "status"},
	)
	routeDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docrouter",
			Subsystem: "worker",
			Name:      "document_route_duration_seconds",
			Help:      "Document routing duration in seconds by final status.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"service", "status"},
	)
	routeInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docrouter",
			Subsystem: "worker",
			Name:      "document_route_in_flight",
			Help:      "Number of documents currently in the routing pipeline.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docrouter",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between document upload and routing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	ocrFallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docrouter",
			Subsystem: "extract",
			Name:      "ocr_fallback_total",
			Help:      "Total documents that required the optical fallback.",
		},
		[]string{"service"},
	)
	escalationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docrouter",
			Subsystem: "escalation",
			Name:      "requests_total",
			Help:      "Total escalation requests by resolution.",
		},
		[]string{"service", "resolution"},
	)
	escalationWait := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docrouter",
			Subsystem: "escalation",
			Name:      "wait_seconds",
			Help:      "Time a run spent waiting for an operator decision.",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600, 14400, 86400},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		routeTotal,
		routeDuration,
		routeInFlight,
		queueLag,
		ocrFallbackTotal,
		escalationsTotal,
		escalationWait,
	)

	return &WorkerMetrics{
		registry:         registry,
		routeTotal:       routeTotal,
		routeDuration:    routeDuration,
		routeInFlight:    routeInFlight,
		queueLag:         queueLag,
		ocrFallbackTotal: ocrFallbackTotal,
		escalationsTotal: escalationsTotal,
		escalationWait:   escalationWait,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDocument() {
	m.routeInFlight.Inc()
}

func (m *WorkerMetrics) FinishDocument(service string, duration time.Duration, err error) {
	m.routeInFlight.Dec()

	status := "routed"
	if err != nil {
		status = "failed"
	}

	m.routeTotal.WithLabelValues(service, status).Inc()
	m.routeDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) RecordOCRFallback(service string) {
	m.ocrFallbackTotal.WithLabelValues(service).Inc()
}

// RecordEscalation counts a finished escalation: resolution is
// "resolved", "expired", or "cancelled".
func (m *WorkerMetrics) RecordEscalation(service, resolution string, wait time.Duration) {
	if resolution == "" {
		resolution = "unknown"
	}
	m.escalationsTotal.WithLabelValues(service, resolution).Inc()
	if wait > 0 {
		m.escalationWait.WithLabelValues(service).Observe(wait.Seconds())
	}
}

