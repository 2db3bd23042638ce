package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry with the HTTP and AI collectors.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	aiCallsTotal   *prometheus.CounterVec
	aiCallDuration *prometheus.HistogramVec
	eventsTotal    *prometheus.CounterVec
	jobRunsTotal   *prometheus.CounterVec
}

func New(service string) *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "siteguard",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "siteguard",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "siteguard",
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	aiCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "siteguard",
			Subsystem: "ai",
			Name:      "calls_total",
			Help:      "Generative AI calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
	aiCallDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "siteguard",
			Subsystem: "ai",
			Name:      "call_duration_seconds",
			Help:      "Generative AI call latency in seconds.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"operation"},
	)
	eventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "siteguard",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Invalidation events published by outcome.",
		},
		[]string{"type", "outcome"},
	)
	jobRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "siteguard",
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Maintenance job runs by job and outcome.",
		},
		[]string{"job", "outcome"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		aiCallsTotal,
		aiCallDuration,
		eventsTotal,
		jobRunsTotal,
	)

	return &Metrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		aiCallsTotal:    aiCallsTotal,
		aiCallDuration:  aiCallDuration,
		eventsTotal:     eventsTotal,
		jobRunsTotal:    jobRunsTotal,
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency labelled by route template,
// so /api/workspaces/:id is one series regardless of the id.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requestTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ObserveAICall(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.aiCallsTotal.WithLabelValues(operation, outcome).Inc()
	m.aiCallDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) ObserveEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) ObserveJob(job, outcome string) {
	if m == nil {
		return
	}
	m.jobRunsTotal.WithLabelValues(job, outcome).Inc()
}
