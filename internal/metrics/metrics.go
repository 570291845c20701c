package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dfryer1193/alttext/media/application"
	"github.com/dfryer1193/alttext/media/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ application.OutcomeRecorder = (*Metrics)(nil)

// Metrics bundles prometheus collectors used by the service.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	RequestDurationSec *prometheus.HistogramVec
	SyncItemsTotal     *prometheus.CounterVec
	SyncRunsTotal      *prometheus.CounterVec
	RateLimitDropped   prometheus.Counter
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alttext_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		RequestDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alttext_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		SyncItemsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alttext_sync_items_total",
			Help: "Records processed by the alt text sync, by mode and result.",
		}, []string{"mode", "result"}),
		SyncRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alttext_sync_runs_total",
			Help: "Sync invocations by mode.",
		}, []string{"mode"}),
		RateLimitDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alttext_ratelimit_dropped_total",
			Help: "Total number of requests dropped by the rate limiter.",
		}),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDurationSec,
		m.SyncItemsTotal,
		m.SyncRunsTotal,
		m.RateLimitDropped,
	)

	return m
}

// RecordOutcome adds the counters of one sync invocation
func (m *Metrics) RecordOutcome(mode string, outcome domain.SyncOutcome) {
	m.SyncRunsTotal.WithLabelValues(mode).Inc()
	if outcome.Updated > 0 {
		m.SyncItemsTotal.WithLabelValues(mode, "updated").Add(float64(outcome.Updated))
	}
	for reason, n := range outcome.Skipped {
		if n > 0 {
			m.SyncItemsTotal.WithLabelValues(mode, string(reason)).Add(float64(n))
		}
	}
}

// Middleware records request counts and latency by route template
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startedAt := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.RequestsTotal.WithLabelValues(route, c.Request.Method, status).Inc()
		m.RequestDurationSec.WithLabelValues(route, c.Request.Method, status).Observe(time.Since(startedAt).Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
