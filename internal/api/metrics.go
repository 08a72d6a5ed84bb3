package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	reliefRecordsTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "relief_records_total",
		Help: "Total number of relief records by anchoring state.",
	}, []string{"state"})

	reliefRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relief_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	reliefRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relief_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	reliefAnchorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relief_anchor_attempts_total",
		Help: "Total anchor attempts by outcome.",
	}, []string{"outcome"})

	reliefVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relief_verifications_total",
		Help: "Total verifications by verdict.",
	}, []string{"verdict"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		reliefRequestsTotal.WithLabelValues(method, path, status).Inc()
		reliefRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordAnchorOutcome counts one anchor attempt. Wired into the anchor
// service as its metrics hook.
func RecordAnchorOutcome(outcome string) {
	reliefAnchorsTotal.WithLabelValues(outcome).Inc()
}

// RecordVerifyVerdict counts one verification verdict.
func RecordVerifyVerdict(verdict string) {
	reliefVerificationsTotal.WithLabelValues(verdict).Inc()
}

// SetRecordsGauge sets the record count gauge for a given anchoring state
// ("anchored" or "pending").
func SetRecordsGauge(state string, count float64) {
	reliefRecordsTotal.WithLabelValues(state).Set(count)
}
