// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "examgate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "examgate_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "examgate_upstream_requests_total",
			Help: "Requests sent to the LMS REST API",
		},
		[]string{"endpoint", "status"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "examgate_upstream_request_duration_seconds",
			Help:    "Latency of LMS REST API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	SocketReconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "examgate_socket_reconnects_total",
			Help: "Reconnect attempts made by upstream WebSocket clients",
		},
		[]string{"channel"},
	)

	SocketState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "examgate_socket_state",
			Help: "Number of upstream WebSocket clients per connection state",
		},
		[]string{"channel", "state"},
	)

	SocketMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "examgate_socket_messages_total",
			Help: "WebSocket frames by channel, type and direction",
		},
		[]string{"channel", "type", "direction"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "examgate_submissions_total",
			Help: "Draft saves and submissions by outcome",
		},
		[]string{"kind", "outcome"},
	)

	UnresolvedAnswers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "examgate_unresolved_answers_total",
			Help: "Answers whose question number could not be resolved to a question id",
		},
	)

	LiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "examgate_live_sessions",
			Help: "Exam sessions held in memory after the last idle sweep",
		},
	)
)

// StatusClass buckets an HTTP status code as 2xx, 4xx, ... or "error" for transport failures.
func StatusClass(code int) string {
	if code <= 0 {
		return "error"
	}
	return strconv.Itoa(code/100) + "xx"
}

func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		RequestCounter.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
