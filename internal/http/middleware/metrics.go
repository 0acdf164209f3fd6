package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Labels are method, route and status. The route is the registered Gin
// pattern so label cardinality stays bounded; unmatched requests share the
// "unmatched" route.
var (
	// httpReqs counts finished requests.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_http_requests_total",
			Help: "HTTP requests served by the bot.",
		},
		[]string{"method", "route", "status"},
	)

	// httpLat observes request latency per route.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	// httpInflight is the number of requests in progress.
	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_http_requests_inflight",
			Help: "HTTP requests currently being served.",
		},
	)
)

// init registers the HTTP collectors with the default registry served at
// /metrics.
func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight)
}

// Metrics instruments every request with the collectors above.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			// raw paths would let scanners mint unbounded series
			route = "unmatched"
		}
		method := c.Request.Method
		httpReqs.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
