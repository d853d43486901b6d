package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/tracker/internal/metrics"
)

// PrometheusMiddleware records request duration and count by route pattern.
// Unmatched paths share the "unknown" label. Routes in skip (for example a
// websocket feed whose requests last as long as the connection) are not
// recorded.
func PrometheusMiddleware(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]bool, len(skip))
	for _, route := range skip {
		skipped[route] = true
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if skipped[route] {
			c.Next()

			return
		}

		if route == "" {
			route = "unknown"
		}

		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.RequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}
