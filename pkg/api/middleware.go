package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cuemby/rollwatch/pkg/metrics"
)

// requestMetrics records per-request counters and latency
func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		metrics.APIRequestsTotal.WithLabelValues(
			c.Request.Method,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		metrics.APIRequestDuration.WithLabelValues(c.Request.Method).
			Observe(time.Since(start).Seconds())
	}
}
