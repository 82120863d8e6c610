package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/neuroquarkk/authify/internal/infra/telemetry"
)

// Metrics records per-request counters. A nil metrics handle is a no-op.
func Metrics(m *telemetry.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		c.Next()

		m.HTTPRequests.WithLabelValues(
			c.Request.Method,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}
