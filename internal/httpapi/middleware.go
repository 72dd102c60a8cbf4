package httpapi

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger logs each request's method, path, status, and latency via slog,
// the same fields the teacher's request logging middleware reports.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		slog.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
