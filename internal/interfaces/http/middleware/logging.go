package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
)

// RequestMetrics is the slice of the metrics surface the logging middleware
// feeds.
type RequestMetrics interface {
	RecordHTTPRequest(method, path string, statusCode int, duration time.Duration)
}

// LoggingMiddleware logs one line per request and feeds the HTTP metrics.
type LoggingMiddleware struct {
	logger  logging.Logger
	metrics RequestMetrics
}

// NewLoggingMiddleware constructs the middleware.  metrics may be nil.
func NewLoggingMiddleware(log logging.Logger, metrics RequestMetrics) *LoggingMiddleware {
	return &LoggingMiddleware{logger: log.Named("http"), metrics: metrics}
}

func (m *LoggingMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		elapsed := time.Since(started)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", status),
			logging.Duration("elapsed", elapsed),
			logging.String("client_ip", c.ClientIP()),
		}
		if account := AccountID(c); account != "" {
			fields = append(fields, logging.String("account_id", account))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			m.logger.Error("request failed", fields...)
		case status >= 400:
			m.logger.Warn("request rejected", fields...)
		default:
			m.logger.Info("request served", fields...)
		}

		if m.metrics != nil {
			m.metrics.RecordHTTPRequest(c.Request.Method, path, status, elapsed)
		}
	}
}
