// Package middleware provides HTTP middleware functions.
package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger returns a middleware that logs HTTP requests.
// Event streams are logged when they close, at debug level.
func Logger(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := []any{
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if id := GetRequestID(c); id != "" {
			fields = append(fields, "request_id", id)
		}
		if raw != "" {
			fields = append(fields, "query", raw)
		}
		if c.Writer.Size() > 0 {
			fields = append(fields, "size", c.Writer.Size())
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.Errorw("request failed", fields...)
		case status >= 400:
			logger.Warnw("request rejected", fields...)
		case strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/event-stream"):
			logger.Debugw("event stream closed", fields...)
		default:
			logger.Infow("request handled", fields...)
		}
	}
}
