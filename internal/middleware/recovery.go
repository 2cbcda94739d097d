package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/apierror"
)

// Recovery returns a middleware that recovers from panics and logs them.
// A response that has already started, such as an event stream, is only aborted.
func Recovery(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			logger.Errorw("panic recovered",
				"error", r,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"request_id", GetRequestID(c),
				"stack", string(debug.Stack()),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			apierror.AbortInternal(c)
		}()

		c.Next()
	}
}
