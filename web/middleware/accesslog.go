package middleware

import (
	"time"

	"github.com/dispatchhub/dispatch/logger"

	"github.com/gin-gonic/gin"
)

// AccessLogMiddleware logs every request once it has been served.
// Server errors go out at warning level.
func AccessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{GetRequestID(c), c.Request.Method, c.Request.URL.Path, status, time.Since(start), c.ClientIP()}
		if status >= 500 {
			logger.Warningf("[%s] %s %s %d %s %s", args...)
			return
		}
		logger.Debugf("[%s] %s %s %d %s %s", args...)
	}
}
