package server

import (
	"net/http"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// accessLog logs one line per request through the shared logger.
func accessLog(l *clog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"bytes", max(c.Writer.Size(), 0),
			"latency", time.Since(start).Round(time.Microsecond),
			"remote", c.ClientIP(),
		}
		switch {
		case status >= 500 && status != http.StatusNotImplemented:
			l.Error("request", kv...)
		case status >= 400:
			// 4xx and 501 are the client's doing
			l.Warn("request", kv...)
		default:
			l.Info("request", kv...)
		}
	}
}
