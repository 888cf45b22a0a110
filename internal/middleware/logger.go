package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var loggerSkipPathsPrefix = []string{
	"GET /health",
	"HEAD /health",
	"GET /metrics",
	"GET /favicon.ico",
}

func logPath(path string) bool {
	for _, prefix := range loggerSkipPathsPrefix {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// RequestLogger logs one structured line per request. Client errors are
// warnings: device polling answers 400 authorization_pending every few seconds.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tStart := time.Now()

		c.Next()

		code := c.Writer.Status()
		method := c.Request.Method
		path := c.Request.URL.Path

		entry := logger.WithFields(logrus.Fields{
			"method":   method,
			"path":     path,
			"address":  c.Request.RemoteAddr,
			"clientIp": c.ClientIP(),
			"status":   code,
			"latency":  time.Since(tStart).String(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		if !logPath(method + " " + path) {
			entry.Debug("Request")
			return
		}

		switch {
		case code >= 500:
			entry.Error("Request")
		case code >= 400:
			entry.Warn("Request")
		default:
			entry.Info("Request")
		}
	}
}
