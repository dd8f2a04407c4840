package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joy095/ledger/logger"
	"github.com/sirupsen/logrus"
)

// GinLogger writes one structured line per request. Server errors go to the error logger.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}
		if userID, ok := c.Get("user_id"); ok {
			fields["user_id"] = userID
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.ErrorLogger.WithFields(fields).Error("request failed")
		case status >= 400:
			logger.WarnLogger.WithFields(fields).Warn("request rejected")
		default:
			logger.InfoLogger.WithFields(fields).Info("request handled")
		}
	}
}
