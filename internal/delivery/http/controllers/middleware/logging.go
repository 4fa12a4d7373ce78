package middleware

import (
	"DormBiz/pkg/logger"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func LoggingMiddleware(log logger.Log) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		if rawQuery := c.Request.URL.RawQuery; rawQuery != "" {
			path = fmt.Sprintf("%s?%s", path, rawQuery)
		}
		status := c.Writer.Status()
		args := []any{
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if id := ClientID(c); id != uuid.Nil {
			args = append(args, "user_id", id)
		}

		msg := fmt.Sprintf("%s %s", c.Request.Method, path)
		switch {
		case status >= 500:
			log.Error(msg, args...)
		case status >= 400:
			log.Warn(msg, args...)
		default:
			log.Info(msg, args...)
		}

		for _, ginErr := range c.Errors {
			log.ErrorErr("HTTP request error", ginErr.Err,
				"status", status,
				"method", c.Request.Method,
				"path", path,
			)
		}
	}
}
