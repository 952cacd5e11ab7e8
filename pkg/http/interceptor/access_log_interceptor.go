package interceptor

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/firelater/firelater/pkg/log"
)

/**
 * @file: access_log_interceptor.go
 * @description: access log
 */

// AccessLogInterceptor logs one line per request.
func AccessLogInterceptor() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Infow("access",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"cost", time.Since(start).String(),
			"clientIp", c.ClientIP(),
		)
	}
}
