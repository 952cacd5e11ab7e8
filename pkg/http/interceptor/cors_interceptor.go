package interceptor

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

/**
 * @file: cors_interceptor.go
 * @description: cors interceptor
 */

// CorsInterceptor handles cross-origin requests.
func CorsInterceptor() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
