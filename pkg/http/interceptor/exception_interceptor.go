package interceptor

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"

	httpx "github.com/firelater/firelater/pkg/http"
	"github.com/firelater/firelater/pkg/log"
)

/**
 * @file: exception_interceptor.go
 * @description: panic recovery
 */

// ExceptionInterceptor recovers from handler panics and replies with a uniform error.
func ExceptionInterceptor(c *gin.Context) {
	defer func() {
		if err := recover(); err != nil {
			log.Errorf("panic: %v\n%s", err, debug.Stack())
			httpx.WithRepErr(c, httpx.InternalError.Code, errorToString(err), nil, c.Request.URL.Path)
			c.Abort()
		}
	}()
	c.Next()
}

// errorToString never leaks stack detail to the client.
func errorToString(err interface{}) string {
	switch v := err.(type) {
	case string:
		return v
	default:
		return httpx.InternalError.Msg
	}
}
