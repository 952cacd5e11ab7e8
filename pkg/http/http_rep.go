package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

/**
 * @file: http_rep.go
 * @description: unified response envelope
 */

type Response struct {
	Code   int    `json:"code"`
	Detail any    `json:"detail,omitempty"`
	Msg    string `json:"msg"`
}

// WithRepJSON returns a success envelope carrying detail.
func WithRepJSON(c *gin.Context, detail any) {
	c.JSON(http.StatusOK, Response{
		Code:   Success.Code,
		Detail: detail,
		Msg:    Success.Msg,
	})
}

// WithRepMsg returns a custom code and msg.
func WithRepMsg(c *gin.Context, code int, msg string) {
	c.JSON(http.StatusOK, Response{
		Code: code,
		Msg:  msg,
	})
}

// WithRepDetail returns a custom code, msg and detail.
func WithRepDetail(c *gin.Context, code int, msg string, detail any) {
	c.JSON(http.StatusOK, Response{
		Code:   code,
		Detail: detail,
		Msg:    msg,
	})
}

// WithRepNotDetail returns a success envelope without detail.
func WithRepNotDetail(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Code: Success.Code,
		Msg:  Success.Msg,
	})
}
