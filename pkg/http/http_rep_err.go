package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

/**
 * @file: http_rep_err.go
 * @description: error response envelope
 */

type ResponseErr struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Err  any    `json:"err,omitempty"`
	Path string `json:"path,omitempty"`
}

// WithRepErr returns an error envelope with detail.
func WithRepErr(c *gin.Context, code int, msg string, err any, path string) {
	c.JSON(http.StatusOK, ResponseErr{
		Code: code,
		Msg:  msg,
		Err:  err,
		Path: path,
	})
}

// WithRepErrMsg returns an error envelope without detail.
func WithRepErrMsg(c *gin.Context, code int, msg string, path string) {
	c.JSON(http.StatusOK, ResponseErr{
		Code: code,
		Msg:  msg,
		Path: path,
	})
}
