// Package apierror writes the JSON error body returned by every HTTP endpoint.
package apierror

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes.
const (
	CodeInternal       = "INTERNAL_ERROR"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInvalidKey     = "INVALID_KEY"
)

const internalMessage = "internal server error"

// Detail is the payload under the "error" field.
type Detail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Body represents an error response body.
type Body struct {
	Error Detail `json:"error"`
}

// Write sends an error body with status.
func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, Body{Error: Detail{Code: code, Message: message}})
}

// Internal sends a 500 without exposing the cause.
func Internal(c *gin.Context) {
	Write(c, http.StatusInternalServerError, CodeInternal, internalMessage)
}

// AbortInternal stops the handler chain with a 500.
func AbortInternal(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, Body{
		Error: Detail{Code: CodeInternal, Message: internalMessage},
	})
}

// Code returns the error code, empty when the decoded body was not an error body.
func (b Body) Code() string {
	return b.Error.Code
}
