// Package handlers holds the gin HTTP handlers for the API surface.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/reelgauge/reelgauge/pkg/errors"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError writes the structured error body with the status the error
// code maps to.  Internal errors are masked.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatus(code)

	message := err.Error()
	if status >= 500 {
		message = "internal server error"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:    string(code),
		Message: message,
	})
}
