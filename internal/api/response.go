package api

import (
	apperrors "city-insights/internal/common/errors"

	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ErrorResponse aborts the request with {"error": message}.
func ErrorResponse(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorBody{Error: message, Code: code})
}

// FailureResponse maps a service error to its HTTP status.
func FailureResponse(c *gin.Context, err error) {
	stdErr := apperrors.AsStandardError(err)
	_ = c.Error(stdErr)
	ErrorResponse(c, apperrors.HTTPStatus(stdErr.Code), string(stdErr.Code), stdErr.Message)
}
