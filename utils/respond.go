package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"famhealth-backend/models"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func RespondWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}

// RespondWithAppError maps domain errors to a status and a stable code.
// Anything unrecognised is a 500 and its text is not leaked.
func RespondWithAppError(c *gin.Context, err error) {
	status, code := ErrorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: code})
}

func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrMemberNotFound):
		return http.StatusNotFound, "MEMBER_NOT_FOUND"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, models.ErrScheduledInPast):
		return http.StatusUnprocessableEntity, "SCHEDULED_IN_PAST"
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
