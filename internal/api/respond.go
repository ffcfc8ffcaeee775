package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/devhance/backend/internal/apperror"
)

// ErrorResponse is the uniform error body for every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

// respondError maps the error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is a 500 with a generic body so internals never
// leak to clients.
func respondError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := statusFor(appErr.Err)
		if status >= 500 {
			log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		}
		c.JSON(status, ErrorResponse{
			Error:   appErr.Err.Error(),
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unexpected error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "something went wrong",
	})
}

func statusFor(sentinel error) int {
	switch {
	case errors.Is(sentinel, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(sentinel, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(sentinel, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(sentinel, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(sentinel, apperror.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
