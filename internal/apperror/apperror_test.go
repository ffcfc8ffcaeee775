package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
	}{
		{Unauthorized("no token"), ErrUnauthorized},
		{Forbidden("not yours"), ErrForbidden},
		{NotFound("project", "abc"), ErrNotFound},
		{ValidationFailed("title", "title is required"), ErrValidation},
		{Conflict("already liked"), ErrConflict},
		{Upstream("storage down", errors.New("dial tcp")), ErrUpstream},
	}
	for _, tt := range tests {
		assert.True(t, errors.Is(tt.err, tt.sentinel), "%v should match %v", tt.err, tt.sentinel)
	}
}

func TestMatchingThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handling request: %w", NotFound("user", "u1"))

	assert.True(t, errors.Is(err, ErrNotFound))

	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "user not found: u1", appErr.Message)
}

func TestValidationCarriesField(t *testing.T) {
	var appErr *AppError
	err := ValidationFailed("description", "description is required")
	assert.True(t, errors.As(error(err), &appErr))
	assert.Equal(t, "description", appErr.Field)
	assert.Equal(t, "description is required", err.Error())
}
