package apperror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Kyz7/dashboard/internal/apperror"
	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	t.Run("Kind matches through wrapping", func(t *testing.T) {
		err := fmt.Errorf("loading role: %w", apperror.NotFound("Role"))

		assert.True(t, errors.Is(err, apperror.ErrNotFound))
		assert.False(t, errors.Is(err, apperror.ErrConflict))
		assert.Equal(t, "Role not found", apperror.Message(err))
	})

	t.Run("Persistence keeps its cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := apperror.Persistence("Failed to update role", cause)

		assert.True(t, errors.Is(err, apperror.ErrPersistence))
		assert.True(t, errors.Is(err, cause))
		assert.Equal(t, "Failed to update role", err.Error())
	})

	t.Run("Foreign errors get a generic message", func(t *testing.T) {
		assert.Equal(t, "Something went wrong, please try again later", apperror.Message(errors.New("pq: syntax error")))
		assert.Empty(t, apperror.Message(nil))
	})

	t.Run("Validation fields", func(t *testing.T) {
		err := apperror.ValidationFields(map[string]string{"name": "name is required"})

		var appErr *apperror.Error
		assert.True(t, errors.As(err, &appErr))
		assert.Equal(t, "name is required", appErr.Fields["name"])
		assert.True(t, errors.Is(err, apperror.ErrValidation))
	})
}
