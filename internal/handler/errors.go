package handler

import (
	"errors"

	"github.com/cptk8s/registro/internal/repository"
)

// validationMessage returns a client-safe message for a validation error.
func validationMessage(err error) string {
	if errors.Is(err, repository.ErrUserNotFound) {
		return "usuario_id does not reference an existing user"
	}
	return "invalid request"
}
