package service

import (
	"errors"

	"github.com/spec-kit/attendance-service/internal/repository"
	apperrors "github.com/spec-kit/attendance-service/pkg/util"
)

const (
	msgPasswordTooShort = "Password must be at least 6 characters long"
	minPasswordLength   = 6
)

// storeError translates repository sentinels into API errors for resource.
func storeError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrConflict):
		return apperrors.NewConflict(resource+" already exists", nil)
	case errors.Is(err, repository.ErrStaleWrite):
		return apperrors.NewConflict(resource+" was modified concurrently, please retry", nil)
	}
	return apperrors.MapError(err)
}
