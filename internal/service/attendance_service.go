package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/spec-kit/attendance-service/internal/auth"
	"github.com/spec-kit/attendance-service/internal/repository"
	apperrors "github.com/spec-kit/attendance-service/pkg/util"
)

var safeFilename = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// IsSafeFilename rejects anything that could escape a single path segment.
func IsSafeFilename(name string) bool {
	if name == "" || strings.Contains(name, "..") {
		return false
	}
	return safeFilename.MatchString(name)
}

// AttendanceService authorizes access to hosted attendance photos.
type AttendanceService struct {
	attendance repository.AttendanceRepository
}

// NewAttendanceService builds the service.
func NewAttendanceService(attendance repository.AttendanceRepository) *AttendanceService {
	return &AttendanceService{attendance: attendance}
}

// ImageURL returns the hosted URL for filename. Admins may view any photo,
// employees only their own.
func (s *AttendanceService) ImageURL(ctx context.Context, viewer auth.Principal, filename string) (string, error) {
	if !IsSafeFilename(filename) {
		return "", apperrors.NewValidationError("Invalid filename", nil)
	}
	image, err := s.attendance.FindImage(ctx, filename)
	if errors.Is(err, repository.ErrNotFound) {
		return "", apperrors.NewNotFound("Image", nil)
	}
	if err != nil {
		return "", apperrors.MapError(err)
	}
	if !viewer.IsAdmin() && viewer.ID != image.EmployeeID {
		return "", apperrors.NewForbidden("Forbidden")
	}
	return image.URL, nil
}
