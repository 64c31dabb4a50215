package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/attendance-service/internal/auth"
	"github.com/spec-kit/attendance-service/internal/domain"
	"github.com/spec-kit/attendance-service/internal/repository"
	apperrors "github.com/spec-kit/attendance-service/pkg/util"
)

// RegisterAdminInput is the payload for creating an admin.
type RegisterAdminInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// AdminStatus is the externally visible account state.
type AdminStatus string

const (
	AdminStatusActive   AdminStatus = "active"
	AdminStatusInactive AdminStatus = "inactive"
)

// AdminService manages admin accounts.
type AdminService struct {
	admins repository.AdminRepository
	hasher auth.Hasher
	logger *zap.Logger
}

// NewAdminService builds the service.
func NewAdminService(admins repository.AdminRepository, hasher auth.Hasher, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{admins: admins, hasher: hasher, logger: logger}
}

// FirstTimeSetup creates the super admin while no admin exists.
func (s *AdminService) FirstTimeSetup(ctx context.Context, in RegisterAdminInput) (*domain.Admin, error) {
	count, err := s.admins.Count(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if count > 0 {
		return nil, apperrors.NewForbidden("Admin setup already completed. Use regular admin registration.")
	}
	return s.create(ctx, in, true)
}

// Register creates an admin. The very first admin may register without a
// session and becomes the super admin; afterwards only the super admin may
// register others. creatorErr is the caller's resolution failure, if any.
func (s *AdminService) Register(ctx context.Context, creator *auth.Principal, creatorErr error, in RegisterAdminInput) (*domain.Admin, error) {
	count, err := s.admins.Count(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if count == 0 {
		return s.create(ctx, in, true)
	}
	if creator == nil {
		if creatorErr == nil {
			creatorErr = auth.ErrNoSession
		}
		return nil, auth.ToHTTPError(creatorErr)
	}
	if !creator.IsAdmin() || !creator.IsSuperAdmin {
		return nil, apperrors.NewForbidden("Only the first admin can create new admins")
	}
	return s.create(ctx, in, false)
}

func (s *AdminService) create(ctx context.Context, in RegisterAdminInput, superAdmin bool) (*domain.Admin, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, apperrors.NewValidationError("All fields are required", nil)
	}
	if in.Password != in.ConfirmPassword {
		return nil, apperrors.NewValidationError("Passwords do not match", nil)
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError(msgPasswordTooShort, nil)
	}

	if _, err := s.admins.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.NewConflict("Admin with this email already exists", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.MapError(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	admin := &domain.Admin{
		Name:         strings.TrimSpace(in.Name),
		Email:        domain.NormalizeEmail(in.Email),
		PasswordHash: hash,
		IsSuperAdmin: superAdmin,
		Active:       true,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Either the email or the single super admin slot was taken concurrently.
			return nil, apperrors.NewConflict("Admin with this email already exists or setup already completed", nil)
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("admin created",
		zap.String("admin_id", admin.ID),
		zap.Bool("super_admin", admin.IsSuperAdmin))
	return admin, nil
}

// Get returns one admin.
func (s *AdminService) Get(ctx context.Context, id string) (*domain.Admin, error) {
	admin, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Admin")
	}
	return admin, nil
}

// List returns every admin, newest first.
func (s *AdminService) List(ctx context.Context) ([]domain.Admin, error) {
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return admins, nil
}

// UpdateStatus activates or deactivates another, non-super admin.
func (s *AdminService) UpdateStatus(ctx context.Context, requester auth.Principal, targetID string, status AdminStatus) (*domain.Admin, error) {
	if status != AdminStatusActive && status != AdminStatusInactive {
		return nil, apperrors.NewValidationError("Status must be active or inactive", nil)
	}
	if !requester.IsSuperAdmin {
		return nil, apperrors.NewForbidden("Only the first admin can change admin statuses")
	}
	if requester.ID == targetID {
		return nil, apperrors.NewValidationError("You cannot change your own status", nil)
	}

	target, err := s.admins.GetByID(ctx, targetID)
	if err != nil {
		return nil, storeError(err, "Admin")
	}
	if target.IsSuperAdmin {
		return nil, apperrors.NewForbidden("The first admin status cannot be changed")
	}

	read := target.Generation
	target.SetActive(status == AdminStatusActive)
	if err := s.admins.Update(ctx, target, read); err != nil {
		return nil, storeError(err, "Admin")
	}
	s.logger.Info("admin status changed",
		zap.String("admin_id", target.ID),
		zap.String("status", string(status)),
		zap.String("by", requester.ID))
	return target, nil
}

// Delete removes another, non-super admin.
func (s *AdminService) Delete(ctx context.Context, requester auth.Principal, targetID string) (*domain.Admin, error) {
	target, err := s.admins.GetByID(ctx, targetID)
	if err != nil {
		return nil, storeError(err, "Admin")
	}
	if target.ID == requester.ID {
		return nil, apperrors.NewValidationError("You cannot delete your own account", nil)
	}
	if !requester.IsSuperAdmin {
		return nil, apperrors.NewForbidden("Only the first admin can delete admins")
	}
	if target.IsSuperAdmin {
		return nil, apperrors.NewForbidden("The first admin account cannot be deleted")
	}
	if err := s.admins.Delete(ctx, targetID); err != nil {
		return nil, storeError(err, "Admin")
	}
	s.logger.Info("admin deleted", zap.String("admin_id", targetID), zap.String("by", requester.ID))
	return target, nil
}

// EnsureSuperAdmin promotes the earliest admin when no super admin exists.
func (s *AdminService) EnsureSuperAdmin(ctx context.Context) (*domain.Admin, error) {
	existing, err := s.admins.GetSuperAdmin(ctx)
	if err == nil {
		return nil, apperrors.NewConflict("A super admin already exists", map[string]any{
			"superAdmin": map[string]any{"id": existing.ID, "email": existing.Email},
		})
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.MapError(err)
	}

	earliest, err := s.admins.GetEarliest(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("Admins", nil)
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	earliest.IsSuperAdmin = true
	if err := s.admins.Update(ctx, earliest, earliest.Generation); err != nil {
		return nil, storeError(err, "Admin")
	}
	s.logger.Warn("promoted earliest admin to super admin", zap.String("admin_id", earliest.ID))
	return earliest, nil
}
