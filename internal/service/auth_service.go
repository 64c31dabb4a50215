package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/attendance-service/internal/auth"
	"github.com/spec-kit/attendance-service/internal/domain"
	"github.com/spec-kit/attendance-service/internal/repository"
	apperrors "github.com/spec-kit/attendance-service/pkg/util"
)

const (
	msgInvalidAdminCredentials    = "Invalid email or password"
	msgInvalidEmployeeCredentials = "Invalid employee ID/email or password"
	msgAccountInactive            = "Your account is currently inactive. Please contact your administrator."
	msgCurrentPasswordIncorrect   = "Current password is incorrect"
)

// Session is a freshly issued token and the moment it stops being valid.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// SessionTTLs fixes how long issued sessions last per role.
type SessionTTLs struct {
	Admin    time.Duration
	Employee time.Duration
}

// AuthService coordinates login and password change flows.
type AuthService struct {
	admins    repository.AdminRepository
	employees repository.EmployeeRepository
	hasher    auth.Hasher
	tokens    *auth.TokenManager
	ttls      SessionTTLs
	logger    *zap.Logger
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	Admins    repository.AdminRepository
	Employees repository.EmployeeRepository
	Hasher    auth.Hasher
	Tokens    *auth.TokenManager
	TTLs      SessionTTLs
	Logger    *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		admins:    deps.Admins,
		employees: deps.Employees,
		hasher:    deps.Hasher,
		tokens:    deps.Tokens,
		ttls:      deps.TTLs,
		logger:    logger,
	}
}

// LoginAdmin authenticates an admin by email.
func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (*domain.Admin, Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, Session{}, apperrors.NewValidationError("Email and password are required", nil)
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Session{}, apperrors.NewUnauthorized(msgInvalidAdminCredentials)
	}
	if err != nil {
		return nil, Session{}, apperrors.MapError(err)
	}
	if !s.hasher.Verify(password, admin.PasswordHash) {
		return nil, Session{}, apperrors.NewUnauthorized(msgInvalidAdminCredentials)
	}
	if !admin.Active {
		return nil, Session{}, apperrors.NewForbidden(msgAccountInactive)
	}

	session, err := s.issueAdmin(admin)
	if err != nil {
		return nil, Session{}, err
	}
	return admin, session, nil
}

// LoginEmployee authenticates an employee by email or employee id. Accounts
// still holding a plaintext password are upgraded to a hash on a matching
// login, and every other session of theirs is invalidated.
func (s *AuthService) LoginEmployee(ctx context.Context, identifier, password string) (*domain.Employee, Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, Session{}, apperrors.NewValidationError("Employee ID/Email and password are required", nil)
	}

	employee, err := s.employees.GetByIdentifier(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Session{}, apperrors.NewUnauthorized(msgInvalidEmployeeCredentials)
	}
	if err != nil {
		return nil, Session{}, apperrors.MapError(err)
	}

	if !s.hasher.Verify(password, employee.PasswordHash) {
		if !s.matchesLegacyPlaintext(employee.PasswordHash, password) {
			return nil, Session{}, apperrors.NewUnauthorized(msgInvalidEmployeeCredentials)
		}
		if err := s.upgradeLegacyPassword(ctx, employee, password); err != nil {
			return nil, Session{}, err
		}
	}
	if !employee.Active {
		return nil, Session{}, apperrors.NewForbidden(msgAccountInactive)
	}

	session, err := s.issueEmployee(employee)
	if err != nil {
		return nil, Session{}, err
	}
	return employee, session, nil
}

func (s *AuthService) matchesLegacyPlaintext(stored, password string) bool {
	if stored == "" || s.hasher.IsHash(stored) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

func (s *AuthService) upgradeLegacyPassword(ctx context.Context, employee *domain.Employee, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	read := employee.Generation
	employee.RotatePassword(hash)
	if err := s.employees.Update(ctx, employee, read); err != nil {
		return storeError(err, "Employee")
	}
	s.logger.Info("legacy plaintext password upgraded",
		zap.String("employee_id", employee.EmployeeID),
		zap.Int64("generation", employee.Generation))
	return nil
}

// ChangeAdminPassword rotates the admin's password and returns a session for
// the caller; sessions issued earlier stop resolving.
func (s *AuthService) ChangeAdminPassword(ctx context.Context, adminID, current, next string) (Session, error) {
	if err := validatePasswordChange(current, next); err != nil {
		return Session{}, err
	}
	admin, err := s.admins.GetByID(ctx, adminID)
	if err != nil {
		return Session{}, storeError(err, "Admin")
	}
	if !s.hasher.Verify(current, admin.PasswordHash) {
		return Session{}, apperrors.NewUnauthorized(msgCurrentPasswordIncorrect)
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return Session{}, apperrors.NewInternalError(err)
	}
	read := admin.Generation
	admin.RotatePassword(hash)
	if err := s.admins.Update(ctx, admin, read); err != nil {
		return Session{}, storeError(err, "Admin")
	}
	return s.issueAdmin(admin)
}

// ChangeEmployeePassword rotates the employee's password; see ChangeAdminPassword.
func (s *AuthService) ChangeEmployeePassword(ctx context.Context, employeeID, current, next string) (Session, error) {
	if err := validatePasswordChange(current, next); err != nil {
		return Session{}, err
	}
	employee, err := s.employees.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		return Session{}, storeError(err, "Employee")
	}
	if !employee.Active {
		return Session{}, apperrors.NewForbidden(msgAccountInactive)
	}
	if !s.hasher.Verify(current, employee.PasswordHash) {
		return Session{}, apperrors.NewUnauthorized(msgCurrentPasswordIncorrect)
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return Session{}, apperrors.NewInternalError(err)
	}
	read := employee.Generation
	employee.RotatePassword(hash)
	if err := s.employees.Update(ctx, employee, read); err != nil {
		return Session{}, storeError(err, "Employee")
	}
	return s.issueEmployee(employee)
}

func validatePasswordChange(current, next string) error {
	if current == "" || next == "" {
		return apperrors.NewValidationError("Current and new password are required", nil)
	}
	if len(next) < minPasswordLength {
		return apperrors.NewValidationError(msgPasswordTooShort, nil)
	}
	return nil
}

func (s *AuthService) issueAdmin(admin *domain.Admin) (Session, error) {
	return s.issue(auth.Identity{
		PrincipalID: admin.ID,
		Role:        domain.RoleAdmin,
		Email:       admin.Email,
		Name:        admin.Name,
		Generation:  admin.Generation,
	}, s.ttls.Admin)
}

func (s *AuthService) issueEmployee(employee *domain.Employee) (Session, error) {
	return s.issue(auth.Identity{
		PrincipalID: employee.EmployeeID,
		Role:        domain.RoleEmployee,
		Email:       employee.Email,
		Name:        employee.Name,
		Generation:  employee.Generation,
	}, s.ttls.Employee)
}

func (s *AuthService) issue(id auth.Identity, ttl time.Duration) (Session, error) {
	token, exp, err := s.tokens.GenerateToken(id, ttl)
	if err != nil {
		return Session{}, apperrors.NewInternalError(err)
	}
	return Session{Token: token, ExpiresAt: exp}, nil
}
