package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/attendance-service/internal/auth"
	"github.com/spec-kit/attendance-service/internal/domain"
	"github.com/spec-kit/attendance-service/internal/events"
	"github.com/spec-kit/attendance-service/internal/repository"
	apperrors "github.com/spec-kit/attendance-service/pkg/util"
)

// UpdateEmployeeInput carries the admin-editable fields; nil leaves a field as is.
type UpdateEmployeeInput struct {
	Name        *string
	Email       *string
	Department  *string
	Designation *string
	Active      *bool
}

// FixStatus reports what happened to one employee in a password fix.
type FixStatus string

const (
	FixStatusUpdated  FixStatus = "updated"
	FixStatusNotFound FixStatus = "not_found"
)

// FixResult is one row of a password fix run.
type FixResult struct {
	EmployeeID     string
	Status         FixStatus
	PasswordIssued string
}

// RotatedCredential is a temporary password issued during a rehash audit.
type RotatedCredential struct {
	EmployeeID        string
	Email             string
	TemporaryPassword string
}

// RehashReport summarizes a rehash audit.
type RehashReport struct {
	Audited  int
	Rotated  int
	Affected []RotatedCredential
}

// EmployeeService exposes employee profile and credential maintenance.
type EmployeeService struct {
	employees  repository.EmployeeRepository
	hasher     auth.Hasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewEmployeeService builds the service.
func NewEmployeeService(employees repository.EmployeeRepository, hasher auth.Hasher, dispatcher events.Dispatcher, logger *zap.Logger) *EmployeeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{employees: employees, hasher: hasher, dispatcher: dispatcher, logger: logger}
}

// findByIdentifier treats identifiers containing '@' as emails, anything else
// as an employee id.
func findByIdentifier(ctx context.Context, employees repository.EmployeeRepository, identifier string) (*domain.Employee, error) {
	if strings.Contains(identifier, "@") {
		return employees.GetByEmail(ctx, identifier)
	}
	return employees.GetByEmployeeID(ctx, identifier)
}

// Me returns the employee behind the current session.
func (s *EmployeeService) Me(ctx context.Context, employeeID string) (*domain.Employee, error) {
	employee, err := s.employees.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, storeError(err, "Employee")
	}
	return employee, nil
}

// Lookup resolves the public card for an identifier.
func (s *EmployeeService) Lookup(ctx context.Context, identifier string) (*domain.Employee, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, apperrors.NewValidationError("Identifier is required", nil)
	}
	employee, err := findByIdentifier(ctx, s.employees, identifier)
	if err != nil {
		return nil, storeError(err, "Employee")
	}
	return employee, nil
}

// Update applies admin edits. Changing the email signs the employee out
// everywhere and notifies the new address.
func (s *EmployeeService) Update(ctx context.Context, actor auth.Principal, employeeID string, in UpdateEmployeeInput) (*domain.Employee, error) {
	employee, err := s.employees.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, storeError(err, "Employee")
	}
	read := employee.Generation

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("Name cannot be empty", nil)
		}
		employee.Name = name
	}
	if in.Department != nil {
		employee.Department = strings.TrimSpace(*in.Department)
	}
	if in.Designation != nil {
		employee.Designation = strings.TrimSpace(*in.Designation)
	}
	if in.Active != nil {
		employee.Active = *in.Active
	}

	oldEmail := employee.Email
	emailChanged := false
	if in.Email != nil && domain.NormalizeEmail(*in.Email) != "" && domain.NormalizeEmail(*in.Email) != employee.Email {
		other, err := s.employees.GetByEmail(ctx, *in.Email)
		switch {
		case err == nil && other.EmployeeID != employee.EmployeeID:
			return nil, apperrors.NewConflict("Another employee already uses this email address", nil)
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.MapError(err)
		}
		emailChanged = employee.ChangeEmail(*in.Email)
	}

	if err := s.employees.Update(ctx, employee, read); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("Another employee already uses this email address", nil)
		}
		return nil, storeError(err, "Employee")
	}

	if emailChanged {
		s.logger.Info("employee email changed, sessions invalidated",
			zap.String("employee_id", employee.EmployeeID),
			zap.Int64("generation", employee.Generation))
		s.publish(ctx, events.Event{
			Type:       events.EventEmployeeEmailChanged,
			EmployeeID: employee.EmployeeID,
			Actor:      events.Actor{Role: actor.Role, ID: actor.ID},
			Payload: events.EmailChangedPayload{
				Name:     employee.Name,
				OldEmail: oldEmail,
				NewEmail: employee.Email,
			},
		})
	}
	return employee, nil
}

// FixPasswords assigns newPassword, or a random one when empty, to each
// listed employee and invalidates their sessions.
func (s *EmployeeService) FixPasswords(ctx context.Context, employeeIDs []string, newPassword string) ([]FixResult, error) {
	if len(employeeIDs) == 0 {
		return nil, apperrors.NewValidationError("employeeIds array is required", nil)
	}
	if newPassword != "" && len(newPassword) < minPasswordLength {
		return nil, apperrors.NewValidationError(msgPasswordTooShort, nil)
	}

	results := make([]FixResult, 0, len(employeeIDs))
	for _, raw := range employeeIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		employee, err := s.employees.GetByEmployeeID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			results = append(results, FixResult{EmployeeID: raw, Status: FixStatusNotFound})
			continue
		}
		if err != nil {
			return nil, apperrors.MapError(err)
		}

		assigned := newPassword
		if assigned == "" {
			if assigned, err = GenerateTemporaryPassword(TemporaryPasswordLength); err != nil {
				return nil, apperrors.NewInternalError(err)
			}
		}
		if err := s.rotate(ctx, employee, assigned); err != nil {
			return nil, err
		}
		results = append(results, FixResult{EmployeeID: raw, Status: FixStatusUpdated, PasswordIssued: assigned})
	}
	return results, nil
}

// RehashLegacyPasswords replaces every plaintext-stored password with a
// random temporary one.
func (s *EmployeeService) RehashLegacyPasswords(ctx context.Context) (RehashReport, error) {
	employees, err := s.employees.List(ctx)
	if err != nil {
		return RehashReport{}, apperrors.MapError(err)
	}

	report := RehashReport{Affected: []RotatedCredential{}}
	for i := range employees {
		employee := &employees[i]
		report.Audited++
		if s.hasher.IsHash(employee.PasswordHash) {
			continue
		}
		temporary, err := GenerateTemporaryPassword(TemporaryPasswordLength)
		if err != nil {
			return RehashReport{}, apperrors.NewInternalError(err)
		}
		if err := s.rotate(ctx, employee, temporary); err != nil {
			return RehashReport{}, err
		}
		report.Rotated++
		report.Affected = append(report.Affected, RotatedCredential{
			EmployeeID:        employee.EmployeeID,
			Email:             employee.Email,
			TemporaryPassword: temporary,
		})
	}
	s.logger.Info("employee password audit completed",
		zap.Int("audited", report.Audited),
		zap.Int("rotated", report.Rotated))
	return report, nil
}

func (s *EmployeeService) rotate(ctx context.Context, employee *domain.Employee, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	read := employee.Generation
	employee.RotatePassword(hash)
	if err := s.employees.Update(ctx, employee, read); err != nil {
		return storeError(err, "Employee")
	}
	return nil
}

func (s *EmployeeService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, s.logger, event)
}

// publishEvent delivers event and logs handler failures; notifications never
// fail the operation that triggered them.
func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Error("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("employee_id", event.EmployeeID),
			zap.Error(err))
	}
}
