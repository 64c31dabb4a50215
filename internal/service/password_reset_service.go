package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/attendance-service/internal/auth"
	"github.com/spec-kit/attendance-service/internal/domain"
	"github.com/spec-kit/attendance-service/internal/events"
	"github.com/spec-kit/attendance-service/internal/repository"
	apperrors "github.com/spec-kit/attendance-service/pkg/util"
)

// ResetAction is an admin decision on a reset request.
type ResetAction string

const (
	ResetActionApprove ResetAction = "approve"
	ResetActionReject  ResetAction = "reject"
)

const msgOnlyPending = "Only pending requests can be updated"

// PasswordResetService runs the employee-requested, admin-approved reset flow.
type PasswordResetService struct {
	resets     repository.PasswordResetRepository
	employees  repository.EmployeeRepository
	hasher     auth.Hasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// PasswordResetDependencies bundles collaborators.
type PasswordResetDependencies struct {
	Resets     repository.PasswordResetRepository
	Employees  repository.EmployeeRepository
	Hasher     auth.Hasher
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewPasswordResetService builds the service.
func NewPasswordResetService(deps PasswordResetDependencies) *PasswordResetService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasswordResetService{
		resets:     deps.Resets,
		employees:  deps.Employees,
		hasher:     deps.Hasher,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Request opens a pending reset for the employee behind identifier.
func (s *PasswordResetService) Request(ctx context.Context, identifier string) (*domain.PasswordResetRequest, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, apperrors.NewValidationError("Employee ID or Email is required", nil)
	}
	employee, err := findByIdentifier(ctx, s.employees, identifier)
	if err != nil {
		return nil, storeError(err, "Employee")
	}

	req := &domain.PasswordResetRequest{
		EmployeeID:  employee.EmployeeID,
		Email:       employee.Email,
		Name:        employee.Name,
		Department:  employee.Department,
		Designation: employee.Designation,
		Status:      domain.ResetStatusPending,
	}
	if err := s.resets.Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("A pending request already exists for this employee", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return req, nil
}

// List returns requests in status (pending when empty) and the pending count.
func (s *PasswordResetService) List(ctx context.Context, status string) ([]domain.PasswordResetRequest, int, error) {
	st := domain.ResetStatus(strings.ToLower(strings.TrimSpace(status)))
	if st == "" {
		st = domain.ResetStatusPending
	}
	if !st.Valid() {
		return nil, 0, apperrors.NewValidationError("Status must be pending, approved or rejected", nil)
	}

	requests, err := s.resets.ListByStatus(ctx, st)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	pending, err := s.resets.CountByStatus(ctx, domain.ResetStatusPending)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return requests, pending, nil
}

// Decide approves or rejects a pending request. Approval issues a temporary
// password, signs the employee out everywhere and emails the credentials;
// a failed email does not undo the approval.
func (s *PasswordResetService) Decide(ctx context.Context, actor auth.Principal, requestID string, action ResetAction) (*domain.PasswordResetRequest, error) {
	if strings.TrimSpace(requestID) == "" || (action != ResetActionApprove && action != ResetActionReject) {
		return nil, apperrors.NewValidationError("requestId and valid action are required", nil)
	}
	req, err := s.resets.GetByID(ctx, requestID)
	if err != nil {
		return nil, storeError(err, "Request")
	}
	if req.Status != domain.ResetStatusPending {
		return nil, apperrors.NewValidationError(msgOnlyPending, nil)
	}

	if action == ResetActionReject {
		return s.transition(ctx, requestID, domain.ResetStatusRejected)
	}

	employee, err := s.employees.GetByEmployeeID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Employee for this request", nil)
		}
		return nil, apperrors.MapError(err)
	}

	// Claim the request first so two admins cannot both reset the password.
	approved, err := s.transition(ctx, requestID, domain.ResetStatusApproved)
	if err != nil {
		return nil, err
	}

	temporary, err := s.resetPassword(ctx, employee)
	if err != nil {
		if _, revertErr := s.resets.Transition(ctx, requestID, domain.ResetStatusApproved, domain.ResetStatusPending); revertErr != nil {
			s.logger.Error("failed to reopen reset request",
				zap.String("request_id", requestID),
				zap.Error(revertErr))
		}
		return nil, err
	}

	s.logger.Info("password reset approved",
		zap.String("request_id", requestID),
		zap.String("employee_id", employee.EmployeeID),
		zap.String("by", actor.ID))
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:       events.EventEmployeePasswordReset,
		EmployeeID: employee.EmployeeID,
		Actor:      events.Actor{Role: actor.Role, ID: actor.ID},
		Payload: events.PasswordResetPayload{
			Email:             employee.Email,
			Name:              employee.Name,
			TemporaryPassword: temporary,
		},
	})
	return approved, nil
}

func (s *PasswordResetService) transition(ctx context.Context, id string, to domain.ResetStatus) (*domain.PasswordResetRequest, error) {
	req, err := s.resets.Transition(ctx, id, domain.ResetStatusPending, to)
	if errors.Is(err, repository.ErrStaleWrite) {
		return nil, apperrors.NewValidationError(msgOnlyPending, nil)
	}
	if err != nil {
		return nil, storeError(err, "Request")
	}
	return req, nil
}

func (s *PasswordResetService) resetPassword(ctx context.Context, employee *domain.Employee) (string, error) {
	temporary, err := GenerateTemporaryPassword(TemporaryPasswordLength)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	hash, err := s.hasher.Hash(temporary)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	read := employee.Generation
	employee.RotatePassword(hash)
	if err := s.employees.Update(ctx, employee, read); err != nil {
		return "", storeError(err, "Employee")
	}
	return temporary, nil
}
