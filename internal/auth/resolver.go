package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/attendance-service/internal/domain"
	"github.com/spec-kit/attendance-service/internal/repository"
	apperrors "github.com/spec-kit/attendance-service/pkg/util"
)

// Resolution failures, in the order the resolver checks them.
var (
	ErrNoSession        = errors.New("no session")
	ErrRoleMismatch     = errors.New("token issued for another role")
	ErrUnknownPrincipal = errors.New("principal not found")
	ErrStaleSession     = errors.New("session generation superseded")
	ErrInactive         = errors.New("account inactive")
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

const (
	msgUnauthorized   = "Unauthorized"
	msgStaleSession   = "Session expired. Please log in again."
	msgInactive       = "Your account is currently inactive. Please contact your administrator."
	msgSuperAdminOnly = "Only the first admin can perform this action"
)

// Principal is the live, role-scoped caller handed to handlers.
type Principal struct {
	ID           string
	Role         domain.Role
	Email        string
	Name         string
	IsSuperAdmin bool
	Active       bool
}

// IsAdmin reports whether the principal was resolved from an admin session.
func (p Principal) IsAdmin() bool {
	return p.Role == domain.RoleAdmin
}

// AdminLookup loads admins by primary id.
type AdminLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Admin, error)
}

// EmployeeLookup loads employees by external employee id.
type EmployeeLookup interface {
	GetByEmployeeID(ctx context.Context, employeeID string) (*domain.Employee, error)
}

// Recorder receives one outcome per resolution attempt.
type Recorder interface {
	RecordAuth(role domain.Role, outcome string)
}

// Resolver turns a session cookie into a live principal or a terminal rejection.
type Resolver struct {
	tokens    *TokenManager
	carrier   *SessionCarrier
	admins    AdminLookup
	employees EmployeeLookup
	logger    *zap.Logger
	recorder  Recorder
}

// ResolverDependencies bundles collaborators for the resolver.
type ResolverDependencies struct {
	Tokens    *TokenManager
	Carrier   *SessionCarrier
	Admins    AdminLookup
	Employees EmployeeLookup
	Logger    *zap.Logger
	Recorder  Recorder
}

// NewResolver constructs a resolver.
func NewResolver(deps ResolverDependencies) *Resolver {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		tokens:    deps.Tokens,
		carrier:   deps.Carrier,
		admins:    deps.Admins,
		employees: deps.Employees,
		logger:    logger,
		recorder:  deps.Recorder,
	}
}

// Resolve runs the checks for one role. Each step narrows the previous one and
// none may be skipped: parse, role, lookup, generation, active.
func (r *Resolver) Resolve(ctx context.Context, role domain.Role, token string) (Principal, error) {
	principal, err := r.resolve(ctx, role, token)
	r.record(role, err)
	return principal, err
}

func (r *Resolver) resolve(ctx context.Context, role domain.Role, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrNoSession
	}
	claims, err := r.tokens.ParseToken(token)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	if claims.Role != role {
		return Principal{}, ErrRoleMismatch
	}

	switch role {
	case domain.RoleAdmin:
		admin, err := r.admins.GetByID(ctx, claims.Subject)
		if err != nil {
			return Principal{}, r.lookupError(role, claims.Subject, err)
		}
		if admin.Generation != claims.Generation {
			return Principal{}, ErrStaleSession
		}
		return adminPrincipal(admin), nil
	case domain.RoleEmployee:
		employee, err := r.employees.GetByEmployeeID(ctx, claims.Subject)
		if err != nil {
			return Principal{}, r.lookupError(role, claims.Subject, err)
		}
		if employee.Generation != claims.Generation {
			return Principal{}, ErrStaleSession
		}
		if !employee.Active {
			return Principal{}, ErrInactive
		}
		return employeePrincipal(employee), nil
	default:
		return Principal{}, ErrRoleMismatch
	}
}

func (r *Resolver) lookupError(role domain.Role, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUnknownPrincipal
	}
	r.logger.Error("principal lookup failed",
		zap.String("role", string(role)),
		zap.String("principal_id", id),
		zap.Error(err))
	return ErrStoreUnavailable
}

// ResolveRequest resolves the principal for role from the request's cookie.
func (r *Resolver) ResolveRequest(c *fiber.Ctx, role domain.Role) (Principal, error) {
	token, _ := r.carrier.Extract(c, role)
	return r.Resolve(c.UserContext(), role, token)
}

// ResolveAny tries the admin session first, then the employee session. When
// both fail the error of the most specific session actually presented wins.
func (r *Resolver) ResolveAny(c *fiber.Ctx) (Principal, error) {
	adminToken, hasAdmin := r.carrier.Extract(c, domain.RoleAdmin)
	var adminErr error
	if hasAdmin {
		principal, err := r.Resolve(c.UserContext(), domain.RoleAdmin, adminToken)
		if err == nil {
			return principal, nil
		}
		adminErr = err
	}

	employeeToken, hasEmployee := r.carrier.Extract(c, domain.RoleEmployee)
	if hasEmployee {
		principal, err := r.Resolve(c.UserContext(), domain.RoleEmployee, employeeToken)
		if err == nil {
			return principal, nil
		}
		return Principal{}, err
	}
	if adminErr != nil {
		return Principal{}, adminErr
	}
	r.record(domain.RoleEmployee, ErrNoSession)
	return Principal{}, ErrNoSession
}

func (r *Resolver) record(role domain.Role, err error) {
	if r.recorder == nil {
		return
	}
	r.recorder.RecordAuth(role, Outcome(err))
}

// Outcome labels a resolution result for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoSession):
		return "no_session"
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrRoleMismatch):
		return "invalid_token"
	case errors.Is(err, ErrUnknownPrincipal):
		return "unknown_principal"
	case errors.Is(err, ErrStaleSession):
		return "stale_session"
	case errors.Is(err, ErrInactive):
		return "inactive"
	default:
		return "store_error"
	}
}

// ToHTTPError maps a resolution failure to the response the caller sees.
// Store failures are reported as Unauthorized without internal detail.
func ToHTTPError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStaleSession):
		return apperrors.NewUnauthorized(msgStaleSession)
	case errors.Is(err, ErrInactive):
		return apperrors.NewForbidden(msgInactive)
	default:
		return apperrors.NewUnauthorized(msgUnauthorized)
	}
}

func adminPrincipal(a *domain.Admin) Principal {
	return Principal{
		ID:           a.ID,
		Role:         domain.RoleAdmin,
		Email:        a.Email,
		Name:         a.Name,
		IsSuperAdmin: a.IsSuperAdmin,
		Active:       a.Active,
	}
}

func employeePrincipal(e *domain.Employee) Principal {
	return Principal{
		ID:     e.EmployeeID,
		Role:   domain.RoleEmployee,
		Email:  e.Email,
		Name:   e.Name,
		Active: e.Active,
	}
}
