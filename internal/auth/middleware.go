package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/attendance-service/internal/domain"
	apperrors "github.com/spec-kit/attendance-service/pkg/util"
)

const principalKey = "auth_principal"

// RequireAdmin only inspects the admin session cookie.
func (r *Resolver) RequireAdmin() fiber.Handler {
	return r.require(func(c *fiber.Ctx) (Principal, error) {
		return r.ResolveRequest(c, domain.RoleAdmin)
	})
}

// RequireEmployee only inspects the employee session cookie.
func (r *Resolver) RequireEmployee() fiber.Handler {
	return r.require(func(c *fiber.Ctx) (Principal, error) {
		return r.ResolveRequest(c, domain.RoleEmployee)
	})
}

// RequireAny accepts either principal type, preferring an admin session.
func (r *Resolver) RequireAny() fiber.Handler {
	return r.require(r.ResolveAny)
}

func (r *Resolver) require(resolve func(*fiber.Ctx) (Principal, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := resolve(c)
		if err != nil {
			r.logger.Debug("authorization rejected",
				zap.String("path", c.Path()),
				zap.String("outcome", Outcome(err)))
			return ToHTTPError(err)
		}
		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// RequireSuperAdmin must run after RequireAdmin. The flag comes from the
// principal re-read on this request, never from token claims.
func RequireSuperAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || !principal.IsAdmin() {
			return apperrors.NewUnauthorized(msgUnauthorized)
		}
		if !principal.IsSuperAdmin {
			return apperrors.NewForbidden(msgSuperAdminOnly)
		}
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (Principal, bool) {
	principal, ok := c.Locals(principalKey).(Principal)
	return principal, ok
}
