package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/attendance-service/internal/domain"
)

const (
	AdminCookieName    = "admin_token"
	EmployeeCookieName = "employee_token"
)

// CookieName returns the role-scoped session cookie name.
func CookieName(role domain.Role) string {
	if role == domain.RoleAdmin {
		return AdminCookieName
	}
	return EmployeeCookieName
}

// SessionCarrier binds session tokens to per-role HTTP cookies.
type SessionCarrier struct {
	secure bool
	ttl    map[domain.Role]time.Duration
}

// NewSessionCarrier sets the Secure flag when secure is true (production).
func NewSessionCarrier(secure bool, adminTTL, employeeTTL time.Duration) *SessionCarrier {
	return &SessionCarrier{
		secure: secure,
		ttl: map[domain.Role]time.Duration{
			domain.RoleAdmin:    adminTTL,
			domain.RoleEmployee: employeeTTL,
		},
	}
}

// TTL is shared by the token and its cookie so both expire together.
func (s *SessionCarrier) TTL(role domain.Role) time.Duration {
	return s.ttl[role]
}

// Attach sets the session cookie for role.
func (s *SessionCarrier) Attach(c *fiber.Ctx, token string, role domain.Role) {
	c.Cookie(s.cookie(role, token, int(s.TTL(role)/time.Second), time.Time{}))
}

// Detach overwrites the session cookie with an already expired empty one.
func (s *SessionCarrier) Detach(c *fiber.Ctx, role domain.Role) {
	// fasthttp omits Max-Age when it is not positive, so expiry is expressed
	// through a past Expires date instead.
	c.Cookie(s.cookie(role, "", 0, time.Unix(0, 0).UTC()))
}

// Extract returns the session token for role, if the request carries one.
func (s *SessionCarrier) Extract(c *fiber.Ctx, role domain.Role) (string, bool) {
	token := c.Cookies(CookieName(role))
	return token, token != ""
}

func (s *SessionCarrier) cookie(role domain.Role, value string, maxAge int, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     CookieName(role),
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		Secure:   s.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}
