package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/attendance-service/internal/api/dto"
	"github.com/spec-kit/attendance-service/internal/auth"
	"github.com/spec-kit/attendance-service/internal/domain"
	"github.com/spec-kit/attendance-service/internal/service"
)

// EmployeeHandler exposes the employee portal endpoints.
type EmployeeHandler struct {
	auth      *service.AuthService
	employees *service.EmployeeService
	resets    *service.PasswordResetService
	carrier   *auth.SessionCarrier
}

// NewEmployeeHandler constructs handler.
func NewEmployeeHandler(authService *service.AuthService, employees *service.EmployeeService, resets *service.PasswordResetService, carrier *auth.SessionCarrier) *EmployeeHandler {
	return &EmployeeHandler{auth: authService, employees: employees, resets: resets, carrier: carrier}
}

// Login handles POST /api/employees/login.
func (h *EmployeeHandler) Login(c *fiber.Ctx) error {
	var req dto.EmployeeLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	_, session, err := h.auth.LoginEmployee(c.UserContext(), req.Identifier, req.Password)
	if err != nil {
		return err
	}
	h.carrier.Attach(c, session.Token, domain.RoleEmployee)
	return c.JSON(dto.SessionResponse{Message: "Login successful", ExpiresAt: session.ExpiresAt})
}

// Logout handles POST /api/employees/logout.
func (h *EmployeeHandler) Logout(c *fiber.Ctx) error {
	h.carrier.Detach(c, domain.RoleEmployee)
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// Me handles GET /api/employees/me.
func (h *EmployeeHandler) Me(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	employee, err := h.employees.Me(c.UserContext(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"employee": dto.NewEmployeeResponse(employee)})
}

// ChangePassword handles POST /api/employees/change-password.
func (h *EmployeeHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	principal, _ := auth.PrincipalFromContext(c)
	session, err := h.auth.ChangeEmployeePassword(c.UserContext(), principal.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}
	h.carrier.Attach(c, session.Token, domain.RoleEmployee)
	return c.JSON(dto.SessionResponse{Message: "Password changed successfully", ExpiresAt: session.ExpiresAt})
}

// Lookup handles GET /api/employees/lookup?identifier=.
func (h *EmployeeHandler) Lookup(c *fiber.Ctx) error {
	employee, err := h.employees.Lookup(c.UserContext(), c.Query("identifier"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"employee": dto.EmployeeCard{
		EmployeeID:   employee.EmployeeID,
		Name:         employee.Name,
		ProfileImage: employee.ProfileImage,
	}})
}

// RequestPasswordReset handles POST /api/employees/reset-password.
func (h *EmployeeHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.ResetCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	created, err := h.resets.Request(c.UserContext(), req.Identifier)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Password reset request created",
		"request": dto.NewResetRequestResponse(created),
	})
}
