package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/attendance-service/internal/api/dto"
	"github.com/spec-kit/attendance-service/internal/auth"
	"github.com/spec-kit/attendance-service/internal/domain"
	"github.com/spec-kit/attendance-service/internal/service"
	apperrors "github.com/spec-kit/attendance-service/pkg/util"
)

// AdminHandler exposes the admin console endpoints.
type AdminHandler struct {
	auth      *service.AuthService
	admins    *service.AdminService
	employees *service.EmployeeService
	resets    *service.PasswordResetService
	resolver  *auth.Resolver
	carrier   *auth.SessionCarrier
}

// AdminHandlerDependencies bundles collaborators.
type AdminHandlerDependencies struct {
	Auth      *service.AuthService
	Admins    *service.AdminService
	Employees *service.EmployeeService
	Resets    *service.PasswordResetService
	Resolver  *auth.Resolver
	Carrier   *auth.SessionCarrier
}

// NewAdminHandler constructs handler.
func NewAdminHandler(deps AdminHandlerDependencies) *AdminHandler {
	return &AdminHandler{
		auth:      deps.Auth,
		admins:    deps.Admins,
		employees: deps.Employees,
		resets:    deps.Resets,
		resolver:  deps.Resolver,
		carrier:   deps.Carrier,
	}
}

// FirstTimeSetup handles POST /api/admin/first-time-setup.
func (h *AdminHandler) FirstTimeSetup(c *fiber.Ctx) error {
	var req dto.AdminRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	admin, err := h.admins.FirstTimeSetup(c.UserContext(), registerInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Super admin created successfully",
		"admin":   dto.NewAdminResponse(admin),
	})
}

// Register handles POST /api/admin/register. The route is public; the service
// decides whether a super admin session is needed.
func (h *AdminHandler) Register(c *fiber.Ctx) error {
	var req dto.AdminRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	var creator *auth.Principal
	principal, resolveErr := h.resolver.ResolveRequest(c, domain.RoleAdmin)
	if resolveErr == nil {
		creator = &principal
	}

	admin, err := h.admins.Register(c.UserContext(), creator, resolveErr, registerInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Admin registered successfully",
		"admin":   dto.NewAdminResponse(admin),
	})
}

// Login handles POST /api/admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	admin, session, err := h.auth.LoginAdmin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	h.carrier.Attach(c, session.Token, domain.RoleAdmin)
	return c.JSON(fiber.Map{
		"message":   "Login successful",
		"admin":     dto.NewAdminResponse(admin),
		"expiresAt": session.ExpiresAt,
	})
}

// Logout handles POST /api/admin/logout.
func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	h.carrier.Detach(c, domain.RoleAdmin)
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// Verify handles GET /api/admin/verify.
func (h *AdminHandler) Verify(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	admin, err := h.admins.Get(c.UserContext(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"isAuthenticated": true,
		"admin":           dto.NewAdminResponse(admin),
	})
}

// ChangePassword handles POST /api/admin/change-password. Other sessions of
// the admin stop resolving; the caller receives a fresh cookie.
func (h *AdminHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	principal, _ := auth.PrincipalFromContext(c)
	session, err := h.auth.ChangeAdminPassword(c.UserContext(), principal.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}
	h.carrier.Attach(c, session.Token, domain.RoleAdmin)
	return c.JSON(dto.SessionResponse{Message: "Password changed successfully", ExpiresAt: session.ExpiresAt})
}

// List handles GET /api/admin/list.
func (h *AdminHandler) List(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	admins, err := h.admins.List(c.UserContext())
	if err != nil {
		return err
	}
	resp := dto.AdminListResponse{CurrentAdminID: principal.ID, Admins: make([]dto.AdminResponse, 0, len(admins))}
	for i := range admins {
		resp.Admins = append(resp.Admins, dto.NewAdminResponse(&admins[i]))
	}
	return c.JSON(resp)
}

// UpdateStatus handles PUT /api/admin/update-status/:id.
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.AdminStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	principal, _ := auth.PrincipalFromContext(c)
	admin, err := h.admins.UpdateStatus(c.UserContext(), principal, c.Params("id"), service.AdminStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Admin status updated successfully",
		"admin":   dto.NewAdminResponse(admin),
	})
}

// Delete handles DELETE /api/admin/delete/:id.
func (h *AdminHandler) Delete(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	admin, err := h.admins.Delete(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Admin deleted successfully",
		"admin":   dto.NewAdminResponse(admin),
	})
}

// EnsureSuperAdmin handles POST /api/admin/maintenance/ensure-super-admin.
func (h *AdminHandler) EnsureSuperAdmin(c *fiber.Ctx) error {
	admin, err := h.admins.EnsureSuperAdmin(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Promoted earliest admin to super admin",
		"admin":   dto.NewAdminResponse(admin),
	})
}

// FixEmployeePassword handles POST /api/admin/maintenance/fix-employee-password.
func (h *AdminHandler) FixEmployeePassword(c *fiber.Ctx) error {
	var req dto.FixPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	results, err := h.employees.FixPasswords(c.UserContext(), req.EmployeeIDs, req.NewPassword)
	if err != nil {
		return err
	}
	out := make([]dto.FixPasswordResult, 0, len(results))
	for _, r := range results {
		out = append(out, dto.FixPasswordResult{
			EmployeeID:     r.EmployeeID,
			Status:         string(r.Status),
			PasswordIssued: r.PasswordIssued,
		})
	}
	return c.JSON(fiber.Map{"message": "Password fix completed", "results": out})
}

// RehashEmployeePasswords handles POST /api/admin/maintenance/rehash-employee-passwords.
func (h *AdminHandler) RehashEmployeePasswords(c *fiber.Ctx) error {
	report, err := h.employees.RehashLegacyPasswords(c.UserContext())
	if err != nil {
		return err
	}
	resp := dto.RehashResponse{
		Message:  "Employee password audit completed; plaintext passwords rotated",
		Audited:  report.Audited,
		Rotated:  report.Rotated,
		Affected: make([]dto.RotatedCredential, 0, len(report.Affected)),
	}
	for _, a := range report.Affected {
		resp.Affected = append(resp.Affected, dto.RotatedCredential{
			EmployeeID:        a.EmployeeID,
			Email:             a.Email,
			TemporaryPassword: a.TemporaryPassword,
		})
	}
	return c.JSON(resp)
}

// ListPasswordRequests handles GET /api/admin/password-requests?status=.
func (h *AdminHandler) ListPasswordRequests(c *fiber.Ctx) error {
	requests, pending, err := h.resets.List(c.UserContext(), c.Query("status"))
	if err != nil {
		return err
	}
	resp := dto.ResetListResponse{Requests: make([]dto.ResetRequestResponse, 0, len(requests)), PendingCount: pending}
	for i := range requests {
		resp.Requests = append(resp.Requests, dto.NewResetRequestResponse(&requests[i]))
	}
	return c.JSON(resp)
}

// DecidePasswordRequest handles PUT /api/admin/password-requests.
func (h *AdminHandler) DecidePasswordRequest(c *fiber.Ctx) error {
	var req dto.ResetDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	principal, _ := auth.PrincipalFromContext(c)
	action := service.ResetAction(req.Action)
	decided, err := h.resets.Decide(c.UserContext(), principal, req.RequestID, action)
	if err != nil {
		return err
	}
	message := "Request rejected"
	if action == service.ResetActionApprove {
		message = "Password reset approved. New password has been sent to the employee's email address."
	}
	return c.JSON(fiber.Map{
		"message": message,
		"request": dto.NewResetRequestResponse(decided),
	})
}

// UpdateEmployee handles PUT /api/admin/employees/:employeeId.
func (h *AdminHandler) UpdateEmployee(c *fiber.Ctx) error {
	var req dto.EmployeeUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	in := service.UpdateEmployeeInput{
		Name:        req.Name,
		Email:       req.Email,
		Department:  req.Department,
		Designation: req.Designation,
	}
	if req.Status != nil {
		switch *req.Status {
		case "active":
			in.Active = boolPtr(true)
		case "inactive":
			in.Active = boolPtr(false)
		default:
			return apperrors.NewValidationError("Status must be active or inactive", nil)
		}
	}

	principal, _ := auth.PrincipalFromContext(c)
	employee, err := h.employees.Update(c.UserContext(), principal, c.Params("employeeId"), in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":  "Employee updated successfully",
		"employee": dto.NewEmployeeResponse(employee),
	})
}

func registerInput(req dto.AdminRegisterRequest) service.RegisterAdminInput {
	return service.RegisterAdminInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	}
}

func invalidPayload() error {
	return apperrors.NewValidationError("Invalid request body", nil)
}

func boolPtr(b bool) *bool { return &b }
