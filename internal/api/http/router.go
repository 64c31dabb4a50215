package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/attendance-service/internal/api/http/handlers"
	"github.com/spec-kit/attendance-service/internal/auth"
	"github.com/spec-kit/attendance-service/internal/config"
	"github.com/spec-kit/attendance-service/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Admin      *handlers.AdminHandler
	Employee   *handlers.EmployeeHandler
	Attendance *handlers.AttendanceHandler
	Resolver   *auth.Resolver
	Guard      *ratelimit.Guard
	Limits     config.RateLimitConfig
	Metrics    fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	limit := func(rule config.RateRule) fiber.Handler {
		return cfg.Guard.Limit(rule.Limit, rule.Window())
	}
	requireAdmin := cfg.Resolver.RequireAdmin()
	requireEmployee := cfg.Resolver.RequireEmployee()
	requireSuper := auth.RequireSuperAdmin()

	api := app.Group("/api")

	admin := api.Group("/admin")
	admin.Post("/first-time-setup", cfg.Admin.FirstTimeSetup)
	admin.Post("/register", cfg.Admin.Register)
	admin.Post("/login", limit(cfg.Limits.AdminLogin), cfg.Admin.Login)
	admin.Post("/logout", cfg.Admin.Logout)
	admin.Get("/verify", requireAdmin, cfg.Admin.Verify)
	admin.Post("/change-password", limit(cfg.Limits.ChangePassword), requireAdmin, cfg.Admin.ChangePassword)
	admin.Get("/list", requireAdmin, cfg.Admin.List)
	admin.Put("/update-status/:id", requireAdmin, requireSuper, cfg.Admin.UpdateStatus)
	admin.Delete("/delete/:id", requireAdmin, requireSuper, cfg.Admin.Delete)
	admin.Get("/password-requests", requireAdmin, cfg.Admin.ListPasswordRequests)
	admin.Put("/password-requests", requireAdmin, cfg.Admin.DecidePasswordRequest)
	admin.Put("/employees/:employeeId", requireAdmin, cfg.Admin.UpdateEmployee)

	maintenance := admin.Group("/maintenance", requireAdmin)
	maintenance.Post("/ensure-super-admin", cfg.Admin.EnsureSuperAdmin)
	maintenance.Post("/fix-employee-password", limit(cfg.Limits.FixPassword), cfg.Admin.FixEmployeePassword)
	maintenance.Post("/rehash-employee-passwords", cfg.Admin.RehashEmployeePasswords)

	employees := api.Group("/employees")
	employees.Post("/login", limit(cfg.Limits.EmployeeLogin), cfg.Employee.Login)
	employees.Post("/logout", cfg.Employee.Logout)
	employees.Get("/me", requireEmployee, cfg.Employee.Me)
	employees.Post("/change-password", limit(cfg.Limits.ChangePassword), requireEmployee, cfg.Employee.ChangePassword)
	employees.Get("/lookup", limit(cfg.Limits.EmployeeLookup), cfg.Employee.Lookup)
	employees.Post("/reset-password", limit(cfg.Limits.PasswordResetCreate), cfg.Employee.RequestPasswordReset)

	api.Get("/attendance/images/:filename", cfg.Resolver.RequireAny(), cfg.Attendance.Image)
}
