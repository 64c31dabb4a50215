package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/attendance-service/internal/auth"
	"github.com/spec-kit/attendance-service/internal/service"
)

// AttendanceHandler serves attendance photos to their owner and to admins.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Image handles GET /api/attendance/images/:filename by redirecting to the
// hosted photo.
func (h *AttendanceHandler) Image(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	url, err := h.attendance.ImageURL(c.UserContext(), principal, c.Params("filename"))
	if err != nil {
		return err
	}
	return c.Redirect(url, fiber.StatusFound)
}
