package dto

import (
	"time"

	"github.com/spec-kit/attendance-service/internal/domain"
)

// AdminLoginRequest payload.
type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminRegisterRequest payload for first-time setup and registration.
type AdminRegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// AdminStatusRequest payload for PUT /update-status/:id.
type AdminStatusRequest struct {
	Status string `json:"status"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AdminResponse is the public view of an admin. The password hash and
// generation never leave the service.
type AdminResponse struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ProfileImage string    `json:"profileImage,omitempty"`
	IsSuperAdmin bool      `json:"isSuperAdmin"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewAdminResponse maps a domain admin.
func NewAdminResponse(a *domain.Admin) AdminResponse {
	status := "active"
	if !a.Active {
		status = "inactive"
	}
	return AdminResponse{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		ProfileImage: a.ProfileImage,
		IsSuperAdmin: a.IsSuperAdmin,
		Status:       status,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// AdminListResponse is returned by GET /list.
type AdminListResponse struct {
	CurrentAdminID string          `json:"currentAdminId"`
	Admins         []AdminResponse `json:"admins"`
}

// SessionResponse accompanies every response that sets a session cookie.
type SessionResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}
