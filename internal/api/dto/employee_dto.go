package dto

import (
	"time"

	"github.com/spec-kit/attendance-service/internal/domain"
)

// EmployeeLoginRequest accepts an email address or an employee id.
type EmployeeLoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// EmployeeUpdateRequest carries admin edits; absent fields are left unchanged.
type EmployeeUpdateRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Department  *string `json:"department"`
	Designation *string `json:"designation"`
	Status      *string `json:"status"`
}

// FixPasswordRequest payload for POST /maintenance/fix-employee-password.
type FixPasswordRequest struct {
	EmployeeIDs []string `json:"employeeIds"`
	NewPassword string   `json:"newPassword"`
}

// EmployeeResponse is the profile returned to admins and the employee.
type EmployeeResponse struct {
	ID           string    `json:"_id"`
	EmployeeID   string    `json:"employeeId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Department   string    `json:"department,omitempty"`
	Designation  string    `json:"designation,omitempty"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewEmployeeResponse maps a domain employee.
func NewEmployeeResponse(e *domain.Employee) EmployeeResponse {
	status := "active"
	if !e.Active {
		status = "inactive"
	}
	return EmployeeResponse{
		ID:           e.ID,
		EmployeeID:   e.EmployeeID,
		Name:         e.Name,
		Email:        e.Email,
		Department:   e.Department,
		Designation:  e.Designation,
		ProfileImage: e.ProfileImage,
		Status:       status,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

// EmployeeCard is the minimal public view served by the lookup endpoint.
type EmployeeCard struct {
	EmployeeID   string `json:"employeeId"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// FixPasswordResult is one row of a password fix run.
type FixPasswordResult struct {
	EmployeeID     string `json:"employeeId"`
	Status         string `json:"status"`
	PasswordIssued string `json:"passwordIssued,omitempty"`
}

// RotatedCredential is reported by the rehash audit.
type RotatedCredential struct {
	EmployeeID        string `json:"employeeId"`
	Email             string `json:"email"`
	TemporaryPassword string `json:"temporaryPassword"`
}

// RehashResponse summarizes a rehash audit.
type RehashResponse struct {
	Message  string              `json:"message"`
	Audited  int                 `json:"audited"`
	Rotated  int                 `json:"rotated"`
	Affected []RotatedCredential `json:"affected"`
}
