package dto

import (
	"time"

	"github.com/spec-kit/attendance-service/internal/domain"
)

// ResetCreateRequest payload for POST /employees/reset-password.
type ResetCreateRequest struct {
	Identifier string `json:"identifier"`
}

// ResetDecisionRequest payload for PUT /admin/password-requests.
type ResetDecisionRequest struct {
	RequestID string `json:"requestId"`
	Action    string `json:"action"`
}

// ResetRequestResponse is the admin's view of a reset request.
type ResetRequestResponse struct {
	ID          string    `json:"_id"`
	EmployeeID  string    `json:"employeeId"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Department  string    `json:"department,omitempty"`
	Designation string    `json:"designation,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewResetRequestResponse maps a domain request.
func NewResetRequestResponse(r *domain.PasswordResetRequest) ResetRequestResponse {
	return ResetRequestResponse{
		ID:          r.ID,
		EmployeeID:  r.EmployeeID,
		Email:       r.Email,
		Name:        r.Name,
		Department:  r.Department,
		Designation: r.Designation,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// ResetListResponse is returned by GET /admin/password-requests.
type ResetListResponse struct {
	Requests     []ResetRequestResponse `json:"requests"`
	PendingCount int                    `json:"pendingCount"`
}
