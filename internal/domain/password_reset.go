package domain

import "time"

// ResetStatus tracks the admin decision on a reset request.
type ResetStatus string

const (
	ResetStatusPending  ResetStatus = "pending"
	ResetStatusApproved ResetStatus = "approved"
	ResetStatusRejected ResetStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s ResetStatus) Valid() bool {
	switch s {
	case ResetStatusPending, ResetStatusApproved, ResetStatusRejected:
		return true
	}
	return false
}

// PasswordResetRequest is an employee-initiated request awaiting admin approval.
type PasswordResetRequest struct {
	ID          string
	EmployeeID  string
	Email       string
	Name        string
	Department  string
	Designation string
	Status      ResetStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
