package domain

import "time"

// Employee is a staff member using the attendance portal.
type Employee struct {
	ID           string
	EmployeeID   string
	Name         string
	Email        string
	PasswordHash string
	Department   string
	Designation  string
	ProfileImage string
	Active       bool
	Generation   int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RotatePassword stores a new hash and invalidates every session issued before it.
func (e *Employee) RotatePassword(hash string) {
	e.PasswordHash = hash
	e.Generation++
}

// ChangeEmail normalizes and stores a new address. Sessions are only invalidated
// when the address actually changes.
func (e *Employee) ChangeEmail(email string) bool {
	normalized := NormalizeEmail(email)
	if normalized == "" || normalized == e.Email {
		return false
	}
	e.Email = normalized
	e.Generation++
	return true
}
