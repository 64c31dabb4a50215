package domain

import "time"

// Admin is an operator of the admin console.
type Admin struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	ProfileImage string
	IsSuperAdmin bool
	Active       bool
	Generation   int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RotatePassword stores a new hash and invalidates every session issued before it.
func (a *Admin) RotatePassword(hash string) {
	a.PasswordHash = hash
	a.Generation++
}

// SetActive toggles the account status. Deactivation also invalidates every
// issued session, since admin sessions are not gated on status.
func (a *Admin) SetActive(active bool) {
	if a.Active && !active {
		a.Generation++
	}
	a.Active = active
}
