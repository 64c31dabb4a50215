package events

import (
	"time"

	"github.com/spec-kit/attendance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEmployeePasswordReset EventType = "employee_password_reset"
	EventEmployeeEmailChanged  EventType = "employee_email_changed"
)

// Actor identifies who triggered an event.
type Actor struct {
	Role domain.Role `json:"role"`
	ID   string      `json:"id"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	EmployeeID string      `json:"employee_id"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// PasswordResetPayload carries the temporary password to deliver.
type PasswordResetPayload struct {
	Email             string `json:"email"`
	Name              string `json:"name"`
	TemporaryPassword string `json:"-"`
}

// EmailChangedPayload payload.
type EmailChangedPayload struct {
	Name     string `json:"name"`
	OldEmail string `json:"old_email"`
	NewEmail string `json:"new_email"`
}
