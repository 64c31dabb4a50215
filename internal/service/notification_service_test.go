package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/attendance-service/internal/config"
	"github.com/spec-kit/attendance-service/internal/events"
)

func TestPasswordResetNotification(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	mailer := &recordingMailer{}
	NewNotificationService(dispatcher, mailer, nil, config.NotificationConfig{
		EmailFrom: "hr@corp.io",
		PortalURL: "https://portal.corp.io",
	}).RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:       events.EventEmployeePasswordReset,
		EmployeeID: "EMP040",
		Payload:    events.PasswordResetPayload{Email: "jo@corp.io", Name: "Jo", TemporaryPassword: "Tmp#12345678"},
	})
	require.NoError(t, err)

	msg := mailer.last(t)
	assert.Equal(t, "hr@corp.io", msg.From)
	assert.Equal(t, "jo@corp.io", msg.To)
	assert.Equal(t, "Your password has been reset", msg.Subject)
	assert.Equal(t, "Tmp#12345678", temporaryPasswordFrom(t, msg.Body))
	assert.Contains(t, msg.Body, "https://portal.corp.io")
}

func TestNotificationsDisabledWithoutSender(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	mailer := &recordingMailer{}
	NewNotificationService(dispatcher, mailer, nil, config.NotificationConfig{}).RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventEmployeeEmailChanged,
		Payload: events.EmailChangedPayload{Name: "Jo", OldEmail: "a@corp.io", NewEmail: "b@corp.io"},
	})
	require.NoError(t, err)
	assert.Empty(t, mailer.sent)
}

func TestNotificationRejectsUnexpectedPayload(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, &recordingMailer{}, nil, config.NotificationConfig{EmailFrom: "hr@corp.io"}).RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventEmployeeEmailChanged,
		Payload: "not a payload",
	})
	assert.Error(t, err)
}
