package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/attendance-service/internal/config"
	"github.com/spec-kit/attendance-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     Mailer
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer Mailer, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     logger,
		cfg:        cfg,
	}
}

// Handlers maps each event the service mails about to its handler.
func (n *NotificationService) Handlers() map[events.EventType]events.EventHandler {
	return map[events.EventType]events.EventHandler{
		events.EventEmployeePasswordReset: n.handlePasswordReset,
		events.EventEmployeeEmailChanged:  n.handleEmailChanged,
	}
}

// RegisterHandlers subscribes the handlers directly, so mail goes out
// inside Publish.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for eventType, handler := range n.Handlers() {
		n.dispatcher.Subscribe(eventType, handler)
	}
}

func (n *NotificationService) handlePasswordReset(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("EmployeePasswordReset", zap.String("employee_id", event.EmployeeID))

	var body strings.Builder
	fmt.Fprintf(&body, "Hello %s,\n\n", payload.Name)
	body.WriteString("Your password reset request has been approved.\n\n")
	fmt.Fprintf(&body, "Employee ID: %s\nTemporary password: %s\n\n", event.EmployeeID, payload.TemporaryPassword)
	if n.cfg.PortalURL != "" {
		fmt.Fprintf(&body, "Sign in at %s and change your password right away.\n", n.cfg.PortalURL)
	} else {
		body.WriteString("Sign in and change your password right away.\n")
	}

	return n.send(ctx, Message{
		To:      payload.Email,
		Subject: "Your password has been reset",
		Body:    body.String(),
	})
}

func (n *NotificationService) handleEmailChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.EmailChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("EmployeeEmailChanged",
		zap.String("employee_id", event.EmployeeID),
		zap.String("new_email", payload.NewEmail))

	body := fmt.Sprintf("Hello %s,\n\nThe email address on your account (%s) was changed to this address "+
		"by an administrator. You have been signed out of every device; sign in again with the new address.\n",
		payload.Name, event.EmployeeID)
	return n.send(ctx, Message{
		To:      payload.NewEmail,
		Subject: "Your account email address was changed",
		Body:    body,
	})
}

func (n *NotificationService) send(ctx context.Context, msg Message) error {
	if n.mailer == nil || strings.TrimSpace(n.cfg.EmailFrom) == "" {
		n.logger.Debug("email delivery disabled", zap.String("subject", msg.Subject))
		return nil
	}
	msg.From = n.cfg.EmailFrom
	if err := n.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %q to %s: %w", msg.Subject, msg.To, err)
	}
	return nil
}
