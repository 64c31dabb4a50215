package worker

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/attendance-service/internal/events"
)

// ErrNotificationQueueFull is returned from Publish when delivery is backed up.
var ErrNotificationQueueFull = errors.New("notification queue full")

const deliveryTimeout = 15 * time.Second

// Notifier supplies the mail handlers to run off the request path.
type Notifier interface {
	Handlers() map[events.EventType]events.EventHandler
}

type delivery struct {
	event   events.Event
	handler events.EventHandler
}

// StartNotificationWorker subscribes every notifier handler through a
// bounded queue and delivers from one goroutine, so password reset and email
// change requests never wait on the mailer. Publish fails fast once size
// deliveries are pending. When ctx ends the queue is drained and the returned
// channel closed.
func StartNotificationWorker(ctx context.Context, dispatcher events.Dispatcher, notifier Notifier, size int, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if dispatcher == nil || notifier == nil {
		close(done)
		return done
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if size <= 0 {
		size = 1
	}

	queue := make(chan delivery, size)
	handlers := notifier.Handlers()
	registered := make([]string, 0, len(handlers))
	for eventType, handler := range handlers {
		handler := handler
		dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			select {
			case queue <- delivery{event: event, handler: handler}:
				return nil
			default:
				return ErrNotificationQueueFull
			}
		})
		registered = append(registered, string(eventType))
	}
	sort.Strings(registered)
	logger.Info("notification worker started",
		zap.Strings("events", registered),
		zap.Int("queue_size", size))

	go func() {
		defer close(done)
		for {
			select {
			case d := <-queue:
				deliver(d, logger)
			case <-ctx.Done():
				for {
					select {
					case d := <-queue:
						deliver(d, logger)
					default:
						logger.Info("notification worker stopped")
						return
					}
				}
			}
		}
	}()
	return done
}

// deliver runs detached from the publishing request, which has usually
// finished by now.
func deliver(d delivery, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	start := time.Now()
	err := d.handler(ctx, d.event)
	fields := []zap.Field{
		zap.String("event", string(d.event.Type)),
		zap.String("event_id", d.event.ID),
		zap.String("employee_id", d.event.EmployeeID),
		zap.Duration("took", time.Since(start)),
	}
	if err != nil {
		logger.Error("notification delivery failed", append(fields, zap.Error(err))...)
		return
	}
	logger.Debug("notification delivered", fields...)
}
