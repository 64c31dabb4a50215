package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsAllHandlersAndJoinsErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("smtp down")

	var calls []string
	d.Subscribe(EventEmployeePasswordReset, func(context.Context, Event) error {
		calls = append(calls, "first")
		return boom
	})
	d.Subscribe(EventEmployeePasswordReset, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventEmployeeEmailChanged, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventEmployeePasswordReset, EmployeeID: "EMP001"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcherWithoutListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventEmployeeEmailChanged}))
}

func TestDispatcherSurvivesPanickingHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	delivered := false
	d.Subscribe(EventEmployeeEmailChanged, func(context.Context, Event) error {
		panic("nil mailer")
	})
	d.Subscribe(EventEmployeeEmailChanged, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventEmployeeEmailChanged, EmployeeID: "EMP007"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "employee_email_changed handler 0 for EMP007: panic: nil mailer")
	assert.True(t, delivered)
}
