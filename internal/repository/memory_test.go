package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/attendance-service/internal/domain"
)

func TestMemoryAdminsRejectStaleGeneration(t *testing.T) {
	ctx := context.Background()
	admins := NewMemoryStore().Admins()

	admin := &domain.Admin{Name: "Root", Email: "Root@Example.com", PasswordHash: "h1", Active: true}
	require.NoError(t, admins.Create(ctx, admin))
	assert.Equal(t, "root@example.com", admin.Email)

	stale := *admin
	admin.RotatePassword("h2")
	require.NoError(t, admins.Update(ctx, admin, 0))

	stale.PasswordHash = "h-stale"
	assert.ErrorIs(t, admins.Update(ctx, &stale, stale.Generation), ErrStaleWrite)

	stored, err := admins.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Generation)
	assert.Equal(t, "h2", stored.PasswordHash)
}

func TestMemoryEmployeesSecondRotationFromSameReadIsStale(t *testing.T) {
	ctx := context.Background()
	employees := NewMemoryStore().Employees()
	require.NoError(t, employees.Create(ctx, &domain.Employee{EmployeeID: "EMP001", Email: "jo@corp.io", PasswordHash: "h0"}))

	first, err := employees.GetByEmployeeID(ctx, "EMP001")
	require.NoError(t, err)
	second, err := employees.GetByEmployeeID(ctx, "EMP001")
	require.NoError(t, err)

	first.RotatePassword("h-reset")
	second.RotatePassword("h-changed")
	require.NoError(t, employees.Update(ctx, first, 0))
	assert.ErrorIs(t, employees.Update(ctx, second, 0), ErrStaleWrite)

	stored, err := employees.GetByEmployeeID(ctx, "EMP001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Generation)
	assert.Equal(t, "h-reset", stored.PasswordHash)
}

func TestMemoryAdminsConcurrentRotationsEachBumpGeneration(t *testing.T) {
	ctx := context.Background()
	admins := NewMemoryStore().Admins()
	admin := &domain.Admin{Email: "root@corp.io", PasswordHash: "h0", Active: true}
	require.NoError(t, admins.Create(ctx, admin))

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for {
				current, err := admins.GetByID(ctx, admin.ID)
				if err != nil {
					errs <- err
					return
				}
				read := current.Generation
				current.RotatePassword(fmt.Sprintf("h%d", i))
				err = admins.Update(ctx, current, read)
				if errors.Is(err, ErrStaleWrite) {
					continue
				}
				errs <- err
				return
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := admins.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(writers), stored.Generation)
}

func TestMemoryAdminsSingleSuperAdmin(t *testing.T) {
	ctx := context.Background()
	admins := NewMemoryStore().Admins()

	require.NoError(t, admins.Create(ctx, &domain.Admin{Email: "a@x.io", IsSuperAdmin: true}))
	assert.ErrorIs(t, admins.Create(ctx, &domain.Admin{Email: "b@x.io", IsSuperAdmin: true}), ErrConflict)
	assert.ErrorIs(t, admins.Create(ctx, &domain.Admin{Email: "A@x.io"}), ErrConflict)

	second := &domain.Admin{Email: "c@x.io"}
	require.NoError(t, admins.Create(ctx, second))

	earliest, err := admins.GetEarliest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", earliest.Email)

	list, err := admins.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c@x.io", list[0].Email)

	second.IsSuperAdmin = true
	assert.ErrorIs(t, admins.Update(ctx, second, second.Generation), ErrConflict)
}

func TestMemoryEmployeesIdentifierLookup(t *testing.T) {
	ctx := context.Background()
	employees := NewMemoryStore().Employees()

	require.NoError(t, employees.Create(ctx, &domain.Employee{EmployeeID: "emp001", Email: "Jo@Corp.io", Name: "Jo"}))

	byID, err := employees.GetByIdentifier(ctx, " EMP001 ")
	require.NoError(t, err)
	assert.Equal(t, "EMP001", byID.EmployeeID)

	byEmail, err := employees.GetByIdentifier(ctx, "jo@corp.io")
	require.NoError(t, err)
	assert.Equal(t, byID.ID, byEmail.ID)

	_, err = employees.GetByIdentifier(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	err = employees.Update(ctx, &domain.Employee{EmployeeID: "missing"}, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryResetsOnePendingPerEmployee(t *testing.T) {
	ctx := context.Background()
	resets := NewMemoryStore().PasswordResets()

	first := &domain.PasswordResetRequest{EmployeeID: "EMP001", Status: domain.ResetStatusPending}
	require.NoError(t, resets.Create(ctx, first))
	assert.ErrorIs(t, resets.Create(ctx, &domain.PasswordResetRequest{EmployeeID: "EMP001", Status: domain.ResetStatusPending}), ErrConflict)

	approved, err := resets.Transition(ctx, first.ID, domain.ResetStatusPending, domain.ResetStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.ResetStatusApproved, approved.Status)

	_, err = resets.Transition(ctx, first.ID, domain.ResetStatusPending, domain.ResetStatusRejected)
	assert.ErrorIs(t, err, ErrStaleWrite)

	require.NoError(t, resets.Create(ctx, &domain.PasswordResetRequest{EmployeeID: "EMP001", Status: domain.ResetStatusPending}))
	count, err := resets.CountByStatus(ctx, domain.ResetStatusPending)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryAttendanceFindImage(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.AddAttendanceImage("emp001", "https://cdn.example.com/attendance/clockin_1.jpg")

	image, err := store.Attendance().FindImage(ctx, "clockin_1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "EMP001", image.EmployeeID)

	_, err = store.Attendance().FindImage(ctx, "in_1.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}
