package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/attendance-service/internal/auth"
	"github.com/spec-kit/attendance-service/internal/domain"
)

func validRegistration(email string) RegisterAdminInput {
	return RegisterAdminInput{Name: " New Admin ", Email: email, Password: "hunter22", ConfirmPassword: "hunter22"}
}

func principalOf(a *domain.Admin) auth.Principal {
	return auth.Principal{ID: a.ID, Role: domain.RoleAdmin, Email: a.Email, IsSuperAdmin: a.IsSuperAdmin, Active: a.Active}
}

func TestFirstTimeSetup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin, err := f.admins.FirstTimeSetup(ctx, validRegistration("First@Corp.io"))
	require.NoError(t, err)
	assert.True(t, admin.IsSuperAdmin)
	assert.Equal(t, "first@corp.io", admin.Email)
	assert.Equal(t, "New Admin", admin.Name)
	assert.True(t, f.hasher.Verify("hunter22", admin.PasswordHash))

	_, err = f.admins.FirstTimeSetup(ctx, validRegistration("second@corp.io"))
	requireStatus(t, err, http.StatusForbidden)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]RegisterAdminInput{
		"missing field": {Name: "a", Email: "a@corp.io", Password: "hunter22"},
		"mismatch":      {Name: "a", Email: "a@corp.io", Password: "hunter22", ConfirmPassword: "hunter23"},
		"too short":     {Name: "a", Email: "a@corp.io", Password: "abc", ConfirmPassword: "abc"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.admins.Register(ctx, nil, nil, in)
			requireStatus(t, err, http.StatusBadRequest)
		})
	}
}

func TestRegisterRequiresSuperAdminOnceSetUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.admins.Register(ctx, nil, nil, validRegistration("root@corp.io"))
	require.NoError(t, err)
	assert.True(t, first.IsSuperAdmin)

	_, err = f.admins.Register(ctx, nil, auth.ErrNoSession, validRegistration("x@corp.io"))
	requireStatus(t, err, http.StatusUnauthorized)

	_, err = f.admins.Register(ctx, nil, auth.ErrStaleSession, validRegistration("x@corp.io"))
	de := requireStatus(t, err, http.StatusUnauthorized)
	assert.Equal(t, "Session expired. Please log in again.", de.Message)

	root := principalOf(first)
	second, err := f.admins.Register(ctx, &root, nil, validRegistration("ops@corp.io"))
	require.NoError(t, err)
	assert.False(t, second.IsSuperAdmin)

	ops := principalOf(second)
	_, err = f.admins.Register(ctx, &ops, nil, validRegistration("y@corp.io"))
	requireStatus(t, err, http.StatusForbidden)

	_, err = f.admins.Register(ctx, &root, nil, validRegistration("OPS@corp.io"))
	requireStatus(t, err, http.StatusConflict)
}

func TestUpdateStatusRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.seedAdmin(t, "root@corp.io", "hunter22", true)
	ops := f.seedAdmin(t, "ops@corp.io", "hunter22", false)
	other := f.seedAdmin(t, "other@corp.io", "hunter22", false)

	_, err := f.admins.UpdateStatus(ctx, principalOf(root), ops.ID, "paused")
	requireStatus(t, err, http.StatusBadRequest)
	_, err = f.admins.UpdateStatus(ctx, principalOf(ops), other.ID, AdminStatusInactive)
	requireStatus(t, err, http.StatusForbidden)
	_, err = f.admins.UpdateStatus(ctx, principalOf(root), root.ID, AdminStatusInactive)
	requireStatus(t, err, http.StatusBadRequest)
	_, err = f.admins.UpdateStatus(ctx, principalOf(root), "missing", AdminStatusInactive)
	requireStatus(t, err, http.StatusNotFound)

	_, opsSession, err := f.auth.LoginAdmin(ctx, "ops@corp.io", "hunter22")
	require.NoError(t, err)

	updated, err := f.admins.UpdateStatus(ctx, principalOf(root), ops.ID, AdminStatusInactive)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	_, err = f.resolve(domain.RoleAdmin, opsSession.Token)
	assert.ErrorIs(t, err, auth.ErrStaleSession, "deactivation ends existing sessions")
	_, _, err = f.auth.LoginAdmin(ctx, "ops@corp.io", "hunter22")
	requireStatus(t, err, http.StatusForbidden)

	reactivated, err := f.admins.UpdateStatus(ctx, principalOf(root), ops.ID, AdminStatusActive)
	require.NoError(t, err)
	assert.True(t, reactivated.Active)
}

func TestUpdateStatusCannotTouchSuperAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.seedAdmin(t, "root@corp.io", "hunter22", true)

	// A principal claiming super admin without being the stored one.
	impostor := auth.Principal{ID: "someone", Role: domain.RoleAdmin, IsSuperAdmin: true}
	_, err := f.admins.UpdateStatus(ctx, impostor, root.ID, AdminStatusInactive)
	de := requireStatus(t, err, http.StatusForbidden)
	assert.Equal(t, "The first admin status cannot be changed", de.Message)
}

func TestDeleteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.seedAdmin(t, "root@corp.io", "hunter22", true)
	ops := f.seedAdmin(t, "ops@corp.io", "hunter22", false)
	other := f.seedAdmin(t, "other@corp.io", "hunter22", false)

	_, err := f.admins.Delete(ctx, principalOf(root), "missing")
	requireStatus(t, err, http.StatusNotFound)
	_, err = f.admins.Delete(ctx, principalOf(root), root.ID)
	requireStatus(t, err, http.StatusBadRequest)
	_, err = f.admins.Delete(ctx, principalOf(ops), other.ID)
	requireStatus(t, err, http.StatusForbidden)
	_, err = f.admins.Delete(ctx, principalOf(ops), root.ID)
	requireStatus(t, err, http.StatusForbidden)

	deleted, err := f.admins.Delete(ctx, principalOf(root), ops.ID)
	require.NoError(t, err)
	assert.Equal(t, ops.ID, deleted.ID)

	_, err = f.store.Admins().GetByID(ctx, ops.ID)
	assert.Error(t, err)
}

func TestEnsureSuperAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.admins.EnsureSuperAdmin(ctx)
	requireStatus(t, err, http.StatusNotFound)

	earliest := f.seedAdmin(t, "early@corp.io", "hunter22", false)
	f.seedAdmin(t, "late@corp.io", "hunter22", false)

	promoted, err := f.admins.EnsureSuperAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, earliest.ID, promoted.ID)
	assert.True(t, promoted.IsSuperAdmin)

	_, err = f.admins.EnsureSuperAdmin(ctx)
	de := requireStatus(t, err, http.StatusConflict)
	assert.Contains(t, de.Details, "superAdmin")
}
