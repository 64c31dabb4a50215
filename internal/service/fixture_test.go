package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/attendance-service/internal/auth"
	"github.com/spec-kit/attendance-service/internal/config"
	"github.com/spec-kit/attendance-service/internal/domain"
	"github.com/spec-kit/attendance-service/internal/events"
	"github.com/spec-kit/attendance-service/internal/repository"
	apperrors "github.com/spec-kit/attendance-service/pkg/util"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) last(t *testing.T) Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1]
}

type fixture struct {
	store     *repository.MemoryStore
	hasher    auth.Hasher
	tokens    *auth.TokenManager
	resolver  *auth.Resolver
	mailer    *recordingMailer
	auth      *AuthService
	admins    *AdminService
	employees *EmployeeService
	resets    *PasswordResetService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	tokens, err := auth.NewTokenManager("service-test-secret")
	require.NoError(t, err)

	dispatcher := events.NewInMemoryDispatcher()
	mailer := &recordingMailer{}
	NewNotificationService(dispatcher, mailer, nil, config.NotificationConfig{EmailFrom: "noreply@corp.io"}).RegisterHandlers()

	return &fixture{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		resolver: auth.NewResolver(auth.ResolverDependencies{
			Tokens:    tokens,
			Carrier:   auth.NewSessionCarrier(false, 2*time.Hour, 8*time.Hour),
			Admins:    store.Admins(),
			Employees: store.Employees(),
		}),
		mailer: mailer,
		auth: NewAuthService(AuthDependencies{
			Admins:    store.Admins(),
			Employees: store.Employees(),
			Hasher:    hasher,
			Tokens:    tokens,
			TTLs:      SessionTTLs{Admin: 2 * time.Hour, Employee: 8 * time.Hour},
		}),
		admins:    NewAdminService(store.Admins(), hasher, nil),
		employees: NewEmployeeService(store.Employees(), hasher, dispatcher, nil),
		resets: NewPasswordResetService(PasswordResetDependencies{
			Resets:     store.PasswordResets(),
			Employees:  store.Employees(),
			Hasher:     hasher,
			Dispatcher: dispatcher,
		}),
	}
}

func (f *fixture) seedAdmin(t *testing.T, email, password string, super bool) *domain.Admin {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	admin := &domain.Admin{Name: strings.Split(email, "@")[0], Email: email, PasswordHash: hash, IsSuperAdmin: super, Active: true}
	require.NoError(t, f.store.Admins().Create(context.Background(), admin))
	return admin
}

func (f *fixture) seedEmployee(t *testing.T, employeeID, email, password string) *domain.Employee {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	return f.seedEmployeeRaw(t, employeeID, email, hash)
}

func (f *fixture) seedEmployeeRaw(t *testing.T, employeeID, email, stored string) *domain.Employee {
	t.Helper()
	employee := &domain.Employee{
		EmployeeID:   employeeID,
		Name:         "Employee " + employeeID,
		Email:        email,
		PasswordHash: stored,
		Department:   "Engineering",
		Designation:  "Developer",
		Active:       true,
	}
	require.NoError(t, f.store.Employees().Create(context.Background(), employee))
	return employee
}

func (f *fixture) resolve(role domain.Role, token string) (auth.Principal, error) {
	return f.resolver.Resolve(context.Background(), role, token)
}

func requireStatus(t *testing.T, err error, status int) *apperrors.DomainError {
	t.Helper()
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	assert.Equal(t, status, de.HTTPStatus, de.Message)
	return de
}

func temporaryPasswordFrom(t *testing.T, body string) string {
	t.Helper()
	_, rest, ok := strings.Cut(body, "Temporary password: ")
	require.True(t, ok, "no temporary password in %q", body)
	password, _, _ := strings.Cut(rest, "\n")
	return password
}
