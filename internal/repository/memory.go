package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/attendance-service/internal/domain"
)

// MemoryStore keeps every record in process memory. It backs local runs
// without a database and the service tests.
type MemoryStore struct {
	mu         sync.RWMutex
	seq        int64
	admins     map[string]*memAdmin
	employees  map[string]*memEmployee
	resets     map[string]*memReset
	attendance []domain.AttendanceImage
	now        func() time.Time
}

type memAdmin struct {
	seq int64
	domain.Admin
}

type memEmployee struct {
	seq int64
	domain.Employee
}

type memReset struct {
	seq int64
	domain.PasswordResetRequest
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		admins:    make(map[string]*memAdmin),
		employees: make(map[string]*memEmployee),
		resets:    make(map[string]*memReset),
		now:       time.Now,
	}
}

// Admins exposes the store as an AdminRepository.
func (s *MemoryStore) Admins() AdminRepository { return memoryAdmins{s} }

// Employees exposes the store as an EmployeeRepository.
func (s *MemoryStore) Employees() EmployeeRepository { return memoryEmployees{s} }

// PasswordResets exposes the store as a PasswordResetRepository.
func (s *MemoryStore) PasswordResets() PasswordResetRepository { return memoryResets{s} }

// Attendance exposes the store as an AttendanceRepository.
func (s *MemoryStore) Attendance() AttendanceRepository { return memoryAttendance{s} }

// AddAttendanceImage records a hosted photo owned by employeeID.
func (s *MemoryStore) AddAttendanceImage(employeeID, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendance = append(s.attendance, domain.AttendanceImage{
		EmployeeID: domain.NormalizeEmployeeID(employeeID),
		URL:        url,
	})
}

func (s *MemoryStore) next() int64 {
	s.seq++
	return s.seq
}

type memoryAdmins struct{ s *MemoryStore }

func (m memoryAdmins) Create(_ context.Context, admin *domain.Admin) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	admin.Email = domain.NormalizeEmail(admin.Email)
	for _, existing := range s.admins {
		if existing.Email == admin.Email {
			return ErrConflict
		}
		if admin.IsSuperAdmin && existing.IsSuperAdmin {
			return ErrConflict
		}
	}
	admin.ID = uuid.NewString()
	admin.CreatedAt = s.now()
	admin.UpdatedAt = admin.CreatedAt
	s.admins[admin.ID] = &memAdmin{seq: s.next(), Admin: *admin}
	return nil
}

func (m memoryAdmins) Update(_ context.Context, admin *domain.Admin, expected int64) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.admins[admin.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Generation != expected {
		return ErrStaleWrite
	}
	admin.Email = domain.NormalizeEmail(admin.Email)
	for id, existing := range s.admins {
		if id == admin.ID {
			continue
		}
		if existing.Email == admin.Email || (admin.IsSuperAdmin && existing.IsSuperAdmin) {
			return ErrConflict
		}
	}
	admin.CreatedAt = stored.CreatedAt
	admin.UpdatedAt = s.now()
	stored.Admin = *admin
	return nil
}

func (m memoryAdmins) Delete(_ context.Context, id string) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[id]; !ok {
		return ErrNotFound
	}
	delete(s.admins, id)
	return nil
}

func (m memoryAdmins) GetByID(_ context.Context, id string) (*domain.Admin, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.admins[id]
	if !ok {
		return nil, ErrNotFound
	}
	admin := stored.Admin
	return &admin, nil
}

func (m memoryAdmins) GetByEmail(_ context.Context, email string) (*domain.Admin, error) {
	email = domain.NormalizeEmail(email)
	return m.find(func(a *domain.Admin) bool { return a.Email == email })
}

func (m memoryAdmins) GetSuperAdmin(_ context.Context) (*domain.Admin, error) {
	return m.find(func(a *domain.Admin) bool { return a.IsSuperAdmin })
}

func (m memoryAdmins) GetEarliest(ctx context.Context) (*domain.Admin, error) {
	admins := m.sorted()
	if len(admins) == 0 {
		return nil, ErrNotFound
	}
	earliest := admins[len(admins)-1]
	return &earliest, nil
}

func (m memoryAdmins) List(_ context.Context) ([]domain.Admin, error) {
	return m.sorted(), nil
}

func (m memoryAdmins) Count(_ context.Context) (int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return len(m.s.admins), nil
}

func (m memoryAdmins) find(match func(*domain.Admin) bool) (*domain.Admin, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, stored := range s.admins {
		if match(&stored.Admin) {
			admin := stored.Admin
			return &admin, nil
		}
	}
	return nil, ErrNotFound
}

// sorted returns admins newest first.
func (m memoryAdmins) sorted() []domain.Admin {
	s := m.s
	s.mu.RLock()
	records := make([]*memAdmin, 0, len(s.admins))
	for _, stored := range s.admins {
		copied := *stored
		records = append(records, &copied)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool { return records[i].seq > records[j].seq })
	result := make([]domain.Admin, 0, len(records))
	for _, r := range records {
		result = append(result, r.Admin)
	}
	return result
}

type memoryEmployees struct{ s *MemoryStore }

func (m memoryEmployees) Create(_ context.Context, employee *domain.Employee) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	employee.EmployeeID = domain.NormalizeEmployeeID(employee.EmployeeID)
	employee.Email = domain.NormalizeEmail(employee.Email)
	if _, ok := s.employees[employee.EmployeeID]; ok {
		return ErrConflict
	}
	for _, existing := range s.employees {
		if existing.Email == employee.Email {
			return ErrConflict
		}
	}
	employee.ID = uuid.NewString()
	employee.CreatedAt = s.now()
	employee.UpdatedAt = employee.CreatedAt
	s.employees[employee.EmployeeID] = &memEmployee{seq: s.next(), Employee: *employee}
	return nil
}

func (m memoryEmployees) Update(_ context.Context, employee *domain.Employee, expected int64) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.NormalizeEmployeeID(employee.EmployeeID)
	stored, ok := s.employees[key]
	if !ok {
		return ErrNotFound
	}
	if stored.Generation != expected {
		return ErrStaleWrite
	}
	employee.Email = domain.NormalizeEmail(employee.Email)
	for id, existing := range s.employees {
		if id != key && existing.Email == employee.Email {
			return ErrConflict
		}
	}
	employee.EmployeeID = key
	employee.ID = stored.ID
	employee.CreatedAt = stored.CreatedAt
	employee.UpdatedAt = s.now()
	stored.Employee = *employee
	return nil
}

func (m memoryEmployees) GetByEmployeeID(_ context.Context, employeeID string) (*domain.Employee, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.employees[domain.NormalizeEmployeeID(employeeID)]
	if !ok {
		return nil, ErrNotFound
	}
	employee := stored.Employee
	return &employee, nil
}

func (m memoryEmployees) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	email = domain.NormalizeEmail(email)
	return m.find(func(e *domain.Employee) bool { return e.Email == email })
}

func (m memoryEmployees) GetByIdentifier(_ context.Context, identifier string) (*domain.Employee, error) {
	email := domain.NormalizeEmail(identifier)
	employeeID := domain.NormalizeEmployeeID(identifier)
	return m.find(func(e *domain.Employee) bool {
		return e.Email == email || e.EmployeeID == employeeID
	})
}

func (m memoryEmployees) List(_ context.Context) ([]domain.Employee, error) {
	s := m.s
	s.mu.RLock()
	records := make([]memEmployee, 0, len(s.employees))
	for _, stored := range s.employees {
		records = append(records, *stored)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool { return records[i].seq > records[j].seq })
	result := make([]domain.Employee, 0, len(records))
	for _, r := range records {
		result = append(result, r.Employee)
	}
	return result, nil
}

func (m memoryEmployees) find(match func(*domain.Employee) bool) (*domain.Employee, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, stored := range s.employees {
		if match(&stored.Employee) {
			employee := stored.Employee
			return &employee, nil
		}
	}
	return nil, ErrNotFound
}

type memoryResets struct{ s *MemoryStore }

func (m memoryResets) Create(_ context.Context, req *domain.PasswordResetRequest) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.resets {
		if existing.EmployeeID == req.EmployeeID && existing.Status == domain.ResetStatusPending && req.Status == domain.ResetStatusPending {
			return ErrConflict
		}
	}
	req.ID = uuid.NewString()
	req.Email = domain.NormalizeEmail(req.Email)
	req.CreatedAt = s.now()
	req.UpdatedAt = req.CreatedAt
	s.resets[req.ID] = &memReset{seq: s.next(), PasswordResetRequest: *req}
	return nil
}

func (m memoryResets) GetByID(_ context.Context, id string) (*domain.PasswordResetRequest, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.resets[id]
	if !ok {
		return nil, ErrNotFound
	}
	req := stored.PasswordResetRequest
	return &req, nil
}

func (m memoryResets) ListByStatus(_ context.Context, status domain.ResetStatus) ([]domain.PasswordResetRequest, error) {
	s := m.s
	s.mu.RLock()
	records := make([]memReset, 0)
	for _, stored := range s.resets {
		if stored.Status == status {
			records = append(records, *stored)
		}
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool { return records[i].seq > records[j].seq })
	result := make([]domain.PasswordResetRequest, 0, len(records))
	for _, r := range records {
		result = append(result, r.PasswordResetRequest)
	}
	return result, nil
}

func (m memoryResets) CountByStatus(ctx context.Context, status domain.ResetStatus) (int, error) {
	list, err := m.ListByStatus(ctx, status)
	return len(list), err
}

func (m memoryResets) Transition(_ context.Context, id string, from, to domain.ResetStatus) (*domain.PasswordResetRequest, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.resets[id]
	if !ok {
		return nil, ErrNotFound
	}
	if stored.Status != from {
		return nil, ErrStaleWrite
	}
	stored.Status = to
	stored.UpdatedAt = s.now()
	req := stored.PasswordResetRequest
	return &req, nil
}

type memoryAttendance struct{ s *MemoryStore }

func (m memoryAttendance) FindImage(_ context.Context, filename string) (*domain.AttendanceImage, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, image := range s.attendance {
		if strings.HasSuffix(image.URL, "/"+filename) {
			found := image
			return &found, nil
		}
	}
	return nil, ErrNotFound
}
