package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/attendance-service/internal/domain"
)

// EmployeeRepository defines persistence access for employees.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *domain.Employee) error
	// Update persists every field, password hash and generation included, in one
	// write, guarded on the generation the caller read like AdminRepository.Update.
	Update(ctx context.Context, employee *domain.Employee, expected int64) error
	GetByEmployeeID(ctx context.Context, employeeID string) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	// GetByIdentifier matches either the email or the employee id.
	GetByIdentifier(ctx context.Context, identifier string) (*domain.Employee, error)
	List(ctx context.Context) ([]domain.Employee, error)
}

type employeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository returns a Postgres-backed implementation.
func NewEmployeeRepository(pool *pgxpool.Pool) EmployeeRepository {
	return &employeeRepository{pool: pool}
}

const employeeColumns = `id, employee_id, name, email, password_hash, department, designation, profile_image, active, generation, created_at, updated_at`

func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var employee domain.Employee
	if err := row.Scan(
		&employee.ID,
		&employee.EmployeeID,
		&employee.Name,
		&employee.Email,
		&employee.PasswordHash,
		&employee.Department,
		&employee.Designation,
		&employee.ProfileImage,
		&employee.Active,
		&employee.Generation,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &employee, nil
}

func (r *employeeRepository) Create(ctx context.Context, employee *domain.Employee) error {
	const query = `
        INSERT INTO employees (employee_id, name, email, password_hash, department, designation, profile_image, active, generation)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		domain.NormalizeEmployeeID(employee.EmployeeID),
		employee.Name,
		domain.NormalizeEmail(employee.Email),
		employee.PasswordHash,
		employee.Department,
		employee.Designation,
		employee.ProfileImage,
		employee.Active,
		employee.Generation,
	).Scan(&employee.ID, &employee.CreatedAt, &employee.UpdatedAt)
	return mapPgError(err)
}

func (r *employeeRepository) Update(ctx context.Context, employee *domain.Employee, expected int64) error {
	const query = `
        UPDATE employees
        SET name=$1, email=$2, password_hash=$3, department=$4, designation=$5, profile_image=$6, active=$7, generation=$8, updated_at=NOW()
        WHERE employee_id=$9 AND generation=$10
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		employee.Name,
		domain.NormalizeEmail(employee.Email),
		employee.PasswordHash,
		employee.Department,
		employee.Designation,
		employee.ProfileImage,
		employee.Active,
		employee.Generation,
		employee.EmployeeID,
		expected,
	).Scan(&employee.UpdatedAt)
	if err = mapPgError(err); err == ErrNotFound {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM employees WHERE employee_id=$1)`, employee.EmployeeID).Scan(&exists); err != nil {
			return mapPgError(err)
		}
		if exists {
			return ErrStaleWrite
		}
		return ErrNotFound
	}
	return err
}

func (r *employeeRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*domain.Employee, error) {
	return scanEmployee(r.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE employee_id=$1`,
		domain.NormalizeEmployeeID(employeeID)))
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	return scanEmployee(r.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE email=$1`,
		domain.NormalizeEmail(email)))
}

func (r *employeeRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.Employee, error) {
	return scanEmployee(r.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE email=$1 OR employee_id=$2 LIMIT 1`,
		domain.NormalizeEmail(identifier),
		domain.NormalizeEmployeeID(identifier)))
}

func (r *employeeRepository) List(ctx context.Context) ([]domain.Employee, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY created_at DESC`)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var result []domain.Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *employee)
	}
	return result, rows.Err()
}
