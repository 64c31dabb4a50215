package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/attendance-service/internal/domain"
)

// PasswordResetRepository manages employee password reset requests.
type PasswordResetRepository interface {
	// Create fails with ErrConflict when the employee already has a pending request.
	Create(ctx context.Context, req *domain.PasswordResetRequest) error
	GetByID(ctx context.Context, id string) (*domain.PasswordResetRequest, error)
	ListByStatus(ctx context.Context, status domain.ResetStatus) ([]domain.PasswordResetRequest, error)
	CountByStatus(ctx context.Context, status domain.ResetStatus) (int, error)
	// Transition moves a request from one status to another, failing with
	// ErrStaleWrite when it is no longer in the expected status.
	Transition(ctx context.Context, id string, from, to domain.ResetStatus) (*domain.PasswordResetRequest, error)
}

type passwordResetRepository struct {
	pool *pgxpool.Pool
}

// NewPasswordResetRepository constructs repository.
func NewPasswordResetRepository(pool *pgxpool.Pool) PasswordResetRepository {
	return &passwordResetRepository{pool: pool}
}

const resetColumns = `id, employee_id, email, name, department, designation, status, created_at, updated_at`

func scanReset(row pgx.Row) (*domain.PasswordResetRequest, error) {
	var req domain.PasswordResetRequest
	if err := row.Scan(
		&req.ID,
		&req.EmployeeID,
		&req.Email,
		&req.Name,
		&req.Department,
		&req.Designation,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &req, nil
}

func (r *passwordResetRepository) Create(ctx context.Context, req *domain.PasswordResetRequest) error {
	const query = `
        INSERT INTO password_reset_requests (employee_id, email, name, department, designation, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return mapPgError(r.pool.QueryRow(ctx, query,
		req.EmployeeID,
		domain.NormalizeEmail(req.Email),
		req.Name,
		req.Department,
		req.Designation,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt))
}

func (r *passwordResetRepository) GetByID(ctx context.Context, id string) (*domain.PasswordResetRequest, error) {
	return scanReset(r.pool.QueryRow(ctx, `SELECT `+resetColumns+` FROM password_reset_requests WHERE id=$1`, id))
}

func (r *passwordResetRepository) ListByStatus(ctx context.Context, status domain.ResetStatus) ([]domain.PasswordResetRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resetColumns+` FROM password_reset_requests WHERE status=$1 ORDER BY created_at DESC`, status)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var result []domain.PasswordResetRequest
	for rows.Next() {
		req, err := scanReset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

func (r *passwordResetRepository) CountByStatus(ctx context.Context, status domain.ResetStatus) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM password_reset_requests WHERE status=$1`, status).Scan(&count)
	return count, mapPgError(err)
}

func (r *passwordResetRepository) Transition(ctx context.Context, id string, from, to domain.ResetStatus) (*domain.PasswordResetRequest, error) {
	const query = `
        UPDATE password_reset_requests SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3
        RETURNING ` + resetColumns
	req, err := scanReset(r.pool.QueryRow(ctx, query, to, id, from))
	if err == ErrNotFound {
		if _, getErr := r.GetByID(ctx, id); getErr == nil {
			return nil, ErrStaleWrite
		}
	}
	return req, err
}
