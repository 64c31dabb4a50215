package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/attendance-service/internal/domain"
)

// AdminRepository handles persistence for admins.
type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) error
	// Update persists every field, password hash and generation included, in one
	// write. It only applies while the stored generation still equals expected,
	// the value the caller read; otherwise it returns ErrStaleWrite.
	Update(ctx context.Context, admin *domain.Admin, expected int64) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Admin, error)
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)
	GetSuperAdmin(ctx context.Context) (*domain.Admin, error)
	GetEarliest(ctx context.Context) (*domain.Admin, error)
	List(ctx context.Context) ([]domain.Admin, error)
	Count(ctx context.Context) (int, error)
}

type adminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository instantiates the Postgres repository.
func NewAdminRepository(pool *pgxpool.Pool) AdminRepository {
	return &adminRepository{pool: pool}
}

const adminColumns = `id, name, email, password_hash, profile_image, is_super_admin, active, generation, created_at, updated_at`

func scanAdmin(row pgx.Row) (*domain.Admin, error) {
	var admin domain.Admin
	if err := row.Scan(
		&admin.ID,
		&admin.Name,
		&admin.Email,
		&admin.PasswordHash,
		&admin.ProfileImage,
		&admin.IsSuperAdmin,
		&admin.Active,
		&admin.Generation,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &admin, nil
}

func (r *adminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	const query = `
        INSERT INTO admins (name, email, password_hash, profile_image, is_super_admin, active, generation)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		admin.Name,
		domain.NormalizeEmail(admin.Email),
		admin.PasswordHash,
		admin.ProfileImage,
		admin.IsSuperAdmin,
		admin.Active,
		admin.Generation,
	).Scan(&admin.ID, &admin.CreatedAt, &admin.UpdatedAt)
	return mapPgError(err)
}

func (r *adminRepository) Update(ctx context.Context, admin *domain.Admin, expected int64) error {
	const query = `
        UPDATE admins
        SET name=$1, email=$2, password_hash=$3, profile_image=$4, is_super_admin=$5, active=$6, generation=$7, updated_at=NOW()
        WHERE id=$8 AND generation=$9
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		admin.Name,
		domain.NormalizeEmail(admin.Email),
		admin.PasswordHash,
		admin.ProfileImage,
		admin.IsSuperAdmin,
		admin.Active,
		admin.Generation,
		admin.ID,
		expected,
	).Scan(&admin.UpdatedAt)
	if err = mapPgError(err); err == ErrNotFound {
		return r.missingOrStale(ctx, admin.ID)
	}
	return err
}

func (r *adminRepository) missingOrStale(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM admins WHERE id=$1)`, id).Scan(&exists); err != nil {
		return mapPgError(err)
	}
	if exists {
		return ErrStaleWrite
	}
	return ErrNotFound
}

func (r *adminRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM admins WHERE id=$1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *adminRepository) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	return scanAdmin(r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE id=$1`, id))
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	return scanAdmin(r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE email=$1`, domain.NormalizeEmail(email)))
}

func (r *adminRepository) GetSuperAdmin(ctx context.Context) (*domain.Admin, error) {
	return scanAdmin(r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE is_super_admin LIMIT 1`))
}

func (r *adminRepository) GetEarliest(ctx context.Context) (*domain.Admin, error) {
	return scanAdmin(r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins ORDER BY created_at ASC LIMIT 1`))
}

func (r *adminRepository) List(ctx context.Context) ([]domain.Admin, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+adminColumns+` FROM admins ORDER BY created_at DESC`)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var result []domain.Admin
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *admin)
	}
	return result, rows.Err()
}

func (r *adminRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return 0, mapPgError(err)
	}
	return count, nil
}
