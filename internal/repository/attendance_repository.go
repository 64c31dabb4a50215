package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/attendance-service/internal/domain"
)

// AttendanceRepository resolves hosted attendance photos by file name.
type AttendanceRepository interface {
	FindImage(ctx context.Context, filename string) (*domain.AttendanceImage, error)
}

type attendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository returns a Postgres-backed implementation.
func NewAttendanceRepository(pool *pgxpool.Pool) AttendanceRepository {
	return &attendanceRepository{pool: pool}
}

// FindImage matches the final path segment of either stored photo URL.
func (r *attendanceRepository) FindImage(ctx context.Context, filename string) (*domain.AttendanceImage, error) {
	const query = `
        SELECT employee_id,
               CASE WHEN right(clock_in_image, length($1) + 1) = '/' || $1 THEN clock_in_image ELSE clock_out_image END
        FROM attendance
        WHERE right(clock_in_image, length($1) + 1) = '/' || $1
           OR right(clock_out_image, length($1) + 1) = '/' || $1
        LIMIT 1`

	var image domain.AttendanceImage
	if err := r.pool.QueryRow(ctx, query, filename).Scan(&image.EmployeeID, &image.URL); err != nil {
		return nil, mapPgError(err)
	}
	return &image, nil
}
