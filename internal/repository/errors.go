package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when no record matches.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("record conflicts with an existing one")
	// ErrStaleWrite is returned when the stored generation moved after the
	// caller read it, or when a status transition lost a race.
	ErrStaleWrite = errors.New("record changed concurrently")
)

const (
	uniqueViolation = "23505"
	// invalidTextRepresentation is raised when a path id is not a valid uuid.
	invalidTextRepresentation = "22P02"
)

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return ErrConflict
		case invalidTextRepresentation:
			return ErrNotFound
		}
	}
	return err
}
