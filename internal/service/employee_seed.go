package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/attendance-service/internal/domain"
	"github.com/spec-kit/attendance-service/internal/repository"
)

// SeedEmployee is one entry of a development seed file.
type SeedEmployee struct {
	EmployeeID  string `json:"employeeId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
}

// SeedReport counts what a seed run did.
type SeedReport struct {
	Created int
	Skipped int
}

// SeedEmployees creates the employees listed in a JSON array, hashing each
// password. Entries whose id or email already exist are skipped, so a seed
// file can be replayed on every start.
func (s *EmployeeService) SeedEmployees(ctx context.Context, r io.Reader) (SeedReport, error) {
	var entries []SeedEmployee
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return SeedReport{}, fmt.Errorf("decode employee seed: %w", err)
	}

	var report SeedReport
	for i, entry := range entries {
		if err := entry.validate(); err != nil {
			return report, fmt.Errorf("employee seed entry %d: %w", i, err)
		}
		hash, err := s.hasher.Hash(entry.Password)
		if err != nil {
			return report, err
		}
		employee := &domain.Employee{
			EmployeeID:   entry.EmployeeID,
			Name:         strings.TrimSpace(entry.Name),
			Email:        entry.Email,
			PasswordHash: hash,
			Department:   strings.TrimSpace(entry.Department),
			Designation:  strings.TrimSpace(entry.Designation),
			Active:       true,
		}
		err = s.employees.Create(ctx, employee)
		switch {
		case errors.Is(err, repository.ErrConflict):
			report.Skipped++
		case err != nil:
			return report, fmt.Errorf("seed employee %s: %w", entry.EmployeeID, err)
		default:
			report.Created++
		}
	}
	s.logger.Info("employee seed applied",
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

func (e SeedEmployee) validate() error {
	switch {
	case domain.NormalizeEmployeeID(e.EmployeeID) == "":
		return errors.New("employeeId is required")
	case !strings.Contains(e.Email, "@"):
		return fmt.Errorf("email %q is invalid", e.Email)
	case len(e.Password) < minPasswordLength:
		return errors.New(msgPasswordTooShort)
	}
	return nil
}
