package register

import (
	"context"
	"errors"
	"fmt"

	"github.com/labtrack/labtrack/internal/domain/intake"
	"github.com/labtrack/labtrack/internal/lab"
)

// IntakeLookup resolves a registration number against the master register.
// The intake service satisfies it.
type IntakeLookup interface {
	Get(ctx context.Context, regNo string) (*intake.Registration, error)
}

type Service struct {
	repo   Repository
	intake IntakeLookup
}

func NewService(repo Repository, intake IntakeLookup) *Service {
	return &Service{repo: repo, intake: intake}
}

func (s *Service) dept(key string) (lab.DepartmentConfig, error) {
	dept, ok := lab.DepartmentByKey(key)
	if !ok {
		return lab.DepartmentConfig{}, fmt.Errorf("unknown department: %s", key)
	}
	return dept, nil
}

func (s *Service) Get(ctx context.Context, deptKey, regNo string) (*Record, error) {
	dept, err := s.dept(deptKey)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, dept, regNo)
}

func (s *Service) List(ctx context.Context, deptKey string) ([]*Record, error) {
	dept, err := s.dept(deptKey)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, dept)
}

// Scan records the bench barcode scan, creating the department record on
// first contact. The master registration's print stamp, identity fields and
// department-relevant tests are mirrored onto the record so the turnaround
// pipeline sees the full printed→scanned interval and source filters keep
// matching the department row. Re-scans are accepted and keep the original
// stamp, so a mis-read at the bench cannot move the clock.
func (s *Service) Scan(ctx context.Context, deptKey, regNo string) error {
	dept, err := s.dept(deptKey)
	if err != nil {
		return err
	}
	reg, err := s.lookupRegistration(ctx, regNo)
	if err != nil {
		return err
	}
	rec, err := s.repo.Get(ctx, dept, regNo)
	if err == nil && rec.Scanned() {
		return nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.repo.MarkScanned(ctx, dept, regNo, reg)
}

// Save writes the department's result fields and flips the saved latch. The
// latch is one-way: a record that has been saved rejects any further save,
// whatever the payload. Corrections go through validation workflow, not
// silent edits.
func (s *Service) Save(ctx context.Context, deptKey, regNo string, results map[string]any, savedBy string) error {
	dept, err := s.dept(deptKey)
	if err != nil {
		return err
	}
	rec, err := s.repo.Get(ctx, dept, regNo)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("record %s has not been scanned in %s", regNo, dept.Key)
		}
		return err
	}
	if !rec.Scanned() {
		return fmt.Errorf("record %s has not been scanned in %s", regNo, dept.Key)
	}
	if rec.Saved {
		return fmt.Errorf("record %s is already saved", regNo)
	}
	return s.repo.SaveResults(ctx, dept, regNo, results, savedBy)
}

// Validate marks a saved record as reviewed. Only saved records can be
// validated, and validation is itself final.
func (s *Service) Validate(ctx context.Context, deptKey, regNo, validatedBy string) error {
	dept, err := s.dept(deptKey)
	if err != nil {
		return err
	}
	rec, err := s.repo.Get(ctx, dept, regNo)
	if err != nil {
		return err
	}
	if !rec.Saved {
		return fmt.Errorf("record %s has no saved results to validate", regNo)
	}
	if rec.Validated {
		return fmt.Errorf("record %s is already validated", regNo)
	}
	return s.repo.MarkValidated(ctx, dept, regNo, validatedBy)
}

func (s *Service) lookupRegistration(ctx context.Context, regNo string) (*intake.Registration, error) {
	if s.intake == nil {
		return nil, nil
	}
	reg, err := s.intake.Get(ctx, regNo)
	if errors.Is(err, intake.ErrNotFound) {
		return nil, fmt.Errorf("registration %s not found in master register", regNo)
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}
