package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labtrack/labtrack/internal/lab"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register validates and records a new specimen registration. The source is
// normalized onto the fixed enum, unknown values falling back to "Unknown".
func (s *Service) Register(ctx context.Context, reg *Registration) error {
	reg.RegNo = strings.TrimSpace(reg.RegNo)
	reg.PatientName = strings.TrimSpace(reg.PatientName)
	if reg.RegNo == "" {
		return fmt.Errorf("registration number is required")
	}
	if reg.PatientName == "" {
		return fmt.Errorf("patient name is required")
	}
	if reg.Age < 0 {
		return fmt.Errorf("age cannot be negative")
	}
	for i, st := range reg.SelectedTests {
		if strings.TrimSpace(st.Test) == "" {
			return fmt.Errorf("selected test %d has no test name", i)
		}
		if _, ok := lab.DepartmentByKey(st.Department); !ok {
			return fmt.Errorf("unknown department: %s", st.Department)
		}
	}
	reg.Source = lab.NormalizeSource(reg.Source)

	if _, err := s.repo.Get(ctx, reg.RegNo); err == nil {
		return fmt.Errorf("registration %s already exists", reg.RegNo)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	return s.repo.Create(ctx, reg)
}

func (s *Service) Get(ctx context.Context, regNo string) (*Registration, error) {
	return s.repo.Get(ctx, regNo)
}

func (s *Service) List(ctx context.Context) ([]*Registration, error) {
	return s.repo.List(ctx)
}

// Exists reports whether a registration number is present in the master
// register. Department benches use it to reject scans of unknown barcodes.
func (s *Service) Exists(ctx context.Context, regNo string) (bool, error) {
	_, err := s.repo.Get(ctx, regNo)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkPrinted stamps the label print time. Reprinting is allowed; the stamp
// moves to the latest print, which is what the turnaround clock should see.
func (s *Service) MarkPrinted(ctx context.Context, regNo string) error {
	if _, err := s.repo.Get(ctx, regNo); err != nil {
		return err
	}
	return s.repo.MarkPrinted(ctx, regNo)
}

// MarkCollected stamps the specimen collection time. The registration must
// already carry a print stamp; collection before printing indicates a workflow
// error at the bench.
func (s *Service) MarkCollected(ctx context.Context, regNo string) error {
	reg, err := s.repo.Get(ctx, regNo)
	if err != nil {
		return err
	}
	if !reg.Printed() {
		return fmt.Errorf("registration %s has no printed label", regNo)
	}
	return s.repo.MarkCollected(ctx, regNo)
}
