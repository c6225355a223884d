package register

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/labtrack/labtrack/internal/domain/intake"
	"github.com/labtrack/labtrack/internal/lab"
	"github.com/labtrack/labtrack/internal/platform/store"
)

// ErrNotFound is returned when a department register has no record for a
// regNo. Records appear lazily, so a miss usually just means the specimen has
// not been scanned yet.
var ErrNotFound = errors.New("register record not found")

// StoreRepository persists processed records as documents in the department's
// register collection, keyed by registration number. All writes go through
// Merge so the lazy-create and append semantics fall out of the store.
type StoreRepository struct {
	store store.Store
}

func NewStoreRepository(s store.Store) *StoreRepository {
	return &StoreRepository{store: s}
}

func (r *StoreRepository) Get(ctx context.Context, dept lab.DepartmentConfig, regNo string) (*Record, error) {
	doc, err := r.store.Get(ctx, dept.Collection, regNo)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s record %s: %w", dept.Key, regNo, err)
	}
	return recordFromDoc(dept.Key, doc), nil
}

func (r *StoreRepository) List(ctx context.Context, dept lab.DepartmentConfig) ([]*Record, error) {
	docs, err := r.store.List(ctx, dept.Collection)
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", dept.Key, err)
	}
	recs := make([]*Record, 0, len(docs))
	for _, doc := range docs {
		recs = append(recs, recordFromDoc(dept.Key, doc))
	}
	return recs, nil
}

// MarkScanned stamps the bench scan and seeds the record with the master
// registration's identity and the department's slice of its selected tests.
// Department documents must stand on their own in the analytics pipeline:
// without a mirrored source they match no source filter, and without
// mirrored tests the department's saved totals never count them.
func (r *StoreRepository) MarkScanned(ctx context.Context, dept lab.DepartmentConfig, regNo string, reg *intake.Registration) error {
	fields := map[string]any{
		"regNo":       regNo,
		"timeScanned": store.ServerTimestamp,
	}
	if reg != nil {
		if reg.TimePrinted != nil {
			fields["timePrinted"] = *reg.TimePrinted
		}
		if reg.PatientName != "" {
			fields["name"] = reg.PatientName
		}
		if reg.Age > 0 {
			fields["age"] = strconv.Itoa(reg.Age)
		}
		if reg.Gender != "" {
			fields["gender"] = reg.Gender
		}
		if reg.Source != "" {
			fields["source"] = reg.Source
		}
		if tests := departmentTests(reg, dept); len(tests) > 0 {
			fields["selectedTests"] = tests
		}
	}
	return r.merge(ctx, dept, regNo, fields)
}

// departmentTests picks the registration's test names tagged for the
// department.
func departmentTests(reg *intake.Registration, dept lab.DepartmentConfig) []string {
	var tests []string
	for _, st := range reg.SelectedTests {
		if st.Department == dept.Key {
			tests = append(tests, st.Test)
		}
	}
	return tests
}

func (r *StoreRepository) SaveResults(ctx context.Context, dept lab.DepartmentConfig, regNo string, results map[string]any, savedBy string) error {
	return r.merge(ctx, dept, regNo, map[string]any{
		"regNo":     regNo,
		"results":   results,
		"saved":     true,
		"savedBy":   savedBy,
		"timeSaved": store.ServerTimestamp,
	})
}

func (r *StoreRepository) MarkValidated(ctx context.Context, dept lab.DepartmentConfig, regNo string, validatedBy string) error {
	return r.merge(ctx, dept, regNo, map[string]any{
		"regNo":         regNo,
		"validated":     true,
		"validatedBy":   validatedBy,
		"timeValidated": store.ServerTimestamp,
	})
}

func (r *StoreRepository) merge(ctx context.Context, dept lab.DepartmentConfig, regNo string, fields map[string]any) error {
	if err := r.store.Merge(ctx, dept.Collection, regNo, fields); err != nil {
		return fmt.Errorf("merge %s record %s: %w", dept.Key, regNo, err)
	}
	return nil
}
