package register

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/labtrack/labtrack/internal/domain/intake"
	"github.com/labtrack/labtrack/internal/lab"
	"github.com/labtrack/labtrack/internal/platform/store"
)

type fakeIntake struct {
	regs map[string]*intake.Registration
}

func (f *fakeIntake) Get(_ context.Context, regNo string) (*intake.Registration, error) {
	reg, ok := f.regs[regNo]
	if !ok {
		return nil, intake.ErrNotFound
	}
	return reg, nil
}

func newTestService(regNos ...string) (*Service, *store.MemoryStore) {
	s := store.NewMemoryStore()
	printed := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	regs := make(map[string]*intake.Registration)
	for _, r := range regNos {
		regs[r] = &intake.Registration{
			RegNo:       r,
			PatientName: "P " + r,
			Age:         34,
			Gender:      "F",
			Source:      "OPD",
			SelectedTests: []intake.SelectedTest{
				{Department: "haematology", Test: "COMPLETE BLOOD COUNT (CBC)"},
				{Department: "biochemistry", Test: "BLOOD UREA"},
			},
			TimePrinted: &printed,
		}
	}
	return NewService(NewStoreRepository(s), &fakeIntake{regs: regs}), s
}

func TestService_Scan_CreatesLazily(t *testing.T) {
	svc, s := newTestService("10001")
	ctx := context.Background()

	if err := svc.Scan(ctx, "haematology", "10001"); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	rec, err := svc.Get(ctx, "haematology", "10001")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !rec.Scanned() {
		t.Error("expected scan stamp")
	}
	if rec.TimePrinted == nil {
		t.Error("expected print stamp copied from the master registration")
	}

	docs, _ := s.List(ctx, "haematology_register")
	if len(docs) != 1 {
		t.Fatalf("expected 1 document in register collection, got %d", len(docs))
	}
}

func TestService_Scan_UnknownRegNo(t *testing.T) {
	svc, _ := newTestService()
	if err := svc.Scan(context.Background(), "haematology", "99999"); err == nil {
		t.Error("expected error for regNo missing from master register")
	}
}

func TestService_Scan_UnknownDepartment(t *testing.T) {
	svc, _ := newTestService("10001")
	if err := svc.Scan(context.Background(), "radiology", "10001"); err == nil {
		t.Error("expected error for unknown department")
	}
}

func TestService_Scan_KeepsFirstStamp(t *testing.T) {
	svc, s := newTestService("10001")
	ctx := context.Background()

	svc.Scan(ctx, "haematology", "10001")
	first, _ := svc.Get(ctx, "haematology", "10001")

	if err := svc.Scan(ctx, "haematology", "10001"); err != nil {
		t.Fatalf("re-scan error: %v", err)
	}
	second, _ := svc.Get(ctx, "haematology", "10001")

	if !first.TimeScanned.Equal(*second.TimeScanned) {
		t.Error("re-scan moved the scan stamp")
	}

	docs, _ := s.List(ctx, "haematology_register")
	if len(docs) != 1 {
		t.Errorf("expected 1 document, got %d", len(docs))
	}
}

func TestService_Save_Latch(t *testing.T) {
	svc, _ := newTestService("10001")
	ctx := context.Background()

	svc.Scan(ctx, "haematology", "10001")

	results := map[string]any{"hb": "13.2", "wbc": "7.1"}
	if err := svc.Save(ctx, "haematology", "10001", results, "tech-1"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	rec, _ := svc.Get(ctx, "haematology", "10001")
	if !rec.Saved {
		t.Error("expected saved latch set")
	}
	if rec.TimeSaved == nil {
		t.Error("expected saved timestamp")
	}
	if rec.SavedBy != "tech-1" {
		t.Errorf("expected savedBy tech-1, got %q", rec.SavedBy)
	}
	if rec.Results["hb"] != "13.2" {
		t.Errorf("expected result fields persisted, got %v", rec.Results)
	}

	// The latch is one-way: any further save is rejected.
	if err := svc.Save(ctx, "haematology", "10001", map[string]any{"hb": "99"}, "tech-2"); err == nil {
		t.Error("expected second save to be rejected")
	}
	rec, _ = svc.Get(ctx, "haematology", "10001")
	if rec.Results["hb"] != "13.2" {
		t.Errorf("rejected save still changed results: %v", rec.Results)
	}
}

func TestService_Save_RequiresScan(t *testing.T) {
	svc, _ := newTestService("10001")
	err := svc.Save(context.Background(), "haematology", "10001", map[string]any{"hb": "13"}, "tech-1")
	if err == nil {
		t.Error("expected error saving an unscanned record")
	}
}

func TestService_Validate(t *testing.T) {
	svc, _ := newTestService("10001")
	ctx := context.Background()

	svc.Scan(ctx, "haematology", "10001")

	// Unsaved records cannot be validated.
	if err := svc.Validate(ctx, "haematology", "10001", "rev-1"); err == nil {
		t.Error("expected error validating an unsaved record")
	}

	svc.Save(ctx, "haematology", "10001", map[string]any{"hb": "13.2"}, "tech-1")
	if err := svc.Validate(ctx, "haematology", "10001", "rev-1"); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	rec, _ := svc.Get(ctx, "haematology", "10001")
	if !rec.Validated || rec.TimeValidated == nil {
		t.Error("expected validated flag and timestamp")
	}
	if rec.ValidatedBy != "rev-1" {
		t.Errorf("expected validatedBy rev-1, got %q", rec.ValidatedBy)
	}

	if err := svc.Validate(ctx, "haematology", "10001", "rev-2"); err == nil {
		t.Error("expected repeat validation to be rejected")
	}
}

func TestService_Get_NotFound(t *testing.T) {
	svc, _ := newTestService("10001")
	_, err := svc.Get(context.Background(), "haematology", "10001")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound before first scan, got %v", err)
	}
}

// The register documents feed the same merge engine as intake documents, so
// the stored shape must satisfy the saved/validated detection rules.
func TestService_DocumentShape(t *testing.T) {
	svc, s := newTestService("10001")
	ctx := context.Background()

	svc.Scan(ctx, "haematology", "10001")
	svc.Save(ctx, "haematology", "10001", map[string]any{"hb": "13.2"}, "tech-1")
	svc.Validate(ctx, "haematology", "10001", "rev-1")

	docs, _ := s.List(ctx, "haematology_register")

	dept, _ := lab.DepartmentByKey("haematology")
	res := lab.MergeRows(docs, dept)
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(res.Rows))
	}
	if !res.Rows[0].Saved {
		t.Error("expected merge to detect saved flag")
	}
	if !res.Rows[0].Validated {
		t.Error("expected merge to detect validated flag")
	}
	if res.Rows[0].TimeScanned == nil || res.Rows[0].TimeSaved == nil {
		t.Error("expected scan and save stamps to survive merge")
	}

	// The scan mirrors the master registration's identity onto the
	// department document, so the merged row carries it too.
	row := res.Rows[0]
	if row.Name != "P 10001" {
		t.Errorf("expected mirrored patient name, got %q", row.Name)
	}
	if row.Source != "OPD" {
		t.Errorf("expected mirrored source OPD, got %q", row.Source)
	}
	if len(row.SelectedTests) != 1 || row.SelectedTests[0] != "COMPLETE BLOOD COUNT (CBC)" {
		t.Errorf("expected the haematology slice of selected tests, got %v", row.SelectedTests)
	}
}

// Source-bounded filters and saved-test totals work off the department
// documents alone, so the mirrored identity must carry them end to end.
func TestService_MirroredIdentityFeedsFilteredAnalytics(t *testing.T) {
	svc, s := newTestService("10001")
	ctx := context.Background()

	svc.Scan(ctx, "haematology", "10001")
	svc.Save(ctx, "haematology", "10001", map[string]any{"hb": "13.2"}, "tech-1")

	deptDocs, _ := s.List(ctx, "haematology_register")
	dept, _ := lab.DepartmentByKey("haematology")

	snap := lab.BuildSnapshot(nil, deptDocs, lab.OverviewConfig{
		Department: dept,
		Filter:     lab.Filter{Source: "opd"},
	})
	if len(snap.UnifiedRows) != 1 {
		t.Fatalf("expected the OPD filter to keep the department row, got %d rows", len(snap.UnifiedRows))
	}
	if !snap.UnifiedRows[0].Saved {
		t.Error("expected the filtered row to keep its saved latch")
	}
	if snap.KPIs.TotalTestsSaved != 1 {
		t.Errorf("expected 1 saved test counted from the mirrored tests, got %d", snap.KPIs.TotalTestsSaved)
	}

	snap = lab.BuildSnapshot(nil, deptDocs, lab.OverviewConfig{
		Department: dept,
		Filter:     lab.Filter{Source: "IPD"},
	})
	if len(snap.UnifiedRows) != 0 {
		t.Errorf("expected a non-matching source filter to drop the row, got %d rows", len(snap.UnifiedRows))
	}
}
