package lab

import (
	"fmt"
	"sync"
)

// Feed is the slice of the document store the overview needs: a live
// subscription delivering whole-collection snapshots. The returned cancel
// function must be safe to call more than once.
type Feed interface {
	Subscribe(collection string, fn func(docs []map[string]any)) (cancel func())
}

// Snapshot is one consistent recomputation delivered to the presentation
// layer: the filtered inputs, the canonical rows, and everything derived
// from them.
type Snapshot struct {
	MasterRows  []map[string]any `json:"masterRows"`
	DeptRows    []map[string]any `json:"deptRows"`
	UnifiedRows []Row            `json:"unifiedRows"`
	Violators   []Violation      `json:"violators"`
	KPIs        KPIs             `json:"kpis"`
	// DroppedRows counts department documents excluded from the merge for
	// lacking a derivable print time. The rows silently undercount by this
	// much; surfacing the figure lets a page flag it.
	DroppedRows int `json:"droppedRows"`
}

// OverviewConfig configures one department analytics page.
type OverviewConfig struct {
	Department DepartmentConfig
	Timings    TimingTable
	Filter     Filter
	// StagePair selects the interval scored for SLA violations and the
	// slowest entry. Zero value means Scanned→Saved.
	StagePair StagePair
	// OnSnapshot receives every recomputation. Required.
	OnSnapshot func(Snapshot)
}

// BuildSnapshot runs the full filter → merge → violations → KPIs pipeline
// over one pair of collection snapshots. It is stateless and pure; the
// orchestrator calls it on every delivery, and the REST surface calls it
// directly for one-shot reads.
func BuildSnapshot(masterDocs, deptDocs []map[string]any, cfg OverviewConfig) Snapshot {
	pair := cfg.StagePair
	if pair == "" {
		pair = PairScannedToSaved
	}

	master := cfg.Filter.Apply(masterDocs)
	dept := cfg.Filter.Apply(deptDocs)

	merged := MergeRows(dept, cfg.Department)
	classifier := NewClassifier(cfg.Department)

	return Snapshot{
		MasterRows:  master,
		DeptRows:    dept,
		UnifiedRows: merged.Rows,
		Violators:   ComputeViolations(merged.Rows, cfg.Timings, pair),
		KPIs:        AggregateKPIs(master, merged.Rows, classifier, pair),
		DroppedRows: merged.Dropped,
	}
}

// Overview wires live store subscriptions for one department page: the
// intake collection and the department register. Every delivery on either
// feed replaces that buffer and triggers a full, stateless recomputation,
// so out-of-order or duplicate deliveries cost a redundant recompute and
// nothing else. Close cancels both subscriptions.
type Overview struct {
	cfg OverviewConfig

	mu         sync.Mutex
	masterDocs []map[string]any
	deptDocs   []map[string]any
	closed     bool

	cancels []func()
}

// WatchOverview subscribes to the intake collection and the department's
// register and starts delivering snapshots to cfg.OnSnapshot. Callers must
// arrange o.Close() on every exit path.
func WatchOverview(feed Feed, cfg OverviewConfig) (*Overview, error) {
	if cfg.OnSnapshot == nil {
		return nil, fmt.Errorf("overview %s: OnSnapshot callback is required", cfg.Department.Key)
	}
	if cfg.Department.Collection == "" {
		return nil, fmt.Errorf("overview %s: department has no register collection", cfg.Department.Key)
	}
	if cfg.Timings == nil {
		cfg.Timings = DefaultTimings()
	}

	o := &Overview{cfg: cfg}

	cancelMaster := feed.Subscribe(IntakeCollection, func(docs []map[string]any) {
		o.mu.Lock()
		o.masterDocs = docs
		o.mu.Unlock()
		o.recompute()
	})
	cancelDept := feed.Subscribe(cfg.Department.Collection, func(docs []map[string]any) {
		o.mu.Lock()
		o.deptDocs = docs
		o.mu.Unlock()
		o.recompute()
	})
	o.cancels = []func(){cancelMaster, cancelDept}
	return o, nil
}

// SetFilter replaces the active filter and recomputes immediately.
func (o *Overview) SetFilter(f Filter) {
	o.mu.Lock()
	o.cfg.Filter = f
	o.mu.Unlock()
	o.recompute()
}

// SetTimings replaces the allowed-duration table and recomputes immediately,
// so threshold edits reach live subscribers without waiting for the next
// store change.
func (o *Overview) SetTimings(t TimingTable) {
	o.mu.Lock()
	o.cfg.Timings = t
	o.mu.Unlock()
	o.recompute()
}

// Snapshot recomputes from the current buffers without waiting for a feed
// delivery.
func (o *Overview) Snapshot() Snapshot {
	o.mu.Lock()
	master, dept, cfg := o.masterDocs, o.deptDocs, o.cfg
	o.mu.Unlock()
	return BuildSnapshot(master, dept, cfg)
}

func (o *Overview) recompute() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	master, dept, cfg := o.masterDocs, o.deptDocs, o.cfg
	o.mu.Unlock()

	cfg.OnSnapshot(BuildSnapshot(master, dept, cfg))
}

// Close cancels both live subscriptions. Safe to call more than once. No new
// recomputations start after it returns; a delivery already in flight on a
// feed goroutine may still complete.
func (o *Overview) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	cancels := o.cancels
	o.cancels = nil
	o.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}
