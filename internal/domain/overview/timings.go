package overview

import (
	"sync"

	"github.com/labtrack/labtrack/internal/lab"
)

// TimingStore holds the active allowed-duration table behind a lock so the
// admin API can swap it while overview pages keep reading it. Watchers are
// told about every swap; the live publisher uses that to push the new
// thresholds into running overviews.
type TimingStore struct {
	mu       sync.RWMutex
	table    lab.TimingTable
	watchers []func(lab.TimingTable)
}

func NewTimingStore(table lab.TimingTable) *TimingStore {
	if table == nil {
		table = lab.DefaultTimings()
	}
	return &TimingStore{table: table}
}

func (ts *TimingStore) Get() lab.TimingTable {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.table
}

func (ts *TimingStore) Set(table lab.TimingTable) {
	ts.mu.Lock()
	ts.table = table
	watchers := ts.watchers
	ts.mu.Unlock()

	for _, fn := range watchers {
		fn(table)
	}
}

// Watch registers fn to run after every Set. Watchers must not call back
// into the store.
func (ts *TimingStore) Watch(fn func(lab.TimingTable)) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.watchers = append(ts.watchers, fn)
}
