package lab

import (
	"strings"
	"time"
)

// Filter is the date-range and source predicate a page applies to both the
// intake and department buffers before recomputing. Each page owns its own
// Filter value; there is no shared global filter state.
type Filter struct {
	// From and To bound the print date inclusively, interpreted as
	// [From 00:00:00, To 23:59:59] in the timestamps' location. Zero values
	// leave that side unbounded.
	From time.Time
	To   time.Time
	// Source restricts to one intake source, case-insensitively. Empty or
	// "All" matches every source.
	Source string
}

// MatchDoc applies the filter to a raw document. When a date bound is set,
// the document's print time must resolve and fall within it; documents
// whose print time cannot be coerced fail a bounded filter.
func (f Filter) MatchDoc(doc map[string]any) bool {
	if doc == nil {
		return false
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		printed, ok := firstTime(doc, printedFields)
		if !ok || !f.inRange(printed) {
			return false
		}
	}
	if !f.matchSource(stringField(doc, sourceFields)) {
		return false
	}
	return true
}

// Apply filters a snapshot, returning the matching documents in order.
func (f Filter) Apply(docs []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		if f.MatchDoc(doc) {
			out = append(out, doc)
		}
	}
	return out
}

func (f Filter) inRange(t time.Time) bool {
	if !f.From.IsZero() {
		dayStart := time.Date(f.From.Year(), f.From.Month(), f.From.Day(), 0, 0, 0, 0, t.Location())
		if t.Before(dayStart) {
			return false
		}
	}
	if !f.To.IsZero() {
		dayEnd := time.Date(f.To.Year(), f.To.Month(), f.To.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
		if t.After(dayEnd) {
			return false
		}
	}
	return true
}

func (f Filter) matchSource(source string) bool {
	if f.Source == "" || strings.EqualFold(f.Source, "All") {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(source), strings.TrimSpace(f.Source))
}
