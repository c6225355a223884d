package lab

import (
	"testing"
	"time"
)

func TestFilter_SourceCaseInsensitive(t *testing.T) {
	doc := map[string]any{"regNo": "1", "source": "opd"}

	tests := []struct {
		filter string
		want   bool
	}{
		{"OPD", true},
		{"opd", true},
		{"IPD", false},
		{"All", true},
		{"all", true},
		{"", true},
	}
	for _, tt := range tests {
		f := Filter{Source: tt.filter}
		if got := f.MatchDoc(doc); got != tt.want {
			t.Errorf("Filter{Source:%q}.MatchDoc = %v, want %v", tt.filter, got, tt.want)
		}
	}
}

func TestFilter_DateBoundsInclusive(t *testing.T) {
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	f := Filter{From: day, To: day}

	tests := []struct {
		name    string
		printed any
		want    bool
	}{
		{"start of day", day, true},
		{"end of day", day.Add(24*time.Hour - time.Second), true},
		{"previous day", day.Add(-time.Minute), false},
		{"next day", day.Add(25 * time.Hour), false},
		{"unresolvable with bounds", "never", false},
		{"missing with bounds", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := map[string]any{"regNo": "1"}
			if tt.printed != nil {
				doc["timePrinted"] = tt.printed
			}
			if got := f.MatchDoc(doc); got != tt.want {
				t.Errorf("MatchDoc = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_UnboundedPassesUndatedDocs(t *testing.T) {
	f := Filter{Source: "All"}
	if !f.MatchDoc(map[string]any{"regNo": "1"}) {
		t.Error("unbounded filter must pass documents without a print time")
	}
}

func TestFilter_Apply(t *testing.T) {
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	f := Filter{From: day, To: day, Source: "OPD"}

	docs := []map[string]any{
		{"regNo": "1", "timePrinted": day.Add(time.Hour), "source": "OPD"},
		{"regNo": "2", "timePrinted": day.Add(time.Hour), "source": "IPD"},
		{"regNo": "3", "timePrinted": day.Add(48 * time.Hour), "source": "OPD"},
	}
	got := f.Apply(docs)
	if len(got) != 1 || got[0]["regNo"] != "1" {
		t.Errorf("Apply = %v, want only regNo 1", got)
	}
}
