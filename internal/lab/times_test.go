package lab

import (
	"testing"
	"time"
)

type fakeStoreTimestamp struct{ t time.Time }

func (f fakeStoreTimestamp) Time() time.Time { return f.t }

func TestCoerceTime_Shapes(t *testing.T) {
	ref := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input any
		want  time.Time
		ok    bool
	}{
		{"nil", nil, time.Time{}, false},
		{"native time", ref, ref, true},
		{"pointer to time", &ref, ref, true},
		{"nil pointer", (*time.Time)(nil), time.Time{}, false},
		{"zero time", time.Time{}, time.Time{}, false},
		{"store timestamp", fakeStoreTimestamp{ref}, ref, true},
		{"seconds map", map[string]any{"seconds": float64(ref.Unix())}, ref, true},
		{"seconds map int", map[string]any{"seconds": ref.Unix()}, ref, true},
		{"seconds map garbage", map[string]any{"seconds": "soon"}, time.Time{}, false},
		{"map without seconds", map[string]any{"nanos": 12}, time.Time{}, false},
		{"rfc3339 string", "2024-03-15T10:30:00Z", ref, true},
		{"date only string", "2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"garbage string", "not a date", time.Time{}, false},
		{"empty string", "   ", time.Time{}, false},
		{"unix seconds number", float64(ref.Unix()), ref, true},
		{"bool", true, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceTime(tt.input)
			if ok != tt.ok {
				t.Fatalf("CoerceTime(%v) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("CoerceTime(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMinutesBetween_StrictForwardProgress(t *testing.T) {
	t0 := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b any
		want int
		ok   bool
	}{
		{"forty minutes", t0, t0.Add(40 * time.Minute), 40, true},
		{"rounds up", t0, t0.Add(10*time.Minute + 31*time.Second), 11, true},
		{"rounds down", t0, t0.Add(10*time.Minute + 29*time.Second), 10, true},
		{"equal endpoints", t0, t0, 0, false},
		{"inverted endpoints", t0.Add(time.Hour), t0, 0, false},
		{"unparseable start", "nope", t0, 0, false},
		{"unparseable end", t0, nil, 0, false},
		{"string endpoints", "2024-03-15T09:00:00Z", "2024-03-15T09:50:00Z", 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MinutesBetween(tt.a, tt.b)
			if ok != tt.ok {
				t.Fatalf("MinutesBetween ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("MinutesBetween = %d, want %d", got, tt.want)
			}
		})
	}
}
