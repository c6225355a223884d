package lab

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// FallbackAllowedMinutes is the system-wide threshold used when neither the
// department nor the default table entry names one.
const FallbackAllowedMinutes = 30

// TimingTable maps department key → stage pair → allowed minutes. The
// "default" department entry backs any department without its own row.
// Tables are load-time configuration and treated as read-only.
type TimingTable map[string]map[StagePair]int

// Allowed resolves the threshold for a department and stage pair:
// department entry, then the default entry, then FallbackAllowedMinutes.
func (t TimingTable) Allowed(dept string, pair StagePair) int {
	if entry, ok := t[dept]; ok {
		if mins, ok := entry[pair]; ok {
			return mins
		}
	}
	if entry, ok := t["default"]; ok {
		if mins, ok := entry[pair]; ok {
			return mins
		}
	}
	return FallbackAllowedMinutes
}

// DefaultTimings returns the compiled-in allowed-duration table.
func DefaultTimings() TimingTable {
	return TimingTable{
		"default": {
			PairPrintedToCollected: 20,
			PairCollectedToScanned: 30,
			PairScannedToSaved:     30,
			PairSavedToValidated:   60,
		},
		"biochemistry": {PairScannedToSaved: 45},
		"hormone":      {PairScannedToSaved: 90},
		"coagulation":  {PairScannedToSaved: 40},
		"haematology":  {PairScannedToSaved: 30},
	}
}

// LoadTimings reads a timing table from a JSON file shaped like
// {"department": {"scanned_saved": 30, ...}, "default": {...}}. A missing
// path returns the compiled-in defaults; a malformed file is an error.
func LoadTimings(path string) (TimingTable, error) {
	if path == "" {
		return DefaultTimings(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultTimings(), nil
		}
		return nil, fmt.Errorf("read timing table %s: %w", path, err)
	}
	var table TimingTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse timing table %s: %w", path, err)
	}
	return table, nil
}

// Severity classifies how far past its threshold a violation landed.
type Severity string

const (
	// SeverityBorderline marks durations within 1.5x of the threshold.
	SeverityBorderline Severity = "borderline"
	// SeverityViolation marks durations beyond 1.5x of the threshold.
	SeverityViolation Severity = "violation"
)

// Violation is an ephemeral, computed record of one specimen exceeding its
// allowed stage duration. Violations are never persisted.
type Violation struct {
	RegNo      string    `json:"regNo"`
	Name       string    `json:"name"`
	Test       string    `json:"test"`
	Department string    `json:"department"`
	Duration   int       `json:"duration"`
	Allowed    int       `json:"allowed"`
	Excess     int       `json:"excess"`
	Severity   Severity  `json:"severity"`
	Pair       StagePair `json:"stagePair"`
}

// ComputeViolations flags rows whose duration for the stage pair strictly
// exceeds the allowed threshold. A duration exactly equal to the threshold
// passes; that boundary is a contract, not an off-by-one. Rows missing
// either endpoint are skipped. Results are ordered worst-first by excess.
func ComputeViolations(rows []Row, timings TimingTable, pair StagePair) []Violation {
	from, to := pair.Endpoints()
	var out []Violation
	for i := range rows {
		row := &rows[i]
		start, end := row.StageTime(from), row.StageTime(to)
		if start == nil || end == nil {
			continue
		}
		duration, ok := MinutesBetween(*start, *end)
		if !ok {
			continue
		}
		allowed := timings.Allowed(row.Department, pair)
		if duration <= allowed {
			continue
		}
		severity := SeverityViolation
		if float64(duration) <= float64(allowed)*1.5 {
			severity = SeverityBorderline
		}
		out = append(out, Violation{
			RegNo:      row.RegNo,
			Name:       row.Name,
			Test:       row.Test,
			Department: row.Department,
			Duration:   duration,
			Allowed:    allowed,
			Excess:     duration - allowed,
			Severity:   severity,
			Pair:       pair,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Excess > out[j].Excess })
	return out
}
