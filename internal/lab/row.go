package lab

import (
	"strings"
	"time"
)

// Stage is one checkpoint in a specimen's lifecycle. Every specimen moves
// Printed → Collected → Scanned → Saved → Validated, each stamped once.
type Stage string

const (
	StagePrinted   Stage = "printed"
	StageCollected Stage = "collected"
	StageScanned   Stage = "scanned"
	StageSaved     Stage = "saved"
	StageValidated Stage = "validated"
)

// StagePair names a measured interval between two stages, used as the key
// into timing tables.
type StagePair string

const (
	PairPrintedToCollected StagePair = "printed_collected"
	PairCollectedToScanned StagePair = "collected_scanned"
	PairScannedToSaved     StagePair = "scanned_saved"
	PairSavedToValidated   StagePair = "saved_validated"
)

// Endpoints returns the two stages bounding the pair.
func (p StagePair) Endpoints() (Stage, Stage) {
	switch p {
	case PairPrintedToCollected:
		return StagePrinted, StageCollected
	case PairCollectedToScanned:
		return StageCollected, StageScanned
	case PairSavedToValidated:
		return StageSaved, StageValidated
	default:
		return StageScanned, StageSaved
	}
}

// Row is the canonical unified view of one specimen in one department:
// exactly one Row exists per (registration number, department) regardless of
// how many raw documents contributed to it.
type Row struct {
	RegNo      string `json:"regNo"`
	Department string `json:"department"`

	Name   string `json:"name"`
	Age    string `json:"age"`
	Gender string `json:"gender"`
	Source string `json:"source"`

	TimePrinted   time.Time  `json:"timePrinted"`
	TimeCollected *time.Time `json:"timeCollected,omitempty"`
	TimeScanned   *time.Time `json:"timeScanned,omitempty"`
	TimeSaved     *time.Time `json:"timeSaved,omitempty"`
	TimeValidated *time.Time `json:"timeValidated,omitempty"`

	// Test is the comma-joined display string; SelectedTests is the
	// underlying union of test names seen for this registration number.
	Test          string   `json:"test"`
	SelectedTests []string `json:"selectedTests"`

	Saved     bool `json:"isSaved"`
	Validated bool `json:"isValidated"`
}

// StageTime returns the row's timestamp for a stage, or nil when the stage
// has not been reached (or its timestamp never resolved).
func (r *Row) StageTime(stage Stage) *time.Time {
	switch stage {
	case StagePrinted:
		if r.TimePrinted.IsZero() {
			return nil
		}
		t := r.TimePrinted
		return &t
	case StageCollected:
		return r.TimeCollected
	case StageScanned:
		return r.TimeScanned
	case StageSaved:
		return r.TimeSaved
	case StageValidated:
		return r.TimeValidated
	default:
		return nil
	}
}

// addTests unions additional test names into the row, preserving first-seen
// order.
func (r *Row) addTests(tests []string) {
	for _, t := range tests {
		found := false
		for _, have := range r.SelectedTests {
			if strings.EqualFold(have, t) {
				found = true
				break
			}
		}
		if !found {
			r.SelectedTests = append(r.SelectedTests, t)
		}
	}
	r.Test = strings.Join(r.SelectedTests, ", ")
}
