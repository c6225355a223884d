package register

import (
	"time"

	"github.com/labtrack/labtrack/internal/lab"
)

// Record is one department's processed entry for a registration number. It is
// created lazily on the first operator interaction (usually a barcode scan)
// and then accumulates stage stamps.
type Record struct {
	RegNo      string `json:"regNo"`
	Department string `json:"department"`

	TimePrinted   *time.Time `json:"timePrinted,omitempty"`
	TimeScanned   *time.Time `json:"timeScanned,omitempty"`
	TimeSaved     *time.Time `json:"timeSaved,omitempty"`
	TimeValidated *time.Time `json:"timeValidated,omitempty"`

	// Results holds the department's free-form result fields. The shape is
	// owned by the frontend forms; the backend only gates when it may change.
	Results map[string]any `json:"results,omitempty"`

	Saved       bool   `json:"saved"`
	Validated   bool   `json:"validated"`
	SavedBy     string `json:"savedBy,omitempty"`
	ValidatedBy string `json:"validatedBy,omitempty"`
}

// Scanned reports whether the specimen barcode has been scanned at the bench.
func (r *Record) Scanned() bool { return r.TimeScanned != nil }

func recordFromDoc(deptKey string, doc map[string]any) *Record {
	r := &Record{Department: deptKey}
	if s, ok := doc["regNo"].(string); ok {
		r.RegNo = s
	} else if s, ok := doc["_key"].(string); ok {
		r.RegNo = s
	}
	if t, ok := lab.CoerceTime(doc["timePrinted"]); ok {
		r.TimePrinted = &t
	}
	if t, ok := lab.CoerceTime(doc["timeScanned"]); ok {
		r.TimeScanned = &t
	}
	if t, ok := lab.CoerceTime(doc["timeSaved"]); ok {
		r.TimeSaved = &t
	}
	if t, ok := lab.CoerceTime(doc["timeValidated"]); ok {
		r.TimeValidated = &t
	}
	if m, ok := doc["results"].(map[string]any); ok {
		r.Results = m
	}
	if v, ok := doc["saved"].(bool); ok {
		r.Saved = v
	}
	if v, ok := doc["validated"].(bool); ok {
		r.Validated = v
	}
	if s, ok := doc["savedBy"].(string); ok {
		r.SavedBy = s
	}
	if s, ok := doc["validatedBy"].(string); ok {
		r.ValidatedBy = s
	}
	return r
}
