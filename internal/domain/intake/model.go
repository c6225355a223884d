package intake

import (
	"time"

	"github.com/labtrack/labtrack/internal/lab"
)

// SelectedTest is one (department, test) pair chosen at registration.
type SelectedTest struct {
	Department string `json:"department"`
	Test       string `json:"test"`
}

// Registration is a master-register record for one specimen. The document
// store holds it keyed by registration number in the intake collection.
type Registration struct {
	RegNo         string         `json:"regNo"`
	PatientName   string         `json:"name"`
	Age           int            `json:"age,omitempty"`
	Gender        string         `json:"gender,omitempty"`
	Source        string         `json:"source"`
	SelectedTests []SelectedTest `json:"selectedTests,omitempty"`
	TimePrinted   *time.Time     `json:"timePrinted,omitempty"`
	TimeCollected *time.Time     `json:"timeCollected,omitempty"`
	CreatedAt     *time.Time     `json:"createdAt,omitempty"`
}

// Printed reports whether a barcode label has been printed for the specimen.
func (r *Registration) Printed() bool { return r.TimePrinted != nil }

// Collected reports whether the specimen has been marked collected.
func (r *Registration) Collected() bool { return r.TimeCollected != nil }

// toDoc flattens a registration into the document shape the analytics
// pipeline reads. Test pairs serialize as objects with a "test" key so the
// classifier's field normalization picks them up.
func (r *Registration) toDoc() map[string]any {
	doc := map[string]any{
		"regNo":  r.RegNo,
		"name":   r.PatientName,
		"source": r.Source,
	}
	if r.Age > 0 {
		doc["age"] = r.Age
	}
	if r.Gender != "" {
		doc["gender"] = r.Gender
	}
	if len(r.SelectedTests) > 0 {
		tests := make([]any, 0, len(r.SelectedTests))
		for _, st := range r.SelectedTests {
			tests = append(tests, map[string]any{
				"department": st.Department,
				"test":       st.Test,
			})
		}
		doc["selectedTests"] = tests
	}
	if r.TimePrinted != nil {
		doc["timePrinted"] = *r.TimePrinted
	}
	if r.TimeCollected != nil {
		doc["timeCollected"] = *r.TimeCollected
	}
	if r.CreatedAt != nil {
		doc["createdAt"] = *r.CreatedAt
	}
	return doc
}

// fromDoc rebuilds a registration from a stored document. Field access is
// tolerant: documents written by older frontends carry variant spellings and
// types, so everything routes through the lab coercion helpers.
func fromDoc(doc map[string]any) *Registration {
	r := &Registration{}
	if s, ok := doc["regNo"].(string); ok {
		r.RegNo = s
	} else if s, ok := doc["_key"].(string); ok {
		r.RegNo = s
	}
	if s, ok := doc["name"].(string); ok {
		r.PatientName = s
	}
	switch v := doc["age"].(type) {
	case int:
		r.Age = v
	case int64:
		r.Age = int(v)
	case float64:
		r.Age = int(v)
	}
	if s, ok := doc["gender"].(string); ok {
		r.Gender = s
	}
	if s, ok := doc["source"].(string); ok {
		r.Source = s
	}
	if raw, ok := doc["selectedTests"].([]any); ok {
		for _, item := range raw {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			st := SelectedTest{}
			if s, ok := entry["department"].(string); ok {
				st.Department = s
			}
			if s, ok := entry["test"].(string); ok {
				st.Test = s
			}
			if st.Test != "" {
				r.SelectedTests = append(r.SelectedTests, st)
			}
		}
	}
	if t, ok := lab.CoerceTime(doc["timePrinted"]); ok {
		r.TimePrinted = &t
	}
	if t, ok := lab.CoerceTime(doc["timeCollected"]); ok {
		r.TimeCollected = &t
	}
	if t, ok := lab.CoerceTime(doc["createdAt"]); ok {
		r.CreatedAt = &t
	}
	return r
}
