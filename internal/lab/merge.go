package lab

import (
	"fmt"
	"strings"
	"time"
)

// Raw document field names, oldest spellings last. Register documents were
// written by several frontend generations; resolution walks these lists in
// order and takes the first value that resolves.
var (
	regNoFields     = []string{"regNo", "registrationNo", "registrationNumber", "regno", "labNo", "_key"}
	nameFields      = []string{"name", "patientName", "pName"}
	ageFields       = []string{"age", "patientAge"}
	genderFields    = []string{"gender", "sex"}
	sourceFields    = []string{"source", "patientSource", "ward"}
	printedFields   = []string{"timePrinted", "printedTime", "printTime", "createdAt"}
	collectedFields = []string{"timeCollected", "collectedTime", "collectionTime"}
	scannedFields   = []string{"timeScanned", "scannedTime", "scanTime"}
	savedTimeFields = []string{"timeSaved", "savedTime", "saveTime"}
	validatedFields = []string{"timeValidated", "validatedTime"}
	testsFields     = []string{"selectedTests", "tests", "testName", "test"}
)

// MergeResult carries the canonical rows plus the count of documents that
// were excluded because no print time could be derived. Dropped documents
// never appear in the rows; the count lets the analytics surface report the
// undercount without changing row semantics.
type MergeResult struct {
	Rows    []Row
	Dropped int
}

// MergeRows collapses a department's raw register documents into canonical
// rows, one per registration number. The first document seen for a
// registration number seeds the row: identity fields, stage timestamps,
// and status flags are fixed then; later documents for the same number only
// contribute additional test names. A single specimen with several sub-tests
// is recorded as separate raw rows, but its scan and save are single events,
// so first-writer-wins keeps the timestamps consistent while the test union
// accumulates.
//
// Documents with no resolvable registration number, or no coercible print
// time, are dropped and counted.
func MergeRows(docs []map[string]any, dept DepartmentConfig) MergeResult {
	var res MergeResult
	index := make(map[string]int) // regNo -> position in res.Rows

	for _, doc := range docs {
		if doc == nil {
			res.Dropped++
			continue
		}
		regNo := registrationNumberOf(doc)
		if regNo == "" {
			res.Dropped++
			continue
		}

		if at, ok := index[regNo]; ok {
			res.Rows[at].addTests(NormalizeTestsField(firstPresent(doc, testsFields)))
			continue
		}

		printed, ok := firstTime(doc, printedFields)
		if !ok {
			res.Dropped++
			continue
		}

		row := Row{
			RegNo:       regNo,
			Department:  dept.Key,
			Name:        stringField(doc, nameFields),
			Age:         stringField(doc, ageFields),
			Gender:      stringField(doc, genderFields),
			Source:      NormalizeSource(stringField(doc, sourceFields)),
			TimePrinted: printed,
		}
		row.TimeCollected = optionalTime(doc, collectedFields)
		row.TimeScanned = optionalTime(doc, scannedFields)
		row.TimeSaved = optionalTime(doc, savedTimeFields)
		row.TimeValidated = optionalTime(doc, validatedFields)
		row.Saved = savedFlag(doc, row.TimeSaved)
		row.Validated = validatedFlag(doc, row.TimeValidated)
		row.addTests(NormalizeTestsField(firstPresent(doc, testsFields)))

		index[regNo] = len(res.Rows)
		res.Rows = append(res.Rows, row)
	}
	return res
}

// registrationNumberOf resolves the registration number through its legacy
// spellings. Numeric values are accepted; registration numbers are
// string-typed even when they look numeric.
func registrationNumberOf(doc map[string]any) string {
	for _, field := range regNoFields {
		switch v := doc[field].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		case int:
			return fmt.Sprintf("%d", v)
		case int64:
			return fmt.Sprintf("%d", v)
		}
	}
	return ""
}

func testsFieldOf(doc map[string]any) any {
	return firstPresent(doc, testsFields)
}

func firstPresent(doc map[string]any, fields []string) any {
	for _, f := range fields {
		if v, ok := doc[f]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringField(doc map[string]any, fields []string) string {
	for _, f := range fields {
		if s, ok := doc[f].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstTime(doc map[string]any, fields []string) (time.Time, bool) {
	for _, f := range fields {
		if t, ok := CoerceTime(doc[f]); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func optionalTime(doc map[string]any, fields []string) *time.Time {
	if t, ok := firstTime(doc, fields); ok {
		return &t
	}
	return nil
}

// savedFlag derives the saved latch. The flag representation changed over
// time: the oldest records carry the literal string "Yes", later ones a
// boolean, and the newest only a saved timestamp.
func savedFlag(doc map[string]any, savedAt *time.Time) bool {
	if savedAt != nil {
		return true
	}
	switch v := firstPresent(doc, []string{"saved", "isSaved"}).(type) {
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "yes")
	case bool:
		return v
	}
	return false
}

// validatedFlag derives the validated latch from any of its three historic
// encodings.
func validatedFlag(doc map[string]any, validatedAt *time.Time) bool {
	if validatedAt != nil {
		return true
	}
	if v, ok := doc["validated"].(bool); ok && v {
		return true
	}
	if s, ok := doc["status"].(string); ok && strings.EqualFold(strings.TrimSpace(s), "validated") {
		return true
	}
	return false
}
