package lab

import "math"

// SlowestEntry identifies the single worst specimen for the measured stage
// pair, carried with its display fields. Ties keep the first row
// encountered.
type SlowestEntry struct {
	RegNo   string `json:"regNo"`
	Name    string `json:"name"`
	Test    string `json:"test"`
	Minutes int    `json:"minutes"`
}

// KPIs aggregates a department's stage funnel over a filtered population.
// Average fields are nil when no row produced a measurable duration; an
// empty sample means "no data", not zero minutes.
type KPIs struct {
	TotalPatientsCollected int `json:"totalPatientsCollected"`
	TotalTestsCollected    int `json:"totalTestsCollected"`
	TotalPatientsSaved     int `json:"totalPatientsSaved"`
	TotalTestsSaved        int `json:"totalTestsSaved"`
	TotalPatientsValidated int `json:"totalPatientsValidated"`

	TotalPatientsPending int `json:"totalPatientsPending"`
	TotalTestsPending    int `json:"totalTestsPending"`

	AvgPrintedToCollected *int `json:"avgPrintedToCollected"`
	AvgCollectedToScanned *int `json:"avgCollectedToScanned"`
	AvgScannedToSaved     *int `json:"avgScannedToSaved"`
	AvgSavedToValidated   *int `json:"avgSavedToValidated"`

	Slowest *SlowestEntry `json:"slowest,omitempty"`
}

// AggregateKPIs computes the department funnel from the filtered master
// (intake) documents and the department's canonical rows. Master documents
// count only when at least one of their selected tests belongs to the
// department: the collected totals are the department-relevant slice of
// global intake, not all intake. Pending counts are clamped at zero since
// saved can transiently exceed collected on stale or partial snapshots.
func AggregateKPIs(masterDocs []map[string]any, rows []Row, c *Classifier, slowestPair StagePair) KPIs {
	var k KPIs

	collectedPatients := make(map[string]struct{})
	for _, doc := range masterDocs {
		regNo := registrationNumberOf(doc)
		if regNo == "" {
			continue
		}
		count := c.CountTests(doc)
		if count == 0 {
			continue
		}
		collectedPatients[regNo] = struct{}{}
		k.TotalTestsCollected += count
	}
	k.TotalPatientsCollected = len(collectedPatients)

	savedPatients := make(map[string]struct{})
	validatedPatients := make(map[string]struct{})
	for i := range rows {
		row := &rows[i]
		if row.Saved {
			if _, seen := savedPatients[row.RegNo]; !seen {
				savedPatients[row.RegNo] = struct{}{}
				count := c.CountMatching(row.SelectedTests)
				if count == 0 && c.dept.CountFallback {
					count = 1
				}
				k.TotalTestsSaved += count
			}
		}
		if row.Validated {
			validatedPatients[row.RegNo] = struct{}{}
		}
	}
	k.TotalPatientsSaved = len(savedPatients)
	k.TotalPatientsValidated = len(validatedPatients)

	k.TotalPatientsPending = clampNonNegative(k.TotalPatientsCollected - k.TotalPatientsSaved)
	k.TotalTestsPending = clampNonNegative(k.TotalTestsCollected - k.TotalTestsSaved)

	k.AvgPrintedToCollected = averageStageMinutes(rows, PairPrintedToCollected)
	k.AvgCollectedToScanned = averageStageMinutes(rows, PairCollectedToScanned)
	k.AvgScannedToSaved = averageStageMinutes(rows, PairScannedToSaved)
	k.AvgSavedToValidated = averageStageMinutes(rows, PairSavedToValidated)

	k.Slowest = slowestEntry(rows, slowestPair)
	return k
}

// averageStageMinutes maps the stage-pair duration over every row,
// discards unmeasurable rows, and averages the rest rounded to the nearest
// minute. nil means no row was measurable.
func averageStageMinutes(rows []Row, pair StagePair) *int {
	from, to := pair.Endpoints()
	sum, n := 0, 0
	for i := range rows {
		start, end := rows[i].StageTime(from), rows[i].StageTime(to)
		if start == nil || end == nil {
			continue
		}
		if mins, ok := MinutesBetween(*start, *end); ok {
			sum += mins
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := int(math.Round(float64(sum) / float64(n)))
	return &avg
}

func slowestEntry(rows []Row, pair StagePair) *SlowestEntry {
	from, to := pair.Endpoints()
	var slowest *SlowestEntry
	for i := range rows {
		start, end := rows[i].StageTime(from), rows[i].StageTime(to)
		if start == nil || end == nil {
			continue
		}
		mins, ok := MinutesBetween(*start, *end)
		if !ok {
			continue
		}
		if slowest == nil || mins > slowest.Minutes {
			slowest = &SlowestEntry{
				RegNo:   rows[i].RegNo,
				Name:    rows[i].Name,
				Test:    rows[i].Test,
				Minutes: mins,
			}
		}
	}
	return slowest
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
