// Package lab implements the stage-pipeline status model and turnaround
// analytics for the laboratory workflow tracker: coercing legacy timestamp
// shapes, classifying raw test names into department test sets, merging raw
// register documents into canonical per-patient rows, and computing SLA
// violations and KPIs over them.
package lab

import "strings"

// DepartmentConfig parametrizes the generic engine for one department
// register. Department pages are thin bindings over one of these.
type DepartmentConfig struct {
	// Key identifies the department in timing tables and API paths.
	Key string
	// Name is the operator-facing display name.
	Name string
	// Collection is the document-store collection holding the department's
	// processed records.
	Collection string
	// CanonicalTests is the authoritative list of test names owned by this
	// department. Raw test names are matched against it by normalized
	// substring containment.
	CanonicalTests []string
	// StripTerms are substrings removed during normalization before
	// matching (e.g. "fluid" for biochemistry sample variants).
	StripTerms []string
	// CountFallback counts one test for records that carry a registration
	// number but no textually matching test name. Needed for registers with
	// records saved before test-name normalization existed.
	CountFallback bool
}

// IntakeCollection is the document-store collection holding master
// (specimen intake) records shared by all departments.
const IntakeCollection = "lab_registrations"

var departments = []DepartmentConfig{
	{
		Key:        "biochemistry",
		Name:       "Biochemistry",
		Collection: "biochemistry_register",
		CanonicalTests: []string{
			"BLOOD SUGAR (FASTING)",
			"BLOOD SUGAR (PP)",
			"BLOOD SUGAR (RANDOM)",
			"BLOOD UREA",
			"SERUM CREATININE",
			"SERUM URIC ACID",
			"LIPID PROFILE",
			"LIVER FUNCTION TEST (LFT)",
			"SERUM BILIRUBIN (TOTAL, DIRECT)",
			"SGOT (AST)",
			"SGPT (ALT)",
			"SERUM ALKALINE PHOSPHATASE",
			"SERUM TOTAL PROTEIN, ALBUMIN",
			"SERUM ELECTROLYTES (NA, K, CL)",
			"SERUM CALCIUM",
			"SERUM AMYLASE",
			"SERUM LIPASE",
			"HBA1C (GLYCOSYLATED HEMOGLOBIN)",
		},
		StripTerms: []string{"fluid"},
	},
	{
		Key:        "hormone",
		Name:       "Hormone Assays",
		Collection: "hormone_register",
		CanonicalTests: []string{
			"TSH (THYROID STIMULATING HORMONE)",
			"T3 (TRIIODOTHYRONINE)",
			"T4 (THYROXINE)",
			"FT3 (FREE T3)",
			"FT4 (FREE T4)",
			"PROLACTIN",
			"LH (LUTEINIZING HORMONE)",
			"FSH (FOLLICLE STIMULATING HORMONE)",
			"BETA HCG",
			"VITAMIN D (25-OH)",
			"VITAMIN B12",
			"SERUM FERRITIN",
			"SERUM CORTISOL",
			"PSA (PROSTATE SPECIFIC ANTIGEN)",
		},
	},
	{
		Key:        "coagulation",
		Name:       "Coagulation",
		Collection: "coagulation_register",
		CanonicalTests: []string{
			"PROTHROMBIN TIME (PT, INR)",
			"APTT (ACTIVATED PARTIAL THROMBOPLASTIN TIME)",
			"BLEEDING TIME, CLOTTING TIME (BT, CT)",
			"D-DIMER",
			"FIBRINOGEN",
		},
		CountFallback: true,
	},
	{
		Key:        "haematology",
		Name:       "Haematology",
		Collection: "haematology_register",
		CanonicalTests: []string{
			"COMPLETE BLOOD COUNT (CBC)",
			"HEMOGLOBIN (HB)",
			"TOTAL LEUCOCYTE COUNT (TLC)",
			"DIFFERENTIAL LEUCOCYTE COUNT (DLC)",
			"PLATELET COUNT",
			"ESR (ERYTHROCYTE SEDIMENTATION RATE, BLOOD)",
			"PERIPHERAL BLOOD SMEAR",
			"RETICULOCYTE COUNT",
			"ABSOLUTE EOSINOPHIL COUNT (AEC)",
			"MALARIA PARASITE (MP)",
		},
	},
	{
		Key:        "serology",
		Name:       "Serology",
		Collection: "serology_register",
		CanonicalTests: []string{
			"HIV I & II",
			"HBSAG (HEPATITIS B SURFACE ANTIGEN)",
			"ANTI HCV",
			"VDRL (RPR)",
			"CRP (C-REACTIVE PROTEIN)",
			"RA FACTOR (RHEUMATOID ARTHRITIS)",
			"ASO TITRE",
			"DENGUE NS1, IGG, IGM",
		},
		CountFallback: true,
	},
	{
		Key:        "widal",
		Name:       "Widal",
		Collection: "widal_register",
		CanonicalTests: []string{
			"WIDAL TEST (SLIDE AGGLUTINATION)",
		},
		CountFallback: true,
	},
	{
		Key:        "urine",
		Name:       "Urine Analysis",
		Collection: "urine_register",
		CanonicalTests: []string{
			"URINE ROUTINE & MICROSCOPY",
			"URINE PREGNANCY TEST (UPT)",
			"URINE FOR KETONE BODIES",
			"URINE MICROALBUMIN",
			"24 HR URINARY PROTEIN",
		},
		StripTerms: []string{"fluid"},
	},
	{
		Key:        "bloodgroup",
		Name:       "Blood Grouping",
		Collection: "bloodgroup_register",
		CanonicalTests: []string{
			"BLOOD GROUP & RH TYPE (ABO, RH)",
			"COOMBS TEST (DIRECT)",
			"COOMBS TEST (INDIRECT)",
		},
		CountFallback: true,
	},
}

// Departments returns all configured department registers.
func Departments() []DepartmentConfig {
	out := make([]DepartmentConfig, len(departments))
	copy(out, departments)
	return out
}

// DepartmentByKey looks up a department config by its key.
func DepartmentByKey(key string) (DepartmentConfig, bool) {
	for _, d := range departments {
		if d.Key == key {
			return d, true
		}
	}
	return DepartmentConfig{}, false
}

// Sources is the fixed specimen source enum captured at intake. Anything
// else normalizes to "Unknown".
var Sources = []string{"OPD", "IPD", "Third Floor"}

// NormalizeSource maps a raw source string onto the fixed enum,
// case-insensitively, falling back to "Unknown".
func NormalizeSource(raw string) string {
	for _, s := range Sources {
		if strings.EqualFold(strings.TrimSpace(raw), s) {
			return s
		}
	}
	return "Unknown"
}
