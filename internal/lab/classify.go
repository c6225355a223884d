package lab

import "strings"

// Classifier decides whether raw test names from the lab information system
// belong to a department's canonical test set. Raw names arrive abbreviated,
// re-punctuated, or re-cased, so matching is normalized bidirectional
// substring containment: "esr" matches
// "ESR (ERYTHROCYTE SEDIMENTATION RATE, BLOOD)" and vice versa.
type Classifier struct {
	dept      DepartmentConfig
	canonical []string // pre-normalized
}

// NewClassifier builds a classifier for one department, pre-normalizing its
// canonical list once.
func NewClassifier(dept DepartmentConfig) *Classifier {
	c := &Classifier{dept: dept}
	c.canonical = make([]string, 0, len(dept.CanonicalTests))
	for _, name := range dept.CanonicalTests {
		if n := normalizeTestName(name, dept.StripTerms); n != "" {
			c.canonical = append(c.canonical, n)
		}
	}
	return c
}

// Department returns the config the classifier was built from.
func (c *Classifier) Department() DepartmentConfig { return c.dept }

// Matches reports whether a raw test name belongs to the department's
// canonical set. Dotted abbreviations ("e.s.r.") normalize to spaced
// letters, so the space-deleted variant is tried as well; that is the form
// the canonical names actually contain.
func (c *Classifier) Matches(raw string) bool {
	n := normalizeTestName(raw, c.dept.StripTerms)
	if n == "" {
		return false
	}
	variants := []string{n}
	if squashed := strings.ReplaceAll(n, " ", ""); squashed != n {
		variants = append(variants, squashed)
	}
	for _, v := range variants {
		for _, canon := range c.canonical {
			if strings.Contains(canon, v) || strings.Contains(v, canon) {
				return true
			}
		}
	}
	return false
}

// CountMatching counts the entries of a test-name list that belong to the
// department.
func (c *Classifier) CountMatching(tests []string) int {
	count := 0
	for _, t := range tests {
		if c.Matches(t) {
			count++
		}
	}
	return count
}

// CountTests extracts the tests field from a raw document and counts the
// department's matching entries. When the department has the legacy count
// fallback enabled, a record with a registration number but no textually
// matching test still counts as one test; registers older than the test-name
// normalization would otherwise vanish from the totals.
func (c *Classifier) CountTests(doc map[string]any) int {
	count := c.CountMatching(NormalizeTestsField(testsFieldOf(doc)))
	if count == 0 && c.dept.CountFallback && registrationNumberOf(doc) != "" {
		return 1
	}
	return count
}

// normalizeTestName lowercases, strips configured terms, collapses runs of
// whitespace and the punctuation that lab systems sprinkle into test names
// into single spaces, and trims.
func normalizeTestName(s string, strip []string) string {
	s = strings.ToLower(s)
	for _, term := range strip {
		s = strings.ReplaceAll(s, strings.ToLower(term), " ")
	}
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', ',', '.', '_', '-', '(', ')', '&', '/':
			space = true
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeTestsField flattens the tests field of a raw document into a
// list of strings. The field shape drifted across frontend versions: a list
// of strings, a list of {test: name} objects, or one comma-joined string.
// List entries are taken whole, since canonical names legitimately contain
// commas; only the bare-string shape is split. Unrecognized shapes
// yield an empty list, never an error.
func NormalizeTestsField(v any) []string {
	switch field := v.(type) {
	case nil:
		return nil
	case string:
		return splitTestList(field)
	case []string:
		out := make([]string, 0, len(field))
		for _, s := range field {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		var out []string
		for _, item := range field {
			switch entry := item.(type) {
			case string:
				if entry = strings.TrimSpace(entry); entry != "" {
					out = append(out, entry)
				}
			case map[string]any:
				for _, key := range []string{"test", "testName", "name"} {
					if s, ok := entry[key].(string); ok && strings.TrimSpace(s) != "" {
						out = append(out, strings.TrimSpace(s))
						break
					}
				}
			}
		}
		return out
	case map[string]any:
		// A lone {test: name} object outside a list.
		for _, key := range []string{"test", "testName", "name"} {
			if s, ok := field[key].(string); ok && strings.TrimSpace(s) != "" {
				return []string{strings.TrimSpace(s)}
			}
		}
		return nil
	default:
		return nil
	}
}

func splitTestList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
