// ABOUTME: Pairwise interaction checker over active medications.
// ABOUTME: Results are deduplicated and ordered HIGH, MODERATE, LOW.
package interaction

import (
	"sort"
	"strings"

	"github.com/harperreed/medlog/internal/models"
)

// Severity ranks an interaction. Lower values are more serious.
type Severity int

const (
	SeverityHigh Severity = iota
	SeverityModerate
	SeverityLow
)

func (s Severity) String() string {
	switch s {
	case SeverityHigh:
		return "HIGH"
	case SeverityModerate:
		return "MODERATE"
	case SeverityLow:
		return "LOW"
	}
	return "UNKNOWN"
}

// MarshalText renders the severity name in JSON and YAML.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Interaction is one flagged medication pair. DrugA matched the rule's group A.
type Interaction struct {
	DrugA       string   `json:"drug_a"`
	DrugB       string   `json:"drug_b"`
	Severity    Severity `json:"severity"`
	LabelA      string   `json:"label_a"`
	LabelB      string   `json:"label_b"`
	Description string   `json:"description"`
	Advice      string   `json:"advice"`
}

// Check runs every rule against every unordered pair of medications.
// Callers pass active medications only.
func Check(meds []*models.Medication) []Interaction {
	return CheckRules(Rules, meds)
}

// CheckRules is Check with a custom rule table.
func CheckRules(rules []Rule, meds []*models.Medication) []Interaction {
	if len(meds) < 2 {
		return nil
	}

	var results []Interaction
	seen := make(map[string]bool)

	for i := 0; i < len(meds); i++ {
		for j := i + 1; j < len(meds); j++ {
			a, b := meds[i], meds[j]
			keyA, keyB := matchKey(a), matchKey(b)

			for _, r := range rules {
				aInA := containsAny(keyA, r.GroupA)
				bInB := containsAny(keyB, r.GroupB)
				aInB := containsAny(keyA, r.GroupB)
				bInA := containsAny(keyB, r.GroupA)
				if !(aInA && bInB) && !(aInB && bInA) {
					continue
				}

				first, second := a, b
				if !aInA {
					first, second = b, a
				}
				hit := Interaction{
					DrugA:       first.Name,
					DrugB:       second.Name,
					Severity:    r.Severity,
					LabelA:      r.LabelA,
					LabelB:      r.LabelB,
					Description: r.Description,
					Advice:      r.Advice,
				}
				key := hit.DrugA + "\x00" + hit.DrugB + "\x00" + hit.Severity.String()
				if !seen[key] {
					seen[key] = true
					results = append(results, hit)
				}
				break
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Severity < results[j].Severity
	})
	return results
}

// HasHigh reports whether any interaction is HIGH severity.
func HasHigh(results []Interaction) bool {
	for _, r := range results {
		if r.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

func matchKey(m *models.Medication) string {
	return strings.ToLower(m.Name + " " + m.FullPath + " " + m.Category)
}

func containsAny(key string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(key, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
