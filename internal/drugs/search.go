// ABOUTME: Keyword and ranked fuzzy search over the drug catalog.
// ABOUTME: Ranking uses a fixed relevance ladder with a Dice-coefficient fallback.
package drugs

import (
	"sort"
	"strings"
)

// fuzzyThreshold is the minimum n-gram similarity counted as a fuzzy match.
const fuzzyThreshold = 0.25

// Matches reports whether q is a substring of the name, category, any path, or any tag.
// An empty query matches everything.
func (d Drug) Matches(q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	if strings.Contains(strings.ToLower(d.Name), q) ||
		strings.Contains(strings.ToLower(d.Category), q) ||
		strings.Contains(strings.ToLower(d.FullPath), q) {
		return true
	}
	for _, p := range d.AllPaths {
		if strings.Contains(strings.ToLower(p), q) {
			return true
		}
	}
	for _, t := range d.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// Relevance scores how well q matches, from 0 to 1.
func (d Drug) Relevance(query string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}
	name := strings.ToLower(d.Name)

	switch {
	case name == q:
		return 1.00
	case strings.HasPrefix(name, q):
		return 0.92
	case strings.Contains(name, q):
		return 0.80
	}

	for _, t := range d.Tags {
		if strings.ToLower(t) == q {
			return 0.72
		}
	}
	for _, t := range d.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return 0.62
		}
	}

	if strings.Contains(strings.ToLower(d.Category), q) {
		return 0.55
	}
	if strings.Contains(strings.ToLower(d.FullPath), q) {
		return 0.45
	}
	for _, p := range d.AllPaths {
		if strings.Contains(strings.ToLower(p), q) {
			return 0.40
		}
	}

	if sim := Similarity(name, q); sim >= fuzzyThreshold {
		return sim * 0.60
	}
	return 0
}

// Similarity is the Sørensen-Dice coefficient over character bigrams, or
// unigrams when a contains non-Latin text.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	n := 2
	for _, r := range a {
		if r > 0xFF {
			n = 1
			break
		}
	}
	as, bs := grams(a, n), grams(b, n)
	common := 0
	for g := range as {
		if bs[g] {
			common++
		}
	}
	return 2 * float64(common) / float64(len(as)+len(bs))
}

func grams(s string, n int) map[string]bool {
	r := []rune(s)
	out := make(map[string]bool)
	for i := 0; i+n <= len(r); i++ {
		out[string(r[i:i+n])] = true
	}
	if len(out) == 0 {
		out[s] = true
	}
	return out
}

// Search returns drugs whose name, category, paths, or tags contain q.
// A blank query returns the whole catalog.
func (c *Catalog) Search(q string) []Drug {
	q = strings.TrimSpace(q)
	if q == "" {
		return c.drugs
	}
	var out []Drug
	for _, d := range c.drugs {
		if d.Matches(q) {
			out = append(out, d)
		}
	}
	return out
}

// Ranked is a search hit with its score.
type Ranked struct {
	Drug  Drug    `json:"drug"`
	Score float64 `json:"score"`
}

// SearchRanked returns drugs with a positive relevance, best first.
// Ties keep catalog order.
func (c *Catalog) SearchRanked(q string) []Ranked {
	var out []Ranked
	for _, d := range c.drugs {
		if s := d.Relevance(q); s > 0 {
			out = append(out, Ranked{Drug: d, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Categories lists distinct top-level categories, sorted. A non-nil tcm
// restricts the list to TCM or western drugs.
func (c *Catalog) Categories(tcm *bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range c.drugs {
		if tcm != nil && d.IsTCM != *tcm {
			continue
		}
		if !seen[d.Category] {
			seen[d.Category] = true
			out = append(out, d.Category)
		}
	}
	sort.Strings(out)
	return out
}
