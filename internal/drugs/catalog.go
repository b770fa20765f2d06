// ABOUTME: Embedded drug catalog with classification paths.
// ABOUTME: Loads western and TCM JSON assets and derives category, initial, and compound flag.
package drugs

import (
	"embed"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/encoding/simplifiedchinese"
)

//go:embed data/*.json
var assets embed.FS

// PathSeparator splits classification path levels.
const PathSeparator = " > "

// Drug is a read-only catalog entry.
type Drug struct {
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	FullPath   string   `json:"full_path"`
	AllPaths   []string `json:"all_paths,omitempty"`
	IsTCM      bool     `json:"is_tcm"`
	Initial    string   `json:"initial"`
	Tags       []string `json:"tags,omitempty"`
	IsCompound bool     `json:"is_compound"`
}

// Catalog is an immutable, sorted drug list.
type Catalog struct {
	drugs []Drug
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog, loaded once.
func Default() *Catalog {
	defaultOnce.Do(func() {
		western, _ := assets.ReadFile("data/western.json")
		tcm, _ := assets.ReadFile("data/tcm.json")
		defaultCatalog = New(Parse(western, false), Parse(tcm, true))
	})
	return defaultCatalog
}

// New merges drug lists into a catalog sorted by (initial, name).
func New(lists ...[]Drug) *Catalog {
	var all []Drug
	for _, l := range lists {
		all = append(all, l...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Initial != all[j].Initial {
			return all[i].Initial < all[j].Initial
		}
		return all[i].Name < all[j].Name
	})
	return &Catalog{drugs: all}
}

// All returns every drug.
func (c *Catalog) All() []Drug {
	return c.drugs
}

// Len returns the number of drugs.
func (c *Catalog) Len() int {
	return len(c.drugs)
}

// Find returns the drug with exactly this name.
func (c *Catalog) Find(name string) (Drug, bool) {
	for _, d := range c.drugs {
		if d.Name == name {
			return d, true
		}
	}
	return Drug{}, false
}

// Parse reads a catalog document mapping name to a path string or a list
// of paths. Malformed input yields an empty list.
func Parse(data []byte, isTCM bool) []Drug {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil
	}

	out := make([]Drug, 0, len(root))
	for name, raw := range root {
		paths := decodePaths(raw)
		if len(paths) == 0 {
			continue
		}

		best := paths[0]
		category := strings.Split(best, PathSeparator)[0]
		d := Drug{
			Name:       name,
			Category:   category,
			FullPath:   best,
			IsTCM:      isTCM,
			Initial:    Initial(name),
			Tags:       tagsFor(paths),
			IsCompound: isCompound(name, paths),
		}
		if len(paths) > 1 {
			d.AllPaths = paths
		}
		out = append(out, d)
	}
	return out
}

func decodePaths(raw json.RawMessage) []string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	return nil
}

func isCompound(name string, paths []string) bool {
	if strings.Contains(name, "/") || strings.HasPrefix(name, "复方") {
		return true
	}
	for _, p := range paths {
		if strings.Contains(p, "复方") && !strings.Contains(p, "复方除外") {
			return true
		}
	}
	return false
}

// gb2312Initials lists the first GB2312 code of each pinyin initial.
var gb2312Initials = []struct {
	code    int
	initial string
}{
	{0xB0A1, "A"}, {0xB0C5, "B"}, {0xB2C1, "C"}, {0xB4EE, "D"}, {0xB6EA, "E"},
	{0xB7A2, "F"}, {0xB8C1, "G"}, {0xB9FE, "H"}, {0xBBF7, "J"}, {0xBFA6, "K"},
	{0xC0AC, "L"}, {0xC2E8, "M"}, {0xC4C3, "N"}, {0xC5B6, "O"}, {0xC5BE, "P"},
	{0xC6DA, "Q"}, {0xC8BB, "R"}, {0xC8F6, "S"}, {0xCBFA, "T"}, {0xCDDA, "W"},
	{0xCEF4, "X"}, {0xD1B9, "Y"}, {0xD4D1, "Z"},
}

// gb2312Level1End is one past the last level-1 (pinyin ordered) hanzi.
const gb2312Level1End = 0xD7FA

// Initial returns the index letter for a name: an ASCII letter upper-cased,
// a common hanzi mapped to its pinyin initial, or "#".
func Initial(name string) string {
	if name == "" {
		return "#"
	}
	r := []rune(name)[0]
	if r < unicode.MaxASCII {
		if unicode.IsLetter(r) {
			return string(unicode.ToUpper(r))
		}
		return "#"
	}
	if !unicode.Is(unicode.Han, r) {
		return "#"
	}

	enc, err := simplifiedchinese.GBK.NewEncoder().String(string(r))
	if err != nil || len(enc) != 2 {
		return "#"
	}
	code := int(enc[0])<<8 | int(enc[1])
	if code < gb2312Initials[0].code || code >= gb2312Level1End {
		return "#"
	}
	initial := "#"
	for _, g := range gb2312Initials {
		if code < g.code {
			break
		}
		initial = g.initial
	}
	return initial
}
