// ABOUTME: Encodes and decodes shareable medication plans.
// ABOUTME: Format is "anshin:v1:" + unpadded URL-safe base64 of gzipped JSON.
package planexport

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/harperreed/medlog/internal/models"
)

const (
	// Scheme prefixes every encoded plan.
	Scheme = "anshin:v1:"
	// MaxQRLength is the longest encoded plan that still fits a QR code.
	MaxQRLength = 2900

	planVersion = 1
	planApp     = "anshin"
)

// ImportMode selects how a decoded plan is applied.
type ImportMode string

const (
	ImportMerge   ImportMode = "merge"
	ImportReplace ImportMode = "replace"
)

// ParseImportMode maps "merge"/"replace" case-insensitively; anything else is an error.
func ParseImportMode(s string) (ImportMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "merge":
		return ImportMerge, nil
	case "replace":
		return ImportReplace, nil
	}
	return "", fmt.Errorf("invalid import mode %q (use merge or replace)", s)
}

// Plan is the decoded export envelope.
type Plan struct {
	Version int     `json:"v"`
	App     string  `json:"app"`
	Meds    []Entry `json:"meds"`
}

// Encode packs every non-archived medication into an encoded plan string.
func Encode(meds []*models.Medication) (string, error) {
	plan := Plan{Version: planVersion, App: planApp, Meds: []Entry{}}
	for _, m := range meds {
		if m.IsArchived {
			continue
		}
		plan.Meds = append(plan.Meds, EntryFromMedication(m))
	}

	payload, err := json.Marshal(plan)
	if err != nil {
		return "", fmt.Errorf("marshal plan: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return "", fmt.Errorf("compress plan: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress plan: %w", err)
	}

	return Scheme + base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode unpacks an encoded plan. It returns false for foreign strings, for
// any malformed base64, gzip, or JSON payload, and for documents without a
// meds list or with incomplete entries.
func Decode(encoded string) (*Plan, bool) {
	if !strings.HasPrefix(encoded, Scheme) {
		return nil, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(encoded, Scheme))
	if err != nil {
		return nil, false
	}

	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, false
	}
	defer zr.Close()
	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, false
	}

	var env struct {
		Version *int     `json:"v"`
		App     *string  `json:"app"`
		Meds    *[]Entry `json:"meds"`
	}
	if err := json.Unmarshal(payload, &env); err != nil || env.Meds == nil {
		return nil, false
	}
	plan := &Plan{Version: planVersion, App: planApp, Meds: *env.Meds}
	if env.Version != nil {
		plan.Version = *env.Version
	}
	if env.App != nil {
		plan.App = *env.App
	}
	return plan, true
}

// CanDisplayAsQR reports whether encoded is short enough for a QR code.
func CanDisplayAsQR(encoded string) bool {
	return len(encoded) <= MaxQRLength
}

// EstimatedBytes is the payload length after the scheme, or 0 for foreign strings.
func EstimatedBytes(encoded string) int {
	if !strings.HasPrefix(encoded, Scheme) {
		return 0
	}
	return len(encoded) - len(Scheme)
}

// Medications converts every entry to a fresh medication.
func (p *Plan) Medications() []*models.Medication {
	meds := make([]*models.Medication, 0, len(p.Meds))
	for _, e := range p.Meds {
		meds = append(meds, e.ToMedication())
	}
	return meds
}
