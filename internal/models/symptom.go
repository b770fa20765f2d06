// ABOUTME: SymptomLog model for the symptom and side-effect diary.
// ABOUTME: Tags are stored comma-joined and exposed as trimmed lists.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SymptomLog is one diary entry describing how the user feels.
type SymptomLog struct {
	ID             uuid.UUID  `json:"id"`
	RecordedAt     time.Time  `json:"recorded_at"`
	OverallRating  int        `json:"overall_rating"`
	Symptoms       []string   `json:"symptoms,omitempty"`
	SideEffects    []string   `json:"side_effects,omitempty"`
	Note           string     `json:"note,omitempty"`
	MedicationID   *uuid.UUID `json:"medication_id,omitempty"`
	MedicationName string     `json:"medication_name,omitempty"`
}

// NewSymptomLog creates an entry with rating clamped to 1..5.
func NewSymptomLog(rating int) *SymptomLog {
	if rating < 1 {
		rating = 1
	}
	if rating > 5 {
		rating = 5
	}
	return &SymptomLog{
		ID:            uuid.New(),
		RecordedAt:    time.Now(),
		OverallRating: rating,
	}
}

// WithSymptoms sets symptom tags.
func (s *SymptomLog) WithSymptoms(tags ...string) *SymptomLog {
	s.Symptoms = cleanTags(tags)
	return s
}

// WithSideEffects sets side-effect tags.
func (s *SymptomLog) WithSideEffects(tags ...string) *SymptomLog {
	s.SideEffects = cleanTags(tags)
	return s
}

// WithNote sets a free-form note.
func (s *SymptomLog) WithNote(note string) *SymptomLog {
	s.Note = note
	return s
}

// WithRecordedAt sets a custom timestamp.
func (s *SymptomLog) WithRecordedAt(t time.Time) *SymptomLog {
	s.RecordedAt = t
	return s
}

// ForMedication links the entry to a medication.
func (s *SymptomLog) ForMedication(m *Medication) *SymptomLog {
	id := m.ID
	s.MedicationID = &id
	s.MedicationName = m.Name
	return s
}

// SplitTags parses "headache, nausea" into trimmed, non-empty tags.
func SplitTags(s string) []string {
	return cleanTags(strings.Split(s, ","))
}

// JoinTags renders tags comma-joined.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func cleanTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
