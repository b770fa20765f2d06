// ABOUTME: MedicationLog model recording the outcome of a scheduled dose.
// ABOUTME: Logs are immutable facts: taken, skipped, or missed.
package models

import (
	"time"

	"github.com/google/uuid"
)

// LogStatus is the outcome of a scheduled dose.
type LogStatus string

const (
	StatusTaken   LogStatus = "taken"
	StatusSkipped LogStatus = "skipped"
	StatusMissed  LogStatus = "missed"
)

// IsValidLogStatus checks if a string is a known status.
func IsValidLogStatus(s string) bool {
	switch LogStatus(s) {
	case StatusTaken, StatusSkipped, StatusMissed:
		return true
	}
	return false
}

// MedicationLog records what happened to one scheduled dose.
type MedicationLog struct {
	ID           uuid.UUID  `json:"id"`
	MedicationID uuid.UUID  `json:"medication_id"`
	ScheduledAt  time.Time  `json:"scheduled_at"`
	TakenAt      *time.Time `json:"taken_at,omitempty"`
	Status       LogStatus  `json:"status"`
	Notes        string     `json:"notes,omitempty"`
}

// NewMedicationLog creates a log entry; TakenAt is set only for taken doses.
func NewMedicationLog(medicationID uuid.UUID, scheduledAt time.Time, status LogStatus, at time.Time) *MedicationLog {
	l := &MedicationLog{
		ID:           uuid.New(),
		MedicationID: medicationID,
		ScheduledAt:  scheduledAt,
		Status:       status,
	}
	if status == StatusTaken {
		l.TakenAt = &at
	}
	return l
}

// WithNotes sets notes on the log.
func (l *MedicationLog) WithNotes(notes string) *MedicationLog {
	l.Notes = notes
	return l
}
