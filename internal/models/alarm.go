// ABOUTME: Alarm model for pending reminder triggers.
// ABOUTME: One alarm per (medication, slot, kind); rescheduling replaces it.
package models

import (
	"time"

	"github.com/google/uuid"
)

// AlarmKind distinguishes the three reminder flavours.
type AlarmKind string

const (
	AlarmMain     AlarmKind = "main"
	AlarmEarly    AlarmKind = "early"
	AlarmFollowUp AlarmKind = "follow_up"
)

// Alarm is a pending reminder for one dose slot.
type Alarm struct {
	ID            uuid.UUID `json:"id"`
	MedicationID  uuid.UUID `json:"medication_id"`
	Slot          int       `json:"slot"`
	Kind          AlarmKind `json:"kind"`
	TriggerAt     time.Time `json:"trigger_at"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	EarlyMinutes  int       `json:"early_minutes,omitempty"`
	FollowUpCount int       `json:"follow_up_count,omitempty"`
	FollowUpMax   int       `json:"follow_up_max,omitempty"`
	FollowUpDelay int       `json:"follow_up_delay_minutes,omitempty"`
}

// NewAlarm creates an alarm whose dose is due at scheduledAt.
func NewAlarm(medicationID uuid.UUID, slot int, kind AlarmKind, triggerAt, scheduledAt time.Time) *Alarm {
	return &Alarm{
		ID:           uuid.New(),
		MedicationID: medicationID,
		Slot:         slot,
		Kind:         kind,
		TriggerAt:    triggerAt,
		ScheduledAt:  scheduledAt,
	}
}
