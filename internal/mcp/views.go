// ABOUTME: Flat JSON views of domain types returned by tools and resources.
// ABOUTME: IDs are shortened to 8 characters and times rendered as RFC 3339.
package mcp

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/medlog/internal/doses"
	"github.com/harperreed/medlog/internal/interaction"
	"github.com/harperreed/medlog/internal/models"
)

type medicationView struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Dose         string   `json:"dose"`
	Times        []string `json:"times"`
	Schedule     string   `json:"schedule"`
	Category     string   `json:"category,omitempty"`
	Stock        *float64 `json:"stock,omitempty"`
	MaxDaily     *float64 `json:"max_daily,omitempty"`
	PRN          bool     `json:"prn,omitempty"`
	HighPriority bool     `json:"high_priority,omitempty"`
	Archived     bool     `json:"archived,omitempty"`
}

type logView struct {
	ID          string `json:"id"`
	Medication  string `json:"medication"`
	Status      string `json:"status"`
	ScheduledAt string `json:"scheduled_at"`
	TakenAt     string `json:"taken_at,omitempty"`
}

type interactionView struct {
	DrugA       string `json:"drug_a"`
	DrugB       string `json:"drug_b"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Advice      string `json:"advice"`
}

type reminderView struct {
	Medication  string `json:"medication"`
	Kind        string `json:"kind"`
	TriggerAt   string `json:"trigger_at"`
	ScheduledAt string `json:"scheduled_at"`
}

type healthView struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Value      float64 `json:"value"`
	Secondary  float64 `json:"secondary,omitempty"`
	Display    string  `json:"display"`
	Normal     bool    `json:"normal"`
	RecordedAt string  `json:"recorded_at"`
	Notes      string  `json:"notes,omitempty"`
}

func shortID(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func scheduleLabel(m *models.Medication) string {
	if m.IsPRN {
		return "as needed"
	}
	if m.IntervalHours > 0 {
		return fmt.Sprintf("every %d hours", m.IntervalHours)
	}
	switch m.FrequencyType {
	case models.FrequencyInterval:
		return fmt.Sprintf("every %d days", m.FrequencyInterval)
	case models.FrequencySpecificDays:
		days := make([]string, len(m.FrequencyDays))
		for i, d := range m.FrequencyDays {
			days[i] = time.Weekday(d % 7).String()[:3]
		}
		return strings.Join(days, ", ")
	}
	return "daily"
}

func toMedicationView(m *models.Medication) medicationView {
	return medicationView{
		ID:           shortID(m.ID.String()),
		Name:         m.Name,
		Dose:         m.DoseLabel(),
		Times:        m.ReminderTimes,
		Schedule:     scheduleLabel(m),
		Category:     m.Category,
		Stock:        m.Stock,
		MaxDaily:     m.MaxDailyDose,
		PRN:          m.IsPRN,
		HighPriority: m.IsHighPriority,
		Archived:     m.IsArchived,
	}
}

func toLogView(l *models.MedicationLog, name string) logView {
	v := logView{
		ID:          shortID(l.ID.String()),
		Medication:  name,
		Status:      string(l.Status),
		ScheduledAt: formatTime(l.ScheduledAt),
	}
	if l.TakenAt != nil {
		v.TakenAt = formatTime(*l.TakenAt)
	}
	return v
}

func toInteractionViews(results []interaction.Interaction) []interactionView {
	views := make([]interactionView, 0, len(results))
	for _, r := range results {
		views = append(views, interactionView{
			DrugA:       r.DrugA,
			DrugB:       r.DrugB,
			Severity:    r.Severity.String(),
			Description: r.Description,
			Advice:      r.Advice,
		})
	}
	return views
}

func toReminderViews(up []doses.Upcoming) []reminderView {
	views := make([]reminderView, 0, len(up))
	for _, u := range up {
		views = append(views, reminderView{
			Medication:  u.Medication.Name,
			Kind:        string(u.Alarm.Kind),
			TriggerAt:   formatTime(u.Alarm.TriggerAt),
			ScheduledAt: formatTime(u.Alarm.ScheduledAt),
		})
	}
	return views
}

func toHealthView(r *models.HealthRecord) healthView {
	v := healthView{
		ID:         shortID(r.ID.String()),
		Type:       string(r.Type),
		Value:      r.Value,
		Display:    r.Display(),
		Normal:     r.Type.IsNormal(r.Value),
		RecordedAt: formatTime(r.RecordedAt),
		Notes:      r.Notes,
	}
	if r.SecondaryValue != nil {
		v.Secondary = *r.SecondaryValue
	}
	return v
}

func percent(rate float64) string {
	return strconv.Itoa(int(rate*100+0.5)) + "%"
}
