// ABOUTME: Medication model with dosing schedule and stock tracking.
// ABOUTME: Defines frequency types, ISO weekday sets, and builder helpers.
package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FrequencyType describes how often a medication repeats.
type FrequencyType string

const (
	FrequencyDaily        FrequencyType = "daily"
	FrequencyInterval     FrequencyType = "interval"
	FrequencySpecificDays FrequencyType = "specific_days"
)

// IsValidFrequencyType checks if a string is a known frequency type.
func IsValidFrequencyType(s string) bool {
	switch FrequencyType(s) {
	case FrequencyDaily, FrequencyInterval, FrequencySpecificDays:
		return true
	}
	return false
}

// AllWeekdays is the ISO weekday set 1=Monday .. 7=Sunday.
var AllWeekdays = []int{1, 2, 3, 4, 5, 6, 7}

// Medication is a user-configured drug entry with its dosing schedule.
type Medication struct {
	ID                 uuid.UUID     `json:"id"`
	Name               string        `json:"name"`
	Dose               float64       `json:"dose"`
	DoseQuantity       float64       `json:"dose_quantity"`
	DoseUnit           string        `json:"dose_unit"`
	Form               string        `json:"form"`
	Category           string        `json:"category,omitempty"`
	FullPath           string        `json:"full_path,omitempty"`
	TimePeriod         TimePeriod    `json:"time_period"`
	ReminderTimes      []string      `json:"reminder_times"`
	FrequencyType      FrequencyType `json:"frequency_type"`
	FrequencyInterval  int           `json:"frequency_interval"`
	FrequencyDays      []int         `json:"frequency_days"`
	StartDate          time.Time     `json:"start_date"`
	EndDate            *time.Time    `json:"end_date,omitempty"`
	Stock              *float64      `json:"stock,omitempty"`
	RefillThreshold    *float64      `json:"refill_threshold,omitempty"`
	RefillReminderDays int           `json:"refill_reminder_days,omitempty"`
	IsPRN              bool          `json:"is_prn,omitempty"`
	IsHighPriority     bool          `json:"is_high_priority,omitempty"`
	IsArchived         bool          `json:"is_archived,omitempty"`
	IsCustomDrug       bool          `json:"is_custom_drug,omitempty"`
	Notes              string        `json:"notes,omitempty"`
	MaxDailyDose       *float64      `json:"max_daily_dose,omitempty"`
	IntervalHours      int           `json:"interval_hours,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
}

// NewMedication creates a daily medication taken once at 08:00.
func NewMedication(name string, quantity float64, unit string) *Medication {
	now := time.Now()
	return &Medication{
		ID:                uuid.New(),
		Name:              name,
		Dose:              quantity,
		DoseQuantity:      quantity,
		DoseUnit:          unit,
		Form:              "tablet",
		TimePeriod:        PeriodExact,
		ReminderTimes:     []string{"08:00"},
		FrequencyType:     FrequencyDaily,
		FrequencyInterval: 1,
		FrequencyDays:     append([]int(nil), AllWeekdays...),
		StartDate:         time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		CreatedAt:         now,
	}
}

// WithReminderTimes replaces the reminder slots.
func (m *Medication) WithReminderTimes(times ...string) *Medication {
	m.ReminderTimes = times
	return m
}

// WithTimePeriod sets the time-of-day period.
func (m *Medication) WithTimePeriod(p TimePeriod) *Medication {
	m.TimePeriod = p
	return m
}

// WithCategory sets the category and classification path used by interaction checks.
func (m *Medication) WithCategory(category, fullPath string) *Medication {
	m.Category = category
	m.FullPath = fullPath
	return m
}

// WithStock enables stock tracking.
func (m *Medication) WithStock(stock, refillThreshold float64) *Medication {
	m.Stock = &stock
	m.RefillThreshold = &refillThreshold
	return m
}

// WithNotes sets free-form notes.
func (m *Medication) WithNotes(notes string) *Medication {
	m.Notes = notes
	return m
}

// AsPRN marks the medication as taken only when needed.
func (m *Medication) AsPRN() *Medication {
	m.IsPRN = true
	return m
}

// WithIntervalHours switches the medication to interval dosing.
func (m *Medication) WithIntervalHours(hours int) *Medication {
	m.IntervalHours = hours
	return m
}

// EveryNDays sets an interval frequency.
func (m *Medication) EveryNDays(n int) *Medication {
	m.FrequencyType = FrequencyInterval
	m.FrequencyInterval = n
	return m
}

// OnDays sets a specific-days frequency using ISO weekdays.
func (m *Medication) OnDays(days ...int) *Medication {
	m.FrequencyType = FrequencySpecificDays
	m.FrequencyDays = days
	return m
}

// ReminderHourMinute returns the first reminder slot, defaulting to 08:00.
func (m *Medication) ReminderHourMinute() (int, int) {
	for _, t := range m.ReminderTimes {
		if h, min, err := ParseClock(t); err == nil {
			return h, min
		}
	}
	return 8, 0
}

// DoseLabel formats quantity and unit for display.
func (m *Medication) DoseLabel() string {
	return strconv.FormatFloat(m.DoseQuantity, 'f', -1, 64) + " " + m.DoseUnit
}

// MaxDailyLabel formats the daily maximum, or "" when none is set.
func (m *Medication) MaxDailyLabel() string {
	if m.MaxDailyDose == nil {
		return ""
	}
	return "max " + strconv.FormatFloat(*m.MaxDailyDose, 'f', -1, 64) + " " + m.DoseUnit + "/day"
}

// SlotTime returns the reminder time at index, if present.
func (m *Medication) SlotTime(index int) (string, bool) {
	if index < 0 || index >= len(m.ReminderTimes) {
		return "", false
	}
	return m.ReminderTimes[index], true
}

// ParseClock parses an "HH:MM" string.
func ParseClock(s string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	min, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, min, nil
}

// JoinTimes renders reminder slots as "08:00,20:00".
func JoinTimes(times []string) string {
	return strings.Join(times, ",")
}

// SplitTimes parses "08:00, 20:00" into trimmed, non-empty slots.
func SplitTimes(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// JoinDays renders ISO weekdays as "1,3,5".
func JoinDays(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// SplitDays parses "1,3,5", dropping anything outside 1..7.
func SplitDays(s string) []int {
	seen := make(map[int]bool)
	var out []int
	for _, p := range strings.Split(s, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || d < 1 || d > 7 || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// ISOWeekday converts a time.Weekday to 1=Monday .. 7=Sunday.
func ISOWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}
