// ABOUTME: Builds validated medications from loosely typed user input.
// ABOUTME: Shared by the CLI flags and the MCP add_medication tool.
package doses

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/medlog/internal/drugs"
	"github.com/harperreed/medlog/internal/models"
	"github.com/harperreed/medlog/internal/schedule"
)

// ErrInvalidDraft wraps every validation failure from Draft.Build.
var ErrInvalidDraft = errors.New("invalid medication")

// Draft holds user-supplied fields for a new medication. Zero values pick defaults.
type Draft struct {
	Name          string
	Quantity      float64
	Unit          string
	Form          string
	Period        string
	Times         []string
	Frequency     string
	IntervalDays  int
	Days          []int
	IntervalHours int
	Stock         *float64
	RefillAt      *float64
	MaxDaily      *float64
	PRN           bool
	HighPriority  bool
	Notes         string
	Start         string
	End           string
}

// Build validates the draft and returns a medication. A name found in the
// catalog fills category and classification path; any other name is
// flagged as a custom drug.
func (d Draft) Build(routine schedule.Routine, catalog *drugs.Catalog) (*models.Medication, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidDraft)
	}
	if d.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrInvalidDraft)
	}

	qty := d.Quantity
	if qty == 0 {
		qty = 1
	}
	unit := d.Unit
	if unit == "" {
		unit = "tablet"
	}
	m := models.NewMedication(name, qty, unit)
	if d.Form != "" {
		m.Form = d.Form
	}

	if d.Period != "" {
		if !models.IsValidTimePeriod(d.Period) {
			return nil, fmt.Errorf("%w: unknown time period %q", ErrInvalidDraft, d.Period)
		}
		m.TimePeriod = models.TimePeriod(d.Period)
	}

	switch {
	case len(d.Times) > 0:
		for _, t := range d.Times {
			if _, _, err := models.ParseClock(t); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidDraft, err)
			}
		}
		m.ReminderTimes = append([]string(nil), d.Times...)
	case m.TimePeriod != models.PeriodExact:
		if t := schedule.ReminderTimeFor(m.TimePeriod, routine); t != "" {
			m.ReminderTimes = []string{t}
		}
	}

	switch models.FrequencyType(d.Frequency) {
	case "", models.FrequencyDaily:
	case models.FrequencyInterval:
		if d.IntervalDays < 1 {
			return nil, fmt.Errorf("%w: interval frequency needs interval days >= 1", ErrInvalidDraft)
		}
		m.EveryNDays(d.IntervalDays)
	case models.FrequencySpecificDays:
		if len(d.Days) == 0 {
			return nil, fmt.Errorf("%w: specific_days frequency needs at least one weekday", ErrInvalidDraft)
		}
		for _, day := range d.Days {
			if day < 1 || day > 7 {
				return nil, fmt.Errorf("%w: weekday %d out of range 1-7", ErrInvalidDraft, day)
			}
		}
		m.OnDays(d.Days...)
	default:
		return nil, fmt.Errorf("%w: unknown frequency %q", ErrInvalidDraft, d.Frequency)
	}

	if d.MaxDaily != nil && *d.MaxDaily <= 0 {
		return nil, fmt.Errorf("%w: max daily dose must be positive", ErrInvalidDraft)
	}

	if d.IntervalHours < 0 {
		return nil, fmt.Errorf("%w: interval hours must not be negative", ErrInvalidDraft)
	}
	m.IntervalHours = d.IntervalHours

	if d.Start != "" {
		start, err := time.ParseInLocation("2006-01-02", d.Start, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: start date: %v", ErrInvalidDraft, err)
		}
		m.StartDate = start
	}
	if d.End != "" {
		end, err := time.ParseInLocation("2006-01-02", d.End, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: end date: %v", ErrInvalidDraft, err)
		}
		if end.Before(m.StartDate) {
			return nil, fmt.Errorf("%w: end date is before start date", ErrInvalidDraft)
		}
		m.EndDate = &end
	}

	m.Stock = d.Stock
	m.RefillThreshold = d.RefillAt
	m.MaxDailyDose = d.MaxDaily
	m.IsPRN = d.PRN
	m.IsHighPriority = d.HighPriority
	m.Notes = d.Notes

	if catalog != nil {
		if drug, ok := catalog.Find(name); ok {
			m.WithCategory(drug.Category, drug.FullPath)
		} else {
			m.IsCustomDrug = true
		}
	}
	return m, nil
}
