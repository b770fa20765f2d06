// ABOUTME: Today's dose checklist, progress, and refill warnings.
// ABOUTME: Read-only views over medications and logs.
package doses

import (
	"math"

	"github.com/harperreed/medlog/internal/models"
	"github.com/harperreed/medlog/internal/schedule"
	"github.com/harperreed/medlog/internal/storage"
)

// TodayItem is one medication on today's checklist.
type TodayItem struct {
	Medication *models.Medication    `json:"medication"`
	Log        *models.MedicationLog `json:"log,omitempty"`
}

// Done reports whether the dose was taken or skipped today.
func (i TodayItem) Done() bool {
	return i.Log != nil && i.Log.Status != models.StatusMissed
}

// Today lists active medications due today, PRN medications included, with
// today's most recent log for each.
func (s *Service) Today() ([]TodayItem, error) {
	meds, err := s.repo.ListMedications(storage.MedicationFilter{})
	if err != nil {
		return nil, err
	}
	start, end := s.todayRange()
	logs, err := s.repo.ListLogs(storage.LogFilter{From: start, To: end})
	if err != nil {
		return nil, err
	}

	latest := make(map[string]*models.MedicationLog)
	for _, l := range logs {
		// logs are newest first
		if _, ok := latest[l.MedicationID.String()]; !ok {
			latest[l.MedicationID.String()] = l
		}
	}

	now := s.sched.Now()
	var items []TodayItem
	for _, m := range meds {
		if !m.IsPRN && !s.sched.DueOn(schedule.FrequencyOf(m), now) {
			continue
		}
		items = append(items, TodayItem{Medication: m, Log: latest[m.ID.String()]})
	}
	return items, nil
}

// Progress summarises today's scheduled doses.
type Progress struct {
	Taken   int      `json:"taken"`
	Total   int      `json:"total"`
	Pending []string `json:"pending"`
}

// TodayProgress counts taken doses among today's non-PRN medications and
// names those still pending.
func (s *Service) TodayProgress() (*Progress, error) {
	items, err := s.Today()
	if err != nil {
		return nil, err
	}
	p := &Progress{Pending: []string{}}
	for _, it := range items {
		if it.Medication.IsPRN {
			continue
		}
		p.Total++
		if it.Log != nil && it.Log.Status == models.StatusTaken {
			p.Taken++
		}
		if !it.Done() {
			p.Pending = append(p.Pending, it.Medication.Name)
		}
	}
	return p, nil
}

// RefillWarning flags a medication that is running low.
type RefillWarning struct {
	Medication *models.Medication `json:"medication"`
	Stock      float64            `json:"stock"`
	// DaysLeft is -1 when daily use is unknown.
	DaysLeft int  `json:"days_left"`
	BelowMin bool `json:"below_threshold"`
}

// RefillWarnings returns active medications whose stock is at or below the
// refill threshold, or whose days of supply are at or below the refill
// reminder days.
func (s *Service) RefillWarnings() ([]RefillWarning, error) {
	meds, err := s.repo.ListMedications(storage.MedicationFilter{})
	if err != nil {
		return nil, err
	}

	var out []RefillWarning
	for _, m := range meds {
		if m.Stock == nil {
			continue
		}
		w := RefillWarning{Medication: m, Stock: *m.Stock, DaysLeft: DaysOfSupply(m)}
		w.BelowMin = m.RefillThreshold != nil && *m.Stock <= *m.RefillThreshold
		lowDays := m.RefillReminderDays > 0 && w.DaysLeft >= 0 && w.DaysLeft <= m.RefillReminderDays
		if w.BelowMin || lowDays {
			out = append(out, w)
		}
	}
	return out, nil
}

// DaysOfSupply is stock divided by daily use, rounded down, or -1 when the
// medication has no stock or no fixed daily use.
func DaysOfSupply(m *models.Medication) int {
	if m.Stock == nil || m.IsPRN || m.DoseQuantity <= 0 {
		return -1
	}
	perDay := float64(len(m.ReminderTimes))
	if m.IntervalHours > 0 {
		perDay = 24 / float64(m.IntervalHours)
	}
	if perDay <= 0 {
		return -1
	}
	return int(math.Floor(*m.Stock / (m.DoseQuantity * perDay)))
}
