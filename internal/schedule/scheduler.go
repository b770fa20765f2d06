// ABOUTME: Alarm trigger computation for recurring medication schedules.
// ABOUTME: Handles daily, interval, and specific-day frequencies plus early and follow-up alarms.
package schedule

import (
	"time"

	"github.com/harperreed/medlog/internal/models"
)

const (
	// MaxReminderSlots caps reminder times per medication.
	MaxReminderSlots = 20
	// SuppressionMargin widens the follow-up suppression window on both sides.
	SuppressionMargin = 30 * time.Minute
	// earlyLeadMin is how far in the future an early alarm must be to be scheduled.
	earlyLeadMin = time.Minute
)

// Options configures a Scheduler.
type Options struct {
	// Location is the zone clock times are interpreted in. Nil means time.Local.
	Location        *time.Location
	EarlyMinutes    int
	FollowUpEnabled bool
	FollowUpDelay   time.Duration
	FollowUpMax     int
}

// Scheduler computes alarm triggers. It holds no state besides its options
// and clock, so it is safe for concurrent use.
type Scheduler struct {
	opts Options
	now  func() time.Time
}

// New creates a Scheduler using the wall clock.
func New(opts Options) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Scheduler{opts: opts, now: time.Now}
}

// WithClock replaces the clock, for tests and replays.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Now returns the scheduler's current time in its location.
func (s *Scheduler) Now() time.Time {
	return s.now().In(s.opts.Location)
}

// Options returns the scheduler's options.
func (s *Scheduler) Options() Options {
	return s.opts
}

// Frequency is the recurrence part of a medication.
type Frequency struct {
	Type     models.FrequencyType
	Interval int
	Days     []int
	Start    time.Time
	End      *time.Time
}

// FrequencyOf extracts a medication's recurrence.
func FrequencyOf(m *models.Medication) Frequency {
	return Frequency{
		Type:     m.FrequencyType,
		Interval: m.FrequencyInterval,
		Days:     m.FrequencyDays,
		Start:    m.StartDate,
		End:      m.EndDate,
	}
}

// NextTrigger returns the next time strictly after now that clock ("HH:MM")
// falls on for the given frequency. ok is false when the clock is invalid,
// no allowed weekday exists, or the trigger would fall after the end date.
func (s *Scheduler) NextTrigger(clock string, f Frequency) (time.Time, bool) {
	return s.NextTriggerAfter(clock, f, s.Now())
}

// NextTriggerAfter is NextTrigger measured from after instead of now.
func (s *Scheduler) NextTriggerAfter(clock string, f Frequency, after time.Time) (time.Time, bool) {
	hour, minute, err := models.ParseClock(clock)
	if err != nil {
		return time.Time{}, false
	}

	loc := s.opts.Location
	now := after.In(loc)
	cand := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
	if !cand.After(now) {
		cand = cand.AddDate(0, 0, 1)
	}

	if !f.Start.IsZero() {
		first := time.Date(f.Start.Year(), f.Start.Month(), f.Start.Day(), hour, minute, 0, 0, loc)
		if cand.Before(first) {
			cand = first
		}
	}

	switch f.Type {
	case models.FrequencySpecificDays:
		allowed := make(map[int]bool, len(f.Days))
		for _, d := range f.Days {
			allowed[d] = true
		}
		found := false
		for offset := 0; offset <= 7; offset++ {
			c := cand.AddDate(0, 0, offset)
			if allowed[models.ISOWeekday(c.Weekday())] && c.After(now) {
				cand = c
				found = true
				break
			}
		}
		if !found {
			return time.Time{}, false
		}
	case models.FrequencyInterval:
		n := f.Interval
		if n < 1 {
			n = 1
		}
		if f.Start.IsZero() {
			if n > 1 {
				cand = cand.AddDate(0, 0, n-1)
			}
		} else if rem := daysBetween(f.Start, cand) % n; rem != 0 {
			cand = cand.AddDate(0, 0, n-rem)
		}
	}

	if f.End != nil {
		endOfDay := time.Date(f.End.Year(), f.End.Month(), f.End.Day()+1, 0, 0, 0, 0, loc)
		if !cand.Before(endOfDay) {
			return time.Time{}, false
		}
	}
	return cand, true
}

// DueOn reports whether the frequency schedules a dose on day's calendar
// date in the scheduler's location.
func (s *Scheduler) DueOn(f Frequency, day time.Time) bool {
	loc := s.opts.Location
	d := day.In(loc)
	date := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)

	if !f.Start.IsZero() {
		start := time.Date(f.Start.Year(), f.Start.Month(), f.Start.Day(), 0, 0, 0, 0, loc)
		if date.Before(start) {
			return false
		}
	}
	if f.End != nil {
		end := time.Date(f.End.Year(), f.End.Month(), f.End.Day(), 0, 0, 0, 0, loc)
		if date.After(end) {
			return false
		}
	}

	switch f.Type {
	case models.FrequencySpecificDays:
		weekday := models.ISOWeekday(date.Weekday())
		for _, d := range f.Days {
			if d == weekday {
				return true
			}
		}
		return false
	case models.FrequencyInterval:
		n := f.Interval
		if n < 1 {
			n = 1
		}
		if f.Start.IsZero() {
			return true
		}
		return daysBetween(f.Start, date)%n == 0
	}
	return true
}

// Plan computes every alarm a medication needs right now. PRN medications
// get none. Interval dosing gets one main alarm intervalHours after
// lastTaken (or now). Clock schedules get one main alarm per reminder slot.
// Each main alarm is paired with an early alarm when enabled.
func (s *Scheduler) Plan(m *models.Medication, lastTaken *time.Time) []*models.Alarm {
	return s.PlanAfter(m, s.Now(), lastTaken)
}

// PlanAfter is Plan with clock schedules starting strictly after after.
// Interval dosing ignores after and counts from lastTaken or now.
func (s *Scheduler) PlanAfter(m *models.Medication, after time.Time, lastTaken *time.Time) []*models.Alarm {
	if m.IsPRN {
		return nil
	}
	if m.IntervalHours > 0 {
		return s.PlanSlotAfter(m, 0, after, lastTaken)
	}

	var alarms []*models.Alarm
	for i := range m.ReminderTimes {
		if i >= MaxReminderSlots {
			break
		}
		alarms = append(alarms, s.PlanSlotAfter(m, i, after, nil)...)
	}
	return alarms
}

// PlanSlot computes the main and early alarm for one reminder slot.
func (s *Scheduler) PlanSlot(m *models.Medication, slot int, lastTaken *time.Time) []*models.Alarm {
	return s.PlanSlotAfter(m, slot, s.Now(), lastTaken)
}

// PlanSlotAfter is PlanSlot with a clock slot starting strictly after after.
func (s *Scheduler) PlanSlotAfter(m *models.Medication, slot int, after time.Time, lastTaken *time.Time) []*models.Alarm {
	if m.IsPRN {
		return nil
	}

	var trigger time.Time
	if m.IntervalHours > 0 {
		base := s.Now()
		if lastTaken != nil {
			base = *lastTaken
		}
		trigger = base.Add(time.Duration(m.IntervalHours) * time.Hour)
	} else {
		clock, ok := m.SlotTime(slot)
		if !ok {
			return nil
		}
		trigger, ok = s.NextTriggerAfter(clock, FrequencyOf(m), after)
		if !ok {
			return nil
		}
	}

	main := models.NewAlarm(m.ID, slot, models.AlarmMain, trigger, trigger)
	alarms := []*models.Alarm{main}
	if early := s.Early(main); early != nil {
		alarms = append(alarms, early)
	}
	return alarms
}

// Early returns the early alarm preceding main, or nil when early reminders
// are off or the early time is less than a minute away.
func (s *Scheduler) Early(main *models.Alarm) *models.Alarm {
	mins := s.opts.EarlyMinutes
	if mins <= 0 {
		return nil
	}
	at := main.TriggerAt.Add(-time.Duration(mins) * time.Minute)
	if !at.After(s.Now().Add(earlyLeadMin)) {
		return nil
	}
	a := models.NewAlarm(main.MedicationID, main.Slot, models.AlarmEarly, at, main.ScheduledAt)
	a.EarlyMinutes = mins
	return a
}

// FirstFollowUp returns follow-up #1 for a fired main alarm, or nil when
// follow-ups are disabled.
func (s *Scheduler) FirstFollowUp(main *models.Alarm) *models.Alarm {
	if !s.opts.FollowUpEnabled || s.opts.FollowUpMax < 1 {
		return nil
	}
	return s.FollowUp(main, 1, s.opts.FollowUpMax, s.opts.FollowUpDelay)
}

// NextFollowUp returns the follow-up after fired, or nil once the maximum is reached.
func (s *Scheduler) NextFollowUp(fired *models.Alarm) *models.Alarm {
	if fired.FollowUpCount >= fired.FollowUpMax {
		return nil
	}
	delay := time.Duration(fired.FollowUpDelay) * time.Minute
	return s.FollowUp(fired, fired.FollowUpCount+1, fired.FollowUpMax, delay)
}

// FollowUp builds a follow-up alarm at now + delay for the dose of from.
func (s *Scheduler) FollowUp(from *models.Alarm, count, max int, delay time.Duration) *models.Alarm {
	a := models.NewAlarm(from.MedicationID, from.Slot, models.AlarmFollowUp, s.Now().Add(delay), from.ScheduledAt)
	a.FollowUpCount = count
	a.FollowUpMax = max
	a.FollowUpDelay = int(delay / time.Minute)
	return a
}

// SuppressionWindow is the range in which a log for the dose silences a
// follow-up: [scheduled - 30m, scheduled + delay*count + 30m].
func SuppressionWindow(a *models.Alarm) (time.Time, time.Time) {
	delay := time.Duration(a.FollowUpDelay) * time.Minute
	from := a.ScheduledAt.Add(-SuppressionMargin)
	to := a.ScheduledAt.Add(delay*time.Duration(a.FollowUpCount) + SuppressionMargin)
	return from, to
}

// Suppressed reports whether any non-missed log for the alarm's medication
// lies inside its suppression window.
func Suppressed(a *models.Alarm, logs []*models.MedicationLog) bool {
	from, to := SuppressionWindow(a)
	for _, l := range logs {
		if l.MedicationID != a.MedicationID || l.Status == models.StatusMissed {
			continue
		}
		if !l.ScheduledAt.Before(from) && !l.ScheduledAt.After(to) {
			return true
		}
	}
	return false
}

// daysBetween counts calendar days from a to b, ignoring clock time and zone offsets.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
