// ABOUTME: Dose use cases: take, skip, undo, plan import, and reminder bookkeeping.
// ABOUTME: Keeps logs, stock, and pending alarms consistent for every dose action.
package doses

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harperreed/medlog/internal/models"
	"github.com/harperreed/medlog/internal/schedule"
	"github.com/harperreed/medlog/internal/storage"
)

// Service applies dose actions against a repository.
type Service struct {
	repo   storage.Repository
	sched  *schedule.Scheduler
	logger *zap.Logger
}

// New creates a dose service. A nil logger disables logging.
func New(repo storage.Repository, sched *schedule.Scheduler, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, sched: sched, logger: logger}
}

// Scheduler returns the scheduler used for alarm computation.
func (s *Service) Scheduler() *schedule.Scheduler {
	return s.sched
}

// todayRange returns [midnight, next midnight) in the scheduler's zone.
func (s *Service) todayRange() (time.Time, time.Time) {
	now := s.sched.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

// scheduledToday is today's dose time for the first reminder slot.
func (s *Service) scheduledToday(m *models.Medication) time.Time {
	now := s.sched.Now()
	h, min := m.ReminderHourMinute()
	return time.Date(now.Year(), now.Month(), now.Day(), h, min, 0, 0, now.Location())
}

// AddMedication stores a new medication and schedules its reminders.
func (s *Service) AddMedication(m *models.Medication) error {
	if err := s.repo.CreateMedication(m); err != nil {
		return err
	}
	_, err := s.Reschedule(m, nil)
	return err
}

// UpdateMedication saves changes and replaces its reminders.
func (s *Service) UpdateMedication(m *models.Medication) error {
	if err := s.repo.UpdateMedication(m); err != nil {
		return err
	}
	if m.IsArchived {
		return s.CancelReminders(m.ID)
	}
	_, err := s.Reschedule(m, nil)
	return err
}

// SetArchived archives (cancelling reminders) or restores (rescheduling) a medication.
func (s *Service) SetArchived(idOrPrefix string, archived bool) (*models.Medication, error) {
	if err := s.repo.SetArchived(idOrPrefix, archived); err != nil {
		return nil, err
	}
	m, err := s.repo.GetMedication(idOrPrefix)
	if err != nil {
		return nil, err
	}
	if archived {
		return m, s.CancelReminders(m.ID)
	}
	_, err = s.Reschedule(m, nil)
	return m, err
}

// MarkTaken replaces today's log with a taken log, decrements stock, and
// moves the medication's alarms past today.
func (s *Service) MarkTaken(m *models.Medication) (*models.MedicationLog, error) {
	l, err := s.replaceToday(m, models.StatusTaken)
	if err != nil {
		return nil, err
	}
	if err := s.adjustStock(m, -m.DoseQuantity); err != nil {
		return nil, err
	}
	if err := s.replanAfterDose(m, l.TakenAt); err != nil {
		return nil, err
	}
	s.logger.Info("dose taken", zap.String("medication", m.Name), zap.Time("scheduled_at", l.ScheduledAt))
	return l, nil
}

// MarkSkipped replaces today's log with a skipped log and moves alarms past today.
func (s *Service) MarkSkipped(m *models.Medication) (*models.MedicationLog, error) {
	l, err := s.replaceToday(m, models.StatusSkipped)
	if err != nil {
		return nil, err
	}
	if err := s.replanAfterDose(m, nil); err != nil {
		return nil, err
	}
	s.logger.Info("dose skipped", zap.String("medication", m.Name))
	return l, nil
}

// AnySlot makes TakeDose and SkipDose settle the whole day instead of one reminder slot.
const AnySlot = -1

// TakeDose logs a taken dose. Interval medications and explicit slots go
// through TakeFromReminder so the next alarm counts from now. AnySlot on a
// clock schedule replaces today's log.
func (s *Service) TakeDose(m *models.Medication, slot int) (*models.MedicationLog, error) {
	slot, whole, err := resolveSlot(m, slot)
	if err != nil {
		return nil, err
	}
	if whole {
		return s.MarkTaken(m)
	}
	l, err := s.TakeFromReminder(m.ID, slot)
	if err != nil {
		return nil, err
	}
	if got, err := s.repo.GetMedication(m.ID.String()); err == nil {
		m.Stock = got.Stock
	}
	return l, nil
}

// SkipDose is TakeDose for skipped doses.
func (s *Service) SkipDose(m *models.Medication, slot int) (*models.MedicationLog, error) {
	slot, whole, err := resolveSlot(m, slot)
	if err != nil {
		return nil, err
	}
	if whole {
		return s.MarkSkipped(m)
	}
	return s.SkipFromReminder(m.ID, slot)
}

func resolveSlot(m *models.Medication, slot int) (int, bool, error) {
	if m.IntervalHours > 0 {
		return 0, false, nil
	}
	if slot == AnySlot {
		return 0, true, nil
	}
	if _, ok := m.SlotTime(slot); !ok {
		return 0, false, fmt.Errorf("%s has no reminder slot %d", m.Name, slot)
	}
	return slot, false, nil
}

// MarkMissed records a missed dose at scheduledAt. Alarms are left alone.
func (s *Service) MarkMissed(m *models.Medication, scheduledAt time.Time) (*models.MedicationLog, error) {
	l := models.NewMedicationLog(m.ID, scheduledAt, models.StatusMissed, s.sched.Now())
	if err := s.repo.CreateLog(l); err != nil {
		return nil, err
	}
	s.logger.Info("dose missed", zap.String("medication", m.Name), zap.Time("scheduled_at", scheduledAt))
	return l, nil
}

func (s *Service) replaceToday(m *models.Medication, status models.LogStatus) (*models.MedicationLog, error) {
	start, end := s.todayRange()
	if _, err := s.repo.DeleteLogsInRange(m.ID, start, end); err != nil {
		return nil, err
	}
	l := models.NewMedicationLog(m.ID, s.scheduledToday(m), status, s.sched.Now())
	if err := s.repo.CreateLog(l); err != nil {
		return nil, err
	}
	return l, nil
}

// Undo reverts a taken or skipped log by ID or prefix.
func (s *Service) Undo(logIDOrPrefix string) (*models.MedicationLog, error) {
	l, err := s.repo.GetLog(logIDOrPrefix)
	if err != nil {
		return nil, err
	}
	m, err := s.repo.GetMedication(l.MedicationID.String())
	if err != nil {
		return nil, err
	}
	switch l.Status {
	case models.StatusTaken:
		err = s.UndoTaken(m, l)
	case models.StatusSkipped:
		err = s.UndoSkipped(m, l)
	default:
		err = s.repo.DeleteLog(l.ID.String())
	}
	return l, err
}

// UndoTaken deletes the log, restores stock, and reschedules reminders.
func (s *Service) UndoTaken(m *models.Medication, l *models.MedicationLog) error {
	if err := s.repo.DeleteLog(l.ID.String()); err != nil {
		return err
	}
	if err := s.adjustStock(m, m.DoseQuantity); err != nil {
		return err
	}
	_, err := s.Reschedule(m, nil)
	return err
}

// UndoSkipped deletes the log and reschedules reminders.
func (s *Service) UndoSkipped(m *models.Medication, l *models.MedicationLog) error {
	if err := s.repo.DeleteLog(l.ID.String()); err != nil {
		return err
	}
	_, err := s.Reschedule(m, nil)
	return err
}

// TakeFromReminder handles "taken" on a reminder: logs the dose at now,
// decrements stock, cancels follow-ups, and reschedules the slot. Interval
// dosing counts from the actual taken time.
func (s *Service) TakeFromReminder(medicationID uuid.UUID, slot int) (*models.MedicationLog, error) {
	m, err := s.repo.GetMedication(medicationID.String())
	if err != nil {
		return nil, err
	}
	now := s.sched.Now()
	l := models.NewMedicationLog(m.ID, now, models.StatusTaken, now)
	if err := s.repo.CreateLog(l); err != nil {
		return nil, err
	}
	if err := s.adjustStock(m, -m.DoseQuantity); err != nil {
		return nil, err
	}
	if err := s.repo.DeleteAlarmsForMedication(m.ID, models.AlarmFollowUp); err != nil {
		return nil, err
	}
	if err := s.rescheduleSlot(m, slot, &now); err != nil {
		return nil, err
	}
	return l, nil
}

// SkipFromReminder handles "skip" on a reminder.
func (s *Service) SkipFromReminder(medicationID uuid.UUID, slot int) (*models.MedicationLog, error) {
	m, err := s.repo.GetMedication(medicationID.String())
	if err != nil {
		return nil, err
	}
	now := s.sched.Now()
	l := models.NewMedicationLog(m.ID, now, models.StatusSkipped, now)
	if err := s.repo.CreateLog(l); err != nil {
		return nil, err
	}
	if err := s.repo.DeleteAlarmsForMedication(m.ID, models.AlarmFollowUp); err != nil {
		return nil, err
	}
	if err := s.rescheduleSlot(m, slot, nil); err != nil {
		return nil, err
	}
	return l, nil
}

// adjustStock adds delta to tracked stock, flooring at zero.
// Untracked stock stays untracked.
func (s *Service) adjustStock(m *models.Medication, delta float64) error {
	if m.Stock == nil {
		return nil
	}
	next := math.Max(*m.Stock+delta, 0)
	if err := s.repo.UpdateStock(m.ID, &next); err != nil {
		return err
	}
	m.Stock = &next
	return nil
}

// CancelReminders drops every pending alarm for a medication.
func (s *Service) CancelReminders(medicationID uuid.UUID) error {
	return s.repo.DeleteAlarmsForMedication(medicationID)
}

// Reschedule replaces a medication's alarms with a freshly computed plan.
func (s *Service) Reschedule(m *models.Medication, lastTaken *time.Time) ([]*models.Alarm, error) {
	if err := s.CancelReminders(m.ID); err != nil {
		return nil, err
	}
	if m.IsArchived {
		return nil, nil
	}
	alarms := s.sched.Plan(m, lastTaken)
	for _, a := range alarms {
		if err := s.repo.UpsertAlarm(a); err != nil {
			return nil, err
		}
	}
	s.logger.Debug("reminders scheduled", zap.String("medication", m.Name), zap.Int("alarms", len(alarms)))
	return alarms, nil
}

func (s *Service) rescheduleSlot(m *models.Medication, slot int, lastTaken *time.Time) error {
	after := s.sched.Now()
	if m.IntervalHours > 0 {
		slot = 0
	} else {
		lastTaken = nil
		after = s.slotSettledAt(m, slot)
	}
	for _, a := range s.sched.PlanSlotAfter(m, slot, after, lastTaken) {
		if err := s.repo.UpsertAlarm(a); err != nil {
			return err
		}
	}
	return nil
}

// slotSettledAt is the instant a dose action on slot covers: today's slot
// time while it is still ahead, otherwise now.
func (s *Service) slotSettledAt(m *models.Medication, slot int) time.Time {
	now := s.sched.Now()
	clock, ok := m.SlotTime(slot)
	if !ok {
		return now
	}
	h, min, err := models.ParseClock(clock)
	if err != nil {
		return now
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), h, min, 0, 0, now.Location())
	if at.After(now) {
		return at
	}
	return now
}

// endOfToday is the last instant of today. Clock schedules planned after it
// start tomorrow.
func (s *Service) endOfToday() time.Time {
	_, end := s.todayRange()
	return end.Add(-time.Nanosecond)
}

// replanAfterDose replaces a medication's alarms once today's dose is
// settled. Clock schedules resume tomorrow; interval dosing counts from
// lastTaken, or now when nil.
func (s *Service) replanAfterDose(m *models.Medication, lastTaken *time.Time) error {
	if err := s.CancelReminders(m.ID); err != nil {
		return err
	}
	if m.IsArchived {
		return nil
	}
	for _, a := range s.sched.PlanAfter(m, s.endOfToday(), lastTaken) {
		if err := s.repo.UpsertAlarm(a); err != nil {
			return err
		}
	}
	return nil
}

// RestoreReminders schedules alarms for active medications that have no
// pending main alarm, as after a restart. A medication already taken or
// skipped today resumes tomorrow. Returns the number of alarms scheduled.
func (s *Service) RestoreReminders() (int, error) {
	meds, err := s.repo.ListMedications(storage.MedicationFilter{})
	if err != nil {
		return 0, err
	}
	pending, err := s.repo.ListAlarms(nil)
	if err != nil {
		return 0, err
	}
	hasMain := make(map[uuid.UUID]bool, len(pending))
	for _, a := range pending {
		if a.Kind == models.AlarmMain {
			hasMain[a.MedicationID] = true
		}
	}

	total := 0
	for _, m := range meds {
		if m.IsPRN || hasMain[m.ID] {
			continue
		}
		settled, err := s.settledToday(m)
		if err != nil {
			return total, err
		}
		after := s.sched.Now()
		if settled {
			after = s.endOfToday()
		}
		alarms := s.sched.PlanAfter(m, after, s.lastTaken(m))
		for _, a := range alarms {
			if err := s.repo.UpsertAlarm(a); err != nil {
				return total, err
			}
		}
		if len(alarms) > 0 {
			s.logger.Info("reminders restored", zap.String("medication", m.Name), zap.Int("alarms", len(alarms)))
		}
		total += len(alarms)
	}
	return total, nil
}

// settledToday reports whether today already has a taken or skipped log.
func (s *Service) settledToday(m *models.Medication) (bool, error) {
	start, end := s.todayRange()
	logs, err := s.repo.ListLogs(storage.LogFilter{MedicationID: &m.ID, From: start, To: end})
	if err != nil {
		return false, err
	}
	for _, l := range logs {
		if l.Status == models.StatusTaken || l.Status == models.StatusSkipped {
			return true, nil
		}
	}
	return false, nil
}

// RescheduleAll recomputes alarms for every medication. Archived
// medications lose theirs. Returns the number of alarms scheduled.
func (s *Service) RescheduleAll() (int, error) {
	meds, err := s.repo.ListMedications(storage.MedicationFilter{IncludeArchived: true})
	if err != nil {
		return 0, err
	}
	total := 0
	for _, m := range meds {
		alarms, err := s.Reschedule(m, s.lastTaken(m))
		if err != nil {
			return total, fmt.Errorf("reschedule %s: %w", m.Name, err)
		}
		total += len(alarms)
	}
	return total, nil
}

// lastTaken finds the latest taken time for interval-dosed medications.
func (s *Service) lastTaken(m *models.Medication) *time.Time {
	if m.IntervalHours <= 0 {
		return nil
	}
	status := models.StatusTaken
	logs, err := s.repo.ListLogs(storage.LogFilter{MedicationID: &m.ID, Status: &status, Limit: 1})
	if err != nil || len(logs) == 0 {
		return nil
	}
	if logs[0].TakenAt != nil {
		return logs[0].TakenAt
	}
	return &logs[0].ScheduledAt
}

// ResyncReminders recomputes routine-relative reminder times for active,
// non-PRN, non-exact medications. Only changed medications are saved and
// rescheduled. Returns the changed medications.
func (s *Service) ResyncReminders(routine schedule.Routine) ([]*models.Medication, error) {
	meds, err := s.repo.ListMedications(storage.MedicationFilter{})
	if err != nil {
		return nil, err
	}

	var changed []*models.Medication
	for _, m := range meds {
		if m.IsPRN || m.TimePeriod == models.PeriodExact {
			continue
		}
		next := schedule.ReminderTimeFor(m.TimePeriod, routine)
		if next == "" || next == models.JoinTimes(m.ReminderTimes) {
			continue
		}
		m.ReminderTimes = []string{next}
		if err := s.repo.UpdateMedication(m); err != nil {
			return changed, err
		}
		if _, err := s.Reschedule(m, nil); err != nil {
			return changed, err
		}
		s.logger.Info("reminder time resynced", zap.String("medication", m.Name), zap.String("time", next))
		changed = append(changed, m)
	}
	return changed, nil
}
