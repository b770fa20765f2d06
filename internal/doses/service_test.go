// ABOUTME: Tests for dose actions, plan import, resync, and progress views.
// ABOUTME: Runs against a temporary SQLite database with a fixed clock.
package doses

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harperreed/medlog/internal/models"
	"github.com/harperreed/medlog/internal/planexport"
	"github.com/harperreed/medlog/internal/schedule"
	"github.com/harperreed/medlog/internal/storage"
)

var zone = time.FixedZone("TEST", 2*3600)

// Monday 2026-03-02 10:00.
var now = time.Date(2026, 3, 2, 10, 0, 0, 0, zone)

func setupService(t *testing.T) (*Service, *storage.DB) {
	t.Helper()
	return setupServiceAt(t, now)
}

func setupServiceAt(t *testing.T, at time.Time) (*Service, *storage.DB) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "medlog-doses-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	db, err := storage.Open(filepath.Join(tmpDir, "medlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sched := schedule.New(schedule.Options{
		Location:        zone,
		FollowUpEnabled: true,
		FollowUpDelay:   15 * time.Minute,
		FollowUpMax:     1,
	}).WithClock(func() time.Time { return at })

	return New(db, sched, zap.NewNop()), db
}

func newMed(name string, times ...string) *models.Medication {
	m := models.NewMedication(name, 1, "tablet").WithReminderTimes(times...)
	m.StartDate = time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)
	return m
}

func addMed(t *testing.T, s *Service, m *models.Medication) *models.Medication {
	t.Helper()
	require.NoError(t, s.AddMedication(m))
	return m
}

func alarmsFor(t *testing.T, db *storage.DB, m *models.Medication) []*models.Alarm {
	t.Helper()
	alarms, err := db.ListAlarms(&m.ID)
	require.NoError(t, err)
	return alarms
}

func TestAddMedicationSchedules(t *testing.T) {
	s, db := setupService(t)
	m := addMed(t, s, newMed("Aspirin", "08:00", "20:00"))

	alarms := alarmsFor(t, db, m)
	require.Len(t, alarms, 2)
	assert.True(t, alarms[0].TriggerAt.Equal(time.Date(2026, 3, 2, 20, 0, 0, 0, zone)))
	assert.True(t, alarms[1].TriggerAt.Equal(time.Date(2026, 3, 3, 8, 0, 0, 0, zone)))
}

func TestMarkTakenReplacesTodayAndDecrementsStock(t *testing.T) {
	s, db := setupService(t)
	m := newMed("Aspirin", "08:00", "20:00").WithStock(10, 2)
	m.DoseQuantity = 2
	addMed(t, s, m)

	l, err := s.MarkTaken(m)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTaken, l.Status)
	require.NotNil(t, l.TakenAt)
	assert.True(t, l.ScheduledAt.Equal(time.Date(2026, 3, 2, 8, 0, 0, 0, zone)))

	_, err = s.MarkTaken(m)
	require.NoError(t, err)

	logs, err := db.ListLogs(storage.LogFilter{MedicationID: &m.ID})
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	got, err := db.GetMedication(m.ID.String())
	require.NoError(t, err)
	require.NotNil(t, got.Stock)
	assert.Equal(t, 6.0, *got.Stock)

	alarms := alarmsFor(t, db, m)
	require.Len(t, alarms, 2)
	assert.True(t, alarms[0].TriggerAt.Equal(time.Date(2026, 3, 3, 8, 0, 0, 0, zone)))
	assert.True(t, alarms[1].TriggerAt.Equal(time.Date(2026, 3, 3, 20, 0, 0, 0, zone)))
}

func TestMarkTakenBeforeDoseTimeResumesTomorrow(t *testing.T) {
	s, db := setupServiceAt(t, time.Date(2026, 3, 2, 7, 30, 0, 0, zone))
	m := addMed(t, s, newMed("Aspirin", "08:00"))

	alarms := alarmsFor(t, db, m)
	require.Len(t, alarms, 1)
	assert.True(t, alarms[0].TriggerAt.Equal(time.Date(2026, 3, 2, 8, 0, 0, 0, zone)))

	_, err := s.MarkTaken(m)
	require.NoError(t, err)

	alarms = alarmsFor(t, db, m)
	require.Len(t, alarms, 1)
	assert.Equal(t, models.AlarmMain, alarms[0].Kind)
	assert.True(t, alarms[0].TriggerAt.Equal(time.Date(2026, 3, 3, 8, 0, 0, 0, zone)))
}

func TestStockFloorsAtZero(t *testing.T) {
	s, db := setupService(t)
	m := newMed("Big dose", "08:00").WithStock(1, 0)
	m.DoseQuantity = 2
	addMed(t, s, m)

	_, err := s.MarkTaken(m)
	require.NoError(t, err)

	got, err := db.GetMedication(m.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0.0, *got.Stock)
}

func TestUntrackedStockStaysNil(t *testing.T) {
	s, db := setupService(t)
	m := addMed(t, s, newMed("No stock", "08:00"))

	_, err := s.MarkTaken(m)
	require.NoError(t, err)

	got, err := db.GetMedication(m.ID.String())
	require.NoError(t, err)
	assert.Nil(t, got.Stock)
}

func TestUndoTakenRestoresStockAndReminders(t *testing.T) {
	s, db := setupService(t)
	m := addMed(t, s, newMed("Aspirin", "08:00", "20:00").WithStock(5, 1))

	l, err := s.MarkTaken(m)
	require.NoError(t, err)

	undone, err := s.Undo(l.ID.String()[:8])
	require.NoError(t, err)
	assert.Equal(t, l.ID, undone.ID)

	got, err := db.GetMedication(m.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 5.0, *got.Stock)
	assert.Len(t, alarmsFor(t, db, m), 2)

	_, err = db.GetLog(l.ID.String())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSkipAndUndoSkipped(t *testing.T) {
	s, db := setupService(t)
	m := addMed(t, s, newMed("Vitamin", "08:00").WithStock(5, 1))

	l, err := s.MarkSkipped(m)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSkipped, l.Status)
	assert.Nil(t, l.TakenAt)

	alarms := alarmsFor(t, db, m)
	require.Len(t, alarms, 1)
	assert.True(t, alarms[0].TriggerAt.Equal(time.Date(2026, 3, 3, 8, 0, 0, 0, zone)))

	_, err = s.Undo(l.ID.String())
	require.NoError(t, err)
	assert.Len(t, alarmsFor(t, db, m), 1)

	got, err := db.GetMedication(m.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 5.0, *got.Stock)
}

func TestMarkMissedKeepsAlarms(t *testing.T) {
	s, db := setupService(t)
	m := addMed(t, s, newMed("Vitamin", "08:00"))

	l, err := s.MarkMissed(m, now.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.StatusMissed, l.Status)
	assert.Len(t, alarmsFor(t, db, m), 1)
}

func TestTakeFromReminderInterval(t *testing.T) {
	s, db := setupService(t)
	m := newMed("Antibiotic").WithIntervalHours(8).WithStock(6, 1)
	m.ReminderTimes = nil
	addMed(t, s, m)

	follow := models.NewAlarm(m.ID, 0, models.AlarmFollowUp, now.Add(15*time.Minute), now)
	require.NoError(t, db.UpsertAlarm(follow))

	l, err := s.TakeFromReminder(m.ID, 3)
	require.NoError(t, err)
	assert.True(t, l.ScheduledAt.Equal(now))

	alarms := alarmsFor(t, db, m)
	require.Len(t, alarms, 1)
	assert.Equal(t, models.AlarmMain, alarms[0].Kind)
	assert.Equal(t, 0, alarms[0].Slot)
	assert.True(t, alarms[0].TriggerAt.Equal(now.Add(8*time.Hour)))

	got, err := db.GetMedication(m.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 5.0, *got.Stock)
}

func TestSkipFromReminderClock(t *testing.T) {
	s, db := setupService(t)
	m := addMed(t, s, newMed("Aspirin", "08:00", "20:00"))

	follow := models.NewAlarm(m.ID, 1, models.AlarmFollowUp, now.Add(15*time.Minute), now)
	require.NoError(t, db.UpsertAlarm(follow))

	_, err := s.SkipFromReminder(m.ID, 1)
	require.NoError(t, err)

	for _, a := range alarmsFor(t, db, m) {
		assert.NotEqual(t, models.AlarmFollowUp, a.Kind)
	}
}

func TestTakeDoseIntervalCountsFromNow(t *testing.T) {
	s, db := setupService(t)
	m := newMed("Antibiotic").WithIntervalHours(6)
	m.ReminderTimes = nil
	addMed(t, s, m)

	_, err := s.TakeDose(m, AnySlot)
	require.NoError(t, err)
	_, err = s.TakeDose(m, AnySlot)
	require.NoError(t, err)

	logs, err := db.ListLogs(storage.LogFilter{MedicationID: &m.ID})
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	alarms := alarmsFor(t, db, m)
	require.Len(t, alarms, 1)
	assert.True(t, alarms[0].TriggerAt.Equal(now.Add(6*time.Hour)))
}

func TestTakeDoseSlotMovesOnlyThatSlot(t *testing.T) {
	s, db := setupService(t)
	m := addMed(t, s, newMed("Aspirin", "08:00", "20:00"))

	l, err := s.TakeDose(m, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTaken, l.Status)

	bySlot := map[int]time.Time{}
	for _, a := range alarmsFor(t, db, m) {
		if a.Kind == models.AlarmMain {
			bySlot[a.Slot] = a.TriggerAt
		}
	}
	require.Len(t, bySlot, 2)
	assert.True(t, bySlot[0].Equal(time.Date(2026, 3, 3, 8, 0, 0, 0, zone)))
	assert.True(t, bySlot[1].Equal(time.Date(2026, 3, 3, 20, 0, 0, 0, zone)))
}

func TestSkipDoseWholeDay(t *testing.T) {
	s, db := setupService(t)
	m := addMed(t, s, newMed("Vitamin", "08:00"))

	l, err := s.SkipDose(m, AnySlot)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSkipped, l.Status)
	assert.True(t, l.ScheduledAt.Equal(time.Date(2026, 3, 2, 8, 0, 0, 0, zone)))
	assert.Len(t, alarmsFor(t, db, m), 1)
}

func TestTakeDoseUnknownSlot(t *testing.T) {
	s, _ := setupService(t)
	m := addMed(t, s, newMed("Aspirin", "08:00"))

	_, err := s.TakeDose(m, 3)
	assert.Error(t, err)
	_, err = s.SkipDose(m, 1)
	assert.Error(t, err)
}

func TestRestoreReminders(t *testing.T) {
	s, db := setupService(t)
	lost := addMed(t, s, newMed("Lost", "08:00"))
	require.NoError(t, s.CancelReminders(lost.ID))

	taken := addMed(t, s, newMed("Taken", "20:00"))
	require.NoError(t, s.CancelReminders(taken.ID))
	require.NoError(t, db.CreateLog(models.NewMedicationLog(taken.ID, now, models.StatusTaken, now)))

	kept := addMed(t, s, newMed("Kept", "09:00"))
	before := alarmsFor(t, db, kept)
	addMed(t, s, newMed("PRN", "08:00").AsPRN())

	n, err := s.RestoreReminders()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	alarms := alarmsFor(t, db, lost)
	require.Len(t, alarms, 1)
	assert.True(t, alarms[0].TriggerAt.Equal(time.Date(2026, 3, 3, 8, 0, 0, 0, zone)))

	alarms = alarmsFor(t, db, taken)
	require.Len(t, alarms, 1)
	assert.True(t, alarms[0].TriggerAt.Equal(time.Date(2026, 3, 3, 20, 0, 0, 0, zone)))

	after := alarmsFor(t, db, kept)
	require.Len(t, after, 1)
	assert.Equal(t, before[0].ID, after[0].ID)
}

func TestArchiveCancelsAndRestoreReschedules(t *testing.T) {
	s, db := setupService(t)
	m := addMed(t, s, newMed("Aspirin", "08:00"))

	_, err := s.SetArchived(m.ID.String(), true)
	require.NoError(t, err)
	assert.Empty(t, alarmsFor(t, db, m))

	restored, err := s.SetArchived(m.ID.String(), false)
	require.NoError(t, err)
	assert.False(t, restored.IsArchived)
	assert.Len(t, alarmsFor(t, db, m), 1)
}

func planOf(t *testing.T, names ...string) *planexport.Plan {
	t.Helper()
	var meds []*models.Medication
	for _, n := range names {
		meds = append(meds, newMed(n, "09:00"))
	}
	encoded, err := planexport.Encode(meds)
	require.NoError(t, err)
	plan, ok := planexport.Decode(encoded)
	require.True(t, ok)
	return plan
}

func activeNames(t *testing.T, db *storage.DB) []string {
	t.Helper()
	meds, err := db.ListMedications(storage.MedicationFilter{})
	require.NoError(t, err)
	var names []string
	for _, m := range meds {
		names = append(names, m.Name)
	}
	return names
}

func TestImportPlanMerge(t *testing.T) {
	s, db := setupService(t)
	addMed(t, s, newMed("Drug A", "08:00"))

	res, err := s.ImportPlan(planOf(t, "drug a ", "Drug B", "Drug C"), planexport.ImportMerge)
	require.NoError(t, err)
	assert.Equal(t, []string{"Drug B", "Drug C"}, res.Added)
	assert.Equal(t, []string{"drug a "}, res.Skipped)
	assert.Equal(t, []string{"Drug A", "Drug B", "Drug C"}, activeNames(t, db))
}

func TestImportPlanMergeKeepsRepeatsWithinPlan(t *testing.T) {
	s, db := setupService(t)
	addMed(t, s, newMed("Drug A", "08:00"))

	res, err := s.ImportPlan(planOf(t, "Drug B", "drug b", "Drug A"), planexport.ImportMerge)
	require.NoError(t, err)
	assert.Equal(t, []string{"Drug B", "drug b"}, res.Added)
	assert.Equal(t, []string{"Drug A"}, res.Skipped)
	assert.Len(t, activeNames(t, db), 3)
}

func TestImportPlanReplace(t *testing.T) {
	s, db := setupService(t)
	old := addMed(t, s, newMed("Old", "08:00"))

	archived := newMed("Archived", "08:00")
	archived.IsArchived = true
	require.NoError(t, db.CreateMedication(archived))

	res, err := s.ImportPlan(planOf(t, "New 1", "New 2"), planexport.ImportReplace)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, []string{"New 1", "New 2"}, activeNames(t, db))

	_, err = db.GetMedication(old.ID.String())
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = db.GetMedication(archived.ID.String())
	assert.NoError(t, err)

	alarms, err := db.ListAlarms(nil)
	require.NoError(t, err)
	assert.Len(t, alarms, 2)
}

func TestResyncReminders(t *testing.T) {
	s, db := setupService(t)
	after := addMed(t, s, newMed("After breakfast", "08:15").WithTimePeriod(models.PeriodAfterBreakfast))
	exact := addMed(t, s, newMed("Exact", "08:15"))
	prn := addMed(t, s, newMed("PRN", "08:15").WithTimePeriod(models.PeriodAfterBreakfast).AsPRN())
	same := addMed(t, s, newMed("Bedtime", "22:00").WithTimePeriod(models.PeriodBedtime))

	routine := schedule.DefaultRoutine()
	routine.BreakfastHour = 9

	changed, err := s.ResyncReminders(routine)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, after.ID, changed[0].ID)

	got, err := db.GetMedication(after.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []string{"09:15"}, got.ReminderTimes)

	for _, m := range []*models.Medication{exact, prn, same} {
		got, err := db.GetMedication(m.ID.String())
		require.NoError(t, err)
		assert.Equal(t, m.ReminderTimes, got.ReminderTimes, m.Name)
	}
}

func TestTodayProgress(t *testing.T) {
	s, _ := setupService(t)
	a := addMed(t, s, newMed("A", "08:00"))
	addMed(t, s, newMed("B", "20:00"))
	addMed(t, s, newMed("PRN", "08:00").AsPRN())
	addMed(t, s, newMed("Tuesdays", "08:00").OnDays(2))

	items, err := s.Today()
	require.NoError(t, err)
	assert.Len(t, items, 3)

	_, err = s.MarkTaken(a)
	require.NoError(t, err)

	p, err := s.TodayProgress()
	require.NoError(t, err)
	assert.Equal(t, 1, p.Taken)
	assert.Equal(t, 2, p.Total)
	assert.Equal(t, []string{"B"}, p.Pending)
}

func TestRefillWarnings(t *testing.T) {
	s, _ := setupService(t)
	low := newMed("Low", "08:00").WithStock(2, 5)
	addMed(t, s, low)

	days := newMed("Few days", "08:00", "20:00").WithStock(10, 0)
	days.RefillReminderDays = 7
	addMed(t, s, days)

	fine := newMed("Plenty", "08:00").WithStock(100, 5)
	fine.RefillReminderDays = 7
	addMed(t, s, fine)

	addMed(t, s, newMed("Untracked", "08:00"))

	warnings, err := s.RefillWarnings()
	require.NoError(t, err)
	require.Len(t, warnings, 2)

	byName := map[string]RefillWarning{}
	for _, w := range warnings {
		byName[w.Medication.Name] = w
	}
	assert.True(t, byName["Low"].BelowMin)
	assert.Equal(t, 5, byName["Few days"].DaysLeft)
	assert.False(t, byName["Few days"].BelowMin)
}

func TestRescheduleAll(t *testing.T) {
	s, db := setupService(t)
	m := addMed(t, s, newMed("Aspirin", "08:00"))
	require.NoError(t, s.CancelReminders(m.ID))

	archived := newMed("Archived", "08:00")
	archived.IsArchived = true
	require.NoError(t, db.CreateMedication(archived))
	stale := models.NewAlarm(archived.ID, 0, models.AlarmMain, now.Add(time.Hour), now.Add(time.Hour))
	require.NoError(t, db.UpsertAlarm(stale))

	n, err := s.RescheduleAll()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, alarmsFor(t, db, archived))
	assert.Len(t, alarmsFor(t, db, m), 1)
}
