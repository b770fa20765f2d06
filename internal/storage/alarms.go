// ABOUTME: Alarm bookkeeping for the reminder daemon.
// ABOUTME: One row per (medication, slot, kind); upserts replace the pending trigger.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/medlog/internal/models"
)

const alarmColumns = `id, medication_id, slot, kind, trigger_at, scheduled_at,
	early_minutes, follow_up_count, follow_up_max, follow_up_delay`

// UpsertAlarm stores an alarm, replacing any alarm for the same medication, slot and kind.
func (d *DB) UpsertAlarm(a *models.Alarm) error {
	query := `
		INSERT INTO alarms (` + alarmColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(medication_id, slot, kind) DO UPDATE SET
			id = excluded.id,
			trigger_at = excluded.trigger_at,
			scheduled_at = excluded.scheduled_at,
			early_minutes = excluded.early_minutes,
			follow_up_count = excluded.follow_up_count,
			follow_up_max = excluded.follow_up_max,
			follow_up_delay = excluded.follow_up_delay
	`
	_, err := d.db.Exec(query,
		a.ID.String(),
		a.MedicationID.String(),
		a.Slot,
		string(a.Kind),
		formatTime(a.TriggerAt),
		formatTime(a.ScheduledAt),
		a.EarlyMinutes,
		a.FollowUpCount,
		a.FollowUpMax,
		a.FollowUpDelay,
	)
	if err != nil {
		return fmt.Errorf("upsert alarm: %w", err)
	}
	return nil
}

// ListAlarms returns pending alarms ordered by trigger time.
func (d *DB) ListAlarms(medicationID *uuid.UUID) ([]*models.Alarm, error) {
	query := `SELECT ` + alarmColumns + ` FROM alarms`
	var args []interface{}
	if medicationID != nil {
		query += ` WHERE medication_id = ?`
		args = append(args, medicationID.String())
	}
	query += ` ORDER BY trigger_at, slot`
	return d.queryAlarms(query, args...)
}

// DueAlarms returns alarms whose trigger time is at or before now.
func (d *DB) DueAlarms(now time.Time) ([]*models.Alarm, error) {
	query := `SELECT ` + alarmColumns + ` FROM alarms WHERE trigger_at <= ? ORDER BY trigger_at, slot`
	return d.queryAlarms(query, formatTime(now))
}

// DeleteAlarm removes a single alarm. Deleting a missing alarm is not an error.
func (d *DB) DeleteAlarm(id uuid.UUID) error {
	if _, err := d.db.Exec("DELETE FROM alarms WHERE id = ?", id.String()); err != nil {
		return fmt.Errorf("delete alarm: %w", err)
	}
	return nil
}

// DeleteAlarmsForMedication cancels a medication's alarms, optionally only the given kinds.
func (d *DB) DeleteAlarmsForMedication(medicationID uuid.UUID, kinds ...models.AlarmKind) error {
	query := "DELETE FROM alarms WHERE medication_id = ?"
	args := []interface{}{medicationID.String()}
	if len(kinds) > 0 {
		placeholders := make([]string, len(kinds))
		for i, k := range kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		query += " AND kind IN (" + strings.Join(placeholders, ", ") + ")"
	}

	if _, err := d.db.Exec(query, args...); err != nil {
		return fmt.Errorf("delete alarms: %w", err)
	}
	return nil
}

func (d *DB) queryAlarms(query string, args ...interface{}) ([]*models.Alarm, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}
	defer rows.Close()

	var alarms []*models.Alarm
	for rows.Next() {
		var a models.Alarm
		var idStr, medID, kind, triggerAt, scheduledAt string
		if err := rows.Scan(&idStr, &medID, &a.Slot, &kind, &triggerAt, &scheduledAt,
			&a.EarlyMinutes, &a.FollowUpCount, &a.FollowUpMax, &a.FollowUpDelay); err != nil {
			return nil, fmt.Errorf("scan alarm: %w", err)
		}
		a.ID, _ = uuid.Parse(idStr)
		a.MedicationID, _ = uuid.Parse(medID)
		a.Kind = models.AlarmKind(kind)
		a.TriggerAt = parseTime(triggerAt)
		a.ScheduledAt = parseTime(scheduledAt)
		alarms = append(alarms, &a)
	}
	return alarms, rows.Err()
}
