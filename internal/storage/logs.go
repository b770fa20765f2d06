// ABOUTME: Medication log CRUD operations for SQLite storage.
// ABOUTME: Supports range queries on scheduled time for adherence and dose toggling.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/medlog/internal/models"
)

const logColumns = `id, medication_id, scheduled_at, taken_at, status, notes`

// CreateLog stores a new medication log.
func (d *DB) CreateLog(l *models.MedicationLog) error {
	query := `INSERT INTO medication_logs (` + logColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := d.db.Exec(query,
		l.ID.String(),
		l.MedicationID.String(),
		formatTime(l.ScheduledAt),
		formatNullTime(l.TakenAt),
		string(l.Status),
		l.Notes,
	)
	if err != nil {
		return fmt.Errorf("create log: %w", err)
	}
	return nil
}

// GetLog retrieves a log by ID or ID prefix.
func (d *DB) GetLog(idOrPrefix string) (*models.MedicationLog, error) {
	id, err := d.resolveID(tableLogs, idOrPrefix)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + logColumns + ` FROM medication_logs WHERE id = ?`
	l, err := scanLog(d.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
		}
		return nil, err
	}
	return l, nil
}

// ListLogs returns logs matching the filter, most recent first.
// From is inclusive and To is exclusive.
func (d *DB) ListLogs(filter LogFilter) ([]*models.MedicationLog, error) {
	var where []string
	var args []interface{}

	if filter.MedicationID != nil {
		where = append(where, "medication_id = ?")
		args = append(args, filter.MedicationID.String())
	}
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if !filter.From.IsZero() {
		where = append(where, "scheduled_at >= ?")
		args = append(args, formatTime(filter.From))
	}
	if !filter.To.IsZero() {
		where = append(where, "scheduled_at < ?")
		args = append(args, formatTime(filter.To))
	}

	query := `SELECT ` + logColumns + ` FROM medication_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY scheduled_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.MedicationLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// DeleteLog removes a log by ID or prefix.
func (d *DB) DeleteLog(idOrPrefix string) error {
	id, err := d.resolveID(tableLogs, idOrPrefix)
	if err != nil {
		return fmt.Errorf("delete log: %w", err)
	}

	result, err := d.db.Exec("DELETE FROM medication_logs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete log: %w", err)
	}
	return requireAffected(result, idOrPrefix)
}

// DeleteLogsInRange removes a medication's logs scheduled in [from, to).
func (d *DB) DeleteLogsInRange(medicationID uuid.UUID, from, to time.Time) (int, error) {
	result, err := d.db.Exec(
		"DELETE FROM medication_logs WHERE medication_id = ? AND scheduled_at >= ? AND scheduled_at < ?",
		medicationID.String(), formatTime(from), formatTime(to),
	)
	if err != nil {
		return 0, fmt.Errorf("delete logs in range: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func scanLog(row rowScanner) (*models.MedicationLog, error) {
	var l models.MedicationLog
	var idStr, medID, scheduledAt, status string
	var takenAt sql.NullString

	err := row.Scan(&idStr, &medID, &scheduledAt, &takenAt, &status, &l.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan log: %w", err)
	}

	l.ID, _ = uuid.Parse(idStr)
	l.MedicationID, _ = uuid.Parse(medID)
	l.ScheduledAt = parseTime(scheduledAt)
	l.TakenAt = parseNullTime(takenAt)
	l.Status = models.LogStatus(status)
	return &l, nil
}
