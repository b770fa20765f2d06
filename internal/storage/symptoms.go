// ABOUTME: Symptom diary CRUD operations for SQLite storage.
// ABOUTME: Tags are persisted comma-joined.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/medlog/internal/models"
)

const symptomColumns = `id, recorded_at, overall_rating, symptoms, side_effects, note, medication_id, medication_name`

// CreateSymptomLog stores a new diary entry.
func (d *DB) CreateSymptomLog(s *models.SymptomLog) error {
	var medID sql.NullString
	if s.MedicationID != nil {
		medID = sql.NullString{String: s.MedicationID.String(), Valid: true}
	}

	query := `INSERT INTO symptom_logs (` + symptomColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := d.db.Exec(query,
		s.ID.String(),
		formatTime(s.RecordedAt),
		s.OverallRating,
		models.JoinTags(s.Symptoms),
		models.JoinTags(s.SideEffects),
		s.Note,
		medID,
		s.MedicationName,
	)
	if err != nil {
		return fmt.Errorf("create symptom log: %w", err)
	}
	return nil
}

// GetSymptomLog retrieves a diary entry by ID or ID prefix.
func (d *DB) GetSymptomLog(idOrPrefix string) (*models.SymptomLog, error) {
	id, err := d.resolveID(tableSymptoms, idOrPrefix)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + symptomColumns + ` FROM symptom_logs WHERE id = ?`
	s, err := scanSymptomLog(d.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
		}
		return nil, err
	}
	return s, nil
}

// ListSymptomLogs returns diary entries, most recent first.
func (d *DB) ListSymptomLogs(since *time.Time, limit int) ([]*models.SymptomLog, error) {
	query := `SELECT ` + symptomColumns + ` FROM symptom_logs`
	var args []interface{}
	if since != nil {
		query += ` WHERE recorded_at >= ?`
		args = append(args, formatTime(*since))
	}
	query += ` ORDER BY recorded_at DESC`
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list symptom logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.SymptomLog
	for rows.Next() {
		s, err := scanSymptomLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, s)
	}
	return entries, rows.Err()
}

// DeleteSymptomLog removes a diary entry by ID or prefix.
func (d *DB) DeleteSymptomLog(idOrPrefix string) error {
	id, err := d.resolveID(tableSymptoms, idOrPrefix)
	if err != nil {
		return fmt.Errorf("delete symptom log: %w", err)
	}

	result, err := d.db.Exec("DELETE FROM symptom_logs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete symptom log: %w", err)
	}
	return requireAffected(result, idOrPrefix)
}

func scanSymptomLog(row rowScanner) (*models.SymptomLog, error) {
	var s models.SymptomLog
	var idStr, recordedAt, symptoms, sideEffects string
	var medID sql.NullString

	err := row.Scan(&idStr, &recordedAt, &s.OverallRating, &symptoms, &sideEffects, &s.Note, &medID, &s.MedicationName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan symptom log: %w", err)
	}

	s.ID, _ = uuid.Parse(idStr)
	s.RecordedAt = parseTime(recordedAt)
	s.Symptoms = models.SplitTags(symptoms)
	s.SideEffects = models.SplitTags(sideEffects)
	if medID.Valid {
		if id, err := uuid.Parse(medID.String); err == nil {
			s.MedicationID = &id
		}
	}
	return &s, nil
}
