// ABOUTME: Health record CRUD operations for SQLite storage.
// ABOUTME: Implements Repository interface methods for vital signs.
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/medlog/internal/models"
)

const healthColumns = `id, type, value, secondary_value, recorded_at, notes`

// CreateHealthRecord stores a new vital-sign measurement.
func (d *DB) CreateHealthRecord(r *models.HealthRecord) error {
	query := `INSERT INTO health_records (` + healthColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := d.db.Exec(query,
		r.ID.String(),
		string(r.Type),
		r.Value,
		nullFloat(r.SecondaryValue),
		formatTime(r.RecordedAt),
		r.Notes,
	)
	if err != nil {
		return fmt.Errorf("create health record: %w", err)
	}
	return nil
}

// GetHealthRecord retrieves a record by ID or ID prefix.
func (d *DB) GetHealthRecord(idOrPrefix string) (*models.HealthRecord, error) {
	id, err := d.resolveID(tableHealthRecords, idOrPrefix)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + healthColumns + ` FROM health_records WHERE id = ?`
	r, err := scanHealthRecord(d.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
		}
		return nil, err
	}
	return r, nil
}

// ListHealthRecords retrieves records with optional filtering by type.
// Results are sorted by RecordedAt descending (most recent first).
func (d *DB) ListHealthRecords(healthType *models.HealthType, limit int) ([]*models.HealthRecord, error) {
	query := `SELECT ` + healthColumns + ` FROM health_records`
	var args []interface{}
	if healthType != nil {
		query += ` WHERE type = ?`
		args = append(args, string(*healthType))
	}
	query += ` ORDER BY recorded_at DESC`
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list health records: %w", err)
	}
	defer rows.Close()

	var records []*models.HealthRecord
	for rows.Next() {
		r, err := scanHealthRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// LatestHealthRecords returns the most recent record of each type,
// in AllHealthTypes order.
func (d *DB) LatestHealthRecords() ([]*models.HealthRecord, error) {
	var latest []*models.HealthRecord
	for _, t := range models.AllHealthTypes {
		ht := t
		records, err := d.ListHealthRecords(&ht, 1)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			latest = append(latest, records[0])
		}
	}
	return latest, nil
}

// DeleteHealthRecord removes a record by ID or prefix.
func (d *DB) DeleteHealthRecord(idOrPrefix string) error {
	id, err := d.resolveID(tableHealthRecords, idOrPrefix)
	if err != nil {
		return fmt.Errorf("delete health record: %w", err)
	}

	result, err := d.db.Exec("DELETE FROM health_records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete health record: %w", err)
	}
	return requireAffected(result, idOrPrefix)
}

func scanHealthRecord(row rowScanner) (*models.HealthRecord, error) {
	var r models.HealthRecord
	var idStr, healthType, recordedAt string
	var secondary sql.NullFloat64

	err := row.Scan(&idStr, &healthType, &r.Value, &secondary, &recordedAt, &r.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan health record: %w", err)
	}

	r.ID, _ = uuid.Parse(idStr)
	r.Type = models.HealthTypeFromName(healthType)
	r.SecondaryValue = floatPtr(secondary)
	r.RecordedAt = parseTime(recordedAt)
	return &r, nil
}
