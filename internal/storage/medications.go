// ABOUTME: Medication CRUD operations for SQLite storage.
// ABOUTME: Implements Repository interface methods for medications.
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/medlog/internal/models"
)

const medicationColumns = `id, name, dose, dose_quantity, dose_unit, form, category, full_path,
	time_period, reminder_times, frequency_type, frequency_interval, frequency_days,
	start_date, end_date, stock, refill_threshold, refill_reminder_days,
	is_prn, is_high_priority, is_archived, is_custom_drug, notes, max_daily_dose,
	interval_hours, created_at`

// CreateMedication stores a new medication in the database.
func (d *DB) CreateMedication(m *models.Medication) error {
	query := `INSERT INTO medications (` + medicationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := d.db.Exec(query, medicationArgs(m)...)
	if err != nil {
		return fmt.Errorf("create medication: %w", err)
	}
	return nil
}

// GetMedication retrieves a medication by ID or ID prefix.
func (d *DB) GetMedication(idOrPrefix string) (*models.Medication, error) {
	id, err := d.resolveID(tableMedications, idOrPrefix)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + medicationColumns + ` FROM medications WHERE id = ?`
	m, err := scanMedication(d.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
		}
		return nil, err
	}
	return m, nil
}

// ListMedications returns medications ordered by name.
// Archived medications are excluded unless the filter asks for them.
func (d *DB) ListMedications(filter MedicationFilter) ([]*models.Medication, error) {
	query := `SELECT ` + medicationColumns + ` FROM medications`
	switch {
	case filter.ArchivedOnly:
		query += ` WHERE is_archived = 1`
	case !filter.IncludeArchived:
		query += ` WHERE is_archived = 0`
	}
	query += ` ORDER BY name COLLATE NOCASE, created_at`

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	var meds []*models.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

// UpdateMedication overwrites every mutable field of an existing medication.
func (d *DB) UpdateMedication(m *models.Medication) error {
	query := `
		UPDATE medications SET
			name = ?, dose = ?, dose_quantity = ?, dose_unit = ?, form = ?, category = ?,
			full_path = ?, time_period = ?, reminder_times = ?, frequency_type = ?,
			frequency_interval = ?, frequency_days = ?, start_date = ?, end_date = ?,
			stock = ?, refill_threshold = ?, refill_reminder_days = ?, is_prn = ?,
			is_high_priority = ?, is_archived = ?, is_custom_drug = ?, notes = ?,
			max_daily_dose = ?, interval_hours = ?
		WHERE id = ?
	`
	args := medicationArgs(m)
	// drop id and created_at, then append id for the WHERE clause
	args = append(args[1:len(args)-1], m.ID.String())

	result, err := d.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update medication: %w", err)
	}
	return requireAffected(result, m.ID.String())
}

// DeleteMedication removes a medication; its logs and alarms cascade.
func (d *DB) DeleteMedication(idOrPrefix string) error {
	id, err := d.resolveID(tableMedications, idOrPrefix)
	if err != nil {
		return fmt.Errorf("delete medication: %w", err)
	}

	result, err := d.db.Exec("DELETE FROM medications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete medication: %w", err)
	}
	return requireAffected(result, idOrPrefix)
}

// SetArchived archives or restores a medication.
func (d *DB) SetArchived(idOrPrefix string, archived bool) error {
	id, err := d.resolveID(tableMedications, idOrPrefix)
	if err != nil {
		return err
	}

	result, err := d.db.Exec("UPDATE medications SET is_archived = ? WHERE id = ?", boolInt(archived), id)
	if err != nil {
		return fmt.Errorf("set archived: %w", err)
	}
	return requireAffected(result, idOrPrefix)
}

// UpdateStock sets the stock level; nil disables stock tracking.
func (d *DB) UpdateStock(id uuid.UUID, stock *float64) error {
	result, err := d.db.Exec("UPDATE medications SET stock = ? WHERE id = ?", nullFloat(stock), id.String())
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	return requireAffected(result, id.String())
}

func medicationArgs(m *models.Medication) []interface{} {
	var endDate sql.NullString
	if m.EndDate != nil {
		endDate = sql.NullString{String: formatDate(*m.EndDate), Valid: true}
	}
	return []interface{}{
		m.ID.String(),
		m.Name,
		m.Dose,
		m.DoseQuantity,
		m.DoseUnit,
		m.Form,
		m.Category,
		m.FullPath,
		string(m.TimePeriod),
		models.JoinTimes(m.ReminderTimes),
		string(m.FrequencyType),
		m.FrequencyInterval,
		models.JoinDays(m.FrequencyDays),
		formatDate(m.StartDate),
		endDate,
		nullFloat(m.Stock),
		nullFloat(m.RefillThreshold),
		m.RefillReminderDays,
		boolInt(m.IsPRN),
		boolInt(m.IsHighPriority),
		boolInt(m.IsArchived),
		boolInt(m.IsCustomDrug),
		m.Notes,
		nullFloat(m.MaxDailyDose),
		m.IntervalHours,
		formatTime(m.CreatedAt),
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMedication(row rowScanner) (*models.Medication, error) {
	var m models.Medication
	var idStr, period, times, freqType, days, startDate, createdAt string
	var endDate sql.NullString
	var stock, threshold, maxDaily sql.NullFloat64
	var prn, priority, archived, custom int

	err := row.Scan(&idStr, &m.Name, &m.Dose, &m.DoseQuantity, &m.DoseUnit, &m.Form,
		&m.Category, &m.FullPath, &period, &times, &freqType, &m.FrequencyInterval, &days,
		&startDate, &endDate, &stock, &threshold, &m.RefillReminderDays,
		&prn, &priority, &archived, &custom, &m.Notes, &maxDaily,
		&m.IntervalHours, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan medication: %w", err)
	}

	m.ID, _ = uuid.Parse(idStr)
	m.TimePeriod = models.ParseTimePeriod(period)
	m.ReminderTimes = models.SplitTimes(times)
	m.FrequencyType = models.FrequencyType(freqType)
	if !models.IsValidFrequencyType(freqType) {
		m.FrequencyType = models.FrequencyDaily
	}
	m.FrequencyDays = models.SplitDays(days)
	m.StartDate = parseDate(startDate)
	if endDate.Valid && endDate.String != "" {
		if t := parseDate(endDate.String); !t.IsZero() {
			m.EndDate = &t
		}
	}
	m.Stock = floatPtr(stock)
	m.RefillThreshold = floatPtr(threshold)
	m.MaxDailyDose = floatPtr(maxDaily)
	m.IsPRN = prn != 0
	m.IsHighPriority = priority != 0
	m.IsArchived = archived != 0
	m.IsCustomDrug = custom != 0
	m.CreatedAt = parseTime(createdAt)

	return &m, nil
}

func requireAffected(result sql.Result, ref string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return nil
}
