// ABOUTME: Repository interface for medication journal storage.
// ABOUTME: Defines the contract for medications, logs, diary entries, vitals, and alarms.
package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/medlog/internal/models"
)

// MedicationFilter narrows ListMedications.
type MedicationFilter struct {
	IncludeArchived bool
	ArchivedOnly    bool
}

// LogFilter narrows ListLogs. Zero values mean "no constraint".
type LogFilter struct {
	MedicationID *uuid.UUID
	Status       *models.LogStatus
	From         time.Time
	To           time.Time
	Limit        int
}

// Repository defines the storage interface for the medication journal.
// This interface allows swapping implementations (e.g., for testing).
type Repository interface {
	// Medication operations
	CreateMedication(m *models.Medication) error
	GetMedication(idOrPrefix string) (*models.Medication, error)
	ListMedications(filter MedicationFilter) ([]*models.Medication, error)
	UpdateMedication(m *models.Medication) error
	DeleteMedication(idOrPrefix string) error
	SetArchived(idOrPrefix string, archived bool) error
	UpdateStock(id uuid.UUID, stock *float64) error

	// Medication log operations
	CreateLog(l *models.MedicationLog) error
	GetLog(idOrPrefix string) (*models.MedicationLog, error)
	ListLogs(filter LogFilter) ([]*models.MedicationLog, error)
	DeleteLog(idOrPrefix string) error
	DeleteLogsInRange(medicationID uuid.UUID, from, to time.Time) (int, error)

	// Symptom diary operations
	CreateSymptomLog(s *models.SymptomLog) error
	GetSymptomLog(idOrPrefix string) (*models.SymptomLog, error)
	ListSymptomLogs(since *time.Time, limit int) ([]*models.SymptomLog, error)
	DeleteSymptomLog(idOrPrefix string) error

	// Health record operations
	CreateHealthRecord(r *models.HealthRecord) error
	GetHealthRecord(idOrPrefix string) (*models.HealthRecord, error)
	ListHealthRecords(healthType *models.HealthType, limit int) ([]*models.HealthRecord, error)
	LatestHealthRecords() ([]*models.HealthRecord, error)
	DeleteHealthRecord(idOrPrefix string) error

	// Alarm operations
	UpsertAlarm(a *models.Alarm) error
	ListAlarms(medicationID *uuid.UUID) ([]*models.Alarm, error)
	DueAlarms(now time.Time) ([]*models.Alarm, error)
	DeleteAlarm(id uuid.UUID) error
	DeleteAlarmsForMedication(medicationID uuid.UUID, kinds ...models.AlarmKind) error

	// Export/Import
	GetAllData() (*ExportData, error)
	ImportData(data *ExportData) error

	// Lifecycle
	Close() error
}
