// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines medications, medication_logs, symptom_logs, health_records, and alarms.
package storage

const (
	tableMedications   = "medications"
	tableLogs          = "medication_logs"
	tableSymptoms      = "symptom_logs"
	tableHealthRecords = "health_records"
	tableAlarms        = "alarms"
)

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS medications (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		dose REAL NOT NULL,
		dose_quantity REAL NOT NULL DEFAULT 1,
		dose_unit TEXT NOT NULL,
		form TEXT NOT NULL DEFAULT 'tablet',
		category TEXT NOT NULL DEFAULT '',
		full_path TEXT NOT NULL DEFAULT '',
		time_period TEXT NOT NULL DEFAULT 'exact',
		reminder_times TEXT NOT NULL DEFAULT '',
		frequency_type TEXT NOT NULL DEFAULT 'daily',
		frequency_interval INTEGER NOT NULL DEFAULT 1,
		frequency_days TEXT NOT NULL DEFAULT '1,2,3,4,5,6,7',
		start_date TEXT NOT NULL,
		end_date TEXT,
		stock REAL,
		refill_threshold REAL,
		refill_reminder_days INTEGER NOT NULL DEFAULT 0,
		is_prn INTEGER NOT NULL DEFAULT 0,
		is_high_priority INTEGER NOT NULL DEFAULT 0,
		is_archived INTEGER NOT NULL DEFAULT 0,
		is_custom_drug INTEGER NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		max_daily_dose REAL,
		interval_hours INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS medication_logs (
		id TEXT PRIMARY KEY,
		medication_id TEXT NOT NULL,
		scheduled_at TEXT NOT NULL,
		taken_at TEXT,
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (medication_id) REFERENCES medications(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS symptom_logs (
		id TEXT PRIMARY KEY,
		recorded_at TEXT NOT NULL,
		overall_rating INTEGER NOT NULL DEFAULT 3,
		symptoms TEXT NOT NULL DEFAULT '',
		side_effects TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		medication_id TEXT,
		medication_name TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS health_records (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		value REAL NOT NULL,
		secondary_value REAL,
		recorded_at TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS alarms (
		id TEXT PRIMARY KEY,
		medication_id TEXT NOT NULL,
		slot INTEGER NOT NULL,
		kind TEXT NOT NULL,
		trigger_at TEXT NOT NULL,
		scheduled_at TEXT NOT NULL,
		early_minutes INTEGER NOT NULL DEFAULT 0,
		follow_up_count INTEGER NOT NULL DEFAULT 0,
		follow_up_max INTEGER NOT NULL DEFAULT 0,
		follow_up_delay INTEGER NOT NULL DEFAULT 0,
		UNIQUE (medication_id, slot, kind),
		FOREIGN KEY (medication_id) REFERENCES medications(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_medications_archived ON medications(is_archived);
	CREATE INDEX IF NOT EXISTS idx_logs_medication ON medication_logs(medication_id);
	CREATE INDEX IF NOT EXISTS idx_logs_scheduled ON medication_logs(scheduled_at DESC);
	CREATE INDEX IF NOT EXISTS idx_symptoms_recorded ON symptom_logs(recorded_at DESC);
	CREATE INDEX IF NOT EXISTS idx_health_type_recorded ON health_records(type, recorded_at DESC);
	CREATE INDEX IF NOT EXISTS idx_alarms_trigger ON alarms(trigger_at);
	`

	_, err := d.db.Exec(schema)
	return err
}
