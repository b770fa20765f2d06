// ABOUTME: Data migration between medlog storage backends.
// ABOUTME: Copies medications, logs, diary entries, and vitals from source to destination.

package storage

import (
	"fmt"
	"os"
)

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	Medications   int
	Logs          int
	SymptomLogs   int
	HealthRecords int
}

// MigrateData copies all data from src to dst storage.
// Medications are copied first so that logs satisfy their foreign key.
// The destination should be empty before calling this function.
func MigrateData(src, dst Repository) (*MigrateSummary, error) {
	data, err := src.GetAllData()
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	summary := &MigrateSummary{}

	for _, m := range data.Medications {
		if err := dst.CreateMedication(m); err != nil {
			return nil, fmt.Errorf("create medication %s: %w", m.ID, err)
		}
		summary.Medications++
	}

	for _, l := range data.Logs {
		if err := dst.CreateLog(l); err != nil {
			return nil, fmt.Errorf("create log %s: %w", l.ID, err)
		}
		summary.Logs++
	}

	for _, s := range data.SymptomLogs {
		if err := dst.CreateSymptomLog(s); err != nil {
			return nil, fmt.Errorf("create symptom log %s: %w", s.ID, err)
		}
		summary.SymptomLogs++
	}

	for _, r := range data.HealthRecords {
		if err := dst.CreateHealthRecord(r); err != nil {
			return nil, fmt.Errorf("create health record %s: %w", r.ID, err)
		}
		summary.HealthRecords++
	}

	return summary, nil
}

// IsDirNonEmpty checks whether a directory exists and contains any files or subdirectories.
// Returns false if the directory does not exist or is empty.
func IsDirNonEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read directory %q: %w", path, err)
	}
	return len(entries) > 0, nil
}
