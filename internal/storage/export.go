// ABOUTME: Export and import functionality for the medication journal.
// ABOUTME: Supports JSON, YAML, and Markdown export formats.
package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/medlog/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData represents the full backup format.
type ExportData struct {
	Version       string                  `json:"version" yaml:"version"`
	ExportedAt    time.Time               `json:"exported_at" yaml:"exported_at"`
	Tool          string                  `json:"tool" yaml:"tool"`
	Medications   []*models.Medication    `json:"medications" yaml:"medications"`
	Logs          []*models.MedicationLog `json:"logs" yaml:"logs"`
	SymptomLogs   []*models.SymptomLog    `json:"symptom_logs" yaml:"symptom_logs"`
	HealthRecords []*models.HealthRecord  `json:"health_records" yaml:"health_records"`
}

// GetAllData retrieves all data for export. Pending alarms are not exported;
// they are recomputed from medications.
func (d *DB) GetAllData() (*ExportData, error) {
	meds, err := d.ListMedications(MedicationFilter{IncludeArchived: true})
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}

	logs, err := d.ListLogs(LogFilter{})
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}

	symptoms, err := d.ListSymptomLogs(nil, 0)
	if err != nil {
		return nil, fmt.Errorf("list symptom logs: %w", err)
	}

	records, err := d.ListHealthRecords(nil, 0)
	if err != nil {
		return nil, fmt.Errorf("list health records: %w", err)
	}

	return &ExportData{
		Version:       "1.0",
		ExportedAt:    time.Now(),
		Tool:          "medlog",
		Medications:   meds,
		Logs:          logs,
		SymptomLogs:   symptoms,
		HealthRecords: records,
	}, nil
}

// ImportData imports data from an export file.
// Medications are created before logs so foreign keys resolve.
func (d *DB) ImportData(data *ExportData) error {
	for _, m := range data.Medications {
		if err := d.CreateMedication(m); err != nil {
			return fmt.Errorf("import medication: %w", err)
		}
	}
	for _, l := range data.Logs {
		if err := d.CreateLog(l); err != nil {
			return fmt.Errorf("import log: %w", err)
		}
	}
	for _, s := range data.SymptomLogs {
		if err := d.CreateSymptomLog(s); err != nil {
			return fmt.Errorf("import symptom log: %w", err)
		}
	}
	for _, r := range data.HealthRecords {
		if err := d.CreateHealthRecord(r); err != nil {
			return fmt.Errorf("import health record: %w", err)
		}
	}
	return nil
}

// ExportJSON exports all data as JSON.
func (d *DB) ExportJSON() ([]byte, error) {
	data, err := d.GetAllData()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML exports all data as YAML in a human-oriented shape.
func (d *DB) ExportYAML() ([]byte, error) {
	data, err := d.GetAllData()
	if err != nil {
		return nil, err
	}

	names := medicationNames(data.Medications)

	yamlData := struct {
		Version     string                 `yaml:"version"`
		ExportedAt  string                 `yaml:"exported_at"`
		Tool        string                 `yaml:"tool"`
		Medications []yamlMedication       `yaml:"medications"`
		Logs        []yamlLog              `yaml:"logs"`
		Symptoms    []yamlSymptom          `yaml:"symptoms"`
		Vitals      map[string][]yamlVital `yaml:"vitals"`
	}{
		Version:     data.Version,
		ExportedAt:  data.ExportedAt.Format(time.RFC3339),
		Tool:        data.Tool,
		Medications: make([]yamlMedication, 0, len(data.Medications)),
		Logs:        make([]yamlLog, 0, len(data.Logs)),
		Symptoms:    make([]yamlSymptom, 0, len(data.SymptomLogs)),
		Vitals:      make(map[string][]yamlVital),
	}

	for _, m := range data.Medications {
		ym := yamlMedication{
			ID:        m.ID.String()[:8],
			Name:      m.Name,
			Dose:      m.DoseLabel(),
			Times:     m.ReminderTimes,
			Frequency: frequencyLabel(m),
			Start:     formatDate(m.StartDate),
			PRN:       m.IsPRN,
			Archived:  m.IsArchived,
			Stock:     m.Stock,
			Notes:     m.Notes,
		}
		if m.EndDate != nil {
			ym.End = formatDate(*m.EndDate)
		}
		yamlData.Medications = append(yamlData.Medications, ym)
	}

	for _, l := range data.Logs {
		yl := yamlLog{
			ID:          l.ID.String()[:8],
			Medication:  nameOrUnknown(names, l.MedicationID.String()),
			ScheduledAt: l.ScheduledAt.Format(time.RFC3339),
			Status:      string(l.Status),
			Notes:       l.Notes,
		}
		if l.TakenAt != nil {
			yl.TakenAt = l.TakenAt.Format(time.RFC3339)
		}
		yamlData.Logs = append(yamlData.Logs, yl)
	}

	for _, s := range data.SymptomLogs {
		yamlData.Symptoms = append(yamlData.Symptoms, yamlSymptom{
			ID:          s.ID.String()[:8],
			RecordedAt:  s.RecordedAt.Format(time.RFC3339),
			Rating:      s.OverallRating,
			Symptoms:    s.Symptoms,
			SideEffects: s.SideEffects,
			Medication:  s.MedicationName,
			Note:        s.Note,
		})
	}

	// Group vitals by type
	for _, r := range data.HealthRecords {
		ht := string(r.Type)
		yamlData.Vitals[ht] = append(yamlData.Vitals[ht], yamlVital{
			ID:         r.ID.String()[:8],
			Value:      r.Display(),
			RecordedAt: r.RecordedAt.Format(time.RFC3339),
			Notes:      r.Notes,
		})
	}

	return yaml.Marshal(yamlData)
}

type yamlMedication struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Dose      string   `yaml:"dose"`
	Times     []string `yaml:"times,omitempty"`
	Frequency string   `yaml:"frequency"`
	Start     string   `yaml:"start"`
	End       string   `yaml:"end,omitempty"`
	PRN       bool     `yaml:"prn,omitempty"`
	Archived  bool     `yaml:"archived,omitempty"`
	Stock     *float64 `yaml:"stock,omitempty"`
	Notes     string   `yaml:"notes,omitempty"`
}

type yamlLog struct {
	ID          string `yaml:"id"`
	Medication  string `yaml:"medication"`
	ScheduledAt string `yaml:"scheduled_at"`
	TakenAt     string `yaml:"taken_at,omitempty"`
	Status      string `yaml:"status"`
	Notes       string `yaml:"notes,omitempty"`
}

type yamlSymptom struct {
	ID          string   `yaml:"id"`
	RecordedAt  string   `yaml:"recorded_at"`
	Rating      int      `yaml:"rating"`
	Symptoms    []string `yaml:"symptoms,omitempty"`
	SideEffects []string `yaml:"side_effects,omitempty"`
	Medication  string   `yaml:"medication,omitempty"`
	Note        string   `yaml:"note,omitempty"`
}

type yamlVital struct {
	ID         string `yaml:"id"`
	Value      string `yaml:"value"`
	RecordedAt string `yaml:"recorded_at"`
	Notes      string `yaml:"notes,omitempty"`
}

// ExportMarkdown exports a readable report. When since is set, logs, diary
// entries, and vitals before it are left out.
//
//nolint:gocognit,gocyclo // This function has clear, linear logic despite complexity metrics.
func (d *DB) ExportMarkdown(since *time.Time) (string, error) {
	data, err := d.GetAllData()
	if err != nil {
		return "", err
	}
	names := medicationNames(data.Medications)
	keep := func(t time.Time) bool {
		return since == nil || !t.Before(*since)
	}

	var sb strings.Builder
	now := time.Now()

	sb.WriteString(fmt.Sprintf("# Medication Journal - %s\n\n", now.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	sb.WriteString("## Medications\n\n")
	sb.WriteString("| Name | Dose | Times | Frequency | Stock | Status |\n")
	sb.WriteString("|------|------|-------|-----------|-------|--------|\n")
	for _, m := range data.Medications {
		stock := ""
		if m.Stock != nil {
			stock = fmt.Sprintf("%g", *m.Stock)
		}
		status := "active"
		if m.IsArchived {
			status = "archived"
		}
		times := models.JoinTimes(m.ReminderTimes)
		if m.IsPRN {
			times = "as needed"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
			m.Name, m.DoseLabel(), times, frequencyLabel(m), stock, status))
	}
	sb.WriteString("\n")

	var logs []*models.MedicationLog
	for _, l := range data.Logs {
		if keep(l.ScheduledAt) {
			logs = append(logs, l)
		}
	}
	if len(logs) > 0 {
		sb.WriteString("## Dose Log\n\n")
		sb.WriteString("| Scheduled | Medication | Status | Taken |\n")
		sb.WriteString("|-----------|------------|--------|-------|\n")
		for _, l := range logs {
			taken := ""
			if l.TakenAt != nil {
				taken = l.TakenAt.Format("2006-01-02 15:04")
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				l.ScheduledAt.Format("2006-01-02 15:04"),
				nameOrUnknown(names, l.MedicationID.String()), l.Status, taken))
		}
		sb.WriteString("\n")
	}

	var symptoms []*models.SymptomLog
	for _, s := range data.SymptomLogs {
		if keep(s.RecordedAt) {
			symptoms = append(symptoms, s)
		}
	}
	if len(symptoms) > 0 {
		sb.WriteString("## Symptom Diary\n\n")
		sb.WriteString("| Date | Rating | Symptoms | Side effects | Note |\n")
		sb.WriteString("|------|--------|----------|--------------|------|\n")
		for _, s := range symptoms {
			sb.WriteString(fmt.Sprintf("| %s | %d/5 | %s | %s | %s |\n",
				s.RecordedAt.Format("2006-01-02 15:04"), s.OverallRating,
				strings.Join(s.Symptoms, ", "), strings.Join(s.SideEffects, ", "), s.Note))
		}
		sb.WriteString("\n")
	}

	grouped := make(map[models.HealthType][]*models.HealthRecord)
	for _, r := range data.HealthRecords {
		if keep(r.RecordedAt) {
			grouped[r.Type] = append(grouped[r.Type], r)
		}
	}
	for _, t := range models.AllHealthTypes {
		records := grouped[t]
		if len(records) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n", t.Info().Label))
		sb.WriteString("| Date | Value | Notes |\n")
		sb.WriteString("|------|-------|-------|\n")
		for _, r := range records {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
				r.RecordedAt.Format("2006-01-02 15:04"), r.Display(), r.Notes))
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// ImportJSON imports data from JSON bytes.
func (d *DB) ImportJSON(data []byte) error {
	var exportData ExportData
	if err := json.Unmarshal(data, &exportData); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	return d.ImportData(&exportData)
}

func medicationNames(meds []*models.Medication) map[string]string {
	names := make(map[string]string, len(meds))
	for _, m := range meds {
		names[m.ID.String()] = m.Name
	}
	return names
}

func nameOrUnknown(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return "unknown medication"
}

func frequencyLabel(m *models.Medication) string {
	switch m.FrequencyType {
	case models.FrequencyInterval:
		return fmt.Sprintf("every %d days", m.FrequencyInterval)
	case models.FrequencySpecificDays:
		return "days " + models.JoinDays(m.FrequencyDays)
	}
	if m.IntervalHours > 0 {
		return fmt.Sprintf("every %dh", m.IntervalHours)
	}
	return "daily"
}
