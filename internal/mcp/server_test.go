// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Covers NewServer, tool handlers, and resource handlers against a temp database.
package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/medlog/internal/models"
	"github.com/harperreed/medlog/internal/planexport"
	"github.com/harperreed/medlog/internal/schedule"
	"github.com/harperreed/medlog/internal/storage"
)

// Monday 2026-03-02 10:00 local.
var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.Local)

// setupTestDB creates a test database in a temp directory.
func setupTestDB(t *testing.T) *storage.DB {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "medlog-mcp-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	dbPath := filepath.Join(tmpDir, "medlog.db")
	db, err := storage.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func setupServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()
	db := setupTestDB(t)
	sched := schedule.New(schedule.Options{}).WithClock(func() time.Time { return testNow })
	server, err := NewServer(db, Options{Scheduler: sched})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return server, db
}

func addMedication(t *testing.T, s *Server, input addMedicationInput) addMedicationOutput {
	t.Helper()
	if input.StartDate == "" {
		input.StartDate = "2026-03-01"
	}
	_, out, err := s.handleAddMedication(context.Background(), &mcp.CallToolRequest{}, input)
	if err != nil {
		t.Fatalf("add_medication failed: %v", err)
	}
	return out
}

func readResource(t *testing.T, handler func(context.Context, *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error)) map[string]interface{} {
	t.Helper()
	result, err := handler(context.Background(), &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("resource handler failed: %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("Expected 1 content, got %d", len(result.Contents))
	}
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &data); err != nil {
		t.Fatalf("Failed to parse resource JSON: %v", err)
	}
	return data
}

func TestNewServer(t *testing.T) {
	db := setupTestDB(t)

	server, err := NewServer(db, Options{})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	if server == nil {
		t.Fatal("Expected non-nil server")
	}
	if server.mcpServer == nil {
		t.Error("Expected non-nil mcpServer")
	}
	if server.repo == nil {
		t.Error("Expected non-nil repo")
	}
	if server.doses == nil {
		t.Error("Expected non-nil dose service")
	}
}

func TestHandleAddMedication(t *testing.T) {
	server, db := setupServer(t)

	tests := []struct {
		name      string
		input     addMedicationInput
		wantErr   bool
		errSubstr string
	}{
		{
			name:  "defaults",
			input: addMedicationInput{Name: "Vitamin D"},
		},
		{
			name: "with times and stock",
			input: addMedicationInput{
				Name:     "Metformin",
				Quantity: 500,
				Unit:     "mg",
				Times:    []string{"08:00", "20:00"},
				Stock:    floatPtr(60),
			},
		},
		{
			name:      "missing name",
			input:     addMedicationInput{},
			wantErr:   true,
			errSubstr: "name is required",
		},
		{
			name:      "bad time",
			input:     addMedicationInput{Name: "X", Times: []string{"8am"}},
			wantErr:   true,
			errSubstr: "invalid",
		},
		{
			name:      "bad frequency",
			input:     addMedicationInput{Name: "X", Frequency: "weekly"},
			wantErr:   true,
			errSubstr: "unknown frequency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.StartDate = "2026-03-01"
			_, output, err := server.handleAddMedication(context.Background(), &mcp.CallToolRequest{}, tt.input)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				} else if !strings.Contains(err.Error(), tt.errSubstr) {
					t.Errorf("Error %q should contain %q", err.Error(), tt.errSubstr)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if output.Medication.Name != tt.input.Name {
				t.Errorf("Name = %s, want %s", output.Medication.Name, tt.input.Name)
			}
			if len(output.Medication.ID) != 8 {
				t.Errorf("Expected 8-char ID, got %q", output.Medication.ID)
			}
			if output.Message == "" {
				t.Error("Expected non-empty message")
			}
		})
	}

	meds, err := db.ListMedications(storage.MedicationFilter{})
	if err != nil {
		t.Fatalf("ListMedications failed: %v", err)
	}
	if len(meds) != 2 {
		t.Errorf("Expected 2 medications stored, got %d", len(meds))
	}
	alarms, err := db.ListAlarms(nil)
	if err != nil {
		t.Fatalf("ListAlarms failed: %v", err)
	}
	if len(alarms) != 3 {
		t.Errorf("Expected 3 alarms (one per slot), got %d", len(alarms))
	}
}

func TestHandleAddMedicationReportsInteractions(t *testing.T) {
	server, _ := setupServer(t)
	addMedication(t, server, addMedicationInput{Name: "华法林"})

	out := addMedication(t, server, addMedicationInput{Name: "阿司匹林"})
	if len(out.Interactions) != 1 {
		t.Fatalf("Expected 1 interaction, got %d", len(out.Interactions))
	}
	if out.Interactions[0].Severity != "HIGH" {
		t.Errorf("Expected HIGH severity, got %s", out.Interactions[0].Severity)
	}
	if !strings.Contains(out.Message, "WARNING") {
		t.Errorf("Expected warning in message, got %q", out.Message)
	}
}

func TestHandleListMedications(t *testing.T) {
	server, db := setupServer(t)
	addMedication(t, server, addMedicationInput{Name: "Aspirin"})
	old := addMedication(t, server, addMedicationInput{Name: "Old"})
	if err := db.SetArchived(old.Medication.ID, true); err != nil {
		t.Fatalf("SetArchived failed: %v", err)
	}

	_, out, err := server.handleListMedications(context.Background(), &mcp.CallToolRequest{}, listMedicationsInput{})
	if err != nil {
		t.Fatalf("list_medications failed: %v", err)
	}
	if len(out.Medications) != 1 || out.Medications[0].Name != "Aspirin" {
		t.Errorf("Expected only Aspirin, got %+v", out.Medications)
	}

	_, out, err = server.handleListMedications(context.Background(), &mcp.CallToolRequest{}, listMedicationsInput{IncludeArchived: true})
	if err != nil {
		t.Fatalf("list_medications failed: %v", err)
	}
	if len(out.Medications) != 2 {
		t.Errorf("Expected 2 medications, got %d", len(out.Medications))
	}
}

func TestHandleTakeAndSkipDose(t *testing.T) {
	server, db := setupServer(t)
	addMedication(t, server, addMedicationInput{Name: "Aspirin", Stock: floatPtr(10)})

	_, out, err := server.handleTakeDose(context.Background(), &mcp.CallToolRequest{}, doseInput{Medication: "aspirin"})
	if err != nil {
		t.Fatalf("take_dose failed: %v", err)
	}
	if out.Log.Status != "taken" {
		t.Errorf("Expected taken status, got %s", out.Log.Status)
	}
	if out.Stock == nil || *out.Stock != 9 {
		t.Errorf("Expected stock 9, got %v", out.Stock)
	}

	_, out, err = server.handleSkipDose(context.Background(), &mcp.CallToolRequest{}, doseInput{Medication: "Aspirin"})
	if err != nil {
		t.Fatalf("skip_dose failed: %v", err)
	}
	if out.Log.Status != "skipped" {
		t.Errorf("Expected skipped status, got %s", out.Log.Status)
	}

	logs, err := db.ListLogs(storage.LogFilter{})
	if err != nil {
		t.Fatalf("ListLogs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("Expected today's log to be replaced, got %d logs", len(logs))
	}
}

func TestHandleTakeDoseSlot(t *testing.T) {
	server, db := setupServer(t)
	added := addMedication(t, server, addMedicationInput{Name: "Metformin", Times: []string{"08:00", "20:00"}, Stock: floatPtr(10)})

	_, out, err := server.handleTakeDose(context.Background(), &mcp.CallToolRequest{}, doseInput{Medication: "metformin", Slot: 2})
	if err != nil {
		t.Fatalf("take_dose failed: %v", err)
	}
	if out.Stock == nil || *out.Stock != 9 {
		t.Errorf("Expected stock 9, got %v", out.Stock)
	}

	id := added.Medication.ID
	m, err := db.GetMedication(id)
	if err != nil {
		t.Fatalf("GetMedication failed: %v", err)
	}
	alarms, err := db.ListAlarms(&m.ID)
	if err != nil {
		t.Fatalf("ListAlarms failed: %v", err)
	}
	want := time.Date(2026, 3, 3, 20, 0, 0, 0, time.Local)
	found := false
	for _, a := range alarms {
		if a.Kind == models.AlarmMain && a.Slot == 1 {
			found = a.TriggerAt.Equal(want)
		}
	}
	if !found {
		t.Errorf("Expected the evening reminder to move to %v", want)
	}

	_, _, err = server.handleSkipDose(context.Background(), &mcp.CallToolRequest{}, doseInput{Medication: "metformin", Slot: 5})
	if err == nil {
		t.Error("Expected error for a slot the medication does not have")
	}
}

func TestHandleAddMedicationMaxDaily(t *testing.T) {
	server, _ := setupServer(t)
	out := addMedication(t, server, addMedicationInput{Name: "Ibuprofen", PRN: true, MaxDaily: floatPtr(6)})

	if out.Medication.MaxDaily == nil || *out.Medication.MaxDaily != 6 {
		t.Errorf("Expected max daily 6, got %v", out.Medication.MaxDaily)
	}
	if !out.Medication.PRN {
		t.Error("Expected PRN medication")
	}
}

func TestHandleTakeDoseNotFound(t *testing.T) {
	server, _ := setupServer(t)

	_, _, err := server.handleTakeDose(context.Background(), &mcp.CallToolRequest{}, doseInput{Medication: "nothing"})
	if err == nil {
		t.Error("Expected error for unknown medication")
	}
}

func TestHandleCheckInteractions(t *testing.T) {
	server, _ := setupServer(t)

	_, out, err := server.handleCheckInteractions(context.Background(), &mcp.CallToolRequest{}, checkInteractionsInput{})
	if err != nil {
		t.Fatalf("check_interactions failed: %v", err)
	}
	if len(out.Interactions) != 0 || out.HasHigh {
		t.Errorf("Expected no interactions, got %+v", out)
	}

	_, out, err = server.handleCheckInteractions(context.Background(), &mcp.CallToolRequest{}, checkInteractionsInput{
		Drugs: []string{"warfarin", "aspirin"},
	})
	if err != nil {
		t.Fatalf("check_interactions failed: %v", err)
	}
	if len(out.Interactions) != 1 || !out.HasHigh {
		t.Errorf("Expected one high interaction, got %+v", out)
	}
}

func TestHandleNextReminders(t *testing.T) {
	server, _ := setupServer(t)
	addMedication(t, server, addMedicationInput{Name: "Evening", Times: []string{"21:00"}})
	addMedication(t, server, addMedicationInput{Name: "Noon", Times: []string{"12:00"}})
	addMedication(t, server, addMedicationInput{Name: "Rescue", PRN: true})

	_, out, err := server.handleNextReminders(context.Background(), &mcp.CallToolRequest{}, nextRemindersInput{})
	if err != nil {
		t.Fatalf("next_reminders failed: %v", err)
	}
	if len(out.Reminders) != 2 {
		t.Fatalf("Expected 2 reminders, got %d", len(out.Reminders))
	}
	if out.Reminders[0].Medication != "Noon" || out.Reminders[1].Medication != "Evening" {
		t.Errorf("Unexpected order: %+v", out.Reminders)
	}
}

func TestHandleExportImportPlan(t *testing.T) {
	server, db := setupServer(t)
	addMedication(t, server, addMedicationInput{Name: "Aspirin"})
	addMedication(t, server, addMedicationInput{Name: "Metformin", Times: []string{"08:00", "20:00"}})

	_, exported, err := server.handleExportPlan(context.Background(), &mcp.CallToolRequest{}, exportPlanInput{})
	if err != nil {
		t.Fatalf("export_plan failed: %v", err)
	}
	if !strings.HasPrefix(exported.Plan, planexport.Scheme) {
		t.Errorf("Expected %s prefix, got %q", planexport.Scheme, exported.Plan)
	}
	if exported.Count != 2 || !exported.QRReady {
		t.Errorf("Unexpected export output: %+v", exported)
	}

	_, merged, err := server.handleImportPlan(context.Background(), &mcp.CallToolRequest{}, importPlanInput{Plan: exported.Plan})
	if err != nil {
		t.Fatalf("import_plan failed: %v", err)
	}
	if len(merged.Added) != 0 || len(merged.Skipped) != 2 {
		t.Errorf("Expected both medications skipped on merge, got %+v", merged)
	}

	_, replaced, err := server.handleImportPlan(context.Background(), &mcp.CallToolRequest{}, importPlanInput{Plan: exported.Plan, Mode: "replace"})
	if err != nil {
		t.Fatalf("import_plan replace failed: %v", err)
	}
	if replaced.Removed != 2 || len(replaced.Added) != 2 {
		t.Errorf("Unexpected replace result: %+v", replaced)
	}

	meds, _ := db.ListMedications(storage.MedicationFilter{})
	if len(meds) != 2 {
		t.Errorf("Expected 2 medications after replace, got %d", len(meds))
	}
}

func TestHandleImportPlanInvalid(t *testing.T) {
	server, _ := setupServer(t)

	_, _, err := server.handleImportPlan(context.Background(), &mcp.CallToolRequest{}, importPlanInput{Plan: "hello"})
	if err == nil {
		t.Error("Expected error for invalid plan")
	}
	_, _, err = server.handleImportPlan(context.Background(), &mcp.CallToolRequest{}, importPlanInput{Plan: planexport.Scheme, Mode: "upsert"})
	if err == nil {
		t.Error("Expected error for invalid mode")
	}
}

func TestHandleLogSymptom(t *testing.T) {
	server, db := setupServer(t)
	addMedication(t, server, addMedicationInput{Name: "Aspirin"})

	_, out, err := server.handleLogSymptom(context.Background(), &mcp.CallToolRequest{}, logSymptomInput{
		Rating:      4,
		Symptoms:    []string{"headache"},
		SideEffects: []string{"nausea"},
		Medication:  "Aspirin",
		RecordedAt:  "2026-03-02 09:30",
	})
	if err != nil {
		t.Fatalf("log_symptom failed: %v", err)
	}
	if out.Rating != 4 {
		t.Errorf("Expected rating 4, got %d", out.Rating)
	}

	entries, err := db.ListSymptomLogs(nil, 0)
	if err != nil {
		t.Fatalf("ListSymptomLogs failed: %v", err)
	}
	if len(entries) != 1 || entries[0].MedicationName != "Aspirin" {
		t.Errorf("Unexpected entries: %+v", entries)
	}

	for _, bad := range []logSymptomInput{{Rating: 0}, {Rating: 6}, {Rating: 3, RecordedAt: "yesterday"}, {Rating: 3, Medication: "nothing"}} {
		if _, _, err := server.handleLogSymptom(context.Background(), &mcp.CallToolRequest{}, bad); err == nil {
			t.Errorf("Expected error for %+v", bad)
		}
	}
}

func TestHandleHealthRecords(t *testing.T) {
	server, _ := setupServer(t)

	_, out, err := server.handleAddHealthRecord(context.Background(), &mcp.CallToolRequest{}, addHealthRecordInput{
		Type:      "blood_pressure",
		Value:     135,
		Secondary: floatPtr(85),
	})
	if err != nil {
		t.Fatalf("add_health_record failed: %v", err)
	}
	if out.Record.Display != "135/85 mmHg" {
		t.Errorf("Expected 135/85 mmHg, got %q", out.Record.Display)
	}
	if out.Record.Normal {
		t.Error("Expected 135 systolic to be outside the normal range")
	}

	if _, _, err := server.handleAddHealthRecord(context.Background(), &mcp.CallToolRequest{}, addHealthRecordInput{Type: "WEIGHT", Value: 70}); err != nil {
		t.Fatalf("add_health_record failed: %v", err)
	}
	if _, _, err := server.handleAddHealthRecord(context.Background(), &mcp.CallToolRequest{}, addHealthRecordInput{Type: "MOOD", Value: 7}); err == nil {
		t.Error("Expected error for unknown type")
	}

	_, list, err := server.handleListHealthRecords(context.Background(), &mcp.CallToolRequest{}, listHealthRecordsInput{Type: "WEIGHT"})
	if err != nil {
		t.Fatalf("list_health_records failed: %v", err)
	}
	if len(list.Records) != 1 || list.Records[0].Type != string(models.HealthWeight) {
		t.Errorf("Expected one weight record, got %+v", list.Records)
	}

	_, list, err = server.handleListHealthRecords(context.Background(), &mcp.CallToolRequest{}, listHealthRecordsInput{})
	if err != nil {
		t.Fatalf("list_health_records failed: %v", err)
	}
	if len(list.Records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(list.Records))
	}
}

func TestHandleAdherence(t *testing.T) {
	server, _ := setupServer(t)
	addMedication(t, server, addMedicationInput{Name: "Aspirin"})
	if _, _, err := server.handleTakeDose(context.Background(), &mcp.CallToolRequest{}, doseInput{Medication: "Aspirin"}); err != nil {
		t.Fatalf("take_dose failed: %v", err)
	}

	_, out, err := server.handleAdherence(context.Background(), &mcp.CallToolRequest{}, adherenceInput{})
	if err != nil {
		t.Fatalf("adherence failed: %v", err)
	}
	if out.CurrentStreak != 1 || out.Rate != "100%" || out.Days != 30 {
		t.Errorf("Unexpected adherence output: %+v", out)
	}
}

func TestHandleTodayResource(t *testing.T) {
	server, _ := setupServer(t)
	addMedication(t, server, addMedicationInput{Name: "Aspirin"})
	addMedication(t, server, addMedicationInput{Name: "Metformin"})
	if _, _, err := server.handleTakeDose(context.Background(), &mcp.CallToolRequest{}, doseInput{Medication: "Aspirin"}); err != nil {
		t.Fatalf("take_dose failed: %v", err)
	}

	data := readResource(t, server.handleTodayResource)
	if data["date"] != "2026-03-02" {
		t.Errorf("Expected date 2026-03-02, got %v", data["date"])
	}
	if data["taken"] != float64(1) || data["total"] != float64(2) {
		t.Errorf("Expected 1/2 taken, got %v/%v", data["taken"], data["total"])
	}
	doses, ok := data["doses"].([]interface{})
	if !ok || len(doses) != 2 {
		t.Errorf("Expected 2 dose entries, got %v", data["doses"])
	}
}

func TestHandleInteractionsResource(t *testing.T) {
	server, _ := setupServer(t)
	addMedication(t, server, addMedicationInput{Name: "华法林"})
	addMedication(t, server, addMedicationInput{Name: "阿司匹林"})

	data := readResource(t, server.handleInteractionsResource)
	if data["has_high"] != true {
		t.Errorf("Expected has_high true, got %v", data["has_high"])
	}
	items, ok := data["interactions"].([]interface{})
	if !ok || len(items) != 1 {
		t.Errorf("Expected 1 interaction, got %v", data["interactions"])
	}
}

func TestHandleSummaryResource(t *testing.T) {
	server, db := setupServer(t)
	addMedication(t, server, addMedicationInput{Name: "Aspirin", Stock: floatPtr(2), RefillAt: floatPtr(5)})
	if err := db.CreateHealthRecord(models.NewHealthRecord(models.HealthHeartRate, 72)); err != nil {
		t.Fatalf("CreateHealthRecord failed: %v", err)
	}

	data := readResource(t, server.handleSummaryResource)
	for _, key := range []string{"generated_at", "adherence", "refills", "next_reminders", "vitals"} {
		if _, ok := data[key]; !ok {
			t.Errorf("Expected %q in summary", key)
		}
	}
	refills, _ := data["refills"].([]interface{})
	if len(refills) != 1 {
		t.Errorf("Expected 1 refill warning, got %v", data["refills"])
	}
	vitals, _ := data["vitals"].(map[string]interface{})
	if _, ok := vitals["HEART_RATE"]; !ok {
		t.Errorf("Expected HEART_RATE in vitals, got %v", vitals)
	}
}

func TestHandleSummaryResourceEmpty(t *testing.T) {
	server, _ := setupServer(t)

	data := readResource(t, server.handleSummaryResource)
	adherence, _ := data["adherence"].(map[string]interface{})
	if adherence["rate"] != "0%" {
		t.Errorf("Expected 0%% rate, got %v", adherence["rate"])
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
