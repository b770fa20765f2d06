// ABOUTME: Tests for CLI helper functions and command execution.
// ABOUTME: Tests parseTime, truncate, padRight, command flags, and DB-backed commands.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/harperreed/medlog/internal/doses"
	"github.com/harperreed/medlog/internal/models"
	"github.com/harperreed/medlog/internal/storage"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "date and time with space", input: "2026-01-31 08:30"},
		{name: "date and time with T", input: "2026-01-31T08:30"},
		{name: "date only", input: "2026-01-31"},
		{name: "RFC3339", input: "2026-01-31T08:30:00Z"},
		{name: "RFC3339 with offset", input: "2026-01-31T08:30:00+05:00"},
		{name: "invalid format", input: "31-01-2026", wantErr: true},
		{name: "invalid random string", input: "not a date", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseTime(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Errorf("parseTime(%q) expected error, got nil", tt.input)
				}
				return
			}

			if err != nil {
				t.Errorf("parseTime(%q) unexpected error: %v", tt.input, err)
				return
			}

			if result.IsZero() {
				t.Errorf("parseTime(%q) returned zero time", tt.input)
			}
		})
	}
}

func TestParseTimeValues(t *testing.T) {
	result, err := parseTime("2026-06-15 21:45")
	if err != nil {
		t.Fatalf("parseTime failed: %v", err)
	}

	if result.Year() != 2026 || result.Month() != time.June || result.Day() != 15 {
		t.Errorf("parseTime returned wrong date: got %v", result)
	}
	if result.Hour() != 21 || result.Minute() != 45 {
		t.Errorf("parseTime returned wrong clock: got %v", result)
	}
	if result.Location() != time.Local {
		t.Errorf("Expected local time, got %v", result.Location())
	}
}

func TestParseDate(t *testing.T) {
	if _, err := parseDate("2026-03-01"); err != nil {
		t.Errorf("parseDate failed: %v", err)
	}
	_, err := parseDate("03/01/2026")
	if err == nil {
		t.Fatal("Expected error for non-ISO date")
	}
	if !strings.Contains(err.Error(), "YYYY-MM-DD") {
		t.Errorf("Expected format hint in error, got %q", err.Error())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short string no truncation", input: "hello", maxLen: 10, want: "hello"},
		{name: "exact length", input: "hello", maxLen: 5, want: "hello"},
		{name: "needs truncation", input: "take with food and water", maxLen: 10, want: "take wi..."},
		{name: "empty string", input: "", maxLen: 10, want: ""},
		{name: "very short maxLen", input: "hello", maxLen: 3, want: "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		length int
		want   string
	}{
		{name: "needs padding", input: "hi", length: 5, want: "hi   "},
		{name: "exact length", input: "hello", length: 5, want: "hello"},
		{name: "longer than length", input: "hello world", length: 5, want: "hello world"},
		{name: "empty string", input: "", length: 5, want: "     "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := padRight(tt.input, tt.length)
			if got != tt.want {
				t.Errorf("padRight(%q, %d) = %q, want %q", tt.input, tt.length, got, tt.want)
			}
		})
	}
}

func TestDescribeSchedule(t *testing.T) {
	daily := models.NewMedication("Aspirin", 100, "mg")
	daily.ReminderTimes = []string{"08:00"}

	interval := models.NewMedication("Vitamin B12", 1, "tablet")
	interval.ReminderTimes = []string{"09:00"}
	interval.FrequencyType = models.FrequencyInterval
	interval.FrequencyInterval = 3

	weekly := models.NewMedication("Vitamin D", 1, "capsule")
	weekly.ReminderTimes = []string{"08:00"}
	weekly.FrequencyType = models.FrequencySpecificDays
	weekly.FrequencyDays = []int{1, 7}

	hourly := models.NewMedication("Amoxicillin", 500, "mg")
	hourly.IntervalHours = 8

	prn := models.NewMedication("Ibuprofen", 200, "mg")
	prn.IsPRN = true

	tests := []struct {
		name string
		med  *models.Medication
		want string
	}{
		{"daily", daily, "08:00 daily"},
		{"interval", interval, "09:00 every 3 days"},
		{"specific days", weekly, "08:00 on Mon Sun"},
		{"every hours", hourly, "every 8h"},
		{"as needed", prn, "as needed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeSchedule(tt.med); got != tt.want {
				t.Errorf("describeSchedule() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseHealthType(t *testing.T) {
	tests := []struct {
		input string
		want  models.HealthType
	}{
		{"bp", models.HealthBloodPressure},
		{"BP", models.HealthBloodPressure},
		{"sugar", models.HealthBloodGlucose},
		{"pulse", models.HealthHeartRate},
		{"temp", models.HealthTemperature},
		{"oxygen", models.HealthSpO2},
		{"WEIGHT", models.HealthWeight},
		{"spo2", models.HealthSpO2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseHealthType(tt.input)
			if err != nil {
				t.Fatalf("parseHealthType(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseHealthType(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}

	if _, err := parseHealthType("cholesterol"); err == nil {
		t.Error("Expected error for unknown vital type")
	}
}

func TestNeedsStorage(t *testing.T) {
	tests := []struct {
		cmd  string
		args []string
		want bool
	}{
		{"med add", []string{"med", "add"}, true},
		{"today", []string{"today"}, true},
		{"plan export", []string{"plan", "export"}, true},
		{"plan inspect", []string{"plan", "inspect"}, false},
		{"drugs search", []string{"drugs", "search"}, false},
		{"config set", []string{"config", "set"}, false},
		{"sync link", []string{"sync", "link"}, false},
		{"sync push", []string{"sync", "push"}, true},
		{"install-skill", []string{"install-skill"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			cmd, _, err := rootCmd.Find(tt.args)
			if err != nil {
				t.Fatalf("Find(%v) failed: %v", tt.args, err)
			}
			if got := needsStorage(cmd); got != tt.want {
				t.Errorf("needsStorage(%s) = %v, want %v", tt.cmd, got, tt.want)
			}
		})
	}
}

func TestRootCmdFlags(t *testing.T) {
	if rootCmd.Use != "medlog" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "medlog")
	}

	if rootCmd.Short == "" {
		t.Error("Expected rootCmd.Short to be non-empty")
	}

	if rootCmd.PersistentFlags().Lookup("verbose") == nil {
		t.Error("Expected persistent --verbose flag")
	}
}

func TestCommandsRegistered(t *testing.T) {
	expected := []string{
		"med", "take", "skip", "miss", "undo", "today", "history", "streak",
		"interactions", "remind", "plan", "symptom", "vitals", "drugs",
		"export", "import", "migrate", "config", "sync", "mcp", "install-skill",
	}

	cmdNames := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdNames[cmd.Name()] = true
	}

	for _, name := range expected {
		if !cmdNames[name] {
			t.Errorf("Expected command %q to be registered", name)
		}
	}
}

func TestSubcommands(t *testing.T) {
	tests := []struct {
		parent   string
		children []string
	}{
		{"med", []string{"add", "list", "show", "edit", "archive", "unarchive", "delete", "stock"}},
		{"remind", []string{"next", "run", "resync"}},
		{"plan", []string{"export", "import", "inspect"}},
		{"symptom", []string{"add", "list", "delete"}},
		{"vitals", []string{"add", "list", "latest", "delete"}},
		{"drugs", []string{"search", "categories"}},
		{"config", []string{"show", "set", "path"}},
		{"sync", []string{"link", "unlink", "status", "push", "pull", "clear", "repair", "reset", "wipe"}},
	}

	for _, tt := range tests {
		t.Run(tt.parent, func(t *testing.T) {
			parent, _, err := rootCmd.Find([]string{tt.parent})
			if err != nil {
				t.Fatalf("Find(%s) failed: %v", tt.parent, err)
			}
			names := make(map[string]bool)
			for _, c := range parent.Commands() {
				names[c.Name()] = true
			}
			for _, child := range tt.children {
				if !names[child] {
					t.Errorf("Expected %s subcommand %q not found", tt.parent, child)
				}
			}
		})
	}
}

func TestMedAddCmdFlags(t *testing.T) {
	for _, name := range []string{"qty", "unit", "period", "time", "freq", "every", "days", "every-hours", "stock", "refill-at", "prn", "priority", "start", "end"} {
		if medAddCmd.Flags().Lookup(name) == nil {
			t.Errorf("Expected --%s flag on med add command", name)
		}
	}

	// freq, every, days, stock and start only make sense when creating
	for _, name := range []string{"freq", "stock", "start"} {
		if medEditCmd.Flags().Lookup(name) != nil {
			t.Errorf("Did not expect --%s flag on med edit command", name)
		}
	}
}

func TestFlagDefaults(t *testing.T) {
	tests := []struct {
		name string
		cmd  *cobra.Command
		flag string
		def  string
	}{
		{"symptom list", symptomListCmd, "limit", "20"},
		{"vitals list", vitalsListCmd, "limit", "20"},
		{"drugs search", drugsSearchCmd, "limit", "20"},
		{"remind next", remindNextCmd, "limit", "10"},
		{"history", historyCmd, "days", "7"},
		{"streak", streakCmd, "window", "30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.cmd.Flags().Lookup(tt.flag)
			if f == nil {
				t.Fatalf("Expected --%s flag on %s", tt.flag, tt.name)
			}
			if f.DefValue != tt.def {
				t.Errorf("Expected default --%s %s on %s, got %s", tt.flag, tt.def, tt.name, f.DefValue)
			}
		})
	}
}

func TestCmdAliases(t *testing.T) {
	tests := []struct {
		name    string
		aliases []string
		want    []string
	}{
		{"med", medCmd.Aliases, []string{"m", "meds"}},
		{"med list", medListCmd.Aliases, []string{"ls", "l"}},
		{"med delete", medDeleteCmd.Aliases, []string{"del", "rm"}},
		{"take", takeCmd.Aliases, []string{"t"}},
		{"history", historyCmd.Aliases, []string{"h"}},
		{"interactions", interactionsCmd.Aliases, []string{"ix"}},
		{"symptom", symptomCmd.Aliases, []string{"sym", "diary"}},
		{"vitals", vitalsCmd.Aliases, []string{"vital", "v"}},
		{"sync", syncCmd.Aliases, []string{"s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			have := make(map[string]bool)
			for _, a := range tt.aliases {
				have[a] = true
			}
			for _, want := range tt.want {
				if !have[want] {
					t.Errorf("Expected alias %q for %s", want, tt.name)
				}
			}
		})
	}
}

func TestExportCmdValidArgs(t *testing.T) {
	expected := map[string]bool{"json": false, "yaml": false, "markdown": false}

	for _, arg := range exportCmd.ValidArgs {
		if _, ok := expected[arg]; ok {
			expected[arg] = true
		}
	}

	for arg, found := range expected {
		if !found {
			t.Errorf("Expected valid arg %q for exportCmd", arg)
		}
	}
}

func TestMCPCmdDocumentsTools(t *testing.T) {
	for _, tool := range []string{"add_medication", "take_dose", "check_interactions", "import_plan", "adherence", "medlog://today"} {
		if !strings.Contains(mcpCmd.Long, tool) {
			t.Errorf("Expected mcp help to mention %q", tool)
		}
	}
}

// setupTestCLI sets up a test database for CLI testing.
// It points XDG_DATA_HOME and XDG_CONFIG_HOME at a temp directory.
func setupTestCLI(t *testing.T) (*storage.DB, func()) {
	t.Helper()

	tmpDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))

	// Pre-open the database to create the schema
	dbPath := filepath.Join(tmpDir, "medlog", "medlog.db")
	testDB, err := storage.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	resetFlags()
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})

	cleanup := func() {
		_ = closeStorage()
		testDB.Close()
	}

	return testDB, cleanup
}

// resetFlags clears the package-level flag variables between executions.
func resetFlags() {
	clearChanged(rootCmd)

	medQty, medUnit, medForm, medPeriod = 0, "", "", ""
	medTimes, medFreq, medEvery, medDays = nil, "", 0, nil
	medEveryHours, medStock, medRefillAt, medRefillDays, medMaxDaily = 0, 0, 0, 0, 0
	medPRN, medPriority, medNotes, medStart, medEnd = false, false, "", "", ""
	medListAll, medListArchived, medDeleteConfirm, medStockAdd = false, false, false, false

	takeSlot, skipSlot = 0, 0
	missAt, historyMed, historyDays, historyStatus = "", "", 7, ""
	streakWindow, interactionsMe = doses.DefaultWindow, false

	planOutput, planReplace, planYes = "", false, false
	exportOutput, exportSince = "", ""

	symptomTags, symptomEffects, symptomNote, symptomMed, symptomAt = nil, nil, "", "", ""
	symptomDays, symptomLimit = 0, 20
	vitalsAt, vitalsNotes, vitalsType, vitalsLimit = "", "", "", 20
}

// clearChanged forgets which flags earlier executions set.
func clearChanged(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	for _, sub := range c.Commands() {
		clearChanged(sub)
	}
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestMedAddCmdWithDB(t *testing.T) {
	testDB, cleanup := setupTestCLI(t)
	defer cleanup()

	if err := run(t, "med", "add", "Aspirin", "--qty", "100", "--unit", "mg", "--time", "08:00"); err != nil {
		t.Fatalf("med add failed: %v", err)
	}

	meds, err := testDB.ListMedications(storage.MedicationFilter{})
	if err != nil {
		t.Fatalf("ListMedications failed: %v", err)
	}
	if len(meds) != 1 {
		t.Fatalf("Expected 1 medication, got %d", len(meds))
	}
	m := meds[0]
	if m.Name != "Aspirin" || m.DoseQuantity != 100 || m.DoseUnit != "mg" {
		t.Errorf("Unexpected medication: %+v", m)
	}
	if len(m.ReminderTimes) != 1 || m.ReminderTimes[0] != "08:00" {
		t.Errorf("Expected reminder time 08:00, got %v", m.ReminderTimes)
	}

	alarms, err := testDB.ListAlarms(&m.ID)
	if err != nil {
		t.Fatalf("ListAlarms failed: %v", err)
	}
	if len(alarms) == 0 {
		t.Error("Expected alarms to be scheduled for a new medication")
	}
}

func TestMedAddCmdInvalidTime(t *testing.T) {
	testDB, cleanup := setupTestCLI(t)
	defer cleanup()

	if err := run(t, "med", "add", "Aspirin", "--time", "25:99"); err == nil {
		t.Error("Expected error for invalid reminder time")
	}

	meds, _ := testDB.ListMedications(storage.MedicationFilter{})
	if len(meds) != 0 {
		t.Errorf("Expected no medication to be stored, got %d", len(meds))
	}
}

func TestTakeAndUndoCmdWithDB(t *testing.T) {
	testDB, cleanup := setupTestCLI(t)
	defer cleanup()

	if err := run(t, "med", "add", "Metformin", "--qty", "500", "--unit", "mg", "--time", "08:00"); err != nil {
		t.Fatalf("med add failed: %v", err)
	}
	resetFlags()

	if err := run(t, "take", "metformin"); err != nil {
		t.Fatalf("take failed: %v", err)
	}

	logs, err := testDB.ListLogs(storage.LogFilter{})
	if err != nil {
		t.Fatalf("ListLogs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("Expected 1 log, got %d", len(logs))
	}
	if logs[0].Status != models.StatusTaken {
		t.Errorf("Expected taken status, got %s", logs[0].Status)
	}

	if err := run(t, "undo", logs[0].ID.String()[:8]); err != nil {
		t.Fatalf("undo failed: %v", err)
	}

	logs, err = testDB.ListLogs(storage.LogFilter{})
	if err != nil {
		t.Fatalf("ListLogs failed: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("Expected log to be removed by undo, got %d", len(logs))
	}
}

func TestTakeSlotCmdWithDB(t *testing.T) {
	testDB, cleanup := setupTestCLI(t)
	defer cleanup()

	if err := run(t, "med", "add", "Metformin", "--time", "08:00", "--time", "20:00"); err != nil {
		t.Fatalf("med add failed: %v", err)
	}
	resetFlags()

	if err := run(t, "take", "metformin", "--slot", "2"); err != nil {
		t.Fatalf("take --slot failed: %v", err)
	}
	resetFlags()

	meds, err := testDB.ListMedications(storage.MedicationFilter{})
	if err != nil || len(meds) != 1 {
		t.Fatalf("ListMedications failed: %v (%d meds)", err, len(meds))
	}
	alarms, err := testDB.ListAlarms(&meds[0].ID)
	if err != nil {
		t.Fatalf("ListAlarms failed: %v", err)
	}
	now := time.Now()
	evening := time.Date(now.Year(), now.Month(), now.Day(), 20, 0, 0, 0, time.Local)
	for _, a := range alarms {
		if a.Kind == models.AlarmMain && a.Slot == 1 && !a.TriggerAt.After(evening) {
			t.Errorf("Expected the evening reminder to move past today, got %v", a.TriggerAt)
		}
	}

	if err := run(t, "skip", "metformin", "--slot", "3"); err == nil {
		t.Error("Expected error for a slot the medication does not have")
	}
}

func TestMedMaxDailyCmdWithDB(t *testing.T) {
	testDB, cleanup := setupTestCLI(t)
	defer cleanup()

	if err := run(t, "med", "add", "Ibuprofen", "--prn", "--max-daily", "6"); err != nil {
		t.Fatalf("med add failed: %v", err)
	}
	resetFlags()

	meds, err := testDB.ListMedications(storage.MedicationFilter{})
	if err != nil || len(meds) != 1 {
		t.Fatalf("ListMedications failed: %v (%d meds)", err, len(meds))
	}
	if meds[0].MaxDailyDose == nil || *meds[0].MaxDailyDose != 6 {
		t.Fatalf("Expected max daily 6, got %v", meds[0].MaxDailyDose)
	}

	if err := run(t, "today"); err != nil {
		t.Fatalf("today failed: %v", err)
	}
	resetFlags()

	if err := run(t, "med", "edit", "ibuprofen", "--max-daily", "0"); err != nil {
		t.Fatalf("med edit failed: %v", err)
	}
	resetFlags()

	got, err := testDB.GetMedication(meds[0].ID.String())
	if err != nil {
		t.Fatalf("GetMedication failed: %v", err)
	}
	if got.MaxDailyDose != nil {
		t.Errorf("Expected max daily to be cleared, got %v", *got.MaxDailyDose)
	}

	if err := run(t, "med", "add", "Paracetamol", "--prn", "--max-daily=-1"); err == nil {
		t.Error("Expected error for a negative max daily dose")
	}
}

func TestTakeCmdUnknownMedication(t *testing.T) {
	_, cleanup := setupTestCLI(t)
	defer cleanup()

	if err := run(t, "take", "nothing-like-this"); err == nil {
		t.Error("Expected error for unknown medication")
	}
}

func TestTodayAndStreakCmdWithDB(t *testing.T) {
	_, cleanup := setupTestCLI(t)
	defer cleanup()

	if err := run(t, "med", "add", "Aspirin", "--time", "08:00"); err != nil {
		t.Fatalf("med add failed: %v", err)
	}
	resetFlags()

	if err := run(t, "today"); err != nil {
		t.Errorf("today failed: %v", err)
	}
	if err := run(t, "streak"); err != nil {
		t.Errorf("streak failed: %v", err)
	}
	if err := run(t, "history"); err != nil {
		t.Errorf("history failed: %v", err)
	}
}

func TestMedArchiveCmdWithDB(t *testing.T) {
	testDB, cleanup := setupTestCLI(t)
	defer cleanup()

	if err := run(t, "med", "add", "Aspirin", "--time", "08:00"); err != nil {
		t.Fatalf("med add failed: %v", err)
	}
	resetFlags()

	if err := run(t, "med", "archive", "aspirin"); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	active, _ := testDB.ListMedications(storage.MedicationFilter{})
	if len(active) != 0 {
		t.Errorf("Expected no active medications, got %d", len(active))
	}
	archived, _ := testDB.ListMedications(storage.MedicationFilter{ArchivedOnly: true})
	if len(archived) != 1 {
		t.Fatalf("Expected 1 archived medication, got %d", len(archived))
	}

	alarms, _ := testDB.ListAlarms(&archived[0].ID)
	if len(alarms) != 0 {
		t.Errorf("Expected archived medication to have no alarms, got %d", len(alarms))
	}
}

func TestVitalsAddCmdBloodPressure(t *testing.T) {
	testDB, cleanup := setupTestCLI(t)
	defer cleanup()

	if err := run(t, "vitals", "add", "bp", "128", "84", "--notes", "after walk"); err != nil {
		t.Fatalf("vitals add failed: %v", err)
	}

	records, err := testDB.ListHealthRecords(nil, 0)
	if err != nil {
		t.Fatalf("ListHealthRecords failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Type != models.HealthBloodPressure || r.Value != 128 {
		t.Errorf("Unexpected record: %+v", r)
	}
	if r.SecondaryValue == nil || *r.SecondaryValue != 84 {
		t.Error("Expected diastolic value 84")
	}
}

func TestVitalsAddCmdBPMissingArg(t *testing.T) {
	_, cleanup := setupTestCLI(t)
	defer cleanup()

	if err := run(t, "vitals", "add", "bp", "120"); err == nil {
		t.Error("Expected error for BP with missing diastolic")
	}
}

func TestSymptomAddCmdWithDB(t *testing.T) {
	testDB, cleanup := setupTestCLI(t)
	defer cleanup()

	if err := run(t, "symptom", "add", "2", "--symptoms", "headache,dizzy", "--note", "bad night"); err != nil {
		t.Fatalf("symptom add failed: %v", err)
	}

	entries, err := testDB.ListSymptomLogs(nil, 0)
	if err != nil {
		t.Fatalf("ListSymptomLogs failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].OverallRating != 2 {
		t.Errorf("Expected rating 2, got %d", entries[0].OverallRating)
	}
	if len(entries[0].Symptoms) != 2 {
		t.Errorf("Expected 2 symptoms, got %v", entries[0].Symptoms)
	}
}

func TestSymptomAddCmdRatingOutOfRange(t *testing.T) {
	_, cleanup := setupTestCLI(t)
	defer cleanup()

	if err := run(t, "symptom", "add", "6"); err == nil {
		t.Error("Expected error for rating 6")
	}
}

func TestPlanExportImportCmd(t *testing.T) {
	testDB, cleanup := setupTestCLI(t)
	defer cleanup()

	if err := run(t, "med", "add", "Aspirin", "--qty", "100", "--unit", "mg", "--time", "08:00"); err != nil {
		t.Fatalf("med add failed: %v", err)
	}
	resetFlags()

	planFile := filepath.Join(t.TempDir(), "plan.txt")
	if err := run(t, "plan", "export", "-o", planFile); err != nil {
		t.Fatalf("plan export failed: %v", err)
	}

	data, err := os.ReadFile(planFile)
	if err != nil {
		t.Fatalf("Failed to read plan file: %v", err)
	}
	if !strings.HasPrefix(string(data), "anshin:v1:") {
		t.Errorf("Expected plan scheme prefix, got %q", string(data))
	}
	resetFlags()

	// merging into the same device skips the existing medication
	if err := run(t, "plan", "import", planFile); err != nil {
		t.Fatalf("plan import failed: %v", err)
	}
	meds, _ := testDB.ListMedications(storage.MedicationFilter{})
	if len(meds) != 1 {
		t.Errorf("Expected merge to keep 1 medication, got %d", len(meds))
	}
	resetFlags()

	if err := run(t, "plan", "import", planFile, "--replace", "--yes"); err != nil {
		t.Fatalf("plan import --replace failed: %v", err)
	}
	meds, _ = testDB.ListMedications(storage.MedicationFilter{})
	if len(meds) != 1 {
		t.Fatalf("Expected replace to leave 1 medication, got %d", len(meds))
	}
	if meds[0].Name != "Aspirin" || meds[0].DoseQuantity != 100 {
		t.Errorf("Unexpected imported medication: %+v", meds[0])
	}
}

func TestPlanImportCmdRejectsGarbage(t *testing.T) {
	_, cleanup := setupTestCLI(t)
	defer cleanup()

	if err := run(t, "plan", "import", "anshin:v1:not-base64!"); err == nil {
		t.Error("Expected error for invalid plan string")
	}
}

func TestExportCmdWritesFiles(t *testing.T) {
	_, cleanup := setupTestCLI(t)
	defer cleanup()

	if err := run(t, "med", "add", "Aspirin", "--time", "08:00"); err != nil {
		t.Fatalf("med add failed: %v", err)
	}

	outDir := t.TempDir()
	for _, format := range []string{"json", "yaml", "markdown"} {
		resetFlags()
		out := filepath.Join(outDir, "export."+format)
		if err := run(t, "export", format, "-o", out); err != nil {
			t.Fatalf("export %s failed: %v", format, err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("Failed to read %s export: %v", format, err)
		}
		if !strings.Contains(string(data), "Aspirin") {
			t.Errorf("Expected %s export to contain Aspirin", format)
		}
	}
}

func TestExportCmdUnknownFormat(t *testing.T) {
	_, cleanup := setupTestCLI(t)
	defer cleanup()

	if err := run(t, "export", "csv"); err == nil {
		t.Error("Expected error for unknown export format")
	}
}

func TestInteractionsCmdAdHoc(t *testing.T) {
	_, cleanup := setupTestCLI(t)
	defer cleanup()

	if err := run(t, "interactions", "warfarin", "aspirin"); err != nil {
		t.Errorf("interactions failed: %v", err)
	}
}

func TestConfigSetCmd(t *testing.T) {
	_, cleanup := setupTestCLI(t)
	defer cleanup()

	if err := run(t, "config", "set", "routine.breakfast", "07:15"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "medlog", "config.json"))
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}
	if !strings.Contains(string(data), "07:15") {
		t.Errorf("Expected config to contain 07:15, got %s", string(data))
	}

	if err := run(t, "config", "set", "routine.breakfast", "late"); err == nil {
		t.Error("Expected error for invalid clock value")
	}
}

func TestInstallSkillFunction(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	skillSkipConfirm = true
	defer func() { skillSkipConfirm = false }()

	if err := installSkill(); err != nil {
		t.Fatalf("installSkill failed: %v", err)
	}

	path := filepath.Join(tmpHome, ".claude", "skills", "medlog", "SKILL.md")
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Skill file not written: %v", err)
	}
	if !strings.Contains(string(content), "name: medlog") {
		t.Error("Installed skill is missing its frontmatter name")
	}
}
