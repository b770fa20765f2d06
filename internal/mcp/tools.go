// ABOUTME: MCP tool implementations for medications, doses, and the health journal.
// ABOUTME: Tools delegate to the dose service so CLI and MCP behave the same.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/harperreed/medlog/internal/doses"
	"github.com/harperreed/medlog/internal/interaction"
	"github.com/harperreed/medlog/internal/models"
	"github.com/harperreed/medlog/internal/planexport"
	"github.com/harperreed/medlog/internal/storage"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_medication",
		Description: "Add a medication with its dose, reminder times and frequency. Reports interactions with current medications.",
	}, s.handleAddMedication)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_medications",
		Description: "List medications, optionally including archived ones",
	}, s.handleListMedications)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "take_dose",
		Description: "Record today's dose of a medication as taken. Pass slot to log a single reminder time; interval medications always log at the current time.",
	}, s.handleTakeDose)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "skip_dose",
		Description: "Record today's dose of a medication as skipped",
	}, s.handleSkipDose)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "check_interactions",
		Description: "Check drug interactions among current medications, or among the given drug names",
	}, s.handleCheckInteractions)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "next_reminders",
		Description: "List the next pending reminders, soonest first",
	}, s.handleNextReminders)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "export_plan",
		Description: "Export active medications as a compact anshin:v1 share string",
	}, s.handleExportPlan)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "import_plan",
		Description: "Import medications from an anshin:v1 share string (merge or replace)",
	}, s.handleImportPlan)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_symptom",
		Description: "Add a symptom diary entry with an overall rating from 1 to 5",
	}, s.handleLogSymptom)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_health_record",
		Description: "Record a vital sign (BLOOD_PRESSURE, BLOOD_GLUCOSE, WEIGHT, HEART_RATE, TEMPERATURE, SPO2)",
	}, s.handleAddHealthRecord)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_health_records",
		Description: "List recent vital signs, optionally filtered by type",
	}, s.handleListHealthRecords)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "adherence",
		Description: "Report dose streaks and the adherence rate over a window of days",
	}, s.handleAdherence)
}

// Tool input/output types

type addMedicationInput struct {
	Name          string   `json:"name" jsonschema:"Medication name"`
	Quantity      float64  `json:"quantity,omitempty" jsonschema:"Amount per dose, defaults to 1"`
	Unit          string   `json:"unit,omitempty" jsonschema:"Dose unit such as tablet, mg or ml, defaults to tablet"`
	Period        string   `json:"period,omitempty" jsonschema:"Routine period such as afterBreakfast or bedtime; sets the time when times is empty"`
	Times         []string `json:"times,omitempty" jsonschema:"Reminder times as HH:MM"`
	Frequency     string   `json:"frequency,omitempty" jsonschema:"daily, interval or specific_days"`
	IntervalDays  int      `json:"interval_days,omitempty" jsonschema:"Days between doses for the interval frequency"`
	Days          []int    `json:"days,omitempty" jsonschema:"ISO weekdays (1=Monday) for the specific_days frequency"`
	IntervalHours int      `json:"interval_hours,omitempty" jsonschema:"Hours between doses, counted from the last dose taken"`
	Stock         *float64 `json:"stock,omitempty" jsonschema:"Current stock, enables refill tracking"`
	RefillAt      *float64 `json:"refill_at,omitempty" jsonschema:"Stock level that triggers a refill warning"`
	MaxDaily      *float64 `json:"max_daily,omitempty" jsonschema:"Most units to take in a day, for as-needed medications"`
	PRN           bool     `json:"prn,omitempty" jsonschema:"Taken only when needed, without reminders"`
	HighPriority  bool     `json:"high_priority,omitempty" jsonschema:"Mark reminders as high priority"`
	Notes         string   `json:"notes,omitempty" jsonschema:"Optional notes"`
	StartDate     string   `json:"start_date,omitempty" jsonschema:"First day as YYYY-MM-DD, defaults to today"`
	EndDate       string   `json:"end_date,omitempty" jsonschema:"Last day as YYYY-MM-DD"`
}

type addMedicationOutput struct {
	Medication   medicationView    `json:"medication"`
	Interactions []interactionView `json:"interactions"`
	Message      string            `json:"message"`
}

type listMedicationsInput struct {
	IncludeArchived bool `json:"include_archived,omitempty" jsonschema:"Include archived medications"`
}

type listMedicationsOutput struct {
	Medications []medicationView `json:"medications"`
}

type doseInput struct {
	Medication string `json:"medication" jsonschema:"Medication name, ID or ID prefix"`
	Slot       int    `json:"slot,omitempty" jsonschema:"Reminder time to log, counting from 1. Omit to log the whole day"`
}

// slot converts the 1-based slot field; 0 means the whole day.
func (in doseInput) slot() int {
	if in.Slot <= 0 {
		return doses.AnySlot
	}
	return in.Slot - 1
}

type doseOutput struct {
	Log     logView  `json:"log"`
	Stock   *float64 `json:"stock,omitempty"`
	Message string   `json:"message"`
}

type checkInteractionsInput struct {
	Drugs []string `json:"drugs,omitempty" jsonschema:"Drug names to check; defaults to the active medications"`
}

type checkInteractionsOutput struct {
	Interactions []interactionView `json:"interactions"`
	HasHigh      bool              `json:"has_high"`
	Message      string            `json:"message"`
}

type nextRemindersInput struct {
	Limit     int  `json:"limit,omitempty" jsonschema:"Max results (default 10)"`
	FollowUps bool `json:"follow_ups,omitempty" jsonschema:"Include pending follow-up reminders"`
}

type nextRemindersOutput struct {
	Reminders []reminderView `json:"reminders"`
}

type exportPlanInput struct{}

type exportPlanOutput struct {
	Plan    string `json:"plan"`
	Count   int    `json:"count"`
	Bytes   int    `json:"bytes"`
	QRReady bool   `json:"qr_ready"`
}

type importPlanInput struct {
	Plan string `json:"plan" jsonschema:"The anshin:v1 share string"`
	Mode string `json:"mode,omitempty" jsonschema:"merge (default) keeps existing medications; replace deletes them first"`
}

type importPlanOutput struct {
	Added   []string `json:"added"`
	Skipped []string `json:"skipped"`
	Removed int      `json:"removed"`
	Message string   `json:"message"`
}

type logSymptomInput struct {
	Rating      int      `json:"rating" jsonschema:"Overall feeling from 1 (bad) to 5 (great)"`
	Symptoms    []string `json:"symptoms,omitempty" jsonschema:"Symptom tags"`
	SideEffects []string `json:"side_effects,omitempty" jsonschema:"Side-effect tags"`
	Note        string   `json:"note,omitempty" jsonschema:"Free-form note"`
	Medication  string   `json:"medication,omitempty" jsonschema:"Related medication name or ID"`
	RecordedAt  string   `json:"recorded_at,omitempty" jsonschema:"Timestamp (RFC 3339 or YYYY-MM-DD HH:MM), defaults to now"`
}

type symptomOutput struct {
	ID      string `json:"id"`
	Rating  int    `json:"rating"`
	Message string `json:"message"`
}

type addHealthRecordInput struct {
	Type       string   `json:"type" jsonschema:"BLOOD_PRESSURE, BLOOD_GLUCOSE, WEIGHT, HEART_RATE, TEMPERATURE or SPO2"`
	Value      float64  `json:"value" jsonschema:"Primary value (systolic for blood pressure)"`
	Secondary  *float64 `json:"secondary,omitempty" jsonschema:"Diastolic pressure for BLOOD_PRESSURE"`
	RecordedAt string   `json:"recorded_at,omitempty" jsonschema:"Timestamp (RFC 3339 or YYYY-MM-DD HH:MM), defaults to now"`
	Notes      string   `json:"notes,omitempty" jsonschema:"Optional notes"`
}

type healthRecordOutput struct {
	Record  healthView `json:"record"`
	Message string     `json:"message"`
}

type listHealthRecordsInput struct {
	Type  string `json:"type,omitempty" jsonschema:"Filter by type"`
	Limit int    `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type listHealthRecordsOutput struct {
	Records []healthView `json:"records"`
}

type adherenceInput struct {
	Days int `json:"days,omitempty" jsonschema:"Window in days (default 30)"`
}

type adherenceOutput struct {
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	Rate          string `json:"rate"`
	Days          int    `json:"days"`
	Message       string `json:"message"`
}

// parseWhen accepts RFC 3339 or "YYYY-MM-DD HH:MM" in local time.
func parseWhen(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return t, nil
}

// Tool handlers

func (s *Server) handleAddMedication(ctx context.Context, req *mcp.CallToolRequest, input addMedicationInput) (*mcp.CallToolResult, addMedicationOutput, error) {
	draft := doses.Draft{
		Name:          input.Name,
		Quantity:      input.Quantity,
		Unit:          input.Unit,
		Period:        input.Period,
		Times:         input.Times,
		Frequency:     input.Frequency,
		IntervalDays:  input.IntervalDays,
		Days:          input.Days,
		IntervalHours: input.IntervalHours,
		Stock:         input.Stock,
		RefillAt:      input.RefillAt,
		MaxDaily:      input.MaxDaily,
		PRN:           input.PRN,
		HighPriority:  input.HighPriority,
		Notes:         input.Notes,
		Start:         input.StartDate,
		End:           input.EndDate,
	}
	m, err := draft.Build(s.routine, s.catalog)
	if err != nil {
		return nil, addMedicationOutput{}, err
	}

	hits, err := s.doses.InteractionsWith(m)
	if err != nil {
		return nil, addMedicationOutput{}, fmt.Errorf("failed to check interactions: %w", err)
	}
	if err := s.doses.AddMedication(m); err != nil {
		return nil, addMedicationOutput{}, fmt.Errorf("failed to add medication: %w", err)
	}

	msg := fmt.Sprintf("Added %s, %s at %s (ID: %s)", m.Name, m.DoseLabel(), strings.Join(m.ReminderTimes, ", "), shortID(m.ID.String()))
	if interaction.HasHigh(hits) {
		msg += ". WARNING: high-severity interaction with a current medication"
	}
	return nil, addMedicationOutput{
		Medication:   toMedicationView(m),
		Interactions: toInteractionViews(hits),
		Message:      msg,
	}, nil
}

func (s *Server) handleListMedications(ctx context.Context, req *mcp.CallToolRequest, input listMedicationsInput) (*mcp.CallToolResult, listMedicationsOutput, error) {
	meds, err := s.repo.ListMedications(storage.MedicationFilter{IncludeArchived: input.IncludeArchived})
	if err != nil {
		return nil, listMedicationsOutput{}, fmt.Errorf("failed to list medications: %w", err)
	}

	out := listMedicationsOutput{Medications: make([]medicationView, 0, len(meds))}
	for _, m := range meds {
		out.Medications = append(out.Medications, toMedicationView(m))
	}
	return nil, out, nil
}

func (s *Server) handleTakeDose(ctx context.Context, req *mcp.CallToolRequest, input doseInput) (*mcp.CallToolResult, doseOutput, error) {
	m, err := s.doses.FindMedication(input.Medication)
	if err != nil {
		return nil, doseOutput{}, fmt.Errorf("medication not found: %s", input.Medication)
	}
	l, err := s.doses.TakeDose(m, input.slot())
	if err != nil {
		return nil, doseOutput{}, fmt.Errorf("failed to record dose: %w", err)
	}

	msg := fmt.Sprintf("Took %s of %s", m.DoseLabel(), m.Name)
	if m.Stock != nil {
		msg += fmt.Sprintf(" (%g left)", *m.Stock)
	}
	return nil, doseOutput{Log: toLogView(l, m.Name), Stock: m.Stock, Message: msg}, nil
}

func (s *Server) handleSkipDose(ctx context.Context, req *mcp.CallToolRequest, input doseInput) (*mcp.CallToolResult, doseOutput, error) {
	m, err := s.doses.FindMedication(input.Medication)
	if err != nil {
		return nil, doseOutput{}, fmt.Errorf("medication not found: %s", input.Medication)
	}
	l, err := s.doses.SkipDose(m, input.slot())
	if err != nil {
		return nil, doseOutput{}, fmt.Errorf("failed to record skip: %w", err)
	}
	return nil, doseOutput{Log: toLogView(l, m.Name), Stock: m.Stock, Message: fmt.Sprintf("Skipped %s today", m.Name)}, nil
}

func (s *Server) handleCheckInteractions(ctx context.Context, req *mcp.CallToolRequest, input checkInteractionsInput) (*mcp.CallToolResult, checkInteractionsOutput, error) {
	var results []interaction.Interaction
	if len(input.Drugs) == 0 {
		var err error
		results, err = s.doses.Interactions()
		if err != nil {
			return nil, checkInteractionsOutput{}, fmt.Errorf("failed to check interactions: %w", err)
		}
	} else {
		meds := make([]*models.Medication, 0, len(input.Drugs))
		for _, name := range input.Drugs {
			m := models.NewMedication(strings.TrimSpace(name), 1, "tablet")
			if d, ok := s.catalog.Find(m.Name); ok {
				m.WithCategory(d.Category, d.FullPath)
			}
			meds = append(meds, m)
		}
		results = interaction.Check(meds)
	}

	msg := "No known interactions."
	if len(results) > 0 {
		msg = fmt.Sprintf("Found %d interaction(s).", len(results))
	}
	return nil, checkInteractionsOutput{
		Interactions: toInteractionViews(results),
		HasHigh:      interaction.HasHigh(results),
		Message:      msg,
	}, nil
}

func (s *Server) handleNextReminders(ctx context.Context, req *mcp.CallToolRequest, input nextRemindersInput) (*mcp.CallToolResult, nextRemindersOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 10
	}
	up, err := s.doses.UpcomingReminders(input.Limit, input.FollowUps)
	if err != nil {
		return nil, nextRemindersOutput{}, fmt.Errorf("failed to list reminders: %w", err)
	}
	return nil, nextRemindersOutput{Reminders: toReminderViews(up)}, nil
}

func (s *Server) handleExportPlan(ctx context.Context, req *mcp.CallToolRequest, input exportPlanInput) (*mcp.CallToolResult, exportPlanOutput, error) {
	meds, err := s.repo.ListMedications(storage.MedicationFilter{})
	if err != nil {
		return nil, exportPlanOutput{}, fmt.Errorf("failed to list medications: %w", err)
	}
	encoded, err := planexport.Encode(meds)
	if err != nil {
		return nil, exportPlanOutput{}, fmt.Errorf("failed to encode plan: %w", err)
	}
	return nil, exportPlanOutput{
		Plan:    encoded,
		Count:   len(meds),
		Bytes:   planexport.EstimatedBytes(encoded),
		QRReady: planexport.CanDisplayAsQR(encoded),
	}, nil
}

func (s *Server) handleImportPlan(ctx context.Context, req *mcp.CallToolRequest, input importPlanInput) (*mcp.CallToolResult, importPlanOutput, error) {
	mode, err := planexport.ParseImportMode(input.Mode)
	if err != nil {
		return nil, importPlanOutput{}, err
	}
	plan, ok := planexport.Decode(strings.TrimSpace(input.Plan))
	if !ok {
		return nil, importPlanOutput{}, fmt.Errorf("not a valid medlog plan")
	}

	result, err := s.doses.ImportPlan(plan, mode)
	if err != nil {
		return nil, importPlanOutput{}, fmt.Errorf("failed to import plan: %w", err)
	}
	s.logger.Info("plan imported over mcp", zap.Int("added", len(result.Added)))

	return nil, importPlanOutput{
		Added:   nonNil(result.Added),
		Skipped: nonNil(result.Skipped),
		Removed: result.Removed,
		Message: fmt.Sprintf("Imported %d medication(s), skipped %d, removed %d", len(result.Added), len(result.Skipped), result.Removed),
	}, nil
}

func (s *Server) handleLogSymptom(ctx context.Context, req *mcp.CallToolRequest, input logSymptomInput) (*mcp.CallToolResult, symptomOutput, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, symptomOutput{}, fmt.Errorf("rating must be between 1 and 5")
	}

	entry := models.NewSymptomLog(input.Rating).
		WithSymptoms(input.Symptoms...).
		WithSideEffects(input.SideEffects...).
		WithNote(input.Note)
	if input.RecordedAt != "" {
		t, err := parseWhen(input.RecordedAt)
		if err != nil {
			return nil, symptomOutput{}, err
		}
		entry.WithRecordedAt(t)
	}
	if input.Medication != "" {
		m, err := s.doses.FindMedication(input.Medication)
		if err != nil {
			return nil, symptomOutput{}, fmt.Errorf("medication not found: %s", input.Medication)
		}
		entry.ForMedication(m)
	}

	if err := s.repo.CreateSymptomLog(entry); err != nil {
		return nil, symptomOutput{}, fmt.Errorf("failed to save entry: %w", err)
	}
	return nil, symptomOutput{
		ID:      shortID(entry.ID.String()),
		Rating:  entry.OverallRating,
		Message: fmt.Sprintf("Logged diary entry (rating %d/5, ID: %s)", entry.OverallRating, shortID(entry.ID.String())),
	}, nil
}

func (s *Server) handleAddHealthRecord(ctx context.Context, req *mcp.CallToolRequest, input addHealthRecordInput) (*mcp.CallToolResult, healthRecordOutput, error) {
	typ := strings.ToUpper(strings.TrimSpace(input.Type))
	if !models.IsValidHealthType(typ) {
		return nil, healthRecordOutput{}, fmt.Errorf("unknown health type: %s", input.Type)
	}

	r := models.NewHealthRecord(models.HealthType(typ), input.Value)
	if input.Secondary != nil {
		r.WithSecondary(*input.Secondary)
	}
	if input.RecordedAt != "" {
		t, err := parseWhen(input.RecordedAt)
		if err != nil {
			return nil, healthRecordOutput{}, err
		}
		r.WithRecordedAt(t)
	}
	if input.Notes != "" {
		r.WithNotes(input.Notes)
	}

	if err := s.repo.CreateHealthRecord(r); err != nil {
		return nil, healthRecordOutput{}, fmt.Errorf("failed to save record: %w", err)
	}
	return nil, healthRecordOutput{
		Record:  toHealthView(r),
		Message: fmt.Sprintf("Recorded %s: %s (ID: %s)", r.Type.Info().Label, r.Display(), shortID(r.ID.String())),
	}, nil
}

func (s *Server) handleListHealthRecords(ctx context.Context, req *mcp.CallToolRequest, input listHealthRecordsInput) (*mcp.CallToolResult, listHealthRecordsOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	var filter *models.HealthType
	if input.Type != "" {
		typ := strings.ToUpper(strings.TrimSpace(input.Type))
		if !models.IsValidHealthType(typ) {
			return nil, listHealthRecordsOutput{}, fmt.Errorf("unknown health type: %s", input.Type)
		}
		ht := models.HealthType(typ)
		filter = &ht
	}

	records, err := s.repo.ListHealthRecords(filter, input.Limit)
	if err != nil {
		return nil, listHealthRecordsOutput{}, fmt.Errorf("failed to list records: %w", err)
	}
	out := listHealthRecordsOutput{Records: make([]healthView, 0, len(records))}
	for _, r := range records {
		out.Records = append(out.Records, toHealthView(r))
	}
	return nil, out, nil
}

func (s *Server) handleAdherence(ctx context.Context, req *mcp.CallToolRequest, input adherenceInput) (*mcp.CallToolResult, adherenceOutput, error) {
	window := input.Days
	if window <= 0 {
		window = doses.DefaultWindow
	}
	report, err := s.doses.Adherence(window)
	if err != nil {
		return nil, adherenceOutput{}, fmt.Errorf("failed to build report: %w", err)
	}
	return nil, adherenceOutput{
		CurrentStreak: report.CurrentStreak,
		LongestStreak: report.LongestStreak,
		Rate:          percent(report.Overall),
		Days:          window,
		Message: fmt.Sprintf("Current streak %d day(s), longest %d, %s of doses taken over %d days",
			report.CurrentStreak, report.LongestStreak, percent(report.Overall), window),
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
