// ABOUTME: MCP resource implementations for the medication journal.
// ABOUTME: Provides medlog://today, medlog://interactions, and medlog://summary resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/medlog/internal/doses"
	"github.com/harperreed/medlog/internal/interaction"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "medlog://today",
		Name:        "Today's Doses",
		Description: "Medications due today with their logged status and progress",
		MIMEType:    "application/json",
	}, s.handleTodayResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "medlog://interactions",
		Name:        "Drug Interactions",
		Description: "Known interactions among the active medications, most severe first",
		MIMEType:    "application/json",
	}, s.handleInteractionsResource)

	// medlog://summary - adherence, refills, upcoming reminders and latest vitals
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "medlog://summary",
		Name:        "Medication Summary Dashboard",
		Description: "Adherence streaks, refill warnings, next reminders and latest vital signs",
		MIMEType:    "application/json",
	}, s.handleSummaryResource)
}

func jsonResource(uri string, v interface{}) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

type todayEntry struct {
	Medication medicationView `json:"medication"`
	Status     string         `json:"status"`
	Log        *logView       `json:"log,omitempty"`
}

func (s *Server) handleTodayResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	items, err := s.doses.Today()
	if err != nil {
		return nil, fmt.Errorf("failed to load today: %w", err)
	}
	progress, err := s.doses.TodayProgress()
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	entries := make([]todayEntry, 0, len(items))
	for _, it := range items {
		e := todayEntry{Medication: toMedicationView(it.Medication), Status: "pending"}
		if it.Log != nil {
			v := toLogView(it.Log, it.Medication.Name)
			e.Log = &v
			e.Status = v.Status
		}
		entries = append(entries, e)
	}

	now := s.doses.Scheduler().Now()
	return jsonResource("medlog://today", map[string]interface{}{
		"date":    now.Format("2006-01-02"),
		"doses":   entries,
		"taken":   progress.Taken,
		"total":   progress.Total,
		"pending": nonNil(progress.Pending),
	})
}

func (s *Server) handleInteractionsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	results, err := s.doses.Interactions()
	if err != nil {
		return nil, fmt.Errorf("failed to check interactions: %w", err)
	}

	counts := map[string]int{}
	for _, r := range results {
		counts[r.Severity.String()]++
	}
	return jsonResource("medlog://interactions", map[string]interface{}{
		"interactions": toInteractionViews(results),
		"has_high":     interaction.HasHigh(results),
		"counts":       counts,
	})
}

type refillView struct {
	Medication string  `json:"medication"`
	Stock      float64 `json:"stock"`
	DaysLeft   int     `json:"days_left"`
	Below      bool    `json:"below_threshold"`
}

func (s *Server) handleSummaryResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	report, err := s.doses.Adherence(doses.DefaultWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to build adherence report: %w", err)
	}

	warnings, err := s.doses.RefillWarnings()
	if err != nil {
		return nil, fmt.Errorf("failed to check stock: %w", err)
	}
	refills := make([]refillView, 0, len(warnings))
	for _, w := range warnings {
		refills = append(refills, refillView{
			Medication: w.Medication.Name,
			Stock:      w.Stock,
			DaysLeft:   w.DaysLeft,
			Below:      w.BelowMin,
		})
	}

	upcoming, err := s.doses.UpcomingReminders(5, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}

	latest, err := s.repo.LatestHealthRecords()
	if err != nil {
		return nil, fmt.Errorf("failed to load vitals: %w", err)
	}
	vitals := make(map[string]healthView, len(latest))
	for _, r := range latest {
		vitals[string(r.Type)] = toHealthView(r)
	}

	now := s.doses.Scheduler().Now()
	return jsonResource("medlog://summary", map[string]interface{}{
		"generated_at": formatTime(now),
		"adherence": map[string]interface{}{
			"current_streak": report.CurrentStreak,
			"longest_streak": report.LongestStreak,
			"rate":           percent(report.Overall),
			"window_days":    doses.DefaultWindow,
		},
		"refills":        refills,
		"next_reminders": toReminderViews(upcoming),
		"vitals":         vitals,
	})
}
