// ABOUTME: CLI commands for the health journal: symptom diary and vital signs.
// ABOUTME: Vitals accept short type names and two values for blood pressure.
package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/medlog/internal/models"
)

var (
	symptomTags    []string
	symptomEffects []string
	symptomNote    string
	symptomMed     string
	symptomAt      string
	symptomDays    int
	symptomLimit   int

	vitalsAt    string
	vitalsNotes string
	vitalsType  string
	vitalsLimit int
)

// healthAliases maps short CLI names to health types.
var healthAliases = map[string]models.HealthType{
	"bp":          models.HealthBloodPressure,
	"glucose":     models.HealthBloodGlucose,
	"sugar":       models.HealthBloodGlucose,
	"weight":      models.HealthWeight,
	"hr":          models.HealthHeartRate,
	"pulse":       models.HealthHeartRate,
	"heart_rate":  models.HealthHeartRate,
	"temp":        models.HealthTemperature,
	"temperature": models.HealthTemperature,
	"spo2":        models.HealthSpO2,
	"oxygen":      models.HealthSpO2,
}

func parseHealthType(s string) (models.HealthType, error) {
	if t, ok := healthAliases[strings.ToLower(s)]; ok {
		return t, nil
	}
	if up := strings.ToUpper(s); models.IsValidHealthType(up) {
		return models.HealthType(up), nil
	}
	return "", fmt.Errorf("unknown vital type: %s\nValid types: bp, glucose, weight, hr, temp, spo2", s)
}

var symptomCmd = &cobra.Command{
	Use:     "symptom",
	Aliases: []string{"sym", "diary"},
	Short:   "Symptom and side-effect diary",
	Long: `Keep a diary of how you feel, with symptoms and side effects.

Each entry has an overall rating from 1 (awful) to 5 (great).

EXAMPLES:

  medlog symptom add 4
  medlog symptom add 2 --symptoms headache,nausea --med metformin
  medlog symptom add 3 --side-effects "dry mouth" --note "after lunch"
  medlog symptom list --days 14`,
}

var symptomAddCmd = &cobra.Command{
	Use:   "add <rating>",
	Short: "Add a diary entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rating, err := strconv.Atoi(args[0])
		if err != nil || rating < 1 || rating > 5 {
			return fmt.Errorf("rating must be a number from 1 to 5: %s", args[0])
		}

		s := models.NewSymptomLog(rating).
			WithSymptoms(symptomTags...).
			WithSideEffects(symptomEffects...).
			WithNote(symptomNote)
		if symptomAt != "" {
			t, err := parseTime(symptomAt)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %s", symptomAt)
			}
			s.WithRecordedAt(t)
		}
		if symptomMed != "" {
			m, err := svc.FindMedication(symptomMed)
			if err != nil {
				return fmt.Errorf("medication not found: %s", symptomMed)
			}
			s.ForMedication(m)
		}

		if err := repo.CreateSymptomLog(s); err != nil {
			return fmt.Errorf("failed to add entry: %w", err)
		}

		color.Green("✓ Added diary entry")
		fmt.Printf("  %s %s %s\n", shortID(s.ID), stars(s.OverallRating), strings.Join(append(s.Symptoms, s.SideEffects...), ", "))
		return nil
	},
}

var symptomListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List diary entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		var since *time.Time
		if symptomDays > 0 {
			t := time.Now().AddDate(0, 0, -symptomDays)
			since = &t
		}
		entries, err := repo.ListSymptomLogs(since, symptomLimit)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No diary entries found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, s := range entries {
			line := strings.Join(s.Symptoms, ", ")
			if len(s.SideEffects) > 0 {
				line += color.YellowString(" side effects: %s", strings.Join(s.SideEffects, ", "))
			}
			if s.MedicationName != "" {
				line += faint.Sprintf(" [%s]", s.MedicationName)
			}
			if s.Note != "" {
				line += faint.Sprintf(" (%s)", truncate(s.Note, 30))
			}
			fmt.Printf("%s %s %s %s\n",
				shortID(s.ID),
				faint.Sprint(s.RecordedAt.Local().Format("2006-01-02 15:04")),
				stars(s.OverallRating),
				line)
		}
		return nil
	},
}

var symptomDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"del", "rm"},
	Short:   "Delete a diary entry",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := repo.GetSymptomLog(args[0])
		if err != nil {
			return fmt.Errorf("entry not found: %s", args[0])
		}
		if err := repo.DeleteSymptomLog(s.ID.String()); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		color.Yellow("✗ Deleted diary entry")
		fmt.Printf("  %s %s\n", shortID(s.ID), s.RecordedAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var vitalsCmd = &cobra.Command{
	Use:     "vitals",
	Aliases: []string{"vital", "v"},
	Short:   "Record vital signs",
	Long: `Record and review vital signs.

TYPES:

  bp        blood pressure, systolic and diastolic (mmHg)
  glucose   blood glucose (mmol/L)
  weight    body weight (kg)
  hr        heart rate (bpm)
  temp      body temperature (°C)
  spo2      blood oxygen (%)

Values outside the normal range are highlighted.

EXAMPLES:

  medlog vitals add bp 120 80
  medlog vitals add glucose 5.4 --notes fasting
  medlog vitals add weight 71.3 --at "2026-03-01 07:30"
  medlog vitals list --type bp
  medlog vitals latest`,
}

var vitalsAddCmd = &cobra.Command{
	Use:     "add <type> <value> [value2]",
	Aliases: []string{"a"},
	Short:   "Record a vital sign",
	Args:    cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ht, err := parseHealthType(args[0])
		if err != nil {
			return err
		}
		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid value: %s", args[1])
		}

		r := models.NewHealthRecord(ht, value)
		if ht == models.HealthBloodPressure {
			if len(args) < 3 {
				return fmt.Errorf("blood pressure requires two values: systolic and diastolic")
			}
			dia, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid diastolic value: %s", args[2])
			}
			r.WithSecondary(dia)
		}
		if vitalsAt != "" {
			t, err := parseTime(vitalsAt)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %s", vitalsAt)
			}
			r.WithRecordedAt(t)
		}
		if vitalsNotes != "" {
			r.WithNotes(vitalsNotes)
		}

		if err := repo.CreateHealthRecord(r); err != nil {
			return fmt.Errorf("failed to record %s: %w", ht.Info().Label, err)
		}

		color.Green("✓ Added %s", strings.ToLower(ht.Info().Label))
		fmt.Printf("  %s %s\n", shortID(r.ID), vitalValue(r))
		return nil
	},
}

var vitalsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List vital signs",
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter *models.HealthType
		if vitalsType != "" {
			ht, err := parseHealthType(vitalsType)
			if err != nil {
				return err
			}
			filter = &ht
		}
		records, err := repo.ListHealthRecords(filter, vitalsLimit)
		if err != nil {
			return fmt.Errorf("failed to list vitals: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No vitals found.")
			return nil
		}
		printVitals(records)
		return nil
	},
}

var vitalsLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the latest value of each vital sign",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := repo.LatestHealthRecords()
		if err != nil {
			return fmt.Errorf("failed to load vitals: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No vitals found.")
			return nil
		}
		printVitals(records)
		return nil
	},
}

var vitalsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"del", "rm"},
	Short:   "Delete a vital sign record",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := repo.GetHealthRecord(args[0])
		if err != nil {
			return fmt.Errorf("record not found: %s", args[0])
		}
		if err := repo.DeleteHealthRecord(r.ID.String()); err != nil {
			return fmt.Errorf("failed to delete record: %w", err)
		}
		color.Yellow("✗ Deleted %s", strings.ToLower(r.Type.Info().Label))
		fmt.Printf("  %s %s\n", shortID(r.ID), r.Display())
		return nil
	},
}

func printVitals(records []*models.HealthRecord) {
	faint := color.New(color.Faint)
	for _, r := range records {
		notes := ""
		if r.Notes != "" {
			notes = faint.Sprintf(" (%s)", truncate(r.Notes, 30))
		}
		fmt.Printf("%s %s %s %s%s\n",
			shortID(r.ID),
			faint.Sprint(r.RecordedAt.Local().Format("2006-01-02 15:04")),
			padRight(r.Type.Info().Label, 14),
			vitalValue(r),
			notes)
	}
}

// vitalValue renders a record, red when outside the normal range.
func vitalValue(r *models.HealthRecord) string {
	if !isNormal(r) {
		return color.RedString("%s", r.Display())
	}
	return r.Display()
}

func isNormal(r *models.HealthRecord) bool {
	if !r.Type.IsNormal(r.Value) {
		return false
	}
	info := r.Type.Info()
	if r.SecondaryValue != nil && info.NormalSecMin != nil && info.NormalSecMax != nil {
		return *r.SecondaryValue >= *info.NormalSecMin && *r.SecondaryValue <= *info.NormalSecMax
	}
	return true
}

func stars(rating int) string {
	return color.YellowString("%s", strings.Repeat("★", rating)) + color.New(color.Faint).Sprint(strings.Repeat("☆", 5-rating))
}

func init() {
	symptomAddCmd.Flags().StringSliceVarP(&symptomTags, "symptoms", "s", nil, "symptom tags, comma separated")
	symptomAddCmd.Flags().StringSliceVarP(&symptomEffects, "side-effects", "e", nil, "side-effect tags, comma separated")
	symptomAddCmd.Flags().StringVar(&symptomNote, "note", "", "free-form note")
	symptomAddCmd.Flags().StringVarP(&symptomMed, "med", "m", "", "medication the entry is about")
	symptomAddCmd.Flags().StringVar(&symptomAt, "at", "", "timestamp (YYYY-MM-DD HH:MM)")
	symptomListCmd.Flags().IntVarP(&symptomDays, "days", "d", 0, "only entries from the last N days")
	symptomListCmd.Flags().IntVarP(&symptomLimit, "limit", "n", 20, "max number of results")

	vitalsAddCmd.Flags().StringVar(&vitalsAt, "at", "", "timestamp (YYYY-MM-DD HH:MM)")
	vitalsAddCmd.Flags().StringVar(&vitalsNotes, "notes", "", "notes for the record")
	vitalsListCmd.Flags().StringVarP(&vitalsType, "type", "t", "", "filter by type")
	vitalsListCmd.Flags().IntVarP(&vitalsLimit, "limit", "n", 20, "max number of results")

	symptomCmd.AddCommand(symptomAddCmd)
	symptomCmd.AddCommand(symptomListCmd)
	symptomCmd.AddCommand(symptomDeleteCmd)
	vitalsCmd.AddCommand(vitalsAddCmd)
	vitalsCmd.AddCommand(vitalsListCmd)
	vitalsCmd.AddCommand(vitalsLatestCmd)
	vitalsCmd.AddCommand(vitalsDeleteCmd)
	rootCmd.AddCommand(symptomCmd)
	rootCmd.AddCommand(vitalsCmd)
}
