// ABOUTME: CLI commands for logging doses and reviewing adherence.
// ABOUTME: Covers take, skip, miss, undo, today, history, streak, and interactions.
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/medlog/internal/adherence"
	"github.com/harperreed/medlog/internal/doses"
	"github.com/harperreed/medlog/internal/interaction"
	"github.com/harperreed/medlog/internal/models"
	"github.com/harperreed/medlog/internal/storage"
)

var (
	takeSlot       int
	skipSlot       int
	missAt         string
	historyMed     string
	historyDays    int
	historyStatus  string
	streakWindow   int
	interactionsMe bool
)

var takeCmd = &cobra.Command{
	Use:     "take <medication>...",
	Aliases: []string{"t"},
	Short:   "Log today's dose as taken",
	Long: `Log today's dose of one or more medications as taken.

Any earlier entry for today is replaced, stock is reduced by the dose
quantity, and the medication's reminders move on to tomorrow.

With --slot only one reminder time is logged, counting from 1 in the
order shown by 'medlog med show'. Medications dosed every N hours always
log the dose at the current time and the next reminder is N hours later.

EXAMPLES:

  medlog take aspirin
  medlog take aspirin metformin
  medlog take metformin --slot 2   # Only the second reminder time
  medlog take 3f2a1b9c             # By ID prefix`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, ref := range args {
			m, err := svc.FindMedication(ref)
			if err != nil {
				return fmt.Errorf("medication not found: %s", ref)
			}
			l, err := svc.TakeDose(m, slotArg(takeSlot))
			if err != nil {
				return fmt.Errorf("failed to log dose: %w", err)
			}
			color.Green("✓ Took %s", m.Name)
			fmt.Printf("  %s %s\n", shortID(l.ID), m.DoseLabel())
		}
		return printRefillWarnings(args)
	},
}

var skipCmd = &cobra.Command{
	Use:   "skip <medication>...",
	Short: "Log today's dose as skipped",
	Long: `Log today's dose as deliberately skipped. Skipped doses break the
streak but stop today's reminders. --slot works as for 'medlog take'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, ref := range args {
			m, err := svc.FindMedication(ref)
			if err != nil {
				return fmt.Errorf("medication not found: %s", ref)
			}
			l, err := svc.SkipDose(m, slotArg(skipSlot))
			if err != nil {
				return fmt.Errorf("failed to log dose: %w", err)
			}
			color.Yellow("– Skipped %s", m.Name)
			fmt.Printf("  %s %s\n", shortID(l.ID), m.DoseLabel())
		}
		return nil
	},
}

// slotArg converts a 1-based --slot value; 0 means the whole day.
func slotArg(n int) int {
	if n <= 0 {
		return doses.AnySlot
	}
	return n - 1
}

var missCmd = &cobra.Command{
	Use:   "miss <medication>",
	Short: "Record a missed dose",
	Long: `Record a dose you forgot. Reminders are left alone.

EXAMPLES:

  medlog miss aspirin                          # Missed now
  medlog miss aspirin --at "2026-03-01 08:00"  # Missed yesterday morning`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := svc.FindMedication(args[0])
		if err != nil {
			return fmt.Errorf("medication not found: %s", args[0])
		}
		at := time.Now()
		if missAt != "" {
			at, err = parseTime(missAt)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %s", missAt)
			}
		}
		l, err := svc.MarkMissed(m, at)
		if err != nil {
			return fmt.Errorf("failed to log dose: %w", err)
		}
		color.Red("✗ Missed %s", m.Name)
		fmt.Printf("  %s %s\n", shortID(l.ID), l.ScheduledAt.Format("2006-01-02 15:04"))
		return nil
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo <log-id>",
	Short: "Undo a logged dose",
	Long: `Remove a dose log by ID prefix. Undoing a taken dose restores its
stock; reminders are rescheduled. Log IDs are shown by 'medlog history'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := svc.Undo(args[0])
		if err != nil {
			return fmt.Errorf("failed to undo: %w", err)
		}
		color.Yellow("↶ Undid %s dose", l.Status)
		fmt.Printf("  %s %s\n", shortID(l.ID), l.ScheduledAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's checklist",
	Long: `Show every medication due today with its status, followed by
today's progress and any refill warnings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := svc.Today()
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("Nothing scheduled today.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, it := range items {
			m := it.Medication
			mark := color.New(color.FgWhite).Sprint("○")
			if it.Log != nil {
				switch it.Log.Status {
				case models.StatusTaken:
					mark = color.GreenString("✓")
				case models.StatusSkipped:
					mark = color.YellowString("–")
				case models.StatusMissed:
					mark = color.RedString("✗")
				}
			}
			when := strings.Join(m.ReminderTimes, ", ")
			if m.IsPRN {
				when = "as needed"
				if label := m.MaxDailyLabel(); label != "" {
					when += ", " + label
				}
			}
			fmt.Printf("%s %s %s %s\n", mark, padRight(truncate(m.Name, 24), 24), padRight(m.DoseLabel(), 12), faint.Sprint(when))
		}

		p, err := svc.TodayProgress()
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Printf("Progress: %d/%d taken\n", p.Taken, p.Total)
		return printRefillWarnings(nil)
	},
}

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"h"},
	Short:   "Show dose history",
	Long: `Show logged doses grouped by day, most recent day first.

EXAMPLES:

  medlog history                     # Last 7 days
  medlog history --days 30
  medlog history --med aspirin
  medlog history --status missed`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := storage.LogFilter{}
		if historyDays > 0 {
			filter.From = time.Now().AddDate(0, 0, -historyDays)
		}
		if historyMed != "" {
			m, err := svc.FindMedication(historyMed)
			if err != nil {
				return fmt.Errorf("medication not found: %s", historyMed)
			}
			filter.MedicationID = &m.ID
		}
		if historyStatus != "" {
			if !models.IsValidLogStatus(historyStatus) {
				return fmt.Errorf("unknown status: %s (use taken, skipped, or missed)", historyStatus)
			}
			status := models.LogStatus(historyStatus)
			filter.Status = &status
		}

		logs, err := repo.ListLogs(filter)
		if err != nil {
			return fmt.Errorf("failed to list history: %w", err)
		}
		if len(logs) == 0 {
			fmt.Println("No doses logged.")
			return nil
		}
		names, err := svc.Names()
		if err != nil {
			return err
		}

		days := adherence.Summarize(logs, names, time.Local)
		faint := color.New(color.Faint)
		for i := len(days) - 1; i >= 0; i-- {
			d := days[i]
			color.New(color.Bold).Printf("%s  %d/%d\n", d.Date.Format("Mon 2006-01-02"), d.Taken, d.Total)
			for _, ll := range d.Logs {
				fmt.Printf("  %s %s %s %s\n",
					shortID(ll.Log.ID),
					faint.Sprint(ll.Log.ScheduledAt.Local().Format("15:04")),
					padRight(truncate(ll.Name, 24), 24),
					statusLabel(ll.Log.Status))
			}
		}
		return nil
	},
}

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show streaks and adherence",
	Long: `Show the current and longest streak of days with a taken dose and
the adherence rate (taken / logged) over the window.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := svc.Adherence(streakWindow)
		if err != nil {
			return err
		}
		window := streakWindow
		if window <= 0 {
			window = doses.DefaultWindow
		}

		fmt.Printf("Current streak:  %s\n", color.GreenString("%d days", report.CurrentStreak))
		fmt.Printf("Longest streak:  %d days\n", report.LongestStreak)
		fmt.Printf("Adherence (%dd): %.0f%%\n", window, report.Overall*100)

		recent := report.Days
		if len(recent) > 7 {
			recent = recent[len(recent)-7:]
		}
		if len(recent) > 0 {
			fmt.Println()
			for _, d := range recent {
				fmt.Printf("  %s  %s %d/%d\n", d.Date.Format("Mon 01-02"), bar(d.Rate(), 10), d.Taken, d.Total)
			}
		}
		return nil
	},
}

var interactionsCmd = &cobra.Command{
	Use:     "interactions [drug...]",
	Aliases: []string{"ix"},
	Short:   "Check drug interactions",
	Long: `Check your active medications for known risky combinations, or
check a list of drug names before adding them.

EXAMPLES:

  medlog interactions                       # Current medications
  medlog interactions warfarin aspirin      # Ad-hoc check
  medlog interactions --with-mine ibuprofen # Ad-hoc drugs plus yours`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var meds []*models.Medication
		if len(args) == 0 || interactionsMe {
			active, err := repo.ListMedications(storage.MedicationFilter{})
			if err != nil {
				return err
			}
			meds = append(meds, active...)
		}
		cat := catalog()
		for _, name := range args {
			m := models.NewMedication(strings.TrimSpace(name), 1, "tablet")
			if d, ok := cat.Find(m.Name); ok {
				m.WithCategory(d.Category, d.FullPath)
			}
			meds = append(meds, m)
		}

		found := interaction.Check(meds)
		if len(found) == 0 {
			color.Green("✓ No known interactions")
			return nil
		}
		printInteractions(found)
		return nil
	},
}

func printInteractions(found []interaction.Interaction) {
	for _, in := range found {
		var sev string
		switch in.Severity {
		case interaction.SeverityHigh:
			sev = color.New(color.FgRed, color.Bold).Sprint("HIGH    ")
		case interaction.SeverityModerate:
			sev = color.YellowString("MODERATE")
		default:
			sev = color.New(color.Faint).Sprint("LOW     ")
		}
		fmt.Printf("⚠ %s %s + %s\n", sev, in.DrugA, in.DrugB)
		fmt.Printf("  %s\n", in.Description)
		fmt.Printf("  %s\n", color.New(color.Faint).Sprint(in.Advice))
	}
}

// printRefillWarnings lists low-stock medications, restricted to refs when given.
func printRefillWarnings(refs []string) error {
	warnings, err := svc.RefillWarnings()
	if err != nil {
		return err
	}
	for _, w := range warnings {
		if len(refs) > 0 && !matchesAny(w.Medication, refs) {
			continue
		}
		msg := fmt.Sprintf("⚠ %s is running low: %s left", w.Medication.Name, formatAmount(w.Stock))
		if w.DaysLeft >= 0 {
			msg += fmt.Sprintf(" (%d days)", w.DaysLeft)
		}
		color.Yellow("%s", msg)
	}
	return nil
}

func matchesAny(m *models.Medication, refs []string) bool {
	for _, r := range refs {
		if strings.EqualFold(m.Name, strings.TrimSpace(r)) || strings.HasPrefix(m.ID.String(), r) {
			return true
		}
	}
	return false
}

func statusLabel(s models.LogStatus) string {
	switch s {
	case models.StatusTaken:
		return color.GreenString("taken")
	case models.StatusSkipped:
		return color.YellowString("skipped")
	default:
		return color.RedString("%s", s)
	}
}

func bar(rate float64, width int) string {
	filled := int(rate*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	return color.GreenString("%s", strings.Repeat("█", filled)) + color.New(color.Faint).Sprint(strings.Repeat("░", width-filled))
}

func init() {
	takeCmd.Flags().IntVar(&takeSlot, "slot", 0, "only this reminder time, counting from 1")
	skipCmd.Flags().IntVar(&skipSlot, "slot", 0, "only this reminder time, counting from 1")
	missCmd.Flags().StringVar(&missAt, "at", "", "when the dose was due (YYYY-MM-DD HH:MM)")
	historyCmd.Flags().StringVarP(&historyMed, "med", "m", "", "only this medication")
	historyCmd.Flags().IntVarP(&historyDays, "days", "d", 7, "days to look back (0 for all)")
	historyCmd.Flags().StringVarP(&historyStatus, "status", "s", "", "only taken, skipped, or missed")
	streakCmd.Flags().IntVarP(&streakWindow, "window", "w", doses.DefaultWindow, "adherence window in days")
	interactionsCmd.Flags().BoolVar(&interactionsMe, "with-mine", false, "include your active medications with the named drugs")

	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(skipCmd)
	rootCmd.AddCommand(missCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(streakCmd)
	rootCmd.AddCommand(interactionsCmd)
}
