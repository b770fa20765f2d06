// ABOUTME: CLI commands for managing medications.
// ABOUTME: Supports add, list, show, edit, archive, unarchive, delete, and stock subcommands.
package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/medlog/internal/doses"
	"github.com/harperreed/medlog/internal/models"
	"github.com/harperreed/medlog/internal/schedule"
	"github.com/harperreed/medlog/internal/storage"
)

var (
	medQty           float64
	medUnit          string
	medForm          string
	medPeriod        string
	medTimes         []string
	medFreq          string
	medEvery         int
	medDays          []int
	medEveryHours    int
	medStock         float64
	medRefillAt      float64
	medRefillDays    int
	medMaxDaily      float64
	medPRN           bool
	medPriority      bool
	medNotes         string
	medStart         string
	medEnd           string
	medListAll       bool
	medListArchived  bool
	medDeleteConfirm bool
	medStockAdd      bool
)

var medCmd = &cobra.Command{
	Use:     "med",
	Aliases: []string{"m", "meds"},
	Short:   "Manage medications",
	Long: `Add and maintain the medications medlog reminds you about.

Medications can be referred to by ID prefix or by name (case-insensitive).

SCHEDULES:

  daily           every day at each --time (default)
  interval        every N days (--freq interval --every 2)
  specific_days   on ISO weekdays, 1=Mon..7=Sun (--freq specific_days --days 1,3,5)
  every N hours   counted from the last dose taken (--every-hours 8)
  as needed       no reminders (--prn)

PERIODS:

  Instead of a fixed --time you can pick a period relative to your daily
  routine (see 'medlog config'): morning, beforeBreakfast, afterBreakfast,
  beforeLunch, afterLunch, afternoon, beforeDinner, afterDinner, evening,
  bedtime. 'medlog remind resync' recomputes them after routine changes.

COMMANDS:

  add        Add a medication
  list       List medications
  show       Show a medication with its pending reminders
  edit       Change a medication
  archive    Stop a medication without deleting its history
  unarchive  Restore an archived medication
  delete     Delete a medication and its history
  stock      Set or add to the stock count`,
}

var medAddCmd = &cobra.Command{
	Use:     "add <name>",
	Aliases: []string{"a"},
	Short:   "Add a medication",
	Long: `Add a medication and schedule its reminders.

Names found in the drug catalog get their category filled in, which lets
the interaction checker recognise them. Any interactions with your current
medications are shown after adding.

EXAMPLES:

  medlog med add Aspirin --qty 100 --unit mg --time 08:00
  medlog med add Metformin --qty 500 --unit mg --time 08:00 --time 20:00
  medlog med add "Vitamin D" --period afterBreakfast --freq specific_days --days 1,4
  medlog med add Ibuprofen --prn --stock 20 --refill-at 5 --max-daily 6
  medlog med add Amoxicillin --every-hours 8 --end 2026-03-10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		draft := doses.Draft{
			Name:          args[0],
			Quantity:      medQty,
			Unit:          medUnit,
			Form:          medForm,
			Period:        medPeriod,
			Times:         medTimes,
			Frequency:     medFreq,
			IntervalDays:  medEvery,
			Days:          medDays,
			IntervalHours: medEveryHours,
			PRN:           medPRN,
			HighPriority:  medPriority,
			Notes:         medNotes,
			Start:         medStart,
			End:           medEnd,
		}
		if cmd.Flags().Changed("stock") {
			draft.Stock = &medStock
		}
		if cmd.Flags().Changed("refill-at") {
			draft.RefillAt = &medRefillAt
		}
		if cmd.Flags().Changed("max-daily") {
			draft.MaxDaily = &medMaxDaily
		}

		m, err := draft.Build(cfg.DailyRoutine(), catalog())
		if err != nil {
			return err
		}
		m.RefillReminderDays = medRefillDays

		if err := svc.AddMedication(m); err != nil {
			return fmt.Errorf("failed to add medication: %w", err)
		}

		color.Green("✓ Added %s", m.Name)
		fmt.Printf("  %s %s  %s\n", shortID(m.ID), m.DoseLabel(), describeSchedule(m))
		if m.IsCustomDrug {
			fmt.Println(color.New(color.Faint).Sprint("  Not in the drug catalog; interaction checks use the name only."))
		}

		found, err := svc.InteractionsWith(m)
		if err != nil {
			return err
		}
		if len(found) > 0 {
			fmt.Println()
			printInteractions(found)
		}
		return nil
	},
}

var medListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List medications",
	Long: `List medications.

OUTPUT FORMAT:

  Each line shows: ID  NAME  DOSE  SCHEDULE  (STOCK)

  The ID is an 8-character prefix you can use with other commands.

EXAMPLES:

  medlog med list              # Active medications
  medlog med list --all        # Active and archived
  medlog med list --archived   # Archived only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		meds, err := repo.ListMedications(storage.MedicationFilter{
			IncludeArchived: medListAll,
			ArchivedOnly:    medListArchived,
		})
		if err != nil {
			return fmt.Errorf("failed to list medications: %w", err)
		}

		if len(meds) == 0 {
			fmt.Println("No medications found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, m := range meds {
			name := padRight(truncate(m.Name, 24), 24)
			if m.IsHighPriority {
				name = color.RedString("%s", name)
			}
			extra := ""
			if m.Stock != nil {
				extra = faint.Sprintf(" (stock %s)", formatAmount(*m.Stock))
			}
			if m.IsArchived {
				extra += faint.Sprint(" [archived]")
			}
			fmt.Printf("%s %s %s %s%s\n",
				shortID(m.ID),
				name,
				padRight(m.DoseLabel(), 12),
				describeSchedule(m),
				extra)
		}
		return nil
	},
}

var medShowCmd = &cobra.Command{
	Use:   "show <medication>",
	Short: "Show medication details",
	Long: `Show every field of a medication plus its pending reminders.

Example:
  medlog med show aspirin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := svc.FindMedication(args[0])
		if err != nil {
			return fmt.Errorf("medication not found: %s", args[0])
		}

		faint := color.New(color.Faint)
		color.New(color.Bold).Println(m.Name)
		fmt.Printf("  ID:        %s\n", m.ID)
		fmt.Printf("  Dose:      %s (%s)\n", m.DoseLabel(), m.Form)
		fmt.Printf("  Schedule:  %s\n", describeSchedule(m))
		if m.TimePeriod != models.PeriodExact {
			fmt.Printf("  Period:    %s\n", m.TimePeriod)
		}
		if m.Category != "" {
			fmt.Printf("  Category:  %s\n", m.Category)
			fmt.Printf("  Path:      %s\n", faint.Sprint(m.FullPath))
		}
		fmt.Printf("  Start:     %s\n", m.StartDate.Format("2006-01-02"))
		if m.EndDate != nil {
			fmt.Printf("  End:       %s\n", m.EndDate.Format("2006-01-02"))
		}
		if m.Stock != nil {
			line := formatAmount(*m.Stock)
			if days := doses.DaysOfSupply(m); days >= 0 {
				line += fmt.Sprintf(" (%d days left)", days)
			}
			if m.RefillThreshold != nil {
				line += faint.Sprintf(" refill at %s", formatAmount(*m.RefillThreshold))
			}
			fmt.Printf("  Stock:     %s\n", line)
		}
		if label := m.MaxDailyLabel(); label != "" {
			fmt.Printf("  Max daily: %s\n", strings.TrimPrefix(label, "max "))
		}
		if m.IsHighPriority {
			fmt.Printf("  Priority:  %s\n", color.RedString("high"))
		}
		if m.IsArchived {
			fmt.Printf("  Status:    %s\n", color.YellowString("archived"))
		}
		if m.Notes != "" {
			fmt.Printf("  Notes:     %s\n", m.Notes)
		}

		alarms, err := repo.ListAlarms(&m.ID)
		if err != nil {
			return err
		}
		if len(alarms) > 0 {
			fmt.Println()
			fmt.Println("Pending reminders:")
			for _, a := range alarms {
				fmt.Printf("  %s  %s\n", a.TriggerAt.In(cfg.Location()).Format("Mon 2006-01-02 15:04"), faint.Sprint(a.Kind))
			}
		}
		return nil
	},
}

var medEditCmd = &cobra.Command{
	Use:   "edit <medication>",
	Short: "Change a medication",
	Long: `Change a medication. Only the flags you pass are updated.
Reminders are rescheduled afterwards.

EXAMPLES:

  medlog med edit aspirin --time 09:00
  medlog med edit metformin --qty 850 --notes "with food"
  medlog med edit vitamin --period bedtime
  medlog med edit ibuprofen --priority`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := svc.FindMedication(args[0])
		if err != nil {
			return fmt.Errorf("medication not found: %s", args[0])
		}
		if err := applyEdits(cmd, m, cfg.DailyRoutine()); err != nil {
			return err
		}
		if err := svc.UpdateMedication(m); err != nil {
			return fmt.Errorf("failed to update medication: %w", err)
		}

		color.Green("✓ Updated %s", m.Name)
		fmt.Printf("  %s %s  %s\n", shortID(m.ID), m.DoseLabel(), describeSchedule(m))
		return nil
	},
}

// applyEdits copies every changed flag onto m.
func applyEdits(cmd *cobra.Command, m *models.Medication, routine schedule.Routine) error {
	flags := cmd.Flags()
	if flags.Changed("qty") {
		if medQty <= 0 {
			return fmt.Errorf("dose quantity must be positive")
		}
		m.DoseQuantity = medQty
		m.Dose = medQty
	}
	if flags.Changed("unit") {
		m.DoseUnit = medUnit
	}
	if flags.Changed("form") {
		m.Form = medForm
	}
	if flags.Changed("period") {
		if !models.IsValidTimePeriod(medPeriod) {
			return fmt.Errorf("unknown period: %s", medPeriod)
		}
		m.TimePeriod = models.TimePeriod(medPeriod)
		if t := schedule.ReminderTimeFor(m.TimePeriod, routine); t != "" && !flags.Changed("time") {
			m.ReminderTimes = []string{t}
		}
	}
	if flags.Changed("time") {
		for _, t := range medTimes {
			if _, _, err := models.ParseClock(t); err != nil {
				return err
			}
		}
		m.ReminderTimes = append([]string(nil), medTimes...)
		if !flags.Changed("period") {
			m.TimePeriod = models.PeriodExact
		}
	}
	if flags.Changed("every-hours") {
		m.IntervalHours = medEveryHours
	}
	if flags.Changed("prn") {
		m.IsPRN = medPRN
	}
	if flags.Changed("priority") {
		m.IsHighPriority = medPriority
	}
	if flags.Changed("notes") {
		m.Notes = medNotes
	}
	if flags.Changed("refill-at") {
		v := medRefillAt
		m.RefillThreshold = &v
	}
	if flags.Changed("refill-days") {
		m.RefillReminderDays = medRefillDays
	}
	if flags.Changed("max-daily") {
		switch {
		case medMaxDaily < 0:
			return fmt.Errorf("max daily dose must not be negative")
		case medMaxDaily == 0:
			m.MaxDailyDose = nil
		default:
			v := medMaxDaily
			m.MaxDailyDose = &v
		}
	}
	if flags.Changed("end") {
		if medEnd == "" {
			m.EndDate = nil
		} else {
			end, err := parseDate(medEnd)
			if err != nil {
				return err
			}
			if end.Before(m.StartDate) {
				return fmt.Errorf("end date is before start date")
			}
			m.EndDate = &end
		}
	}
	return nil
}

var medArchiveCmd = &cobra.Command{
	Use:   "archive <medication>",
	Short: "Archive a medication",
	Long: `Archive a medication you no longer take. Its history is kept,
its reminders are cancelled, and it is left out of interaction checks
and plan exports.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setArchived(args[0], true)
	},
}

var medUnarchiveCmd = &cobra.Command{
	Use:   "unarchive <medication>",
	Short: "Restore an archived medication",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setArchived(args[0], false)
	},
}

func setArchived(ref string, archived bool) error {
	found, err := svc.FindMedication(ref)
	if err != nil {
		return fmt.Errorf("medication not found: %s", ref)
	}
	m, err := svc.SetArchived(found.ID.String(), archived)
	if err != nil {
		return fmt.Errorf("failed to update medication: %w", err)
	}
	if archived {
		color.Yellow("✓ Archived %s", m.Name)
	} else {
		color.Green("✓ Restored %s", m.Name)
	}
	return nil
}

var medDeleteCmd = &cobra.Command{
	Use:     "delete <medication>",
	Aliases: []string{"del", "rm"},
	Short:   "Delete a medication",
	Long: `Delete a medication together with its dose history and reminders.

CAUTION:

  This permanently deletes the medication. There is no undo.
  Use 'medlog med archive' to stop a medication but keep its history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := svc.FindMedication(args[0])
		if err != nil {
			return fmt.Errorf("medication not found: %s", args[0])
		}

		if !medDeleteConfirm {
			ok, err := confirm(fmt.Sprintf("Delete %s and its history?", m.Name))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Canceled.")
				return nil
			}
		}

		if err := repo.DeleteMedication(m.ID.String()); err != nil {
			return fmt.Errorf("failed to delete medication: %w", err)
		}

		color.Yellow("✗ Deleted %s", m.Name)
		fmt.Printf("  %s %s\n", shortID(m.ID), m.DoseLabel())
		return nil
	},
}

var medStockCmd = &cobra.Command{
	Use:   "stock <medication> <amount|none>",
	Short: "Set the stock count",
	Long: `Set how many units of a medication you have left. Taking a dose
subtracts the dose quantity. Use 'none' to stop tracking stock.

EXAMPLES:

  medlog med stock aspirin 60
  medlog med stock aspirin 30 --add      # Picked up a refill
  medlog med stock aspirin none`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := svc.FindMedication(args[0])
		if err != nil {
			return fmt.Errorf("medication not found: %s", args[0])
		}

		if strings.EqualFold(args[1], "none") {
			if err := repo.UpdateStock(m.ID, nil); err != nil {
				return fmt.Errorf("failed to update stock: %w", err)
			}
			color.Green("✓ Stopped tracking stock for %s", m.Name)
			return nil
		}

		amount, err := strconv.ParseFloat(args[1], 64)
		if err != nil || amount < 0 {
			return fmt.Errorf("invalid amount: %s", args[1])
		}
		if medStockAdd && m.Stock != nil {
			amount += *m.Stock
		}
		if err := repo.UpdateStock(m.ID, &amount); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}

		color.Green("✓ %s stock is now %s", m.Name, formatAmount(amount))
		m.Stock = &amount
		if days := doses.DaysOfSupply(m); days >= 0 {
			fmt.Printf("  %d days of supply\n", days)
		}
		return nil
	},
}

// describeSchedule summarises when a medication is taken.
func describeSchedule(m *models.Medication) string {
	if m.IsPRN {
		return "as needed"
	}
	if m.IntervalHours > 0 {
		return fmt.Sprintf("every %dh", m.IntervalHours)
	}
	times := strings.Join(m.ReminderTimes, ", ")
	switch m.FrequencyType {
	case models.FrequencyInterval:
		return fmt.Sprintf("%s every %d days", times, m.FrequencyInterval)
	case models.FrequencySpecificDays:
		days := make([]string, len(m.FrequencyDays))
		for i, d := range m.FrequencyDays {
			days[i] = time.Weekday(d % 7).String()[:3]
		}
		return fmt.Sprintf("%s on %s", times, strings.Join(days, " "))
	}
	return times + " daily"
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func init() {
	for _, c := range []*cobra.Command{medAddCmd, medEditCmd} {
		c.Flags().Float64Var(&medQty, "qty", 0, "amount per dose (default 1)")
		c.Flags().StringVar(&medUnit, "unit", "", "dose unit: tablet, mg, ml, ... (default tablet)")
		c.Flags().StringVar(&medForm, "form", "", "form: tablet, capsule, liquid, ...")
		c.Flags().StringVar(&medPeriod, "period", "", "routine period such as afterBreakfast or bedtime")
		c.Flags().StringSliceVar(&medTimes, "time", nil, "reminder time HH:MM (repeatable)")
		c.Flags().IntVar(&medEveryHours, "every-hours", 0, "hours between doses, from the last dose taken")
		c.Flags().Float64Var(&medRefillAt, "refill-at", 0, "warn when stock drops to this amount")
		c.Flags().IntVar(&medRefillDays, "refill-days", 0, "warn when this many days of supply remain")
		c.Flags().Float64Var(&medMaxDaily, "max-daily", 0, "most units to take in a day, for as-needed medications")
		c.Flags().BoolVar(&medPRN, "prn", false, "take only as needed (no reminders)")
		c.Flags().BoolVar(&medPriority, "priority", false, "mark as high priority")
		c.Flags().StringVar(&medNotes, "notes", "", "notes")
		c.Flags().StringVar(&medEnd, "end", "", "last day (YYYY-MM-DD)")
	}
	medAddCmd.Flags().StringVar(&medFreq, "freq", "", "daily, interval, or specific_days (default daily)")
	medAddCmd.Flags().IntVar(&medEvery, "every", 0, "days between doses for --freq interval")
	medAddCmd.Flags().IntSliceVar(&medDays, "days", nil, "ISO weekdays for --freq specific_days (1=Mon)")
	medAddCmd.Flags().Float64Var(&medStock, "stock", 0, "current stock, enables refill tracking")
	medAddCmd.Flags().StringVar(&medStart, "start", "", "first day (YYYY-MM-DD, default today)")

	medListCmd.Flags().BoolVarP(&medListAll, "all", "a", false, "include archived medications")
	medListCmd.Flags().BoolVar(&medListArchived, "archived", false, "only archived medications")
	medDeleteCmd.Flags().BoolVarP(&medDeleteConfirm, "yes", "y", false, "skip confirmation prompt")
	medStockCmd.Flags().BoolVar(&medStockAdd, "add", false, "add to the current stock instead of replacing it")

	medCmd.AddCommand(medAddCmd)
	medCmd.AddCommand(medListCmd)
	medCmd.AddCommand(medShowCmd)
	medCmd.AddCommand(medEditCmd)
	medCmd.AddCommand(medArchiveCmd)
	medCmd.AddCommand(medUnarchiveCmd)
	medCmd.AddCommand(medDeleteCmd)
	medCmd.AddCommand(medStockCmd)
	rootCmd.AddCommand(medCmd)
}
