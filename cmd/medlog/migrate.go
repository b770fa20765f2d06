// ABOUTME: CLI command for moving medlog data to a new data directory.
// ABOUTME: Copies every record into a fresh database and can switch the config over.
package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/medlog/internal/config"
	"github.com/harperreed/medlog/internal/doses"
	"github.com/harperreed/medlog/internal/schedule"
	"github.com/harperreed/medlog/internal/storage"
)

var (
	migrateTo     string
	migrateDryRun bool
	migrateForce  bool
	migrateSwitch bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy data to a new data directory",
	Long: `Copy all medlog data into a new data directory.

Medications, dose history, diary entries, and vitals are copied into a
fresh medlog.db. Reminders are rescheduled in the new database.

IMPORTANT:

  - The target directory must be empty unless --force is given
  - The current database is left untouched
  - Run with --dry-run first to see what would be copied

USAGE:

  medlog migrate --to ~/Dropbox/medlog --dry-run   # Preview
  medlog migrate --to ~/Dropbox/medlog --switch    # Copy and use it from now on`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateTo == "" {
			return fmt.Errorf("--to is required")
		}
		target := config.ExpandPath(migrateTo)
		if filepath.Clean(target) == filepath.Clean(cfg.GetDataDir()) {
			return fmt.Errorf("target is the current data directory")
		}

		if migrateDryRun {
			color.Yellow("Dry run mode - no changes will be made")
			fmt.Println()
			data, err := repo.GetAllData()
			if err != nil {
				return err
			}
			fmt.Printf("Would copy to %s:\n", filepath.Join(target, "medlog.db"))
			printMigrateCounts(&storage.MigrateSummary{
				Medications:   len(data.Medications),
				Logs:          len(data.Logs),
				SymptomLogs:   len(data.SymptomLogs),
				HealthRecords: len(data.HealthRecords),
			})
			return nil
		}

		nonEmpty, err := storage.IsDirNonEmpty(target)
		if err != nil {
			return err
		}
		if nonEmpty && !migrateForce {
			return fmt.Errorf("target directory %s is not empty (use --force to copy anyway)", target)
		}

		dst, err := storage.Open(filepath.Join(target, "medlog.db"))
		if err != nil {
			return fmt.Errorf("failed to open target database: %w", err)
		}
		defer dst.Close()

		summary, err := storage.MigrateData(repo, dst)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		if _, err := doses.New(dst, schedule.New(cfg.ScheduleOptions()), logger).RescheduleAll(); err != nil {
			return fmt.Errorf("failed to schedule reminders: %w", err)
		}

		color.Green("✓ Copied to %s", dst.Path())
		printMigrateCounts(summary)

		if migrateSwitch {
			if err := config.Set("data_dir", target); err != nil {
				return fmt.Errorf("failed to update config: %w", err)
			}
			color.Green("✓ data_dir set to %s", target)
		}
		return nil
	},
}

func printMigrateCounts(s *storage.MigrateSummary) {
	fmt.Printf("  Medications:  %d\n", s.Medications)
	fmt.Printf("  Dose logs:    %d\n", s.Logs)
	fmt.Printf("  Diary:        %d\n", s.SymptomLogs)
	fmt.Printf("  Vitals:       %d\n", s.HealthRecords)
}

func init() {
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "target data directory")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "preview migration without making changes")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "copy into a non-empty directory")
	migrateCmd.Flags().BoolVar(&migrateSwitch, "switch", false, "point data_dir at the new directory afterwards")
	rootCmd.AddCommand(migrateCmd)
}
