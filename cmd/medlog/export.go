// ABOUTME: CLI commands for exporting and importing medlog data.
// ABOUTME: Supports JSON, YAML, and Markdown export and JSON backup restore.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportSince  string
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export medlog data",
	Long: `Export medications, dose history, diary entries, and vitals.

FORMATS:

  json       Full JSON export (suitable for backup/restore)
  yaml       YAML export (human-readable)
  markdown   Markdown report (for sharing with your doctor)

OPTIONS:

  --output, -o   Write to file instead of stdout
  --since        Only include history since this date (markdown only, YYYY-MM-DD)

EXAMPLES:

  medlog export json                         # Export all data as JSON
  medlog export json -o backup.json          # Save to file
  medlog export yaml                         # Export as YAML
  medlog export markdown --since 2026-01-01  # Report for this year`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml", "markdown"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format := args[0]

		var data []byte
		var err error

		switch format {
		case "json":
			data, err = repo.ExportJSON()
		case "yaml":
			data, err = repo.ExportYAML()
		case "markdown", "md":
			var since *time.Time
			if exportSince != "" {
				t, err := parseDate(exportSince)
				if err != nil {
					return err
				}
				since = &t
			}
			md, err := repo.ExportMarkdown(since)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			data = []byte(md)
		default:
			return fmt.Errorf("unknown format: %s (use json, yaml, or markdown)", format)
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.Green("✓ Exported to %s", exportOutput)
		} else {
			fmt.Println(string(data))
		}

		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import medlog data from JSON",
	Long: `Import data from a JSON backup made with 'medlog export json'.

Reminders for the imported medications are scheduled afterwards.
Duplicate entries (same ID) will cause an error.

EXAMPLES:

  medlog import backup.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		if err := repo.ImportJSON(data); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		alarms, err := svc.RescheduleAll()
		if err != nil {
			return fmt.Errorf("failed to schedule reminders: %w", err)
		}

		color.Green("✓ Imported from %s", filename)
		fmt.Printf("  %d reminder(s) scheduled\n", alarms)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportSince, "since", "", "only include history since date (YYYY-MM-DD)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
