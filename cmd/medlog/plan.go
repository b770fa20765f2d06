// ABOUTME: CLI commands for sharing a medication plan as an anshin:v1: string.
// ABOUTME: Supports export, import (merge or replace), and inspect without importing.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/medlog/internal/doses"
	"github.com/harperreed/medlog/internal/planexport"
	"github.com/harperreed/medlog/internal/storage"
)

var (
	planOutput  string
	planReplace bool
	planYes     bool
)

var planCmd = &cobra.Command{
	Use:     "plan",
	Aliases: []string{"p"},
	Short:   "Share a medication plan",
	Long: `Share your medication plan as a compact string that other medlog or
anshin apps can import. The string starts with "anshin:v1:" and is short
enough for a QR code for typical plans.

Archived medications, logs, and the journal are never included.

COMMANDS:

  export    Print the plan string
  import    Add the medications from a plan string
  inspect   Show what a plan string contains without importing it`,
}

var planExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the plan string",
	Long: `Print your active medications as a plan string.

EXAMPLES:

  medlog plan export
  medlog plan export -o plan.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		meds, err := repo.ListMedications(storage.MedicationFilter{})
		if err != nil {
			return err
		}
		encoded, err := planexport.Encode(meds)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if planOutput != "" {
			if err := os.WriteFile(planOutput, []byte(encoded+"\n"), 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.Green("✓ Exported %d medication(s) to %s", len(meds), planOutput)
		} else {
			fmt.Println(encoded)
		}

		if !planexport.CanDisplayAsQR(encoded) {
			color.Yellow("⚠ Plan is %d bytes, too long for a QR code", planexport.EstimatedBytes(encoded))
		}
		return nil
	},
}

var planImportCmd = &cobra.Command{
	Use:   "import <plan|file|->",
	Short: "Import a plan string",
	Long: `Import medications from a plan string, a file holding one, or stdin.

By default the plan is merged: medications whose name matches one you
already take are skipped. With --replace every active medication is
deleted first.

EXAMPLES:

  medlog plan import "anshin:v1:H4sI..."
  medlog plan import plan.txt
  pbpaste | medlog plan import -
  medlog plan import plan.txt --replace --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		encoded, err := readPlanArg(args[0])
		if err != nil {
			return err
		}
		plan, ok := planexport.Decode(encoded)
		if !ok {
			return fmt.Errorf("not a valid plan string")
		}

		mode := planexport.ImportMerge
		if planReplace {
			mode = planexport.ImportReplace
			if !planYes {
				ok, err := confirm("Replace all active medications with this plan?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("Canceled.")
					return nil
				}
			}
		}

		result, err := svc.ImportPlan(plan, mode)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		printImportResult(result)
		return nil
	},
}

var planInspectCmd = &cobra.Command{
	Use:   "inspect <plan|file|->",
	Short: "Show a plan's contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		encoded, err := readPlanArg(args[0])
		if err != nil {
			return err
		}
		plan, ok := planexport.Decode(encoded)
		if !ok {
			return fmt.Errorf("not a valid plan string")
		}

		faint := color.New(color.Faint)
		fmt.Printf("%s v%d, %d medication(s), %d bytes\n", plan.App, plan.Version, len(plan.Meds), planexport.EstimatedBytes(encoded))
		for _, m := range plan.Medications() {
			fmt.Printf("  %s %s %s\n", padRight(truncate(m.Name, 24), 24), padRight(m.DoseLabel(), 12), faint.Sprint(describeSchedule(m)))
		}
		return nil
	},
}

// readPlanArg accepts a plan string, a path to a file holding one, or "-" for stdin.
func readPlanArg(arg string) (string, error) {
	if strings.HasPrefix(arg, planexport.Scheme) {
		return arg, nil
	}
	var data []byte
	var err error
	if arg == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(arg)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read plan: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func printImportResult(r *doses.ImportResult) {
	if r.Removed > 0 {
		color.Yellow("✗ Removed %d medication(s)", r.Removed)
	}
	color.Green("✓ Imported %d medication(s)", len(r.Added))
	for _, name := range r.Added {
		fmt.Printf("  + %s\n", name)
	}
	faint := color.New(color.Faint)
	for _, name := range r.Skipped {
		fmt.Println(faint.Sprintf("  = %s (already present)", name))
	}
}

func init() {
	planExportCmd.Flags().StringVarP(&planOutput, "output", "o", "", "output file (default: stdout)")
	planImportCmd.Flags().BoolVar(&planReplace, "replace", false, "delete active medications before importing")
	planImportCmd.Flags().BoolVarP(&planYes, "yes", "y", false, "skip confirmation prompt")

	planCmd.AddCommand(planExportCmd)
	planCmd.AddCommand(planImportCmd)
	planCmd.AddCommand(planInspectCmd)
	rootCmd.AddCommand(planCmd)
}
