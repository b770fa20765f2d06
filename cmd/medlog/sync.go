// ABOUTME: CLI commands for sharing the medication plan through Charm Cloud.
// ABOUTME: Supports link, unlink, status, push, pull, clear, repair, reset, and wipe.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/charmbracelet/charm/kv"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/medlog/internal/charm"
	"github.com/harperreed/medlog/internal/planexport"
	"github.com/harperreed/medlog/internal/storage"
)

var (
	syncReplace bool
	syncYes     bool
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Aliases: []string{"s"},
	Short:   "Share your plan across devices",
	Long: `Share your medication plan across devices using Charm Cloud.

The plan (the same anshin:v1: string as 'medlog plan export') is stored in
an E2E encrypted Charm KV database, keyed with your SSH key. Dose history,
the diary, and vitals stay on this device.

GETTING STARTED:

  1. Link your device (creates/uses SSH key automatically):
     medlog sync link

  2. Push your plan from the device where you keep it:
     medlog sync push

  3. On other devices, link with the same Charm account and pull:
     medlog sync pull

COMMANDS:

  link        Link this device to your Charm account
  unlink      Disconnect this device from Charm
  status      Show account info and the shared plan
  push        Share this device's active medications
  pull        Import the shared plan (merge, or --replace)
  clear       Remove the shared plan
  repair      Repair the local Charm database
  reset       Reset local Charm data and restore from cloud (destructive)
  wipe        Delete cloud and local Charm data (destructive)`,
}

func openCharm() (*charm.Client, error) {
	if charmClient != nil {
		return charmClient, nil
	}
	c, err := charm.InitClient()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize charm client: %w", err)
	}
	charmClient = c
	return c, nil
}

var syncLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link this device to Charm",
	Long: `Link this device to your Charm account.

If you don't have a Charm account, one will be created using your SSH key.
If you already have an account, you'll be prompted to link via charm.sh.

Example:
  medlog sync link`,
	RunE: func(cmd *cobra.Command, args []string) error {
		charmCmd := exec.Command("charm", "link")
		charmCmd.Stdin = os.Stdin
		charmCmd.Stdout = os.Stdout
		charmCmd.Stderr = os.Stderr

		if err := charmCmd.Run(); err != nil {
			return fmt.Errorf("failed to link: %w\n\nMake sure 'charm' CLI is installed: go install github.com/charmbracelet/charm@latest", err)
		}

		color.Green("\n✓ Device linked to Charm")

		c, err := openCharm()
		if err != nil {
			color.Yellow("⚠ Initial sync failed: %v", err)
			return nil
		}
		if err := c.Sync(); err != nil {
			color.Yellow("⚠ Initial sync failed: %v", err)
		} else {
			color.Green("✓ Initial sync complete")
		}
		return nil
	},
}

var syncUnlinkCmd = &cobra.Command{
	Use:   "unlink",
	Short: "Disconnect from Charm",
	Long: `Disconnect this device from Charm.

This does not delete your local medlog data.
You can link again later with 'medlog sync link'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		charmCmd := exec.Command("charm", "unlink")
		charmCmd.Stdin = os.Stdin
		charmCmd.Stdout = os.Stdout
		charmCmd.Stderr = os.Stderr

		if err := charmCmd.Run(); err != nil {
			return fmt.Errorf("failed to unlink: %w", err)
		}

		color.Green("✓ Device unlinked from Charm")
		fmt.Println("Your local medlog data is preserved.")
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	Long: `Show current sync status including:
- Charm account info
- The shared plan and when it was pushed
- Local medication count`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCharm()
		if err != nil {
			color.Yellow("Charm client not initialized")
			fmt.Println("\nRun 'medlog sync link' to connect to Charm.")
			return nil
		}

		id, err := c.ID()
		if err != nil {
			color.Yellow("Not linked to Charm")
			fmt.Println("\nRun 'medlog sync link' to connect to Charm.")
			return nil
		}

		fmt.Println("Charm ID:", id)
		fmt.Println("Server: charm.2389.dev")
		if c.IsReadOnly() {
			color.Yellow("⚠ Read-only: another medlog process holds the database")
		}
		fmt.Println()

		meds, err := repo.ListMedications(storage.MedicationFilter{})
		if err != nil {
			return err
		}

		color.Green("✓ Connected to Charm")
		fmt.Printf("  Local medications: %d\n", len(meds))

		info, err := c.PlanInfo()
		switch {
		case errors.Is(err, charm.ErrNoPlan):
			fmt.Println("  Shared plan: none (run 'medlog sync push')")
		case err != nil:
			return err
		default:
			fmt.Printf("  Shared plan: %d medication(s) from %s, %s\n",
				info.Count, info.Device, info.PushedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Share this device's plan",
	Long: `Store this device's active medications as the shared plan,
replacing whatever plan was pushed before.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCharm()
		if err != nil {
			return err
		}
		meds, err := repo.ListMedications(storage.MedicationFilter{})
		if err != nil {
			return err
		}

		info, err := c.PushPlan(meds, time.Now())
		if err != nil {
			if errors.Is(err, charm.ErrReadOnly) {
				return fmt.Errorf("%w\n\nStop the other medlog process and try again", err)
			}
			return err
		}

		color.Green("✓ Pushed %d medication(s)", info.Count)
		if !planexport.CanDisplayAsQR(info.Encoded) {
			color.Yellow("⚠ Plan is %d bytes, too long for a QR code", planexport.EstimatedBytes(info.Encoded))
		}
		return nil
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Import the shared plan",
	Long: `Import the shared plan. Medications you already take (same name) are
skipped unless --replace is given, which deletes every active medication
first.

EXAMPLES:

  medlog sync pull
  medlog sync pull --replace --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCharm()
		if err != nil {
			return err
		}
		plan, info, err := c.PullPlan()
		if err != nil {
			if errors.Is(err, charm.ErrNoPlan) {
				return fmt.Errorf("%w; run 'medlog sync push' on the device that has your plan", err)
			}
			return err
		}
		fmt.Printf("Plan from %s, pushed %s\n", info.Device, info.PushedAt.Local().Format("2006-01-02 15:04"))

		mode := planexport.ImportMerge
		if syncReplace {
			mode = planexport.ImportReplace
			if !syncYes {
				ok, err := confirm("Replace all active medications with the shared plan?")
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

var syncClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the shared plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCharm()
		if err != nil {
			return err
		}
		if err := c.ClearPlan(); err != nil {
			return err
		}
		color.Yellow("✗ Shared plan removed")
		return nil
	},
}

var syncWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete all cloud and local Charm data",
	Long: `Delete all cloud backups and local Charm data for medlog.

This is a DESTRUCTIVE operation for the shared plan. Your local medlog
database (medications, history, journal) is not touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("This will PERMANENTLY DELETE the shared plan from the cloud and this device.")
		fmt.Print("Type 'wipe' to confirm: ")
		var answer string
		_, _ = fmt.Scanln(&answer)
		if answer != "wipe" {
			fmt.Println("Canceled.")
			return nil
		}

		result, err := kv.Wipe(charm.DBName)
		if err != nil {
			return fmt.Errorf("wipe failed: %w", err)
		}

		color.Green("✓ Data wiped successfully")
		fmt.Printf("  Cloud backups deleted: %d\n", result.CloudBackupsDeleted)
		fmt.Printf("  Local files deleted: %d\n", result.LocalFilesDeleted)
		return nil
	},
}

var syncRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair the local Charm database",
	Long: `Repair database corruption by checkpointing WAL, removing SHM files, checking integrity, and vacuuming.

Use this when you encounter database lock errors or corruption.
Run with --force to attempt recovery even if integrity checks fail.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		fmt.Println("Repairing medlog Charm database...")
		result, err := kv.Repair(charm.DBName, force)

		if result != nil {
			if result.WalCheckpointed {
				color.Green("  ✓ WAL checkpointed")
			}
			if result.ShmRemoved {
				color.Green("  ✓ SHM file removed")
			}
			if result.IntegrityOK {
				color.Green("  ✓ Integrity check passed")
			} else {
				color.Red("  ✗ Integrity check failed")
			}
			if result.Vacuumed {
				color.Green("  ✓ Database vacuumed")
			}
		}

		if err != nil {
			if !force {
				color.Yellow("\nRun with --force to attempt recovery.")
			}
			return fmt.Errorf("repair failed: %w", err)
		}

		color.Green("\n✓ Repair complete")
		return nil
	},
}

var syncResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset local Charm data and restore from cloud",
	Long: `Delete the local copy of the shared plan and restore it from Charm Cloud.

Use this to fix sync conflicts or reset a device to the cloud state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !syncYes {
			ok, err := confirm("Delete local Charm data and restore from cloud?")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Canceled.")
				return nil
			}
		}

		if err := kv.Reset(charm.DBName); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}

		color.Green("✓ Local data reset and restored from cloud")
		return nil
	},
}

func init() {
	syncPullCmd.Flags().BoolVar(&syncReplace, "replace", false, "delete active medications before importing")
	for _, c := range []*cobra.Command{syncPullCmd, syncResetCmd} {
		c.Flags().BoolVarP(&syncYes, "yes", "y", false, "skip confirmation prompt")
	}
	syncRepairCmd.Flags().Bool("force", false, "Attempt recovery even if integrity checks fail")

	syncCmd.AddCommand(syncLinkCmd)
	syncCmd.AddCommand(syncUnlinkCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncClearCmd)
	syncCmd.AddCommand(syncRepairCmd)
	syncCmd.AddCommand(syncResetCmd)
	syncCmd.AddCommand(syncWipeCmd)
	rootCmd.AddCommand(syncCmd)
}
