// ABOUTME: CLI commands for viewing and changing medlog settings.
// ABOUTME: Settings are stored as JSON under the XDG config directory via viper.
package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/medlog/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and change settings",
	Long: `View and change medlog settings.

Settings are read from ~/.config/medlog/config.json. Any setting can be
overridden with an environment variable: MEDLOG_ plus the key upper-cased
with dots replaced by underscores, e.g. MEDLOG_REMINDERS_EARLY_MINUTES=10.

KEYS:

  data_dir                           where medlog.db lives
  routine.wake|breakfast|lunch|dinner|bed   your day, as HH:MM
  travel.enabled                     keep reminders on home time
  travel.home_timezone               e.g. Asia/Shanghai
  reminders.early_minutes            early reminder lead time (0 = off)
  reminders.follow_up_enabled        nag when a dose is not logged
  reminders.follow_up_delay_minutes  minutes between follow-ups
  reminders.follow_up_max            follow-ups per dose
  reminders.check_interval           daemon tick, e.g. 30s

After changing routine, reminder, or travel settings run
'medlog remind resync'.

EXAMPLES:

  medlog config show
  medlog config set routine.breakfast 07:30
  medlog config set reminders.early_minutes 10
  medlog config set travel.home_timezone Europe/Berlin`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		fmt.Println()

		faint := color.New(color.Faint)
		fmt.Printf("Data directory: %s\n", cfg.GetDataDir())
		fmt.Printf("Reminder zone:  %s\n", cfg.Location())
		fmt.Printf("Check interval: %s\n", cfg.CheckInterval())
		fmt.Println(faint.Sprintf("Config file:    %s", config.GetConfigPath()))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return config.Keys(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.Set(key, value); err != nil {
			return err
		}
		color.Green("✓ %s = %s", key, value)
		if strings.HasPrefix(key, "routine.") || strings.HasPrefix(key, "reminders.") || strings.HasPrefix(key, "travel.") {
			fmt.Println(color.New(color.Faint).Sprint("  Run 'medlog remind resync' to apply it to scheduled reminders."))
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(config.GetConfigPath())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}
