// ABOUTME: Root Cobra command for the medlog CLI.
// ABOUTME: Loads config and opens storage, the dose service, and the logger via PersistentPre/PostRunE.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harperreed/medlog/internal/charm"
	"github.com/harperreed/medlog/internal/config"
	"github.com/harperreed/medlog/internal/doses"
	"github.com/harperreed/medlog/internal/drugs"
	"github.com/harperreed/medlog/internal/schedule"
	"github.com/harperreed/medlog/internal/storage"
)

var (
	cfg         *config.Config
	repo        *storage.DB
	svc         *doses.Service
	logger      *zap.Logger
	charmClient *charm.Client
	verbose     bool
)

// noStorage names commands (or parents of commands) that never touch the database.
var noStorage = map[string]bool{
	"help":          true,
	"version":       true,
	"completion":    true,
	"config":        true,
	"install-skill": true,
	"drugs":         true,
	"inspect":       true,
	"link":          true,
	"unlink":        true,
	"repair":        true,
	"wipe":          true,
	"reset":         true,
}

var rootCmd = &cobra.Command{
	Use:   "medlog",
	Short: "Medication reminders, adherence, and health journal",
	Long: `Medlog is a CLI for keeping track of your medications.

WHAT IT DOES:

  Medications    dose, schedule, stock, and refill tracking
  Reminders      on-time, early, and follow-up alarms in a small daemon
  Adherence      today's checklist, history, streaks, adherence rate
  Interactions   rule-based warnings for risky combinations
  Journal        symptom diary and vital signs (BP, glucose, weight, ...)

QUICK START:

  $ medlog med add Aspirin --qty 100 --unit mg --time 08:00
  $ medlog med add Metformin --period afterDinner
  $ medlog today                        # Today's checklist
  $ medlog take aspirin                 # Log today's dose
  $ medlog streak                       # Streaks and adherence
  $ medlog remind run                   # Start the reminder daemon

SHARING A PLAN:

  $ medlog plan export                  # Print an anshin:v1: share string
  $ medlog plan import "anshin:v1:..."  # Merge a shared plan
  $ medlog sync push                    # Share via Charm Cloud
  $ medlog sync pull --replace          # Replace with the shared plan

MCP INTEGRATION:

  Run 'medlog mcp' to start the Model Context Protocol server for use with
  Claude Desktop or other MCP-compatible AI assistants. Add to your Claude
  config:

  {
    "mcpServers": {
      "medlog": { "command": "medlog", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  Data is stored in SQLite at ~/.local/share/medlog/medlog.db.
  Settings live in ~/.config/medlog/config.json (see 'medlog config').`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if !needsStorage(cmd) {
			return nil
		}

		// Commands run repeatedly in tests; never leak a previous handle.
		_ = closeStorage()

		repo, err = cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		svc = doses.New(repo, schedule.New(cfg.ScheduleOptions()), logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			_ = logger.Sync()
		}
		if charmClient != nil {
			if err := charmClient.Close(); err != nil {
				return err
			}
			charmClient = nil
		}
		return closeStorage()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")
}

func needsStorage(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if noStorage[c.Name()] {
			return false
		}
	}
	return true
}

func closeStorage() error {
	svc = nil
	if repo == nil {
		return nil
	}
	err := repo.Close()
	repo = nil
	return err
}

// newLogger returns a development logger when verbose, otherwise a
// production JSON logger that only reports warnings and errors.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return zcfg.Build()
}

func catalog() *drugs.Catalog {
	return drugs.Default()
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
	}
	for _, f := range formats {
		if t, err := time.ParseInLocation(f, s, time.Local); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", s)
	}
	return t, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func shortID(id fmt.Stringer) string {
	return color.New(color.Faint).Sprint(id.String()[:8])
}

// confirm asks a y/N question on stdin.
func confirm(prompt string) (bool, error) {
	fmt.Print(prompt + " [y/N] ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
