// ABOUTME: CLI command for starting the MCP server.
// ABOUTME: Runs a stdio MCP server sharing the CLI's storage and schedule settings.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harperreed/medlog/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

MCP allows AI assistants like Claude to manage your medications and journal
through a standardized protocol. The server communicates via stdin/stdout.

CLAUDE DESKTOP CONFIGURATION:

  Add this to your Claude Desktop config (claude_desktop_config.json):

  {
    "mcpServers": {
      "medlog": {
        "command": "medlog",
        "args": ["mcp"]
      }
    }
  }

  On macOS, the config is at:
    ~/Library/Application Support/Claude/claude_desktop_config.json

AVAILABLE TOOLS:

  add_medication        Add a medication and report interactions
  list_medications      List medications (optionally archived)
  take_dose             Record today's dose as taken
  skip_dose             Record today's dose as skipped
  check_interactions    Check interactions among meds or drug names
  next_reminders        List upcoming reminders
  export_plan           Export active meds as an anshin:v1 string
  import_plan           Import an anshin:v1 plan (merge or replace)
  log_symptom           Add a symptom diary entry
  add_health_record     Record a vital sign
  list_health_records   List recent vital signs
  adherence             Streaks and adherence rate

AVAILABLE RESOURCES:

  medlog://today          Today's doses with status
  medlog://interactions   Interactions among active medications
  medlog://summary        Dashboard of progress, refills, and reminders`,
	RunE: func(cmd *cobra.Command, args []string) error {
		routine := cfg.DailyRoutine()
		server, err := mcp.NewServer(repo, mcp.Options{
			Scheduler: svc.Scheduler(),
			Routine:   &routine,
			Logger:    logger,
		})
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
