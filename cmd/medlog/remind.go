// ABOUTME: CLI commands for reminders: list upcoming, run the daemon, resync routine times.
// ABOUTME: The daemon prints notifications and optionally serves Prometheus metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harperreed/medlog/internal/models"
	"github.com/harperreed/medlog/internal/reminder"
)

var (
	remindLimit       int
	remindFollowUps   bool
	remindMetricsAddr string
	remindOnce        bool
)

var remindCmd = &cobra.Command{
	Use:     "remind",
	Aliases: []string{"r"},
	Short:   "Manage reminders",
	Long: `Inspect and deliver medication reminders.

Reminders are stored as alarms: one main alarm per reminder time, an
optional early alarm some minutes before it, and follow-up alarms when a
dose has not been logged. Tune them with 'medlog config':

  reminders.early_minutes            minutes before the dose (0 = off)
  reminders.follow_up_enabled        nag when a dose is not logged
  reminders.follow_up_delay_minutes  minutes between follow-ups
  reminders.follow_up_max            follow-ups per dose
  travel.enabled / travel.home_timezone   keep home time while travelling

COMMANDS:

  next     List upcoming reminders
  run      Run the reminder daemon in the foreground
  resync   Recompute routine-based times and reschedule every alarm`,
}

var remindNextCmd = &cobra.Command{
	Use:   "next",
	Short: "List upcoming reminders",
	RunE: func(cmd *cobra.Command, args []string) error {
		up, err := svc.UpcomingReminders(remindLimit, remindFollowUps)
		if err != nil {
			return fmt.Errorf("failed to list reminders: %w", err)
		}
		if len(up) == 0 {
			fmt.Println("No reminders scheduled.")
			return nil
		}

		loc := cfg.Location()
		faint := color.New(color.Faint)
		for _, u := range up {
			kind := ""
			switch u.Alarm.Kind {
			case models.AlarmEarly:
				kind = faint.Sprintf(" (%d min early)", u.Alarm.EarlyMinutes)
			case models.AlarmFollowUp:
				kind = faint.Sprintf(" (follow-up %d/%d)", u.Alarm.FollowUpCount, u.Alarm.FollowUpMax)
			}
			fmt.Printf("%s %s %s%s\n",
				faint.Sprint(u.Alarm.TriggerAt.In(loc).Format("Mon 01-02 15:04")),
				padRight(truncate(u.Medication.Name, 24), 24),
				u.Medication.DoseLabel(),
				kind)
		}
		return nil
	},
}

var remindRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the reminder daemon",
	Long: `Run the reminder daemon in the foreground. Due reminders are printed
to the terminal and logged. Stop with Ctrl-C.

Medications without a pending reminder are rescheduled on start, so
reminders resume after a reboot. The check interval comes from
reminders.check_interval (default 30s).

EXAMPLES:

  medlog remind run
  medlog remind run --metrics-addr :9464    # Serve /metrics for Prometheus
  medlog remind run --once                  # Fire what is due and exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		notifier := reminder.MultiNotifier{
			reminder.NewTerminalNotifier(os.Stdout),
			reminder.NewLogNotifier(logger),
		}
		daemon := reminder.NewDaemon(repo, svc.Scheduler(), notifier, logger).
			WithInterval(cfg.CheckInterval()).
			WithRestorer(svc)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if remindOnce {
			if _, err := svc.RestoreReminders(); err != nil {
				return fmt.Errorf("failed to restore reminders: %w", err)
			}
			fired, err := daemon.Tick(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%d reminder(s) delivered\n", fired)
			return nil
		}

		// Handle shutdown signals
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		if remindMetricsAddr != "" {
			srv := &http.Server{
				Addr:              remindMetricsAddr,
				Handler:           metricsMux(daemon.Metrics()),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics server failed", zap.Error(err))
				}
			}()
			defer srv.Close()
			fmt.Printf("Serving metrics on %s/metrics\n", remindMetricsAddr)
		}

		if err := daemon.Start(ctx); err != nil {
			return err
		}
		color.Green("✓ Reminder daemon running (every %s). Press Ctrl-C to stop.", cfg.CheckInterval())

		<-ctx.Done()
		daemon.Stop()
		return nil
	},
}

var remindResyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Recompute reminder times and reschedule",
	Long: `Recompute reminder times for medications tied to a routine period
(after changing routine.* settings), then reschedule every alarm (after
changing reminder or travel settings).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		changed, err := svc.ResyncReminders(cfg.DailyRoutine())
		if err != nil {
			return fmt.Errorf("failed to resync reminders: %w", err)
		}
		for _, m := range changed {
			fmt.Printf("  %s %s now at %s\n", shortID(m.ID), m.Name, m.ReminderTimes[0])
		}

		total, err := svc.RescheduleAll()
		if err != nil {
			return fmt.Errorf("failed to reschedule: %w", err)
		}
		color.Green("✓ %d medication(s) retimed, %d alarm(s) scheduled", len(changed), total)
		return nil
	},
}

func metricsMux(m *reminder.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}

func init() {
	remindNextCmd.Flags().IntVarP(&remindLimit, "limit", "n", 10, "max number of reminders")
	remindNextCmd.Flags().BoolVar(&remindFollowUps, "follow-ups", false, "include pending follow-ups")
	remindRunCmd.Flags().StringVar(&remindMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	remindRunCmd.Flags().BoolVar(&remindOnce, "once", false, "deliver due reminders once and exit")

	remindCmd.AddCommand(remindNextCmd)
	remindCmd.AddCommand(remindRunCmd)
	remindCmd.AddCommand(remindResyncCmd)
	rootCmd.AddCommand(remindCmd)
}
