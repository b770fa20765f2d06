// ABOUTME: Reminder daemon that fires due alarms on a cron schedule.
// ABOUTME: Handles rescheduling, follow-ups, and follow-up suppression.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/harperreed/medlog/internal/models"
	"github.com/harperreed/medlog/internal/schedule"
	"github.com/harperreed/medlog/internal/storage"
)

// DefaultInterval is how often due alarms are checked.
const DefaultInterval = 30 * time.Second

// Restorer rebuilds alarms lost while the daemon was not running.
type Restorer interface {
	RestoreReminders() (int, error)
}

// Daemon polls storage for due alarms and delivers them.
type Daemon struct {
	repo     storage.Repository
	sched    *schedule.Scheduler
	notifier Notifier
	restorer Restorer
	metrics  *Metrics
	logger   *zap.Logger
	interval time.Duration

	mu      sync.RWMutex
	running bool
	cron    *cron.Cron
	tickMu  sync.Mutex
}

// NewDaemon creates a daemon. A nil logger disables logging.
func NewDaemon(repo storage.Repository, sched *schedule.Scheduler, notifier Notifier, logger *zap.Logger) *Daemon {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Daemon{
		repo:     repo,
		sched:    sched,
		notifier: notifier,
		metrics:  NewMetrics(),
		logger:   logger,
		interval: DefaultInterval,
	}
}

// WithInterval sets the check interval.
func (d *Daemon) WithInterval(interval time.Duration) *Daemon {
	if interval > 0 {
		d.interval = interval
	}
	return d
}

// WithRestorer sets what Start runs before the first check.
func (d *Daemon) WithRestorer(r Restorer) *Daemon {
	d.restorer = r
	return d
}

// Metrics returns the daemon's collectors.
func (d *Daemon) Metrics() *Metrics {
	return d.metrics
}

// Start restores missing alarms, runs one tick immediately, then ticks every
// interval until Stop or ctx ends.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return fmt.Errorf("reminder daemon already running")
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{d.logger.Sugar()}),
		cron.SkipIfStillRunning(cronLogger{d.logger.Sugar()}),
	))
	spec := fmt.Sprintf("@every %s", d.interval)
	if _, err := c.AddFunc(spec, func() { d.tickAndLog(ctx) }); err != nil {
		return fmt.Errorf("schedule reminder check: %w", err)
	}

	d.logger.Info("starting reminder daemon", zap.Duration("interval", d.interval))
	if d.restorer != nil {
		restored, err := d.restorer.RestoreReminders()
		if err != nil {
			return fmt.Errorf("restore reminders: %w", err)
		}
		if restored > 0 {
			d.logger.Info("restored reminders", zap.Int("alarms", restored))
		}
	}
	d.tickAndLog(ctx)
	c.Start()
	d.cron = c
	d.running = true

	go func() {
		<-ctx.Done()
		d.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running tick to finish.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	c := d.cron
	d.mu.Unlock()

	<-c.Stop().Done()
	d.logger.Info("reminder daemon stopped")
}

// IsRunning reports whether the schedule is active.
func (d *Daemon) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

func (d *Daemon) tickAndLog(ctx context.Context) {
	fired, err := d.Tick(ctx)
	if err != nil {
		d.logger.Error("reminder check failed", zap.Error(err))
		return
	}
	if fired > 0 {
		d.logger.Debug("reminders fired", zap.Int("count", fired))
	}
}

// Tick fires every alarm due at the scheduler's current time and returns
// how many notifications were delivered.
func (d *Daemon) Tick(ctx context.Context) (int, error) {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()
	d.metrics.ticks.Inc()

	now := d.sched.Now()
	due, err := d.repo.DueAlarms(now)
	if err != nil {
		return 0, fmt.Errorf("load due alarms: %w", err)
	}

	fired := 0
	for _, a := range due {
		if err := ctx.Err(); err != nil {
			return fired, err
		}
		ok, err := d.fire(ctx, a)
		if err != nil {
			d.logger.Error("fire alarm",
				zap.String("alarm_id", a.ID.String()),
				zap.String("kind", string(a.Kind)),
				zap.Error(err))
			continue
		}
		if ok {
			fired++
		}
	}

	if pending, err := d.repo.ListAlarms(nil); err == nil {
		d.metrics.pending.Set(float64(len(pending)))
	}
	return fired, nil
}

// fire handles one due alarm. It reports whether a notification was sent.
func (d *Daemon) fire(ctx context.Context, a *models.Alarm) (bool, error) {
	m, err := d.repo.GetMedication(a.MedicationID.String())
	if errors.Is(err, storage.ErrNotFound) {
		return false, d.repo.DeleteAlarmsForMedication(a.MedicationID)
	}
	if err != nil {
		return false, err
	}
	if m.IsArchived {
		return false, d.repo.DeleteAlarmsForMedication(m.ID)
	}

	if err := d.repo.DeleteAlarm(a.ID); err != nil {
		return false, err
	}

	switch a.Kind {
	case models.AlarmEarly:
		return true, d.notify(ctx, a, m)

	case models.AlarmFollowUp:
		suppressed, err := d.suppressed(a)
		if err != nil {
			return false, err
		}
		if suppressed {
			d.metrics.suppressed.Inc()
			d.logger.Debug("follow-up suppressed", zap.String("medication", m.Name), zap.Int("count", a.FollowUpCount))
			return false, nil
		}
		if err := d.notify(ctx, a, m); err != nil {
			return true, err
		}
		return true, d.save(d.sched.NextFollowUp(a))

	default:
		if err := d.notify(ctx, a, m); err != nil {
			return true, err
		}
		if m.IntervalHours <= 0 {
			for _, next := range d.sched.PlanSlot(m, a.Slot, nil) {
				if err := d.save(next); err != nil {
					return true, err
				}
			}
		}
		return true, d.save(d.sched.FirstFollowUp(a))
	}
}

func (d *Daemon) notify(ctx context.Context, a *models.Alarm, m *models.Medication) error {
	d.metrics.fired.WithLabelValues(string(a.Kind)).Inc()
	return d.notifier.Notify(ctx, NewNotification(a, m))
}

func (d *Daemon) save(a *models.Alarm) error {
	if a == nil {
		return nil
	}
	return d.repo.UpsertAlarm(a)
}

// suppressed checks for a taken or skipped log inside the follow-up window.
func (d *Daemon) suppressed(a *models.Alarm) (bool, error) {
	from, to := schedule.SuppressionWindow(a)
	logs, err := d.repo.ListLogs(storage.LogFilter{
		MedicationID: &a.MedicationID,
		From:         from,
		To:           to.Add(time.Millisecond),
	})
	if err != nil {
		return false, err
	}
	return schedule.Suppressed(a, logs), nil
}

// cronLogger adapts zap to cron's logger interface.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
