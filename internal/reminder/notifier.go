// ABOUTME: Notification content and delivery backends for fired reminders.
// ABOUTME: Ships a colored terminal notifier and a structured zap notifier.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/harperreed/medlog/internal/models"
)

// Notification is what the user sees when an alarm fires.
type Notification struct {
	Kind       models.AlarmKind
	Medication *models.Medication
	Alarm      *models.Alarm
	Title      string
	Body       string
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NewNotification builds the title and body for a fired alarm.
func NewNotification(a *models.Alarm, m *models.Medication) Notification {
	n := Notification{Kind: a.Kind, Medication: m, Alarm: a}
	dose := m.DoseLabel()
	switch a.Kind {
	case models.AlarmEarly:
		n.Title = fmt.Sprintf("%s in %d minutes", m.Name, a.EarlyMinutes)
		n.Body = fmt.Sprintf("Get ready to take %s of %s at %s.", dose, m.Name, a.ScheduledAt.Format("15:04"))
	case models.AlarmFollowUp:
		n.Title = fmt.Sprintf("Did you take %s?", m.Name)
		n.Body = fmt.Sprintf("%s of %s was due at %s and has not been logged (reminder %d).",
			dose, m.Name, a.ScheduledAt.Format("15:04"), a.FollowUpCount)
	default:
		n.Title = fmt.Sprintf("Time to take %s", m.Name)
		n.Body = fmt.Sprintf("Take %s of %s now.", dose, m.Name)
	}
	if m.IsHighPriority {
		n.Title = "! " + n.Title
	}
	return n
}

// TerminalNotifier prints notifications in color.
type TerminalNotifier struct {
	out io.Writer
	now func() time.Time
}

// NewTerminalNotifier writes to out.
func NewTerminalNotifier(out io.Writer) *TerminalNotifier {
	return &TerminalNotifier{out: out, now: time.Now}
}

// Notify prints the notification.
func (t *TerminalNotifier) Notify(_ context.Context, n Notification) error {
	var title *color.Color
	switch n.Kind {
	case models.AlarmEarly:
		title = color.New(color.FgCyan)
	case models.AlarmFollowUp:
		title = color.New(color.FgYellow, color.Bold)
	default:
		title = color.New(color.FgGreen, color.Bold)
	}
	faint := color.New(color.Faint)

	if _, err := faint.Fprintf(t.out, "[%s] ", t.now().Format("15:04")); err != nil {
		return err
	}
	if _, err := title.Fprintln(t.out, n.Title); err != nil {
		return err
	}
	_, err := fmt.Fprintf(t.out, "        %s\n", n.Body)
	return err
}

// LogNotifier records notifications as structured log entries.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier logs through logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the notification.
func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.logger.Info("reminder",
		zap.String("kind", string(n.Kind)),
		zap.String("medication", n.Medication.Name),
		zap.String("medication_id", n.Medication.ID.String()),
		zap.Int("slot", n.Alarm.Slot),
		zap.Time("scheduled_at", n.Alarm.ScheduledAt),
		zap.String("title", n.Title),
	)
	return nil
}

// MultiNotifier fans out to several notifiers, collecting every error.
type MultiNotifier []Notifier

// Notify delivers to each notifier in order.
func (m MultiNotifier) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
