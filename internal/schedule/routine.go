// ABOUTME: Daily routine anchors and routine-relative reminder times.
// ABOUTME: Converts a TimePeriod into an "HH:MM" string using the user's routine.
package schedule

import (
	"fmt"

	"github.com/harperreed/medlog/internal/models"
)

// Routine holds the user's daily anchors.
type Routine struct {
	WakeHour, WakeMinute           int
	BreakfastHour, BreakfastMinute int
	LunchHour, LunchMinute         int
	DinnerHour, DinnerMinute       int
	BedHour, BedMinute             int
}

// DefaultRoutine wakes at 07:00, eats at 08:00/12:00/18:00 and sleeps at 22:00.
func DefaultRoutine() Routine {
	return Routine{
		WakeHour:      7,
		BreakfastHour: 8,
		LunchHour:     12,
		DinnerHour:    18,
		BedHour:       22,
	}
}

// ReminderTimeFor returns the reminder time for a period. Exact periods
// return "" since their time is chosen by the user.
func ReminderTimeFor(p models.TimePeriod, r Routine) string {
	switch p {
	case models.PeriodMorning:
		return AdjustTime(r.WakeHour, r.WakeMinute, 0)
	case models.PeriodBeforeBreakfast:
		return AdjustTime(r.BreakfastHour, r.BreakfastMinute, -15)
	case models.PeriodAfterBreakfast:
		return AdjustTime(r.BreakfastHour, r.BreakfastMinute, 15)
	case models.PeriodBeforeLunch:
		return AdjustTime(r.LunchHour, r.LunchMinute, -15)
	case models.PeriodAfterLunch:
		return AdjustTime(r.LunchHour, r.LunchMinute, 15)
	case models.PeriodBeforeDinner:
		return AdjustTime(r.DinnerHour, r.DinnerMinute, -15)
	case models.PeriodAfterDinner:
		return AdjustTime(r.DinnerHour, r.DinnerMinute, 15)
	case models.PeriodEvening:
		return AdjustTime(r.BedHour, r.BedMinute, -60)
	case models.PeriodBedtime:
		return AdjustTime(r.BedHour, r.BedMinute, 0)
	case models.PeriodAfternoon:
		return "15:00"
	}
	return ""
}

// AdjustTime shifts hour:minute by delta minutes, wrapping around midnight.
func AdjustTime(hour, minute, delta int) string {
	const day = 24 * 60
	total := ((hour*60+minute+delta)%day + day) % day
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
