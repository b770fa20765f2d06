// ABOUTME: TimePeriod enum for routine-relative dosing times.
// ABOUTME: Unknown keys fall back to the exact period.
package models

// TimePeriod anchors a reminder to the user's daily routine.
type TimePeriod string

const (
	PeriodExact           TimePeriod = "exact"
	PeriodMorning         TimePeriod = "morning"
	PeriodBeforeBreakfast TimePeriod = "beforeBreakfast"
	PeriodAfterBreakfast  TimePeriod = "afterBreakfast"
	PeriodBeforeLunch     TimePeriod = "beforeLunch"
	PeriodAfterLunch      TimePeriod = "afterLunch"
	PeriodAfternoon       TimePeriod = "afternoon"
	PeriodBeforeDinner    TimePeriod = "beforeDinner"
	PeriodAfterDinner     TimePeriod = "afterDinner"
	PeriodEvening         TimePeriod = "evening"
	PeriodBedtime         TimePeriod = "bedtime"
)

// AllTimePeriods lists periods in the order a day unfolds.
var AllTimePeriods = []TimePeriod{
	PeriodExact, PeriodMorning, PeriodBeforeBreakfast, PeriodAfterBreakfast,
	PeriodBeforeLunch, PeriodAfterLunch, PeriodAfternoon,
	PeriodBeforeDinner, PeriodAfterDinner, PeriodEvening, PeriodBedtime,
}

// ParseTimePeriod returns the period for key, or PeriodExact.
func ParseTimePeriod(key string) TimePeriod {
	for _, p := range AllTimePeriods {
		if string(p) == key {
			return p
		}
	}
	return PeriodExact
}

// IsValidTimePeriod checks if a string is a known period key.
func IsValidTimePeriod(key string) bool {
	for _, p := range AllTimePeriods {
		if string(p) == key {
			return true
		}
	}
	return false
}
