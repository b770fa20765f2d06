// ABOUTME: Adherence statistics over medication logs.
// ABOUTME: Streaks, per-day taken/total summaries, and windowed adherence rates.
package adherence

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/medlog/internal/models"
)

// UnknownMedication labels logs whose medication no longer exists.
const UnknownMedication = "unknown medication"

// DateOf returns the calendar date of t in loc, as midnight UTC.
// Dates built this way compare with == and step with AddDate.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CurrentStreak counts consecutive active days ending today. When today has
// no activity yet, counting starts from yesterday.
func CurrentStreak(days map[time.Time]bool, today time.Time) int {
	cursor := today
	if !days[cursor] {
		cursor = cursor.AddDate(0, 0, -1)
	}
	count := 0
	for days[cursor] {
		count++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return count
}

// LongestStreak returns the longest run of consecutive dates.
// Input order and duplicates do not matter.
func LongestStreak(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	sorted := append([]time.Time(nil), days...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		switch {
		case sorted[i].Equal(sorted[i-1]):
			continue
		case sorted[i].Equal(sorted[i-1].AddDate(0, 0, 1)):
			run++
		default:
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// ActiveDays returns the set of dates with at least one taken dose.
func ActiveDays(logs []*models.MedicationLog, loc *time.Location) map[time.Time]bool {
	days := make(map[time.Time]bool)
	for _, l := range logs {
		if l.Status == models.StatusTaken {
			days[DateOf(l.ScheduledAt, loc)] = true
		}
	}
	return days
}

// DayKeys flattens a day set into a slice.
func DayKeys(days map[time.Time]bool) []time.Time {
	out := make([]time.Time, 0, len(days))
	for d := range days {
		out = append(out, d)
	}
	return out
}

// LabeledLog pairs a log with its medication's name.
type LabeledLog struct {
	Log  *models.MedicationLog `json:"log"`
	Name string                `json:"name"`
}

// Day summarises one calendar day.
type Day struct {
	Date  time.Time    `json:"date"`
	Taken int          `json:"taken"`
	Total int          `json:"total"`
	Logs  []LabeledLog `json:"logs"`
}

// Rate is taken/total, or 0 for an empty day.
func (d Day) Rate() float64 {
	if d.Total == 0 {
		return 0
	}
	return float64(d.Taken) / float64(d.Total)
}

// Summarize groups logs by local date. Each day's logs are ordered by
// scheduled time. The result is sorted by date ascending.
func Summarize(logs []*models.MedicationLog, names map[uuid.UUID]string, loc *time.Location) []Day {
	byDate := make(map[time.Time]*Day)
	for _, l := range logs {
		date := DateOf(l.ScheduledAt, loc)
		day, ok := byDate[date]
		if !ok {
			day = &Day{Date: date}
			byDate[date] = day
		}
		day.Total++
		if l.Status == models.StatusTaken {
			day.Taken++
		}
		name, ok := names[l.MedicationID]
		if !ok {
			name = UnknownMedication
		}
		day.Logs = append(day.Logs, LabeledLog{Log: l, Name: name})
	}

	days := make([]Day, 0, len(byDate))
	for _, d := range byDate {
		sort.SliceStable(d.Logs, func(i, j int) bool {
			return d.Logs[i].Log.ScheduledAt.Before(d.Logs[j].Log.ScheduledAt)
		})
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}

// Overall is taken/total across days on or after since, or 0 when empty.
func Overall(days []Day, since time.Time) float64 {
	var taken, total int
	for _, d := range days {
		if d.Date.Before(since) {
			continue
		}
		taken += d.Taken
		total += d.Total
	}
	if total == 0 {
		return 0
	}
	return float64(taken) / float64(total)
}

// Report bundles the numbers shown by the streak and adherence views.
type Report struct {
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
	Overall       float64 `json:"overall"`
	Days          []Day   `json:"days,omitempty"`
}

// BuildReport computes streaks and the adherence rate over the last window days.
func BuildReport(logs []*models.MedicationLog, names map[uuid.UUID]string, now time.Time, loc *time.Location, window int) Report {
	active := ActiveDays(logs, loc)
	days := Summarize(logs, names, loc)
	today := DateOf(now, loc)
	return Report{
		CurrentStreak: CurrentStreak(active, today),
		LongestStreak: LongestStreak(DayKeys(active)),
		Overall:       Overall(days, today.AddDate(0, 0, -window)),
		Days:          days,
	}
}
