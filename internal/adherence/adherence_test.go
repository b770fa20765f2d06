// ABOUTME: Tests for streaks and adherence summaries.
// ABOUTME: Dates are fixed so results do not depend on the wall clock.
package adherence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/medlog/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func set(days ...time.Time) map[time.Time]bool {
	out := make(map[time.Time]bool)
	for _, d := range days {
		out[d] = true
	}
	return out
}

func TestCurrentStreak(t *testing.T) {
	today := date(2024, 6, 15)
	back := func(n int) time.Time { return today.AddDate(0, 0, -n) }

	assert.Equal(t, 0, CurrentStreak(set(), today))
	assert.Equal(t, 3, CurrentStreak(set(back(2), back(1), today), today))
	assert.Equal(t, 3, CurrentStreak(set(back(3), back(2), back(1)), today))
	assert.Equal(t, 1, CurrentStreak(set(back(5), back(4), today), today))
	assert.Equal(t, 0, CurrentStreak(set(back(7), back(6)), today))
	assert.Equal(t, 1, CurrentStreak(set(today), today))
}

func TestLongestStreak(t *testing.T) {
	base := date(2024, 6, 1)
	plus := func(n int) time.Time { return base.AddDate(0, 0, n) }

	assert.Equal(t, 0, LongestStreak(nil))
	assert.Equal(t, 1, LongestStreak([]time.Time{date(2024, 1, 5)}))

	var week []time.Time
	for i := 0; i < 7; i++ {
		week = append(week, plus(i))
	}
	assert.Equal(t, 7, LongestStreak(week))

	twoRuns := []time.Time{plus(0), plus(1), plus(2), plus(10), plus(11), plus(12), plus(13), plus(14)}
	assert.Equal(t, 5, LongestStreak(twoRuns))

	assert.Equal(t, 3, LongestStreak([]time.Time{plus(2), plus(0), plus(1)}))
	assert.Equal(t, 2, LongestStreak([]time.Time{plus(9), plus(9), plus(10)}))
}

func TestLongestStreakAcrossMonthEnd(t *testing.T) {
	days := []time.Time{date(2024, 2, 28), date(2024, 2, 29), date(2024, 3, 1)}
	assert.Equal(t, 3, LongestStreak(days))
}

func TestSummarize(t *testing.T) {
	loc := time.UTC
	known := uuid.New()
	gone := uuid.New()
	names := map[uuid.UUID]string{known: "Aspirin"}

	day1 := time.Date(2024, 6, 1, 20, 0, 0, 0, loc)
	day1Early := time.Date(2024, 6, 1, 8, 0, 0, 0, loc)
	day2 := time.Date(2024, 6, 2, 8, 0, 0, 0, loc)

	logs := []*models.MedicationLog{
		models.NewMedicationLog(known, day1, models.StatusSkipped, day1),
		models.NewMedicationLog(known, day1Early, models.StatusTaken, day1Early),
		models.NewMedicationLog(gone, day2, models.StatusTaken, day2),
	}

	days := Summarize(logs, names, loc)
	require.Len(t, days, 2)

	assert.Equal(t, date(2024, 6, 1), days[0].Date)
	assert.Equal(t, 1, days[0].Taken)
	assert.Equal(t, 2, days[0].Total)
	assert.InDelta(t, 0.5, days[0].Rate(), 1e-9)
	assert.Equal(t, day1Early, days[0].Logs[0].Log.ScheduledAt)
	assert.Equal(t, "Aspirin", days[0].Logs[0].Name)

	assert.Equal(t, UnknownMedication, days[1].Logs[0].Name)

	assert.InDelta(t, 2.0/3.0, Overall(days, date(2024, 5, 1)), 1e-9)
	assert.InDelta(t, 1.0, Overall(days, date(2024, 6, 2)), 1e-9)
	assert.Equal(t, 0.0, Overall(days, date(2024, 7, 1)))
	assert.Equal(t, 0.0, Day{}.Rate())
}

func TestBuildReport(t *testing.T) {
	loc := time.UTC
	id := uuid.New()
	now := time.Date(2024, 6, 15, 9, 0, 0, 0, loc)

	var logs []*models.MedicationLog
	for i := 1; i <= 4; i++ {
		at := now.AddDate(0, 0, -i)
		logs = append(logs, models.NewMedicationLog(id, at, models.StatusTaken, at))
	}
	missed := now.AddDate(0, 0, -5)
	logs = append(logs, models.NewMedicationLog(id, missed, models.StatusMissed, missed))

	r := BuildReport(logs, nil, now, loc, 30)
	assert.Equal(t, 4, r.CurrentStreak)
	assert.Equal(t, 4, r.LongestStreak)
	assert.InDelta(t, 0.8, r.Overall, 1e-9)
}
