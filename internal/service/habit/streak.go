// Package habit holds the streak arithmetic for the habit tracker.
package habit

import (
	"slices"
	"time"

	"sampleapps/internal/model"
)

// Compute derives the stats of one habit from its check-in days. Days after today are ignored.
func Compute(habitID int, days []time.Time, today time.Time) model.HabitStats {
	today = truncate(today)
	var past []time.Time
	for _, d := range days {
		if !truncate(d).After(today) {
			past = append(past, d)
		}
	}
	desc := normalize(past)

	stats := model.HabitStats{
		HabitID:       habitID,
		TotalCheckIns: len(desc),
		CurrentStreak: currentStreak(desc, today),
		LongestStreak: longestStreak(desc),
	}
	if len(desc) > 0 {
		last := desc[0]
		stats.LastCheckedOn = &last
		stats.CheckedToday = last.Equal(today)
	}
	return stats
}

// CurrentStreak counts consecutive days ending at the most recent check-in. The streak is
// still alive when the most recent day is yesterday, since today may not be checked yet.
func CurrentStreak(days []time.Time, today time.Time) int {
	return currentStreak(normalize(days), truncate(today))
}

// LongestStreak is the longest run of consecutive days anywhere in the history.
func LongestStreak(days []time.Time) int {
	return longestStreak(normalize(days))
}

func currentStreak(desc []time.Time, today time.Time) int {
	if len(desc) == 0 {
		return 0
	}
	if desc[0].Before(today.AddDate(0, 0, -1)) {
		return 0
	}
	streak := 1
	for i := 1; i < len(desc); i++ {
		if !desc[i-1].AddDate(0, 0, -1).Equal(desc[i]) {
			break
		}
		streak++
	}
	return streak
}

func longestStreak(desc []time.Time) int {
	if len(desc) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(desc); i++ {
		if desc[i-1].AddDate(0, 0, -1).Equal(desc[i]) {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}
	return longest
}

// normalize truncates to calendar days, drops duplicates and sorts newest first.
func normalize(days []time.Time) []time.Time {
	out := make([]time.Time, 0, len(days))
	for _, d := range days {
		out = append(out, truncate(d))
	}
	slices.SortFunc(out, func(a, b time.Time) int { return b.Compare(a) })
	return slices.CompactFunc(out, func(a, b time.Time) bool { return a.Equal(b) })
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
