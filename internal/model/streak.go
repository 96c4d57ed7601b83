package model

import (
	"sort"
	"time"
)

// DateLayout is the ISO calendar date format used for completions and plan dates.
const DateLayout = "2006-01-02"

// StartOfDay returns local midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DayKey formats t as a calendar date in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// CalendarDay resolves a completion entry to local midnight of its calendar day.
// Plain dates are taken as-is; legacy RFC3339 timestamps are converted to loc first.
func CalendarDay(entry string, loc *time.Location) (time.Time, bool) {
	if t, err := time.ParseInLocation(DateLayout, entry, loc); err == nil {
		return t, true
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, entry); err == nil {
			return StartOfDay(t, loc), true
		}
	}
	return time.Time{}, false
}

// CompletedOn reports whether any completion falls on the calendar day of day,
// ignoring the time-of-day component.
func CompletedOn(completions []string, day time.Time) bool {
	loc := day.Location()
	want := StartOfDay(day, loc)
	for _, entry := range completions {
		if d, ok := CalendarDay(entry, loc); ok && d.Equal(want) {
			return true
		}
	}
	return false
}

// WithCompletion returns completions with day added, unless it is already present.
func WithCompletion(completions []string, day time.Time) []string {
	out := append([]string(nil), completions...)
	if CompletedOn(completions, day) {
		return out
	}
	return append(out, DayKey(day, day.Location()))
}

// WithoutCompletion returns completions with every entry on day's calendar day removed.
func WithoutCompletion(completions []string, day time.Time) []string {
	loc := day.Location()
	want := StartOfDay(day, loc)
	out := make([]string, 0, len(completions))
	for _, entry := range completions {
		if d, ok := CalendarDay(entry, loc); ok && d.Equal(want) {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// ComputeStreak derives the streak record from completions. Current is the run of
// consecutive days ending at the most recent completion; Longest is the longest run overall.
func ComputeStreak(completions []string, loc *time.Location) Streak {
	seen := make(map[time.Time]struct{}, len(completions))
	days := make([]time.Time, 0, len(completions))
	for _, entry := range completions {
		d, ok := CalendarDay(entry, loc)
		if !ok {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	if len(days) == 0 {
		return Streak{}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	streak := Streak{LastCompleted: days[0].Format(DateLayout)}
	run := 1
	currentDone := false
	for i := 1; i <= len(days); i++ {
		if i < len(days) && days[i].AddDate(0, 0, 1).Equal(days[i-1]) {
			run++
			continue
		}
		if !currentDone {
			streak.Current = run
			currentDone = true
		}
		if run > streak.Longest {
			streak.Longest = run
		}
		run = 1
	}
	return streak
}
