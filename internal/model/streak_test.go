package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStreakStopsAtGap(t *testing.T) {
	loc := time.UTC
	d := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	completions := []string{
		DayKey(d.AddDate(0, 0, -5), loc),
		DayKey(d, loc),
		DayKey(d.AddDate(0, 0, -2), loc),
		DayKey(d.AddDate(0, 0, -1), loc),
	}

	streak := ComputeStreak(completions, loc)
	assert.Equal(t, 3, streak.Current)
	assert.Equal(t, 3, streak.Longest)
	assert.Equal(t, "2025-03-10", streak.LastCompleted)
}

func TestComputeStreakLongestFromHistory(t *testing.T) {
	loc := time.UTC
	completions := []string{
		"2025-01-01", "2025-01-02", "2025-01-03", "2025-01-04",
		"2025-01-10", "2025-01-11",
		"2025-01-11", // duplicate day
	}

	streak := ComputeStreak(completions, loc)
	assert.Equal(t, 2, streak.Current)
	assert.Equal(t, 4, streak.Longest)
}

func TestComputeStreakEmpty(t *testing.T) {
	assert.Equal(t, Streak{}, ComputeStreak(nil, time.UTC))
	assert.Equal(t, Streak{}, ComputeStreak([]string{"garbage"}, time.UTC))
}

func TestCompletedOnIgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2025, 6, 1, 23, 30, 0, 0, loc)

	tests := []struct {
		name        string
		completions []string
		want        bool
	}{
		{"plain date", []string{"2025-06-01"}, true},
		{"timestamp same local day", []string{"2025-05-31T22:00:00Z"}, true},
		{"timestamp previous local day", []string{"2025-05-31T20:00:00Z"}, false},
		{"other day", []string{"2025-05-30"}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompletedOn(tt.completions, now))
		})
	}
}

func TestWithAndWithoutCompletion(t *testing.T) {
	day := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	added := WithCompletion([]string{"2025-05-31"}, day)
	require.Equal(t, []string{"2025-05-31", "2025-06-01"}, added)
	assert.Equal(t, added, WithCompletion(added, day))

	removed := WithoutCompletion([]string{"2025-05-31", "2025-06-01", "2025-06-01T18:00:00Z"}, day)
	assert.Equal(t, []string{"2025-05-31"}, removed)
}

func TestParsePriority(t *testing.T) {
	tests := map[string]Priority{
		"important":      PriorityImportant,
		"high":           PriorityImportant,
		"Non-Negotiable": PriorityImportant,
		"flexible":       PriorityFlexible,
		"medium":         PriorityFlexible,
		"low":            PriorityFlexible,
		"":               PriorityFlexible,
		"urgent-ish":     PriorityFlexible,
	}
	for raw, want := range tests {
		assert.Equal(t, want, ParsePriority(raw), raw)
	}
}

func TestFrequencyScheduledOn(t *testing.T) {
	assert.True(t, Frequency{Type: FrequencyDaily}.ScheduledOn(time.Wednesday))
	assert.True(t, Frequency{}.ScheduledOn(time.Sunday))

	weekdays := Frequency{Type: FrequencyWeekly, DaysOfWeek: []int{1, 3, 5}}
	assert.True(t, weekdays.ScheduledOn(time.Monday))
	assert.False(t, weekdays.ScheduledOn(time.Tuesday))

	assert.True(t, Frequency{Type: FrequencyCustom}.ScheduledOn(time.Saturday))
}
