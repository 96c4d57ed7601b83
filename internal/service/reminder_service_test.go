package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-review/internal/model"
)

type stubToday struct {
	today Today
	err   error
}

func (s stubToday) Today(context.Context, string) (Today, error) { return s.today, s.err }

func TestDailySummaryListsSections(t *testing.T) {
	estimate := 45
	today := partition(time.Time{}, []DueItem{
		{ID: "1", Kind: KindTask, Text: "ship <v2>", IsNonNegotiable: true, Priority: model.PriorityImportant, IsCompleted: true},
		{ID: "2", Kind: KindHabit, Text: "run", Priority: model.PriorityImportant, TimeEstimate: &estimate},
	})
	svc := NewReminderService(stubToday{today: today})

	text, err := svc.DailySummary(context.Background(), model.User{ID: "u1"}, time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, text, "✅ ship &lt;v2&gt;")
	assert.Contains(t, text, "⬜️ run ♻️ <i>(important)</i> · ⏱ 45 min")
	assert.Contains(t, text, "1/2 done")
}

func TestReviewReminderPendingItems(t *testing.T) {
	today := partition(time.Time{}, []DueItem{
		{ID: "1", Text: "done", IsNonNegotiable: true, IsCompleted: true},
		{ID: "2", Text: "open", IsNonNegotiable: true},
	})
	svc := NewReminderService(stubToday{today: today})

	text, err := svc.ReviewReminder(context.Background(), model.User{ID: "u1"})
	require.NoError(t, err)
	assert.Contains(t, text, "1 non-negotiable(s) still open")
	assert.Contains(t, text, "open")
	assert.NotContains(t, text, "✅ done")
}

func TestReminderPropagatesStoreError(t *testing.T) {
	svc := NewReminderService(stubToday{err: model.ErrStoreUnavailable})
	_, err := svc.DailySummary(context.Background(), model.User{ID: "u1"}, time.Now())
	assert.True(t, errors.Is(err, model.ErrStoreUnavailable))
}
