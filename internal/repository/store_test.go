package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-review/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewStore(db)
}

func TestCreateTaskDefaults(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	task, err := store.Tasks.Create(ctx, "u1", TaskFields{Text: "  write report ", Priority: "high"})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "write report", task.Text)
	assert.Equal(t, model.TaskActive, task.Status)
	assert.Equal(t, model.PriorityImportant, task.Priority)
	assert.False(t, task.CreatedAt.IsZero())
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)
}

func TestCreateNonNegotiableForcesFlags(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	due := time.Date(2025, 4, 2, 0, 0, 0, 0, time.Local)

	task, err := store.Tasks.CreateNonNegotiable(ctx, "u1", "ship it", due, nil)
	require.NoError(t, err)

	stored, err := store.Tasks.FindByID(ctx, "u1", task.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsNonNegotiable)
	assert.Equal(t, model.PriorityImportant, stored.Priority)
	require.NotNil(t, stored.DueDate)
	assert.True(t, stored.DueDate.Equal(due))
	assert.Nil(t, stored.ProjectID)
}

func TestOperationsRequireUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Tasks.List(ctx, "")
	assert.ErrorIs(t, err, model.ErrNotAuthenticated)
	_, err = store.Habits.List(ctx, " ")
	assert.ErrorIs(t, err, model.ErrNotAuthenticated)
	_, err = store.Tasks.Create(ctx, "", TaskFields{Text: "x"})
	assert.ErrorIs(t, err, model.ErrNotAuthenticated)
}

func TestUpdateTaskMergePatch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	due := time.Date(2025, 4, 2, 0, 0, 0, 0, time.Local)

	task, err := store.Tasks.Create(ctx, "u1", TaskFields{Text: "draft", DueDate: &due, Priority: model.PriorityImportant})
	require.NoError(t, err)

	later := task.UpdatedAt.Add(time.Minute)
	store.Tasks.now = func() time.Time { return later }

	completed := model.TaskCompleted
	updated, err := store.Tasks.Update(ctx, "u1", task.ID, TaskPatch{Status: &completed})
	require.NoError(t, err)

	assert.Equal(t, model.TaskCompleted, updated.Status)
	assert.Equal(t, "draft", updated.Text)
	assert.Equal(t, model.PriorityImportant, updated.Priority)
	require.NotNil(t, updated.DueDate)
	assert.True(t, updated.DueDate.Equal(due))
	assert.True(t, updated.UpdatedAt.Equal(later))
	assert.True(t, updated.CreatedAt.Equal(task.CreatedAt))
}

func TestUpdateTaskOwnedByAnotherUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	task, err := store.Tasks.Create(ctx, "owner", TaskFields{Text: "private"})
	require.NoError(t, err)

	text := "hijacked"
	_, err = store.Tasks.Update(ctx, "intruder", task.ID, TaskPatch{Text: &text})
	assert.ErrorIs(t, err, model.ErrNotFound)

	err = store.Tasks.Delete(ctx, "intruder", task.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	stored, err := store.Tasks.FindByID(ctx, "owner", task.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", stored.Text)
}

func TestDeleteProjectUnlinksTasks(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	project, err := store.Projects.Create(ctx, "u1", "Launch", "#ff0000")
	require.NoError(t, err)
	other, err := store.Projects.Create(ctx, "u1", "Other", "#00ff00")
	require.NoError(t, err)

	a, err := store.Tasks.Create(ctx, "u1", TaskFields{Text: "a", ProjectID: &project.ID})
	require.NoError(t, err)
	b, err := store.Tasks.Create(ctx, "u1", TaskFields{Text: "b", ProjectID: &project.ID})
	require.NoError(t, err)
	c, err := store.Tasks.Create(ctx, "u1", TaskFields{Text: "c", ProjectID: &other.ID})
	require.NoError(t, err)

	require.NoError(t, store.Projects.Delete(ctx, "u1", project.ID))

	tasks, err := store.Tasks.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	byID := make(map[string]model.Task)
	for _, task := range tasks {
		byID[task.ID] = task
	}
	assert.Nil(t, byID[a.ID].ProjectID)
	assert.Nil(t, byID[b.ID].ProjectID)
	require.NotNil(t, byID[c.ID].ProjectID)
	assert.Equal(t, other.ID, *byID[c.ID].ProjectID)

	_, err = store.Projects.GetByID(ctx, "u1", project.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	err = store.Projects.Delete(ctx, "u1", project.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestHabitCompletionsRecomputeStreak(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	habit, err := store.Habits.Create(ctx, "u1", HabitFields{Name: "read", IsNonNegotiable: true, Priority: "medium"})
	require.NoError(t, err)
	assert.Equal(t, model.FrequencyDaily, habit.Frequency.Type)
	assert.Equal(t, model.PriorityFlexible, habit.Priority)

	updated, err := store.Habits.UpdateCompletions(ctx, "u1", habit.ID,
		[]string{"2025-03-10", "2025-03-09", "2025-03-08", "2025-03-05"}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Streak.Current)

	stored, err := store.Habits.FindByID(ctx, "u1", habit.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Completions, 4)
	assert.Equal(t, model.Streak{Current: 3, Longest: 3, LastCompleted: "2025-03-10"}, stored.Streak)

	_, err = store.Habits.UpdateCompletions(ctx, "u2", habit.ID, nil, time.UTC)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPlanUpsertOverwritesSameDate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := &model.DailyPlan{UserID: "u1", Date: "2025-04-01", IsComplete: true,
		NonNegotiables: []model.PlanItem{{ID: "1", Title: "one", Type: "task"}}}
	require.NoError(t, store.Plans.Upsert(ctx, first))

	second := &model.DailyPlan{UserID: "u1", Date: "2025-04-01", IsComplete: true,
		NonNegotiables: []model.PlanItem{{ID: "2", Title: "two", Type: "task"}}}
	require.NoError(t, store.Plans.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	plan, err := store.Plans.Get(ctx, "u1", "2025-04-01")
	require.NoError(t, err)
	require.Len(t, plan.NonNegotiables, 1)
	assert.Equal(t, "two", plan.NonNegotiables[0].Title)
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	boom := errors.New("boom")

	err := store.Transaction(ctx, func(tx *Store) error {
		if _, err := tx.Tasks.Create(ctx, "u1", TaskFields{Text: "lost"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	tasks, err := store.Tasks.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestStoreUnavailableWhenClosed(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	sqlDB, err := store.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = store.Tasks.List(ctx, "u1")
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}

func TestUpsertFromTelegram(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	created, err := store.Users.UpsertFromTelegram(ctx, 42, "Ada", "ada")
	require.NoError(t, err)
	updated, err := store.Users.UpsertFromTelegram(ctx, 42, "Ada L.", "ada")
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	found, err := store.Users.FindByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", found.DisplayName)
}

func TestWithPragmas(t *testing.T) {
	assert.Equal(t, "data/app.db?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", withPragmas("data/app.db", false))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=on&_busy_timeout=5000", withPragmas("file:x?mode=memory", true))
	assert.Equal(t, "app.db?_busy_timeout=100&_foreign_keys=on&_journal_mode=WAL", withPragmas("app.db?_busy_timeout=100", false))
}
