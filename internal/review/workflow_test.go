package review

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-review/internal/model"
	"daily-review/internal/service"
)

type fakeItems struct {
	mu         sync.Mutex
	day        time.Time
	items      []service.DueItem
	writes     map[string]bool
	toggleErr  error
	submitErr  error
	submitted  []service.ReviewSubmission
	submitCall int
}

func newFakeItems(items ...service.DueItem) *fakeItems {
	return &fakeItems{day: time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), items: items, writes: map[string]bool{}}
}

func (f *fakeItems) Today(context.Context, string) (service.Today, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return service.NewToday(f.day, append([]service.DueItem(nil), f.items...)), nil
}

func (f *fakeItems) set(id string, completed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toggleErr != nil {
		return f.toggleErr
	}
	f.writes[id] = completed
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].IsCompleted = completed
		}
	}
	return nil
}

func (f *fakeItems) SetTaskCompleted(_ context.Context, _ string, id string, completed bool) error {
	return f.set(id, completed)
}

func (f *fakeItems) SetHabitCompleted(_ context.Context, _ string, id string, completed bool) error {
	return f.set(id, completed)
}

func (f *fakeItems) SubmitReview(_ context.Context, userID string, sub service.ReviewSubmission) (*model.DailyPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCall++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, sub)
	plan := &model.DailyPlan{UserID: userID, IsComplete: true}
	for _, task := range sub.Tasks {
		plan.NonNegotiables = append(plan.NonNegotiables, model.PlanItem{Title: task.Text, Type: "task"})
	}
	return plan, nil
}

func newTestWorkflow(t *testing.T, items *fakeItems) (*Workflow, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	w := NewWorkflow("u1", items, clock, nil)
	t.Cleanup(w.Close)
	require.NoError(t, w.Load(context.Background()))
	return w, clock
}

func nn(id string, kind service.ItemKind, completed bool) service.DueItem {
	return service.DueItem{ID: id, Kind: kind, Text: id, IsNonNegotiable: true, Priority: model.PriorityImportant, IsCompleted: completed}
}

func TestWorkflowAllCompleteGoesStraightThrough(t *testing.T) {
	w, _ := newTestWorkflow(t, newFakeItems(nn("a", service.KindTask, true), nn("b", service.KindHabit, true)))

	step, err := w.Next()
	require.NoError(t, err)
	assert.Equal(t, StepReflection, step)
}

func TestWorkflowNoNonNegotiablesProceeds(t *testing.T) {
	w, _ := newTestWorkflow(t, newFakeItems(service.DueItem{ID: "x", Kind: service.KindTask}))

	assert.Equal(t, StateAllComplete, w.View().Gate)
	step, err := w.Next()
	require.NoError(t, err)
	assert.Equal(t, StepReflection, step)
}

func TestWorkflowWarningThenFinishItems(t *testing.T) {
	items := newFakeItems(nn("a", service.KindTask, true), nn("b", service.KindHabit, false))
	w, _ := newTestWorkflow(t, items)
	ctx := context.Background()

	step, err := w.Next()
	require.NoError(t, err)
	assert.Equal(t, StepCheck, step)
	assert.Equal(t, StateWarningStep1, w.View().Gate)

	require.NoError(t, w.KeepWorking())
	assert.Equal(t, StateIncomplete, w.View().Gate)

	item, err := w.Toggle(ctx, "b")
	require.NoError(t, err)
	assert.True(t, item.IsCompleted)
	assert.True(t, items.writes["b"])
	assert.Equal(t, StateAllComplete, w.View().Gate)

	step, err = w.Next()
	require.NoError(t, err)
	assert.Equal(t, StepReflection, step)
}

func TestWorkflowOverrideNeedsExplicitConfirm(t *testing.T) {
	w, clock := newTestWorkflow(t, newFakeItems(nn("a", service.KindTask, false)))

	_, _ = w.Next()
	require.NoError(t, w.SkipAnyway())
	assert.Equal(t, StateWarningStep2, w.View().Gate)
	require.NoError(t, w.SkipAnyway())
	assert.Equal(t, StateFinalFocusSession, w.View().Gate)
	assert.True(t, w.View().Focus.Running)

	clock.Advance(FocusDuration)
	view := w.View()
	assert.Equal(t, StateFocusSessionComplete, view.Gate)
	assert.Equal(t, StepCheck, view.Step)

	_, err := w.Next()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	step, err := w.ConfirmFocusComplete()
	require.NoError(t, err)
	assert.Equal(t, StepReflection, step)
	assert.Equal(t, StateAllowedToProceed, w.View().Gate)
}

func TestWorkflowFailedToggleRollsBack(t *testing.T) {
	items := newFakeItems(nn("a", service.KindTask, false))
	clock := newFakeClock()
	var seen []Transition
	w := NewWorkflow("u1", items, clock, func(tr Transition) { seen = append(seen, tr) })
	t.Cleanup(w.Close)
	require.NoError(t, w.Load(context.Background()))

	items.toggleErr = model.ErrStoreUnavailable
	item, err := w.Toggle(context.Background(), "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
	assert.False(t, item.IsCompleted)

	view := w.View()
	got, ok := view.Today.Find("a")
	require.True(t, ok)
	assert.False(t, got.IsCompleted)
	assert.Equal(t, StateIncomplete, view.Gate)
	assert.False(t, w.Gate().CanProceed())
	assert.Contains(t, seen, Transition{From: StateIncomplete, To: StateAllComplete})
	assert.Equal(t, Transition{From: StateAllComplete, To: StateIncomplete}, seen[len(seen)-1])
}

func TestWorkflowToggleUnknownItem(t *testing.T) {
	w, _ := newTestWorkflow(t, newFakeItems())
	_, err := w.Toggle(context.Background(), "ghost")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestWorkflowReflectionNeedsHours(t *testing.T) {
	w, _ := newTestWorkflow(t, newFakeItems())
	_, _ = w.Next()

	_, err := w.Next()
	assert.ErrorIs(t, err, model.ErrValidationFailed)
	assert.ErrorIs(t, err, ErrHoursRequired)

	assert.ErrorIs(t, w.SetHours(-0.5), model.ErrValidationFailed)
	assert.ErrorIs(t, w.SetHours(24.5), model.ErrValidationFailed)
	assert.ErrorIs(t, w.SetHours(3.25), model.ErrValidationFailed)
	require.NoError(t, w.SetHours(7.5))

	step, err := w.Next()
	require.NoError(t, err)
	assert.Equal(t, StepPlanning, step)

	assert.Equal(t, StepReflection, w.Back())
	assert.Equal(t, StepCheck, w.Back())
	assert.Equal(t, StepCheck, w.Back())
}

func toPlanning(t *testing.T, w *Workflow) {
	t.Helper()
	_, err := w.Next()
	require.NoError(t, err)
	require.NoError(t, w.SetHours(6))
	step, err := w.Next()
	require.NoError(t, err)
	require.Equal(t, StepPlanning, step)
}

func TestWorkflowSubmit(t *testing.T) {
	items := newFakeItems(nn("a", service.KindTask, true))
	w, _ := newTestWorkflow(t, items)
	toPlanning(t, w)
	w.SetLessons("ship smaller")

	stage, done := w.AnswerStage(true)
	assert.False(t, done)
	stage, done = w.AnswerStage(false)
	require.True(t, done)
	assert.Equal(t, StageLeads, stage)

	project := "p1"
	_, err := w.AddTomorrowTask("outreach", &project)
	require.NoError(t, err)
	_, err = w.AddTomorrowTask("follow ups", nil)
	require.NoError(t, err)

	plan, err := w.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, plan.NonNegotiables, 2)

	require.Len(t, items.submitted, 1)
	sub := items.submitted[0]
	assert.True(t, sub.Day.Equal(items.day))
	require.Len(t, sub.Tasks, 2)
	require.NotNil(t, sub.Tasks[0].ProjectID)
	assert.Equal(t, "p1", *sub.Tasks[0].ProjectID)
	assert.Nil(t, sub.Tasks[1].ProjectID)
	assert.Equal(t, "leads", sub.BusinessStage)
	assert.Equal(t, "Do 100 direct outreach messages today", sub.PriorityTask)
	assert.Equal(t, "ship smaller", sub.Lessons)
	require.NotNil(t, sub.HoursWorked)
	assert.Equal(t, 6.0, *sub.HoursWorked)

	view := w.View()
	assert.True(t, view.Submitted)
	assert.Empty(t, view.Pending)
}

func TestWorkflowFourthTaskRejectedBeforeWrite(t *testing.T) {
	items := newFakeItems()
	w, _ := newTestWorkflow(t, items)
	toPlanning(t, w)

	for _, text := range []string{"one", "two", "three"} {
		_, err := w.AddTomorrowTask(text, nil)
		require.NoError(t, err)
	}
	_, err := w.AddTomorrowTask("four", nil)
	assert.ErrorIs(t, err, model.ErrValidationFailed)
	assert.Zero(t, items.submitCall)
	assert.Len(t, w.View().Pending, 3)
}

func TestWorkflowFailedSubmitKeepsState(t *testing.T) {
	items := newFakeItems()
	w, _ := newTestWorkflow(t, items)
	toPlanning(t, w)
	_, err := w.AddTomorrowTask("one", nil)
	require.NoError(t, err)

	items.submitErr = errors.New("transaction aborted")
	_, err = w.Submit(context.Background())
	require.Error(t, err)

	view := w.View()
	assert.Len(t, view.Pending, 1)
	assert.Equal(t, StateAllComplete, view.Gate)
	assert.False(t, view.Submitted)
	assert.Empty(t, items.submitted)

	items.submitErr = nil
	_, err = w.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, items.submitted, 1)
	assert.Equal(t, "one", items.submitted[0].Tasks[0].Text)
}

func TestWorkflowSubmitRequiresOpenGate(t *testing.T) {
	items := newFakeItems(nn("a", service.KindTask, true))
	w, _ := newTestWorkflow(t, items)
	toPlanning(t, w)

	_, err := w.Toggle(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, StateIncomplete, w.View().Gate)

	_, err = w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Zero(t, items.submitCall)
}

func TestWorkflowAmbientExpiryLetsUserLeave(t *testing.T) {
	w, clock := newTestWorkflow(t, newFakeItems(nn("a", service.KindTask, false)))

	clock.Advance(AmbientDuration + time.Second)
	step, err := w.Next()
	require.NoError(t, err)
	assert.Equal(t, StepReflection, step)
}
