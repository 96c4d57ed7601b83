package review

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"daily-review/internal/model"
	"daily-review/internal/service"
)

// Step is a page of the daily review.
type Step int

const (
	StepCheck Step = iota + 1
	StepReflection
	StepPlanning
)

func (s Step) String() string {
	switch s {
	case StepCheck:
		return "check"
	case StepReflection:
		return "reflection"
	case StepPlanning:
		return "planning"
	default:
		return "unknown"
	}
}

// ErrHoursRequired is returned when leaving the reflection step without hours worked.
var ErrHoursRequired = errors.New("hours worked is required")

// Items is what the review needs from the item store.
type Items interface {
	Today(ctx context.Context, userID string) (service.Today, error)
	SetTaskCompleted(ctx context.Context, userID, taskID string, completed bool) error
	SetHabitCompleted(ctx context.Context, userID, habitID string, completed bool) error
	SubmitReview(ctx context.Context, userID string, sub service.ReviewSubmission) (*model.DailyPlan, error)
}

// View is a snapshot of the workflow for rendering.
type View struct {
	Step         Step
	Gate         State
	Today        service.Today
	Ambient      TimerStatus
	Focus        TimerStatus
	HoursWorked  *float64
	Lessons      string
	Stage        BusinessStage
	PriorityTask string
	Pending      []PendingTask
	Submitted    bool
}

// Workflow drives one user's daily review: check, reflection, planning.
type Workflow struct {
	userID  string
	items   Items
	gate    *Gate
	planner *Planner

	mu        sync.Mutex
	step      Step
	today     service.Today
	hours     *float64
	lessons   string
	sequence  SequenceCheck
	submitted bool
}

func NewWorkflow(userID string, items Items, clock Clock, onGate func(Transition)) *Workflow {
	return &Workflow{
		userID:  userID,
		items:   items,
		gate:    NewGate(clock, onGate),
		planner: NewPlanner(),
		step:    StepCheck,
	}
}

// Load reads today's items and evaluates the gate.
func (w *Workflow) Load(ctx context.Context) error {
	today, err := w.items.Today(ctx, w.userID)
	if err != nil {
		return fmt.Errorf("load review: %w", err)
	}
	w.mu.Lock()
	w.today = today
	w.mu.Unlock()

	w.gate.Evaluate(today.AllNonNegotiablesComplete())
	return nil
}

func (w *Workflow) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	stage := w.sequence.Stage()
	return View{
		Step:         w.step,
		Gate:         w.gate.State(),
		Today:        w.today,
		Ambient:      w.gate.Ambient(),
		Focus:        w.gate.Focus(),
		HoursWorked:  w.hours,
		Lessons:      w.lessons,
		Stage:        stage,
		PriorityTask: PriorityTask(stage),
		Pending:      w.planner.Entries(),
		Submitted:    w.submitted,
	}
}

// Gate exposes the completion gate for its dialog and timer actions.
func (w *Workflow) Gate() *Gate { return w.gate }

// Toggle flips completion of one of today's items. The local state changes
// first and is restored if the write fails; the gate follows either way.
func (w *Workflow) Toggle(ctx context.Context, itemID string) (service.DueItem, error) {
	w.mu.Lock()
	item, ok := w.today.Find(itemID)
	w.mu.Unlock()
	if !ok {
		return service.DueItem{}, fmt.Errorf("toggle %s: %w", itemID, model.ErrNotFound)
	}

	current := item
	err := Optimistic(ctx,
		func() service.DueItem { return current },
		func(next service.DueItem) {
			current = next
			w.mu.Lock()
			w.today = w.today.WithItem(next)
			complete := w.today.AllNonNegotiablesComplete()
			w.mu.Unlock()
			w.gate.Evaluate(complete)
		},
		func(it service.DueItem) service.DueItem {
			it.IsCompleted = !it.IsCompleted
			return it
		},
		func(ctx context.Context, it service.DueItem) error {
			if it.Kind == service.KindHabit {
				return w.items.SetHabitCompleted(ctx, w.userID, it.ID, it.IsCompleted)
			}
			return w.items.SetTaskCompleted(ctx, w.userID, it.ID, it.IsCompleted)
		},
	)
	if err != nil {
		return current, fmt.Errorf("toggle %s: %w", itemID, err)
	}
	return current, nil
}

// Next advances one step. Leaving the check step goes through the gate,
// which may open the warning dialog instead.
func (w *Workflow) Next() (Step, error) {
	w.mu.Lock()
	step, hours := w.step, w.hours
	w.mu.Unlock()

	switch step {
	case StepCheck:
		proceed, err := w.gate.Continue()
		if err != nil {
			return step, err
		}
		if !proceed {
			return step, nil
		}
	case StepReflection:
		if hours == nil {
			return step, fmt.Errorf("%w: %w", ErrHoursRequired, model.ErrValidationFailed)
		}
	default:
		return step, ErrInvalidTransition
	}
	return w.advance(step), nil
}

// Back returns to the previous step.
func (w *Workflow) Back() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > StepCheck {
		w.step--
	}
	return w.step
}

func (w *Workflow) KeepWorking() error { return w.gate.KeepWorking() }

func (w *Workflow) SkipAnyway() error { return w.gate.SkipAnyway() }

// ConfirmFocusComplete accepts the finished focus session and leaves the check step.
func (w *Workflow) ConfirmFocusComplete() (Step, error) {
	if err := w.gate.ConfirmFocusComplete(); err != nil {
		return w.View().Step, err
	}
	return w.advance(StepCheck), nil
}

func (w *Workflow) advance(from Step) Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == from && w.step < StepPlanning {
		w.step++
	}
	return w.step
}

// SetHours records hours worked today: 0 to 24 in half-hour steps.
func (w *Workflow) SetHours(hours float64) error {
	if hours < 0 || hours > 24 || math.Mod(hours*2, 1) != 0 {
		return fmt.Errorf("hours worked %v: %w", hours, model.ErrValidationFailed)
	}
	w.mu.Lock()
	w.hours = &hours
	w.mu.Unlock()
	return nil
}

func (w *Workflow) SetLessons(text string) {
	w.mu.Lock()
	w.lessons = text
	w.mu.Unlock()
}

// StageQuestion returns the pending business sequence question.
func (w *Workflow) StageQuestion() (SequenceQuestion, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sequence.Question()
}

// AnswerStage records a yes/no answer; once the stage is known it is returned.
func (w *Workflow) AnswerStage(yes bool) (BusinessStage, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sequence.Answer(yes)
}

func (w *Workflow) ResetStage() {
	w.mu.Lock()
	w.sequence.Reset()
	w.mu.Unlock()
}

func (w *Workflow) AddTomorrowTask(text string, projectID *string) (PendingTask, error) {
	return w.planner.Add(text, projectID)
}

func (w *Workflow) RemoveTomorrowTask(id string) bool {
	return w.planner.Remove(id)
}

// Submit writes tomorrow's non-negotiables, the reflection and today's plan as
// one unit. On failure nothing changes locally and the user can retry.
func (w *Workflow) Submit(ctx context.Context) (*model.DailyPlan, error) {
	if !w.gate.CanProceed() {
		return nil, fmt.Errorf("submit review: gate is %s: %w", w.gate.State(), ErrInvalidTransition)
	}

	w.mu.Lock()
	if w.step != StepPlanning {
		w.mu.Unlock()
		return nil, fmt.Errorf("submit review: at step %s: %w", w.step, ErrInvalidTransition)
	}
	stage := w.sequence.Stage()
	sub := service.ReviewSubmission{
		Day:           w.today.Date,
		HoursWorked:   w.hours,
		Lessons:       w.lessons,
		BusinessStage: string(stage),
		PriorityTask:  PriorityTask(stage),
	}
	w.mu.Unlock()

	for _, entry := range w.planner.Entries() {
		sub.Tasks = append(sub.Tasks, service.PlannedTask{Text: entry.Text, ProjectID: entry.ProjectID})
	}

	plan, err := w.items.SubmitReview(ctx, w.userID, sub)
	if err != nil {
		return nil, err
	}

	w.planner.Clear()
	w.mu.Lock()
	w.submitted = true
	w.mu.Unlock()
	w.gate.Close()
	return plan, nil
}

// Close stops the gate's countdowns.
func (w *Workflow) Close() {
	w.gate.Close()
}
