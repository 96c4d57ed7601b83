package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"daily-review/internal/model"
	"daily-review/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Text            string
	DueDate         *time.Time
	IsNonNegotiable bool
	Priority        string
	ProjectID       *string
	TimeEstimate    *int
}

// HabitInput represents data required to create a habit.
type HabitInput struct {
	Name            string
	Frequency       model.Frequency
	IsNonNegotiable bool
	Priority        string
	TimeEstimate    *int
}

// PlannedTask is one non-negotiable chosen for tomorrow.
type PlannedTask struct {
	Text      string
	ProjectID *string
}

// ReviewSubmission is everything written when a daily review is finished.
// Day is the reviewed calendar day; the plan is keyed to it and the tasks are
// due the day after. A zero Day means today.
type ReviewSubmission struct {
	Day           time.Time
	Tasks         []PlannedTask
	HoursWorked   *float64
	Lessons       string
	BusinessStage string
	PriorityTask  string
}

// ItemService wraps task, habit and project logic for one store.
type ItemService struct {
	store *repository.Store
	loc   *time.Location
	now   func() time.Time
}

func NewItemService(store *repository.Store, loc *time.Location) *ItemService {
	if loc == nil {
		loc = time.Local
	}
	return &ItemService{store: store, loc: loc, now: time.Now}
}

// Location is the timezone calendar days are computed in.
func (s *ItemService) Location() *time.Location {
	return s.loc
}

func (s *ItemService) clock() time.Time {
	return s.now().In(s.loc)
}

// Today aggregates everything due for the user today.
func (s *ItemService) Today(ctx context.Context, userID string) (Today, error) {
	tasks, err := s.store.Tasks.List(ctx, userID)
	if err != nil {
		return Today{}, err
	}
	habits, err := s.store.Habits.List(ctx, userID)
	if err != nil {
		return Today{}, err
	}
	return Aggregate(tasks, habits, s.clock()), nil
}

func (s *ItemService) CreateTask(ctx context.Context, userID string, input TaskInput) (*model.Task, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, fmt.Errorf("create task: text is required: %w", model.ErrValidationFailed)
	}
	if input.ProjectID != nil {
		if _, err := s.store.Projects.GetByID(ctx, userID, *input.ProjectID); err != nil {
			return nil, err
		}
	}
	return s.store.Tasks.Create(ctx, userID, repository.TaskFields{
		Text:            input.Text,
		DueDate:         input.DueDate,
		IsNonNegotiable: input.IsNonNegotiable,
		Priority:        model.ParsePriority(input.Priority),
		ProjectID:       input.ProjectID,
		TimeEstimate:    input.TimeEstimate,
	})
}

func (s *ItemService) ListTasks(ctx context.Context, userID string) ([]model.Task, error) {
	return s.store.Tasks.List(ctx, userID)
}

// SetTaskCompleted flips the task status; every other field is preserved.
func (s *ItemService) SetTaskCompleted(ctx context.Context, userID, taskID string, completed bool) error {
	status := model.TaskActive
	if completed {
		status = model.TaskCompleted
	}
	_, err := s.store.Tasks.SetStatus(ctx, userID, taskID, status)
	return err
}

// TaskEdit changes some fields of a task; nil fields are kept.
// Marking a task non-negotiable also makes it important.
type TaskEdit struct {
	Text            *string
	DueDate         *time.Time
	ClearDueDate    bool
	IsNonNegotiable *bool
	Priority        *string
	ProjectID       *string
	ClearProject    bool
}

// Task returns one of the user's tasks.
func (s *ItemService) Task(ctx context.Context, userID, taskID string) (*model.Task, error) {
	return s.store.Tasks.FindByID(ctx, userID, taskID)
}

// UpdateTask applies edit to the task; status and creation time are kept.
func (s *ItemService) UpdateTask(ctx context.Context, userID, taskID string, edit TaskEdit) (*model.Task, error) {
	patch := repository.TaskPatch{
		DueDate:         edit.DueDate,
		ClearDueDate:    edit.ClearDueDate,
		IsNonNegotiable: edit.IsNonNegotiable,
		ProjectID:       edit.ProjectID,
		ClearProject:    edit.ClearProject,
	}
	if edit.Text != nil {
		text := strings.TrimSpace(*edit.Text)
		if text == "" {
			return nil, fmt.Errorf("update task: text is required: %w", model.ErrValidationFailed)
		}
		patch.Text = &text
	}
	if edit.Priority != nil {
		priority := model.ParsePriority(*edit.Priority)
		patch.Priority = &priority
	}
	if edit.IsNonNegotiable != nil && *edit.IsNonNegotiable {
		priority := model.PriorityImportant
		patch.Priority = &priority
	}
	if edit.ProjectID != nil && !edit.ClearProject {
		if _, err := s.store.Projects.GetByID(ctx, userID, *edit.ProjectID); err != nil {
			return nil, err
		}
	}
	return s.store.Tasks.Update(ctx, userID, taskID, patch)
}

// DeleteTask removes a task completely.
func (s *ItemService) DeleteTask(ctx context.Context, userID, taskID string) error {
	return s.store.Tasks.Delete(ctx, userID, taskID)
}

func (s *ItemService) CreateHabit(ctx context.Context, userID string, input HabitInput) (*model.Habit, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("create habit: name is required: %w", model.ErrValidationFailed)
	}
	for _, day := range input.Frequency.DaysOfWeek {
		if day < 0 || day > 6 {
			return nil, fmt.Errorf("create habit: day %d out of range: %w", day, model.ErrValidationFailed)
		}
	}
	return s.store.Habits.Create(ctx, userID, repository.HabitFields{
		Name:            input.Name,
		Frequency:       input.Frequency,
		IsNonNegotiable: input.IsNonNegotiable,
		Priority:        model.ParsePriority(input.Priority),
		TimeEstimate:    input.TimeEstimate,
	})
}

func (s *ItemService) ListHabits(ctx context.Context, userID string) ([]model.Habit, error) {
	return s.store.Habits.List(ctx, userID)
}

// SetHabitCompleted adds or removes today's completion and recomputes the streak.
func (s *ItemService) SetHabitCompleted(ctx context.Context, userID, habitID string, completed bool) error {
	habit, err := s.store.Habits.FindByID(ctx, userID, habitID)
	if err != nil {
		return err
	}
	now := s.clock()
	completions := model.WithoutCompletion(habit.Completions, now)
	if completed {
		completions = model.WithCompletion(habit.Completions, now)
	}
	_, err = s.store.Habits.UpdateCompletions(ctx, userID, habitID, completions, s.loc)
	return err
}

func (s *ItemService) DeleteHabit(ctx context.Context, userID, habitID string) error {
	return s.store.Habits.Delete(ctx, userID, habitID)
}

func (s *ItemService) CreateProject(ctx context.Context, userID, name, color string) (*model.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("create project: name is required: %w", model.ErrValidationFailed)
	}
	return s.store.Projects.Create(ctx, userID, name, color)
}

func (s *ItemService) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	return s.store.Projects.ListByUser(ctx, userID)
}

// DeleteProject removes the project and unlinks its tasks.
func (s *ItemService) DeleteProject(ctx context.Context, userID, projectID string) error {
	return s.store.Projects.Delete(ctx, userID, projectID)
}

// SubmitReview writes tomorrow's tasks, the logs and today's plan in one transaction.
func (s *ItemService) SubmitReview(ctx context.Context, userID string, sub ReviewSubmission) (*model.DailyPlan, error) {
	day := sub.Day
	if day.IsZero() {
		day = s.clock()
	}
	today := model.StartOfDay(day, s.loc)
	tomorrow := today.AddDate(0, 0, 1)
	date := model.DayKey(today, s.loc)

	var plan *model.DailyPlan
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		plan = &model.DailyPlan{
			UserID:         userID,
			Date:           date,
			IsComplete:     true,
			NonNegotiables: make([]model.PlanItem, 0, len(sub.Tasks)),
			BusinessStage:  sub.BusinessStage,
			PriorityTask:   sub.PriorityTask,
		}
		for _, planned := range sub.Tasks {
			task, err := tx.Tasks.CreateNonNegotiable(ctx, userID, planned.Text, tomorrow, planned.ProjectID)
			if err != nil {
				return err
			}
			plan.NonNegotiables = append(plan.NonNegotiables, model.PlanItem{
				ID:    task.ID,
				Title: task.Text,
				Type:  string(KindTask),
			})
		}
		if sub.HoursWorked != nil {
			if err := tx.Plans.LogWork(ctx, userID, date, *sub.HoursWorked); err != nil {
				return err
			}
		}
		if strings.TrimSpace(sub.Lessons) != "" {
			if err := tx.Plans.LogLessons(ctx, userID, date, sub.Lessons); err != nil {
				return err
			}
		}
		return tx.Plans.Upsert(ctx, plan)
	})
	if err != nil {
		return nil, fmt.Errorf("submit review: %w", err)
	}
	return plan, nil
}

// Plan returns the stored plan for a date, if any.
func (s *ItemService) Plan(ctx context.Context, userID string, day time.Time) (*model.DailyPlan, error) {
	return s.store.Plans.Get(ctx, userID, model.DayKey(day, s.loc))
}
