package service

import (
	"sort"
	"time"

	"daily-review/internal/model"
)

// ItemKind tells tasks and habits apart in the today list.
type ItemKind string

const (
	KindTask  ItemKind = "task"
	KindHabit ItemKind = "habit"
)

// DueItem is a task or habit due today.
type DueItem struct {
	ID              string
	Kind            ItemKind
	Text            string
	IsNonNegotiable bool
	Priority        model.Priority
	IsCompleted     bool
	TimeEstimate    *int
}

// Today is the aggregated view of one calendar day.
type Today struct {
	Date           time.Time
	Items          []DueItem
	NonNegotiables []DueItem
	Others         []DueItem
}

// Aggregate merges tasks due today and habits scheduled today, in now's location.
// Tasks without a due date are never due today.
func Aggregate(tasks []model.Task, habits []model.Habit, now time.Time) Today {
	loc := now.Location()
	start := model.StartOfDay(now, loc)
	end := start.AddDate(0, 0, 1)

	items := make([]DueItem, 0, len(tasks)+len(habits))
	for _, task := range tasks {
		if task.DueDate == nil {
			continue
		}
		due := task.DueDate.In(loc)
		if due.Before(start) || !due.Before(end) {
			continue
		}
		items = append(items, DueItem{
			ID:              task.ID,
			Kind:            KindTask,
			Text:            task.Text,
			IsNonNegotiable: task.IsNonNegotiable,
			Priority:        model.ParsePriority(string(task.Priority)),
			IsCompleted:     task.IsCompleted(),
			TimeEstimate:    task.TimeEstimate,
		})
	}
	for _, habit := range habits {
		if !habit.Frequency.ScheduledOn(start.Weekday()) {
			continue
		}
		items = append(items, DueItem{
			ID:              habit.ID,
			Kind:            KindHabit,
			Text:            habit.Name,
			IsNonNegotiable: habit.IsNonNegotiable,
			Priority:        model.ParsePriority(string(habit.Priority)),
			IsCompleted:     model.CompletedOn(habit.Completions, now),
			TimeEstimate:    habit.TimeEstimate,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsNonNegotiable != items[j].IsNonNegotiable {
			return items[i].IsNonNegotiable
		}
		return items[i].Priority.Rank() < items[j].Priority.Rank()
	})

	return partition(start, items)
}

// NewToday partitions already sorted items.
func NewToday(date time.Time, items []DueItem) Today {
	return partition(date, items)
}

func partition(date time.Time, items []DueItem) Today {
	today := Today{Date: date, Items: items}
	for _, item := range items {
		if item.IsNonNegotiable {
			today.NonNegotiables = append(today.NonNegotiables, item)
		} else {
			today.Others = append(today.Others, item)
		}
	}
	return today
}

// WithItem returns a copy of t with the item of the same id replaced.
func (t Today) WithItem(updated DueItem) Today {
	items := make([]DueItem, len(t.Items))
	for i, item := range t.Items {
		if item.ID == updated.ID && item.Kind == updated.Kind {
			item = updated
		}
		items[i] = item
	}
	return partition(t.Date, items)
}

// Find looks an item up by id.
func (t Today) Find(id string) (DueItem, bool) {
	for _, item := range t.Items {
		if item.ID == id {
			return item, true
		}
	}
	return DueItem{}, false
}

// AllNonNegotiablesComplete is vacuously true when there are no non-negotiables.
func (t Today) AllNonNegotiablesComplete() bool {
	for _, item := range t.NonNegotiables {
		if !item.IsCompleted {
			return false
		}
	}
	return true
}

// Visible filters out completed items when hideCompleted is set.
func Visible(items []DueItem, hideCompleted bool) []DueItem {
	if !hideCompleted {
		return items
	}
	out := make([]DueItem, 0, len(items))
	for _, item := range items {
		if !item.IsCompleted {
			out = append(out, item)
		}
	}
	return out
}
