package review

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"daily-review/internal/model"
)

// MaxTomorrowTasks caps the non-negotiables planned for the next day.
const MaxTomorrowTasks = 3

// ErrPlanFull is returned when MaxTomorrowTasks are already pending.
var ErrPlanFull = errors.New("plan is full")

// PendingTask is a planned task not yet written to the store.
type PendingTask struct {
	ID        string
	Text      string
	ProjectID *string
}

// Planner holds the pending list for tomorrow. Nothing is written until submit.
type Planner struct {
	mu      sync.Mutex
	entries []PendingTask
	seq     int
}

func NewPlanner() *Planner {
	return &Planner{}
}

// Add appends a pending task. Empty text or a full list is rejected without side effects.
func (p *Planner) Add(text string, projectID *string) (PendingTask, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return PendingTask{}, fmt.Errorf("add task for tomorrow: text is required: %w", model.ErrValidationFailed)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.entries) >= MaxTomorrowTasks {
		return PendingTask{}, fmt.Errorf("add task for tomorrow: at most %d tasks: %w: %w", MaxTomorrowTasks, ErrPlanFull, model.ErrValidationFailed)
	}
	p.seq++
	entry := PendingTask{ID: strconv.Itoa(p.seq), Text: text, ProjectID: projectID}
	p.entries = append(p.entries, entry)
	return entry, nil
}

// Remove drops a pending entry; it reports whether one was found.
func (p *Planner) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, entry := range p.entries {
		if entry.ID == id {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Planner) Entries() []PendingTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PendingTask(nil), p.entries...)
}

func (p *Planner) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Clear empties the pending list after a successful submit.
func (p *Planner) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = nil
}
