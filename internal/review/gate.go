package review

import (
	"errors"
	"sync"
	"time"
)

// ErrInvalidTransition is returned when an action does not apply to the current gate state.
var ErrInvalidTransition = errors.New("invalid transition")

const (
	// AmbientDuration is the motivational countdown shown while non-negotiables are open.
	AmbientDuration = 30 * time.Minute
	// FocusDuration is the final focus session forced before an override.
	FocusDuration = 5 * time.Minute
)

type State int

const (
	StateReviewing State = iota
	StateIncomplete
	StateAllComplete
	StateWarningStep1
	StateWarningStep2
	StateFinalFocusSession
	StateFocusSessionComplete
	StateAllowedToProceed
)

func (s State) String() string {
	switch s {
	case StateReviewing:
		return "reviewing"
	case StateIncomplete:
		return "incomplete"
	case StateAllComplete:
		return "all_complete"
	case StateWarningStep1:
		return "warning_step_1"
	case StateWarningStep2:
		return "warning_step_2"
	case StateFinalFocusSession:
		return "final_focus_session"
	case StateFocusSessionComplete:
		return "focus_session_complete"
	case StateAllowedToProceed:
		return "allowed_to_proceed"
	default:
		return "unknown"
	}
}

// DialogOpen reports whether the warning dialog is showing in this state.
func (s State) DialogOpen() bool {
	switch s {
	case StateWarningStep1, StateWarningStep2, StateFinalFocusSession, StateFocusSessionComplete:
		return true
	}
	return false
}

// Transition is one state change reported to the change hook.
type Transition struct {
	From, To State
}

// Gate decides whether the user may leave the check step of the review.
// It moves on user actions and on expiry of its two countdowns.
type Gate struct {
	mu             sync.Mutex
	state          State
	complete       bool
	ambientStarted bool
	ambient        *Countdown
	focus          *Countdown
	onChange       func(Transition)
}

// NewGate returns a gate in StateReviewing. onChange, if set, is called after
// every transition outside the gate's lock, possibly from a timer goroutine.
func NewGate(clock Clock, onChange func(Transition)) *Gate {
	g := &Gate{state: StateReviewing, onChange: onChange}
	g.ambient = NewCountdown(AmbientDuration, clock, g.ambientExpired)
	g.focus = NewCountdown(FocusDuration, clock, g.focusExpired)
	return g
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// CanProceed is true only when every non-negotiable is done or an override completed.
func (g *Gate) CanProceed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return canProceed(g.state)
}

func canProceed(s State) bool {
	return s == StateAllComplete || s == StateAllowedToProceed
}

// Evaluate feeds the current completion status of today's non-negotiables.
func (g *Gate) Evaluate(allComplete bool) State {
	g.mu.Lock()
	g.complete = allComplete
	changes := g.evaluateLocked()
	state := g.state
	g.mu.Unlock()

	g.notify(changes)
	return state
}

// Continue is the user asking to move past the check step. It reports whether
// the gate lets them through; from Incomplete it opens the first warning.
func (g *Gate) Continue() (bool, error) {
	g.mu.Lock()
	var changes []Transition
	var err error
	proceed := false
	switch g.state {
	case StateAllComplete, StateAllowedToProceed:
		proceed = true
	case StateIncomplete:
		changes = g.setLocked(StateWarningStep1)
	default:
		err = ErrInvalidTransition
	}
	g.mu.Unlock()

	g.notify(changes)
	return proceed, err
}

// KeepWorking dismisses the current warning.
func (g *Gate) KeepWorking() error {
	g.mu.Lock()
	var changes []Transition
	var err error
	switch g.state {
	case StateWarningStep1:
		changes = g.setLocked(StateIncomplete)
	case StateWarningStep2:
		changes = g.setLocked(StateReviewing)
		changes = append(changes, g.evaluateLocked()...)
	default:
		err = ErrInvalidTransition
	}
	g.mu.Unlock()

	g.notify(changes)
	return err
}

// SkipAnyway escalates the warning by exactly one stage.
func (g *Gate) SkipAnyway() error {
	g.mu.Lock()
	var changes []Transition
	var err error
	switch g.state {
	case StateWarningStep1:
		changes = g.setLocked(StateWarningStep2)
	case StateWarningStep2:
		changes = g.setLocked(StateFinalFocusSession)
	default:
		err = ErrInvalidTransition
	}
	g.mu.Unlock()

	g.notify(changes)
	return err
}

// ConfirmFocusComplete is the explicit click after the focus session ran out.
func (g *Gate) ConfirmFocusComplete() error {
	g.mu.Lock()
	var changes []Transition
	var err error
	if g.state == StateFocusSessionComplete {
		changes = g.setLocked(StateAllowedToProceed)
	} else {
		err = ErrInvalidTransition
	}
	g.mu.Unlock()

	g.notify(changes)
	return err
}

// Ambient returns the 30-minute countdown status.
func (g *Gate) Ambient() TimerStatus { return g.ambient.Status() }

// Focus returns the 5-minute countdown status.
func (g *Gate) Focus() TimerStatus { return g.focus.Status() }

// ToggleAmbient pauses or resumes the ambient countdown without touching the
// focus one. It only applies while the countdown belongs to an unfinished check.
func (g *Gate) ToggleAmbient() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.ambientStarted || canProceed(g.state) {
		return ErrInvalidTransition
	}
	g.ambient.Toggle()
	return nil
}

// ToggleFocus pauses or resumes the focus countdown.
func (g *Gate) ToggleFocus() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateFinalFocusSession {
		return ErrInvalidTransition
	}
	g.focus.Toggle()
	return nil
}

// Close stops both countdowns; no further expiry transitions happen.
func (g *Gate) Close() {
	g.ambient.Cancel()
	g.focus.Cancel()
}

func (g *Gate) evaluateLocked() []Transition {
	switch g.state {
	case StateAllowedToProceed:
		return nil
	case StateAllComplete:
		if !g.complete {
			return g.setLocked(StateIncomplete)
		}
		return nil
	case StateReviewing:
		if g.complete {
			return g.setLocked(StateAllComplete)
		}
		return g.setLocked(StateIncomplete)
	default:
		if g.complete {
			return g.setLocked(StateAllComplete)
		}
		return nil
	}
}

// setLocked moves to next and applies the countdown side effects of entering it.
func (g *Gate) setLocked(next State) []Transition {
	prev := g.state
	if prev == next {
		return nil
	}
	g.state = next

	switch next {
	case StateIncomplete:
		if !g.ambientStarted {
			g.ambientStarted = true
			g.ambient.Start()
		}
	case StateAllComplete:
		g.ambient.Reset()
		g.ambientStarted = false
		g.focus.Reset()
	case StateFinalFocusSession:
		g.focus.Reset()
		g.focus.Start()
	case StateAllowedToProceed:
		g.ambient.Cancel()
		g.focus.Cancel()
	}
	return []Transition{{From: prev, To: next}}
}

func (g *Gate) ambientExpired() {
	g.mu.Lock()
	var changes []Transition
	switch g.state {
	case StateIncomplete, StateWarningStep1, StateWarningStep2, StateFinalFocusSession, StateFocusSessionComplete:
		changes = g.setLocked(StateAllowedToProceed)
	}
	g.mu.Unlock()

	g.notify(changes)
}

func (g *Gate) focusExpired() {
	g.mu.Lock()
	var changes []Transition
	if g.state == StateFinalFocusSession {
		changes = g.setLocked(StateFocusSessionComplete)
	}
	g.mu.Unlock()

	g.notify(changes)
}

func (g *Gate) notify(changes []Transition) {
	if g.onChange == nil {
		return
	}
	for _, change := range changes {
		g.onChange(change)
	}
}
