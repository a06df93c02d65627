// Package orchestrator coordinates encoding, prompt composition, generation
// and storage into the creation lifecycle state machine.
package orchestrator

import (
	"errors"
	"fmt"

	"github.com/appforge-labs/appforge/internal/domain"
)

// Phase enumerates the machine states of the generation lifecycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseGenerating Phase = "generating"
	PhaseActive     Phase = "active"
)

// State is the full machine state. Active is non-nil exactly when the phase
// is PhaseActive.
type State struct {
	Phase  Phase
	Active *domain.Creation
}

// EventKind tags the events that drive state transitions.
type EventKind string

const (
	EventSubmit  EventKind = "submit"
	EventSuccess EventKind = "success"
	EventFailure EventKind = "failure"
	EventReset   EventKind = "reset"
	EventSelect  EventKind = "select"
	EventImport  EventKind = "import"
)

// Event drives a state transition.
type Event struct {
	Kind     EventKind
	Creation *domain.Creation // set for success, select and import
}

var (
	// ErrGenerationInFlight rejects a submit while a generation is running.
	// At most one session may be in flight; the second trigger is refused,
	// never queued.
	ErrGenerationInFlight = errors.New("a generation is already in flight")

	// ErrInvalidTransition rejects an event the current state cannot accept.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrUnknownCreation rejects a select for an id not in the collection.
	ErrUnknownCreation = errors.New("unknown creation")
)

// Apply is the pure transition function. It performs no I/O, so every
// transition can be verified without storage or network side effects.
func Apply(s State, e Event) (State, error) {
	switch e.Kind {
	case EventSubmit:
		if s.Phase == PhaseGenerating {
			return s, ErrGenerationInFlight
		}
		// The active creation is cleared before the first suspension so the
		// surface never shows stale content while a session is in flight.
		return State{Phase: PhaseGenerating}, nil

	case EventSuccess:
		if s.Phase != PhaseGenerating {
			return s, fmt.Errorf("%w: success in %s", ErrInvalidTransition, s.Phase)
		}
		if e.Creation == nil {
			return s, fmt.Errorf("%w: success without a creation", ErrInvalidTransition)
		}
		return State{Phase: PhaseActive, Active: e.Creation}, nil

	case EventFailure:
		if s.Phase != PhaseGenerating {
			return s, fmt.Errorf("%w: failure in %s", ErrInvalidTransition, s.Phase)
		}
		return State{Phase: PhaseIdle}, nil

	case EventReset:
		if s.Phase == PhaseGenerating {
			return s, fmt.Errorf("%w: reset while generating", ErrInvalidTransition)
		}
		return State{Phase: PhaseIdle}, nil

	case EventSelect, EventImport:
		if s.Phase == PhaseGenerating {
			return s, fmt.Errorf("%w: %s while generating", ErrInvalidTransition, e.Kind)
		}
		if e.Creation == nil {
			return s, fmt.Errorf("%w: %s without a creation", ErrInvalidTransition, e.Kind)
		}
		return State{Phase: PhaseActive, Active: e.Creation}, nil

	default:
		return s, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, e.Kind)
	}
}
