package conversation

import "errors"

// State represents the lifecycle state of a conversation.
type State string

const (
	StateActive         State = "active"
	StateWaitingForUser State = "waiting_for_user"
	StateEscalated      State = "escalated"
	StateCompleted      State = "completed"
	StateAbandoned      State = "abandoned"
)

// ErrInvalidTransition is returned when a state transition is not allowed.
var ErrInvalidTransition = errors.New("invalid state transition")

// ValidTransitions defines the allowed state transitions.
var ValidTransitions = map[State][]State{
	StateActive: {
		StateWaitingForUser,
		StateEscalated,
		StateCompleted,
		StateAbandoned,
	},
	StateWaitingForUser: {
		StateActive,
		StateEscalated,
		StateCompleted,
		StateAbandoned,
	},
	StateEscalated: {
		StateActive,
		StateCompleted,
		StateAbandoned,
	},
	StateCompleted: {},
	StateAbandoned: {},
}

// CanTransitionTo checks if a transition to the target state is valid.
func (s State) CanTransitionTo(target State) bool {
	allowed, exists := ValidTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionTo returns the new state if the transition is valid.
func (s State) TransitionTo(target State) (State, error) {
	if !s.CanTransitionTo(target) {
		return s, ErrInvalidTransition
	}
	return target, nil
}

// IsTerminal reports whether the state is final.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateAbandoned
}

// IsActive reports whether the conversation still accepts messages.
func (s State) IsActive() bool {
	return !s.IsTerminal()
}

// IsValid reports whether the value is a known state.
func (s State) IsValid() bool {
	_, exists := ValidTransitions[s]
	return exists
}
