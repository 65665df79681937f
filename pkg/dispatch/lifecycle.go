package dispatch

import (
	"errors"
	"fmt"
)

// transitions is the closed lifecycle of an event:
// pending -> processing -> {sent | failed}. A pending event may also complete
// directly when it turns out there is nobody to notify, or fail if the breaker
// trips on its first touch.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusSent, StatusFailed},
	StatusProcessing: {StatusSent, StatusFailed},
	StatusSent:       nil,
	StatusFailed:     nil,
}

// TransitionError is returned when a status change is not part of the lifecycle.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("no transition available from status '%s' to '%s'", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }

// IsTransitionError reports whether err was caused by a rejected status change.
func IsTransitionError(err error) bool {
	var e *TransitionError
	return errors.As(err, &e)
}

// CanTransition reports whether an event in status from may move to status to.
// Re-entering the current status is always allowed and is a no-op.
func CanTransition(from, to Status) bool {
	if from == to {
		_, known := transitions[from]
		return known
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a status change and returns the resulting status.
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, &TransitionError{From: from, To: to}
	}
	return to, nil
}
