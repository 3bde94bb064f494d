package models

import "fmt"

type Status string

const (
	StatusPending    Status = "pending"
	StatusDispatched Status = "dispatched"
	StatusDone       Status = "done"
	StatusMissed     Status = "missed"
)

// transitions lists the only legal moves. done and missed are terminal.
// A dispatched reminder is never moved to missed; it waits for the user.
var transitions = map[Status][]Status{
	StatusPending:    {StatusDispatched, StatusMissed, StatusDone},
	StatusDispatched: {StatusDone},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusDispatched, StatusDone, StatusMissed:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusMissed
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a status change and returns the new status, or a
// *TransitionError wrapping ErrInvalidTransition.
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, &TransitionError{From: from, To: to}
	}
	return to, nil
}

type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: reminder is %s, cannot become %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
