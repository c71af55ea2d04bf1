package timer

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a command is not valid in the
// current phase.
type ErrInvalidTransition struct {
	Op    string
	Phase Phase
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Op, e.Phase)
}

var (
	// ErrOpenPending is returned while a start waits on the ledger.
	ErrOpenPending = errors.New("session open already in progress")

	// ErrNoSubject is returned by Start without a subject.
	ErrNoSubject = errors.New("no subject selected")
)
