package background

import (
	"errors"
	"fmt"
)

// ErrApprovalRequired is returned (or wrapped) by a handler that hit an
// interactive approval gate while running detached. There is no channel to
// prompt the user from a background goroutine, so the scheduler converts it
// into a failed task whose message tells the model to retry through the
// blocking wait path instead.
var ErrApprovalRequired = errors.New("interactive approval required")

// DuplicateTaskError reports an attempt to track an id that is already live.
// This is caller misuse, not a runtime condition: it is surfaced, never
// swallowed.
type DuplicateTaskError struct {
	ID string
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("task %q is already tracked and not terminal", e.ID)
}

// UnknownTaskError reports an operation on an id that was never launched.
type UnknownTaskError struct {
	ID string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("no task with id %q", e.ID)
}

// AlreadyTerminalError reports a double completion of the same task. It
// indicates a scheduler invariant violation and must surface loudly.
type AlreadyTerminalError struct {
	ID     string
	Status Status
}

func (e *AlreadyTerminalError) Error() string {
	return fmt.Sprintf("task %q is already terminal (%s)", e.ID, e.Status)
}
