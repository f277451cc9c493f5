package beadstore

import (
	"errors"
	"fmt"
)

// Sentinel errors for the conditions callers branch on.
var (
	// ErrStoreUnavailable means the bd CLI is not installed or not on PATH.
	ErrStoreUnavailable = errors.New("bead store CLI not available")

	// ErrNotFound means the bead id does not resolve in the given
	// working-directory context.
	ErrNotFound = errors.New("bead not found")

	// ErrAlreadyClosed means Close was called on an already-closed bead.
	// Non-fatal: the close reason is still recorded.
	ErrAlreadyClosed = errors.New("bead already closed")
)

// CommandError reports a non-zero exit or unparsable response from the
// backing store CLI.
type CommandError struct {
	Op     string // operation attempted (create, show, update, close)
	ID     string // bead id, if known
	Detail string // stderr or parse failure detail
}

func (e *CommandError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("bd %s %s: %s", e.Op, e.ID, e.Detail)
	}
	return fmt.Sprintf("bd %s: %s", e.Op, e.Detail)
}
