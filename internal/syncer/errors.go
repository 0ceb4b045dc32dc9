package syncer

import "errors"

// ErrNothingToUpdate means no dataset could be resolved for a channel:
// no explicit target, no stored binding, no recognizable header in the
// recent channel history.
var ErrNothingToUpdate = errors.New("no dataset is associated with this channel")

// StateError marks a channel that exists but cannot be synchronized:
// archived or locked thread, unsupported channel kind. Terminal for the
// request, no partial side effects.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string { return "channel not syncable: " + e.Reason }

// ClearError wraps a failure during the clear step. Clearing failures
// are terminal for the channel: a partially cleared channel must not be
// overwritten with a duplicate render.
type ClearError struct {
	Err error
}

func (e *ClearError) Error() string { return "clearing channel failed: " + e.Err.Error() }
func (e *ClearError) Unwrap() error { return e.Err }
