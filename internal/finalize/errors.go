package finalize

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("contest not found")
	ErrAlreadyFinalized = errors.New("contest is already finalized")
	ErrContestNotEnded  = errors.New("contest has not ended yet")
	// ErrInvariant marks scoring input that cannot be scored faithfully, such as
	// a submission for a problem that no longer exists.
	ErrInvariant = errors.New("finalization invariant violated")
	// ErrRatingConflict means a participant's rating changed after it was read.
	ErrRatingConflict = errors.New("participant rating changed concurrently")
)

// PersistenceError reports a commit that did not complete. Nothing from the
// failed commit is visible and the contest is still unfinalized, so the whole
// finalize call may be retried.
type PersistenceError struct {
	ContestID string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting finalization of contest %s: %v", e.ContestID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
