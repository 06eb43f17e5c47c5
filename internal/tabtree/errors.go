package tabtree

import (
	"errors"
	"fmt"
)

var (
	// ErrCycleDetected marks a parent chain that loops, or a drop onto the
	// dragged tab's own subtree.
	ErrCycleDetected = errors.New("tabtree: cycle detected")
	// ErrOrphanReference marks a parent id that does not resolve in scope.
	ErrOrphanReference = errors.New("tabtree: orphan parent reference")
	// ErrOrderCollision marks siblings sharing an ordering key.
	ErrOrderCollision = errors.New("tabtree: order collision")
	// ErrMutationConflict is returned when persistence rejects an apply.
	ErrMutationConflict = errors.New("tabtree: mutation conflict")

	ErrSelfDrop         = errors.New("tabtree: tab dropped onto itself")
	ErrUnchanged        = errors.New("tabtree: tab already at drop position")
	ErrUnknownTab       = errors.New("tabtree: unknown tab")
	ErrUnknownContainer = errors.New("tabtree: unknown container")
	ErrDepthExceeded    = errors.New("tabtree: maximum depth exceeded")
)

// Diagnostic reports a data-integrity problem that was recovered locally.
type Diagnostic struct {
	Err    error
	TabID  string
	Detail string
}

func (d Diagnostic) Error() string {
	if d.Detail == "" {
		return fmt.Sprintf("%v (tab %s)", d.Err, d.TabID)
	}
	return fmt.Sprintf("%v (tab %s): %s", d.Err, d.TabID, d.Detail)
}

func (d Diagnostic) Unwrap() error { return d.Err }
