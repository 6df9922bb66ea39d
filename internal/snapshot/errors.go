package snapshot

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrAlreadyExecuted is returned by Execute on a Set that has left Idle.
// Build a new Set to run again; it re-reads the generations from disk.
var ErrAlreadyExecuted = errors.New("snapshot set already executed")

type Kind int

const (
	RotationFailed Kind = iota + 1
	SyncFailed
)

func (k Kind) String() string {
	switch k {
	case RotationFailed:
		return "rotation failed"
	case SyncFailed:
		return "sync failed"
	default:
		return "unknown failure"
	}
}

// Error is the fatal outcome of a run. Err is a *rotation.Error for
// RotationFailed and an *rsync.Error for SyncFailed.
type Error struct {
	Kind Kind
	Set  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("snapshot %s: %s: %v", e.Set, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a snapshot Error of kind k.
func IsKind(err error, k Kind) bool {
	var serr *Error
	return errors.As(err, &serr) && serr.Kind == k
}
