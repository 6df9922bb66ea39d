package rotation

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	errNotDir   = errors.New("exists and is not a directory")
	errOccupied = errors.New("target slot already occupied")
)

// ErrStale is wrapped when generations above the retention count exist and
// pruning was not requested.
var ErrStale = errors.New("stale generations above retention count")

func staleError(names []string) error {
	return errors.Wrapf(ErrStale, "%s (enable pruneStale or remove them by hand)", strings.Join(names, ", "))
}

func errRetention(r int) error {
	return errors.Errorf("retention must be >= 1, got %d", r)
}

// Error reports a failed rotation step. Shifted lists the indices already
// moved up when the failure happened, so an operator can tell how far the
// chain got; a non-empty Shifted means the destination is inconsistent.
type Error struct {
	Op      string
	Path    string
	Shifted []int
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("rotation %s %s: %v", e.Op, e.Path, e.Err)
	if len(e.Shifted) > 0 {
		msg += fmt.Sprintf(" (already shifted: %s)", shiftedString(e.Shifted))
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }
