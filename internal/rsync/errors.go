package rsync

import (
	"fmt"
	"strings"
)

// Error is a failed copy: either the utility could not be started (Launch)
// or it exited with a nonzero status.
type Error struct {
	Argv     []string
	Launch   bool
	ExitCode int
	Stderr   string // tail of the utility's stderr
	Err      error
}

func (e *Error) Error() string {
	cmd := strings.Join(e.Argv, " ")
	if e.Launch {
		return fmt.Sprintf("launching %q: %v", cmd, e.Err)
	}

	msg := fmt.Sprintf("%q exited with status %d", cmd, e.ExitCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }
