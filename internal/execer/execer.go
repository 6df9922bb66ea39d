// Package execer runs one external command with an explicit argv and reports
// how it ended. It knows nothing about rsync or snapshots.
package execer

import (
	"context"
	"io"
)

// Command is an argv plus where its output goes. Argv is passed to the
// process as-is; there is no shell.
type Command struct {
	Argv   []string
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

type ProcessState int

const (
	UNKNOWN ProcessState = iota
	COMPLETE
	FAILED
)

func (s ProcessState) String() string {
	switch s {
	case COMPLETE:
		return "complete"
	case FAILED:
		return "failed"
	default:
		return "unknown"
	}
}

// ProcessStatus is COMPLETE with an exit code when the process ran to an
// exit status, FAILED with Error when no exit status could be obtained.
type ProcessStatus struct {
	State    ProcessState
	ExitCode int
	Error    string
}

func (s ProcessStatus) Success() bool {
	return s.State == COMPLETE && s.ExitCode == 0
}

// Execer starts commands. Exec returns an error only when the process could
// not be started at all.
type Execer interface {
	Exec(ctx context.Context, command Command) (Process, error)
}

type Process interface {
	Wait() ProcessStatus
}
