// Package fake provides Execers for tests: one that scripts outcomes and one
// that simulates rsync's --link-dest copy in-process.
package fake

import (
	"context"
	"io"
	"sync"

	"github.com/raoulx24/snaprotate/internal/execer"
)

// Execer records every command and answers with a scripted outcome.
// LaunchErr makes Exec fail as if the binary were missing. Otherwise Run,
// when set, decides the status; else Status is returned as-is.
type Execer struct {
	mu       sync.Mutex
	commands []execer.Command

	LaunchErr error
	Status    execer.ProcessStatus
	Stdout    string
	Stderr    string
	Run       func(cmd execer.Command) execer.ProcessStatus
}

func (e *Execer) Exec(_ context.Context, cmd execer.Command) (execer.Process, error) {
	e.mu.Lock()
	e.commands = append(e.commands, cmd)
	e.mu.Unlock()

	if e.LaunchErr != nil {
		return nil, e.LaunchErr
	}

	if e.Stdout != "" && cmd.Stdout != nil {
		_, _ = io.WriteString(cmd.Stdout, e.Stdout)
	}
	if e.Stderr != "" && cmd.Stderr != nil {
		_, _ = io.WriteString(cmd.Stderr, e.Stderr)
	}

	status := e.Status
	if e.Run != nil {
		status = e.Run(cmd)
	}
	return done(status), nil
}

// Commands returns what was executed so far.
func (e *Execer) Commands() []execer.Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]execer.Command(nil), e.commands...)
}

type done execer.ProcessStatus

func (d done) Wait() execer.ProcessStatus { return execer.ProcessStatus(d) }
