package execer

import (
	"context"
	"fmt"
	"os/exec"
	"syscall"

	"github.com/pkg/errors"
)

type osExecer struct{}

// NewOSExecer returns an Execer backed by os/exec. Cancelling ctx kills the
// child; the status then reports the signal.
func NewOSExecer() Execer {
	return osExecer{}
}

func (osExecer) Exec(ctx context.Context, command Command) (Process, error) {
	if len(command.Argv) == 0 {
		return nil, errors.New("no command specified")
	}

	cmd := exec.CommandContext(ctx, command.Argv[0], command.Argv[1:]...)
	cmd.Dir = command.Dir
	cmd.Stdout = command.Stdout
	cmd.Stderr = command.Stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &process{cmd: cmd}, nil
}

type process struct {
	cmd *exec.Cmd
}

// Wait for the process to finish.
// A normal exit, zero or not, is COMPLETE with the exit code. Death by signal
// is COMPLETE with exit code 128+signal, the shell convention. Anything that
// prevents reading an exit status is FAILED.
func (p *process) Wait() ProcessStatus {
	err := p.cmd.Wait()
	if err == nil {
		return ProcessStatus{State: COMPLETE, ExitCode: 0}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return ProcessStatus{
				State:    COMPLETE,
				ExitCode: 128 + int(status.Signal()),
				Error:    fmt.Sprintf("killed by %v", status.Signal()),
			}
		}
		return ProcessStatus{State: COMPLETE, ExitCode: exitErr.ExitCode()}
	}

	return ProcessStatus{State: FAILED, ExitCode: -1, Error: err.Error()}
}
