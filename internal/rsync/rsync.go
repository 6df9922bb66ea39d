package rsync

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/raoulx24/snaprotate/internal/execer"
	"github.com/raoulx24/snaprotate/internal/logging"
)

const stderrTail = 4096

// Runner runs rsync through an Execer.
type Runner struct {
	exec   execer.Execer
	log    logging.Logger
	stdout io.Writer
	stderr io.Writer
}

// New creates a Runner. Utility output goes to the process stdout/stderr
// unless redirected with WithOutput.
func New(exec execer.Execer, log logging.Logger) *Runner {
	if exec == nil {
		exec = execer.NewOSExecer()
	}
	return &Runner{
		exec:   exec,
		log:    log,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// WithOutput redirects the utility's stdout and stderr.
func (r *Runner) WithOutput(stdout, stderr io.Writer) *Runner {
	r.stdout = stdout
	r.stderr = stderr
	return r
}

// Run executes one copy and returns a *Error for any failure, including a
// failure to start the utility or to open the log file.
func (r *Runner) Run(ctx context.Context, o Options) error {
	argv := Args(o)
	r.log.Debug("running rsync", "argv", argv)

	tail := newTailWriter(stderrTail)
	stdout := r.stdout
	stderr := io.MultiWriter(r.stderr, tail)

	if o.LogFile != "" {
		logf, err := os.OpenFile(o.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return &Error{Argv: argv, Launch: true, Err: errors.Wrap(err, "opening log file")}
		}
		defer logf.Close()

		sink := newLogSink(logf, o.LogFile, r.log)
		stdout = io.MultiWriter(stdout, sink)
		stderr = io.MultiWriter(stderr, sink)
	}

	proc, err := r.exec.Exec(ctx, execer.Command{
		Argv:   argv,
		Stdout: stdout,
		Stderr: stderr,
	})
	if err != nil {
		return &Error{Argv: argv, Launch: true, Err: err}
	}

	status := proc.Wait()
	if status.Success() {
		return nil
	}

	rerr := &Error{Argv: argv, ExitCode: status.ExitCode, Stderr: tail.String()}
	switch {
	case ctx.Err() != nil && status.Error != "":
		rerr.Err = errors.WithMessage(ctx.Err(), status.Error)
	case ctx.Err() != nil:
		rerr.Err = ctx.Err()
	case status.Error != "":
		rerr.Err = errors.New(status.Error)
	}
	return rerr
}
