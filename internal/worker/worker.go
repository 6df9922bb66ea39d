// Package worker runs the configured snapshot sets, each under its own
// destination lock, and collects their results.
package worker

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/raoulx24/snaprotate/internal/config"
	"github.com/raoulx24/snaprotate/internal/execer"
	"github.com/raoulx24/snaprotate/internal/fs"
	"github.com/raoulx24/snaprotate/internal/lock"
	"github.com/raoulx24/snaprotate/internal/logging"
	"github.com/raoulx24/snaprotate/internal/metrics"
	"github.com/raoulx24/snaprotate/internal/rsync"
	"github.com/raoulx24/snaprotate/internal/snapshot"
)

// ErrUnknownSet is returned when a requested set is not configured.
var ErrUnknownSet = errors.New("unknown snapshot set")

// Worker executes snapshot jobs. Sets run concurrently up to the configured
// limit; they share nothing but the Worker's logger and metrics.
type Worker struct {
	cfg     *config.Config
	fs      fs.FS
	exec    execer.Execer
	log     logging.Logger
	metrics *metrics.Recorder
	stdout  io.Writer
	stderr  io.Writer
}

// New creates a worker. exec and filesystem may be nil for the OS defaults;
// rec may be nil to skip metrics.
func New(cfg *config.Config, log logging.Logger, exec execer.Execer, filesystem fs.FS, rec *metrics.Recorder) *Worker {
	log.Debug("creating worker")
	if filesystem == nil {
		filesystem = fs.New()
	}
	if exec == nil {
		exec = execer.NewOSExecer()
	}
	return &Worker{
		cfg:     cfg,
		fs:      filesystem,
		exec:    exec,
		log:     log,
		metrics: rec,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// WithOutput redirects rsync output for every job.
func (w *Worker) WithOutput(stdout, stderr io.Writer) *Worker {
	w.stdout = stdout
	w.stderr = stderr
	return w
}

// Jobs resolves set names to jobs; no names means every configured set.
func (w *Worker) Jobs(names []string) ([]Job, error) {
	if len(names) == 0 {
		jobs := make([]Job, 0, len(w.cfg.Sets))
		for _, s := range w.cfg.Sets {
			jobs = append(jobs, Job{Set: s})
		}
		return jobs, nil
	}

	jobs := make([]Job, 0, len(names))
	for _, n := range names {
		s, ok := w.cfg.Set(n)
		if !ok {
			return nil, errors.Wrap(ErrUnknownSet, n)
		}
		jobs = append(jobs, Job{Set: s})
	}
	return jobs, nil
}

// Run executes jobs and returns one Result per job, in order. The error is
// non-nil if any job failed; individual causes are in the Results.
func (w *Worker) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))

	limit := w.cfg.Concurrency
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = w.Handle(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	if failed > 0 {
		return results, errors.Errorf("%d of %d snapshot sets failed", failed, len(results))
	}
	return results, nil
}

// Handle runs one set: lock, rotate, sync, measure.
func (w *Worker) Handle(ctx context.Context, job Job) Result {
	res := Result{
		Set:       job.Set.Name,
		RunID:     uuid.NewString(),
		Started:   time.Now(),
		SizeBytes: -1,
	}
	log := w.log.With("set", job.Set.Name, "run", res.RunID)

	res.Err = w.handle(ctx, job, log, &res)
	res.Finished = time.Now()

	if res.Err != nil {
		log.Error("snapshot failed", "error", res.Err)
	} else {
		log.Info("snapshot finished", "size", res.Size, "took", res.Finished.Sub(res.Started).Round(time.Millisecond))
	}

	if w.metrics != nil {
		w.metrics.Observe(res.Set, res.OK(), res.Finished, res.Finished.Sub(res.Started), res.SizeBytes)
	}
	return res
}

func (w *Worker) handle(ctx context.Context, job Job, log logging.Logger, res *Result) error {
	root, err := filepath.Abs(job.Set.Destination)
	if err != nil {
		return errors.Wrap(err, "resolving destination")
	}

	// the lock file lives in the root, so the root has to exist first
	if err := w.fs.MkdirAll(root); err != nil {
		return errors.Wrap(err, "creating destination root")
	}

	l, err := lock.Acquire(root, job.Set.Name)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Release(); err != nil {
			log.Warn("releasing lock", "error", err)
		}
	}()

	runner := rsync.New(w.exec, log).WithOutput(w.stdout, w.stderr)
	set, err := snapshot.New(job.Set, w.cfg.Rsync, log, w.fs, runner)
	if err != nil {
		return err
	}

	if err := set.Execute(ctx); err != nil {
		return err
	}

	n, _, err := set.SizeBytes()
	if err != nil {
		// the snapshot itself is complete; only the measurement failed
		log.Warn("measuring snapshot size", "error", err)
		return nil
	}
	res.SizeBytes = n
	res.Size = snapshot.FormatSize(n)
	return nil
}
