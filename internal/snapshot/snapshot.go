// Package snapshot runs one rotate-then-sync cycle for a snapshot set and
// reports the size of the generation it produced.
package snapshot

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/raoulx24/snaprotate/internal/config"
	"github.com/raoulx24/snaprotate/internal/fs"
	"github.com/raoulx24/snaprotate/internal/generation"
	"github.com/raoulx24/snaprotate/internal/logging"
	"github.com/raoulx24/snaprotate/internal/rotation"
	"github.com/raoulx24/snaprotate/internal/rsync"
)

// Set is one snapshot set for one run. It executes at most once; the state
// on disk is the only thing carried between runs.
type Set struct {
	cfg   config.SetConfig
	rsync config.RsyncConfig
	root  string

	fs       fs.FS
	log      logging.Logger
	rotation *rotation.Engine
	runner   *rsync.Runner

	mu    sync.Mutex
	state State
}

// New creates a Set. filesystem may be nil for the local OS filesystem.
func New(cfg config.SetConfig, rs config.RsyncConfig, log logging.Logger, filesystem fs.FS, runner *rsync.Runner) (*Set, error) {
	if filesystem == nil {
		filesystem = fs.New()
	}
	if runner == nil {
		runner = rsync.New(nil, log)
	}

	// link-dest is resolved by rsync relative to the destination, so every
	// path it sees is absolute
	root, err := filepath.Abs(cfg.Destination)
	if err != nil {
		return nil, errors.Wrap(err, "resolving destination")
	}
	src, err := filepath.Abs(cfg.Source)
	if err != nil {
		return nil, errors.Wrap(err, "resolving source")
	}
	cfg.Source = src

	log = log.With("set", cfg.Name)
	return &Set{
		cfg:      cfg,
		rsync:    rs,
		root:     root,
		fs:       filesystem,
		log:      log,
		rotation: rotation.New(filesystem, log),
		runner:   runner,
	}, nil
}

func (s *Set) Name() string { return s.cfg.Name }

// Root is the absolute destination root.
func (s *Set) Root() string { return s.root }

func (s *Set) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Executed reports whether the run completed successfully.
func (s *Set) Executed() bool {
	return s.State() == Complete
}

func (s *Set) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Execute rotates the generations and syncs the source into name.1,
// hard-linking against name.2. Any failure is fatal and leaves the Set in
// Failed; nothing is retried.
func (s *Set) Execute(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Idle {
		st := s.state
		s.mu.Unlock()
		return errors.Wrapf(ErrAlreadyExecuted, "%s is %s", s.cfg.Name, st)
	}
	s.state = Rotating
	s.mu.Unlock()

	s.log.Info("executing", "source", s.cfg.Source, "destination", s.root, "retention", s.cfg.Retention)

	plan, err := s.rotation.Rotate(ctx, rotation.Options{
		Root:       s.root,
		Name:       s.cfg.Name,
		Retention:  s.cfg.Retention,
		PruneStale: s.cfg.PruneStale,
	})
	if err != nil {
		s.setState(Failed)
		return &Error{Kind: RotationFailed, Set: s.cfg.Name, Err: err}
	}

	s.setState(Syncing)
	err = s.runner.Run(ctx, rsync.Options{
		Binary:       s.rsync.Binary,
		Source:       s.cfg.Source,
		Destination:  plan.Destination,
		LinkDest:     plan.LinkDest,
		Exclude:      s.cfg.Exclude,
		ModifyWindow: s.cfg.ModifyWindow,
		Debug:        s.cfg.Debug,
		ExtraArgs:    s.rsync.ExtraArgs,
		LogFile:      s.cfg.LogFile,
	})
	if err != nil {
		s.setState(Failed)
		return &Error{Kind: SyncFailed, Set: s.cfg.Name, Err: err}
	}

	s.setState(Complete)
	s.log.Info("snapshot complete", "generation", plan.Destination)
	return nil
}

// Size returns the disk usage of name.1 in IEC units. ok is false until
// Execute has succeeded; Size never runs anything itself.
func (s *Set) Size() (size string, ok bool, err error) {
	n, ok, err := s.SizeBytes()
	if !ok || err != nil {
		return "", ok, err
	}
	return FormatSize(n), true, nil
}

// FormatSize renders bytes in IEC units, e.g. "4.0 KiB".
func FormatSize(n int64) string {
	return humanize.IBytes(uint64(n))
}

// SizeBytes is Size without formatting.
func (s *Set) SizeBytes() (int64, bool, error) {
	if !s.Executed() {
		return 0, false, nil
	}
	n, err := s.fs.DiskUsage(generation.Path(s.root, s.cfg.Name, 1))
	if err != nil {
		return 0, true, errors.Wrap(err, "measuring newest generation")
	}
	return n, true, nil
}

// Generations lists what is on disk for this set right now.
func (s *Set) Generations() ([]generation.Generation, error) {
	return generation.Scan(s.fs, s.root, s.cfg.Name)
}
