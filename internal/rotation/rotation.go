// Package rotation ages the numbered generations of a snapshot set: every
// name.i moves to name.(i+1) and the one pushed past the retention count is
// deleted, leaving name.1 vacant for the next sync.
package rotation

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/raoulx24/snaprotate/internal/fs"
	"github.com/raoulx24/snaprotate/internal/generation"
	"github.com/raoulx24/snaprotate/internal/logging"
)

type Engine struct {
	fs  fs.FS
	log logging.Logger
}

func New(filesystem fs.FS, log logging.Logger) *Engine {
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &Engine{
		fs:  filesystem,
		log: log,
	}
}

// Options identifies the generation chain to rotate.
type Options struct {
	Root       string
	Name       string
	Retention  int
	PruneStale bool // delete name.i for i > Retention before rotating instead of failing
}

// Plan is where the sync step writes to after a rotation.
type Plan struct {
	Destination string // name.1, vacant
	LinkDest    string // name.2, the previous newest; empty when Retention is 1
}

// Rotate shifts every generation up by one index, highest first, creating
// empty placeholders for missing slots, then deletes name.(Retention+1).
func (e *Engine) Rotate(ctx context.Context, opts Options) (Plan, error) {
	r := opts.Retention
	if r < 1 {
		return Plan{}, &Error{Op: "validate", Path: opts.Root, Err: errRetention(r)}
	}

	if err := e.fs.MkdirAll(opts.Root); err != nil {
		return Plan{}, &Error{Op: "mkdir", Path: opts.Root, Err: err}
	}

	if err := e.clearStale(ctx, opts); err != nil {
		return Plan{}, err
	}

	var shifted []int

	// Descending: iteration i vacates slot i, which iteration i-1 moves into.
	for i := r; i >= 1; i-- {
		this := generation.Path(opts.Root, opts.Name, i)
		next := generation.Path(opts.Root, opts.Name, i+1)

		info, err := e.fs.Stat(this)
		switch {
		case errors.Is(err, os.ErrNotExist):
			e.log.Debug("creating placeholder generation", "path", this)
			if err := e.fs.Mkdir(this); err != nil {
				return Plan{}, &Error{Op: "mkdir", Path: this, Shifted: shifted, Err: err}
			}
		case err != nil:
			return Plan{}, &Error{Op: "stat", Path: this, Shifted: shifted, Err: err}
		case !info.IsDir:
			return Plan{}, &Error{Op: "stat", Path: this, Shifted: shifted, Err: errNotDir}
		}

		if _, err := e.fs.Lstat(next); err == nil {
			return Plan{}, &Error{Op: "rename", Path: next, Shifted: shifted, Err: errOccupied}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Plan{}, &Error{Op: "stat", Path: next, Shifted: shifted, Err: err}
		}

		e.log.Debug("moving generation", "from", this, "to", next)
		if err := e.fs.Rename(ctx, this, next); err != nil {
			return Plan{}, &Error{Op: "rename", Path: this, Shifted: shifted, Err: err}
		}
		shifted = append(shifted, i)
	}

	// Always present here: either the true oldest or a fresh placeholder.
	oldest := generation.Path(opts.Root, opts.Name, r+1)
	e.log.Debug("removing retired generation", "path", oldest)
	if err := e.fs.RemoveAll(ctx, oldest); err != nil {
		return Plan{}, &Error{Op: "remove", Path: oldest, Shifted: shifted, Err: err}
	}

	plan := Plan{Destination: generation.Path(opts.Root, opts.Name, 1)}
	if r > 1 {
		plan.LinkDest = generation.Path(opts.Root, opts.Name, 2)
	}
	return plan, nil
}

// clearStale deals with generations above the retention count, left by a
// lowered retention or an interrupted run. They would block the first rename.
func (e *Engine) clearStale(ctx context.Context, opts Options) error {
	gens, err := generation.Scan(e.fs, opts.Root, opts.Name)
	if err != nil {
		return &Error{Op: "scan", Path: opts.Root, Err: err}
	}

	stale := generation.Stale(gens, opts.Retention)
	if len(stale) == 0 {
		return nil
	}

	if !opts.PruneStale {
		names := make([]string, 0, len(stale))
		for _, g := range stale {
			names = append(names, generation.DirName(opts.Name, g.Index))
		}
		return &Error{Op: "scan", Path: opts.Root, Err: staleError(names)}
	}

	for _, g := range stale {
		e.log.Warn("removing stale generation", "path", g.Path, "retention", opts.Retention)
		if err := e.fs.RemoveAll(ctx, g.Path); err != nil {
			return &Error{Op: "remove", Path: g.Path, Err: err}
		}
	}
	return nil
}

func shiftedString(s []int) string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
