// Package lock serializes runs against one generation chain with an
// advisory file lock, so two rotations never interleave their renames.
package lock

import (
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// ErrLocked means another run holds the lock.
var ErrLocked = errors.New("destination is locked by another run")

// Lock is a held lock. Release it when the run is over.
type Lock struct {
	fl *flock.Flock
}

// Path returns root/.name.lock. The leading dot keeps it out of the name.<i>
// namespace.
func Path(root, name string) string {
	return filepath.Join(root, "."+name+".lock")
}

// Acquire takes the lock for name under root without blocking. root must
// exist.
func Acquire(root, name string) (*Lock, error) {
	fl := flock.New(Path(root, name))

	ok, err := fl.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "locking %s", fl.Path())
	}
	if !ok {
		return nil, errors.Wrap(ErrLocked, fl.Path())
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. The lock file stays; removing it would race with a
// waiter that already opened it.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
