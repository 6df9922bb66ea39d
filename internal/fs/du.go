package fs

import (
	iofs "io/fs"
	"path/filepath"
)

type inodeKey struct {
	dev, ino uint64
}

// diskUsage walks path without following symlinks and sums allocated bytes.
// Hard-linked inodes are counted once, matching `du -s`.
func diskUsage(path string) (int64, error) {
	var total int64
	seen := map[inodeKey]struct{}{}

	err := filepath.WalkDir(path, func(p string, _ iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		size, dev, ino, nlink, err := allocated(p)
		if err != nil {
			return err
		}

		if nlink > 1 && ino != 0 {
			k := inodeKey{dev, ino}
			if _, ok := seen[k]; ok {
				return nil
			}
			seen[k] = struct{}{}
		}

		total += size
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
