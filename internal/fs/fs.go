// Package fs defines the filesystem abstraction used by snaprotate.
// It provides the FS interface and the FileInfo type shared across the system.
package fs

import (
	"context"
	"time"
)

type FileInfo struct {
	Path  string
	Size  int64
	MTime time.Time
	IsDir bool
	Dev   uint64
	Inode uint64
	Nlink uint64
}

// FS is the set of operations the rotation engine and size reporter need.
// Rename and RemoveAll retry transient errors; everything else is one-shot.
type FS interface {
	Stat(path string) (FileInfo, error)
	Lstat(path string) (FileInfo, error)
	// ReadDir lists the entries of dir without following symlinks, sorted by name.
	ReadDir(dir string) ([]FileInfo, error)
	Mkdir(path string) error
	MkdirAll(path string) error
	Rename(ctx context.Context, oldPath, newPath string) error
	RemoveAll(ctx context.Context, path string) error
	// DiskUsage returns allocated bytes under path, counting each inode once.
	DiskUsage(path string) (int64, error)
}
