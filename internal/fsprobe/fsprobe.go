// Package fsprobe checks whether a destination directory can hold
// hard-linked generations. It performs a real create+link+rename test since
// mount options and network filesystems make this impossible to tell from
// the outside.
package fsprobe

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/raoulx24/snaprotate/internal/fs"
)

// Result reports whether hard links work in a directory and why not.
type Result struct {
	HardlinksSupported bool   // true if a link shares the original's inode
	Reason             string // explanation when unsupported
}

// Probe creates a temp file in dir, hard-links it, renames the link and
// compares inodes. Everything it creates is removed.
func Probe(dir string) Result {
	filesystem := fs.New()

	st, err := filesystem.Stat(dir)
	if err != nil {
		return Result{false, fmt.Sprintf("stat failed: %v", err)}
	}
	if !st.IsDir {
		return Result{false, "not a directory"}
	}

	f, err := os.CreateTemp(dir, ".fsprobe-*")
	if err != nil {
		return Result{false, fmt.Sprintf("cannot create temp file: %v", err)}
	}
	tmp := f.Name()
	f.Close()
	defer os.Remove(tmp)

	link := tmp + ".link"
	if err := os.Link(tmp, link); err != nil {
		return Result{false, fmt.Sprintf("hard link failed: %v", err)}
	}
	defer os.Remove(link)

	// Rotation renames directories in place; make sure rename works here too.
	final := filepath.Join(dir, filepath.Base(tmp)+".final")
	if err := os.Rename(link, final); err != nil {
		return Result{false, fmt.Sprintf("rename failed: %v", err)}
	}
	defer os.Remove(final)

	a, err := filesystem.Stat(tmp)
	if err != nil {
		return Result{false, fmt.Sprintf("stat failed: %v", err)}
	}
	b, err := filesystem.Stat(final)
	if err != nil {
		return Result{false, fmt.Sprintf("stat failed: %v", err)}
	}

	if a.Inode == 0 || a.Inode != b.Inode || a.Dev != b.Dev {
		return Result{false, "link does not share the original's inode"}
	}
	return Result{true, ""}
}
