package fake

import (
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/raoulx24/snaprotate/internal/execer"
)

// LinkCopy returns a Run func that performs the copy described by an rsync
// argv: files under --link-dest with the same size, mode and mtime (within
// --modify-window) are hard-linked, everything else is copied, and
// --exclude patterns are matched against base names as rsync does for
// patterns without a slash. A trailing "/" restricts a pattern to
// directories.
func LinkCopy() func(cmd execer.Command) execer.ProcessStatus {
	return func(cmd execer.Command) execer.ProcessStatus {
		if err := linkCopy(cmd.Argv); err != nil {
			if cmd.Stderr != nil {
				fmt.Fprintf(cmd.Stderr, "fake rsync: %v\n", err)
			}
			return execer.ProcessStatus{State: execer.COMPLETE, ExitCode: 23}
		}
		return execer.ProcessStatus{State: execer.COMPLETE}
	}
}

type copyArgs struct {
	src, dst, linkDest string
	exclude            []string
	window             time.Duration
}

func parse(argv []string) (copyArgs, error) {
	var a copyArgs
	for i := 1; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--":
			if len(argv)-i-1 != 2 {
				return a, fmt.Errorf("want source and destination after --, got %q", argv[i+1:])
			}
			a.src, a.dst = argv[i+1], argv[i+2]
			return a, nil
		case strings.HasPrefix(arg, "--link-dest="):
			a.linkDest = strings.TrimPrefix(arg, "--link-dest=")
		case strings.HasPrefix(arg, "--exclude="):
			a.exclude = append(a.exclude, strings.TrimPrefix(arg, "--exclude="))
		case strings.HasPrefix(arg, "--modify-window="):
			n, err := strconv.Atoi(strings.TrimPrefix(arg, "--modify-window="))
			if err != nil {
				return a, err
			}
			a.window = time.Duration(n) * time.Second
		}
	}
	return a, fmt.Errorf("missing -- separator")
}

func (a copyArgs) excluded(name string, isDir bool) bool {
	for _, pat := range a.exclude {
		dirOnly := strings.HasSuffix(pat, "/")
		pat = strings.TrimSuffix(pat, "/")
		if dirOnly && !isDir {
			continue
		}
		if ok, _ := filepath.Match(pat, name); ok {
			return true
		}
	}
	return false
}

func linkCopy(argv []string) error {
	a, err := parse(argv)
	if err != nil {
		return err
	}

	src := filepath.Clean(a.src)
	if _, err := os.Stat(src); err != nil {
		return err
	}

	// rsync creates the last path component of the destination only
	if err := os.Mkdir(a.dst, 0o755); err != nil && !os.IsExist(err) {
		return err
	}

	return filepath.WalkDir(src, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if a.excluded(d.Name(), d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(a.dst, rel)
		info, err := os.Lstat(p)
		if err != nil {
			return err
		}

		switch {
		case info.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case info.Mode().IsRegular():
			if a.linkDest != "" && a.unchanged(filepath.Join(a.linkDest, rel), info) {
				return os.Link(filepath.Join(a.linkDest, rel), target)
			}
			return copyFile(p, target, info)
		default:
			return nil
		}
	})
}

func (a copyArgs) unchanged(ref string, info os.FileInfo) bool {
	old, err := os.Lstat(ref)
	if err != nil || !old.Mode().IsRegular() {
		return false
	}
	if old.Size() != info.Size() || old.Mode() != info.Mode() {
		return false
	}
	diff := old.ModTime().Sub(info.ModTime())
	if diff < 0 {
		diff = -diff
	}
	return diff <= a.window
}

func copyFile(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
