package fs

import (
	"context"
	"os"
	"path/filepath"
)

type OSFS struct{}

// the concrete implementation of FS backed by the local OS filesystem.
// Platform-specific details (inodes, allocated blocks) are handled in build-tagged files.

func New() *OSFS {
	return &OSFS{}
}

func (o *OSFS) Stat(path string) (FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return fromOS(path, st), nil
}

func (o *OSFS) Lstat(path string) (FileInfo, error) {
	st, err := os.Lstat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return fromOS(path, st), nil
}

func (o *OSFS) ReadDir(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]FileInfo, 0, len(entries))
	for _, ent := range entries {
		full := filepath.Join(dir, ent.Name())
		st, err := ent.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, fromOS(full, st))
	}
	return out, nil
}

func (o *OSFS) Mkdir(path string) error {
	return os.Mkdir(path, 0o755)
}

func (o *OSFS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (o *OSFS) RemoveAll(ctx context.Context, path string) error {
	return retry(ctx, "remove", func() error {
		return os.RemoveAll(path)
	})
}

func (o *OSFS) Rename(ctx context.Context, oldPath, newPath string) error {
	return renameWithRetry(ctx, oldPath, newPath)
}

func (o *OSFS) DiskUsage(path string) (int64, error) {
	return diskUsage(path)
}

func fromOS(path string, st os.FileInfo) FileInfo {
	fi := FileInfo{
		Path:  path,
		Size:  st.Size(),
		MTime: st.ModTime(),
		IsDir: st.IsDir(),
	}
	fi.Dev, fi.Inode, fi.Nlink = identity(st)
	return fi
}
