//go:build unix

package fs

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// stat_unix.go extracts device, inode and allocation data from the raw stat.
// Inodes let tests and the hard-link probe tell a link from a copy.

func identity(info os.FileInfo) (dev, ino, nlink uint64) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, 0
	}
	return uint64(st.Dev), uint64(st.Ino), uint64(st.Nlink)
}

// allocated returns bytes actually allocated on disk. st_blocks is always in
// 512-byte units regardless of the filesystem block size.
func allocated(path string) (size int64, dev, ino, nlink uint64, err error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return 0, 0, 0, 0, &os.PathError{Op: "lstat", Path: path, Err: err}
	}
	return int64(st.Blocks) * 512, uint64(st.Dev), uint64(st.Ino), uint64(st.Nlink), nil
}
