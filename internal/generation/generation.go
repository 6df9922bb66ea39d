// Package generation names and discovers the numbered snapshot directories
// (name.1 newest .. name.R oldest) under a destination root.
package generation

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/raoulx24/snaprotate/internal/fs"
)

// Generation is one numbered snapshot directory found on disk.
type Generation struct {
	Index   int
	Path    string
	ModTime time.Time
}

// DirName returns "name.i".
func DirName(name string, i int) string {
	return name + "." + strconv.Itoa(i)
}

// Path returns root/name.i.
func Path(root, name string, i int) string {
	return filepath.Join(root, DirName(name, i))
}

// ParseIndex extracts i from "name.i". Only positive decimal indices without
// leading zeros are accepted so that name.01 is never mistaken for name.1.
func ParseIndex(name, base string) (int, bool) {
	prefix := name + "."
	if !strings.HasPrefix(base, prefix) {
		return 0, false
	}
	digits := base[len(prefix):]
	if digits == "" || digits[0] == '0' {
		return 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return i, true
}

// FromFileInfo constructs a Generation from a directory entry.
func FromFileInfo(index int, info fs.FileInfo) Generation {
	return Generation{
		Index:   index,
		Path:    info.Path,
		ModTime: info.MTime,
	}
}

// Scan lists the generation directories of name under root through
// filesystem, ordered by index. A missing root yields no generations.
// Non-directory entries that happen to match the pattern are reported as an
// error since rotation would trip over them.
func Scan(filesystem fs.FS, root, name string) ([]Generation, error) {
	entries, err := filesystem.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading destination root")
	}

	var gens []Generation
	for _, ent := range entries {
		idx, ok := ParseIndex(name, filepath.Base(ent.Path))
		if !ok {
			continue
		}
		if !ent.IsDir {
			return nil, errors.Errorf("%s is not a directory", ent.Path)
		}
		gens = append(gens, FromFileInfo(idx, ent))
	}

	sort.Slice(gens, func(i, j int) bool {
		return gens[i].Index < gens[j].Index
	})
	return gens, nil
}

// Gaps returns the indices in 1..retention that have no generation.
func Gaps(gens []Generation, retention int) []int {
	have := make(map[int]bool, len(gens))
	for _, g := range gens {
		have[g.Index] = true
	}
	var gaps []int
	for i := 1; i <= retention; i++ {
		if !have[i] {
			gaps = append(gaps, i)
		}
	}
	return gaps
}

// Stale returns generations with an index above retention.
func Stale(gens []Generation, retention int) []Generation {
	var out []Generation
	for _, g := range gens {
		if g.Index > retention {
			out = append(out, g)
		}
	}
	return out
}
