//go:build unix

package snapshot

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raoulx24/snaprotate/internal/config"
	"github.com/raoulx24/snaprotate/internal/execer"
	"github.com/raoulx24/snaprotate/internal/execer/fake"
	"github.com/raoulx24/snaprotate/internal/fs"
	"github.com/raoulx24/snaprotate/internal/generation"
	"github.com/raoulx24/snaprotate/internal/logging"
	"github.com/raoulx24/snaprotate/internal/rsync"
)

type fixture struct {
	src, root string
	cfg       config.SetConfig
	exec      execer.Execer
}

func newFixture(t *testing.T, retention int) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{
		src:  filepath.Join(base, "src"),
		root: filepath.Join(base, "backups"),
		exec: &fake.Execer{Run: fake.LinkCopy()},
	}
	f.cfg = config.SetConfig{
		Name:        "home",
		Source:      f.src,
		Destination: f.root,
		Retention:   retention,
	}
	require.NoError(t, os.MkdirAll(filepath.Join(f.src, "docs"), 0o755))
	f.write(t, "a.txt", "alpha")
	f.write(t, "docs/b.txt", "bravo")
	f.write(t, "docs/c.txt", "charlie")
	return f
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(f.src, rel)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	// distinct, coarse mtimes so change detection never depends on timing
	mt := time.Unix(1_700_000_000+int64(len(content))*10, 0)
	require.NoError(t, os.Chtimes(p, mt, mt))
}

func (f *fixture) set(t *testing.T) *Set {
	t.Helper()
	runner := rsync.New(f.exec, logging.Discard()).WithOutput(&bytes.Buffer{}, &bytes.Buffer{})
	s, err := New(f.cfg, config.RsyncConfig{Binary: "rsync"}, logging.Discard(), nil, runner)
	require.NoError(t, err)
	return s
}

func (f *fixture) run(t *testing.T) *Set {
	t.Helper()
	s := f.set(t)
	require.NoError(t, s.Execute(context.Background()))
	return s
}

func (f *fixture) gen(i int) string {
	return generation.Path(f.root, "home", i)
}

func inode(t *testing.T, path string) uint64 {
	t.Helper()
	info, err := fs.New().Stat(path)
	require.NoError(t, err)
	return info.Inode
}

// tree maps relative file paths to contents.
func tree(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, p)
		out[rel] = string(b)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestBootstrapRetentionThree(t *testing.T) {
	f := newFixture(t, 3)
	s := f.run(t)

	require.Equal(t, Complete, s.State())
	for i := 1; i <= 3; i++ {
		require.DirExists(t, f.gen(i))
	}
	require.NoDirExists(t, f.gen(4))
	require.Equal(t, tree(t, f.src), tree(t, f.gen(1)))
	require.Empty(t, tree(t, f.gen(2)))
}

func TestRetentionInvariant(t *testing.T) {
	for _, r := range []int{1, 2, 4} {
		f := newFixture(t, r)
		for run := 0; run < r+2; run++ {
			f.write(t, "a.txt", strings.Repeat("x", run+1))
			f.run(t)

			for i := 1; i <= r; i++ {
				require.DirExists(t, f.gen(i), "retention %d run %d", r, run)
			}
			require.NoDirExists(t, f.gen(r+1), "retention %d run %d", r, run)
		}
	}
}

func TestChainingInvariant(t *testing.T) {
	f := newFixture(t, 3)
	f.run(t)
	f.write(t, "a.txt", "second")
	f.run(t)

	before := map[int]map[string]string{}
	for i := 1; i <= 3; i++ {
		before[i] = tree(t, f.gen(i))
	}

	f.write(t, "a.txt", "third run")
	f.run(t)

	for k := 2; k <= 3; k++ {
		require.Equal(t, before[k-1], tree(t, f.gen(k)), "generation %d", k)
	}
	require.Equal(t, "third run", tree(t, f.gen(1))["a.txt"])
}

func TestDeduplication(t *testing.T) {
	f := newFixture(t, 3)
	f.run(t)
	f.run(t)

	for rel := range tree(t, f.src) {
		require.Equal(t,
			inode(t, filepath.Join(f.gen(2), rel)),
			inode(t, filepath.Join(f.gen(1), rel)),
			"%s should be hard-linked", rel)
	}
}

func TestChangeDetection(t *testing.T) {
	f := newFixture(t, 3)
	f.run(t)
	f.write(t, "docs/b.txt", "bravo, edited")
	f.run(t)

	changed := "docs/b.txt"
	require.NotEqual(t, inode(t, filepath.Join(f.gen(2), changed)), inode(t, filepath.Join(f.gen(1), changed)))
	require.Equal(t, "bravo, edited", tree(t, f.gen(1))[changed])
	require.Equal(t, "bravo", tree(t, f.gen(2))[changed])

	for _, rel := range []string{"a.txt", "docs/c.txt"} {
		require.Equal(t, inode(t, filepath.Join(f.gen(2), rel)), inode(t, filepath.Join(f.gen(1), rel)), rel)
	}
}

func TestExclusion(t *testing.T) {
	f := newFixture(t, 2)
	f.write(t, "scratch.tmp", "junk")
	f.write(t, "docs/more.tmp", "junk")
	f.cfg.Exclude = []string{"*.tmp"}
	f.run(t)

	for rel := range tree(t, f.gen(1)) {
		require.False(t, strings.HasSuffix(rel, ".tmp"), rel)
	}
	require.Contains(t, tree(t, f.gen(1)), "docs/b.txt")
}

func TestSizeGating(t *testing.T) {
	f := newFixture(t, 2)
	s := f.set(t)

	size, ok, err := s.Size()
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, size)
	require.NoDirExists(t, f.root, "Size must not trigger a run")

	require.NoError(t, s.Execute(context.Background()))
	size, ok, err = s.Size()
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, size)
	require.Contains(t, size, "B")

	n, ok, err := s.SizeBytes()
	require.NoError(t, err)
	require.True(t, ok)
	require.Greater(t, n, int64(0))
}

func TestSyncFailureDoesNotCommit(t *testing.T) {
	f := newFixture(t, 2)
	f.exec = &fake.Execer{Status: execer.ProcessStatus{State: execer.COMPLETE, ExitCode: 12}, Stderr: "protocol error\n"}
	s := f.set(t)

	err := s.Execute(context.Background())
	require.Error(t, err)
	require.True(t, IsKind(err, SyncFailed))
	require.Contains(t, err.Error(), "exited with status 12")
	require.Contains(t, err.Error(), "protocol error")

	var rerr *rsync.Error
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, 12, rerr.ExitCode)

	require.Equal(t, Failed, s.State())
	require.False(t, s.Executed())
	_, ok, err := s.Size()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLaunchFailureIsSyncFailed(t *testing.T) {
	f := newFixture(t, 2)
	f.exec = &fake.Execer{LaunchErr: exec.ErrNotFound}
	s := f.set(t)

	err := s.Execute(context.Background())
	require.True(t, IsKind(err, SyncFailed))
	require.ErrorIs(t, err, exec.ErrNotFound)
	require.False(t, s.Executed())
}

func TestRotationFailureKind(t *testing.T) {
	f := newFixture(t, 2)
	require.NoError(t, os.MkdirAll(f.gen(3), 0o755)) // stale, pruning off
	s := f.set(t)

	err := s.Execute(context.Background())
	require.True(t, IsKind(err, RotationFailed))
	require.False(t, IsKind(err, SyncFailed))
	require.Equal(t, Failed, s.State())
	require.Empty(t, f.exec.(*fake.Execer).Commands(), "sync must not run after a failed rotation")
}

func TestExecuteOnlyOnce(t *testing.T) {
	f := newFixture(t, 2)
	s := f.run(t)

	err := s.Execute(context.Background())
	require.ErrorIs(t, err, ErrAlreadyExecuted)
	require.Equal(t, Complete, s.State())
	require.NoDirExists(t, f.gen(3))

	failed := newFixture(t, 2)
	failed.exec = &fake.Execer{LaunchErr: exec.ErrNotFound}
	fset := failed.set(t)
	require.Error(t, fset.Execute(context.Background()))
	require.ErrorIs(t, fset.Execute(context.Background()), ErrAlreadyExecuted)
}

func TestComposedArgv(t *testing.T) {
	f := newFixture(t, 3)
	exer := &fake.Execer{Status: execer.ProcessStatus{State: execer.COMPLETE}}
	f.exec = exer
	f.cfg.Exclude = []string{"*.tmp", "cache dir/"}
	f.cfg.ModifyWindow = 2
	f.run(t)

	cmds := exer.Commands()
	require.Len(t, cmds, 1)
	argv := cmds[0].Argv
	require.Contains(t, argv, "--link-dest="+f.gen(2))
	require.Contains(t, argv, "--exclude=*.tmp")
	require.Contains(t, argv, "--exclude=cache dir/")
	require.Contains(t, argv, "--modify-window=2")
	require.Equal(t, []string{f.src + "/", f.gen(1)}, argv[len(argv)-2:])
}

// Runs the same properties against the real utility.
func TestWithRealRsync(t *testing.T) {
	if os.Getenv("SNAPROTATE_RSYNC_TESTS") != "1" {
		t.Skip("set SNAPROTATE_RSYNC_TESTS=1 to run against rsync")
	}
	if _, err := exec.LookPath("rsync"); err != nil {
		t.Skip("rsync not installed")
	}

	f := newFixture(t, 3)
	f.exec = execer.NewOSExecer()
	f.cfg.Exclude = []string{"*.tmp"}
	f.cfg.LogFile = filepath.Join(t.TempDir(), "rsync.log")
	f.write(t, "skip.tmp", "junk")

	f.run(t)
	f.write(t, "docs/b.txt", "bravo, edited")
	s := f.run(t)

	require.NoDirExists(t, f.gen(4))
	require.NotContains(t, tree(t, f.gen(1)), "skip.tmp")
	require.Equal(t, inode(t, filepath.Join(f.gen(2), "a.txt")), inode(t, filepath.Join(f.gen(1), "a.txt")))
	require.NotEqual(t, inode(t, filepath.Join(f.gen(2), "docs/b.txt")), inode(t, filepath.Join(f.gen(1), "docs/b.txt")))

	size, ok, err := s.Size()
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, size)
	require.FileExists(t, f.cfg.LogFile)
}
