//go:build unix

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raoulx24/snaprotate/internal/generation"
)

func writeConfig(t *testing.T) (path, root string) {
	t.Helper()
	base := t.TempDir()
	src := filepath.Join(base, "src")
	root = filepath.Join(base, "backups")
	require.NoError(t, os.MkdirAll(src, 0o755))

	path = filepath.Join(base, "snaprotate.yaml")
	cfg := "logging:\n  level: error\nsets:\n" +
		"  - name: home\n    source: " + src + "\n    destination: " + root + "\n    retention: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path, root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestListAndSize(t *testing.T) {
	path, root := writeConfig(t)

	out, err := execute(t, "--config", path, "size")
	require.NoError(t, err)
	require.Contains(t, out, "home: unavailable")

	for _, i := range []int{1, 2, 5} {
		require.NoError(t, os.MkdirAll(generation.Path(root, "home", i), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(generation.Path(root, "home", 1), "f"), []byte("data"), 0o644))

	out, err = execute(t, "--config", path, "list")
	require.NoError(t, err)
	require.Contains(t, out, "home (retention 3")
	require.Contains(t, out, "missing: [3]")
	require.Contains(t, out, "stale (index above retention): 1")

	out, err = execute(t, "--config", path, "size", "home")
	require.NoError(t, err)
	require.Contains(t, out, "home: ")
	require.NotContains(t, out, "unavailable")
}

func TestUnknownSet(t *testing.T) {
	path, _ := writeConfig(t)
	_, err := execute(t, "--config", path, "list", "nope")
	require.Error(t, err)
}

func TestMissingConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "list")
	require.Error(t, err)
}
