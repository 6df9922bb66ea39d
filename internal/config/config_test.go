package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sample = `
logging:
  level: debug
rsync:
  extraArgs: ["--numeric-ids"]
metrics:
  textfile: /var/lib/node_exporter/snaprotate.prom
sets:
  - name: home
    source: $(SNAPROTATE_TEST_SRC)
    destination: /backups
    retention: 7
    exclude: ["*.tmp", ".cache/"]
  - name: etc
    source: /etc
    destination: /backups
    retention: 3
    modifyWindow: 0
    debug: true
    logFile: /var/log/snaprotate-etc.log
    pruneStale: true
`

func TestParseDefaultsAndEnv(t *testing.T) {
	t.Setenv("SNAPROTATE_TEST_SRC", "/home/me")

	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "text", cfg.Logging.Format)
	require.Equal(t, DefaultRsyncBinary, cfg.Rsync.Binary)
	require.Equal(t, []string{"--numeric-ids"}, cfg.Rsync.ExtraArgs)
	require.Equal(t, DefaultConcurrency, cfg.Concurrency)
	require.Len(t, cfg.Sets, 2)

	home, ok := cfg.Set("home")
	require.True(t, ok)
	require.Equal(t, "/home/me", home.Source)
	require.Equal(t, 7, home.Retention)
	require.Equal(t, DefaultModifyWindow, home.ModifyWindow)
	require.Equal(t, []string{"*.tmp", ".cache/"}, home.Exclude)

	etc, ok := cfg.Set("etc")
	require.True(t, ok)
	require.Equal(t, 0, etc.ModifyWindow, "explicit zero must survive defaults")
	require.True(t, etc.Debug)
	require.True(t, etc.PruneStale)

	_, ok = cfg.Set("nope")
	require.False(t, ok)
}

func TestValidation(t *testing.T) {
	cases := map[string]string{
		"no sets":      "sets: []\n",
		"zero retain":  "sets:\n  - {name: a, source: /s, destination: /d, retention: 0}\n",
		"no source":    "sets:\n  - {name: a, destination: /d, retention: 1}\n",
		"slash name":   "sets:\n  - {name: a/b, source: /s, destination: /d, retention: 1}\n",
		"dot name":     "sets:\n  - {name: .., source: /s, destination: /d, retention: 1}\n",
		"neg window":   "sets:\n  - {name: a, source: /s, destination: /d, retention: 1, modifyWindow: -1}\n",
		"empty excl":   "sets:\n  - {name: a, source: /s, destination: /d, retention: 1, exclude: ['']}\n",
		"same dir":     "sets:\n  - {name: a, source: /d, destination: /d/, retention: 1}\n",
		"bad level":    "logging: {level: loud}\nsets:\n  - {name: a, source: /s, destination: /d, retention: 1}\n",
		"duplicate":    "sets:\n  - {name: a, source: /s, destination: /d, retention: 1}\n  - {name: a, source: /t, destination: /e, retention: 1}\n",
		"bad yaml":     "sets: [\n",
		"neg parallel": "concurrency: -1\nsets:\n  - {name: a, source: /s, destination: /d, retention: 1}\n",
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		require.Error(t, err, name)
		if name != "bad yaml" {
			require.ErrorIs(t, err, ErrInvalid, name)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snaprotate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sets:\n  - {name: a, source: /s, destination: /d, retention: 2}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Sets[0].Retention)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
