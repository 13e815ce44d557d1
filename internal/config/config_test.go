package config_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TuSKan/n5-multiscale/internal/config"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	c, err := config.Load([]string{"-env", noEnvFile(t), "file:///data/em.n5"}, io.Discard)
	require.NoError(t, err)

	want := config.Default()
	want.Root = "file:///data/em.n5"
	require.Equal(t, &want, c)
}

func TestLoadPrecedence(t *testing.T) {
	file := writeFile(t, "n5ls.toml", `
root = "file:///from/toml"
base = "toml/base"
conventions = ["cosem", "raw"]
parallelism = 2
cache_size = 64
output = "catalog.json"

[log]
file = "/var/log/n5ls.log"
max_log_size = 10
max_log_age = 7
level = "debug"
`)
	t.Setenv("N5LS_BASE", "env/base")
	t.Setenv("N5LS_PARALLELISM", "3")

	c, err := config.Load([]string{
		"-env", noEnvFile(t),
		"-config", file,
		"-parallelism", "5",
		"-output", "catalog.json.zst",
	}, io.Discard)
	require.NoError(t, err)

	require.Equal(t, "file:///from/toml", c.Root)
	require.Equal(t, "env/base", c.Base)
	require.Equal(t, []string{"cosem", "raw"}, c.Conventions)
	require.Equal(t, 5, c.Parallelism)
	require.Equal(t, 64, c.CacheSize)
	require.Equal(t, "catalog.json.zst", c.Output)
	require.Equal(t, config.LogConfig{File: "/var/log/n5ls.log", MaxSize: 10, MaxAge: 7, Level: "debug"}, c.Log)

	level, err := c.Log.SlogLevel()
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, level)
}

func TestLoadEnvFile(t *testing.T) {
	env := writeFile(t, "test.env", "N5LS_CONVENTIONS=paintera, cosem\nN5LS_ROOT=mem://\n")
	t.Cleanup(func() {
		os.Unsetenv("N5LS_CONVENTIONS")
		os.Unsetenv("N5LS_ROOT")
	})

	c, err := config.Load([]string{"-env", env}, io.Discard)
	require.NoError(t, err)
	require.Equal(t, "mem://", c.Root)
	require.Equal(t, []string{"paintera", "cosem"}, c.Conventions)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "no root", args: nil},
		{name: "two roots", args: []string{"a", "b"}},
		{name: "unknown convention", args: []string{"-conventions", "ome", "mem://"}},
		{name: "bad parallelism", args: []string{"-parallelism", "-1", "mem://"}},
		{name: "bad level", args: []string{"-log-level", "loud", "mem://"}},
		{name: "bad env number", args: []string{"mem://"}, env: map[string]string{"N5LS_CACHE_SIZE": "many"}},
		{name: "unknown flag", args: []string{"-verbose", "mem://"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			args := append([]string{"-env", noEnvFile(t)}, tt.args...)
			_, err := config.Load(args, io.Discard)
			require.Error(t, err)
		})
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	file := writeFile(t, "n5ls.toml", "root = \"mem://\"\nworkers = 4\n")
	c := config.Default()
	require.Error(t, c.LoadFile(file))
}
