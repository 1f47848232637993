package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OllyCat/tsgrab/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, path, exists, err := config.Load("")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, "config.toml", filepath.Base(path))
	assert.Equal(t, 10*time.Second, cfg.Timeout())
	assert.Equal(t, []int{0, 1}, cfg.Fetch.StartCounters)
	assert.Equal(t, []time.Duration{0, time.Second, 2 * time.Second}, cfg.DirectDelays())
	assert.Equal(t, "ffmpeg", cfg.FFmpeg.Binary)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.True(t, cfg.Output.Progress)
	assert.False(t, cfg.Output.StrictExit)
}

func TestLoadProjectFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tsgrab.toml"), []byte("[ffmpeg]\nbinary = \"/opt/ffmpeg\"\n"), 0o644))

	cfg, _, exists, err := config.Load("")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "/opt/ffmpeg", cfg.FFmpeg.Binary)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
[fetch]
timeout_seconds = 3
min_interval_ms = 250
start_counters = [1]
direct_retry_delays = [0]

[fetch.headers]
Referer = "https://example.test/"
" Origin " = ""

[paths]
staging_dir = "~/scratch"

[logging]
level = "DEBUG"
format = " json "

[output]
strict_exit = true
progress = false
`)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, 3*time.Second, cfg.Timeout())
	assert.Equal(t, 250*time.Millisecond, cfg.MinInterval())
	assert.Equal(t, []int{1}, cfg.Fetch.StartCounters)
	assert.Equal(t, map[string]string{"Referer": "https://example.test/", "Origin": ""}, cfg.Fetch.Headers)
	assert.Equal(t, filepath.Join(home, "scratch"), cfg.Paths.StagingDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Output.StrictExit)
	assert.False(t, cfg.Output.Progress)
	assert.Equal(t, int64(64<<20), cfg.Fetch.MaxSegmentBytes, "unset fields keep defaults")
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[fetch]\nparallel = 8\n")
	_, _, _, err := config.Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero timeout", func(c *config.Config) { c.Fetch.TimeoutSeconds = 0 }},
		{"negative interval", func(c *config.Config) { c.Fetch.MinIntervalMS = -1 }},
		{"negative segment limit", func(c *config.Config) { c.Fetch.MaxSegments = -1 }},
		{"no start counters", func(c *config.Config) { c.Fetch.StartCounters = nil }},
		{"negative start counter", func(c *config.Config) { c.Fetch.StartCounters = []int{-1} }},
		{"no direct attempts", func(c *config.Config) { c.Fetch.DirectRetryDelays = nil }},
		{"negative delay", func(c *config.Config) { c.Fetch.DirectRetryDelays = []int{0, -2} }},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"bad level", func(c *config.Config) { c.Logging.Level = "trace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := config.Default()
	assert.NoError(t, cfg.Validate())
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := config.ExpandPath("~/a/../b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "b"), got)

	got, err = config.ExpandPath("")
	require.NoError(t, err)
	assert.Empty(t, got)
}
