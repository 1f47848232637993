package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Fetch configures outbound segment requests.
type Fetch struct {
	TimeoutSeconds  int   `toml:"timeout_seconds"`
	MinIntervalMS   int   `toml:"min_interval_ms"`
	MaxSegmentBytes int64 `toml:"max_segment_bytes"`
	// MaxSegments caps the number of staged segments. Zero means no limit.
	MaxSegments int `toml:"max_segments"`
	// StartCounters are the candidate first indices probed in order.
	StartCounters []int `toml:"start_counters"`
	// DirectRetryDelays are the waits, in seconds, before each direct-fetch
	// attempt of a template without a counter token.
	DirectRetryDelays []int `toml:"direct_retry_delays"`
	// Headers replace entries of the built-in browser header set; an empty
	// value removes the header.
	Headers map[string]string `toml:"headers"`
}

// FFmpeg configures the external media tool.
type FFmpeg struct {
	Binary string `toml:"binary"`
}

// Paths contains directory configuration.
type Paths struct {
	// StagingDir is the parent of per-run workspaces. Empty means the OS
	// temporary directory.
	StagingDir string `toml:"staging_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Output controls user-visible run behaviour.
type Output struct {
	// StrictExit turns "no segments found" into a non-zero exit.
	StrictExit bool `toml:"strict_exit"`
	Progress   bool `toml:"progress"`
}

// Config encapsulates all configuration values for tsgrab.
type Config struct {
	Fetch   Fetch   `toml:"fetch"`
	FFmpeg  FFmpeg  `toml:"ffmpeg"`
	Paths   Paths   `toml:"paths"`
	Logging Logging `toml:"logging"`
	Output  Output  `toml:"output"`
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the resolved path, and whether a file was actually read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := ExpandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// Timeout returns the per-request fetch timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// MinInterval returns the minimum spacing between successive fetches.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.Fetch.MinIntervalMS) * time.Millisecond
}

// DirectDelays returns the direct-fetch retry schedule.
func (c *Config) DirectDelays() []time.Duration {
	delays := make([]time.Duration, 0, len(c.Fetch.DirectRetryDelays))
	for _, seconds := range c.Fetch.DirectRetryDelays {
		delays = append(delays, time.Duration(seconds)*time.Second)
	}
	return delays
}

// ExpandPath expands a leading ~ and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
