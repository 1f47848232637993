package config

import (
	"strings"
)

func (c *Config) normalize() error {
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = defaultFFmpegBinary
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	if strings.TrimSpace(c.Paths.StagingDir) != "" {
		expanded, err := ExpandPath(c.Paths.StagingDir)
		if err != nil {
			return err
		}
		c.Paths.StagingDir = expanded
	}

	if len(c.Fetch.Headers) > 0 {
		headers := make(map[string]string, len(c.Fetch.Headers))
		for name, value := range c.Fetch.Headers {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			headers[name] = strings.TrimSpace(value)
		}
		c.Fetch.Headers = headers
	}
	return nil
}
