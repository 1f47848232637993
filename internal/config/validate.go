package config

import (
	"errors"
	"fmt"
)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be positive, got %d", c.Fetch.TimeoutSeconds)
	}
	if c.Fetch.MinIntervalMS < 0 {
		return fmt.Errorf("fetch.min_interval_ms must not be negative, got %d", c.Fetch.MinIntervalMS)
	}
	if c.Fetch.MaxSegmentBytes < 0 {
		return fmt.Errorf("fetch.max_segment_bytes must not be negative, got %d", c.Fetch.MaxSegmentBytes)
	}
	if c.Fetch.MaxSegments < 0 {
		return fmt.Errorf("fetch.max_segments must not be negative, got %d", c.Fetch.MaxSegments)
	}
	if len(c.Fetch.StartCounters) == 0 {
		return errors.New("fetch.start_counters must name at least one counter")
	}
	for _, counter := range c.Fetch.StartCounters {
		if counter < 0 {
			return fmt.Errorf("fetch.start_counters: negative counter %d", counter)
		}
	}
	if len(c.Fetch.DirectRetryDelays) == 0 {
		return errors.New("fetch.direct_retry_delays must name at least one attempt")
	}
	for _, delay := range c.Fetch.DirectRetryDelays {
		if delay < 0 {
			return fmt.Errorf("fetch.direct_retry_delays: negative delay %d", delay)
		}
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
