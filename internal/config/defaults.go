package config

const (
	defaultTimeoutSeconds  = 10
	defaultMaxSegmentBytes = 64 << 20
	defaultFFmpegBinary    = "ffmpeg"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultConfigPath      = "~/.config/tsgrab/config.toml"
	projectConfigName      = "tsgrab.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Fetch: Fetch{
			TimeoutSeconds:    defaultTimeoutSeconds,
			MaxSegmentBytes:   defaultMaxSegmentBytes,
			StartCounters:     []int{0, 1},
			DirectRetryDelays: []int{0, 1, 2},
		},
		FFmpeg: FFmpeg{
			Binary: defaultFFmpegBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Output: Output{
			Progress: true,
		},
	}
}
