package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/OllyCat/tsgrab/internal/acquire"
	"github.com/OllyCat/tsgrab/internal/assemble"
	"github.com/OllyCat/tsgrab/internal/config"
	"github.com/OllyCat/tsgrab/internal/logging"
	"github.com/OllyCat/tsgrab/internal/pipeline"
	"github.com/OllyCat/tsgrab/internal/workspace"
)

const (
	exitOK         = 0
	exitFailure    = 1
	exitNoSegments = 2
)

const usageText = `Usage: tsgrab [flags] -o FILE URL_TEMPLATE
       tsgrab [flags] -o FILE --concat-only DIR

Downloads numbered TS segments and assembles them into FILE.

Find the URL of one TS segment (for example with the browser developer tools),
replace the segment number with {counter}, or with {counter:05d} when the
server expects a fixed zero padding, and pass it as URL_TEMPLATE.

Flags:
`

type options struct {
	output     string
	configPath string
	logLevel   string
	logFormat  string
	ffmpeg     string
	concatDir  string
	noProgress bool
	strict     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	var opts options

	fs := pflag.NewFlagSet("tsgrab", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.output, "output", "o", "", "output file (required)")
	fs.StringVar(&opts.configPath, "config", "", "configuration file path")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&opts.logFormat, "log-format", "", "log format (console, json)")
	fs.StringVar(&opts.ffmpeg, "ffmpeg", "", "ffmpeg binary")
	fs.StringVarP(&opts.concatDir, "concat-only", "c", "", "only assemble the .ts files already in `DIR`")
	fs.BoolVar(&opts.noProgress, "no-progress", false, "disable the progress bar")
	fs.BoolVar(&opts.strict, "strict", false, "exit with status 2 when no segment could be downloaded")
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitFailure
	}

	if err := checkArgs(opts, fs.Args()); err != nil {
		fmt.Fprintf(stderr, "tsgrab: %v\n\n", err)
		fs.Usage()
		return exitFailure
	}

	cfg, err := loadConfig(fs, opts)
	if err != nil {
		fmt.Fprintf(stderr, "tsgrab: %v\n", err)
		return exitFailure
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Writer: stderr})
	if err != nil {
		fmt.Fprintf(stderr, "tsgrab: %v\n", err)
		return exitFailure
	}

	err = execute(ctx, cfg, logger, stderr, opts, fs.Args())
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, pipeline.ErrNoSegments):
		fmt.Fprintln(stderr, "tsgrab: no TS segments downloaded")
		if cfg.Output.StrictExit {
			return exitNoSegments
		}
		return exitOK
	case errors.Is(err, context.Canceled):
		logger.Warn("interrupted")
		return exitFailure
	default:
		logger.Error("run failed", logging.Error(err))
		fmt.Fprintf(stderr, "tsgrab: %v\n", err)
		return exitFailure
	}
}

func checkArgs(opts options, positional []string) error {
	if strings.TrimSpace(opts.output) == "" {
		return errors.New("the -o/--output flag is required")
	}
	if opts.concatDir != "" {
		if len(positional) != 0 {
			return errors.New("--concat-only takes no URL template")
		}
		return nil
	}
	if len(positional) != 1 {
		return fmt.Errorf("expected exactly one URL template, got %d arguments", len(positional))
	}
	return nil
}

// loadConfig applies flags on top of the configuration file.
func loadConfig(fs *pflag.FlagSet, opts options) (*config.Config, error) {
	cfg, _, _, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(opts.logLevel))
	}
	if fs.Changed("log-format") {
		cfg.Logging.Format = strings.ToLower(strings.TrimSpace(opts.logFormat))
	}
	if fs.Changed("ffmpeg") {
		cfg.FFmpeg.Binary = strings.TrimSpace(opts.ffmpeg)
	}
	if opts.noProgress {
		cfg.Output.Progress = false
	}
	if opts.strict {
		cfg.Output.StrictExit = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func execute(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer, opts options, positional []string) error {
	dest, err := filepath.Abs(opts.output)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	var tmpl acquire.Template
	if opts.concatDir == "" {
		tmpl, err = acquire.ParseTemplate(positional[0])
		if err != nil {
			return err
		}
	}

	unlock, err := workspace.LockOutput(dest)
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(); err != nil {
			logger.Warn("output lock release failed", logging.Error(err))
		}
	}()

	if err := assemble.NewFFmpeg(cfg.FFmpeg.Binary, "", logger).Check(); err != nil {
		return err
	}

	showProgress := cfg.Output.Progress && isTerminal(stderr)
	if opts.concatDir != "" {
		return concatOnly(ctx, cfg, logger, stderr, showProgress, opts.concatDir, dest)
	}
	res, err := download(ctx, cfg, logger, stderr, showProgress, tmpl, dest)
	if err != nil {
		return err
	}
	logger.Info("done", slog.Int("segments", res.Segments), slog.String(logging.FieldPath, res.Output))
	return nil
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
