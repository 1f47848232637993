package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/OllyCat/tsgrab/internal/acquire"
	"github.com/OllyCat/tsgrab/internal/assemble"
	"github.com/OllyCat/tsgrab/internal/config"
	"github.com/OllyCat/tsgrab/internal/fetch"
	"github.com/OllyCat/tsgrab/internal/pipeline"
	"github.com/OllyCat/tsgrab/internal/workspace"
)

// download runs one acquisition session for tmpl and assembles the result
// into dest.
func download(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer, showProgress bool, tmpl acquire.Template, dest string) (pipeline.Result, error) {
	client := fetch.New(fetch.Options{
		Timeout:     cfg.Timeout(),
		Headers:     fetch.MergeHeaders(fetch.DefaultHeaders(), cfg.Fetch.Headers),
		MinInterval: cfg.MinInterval(),
		MaxBytes:    cfg.Fetch.MaxSegmentBytes,
	}, logger)

	// total size is unknown up front, so the bar runs as a byte-counting spinner
	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.NewOptions64(-1,
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription("Downloading segments"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}

	deps := pipeline.Deps{
		NewWorkspace: func() (*workspace.Workspace, error) {
			return workspace.New(cfg.Paths.StagingDir)
		},
		NewAcquirer: func(ws *workspace.Workspace) pipeline.Acquirer {
			opts := acquire.Options{
				StartCounters: cfg.Fetch.StartCounters,
				DirectDelays:  cfg.DirectDelays(),
				MaxSegments:   cfg.Fetch.MaxSegments,
			}
			if bar != nil {
				opts.Progress = bar
			}
			return acquire.New(client, ws, opts, logger)
		},
		NewAssembler: func(ws *workspace.Workspace) assemble.Assembler {
			// acquisition is over once the assembler is built
			if bar != nil {
				_ = bar.Finish()
			}
			return withSteps(assemble.NewFFmpeg(cfg.FFmpeg.Binary, ws.Dir(), logger), stderr, showProgress)
		},
		Logger: logger,
	}
	return pipeline.Run(ctx, deps, tmpl, dest)
}
