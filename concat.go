package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/OllyCat/tsgrab/internal/assemble"
	"github.com/OllyCat/tsgrab/internal/config"
	"github.com/OllyCat/tsgrab/internal/logging"
	"github.com/OllyCat/tsgrab/internal/pipeline"
	"github.com/OllyCat/tsgrab/internal/workspace"
)

// concatOnly assembles segments that are already on disk in dir, skipping
// acquisition. Files are taken in natural order.
func concatOnly(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer, showProgress bool, dir, dest string) error {
	files, err := workspace.ListSegments(dir)
	if err != nil {
		return fmt.Errorf("list segments in %s: %w", dir, err)
	}
	if len(files) == 0 {
		return pipeline.ErrNoSegments
	}
	logger.Info("assembling existing segments", slog.String(logging.FieldPath, dir), slog.Int("segments", len(files)))

	ws, err := workspace.New(cfg.Paths.StagingDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := ws.Close(); err != nil {
			logger.Warn("workspace cleanup failed", logging.Error(err))
		}
	}()

	asm := withSteps(assemble.NewFFmpeg(cfg.FFmpeg.Binary, ws.Dir(), logger), stderr, showProgress)
	return pipeline.Assemble(ctx, asm, files, ws.Dir(), dest)
}

// steppedAssembler advances a two-step bar as concat and transcode finish.
type steppedAssembler struct {
	assemble.Assembler
	bar *progressbar.ProgressBar
}

func withSteps(asm assemble.Assembler, stderr io.Writer, showProgress bool) assemble.Assembler {
	if !showProgress {
		return asm
	}
	bar := progressbar.NewOptions(2,
		progressbar.OptionSetWriter(stderr),
		progressbar.OptionSetDescription("Assembling output"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return &steppedAssembler{Assembler: asm, bar: bar}
}

func (s *steppedAssembler) Concat(ctx context.Context, files []string) (string, error) {
	s.bar.Describe("Concatenating segments")
	out, err := s.Assembler.Concat(ctx, files)
	if err == nil {
		_ = s.bar.Add(1)
	}
	return out, err
}

func (s *steppedAssembler) Transcode(ctx context.Context, src, dst string) error {
	s.bar.Describe("Transcoding")
	err := s.Assembler.Transcode(ctx, src, dst)
	if err == nil {
		_ = s.bar.Add(1)
	}
	_ = s.bar.Finish()
	return err
}
