// Package pipeline runs one download session end to end: acquire segments
// into a scoped workspace, assemble them, and deliver the result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/OllyCat/tsgrab/internal/acquire"
	"github.com/OllyCat/tsgrab/internal/assemble"
	"github.com/OllyCat/tsgrab/internal/logging"
	"github.com/OllyCat/tsgrab/internal/workspace"
)

// ErrNoSegments reports that acquisition staged nothing. Callers decide
// whether that is a failure.
var ErrNoSegments = errors.New("no segments downloaded")

// Acquirer produces the ordered staged files of a session.
type Acquirer interface {
	Acquire(ctx context.Context, tmpl acquire.Template) ([]string, error)
}

// Deps wires the collaborators of a session. The workspace is created per
// run; acquirer and assembler are built against it.
type Deps struct {
	NewWorkspace func() (*workspace.Workspace, error)
	NewAcquirer  func(ws *workspace.Workspace) Acquirer
	NewAssembler func(ws *workspace.Workspace) assemble.Assembler
	Logger       *slog.Logger
}

// Result summarizes a finished session.
type Result struct {
	Session  string
	Segments int
	Output   string
}

// Run executes a session for tmpl and moves the final artifact to dest. The
// workspace is removed on every return path.
func Run(ctx context.Context, deps Deps, tmpl acquire.Template, dest string) (res Result, err error) {
	logger := logging.OrNop(deps.Logger).With(logging.Component("pipeline"))

	ws, err := deps.NewWorkspace()
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			logger.Warn("workspace cleanup failed", slog.String(logging.FieldPath, ws.Dir()), logging.Error(cerr))
			if err == nil {
				err = cerr
			}
		}
	}()

	res.Session = ws.ID()
	logger = logger.With(slog.String(logging.FieldSession, ws.ID()))
	logger.Info("session started", slog.String("template", tmpl.String()), slog.String("workspace", ws.Dir()))

	files, err := deps.NewAcquirer(ws).Acquire(ctx, tmpl)
	res.Segments = len(files)
	if err != nil {
		return res, fmt.Errorf("acquire segments: %w", err)
	}
	if len(files) == 0 {
		logger.Warn("no TS segments downloaded")
		return res, ErrNoSegments
	}
	logger.Info("segments downloaded", slog.Int("segments", len(files)))

	if err := Assemble(ctx, deps.NewAssembler(ws), files, ws.Dir(), dest); err != nil {
		return res, err
	}
	res.Output = dest
	logger.Info("output written", slog.String(logging.FieldPath, dest))
	return res, nil
}

// Assemble concatenates files, transcodes the intermediate into workDir, and
// moves the result to dest. A concat failure skips the transcode.
func Assemble(ctx context.Context, asm assemble.Assembler, files []string, workDir, dest string) error {
	if len(files) == 0 {
		return ErrNoSegments
	}
	joined, err := asm.Concat(ctx, files)
	if err != nil {
		return fmt.Errorf("concatenate segments: %w", err)
	}

	final := filepath.Join(workDir, FinalName(dest))
	if err := asm.Transcode(ctx, joined, final); err != nil {
		return fmt.Errorf("transcode %s: %w", filepath.Base(joined), err)
	}
	if err := workspace.MoveFile(final, dest); err != nil {
		return fmt.Errorf("deliver output: %w", err)
	}
	return nil
}

// FinalName is the in-workspace name of the transcoded file. It keeps the
// extension of dest, which selects ffmpeg's output container.
func FinalName(dest string) string {
	ext := filepath.Ext(dest)
	if ext == "" {
		ext = ".mp4"
	}
	return "final" + ext
}
