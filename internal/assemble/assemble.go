// Package assemble turns staged segments into the final container by driving
// ffmpeg: a lossless concat of the segments, then a transcode that keeps the
// video stream, re-encodes audio to AAC, and moves the moov atom up front.
package assemble

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/OllyCat/tsgrab/internal/logging"
)

const (
	// ManifestName is the concat demuxer input written next to the segments.
	ManifestName = "filelist.txt"
	// ConcatName is the intermediate concatenated stream.
	ConcatName = "concat.ts"

	maxDiagnosticBytes = 4096
)

// Assembler concatenates staged segments and transcodes the result.
type Assembler interface {
	// Concat joins files, in order, without re-encoding and returns the path
	// of the intermediate file.
	Concat(ctx context.Context, files []string) (string, error)
	// Transcode converts src into the container implied by dst.
	Transcode(ctx context.Context, src, dst string) error
}

// ToolError reports a failed ffmpeg invocation together with its output.
type ToolError struct {
	Op     string
	Err    error
	Output string
}

func (e *ToolError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("ffmpeg %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ffmpeg %s: %v: %s", e.Op, e.Err, e.Output)
}

func (e *ToolError) Unwrap() error { return e.Err }

// FFmpeg implements Assembler with the ffmpeg command-line tool.
type FFmpeg struct {
	binary  string
	workDir string
	logger  *slog.Logger
}

// NewFFmpeg returns an Assembler running binary ("ffmpeg" when empty). The
// manifest and intermediate file are written to workDir, or next to the first
// segment when workDir is empty.
func NewFFmpeg(binary, workDir string, logger *slog.Logger) *FFmpeg {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{
		binary:  binary,
		workDir: workDir,
		logger:  logging.OrNop(logger).With(logging.Component("assemble")),
	}
}

// Check verifies that the ffmpeg binary can be resolved.
func (f *FFmpeg) Check() error {
	if _, err := exec.LookPath(f.binary); err != nil {
		return fmt.Errorf("ffmpeg binary %q not found: %w", f.binary, err)
	}
	return nil
}

// Concat writes a manifest and runs the concat demuxer with stream copy.
func (f *FFmpeg) Concat(ctx context.Context, files []string) (string, error) {
	if len(files) == 0 {
		return "", errors.New("concat: no input files")
	}
	dir := f.workDir
	if dir == "" {
		dir = filepath.Dir(files[0])
	}
	manifest := filepath.Join(dir, ManifestName)
	if err := WriteManifest(manifest, files); err != nil {
		return "", err
	}
	output := filepath.Join(dir, ConcatName)

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-c", "copy",
		"-y",
		output,
	}
	if err := f.run(ctx, "concat", args); err != nil {
		return "", err
	}
	return output, nil
}

// Transcode copies the video stream, re-encodes audio to AAC, regenerates
// timestamps, and enables faststart for progressive playback.
func (f *FFmpeg) Transcode(ctx context.Context, src, dst string) error {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-fflags", "+genpts+igndts",
		"-i", src,
		"-c:v", "copy",
		"-c:a", "aac",
		"-strict", "experimental",
		"-movflags", "+faststart",
		"-y",
		dst,
	}
	return f.run(ctx, "transcode", args)
}

func (f *FFmpeg) run(ctx context.Context, op string, args []string) error {
	cmd := exec.CommandContext(ctx, f.binary, args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	f.logger.Info("running ffmpeg", slog.String("op", op), slog.String("command", f.binary+" "+strings.Join(args, " ")))
	started := time.Now()
	if err := cmd.Run(); err != nil {
		toolErr := &ToolError{Op: op, Err: err, Output: diagnostic(output.Bytes())}
		f.logger.Error("ffmpeg failed", slog.String("op", op), logging.Error(err))
		return toolErr
	}
	f.logger.Info("ffmpeg finished", slog.String("op", op), slog.Duration("elapsed", time.Since(started)))
	return nil
}

func diagnostic(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > maxDiagnosticBytes {
		text = "..." + text[len(text)-maxDiagnosticBytes:]
	}
	return text
}

// WriteManifest writes a concat demuxer list of files, in order. Files inside
// the manifest's directory are listed by relative name, others by absolute
// path. Single quotes are escaped the way the demuxer expects.
func WriteManifest(path string, files []string) error {
	dir := filepath.Dir(path)
	var buf bytes.Buffer
	for _, file := range files {
		name, err := manifestEntry(dir, file)
		if err != nil {
			return fmt.Errorf("write concat manifest: %w", err)
		}
		name = strings.ReplaceAll(name, "'", `'\''`)
		fmt.Fprintf(&buf, "file '%s'\n", name)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write concat manifest: %w", err)
	}
	return nil
}

func manifestEntry(dir, file string) (string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absDir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(abs), nil
	}
	return filepath.ToSlash(rel), nil
}
