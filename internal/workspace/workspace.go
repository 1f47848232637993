// Package workspace owns the per-run temporary directory where segments are
// staged, plus the helpers that move the finished artifact out of it.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/facette/natsort"
	"github.com/google/uuid"
)

const (
	segmentPrefix = "segment_"
	segmentSuffix = ".ts"
	// CounterWidth is the zero-padding of staged filenames. Lexical order of
	// staged names matches fetch order for counters below 10^CounterWidth.
	CounterWidth = 5
	// DirectName is the staged name used when a template has no counter.
	DirectName = segmentPrefix + "direct" + segmentSuffix
)

// Workspace is a scoped staging directory. Close removes it together with
// everything written into it.
type Workspace struct {
	id  string
	dir string
}

// New creates a fresh workspace below parent. An empty parent means the OS
// temporary directory.
func New(parent string) (*Workspace, error) {
	if strings.TrimSpace(parent) == "" {
		parent = os.TempDir()
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create staging parent %s: %w", parent, err)
	}
	id := uuid.NewString()
	dir := filepath.Join(parent, "tsgrab-"+id)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{id: id, dir: dir}, nil
}

// ID returns the session identifier embedded in the directory name.
func (w *Workspace) ID() string { return w.id }

// Dir returns the workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// SegmentName returns the staged filename for counter.
func SegmentName(counter int) string {
	return fmt.Sprintf("%s%0*d%s", segmentPrefix, CounterWidth, counter, segmentSuffix)
}

// StageSegment writes a validated segment under its counter-derived name and
// returns the path. Staged files are write-once.
func (w *Workspace) StageSegment(counter int, data []byte) (string, error) {
	if counter < 0 {
		return "", fmt.Errorf("stage segment: negative counter %d", counter)
	}
	return w.stage(SegmentName(counter), data)
}

// StageDirect writes the single payload of a counter-less template.
func (w *Workspace) StageDirect(data []byte) (string, error) {
	return w.stage(DirectName, data)
}

func (w *Workspace) stage(name string, data []byte) (string, error) {
	path := w.Path(name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("stage %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("stage %s: %w", name, err)
	}
	return path, nil
}

// Close removes the workspace and its contents. It is safe to call more than
// once.
func (w *Workspace) Close() error {
	if w == nil || w.dir == "" {
		return nil
	}
	if err := os.RemoveAll(w.dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove workspace %s: %w", w.dir, err)
	}
	return nil
}

// ListSegments returns the .ts files in dir in natural order, so that
// segment_9.ts precedes segment_10.ts even without zero padding.
func ListSegments(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*"+segmentSuffix))
	if err != nil {
		return nil, err
	}
	regular := files[:0]
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			return nil, err
		}
		if info.Mode().IsRegular() {
			regular = append(regular, file)
		}
	}
	natsort.Sort(regular)
	return regular, nil
}
