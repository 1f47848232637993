package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OllyCat/tsgrab/internal/acquire"
	"github.com/OllyCat/tsgrab/internal/assemble"
	"github.com/OllyCat/tsgrab/internal/pipeline"
	"github.com/OllyCat/tsgrab/internal/workspace"
)

type fakeAcquirer struct {
	ws       *workspace.Workspace
	segments int
	err      error
}

func (f *fakeAcquirer) Acquire(_ context.Context, _ acquire.Template) ([]string, error) {
	var files []string
	for i := 1; i <= f.segments; i++ {
		path, err := f.ws.StageSegment(i, []byte{acquire.SyncByte, byte(i)})
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, f.err
}

var errTool = errors.New("exit status 1")

type fakeAssembler struct {
	failConcat    bool
	failTranscode bool
	concatCalls   [][]string
	transcodes    []string
}

func (f *fakeAssembler) Concat(_ context.Context, files []string) (string, error) {
	f.concatCalls = append(f.concatCalls, files)
	if f.failConcat {
		return "", &assemble.ToolError{Op: "concat", Err: errTool, Output: "Invalid data found when processing input"}
	}
	out := filepath.Join(filepath.Dir(files[0]), assemble.ConcatName)
	return out, os.WriteFile(out, []byte("joined"), 0o600)
}

func (f *fakeAssembler) Transcode(_ context.Context, src, dst string) error {
	f.transcodes = append(f.transcodes, src+" -> "+filepath.Base(dst))
	if f.failTranscode {
		return &assemble.ToolError{Op: "transcode", Err: errTool}
	}
	return os.WriteFile(dst, []byte("mp4 bytes"), 0o600)
}

type harness struct {
	parent    string
	dest      string
	acquirer  *fakeAcquirer
	assembler *fakeAssembler
	built     int
}

func newHarness(t *testing.T, segments int) *harness {
	t.Helper()
	return &harness{
		parent:    t.TempDir(),
		dest:      filepath.Join(t.TempDir(), "video.mp4"),
		acquirer:  &fakeAcquirer{segments: segments},
		assembler: &fakeAssembler{},
	}
}

func (h *harness) deps() pipeline.Deps {
	return pipeline.Deps{
		NewWorkspace: func() (*workspace.Workspace, error) { return workspace.New(h.parent) },
		NewAcquirer: func(ws *workspace.Workspace) pipeline.Acquirer {
			h.acquirer.ws = ws
			return h.acquirer
		},
		NewAssembler: func(*workspace.Workspace) assemble.Assembler {
			h.built++
			return h.assembler
		},
	}
}

func (h *harness) assertWorkspaceRemoved(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(h.parent)
	require.NoError(t, err)
	assert.Empty(t, entries, "workspace must not outlive the run")
}

func template(t *testing.T) acquire.Template {
	t.Helper()
	tmpl, err := acquire.ParseTemplate("https://cdn.test/seg_{counter}.ts")
	require.NoError(t, err)
	return tmpl
}

func TestRunSuccess(t *testing.T) {
	h := newHarness(t, 3)

	res, err := pipeline.Run(context.Background(), h.deps(), template(t), h.dest)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Segments)
	assert.Equal(t, h.dest, res.Output)
	assert.NotEmpty(t, res.Session)

	require.Len(t, h.assembler.concatCalls, 1)
	var names []string
	for _, f := range h.assembler.concatCalls[0] {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"segment_00001.ts", "segment_00002.ts", "segment_00003.ts"}, names)
	require.Len(t, h.assembler.transcodes, 1)
	assert.Contains(t, h.assembler.transcodes[0], "-> final.mp4")

	data, err := os.ReadFile(h.dest)
	require.NoError(t, err)
	assert.Equal(t, "mp4 bytes", string(data))
	h.assertWorkspaceRemoved(t)
}

func TestRunNoSegmentsSkipsAssembler(t *testing.T) {
	h := newHarness(t, 0)

	res, err := pipeline.Run(context.Background(), h.deps(), template(t), h.dest)
	require.ErrorIs(t, err, pipeline.ErrNoSegments)
	assert.Zero(t, res.Segments)
	assert.Zero(t, h.built)
	assert.Empty(t, h.assembler.concatCalls)
	assert.NoFileExists(t, h.dest)
	h.assertWorkspaceRemoved(t)
}

func TestRunConcatFailureSkipsTranscode(t *testing.T) {
	h := newHarness(t, 2)
	h.assembler.failConcat = true

	_, err := pipeline.Run(context.Background(), h.deps(), template(t), h.dest)
	require.Error(t, err)

	var toolErr *assemble.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "concat", toolErr.Op)
	assert.Contains(t, err.Error(), "Invalid data found when processing input")
	assert.Empty(t, h.assembler.transcodes)
	assert.NoFileExists(t, h.dest)
	h.assertWorkspaceRemoved(t)
}

func TestRunTranscodeFailureLeavesNoOutput(t *testing.T) {
	h := newHarness(t, 2)
	h.assembler.failTranscode = true

	_, err := pipeline.Run(context.Background(), h.deps(), template(t), h.dest)
	require.ErrorIs(t, err, errTool)
	assert.NoFileExists(t, h.dest)
	h.assertWorkspaceRemoved(t)
}

func TestRunAcquireErrorPropagates(t *testing.T) {
	h := newHarness(t, 1)
	h.acquirer.err = context.Canceled

	res, err := pipeline.Run(context.Background(), h.deps(), template(t), h.dest)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Segments)
	assert.Zero(t, h.built)
	h.assertWorkspaceRemoved(t)
}

func TestRunWorkspaceFailure(t *testing.T) {
	deps := pipeline.Deps{
		NewWorkspace: func() (*workspace.Workspace, error) { return nil, errors.New("read-only file system") },
	}
	_, err := pipeline.Run(context.Background(), deps, template(t), "out.mp4")
	require.Error(t, err)
}

func TestAssembleRequiresFiles(t *testing.T) {
	err := pipeline.Assemble(context.Background(), &fakeAssembler{}, nil, t.TempDir(), "out.mp4")
	require.ErrorIs(t, err, pipeline.ErrNoSegments)
}

func TestFinalName(t *testing.T) {
	assert.Equal(t, "final.mkv", pipeline.FinalName("/videos/show.mkv"))
	assert.Equal(t, "final.mp4", pipeline.FinalName("/videos/show"))
}
