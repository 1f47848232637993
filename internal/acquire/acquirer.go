package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/OllyCat/tsgrab/internal/fetch"
	"github.com/OllyCat/tsgrab/internal/logging"
)

// Stager persists accepted payloads and returns their paths.
type Stager interface {
	StageSegment(counter int, data []byte) (string, error)
	StageDirect(data []byte) (string, error)
}

// Progress receives byte counts of staged payloads. *progressbar.ProgressBar
// satisfies it.
type Progress interface {
	Add64(n int64) error
	Describe(description string)
}

// Options tunes an Acquirer.
type Options struct {
	// StartCounters are probed in order. Defaults to {0, 1}.
	StartCounters []int
	// DirectDelays is the wait before each direct-fetch attempt of a
	// counter-less template. Defaults to 0s, 1s, 2s.
	DirectDelays []time.Duration
	// MaxSegments stops the sequential loop after that many staged segments.
	// Zero means no limit.
	MaxSegments int
	Progress    Progress
}

// Acquirer runs one acquisition session at a time.
type Acquirer struct {
	fetcher  fetch.Fetcher
	stager   Stager
	starts   []int
	delays   []time.Duration
	limit    int
	progress Progress
	logger   *slog.Logger
	sleep    func(context.Context, time.Duration) error
}

// New creates an Acquirer.
func New(fetcher fetch.Fetcher, stager Stager, opts Options, logger *slog.Logger) *Acquirer {
	starts := opts.StartCounters
	if len(starts) == 0 {
		starts = []int{0, 1}
	}
	delays := opts.DirectDelays
	if len(delays) == 0 {
		delays = []time.Duration{0, time.Second, 2 * time.Second}
	}
	return &Acquirer{
		fetcher:  fetcher,
		stager:   stager,
		starts:   append([]int(nil), starts...),
		delays:   append([]time.Duration(nil), delays...),
		limit:    opts.MaxSegments,
		progress: opts.Progress,
		logger:   logging.OrNop(logger).With(logging.Component("acquire")),
		sleep:    sleepContext,
	}
}

type state int

const (
	stateProbingStart state = iota
	stateProbingFormat
	stateDownloading
	stateDone
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateProbingStart:
		return "probing-start"
	case stateProbingFormat:
		return "probing-format"
	case stateDownloading:
		return "downloading"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type session struct {
	tmpl      Template
	formats   []Format
	startIdx  int
	formatIdx int
	counter   int
	format    Format
	// pending holds a validated payload for counter that is not staged yet.
	pending []byte
	staged  []string
}

// Acquire fetches every segment reachable through tmpl and returns the staged
// paths in download order. An empty result with a nil error means nothing
// validated. Errors are reserved for staging failures and cancellation; in
// that case the paths staged so far are returned alongside the error.
func (a *Acquirer) Acquire(ctx context.Context, tmpl Template) ([]string, error) {
	if !tmpl.HasCounter() {
		return a.acquireDirect(ctx, tmpl)
	}

	s := &session{tmpl: tmpl, formats: tmpl.Formats()}
	current := stateProbingStart
	for current != stateDone && current != stateFailed {
		if err := ctx.Err(); err != nil {
			return s.staged, err
		}
		next, err := a.step(ctx, current, s)
		if err != nil {
			return s.staged, err
		}
		if next != current {
			a.logger.Debug("acquire transition", slog.String("from", current.String()), slog.String("to", next.String()))
		}
		current = next
	}

	if current == stateFailed {
		a.logger.Warn("no start counter and format produced a valid segment",
			slog.String("template", tmpl.String()),
			slog.Any("start_counters", a.starts),
		)
		return nil, nil
	}
	a.logger.Info("acquisition complete",
		slog.Int("segments", len(s.staged)),
		slog.String(logging.FieldFormat, s.format.String()),
	)
	return s.staged, nil
}

func (a *Acquirer) step(ctx context.Context, current state, s *session) (state, error) {
	switch current {
	case stateProbingStart:
		if s.startIdx >= len(a.starts) {
			return stateFailed, nil
		}
		s.counter = a.starts[s.startIdx]
		s.formatIdx = 0
		a.logger.Info("probing start counter", slog.Int(logging.FieldCounter, s.counter))
		return stateProbingFormat, nil

	case stateProbingFormat:
		if s.formatIdx >= len(s.formats) {
			a.logger.Info("no format matched start counter", slog.Int(logging.FieldCounter, s.counter))
			s.startIdx++
			return stateProbingStart, nil
		}
		f := s.formats[s.formatIdx]
		data, ok, err := a.fetchSegment(ctx, s.tmpl.Render(f, s.counter))
		if err != nil {
			return current, err
		}
		if !ok {
			s.formatIdx++
			return stateProbingFormat, nil
		}
		a.logger.Info("counter format accepted",
			slog.String(logging.FieldFormat, f.String()),
			slog.Int(logging.FieldCounter, s.counter),
		)
		s.format = f
		s.pending = data
		return stateDownloading, nil

	case stateDownloading:
		if s.pending == nil {
			if a.limit > 0 && len(s.staged) >= a.limit {
				a.logger.Warn("segment limit reached", slog.Int("limit", a.limit))
				return stateDone, nil
			}
			s.counter++
			data, ok, err := a.fetchSegment(ctx, s.tmpl.Render(s.format, s.counter))
			if err != nil {
				return current, err
			}
			if !ok {
				a.logger.Info("end of stream", slog.Int(logging.FieldCounter, s.counter))
				return stateDone, nil
			}
			s.pending = data
		}
		path, err := a.stager.StageSegment(s.counter, s.pending)
		if err != nil {
			return current, fmt.Errorf("stage segment %d: %w", s.counter, err)
		}
		if a.progress != nil {
			a.progress.Describe(fmt.Sprintf("segment %d", s.counter))
			_ = a.progress.Add64(int64(len(s.pending)))
		}
		a.logger.Debug("segment staged",
			slog.Int(logging.FieldCounter, s.counter),
			slog.String(logging.FieldPath, path),
			logging.Size("size", int64(len(s.pending))),
		)
		s.pending = nil
		s.staged = append(s.staged, path)
		return stateDownloading, nil

	default:
		return current, fmt.Errorf("acquire: unexpected state %s", current)
	}
}

// fetchSegment fetches url and validates the payload. Fetch and validation
// failures both report ok=false; only cancellation of ctx is an error.
func (a *Acquirer) fetchSegment(ctx context.Context, url string) ([]byte, bool, error) {
	data, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		a.logger.Debug("fetch failed", slog.String(logging.FieldURL, url), logging.Error(err))
		return nil, false, nil
	}
	if !ValidSegment(data) {
		a.logger.Debug("payload rejected",
			slog.String(logging.FieldURL, url),
			slog.String("reason", rejectReason(data)),
			slog.Int("bytes", len(data)),
		)
		return nil, false, nil
	}
	return data, true, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
