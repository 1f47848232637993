package acquire

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/OllyCat/tsgrab/internal/logging"
)

// acquireDirect treats a counter-less template as one complete resource. Any
// non-empty payload is accepted; there is no TS validation on this path.
func (a *Acquirer) acquireDirect(ctx context.Context, tmpl Template) ([]string, error) {
	url := tmpl.String()
	a.logger.Warn("template has no counter token, fetching it directly", slog.String(logging.FieldURL, url))

	for attempt, delay := range a.delays {
		if delay > 0 {
			a.logger.Info("waiting before direct fetch", slog.Duration("delay", delay), slog.Int("attempt", attempt+1))
		}
		if err := a.sleep(ctx, delay); err != nil {
			return nil, err
		}

		data, err := a.fetcher.Fetch(ctx, url)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			a.logger.Warn("direct fetch failed", slog.Int("attempt", attempt+1), logging.Error(err))
			continue
		}
		if len(data) == 0 {
			a.logger.Warn("direct fetch returned no data", slog.Int("attempt", attempt+1))
			continue
		}

		path, err := a.stager.StageDirect(data)
		if err != nil {
			return nil, fmt.Errorf("stage direct payload: %w", err)
		}
		if a.progress != nil {
			_ = a.progress.Add64(int64(len(data)))
		}
		a.logger.Info("direct fetch succeeded", logging.Size("size", int64(len(data))))
		return []string{path}, nil
	}

	a.logger.Warn("direct fetch exhausted all attempts", slog.Int("attempts", len(a.delays)))
	return nil, nil
}
