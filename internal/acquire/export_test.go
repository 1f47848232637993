package acquire

import (
	"context"
	"time"
)

// SetSleep replaces the delay function used between direct-fetch attempts.
func (a *Acquirer) SetSleep(fn func(context.Context, time.Duration) error) {
	a.sleep = fn
}
