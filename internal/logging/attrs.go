package logging

import (
	"log/slog"

	"github.com/dustin/go-humanize"
)

// Common attribute keys.
const (
	FieldComponent = "component"
	FieldSession   = "session"
	FieldURL       = "url"
	FieldCounter   = "counter"
	FieldFormat    = "format"
	FieldPath      = "path"
)

// Component tags records with the emitting subsystem; the console handler
// renders it in front of the message.
func Component(name string) slog.Attr {
	return slog.String(FieldComponent, name)
}

// Error wraps err as an "error" attribute. A nil error yields an empty attr
// which handlers drop.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// Size renders a byte count in human-readable form.
func Size(key string, n int64) slog.Attr {
	if n < 0 {
		n = 0
	}
	return slog.String(key, humanize.Bytes(uint64(n)))
}
