// Package logging builds the slog loggers used across tsgrab.
//
// Two formats are supported: "console" renders one human-readable line per
// record with the component attribute promoted in front of the message, and
// "json" emits machine-readable records with short ts/level/msg keys.
// Components receive a *slog.Logger explicitly; nothing in the module logs
// through a package-level default.
package logging
