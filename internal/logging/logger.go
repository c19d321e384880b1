// Package logging defines the structured logger used across cryptnotes.
// The CLI logs through slog, the server through zap.
//
// Secrets (passwords, derived keys, private keys, note keys) must never be
// passed as log arguments.
package logging

import "context"

// Logger is a context-aware, structured logger. The variadic args are
// key/value pairs:
//
//	log.Info(ctx, "note created", "account_id", id, "note_id", noteID)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always carries the given pairs.
	With(args ...any) Logger
}
