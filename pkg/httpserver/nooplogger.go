package httpserver

import "log/slog"

// newNoopLogger returns a slog.Logger that discards all logs.
func newNoopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
