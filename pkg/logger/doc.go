// Package logger builds slog loggers with JSON or text output and
// context-aware attribute injection: extractors registered at construction
// pull request-scoped values (request id, tenant alias) out of the context
// on every log call.
package logger
