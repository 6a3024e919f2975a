package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Alias records a tenant alias under the key "tenant_alias".
func Alias(alias string) slog.Attr {
	if alias == "" {
		return slog.Attr{}
	}
	return slog.String("tenant_alias", alias)
}
