package tenant

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// scope is the request-scoped tenant binding. The alias and the handle are
// derived once at the request boundary and read-only afterwards; the binding
// dies with the request context, so concurrent requests can never observe
// each other's tenant.
type scope struct {
	alias string
	db    *pgxpool.Pool
}

// WithAlias binds an alias to the context without a database handle.
// The boundary middleware uses WithScope instead; this variant exists for
// background jobs that resolve their handle explicitly.
func WithAlias(ctx context.Context, alias string) context.Context {
	return context.WithValue(ctx, contextKey{}, &scope{alias: alias})
}

// WithScope binds an alias and its resolved database handle to the context.
func WithScope(ctx context.Context, alias string, db *pgxpool.Pool) context.Context {
	return context.WithValue(ctx, contextKey{}, &scope{alias: alias, db: db})
}

// AliasFromContext retrieves the current tenant alias.
// Returns "", false if no tenant is bound.
func AliasFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(contextKey{}).(*scope)
	if !ok || s == nil || s.alias == "" {
		return "", false
	}
	return s.alias, true
}

// MustAlias retrieves the current tenant alias and panics if none is bound.
// Use only in handlers that cannot run without a tenant.
func MustAlias(ctx context.Context) string {
	alias, ok := AliasFromContext(ctx)
	if !ok {
		panic("tenant: no tenant in context")
	}
	return alias
}

// Conn returns the current tenant's database handle. Calling it outside an
// active tenant scope is a programming error and fails with
// ErrNoTenantInContext rather than defaulting to a shared store.
func Conn(ctx context.Context) (*pgxpool.Pool, error) {
	s, ok := ctx.Value(contextKey{}).(*scope)
	if !ok || s == nil || s.db == nil {
		return nil, ErrNoTenantInContext
	}
	return s.db, nil
}

// MustConn is like Conn but panics when no tenant is bound.
func MustConn(ctx context.Context) *pgxpool.Pool {
	db, err := Conn(ctx)
	if err != nil {
		panic("tenant: no tenant in context")
	}
	return db
}

// LoggerExtractor returns a logger context extractor that adds the current
// tenant alias to every log record emitted within a tenant scope.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if alias, ok := AliasFromContext(ctx); ok {
			return slog.String("tenant_alias", alias), true
		}
		return slog.Attr{}, false
	}
}
