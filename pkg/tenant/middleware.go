package tenant

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// ErrorHandler renders tenant-resolution failures.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// middlewareConfig holds boundary adapter configuration.
type middlewareConfig struct {
	errorHandler ErrorHandler
	skipPaths    []string
	log          *slog.Logger
}

// MiddlewareOption configures the boundary adapter.
type MiddlewareOption func(*middlewareConfig)

// WithErrorHandler sets a custom error renderer.
func WithErrorHandler(h ErrorHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithSkipPaths sets path prefixes that bypass tenant resolution
// (health checks, tenant administration).
func WithSkipPaths(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) { c.skipPaths = paths }
}

// WithMiddlewareLogger sets the logger for boundary events.
func WithMiddlewareLogger(log *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// Middleware is the request boundary adapter. Per request it resolves the
// tenant indicator, ensures the tenant is registered (auto-provisioning
// unknown but derivable aliases), warms a live database handle, binds the
// tenant scope to the request context and runs the handler. The binding
// lives only in the request's derived context, so it is gone on every exit
// path, panic and cancellation included; requests without a usable
// indicator fail closed, never falling back to a default tenant.
func Middleware(registry *Registry, pools *Pools, resolve Resolver, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		errorHandler: DefaultErrorHandler,
		log:          slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			identifier, err := resolve(r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			if identifier == "" {
				cfg.errorHandler(w, r, ErrMissingTenant)
				return
			}

			d, err := registry.Ensure(r.Context(), identifier)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			db, err := pools.Get(r.Context(), d.Alias)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			ctx := WithScope(r.Context(), d.Alias, db)

			defer func() {
				// The tenant binding is already out of scope here; this
				// only turns an escaped panic into the generic response.
				if rec := recover(); rec != nil {
					cfg.log.ErrorContext(ctx, "panic while handling tenant request",
						slog.Any("panic", rec),
						slog.String("tenant_alias", d.Alias))
					http.Error(w, "Internal server error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTenant guards routes that must run inside a tenant scope.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = DefaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := AliasFromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoTenantInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DefaultErrorHandler maps the tenant error taxonomy onto HTTP statuses:
// missing indicator is unauthorized, unresolvable indicators are client
// errors, unreachable databases are upstream failures.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrMissingTenant):
		http.Error(w, "Missing tenant indicator", http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidIdentifier):
		http.Error(w, "Invalid tenant identifier", http.StatusBadRequest)
	case errors.Is(err, ErrTenantNotFound):
		http.Error(w, "Tenant not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidConfig):
		http.Error(w, "Tenant is not provisionable", http.StatusBadRequest)
	case errors.Is(err, ErrConnectionFailed), errors.Is(err, ErrMigrationFailed):
		http.Error(w, "Tenant database unavailable", http.StatusBadGateway)
	case errors.Is(err, ErrNoTenantInContext):
		http.Error(w, "Missing tenant scope", http.StatusUnauthorized)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
