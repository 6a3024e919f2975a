package tenant

import "errors"

var (
	// ErrMissingTenant is returned when a request carries no tenant
	// indicator at all (no header, no authenticated claims).
	ErrMissingTenant = errors.New("missing tenant indicator")

	// ErrTenantNotFound is returned when an alias is absent from the
	// registry and cannot be auto-provisioned.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrInvalidIdentifier is returned when a tenant indicator cannot be
	// canonicalized into a safe alias.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrInvalidConfig is returned when registration is attempted with
	// incomplete connection parameters.
	ErrInvalidConfig = errors.New("incomplete tenant connection parameters")

	// ErrConnectionFailed is returned when the tenant database is
	// unreachable or rejects the credentials.
	ErrConnectionFailed = errors.New("failed to connect to tenant database")

	// ErrMigrationFailed is returned when schema initialization of a newly
	// provisioned tenant database fails.
	ErrMigrationFailed = errors.New("tenant schema migration failed")

	// ErrNoTenantInContext is returned when a data-access accessor is
	// called outside an active tenant scope. This is a programming error;
	// there is no default store to fall back to.
	ErrNoTenantInContext = errors.New("no tenant in context")

	// ErrPoolsClosed is returned when a handle is requested after Close.
	ErrPoolsClosed = errors.New("tenant connection pools are closed")
)
