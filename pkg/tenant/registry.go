package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Migrator initializes the schema of a newly registered tenant database.
// The registry invokes it at most once per new alias.
type Migrator interface {
	Migrate(ctx context.Context, d *Descriptor) error
}

// MigratorFunc adapts a function to the Migrator interface.
type MigratorFunc func(ctx context.Context, d *Descriptor) error

func (f MigratorFunc) Migrate(ctx context.Context, d *Descriptor) error { return f(ctx, d) }

// Registry maps tenant aliases to physical database connection parameters
// and supports dynamic registration at runtime. Auto-provisioning derives
// connection parameters by naming convention: the synthesized database name
// is the alias itself, on top of template parameters supplied at
// construction.
type Registry struct {
	store    DescriptorStore
	policy   AliasPolicy
	template ConnParams
	migrator Migrator
	log      *slog.Logger

	// Per-alias locks serialize first-time provisioning so that two
	// simultaneous first requests for the same unseen tenant cannot race
	// to create duplicate schemas.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithAliasPolicy overrides the alias canonicalization policy.
func WithAliasPolicy(p AliasPolicy) RegistryOption {
	return func(r *Registry) { r.policy = p }
}

// WithTemplateParams sets the connection parameters used to synthesize
// descriptors for auto-provisioned tenants. The database name is always
// replaced with the alias.
func WithTemplateParams(p ConnParams) RegistryOption {
	return func(r *Registry) { r.template = p }
}

// WithMigrator sets the schema-initialization collaborator. A nil migrator
// disables schema initialization.
func WithMigrator(m Migrator) RegistryOption {
	return func(r *Registry) { r.migrator = m }
}

// WithRegistryLogger sets the logger used for registration events.
func WithRegistryLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) { r.log = log }
}

// NewRegistry creates a registry over the given descriptor store.
func NewRegistry(store DescriptorStore, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:  store,
		policy: DefaultAliasPolicy(),
		log:    slog.New(slog.DiscardHandler),
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the registry's alias canonicalization policy.
func (r *Registry) Policy() AliasPolicy { return r.policy }

// Register idempotently adds or replaces a tenant's connection parameters.
// Returns ErrInvalidIdentifier for an unusable alias and ErrInvalidConfig
// for incomplete parameters. When a migrator is configured, schema
// initialization runs for aliases the registry has not seen before.
func (r *Registry) Register(ctx context.Context, alias string, params ConnParams) (*Descriptor, error) {
	alias, err := r.policy.Canonicalize(alias)
	if err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	lock := r.aliasLock(alias)
	lock.Lock()
	defer lock.Unlock()

	_, lookupErr := r.store.Get(ctx, alias)
	firstSeen := errors.Is(lookupErr, ErrTenantNotFound)
	if lookupErr != nil && !firstSeen {
		return nil, lookupErr
	}

	d := &Descriptor{Alias: alias, Params: params, CreatedAt: time.Now().UTC()}
	if firstSeen {
		if err := r.migrate(ctx, d); err != nil {
			return nil, err
		}
	}

	if err := r.store.Put(ctx, d); err != nil {
		return nil, fmt.Errorf("register tenant %q: %w", alias, err)
	}

	r.log.InfoContext(ctx, "tenant registered",
		slog.String("tenant_alias", alias),
		slog.Bool("first_seen", firstSeen))
	return d, nil
}

// Resolve looks up a previously registered tenant.
// Returns ErrTenantNotFound if the alias has never been registered.
func (r *Registry) Resolve(ctx context.Context, alias string) (*Descriptor, error) {
	alias, err := r.policy.Canonicalize(alias)
	if err != nil {
		return nil, err
	}
	return r.store.Get(ctx, alias)
}

// Ensure resolves an alias or client identifier, auto-provisioning the
// tenant when unknown: the canonical alias is derived deterministically by
// the alias policy, connection parameters are synthesized from the template
// and the schema is initialized at most once. Concurrent first-time calls
// for the same identifier result in exactly one registration and one
// migration.
func (r *Registry) Ensure(ctx context.Context, identifier string) (*Descriptor, error) {
	alias, err := r.policy.Canonicalize(identifier)
	if err != nil {
		return nil, err
	}

	// Fast path: already registered.
	d, err := r.store.Get(ctx, alias)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, ErrTenantNotFound) {
		return nil, err
	}

	lock := r.aliasLock(alias)
	lock.Lock()
	defer lock.Unlock()

	// A concurrent caller may have provisioned the alias while we waited.
	d, err = r.store.Get(ctx, alias)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, ErrTenantNotFound) {
		return nil, err
	}

	params := r.template
	params.DBName = alias
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("auto-provision %q: %w", alias, err)
	}

	d = &Descriptor{Alias: alias, Params: params, CreatedAt: time.Now().UTC()}
	if err := r.migrate(ctx, d); err != nil {
		return nil, err
	}
	if err := r.store.Put(ctx, d); err != nil {
		return nil, fmt.Errorf("auto-provision %q: %w", alias, err)
	}

	r.log.InfoContext(ctx, "tenant auto-provisioned", slog.String("tenant_alias", alias))
	return d, nil
}

// EnsureForClientID derives the canonical alias for a numeric client
// identifier and ensures the tenant exists.
func (r *Registry) EnsureForClientID(ctx context.Context, clientID int64) (*Descriptor, error) {
	return r.Ensure(ctx, r.policy.ForClientID(clientID))
}

// EnsureForUsername derives the canonical alias for a client username and
// ensures the tenant exists.
func (r *Registry) EnsureForUsername(ctx context.Context, username string) (*Descriptor, error) {
	alias, err := r.policy.ForUsername(username)
	if err != nil {
		return nil, err
	}
	return r.Ensure(ctx, alias)
}

func (r *Registry) migrate(ctx context.Context, d *Descriptor) error {
	if r.migrator == nil {
		return nil
	}
	if err := r.migrator.Migrate(ctx, d); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

func (r *Registry) aliasLock(alias string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[alias]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[alias] = lock
	}
	return lock
}
