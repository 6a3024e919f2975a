package tenant

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// OpenFunc opens a database handle for a resolved tenant descriptor.
type OpenFunc func(ctx context.Context, d *Descriptor) (*pgxpool.Pool, error)

// Pools owns the alias-to-handle cache. Handles are opened lazily on the
// first request for an alias and reused afterwards; under a concurrent
// race for the same unseen alias exactly one physical open happens and
// every other caller waits for its result.
type Pools struct {
	registry *Registry
	open     OpenFunc
	log      *slog.Logger

	mu       sync.RWMutex
	pools    map[string]*pgxpool.Pool
	inflight map[string]*openCall
	closed   bool
}

// openCall tracks one in-progress physical connection open.
type openCall struct {
	done chan struct{}
	pool *pgxpool.Pool
	err  error
}

// PoolsOption configures Pools.
type PoolsOption func(*Pools)

// WithPoolsLogger sets the logger for handle lifecycle events.
func WithPoolsLogger(log *slog.Logger) PoolsOption {
	return func(p *Pools) { p.log = log }
}

// NewPools creates the handle cache. The open function is the only place a
// physical connection is created; errors from it are surfaced to callers
// untouched apart from being marked as ErrConnectionFailed, retry policy
// belongs to the HTTP layer.
func NewPools(registry *Registry, open OpenFunc, opts ...PoolsOption) *Pools {
	p := &Pools{
		registry: registry,
		open:     open,
		log:      slog.New(slog.DiscardHandler),
		pools:    make(map[string]*pgxpool.Pool),
		inflight: make(map[string]*openCall),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Get returns a cached handle for the alias, opening one on first use.
// The alias is resolved through the registry (auto-provisioning included),
// so a handle always targets a registered tenant.
func (p *Pools) Get(ctx context.Context, alias string) (*pgxpool.Pool, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrPoolsClosed
	}
	if pool, ok := p.pools[alias]; ok {
		p.mu.RUnlock()
		return pool, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolsClosed
	}
	if pool, ok := p.pools[alias]; ok {
		p.mu.Unlock()
		return pool, nil
	}
	if call, ok := p.inflight[alias]; ok {
		// Somebody else is opening this alias; wait for their result.
		p.mu.Unlock()
		select {
		case <-call.done:
			return call.pool, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &openCall{done: make(chan struct{})}
	p.inflight[alias] = call
	p.mu.Unlock()

	call.pool, call.err = p.dial(ctx, alias)
	close(call.done)

	p.mu.Lock()
	delete(p.inflight, alias)
	if call.err == nil && !p.closed {
		p.pools[alias] = call.pool
	}
	closed := p.closed
	p.mu.Unlock()

	if call.err != nil {
		return nil, call.err
	}
	if closed {
		call.pool.Close()
		return nil, ErrPoolsClosed
	}
	return call.pool, nil
}

func (p *Pools) dial(ctx context.Context, alias string) (*pgxpool.Pool, error) {
	d, err := p.registry.Ensure(ctx, alias)
	if err != nil {
		return nil, err
	}

	pool, err := p.open(ctx, d)
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	p.log.InfoContext(ctx, "tenant database handle opened", slog.String("tenant_alias", alias))
	return pool, nil
}

// Evict closes and removes the cached handle for the alias, if present.
// Idempotent; evicting an unknown alias is a no-op. The next Get for the
// alias opens a fresh handle.
func (p *Pools) Evict(alias string) {
	p.mu.Lock()
	pool, ok := p.pools[alias]
	delete(p.pools, alias)
	p.mu.Unlock()

	if ok {
		pool.Close()
		p.log.Info("tenant database handle evicted", slog.String("tenant_alias", alias))
	}
}

// Close evicts every cached handle and rejects further Get calls.
func (p *Pools) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	pools := p.pools
	p.pools = make(map[string]*pgxpool.Pool)
	p.mu.Unlock()

	for _, pool := range pools {
		pool.Close()
	}
}
