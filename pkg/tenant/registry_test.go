package tenant_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platekit/platekit/pkg/tenant"
)

var testTemplate = tenant.ConnParams{
	Host: "localhost", Port: 5432,
	User: "app", Password: "secret",
}

// countingMigrator records every schema initialization per alias.
type countingMigrator struct {
	mu    sync.Mutex
	calls map[string]int
	fail  error
}

func newCountingMigrator() *countingMigrator {
	return &countingMigrator{calls: make(map[string]int)}
}

func (m *countingMigrator) Migrate(ctx context.Context, d *tenant.Descriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[d.Alias]++
	return m.fail
}

func (m *countingMigrator) count(alias string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[alias]
}

func TestRegistryRegister(t *testing.T) {
	t.Parallel()

	t.Run("registers complete params", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewRegistry(tenant.NewMemoryStore())
		params := tenant.ConnParams{DBName: "acme_db", User: "app", Password: "secret"}

		d, err := r.Register(context.Background(), "acme", params)
		require.NoError(t, err)
		assert.Equal(t, "acme", d.Alias)
		assert.Equal(t, "acme_db", d.Params.DBName)

		got, err := r.Resolve(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, d.Params, got.Params)
	})

	t.Run("rejects incomplete params", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewRegistry(tenant.NewMemoryStore())
		_, err := r.Register(context.Background(), "acme", tenant.ConnParams{DBName: "acme_db"})
		assert.ErrorIs(t, err, tenant.ErrInvalidConfig)
	})

	t.Run("rejects unsafe alias", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewRegistry(tenant.NewMemoryStore())
		params := tenant.ConnParams{DBName: "x", User: "u", Password: "p"}
		_, err := r.Register(context.Background(), "not a db name", params)
		assert.ErrorIs(t, err, tenant.ErrInvalidIdentifier)
	})

	t.Run("replaces params idempotently", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewRegistry(tenant.NewMemoryStore())
		first := tenant.ConnParams{DBName: "acme_db", User: "app", Password: "old"}
		second := tenant.ConnParams{DBName: "acme_db", User: "app", Password: "new"}

		_, err := r.Register(context.Background(), "acme", first)
		require.NoError(t, err)
		_, err = r.Register(context.Background(), "acme", second)
		require.NoError(t, err)

		got, err := r.Resolve(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, "new", got.Params.Password)
	})

	t.Run("migrates only on first registration", func(t *testing.T) {
		t.Parallel()

		migrator := newCountingMigrator()
		r := tenant.NewRegistry(tenant.NewMemoryStore(), tenant.WithMigrator(migrator))
		params := tenant.ConnParams{DBName: "acme_db", User: "app", Password: "secret"}

		_, err := r.Register(context.Background(), "acme", params)
		require.NoError(t, err)
		_, err = r.Register(context.Background(), "acme", params)
		require.NoError(t, err)

		assert.Equal(t, 1, migrator.count("acme"))
	})
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	t.Run("unknown alias is not found", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewRegistry(tenant.NewMemoryStore())
		_, err := r.Resolve(context.Background(), "ghost")
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
	})

	t.Run("resolve does not auto-provision", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewRegistry(tenant.NewMemoryStore(), tenant.WithTemplateParams(testTemplate))
		_, err := r.Resolve(context.Background(), "client_42")
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
	})
}

func TestRegistryEnsure(t *testing.T) {
	t.Parallel()

	t.Run("auto-provisions unknown alias from template", func(t *testing.T) {
		t.Parallel()

		migrator := newCountingMigrator()
		r := tenant.NewRegistry(tenant.NewMemoryStore(),
			tenant.WithTemplateParams(testTemplate),
			tenant.WithMigrator(migrator),
		)

		d, err := r.Ensure(context.Background(), "client_42")
		require.NoError(t, err)
		assert.Equal(t, "client_42", d.Alias)
		assert.Equal(t, "client_42", d.Params.DBName, "database name follows the alias convention")
		assert.Equal(t, testTemplate.User, d.Params.User)
		assert.Equal(t, 1, migrator.count("client_42"))
	})

	t.Run("is idempotent", func(t *testing.T) {
		t.Parallel()

		migrator := newCountingMigrator()
		r := tenant.NewRegistry(tenant.NewMemoryStore(),
			tenant.WithTemplateParams(testTemplate),
			tenant.WithMigrator(migrator),
		)

		first, err := r.Ensure(context.Background(), "client_7")
		require.NoError(t, err)
		second, err := r.Ensure(context.Background(), "client_7")
		require.NoError(t, err)

		assert.Equal(t, first.Alias, second.Alias)
		assert.Equal(t, first.Params, second.Params)
		assert.Equal(t, 1, migrator.count("client_7"), "schema must be initialized exactly once")
	})

	t.Run("returns existing descriptor untouched", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewRegistry(tenant.NewMemoryStore(), tenant.WithTemplateParams(testTemplate))
		explicit := tenant.ConnParams{DBName: "special_db", User: "su", Password: "sp"}
		_, err := r.Register(context.Background(), "client_9", explicit)
		require.NoError(t, err)

		d, err := r.Ensure(context.Background(), "client_9")
		require.NoError(t, err)
		assert.Equal(t, "special_db", d.Params.DBName, "ensure must not overwrite explicit registration")
	})

	t.Run("fails without a usable template", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewRegistry(tenant.NewMemoryStore())
		_, err := r.Ensure(context.Background(), "client_42")
		assert.ErrorIs(t, err, tenant.ErrInvalidConfig)
	})

	t.Run("rejects underivable identifiers", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewRegistry(tenant.NewMemoryStore(), tenant.WithTemplateParams(testTemplate))
		_, err := r.Ensure(context.Background(), "no such tenant!")
		assert.ErrorIs(t, err, tenant.ErrInvalidIdentifier)
	})

	t.Run("migration failure leaves tenant unregistered", func(t *testing.T) {
		t.Parallel()

		migrator := newCountingMigrator()
		migrator.fail = errors.New("database unreachable")
		r := tenant.NewRegistry(tenant.NewMemoryStore(),
			tenant.WithTemplateParams(testTemplate),
			tenant.WithMigrator(migrator),
		)

		_, err := r.Ensure(context.Background(), "client_13")
		require.ErrorIs(t, err, tenant.ErrMigrationFailed)

		_, err = r.Resolve(context.Background(), "client_13")
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound, "half-provisioned tenant must not be resolvable")

		// Next attempt retries the migration instead of caching the failure.
		migrator.fail = nil
		_, err = r.Ensure(context.Background(), "client_13")
		require.NoError(t, err)
		assert.Equal(t, 2, migrator.count("client_13"))
	})
}

func TestRegistryEnsureConcurrent(t *testing.T) {
	t.Parallel()

	// N simultaneous first requests for the same unseen tenant must yield
	// exactly one registration and one schema migration.
	const workers = 50

	migrator := newCountingMigrator()
	r := tenant.NewRegistry(tenant.NewMemoryStore(),
		tenant.WithTemplateParams(testTemplate),
		tenant.WithMigrator(migrator),
	)

	var (
		wg    sync.WaitGroup
		fails atomic.Int32
	)
	start := make(chan struct{})

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := r.Ensure(context.Background(), "client_99"); err != nil {
				fails.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Zero(t, fails.Load())
	assert.Equal(t, 1, migrator.count("client_99"), "exactly one schema migration under the race")
}

func TestRegistryDerivedEnsure(t *testing.T) {
	t.Parallel()

	t.Run("by client id", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewRegistry(tenant.NewMemoryStore(), tenant.WithTemplateParams(testTemplate))
		d, err := r.EnsureForClientID(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, "client_42", d.Alias)
	})

	t.Run("by username", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewRegistry(tenant.NewMemoryStore(), tenant.WithTemplateParams(testTemplate))
		d, err := r.EnsureForUsername(context.Background(), "AcmeCorp")
		require.NoError(t, err)
		assert.Equal(t, "client_acmecorp", d.Alias)
	})
}
