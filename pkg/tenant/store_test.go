package tenant_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platekit/platekit/pkg/tenant"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	t.Run("round-trips a descriptor", func(t *testing.T) {
		t.Parallel()

		store := tenant.NewMemoryStore()
		want := &tenant.Descriptor{
			Alias:     "client_1",
			Params:    tenant.ConnParams{User: "app", Password: "secret", DBName: "client_1"},
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, store.Put(context.Background(), want))

		got, err := store.Get(context.Background(), "client_1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("unknown alias is not found", func(t *testing.T) {
		t.Parallel()

		store := tenant.NewMemoryStore()
		_, err := store.Get(context.Background(), "ghost")
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
	})

	t.Run("put replaces the previous entry", func(t *testing.T) {
		t.Parallel()

		store := tenant.NewMemoryStore()
		require.NoError(t, store.Put(context.Background(), &tenant.Descriptor{
			Alias:  "client_1",
			Params: tenant.ConnParams{DBName: "old"},
		}))
		require.NoError(t, store.Put(context.Background(), &tenant.Descriptor{
			Alias:  "client_1",
			Params: tenant.ConnParams{DBName: "new"},
		}))

		got, err := store.Get(context.Background(), "client_1")
		require.NoError(t, err)
		assert.Equal(t, "new", got.Params.DBName)
	})

	t.Run("callers cannot mutate stored state", func(t *testing.T) {
		t.Parallel()

		store := tenant.NewMemoryStore()
		require.NoError(t, store.Put(context.Background(), &tenant.Descriptor{
			Alias:  "client_1",
			Params: tenant.ConnParams{DBName: "client_1"},
		}))

		got, err := store.Get(context.Background(), "client_1")
		require.NoError(t, err)
		got.Params.DBName = "tampered"

		again, err := store.Get(context.Background(), "client_1")
		require.NoError(t, err)
		assert.Equal(t, "client_1", again.Params.DBName)
	})

	t.Run("is safe for concurrent use", func(t *testing.T) {
		t.Parallel()

		store := tenant.NewMemoryStore()
		var wg sync.WaitGroup
		for i := range 10 {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				alias := fmt.Sprintf("client_%d", n)
				for range 100 {
					_ = store.Put(context.Background(), &tenant.Descriptor{Alias: alias})
					_, _ = store.Get(context.Background(), alias)
				}
			}(i)
		}
		wg.Wait()
	})
}
