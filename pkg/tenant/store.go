package tenant

import (
	"context"
	"sync"
)

// DescriptorStore persists alias to descriptor mappings. The registry is
// the only writer; reads happen on every request, so implementations should
// favor read-mostly concurrency.
type DescriptorStore interface {
	// Get retrieves a descriptor by alias.
	// Returns ErrTenantNotFound if the alias is not registered.
	Get(ctx context.Context, alias string) (*Descriptor, error)

	// Put stores a descriptor, replacing any previous entry for the alias.
	Put(ctx context.Context, d *Descriptor) error
}

// memoryStore is the default in-process descriptor store.
type memoryStore struct {
	mu    sync.RWMutex
	items map[string]Descriptor
}

// NewMemoryStore creates an empty in-memory descriptor store.
func NewMemoryStore() DescriptorStore {
	return &memoryStore{items: make(map[string]Descriptor)}
}

func (s *memoryStore) Get(ctx context.Context, alias string) (*Descriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.items[alias]
	if !ok {
		return nil, ErrTenantNotFound
	}
	// Copy out so callers cannot mutate the stored descriptor.
	return &d, nil
}

func (s *memoryStore) Put(ctx context.Context, d *Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[d.Alias] = *d
	return nil
}
