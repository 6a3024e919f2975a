package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tenant:descriptor:"

// RedisStore is a DescriptorStore backed by Redis so that dynamically
// registered tenants survive restarts and are visible to every instance
// behind the same load balancer.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a descriptor store on top of an established client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// redisRecord is the wire format for stored descriptors. ConnParams hides
// the password from its JSON form, so the record carries it separately.
type redisRecord struct {
	Alias     string     `json:"alias"`
	Params    ConnParams `json:"params"`
	Password  string     `json:"password"`
	CreatedAt int64      `json:"created_at"`
}

func (s *RedisStore) Get(ctx context.Context, alias string) (*Descriptor, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+alias).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("redis store: get %q: %w", alias, err)
	}

	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("redis store: decode %q: %w", alias, err)
	}

	d := Descriptor{
		Alias:     rec.Alias,
		Params:    rec.Params,
		CreatedAt: time.Unix(rec.CreatedAt, 0).UTC(),
	}
	d.Params.Password = rec.Password
	return &d, nil
}

func (s *RedisStore) Put(ctx context.Context, d *Descriptor) error {
	raw, err := json.Marshal(redisRecord{
		Alias:     d.Alias,
		Params:    d.Params,
		Password:  d.Params.Password,
		CreatedAt: d.CreatedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("redis store: encode %q: %w", d.Alias, err)
	}

	// Descriptors are immutable once created; no TTL.
	if err := s.client.Set(ctx, redisKeyPrefix+d.Alias, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis store: put %q: %w", d.Alias, err)
	}
	return nil
}
