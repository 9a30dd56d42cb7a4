package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists carts between requests. Get returns ErrNotFound for unknown
// or expired carts.
type Store interface {
	Get(ctx context.Context, id string) (*Cart, error)
	Save(ctx context.Context, c *Cart, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps carts in process. Entries are stored encoded so callers
// never share a *Cart.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]memoryEntry
	Now   func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]memoryEntry)}
}

func (m *MemoryStore) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (*Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.carts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.carts, id)
		return nil, ErrNotFound
	}
	var c Cart
	if err := json.Unmarshal(entry.data, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &c, nil
}

// Save implements Store. A non-positive ttl keeps the cart until deleted.
func (m *MemoryStore) Save(_ context.Context, c *Cart, ttl time.Duration) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.carts[c.ID] = entry
	m.mu.Unlock()
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.carts, id)
	m.mu.Unlock()
	return nil
}

// RedisStore keeps carts as JSON strings with a key expiry.
type RedisStore struct {
	R      *redis.Client
	Prefix string
}

func (s RedisStore) key(id string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "cart:"
	}
	return prefix + id
}

// Get implements Store.
func (s RedisStore) Get(ctx context.Context, id string) (*Cart, error) {
	raw, err := s.R.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &c, nil
}

// Save implements Store.
func (s RedisStore) Save(ctx context.Context, c *Cart, ttl time.Duration) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return s.R.Set(ctx, s.key(c.ID), data, ttl).Err()
}

// Delete implements Store.
func (s RedisStore) Delete(ctx context.Context, id string) error {
	return s.R.Del(ctx, s.key(id)).Err()
}
