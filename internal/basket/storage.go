package basket

import (
	"context"
	"strings"
	"sync"
)

// StorageKey is the fixed key a basket is persisted under.
const StorageKey = "cake_cart"

// Storage is durable key-value storage for serialized baskets.
type Storage interface {
	// Get returns ok=false when nothing is stored under key.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// MemoryStorage keeps baskets in process memory.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	return value, ok, nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

type namespaced struct {
	prefix string
	inner  Storage
}

// Namespaced scopes every key of inner under prefix, e.g. one namespace per session.
func Namespaced(inner Storage, prefix string) Storage {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return inner
	}
	return &namespaced{prefix: prefix, inner: inner}
}

func (n *namespaced) key(key string) string {
	return n.prefix + ":" + key
}

func (n *namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.inner.Get(ctx, n.key(key))
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.inner.Set(ctx, n.key(key), value)
}
