// Package memo memoizes deterministic calculations by a content hash of
// their inputs.
package memo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"github.com/kilianp07/assetfin/core/model"
	"github.com/kilianp07/assetfin/core/pricing"
)

// Store persists encoded results by key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Key hashes the JSON encoding of parts. Map keys are sorted by encoding/json
// so equal inputs give equal keys.
func Key(parts ...any) (string, error) {
	h := sha256.New()
	for i, p := range parts {
		b, err := json.Marshal(p)
		if err != nil {
			return "", fmt.Errorf("memo key part %d: %w", i, err)
		}
		h.Write(b)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Encode serialises v with msgpack.
func Encode(v any) ([]byte, error) { return msgpack.Marshal(v) }

// Decode is the inverse of Encode.
func Decode(b []byte, v any) error { return msgpack.Unmarshal(b, v) }

// MemoryStore is an in-process Store. A positive limit evicts the oldest
// entries first.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string][]byte
	order []string
	limit int
}

// NewMemoryStore creates a store holding at most limit entries (0 = unbounded).
func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte), limit: limit}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		m.order = append(m.order, key)
	}
	m.data[key] = value
	for m.limit > 0 && len(m.order) > m.limit {
		delete(m.data, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Stats counts cache lookups.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Cache memoizes values of type T in a Store. Concurrent calls for the same
// key share one computation.
type Cache[T any] struct {
	store  Store
	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache wraps store. A nil store gets an unbounded MemoryStore.
func NewCache[T any](store Store) *Cache[T] {
	if store == nil {
		store = NewMemoryStore(0)
	}
	return &Cache[T]{store: store}
}

// Do returns the cached value for key or computes, stores and returns it.
// The boolean reports a cache hit. Store read errors fall through to fn;
// write errors are returned with the computed value.
func (c *Cache[T]) Do(ctx context.Context, key string, fn func() (T, error)) (T, bool, error) {
	var zero T
	if b, ok, err := c.store.Get(ctx, key); err == nil && ok {
		var v T
		if err := Decode(b, &v); err == nil {
			c.hits.Add(1)
			return v, true, nil
		}
	}
	ran := false
	res, err, _ := c.group.Do(key, func() (any, error) {
		ran = true
		v, err := fn()
		if err != nil {
			return zero, err
		}
		b, err := Encode(v)
		if err != nil {
			return v, fmt.Errorf("memo encode: %w", err)
		}
		if err := c.store.Put(ctx, key, b); err != nil {
			return v, fmt.Errorf("memo put: %w", err)
		}
		return v, nil
	})
	if ran {
		c.misses.Add(1)
	} else {
		c.hits.Add(1)
	}
	v, _ := res.(T)
	return v, !ran && err == nil, err
}

// Stats returns the hit and miss counters.
func (c *Cache[T]) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// RunKey is the content hash of one engine run: the portfolio (assets, costs,
// constants), the run options and the merchant price source fingerprint.
func RunKey(p model.Portfolio, opts any, prices pricing.Source) (string, error) {
	return Key(p, opts, pricing.FingerprintOf(prices))
}
