// Package cache provides named TTL caches for upstream API responses,
// backed either by process memory or by Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
)

// Stats describes the state of one named cache.
type Stats struct {
	Name           string `json:"name"`
	ValidEntries   int64  `json:"valid_entries"`
	InvalidEntries int64  `json:"invalid_entries"`
	TotalEntries   int64  `json:"total_entries"`
	Persist        bool   `json:"persist"`
}

// Store is one named cache with a fixed TTL for all entries.
type Store interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) Stats
}

// Fetch returns the cached value under key, or loads it, stores it, and
// returns it. Decode failures on cached bytes fall through to the loader.
func Fetch[T any](ctx context.Context, store Store, key string, load func(ctx context.Context) (T, error)) (T, error) {
	if raw, ok := store.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := store.Set(ctx, key, raw); err != nil {
		log.Printf("Warning: cache %s set failed: %v", store.Name(), err)
	}
	return v, nil
}

// Registry tracks every named cache so the monitoring surface can report
// and clear them.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]Store
}

func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]Store)}
}

func (r *Registry) Register(store Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[store.Name()] = store
}

func (r *Registry) Get(name string) (Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	store, ok := r.stores[name]
	return store, ok
}

// Stats returns stats for every registered cache, sorted by name.
func (r *Registry) Stats(ctx context.Context) []Stats {
	r.mu.RLock()
	stores := make([]Store, 0, len(r.stores))
	for _, s := range r.stores {
		stores = append(stores, s)
	}
	r.mu.RUnlock()

	out := make([]Stats, 0, len(stores))
	for _, s := range stores {
		out = append(out, s.Stats(ctx))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Clear empties one named cache.
func (r *Registry) Clear(ctx context.Context, name string) error {
	store, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("unknown cache %q", name)
	}
	return store.Clear(ctx)
}

// ClearAll empties every registered cache.
func (r *Registry) ClearAll(ctx context.Context) error {
	r.mu.RLock()
	stores := make([]Store, 0, len(r.stores))
	for _, s := range r.stores {
		stores = append(stores, s)
	}
	r.mu.RUnlock()

	for _, s := range stores {
		if err := s.Clear(ctx); err != nil {
			return fmt.Errorf("clear cache %s: %w", s.Name(), err)
		}
	}
	return nil
}
