package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore keeps entries in process memory. Expired entries are dropped
// lazily on access and show up as invalid in Stats until then.
type MemoryStore struct {
	name    string
	ttl     time.Duration
	persist bool
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type MemoryOption func(*MemoryStore)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(name string, ttl time.Duration, persist bool, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		name:    name,
		ttl:     ttl,
		persist: persist,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Name() string { return s.name }

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; Set may have refreshed the entry.
		if current, ok := s.entries[key]; ok && s.now().After(current.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.entries[key] = memoryEntry{value: value, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Stats(_ context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Name: s.name, Persist: s.persist}
	now := s.now()
	for _, entry := range s.entries {
		if now.After(entry.expiresAt) {
			stats.InvalidEntries++
		} else {
			stats.ValidEntries++
		}
	}
	stats.TotalEntries = stats.ValidEntries + stats.InvalidEntries
	return stats
}
