package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/sirupsen/logrus"
)

// Entry is a stored value and the time it was stored
type Entry struct {
	Value    []byte
	StoredAt time.Time
}

// Memory implements GenericCache in memory.
// Entries are kept in insertion order and never reordered by reads, so the
// entry evicted at capacity is always the oldest-inserted one.
type Memory struct {
	mu      sync.Mutex
	entries *simplelru.LRU[string, Entry]
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	onEvict func(key string)
}

// MemoryOption configures a Memory cache
type MemoryOption func(*Memory)

// WithClock replaces time.Now as the source of the current time
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// WithEvictHook registers a function called with the key of every entry
// evicted to make room for a new one
func WithEvictHook(fn func(key string)) MemoryOption {
	return func(m *Memory) {
		m.onEvict = fn
	}
}

// NewMemory creates a new in-memory cache holding at most maxSize entries,
// each fresh for ttl
func NewMemory(maxSize int, ttl time.Duration, opts ...MemoryOption) (*Memory, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("invalid cache size: %d", maxSize)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid cache TTL: %s", ttl)
	}

	// Capacity is enforced in Set so that every eviction reaches onEvict
	entries, err := simplelru.NewLRU[string, Entry](maxSize, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	m := &Memory{
		entries: entries,
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Memory) isFresh(e Entry) bool {
	return m.now().Sub(e.StoredAt) < m.ttl
}

// Get retrieves cached data if it exists and is not expired.
// An expired entry is removed on the way out.
func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries.Peek(key)
	if !ok {
		return nil, nil
	}

	if !m.isFresh(e) {
		m.entries.Remove(key)
		logrus.Debugf("Cache entry expired: %s", key)
		return nil, nil
	}

	return e.Value, nil
}

// Set stores data in the cache
func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	evicted, didEvict := "", false
	if !m.entries.Contains(key) && m.entries.Len() >= m.maxSize {
		evicted, _, didEvict = m.entries.RemoveOldest()
	}
	m.entries.Add(key, Entry{Value: value, StoredAt: m.now()})
	m.mu.Unlock()

	if didEvict {
		logrus.Debugf("Evicted oldest cache entry: %s", evicted)
		if m.onEvict != nil {
			m.onEvict(evicted)
		}
	}
	logrus.Debugf("Cached entry: %s (%d bytes)", key, len(value))
	return nil
}

// Delete removes a single entry
func (m *Memory) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.Remove(key)
}

// Purge removes every entry
func (m *Memory) Purge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries.Purge()
}

// Len returns the number of stored entries
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.Len()
}

// Entries describes the stored entries, oldest first
func (m *Memory) Entries() []EntryInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := m.entries.Keys()
	infos := make([]EntryInfo, 0, len(keys))
	now := m.now()
	for _, key := range keys {
		e, ok := m.entries.Peek(key)
		if !ok {
			continue
		}
		infos = append(infos, EntryInfo{
			Key:      key,
			Size:     len(e.Value),
			StoredAt: e.StoredAt,
			Age:      now.Sub(e.StoredAt).Round(time.Millisecond).String(),
			Fresh:    m.isFresh(e),
		})
	}
	return infos
}

// TTL returns how long entries stay fresh
func (m *Memory) TTL() time.Duration {
	return m.ttl
}

// MaxSize returns the maximum number of entries
func (m *Memory) MaxSize() int {
	return m.maxSize
}
