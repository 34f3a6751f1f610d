package cache

import (
	"context"
	"strings"
	"time"
	"unifeed-backend/lib/timezone"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Store. Entries expire passively when read after their TTL,
// the LRU bound only matters once max entries is reached.
type Memory struct {
	entries *lru.Cache[string, memoryEntry]
	now     timezone.Clock
}

const DefaultMaxEntries = 1000

func NewMemory(maxEntries int, now timezone.Clock) (*Memory, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	entries, err := lru.New[string, memoryEntry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Memory{entries: entries, now: now.OrNow()}, nil
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	_, span := tracer.Start(ctx, "memory:get")
	defer span.End()
	span.SetAttributes(attribute.String("cache_key", key))

	entry, ok := m.entries.Get(key)
	if !ok {
		recordLookup(ctx, "memory", ErrNotFound)
		return nil, ErrNotFound
	}
	if !m.now().Before(entry.expiresAt) {
		m.entries.Remove(key)
		span.AddEvent("delete expired cache key")
		recordLookup(ctx, "memory", ErrNotFound)
		return nil, ErrNotFound
	}
	recordLookup(ctx, "memory", nil)
	return entry.value, nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, span := tracer.Start(ctx, "memory:set")
	defer span.End()
	span.SetAttributes(attribute.String("cache_key", key))

	m.entries.Add(key, memoryEntry{
		value:     value,
		expiresAt: m.now().Add(ttl),
	})
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.entries.Remove(key)
	return nil
}

func (m *Memory) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	removed := 0
	for _, key := range m.entries.Keys() {
		if strings.HasPrefix(key, prefix) && m.entries.Remove(key) {
			removed++
		}
	}
	return removed, nil
}

func (m *Memory) Close() error {
	m.entries.Purge()
	return nil
}
