// Package cache holds fetched series in memory for their TTL. The
// store is process-lifetime only: entries are overwritten by the next
// successful fetch after expiry, never evicted or persisted.
package cache

import (
	"fmt"
	"sync"
	"time"

	"historydata/internal/history"
	"historydata/internal/symbols"
)

// Entry is a stored series plus the bookkeeping callers need to judge
// freshness. The store is read-through: Get hands back whatever was
// stored, expired or not, and the caller checks Valid.
type Entry struct {
	Series   history.Series
	StoredAt time.Time
	TTL      time.Duration
}

// Valid reports whether the entry is still fresh at the given instant.
// Freshness is strict: an entry stored at T with TTL D is stale at
// exactly T+D.
func (e Entry) Valid(now time.Time) bool {
	return now.Sub(e.StoredAt) < e.TTL
}

// Key builds the cache key for one (class, symbol, timeframe) request.
func Key(class symbols.AssetClass, symbol string, tf history.Timeframe) string {
	return fmt.Sprintf("%s:%s:%s", class, symbol, tf)
}

// Store is an in-memory key -> Entry map guarded for concurrent use.
// It does not coordinate concurrent fetches for the same key; two
// callers that both miss will both hit the provider, which is accepted
// at this request volume.
type Store struct {
	mu    sync.RWMutex
	items map[string]Entry

	now func() time.Time
}

func New() *Store {
	return &Store{items: make(map[string]Entry), now: time.Now}
}

// Get returns the stored entry for key, if any. Expiry is not checked
// here; use Entry.Valid.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[key]
	return e, ok
}

// Set stores the series under key with the given TTL, replacing any
// previous entry unconditionally.
func (s *Store) Set(key string, series history.Series, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = Entry{Series: series, StoredAt: s.now(), TTL: ttl}
}
