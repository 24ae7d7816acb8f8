package ratelimit

import (
	"context"
	"sync"
	"time"

	"historydata/internal/history"
	"historydata/internal/provider"
)

// MinInterval wraps a history provider and enforces a minimum time
// between upstream calls. Concurrent calls wait until the interval has
// elapsed since the last call, or return early if the context is
// canceled. Free provider tiers tend to be interval-limited, so this
// sits directly around the provider client.
type MinInterval struct {
	P        provider.History
	Interval time.Duration
	mu       sync.Mutex
	last     time.Time
}

func (m *MinInterval) Name() string { return m.P.Name() }

func (m *MinInterval) FetchHistory(ctx context.Context, id string, days int) ([]history.Point, error) {
	if m.Interval > 0 {
		// simple gate: ensure at least Interval since last
		m.mu.Lock()
		wait := time.Until(m.last.Add(m.Interval))
		m.mu.Unlock()
		if wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-t.C:
			}
		}
	}
	pts, err := m.P.FetchHistory(ctx, id, days)
	if m.Interval > 0 {
		m.mu.Lock()
		m.last = time.Now()
		m.mu.Unlock()
	}
	return pts, err
}
