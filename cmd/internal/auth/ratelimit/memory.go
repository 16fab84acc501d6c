package ratelimit

import (
	"context"
	"sync"
	"time"
)

// pruneEvery bounds how many Fail calls pass between full-map prunes.
const pruneEvery = 256

// Memory is a per-key sliding-window limiter held in process memory.
type Memory struct {
	cfg Config
	now func() time.Time

	mu     sync.Mutex
	events map[string][]time.Time
	fails  int
}

// NewMemory returns a Memory limiter. now may be nil.
func NewMemory(cfg Config, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{cfg: cfg, now: now, events: make(map[string][]time.Time)}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	if m.cfg.MaxFailures <= 0 {
		return true, 0, nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	ev := m.pruneLocked(key, now)
	if len(ev) < m.cfg.MaxFailures {
		return true, 0, nil
	}
	return false, ev[0].Add(m.cfg.Window).Sub(now), nil
}

func (m *Memory) Fail(_ context.Context, key string) error {
	if m.cfg.MaxFailures <= 0 {
		return nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	ev := m.pruneLocked(key, now)
	m.events[key] = append(ev, now)

	m.fails++
	if m.fails%pruneEvery == 0 {
		for k := range m.events {
			m.pruneLocked(k, now)
		}
	}
	return nil
}

func (m *Memory) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.events, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// pruneLocked drops events of key older than the window and returns the rest.
func (m *Memory) pruneLocked(key string, now time.Time) []time.Time {
	ev := m.events[key]
	cut := now.Add(-m.cfg.Window)
	dst := ev[:0]
	for _, t := range ev {
		if t.After(cut) {
			dst = append(dst, t)
		}
	}
	if len(dst) == 0 {
		delete(m.events, key)
		return nil
	}
	m.events[key] = dst
	return dst
}
