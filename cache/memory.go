package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is the single-process Cache and Locker used when Redis is not configured.
type Memory struct {
	mu      sync.Mutex
	values  map[string]entry
	locks   map[string]time.Time
	nowFunc func() time.Time
}

type entry struct {
	value     string
	expiresAt time.Time
}

func NewMemory() *Memory {
	return &Memory{
		values:  make(map[string]entry),
		locks:   make(map[string]time.Time),
		nowFunc: time.Now,
	}
}

func (m *Memory) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = m.nowFunc().Add(ttl)
	}
	m.values[key] = e
	return nil
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.values[key]
	if !ok {
		return "", nil
	}
	if !e.expiresAt.IsZero() && m.nowFunc().After(e.expiresAt) {
		delete(m.values, key)
		return "", nil
	}
	return e.value, nil
}

func (m *Memory) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	if until, held := m.locks[key]; held && now.Before(until) {
		return nil, ErrLocked
	}
	until := now.Add(ttl)
	m.locks[key] = until

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.locks[key].Equal(until) {
				delete(m.locks, key)
			}
		})
	}, nil
}
