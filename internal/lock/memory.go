package lock

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Locker for tests and single-instance development.
// Leases do not expire; ttl is ignored. A key's slot is dropped once nobody holds
// or waits for it.
type Memory struct {
	mu    sync.Mutex
	slots map[string]*memorySlot
}

type memorySlot struct {
	ch   chan struct{}
	refs int
}

func NewMemory() *Memory {
	return &Memory{slots: make(map[string]*memorySlot)}
}

func (m *Memory) join(key string) *memorySlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[key]
	if !ok {
		s = &memorySlot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	return s
}

func (m *Memory) leave(key string, s *memorySlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
}

func (m *Memory) Acquire(ctx context.Context, key string, _, wait time.Duration) (Lease, error) {
	s := m.join(key)
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
		return &memoryLease{m: m, key: key, slot: s}, nil
	case <-ctx.Done():
		m.leave(key, s)
		return nil, ctx.Err()
	case <-timer.C:
		m.leave(key, s)
		return nil, ErrNotAcquired
	}
}

type memoryLease struct {
	m    *Memory
	key  string
	slot *memorySlot
	once sync.Once
}

func (l *memoryLease) Key() string { return l.key }

func (l *memoryLease) Release(context.Context) error {
	l.once.Do(func() {
		<-l.slot.ch
		l.m.leave(l.key, l.slot)
	})
	return nil
}
