package notify

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBusClosed is returned by Subscribe and Publish after Close.
var ErrBusClosed = errors.New("notify: bus closed")

// ErrDisconnected is the drop reason reported by memory subscriptions cut by
// Disconnect.
var ErrDisconnected = errors.New("notify: disconnected")

// MemoryBus is an in-process bus. It backs the memory driver and tests.
type MemoryBus struct {
	mu     sync.Mutex
	subs   map[string]map[*localSub]struct{}
	closed bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[*localSub]struct{})}
}

func (b *MemoryBus) Subscribe(ctx context.Context, table string) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	s := newLocalSub(table, b.remove)
	if b.subs[table] == nil {
		b.subs[table] = make(map[*localSub]struct{})
	}
	b.subs[table][s] = struct{}{}
	return s, nil
}

func (b *MemoryBus) Publish(_ context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}
	for s := range b.subs[ev.Table] {
		offer(s.ch, ev)
	}
	return nil
}

// Subscribers returns how many live subscriptions exist for table.
func (b *MemoryBus) Subscribers(table string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[table])
}

// Disconnect drops every subscription on table as if the channel was lost.
func (b *MemoryBus) Disconnect(table string) {
	b.mu.Lock()
	subs := b.subs[table]
	delete(b.subs, table)
	b.mu.Unlock()
	for s := range subs {
		s.drop(ErrDisconnected)
	}
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	all := b.subs
	b.subs = make(map[string]map[*localSub]struct{})
	b.closed = true
	b.mu.Unlock()
	for _, subs := range all {
		for s := range subs {
			s.drop(ErrBusClosed)
		}
	}
	return nil
}

func (b *MemoryBus) remove(s *localSub) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.subs[s.table]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(b.subs, s.table)
		}
	}
}
