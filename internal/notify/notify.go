// Package notify is the change notification bus. An event only says "table X
// changed"; consumers always treat it as "invalidate and reload" and never
// trust an embedded diff.
package notify

import (
	"context"
	"sync"
	"time"
)

// Event announces that a row in Table was inserted, updated or deleted.
type Event struct {
	Table string    `json:"table"`
	Op    string    `json:"op,omitempty"`
	At    time.Time `json:"at"`
}

// Subscription is a live channel of events for one table. Events is closed
// when the subscription is released or when the underlying channel drops;
// Err tells the two apart.
type Subscription interface {
	Events() <-chan Event
	// Err returns nil after Close, or the reason the channel dropped.
	Err() error
	// Close releases the subscription. It is safe to call more than once.
	Close() error
}

// Bus subscribes to table-level change events.
type Bus interface {
	Subscribe(ctx context.Context, table string) (Subscription, error)
}

// Publisher announces a change on behalf of a writer. Drivers whose backing
// store already emits events from row triggers may treat it as a no-op.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// PubSub is a bus that also accepts publications.
type PubSub interface {
	Bus
	Publisher
	Close() error
}

// eventBuffer is the capacity of every subscription channel. One pending
// event is enough: a reload always fetches current truth, so further events
// arriving before it is consumed coalesce into it.
const eventBuffer = 1

// offer delivers ev without blocking. A full buffer already holds an
// invalidation, so dropping is lossless.
func offer(ch chan Event, ev Event) {
	select {
	case ch <- ev:
	default:
	}
}

// localSub is a subscription fed by an in-process fan-out. release
// unregisters it from its bus.
type localSub struct {
	table   string
	ch      chan Event
	release func(*localSub)

	once sync.Once
	mu   sync.Mutex
	err  error
}

func newLocalSub(table string, release func(*localSub)) *localSub {
	return &localSub{table: table, ch: make(chan Event, eventBuffer), release: release}
}

func (s *localSub) Events() <-chan Event { return s.ch }

func (s *localSub) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// drop closes the channel with reason as its Err. The bus has already
// unregistered s.
func (s *localSub) drop(reason error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = reason
		s.mu.Unlock()
		close(s.ch)
	})
}

func (s *localSub) Close() error {
	s.release(s)
	s.once.Do(func() { close(s.ch) })
	return nil
}
