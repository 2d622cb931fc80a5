package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisBus fans change events out over redis pub/sub, one channel per table.
// Writers publish explicitly; go-redis reconnects the underlying connection
// by itself, so a subscription only drops when the client is closed.
type RedisBus struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisBus(rdb *redis.Client, prefix string) *RedisBus {
	if prefix == "" {
		prefix = ChannelPrefix
	}
	return &RedisBus{rdb: rdb, prefix: prefix}
}

func (b *RedisBus) channel(table string) string { return b.prefix + table }

func (b *RedisBus) Subscribe(ctx context.Context, table string) (Subscription, error) {
	ps := b.rdb.Subscribe(ctx, b.channel(table))
	// Wait for the subscription confirmation so no publish is missed between
	// Subscribe returning and the first reload.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	s := &redisSub{
		ps:     ps,
		table:  table,
		ch:     make(chan Event, eventBuffer),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go s.forward(ps.Channel())
	return s, nil
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel(ev.Table), data).Err()
}

// Close is a no-op: the redis client is owned by the composition root.
func (b *RedisBus) Close() error { return nil }

type redisSub struct {
	ps     *redis.PubSub
	table  string
	ch     chan Event
	done   chan struct{}
	exited chan struct{}

	once sync.Once
	mu   sync.Mutex
	err  error
}

func (s *redisSub) forward(msgs <-chan *redis.Message) {
	defer close(s.exited)
	defer close(s.ch)
	for {
		select {
		case <-s.done:
			return
		case m, ok := <-msgs:
			if !ok {
				s.mu.Lock()
				s.err = ErrDisconnected
				s.mu.Unlock()
				return
			}
			ev := Event{Table: s.table}
			if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
				log.Debug().Err(err).Str("table", s.table).Msg("notify: non-JSON redis payload, treating as bare invalidation")
			}
			ev.Table = s.table
			offer(s.ch, ev)
		}
	}
}

func (s *redisSub) Events() <-chan Event { return s.ch }

func (s *redisSub) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *redisSub) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
		<-s.exited
	})
	return err
}
