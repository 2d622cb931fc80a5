// Package projection keeps consumer-local mirrors of record store tables in
// step with the change notification bus.
//
// A Cache is owned by exactly one view. It subscribes to its table when
// opened, reloads the whole slice on every change event and releases the
// subscription when closed. Reloads are full reads, never incremental merges,
// so applying the same event twice is harmless.
package projection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"chainpilot/internal/apperr"
	"chainpilot/internal/metrics"
	"chainpilot/internal/notify"

	"github.com/rs/zerolog/log"
)

// ErrClosed is returned by Refresh once the cache has been closed.
var ErrClosed = errors.New("projection: cache closed")

// Options describes what a cache mirrors.
type Options[T any] struct {
	// Table is the watched table name; it selects the bus channel.
	Table string
	// Load runs the scoped query. It must return current truth.
	Load func(ctx context.Context) ([]T, error)
	// Key identifies a row for Patch. Optional.
	Key func(T) string
	// Timeout bounds a single reload on top of whatever the loader enforces.
	Timeout time.Duration
}

// Snapshot is a consistent read of the cache state.
type Snapshot[T any] struct {
	Items    []T
	Loading  bool
	Err      error
	Version  uint64
	LoadedAt time.Time
	// Live is false once the subscription dropped for good; the cache then
	// only changes on an explicit Refresh.
	Live bool
}

type Cache[T any] struct {
	opts Options[T]
	bus  notify.Bus

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	sub      notify.Subscription
	items    []T
	loading  int
	fetchErr error
	subErr   error
	version  uint64
	loadedAt time.Time
	live     bool
	closed   bool
	started  uint64
	applied  uint64
	changes  chan struct{}
}

// Open subscribes to opts.Table, performs the initial load and starts the
// refresh loop. A failed subscription releases everything and returns an
// error; a failed initial load does not, it is reported through Snapshot.
func Open[T any](ctx context.Context, bus notify.Bus, opts Options[T]) (*Cache[T], error) {
	if opts.Table == "" || opts.Load == nil {
		return nil, fmt.Errorf("projection: table and loader are required")
	}
	sub, err := bus.Subscribe(ctx, opts.Table)
	if err != nil {
		return nil, apperr.Subscription(opts.Table, err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	c := &Cache[T]{
		opts:    opts,
		bus:     bus,
		ctx:     loopCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		sub:     sub,
		live:    true,
		changes: make(chan struct{}, 1),
	}
	metrics.OpenViews.WithLabelValues(opts.Table).Inc()

	if err := c.Refresh(ctx); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			// The loop never started.
			close(c.done)
			c.Close()
			return nil, err
		}
		log.Warn().Err(err).Str("table", opts.Table).Msg("projection: initial load failed")
	}

	go c.run(sub)
	return c, nil
}

// Snapshot returns the current state. Items is a copy.
func (c *Cache[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	err := c.fetchErr
	if err == nil {
		err = c.subErr
	}
	return Snapshot[T]{
		Items:    items,
		Loading:  c.loading > 0,
		Err:      err,
		Version:  c.version,
		LoadedAt: c.loadedAt,
		Live:     c.live,
	}
}

// Changes signals after every applied reload, failed reload or patch. Several
// changes between two receives collapse into one signal. The channel is
// closed by Close.
func (c *Cache[T]) Changes() <-chan struct{} { return c.changes }

// Done is closed when the refresh loop has exited.
func (c *Cache[T]) Done() <-chan struct{} { return c.done }

// Refresh replaces the cache contents with a fresh load. On failure the
// previous items are kept, the error is retained for Snapshot and returned.
func (c *Cache[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.loading++
	c.started++
	seq := c.started
	c.mu.Unlock()
	c.signal()

	loadCtx, cancel := ctx, context.CancelFunc(func() {})
	if c.opts.Timeout > 0 {
		loadCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
	}
	start := time.Now()
	items, err := c.opts.Load(loadCtx)
	cancel()
	metrics.CacheReloadDuration.WithLabelValues(c.opts.Table).Observe(time.Since(start).Seconds())

	c.mu.Lock()
	c.loading--
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		if !errors.Is(err, apperr.ErrFetchFailed) {
			err = apperr.Fetch(c.opts.Table, err)
		}
		// A failure older than the applied load does not describe the items.
		if seq > c.applied {
			c.fetchErr = err
		}
		c.mu.Unlock()
		metrics.CacheReloads.WithLabelValues(c.opts.Table, "error").Inc()
		c.signal()
		return err
	}
	// A slower, older load must not overwrite a newer one.
	if seq > c.applied {
		c.applied = seq
		c.items = items
		c.fetchErr = nil
		c.version++
		c.loadedAt = time.Now().UTC()
	}
	c.mu.Unlock()
	metrics.CacheReloads.WithLabelValues(c.opts.Table, "ok").Inc()
	c.signal()
	return nil
}

// Patch applies fn to the row whose key matches and reports whether one did.
// It is an optimistic local edit; the next reload reconciles it.
func (c *Cache[T]) Patch(key string, fn func(T) T) bool {
	if c.opts.Key == nil {
		return false
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	found := false
	for i, it := range c.items {
		if c.opts.Key(it) == key {
			c.items[i] = fn(it)
			found = true
			break
		}
	}
	if found {
		c.version++
	}
	c.mu.Unlock()
	if found {
		c.signal()
	}
	return found
}

// Close releases the subscription, cancels the refresh loop and waits for it
// to exit. A load still in flight is cancelled and its result discarded. Safe
// to call more than once. Loaders must honour their context.
func (c *Cache[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	sub := c.sub
	c.sub = nil
	close(c.changes)
	c.mu.Unlock()

	c.cancel()
	if sub != nil {
		if err := sub.Close(); err != nil {
			log.Debug().Err(err).Str("table", c.opts.Table).Msg("projection: release subscription")
		}
	}
	metrics.OpenViews.WithLabelValues(c.opts.Table).Dec()
	<-c.done
}

func (c *Cache[T]) signal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

func (c *Cache[T]) run(sub notify.Subscription) {
	defer close(c.done)
	// retried is set after a reconnect and cleared by the first event that
	// arrives on the new channel. A drop while it is still set counts as
	// repeated failure.
	retried := false
	for {
		select {
		case <-c.ctx.Done():
			return
		case _, ok := <-sub.Events():
			if c.ctx.Err() != nil {
				return
			}
			if !ok {
				if retried {
					c.degrade(sub.Err())
					return
				}
				sub = c.reconnect(sub)
				if sub == nil {
					return
				}
				retried = true
			} else {
				retried = false
			}
			// Events seen before this point are covered by the reload below.
			if err := c.Refresh(c.ctx); err != nil && !errors.Is(err, ErrClosed) {
				log.Warn().Err(err).Str("table", c.opts.Table).Msg("projection: reload failed, keeping last snapshot")
			}
		}
	}
}

// reconnect makes the single attempt to replace a dropped subscription. It
// returns nil when the cache is closed or degraded.
func (c *Cache[T]) reconnect(dropped notify.Subscription) notify.Subscription {
	cause := dropped.Err()
	_ = dropped.Close()
	log.Warn().Err(cause).Str("table", c.opts.Table).Msg("projection: subscription dropped, reconnecting")

	sub, err := c.bus.Subscribe(c.ctx, c.opts.Table)
	if err != nil {
		if c.ctx.Err() != nil {
			return nil
		}
		c.degrade(errors.Join(cause, err))
		return nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = sub.Close()
		return nil
	}
	c.sub = sub
	c.mu.Unlock()
	metrics.SubscriptionDrops.WithLabelValues(c.opts.Table, "reconnected").Inc()
	return sub
}

func (c *Cache[T]) degrade(cause error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.sub != nil {
		_ = c.sub.Close()
		c.sub = nil
	}
	c.live = false
	c.subErr = apperr.Subscription(c.opts.Table, cause)
	c.mu.Unlock()
	metrics.SubscriptionDrops.WithLabelValues(c.opts.Table, "degraded").Inc()
	log.Error().Err(cause).Str("table", c.opts.Table).Msg("projection: subscription lost, manual refresh only")
	c.signal()
}
