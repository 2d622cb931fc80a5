// Package view composes projection caches into the live read models served
// to clients. A view is opened for one actor, owns every cache it opened and
// releases all of them on Close, including when opening fails half way.
package view

import (
	"context"
	"sync"
	"time"

	"chainpilot/internal/notify"
	"chainpilot/internal/projection"
	"chainpilot/internal/service"
)

// Deps are the collaborators shared by every view.
type Deps struct {
	Bus         notify.Bus
	Inventory   service.InventoryService
	Suggestions service.SuggestionService
	Workflow    service.SuggestionWorkflow
	Locations   service.LocationService
	Forecasts   service.ForecastService
	Transfers   service.TransferService
	// Live receives the views that mirror suggestions. Optional.
	Live *Registry
	// LoadTimeout bounds every cache reload.
	LoadTimeout time.Duration
}

// Status summarises the health of the caches behind a snapshot.
type Status struct {
	Loading bool     `json:"loading"`
	Live    bool     `json:"live"`
	Errors  []string `json:"errors,omitempty"`
	Version uint64   `json:"version"`
}

type cache interface {
	Changes() <-chan struct{}
	Close()
}

// base tracks the caches of one view and fans their change signals into one.
type base struct {
	caches  []cache
	changes chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	detach  func()
}

func (b *base) init() {
	b.changes = make(chan struct{}, 1)
}

func (b *base) track(c cache) {
	b.caches = append(b.caches, c)
}

func (b *base) start() {
	for _, c := range b.caches {
		b.wg.Add(1)
		go func(c cache) {
			defer b.wg.Done()
			for range c.Changes() {
				select {
				case b.changes <- struct{}{}:
				default:
				}
			}
		}(c)
	}
}

// Changes signals whenever any cache of the view changed. It is closed by
// Close.
func (b *base) Changes() <-chan struct{} { return b.changes }

// Close releases every cache. Safe to call more than once.
func (b *base) Close() {
	b.once.Do(func() {
		if b.detach != nil {
			b.detach()
		}
		for i := len(b.caches) - 1; i >= 0; i-- {
			b.caches[i].Close()
		}
		b.wg.Wait()
		close(b.changes)
	})
}

// open opens one cache and hands it to b, so that a later failure in the
// same view still releases it.
func open[T any](ctx context.Context, b *base, d Deps, table string, load func(context.Context) ([]T, error), key func(T) string) (*projection.Cache[T], error) {
	c, err := projection.Open(ctx, d.Bus, projection.Options[T]{
		Table:   table,
		Load:    load,
		Key:     key,
		Timeout: d.LoadTimeout,
	})
	if err != nil {
		return nil, err
	}
	b.track(c)
	return c, nil
}

// status folds cache snapshots into one Status. Version is the sum of the
// cache versions, which only grows.
type status struct{ s Status }

func newStatus() *status { return &status{s: Status{Live: true}} }

func add[T any](st *status, snap projection.Snapshot[T]) {
	st.s.Loading = st.s.Loading || snap.Loading
	st.s.Live = st.s.Live && snap.Live
	st.s.Version += snap.Version
	if snap.Err != nil {
		st.s.Errors = append(st.s.Errors, snap.Err.Error())
	}
}
