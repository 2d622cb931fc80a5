package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// ChannelPrefix namespaces notification channels: one per table.
const ChannelPrefix = "chainpilot_"

// ListenerApplicationName tags the listener session in pg_stat_activity.
const ListenerApplicationName = "chainpilot_listener"

// ErrListenerDown is returned by Subscribe when the listener connection
// dropped while the LISTEN was being issued.
var ErrListenerDown = errors.New("notify: postgres listener down")

// PostgresBus listens on LISTEN/NOTIFY channels fed by the statement triggers
// infra installs on every watched table. All subscriptions share one listener
// connection: the first Subscribe opens it, each table is LISTENed on first
// use and notifications are fanned out in process. When the connection drops
// every subscription is dropped with the cause; the next Subscribe connects
// again.
type PostgresBus struct {
	dsn string

	mu       sync.Mutex
	subs     map[string]map[*localSub]struct{}
	listener *pgListener
	closed   bool
}

func NewPostgresBus(dsn string) *PostgresBus {
	return &PostgresBus{dsn: dsn, subs: make(map[string]map[*localSub]struct{})}
}

func (b *PostgresBus) Subscribe(ctx context.Context, table string) (Subscription, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}
	l := b.listener
	if l == nil {
		var err error
		if l, err = b.connect(ctx); err != nil {
			b.mu.Unlock()
			return nil, err
		}
		b.listener = l
		go b.run(l)
	}
	s := newLocalSub(table, b.remove)
	if b.subs[table] == nil {
		b.subs[table] = make(map[*localSub]struct{})
	}
	b.subs[table][s] = struct{}{}
	b.mu.Unlock()

	if err := l.listen(ctx, table); err != nil {
		b.remove(s)
		return nil, err
	}
	return s, nil
}

// Publish is a no-op: the trigger notifies when the writing transaction
// commits, which is the only moment the change is visible to a reload anyway.
func (b *PostgresBus) Publish(context.Context, Event) error { return nil }

// Close stops the listener and drops every subscription with ErrBusClosed.
func (b *PostgresBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	l := b.listener
	b.mu.Unlock()

	if l != nil {
		l.cancel()
		<-l.exited
	}
	b.dropAll(ErrBusClosed)
	return nil
}

// connect must be called under b.mu.
func (b *PostgresBus) connect(ctx context.Context) (*pgListener, error) {
	cfg, err := pgx.ParseConfig(b.dsn)
	if err != nil {
		return nil, err
	}
	cfg.RuntimeParams["application_name"] = ListenerApplicationName
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	return &pgListener{
		conn:      conn,
		ctx:       loopCtx,
		cancel:    cancel,
		requests:  make(chan listenReq, 16),
		exited:    make(chan struct{}),
		listening: make(map[string]bool),
	}, nil
}

func (b *PostgresBus) run(l *pgListener) {
	err := l.loop(b.dispatch)
	_ = l.conn.Close(context.Background())

	b.mu.Lock()
	if b.listener == l {
		b.listener = nil
	}
	closed := b.closed
	b.mu.Unlock()

	if err != nil && !closed {
		log.Warn().Err(err).Msg("notify: postgres listener dropped")
		l.err = err
		b.dropAll(err)
	}
	close(l.exited)
}

func (b *PostgresBus) dispatch(channel, payload string) {
	table := strings.TrimPrefix(channel, ChannelPrefix)
	ev := Event{Table: table}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			log.Debug().Err(err).Str("table", table).Msg("notify: unparseable trigger payload")
		}
	}
	ev.Table = table

	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs[table] {
		offer(s.ch, ev)
	}
}

func (b *PostgresBus) dropAll(reason error) {
	b.mu.Lock()
	all := b.subs
	b.subs = make(map[string]map[*localSub]struct{})
	b.mu.Unlock()
	for _, subs := range all {
		for s := range subs {
			s.drop(reason)
		}
	}
}

func (b *PostgresBus) remove(s *localSub) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.subs[s.table]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(b.subs, s.table)
		}
	}
}

type listenReq struct {
	table string
	done  chan error
}

// pgListener owns the listener connection. Only its loop goroutine touches
// conn; Subscribe hands it LISTEN requests and interrupts the pending wait.
type pgListener struct {
	conn      *pgx.Conn
	ctx       context.Context
	cancel    context.CancelFunc
	requests  chan listenReq
	exited    chan struct{}
	listening map[string]bool
	err       error // set before exited is closed

	wakeMu    sync.Mutex
	interrupt context.CancelFunc
	woken     bool
}

// listen returns once the LISTEN for table is active on the connection.
func (l *pgListener) listen(ctx context.Context, table string) error {
	req := listenReq{table: table, done: make(chan error, 1)}
	select {
	case l.requests <- req:
	case <-l.exited:
		return l.downErr()
	case <-ctx.Done():
		return ctx.Err()
	}
	l.wake()
	select {
	case err := <-req.done:
		return err
	case <-l.exited:
		return l.downErr()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *pgListener) downErr() error {
	if l.err != nil {
		return errors.Join(ErrListenerDown, l.err)
	}
	return ErrListenerDown
}

// loop returns nil when cancelled, or the error that broke the connection.
func (l *pgListener) loop(dispatch func(channel, payload string)) error {
	for {
		if err := l.serveRequests(); err != nil {
			if l.ctx.Err() != nil {
				return nil
			}
			return err
		}

		waitCtx, cancel := context.WithCancel(l.ctx)
		l.arm(cancel)
		n, err := l.conn.WaitForNotification(waitCtx)
		l.disarm()
		interrupted := waitCtx.Err() != nil
		cancel()

		if err != nil {
			if l.ctx.Err() != nil {
				return nil
			}
			// Woken for a LISTEN request; the session survives a
			// cancelled wait.
			if interrupted && !l.conn.IsClosed() {
				continue
			}
			return err
		}
		dispatch(n.Channel, n.Payload)
	}
}

func (l *pgListener) serveRequests() error {
	for {
		select {
		case req := <-l.requests:
			if l.listening[req.table] {
				req.done <- nil
				continue
			}
			channel := pgx.Identifier{ChannelPrefix + req.table}.Sanitize()
			_, err := l.conn.Exec(l.ctx, "LISTEN "+channel)
			req.done <- err
			if err != nil {
				if l.conn.IsClosed() || l.ctx.Err() != nil {
					return err
				}
				continue
			}
			l.listening[req.table] = true
		default:
			return nil
		}
	}
}

func (l *pgListener) arm(cancel context.CancelFunc) {
	l.wakeMu.Lock()
	defer l.wakeMu.Unlock()
	l.interrupt = cancel
	if l.woken {
		l.woken = false
		cancel()
	}
}

func (l *pgListener) disarm() {
	l.wakeMu.Lock()
	defer l.wakeMu.Unlock()
	l.interrupt = nil
}

func (l *pgListener) wake() {
	l.wakeMu.Lock()
	defer l.wakeMu.Unlock()
	if l.interrupt != nil {
		l.interrupt()
		l.interrupt = nil
		return
	}
	l.woken = true
}
