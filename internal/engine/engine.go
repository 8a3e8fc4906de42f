package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/scenesync/internal/clock"
	"github.com/roach88/scenesync/internal/scene"
	"github.com/roach88/scenesync/internal/transport"
	"github.com/roach88/scenesync/internal/wire"
)

// State is the connection state of the engine.
type State int

const (
	Disconnected State = iota
	Listening          // subscribe and reply sockets open
	Distributing       // publish socket open; outbound allowed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Listening:
		return "listening"
	case Distributing:
		return "distributing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Default intervals.
const (
	DefaultPingInterval = time.Second
	DefaultPollInterval = 10 * time.Millisecond
	DefaultReplyTimeout = 100 * time.Millisecond
)

// Config holds the session parameters.
type Config struct {
	// ClientID identifies this peer in every message. Messages carrying it
	// are our own echoes and are ignored.
	ClientID uint8

	Endpoints transport.Endpoints

	// Rate is the clock rate in steps per second.
	Rate int

	// Ping enables the command channel and latency estimation.
	Ping bool

	PingInterval time.Duration
	PollInterval time.Duration

	// ReplyTimeout bounds one PackageSource lookup.
	ReplyTimeout time.Duration
}

// Engine is the sync engine: it routes inbound messages to parameters,
// publishes local changes and keeps the shared clock.
//
// Thread-safety model:
//   - Poll, Run, Dispatch, ParameterChanged and SendLock: host loop only,
//     the same goroutine that drives the Scene
//   - Start, Stop, State: safe from any goroutine
//   - socket readers and the pinger run in their own goroutines and only
//     touch the queue, the clock and the RTT window
type Engine struct {
	cfg      Config
	scene    *scene.Scene
	dialer   transport.Dialer
	clock    *clock.Clock
	rtt      *clock.RTT
	watcher  *scene.Watcher
	packages PackageSource
	journal  Journal

	mu     sync.Mutex
	state  State
	ctx    context.Context
	cancel context.CancelFunc
	queue  *inboundQueue
	sub    transport.Subscriber
	rep    transport.Replier
	pub    transport.Publisher
	req    transport.Requester
	wg     sync.WaitGroup

	ping pinger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPackages sets the source answering scene-data requests.
func WithPackages(src PackageSource) Option {
	return func(e *Engine) { e.packages = src }
}

// WithJournal records every inbound and outbound message.
func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithWatcher makes Run scan the host for local edits on every poll.
func WithWatcher(w *scene.Watcher) Option {
	return func(e *Engine) { e.watcher = w }
}

// New creates a disconnected engine for s and registers it as the scene's
// distributor.
func New(s *scene.Scene, d transport.Dialer, cfg Config, opts ...Option) (*Engine, error) {
	if cfg.ClientID == 0 {
		return nil, errors.New("engine: client id must be non-zero")
	}
	clk, err := clock.New(cfg.Rate)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = DefaultReplyTimeout
	}

	e := &Engine{
		cfg:    cfg,
		scene:  s,
		dialer: d,
		clock:  clk,
		rtt:    clock.NewRTT(),
	}
	for _, opt := range opts {
		opt(e)
	}
	s.SetDistributor(e)
	return e, nil
}

// Clock returns the shared session clock.
func (e *Engine) Clock() *clock.Clock { return e.clock }

// RTT returns the latency estimator.
func (e *Engine) RTT() *clock.RTT { return e.rtt }

// Scene returns the scene the engine synchronizes.
func (e *Engine) Scene() *scene.Scene { return e.scene }

// ClientID returns the local peer id.
func (e *Engine) ClientID() uint8 { return e.cfg.ClientID }

// State returns the connection state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start opens the sockets and starts the reader and ping goroutines.
//
// Subscribe and reply are opened first (Listening), then publish
// (Distributing), then the optional command requester. If any socket fails,
// those already opened are closed, the engine stays Disconnected and the
// returned *TransportError names the channel.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Disconnected {
		return &TransportError{Code: ErrCodeAlreadyStarted, Err: fmt.Errorf("engine is %s", e.state)}
	}

	runCtx, cancel := context.WithCancel(ctx)
	eps := e.cfg.Endpoints
	var opened []io.Closer
	fail := func(ch transport.Channel, err error) error {
		for i := len(opened) - 1; i >= 0; i-- {
			_ = opened[i].Close()
		}
		cancel()
		e.state = Disconnected
		terr := newOpenError(ch, eps.For(ch), err)
		slog.Error("transport unavailable", "channel", ch, "endpoint", eps.For(ch), "error", err)
		return terr
	}

	sub, err := e.dialer.Subscribe(runCtx, eps.Sync)
	if err != nil {
		return fail(transport.ChannelSync, err)
	}
	opened = append(opened, sub)

	rep, err := e.dialer.Reply(runCtx, eps.Distribution)
	if err != nil {
		return fail(transport.ChannelDistribution, err)
	}
	opened = append(opened, rep)
	e.state = Listening

	pub, err := e.dialer.Publish(runCtx, eps.Update)
	if err != nil {
		return fail(transport.ChannelUpdate, err)
	}
	opened = append(opened, pub)

	var req transport.Requester
	if e.cfg.Ping {
		req, err = e.dialer.Request(runCtx, eps.Command)
		if err != nil {
			return fail(transport.ChannelCommand, err)
		}
	}

	e.ctx, e.cancel = runCtx, cancel
	e.sub, e.rep, e.pub, e.req = sub, rep, pub, req
	e.queue = newInboundQueue()
	e.state = Distributing

	e.wg.Add(2)
	go e.readSubscription(sub, e.queue)
	go e.readRequests(runCtx, rep, e.queue)
	if req != nil {
		e.wg.Add(1)
		go e.pingLoop(runCtx, req)
	}

	slog.Info("engine started",
		"client_id", e.cfg.ClientID,
		"sync", eps.Sync,
		"distribution", eps.Distribution,
		"update", eps.Update,
		"ping", e.cfg.Ping,
	)
	return nil
}

// Stop cancels the background goroutines, closes every socket and waits for
// the goroutines to exit. Calling it again, or before Start, does nothing.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state == Disconnected {
		e.mu.Unlock()
		return
	}
	cancel := e.cancel
	closers := []io.Closer{e.sub, e.rep, e.pub}
	if e.req != nil {
		closers = append(closers, e.req)
	}
	q := e.queue
	e.state = Disconnected
	e.sub, e.rep, e.pub, e.req = nil, nil, nil, nil
	e.mu.Unlock()

	cancel()
	for _, c := range closers {
		if err := c.Close(); err != nil {
			slog.Debug("socket close", "error", err)
		}
	}
	q.Close()
	e.wg.Wait()

	// Unblock any replier waiting on a request that will never be polled.
	for {
		it, ok := q.TryDequeue()
		if !ok {
			break
		}
		if it.answered != nil {
			close(it.answered)
		}
	}
	slog.Info("engine stopped", "client_id", e.cfg.ClientID)
}

// Run drives the host loop until ctx is cancelled. Every PollInterval it
// advances the clock, scans the host for local edits and polls; between
// ticks it polls as soon as the inbound queue signals.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	var drained *inboundQueue
	last := time.Now()
	for {
		var ready <-chan struct{}
		q := e.currentQueue()
		if q != nil && q != drained {
			ready = q.Wait()
		}

		select {
		case <-ctx.Done():
			slog.Info("engine loop stopping: context cancelled")
			return ctx.Err()
		case now := <-ticker.C:
			e.clock.Advance(now.Sub(last))
			last = now
			e.Tick()
		case _, ok := <-ready:
			if !ok {
				// Closed by Stop; wait for the next Start.
				drained = q
				continue
			}
			e.Poll()
		}
	}
}

func (e *Engine) currentQueue() *inboundQueue {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue
}

// Tick performs one host-loop iteration without advancing the clock:
// a watcher scan, then Poll.
func (e *Engine) Tick() int {
	if e.watcher != nil {
		e.watcher.Scan()
	}
	return e.Poll()
}

// Poll drains the inbound queue, dispatching messages and answering
// requests in arrival order. It returns the number of items handled.
func (e *Engine) Poll() int {
	q := e.currentQueue()
	if q == nil {
		return 0
	}

	n := 0
	for {
		it, ok := q.TryDequeue()
		if !ok {
			return n
		}
		switch it.Type {
		case inboundMessage:
			e.Dispatch(it.Msg)
		case inboundRequest:
			e.answer(it)
		}
		n++
	}
}

// Dispatch applies one inbound message. Malformed and out-of-range content
// is discarded; nothing here fails.
func (e *Engine) Dispatch(msg []byte) {
	r, err := wire.NewReader(msg)
	if err != nil {
		slog.Debug("inbound message discarded", "len", len(msg), "error", err)
		return
	}
	if r.Header.ClientID == e.cfg.ClientID {
		return
	}
	e.record(DirectionIn, msg)

	switch r.Header.Kind {
	case wire.KindSync:
		if e.clock.Correct(r.Header.Time, e.rtt.OneWay()) {
			slog.Debug("clock snapped", "remote", r.Header.Time, "from", r.Header.ClientID)
		}

	case wire.KindLock:
		rec, ok := r.NextLock()
		if !ok {
			return
		}
		ent := e.scene.Entity(int(rec.EntityID))
		if ent == nil {
			slog.Debug("lock out of range", "entity", rec.EntityID, "entities", e.scene.Len())
			return
		}
		ent.Lock(rec.Locked)

	case wire.KindParameterUpdate:
		for {
			rec, ok := r.NextParameter()
			if !ok {
				return
			}
			e.apply(r, rec)
		}

	default:
		// Other kinds end the batch.
		slog.Debug("inbound message ignored", "kind", r.Header.Kind, "from", r.Header.ClientID)
	}
}

func (e *Engine) apply(r *wire.Reader, rec wire.ParameterRecord) {
	p := e.scene.Parameter(int(rec.EntityID), int(rec.ParamIndex))
	if p == nil {
		slog.Debug("parameter update out of range",
			"entity", rec.EntityID,
			"param", rec.ParamIndex,
		)
		return
	}
	if p.Kind() != rec.Kind {
		slog.Debug("parameter update kind mismatch",
			"entity", rec.EntityID,
			"param", rec.ParamIndex,
			"want", p.Kind().String(),
			"got", rec.Kind.String(),
		)
		return
	}
	if err := p.DecodeFromWire(r.Bytes(), r.PayloadOffset(rec), len(rec.Payload)); err != nil {
		slog.Debug("parameter update discarded", "error", err)
	}
}

// ParameterChanged publishes p's current value. It implements scene.Distributor.
func (e *Engine) ParameterChanged(p *scene.Parameter) {
	if !e.distributing() {
		slog.Debug("not distributing, update dropped", "entity", p.Entity().ID(), "param", p.Index())
		return
	}
	payload, err := p.SerializeForWire()
	if err != nil {
		slog.Warn("update not serialized", "entity", p.Entity().ID(), "param", p.Index(), "error", err)
		return
	}
	msg, err := wire.NewParameterUpdate(e.cfg.ClientID, e.clock.Now(), wire.ParameterRecord{
		Origin:     e.cfg.ClientID,
		EntityID:   p.Entity().ID(),
		ParamIndex: uint16(p.Index()),
		Kind:       p.Kind(),
		Payload:    payload,
	})
	if err != nil {
		slog.Warn("update not framed", "entity", p.Entity().ID(), "param", p.Index(), "error", err)
		return
	}
	e.publish(msg)
}

// SendLock publishes a lock or unlock for ent. It implements scene.LockSender.
func (e *Engine) SendLock(ent *scene.Entity, locked bool) {
	e.publish(wire.NewLock(e.cfg.ClientID, e.clock.Now(), ent.ID(), locked))
}

// SendSync publishes the local time so peers can correct their clocks.
func (e *Engine) SendSync() {
	e.publish(wire.NewSync(e.cfg.ClientID, e.clock.Now()))
}

func (e *Engine) distributing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == Distributing
}

func (e *Engine) publish(msg []byte) {
	e.mu.Lock()
	pub, state := e.pub, e.state
	e.mu.Unlock()

	if state != Distributing || pub == nil {
		slog.Debug("not distributing, message dropped", "kind", wire.MessageKind(msg[2]))
		return
	}
	if err := pub.Publish(msg); err != nil {
		slog.Warn("publish failed", "channel", transport.ChannelUpdate, "error", err)
		return
	}
	e.record(DirectionOut, msg)
}

func (e *Engine) readSubscription(sub transport.Subscriber, q *inboundQueue) {
	defer e.wg.Done()
	for {
		msg, err := sub.Receive()
		if err != nil {
			if !errors.Is(err, transport.ErrClosed) {
				slog.Warn("subscription reader stopped", "error", err)
			}
			return
		}
		if !q.Enqueue(inbound{Type: inboundMessage, Msg: msg}) {
			return
		}
	}
}

func (e *Engine) readRequests(ctx context.Context, rep transport.Replier, q *inboundQueue) {
	defer e.wg.Done()
	for {
		msg, err := rep.Receive()
		if err != nil {
			if !errors.Is(err, transport.ErrClosed) {
				slog.Warn("request reader stopped", "error", err)
			}
			return
		}
		it := inbound{Type: inboundRequest, Msg: msg, answered: make(chan struct{})}
		if !q.Enqueue(it) {
			return
		}
		select {
		case <-it.answered:
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) record(dir Direction, msg []byte) {
	if e.journal == nil {
		return
	}
	e.mu.Lock()
	ctx := e.ctx
	e.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := e.journal.Record(ctx, string(dir), msg); err != nil {
		slog.Warn("journal write failed", "direction", dir, "error", err)
	}
}
