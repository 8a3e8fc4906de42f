package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/scenesync/internal/clock"
	"github.com/roach88/scenesync/internal/transport"
	"github.com/roach88/scenesync/internal/wire"
)

// PingState is the state of the latency probe.
type PingState int

const (
	PingIdle PingState = iota
	PingAwaitingPong
)

func (s PingState) String() string {
	if s == PingAwaitingPong {
		return "awaiting-pong"
	}
	return "idle"
}

type pinger struct {
	mu    sync.Mutex
	state PingState
}

func (p *pinger) set(s PingState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// PingState returns the state of the latency probe.
func (e *Engine) PingState() PingState {
	e.ping.mu.Lock()
	defer e.ping.mu.Unlock()
	return e.ping.state
}

func (e *Engine) pingLoop(ctx context.Context, req transport.Requester) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.PingInterval)
	defer ticker.Stop()

	for {
		if !e.pingOnce(ctx, req) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// pingOnce sends one PING and waits for its pong. It returns false once the
// requester is closed.
func (e *Engine) pingOnce(ctx context.Context, req transport.Requester) bool {
	if ctx.Err() != nil {
		return false
	}

	start := int(e.clock.Now())
	e.ping.set(PingAwaitingPong)
	reply, err := req.Request(wire.NewPing(e.cfg.ClientID, uint8(start)))
	e.ping.set(PingIdle)
	if err != nil {
		if errors.Is(err, transport.ErrClosed) || ctx.Err() != nil {
			return false
		}
		slog.Debug("ping failed", "channel", transport.ChannelCommand, "error", err)
		return true
	}

	var h wire.Header
	if err := h.UnmarshalBinary(reply); err != nil {
		slog.Debug("pong discarded", "error", err)
		return true
	}
	if h.ClientID == e.cfg.ClientID {
		return true
	}

	sample := clock.Distance(int(e.clock.Now()), start, e.clock.Cycle())
	e.rtt.Add(sample)
	slog.Debug("pong", "from", h.ClientID, "rtt_steps", sample, "estimate", e.rtt.Estimate())
	return true
}
