package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// SubscriberBuffer is how many undelivered messages a Memory subscriber
// holds before new ones are dropped.
const SubscriberBuffer = 256

// ErrNoReplier is returned by a Memory requester with no replier bound at
// its endpoint.
var ErrNoReplier = errors.New("transport: no replier bound")

// Memory is an in-process Dialer. Publishers deliver to every subscriber of
// the same endpoint; requesters reach the replier bound at their endpoint.
// Tests and the scenario harness stand in for the server by opening the
// opposite side of each channel on the same Memory.
type Memory struct {
	mu       sync.Mutex
	subs     map[string][]*memSubscriber
	repliers map[string]*memReplier
}

func NewMemory() *Memory {
	return &Memory{
		subs:     map[string][]*memSubscriber{},
		repliers: map[string]*memReplier{},
	}
}

var _ Dialer = (*Memory)(nil)

func (m *Memory) Subscribe(ctx context.Context, endpoint string) (Subscriber, error) {
	s := &memSubscriber{
		m:        m,
		endpoint: endpoint,
		ch:       make(chan []byte, SubscriberBuffer),
		closed:   make(chan struct{}),
	}
	m.mu.Lock()
	m.subs[endpoint] = append(m.subs[endpoint], s)
	m.mu.Unlock()
	context.AfterFunc(ctx, func() { _ = s.Close() })
	return s, nil
}

func (m *Memory) Reply(ctx context.Context, endpoint string) (Replier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.repliers[endpoint]; ok {
		return nil, fmt.Errorf("bind %s: address in use", endpoint)
	}
	r := &memReplier{
		m:        m,
		endpoint: endpoint,
		inbox:    make(chan memRequest),
		closed:   make(chan struct{}),
	}
	m.repliers[endpoint] = r
	context.AfterFunc(ctx, func() { _ = r.Close() })
	return r, nil
}

func (m *Memory) Publish(ctx context.Context, endpoint string) (Publisher, error) {
	p := &memPublisher{m: m, endpoint: endpoint, closed: make(chan struct{})}
	context.AfterFunc(ctx, func() { _ = p.Close() })
	return p, nil
}

func (m *Memory) Request(ctx context.Context, endpoint string) (Requester, error) {
	r := &memRequester{m: m, endpoint: endpoint, closed: make(chan struct{})}
	context.AfterFunc(ctx, func() { _ = r.Close() })
	return r, nil
}

// Subscribers returns how many subscribers are open on endpoint.
func (m *Memory) Subscribers(endpoint string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs[endpoint])
}

func (m *Memory) deliver(endpoint string, msg []byte) {
	m.mu.Lock()
	subs := append([]*memSubscriber(nil), m.subs[endpoint]...)
	m.mu.Unlock()

	for _, s := range subs {
		cp := append([]byte(nil), msg...)
		select {
		case s.ch <- cp:
		default:
			slog.Debug("memory subscriber full, message dropped", "endpoint", endpoint)
		}
	}
}

func (m *Memory) replier(endpoint string) *memReplier {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.repliers[endpoint]
}

type memSubscriber struct {
	m        *Memory
	endpoint string
	ch       chan []byte
	closed   chan struct{}
	once     sync.Once
}

func (s *memSubscriber) Receive() ([]byte, error) {
	// A closed subscriber reports ErrClosed even with messages buffered.
	select {
	case <-s.closed:
		return nil, ErrClosed
	default:
	}
	select {
	case msg := <-s.ch:
		return msg, nil
	case <-s.closed:
		return nil, ErrClosed
	}
}

func (s *memSubscriber) Close() error {
	s.once.Do(func() {
		close(s.closed)
		s.m.mu.Lock()
		defer s.m.mu.Unlock()
		subs := s.m.subs[s.endpoint]
		for i, o := range subs {
			if o == s {
				s.m.subs[s.endpoint] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	})
	return nil
}

type memPublisher struct {
	m        *Memory
	endpoint string
	closed   chan struct{}
	once     sync.Once
}

func (p *memPublisher) Publish(msg []byte) error {
	select {
	case <-p.closed:
		return ErrClosed
	default:
	}
	p.m.deliver(p.endpoint, msg)
	return nil
}

func (p *memPublisher) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

type memRequest struct {
	msg   []byte
	reply chan []byte
}

type memReplier struct {
	m        *Memory
	endpoint string
	inbox    chan memRequest
	closed   chan struct{}
	once     sync.Once

	mu      sync.Mutex
	pending *memRequest
}

func (r *memReplier) Receive() ([]byte, error) {
	select {
	case req := <-r.inbox:
		r.mu.Lock()
		r.pending = &req
		r.mu.Unlock()
		return req.msg, nil
	case <-r.closed:
		return nil, ErrClosed
	}
}

func (r *memReplier) Reply(msg []byte) error {
	r.mu.Lock()
	req := r.pending
	r.pending = nil
	r.mu.Unlock()

	if req == nil {
		return errors.New("transport: reply without a pending request")
	}
	select {
	case <-r.closed:
		return ErrClosed
	default:
	}
	req.reply <- append([]byte(nil), msg...)
	return nil
}

func (r *memReplier) Close() error {
	r.once.Do(func() {
		close(r.closed)
		r.m.mu.Lock()
		if r.m.repliers[r.endpoint] == r {
			delete(r.m.repliers, r.endpoint)
		}
		r.m.mu.Unlock()
	})
	return nil
}

type memRequester struct {
	m        *Memory
	endpoint string
	closed   chan struct{}
	once     sync.Once
}

func (q *memRequester) Request(msg []byte) ([]byte, error) {
	rep := q.m.replier(q.endpoint)
	if rep == nil {
		return nil, fmt.Errorf("request %s: %w", q.endpoint, ErrNoReplier)
	}

	req := memRequest{msg: append([]byte(nil), msg...), reply: make(chan []byte, 1)}
	select {
	case rep.inbox <- req:
	case <-rep.closed:
		return nil, ErrClosed
	case <-q.closed:
		return nil, ErrClosed
	}

	select {
	case out := <-req.reply:
		return out, nil
	case <-rep.closed:
		return nil, ErrClosed
	case <-q.closed:
		return nil, ErrClosed
	}
}

func (q *memRequester) Close() error {
	q.once.Do(func() { close(q.closed) })
	return nil
}
