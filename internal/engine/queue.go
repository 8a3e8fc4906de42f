package engine

import (
	"sync"
)

// inboundType distinguishes queued inbound items.
type inboundType int

const (
	// inboundMessage is a message read from the sync subscription.
	inboundMessage inboundType = iota + 1
	// inboundRequest is a scene-data request awaiting a reply.
	inboundRequest
)

// inbound wraps one item handed from a reader goroutine to the host loop.
type inbound struct {
	Type inboundType
	Msg  []byte

	// answered is closed once a request has been replied to; the replier
	// goroutine waits on it before receiving the next request.
	answered chan struct{}
}

// inboundQueue is a thread-safe FIFO between the socket readers and Poll.
//
// The queue is unbounded so a slow host loop never blocks the readers;
// batches are dispatched in arrival order.
//
// Run selects on Wait so batches are dispatched as they arrive rather than
// on the next poll tick.
type inboundQueue struct {
	mu     sync.Mutex
	items  []inbound
	closed bool
	signal chan struct{} // Signals availability (buffered, size 1)
}

func newInboundQueue() *inboundQueue {
	return &inboundQueue{
		items:  make([]inbound, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an item to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *inboundQueue) Enqueue(it inbound) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, it)

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front item without blocking.
// Returns (inbound{}, false) if the queue is empty.
func (q *inboundQueue) TryDequeue() (inbound, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return inbound{}, false
	}

	it := q.items[0]

	// Release the message buffer held by the backing array.
	q.items[0] = inbound{}

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}

	return it, true
}

// Wait returns a channel that signals when items may be available.
func (q *inboundQueue) Wait() <-chan struct{} {
	return q.signal
}

// Close rejects further enqueues and wakes waiters. Idempotent.
// Items already queued can still be dequeued.
func (q *inboundQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
