package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msgItem(b ...byte) inbound {
	return inbound{Type: inboundMessage, Msg: b}
}

func TestInboundQueue_EnqueueDequeue(t *testing.T) {
	q := newInboundQueue()

	require.True(t, q.Enqueue(msgItem(1, 0, 2)), "enqueue should succeed")

	got, ok := q.TryDequeue()
	require.True(t, ok, "dequeue should succeed")
	assert.Equal(t, inboundMessage, got.Type)
	assert.Equal(t, []byte{1, 0, 2}, got.Msg)
}

func TestInboundQueue_FIFO(t *testing.T) {
	q := newInboundQueue()

	for i := byte(1); i <= 3; i++ {
		q.Enqueue(msgItem(i))
	}

	for want := byte(1); want <= 3; want++ {
		it, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, []byte{want}, it.Msg)
	}
}

func TestInboundQueue_TryDequeue_Empty(t *testing.T) {
	q := newInboundQueue()

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestInboundQueue_WaitSignals(t *testing.T) {
	q := newInboundQueue()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Enqueue(msgItem(9))
	}()

	select {
	case <-q.Wait():
		it, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, []byte{9}, it.Msg)
	case <-time.After(time.Second):
		t.Fatal("wait did not signal")
	}
}

func TestInboundQueue_CloseWakesWaiters(t *testing.T) {
	q := newInboundQueue()
	q.Close()
	q.Close()

	select {
	case <-q.Wait():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("close did not wake waiters")
	}
}

func TestInboundQueue_Enqueue_AfterClose(t *testing.T) {
	q := newInboundQueue()
	q.Enqueue(msgItem(1))
	q.Close()

	assert.False(t, q.Enqueue(msgItem(2)), "enqueue after close should return false")

	_, ok := q.TryDequeue()
	assert.True(t, ok, "queued items survive close")
}

func TestInboundQueue_ThreadSafe(t *testing.T) {
	q := newInboundQueue()

	const producers = 10
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(id byte) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(msgItem(id, byte(i)))
			}
		}(byte(p))
	}
	wg.Wait()

	// Per-producer order is preserved.
	next := make(map[byte]byte)
	total := 0
	for {
		it, ok := q.TryDequeue()
		if !ok {
			break
		}
		id, seq := it.Msg[0], it.Msg[1]
		assert.Equal(t, next[id], seq)
		next[id] = seq + 1
		total++
	}
	assert.Equal(t, producers*perProducer, total)
}
