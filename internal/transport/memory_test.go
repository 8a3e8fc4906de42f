package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const ep = "mem://update"

func TestMemory_PublishReachesEverySubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	m := NewMemory()
	a, err := m.Subscribe(ctx, ep)
	require.NoError(t, err)
	b, err := m.Subscribe(ctx, ep)
	require.NoError(t, err)
	other, err := m.Subscribe(ctx, "mem://elsewhere")
	require.NoError(t, err)
	defer other.Close()

	pub, err := m.Publish(ctx, ep)
	require.NoError(t, err)
	require.NoError(t, pub.Publish([]byte{1, 2, 3}))

	got, err := a.Receive()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)
	got, err = b.Receive()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)

	require.NoError(t, a.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, 0, m.Subscribers(ep))
	require.NoError(t, pub.Close())
}

func TestMemory_CloseUnblocksReceive(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewMemory()
	sub, err := m.Subscribe(context.Background(), ep)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := sub.Receive()
		done <- err
	}()

	require.NoError(t, sub.Close())
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("receive did not unblock")
	}
}

func TestMemory_ContextCancelClosesSocket(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	m := NewMemory()
	sub, err := m.Subscribe(ctx, ep)
	require.NoError(t, err)

	cancel()
	_, err = sub.Receive()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemory_CloseIsIdempotent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	sub, _ := m.Subscribe(ctx, ep)
	pub, _ := m.Publish(ctx, ep)
	rep, _ := m.Reply(ctx, "mem://dist")
	req, _ := m.Request(ctx, "mem://dist")

	for i := 0; i < 2; i++ {
		assert.NoError(t, sub.Close())
		assert.NoError(t, pub.Close())
		assert.NoError(t, rep.Close())
		assert.NoError(t, req.Close())
	}
	assert.ErrorIs(t, pub.Publish([]byte{1}), ErrClosed)
}

func TestMemory_RequestReply(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	m := NewMemory()
	rep, err := m.Reply(ctx, "mem://cmd")
	require.NoError(t, err)
	defer rep.Close()

	go func() {
		msg, err := rep.Receive()
		if err != nil {
			return
		}
		_ = rep.Reply(append([]byte("pong:"), msg...))
	}()

	req, err := m.Request(ctx, "mem://cmd")
	require.NoError(t, err)
	defer req.Close()

	out, err := req.Request([]byte("ping"))
	require.NoError(t, err)
	assert.Equal(t, []byte("pong:ping"), out)
}

func TestMemory_RequestWithoutReplier(t *testing.T) {
	m := NewMemory()
	req, err := m.Request(context.Background(), "mem://nobody")
	require.NoError(t, err)

	_, err = req.Request([]byte("ping"))
	assert.ErrorIs(t, err, ErrNoReplier)
}

func TestMemory_ReplyBindTwice(t *testing.T) {
	m := NewMemory()
	r, err := m.Reply(context.Background(), "mem://dist")
	require.NoError(t, err)

	_, err = m.Reply(context.Background(), "mem://dist")
	assert.Error(t, err)

	require.NoError(t, r.Close())
	r2, err := m.Reply(context.Background(), "mem://dist")
	require.NoError(t, err, "closing releases the address")
	require.NoError(t, r2.Close())
}

func TestMemory_ReplyWithoutRequest(t *testing.T) {
	m := NewMemory()
	r, err := m.Reply(context.Background(), "mem://dist")
	require.NoError(t, err)
	defer r.Close()
	assert.Error(t, r.Reply([]byte("x")))
}

func TestEndpoints(t *testing.T) {
	e := NewEndpoints("127.0.0.1", 5555, 5556, 5557, 5558)
	assert.Equal(t, "tcp://127.0.0.1:5555", e.Distribution)
	assert.Equal(t, "tcp://127.0.0.1:5556", e.For(ChannelSync))
	assert.Equal(t, "tcp://127.0.0.1:5557", e.For(ChannelUpdate))
	assert.Equal(t, "tcp://127.0.0.1:5558", e.For(ChannelCommand))
	assert.Equal(t, "", e.For(Channel("bogus")))
}
