package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"
)

// ZMQ opens ZeroMQ sockets. The local process binds the distribution reply
// socket and connects the others to the server.
type ZMQ struct {
	// DialRetry is the reconnect interval for connecting sockets.
	DialRetry time.Duration
}

// NewZMQ returns a ZMQ dialer with a 250ms reconnect interval.
func NewZMQ() *ZMQ {
	return &ZMQ{DialRetry: 250 * time.Millisecond}
}

var _ Dialer = (*ZMQ)(nil)

func (z *ZMQ) opts() []zmq4.Option {
	return []zmq4.Option{zmq4.WithDialerRetry(z.DialRetry)}
}

func (z *ZMQ) Subscribe(ctx context.Context, endpoint string) (Subscriber, error) {
	s, err := z.open(ctx, zmq4.NewSub, endpoint, false)
	if err != nil {
		return nil, err
	}
	if err := s.sock.SetOption(zmq4.OptionSubscribe, ""); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("subscribe %s: %w", endpoint, err)
	}
	return s, nil
}

func (z *ZMQ) Reply(ctx context.Context, endpoint string) (Replier, error) {
	return z.open(ctx, zmq4.NewRep, endpoint, true)
}

func (z *ZMQ) Publish(ctx context.Context, endpoint string) (Publisher, error) {
	return z.open(ctx, zmq4.NewPub, endpoint, false)
}

func (z *ZMQ) Request(ctx context.Context, endpoint string) (Requester, error) {
	return z.open(ctx, zmq4.NewReq, endpoint, false)
}

type newSocket func(ctx context.Context, opts ...zmq4.Option) zmq4.Socket

func (z *ZMQ) open(ctx context.Context, fn newSocket, endpoint string, bind bool) (*zmqSocket, error) {
	sctx, cancel := context.WithCancel(ctx)
	sock := fn(sctx, z.opts()...)

	var err error
	if bind {
		err = sock.Listen(endpoint)
	} else {
		err = sock.Dial(endpoint)
	}
	if err != nil {
		cancel()
		_ = sock.Close()
		return nil, err
	}
	return &zmqSocket{sock: sock, cancel: cancel}, nil
}

// zmqSocket adapts a zmq4.Socket to every role; the Dialer hands out only
// the interface matching the socket type.
type zmqSocket struct {
	sock   zmq4.Socket
	cancel context.CancelFunc

	once   sync.Once
	mu     sync.Mutex
	closed bool
}

func (s *zmqSocket) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *zmqSocket) send(msg []byte) error {
	if s.isClosed() {
		return ErrClosed
	}
	return s.sock.Send(zmq4.NewMsg(msg))
}

func (s *zmqSocket) Receive() ([]byte, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	msg, err := s.sock.Recv()
	if err != nil {
		if s.isClosed() || errors.Is(err, context.Canceled) {
			return nil, ErrClosed
		}
		return nil, err
	}
	return msg.Bytes(), nil
}

func (s *zmqSocket) Publish(msg []byte) error { return s.send(msg) }

func (s *zmqSocket) Reply(msg []byte) error { return s.send(msg) }

func (s *zmqSocket) Request(msg []byte) ([]byte, error) {
	if err := s.send(msg); err != nil {
		return nil, err
	}
	return s.Receive()
}

func (s *zmqSocket) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.cancel()
		err = s.sock.Close()
	})
	return err
}
