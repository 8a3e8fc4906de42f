package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrClosed is returned by operations on a closed socket.
var ErrClosed = errors.New("transport: closed")

// Channel names the four sockets a session uses.
type Channel string

const (
	ChannelDistribution Channel = "distribution" // reply: bulk scene data
	ChannelSync         Channel = "sync"         // subscribe: inbound state
	ChannelUpdate       Channel = "update"       // publish: outbound updates
	ChannelCommand      Channel = "command"      // request: ping/pong
)

// Publisher broadcasts messages.
type Publisher interface {
	Publish(msg []byte) error
	io.Closer
}

// Subscriber receives every message published to its endpoint.
// Receive blocks until a message arrives or the socket is closed.
type Subscriber interface {
	Receive() ([]byte, error)
	io.Closer
}

// Replier answers requests one at a time: each Receive must be followed by
// exactly one Reply.
type Replier interface {
	Receive() ([]byte, error)
	Reply(msg []byte) error
	io.Closer
}

// Requester sends a request and waits for its reply.
type Requester interface {
	Request(msg []byte) ([]byte, error)
	io.Closer
}

// Dialer opens sockets. Sockets are bound to ctx: cancelling it unblocks
// pending receives as Close does. Close is idempotent on every socket.
type Dialer interface {
	Subscribe(ctx context.Context, endpoint string) (Subscriber, error)
	Reply(ctx context.Context, endpoint string) (Replier, error)
	Publish(ctx context.Context, endpoint string) (Publisher, error)
	Request(ctx context.Context, endpoint string) (Requester, error)
}

// Endpoints holds one address per channel.
type Endpoints struct {
	Distribution string
	Sync         string
	Update       string
	Command      string
}

// NewEndpoints builds tcp endpoints on ip.
func NewEndpoints(ip string, distribution, sync, update, command int) Endpoints {
	tcp := func(port int) string { return fmt.Sprintf("tcp://%s:%d", ip, port) }
	return Endpoints{
		Distribution: tcp(distribution),
		Sync:         tcp(sync),
		Update:       tcp(update),
		Command:      tcp(command),
	}
}

// For returns the endpoint of ch.
func (e Endpoints) For(ch Channel) string {
	switch ch {
	case ChannelDistribution:
		return e.Distribution
	case ChannelSync:
		return e.Sync
	case ChannelUpdate:
		return e.Update
	case ChannelCommand:
		return e.Command
	default:
		return ""
	}
}
