// Package testutil provides in-memory stand-ins for the engine's optional
// collaborators so tests can observe them without a database.
package testutil

import (
	"context"
	"sync"

	"github.com/roach88/scenesync/internal/wire"
)

// Journal records messages in memory, in the order Record was called.
//
// Thread-safety: the engine records from the host loop while tests read
// from their own goroutine; all methods lock.
type Journal struct {
	mu       sync.Mutex
	dirs     []string
	messages [][]byte
}

// Record implements engine.Journal. It keeps a copy of msg.
func (j *Journal) Record(_ context.Context, direction string, msg []byte) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.dirs = append(j.dirs, direction)
	j.messages = append(j.messages, append([]byte(nil), msg...))
	return nil
}

// Entries returns one "<direction> <KIND>" line per recorded message.
func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.messages))
	for i, msg := range j.messages {
		kind := "short"
		if len(msg) >= wire.HeaderSize {
			kind = wire.MessageKind(msg[2]).String()
		}
		out[i] = j.dirs[i] + " " + kind
	}
	return out
}

// Messages returns copies of the messages recorded in direction.
func (j *Journal) Messages(direction string) [][]byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out [][]byte
	for i, msg := range j.messages {
		if j.dirs[i] == direction {
			out = append(out, append([]byte(nil), msg...))
		}
	}
	return out
}

// Len returns the number of recorded messages.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.messages)
}
