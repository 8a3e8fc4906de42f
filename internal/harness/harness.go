package harness

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/scenesync/internal/engine"
	"github.com/roach88/scenesync/internal/scene"
	"github.com/roach88/scenesync/internal/scenefile"
	"github.com/roach88/scenesync/internal/transport"
	"github.com/roach88/scenesync/internal/value"
	"github.com/roach88/scenesync/internal/wire"
)

// PollTimeout bounds how long a poll step waits for published messages to
// reach the engine.
const PollTimeout = 2 * time.Second

// Rate is the update rate scenarios run at.
const Rate = 60

var endpoints = transport.Endpoints{
	Distribution: "inproc://harness/distribution",
	Sync:         "inproc://harness/sync",
	Update:       "inproc://harness/update",
	Command:      "inproc://harness/command",
}

// Harness runs one scenario against a started engine on a Memory transport.
// It stands in for the server on the sync channel and for the user in the
// host.
type Harness struct {
	built   *scenefile.Built
	engine  *engine.Engine
	watcher *scene.Watcher
	sel     *scene.SelectionTracker
	server  transport.Publisher
	result  *Result
	pending int
}

// Run executes a scenario and returns the result.
//
// Each scenario gets a fresh scene and transport. Ping is off, so the
// clock only moves on sync and advance steps and traces are reproducible.
// Inbound messages still pending after the last step are polled before the
// assertions are evaluated.
func Run(scenario *Scenario) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	doc, err := scenefile.Load(scenario.Scene)
	if err != nil {
		return nil, err
	}
	built, err := scenefile.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build scene: %w", err)
	}

	result := NewResult()
	mem := transport.NewMemory()
	eng, err := engine.New(built.Scene, mem, engine.Config{
		ClientID:  uint8(scenario.ClientID),
		Endpoints: endpoints,
		Rate:      Rate,
	}, engine.WithJournal(traceJournal{result}))
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}
	defer eng.Stop()

	server, err := mem.Publish(ctx, endpoints.Sync)
	if err != nil {
		return nil, fmt.Errorf("failed to open server publisher: %w", err)
	}
	defer server.Close()

	h := &Harness{
		built:   built,
		engine:  eng,
		watcher: scene.NewWatcher(built.Scene),
		sel:     scene.NewSelectionTracker(eng),
		server:  server,
		result:  result,
	}
	h.observeApplied()

	for i, step := range scenario.Steps {
		if err := h.step(step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	if h.pending > 0 {
		if err := h.poll(); err != nil {
			return nil, err
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, &AssertionContext{
		Built: built,
		Clock: eng.Clock().Now(),
	}) {
		result.AddError(msg)
	}
	return result, nil
}

// observeApplied adds a trace observer to every parameter. It runs after the
// entity's own observer, so a change seen on a locked entity has just been
// written into the host.
func (h *Harness) observeApplied() {
	for _, ent := range h.built.Scene.Entities() {
		for _, p := range ent.Parameters() {
			p.OnChange(func(p *scene.Parameter, v value.Value) {
				if !p.Entity().Locked() {
					return
				}
				h.result.add(TraceEvent{
					Type:   EventApply,
					Object: p.Entity().Name(),
					Param:  p.Name(),
					Value:  value.Format(v),
				})
			})
		}
	}
}

func (h *Harness) step(s Step) error {
	switch {
	case s.Inbound != nil:
		msg, err := h.inbound(s.Inbound)
		if err != nil {
			return err
		}
		if err := h.server.Publish(msg); err != nil {
			return fmt.Errorf("publish inbound: %w", err)
		}
		h.pending++
	case s.Local != nil:
		return h.local(s.Local)
	case s.Select != nil:
		var selected []*scene.Entity
		for _, name := range s.Select.Objects {
			ent, err := h.entity(name)
			if err != nil {
				return err
			}
			selected = append(selected, ent)
		}
		h.sel.Update(selected)
	case s.Poll:
		return h.poll()
	case s.Sync:
		h.engine.SendSync()
	case s.Advance > 0:
		c := h.engine.Clock()
		c.Set(int(c.Now()) + s.Advance)
	}
	return nil
}

// poll handles every published message, waiting for the engine's reader
// to queue them.
func (h *Harness) poll() error {
	deadline := time.Now().Add(PollTimeout)
	for h.pending > 0 {
		h.pending -= h.engine.Poll()
		if h.pending <= 0 {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("poll: %d inbound messages not delivered within %s", h.pending, PollTimeout)
		}
		time.Sleep(time.Millisecond)
	}
	h.pending = 0
	return nil
}

func (h *Harness) local(l *Local) error {
	p, err := h.parameter(l.Object, l.Param)
	if err != nil {
		return err
	}
	v, err := value.Parse(p.Kind(), l.Value)
	if err != nil {
		return fmt.Errorf("local %s/%s: %w", l.Object, l.Param, err)
	}
	obj, ok := h.built.Object(l.Object)
	if !ok {
		return fmt.Errorf("unknown object %q", l.Object)
	}
	obj.Edit(p, v)
	h.watcher.Scan()
	return nil
}

func (h *Harness) inbound(in *Inbound) ([]byte, error) {
	from, t := uint8(in.From), uint8(in.Time)
	switch {
	case in.Hex != "":
		msg, err := hex.DecodeString(in.Hex)
		if err != nil {
			return nil, fmt.Errorf("inbound hex: %w", err)
		}
		return msg, nil
	case in.Sync:
		return wire.NewSync(from, t), nil
	case in.Lock != "" || in.Unlock != "":
		name, locked := in.Lock, true
		if name == "" {
			name, locked = in.Unlock, false
		}
		ent, err := h.entity(name)
		if err != nil {
			return nil, err
		}
		return wire.NewLock(from, t, ent.ID(), locked), nil
	}

	records := make([]wire.ParameterRecord, 0, len(in.Update))
	for i, r := range in.Update {
		rec, err := h.record(from, r)
		if err != nil {
			return nil, fmt.Errorf("inbound.update[%d]: %w", i, err)
		}
		records = append(records, rec)
	}
	return wire.NewParameterUpdate(from, t, records...)
}

func (h *Harness) record(origin uint8, r Record) (wire.ParameterRecord, error) {
	rec := wire.ParameterRecord{
		Origin:     origin,
		EntityID:   uint16(r.Entity),
		ParamIndex: uint16(r.Index),
	}
	if r.Object != "" {
		p, err := h.parameter(r.Object, r.Param)
		if err != nil {
			return rec, err
		}
		rec.EntityID = p.Entity().ID()
		rec.ParamIndex = uint16(p.Index())
		rec.Kind = p.Kind()
	}
	if r.Type != "" {
		kind, err := value.ParseKind(r.Type)
		if err != nil {
			return rec, err
		}
		rec.Kind = kind
	}

	v, err := value.Parse(rec.Kind, r.Value)
	if err != nil {
		return rec, err
	}
	if rec.Payload, err = value.Encode(v); err != nil {
		return rec, err
	}
	return rec, nil
}

func (h *Harness) entity(name string) (*scene.Entity, error) {
	ent, ok := h.built.Scene.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown object %q", name)
	}
	return ent, nil
}

func (h *Harness) parameter(object, param string) (*scene.Parameter, error) {
	ent, err := h.entity(object)
	if err != nil {
		return nil, err
	}
	p, ok := ent.Lookup(param)
	if !ok {
		return nil, fmt.Errorf("object %q has no parameter %q", object, param)
	}
	return p, nil
}

// traceJournal appends every message the engine handles or publishes to the
// result trace.
type traceJournal struct {
	result *Result
}

var _ engine.Journal = traceJournal{}

func (j traceJournal) Record(_ context.Context, direction string, msg []byte) error {
	hdr, err := wire.NewReader(msg)
	if err != nil {
		return errors.New("journal: message without header")
	}
	j.result.add(TraceEvent{
		Type:    direction,
		Kind:    hdr.Header.Kind.String(),
		Message: append([]byte(nil), msg...),
	})
	return nil
}
