package scene

import (
	"github.com/roach88/scenesync/internal/value"
)

// ChangeEpsilon is the smallest component difference the Watcher treats as a
// host edit.
const ChangeEpsilon float32 = 1e-4

// Watcher detects host-side edits by comparing each parameter's host value
// with the last host value it saw for that parameter.
//
// The snapshot is refreshed after every SetValue, so a value that arrives
// from the network without touching the host (an unlocked entity) is never
// mistaken for a local edit.
type Watcher struct {
	scene *Scene
	eps   float32
	seen  map[*Parameter]value.Value
}

// NewWatcher returns a Watcher over s using ChangeEpsilon. The baseline of
// every parameter is its current value.
func NewWatcher(s *Scene) *Watcher {
	w := &Watcher{scene: s, eps: ChangeEpsilon, seen: make(map[*Parameter]value.Value)}
	for _, e := range s.entities {
		for _, p := range e.params {
			w.track(p)
		}
	}
	return w
}

func (w *Watcher) track(p *Parameter) {
	w.seen[p] = p.current
	p.OnChange(w.observe)
}

// observe runs after the entity's routing observer, once any host
// application has happened.
func (w *Watcher) observe(p *Parameter, _ value.Value) {
	if cur := p.owner.object.CurrentValue(p); cur != nil && cur.Kind() == p.kind {
		w.seen[p] = cur
	}
}

// Scan calls SetValue on every parameter whose host value moved by more than
// the epsilon since the last snapshot and returns how many changed. Host
// values of a different kind are ignored.
func (w *Watcher) Scan() int {
	changed := 0
	for _, e := range w.scene.entities {
		for _, p := range e.params {
			prev, ok := w.seen[p]
			if !ok {
				w.track(p)
				prev = p.current
			}
			cur := e.object.CurrentValue(p)
			if cur == nil || cur.Kind() != p.kind {
				continue
			}
			if value.Near(cur, prev, w.eps) {
				continue
			}
			p.SetValue(cur)
			w.seen[p] = cur
			changed++
		}
	}
	return changed
}

// LockSender publishes lock ownership changes for local selections.
type LockSender interface {
	SendLock(e *Entity, locked bool)
}

// SelectionTracker turns host selection snapshots into LOCK and UNLOCK
// messages. At most one entity is held at a time: selecting several at once
// counts as selecting none.
type SelectionTracker struct {
	sender  LockSender
	current *Entity
}

func NewSelectionTracker(sender LockSender) *SelectionTracker {
	return &SelectionTracker{sender: sender}
}

// Selected returns the entity currently held, or nil.
func (t *SelectionTracker) Selected() *Entity { return t.current }

// Update diffs selected against the previous snapshot. A deselection is
// sent before the new selection.
func (t *SelectionTracker) Update(selected []*Entity) {
	var next *Entity
	if len(selected) == 1 {
		next = selected[0]
	}
	if next == t.current {
		return
	}
	if t.current != nil {
		t.sender.SendLock(t.current, false)
	}
	if next != nil {
		t.sender.SendLock(next, true)
	}
	t.current = next
}
