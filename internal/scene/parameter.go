package scene

import (
	"errors"
	"fmt"

	"github.com/roach88/scenesync/internal/value"
)

// ErrUnsupportedKind is returned when a parameter is built from a value with
// no wire representation.
var ErrUnsupportedKind = errors.New("scene: unsupported value kind")

// Observer is called synchronously on every SetValue.
type Observer func(p *Parameter, v value.Value)

// ObserverHandle identifies a registered observer for removal.
type ObserverHandle uint64

type observerEntry struct {
	handle ObserverHandle
	fn     Observer
}

// Parameter is a named, typed, observable value owned by an Entity.
// It is the unit of synchronization, addressed on the wire by
// (entity id, index).
type Parameter struct {
	owner      *Entity
	index      int
	name       string
	kind       value.Kind
	distribute bool

	current value.Value
	initial value.Value

	observers  []observerEntry
	nextHandle ObserverHandle
	notifying  bool
}

// newParameter appends a parameter to owner. Only entity construction calls it.
func newParameter(v value.Value, name string, owner *Entity, distribute bool) (*Parameter, error) {
	if v == nil {
		return nil, fmt.Errorf("parameter %q: nil value: %w", name, ErrUnsupportedKind)
	}
	if !v.Kind().Valid() {
		return nil, fmt.Errorf("parameter %q: %s: %w", name, v.Kind(), ErrUnsupportedKind)
	}
	if s, ok := v.(value.String); ok && value.Width(s) > value.MaxStringBytes {
		return nil, fmt.Errorf("parameter %q: %w", name, value.ErrStringTooLong)
	}

	p := &Parameter{
		owner:      owner,
		index:      owner.ParameterCount(),
		name:       name,
		kind:       v.Kind(),
		distribute: distribute,
		current:    v,
		initial:    v,
	}
	owner.params = append(owner.params, p)
	return p, nil
}

// Entity returns the owning entity.
func (p *Parameter) Entity() *Entity { return p.owner }

// Index returns the parameter's position in its entity's list.
func (p *Parameter) Index() int { return p.index }

func (p *Parameter) Name() string { return p.name }

func (p *Parameter) Kind() value.Kind { return p.kind }

// Distribute reports whether local changes leave the process.
func (p *Parameter) Distribute() bool { return p.distribute }

// Value returns the current value.
func (p *Parameter) Value() value.Value { return p.current }

// Initial returns the value the parameter was constructed with.
func (p *Parameter) Initial() value.Value { return p.initial }

// Width returns the encoded width of the current value.
func (p *Parameter) Width() int { return value.Width(p.current) }

// SetValue stores v and notifies every observer in registration order, even
// when v equals the current value.
//
// An observer that sets the same parameter while it is being notified has
// its value stored without a second round of notifications.
func (p *Parameter) SetValue(v value.Value) {
	p.current = v
	if p.notifying {
		return
	}

	p.notifying = true
	defer func() { p.notifying = false }()

	// Observers may unregister themselves; iterate a snapshot.
	obs := make([]observerEntry, len(p.observers))
	copy(obs, p.observers)
	for _, o := range obs {
		o.fn(p, v)
	}
}

// OnChange registers fn and returns a handle for RemoveObserver.
func (p *Parameter) OnChange(fn Observer) ObserverHandle {
	p.nextHandle++
	p.observers = append(p.observers, observerEntry{handle: p.nextHandle, fn: fn})
	return p.nextHandle
}

// RemoveObserver unregisters the observer with handle h. Unknown handles are ignored.
func (p *Parameter) RemoveObserver(h ObserverHandle) {
	for i, o := range p.observers {
		if o.handle == h {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			return
		}
	}
}

// DecodeFromWire reads a payload of n bytes at offset, converts it to the
// local basis and applies it with SetValue.
func (p *Parameter) DecodeFromWire(buf []byte, offset, n int) error {
	v, err := value.DecodeN(p.kind, buf, offset, n)
	if err != nil {
		return fmt.Errorf("parameter %d/%d %s: %w", p.owner.ID(), p.index, p.name, err)
	}
	p.SetValue(v)
	return nil
}

// SerializeForWire encodes the current value in the wire basis.
//
// Quaternions are read with the host object in quaternion rotation mode; the
// previous mode is restored on return.
func (p *Parameter) SerializeForWire() ([]byte, error) {
	if p.kind == value.KindQuaternion {
		restore := p.owner.quaternionMode()
		defer restore()
	}
	buf, err := value.Encode(p.current)
	if err != nil {
		return nil, fmt.Errorf("parameter %d/%d %s: %w", p.owner.ID(), p.index, p.name, err)
	}
	return buf, nil
}

func (p *Parameter) String() string {
	return fmt.Sprintf("%d/%d %s=%s", p.owner.ID(), p.index, p.name, value.Format(p.current))
}
