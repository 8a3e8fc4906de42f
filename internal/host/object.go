// Package host provides a headless scene.Object for running a sync session
// without a 3D application: the CLI, replay and the scenario harness use it.
package host

import (
	"github.com/roach88/scenesync/internal/scene"
	"github.com/roach88/scenesync/internal/value"
)

// Applied records one value written into the object by the sync layer.
type Applied struct {
	Index int
	Name  string
	Value value.Value
}

// Object is an in-memory host object. Live values are keyed by parameter
// index, so joints that share a name stay distinct.
//
// Like a real host, it is owned by the host loop and not safe for concurrent use.
type Object struct {
	name       string
	live       map[int]value.Value
	applied    []Applied
	selectable bool
	mode       scene.RotationMode
	modes      []scene.RotationMode
}

var _ scene.Object = (*Object)(nil)

// New returns a selectable object in Euler rotation mode.
func New(name string) *Object {
	return &Object{
		name:       name,
		live:       map[int]value.Value{},
		selectable: true,
		mode:       scene.RotationEulerXYZ,
	}
}

func (o *Object) Name() string { return o.name }

// CurrentValue returns the live host value, or the parameter's own value
// when the host has not diverged from it.
func (o *Object) CurrentValue(p *scene.Parameter) value.Value {
	if v, ok := o.live[p.Index()]; ok {
		return v
	}
	return p.Value()
}

func (o *Object) ApplyValue(p *scene.Parameter, v value.Value) {
	o.live[p.Index()] = v
	o.applied = append(o.applied, Applied{Index: p.Index(), Name: p.Name(), Value: v})
}

// Edit simulates a user edit in the host. It becomes visible to the sync
// layer on the next watcher scan.
func (o *Object) Edit(p *scene.Parameter, v value.Value) {
	o.live[p.Index()] = v
}

// Applied returns the values written by the sync layer, oldest first.
func (o *Object) Applied() []Applied {
	return append([]Applied(nil), o.applied...)
}

// ResetApplied clears the applied log.
func (o *Object) ResetApplied() { o.applied = nil }

func (o *Object) SetSelectable(selectable bool) { o.selectable = selectable }

// Selectable reports whether direct manipulation is enabled.
func (o *Object) Selectable() bool { return o.selectable }

func (o *Object) RotationMode() scene.RotationMode { return o.mode }

func (o *Object) SetRotationMode(mode scene.RotationMode) {
	o.mode = mode
	o.modes = append(o.modes, mode)
}

// ModeChanges returns every rotation mode set, in order.
func (o *Object) ModeChanges() []scene.RotationMode {
	return append([]scene.RotationMode(nil), o.modes...)
}
