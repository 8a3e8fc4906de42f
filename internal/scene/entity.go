package scene

import (
	"fmt"
	"log/slog"

	"github.com/roach88/scenesync/internal/value"
)

// DefaultSceneID is the network segment every entity belongs to unless
// configured otherwise.
const DefaultSceneID uint8 = 254

// Kind is the entity subtype, fixed at construction.
type Kind uint8

const (
	KindObject Kind = iota
	KindCamera
	KindLight
	KindCharacter
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindCamera:
		return "camera"
	case KindLight:
		return "light"
	case KindCharacter:
		return "character"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Baseline parameter indices shared by every entity kind.
const (
	IndexPosition = 0
	IndexRotation = 1
	IndexScale    = 2
)

// Entity is an addressable owner of an ordered parameter list, bound to one
// host object.
type Entity struct {
	scene  *Scene
	id     uint16
	kind   Kind
	object Object
	params []*Parameter
	locked bool
}

// ID returns the entity id; ids start at 1.
func (e *Entity) ID() uint16 { return e.id }

// SceneID returns the network segment the entity belongs to.
func (e *Entity) SceneID() uint8 { return e.scene.id }

func (e *Entity) Kind() Kind { return e.kind }

func (e *Entity) Object() Object { return e.object }

func (e *Entity) Name() string { return e.object.Name() }

// Locked reports whether a remote peer currently owns the entity.
func (e *Entity) Locked() bool { return e.locked }

// ParameterCount returns the number of parameters created so far.
func (e *Entity) ParameterCount() int { return len(e.params) }

// Parameters returns the parameters in index order. The slice must not be modified.
func (e *Entity) Parameters() []*Parameter { return e.params }

// Parameter returns the parameter at index i, or nil when out of range.
func (e *Entity) Parameter(i int) *Parameter {
	if i < 0 || i >= len(e.params) {
		return nil
	}
	return e.params[i]
}

// Lookup returns the first parameter named name.
func (e *Entity) Lookup(name string) (*Parameter, bool) {
	for _, p := range e.params {
		if p.name == name {
			return p, true
		}
	}
	return nil, false
}

// Lock sets the locked flag. A locked entity cannot be manipulated in the host.
func (e *Entity) Lock(locked bool) {
	e.locked = locked
	e.object.SetSelectable(!locked)
	slog.Debug("entity lock", "entity", e.id, "name", e.object.Name(), "locked", locked)
}

// AddParameter appends a distributed or local-only parameter. It must only be
// called while the entity is being built; see Scene.AddObjectWith.
func (e *Entity) AddParameter(name string, v value.Value, distribute bool) (*Parameter, error) {
	p, err := newParameter(v, name, e, distribute)
	if err != nil {
		return nil, err
	}
	p.OnChange(e.route)
	return p, nil
}

// route is the single observer every parameter carries.
func (e *Entity) route(p *Parameter, v value.Value) {
	if e.locked {
		e.object.ApplyValue(p, v)
		return
	}
	if !p.distribute {
		return
	}
	if d := e.scene.distributor; d != nil {
		d.ParameterChanged(p)
	}
}

// quaternionMode switches the host object to quaternion rotation mode and
// returns a func restoring the previous mode.
func (e *Entity) quaternionMode() func() {
	prev := e.object.RotationMode()
	if prev == RotationQuaternion {
		return func() {}
	}
	e.object.SetRotationMode(RotationQuaternion)
	return func() { e.object.SetRotationMode(prev) }
}

func (e *Entity) addTransform(t Transform) error {
	if _, err := e.AddParameter("Position", t.Position, true); err != nil {
		return err
	}
	if _, err := e.AddParameter("Rotation", t.Rotation, true); err != nil {
		return err
	}
	_, err := e.AddParameter("Scale", t.Scale, true)
	return err
}

func (e *Entity) addLens(l Lens) error {
	for _, f := range []struct {
		name string
		v    float32
	}{
		{"Fov", l.Fov},
		{"Aspect", l.Aspect},
		{"Near", l.Near},
		{"Far", l.Far},
	} {
		if _, err := e.AddParameter(f.name, value.Float32(f.v), true); err != nil {
			return err
		}
	}
	return nil
}

func (e *Entity) addLight(l Light) error {
	if _, err := e.AddParameter("Color", l.Color, true); err != nil {
		return err
	}
	_, err := e.AddParameter("Intensity", value.Float32(l.Intensity), true)
	return err
}

func (e *Entity) addSkeleton(bones []Bone) error {
	joints, err := orderJoints(bones)
	if err != nil {
		return err
	}
	for _, b := range joints {
		if _, err := e.AddParameter(b.Name, b.Rotation, true); err != nil {
			return err
		}
	}
	for _, b := range joints {
		if _, err := e.AddParameter(b.Name, b.Position, true); err != nil {
			return err
		}
	}
	return nil
}

// orderJoints walks the bone hierarchy depth-first from each unparented root,
// visiting roots and children in their input order.
func orderJoints(bones []Bone) ([]Bone, error) {
	byName := make(map[string]int, len(bones))
	for i, b := range bones {
		if _, dup := byName[b.Name]; dup {
			return nil, fmt.Errorf("duplicate bone %q", b.Name)
		}
		byName[b.Name] = i
	}

	children := make(map[string][]int, len(bones))
	var roots []int
	for i, b := range bones {
		if b.Parent == "" {
			roots = append(roots, i)
			continue
		}
		if _, ok := byName[b.Parent]; !ok {
			return nil, fmt.Errorf("bone %q: unknown parent %q", b.Name, b.Parent)
		}
		children[b.Parent] = append(children[b.Parent], i)
	}

	out := make([]Bone, 0, len(bones))
	var visit func(i int)
	visit = func(i int) {
		out = append(out, bones[i])
		for _, c := range children[bones[i].Name] {
			visit(c)
		}
	}
	for _, r := range roots {
		visit(r)
	}

	// Bones on a parent cycle are never reached from a root.
	if len(out) != len(bones) {
		return nil, fmt.Errorf("skeleton has %d bones unreachable from a root", len(bones)-len(out))
	}
	return out, nil
}
