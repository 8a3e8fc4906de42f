package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// ErrSceneFull is returned when no entity id fits in a wire u16.
var ErrSceneFull = errors.New("scene: entity ids exhausted")

// Scene is the session context: it owns the entities, assigns their ids and
// holds the distributor for outbound changes.
//
// A Scene is driven from a single goroutine (the host loop).
type Scene struct {
	id          uint8
	entities    []*Entity
	distributor Distributor
}

// New returns an empty scene on network segment sceneID.
func New(sceneID uint8) *Scene {
	return &Scene{id: sceneID}
}

// ID returns the network segment id.
func (s *Scene) ID() uint8 { return s.id }

// SetDistributor sets the receiver of unlocked parameter changes. Nil
// disables distribution.
func (s *Scene) SetDistributor(d Distributor) { s.distributor = d }

// Len returns the number of entities.
func (s *Scene) Len() int { return len(s.entities) }

// Entities returns all entities in id order. The slice must not be modified.
func (s *Scene) Entities() []*Entity { return s.entities }

// Entity returns the entity with the given id, or nil when id is outside 1..Len.
func (s *Scene) Entity(id int) *Entity {
	if id < 1 || id > len(s.entities) {
		return nil
	}
	return s.entities[id-1]
}

// Lookup returns the entity whose host object is named name.
func (s *Scene) Lookup(name string) (*Entity, bool) {
	for _, e := range s.entities {
		if e.object.Name() == name {
			return e, true
		}
	}
	return nil, false
}

// Parameter returns the parameter addressed by (entity id, index), or nil.
func (s *Scene) Parameter(entityID, index int) *Parameter {
	e := s.Entity(entityID)
	if e == nil {
		return nil
	}
	return e.Parameter(index)
}

// AddObject adds a plain object with the baseline transform parameters.
func (s *Scene) AddObject(obj Object, t Transform) (*Entity, error) {
	return s.add(obj, KindObject, func(e *Entity) error {
		return e.addTransform(t)
	})
}

// AddObjectWith adds a plain object and lets extra append additional
// parameters after the transform.
func (s *Scene) AddObjectWith(obj Object, t Transform, extra func(e *Entity) error) (*Entity, error) {
	return s.add(obj, KindObject, func(e *Entity) error {
		if err := e.addTransform(t); err != nil {
			return err
		}
		return extra(e)
	})
}

// AddCamera adds a camera: transform, then Fov, Aspect, Near, Far.
func (s *Scene) AddCamera(obj Object, t Transform, l Lens) (*Entity, error) {
	return s.add(obj, KindCamera, func(e *Entity) error {
		if err := e.addTransform(t); err != nil {
			return err
		}
		return e.addLens(l)
	})
}

// AddLight adds a light: transform, then Color, Intensity.
func (s *Scene) AddLight(obj Object, t Transform, l Light) (*Entity, error) {
	return s.add(obj, KindLight, func(e *Entity) error {
		if err := e.addTransform(t); err != nil {
			return err
		}
		return e.addLight(l)
	})
}

// AddCharacter adds a skinned character: transform, then one rotation per
// joint, then one position per joint.
func (s *Scene) AddCharacter(obj Object, t Transform, bones []Bone) (*Entity, error) {
	return s.add(obj, KindCharacter, func(e *Entity) error {
		if err := e.addTransform(t); err != nil {
			return err
		}
		return e.addSkeleton(bones)
	})
}

// add builds the entity and commits its id only if construction succeeds.
func (s *Scene) add(obj Object, kind Kind, build func(e *Entity) error) (*Entity, error) {
	if obj == nil {
		return nil, errors.New("scene: nil host object")
	}
	if len(s.entities) >= math.MaxUint16 {
		return nil, ErrSceneFull
	}

	e := &Entity{
		scene:  s,
		id:     uint16(len(s.entities) + 1),
		kind:   kind,
		object: obj,
	}
	if err := build(e); err != nil {
		return nil, fmt.Errorf("add %s %q: %w", kind, obj.Name(), err)
	}

	s.entities = append(s.entities, e)
	slog.Debug("entity added",
		"entity", e.id,
		"kind", kind.String(),
		"name", obj.Name(),
		"params", len(e.params),
	)
	return e, nil
}
