package scenefile

import (
	"fmt"

	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/scene"
)

// Built is a scene whose objects live in headless host objects.
type Built struct {
	Scene   *scene.Scene
	Objects []*host.Object // in entity id order
}

// Object returns the host object named name.
func (b *Built) Object(name string) (*host.Object, bool) {
	for _, o := range b.Objects {
		if o.Name() == name {
			return o, true
		}
	}
	return nil, false
}

// Build creates the scene in document order, so entity ids are 1-based
// positions in doc.Objects.
func Build(doc *Document) (*Built, error) {
	b := &Built{Scene: scene.New(doc.SceneID)}
	seen := map[string]bool{}

	for i, spec := range doc.Objects {
		if seen[spec.Name] {
			return nil, fmt.Errorf("object %d: duplicate name %q", i, spec.Name)
		}
		seen[spec.Name] = true

		obj := host.New(spec.Name)
		ent, err := add(b.Scene, obj, spec)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", spec.Name, err)
		}
		for _, p := range spec.Params {
			if _, err := ent.AddParameter(p.Name, p.Value, p.Distribute); err != nil {
				return nil, fmt.Errorf("object %q: parameter %q: %w", spec.Name, p.Name, err)
			}
		}
		b.Objects = append(b.Objects, obj)
	}
	return b, nil
}

func add(s *scene.Scene, obj *host.Object, spec ObjectSpec) (*scene.Entity, error) {
	switch spec.Kind {
	case KindCamera:
		return s.AddCamera(obj, spec.Transform, spec.Lens)
	case KindLight:
		return s.AddLight(obj, spec.Transform, spec.Light)
	case KindCharacter:
		return s.AddCharacter(obj, spec.Transform, spec.Bones)
	case KindObject, "":
		return s.AddObject(obj, spec.Transform)
	default:
		return nil, fmt.Errorf("unknown kind %q", spec.Kind)
	}
}
