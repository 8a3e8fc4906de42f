// Package scenefile loads scene descriptions written in CUE.
//
// A scene file declares a `scene` field. It is unified with the embedded
// #Scene schema, which supplies defaults and rejects unknown fields, then
// read into a Document:
//
//	scene: {
//		objects: [
//			{name: "Cube", position: [0, 0, 1]},
//			{name: "Main Camera", kind: "camera", lens: {fov: 50}},
//		]
//	}
package scenefile

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/scenesync/internal/scene"
	"github.com/roach88/scenesync/internal/value"
)

//go:embed schema.cue
var schemaCUE string

// Object kinds.
const (
	KindObject    = "object"
	KindCamera    = "camera"
	KindLight     = "light"
	KindCharacter = "character"
)

// Document is a decoded scene file.
type Document struct {
	SceneID uint8
	Objects []ObjectSpec
}

// ObjectSpec describes one entity. Lens and Light are set only for cameras
// and lights; Bones only for characters.
type ObjectSpec struct {
	Name      string
	Kind      string
	Transform scene.Transform
	Lens      scene.Lens
	Light     scene.Light
	Bones     []scene.Bone
	Params    []ParamSpec
}

// ParamSpec is an extra parameter declared on an object.
type ParamSpec struct {
	Name       string
	Value      value.Value
	Distribute bool
}

// LoadError reports a scene file that could not be loaded, with the CUE
// position when one is known.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads and decodes the scene file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes scene source. filename is used in error positions.
func Parse(filename string, src []byte) (*Document, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("scene schema: %w", err)
	}

	file := ctx.CompileBytes(src, cue.Filename(filename))
	if err := file.Err(); err != nil {
		return nil, formatCUEError(err, "cue")
	}

	sceneVal := file.LookupPath(cue.ParsePath("scene"))
	if !sceneVal.Exists() {
		return nil, &LoadError{Field: "scene", Message: "missing top-level scene field", Pos: file.Pos()}
	}

	v := schema.LookupPath(cue.ParsePath("#Scene")).Unify(sceneVal)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, "scene")
	}

	r := reader{schema: schema}
	doc := &Document{SceneID: uint8(r.int(v, "id"))}

	iter, err := concrete(v.LookupPath(cue.ParsePath("objects"))).List()
	if err != nil {
		return nil, formatCUEError(err, "objects")
	}
	for iter.Next() {
		obj := r.object(iter.Value())
		if r.err != nil {
			return nil, r.err
		}
		doc.Objects = append(doc.Objects, obj)
	}
	if r.err != nil {
		return nil, r.err
	}
	return doc, nil
}

// reader extracts fields from validated values. The first error sticks.
type reader struct {
	schema cue.Value
	err    error
}

func (r *reader) fail(v cue.Value, field string, err error) {
	if r.err != nil {
		return
	}
	if le, ok := formatCUEError(err, field).(*LoadError); ok {
		r.err = le
		return
	}
	r.err = &LoadError{Field: field, Message: err.Error(), Pos: v.Pos()}
}

func (r *reader) lookup(v cue.Value, field string) cue.Value {
	return concrete(v.LookupPath(cue.ParsePath(field)))
}

func (r *reader) string(v cue.Value, field string) string {
	s, err := r.lookup(v, field).String()
	if err != nil {
		r.fail(v, field, err)
	}
	return s
}

func (r *reader) bool(v cue.Value, field string) bool {
	b, err := r.lookup(v, field).Bool()
	if err != nil {
		r.fail(v, field, err)
	}
	return b
}

func (r *reader) int(v cue.Value, field string) int64 {
	n, err := r.lookup(v, field).Int64()
	if err != nil {
		r.fail(v, field, err)
	}
	return n
}

func (r *reader) float(v cue.Value, field string) float32 {
	f, err := r.lookup(v, field).Float64()
	if err != nil {
		r.fail(v, field, err)
	}
	return float32(f)
}

func (r *reader) floats(v cue.Value, field string) []float32 {
	fs, err := floatList(r.lookup(v, field))
	if err != nil {
		r.fail(v, field, err)
	}
	return fs
}

func (r *reader) vec3(v cue.Value, field string) value.Vec3 {
	c := r.floats(v, field)
	if len(c) != 3 {
		return value.Vec3{}
	}
	return value.Vec3{X: c[0], Y: c[1], Z: c[2]}
}

func (r *reader) quat(v cue.Value, field string) value.Quat {
	c := r.floats(v, field)
	if len(c) != 4 {
		return value.IdentityQuat
	}
	return value.Quat{W: c[0], X: c[1], Y: c[2], Z: c[3]}.Normalize()
}

// section returns field, or the schema definition def filled with its
// defaults when the file omits it.
func (r *reader) section(v cue.Value, field, def string) cue.Value {
	s := v.LookupPath(cue.ParsePath(field))
	if s.Exists() {
		return s
	}
	return r.schema.LookupPath(cue.ParsePath(def))
}

func (r *reader) object(v cue.Value) ObjectSpec {
	obj := ObjectSpec{
		Name: r.string(v, "name"),
		Kind: r.string(v, "kind"),
		Transform: scene.Transform{
			Position: r.vec3(v, "position"),
			Rotation: r.quat(v, "rotation"),
			Scale:    r.vec3(v, "scale"),
		},
	}

	switch obj.Kind {
	case KindCamera:
		lens := r.section(v, "lens", "#Lens")
		obj.Lens = scene.Lens{
			Fov:    r.float(lens, "fov"),
			Aspect: r.float(lens, "aspect"),
			Near:   r.float(lens, "near"),
			Far:    r.float(lens, "far"),
		}
	case KindLight:
		light := r.section(v, "light", "#Light")
		c := r.floats(light, "color")
		if len(c) == 3 {
			obj.Light.Color = value.Color{R: c[0], G: c[1], B: c[2]}
		}
		obj.Light.Intensity = r.float(light, "intensity")
	case KindCharacter:
		if bones := v.LookupPath(cue.ParsePath("bones")); bones.Exists() {
			iter, err := concrete(bones).List()
			if err != nil {
				r.fail(v, "bones", err)
				return obj
			}
			for iter.Next() {
				b := iter.Value()
				obj.Bones = append(obj.Bones, scene.Bone{
					Name:     r.string(b, "name"),
					Parent:   r.string(b, "parent"),
					Position: r.vec3(b, "position"),
					Rotation: r.quat(b, "rotation"),
				})
			}
		}
	}

	if params := v.LookupPath(cue.ParsePath("params")); params.Exists() {
		iter, err := concrete(params).List()
		if err != nil {
			r.fail(v, "params", err)
			return obj
		}
		for iter.Next() {
			obj.Params = append(obj.Params, r.param(iter.Value()))
		}
	}
	return obj
}

func (r *reader) param(v cue.Value) ParamSpec {
	p := ParamSpec{
		Name:       r.string(v, "name"),
		Distribute: r.bool(v, "distribute"),
	}
	kind, err := value.ParseKind(r.string(v, "type"))
	if err != nil {
		r.fail(v, "type", err)
		return p
	}
	raw, err := loose(r.lookup(v, "value"))
	if err != nil {
		r.fail(v, "value", err)
		return p
	}
	p.Value, err = value.Parse(kind, raw)
	if err != nil {
		r.fail(v, "value", err)
	}
	return p
}

// concrete resolves v to its default when it has one.
func concrete(v cue.Value) cue.Value {
	if d, ok := v.Default(); ok {
		return d
	}
	return v
}

func floatList(v cue.Value) ([]float32, error) {
	iter, err := v.List()
	if err != nil {
		return nil, err
	}
	var out []float32
	for iter.Next() {
		f, err := concrete(iter.Value()).Float64()
		if err != nil {
			return nil, err
		}
		out = append(out, float32(f))
	}
	return out, nil
}

// loose converts a concrete value into the plain Go data value.Parse accepts.
func loose(v cue.Value) (any, error) {
	switch v.IncompleteKind() {
	case cue.BoolKind:
		return v.Bool()
	case cue.StringKind:
		return v.String()
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		return v.Float64()
	case cue.ListKind:
		fs, err := floatList(v)
		if err != nil {
			return nil, err
		}
		return fs, nil
	default:
		return nil, fmt.Errorf("unsupported value %v", v)
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error, field string) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Field: field, Message: err.Error()}
	}

	first := errs[0]
	le := &LoadError{Field: field, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
