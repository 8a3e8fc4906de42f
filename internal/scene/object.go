package scene

import "github.com/roach88/scenesync/internal/value"

// RotationMode names how the host stores an object's rotation.
type RotationMode string

const (
	RotationQuaternion RotationMode = "QUATERNION"
	RotationEulerXYZ   RotationMode = "XYZ"
)

// Object is the host application's handle to one scene-graph object.
// Implementations are owned by the host loop and are not safe for concurrent use.
type Object interface {
	Name() string
	// CurrentValue reads the host's live value for p.
	CurrentValue(p *Parameter) value.Value
	// ApplyValue writes v into the host object.
	ApplyValue(p *Parameter, v value.Value)
	// SetSelectable enables or disables direct manipulation in the host.
	SetSelectable(selectable bool)
	RotationMode() RotationMode
	SetRotationMode(mode RotationMode)
}

// Distributor receives unlocked parameter changes that should leave the process.
type Distributor interface {
	ParameterChanged(p *Parameter)
}

// Transform is the baseline state every entity carries.
type Transform struct {
	Position value.Vec3
	Rotation value.Quat
	Scale    value.Vec3
}

// IdentityTransform is the origin with unit scale.
var IdentityTransform = Transform{
	Rotation: value.IdentityQuat,
	Scale:    value.Vec3{X: 1, Y: 1, Z: 1},
}

// Lens describes a camera.
type Lens struct {
	Fov    float32
	Aspect float32
	Near   float32
	Far    float32
}

// Light describes a light source.
type Light struct {
	Color     value.Color
	Intensity float32
}

// Bone is one joint of a character skeleton. Parent is empty for roots.
type Bone struct {
	Name     string
	Parent   string
	Rotation value.Quat
	Position value.Vec3
}
