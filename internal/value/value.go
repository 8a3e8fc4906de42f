package value

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Value is a sealed interface over the closed set of parameter value kinds.
// Host bindings construct the variant explicitly; nothing inspects runtime shapes.
type Value interface {
	Kind() Kind
	value() // Sealed
}

// Bool is a boolean parameter value.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (Bool) value()     {}

// Int32 is a 32-bit signed integer parameter value.
type Int32 int32

func (Int32) Kind() Kind { return KindInt32 }
func (Int32) value()     {}

// Float32 is a single precision scalar parameter value.
type Float32 float32

func (Float32) Kind() Kind { return KindFloat32 }
func (Float32) value()     {}

// Vec2 is a two component vector.
type Vec2 struct{ X, Y float32 }

func (Vec2) Kind() Kind { return KindVec2 }
func (Vec2) value()     {}

// Vec3 is a three component vector in the local (Z-up) basis.
type Vec3 struct{ X, Y, Z float32 }

func (Vec3) Kind() Kind { return KindVec3 }
func (Vec3) value()     {}

// Vec4 is a four component vector.
type Vec4 struct{ X, Y, Z, W float32 }

func (Vec4) Kind() Kind { return KindVec4 }
func (Vec4) value()     {}

// Quat is a rotation quaternion in local (w, x, y, z) order.
type Quat struct{ W, X, Y, Z float32 }

func (Quat) Kind() Kind { return KindQuaternion }
func (Quat) value()     {}

// IdentityQuat is the no-rotation quaternion.
var IdentityQuat = Quat{W: 1}

// Normalize returns q scaled to unit length. The zero quaternion is
// returned as the identity.
func (q Quat) Normalize() Quat {
	n := math32.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if n == 0 {
		return IdentityQuat
	}
	return Quat{W: q.W / n, X: q.X / n, Y: q.Y / n, Z: q.Z / n}
}

// Color is an RGB color. Alpha is not part of the synchronized state.
type Color struct{ R, G, B float32 }

func (Color) Kind() Kind { return KindColor }
func (Color) value()     {}

// String is a UTF-8 text parameter value.
type String string

func (String) Kind() Kind { return KindString }
func (String) value()     {}

// Unsupported stands in for a host value with no wire representation.
// Parameters refuse to be constructed from it.
type Unsupported struct {
	HostType string
}

func (Unsupported) Kind() Kind { return KindUnknown }
func (Unsupported) value()     {}

// Components returns the float components of vector-like values in their
// local order. Scalars yield a single component. Strings and Unsupported
// yield nil.
func Components(v Value) []float32 {
	switch t := v.(type) {
	case Bool:
		if t {
			return []float32{1}
		}
		return []float32{0}
	case Int32:
		return []float32{float32(t)}
	case Float32:
		return []float32{float32(t)}
	case Vec2:
		return []float32{t.X, t.Y}
	case Vec3:
		return []float32{t.X, t.Y, t.Z}
	case Vec4:
		return []float32{t.X, t.Y, t.Z, t.W}
	case Quat:
		return []float32{t.W, t.X, t.Y, t.Z}
	case Color:
		return []float32{t.R, t.G, t.B}
	default:
		return nil
	}
}

// Near reports whether a and b have the same kind and every component differs
// by at most eps. Strings compare exactly.
func Near(a, b Value, eps float32) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	if s, ok := a.(String); ok {
		return s == b.(String)
	}
	ca, cb := Components(a), Components(b)
	if len(ca) != len(cb) {
		return false
	}
	for i := range ca {
		if math32.Abs(ca[i]-cb[i]) > eps {
			return false
		}
	}
	return true
}

// Format renders v compactly for logs and CLI output.
func Format(v Value) string {
	switch t := v.(type) {
	case nil:
		return "<nil>"
	case String:
		return fmt.Sprintf("%q", string(t))
	case Bool:
		return fmt.Sprintf("%t", bool(t))
	case Int32:
		return fmt.Sprintf("%d", int32(t))
	case Unsupported:
		return fmt.Sprintf("unsupported(%s)", t.HostType)
	}
	c := Components(v)
	if len(c) == 1 {
		return fmt.Sprintf("%g", c[0])
	}
	return fmt.Sprintf("%g", c)
}
