package value

import (
	"fmt"
)

// Parse builds a Value of the given kind from loosely typed data, as produced
// by YAML or CUE decoding: numbers, booleans, strings and lists of numbers.
// Quaternion lists are in local (w, x, y, z) order.
func Parse(kind Kind, raw any) (Value, error) {
	switch kind {
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("parse %s: got %T", kind, raw)
		}
		return Bool(b), nil
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("parse %s: got %T", kind, raw)
		}
		return String(s), nil
	case KindInt32:
		f, err := toFloat(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", kind, err)
		}
		return Int32(int32(f)), nil
	case KindFloat32:
		f, err := toFloat(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", kind, err)
		}
		return Float32(f), nil
	}

	want := map[Kind]int{KindVec2: 2, KindVec3: 3, KindVec4: 4, KindQuaternion: 4, KindColor: 3}
	n, ok := want[kind]
	if !ok {
		return nil, fmt.Errorf("parse: unsupported kind %s", kind)
	}
	c, err := toFloats(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", kind, err)
	}
	if len(c) != n {
		return nil, fmt.Errorf("parse %s: got %d components, want %d", kind, len(c), n)
	}
	switch kind {
	case KindVec2:
		return Vec2{X: c[0], Y: c[1]}, nil
	case KindVec3:
		return Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
	case KindVec4:
		return Vec4{X: c[0], Y: c[1], Z: c[2], W: c[3]}, nil
	case KindQuaternion:
		return Quat{W: c[0], X: c[1], Y: c[2], Z: c[3]}, nil
	default:
		return Color{R: c[0], G: c[1], B: c[2]}, nil
	}
}

// MustParse is Parse for literals known to be valid. Panics on error.
func MustParse(kind Kind, raw any) Value {
	v, err := Parse(kind, raw)
	if err != nil {
		panic(err)
	}
	return v
}

func toFloat(raw any) (float32, error) {
	switch n := raw.(type) {
	case int:
		return float32(n), nil
	case int32:
		return float32(n), nil
	case int64:
		return float32(n), nil
	case uint8:
		return float32(n), nil
	case float32:
		return n, nil
	case float64:
		return float32(n), nil
	default:
		return 0, fmt.Errorf("not a number: %T", raw)
	}
}

func toFloats(raw any) ([]float32, error) {
	switch list := raw.(type) {
	case []float32:
		return list, nil
	case []float64:
		out := make([]float32, len(list))
		for i, f := range list {
			out[i] = float32(f)
		}
		return out, nil
	case []any:
		out := make([]float32, len(list))
		for i, item := range list {
			f, err := toFloat(item)
			if err != nil {
				return nil, fmt.Errorf("component %d: %w", i, err)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("not a list: %T", raw)
	}
}
