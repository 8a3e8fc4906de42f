package value

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrShortBuffer is returned when a decode would read past the buffer end.
	ErrShortBuffer = errors.New("value: short buffer")

	// ErrStringTooLong is returned when a string does not fit in a record.
	ErrStringTooLong = errors.New("value: string too long")
)

var le = binary.LittleEndian

// Width returns the encoded width of v. Unlike Kind.Width it is defined for
// strings: the length of the NFC normalised UTF-8 bytes.
func Width(v Value) int {
	if s, ok := v.(String); ok {
		return len(norm.NFC.String(string(s)))
	}
	n, _ := v.Kind().Width()
	return n
}

// Encode serializes v into exactly Width(v) bytes, applying the local to wire
// basis swap for Vec3 and Quat.
//
// Panics on Unsupported: callers never build parameters from it.
func Encode(v Value) ([]byte, error) {
	switch t := v.(type) {
	case Bool:
		if t {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case Int32:
		return le.AppendUint32(nil, uint32(t)), nil
	case Float32:
		return appendFloats(nil, float32(t)), nil
	case Vec2:
		return appendFloats(nil, t.X, t.Y), nil
	case Vec3:
		w := toWireVec3(t)
		return appendFloats(nil, w[0], w[1], w[2]), nil
	case Vec4:
		return appendFloats(nil, t.X, t.Y, t.Z, t.W), nil
	case Quat:
		w := toWireQuat(t)
		return appendFloats(nil, w[0], w[1], w[2], w[3]), nil
	case Color:
		buf := appendFloats(nil, t.R, t.G, t.B)
		return append(buf, 0, 0, 0, 0), nil
	case String:
		s := norm.NFC.String(string(t))
		if len(s) > MaxStringBytes {
			return nil, fmt.Errorf("encode %d bytes: %w", len(s), ErrStringTooLong)
		}
		return []byte(s), nil
	case nil:
		return nil, errors.New("value: encode nil value")
	default:
		panic(fmt.Sprintf("value: encode %s", v.Kind()))
	}
}

// Decode reads a fixed-width value of the given kind at offset, applying the
// wire to local basis swap for Vec3 and Quaternion.
// Use DecodeString for KindString.
//
// Panics on KindUnknown.
func Decode(kind Kind, buf []byte, offset int) (Value, error) {
	width, ok := kind.Width()
	if !ok {
		return nil, fmt.Errorf("value: decode %s needs an explicit length", kind)
	}
	if offset < 0 || offset+width > len(buf) {
		return nil, fmt.Errorf("decode %s at %d of %d: %w", kind, offset, len(buf), ErrShortBuffer)
	}
	b := buf[offset : offset+width]

	switch kind {
	case KindBool:
		return Bool(b[0] != 0), nil
	case KindInt32:
		return Int32(int32(le.Uint32(b))), nil
	case KindFloat32:
		return Float32(readFloat(b, 0)), nil
	case KindVec2:
		return Vec2{X: readFloat(b, 0), Y: readFloat(b, 1)}, nil
	case KindVec3:
		return fromWireVec3([3]float32{readFloat(b, 0), readFloat(b, 1), readFloat(b, 2)}), nil
	case KindVec4:
		return Vec4{X: readFloat(b, 0), Y: readFloat(b, 1), Z: readFloat(b, 2), W: readFloat(b, 3)}, nil
	case KindQuaternion:
		return fromWireQuat([4]float32{readFloat(b, 0), readFloat(b, 1), readFloat(b, 2), readFloat(b, 3)}), nil
	case KindColor:
		return Color{R: readFloat(b, 0), G: readFloat(b, 1), B: readFloat(b, 2)}, nil
	}
	panic(fmt.Sprintf("value: decode %s", kind))
}

// DecodeString reads n bytes of UTF-8 text at offset.
func DecodeString(buf []byte, offset, n int) (Value, error) {
	if n < 0 || n > MaxStringBytes {
		return nil, fmt.Errorf("decode string of %d bytes: %w", n, ErrStringTooLong)
	}
	if offset < 0 || offset+n > len(buf) {
		return nil, fmt.Errorf("decode string at %d of %d: %w", offset, len(buf), ErrShortBuffer)
	}
	return String(norm.NFC.String(string(buf[offset : offset+n]))), nil
}

// DecodeN decodes a value of the given kind occupying n bytes. For fixed
// width kinds n must equal the kind width.
func DecodeN(kind Kind, buf []byte, offset, n int) (Value, error) {
	if kind == KindString {
		return DecodeString(buf, offset, n)
	}
	width, _ := kind.Width()
	if n != width {
		return nil, fmt.Errorf("value: %s payload is %d bytes, want %d", kind, n, width)
	}
	return Decode(kind, buf, offset)
}

func appendFloats(buf []byte, fs ...float32) []byte {
	for _, f := range fs {
		buf = le.AppendUint32(buf, math32.Float32bits(f))
	}
	return buf
}

func readFloat(b []byte, i int) float32 {
	return math32.Float32frombits(le.Uint32(b[i*4:]))
}
