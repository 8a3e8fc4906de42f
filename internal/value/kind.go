package value

import "fmt"

// Kind identifies the wire type of a parameter value.
// The numeric values are the type codes carried in parameter update records.
type Kind uint8

const (
	KindBool       Kind = 2
	KindInt32      Kind = 3
	KindFloat32    Kind = 4
	KindVec2       Kind = 5
	KindVec3       Kind = 6
	KindVec4       Kind = 7
	KindQuaternion Kind = 8
	KindColor      Kind = 9
	KindString     Kind = 10

	// KindUnknown marks host types with no wire representation.
	// It must never be encoded, decoded or sent.
	KindUnknown Kind = 100
)

// MaxStringBytes is the longest string payload a record can carry:
// the u8 length field counts the 7-byte record header plus the payload.
const MaxStringBytes = 255 - 7

var kindNames = map[Kind]string{
	KindBool:       "bool",
	KindInt32:      "int32",
	KindFloat32:    "float32",
	KindVec2:       "vec2",
	KindVec3:       "vec3",
	KindVec4:       "vec4",
	KindQuaternion: "quaternion",
	KindColor:      "color",
	KindString:     "string",
	KindUnknown:    "unknown",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is a known kind that can cross the wire.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok && k != KindUnknown
}

// Width returns the fixed encoded byte width of k.
// ok is false for KindString, whose width depends on the value.
//
// Panics on KindUnknown or an undefined kind: reaching the codec with such a
// kind is a programming error, parameters of that kind are never constructed.
func (k Kind) Width() (n int, ok bool) {
	switch k {
	case KindBool:
		return 1, true
	case KindInt32, KindFloat32:
		return 4, true
	case KindVec2:
		return 8, true
	case KindVec3:
		return 12, true
	case KindVec4, KindQuaternion, KindColor:
		return 16, true
	case KindString:
		return 0, false
	default:
		panic(fmt.Sprintf("value: no width for %s", k))
	}
}

// ParseKind maps a kind name ("vec3", "quaternion", ...) back to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name && k != KindUnknown {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown value kind %q", name)
}
