package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindWidth(t *testing.T) {
	tests := []struct {
		kind  Kind
		width int
	}{
		{KindBool, 1},
		{KindInt32, 4},
		{KindFloat32, 4},
		{KindVec2, 8},
		{KindVec3, 12},
		{KindVec4, 16},
		{KindQuaternion, 16},
		{KindColor, 16},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			n, ok := tt.kind.Width()
			require.True(t, ok)
			assert.Equal(t, tt.width, n)
		})
	}

	_, ok := KindString.Width()
	assert.False(t, ok, "string width is variable")
}

func TestKindWidth_UnknownPanics(t *testing.T) {
	assert.Panics(t, func() { KindUnknown.Width() })
	assert.Panics(t, func() { Kind(42).Width() })
}

func TestEncode_ExactWidth(t *testing.T) {
	values := []Value{
		Bool(true),
		Int32(-7),
		Float32(1.5),
		Vec2{1, 2},
		Vec3{1, 2, 3},
		Vec4{1, 2, 3, 4},
		Quat{W: 1},
		Color{R: 0.5, G: 0.25, B: 1},
	}
	for _, v := range values {
		t.Run(v.Kind().String(), func(t *testing.T) {
			buf, err := Encode(v)
			require.NoError(t, err)
			n, _ := v.Kind().Width()
			assert.Len(t, buf, n)
			assert.Equal(t, n, Width(v))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	values := []Value{
		Bool(true),
		Bool(false),
		Int32(-123456),
		Float32(3.25),
		Vec2{X: -1, Y: 0.5},
		Vec3{X: 1, Y: 2, Z: 3},
		Vec4{X: 1, Y: -2, Z: 3, W: -4},
		Quat{W: 0.7071, X: 0.7071, Y: 0, Z: 0},
		Quat{W: 0.5, X: -0.5, Y: 0.25, Z: 0.75},
		Color{R: 0.1, G: 0.2, B: 0.3},
	}
	for _, v := range values {
		t.Run(Format(v), func(t *testing.T) {
			buf, err := Encode(v)
			require.NoError(t, err)

			got, err := Decode(v.Kind(), buf, 0)
			require.NoError(t, err)
			assert.Equal(t, v, got)
		})
	}
}

func TestRoundTrip_String(t *testing.T) {
	v := String("hip.left")
	buf, err := Encode(v)
	require.NoError(t, err)

	got, err := DecodeN(KindString, buf, 0, len(buf))
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestEncode_StringNormalizedNFC(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	buf, err := Encode(String("e\u0301"))
	require.NoError(t, err)
	assert.Equal(t, []byte("\u00e9"), buf)
}

func TestEncode_StringTooLong(t *testing.T) {
	long := make([]byte, MaxStringBytes+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := Encode(String(long))
	assert.ErrorIs(t, err, ErrStringTooLong)
}

func TestVec3_BasisSwap(t *testing.T) {
	buf, err := Encode(Vec3{X: 1, Y: 2, Z: 3})
	require.NoError(t, err)

	// Wire order is (x, z, y).
	wire := appendFloats(nil, 1, 3, 2)
	assert.Equal(t, wire, buf)

	got, err := Decode(KindVec3, wire, 0)
	require.NoError(t, err)
	assert.Equal(t, Vec3{X: 1, Y: 2, Z: 3}, got)
}

func TestVec3_SwapIsItsOwnInverse(t *testing.T) {
	v := Vec3{X: 4, Y: 5, Z: 6}
	assert.Equal(t, v, fromWireVec3(toWireVec3(v)))
	assert.Equal(t, [3]float32{4, 6, 5}, toWireVec3(v))
}

func TestQuat_BasisPermutation(t *testing.T) {
	q := Quat{W: 0.1, X: 0.2, Y: 0.3, Z: 0.4}

	wire := toWireQuat(q)
	assert.Equal(t, [4]float32{0.2, 0.4, 0.3, -0.1}, wire)
	assert.Equal(t, q, fromWireQuat(wire))

	// Decoding a wire quaternion produced by a peer.
	buf := appendFloats(nil, 0.2, 0.4, 0.3, -0.1)
	got, err := Decode(KindQuaternion, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, q, got)
}

func TestColor_AlphaNotTransmitted(t *testing.T) {
	buf, err := Encode(Color{R: 1, G: 0.5, B: 0.25})
	require.NoError(t, err)
	require.Len(t, buf, 16)
	assert.Equal(t, []byte{0, 0, 0, 0}, buf[12:], "pad slot stays zero")

	got, err := Decode(KindColor, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, Color{R: 1, G: 0.5, B: 0.25}, got)
}

func TestDecode_AtOffset(t *testing.T) {
	buf := append([]byte{0xAA, 0xBB, 0xCC}, appendFloats(nil, 2.5)...)
	got, err := Decode(KindFloat32, buf, 3)
	require.NoError(t, err)
	assert.Equal(t, Float32(2.5), got)
}

func TestDecode_ShortBuffer(t *testing.T) {
	_, err := Decode(KindVec3, make([]byte, 11), 0)
	assert.ErrorIs(t, err, ErrShortBuffer)

	_, err = Decode(KindFloat32, make([]byte, 8), 6)
	assert.ErrorIs(t, err, ErrShortBuffer)

	_, err = DecodeString([]byte("abc"), 1, 5)
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestDecodeN_WidthMismatch(t *testing.T) {
	_, err := DecodeN(KindFloat32, make([]byte, 8), 0, 8)
	assert.Error(t, err)
}

func TestUnknownNeverReachesCodec(t *testing.T) {
	assert.Panics(t, func() { _, _ = Encode(Unsupported{HostType: "Matrix"}) })
	assert.Panics(t, func() { _, _ = Decode(KindUnknown, make([]byte, 16), 0) })
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{W: 2}.Normalize()
	assert.Equal(t, IdentityQuat, q)
	assert.Equal(t, IdentityQuat, Quat{}.Normalize())
}
