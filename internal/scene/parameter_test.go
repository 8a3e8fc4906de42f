package scene

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenesync/internal/value"
)

func newTestEntity(t *testing.T) (*Entity, *fakeObject) {
	t.Helper()
	obj := newFake("obj")
	e, err := New(DefaultSceneID).AddObject(obj, IdentityTransform)
	require.NoError(t, err)
	return e, obj
}

func TestParameter_ConstructionRecordsInitial(t *testing.T) {
	e, _ := newTestEntity(t)
	p, err := e.AddParameter("Speed", value.Float32(2), true)
	require.NoError(t, err)

	assert.Equal(t, 3, p.Index())
	assert.Equal(t, value.KindFloat32, p.Kind())
	assert.Equal(t, 4, p.Width())
	assert.Same(t, e, p.Entity())

	p.SetValue(value.Float32(5))
	assert.Equal(t, value.Float32(5), p.Value())
	assert.Equal(t, value.Float32(2), p.Initial())
}

func TestParameter_RejectsUnknown(t *testing.T) {
	e, _ := newTestEntity(t)

	_, err := e.AddParameter("m", value.Unsupported{HostType: "Matrix"}, true)
	assert.ErrorIs(t, err, ErrUnsupportedKind)

	_, err = e.AddParameter("nil", nil, true)
	assert.ErrorIs(t, err, ErrUnsupportedKind)

	assert.Equal(t, 3, e.ParameterCount(), "rejected parameters are not appended")
}

func TestParameter_SetValueAlwaysNotifies(t *testing.T) {
	e, _ := newTestEntity(t)
	p := e.Parameter(IndexPosition)

	var calls int
	p.OnChange(func(*Parameter, value.Value) { calls++ })

	v := p.Value()
	p.SetValue(v)
	p.SetValue(v)
	assert.Equal(t, 2, calls, "unchanged values still notify")
}

func TestParameter_ObserversRunInRegistrationOrder(t *testing.T) {
	e, _ := newTestEntity(t)
	p := e.Parameter(IndexScale)

	var order []string
	p.OnChange(func(*Parameter, value.Value) { order = append(order, "first") })
	h := p.OnChange(func(*Parameter, value.Value) { order = append(order, "second") })
	p.OnChange(func(*Parameter, value.Value) { order = append(order, "third") })

	p.SetValue(value.Vec3{})
	assert.Equal(t, []string{"first", "second", "third"}, order)

	order = nil
	p.RemoveObserver(h)
	p.RemoveObserver(h)
	p.SetValue(value.Vec3{})
	assert.Equal(t, []string{"first", "third"}, order)
}

func TestParameter_ReentrantSetValueIsBounded(t *testing.T) {
	e, _ := newTestEntity(t)
	p := e.Parameter(IndexPosition)

	var calls int
	p.OnChange(func(p *Parameter, v value.Value) {
		calls++
		// Clamp X, writing back into the same parameter.
		if vec := v.(value.Vec3); vec.X > 1 {
			p.SetValue(value.Vec3{X: 1, Y: vec.Y, Z: vec.Z})
		}
	})

	p.SetValue(value.Vec3{X: 5})
	assert.Equal(t, 1, calls)
	assert.Equal(t, value.Vec3{X: 1}, p.Value())
}

func TestParameter_DecodeFromWire(t *testing.T) {
	e, _ := newTestEntity(t)
	p := e.Parameter(IndexPosition)

	var got value.Value
	p.OnChange(func(_ *Parameter, v value.Value) { got = v })

	payload, err := value.Encode(value.Vec3{X: 1, Y: 2, Z: 3})
	require.NoError(t, err)
	buf := append([]byte{9, 9}, payload...)

	require.NoError(t, p.DecodeFromWire(buf, 2, len(payload)))
	assert.Equal(t, value.Vec3{X: 1, Y: 2, Z: 3}, p.Value())
	assert.Equal(t, p.Value(), got)
}

func TestParameter_DecodeFromWireShortBufferLeavesValue(t *testing.T) {
	e, _ := newTestEntity(t)
	p := e.Parameter(IndexPosition)
	before := p.Value()

	err := p.DecodeFromWire(make([]byte, 4), 0, 12)
	assert.ErrorIs(t, err, value.ErrShortBuffer)
	assert.Equal(t, before, p.Value())
}

func TestParameter_SerializeQuaternionRestoresMode(t *testing.T) {
	e, obj := newTestEntity(t)
	p := e.Parameter(IndexRotation)
	p.SetValue(value.Quat{W: 0.5, X: 0.5, Y: 0.5, Z: 0.5})

	buf, err := p.SerializeForWire()
	require.NoError(t, err)
	assert.Len(t, buf, 16)
	assert.Equal(t, RotationEulerXYZ, obj.mode)
	assert.Equal(t, []RotationMode{RotationQuaternion, RotationEulerXYZ}, obj.modes)
}

func TestParameter_SerializeQuaternionRestoresModeOnPanic(t *testing.T) {
	e, obj := newTestEntity(t)
	p := e.Parameter(IndexRotation)
	// Bypass the kind check to force the codec to panic mid-scope.
	p.current = value.Unsupported{HostType: "Euler"}

	assert.Panics(t, func() { _, _ = p.SerializeForWire() })
	assert.Equal(t, RotationEulerXYZ, obj.mode)
}

func TestParameter_SerializeStringTooLong(t *testing.T) {
	e, _ := newTestEntity(t)
	p, err := e.AddParameter("Label", value.String("ok"), true)
	require.NoError(t, err)

	long := make([]byte, value.MaxStringBytes+1)
	for i := range long {
		long[i] = 'x'
	}
	p.SetValue(value.String(long))

	_, err = p.SerializeForWire()
	assert.True(t, errors.Is(err, value.ErrStringTooLong))
}

func TestParameter_SerializeNonQuaternionKeepsMode(t *testing.T) {
	e, obj := newTestEntity(t)
	_, err := e.Parameter(IndexPosition).SerializeForWire()
	require.NoError(t, err)
	assert.Empty(t, obj.modes)
}
