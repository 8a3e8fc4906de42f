package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenesync/internal/value"
)

func TestHeader_Binary(t *testing.T) {
	h := Header{ClientID: 9, Time: 42, Kind: KindSync}
	buf, err := h.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 42, 2}, buf)

	var got Header
	require.NoError(t, got.UnmarshalBinary(append(buf, 0xFF)))
	assert.Equal(t, h, got)

	assert.ErrorIs(t, got.UnmarshalBinary([]byte{1, 2}), ErrShortMessage)
}

func TestBuilders_Layout(t *testing.T) {
	assert.Equal(t, []byte{4, 7, 3}, NewPing(4, 7))
	assert.Equal(t, []byte{4, 7, 2}, NewSync(4, 7))
	assert.Equal(t, []byte{4, 7, 1, 4, 0x02, 0x01, 1}, NewLock(4, 7, 0x0102, true))
	assert.Equal(t, []byte{4, 7, 1, 4, 3, 0, 0}, NewLock(4, 7, 3, false))
}

func TestNewParameterUpdate_Layout(t *testing.T) {
	payload, err := value.Encode(value.Float32(1))
	require.NoError(t, err)

	msg, err := NewParameterUpdate(5, 10, ParameterRecord{
		Origin:     5,
		EntityID:   2,
		ParamIndex: 3,
		Kind:       value.KindFloat32,
		Payload:    payload,
	})
	require.NoError(t, err)

	want := []byte{
		5, 10, 0, // header
		5,    // origin
		2, 0, // entity
		3, 0, // param
		4,  // float32
		11, // 7 + 4
		0x00, 0x00, 0x80, 0x3f,
	}
	assert.Equal(t, want, msg)
}

func TestNewParameterUpdate_RecordTooLong(t *testing.T) {
	_, err := NewParameterUpdate(1, 0, ParameterRecord{Kind: value.KindString, Payload: make([]byte, 249)})
	assert.Error(t, err)

	_, err = NewParameterUpdate(1, 0, ParameterRecord{Kind: value.KindString, Payload: make([]byte, 248)})
	assert.NoError(t, err)
}

func TestReader_MultipleRecordsInOrder(t *testing.T) {
	p1, _ := value.Encode(value.Vec3{X: 1, Y: 2, Z: 3})
	p2, _ := value.Encode(value.Bool(true))
	msg, err := NewParameterUpdate(1, 0,
		ParameterRecord{Origin: 1, EntityID: 1, ParamIndex: 0, Kind: value.KindVec3, Payload: p1},
		ParameterRecord{Origin: 1, EntityID: 2, ParamIndex: 5, Kind: value.KindBool, Payload: p2},
	)
	require.NoError(t, err)

	r, err := NewReader(msg)
	require.NoError(t, err)
	assert.Equal(t, KindParameterUpdate, r.Header.Kind)

	a, ok := r.NextParameter()
	require.True(t, ok)
	assert.Equal(t, uint16(1), a.EntityID)
	assert.Equal(t, value.KindVec3, a.Kind)
	assert.Equal(t, p1, a.Payload)
	assert.Equal(t, HeaderSize+RecordHeaderSize, r.PayloadOffset(a))

	b, ok := r.NextParameter()
	require.True(t, ok)
	assert.Equal(t, uint16(2), b.EntityID)
	assert.Equal(t, uint16(5), b.ParamIndex)
	assert.Equal(t, HeaderSize+19+8, r.Offset())

	_, ok = r.NextParameter()
	assert.False(t, ok)
}

func TestReader_MalformedRecordsEndBatch(t *testing.T) {
	good := []byte{1, 1, 0, 4, 0, 4, 11, 0, 0, 0x80, 0x3f}

	tests := []struct {
		name string
		tail []byte
	}{
		{"truncated header", []byte{1, 2}},
		{"zero length", []byte{1, 1, 0, 0, 0, 4, 0, 0, 0, 0, 0}},
		{"length below header", []byte{1, 1, 0, 0, 0, 4, 6, 0, 0, 0, 0}},
		{"length past end", []byte{1, 1, 0, 0, 0, 4, 30, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := append([]byte{1, 0, 0}, good...)
			msg = append(msg, tt.tail...)

			r, err := NewReader(msg)
			require.NoError(t, err)

			_, ok := r.NextParameter()
			require.True(t, ok, "leading record is intact")
			_, ok = r.NextParameter()
			assert.False(t, ok)
			_, ok = r.NextParameter()
			assert.False(t, ok, "batch stays ended")
		})
	}
}

func TestReader_Lock(t *testing.T) {
	msg := append(NewLock(2, 0, 7, true), 0xAA, 0xBB)
	r, err := NewReader(msg)
	require.NoError(t, err)

	_, ok := r.NextParameter()
	assert.False(t, ok, "not a parameter update")

	rec, ok := r.NextLock()
	require.True(t, ok)
	assert.Equal(t, LockRecord{Origin: 2, EntityID: 7, Locked: true}, rec)

	_, ok = r.NextLock()
	assert.False(t, ok, "one record per lock message")
}

func TestReader_ShortLock(t *testing.T) {
	r, err := NewReader([]byte{2, 0, 1, 2, 7})
	require.NoError(t, err)
	_, ok := r.NextLock()
	assert.False(t, ok)
}

func TestNewReader_ShortMessage(t *testing.T) {
	_, err := NewReader([]byte{1})
	assert.ErrorIs(t, err, ErrShortMessage)
}

func TestMessageKind_String(t *testing.T) {
	assert.Equal(t, "PARAMETERUPDATE", KindParameterUpdate.String())
	assert.Equal(t, "DATAHUB", KindDataHub.String())
	assert.Equal(t, "MessageKind(9)", MessageKind(9).String())
}

func TestDescribe(t *testing.T) {
	payload, _ := value.Encode(value.Vec3{X: 1, Y: 2, Z: 3})
	msg, err := NewParameterUpdate(3, 17, ParameterRecord{Origin: 3, EntityID: 1, ParamIndex: 0, Kind: value.KindVec3, Payload: payload})
	require.NoError(t, err)

	assert.Equal(t, "PARAMETERUPDATE client=3 time=17\n  origin=3 entity=1 param=0 vec3 [1 2 3]", Describe(msg))
	assert.Equal(t, "LOCK client=2 time=0\n  origin=2 entity=4 locked=false", Describe(NewLock(2, 0, 4, false)))
	assert.Equal(t, "PING client=1 time=5", Describe(NewPing(1, 5)))
	assert.Equal(t, "malformed 01", Describe([]byte{1}))
	assert.Equal(t, "SYNC client=1 time=5\n  trailing 2 bytes", Describe([]byte{1, 5, 2, 0, 0}))
}
