package wire

import "github.com/roach88/scenesync/internal/value"

// Reader walks the records of one message in buffer order.
//
// Parsing never fails: a record that is truncated, has a length field below
// the record header, or follows a LOCK record ends the batch.
type Reader struct {
	Header Header

	buf  []byte
	off  int
	done bool
}

// NewReader parses the header of msg. It fails only when msg is shorter than
// HeaderSize.
func NewReader(msg []byte) (*Reader, error) {
	r := &Reader{buf: msg, off: HeaderSize}
	if err := r.Header.UnmarshalBinary(msg); err != nil {
		return nil, err
	}
	return r, nil
}

// Offset returns the position of the next unread byte.
func (r *Reader) Offset() int { return r.off }

// Bytes returns the full message.
func (r *Reader) Bytes() []byte { return r.buf }

// NextParameter returns the next parameter record. The cursor always moves
// by the record's length field, whether or not the caller applies it.
func (r *Reader) NextParameter() (ParameterRecord, bool) {
	if r.done || r.Header.Kind != KindParameterUpdate {
		return ParameterRecord{}, false
	}
	if r.off+RecordHeaderSize > len(r.buf) {
		r.done = true
		return ParameterRecord{}, false
	}

	b := r.buf[r.off:]
	n := int(b[6])
	if n < RecordHeaderSize || r.off+n > len(r.buf) {
		r.done = true
		return ParameterRecord{}, false
	}

	rec := ParameterRecord{
		Origin:     b[0],
		EntityID:   le.Uint16(b[1:3]),
		ParamIndex: le.Uint16(b[3:5]),
		Kind:       value.Kind(b[5]),
		Payload:    b[RecordHeaderSize:n],
	}
	r.off += n
	return rec, true
}

// PayloadOffset is the absolute offset of the payload of a record returned
// by the most recent NextParameter call.
func (r *Reader) PayloadOffset(rec ParameterRecord) int {
	return r.off - len(rec.Payload)
}

// NextLock returns the lock record. A LOCK message carries one record; the
// batch ends after it.
func (r *Reader) NextLock() (LockRecord, bool) {
	if r.done || r.Header.Kind != KindLock {
		return LockRecord{}, false
	}
	r.done = true
	if r.off+LockRecordSize > len(r.buf) {
		return LockRecord{}, false
	}
	b := r.buf[r.off:]
	r.off += LockRecordSize
	return LockRecord{
		Origin:   b[0],
		EntityID: le.Uint16(b[1:3]),
		Locked:   b[3] != 0,
	}, true
}
