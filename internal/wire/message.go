package wire

import (
	"encoding"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/roach88/scenesync/internal/value"
)

// MessageKind is the third header byte.
type MessageKind uint8

const (
	KindParameterUpdate MessageKind = iota
	KindLock
	KindSync
	KindPing
	KindResendUpdate
	KindUndoRedoAdd
	KindResetObject
	KindDataHub
)

var kindNames = [...]string{
	KindParameterUpdate: "PARAMETERUPDATE",
	KindLock:            "LOCK",
	KindSync:            "SYNC",
	KindPing:            "PING",
	KindResendUpdate:    "RESENDUPDATE",
	KindUndoRedoAdd:     "UNDOREDOADD",
	KindResetObject:     "RESETOBJECT",
	KindDataHub:         "DATAHUB",
}

func (k MessageKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("MessageKind(%d)", uint8(k))
}

const (
	// HeaderSize is the fixed message prefix: client id, time, kind.
	HeaderSize = 3

	// RecordHeaderSize precedes every parameter payload:
	// origin, entity u16, parameter u16, value kind, record length.
	RecordHeaderSize = 7

	// LockRecordSize is origin, entity u16, lock flag.
	LockRecordSize = 4

	// MaxRecordLen is the largest value the u8 length field can carry.
	MaxRecordLen = 255
)

// ErrShortMessage is returned when a buffer cannot hold a header.
var ErrShortMessage = errors.New("wire: short message")

var le = binary.LittleEndian

// Header is the 3-byte prefix of every message.
type Header struct {
	ClientID uint8
	Time     uint8
	Kind     MessageKind
}

var (
	_ encoding.BinaryMarshaler   = (*Header)(nil)
	_ encoding.BinaryUnmarshaler = (*Header)(nil)
)

func (h *Header) MarshalBinary() ([]byte, error) {
	return []byte{h.ClientID, h.Time, byte(h.Kind)}, nil
}

// UnmarshalBinary reads the first HeaderSize bytes of data; trailing bytes
// are the message body and are ignored.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("header of %d bytes: %w", len(data), ErrShortMessage)
	}
	h.ClientID = data[0]
	h.Time = data[1]
	h.Kind = MessageKind(data[2])
	return nil
}

// ParameterRecord carries one parameter value inside a PARAMETERUPDATE.
type ParameterRecord struct {
	Origin     uint8
	EntityID   uint16
	ParamIndex uint16
	Kind       value.Kind
	Payload    []byte
}

// Len is the record length field: header plus payload.
func (r *ParameterRecord) Len() int { return RecordHeaderSize + len(r.Payload) }

var _ encoding.BinaryMarshaler = (*ParameterRecord)(nil)

func (r *ParameterRecord) MarshalBinary() ([]byte, error) {
	return r.appendTo(make([]byte, 0, r.Len()))
}

func (r *ParameterRecord) appendTo(buf []byte) ([]byte, error) {
	if r.Len() > MaxRecordLen {
		return nil, fmt.Errorf("wire: record %d/%d is %d bytes, max %d", r.EntityID, r.ParamIndex, r.Len(), MaxRecordLen)
	}
	buf = append(buf, r.Origin)
	buf = le.AppendUint16(buf, r.EntityID)
	buf = le.AppendUint16(buf, r.ParamIndex)
	buf = append(buf, byte(r.Kind), byte(r.Len()))
	return append(buf, r.Payload...), nil
}

// LockRecord announces that the origin peer took or released an entity.
type LockRecord struct {
	Origin   uint8
	EntityID uint16
	Locked   bool
}

var _ encoding.BinaryMarshaler = (*LockRecord)(nil)

func (r *LockRecord) MarshalBinary() ([]byte, error) {
	buf := le.AppendUint16([]byte{r.Origin}, r.EntityID)
	if r.Locked {
		return append(buf, 1), nil
	}
	return append(buf, 0), nil
}

func header(clientID, time uint8, kind MessageKind) []byte {
	h := Header{ClientID: clientID, Time: time, Kind: kind}
	buf, _ := h.MarshalBinary()
	return buf
}

// NewPing builds a PING message.
func NewPing(clientID, time uint8) []byte {
	return header(clientID, time, KindPing)
}

// NewSync builds a SYNC message carrying the sender's time.
func NewSync(clientID, time uint8) []byte {
	return header(clientID, time, KindSync)
}

// NewLock builds a LOCK message for one entity. The record origin is the sender.
func NewLock(clientID, time uint8, entityID uint16, locked bool) []byte {
	rec := LockRecord{Origin: clientID, EntityID: entityID, Locked: locked}
	body, _ := rec.MarshalBinary()
	return append(header(clientID, time, KindLock), body...)
}

// NewParameterUpdate builds a PARAMETERUPDATE message with the records in order.
func NewParameterUpdate(clientID, time uint8, records ...ParameterRecord) ([]byte, error) {
	buf := header(clientID, time, KindParameterUpdate)
	for i := range records {
		var err error
		if buf, err = records[i].appendTo(buf); err != nil {
			return nil, err
		}
	}
	return buf, nil
}
