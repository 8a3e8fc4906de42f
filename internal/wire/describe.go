package wire

import (
	"fmt"
	"strings"

	"github.com/roach88/scenesync/internal/value"
)

// Describe renders msg one line per record, for logs and CLI output.
// Malformed input is described, never rejected.
func Describe(msg []byte) string {
	r, err := NewReader(msg)
	if err != nil {
		return fmt.Sprintf("malformed % x", msg)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s client=%d time=%d", r.Header.Kind, r.Header.ClientID, r.Header.Time)

	switch r.Header.Kind {
	case KindParameterUpdate:
		for {
			rec, ok := r.NextParameter()
			if !ok {
				break
			}
			fmt.Fprintf(&b, "\n  origin=%d entity=%d param=%d %s %s",
				rec.Origin, rec.EntityID, rec.ParamIndex, rec.Kind, describePayload(rec))
		}
	case KindLock:
		if rec, ok := r.NextLock(); ok {
			fmt.Fprintf(&b, "\n  origin=%d entity=%d locked=%t", rec.Origin, rec.EntityID, rec.Locked)
		}
	}

	if rest := len(msg) - r.Offset(); rest > 0 {
		fmt.Fprintf(&b, "\n  trailing %d bytes", rest)
	}
	return b.String()
}

func describePayload(rec ParameterRecord) string {
	if !rec.Kind.Valid() {
		return fmt.Sprintf("raw[% x]", rec.Payload)
	}
	v, err := value.DecodeN(rec.Kind, rec.Payload, 0, len(rec.Payload))
	if err != nil {
		return fmt.Sprintf("invalid[% x]", rec.Payload)
	}
	return value.Format(v)
}
