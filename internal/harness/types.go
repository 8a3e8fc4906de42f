package harness

import (
	"fmt"

	"github.com/roach88/scenesync/internal/wire"
)

// Trace event types.
const (
	EventIn    = "in"
	EventOut   = "out"
	EventApply = "apply"
)

// TraceEvent is one observable effect of a scenario: a message the engine
// handled or published, or a value written into a host object.
type TraceEvent struct {
	Seq  int    `json:"seq"`
	Type string `json:"type"` // "in", "out" or "apply"

	// Set for "in" and "out".
	Kind    string `json:"kind,omitempty"`
	Message []byte `json:"message,omitempty"`

	// Set for "apply".
	Object string `json:"object,omitempty"`
	Param  string `json:"param,omitempty"`
	Value  string `json:"value,omitempty"`
}

// String renders the event on one line, followed by one indented line per
// message record.
func (e TraceEvent) String() string {
	if e.Type == EventApply {
		return fmt.Sprintf("apply %s/%s %s", e.Object, e.Param, e.Value)
	}
	return e.Type + " " + wire.Describe(e.Message)
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace holds every event in the order it happened.
	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed assertion.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) add(ev TraceEvent) {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
}

// Count returns how many events have type typ and, when kind is not empty,
// message kind kind.
func (r *Result) Count(typ, kind string) int {
	n := 0
	for _, ev := range r.Trace {
		if ev.Type != typ {
			continue
		}
		if kind != "" && ev.Kind != kind {
			continue
		}
		n++
	}
	return n
}
