package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/scenesync/internal/scene"
	"github.com/roach88/scenesync/internal/scenefile"
	"github.com/roach88/scenesync/internal/value"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", event.Seq, strings.ReplaceAll(event.String(), "\n", "\n      "))
		}
	}
	return buf.String()
}

// AssertionContext carries the final session state the assertions read.
type AssertionContext struct {
	Built *scenefile.Built
	Clock uint8
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertOutboundCount:
			err = assertCount(result, assertion, EventOut, assertion.Kind)
		case AssertClock:
			if actx == nil {
				err = fmt.Errorf("assertion[%d]: clock requires session context", i)
			} else if int(actx.Clock) != assertion.Time {
				err = &AssertionError{
					Type:     AssertClock,
					Expected: fmt.Sprintf("time %d", assertion.Time),
					Actual:   fmt.Sprintf("time %d", actx.Clock),
					Trace:    result.Trace,
				}
			}
		case AssertParameter, AssertLocked, AssertAppliedCount:
			if actx == nil || actx.Built == nil {
				err = fmt.Errorf("assertion[%d]: %s requires session context", i, assertion.Type)
				break
			}
			err = assertEntity(result, assertion, actx.Built)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func assertCount(result *Result, a Assertion, typ, kind string) error {
	got := result.Count(typ, kind)
	if got == a.Count {
		return nil
	}
	what := typ + " messages"
	if kind != "" {
		what = typ + " " + kind + " messages"
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d %s", a.Count, what),
		Actual:   fmt.Sprintf("%d", got),
		Trace:    result.Trace,
	}
}

func assertEntity(result *Result, a Assertion, built *scenefile.Built) error {
	ent, ok := built.Scene.Lookup(a.Object)
	if !ok {
		return fmt.Errorf("%s: unknown object %q", a.Type, a.Object)
	}

	switch a.Type {
	case AssertLocked:
		if ent.Locked() != *a.Locked {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s locked=%t", a.Object, *a.Locked),
				Actual:   fmt.Sprintf("locked=%t", ent.Locked()),
				Trace:    result.Trace,
			}
		}
		return nil

	case AssertAppliedCount:
		obj, _ := built.Object(a.Object)
		if got := len(obj.Applied()); got != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d values applied to %s", a.Count, a.Object),
				Actual:   fmt.Sprintf("%d", got),
				Trace:    result.Trace,
			}
		}
		return nil
	}

	return assertParameter(result, a, ent)
}

func assertParameter(result *Result, a Assertion, ent *scene.Entity) error {
	p, ok := ent.Lookup(a.Param)
	if !ok {
		return fmt.Errorf("%s: object %q has no parameter %q", a.Type, a.Object, a.Param)
	}
	want, err := value.Parse(p.Kind(), a.Value)
	if err != nil {
		return fmt.Errorf("%s: %s/%s: %w", a.Type, a.Object, a.Param, err)
	}
	if !value.Near(p.Value(), want, scene.ChangeEpsilon) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s/%s = %s", a.Object, a.Param, value.Format(want)),
			Actual:   value.Format(p.Value()),
			Trace:    result.Trace,
		}
	}
	return nil
}
