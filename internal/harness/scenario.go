package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted session: a scene, the local client id and the
// steps a server and a user would take against it.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Scene is the CUE scene file. LoadScenario resolves it relative to the
	// scenario file.
	Scene string `yaml:"scene"`

	// ClientID is the local client id. It must not be 0.
	ClientID int `yaml:"client_id"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scripted action. Exactly one field is set.
type Step struct {
	// Inbound publishes a message from the server. It is handled on the
	// next Poll step.
	Inbound *Inbound `yaml:"inbound,omitempty"`

	// Local edits a host value and runs a watcher scan.
	Local *Local `yaml:"local,omitempty"`

	// Select replaces the host selection.
	Select *Selection `yaml:"select,omitempty"`

	// Poll handles every inbound message published so far.
	Poll bool `yaml:"poll,omitempty"`

	// Sync publishes the local time.
	Sync bool `yaml:"sync,omitempty"`

	// Advance moves the local clock forward by this many steps.
	Advance int `yaml:"advance,omitempty"`
}

// Inbound describes one server message. Exactly one of Update, Lock, Unlock,
// Sync and Hex is set.
type Inbound struct {
	From int `yaml:"from"`
	Time int `yaml:"time,omitempty"`

	Update []Record `yaml:"update,omitempty"`
	Lock   string   `yaml:"lock,omitempty"`
	Unlock string   `yaml:"unlock,omitempty"`
	Sync   bool     `yaml:"sync,omitempty"`

	// Hex is sent verbatim, for malformed input.
	Hex string `yaml:"hex,omitempty"`
}

// Record is one parameter record of an inbound update. It is addressed by
// Object and Param, or by Entity and Index for ids outside the scene; Type
// then names the value kind. Type also overrides the kind of a named
// parameter.
type Record struct {
	Object string `yaml:"object,omitempty"`
	Param  string `yaml:"param,omitempty"`
	Entity int    `yaml:"entity,omitempty"`
	Index  int    `yaml:"index,omitempty"`
	Type   string `yaml:"type,omitempty"`
	Value  any    `yaml:"value"`
}

// Local is a user edit in the host.
type Local struct {
	Object string `yaml:"object"`
	Param  string `yaml:"param"`
	Value  any    `yaml:"value"`
}

// Selection lists the selected objects. An empty list deselects.
type Selection struct {
	Objects []string `yaml:"objects"`
}

// Assertion validates the final state or the trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	Object string `yaml:"object,omitempty"`
	Param  string `yaml:"param,omitempty"`

	// Value is the expected parameter value (parameter).
	Value any `yaml:"value,omitempty"`

	// Locked is the expected lock state (locked).
	Locked *bool `yaml:"locked,omitempty"`

	// Kind filters outbound_count by message kind, e.g. LOCK.
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected number of events (outbound_count, applied_count).
	Count int `yaml:"count,omitempty"`

	// Time is the expected clock value (clock).
	Time int `yaml:"time,omitempty"`
}

// Assertion type constants.
const (
	AssertParameter     = "parameter"
	AssertLocked        = "locked"
	AssertOutboundCount = "outbound_count"
	AssertAppliedCount  = "applied_count"
	AssertClock         = "clock"
)

// LoadScenario reads and parses a scenario YAML file and resolves its scene
// path relative to the file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Scene != "" && !filepath.IsAbs(scenario.Scene) {
		scenario.Scene = filepath.Join(filepath.Dir(path), scenario.Scene)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Scene == "" {
		return fmt.Errorf("scene is required")
	}
	if s.ClientID < 1 || s.ClientID > 255 {
		return fmt.Errorf("client_id %d outside 1..255", s.ClientID)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	set := 0
	if step.Inbound != nil {
		set++
	}
	if step.Local != nil {
		set++
	}
	if step.Select != nil {
		set++
	}
	if step.Poll {
		set++
	}
	if step.Sync {
		set++
	}
	if step.Advance != 0 {
		set++
	}
	if set != 1 {
		return fmt.Errorf("exactly one of inbound, local, select, poll, sync, advance is required, got %d", set)
	}

	if in := step.Inbound; in != nil {
		if in.From < 0 || in.From > 255 {
			return fmt.Errorf("inbound.from %d outside 0..255", in.From)
		}
		if in.Time < 0 || in.Time > 255 {
			return fmt.Errorf("inbound.time %d outside 0..255", in.Time)
		}
		bodies := 0
		for _, ok := range []bool{len(in.Update) > 0, in.Lock != "", in.Unlock != "", in.Sync, in.Hex != ""} {
			if ok {
				bodies++
			}
		}
		if bodies != 1 {
			return fmt.Errorf("inbound needs exactly one of update, lock, unlock, sync, hex")
		}
		for j, rec := range in.Update {
			if rec.Object == "" && rec.Type == "" {
				return fmt.Errorf("inbound.update[%d]: type is required when addressing by entity", j)
			}
		}
	}
	if l := step.Local; l != nil && (l.Object == "" || l.Param == "") {
		return fmt.Errorf("local requires object and param")
	}
	if step.Advance < 0 {
		return fmt.Errorf("advance %d is negative", step.Advance)
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertParameter:
		if a.Object == "" || a.Param == "" || a.Value == nil {
			return fmt.Errorf("%s requires object, param and value", a.Type)
		}
	case AssertLocked:
		if a.Object == "" || a.Locked == nil {
			return fmt.Errorf("%s requires object and locked", a.Type)
		}
	case AssertAppliedCount:
		if a.Object == "" {
			return fmt.Errorf("%s requires object", a.Type)
		}
	case AssertOutboundCount, AssertClock:
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
