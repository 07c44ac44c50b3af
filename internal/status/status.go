package status

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// SchemaID identifies the on-disk format. Files carrying a different
// identifier fail to load rather than being silently reinterpreted.
const SchemaID = "tdd-ratchet/v1"

// State is the tracked state of a single test.
type State string

const (
	// Pending means the test is known to exist but has not yet been
	// verified passing.
	Pending State = "pending"
	// Passing means the last verified outcome was success.
	Passing State = "passing"
)

// ParseState converts a serialized state value into a State.
func ParseState(s string) (State, error) {
	switch State(s) {
	case Pending, Passing:
		return State(s), nil
	}
	return "", fmt.Errorf("unknown test state '%s'", s)
}

// Entry is the tracked record for one test. Baseline, when set, names a
// commit at or after which this test's first appearance in history is
// exempt from the fail-first rule.
type Entry struct {
	State    State
	Baseline string // commit id; empty when no per-test baseline is set
}

// entryWire is the structured serialized form, used when a baseline is set.
type entryWire struct {
	State    State  `json:"state"`
	Baseline string `json:"baseline"`
}

// MarshalJSON writes the compact form (a bare state string) when no
// baseline is set, and the structured form otherwise.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Baseline == "" {
		return json.Marshal(string(e.State))
	}
	return json.Marshal(entryWire{State: e.State, Baseline: e.Baseline})
}

// UnmarshalJSON accepts both serialized forms and normalizes them into
// the one in-memory representation. Unknown fields in the structured
// form are a hard error.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		state, err := ParseState(s)
		if err != nil {
			return err
		}
		*e = Entry{State: state}
		return nil
	}

	var wire entryWire
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return err
	}
	state, err := ParseState(string(wire.State))
	if err != nil {
		return err
	}
	if wire.Baseline == "" {
		return fmt.Errorf("test entry object form requires a baseline")
	}
	*e = Entry{State: state, Baseline: wire.Baseline}
	return nil
}

// File is the status ledger: every tracked test's last known state plus
// the optional global baseline commit recorded at initialization.
type File struct {
	Tests    map[string]Entry
	Baseline string // commit id; empty when the ledger predates any repo
}

// Empty returns a ledger with no tracked tests.
func Empty() File {
	return File{Tests: map[string]Entry{}}
}

// Clone returns a deep copy. The evaluator mutates a clone, never the
// loaded ledger.
func (f File) Clone() File {
	tests := make(map[string]Entry, len(f.Tests))
	for name, entry := range f.Tests {
		tests[name] = entry
	}
	return File{Tests: tests, Baseline: f.Baseline}
}

// Names returns all tracked test names in alphabetical order.
func (f File) Names() []string {
	names := make([]string, 0, len(f.Tests))
	for name := range f.Tests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns how many tracked tests are in the given state.
func (f File) Count(state State) int {
	n := 0
	for _, entry := range f.Tests {
		if entry.State == state {
			n++
		}
	}
	return n
}
