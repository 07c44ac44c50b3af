package status

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// DefaultPath is the well-known ledger location relative to the project root.
const DefaultPath = ".test-status.json"

// ErrNotFound is returned when the ledger file doesn't exist.
var ErrNotFound = errors.New("status file not found")

// fileWire is the serialized ledger. The schema field lets future format
// changes be detected instead of misread.
type fileWire struct {
	Schema   string           `json:"schema"`
	Tests    map[string]Entry `json:"tests"`
	Baseline string           `json:"baseline,omitempty"`
}

// Parse decodes ledger content. The schema is closed: unknown fields
// anywhere are a parse error, so hand edits that would otherwise lose
// data are caught early. A missing baseline is accepted and simply
// disables global grandfathering.
func Parse(content []byte) (File, error) {
	var wire fileWire
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return File{}, fmt.Errorf("invalid status file: %w", err)
	}
	if wire.Schema != "" && wire.Schema != SchemaID {
		return File{}, fmt.Errorf("unrecognized status file schema '%s' (expected %s)", wire.Schema, SchemaID)
	}
	f := File{Tests: wire.Tests, Baseline: wire.Baseline}
	if f.Tests == nil {
		f.Tests = map[string]Entry{}
	}
	return f, nil
}

// Marshal produces the deterministic serialized form: schema annotation
// first, tests keyed alphabetically, trailing newline. Output is stable
// across runs so the file diffs cleanly in version control.
func Marshal(f File) ([]byte, error) {
	wire := fileWire{Schema: SchemaID, Tests: f.Tests, Baseline: f.Baseline}
	if wire.Tests == nil {
		wire.Tests = map[string]Entry{}
	}
	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Load reads and parses the ledger at path.
func Load(path string) (File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, ErrNotFound
		}
		return File{}, fmt.Errorf("cannot read status file %s: %w", path, err)
	}
	f, err := Parse(content)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Save writes the ledger to path.
func Save(f File, path string) error {
	data, err := Marshal(f)
	if err != nil {
		return fmt.Errorf("cannot serialize status file: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write status file %s: %w", path, err)
	}
	return nil
}
