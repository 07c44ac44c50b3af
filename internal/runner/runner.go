package runner

// Outcome is the three-way result of one executed test.
type Outcome string

const (
	Passed  Outcome = "passed"
	Failed  Outcome = "failed"
	Ignored Outcome = "ignored"
)

// Result is one test's outcome from a single harness run. Name is the
// fully qualified test name as reported by the harness, stable across runs.
type Result struct {
	Name    string
	Outcome Outcome
}

// Format selects how harness output is parsed.
type Format string

const (
	// FormatJSON parses the `go test -json` event stream.
	FormatJSON Format = "json"
	// FormatVerbose parses `go test -v` text output.
	FormatVerbose Format = "verbose"
)

// Harness describes how to invoke the project's test suite.
type Harness struct {
	Command string
	Args    []string
	Format  Format
}

// Default returns the standard Go harness invocation.
func Default() Harness {
	return Harness{
		Command: "go",
		Args:    []string{"test", "./...", "-json"},
		Format:  FormatJSON,
	}
}

// Parse extracts per-test results from captured harness output using the
// harness's configured format.
func (h Harness) Parse(output string) []Result {
	if h.Format == FormatVerbose {
		return ParseVerboseOutput(output)
	}
	return ParseJSONOutput(output)
}
