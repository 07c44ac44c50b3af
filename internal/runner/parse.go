package runner

import (
	"bufio"
	"encoding/json"
	"strings"
)

// testEvent is the subset of the `go test -json` event we care about.
type testEvent struct {
	Action  string `json:"Action"`
	Package string `json:"Package"`
	Test    string `json:"Test"`
}

// ParseJSONOutput extracts per-test results from a `go test -json` event
// stream. Names are qualified as "<package>.<test>". Package-level events
// (no Test field) and non-terminal actions are skipped. When a name
// reports more than one terminal outcome, the last one wins.
func ParseJSONOutput(output string) []Result {
	index := map[string]int{}
	var results []Result

	sc := bufio.NewScanner(strings.NewReader(output))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "{") {
			continue // interleaved non-JSON output from the harness
		}

		var ev testEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		if ev.Test == "" {
			continue
		}

		var outcome Outcome
		switch ev.Action {
		case "pass":
			outcome = Passed
		case "fail":
			outcome = Failed
		case "skip":
			outcome = Ignored
		default:
			continue
		}

		name := ev.Test
		if ev.Package != "" {
			name = ev.Package + "." + ev.Test
		}

		if i, ok := index[name]; ok {
			results[i].Outcome = outcome
		} else {
			index[name] = len(results)
			results = append(results, Result{Name: name, Outcome: outcome})
		}
	}

	return results
}

// ParseVerboseOutput extracts per-test results from `go test -v` text
// output. Looks for "--- PASS/FAIL/SKIP: <name> (<elapsed>)" lines;
// subtest lines are indented but carry the full name.
func ParseVerboseOutput(output string) []Result {
	index := map[string]int{}
	var results []Result

	sc := bufio.NewScanner(strings.NewReader(output))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimLeft(sc.Text(), " \t")

		var outcome Outcome
		var rest string
		switch {
		case strings.HasPrefix(line, "--- PASS: "):
			outcome = Passed
			rest = strings.TrimPrefix(line, "--- PASS: ")
		case strings.HasPrefix(line, "--- FAIL: "):
			outcome = Failed
			rest = strings.TrimPrefix(line, "--- FAIL: ")
		case strings.HasPrefix(line, "--- SKIP: "):
			outcome = Ignored
			rest = strings.TrimPrefix(line, "--- SKIP: ")
		default:
			continue
		}

		name := rest
		if i := strings.LastIndex(rest, " ("); i != -1 {
			name = rest[:i]
		}
		if name == "" {
			continue
		}

		if i, ok := index[name]; ok {
			results[i].Outcome = outcome
		} else {
			index[name] = len(results)
			results = append(results, Result{Name: name, Outcome: outcome})
		}
	}

	return results
}
