// Package report renders evaluation results for humans, CI logs, and
// machine consumers. Pure formatting over the violation list.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"ratchet/internal/ratchet"
	"ratchet/internal/runner"
	"ratchet/internal/status"
)

// ShortCommit truncates a commit id for display.
func ShortCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}

// FormatViolation renders one violation as context, problem, and
// suggestion, so it's actionable without re-running the tool.
func FormatViolation(v ratchet.Violation) string {
	switch v.Kind {
	case ratchet.KindNewTestPassed:
		return fmt.Sprintf(
			"tdd-ratchet: new test `%s` passed on first appearance.\n"+
				"New tests must fail first (pending state) before they can pass.\n"+
				"Write the test so it fails, commit, then implement to make it pass.",
			v.Test)
	case ratchet.KindRegression:
		return fmt.Sprintf(
			"tdd-ratchet: test `%s` was passing but now fails (regression).\n"+
				"A test marked as passing must continue to pass.\n"+
				"Fix the regression or, if the test is obsolete, remove it from both code and %s.",
			v.Test, status.DefaultPath)
	case ratchet.KindTestDisappeared:
		return fmt.Sprintf(
			"tdd-ratchet: tracked test `%s` is missing from the test run.\n"+
				"A test in %s disappeared without being removed from the status file.\n"+
				"If you removed the test intentionally, also remove it from %s in the same commit.",
			v.Test, status.DefaultPath, status.DefaultPath)
	case ratchet.KindSkippedPending:
		return fmt.Sprintf(
			"tdd-ratchet: test `%s` first appears in history as passing at commit %s.\n"+
				"Tests must be committed in a failing (pending) state before they pass.\n"+
				"If this test predates the ratchet, record a per-test baseline for it in %s.",
			v.Test, ShortCommit(v.Commit), status.DefaultPath)
	case ratchet.KindMissingGatekeeper:
		return fmt.Sprintf(
			"tdd-ratchet: no gatekeeper test found in the test run.\n"+
				"The gatekeeper proves the suite was invoked through tdd-ratchet and not bypassed.\n"+
				"Add a test named %s that fails unless the %s environment variable is set.",
			ratchet.GatekeeperTestName, runner.GatekeeperEnvVar)
	}
	return fmt.Sprintf("tdd-ratchet: unknown violation kind '%s'", v.Kind)
}

// FormatCLI renders the full result for terminal output.
func FormatCLI(result ratchet.EvalResult) string {
	if len(result.Violations) == 0 {
		return fmt.Sprintf("✓ tdd-ratchet: all checks passed (%d passing, %d pending)\n",
			result.Updated.Count(status.Passing), result.Updated.Count(status.Pending))
	}

	var sb strings.Builder
	for _, v := range result.Violations {
		sb.WriteString(FormatViolation(v))
		sb.WriteString("\n\n")
	}
	sb.WriteString(fmt.Sprintf("❌ tdd-ratchet: %d violation(s)\n", len(result.Violations)))
	return sb.String()
}

// FormatCI renders the result as GitHub Actions error annotations.
func FormatCI(result ratchet.EvalResult) string {
	if len(result.Violations) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, v := range result.Violations {
		var msg string
		switch v.Kind {
		case ratchet.KindNewTestPassed:
			msg = fmt.Sprintf("new test %s passed without being pending first", v.Test)
		case ratchet.KindRegression:
			msg = fmt.Sprintf("test %s regressed from passing to failing", v.Test)
		case ratchet.KindTestDisappeared:
			msg = fmt.Sprintf("tracked test %s is missing from the test run", v.Test)
		case ratchet.KindSkippedPending:
			msg = fmt.Sprintf("test %s first appears as passing at commit %s", v.Test, ShortCommit(v.Commit))
		case ratchet.KindMissingGatekeeper:
			msg = "no gatekeeper test found in the test run"
		}
		sb.WriteString(fmt.Sprintf("::error file=%s::%s\n", status.DefaultPath, msg))
	}
	sb.WriteString(fmt.Sprintf("\n❌ tdd-ratchet: %d violation(s)\n", len(result.Violations)))
	return sb.String()
}

// jsonReport is the machine-readable result shape.
type jsonReport struct {
	Clean      bool                `json:"clean"`
	Violations []ratchet.Violation `json:"violations"`
	Passing    int                 `json:"passing"`
	Pending    int                 `json:"pending"`
}

// FormatJSON renders the result as JSON.
func FormatJSON(result ratchet.EvalResult) (string, error) {
	r := jsonReport{
		Clean:      len(result.Violations) == 0,
		Violations: result.Violations,
		Passing:    result.Updated.Count(status.Passing),
		Pending:    result.Updated.Count(status.Pending),
	}
	if r.Violations == nil {
		r.Violations = []ratchet.Violation{}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
