package ratchet

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"ratchet/internal/history"
	"ratchet/internal/runner"
	"ratchet/internal/status"
)

// withGatekeeper appends a passing gatekeeper so tests exercising other
// rules don't trip the presence check.
func withGatekeeper(results ...runner.Result) []runner.Result {
	return append(results, runner.Result{Name: "pkg." + GatekeeperTestName, Outcome: runner.Passed})
}

func kinds(violations []Violation) []ViolationKind {
	var ks []ViolationKind
	for _, v := range violations {
		ks = append(ks, v.Kind)
	}
	return ks
}

func filterKind(violations []Violation, kind ViolationKind) []Violation {
	var out []Violation
	for _, v := range violations {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}

func TestNewFailingTestBecomesPending(t *testing.T) {
	result := Evaluate(status.Empty(), withGatekeeper(
		runner.Result{Name: "a", Outcome: runner.Failed},
		runner.Result{Name: "b", Outcome: runner.Failed},
	), nil)

	if len(result.Violations) != 0 {
		t.Fatalf("expected no violations, got %+v", result.Violations)
	}
	if result.Updated.Tests["a"].State != status.Pending || result.Updated.Tests["b"].State != status.Pending {
		t.Errorf("expected both tests pending, got %+v", result.Updated.Tests)
	}
}

func TestNewPassingTestIsViolation(t *testing.T) {
	result := Evaluate(status.Empty(), withGatekeeper(
		runner.Result{Name: "sneaky", Outcome: runner.Passed},
	), nil)

	violations := filterKind(result.Violations, KindNewTestPassed)
	if len(violations) != 1 || violations[0].Test != "sneaky" {
		t.Fatalf("expected NewTestPassed for sneaky, got %+v", result.Violations)
	}
	if _, tracked := result.Updated.Tests["sneaky"]; tracked {
		t.Error("violating test must not be added to the ledger")
	}
}

func TestNewIgnoredTestNotTracked(t *testing.T) {
	result := Evaluate(status.Empty(), withGatekeeper(
		runner.Result{Name: "skipped", Outcome: runner.Ignored},
	), nil)

	if len(result.Violations) != 0 {
		t.Fatalf("expected no violations, got %+v", result.Violations)
	}
	if _, tracked := result.Updated.Tests["skipped"]; tracked {
		t.Error("ignored new test must not be tracked")
	}
}

func TestPendingTransitions(t *testing.T) {
	tests := []struct {
		name      string
		outcome   runner.Outcome
		wantState status.State
	}{
		{"pending test passing is promoted", runner.Passed, status.Passing},
		{"pending test still failing stays pending", runner.Failed, status.Pending},
		{"pending test ignored stays pending", runner.Ignored, status.Pending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prior := status.Empty()
			prior.Tests["a"] = status.Entry{State: status.Pending}

			result := Evaluate(prior, withGatekeeper(
				runner.Result{Name: "a", Outcome: tt.outcome},
			), nil)

			if len(result.Violations) != 0 {
				t.Fatalf("expected no violations, got %+v", result.Violations)
			}
			if got := result.Updated.Tests["a"].State; got != tt.wantState {
				t.Errorf("expected state %s, got %s", tt.wantState, got)
			}
		})
	}
}

func TestPromotionKeepsPerTestBaseline(t *testing.T) {
	prior := status.Empty()
	prior.Tests["a"] = status.Entry{State: status.Pending, Baseline: "abc123"}

	result := Evaluate(prior, withGatekeeper(
		runner.Result{Name: "a", Outcome: runner.Passed},
	), nil)

	got := result.Updated.Tests["a"]
	if got.State != status.Passing || got.Baseline != "abc123" {
		t.Errorf("promotion must keep the baseline, got %+v", got)
	}
}

func TestPassingTransitions(t *testing.T) {
	tests := []struct {
		name          string
		outcome       runner.Outcome
		wantRegressed bool
	}{
		{"passing test still passing", runner.Passed, false},
		{"passing test now failing is regression", runner.Failed, true},
		{"passing test ignored this run is tolerated", runner.Ignored, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prior := status.Empty()
			prior.Tests["a"] = status.Entry{State: status.Passing}

			result := Evaluate(prior, withGatekeeper(
				runner.Result{Name: "a", Outcome: tt.outcome},
			), nil)

			regressions := filterKind(result.Violations, KindRegression)
			if tt.wantRegressed && (len(regressions) != 1 || regressions[0].Test != "a") {
				t.Fatalf("expected Regression for a, got %+v", result.Violations)
			}
			if !tt.wantRegressed && len(regressions) != 0 {
				t.Fatalf("unexpected regression: %+v", result.Violations)
			}
			// A regression is a violation, not a state change.
			if got := result.Updated.Tests["a"].State; got != status.Passing {
				t.Errorf("state must stay passing, got %s", got)
			}
		})
	}
}

func TestDisappearedTest(t *testing.T) {
	prior := status.Empty()
	prior.Tests["x"] = status.Entry{State: status.Passing}

	result := Evaluate(prior, nil, nil)

	disappeared := filterKind(result.Violations, KindTestDisappeared)
	if len(disappeared) != 1 || disappeared[0].Test != "x" {
		t.Fatalf("expected exactly one TestDisappeared for x, got %+v", result.Violations)
	}
}

func TestIgnoredIsNotDisappeared(t *testing.T) {
	prior := status.Empty()
	prior.Tests["x"] = status.Entry{State: status.Passing}

	result := Evaluate(prior, withGatekeeper(
		runner.Result{Name: "x", Outcome: runner.Ignored},
	), nil)

	if len(filterKind(result.Violations, KindTestDisappeared)) != 0 {
		t.Errorf("ignored test must not count as disappeared: %+v", result.Violations)
	}
}

func TestGatekeeperAllowedToPassImmediately(t *testing.T) {
	result := Evaluate(status.Empty(), []runner.Result{
		{Name: "pkg." + GatekeeperTestName, Outcome: runner.Passed},
	}, nil)

	if len(result.Violations) != 0 {
		t.Fatalf("expected no violations, got %+v", result.Violations)
	}
	if result.Updated.Tests["pkg."+GatekeeperTestName].State != status.Passing {
		t.Error("gatekeeper must be recorded passing")
	}
}

func TestMissingGatekeeper(t *testing.T) {
	result := Evaluate(status.Empty(), []runner.Result{
		{Name: "a", Outcome: runner.Failed},
	}, nil)

	if len(filterKind(result.Violations, KindMissingGatekeeper)) != 1 {
		t.Fatalf("expected MissingGatekeeper, got %+v", result.Violations)
	}
	// Presence check doesn't block the other steps.
	if result.Updated.Tests["a"].State != status.Pending {
		t.Error("transitions must still apply with a missing gatekeeper")
	}
}

func TestMixedIntroductionOneViolation(t *testing.T) {
	result := Evaluate(status.Empty(), withGatekeeper(
		runner.Result{Name: "honest", Outcome: runner.Failed},
		runner.Result{Name: "sneaky", Outcome: runner.Passed},
	), nil)

	if len(result.Violations) != 1 || result.Violations[0].Kind != KindNewTestPassed {
		t.Fatalf("expected exactly one NewTestPassed, got %+v", result.Violations)
	}
	if result.Updated.Tests["honest"].State != status.Pending {
		t.Error("honest test must still be accepted as pending")
	}
}

func TestProgressPreservedDespiteViolations(t *testing.T) {
	prior := status.Empty()
	prior.Tests["promoted"] = status.Entry{State: status.Pending}
	prior.Tests["regressed"] = status.Entry{State: status.Passing}

	result := Evaluate(prior, withGatekeeper(
		runner.Result{Name: "promoted", Outcome: runner.Passed},
		runner.Result{Name: "regressed", Outcome: runner.Failed},
		runner.Result{Name: "fresh", Outcome: runner.Failed},
	), nil)

	if len(filterKind(result.Violations, KindRegression)) != 1 {
		t.Fatalf("expected a regression, got %+v", result.Violations)
	}
	if result.Updated.Tests["promoted"].State != status.Passing {
		t.Error("promotion must survive an unrelated regression")
	}
	if result.Updated.Tests["fresh"].State != status.Pending {
		t.Error("new pending test must survive an unrelated regression")
	}
}

func TestHistoryFindingsFoldedIn(t *testing.T) {
	snapshots := []history.Snapshot{
		{Commit: "c1", Status: status.File{Tests: map[string]status.Entry{
			"cheat": {State: status.Passing},
		}}},
	}

	result := Evaluate(status.Empty(), withGatekeeper(), snapshots)

	skipped := filterKind(result.Violations, KindSkippedPending)
	if len(skipped) != 1 || skipped[0].Test != "cheat" || skipped[0].Commit != "c1" {
		t.Fatalf("expected SkippedPending{cheat, c1}, got %+v", result.Violations)
	}
}

func TestHistoryGrandfatheringFollowsLedgerBaseline(t *testing.T) {
	snapshots := []history.Snapshot{
		{Commit: "c1", Status: status.File{Tests: map[string]status.Entry{
			"old": {State: status.Passing},
		}}},
	}

	withBaseline := status.Empty()
	withBaseline.Baseline = "c1"
	result := Evaluate(withBaseline, withGatekeeper(), snapshots)
	if len(filterKind(result.Violations, KindSkippedPending)) != 0 {
		t.Errorf("baseline in ledger must grandfather the first snapshot: %+v", result.Violations)
	}

	result = Evaluate(status.Empty(), withGatekeeper(), snapshots)
	if len(filterKind(result.Violations, KindSkippedPending)) != 1 {
		t.Errorf("without a baseline the same history must flag: %+v", result.Violations)
	}
}

func TestEvaluateDoesNotMutatePrior(t *testing.T) {
	prior := status.Empty()
	prior.Tests["a"] = status.Entry{State: status.Pending}

	Evaluate(prior, withGatekeeper(
		runner.Result{Name: "a", Outcome: runner.Passed},
		runner.Result{Name: "b", Outcome: runner.Failed},
	), nil)

	if prior.Tests["a"].State != status.Pending {
		t.Error("evaluation mutated the prior ledger")
	}
	if _, ok := prior.Tests["b"]; ok {
		t.Error("evaluation added tests to the prior ledger")
	}
}

// genResults generates a result list with unique names.
func genResults() gopter.Gen {
	outcomes := []runner.Outcome{runner.Passed, runner.Failed, runner.Ignored}
	return gopter.CombineGens(
		gen.SliceOf(gen.Identifier()),
		gen.SliceOf(gen.IntRange(0, 2)),
	).Map(func(values []interface{}) []runner.Result {
		names := values[0].([]string)
		picks := values[1].([]int)

		seen := map[string]bool{}
		var results []runner.Result
		for i, name := range names {
			if seen[name] {
				continue
			}
			seen[name] = true
			outcome := runner.Failed
			if i < len(picks) {
				outcome = outcomes[picks[i]]
			}
			results = append(results, runner.Result{Name: name, Outcome: outcome})
		}
		return results
	})
}

// The evaluator is a pure fold: identical inputs give identical results.
func TestEvaluateIdempotent_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("identical inputs yield identical results", prop.ForAll(
		func(results []runner.Result) bool {
			prior := status.Empty()
			prior.Tests["tracked"] = status.Entry{State: status.Passing}

			first := Evaluate(prior, results, nil)
			second := Evaluate(prior, results, nil)

			return reflect.DeepEqual(first, second)
		},
		genResults(),
	))

	properties.TestingRun(t)
}

// New failing tests are always accepted as pending, whatever else is in
// the run.
func TestNewFailingAlwaysPending_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("failed new tests become pending without violations", prop.ForAll(
		func(results []runner.Result) bool {
			result := Evaluate(status.Empty(), results, nil)

			for _, r := range results {
				if r.Outcome != runner.Failed {
					continue
				}
				if result.Updated.Tests[r.Name].State != status.Pending {
					return false
				}
				for _, v := range result.Violations {
					if v.Test == r.Name {
						return false
					}
				}
			}
			return true
		},
		genResults(),
	))

	properties.TestingRun(t)
}

func TestKindsHelperOrder(t *testing.T) {
	prior := status.Empty()
	prior.Tests["gone"] = status.Entry{State: status.Passing}

	result := Evaluate(prior, nil, nil)
	got := kinds(result.Violations)
	want := []ViolationKind{KindMissingGatekeeper, KindTestDisappeared}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
