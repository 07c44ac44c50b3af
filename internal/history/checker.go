package history

import (
	"strings"

	"ratchet/internal/status"
)

// SkippedPending records a test whose first-ever tracked appearance was
// passing without an exemption: it never went through the pending state.
type SkippedPending struct {
	Test   string
	Commit string
}

// firstSeen records where and in what state a test was first observed.
type firstSeen struct {
	commit string
	state  status.State
}

// Check scans snapshots oldest-to-newest and flags every test whose
// first recorded state was passing without an exemption. Pure function.
//
// A first appearance is exempt when any of these hold:
//   - it happens in the oldest snapshot and a global baseline is
//     configured (the test predates the ratchet's adoption);
//   - the test's per-test baseline, read from the latest snapshot, names
//     a commit at or before the first appearance in traversal order, or a
//     commit absent from the traversal entirely (everything counts as
//     after it);
//   - the name denotes the gatekeeper test, which only runs because the
//     ratchet enables it.
//
// Only the first appearance is evaluated. A test introduced pending can
// vanish from tracking and reappear without re-triggering the rule.
func Check(snapshots []Snapshot, hasBaseline bool, gatekeeper string) []SkippedPending {
	seen := map[string]firstSeen{}
	var violations []SkippedPending

	firstSnapshotCommit := ""
	if hasBaseline && len(snapshots) > 0 {
		firstSnapshotCommit = snapshots[0].Commit
	}

	// Per-test baselines come from the latest snapshot: it reflects the
	// current ledger, where exemptions are recorded.
	perTestBaselines := map[string]string{}
	if len(snapshots) > 0 {
		latest := snapshots[len(snapshots)-1]
		for name, entry := range latest.Status.Tests {
			if entry.Baseline != "" {
				perTestBaselines[name] = entry.Baseline
			}
		}
	}

	commitIndex := map[string]int{}
	for i, snap := range snapshots {
		commitIndex[snap.Commit] = i
	}

	for snapIdx, snap := range snapshots {
		for _, name := range snap.Status.Names() {
			if _, ok := seen[name]; ok {
				continue
			}
			entry := snap.Status.Tests[name]
			seen[name] = firstSeen{commit: snap.Commit, state: entry.State}

			if entry.State != status.Passing {
				continue
			}
			if snap.Commit == firstSnapshotCommit {
				continue
			}
			if exemptByPerTestBaseline(perTestBaselines, commitIndex, name, snapIdx) {
				continue
			}
			if strings.HasSuffix(name, gatekeeper) {
				continue
			}

			violations = append(violations, SkippedPending{Test: name, Commit: snap.Commit})
		}
	}

	return violations
}

// exemptByPerTestBaseline reports whether the test's recorded baseline
// places its first appearance at or after the grandfather point. A
// baseline commit with no snapshot of its own predates visible history,
// so every appearance counts as after it.
func exemptByPerTestBaseline(baselines map[string]string, commitIndex map[string]int, name string, snapIdx int) bool {
	baseline, ok := baselines[name]
	if !ok {
		return false
	}
	baselineIdx, inHistory := commitIndex[baseline]
	if !inHistory {
		return true
	}
	return snapIdx >= baselineIdx
}
