package history

import (
	"errors"
	"fmt"

	"ratchet/internal/status"
)

// Snapshot is the status ledger as it existed in one historical commit.
type Snapshot struct {
	Commit string
	Status status.File
}

// ErrBaselineNotFound is returned when the configured baseline commit
// doesn't appear in the traversal.
var ErrBaselineNotFound = errors.New("baseline commit not found in history")

// Collect walks the commit history oldest-first and reconstructs the
// ledger at every commit where ledgerPath existed. When baseline is set,
// the walk starts at that commit inclusive; commits before it are not
// inspected. Commits without the ledger file are skipped. A ledger that
// is present but unparseable fails the whole walk naming the commit:
// corrupt history must not be silently ignored.
func Collect(repo Repository, ledgerPath, baseline string) ([]Snapshot, error) {
	commits, err := repo.RevisionWalk()
	if err != nil {
		return nil, err
	}

	pastBaseline := baseline == ""
	var snapshots []Snapshot
	for _, commit := range commits {
		if !pastBaseline {
			if commit != baseline {
				continue
			}
			pastBaseline = true
		}

		content, present, err := repo.ReadFileAtCommit(commit, ledgerPath)
		if err != nil {
			return nil, err
		}
		if !present {
			continue
		}

		sf, err := status.Parse(content)
		if err != nil {
			return nil, fmt.Errorf("corrupt status snapshot at commit %s: %w", commit, err)
		}
		snapshots = append(snapshots, Snapshot{Commit: commit, Status: sf})
	}

	if !pastBaseline {
		return nil, fmt.Errorf("%w: %s", ErrBaselineNotFound, baseline)
	}
	return snapshots, nil
}
