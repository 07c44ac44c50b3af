package history

// Repository is the minimal commit-graph capability the snapshot
// extractor needs. Keeping it an interface means the checker and
// evaluator stay data-in/data-out and tests don't need a real repo.
type Repository interface {
	// RevisionWalk returns the id of every commit reachable from the
	// current head, oldest first.
	RevisionWalk() ([]string, error)

	// ReadFileAtCommit returns the content of path as it existed in the
	// given commit's tree. The second return is false when the path is
	// not present in that tree.
	ReadFileAtCommit(commit, path string) ([]byte, bool, error)
}
