package history

import (
	"errors"
	"fmt"
	"sort"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNoRepository is returned when the directory is not inside a git
// repository.
var ErrNoRepository = errors.New("not a git repository")

// ErrNoHead is returned when the repository has no commits yet.
var ErrNoHead = errors.New("repository has no commits")

// GitRepository implements Repository on top of go-git.
type GitRepository struct {
	repo *git.Repository
}

// OpenGit opens the git repository at or above dir.
func OpenGit(dir string) (*GitRepository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNoRepository, dir)
		}
		return nil, fmt.Errorf("cannot open git repository at %s: %w", dir, err)
	}
	return &GitRepository{repo: repo}, nil
}

// Head returns the current head commit id.
func (g *GitRepository) Head() (string, error) {
	ref, err := g.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", ErrNoHead
		}
		return "", fmt.Errorf("cannot resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// commitNode is one commit in the traversal with the edges needed for
// topological ordering.
type commitNode struct {
	hash    plumbing.Hash
	parents []plumbing.Hash
	when    time.Time
}

// RevisionWalk lists every commit reachable from head in topological
// order, oldest first: every parent precedes all of its children, so the
// checker's first-seen attribution is correct on merge histories too.
// go-git offers no topological log order, so the walk collects parent
// edges and sorts itself; among concurrently-ready commits, committer
// time then hash break ties deterministically.
func (g *GitRepository) RevisionWalk() ([]string, error) {
	ref, err := g.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("cannot resolve HEAD: %w", err)
	}

	iter, err := g.repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("cannot walk commit history: %w", err)
	}
	defer iter.Close()

	nodes := map[plumbing.Hash]*commitNode{}
	err = iter.ForEach(func(c *object.Commit) error {
		nodes[c.Hash] = &commitNode{
			hash:    c.Hash,
			parents: c.ParentHashes,
			when:    c.Committer.When,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cannot walk commit history: %w", err)
	}

	return sortTopological(nodes), nil
}

// sortTopological emits commits parents-first (Kahn's algorithm).
// Parents outside the reachable set (shallow clones) don't block their
// children.
func sortTopological(nodes map[plumbing.Hash]*commitNode) []string {
	unemittedParents := map[plumbing.Hash]int{}
	children := map[plumbing.Hash][]plumbing.Hash{}
	for hash, n := range nodes {
		count := 0
		for _, parent := range n.parents {
			if _, reachable := nodes[parent]; reachable {
				count++
				children[parent] = append(children[parent], hash)
			}
		}
		unemittedParents[hash] = count
	}

	var ready []*commitNode
	for hash, count := range unemittedParents {
		if count == 0 {
			ready = append(ready, nodes[hash])
		}
	}

	ids := make([]string, 0, len(nodes))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			if !ready[i].when.Equal(ready[j].when) {
				return ready[i].when.Before(ready[j].when)
			}
			return ready[i].hash.String() < ready[j].hash.String()
		})

		next := ready[0]
		ready = ready[1:]
		ids = append(ids, next.hash.String())

		for _, child := range children[next.hash] {
			unemittedParents[child]--
			if unemittedParents[child] == 0 {
				ready = append(ready, nodes[child])
			}
		}
	}
	return ids
}

// ReadFileAtCommit reads path from the given commit's tree.
func (g *GitRepository) ReadFileAtCommit(commit, path string) ([]byte, bool, error) {
	c, err := g.repo.CommitObject(plumbing.NewHash(commit))
	if err != nil {
		return nil, false, fmt.Errorf("cannot load commit %s: %w", commit, err)
	}

	tree, err := c.Tree()
	if err != nil {
		return nil, false, fmt.Errorf("cannot load tree for commit %s: %w", commit, err)
	}

	file, err := tree.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cannot look up %s at commit %s: %w", path, commit, err)
	}

	content, err := file.Contents()
	if err != nil {
		return nil, false, fmt.Errorf("cannot read %s at commit %s: %w", path, commit, err)
	}
	return []byte(content), true, nil
}
