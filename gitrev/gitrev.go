// Package gitrev reads previous file revisions and changed file lists from
// a git repository.
package gitrev

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// Repo wraps a git repository.
type Repo struct {
	repo *git.Repository
}

// Open opens the repository containing path, searching parent directories.
func Open(path string) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", path, err)
	}
	return &Repo{repo: r}, nil
}

// New wraps an already opened repository.
func New(r *git.Repository) *Repo {
	return &Repo{repo: r}
}

func (r *Repo) commit(rev string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rev, err)
	}
	c, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", rev, err)
	}
	return c, nil
}

// Show returns the content of path at rev. found is false when the file did
// not exist at that revision.
func (r *Repo) Show(rev, path string) (content string, found bool, err error) {
	c, err := r.commit(rev)
	if err != nil {
		return "", false, err
	}
	f, err := c.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s at %s: %w", path, rev, err)
	}
	content, err = f.Contents()
	if err != nil {
		return "", false, fmt.Errorf("read %s at %s: %w", path, rev, err)
	}
	return content, true, nil
}

// ChangedFiles lists the files added or modified between base and head,
// sorted. Deleted files are left out. When base does not resolve (head is
// the first commit), every file of head counts as added.
func (r *Repo) ChangedFiles(base, head string) ([]string, error) {
	headCommit, err := r.commit(head)
	if err != nil {
		return nil, err
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", head, err)
	}

	var baseTree *object.Tree
	if baseCommit, err := r.commit(base); err == nil {
		if baseTree, err = baseCommit.Tree(); err != nil {
			return nil, fmt.Errorf("read tree of %s: %w", base, err)
		}
	}

	changes, err := object.DiffTree(baseTree, headTree)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", base, head, err)
	}

	var files []string
	for _, ch := range changes {
		action, err := ch.Action()
		if err != nil {
			return nil, err
		}
		if action == merkletrie.Delete {
			continue
		}
		files = append(files, ch.To.Name)
	}
	sort.Strings(files)
	return files, nil
}
