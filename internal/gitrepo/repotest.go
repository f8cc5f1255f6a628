package gitrepo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// SeedCommit describes one commit for a fixture repository.
type SeedCommit struct {
	File        string
	Content     string
	Message     string
	AuthorName  string
	AuthorEmail string
	When        time.Time
}

// InitRepo creates a real working repository at dir and applies the given
// commits in order. It exists for tests; production code never writes to a
// repository. Calling it with no seeds leaves a valid repository with no
// commits.
func InitRepo(dir string, seeds ...SeedCommit) error {
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		return fmt.Errorf("init %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree %s: %w", dir, err)
	}

	for i, seed := range seeds {
		if err := commitSeed(dir, wt, seed); err != nil {
			return fmt.Errorf("seed %d: %w", i, err)
		}
	}
	return nil
}

// commitSeed writes the seed's file, stages it, and commits with the seed's
// author identity and timestamp.
func commitSeed(dir string, wt *git.Worktree, seed SeedCommit) error {
	path := filepath.Join(dir, seed.File)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(seed.Content), 0o644); err != nil {
		return err
	}
	if _, err := wt.Add(seed.File); err != nil {
		return err
	}
	_, err := wt.Commit(seed.Message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  seed.AuthorName,
			Email: seed.AuthorEmail,
			When:  seed.When,
		},
	})
	return err
}
