package gitrepo

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	apperrors "github.com/gitcontribs/gitcontribs/internal/errors"
	"github.com/gitcontribs/gitcontribs/internal/models"
)

const gitDirName = ".git"

// Locator discovers git repositories beneath a filesystem root.
type Locator struct {
	log *logrus.Logger
}

// NewLocator creates a new repository locator.
func NewLocator(log *logrus.Logger) *Locator {
	if log == nil {
		log = logrus.New()
	}
	return &Locator{log: log}
}

// Locate walks root recursively and returns a handle for every directory
// that directly contains a .git metadata directory. The walk never descends
// into .git itself, but repositories nested anywhere else in the tree
// (including inside another repository's working tree) are still found.
// Symlinked directories are followed; a visited set of canonical paths keeps
// cycles from looping forever. Unreadable subdirectories are skipped.
//
// A missing root is a NotFoundError. A root with no repositories under it
// returns an empty slice, not an error.
func (l *Locator) Locate(root string) ([]models.Repository, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFoundf("root directory does not exist: %s", root)
		}
		return nil, apperrors.NotFoundf("cannot access root directory %s: %v", root, err)
	}
	if !info.IsDir() {
		return nil, apperrors.NotFoundf("root path is not a directory: %s", root)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	repos := make([]models.Repository, 0)
	visited := make(map[string]struct{})
	l.walk(abs, visited, &repos)

	l.log.WithFields(logrus.Fields{
		"root":         abs,
		"repositories": len(repos),
	}).Debug("repository discovery complete")

	return repos, nil
}

// walk recurses into dir, classifying it and descending into its children.
func (l *Locator) walk(dir string, visited map[string]struct{}, repos *[]models.Repository) {
	canonical, err := filepath.EvalSymlinks(dir)
	if err != nil {
		l.log.WithFields(logrus.Fields{"dir": dir, "error": err}).Debug("skipping unresolvable directory")
		return
	}
	if _, seen := visited[canonical]; seen {
		return
	}
	visited[canonical] = struct{}{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		l.log.WithFields(logrus.Fields{"dir": dir, "error": err}).Debug("skipping unreadable directory")
		return
	}

	// A repository root directly contains a .git directory. A .git file
	// (worktree or submodule pointer) does not qualify.
	for _, entry := range entries {
		if entry.Name() == gitDirName && entry.IsDir() {
			*repos = append(*repos, models.Repository{
				Name: filepath.Base(dir),
				Path: dir,
			})
			break
		}
	}

	for _, entry := range entries {
		if entry.Name() == gitDirName {
			continue
		}
		child := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			l.walk(child, visited, repos)
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(child)
			if err == nil && target.IsDir() {
				l.walk(child, visited, repos)
			}
		}
	}
}
