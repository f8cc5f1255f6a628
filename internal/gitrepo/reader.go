package gitrepo

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sirupsen/logrus"

	apperrors "github.com/gitcontribs/gitcontribs/internal/errors"
	"github.com/gitcontribs/gitcontribs/internal/models"
)

// CommitCache holds previously extracted commit lists keyed by repository
// path. Entries carry the checksum of the repository's ref tips at extraction
// time; Get must report a miss when the given checksum no longer matches.
type CommitCache interface {
	Get(repoPath, refsChecksum string) ([]models.Commit, bool)
	Put(repoPath, refsChecksum string, commits []models.Commit) error
}

// Reader extracts commit history by opening a repository's object store
// directly. No git subprocess is ever spawned.
type Reader struct {
	log   *logrus.Logger
	cache CommitCache // nil disables caching
}

// NewReader creates a commit reader. cache may be nil.
func NewReader(log *logrus.Logger, cache CommitCache) *Reader {
	if log == nil {
		log = logrus.New()
	}
	return &Reader{log: log, cache: cache}
}

// ReadCommits returns the commits of repo reachable from any ref, retained
// when the author timestamp is not older than since and, if emailFilter is
// non-empty, the author email matches it exactly (case-sensitive).
//
// Extraction is all-or-nothing: any failure to open or walk the store
// returns a RepositoryAccessError and no commits. A repository with no refs
// yet yields zero commits, not an error. Context cancellation is returned
// as-is so callers can tell it apart from a damaged repository.
func (r *Reader) ReadCommits(ctx context.Context, repo models.Repository, since time.Time, emailFilter string) ([]models.Commit, error) {
	all, err := r.loadAll(ctx, repo)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.Commit, 0, len(all))
	for _, c := range all {
		if c.Timestamp.Before(since) {
			continue
		}
		if emailFilter != "" && c.AuthorEmail != emailFilter {
			continue
		}
		filtered = append(filtered, c)
	}

	r.log.WithFields(logrus.Fields{
		"repository": repo.Name,
		"total":      len(all),
		"retained":   len(filtered),
	}).Debug("commits read")

	return filtered, nil
}

// loadAll extracts every commit reachable from any ref, consulting the
// cache first when one is configured.
func (r *Reader) loadAll(ctx context.Context, repo models.Repository) ([]models.Commit, error) {
	gitRepo, err := git.PlainOpen(repo.Path)
	if err != nil {
		return nil, apperrors.RepositoryAccessf(err, "cannot open repository at %s", repo.Path)
	}

	checksum, refCount, err := refTipsChecksum(gitRepo)
	if err != nil {
		return nil, apperrors.RepositoryAccessf(err, "cannot enumerate refs of %s", repo.Path)
	}

	// A freshly initialized repository has no commits to walk.
	if refCount == 0 {
		return nil, nil
	}

	if r.cache != nil {
		if commits, ok := r.cache.Get(repo.Path, checksum); ok {
			r.log.WithFields(logrus.Fields{"repository": repo.Name, "commits": len(commits)}).Debug("commit cache hit")
			for i := range commits {
				commits[i].Repository = repo.Name
			}
			return commits, nil
		}
	}

	iter, err := gitRepo.Log(&git.LogOptions{All: true})
	if err != nil {
		return nil, apperrors.RepositoryAccessf(err, "cannot walk history of %s", repo.Path)
	}
	defer iter.Close()

	var all []models.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		all = append(all, models.Commit{
			Hash:        c.Hash.String(),
			AuthorName:  c.Author.Name,
			AuthorEmail: c.Author.Email,
			Timestamp:   c.Author.When,
			Message:     firstLine(c.Message),
			Repository:  repo.Name,
		})
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.RepositoryAccessf(err, "history walk failed for %s", repo.Path)
	}

	if r.cache != nil {
		if err := r.cache.Put(repo.Path, checksum, all); err != nil {
			r.log.WithFields(logrus.Fields{"repository": repo.Name, "error": err}).Warn("commit cache write failed")
		}
	}

	return all, nil
}

// refTipsChecksum hashes the sorted set of hash refs so cache entries can be
// invalidated whenever any ref moves, appears, or disappears.
func refTipsChecksum(repo *git.Repository) (string, int, error) {
	refs, err := repo.References()
	if err != nil {
		return "", 0, err
	}

	var tips []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		tips = append(tips, ref.Name().String()+" "+ref.Hash().String())
		return nil
	})
	if err != nil {
		return "", 0, err
	}

	sort.Strings(tips)
	sum := sha256.Sum256([]byte(strings.Join(tips, "\n")))
	return fmt.Sprintf("%x", sum), len(tips), nil
}

// firstLine trims a commit message down to its subject line.
func firstLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		message = message[:i]
	}
	return strings.TrimSpace(message)
}
