package gitrepo

import (
	"context"
	"os"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/sirupsen/logrus"

	apperrors "github.com/gitcontribs/gitcontribs/internal/errors"
	"github.com/gitcontribs/gitcontribs/internal/models"
)

// CloneRemote materializes the repository at url into a fresh temporary
// directory and returns a handle pointing at it, plus a cleanup function
// that removes the directory. The caller owns the clone for the duration of
// the pipeline and must defer cleanup; on error the directory is already
// gone and cleanup is nil.
//
// token, when non-empty, is sent as HTTP basic auth for https remotes
// (the GitHub personal-access-token convention). It is ignored for other
// transports.
func (l *Locator) CloneRemote(ctx context.Context, url, token string) (models.Repository, func(), error) {
	tmp, err := os.MkdirTemp("", "gitcontribs-clone-*")
	if err != nil {
		return models.Repository{}, nil, apperrors.RemoteFetchf(err, "cannot create temporary clone directory")
	}
	cleanup := func() {
		if err := os.RemoveAll(tmp); err != nil {
			l.log.WithFields(logrus.Fields{"dir": tmp, "error": err}).Warn("failed to remove clone directory")
		}
	}

	opts := &git.CloneOptions{URL: url}
	if token != "" && strings.HasPrefix(url, "http") {
		// Username is arbitrary for token auth; "git" is the convention.
		opts.Auth = &http.BasicAuth{Username: "git", Password: token}
	}

	l.log.WithFields(logrus.Fields{"url": url}).Info("cloning remote repository")

	if _, err := git.PlainCloneContext(ctx, tmp, false, opts); err != nil {
		cleanup()
		return models.Repository{}, nil, apperrors.RemoteFetchf(err, "clone of %s failed", url)
	}

	return models.Repository{Name: RemoteName(url), Path: tmp}, cleanup, nil
}

// RemoteName derives a repository name from a clone URL: the final path
// segment with any .git suffix removed. Falls back to "remote" when the URL
// yields nothing usable.
func RemoteName(url string) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	trimmed = strings.TrimRight(trimmed, "/")

	idx := strings.LastIndexAny(trimmed, "/:")
	name := trimmed
	if idx >= 0 {
		name = trimmed[idx+1:]
	}
	if name == "" {
		return "remote"
	}
	return name
}
