package gitrepo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gitcontribs/gitcontribs/internal/errors"
	"github.com/gitcontribs/gitcontribs/internal/models"
)

func seedStandardRepo(t *testing.T) models.Repository {
	t.Helper()
	dir := t.TempDir()
	now := time.Now()
	require.NoError(t, InitRepo(dir,
		SeedCommit{File: "a.txt", Content: "1", Message: "recent work", AuthorName: "Alice", AuthorEmail: "alice@example.com", When: now.Add(-1 * time.Hour)},
		SeedCommit{File: "b.txt", Content: "2", Message: "two days ago", AuthorName: "Bob", AuthorEmail: "bob@example.com", When: now.Add(-48 * time.Hour)},
		SeedCommit{File: "c.txt", Content: "3", Message: "ancient", AuthorName: "Alice", AuthorEmail: "alice@example.com", When: now.Add(-10 * 24 * time.Hour)},
	))
	return models.Repository{Name: filepath.Base(dir), Path: dir}
}

func TestReadCommitsFiltersByWindow(t *testing.T) {
	repo := seedStandardRepo(t)
	reader := NewReader(newTestLogger(), nil)

	since := time.Now().Add(-7 * 24 * time.Hour)
	commits, err := reader.ReadCommits(context.Background(), repo, since, "")
	require.NoError(t, err)

	require.Len(t, commits, 2)
	for _, c := range commits {
		assert.False(t, c.Timestamp.Before(since), "commit %s is older than the window", c.Hash)
		assert.Equal(t, repo.Name, c.Repository)
	}
}

func TestReadCommitsFiltersByEmailExactly(t *testing.T) {
	repo := seedStandardRepo(t)
	reader := NewReader(newTestLogger(), nil)
	since := time.Now().Add(-30 * 24 * time.Hour)

	commits, err := reader.ReadCommits(context.Background(), repo, since, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, commits, 2)
	for _, c := range commits {
		assert.Equal(t, "alice@example.com", c.AuthorEmail)
	}

	// Matching is case-sensitive.
	commits, err = reader.ReadCommits(context.Background(), repo, since, "Alice@Example.com")
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestReadCommitsNoMatchYieldsEmpty(t *testing.T) {
	repo := seedStandardRepo(t)
	reader := NewReader(newTestLogger(), nil)

	commits, err := reader.ReadCommits(context.Background(), repo, time.Now().Add(-30*24*time.Hour), "x@y.com")
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestReadCommitsEmptyRepository(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitRepo(dir))

	reader := NewReader(newTestLogger(), nil)
	commits, err := reader.ReadCommits(context.Background(), models.Repository{Name: "empty", Path: dir}, time.Now().Add(-24*time.Hour), "")
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestReadCommitsMissingRepository(t *testing.T) {
	reader := NewReader(newTestLogger(), nil)

	_, err := reader.ReadCommits(context.Background(), models.Repository{Name: "ghost", Path: t.TempDir()}, time.Now(), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsRepositoryAccess(err))
}

func TestReadCommitsKeepsFirstMessageLine(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitRepo(dir, SeedCommit{
		File: "f.txt", Content: "x",
		Message:    "subject line\n\nlong body\nwith details",
		AuthorName: "Alice", AuthorEmail: "alice@example.com", When: time.Now(),
	}))

	reader := NewReader(newTestLogger(), nil)
	commits, err := reader.ReadCommits(context.Background(), models.Repository{Name: "r", Path: dir}, time.Now().Add(-time.Hour), "")
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "subject line", commits[0].Message)
}

func TestReadCommitsSeesAllBranches(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	require.NoError(t, InitRepo(dir, SeedCommit{
		File: "main.txt", Content: "1", Message: "on master",
		AuthorName: "Alice", AuthorEmail: "alice@example.com", When: now.Add(-2 * time.Hour),
	}))

	// Branch off, commit there, then point the checkout back at master so
	// the extra commit is reachable only through refs/heads/feature.
	require.NoError(t, addBranchCommit(dir, "feature", SeedCommit{
		File: "feat.txt", Content: "2", Message: "on feature",
		AuthorName: "Alice", AuthorEmail: "alice@example.com", When: now.Add(-1 * time.Hour),
	}))

	reader := NewReader(newTestLogger(), nil)
	commits, err := reader.ReadCommits(context.Background(), models.Repository{Name: "r", Path: dir}, now.Add(-24*time.Hour), "")
	require.NoError(t, err)

	messages := make(map[string]bool)
	for _, c := range commits {
		messages[c.Message] = true
	}
	assert.True(t, messages["on master"])
	assert.True(t, messages["on feature"])
}

func TestReadCommitsCancelledContext(t *testing.T) {
	repo := seedStandardRepo(t)
	reader := NewReader(newTestLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reader.ReadCommits(ctx, repo, time.Now().Add(-24*time.Hour), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, apperrors.IsRepositoryAccess(err))
}

type memoryCache struct {
	path, checksum string
	commits        []models.Commit
	hits, puts     int
}

func (m *memoryCache) Get(repoPath, refsChecksum string) ([]models.Commit, bool) {
	if m.path != repoPath || m.checksum != refsChecksum || m.commits == nil {
		return nil, false
	}
	m.hits++
	return m.commits, true
}

func (m *memoryCache) Put(repoPath, refsChecksum string, commits []models.Commit) error {
	m.path, m.checksum, m.commits = repoPath, refsChecksum, commits
	m.puts++
	return nil
}

func TestReadCommitsUsesCache(t *testing.T) {
	repo := seedStandardRepo(t)
	cache := &memoryCache{}
	reader := NewReader(newTestLogger(), cache)
	since := time.Now().Add(-30 * 24 * time.Hour)

	first, err := reader.ReadCommits(context.Background(), repo, since, "")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.puts)
	assert.Equal(t, 0, cache.hits)

	second, err := reader.ReadCommits(context.Background(), repo, since, "")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.puts, "a warm read must not rewrite the cache")
	assert.Equal(t, 1, cache.hits)
	assert.ElementsMatch(t, first, second)
}

func TestReadCommitsCacheInvalidatedByNewCommit(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	require.NoError(t, InitRepo(dir, SeedCommit{
		File: "a.txt", Content: "1", Message: "first",
		AuthorName: "Alice", AuthorEmail: "alice@example.com", When: now.Add(-2 * time.Hour),
	}))
	repo := models.Repository{Name: "r", Path: dir}

	cache := &memoryCache{}
	reader := NewReader(newTestLogger(), cache)
	since := now.Add(-24 * time.Hour)

	_, err := reader.ReadCommits(context.Background(), repo, since, "")
	require.NoError(t, err)
	require.Equal(t, 1, cache.puts)

	// A new commit moves the branch tip, so the stale entry must be bypassed.
	require.NoError(t, appendCommit(dir, SeedCommit{
		File: "b.txt", Content: "2", Message: "second",
		AuthorName: "Alice", AuthorEmail: "alice@example.com", When: now.Add(-1 * time.Hour),
	}))

	commits, err := reader.ReadCommits(context.Background(), repo, since, "")
	require.NoError(t, err)
	assert.Len(t, commits, 2)
	assert.Equal(t, 2, cache.puts, "ref drift must trigger a fresh extraction")
}

// addBranchCommit creates branch name at HEAD, commits seed on it, and
// returns the checkout to master.
func addBranchCommit(dir, name string, seed SeedCommit) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name), Create: true}); err != nil {
		return err
	}
	if err := commitSeed(dir, wt, seed); err != nil {
		return err
	}
	return wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName("master")})
}

// appendCommit adds one more commit on the current branch of an existing
// fixture repository.
func appendCommit(dir string, seed SeedCommit) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	return commitSeed(dir, wt, seed)
}
