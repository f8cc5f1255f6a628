package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/transport/client"
	"github.com/go-git/go-git/v5/plumbing/transport/server"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gitcontribs/gitcontribs/internal/errors"
	"github.com/gitcontribs/gitcontribs/internal/gitrepo"
	"github.com/gitcontribs/gitcontribs/internal/models"
)

// Serve local-path clones in-process so no git binary is required.
func init() {
	client.InstallProtocol("file", server.NewClient(server.NewFilesystemLoader(osfs.New(""))))
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func newTestPipeline(resolve IdentityResolver) *Pipeline {
	log := testLogger()
	return New(gitrepo.NewLocator(log), gitrepo.NewReader(log, nil), resolve, log)
}

func unknownIdentity() models.User {
	return models.User{Name: models.Unknown, Email: models.Unknown}
}

func fixedIdentity(name, email string) IdentityResolver {
	return func() models.User {
		return models.User{Name: name, Email: email}
	}
}

// buildTwoRepoRoot seeds repository "a" with three commits (two inside a
// 7-day window) and repository "b" with one commit far outside it.
func buildTwoRepoRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	now := time.Now()

	require.NoError(t, gitrepo.InitRepo(filepath.Join(root, "a"),
		gitrepo.SeedCommit{File: "one.txt", Content: "1", Message: "recent", AuthorName: "Alice", AuthorEmail: "alice@example.com", When: now.Add(-1 * time.Hour)},
		gitrepo.SeedCommit{File: "two.txt", Content: "2", Message: "this week", AuthorName: "Alice", AuthorEmail: "alice@example.com", When: now.Add(-3 * 24 * time.Hour)},
		gitrepo.SeedCommit{File: "old.txt", Content: "3", Message: "long ago", AuthorName: "Alice", AuthorEmail: "alice@example.com", When: now.Add(-10 * 24 * time.Hour)},
	))
	require.NoError(t, gitrepo.InitRepo(filepath.Join(root, "b"),
		gitrepo.SeedCommit{File: "stale.txt", Content: "4", Message: "ancient", AuthorName: "Alice", AuthorEmail: "alice@example.com", When: now.Add(-20 * 24 * time.Hour)},
	))
	return root
}

func TestRunTwoRepositoryScenario(t *testing.T) {
	root := buildTwoRepoRoot(t)
	p := newTestPipeline(unknownIdentity)

	report, err := p.Run(context.Background(), Request{RootDir: root, Days: 7})
	require.NoError(t, err)
	assert.Equal(t, StateDone, p.State())

	assert.Equal(t, 2, report.TotalRepositories)
	assert.Equal(t, 0, report.SkippedRepositories)
	assert.Equal(t, 2, report.Stats.TotalCommits)

	sum := 0
	for _, n := range report.Stats.CommitsByDate {
		sum += n
	}
	assert.Equal(t, 2, sum)
	assert.GreaterOrEqual(t, len(report.Stats.CommitsByDate), 1)
	assert.LessOrEqual(t, len(report.Stats.CommitsByDate), 2)

	counts := map[string]int{}
	for _, repo := range report.Repositories {
		counts[repo.Name] = len(repo.Commits)
	}
	assert.Equal(t, map[string]int{"a": 2, "b": 0}, counts)
}

func TestRunValidation(t *testing.T) {
	p := newTestPipeline(unknownIdentity)

	cases := []struct {
		name string
		req  Request
	}{
		{"neither root nor url", Request{Days: 7}},
		{"both root and url", Request{RootDir: "/x", RemoteURL: "https://example.com/r.git", Days: 7}},
		{"zero days", Request{RootDir: "/x", Days: 0}},
		{"negative days", Request{RootDir: "/x", Days: -3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Run(context.Background(), tc.req)
			require.Error(t, err)
			assert.True(t, apperrors.IsInvalidInput(err))
			assert.Equal(t, StateFailed, p.State())
		})
	}
}

func TestRunMissingRoot(t *testing.T) {
	p := newTestPipeline(unknownIdentity)

	_, err := p.Run(context.Background(), Request{
		RootDir: filepath.Join(t.TempDir(), "missing"),
		Days:    7,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, StateFailed, p.State())
}

func TestRunEmptyRoot(t *testing.T) {
	p := newTestPipeline(unknownIdentity)

	report, err := p.Run(context.Background(), Request{RootDir: t.TempDir(), Days: 7})
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalRepositories)
	assert.Equal(t, 0, report.Stats.TotalCommits)
	assert.Empty(t, report.Stats.CommitsByDate)
}

func TestRunExplicitEmailOverridesIdentity(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	require.NoError(t, gitrepo.InitRepo(filepath.Join(root, "shared"),
		gitrepo.SeedCommit{File: "a.txt", Content: "1", Message: "by alice", AuthorName: "Alice", AuthorEmail: "alice@example.com", When: now.Add(-2 * time.Hour)},
		gitrepo.SeedCommit{File: "b.txt", Content: "2", Message: "by bob", AuthorName: "Bob", AuthorEmail: "bob@example.com", When: now.Add(-1 * time.Hour)},
	))

	p := newTestPipeline(fixedIdentity("Alice", "alice@example.com"))
	report, err := p.Run(context.Background(), Request{RootDir: root, Days: 7, Email: "bob@example.com"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Stats.TotalCommits)
	assert.Equal(t, "bob@example.com", report.UserEmail)
	assert.Equal(t, "Alice", report.UserName, "display name stays the resolved one")
}

func TestRunResolvedIdentityFilters(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	require.NoError(t, gitrepo.InitRepo(filepath.Join(root, "shared"),
		gitrepo.SeedCommit{File: "a.txt", Content: "1", Message: "by alice", AuthorName: "Alice", AuthorEmail: "alice@example.com", When: now.Add(-2 * time.Hour)},
		gitrepo.SeedCommit{File: "b.txt", Content: "2", Message: "by bob", AuthorName: "Bob", AuthorEmail: "bob@example.com", When: now.Add(-1 * time.Hour)},
	))

	p := newTestPipeline(fixedIdentity("Alice", "alice@example.com"))
	report, err := p.Run(context.Background(), Request{RootDir: root, Days: 7})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Stats.TotalCommits)
	assert.Equal(t, "alice@example.com", report.UserEmail)
}

func TestRunUnresolvedIdentityCountsAllAuthors(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	require.NoError(t, gitrepo.InitRepo(filepath.Join(root, "shared"),
		gitrepo.SeedCommit{File: "a.txt", Content: "1", Message: "by alice", AuthorName: "Alice", AuthorEmail: "alice@example.com", When: now.Add(-2 * time.Hour)},
		gitrepo.SeedCommit{File: "b.txt", Content: "2", Message: "by bob", AuthorName: "Bob", AuthorEmail: "bob@example.com", When: now.Add(-1 * time.Hour)},
	))

	p := newTestPipeline(unknownIdentity)
	report, err := p.Run(context.Background(), Request{RootDir: root, Days: 7})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Stats.TotalCommits, "an unresolved identity must not filter anything out")
}

func TestRunFilterWithNoMatchesYieldsEmptyAggregate(t *testing.T) {
	root := buildTwoRepoRoot(t)
	p := newTestPipeline(unknownIdentity)

	report, err := p.Run(context.Background(), Request{RootDir: root, Days: 7, Email: "x@y.com"})
	require.NoError(t, err)

	assert.Equal(t, 0, report.Stats.TotalCommits)
	assert.Empty(t, report.Stats.CommitsByDate)
	assert.Nil(t, report.Stats.FirstCommit)
	assert.Nil(t, report.Stats.LastCommit)
	assert.Equal(t, 2, report.TotalRepositories)
}

func TestRunSkipsCorruptRepository(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	require.NoError(t, gitrepo.InitRepo(filepath.Join(root, "good"),
		gitrepo.SeedCommit{File: "a.txt", Content: "1", Message: "fine", AuthorName: "Alice", AuthorEmail: "alice@example.com", When: now.Add(-1 * time.Hour)},
	))
	// An empty .git directory classifies as a repository but cannot be opened.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "broken", ".git"), 0o755))

	p := newTestPipeline(unknownIdentity)
	report, err := p.Run(context.Background(), Request{RootDir: root, Days: 7})
	require.NoError(t, err, "one broken repository must not fail the run")

	assert.Equal(t, 1, report.TotalRepositories)
	assert.Equal(t, 1, report.SkippedRepositories)
	assert.Equal(t, 1, report.Stats.TotalCommits)
	assert.Equal(t, StateDone, p.State())
}

func TestRunRemoteURL(t *testing.T) {
	src := filepath.Join(t.TempDir(), "project")
	require.NoError(t, os.MkdirAll(src, 0o755))
	now := time.Now()
	require.NoError(t, gitrepo.InitRepo(src,
		gitrepo.SeedCommit{File: "a.txt", Content: "1", Message: "one", AuthorName: "Alice", AuthorEmail: "alice@example.com", When: now.Add(-2 * time.Hour)},
		gitrepo.SeedCommit{File: "b.txt", Content: "2", Message: "two", AuthorName: "Alice", AuthorEmail: "alice@example.com", When: now.Add(-1 * time.Hour)},
	))

	p := newTestPipeline(unknownIdentity)
	report, err := p.Run(context.Background(), Request{
		RemoteURL: filepath.Join(src, ".git"),
		Days:      7,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalRepositories)
	assert.Equal(t, 2, report.Stats.TotalCommits)
	require.Len(t, report.Repositories, 1)
	assert.Equal(t, "project", report.Repositories[0].Name)

	// The temporary clone must be gone once the run returns.
	_, statErr := os.Stat(report.Repositories[0].Path)
	assert.True(t, os.IsNotExist(statErr), "clone directory should be cleaned up")
}

func TestRunRemoteFetchFailure(t *testing.T) {
	p := newTestPipeline(unknownIdentity)

	_, err := p.Run(context.Background(), Request{
		RemoteURL: filepath.Join(t.TempDir(), "nope"),
		Days:      7,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsRemoteFetch(err))
	assert.Equal(t, StateFailed, p.State())
}

func TestRunCancelledContext(t *testing.T) {
	root := buildTwoRepoRoot(t)
	p := newTestPipeline(unknownIdentity)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, Request{RootDir: root, Days: 7})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, p.State())
}

func TestRunManyRepositoriesBoundedFanOut(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	for i := 0; i < 12; i++ {
		dir := filepath.Join(root, "repo"+string(rune('a'+i)))
		require.NoError(t, gitrepo.InitRepo(dir, gitrepo.SeedCommit{
			File: "f.txt", Content: "x", Message: "work",
			AuthorName: "Alice", AuthorEmail: "alice@example.com", When: now.Add(-time.Hour),
		}))
	}

	p := newTestPipeline(unknownIdentity)
	report, err := p.Run(context.Background(), Request{RootDir: root, Days: 7, Concurrency: 3})
	require.NoError(t, err)

	assert.Equal(t, 12, report.TotalRepositories)
	assert.Equal(t, 12, report.Stats.TotalCommits)
}

func TestEffectiveConcurrency(t *testing.T) {
	assert.Equal(t, 5, effectiveConcurrency(5))

	auto := effectiveConcurrency(0)
	assert.GreaterOrEqual(t, auto, 1)
	assert.LessOrEqual(t, auto, maxAutoConcurrency)
}
