package pipeline

import (
	"context"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/gitcontribs/gitcontribs/internal/errors"
	"github.com/gitcontribs/gitcontribs/internal/gitrepo"
	"github.com/gitcontribs/gitcontribs/internal/models"
	"github.com/gitcontribs/gitcontribs/internal/stats"
)

// maxAutoConcurrency caps the repository fan-out when no explicit limit is
// configured, so a root full of repositories cannot exhaust descriptors.
const maxAutoConcurrency = 16

// Request carries the inputs of one analysis run. Exactly one of RootDir
// and RemoteURL must be set.
type Request struct {
	RootDir     string
	RemoteURL   string
	Days        int
	Email       string // explicit author filter; empty falls back to the resolved identity
	Concurrency int    // repository read fan-out; 0 picks an automatic bound
	RemoteToken string // optional auth token for https clones
}

// validate rejects a request before any work starts.
func (r Request) validate() error {
	if r.RootDir == "" && r.RemoteURL == "" {
		return apperrors.InvalidInput("either a root directory or a remote URL is required")
	}
	if r.RootDir != "" && r.RemoteURL != "" {
		return apperrors.InvalidInput("root directory and remote URL are mutually exclusive")
	}
	if r.Days < 1 {
		return apperrors.InvalidInputf("days must be at least 1, got %d", r.Days)
	}
	return nil
}

// IdentityResolver supplies the acting user's identity. The default reads
// the global git configuration.
type IdentityResolver func() models.User

// Pipeline sequences identity resolution, repository discovery, concurrent
// commit reading, and aggregation into one contribution report.
//
// A Pipeline executes one request at a time; Run is not safe for concurrent
// use on the same instance.
type Pipeline struct {
	locator *gitrepo.Locator
	reader  *gitrepo.Reader
	resolve IdentityResolver
	log     *logrus.Logger
	state   State
}

// New creates a pipeline. resolve may be nil, in which case the global git
// configuration is used.
func New(locator *gitrepo.Locator, reader *gitrepo.Reader, resolve IdentityResolver, log *logrus.Logger) *Pipeline {
	if resolve == nil {
		resolve = gitrepo.ResolveUser
	}
	if log == nil {
		log = logrus.New()
	}
	return &Pipeline{
		locator: locator,
		reader:  reader,
		resolve: resolve,
		log:     log,
		state:   StateIdle,
	}
}

// State reports the step the last Run reached.
func (p *Pipeline) State() State {
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.state = s
	p.log.WithField("state", s.String()).Debug("pipeline state change")
}

// Run executes the full analysis and returns the assembled report.
//
// Fatal errors (invalid input, missing root, failed clone) abort the run.
// A single unreadable repository is logged, counted as skipped, and excluded
// from the aggregate without failing the run.
func (p *Pipeline) Run(ctx context.Context, req Request) (*models.ContributionReport, error) {
	if err := req.validate(); err != nil {
		p.setState(StateFailed)
		return nil, err
	}

	start := time.Now()

	p.setState(StateResolvingIdentity)
	user := p.resolve()

	// An explicit request email wins; otherwise the resolved identity
	// filters. When neither yields a usable email, count all authors
	// rather than matching the literal sentinel.
	filter := req.Email
	if filter == "" && user.IsResolved() {
		filter = user.Email
	}

	p.setState(StateLocatingRepositories)
	repos, cleanup, err := p.locateRepositories(ctx, req)
	if err != nil {
		p.setState(StateFailed)
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	since := time.Now().Add(-time.Duration(req.Days) * 24 * time.Hour)

	p.setState(StateReadingCommits)
	read, skipped, err := p.readAll(ctx, repos, since, filter, req.Concurrency)
	if err != nil {
		p.setState(StateFailed)
		return nil, err
	}

	p.setState(StateAggregating)
	var merged []models.Commit
	for i := range read {
		merged = append(merged, read[i].Commits...)
	}
	aggregate := stats.Aggregate(merged)

	reportEmail := filter
	if reportEmail == "" {
		reportEmail = user.Email
	}
	report := &models.ContributionReport{
		UserName:            user.Name,
		UserEmail:           reportEmail,
		WindowDays:          req.Days,
		TotalRepositories:   len(read),
		SkippedRepositories: skipped,
		Stats:               aggregate,
		Repositories:        read,
		GeneratedAt:         time.Now(),
	}

	p.setState(StateDone)
	p.log.WithFields(logrus.Fields{
		"repositories": len(read),
		"skipped":      skipped,
		"commits":      aggregate.TotalCommits,
		"duration":     time.Since(start).String(),
	}).Info("analysis complete")

	return report, nil
}

// locateRepositories resolves the request to a set of repository handles:
// either a single temporary clone of the remote URL, or everything
// discovered under the root directory. The returned cleanup is non-nil only
// for the clone path.
func (p *Pipeline) locateRepositories(ctx context.Context, req Request) ([]models.Repository, func(), error) {
	if req.RemoteURL != "" {
		repo, cleanup, err := p.locator.CloneRemote(ctx, req.RemoteURL, req.RemoteToken)
		if err != nil {
			return nil, nil, err
		}
		return []models.Repository{repo}, cleanup, nil
	}

	repos, err := p.locator.Locate(req.RootDir)
	if err != nil {
		return nil, nil, err
	}
	return repos, nil, nil
}

// readAll fans out one commit read per repository, bounded by the effective
// concurrency. Each goroutine writes only its own slot; merging and skip
// counting happen single-threaded after the join.
func (p *Pipeline) readAll(ctx context.Context, repos []models.Repository, since time.Time, filter string, concurrency int) ([]models.Repository, int, error) {
	results := make([]models.Repository, len(repos))
	failures := make([]error, len(repos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(effectiveConcurrency(concurrency))

	for i := range repos {
		g.Go(func() error {
			commits, err := p.reader.ReadCommits(gctx, repos[i], since, filter)
			if err != nil {
				if apperrors.IsRepositoryAccess(err) {
					p.log.WithFields(logrus.Fields{
						"repository": repos[i].Name,
						"path":       repos[i].Path,
						"error":      err,
					}).Warn("skipping unreadable repository")
					failures[i] = err
					return nil
				}
				return err
			}
			repo := repos[i]
			repo.Commits = commits
			results[i] = repo
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	kept := make([]models.Repository, 0, len(repos))
	skipped := 0
	for i := range results {
		if failures[i] != nil {
			skipped++
			continue
		}
		kept = append(kept, results[i])
	}
	return kept, skipped, nil
}

// effectiveConcurrency resolves the configured fan-out, bounding the
// automatic choice by CPU count and a fixed ceiling.
func effectiveConcurrency(requested int) int {
	if requested > 0 {
		return requested
	}
	n := runtime.NumCPU()
	if n > maxAutoConcurrency {
		n = maxAutoConcurrency
	}
	if n < 1 {
		n = 1
	}
	return n
}
