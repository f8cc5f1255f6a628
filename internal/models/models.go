package models

import (
	"time"
)

// Unknown is the sentinel used for identity fields that could not be
// resolved from the local git configuration.
const Unknown = "Unknown"

// Commit represents one recorded change extracted from a repository's history
type Commit struct {
	Hash        string    `json:"hash" yaml:"hash"`
	AuthorName  string    `json:"author_name" yaml:"author_name"`
	AuthorEmail string    `json:"author_email" yaml:"author_email"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	Message     string    `json:"message" yaml:"message"` // first line only
	Repository  string    `json:"repository" yaml:"repository"`
}

// Repository represents a discovered or cloned git repository. Commits is
// empty until the commit reader has populated it and is read-only after.
type Repository struct {
	Name    string   `json:"name" yaml:"name"`
	Path    string   `json:"path" yaml:"path"`
	Commits []Commit `json:"commits" yaml:"commits"`
}

// User is the acting identity resolved from the global git configuration.
// Unset fields hold the Unknown sentinel.
type User struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// IsResolved reports whether the email field carries a real address
// rather than the sentinel.
func (u User) IsResolved() bool {
	return u.Email != "" && u.Email != Unknown
}

// ContributionStats is the aggregate view over one filtered commit set.
// FirstCommit/LastCommit are nil when the set was empty.
type ContributionStats struct {
	TotalCommits  int            `json:"total_commits" yaml:"total_commits"`
	CommitsByDate map[string]int `json:"commits_by_date" yaml:"commits_by_date"`
	FirstCommit   *Commit        `json:"first_commit,omitempty" yaml:"first_commit,omitempty"`
	LastCommit    *Commit        `json:"last_commit,omitempty" yaml:"last_commit,omitempty"`
}

// ContributionReport is the top-level pipeline output: resolved identity,
// the aggregate stats, and the per-repository breakdown for drill-down.
type ContributionReport struct {
	UserName            string            `json:"user_name" yaml:"user_name"`
	UserEmail           string            `json:"user_email" yaml:"user_email"`
	WindowDays          int               `json:"window_days" yaml:"window_days"`
	TotalRepositories   int               `json:"total_repositories" yaml:"total_repositories"`
	SkippedRepositories int               `json:"skipped_repositories,omitempty" yaml:"skipped_repositories,omitempty"`
	Stats               ContributionStats `json:"stats" yaml:"stats"`
	Repositories        []Repository      `json:"repositories" yaml:"repositories"`
	GeneratedAt         time.Time         `json:"generated_at" yaml:"generated_at"`
}
