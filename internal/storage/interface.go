package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gitcontribs/gitcontribs/internal/models"
)

// ErrNotFound is returned when no saved report matches the requested ID.
var ErrNotFound = errors.New("report not found")

// HistoryStore persists contribution reports for later inspection.
type HistoryStore interface {
	// Report operations
	SaveReport(ctx context.Context, report *models.ContributionReport) (string, error)
	ListReports(ctx context.Context, limit int) ([]ReportSummary, error)
	GetReport(ctx context.Context, id string) (*ReportDetail, error)

	// Close connection
	Close() error
}

// ReportSummary is one row of the saved-report listing.
type ReportSummary struct {
	ID                  string    `db:"id"`
	UserName            string    `db:"user_name"`
	UserEmail           string    `db:"user_email"`
	WindowDays          int       `db:"window_days"`
	TotalRepositories   int       `db:"total_repositories"`
	SkippedRepositories int       `db:"skipped_repositories"`
	TotalCommits        int       `db:"total_commits"`
	GeneratedAt         time.Time `db:"generated_at"`
}

// ReportDetail is a fully loaded saved report, including the per-day
// histogram and per-repository counts. Commit bodies are not persisted;
// first/last markers keep only hash and timestamp.
type ReportDetail struct {
	ReportSummary
	FirstCommitHash sql.NullString `db:"first_commit_hash"`
	FirstCommitAt   sql.NullTime   `db:"first_commit_at"`
	LastCommitHash  sql.NullString `db:"last_commit_hash"`
	LastCommitAt    sql.NullTime   `db:"last_commit_at"`

	CommitsByDate map[string]int    `db:"-"`
	Repositories  []RepositoryCount `db:"-"`
}

// RepositoryCount is the per-repository contribution line of a saved report.
type RepositoryCount struct {
	Name        string `db:"name"`
	Path        string `db:"path"`
	CommitCount int    `db:"commit_count"`
}
