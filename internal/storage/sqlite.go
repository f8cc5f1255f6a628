package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/gitcontribs/gitcontribs/internal/models"
)

// SQLiteStore implements HistoryStore on a local SQLite database.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewSQLiteStore opens (creating if needed) the history database at path.
func NewSQLiteStore(path string, logger *logrus.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = logrus.New()
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}

	// Enable foreign keys and WAL mode for better concurrency
	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	store := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		user_name TEXT NOT NULL,
		user_email TEXT NOT NULL,
		window_days INTEGER NOT NULL,
		total_repositories INTEGER NOT NULL,
		skipped_repositories INTEGER NOT NULL,
		total_commits INTEGER NOT NULL,
		first_commit_hash TEXT,
		first_commit_at DATETIME,
		last_commit_hash TEXT,
		last_commit_at DATETIME,
		generated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS report_days (
		report_id TEXT NOT NULL,
		date TEXT NOT NULL,
		commit_count INTEGER NOT NULL,
		PRIMARY KEY (report_id, date),
		FOREIGN KEY (report_id) REFERENCES reports(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS report_repositories (
		report_id TEXT NOT NULL,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		commit_count INTEGER NOT NULL,
		FOREIGN KEY (report_id) REFERENCES reports(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_report_days_report ON report_days(report_id);
	CREATE INDEX IF NOT EXISTS idx_report_repos_report ON report_repositories(report_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveReport writes the report and its histogram in one transaction and
// returns the generated report ID.
func (s *SQLiteStore) SaveReport(ctx context.Context, report *models.ContributionReport) (string, error) {
	id := uuid.New().String()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var firstHash, lastHash sql.NullString
	var firstAt, lastAt sql.NullTime
	if c := report.Stats.FirstCommit; c != nil {
		firstHash = sql.NullString{String: c.Hash, Valid: true}
		firstAt = sql.NullTime{Time: c.Timestamp, Valid: true}
	}
	if c := report.Stats.LastCommit; c != nil {
		lastHash = sql.NullString{String: c.Hash, Valid: true}
		lastAt = sql.NullTime{Time: c.Timestamp, Valid: true}
	}

	query := `
		INSERT INTO reports
		(id, user_name, user_email, window_days, total_repositories,
		 skipped_repositories, total_commits, first_commit_hash, first_commit_at,
		 last_commit_hash, last_commit_at, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		id, report.UserName, report.UserEmail, report.WindowDays,
		report.TotalRepositories, report.SkippedRepositories,
		report.Stats.TotalCommits, firstHash, firstAt, lastHash, lastAt,
		report.GeneratedAt)
	if err != nil {
		return "", err
	}

	dayQuery := `INSERT INTO report_days (report_id, date, commit_count) VALUES (?, ?, ?)`
	for date, count := range report.Stats.CommitsByDate {
		if _, err := tx.ExecContext(ctx, dayQuery, id, date, count); err != nil {
			return "", err
		}
	}

	repoQuery := `INSERT INTO report_repositories (report_id, name, path, commit_count) VALUES (?, ?, ?, ?)`
	for _, repo := range report.Repositories {
		if _, err := tx.ExecContext(ctx, repoQuery, id, repo.Name, repo.Path, len(repo.Commits)); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"report_id": id,
		"commits":   report.Stats.TotalCommits,
	}).Debug("report saved")

	return id, nil
}

// ListReports returns saved report summaries, newest first.
func (s *SQLiteStore) ListReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	var summaries []ReportSummary
	query := `
		SELECT id, user_name, user_email, window_days, total_repositories,
		       skipped_repositories, total_commits, generated_at
		FROM reports
		ORDER BY generated_at DESC
		LIMIT ?
	`
	if err := s.db.SelectContext(ctx, &summaries, query, limit); err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetReport loads one saved report with its histogram and repository counts.
func (s *SQLiteStore) GetReport(ctx context.Context, id string) (*ReportDetail, error) {
	var detail ReportDetail
	err := s.db.GetContext(ctx, &detail, `SELECT * FROM reports WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	type dayRow struct {
		Date        string `db:"date"`
		CommitCount int    `db:"commit_count"`
	}
	var days []dayRow
	err = s.db.SelectContext(ctx, &days,
		`SELECT date, commit_count FROM report_days WHERE report_id = ?`, id)
	if err != nil {
		return nil, err
	}
	detail.CommitsByDate = make(map[string]int, len(days))
	for _, d := range days {
		detail.CommitsByDate[d.Date] = d.CommitCount
	}

	err = s.db.SelectContext(ctx, &detail.Repositories,
		`SELECT name, path, commit_count FROM report_repositories
		 WHERE report_id = ? ORDER BY commit_count DESC, name`, id)
	if err != nil {
		return nil, err
	}

	return &detail, nil
}
