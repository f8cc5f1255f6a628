package output

import (
	"fmt"
	"io"

	"github.com/gitcontribs/gitcontribs/internal/models"
)

// TextFormatter writes the human-readable summary (default)
type TextFormatter struct{}

func (f *TextFormatter) Format(report *models.ContributionReport, w io.Writer) error {
	fmt.Fprintf(w, "Analyzing contributions for: %s\n", identityLabel(report))

	if report.TotalRepositories == 0 {
		fmt.Fprintf(w, "No git repositories found\n")
	} else {
		fmt.Fprintf(w, "Found %d git repositories:\n", report.TotalRepositories)
		for _, repo := range report.Repositories {
			fmt.Fprintf(w, "  - %s (%s)\n", repo.Name, repo.Path)
			fmt.Fprintf(w, "    %d commits in the last %d days\n", len(repo.Commits), report.WindowDays)
		}
	}
	if report.SkippedRepositories > 0 {
		fmt.Fprintf(w, "  (%d skipped as unreadable)\n", report.SkippedRepositories)
	}

	fmt.Fprintf(w, "\nTotal commits in the last %d days: %d\n", report.WindowDays, report.Stats.TotalCommits)

	if report.Stats.FirstCommit != nil {
		fmt.Fprintf(w, "First commit: %s\n", commitLine(report.Stats.FirstCommit))
	}
	if report.Stats.LastCommit != nil {
		fmt.Fprintf(w, "Last commit:  %s\n", commitLine(report.Stats.LastCommit))
	}

	return nil
}

// identityLabel renders "Name <email>", or flags the run as unfiltered when
// no author email was available.
func identityLabel(report *models.ContributionReport) string {
	if report.UserEmail == "" || report.UserEmail == models.Unknown {
		return fmt.Sprintf("%s (all authors)", report.UserName)
	}
	return fmt.Sprintf("%s <%s>", report.UserName, report.UserEmail)
}

func commitLine(c *models.Commit) string {
	return fmt.Sprintf("%s %s %s (%s)",
		c.Timestamp.Format("2006-01-02 15:04"),
		shortHash(c.Hash),
		c.Message,
		c.Repository,
	)
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
