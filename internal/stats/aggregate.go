package stats

import (
	"time"

	"github.com/gitcontribs/gitcontribs/internal/models"
)

// Aggregate folds an already-filtered commit set into per-day counts plus
// first/last commit markers. Histogram keys are the commit timestamp's
// calendar date in its own timezone, not UTC, so a late-night commit lands
// on the author's "today". An empty input yields a zero-valued result,
// never an error.
func Aggregate(commits []models.Commit) models.ContributionStats {
	result := models.ContributionStats{
		TotalCommits:  len(commits),
		CommitsByDate: make(map[string]int, len(commits)),
	}

	for i := range commits {
		c := &commits[i]
		result.CommitsByDate[c.Timestamp.Format(time.DateOnly)]++

		if result.FirstCommit == nil || commitBefore(c, result.FirstCommit) {
			result.FirstCommit = c
		}
		if result.LastCommit == nil || commitBefore(result.LastCommit, c) {
			result.LastCommit = c
		}
	}

	return result
}

// commitBefore is a total order on commits: timestamp first, hash as the
// tiebreak, so identical input always yields identical markers.
func commitBefore(a, b *models.Commit) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.Hash < b.Hash
}
