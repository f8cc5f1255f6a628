package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	apperrors "github.com/gitcontribs/gitcontribs/internal/errors"
	"github.com/gitcontribs/gitcontribs/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved reports",
	Long:  `Lists and inspects reports saved with 'gitcontribs report --save'.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved reports, newest first",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one saved report with its daily breakdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum reports to list")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := storage.NewSQLiteStore(cfg.History.Path, logger)
	if err != nil {
		return apperrors.Storagef(err, "open history store")
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	summaries, err := store.ListReports(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		fmt.Println("No saved reports. Run 'gitcontribs report --save' first.")
		return nil
	}

	for _, s := range summaries {
		fmt.Printf("%s  %s  %3dd  %4d commits  %2d repos  %s\n",
			s.ID,
			s.GeneratedAt.Format("2006-01-02 15:04"),
			s.WindowDays,
			s.TotalCommits,
			s.TotalRepositories,
			s.UserEmail,
		)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := storage.NewSQLiteStore(cfg.History.Path, logger)
	if err != nil {
		return apperrors.Storagef(err, "open history store")
	}
	defer store.Close()

	detail, err := store.GetReport(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no saved report with id %s", args[0])
		}
		return err
	}

	fmt.Printf("Report:       %s\n", detail.ID)
	fmt.Printf("Generated:    %s\n", detail.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Printf("User:         %s <%s>\n", detail.UserName, detail.UserEmail)
	fmt.Printf("Window:       last %d days\n", detail.WindowDays)
	if detail.SkippedRepositories > 0 {
		fmt.Printf("Repositories: %d (%d skipped)\n", detail.TotalRepositories, detail.SkippedRepositories)
	} else {
		fmt.Printf("Repositories: %d\n", detail.TotalRepositories)
	}
	fmt.Printf("Commits:      %d\n", detail.TotalCommits)
	if detail.FirstCommitAt.Valid {
		fmt.Printf("First commit: %s %s\n", detail.FirstCommitAt.Time.Format("2006-01-02 15:04"), shortHash(detail.FirstCommitHash.String))
	}
	if detail.LastCommitAt.Valid {
		fmt.Printf("Last commit:  %s %s\n", detail.LastCommitAt.Time.Format("2006-01-02 15:04"), shortHash(detail.LastCommitHash.String))
	}

	if len(detail.Repositories) > 0 {
		fmt.Println("\nRepositories:")
		for _, repo := range detail.Repositories {
			fmt.Printf("  - %s (%s): %d commits\n", repo.Name, repo.Path, repo.CommitCount)
		}
	}

	if len(detail.CommitsByDate) > 0 {
		fmt.Println("\nCommits by day:")
		dates := make([]string, 0, len(detail.CommitsByDate))
		for date := range detail.CommitsByDate {
			dates = append(dates, date)
		}
		sort.Strings(dates)
		for _, date := range dates {
			fmt.Printf("  %s  %d\n", date, detail.CommitsByDate[date])
		}
	}

	return nil
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
