package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitcontribs/gitcontribs/internal/cache"
	"github.com/gitcontribs/gitcontribs/internal/config"
	apperrors "github.com/gitcontribs/gitcontribs/internal/errors"
	"github.com/gitcontribs/gitcontribs/internal/gitrepo"
	"github.com/gitcontribs/gitcontribs/internal/models"
	"github.com/gitcontribs/gitcontribs/internal/output"
	"github.com/gitcontribs/gitcontribs/internal/pipeline"
	"github.com/gitcontribs/gitcontribs/internal/storage"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Analyze contributions and print a report",
	Long: `Scans for git repositories under --root (or clones --url into a
temporary directory), reads commit history over the trailing --days
window, and prints the aggregated report.

The author filter defaults to the email in your global git config; pass
--email to override it. When neither is available, all authors count.`,
	RunE: runReport,
}

func init() {
	addAnalysisFlags(reportCmd)
	reportCmd.Flags().String("format", "", "output format: text, json, or yaml")
	reportCmd.Flags().Bool("save", false, "save the report to the history database")

	rootCmd.AddCommand(reportCmd)
}

// addAnalysisFlags registers the flags shared by report and graph.
func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().String("root", "", "root directory to scan for repositories")
	cmd.Flags().String("url", "", "remote repository URL to clone and analyze")
	cmd.Flags().Int("days", 0, "trailing window in days")
	cmd.Flags().String("email", "", "author email filter")
	cmd.Flags().Int("concurrency", 0, "repositories read in parallel (0 = auto)")
	cmd.MarkFlagsMutuallyExclusive("root", "url")
}

func runReport(cmd *cobra.Command, args []string) error {
	report, err := runPipeline(cmd)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = cfg.Output.Format
	}
	formatter, err := output.NewFormatter(format)
	if err != nil {
		return err
	}
	if err := formatter.Format(report, os.Stdout); err != nil {
		return fmt.Errorf("formatting error: %w", err)
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		store, err := storage.NewSQLiteStore(cfg.History.Path, logger)
		if err != nil {
			return apperrors.Storagef(err, "open history store")
		}
		defer store.Close()

		id, err := store.SaveReport(cmd.Context(), report)
		if err != nil {
			return apperrors.Storagef(err, "save report")
		}
		fmt.Fprintf(os.Stderr, "Saved report %s\n", id)
	}

	return nil
}

// runPipeline assembles the pipeline from flags and config and executes it.
func runPipeline(cmd *cobra.Command) (*models.ContributionReport, error) {
	req := buildRequest(cmd)

	var commitCache gitrepo.CommitCache
	if cfg.Cache.Enabled {
		c, err := cache.Open(cfg.Cache.Path, logger)
		if err != nil {
			logger.WithError(err).Warn("Commit cache unavailable, reading directly")
		} else {
			defer c.Close()
			commitCache = c
		}
	}

	locator := gitrepo.NewLocator(logger)
	reader := gitrepo.NewReader(logger, commitCache)
	p := pipeline.New(locator, reader, nil, logger)

	return p.Run(cmd.Context(), req)
}

// buildRequest layers CLI flags over the configured analysis defaults.
func buildRequest(cmd *cobra.Command) pipeline.Request {
	req := pipeline.Request{
		RootDir:     cfg.Analysis.Root,
		Days:        cfg.Analysis.Days,
		Email:       cfg.Analysis.Email,
		Concurrency: cfg.Analysis.Concurrency,
	}

	if root, _ := cmd.Flags().GetString("root"); root != "" {
		req.RootDir = root
	}
	if url, _ := cmd.Flags().GetString("url"); url != "" {
		req.RemoteURL = url
		req.RootDir = ""
		req.RemoteToken = config.ResolveRemoteToken()
	}
	if days, _ := cmd.Flags().GetInt("days"); days > 0 {
		req.Days = days
	}
	if email, _ := cmd.Flags().GetString("email"); email != "" {
		req.Email = email
	}
	if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
		req.Concurrency = n
	}

	return req
}
