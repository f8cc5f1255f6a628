package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitcontribs/gitcontribs/internal/output"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print an ASCII contribution graph",
	Long: `Runs the same analysis as report and draws one cell per day of the
window, sized to your terminal.`,
	RunE: runGraph,
}

func init() {
	addAnalysisFlags(graphCmd)
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	report, err := runPipeline(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("Total commits in the last %d days: %d\n", report.WindowDays, report.Stats.TotalCommits)
	if report.Stats.TotalCommits == 0 {
		return nil
	}

	fmt.Println("\nContribution Graph:")
	fmt.Println(output.RenderGraph(report.Stats.CommitsByDate, report.WindowDays, output.TerminalWidth()))
	return nil
}
