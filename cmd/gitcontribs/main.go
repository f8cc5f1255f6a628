package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gitcontribs/gitcontribs/internal/config"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logger  *logrus.Logger
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gitcontribs",
	Short: "Visualize git contributions across your repositories",
	Long: `gitcontribs scans a directory tree (or clones one remote) for git
repositories and summarizes your commit activity over a trailing window
of days, as a report or an ASCII contribution graph.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Initialize logger
		logger = logrus.New()

		// Load configuration
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			logger.WithError(err).Warn("Failed to load config, using defaults")
			cfg = config.Default()
		}

		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
			logger.SetLevel(level)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .gitcontribs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Set custom version template
	rootCmd.SetVersionTemplate(`gitcontribs {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)
}
