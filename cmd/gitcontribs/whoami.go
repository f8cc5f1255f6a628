package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitcontribs/gitcontribs/internal/gitrepo"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the git identity used for author filtering",
	Long: `Shows the name and email resolved from your global git config file,
and which config file they came from.`,
	RunE: runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	user := gitrepo.ResolveUser()

	fmt.Printf("Name:   %s\n", user.Name)
	fmt.Printf("Email:  %s\n", user.Email)
	fmt.Printf("Source: %s\n", globalConfigSource())

	if !user.IsResolved() {
		fmt.Println()
		fmt.Println("No email in your global git config; reports will count all authors.")
		fmt.Println("Set one with: git config --global user.email you@example.com")
	}
	return nil
}

// globalConfigSource names the config file identity was read from: the
// first existing candidate, matching the loader's precedence.
func globalConfigSource() string {
	for _, path := range gitrepo.GlobalConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return "(no global config file found)"
}
