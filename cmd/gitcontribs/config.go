package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gitcontribs/gitcontribs/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage gitcontribs configuration",
	Long:  `View resolved configuration and manage the remote clone token.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the resolved configuration",
	RunE:  runConfigGet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the current defaults",
	RunE:  runConfigInit,
}

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token [token]",
	Short: "Store a clone token for private remotes in the OS keychain",
	Long: `Stores the token used to authenticate https clones of private
remotes. With no argument the token is prompted for without echo.

Environment variables (GITCONTRIBS_GIT_TOKEN, GITHUB_TOKEN, GH_TOKEN)
take precedence over the keychain when both are set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigSetToken,
}

var configClearTokenCmd = &cobra.Command{
	Use:   "clear-token",
	Short: "Remove the stored clone token",
	RunE:  runConfigClearToken,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing config file")

	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetTokenCmd)
	configCmd.AddCommand(configClearTokenCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	fmt.Printf("analysis.root = %s\n", cfg.Analysis.Root)
	fmt.Printf("analysis.days = %d\n", cfg.Analysis.Days)
	if cfg.Analysis.Email != "" {
		fmt.Printf("analysis.email = %s\n", cfg.Analysis.Email)
	} else {
		fmt.Printf("analysis.email = (from git config)\n")
	}
	fmt.Printf("analysis.concurrency = %d\n", cfg.Analysis.Concurrency)
	fmt.Printf("output.format = %s\n", cfg.Output.Format)
	fmt.Printf("cache.enabled = %v\n", cfg.Cache.Enabled)
	fmt.Printf("cache.path = %s\n", cfg.Cache.Path)
	fmt.Printf("history.path = %s\n", cfg.History.Path)
	fmt.Printf("log.level = %s\n", cfg.Log.Level)
	fmt.Printf("remote.token = %s (source: %s)\n",
		config.MaskToken(config.ResolveRemoteToken()),
		config.RemoteTokenSource(),
	)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".gitcontribs", "config.yaml")
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := config.Default().Save(path); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}

func runConfigSetToken(cmd *cobra.Command, args []string) error {
	if !config.KeyringAvailable() {
		return fmt.Errorf("no OS keychain available on this system; set GITCONTRIBS_GIT_TOKEN instead")
	}

	var token string
	var err error
	if len(args) == 1 {
		token = args[0]
	} else {
		token, err = config.PromptRemoteToken()
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
	}

	if err := config.StoreRemoteToken(token); err != nil {
		return err
	}
	fmt.Println("Token saved to OS keychain")
	return nil
}

func runConfigClearToken(cmd *cobra.Command, args []string) error {
	if err := config.ClearRemoteToken(); err != nil {
		return err
	}
	fmt.Println("Token cleared")
	return nil
}
