package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	// Analysis defaults, overridable per run via CLI flags
	Analysis AnalysisConfig `yaml:"analysis"`

	// Output configuration
	Output OutputConfig `yaml:"output"`

	// Commit cache configuration
	Cache CacheConfig `yaml:"cache"`

	// Saved-report history configuration
	History HistoryConfig `yaml:"history"`

	// Logging configuration
	Log LogConfig `yaml:"log"`
}

type AnalysisConfig struct {
	Root        string `yaml:"root"`
	Days        int    `yaml:"days"`
	Email       string `yaml:"email"`
	Concurrency int    `yaml:"concurrency"` // 0 = min(NumCPU, 16)
}

type OutputConfig struct {
	Format string `yaml:"format"` // "text", "json", "yaml"
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type HistoryConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Analysis: AnalysisConfig{
			Root: ".",
			Days: 30,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(homeDir, ".gitcontribs", "cache.db"),
		},
		History: HistoryConfig{
			Path: filepath.Join(homeDir, ".gitcontribs", "history.db"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	// Load .env files first (in order of precedence)
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults
	cfg := Default()
	v.SetDefault("analysis", cfg.Analysis)
	v.SetDefault("output", cfg.Output)
	v.SetDefault("cache", cfg.Cache)
	v.SetDefault("history", cfg.History)
	v.SetDefault("log", cfg.Log)

	// Load from environment variables
	v.SetEnvPrefix("GITCONTRIBS")
	v.AutomaticEnv()

	// Try to find config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath(".gitcontribs")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".gitcontribs"))
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	// Unmarshal into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	envFiles := []string{
		".env.local", // Local overrides (highest precedence)
		".env",       // Main environment file
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}

	// Also try loading from home directory
	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".gitcontribs", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	// Analysis configuration
	if root := os.Getenv("GITCONTRIBS_ROOT"); root != "" {
		cfg.Analysis.Root = expandPath(root)
	}
	if days := os.Getenv("GITCONTRIBS_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil {
			cfg.Analysis.Days = d
		}
	}
	if email := os.Getenv("GITCONTRIBS_EMAIL"); email != "" {
		cfg.Analysis.Email = email
	}
	if workers := os.Getenv("GITCONTRIBS_CONCURRENCY"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			cfg.Analysis.Concurrency = n
		}
	}

	// Output configuration
	if format := os.Getenv("GITCONTRIBS_FORMAT"); format != "" {
		cfg.Output.Format = format
	}

	// Cache configuration
	if enabled := os.Getenv("GITCONTRIBS_CACHE_ENABLED"); enabled != "" {
		cfg.Cache.Enabled = enabled == "true"
	}
	if path := os.Getenv("GITCONTRIBS_CACHE_PATH"); path != "" {
		cfg.Cache.Path = expandPath(path)
	}

	// History configuration
	if path := os.Getenv("GITCONTRIBS_HISTORY_PATH"); path != "" {
		cfg.History.Path = expandPath(path)
	}

	// Logging configuration
	if level := os.Getenv("GITCONTRIBS_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("analysis", c.Analysis)
	v.Set("output", c.Output)
	v.Set("cache", c.Cache)
	v.Set("history", c.History)
	v.Set("log", c.Log)

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write config file
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
