// Package config loads the agent configuration from YAML files and
// environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	GitHub GitHubConfig `mapstructure:"github"`
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Review ReviewConfig `mapstructure:"review"`
	Merge  MergeConfig  `mapstructure:"merge"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	Output OutputConfig `mapstructure:"output"`
}

// GitHubConfig configures the GitHub REST adapter.
type GitHubConfig struct {
	// Token authenticates API calls. Usually supplied via
	// REVIEWAGENT_GITHUB_TOKEN or a ${GITHUB_TOKEN} reference.
	Token string `mapstructure:"token"`

	// BaseURL overrides the API endpoint, for GitHub Enterprise.
	BaseURL string `mapstructure:"baseURL"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	Port      int    `mapstructure:"port"`
	QueueSize int    `mapstructure:"queueSize"`
	Workers   int    `mapstructure:"workers"`
}

// StoreConfig configures the posting ledger.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// ReviewConfig tunes review runs.
type ReviewConfig struct {
	// Workers bounds concurrent file evaluation.
	Workers int `mapstructure:"workers"`
}

// MergeConfig tunes the merge agent.
type MergeConfig struct {
	// Method is merge, squash, or rebase.
	Method string `mapstructure:"method"`

	// DeleteBranch removes the head branch after merging.
	DeleteBranch bool `mapstructure:"deleteBranch"`
}

// HTTPConfig tunes the outbound HTTP transport.
type HTTPConfig struct {
	Timeout           string  `mapstructure:"timeout"`
	MaxRetries        int     `mapstructure:"maxRetries"`
	InitialBackoff    string  `mapstructure:"initialBackoff"`
	MaxBackoff        string  `mapstructure:"maxBackoff"`
	BackoffMultiplier float64 `mapstructure:"backoffMultiplier"`
}

// OutputConfig controls report files.
type OutputConfig struct {
	Directory string `mapstructure:"directory"`
}

// Validate checks settings that would otherwise fail deep inside a run.
func (c Config) Validate() error {
	if c.GitHub.Token == "" {
		return fmt.Errorf("github.token is required (set REVIEWAGENT_GITHUB_TOKEN)")
	}
	if _, err := time.ParseDuration(c.HTTP.Timeout); err != nil {
		return fmt.Errorf("http.timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.HTTP.InitialBackoff); err != nil {
		return fmt.Errorf("http.initialBackoff: %w", err)
	}
	if _, err := time.ParseDuration(c.HTTP.MaxBackoff); err != nil {
		return fmt.Errorf("http.maxBackoff: %w", err)
	}
	switch c.Merge.Method {
	case "merge", "squash", "rebase":
	default:
		return fmt.Errorf("merge.method must be merge, squash, or rebase, got %q", c.Merge.Method)
	}
	return nil
}

// HTTPTimeout returns the parsed transport timeout.
func (c Config) HTTPTimeout() time.Duration {
	d, err := time.ParseDuration(c.HTTP.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
