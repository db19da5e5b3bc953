// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the settings shared by the fetcher, the search engine
// and the command-line tools.
//
// A Config starts from DefaultConfig, may be loaded from a TOML file with
// LoadFile, picks up a GitHub token from the environment with ApplyEnv and
// is checked with Validate before use.
package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultRepository is the repository fetched when none is configured.
	DefaultRepository = "llvm/llvm-project"
	// DefaultLimit is the number of pull requests requested per fetch.
	DefaultLimit = 10
	// MaxLimit is the largest page GitHub serves.
	MaxLimit = 100
	// DefaultCorpusPath is where fetched documents are written and read.
	DefaultCorpusPath = "ingested_data.json"
	// DefaultTopK is the number of search results returned.
	DefaultTopK = 3

	// TokenEnvVar names the environment variable holding a GitHub token.
	TokenEnvVar = "GITHUB_TOKEN"
)

// Config holds settings shared by the fetcher, the search engine and the CLI.
type Config struct {
	// Repository is the GitHub repository to fetch, as "owner/name".
	Repository string `toml:"repository"`

	// Limit is the number of closed pull requests requested per fetch (1..100).
	// Only merged ones become documents, so a fetch may yield fewer.
	Limit int `toml:"limit"`

	// Token is an optional GitHub token. Unauthenticated requests are
	// subject to a much lower rate limit.
	Token string `toml:"token,omitempty"`

	// CorpusPath is the JSON corpus file.
	CorpusPath string `toml:"corpus_path"`

	// StorePath is an optional BadgerDB directory. When set, fetched
	// documents are also stored there and searches read from it.
	StorePath string `toml:"store_path,omitempty"`

	// TopK is the default number of search results.
	TopK int `toml:"top_k"`

	// PoolSize bounds the workers used to score documents during ingestion.
	PoolSize int `toml:"pool_size"`

	// MaxRetries is the number of fetch attempts before giving up.
	MaxRetries int `toml:"max_retries"`

	// RetryDelay is the base delay between fetch attempts; it doubles each retry.
	RetryDelay Duration `toml:"retry_delay"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithRepository sets the repository to fetch.
func WithRepository(repository string) ConfigOption {
	return func(c *Config) {
		c.Repository = repository
	}
}

// WithLimit sets the number of pull requests requested per fetch.
func WithLimit(limit int) ConfigOption {
	return func(c *Config) {
		c.Limit = limit
	}
}

// WithToken sets the GitHub token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithCorpusPath sets the JSON corpus file.
func WithCorpusPath(path string) ConfigOption {
	return func(c *Config) {
		c.CorpusPath = path
	}
}

// WithStorePath sets the BadgerDB directory.
func WithStorePath(path string) ConfigOption {
	return func(c *Config) {
		c.StorePath = path
	}
}

// WithTopK sets the default number of search results.
func WithTopK(k int) ConfigOption {
	return func(c *Config) {
		c.TopK = k
	}
}

// WithPoolSize sets the number of scoring workers.
func WithPoolSize(size int) ConfigOption {
	return func(c *Config) {
		c.PoolSize = size
	}
}

// WithRetry sets the fetch retry policy.
func WithRetry(maxRetries int, delay time.Duration) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = Duration(delay)
	}
}

// DefaultConfig returns a Config with defaults matching the original fetcher:
// the ten most recently updated closed pull requests of llvm/llvm-project.
func DefaultConfig() *Config {
	return &Config{
		Repository: DefaultRepository,
		Limit:      DefaultLimit,
		CorpusPath: DefaultCorpusPath,
		TopK:       DefaultTopK,
		PoolSize:   4,
		MaxRetries: 3,
		RetryDelay: Duration(time.Second),
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithRepository("golang/go"),
//	    WithLimit(25),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// ApplyEnv fills unset fields from the environment.
// getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if c.Token == "" {
		c.Token = strings.TrimSpace(getenv(TokenEnvVar))
	}
}

// Normalize ensures the configuration is in a canonical form.
// Surrounding whitespace and slashes are removed from the repository, and a
// full github.com URL is reduced to "owner/name".
func (c *Config) Normalize() {
	repo := strings.TrimSpace(c.Repository)
	repo = strings.TrimPrefix(repo, "https://")
	repo = strings.TrimPrefix(repo, "http://")
	repo = strings.TrimPrefix(repo, "github.com/")
	repo = strings.TrimSuffix(repo, ".git")
	c.Repository = strings.Trim(repo, "/")
	c.Token = strings.TrimSpace(c.Token)
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if _, _, err := SplitRepository(c.Repository); err != nil {
		return err
	}
	if c.Limit < 1 || c.Limit > MaxLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidConfig, MaxLimit)
	}
	if c.CorpusPath == "" {
		return fmt.Errorf("%w: corpus_path is required", ErrInvalidConfig)
	}
	if c.TopK < 0 {
		return fmt.Errorf("%w: top_k must not be negative", ErrInvalidConfig)
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("%w: pool_size must be positive", ErrInvalidConfig)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("%w: max_retries must be positive", ErrInvalidConfig)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry_delay must not be negative", ErrInvalidConfig)
	}
	return nil
}

// SplitRepository splits "owner/name" into its parts.
func SplitRepository(repository string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("%w: repository must look like owner/name, got %q", ErrInvalidConfig, repository)
	}
	return owner, name, nil
}
