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

package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/signalsearch"
	"github.com/poiesic/signalsearch/config"
	"github.com/poiesic/signalsearch/core"
	"github.com/poiesic/signalsearch/ingestion"
	"github.com/poiesic/signalsearch/ingestion/github"
	"github.com/poiesic/signalsearch/storage"
	"github.com/poiesic/signalsearch/storage/badger"
	"github.com/poiesic/signalsearch/storage/jsonfile"
)

// defaultQueries are searched when no query is given.
var defaultQueries = []string{"fix", "support", "optimization", "bug"}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	corpusFlag := &cli.StringFlag{
		Name:    "corpus",
		Aliases: []string{"c"},
		Usage:   "Path to the JSON corpus file",
	}
	storeFlag := &cli.StringFlag{
		Name:    "store",
		Aliases: []string{"s"},
		Usage:   "Path to a BadgerDB document store directory",
	}

	return &cli.App{
		Name:  "signalsearch",
		Usage: "Search and analyze merged pull requests",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a TOML config file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "fetch",
				Usage:  "Fetch recently merged pull requests from GitHub",
				Action: fetchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "repo",
						Aliases: []string{"r"},
						Usage:   "GitHub repository as owner/name",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Number of closed pull requests to request (1-100)",
					},
					corpusFlag,
					storeFlag,
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of workers scoring documents",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum fetch attempts",
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
					},
					&cli.StringFlag{
						Name:   "api-url",
						Usage:  "GitHub API root",
						Hidden: true,
					},
				},
			},
			{
				Name:   "import",
				Usage:  "Import a JSON corpus file into a document store",
				Action: importCommand,
				Flags:  []cli.Flag{corpusFlag, storeFlag},
			},
			{
				Name:      "search",
				Usage:     "Rank documents against one or more queries",
				ArgsUsage: "[query...]",
				Action:    searchCommand,
				Flags: []cli.Flag{
					corpusFlag,
					storeFlag,
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results per query",
					},
					&cli.BoolFlag{
						Name:  "each",
						Usage: "Treat every argument as a separate query",
					},
				},
			},
			{
				Name:   "attribute",
				Usage:  "Estimate how likely each document was machine generated",
				Action: attributeCommand,
				Flags:  []cli.Flag{corpusFlag, storeFlag},
			},
			{
				Name:   "init",
				Usage:  "Write a config file with the given settings",
				Action: initCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Where to write the config file",
						Value: "signalsearch.toml",
					},
					&cli.StringFlag{
						Name:  "repo",
						Usage: "GitHub repository as owner/name",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of closed pull requests to request (1-100)",
					},
					corpusFlag,
					storeFlag,
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Maximum number of results per query",
					},
				},
			},
		},
	}
}

// loadConfig builds the effective configuration: defaults, then the config
// file, then GITHUB_TOKEN, then command-line flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv(os.Getenv)
	applyFlags(c, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	var opts []config.ConfigOption
	if c.IsSet("repo") {
		opts = append(opts, config.WithRepository(c.String("repo")))
	}
	if c.IsSet("limit") {
		opts = append(opts, config.WithLimit(c.Int("limit")))
	}
	if c.IsSet("corpus") {
		opts = append(opts, config.WithCorpusPath(c.String("corpus")))
	}
	if c.IsSet("store") {
		opts = append(opts, config.WithStorePath(c.String("store")))
	}
	if c.IsSet("top-k") {
		opts = append(opts, config.WithTopK(c.Int("top-k")))
	}
	if c.IsSet("pool-size") {
		opts = append(opts, config.WithPoolSize(c.Int("pool-size")))
	}
	if c.IsSet("max-retries") || c.IsSet("retry-delay") {
		maxRetries, delay := cfg.MaxRetries, time.Duration(cfg.RetryDelay)
		if c.IsSet("max-retries") {
			maxRetries = c.Int("max-retries")
		}
		if c.IsSet("retry-delay") {
			delay = c.Duration("retry-delay")
		}
		opts = append(opts, config.WithRetry(maxRetries, delay))
	}
	for _, opt := range opts {
		opt(cfg)
	}
}

func fetchCommand(c *cli.Context) error {
	ctx := c.Context
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := slog.Default()

	clientOpts := []github.Option{github.WithToken(cfg.Token), github.WithLogger(logger)}
	if apiURL := c.String("api-url"); apiURL != "" {
		clientOpts = append(clientOpts, github.WithBaseURL(apiURL))
	}
	client, err := github.NewClient(ctx, clientOpts...)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}
	if !client.Authenticated() {
		logger.Warn("no GitHub token configured, requests are heavily rate limited", "env", config.TokenEnvVar)
	}

	pipelineOpts := []ingestion.Option{
		ingestion.WithLogger(logger),
		ingestion.WithPoolSize(cfg.PoolSize),
		ingestion.WithRetry(cfg.MaxRetries, time.Duration(cfg.RetryDelay)),
		ingestion.WithRetryPolicy(github.IsRetryable),
		ingestion.WithCorpusSink(jsonfile.NewCorpusFile(cfg.CorpusPath)),
		ingestion.WithProgress(c.App.ErrWriter),
	}

	if cfg.StorePath != "" {
		repo, closeStore, err := openStore(cfg.StorePath, logger)
		if err != nil {
			return err
		}
		defer closeStore()
		pipelineOpts = append(pipelineOpts, ingestion.WithDocumentRepository(repo))
	}

	pipeline, err := ingestion.NewPipeline(client, pipelineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	out := c.App.Writer
	fmt.Fprintf(out, "Fetching last %d closed PRs from %s...\n", cfg.Limit, cfg.Repository)

	report, err := pipeline.Run(ctx, cfg.Repository, cfg.Limit)
	if err != nil {
		var rateErr *github.RateLimitError
		if errors.As(err, &rateErr) {
			return fmt.Errorf("fetch failed: %w (set %s to raise the limit)", err, config.TokenEnvVar)
		}
		return fmt.Errorf("fetch failed: %w", err)
	}

	newStyles().renderFetchReport(out, report, cfg.CorpusPath, cfg.StorePath != "")
	return nil
}

func importCommand(c *cli.Context) error {
	ctx := c.Context
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.StorePath == "" {
		return errors.New("a document store is required: pass --store or set store_path")
	}

	docs, err := jsonfile.NewCorpusFile(cfg.CorpusPath).LoadCorpus(ctx)
	if err != nil {
		return fmt.Errorf("failed to read corpus: %w", err)
	}

	valid := make([]*core.Document, 0, len(docs))
	for i, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			slog.Warn("skipping invalid document", "index", i, "err", err)
			continue
		}
		valid = append(valid, doc)
	}

	repo, closeStore, err := openStore(cfg.StorePath, slog.Default())
	if err != nil {
		return err
	}
	defer closeStore()

	added, err := repo.AddDocuments(ctx, valid...)
	if err != nil {
		return fmt.Errorf("failed to store documents: %w", err)
	}

	s := newStyles()
	fmt.Fprintln(c.App.Writer, s.Success.Render(fmt.Sprintf("Imported %d new documents from %s (%d already stored, %d invalid).",
		len(added), cfg.CorpusPath, len(valid)-len(added), len(docs)-len(valid))))
	return nil
}

func searchCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	queries := defaultQueries
	if c.Args().Present() {
		if c.Bool("each") {
			queries = c.Args().Slice()
		} else {
			queries = []string{strings.Join(c.Args().Slice(), " ")}
		}
	}

	engine, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	s := newStyles()
	out := c.App.Writer
	fmt.Fprintln(out, s.Success.Render(fmt.Sprintf("Indexed %d documents.", engine.Index().Len())))
	for _, query := range queries {
		s.renderResults(out, query, engine.Search(query, cfg.TopK))
	}
	return nil
}

func attributeCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	engine, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	newStyles().renderAttributions(c.App.Writer, engine.Attributions())
	return nil
}

func initCommand(c *cli.Context) error {
	cfg := config.DefaultConfig()
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	path := c.String("path")
	if err := cfg.SaveFile(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintln(c.App.Writer, newStyles().Success.Render("Wrote "+path))
	return nil
}

func openEngine(c *cli.Context, cfg *config.Config) (*signalsearch.Engine, error) {
	opts := []signalsearch.EngineOption{
		signalsearch.WithCorpusFile(cfg.CorpusPath),
		signalsearch.WithLogger(slog.Default()),
	}
	if cfg.StorePath != "" {
		opts = append(opts, signalsearch.WithDocumentStore(cfg.StorePath))
	}

	engine, err := signalsearch.NewEngine(c.Context, opts...)
	if errors.Is(err, storage.ErrMissingCorpus) {
		return nil, fmt.Errorf("%w: run 'signalsearch fetch' first", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	return engine, nil
}

func openStore(path string, logger *slog.Logger) (storage.DocumentRepository, func(), error) {
	backend, err := badger.OpenBackend(path, false, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open document store: %w", err)
	}
	repo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("failed to create repository: %w", err)
	}
	return repo, func() {
		repo.Close()
		backend.Close()
	}, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
