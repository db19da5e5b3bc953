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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/signalsearch/attribution"
	"github.com/poiesic/signalsearch/config"
	"github.com/poiesic/signalsearch/core"
	"github.com/poiesic/signalsearch/storage"
)

// Source fetches merged pull requests as documents.
type Source interface {
	FetchMergedPullRequests(ctx context.Context, owner, repo string, limit int) ([]*core.Document, error)
}

// Pipeline orchestrates fetching, scoring and storing documents.
type Pipeline struct {
	source      Source
	repository  storage.DocumentRepository
	sink        storage.CorpusSink
	scorePool   *ants.Pool
	maxAttempts int
	retryDelay  time.Duration
	retryable   func(error) bool
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent scoring.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.scorePool != nil {
			p.scorePool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.scorePool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithDocumentRepository stores new documents in repo.
func WithDocumentRepository(repo storage.DocumentRepository) Option {
	return func(p *Pipeline) error {
		p.repository = repo
		return nil
	}
}

// WithCorpusSink writes each non-empty fetched batch to sink.
func WithCorpusSink(sink storage.CorpusSink) Option {
	return func(p *Pipeline) error {
		p.sink = sink
		return nil
	}
}

// WithRetry sets how many times a fetch is attempted and the base delay
// between attempts.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithRetryPolicy decides which fetch errors are retried.
// Default retries every error except context cancellation.
func WithRetryPolicy(retryable func(error) bool) Option {
	return func(p *Pipeline) error {
		if retryable != nil {
			p.retryable = retryable
		}
		return nil
	}
}

// WithProgress writes scoring progress to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(source Source, opts ...Option) (*Pipeline, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	scorePool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		source:      source,
		scorePool:   scorePool,
		maxAttempts: 3,
		retryDelay:  time.Second,
		retryable:   defaultRetryable,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

func defaultRetryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Report summarizes one pipeline run.
type Report struct {
	// Repository is the "owner/name" that was fetched.
	Repository string

	// Documents are the valid merged pull requests, in API order.
	Documents []*core.Document

	// Attributions holds one entry per document, aligned with Documents.
	Attributions []core.Attribution

	// Added are the documents that were new to the repository.
	// Empty when no repository is configured.
	Added []*core.Document

	// Rejected counts fetched documents that failed validation.
	Rejected int

	// Saved reports whether the batch was written to the sink.
	Saved bool

	// Attempts is the number of fetch attempts made.
	Attempts int

	// Elapsed is the wall time of the run.
	Elapsed time.Duration
}

// Run fetches up to limit closed pull requests of repository ("owner/name")
// and processes the merged ones.
func (p *Pipeline) Run(ctx context.Context, repository string, limit int) (*Report, error) {
	start := time.Now()

	owner, name, err := config.SplitRepository(repository)
	if err != nil {
		return nil, err
	}
	report := &Report{Repository: owner + "/" + name}

	logger := p.logger.With("repository", report.Repository)
	logger.Info("fetching merged pull requests", "limit", limit)

	var fetched []*core.Document
	err = RetryWithBackoff(ctx, func() error {
		report.Attempts++
		docs, fetchErr := p.source.FetchMergedPullRequests(ctx, owner, name, limit)
		if fetchErr != nil && !p.retryable(fetchErr) {
			return Permanent(fetchErr)
		}
		fetched = docs
		return fetchErr
	}, p.maxAttempts, p.retryDelay)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", report.Repository, err)
	}

	report.Documents = p.validate(logger, fetched, report)
	report.Attributions = p.score(report.Documents)

	if p.repository != nil && len(report.Documents) > 0 {
		added, err := p.repository.AddDocuments(ctx, report.Documents...)
		if err != nil {
			return nil, fmt.Errorf("storing documents: %w", err)
		}
		report.Added = added
	}

	if p.sink != nil && len(report.Documents) > 0 {
		if err := p.sink.SaveCorpus(ctx, report.Documents); err != nil {
			return nil, fmt.Errorf("saving corpus: %w", err)
		}
		report.Saved = true
	}

	report.Elapsed = time.Since(start)
	logger.Info("ingestion complete",
		"documents", len(report.Documents),
		"added", len(report.Added),
		"rejected", report.Rejected,
		"attempts", report.Attempts,
		"elapsed", report.Elapsed)
	return report, nil
}

func (p *Pipeline) validate(logger *slog.Logger, docs []*core.Document, report *Report) []*core.Document {
	valid := make([]*core.Document, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			report.Rejected++
			continue
		}
		if err := core.ValidateDocument(doc); err != nil {
			logger.Warn("skipping invalid document", "proof_url", doc.ProofURL, "err", err)
			report.Rejected++
			continue
		}
		doc.Id = core.DocumentID(doc)
		valid = append(valid, doc)
	}
	return valid
}

// score computes attributions on the worker pool. Results keep input order.
func (p *Pipeline) score(docs []*core.Document) []core.Attribution {
	results := make([]core.Attribution, len(docs))
	if len(docs) == 0 {
		return results
	}

	tally := NewScoreTally(p.progress, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = attribution.Analyze(doc)
			tally.Record(results[i])
		}
		if err := p.scorePool.Submit(task); err != nil {
			p.logger.Debug("scoring inline", "err", err)
			task()
		}
	}
	wg.Wait()

	tally.Finish(p.logger)
	return results
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.scorePool != nil {
		p.scorePool.Release()
	}
}
