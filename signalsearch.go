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

// Package signalsearch ranks merged pull requests against free-text queries.
//
// An Engine loads a corpus once, from the JSON file written by the fetcher
// or from a BadgerDB document store, builds a TF-IDF index over it and
// answers searches from memory.
package signalsearch

import (
	"context"
	"log/slog"

	"github.com/poiesic/signalsearch/attribution"
	"github.com/poiesic/signalsearch/core"
	"github.com/poiesic/signalsearch/ingestion"
	"github.com/poiesic/signalsearch/search"
	"github.com/poiesic/signalsearch/storage"
	"github.com/poiesic/signalsearch/storage/badger"
	"github.com/poiesic/signalsearch/storage/jsonfile"
)

// Engine owns a loaded corpus and its search index.
type Engine struct {
	index   *search.Index
	backend *badger.Backend
	repo    storage.DocumentRepository
	logger  *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	corpusPath string
	storePath  string
	source     storage.CorpusSource
	logger     *slog.Logger
}

// WithCorpusFile loads the corpus from a JSON file.
// This is the default, using jsonfile.DefaultPath.
func WithCorpusFile(path string) EngineOption {
	return func(o *engineOptions) {
		o.corpusPath = path
	}
}

// WithDocumentStore loads the corpus from the BadgerDB store at path.
// It takes precedence over WithCorpusFile.
func WithDocumentStore(path string) EngineOption {
	return func(o *engineOptions) {
		o.storePath = path
	}
}

// WithCorpusSource loads the corpus from src.
// It takes precedence over the file and store options.
func WithCorpusSource(src storage.CorpusSource) EngineOption {
	return func(o *engineOptions) {
		o.source = src
	}
}

// WithLogger sets the logger for the engine and its index.
// If not provided, slog.Default() will be used.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine loads the corpus and builds the index.
// A missing corpus file yields an error wrapping storage.ErrMissingCorpus.
func NewEngine(ctx context.Context, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	e := &Engine{logger: options.logger}

	source := options.source
	switch {
	case source != nil:
	case options.storePath != "":
		backend, err := badger.OpenBackend(options.storePath, false, e.logger)
		if err != nil {
			return nil, err
		}
		repo, err := badger.NewDocumentRepository(backend)
		if err != nil {
			backend.Close()
			return nil, err
		}
		e.backend, e.repo = backend, repo
		source = repo
	default:
		source = jsonfile.NewCorpusFile(options.corpusPath)
	}

	corpus, err := source.LoadCorpus(ctx)
	if err != nil {
		e.Close()
		return nil, err
	}

	index, err := search.Build(corpus, search.WithLogger(e.logger))
	if err != nil {
		e.Close()
		return nil, err
	}
	e.index = index

	return e, nil
}

// Search returns up to topK documents ranked by similarity to query.
func (e *Engine) Search(query string, topK int) []*core.SearchResult {
	return e.index.Search(query, topK)
}

// SearchWithMonitor is Search with per-step callbacks.
func (e *Engine) SearchWithMonitor(query string, topK int, monitor search.SearchMonitor) []*core.SearchResult {
	return e.index.SearchWithMonitor(query, topK, monitor)
}

// Corpus returns the indexed documents in corpus order.
func (e *Engine) Corpus() []*core.Document {
	return e.index.Corpus()
}

// Index returns the underlying search index.
func (e *Engine) Index() *search.Index {
	return e.index
}

// Attributions scores every document in the corpus, in corpus order.
func (e *Engine) Attributions() []core.Attribution {
	return attribution.AnalyzeAll(e.index.Corpus())
}

// DocumentRepository returns the backing store, or nil when the corpus was
// not loaded from one.
func (e *Engine) DocumentRepository() storage.DocumentRepository {
	return e.repo
}

// NewIngestionPipeline creates a pipeline that stores into the engine's
// document store, when it has one. The engine's index is not updated;
// create a new Engine to search newly ingested documents.
func (e *Engine) NewIngestionPipeline(source ingestion.Source, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{ingestion.WithLogger(e.logger)}
	if e.repo != nil {
		base = append(base, ingestion.WithDocumentRepository(e.repo))
	}
	return ingestion.NewPipeline(source, append(base, opts...)...)
}

// Close releases the document store, if any.
func (e *Engine) Close() error {
	if e.repo != nil {
		if err := e.repo.Close(); err != nil {
			e.logger.Error("error closing document repository", "err", err)
			return err
		}
		e.repo = nil
	}
	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			return err
		}
		e.backend = nil
	}
	return nil
}
