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

package search

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/signalsearch/core"
)

// DefaultTopK is the number of results returned when callers have no preference.
const DefaultTopK = 3

// Index owns a corpus together with its IDF weights and document vectors.
// It is built once by Build and is immutable afterwards; concurrent searches
// need no locking.
type Index struct {
	corpus  []*core.Document
	idf     *IDFIndex
	vectors []Vector
	logger  *slog.Logger
}

// Option configures an Index.
type Option func(*Index) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		idx.logger = logger
		return nil
	}
}

// Build indexes corpus: it computes the IDF weights over the whole corpus and
// one TF-IDF vector per document, in corpus order. The corpus slice is copied;
// the documents themselves are shared and must not be modified afterwards.
func Build(corpus []*core.Document, opts ...Option) (*Index, error) {
	idx := &Index{
		logger: slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}

	for i, doc := range corpus {
		if doc == nil {
			return nil, fmt.Errorf("%w: position %d", ErrNilDocument, i)
		}
	}

	idx.logger.Debug("building search index", "documents", len(corpus))

	idx.corpus = slices.Clone(corpus)
	idx.idf = BuildIDF(idx.corpus)
	idx.vectors = make([]Vector, len(idx.corpus))
	for i, doc := range idx.corpus {
		idx.vectors[i] = Vectorize(TermFrequency(doc.IndexText()), idx.idf)
	}

	idx.logger.Info("indexed documents", "documents", len(idx.corpus), "terms", idx.idf.Len())
	return idx, nil
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	return len(idx.corpus)
}

// Corpus returns the indexed documents in corpus order.
func (idx *Index) Corpus() []*core.Document {
	return slices.Clone(idx.corpus)
}

// IDF returns the index's IDF weights.
func (idx *Index) IDF() *IDFIndex {
	return idx.idf
}

// DocumentVector returns the TF-IDF vector of the document at position i.
// The returned vector is shared with the index and must not be modified.
func (idx *Index) DocumentVector(i int) Vector {
	return idx.vectors[i]
}

// QueryVector vectorizes query with the index's IDF weights.
func (idx *Index) QueryVector(query string) Vector {
	return Vectorize(TermFrequency(query), idx.idf)
}

// Search returns up to topK documents with positive cosine similarity to query,
// best first. Documents with equal scores keep their corpus order.
// Returns an empty slice when topK <= 0 or nothing matches.
func (idx *Index) Search(query string, topK int) []*core.SearchResult {
	return idx.SearchWithMonitor(query, topK, nil)
}

// SearchWithMonitor is Search with a monitor receiving callbacks at each stage.
func (idx *Index) SearchWithMonitor(query string, topK int, monitor SearchMonitor) []*core.SearchResult {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query, topK)

	queryVector := idx.QueryVector(query)
	monitor.AfterQueryVectorization(queryVector)

	results := make([]*core.SearchResult, 0)
	for i, docVector := range idx.vectors {
		score := CosineSimilarity(queryVector, docVector)
		monitor.DocumentScored(i, idx.corpus[i], score)
		if score > 0 {
			results = append(results, &core.SearchResult{
				Document: idx.corpus[i],
				Score:    score,
			})
		}
	}

	// Stable: ties stay in corpus order
	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if topK < 0 {
		topK = 0
	}
	if len(results) > topK {
		results = results[:topK]
	}

	idx.logger.Debug("search complete", "query", query, "hits", len(results))
	monitor.Finish(results)

	return results
}
