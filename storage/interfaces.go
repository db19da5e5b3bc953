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

package storage

import (
	"context"

	"github.com/poiesic/signalsearch/core"
)

// CorpusSource produces an ordered corpus.
type CorpusSource interface {
	// LoadCorpus returns every document in corpus order.
	// Returns ErrMissingCorpus if the underlying input does not exist.
	LoadCorpus(ctx context.Context) ([]*core.Document, error)
}

// CorpusSink persists a batch of fetched documents.
type CorpusSink interface {
	// SaveCorpus writes docs in the given order, replacing previous contents.
	SaveCorpus(ctx context.Context, docs []*core.Document) error
}

// DocumentRepository provides operations for managing stored documents.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	CorpusSource

	// AddDocuments stores documents that are not already present.
	// Document IDs are derived with core.DocumentID; documents whose ID is
	// already stored are skipped. New documents get the next Seq value.
	// Returns only the documents that were added, with Id and Seq populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// ListDocuments retrieves all documents in insertion order.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)

	// DeleteDocuments removes documents by their IDs.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// Close releases resources held by the repository.
	Close() error
}
