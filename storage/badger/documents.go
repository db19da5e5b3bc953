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

package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/signalsearch/core"
	"github.com/poiesic/signalsearch/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	seq     *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	seq, err := backend.GetSequence(documentSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		seq:     seq,
	}, nil
}

// Close releases the document sequence.
func (r *DocumentRepository) Close() error {
	return r.seq.Release()
}

func (r *DocumentRepository) check(ctx context.Context) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return ctx.Err()
}

// AddDocuments stores documents whose ID is not already present.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	var added []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			id := core.DocumentID(doc)
			idKey := makeDocumentIDKey(id)

			_, err := tx.Get(idKey)
			if err == nil {
				continue
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			next, err := r.nextSeq()
			if err != nil {
				return err
			}
			doc.Id = id
			doc.Seq = next

			if err := tx.Set(makeDocumentKey(next), storage.MarshalDocument(doc)); err != nil {
				return err
			}
			if err := tx.Set(idKey, encodeSeq(next)); err != nil {
				return err
			}
			added = append(added, doc)
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	r.backend.logger.Debug("stored documents", "submitted", len(docs), "added", len(added))
	return added, nil
}

// nextSeq skips the zero value BadgerDB sequences can return on first use.
func (r *DocumentRepository) nextSeq() (uint64, error) {
	next, err := r.seq.Next()
	if err != nil {
		return 0, err
	}
	if next == 0 {
		return r.seq.Next()
	}
	return next, nil
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		seq, err := r.lookupSeq(tx, id)
		if err != nil {
			return err
		}
		result, err = r.readDocument(tx, makeDocumentKey(seq))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: document %d", storage.ErrNotFound, id)
		}
		return nil
	}, false)
	return result, err
}

// ListDocuments retrieves all documents in insertion order.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, doc)
		}
		return nil
	}, false)
	return results, err
}

// LoadCorpus returns every stored document in insertion order.
func (r *DocumentRepository) LoadCorpus(ctx context.Context) ([]*core.Document, error) {
	return r.ListDocuments(ctx)
}

// CountDocuments returns the number of stored documents.
func (r *DocumentRepository) CountDocuments(ctx context.Context) (int, error) {
	if err := r.check(ctx); err != nil {
		return 0, err
	}

	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentRecordPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// DeleteDocuments removes documents by their IDs.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	if err := r.check(ctx); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			seq, err := r.lookupSeq(tx, id)
			if err != nil {
				return err
			}
			if err := tx.Delete(makeDocumentKey(seq)); err != nil {
				return err
			}
			if err := tx.Delete(makeDocumentIDKey(id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

func (r *DocumentRepository) lookupSeq(tx *badger.Txn, id core.ID) (uint64, error) {
	item, err := tx.Get(makeDocumentIDKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, fmt.Errorf("%w: document %d", storage.ErrNotFound, id)
	}
	if err != nil {
		return 0, err
	}

	var seq uint64
	err = item.Value(func(val []byte) error {
		var ok bool
		seq, ok = decodeSeq(val)
		if !ok {
			return fmt.Errorf("%w: sequence index for document %d", storage.ErrTruncatedData, id)
		}
		return nil
	})
	return seq, err
}

// readDocument returns nil, nil when key is absent.
func (r *DocumentRepository) readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	return doc, err
}
