// Package storage provides the storage abstraction layer for signalsearch.
//
// This package defines the interfaces that decouple where a corpus lives from
// the search core. A corpus can be read from the JSON file written by the
// fetcher (storage/jsonfile) or from a BadgerDB document store
// (storage/badger); the search index itself is never persisted.
//
// # Architecture
//
//   - DocumentRepository: ordered document store with duplicate detection
//   - CorpusSource: anything that can produce an ordered corpus
//   - CorpusSink: anything that can persist a batch of fetched documents
//
// # Ordering
//
// Corpus order is significant: it breaks ties between equally ranked
// documents. Every CorpusSource must return documents in insertion (or file)
// order.
//
// # Usage
//
// Load a corpus from the fetcher's output file:
//
//	corpus, err := jsonfile.NewCorpusFile("ingested_data.json").LoadCorpus(ctx)
//	if errors.Is(err, storage.ErrMissingCorpus) {
//	    // run the fetcher first
//	}
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	defer repo.Close()
//
// # Thread Safety
//
// Repository implementations must be safe for concurrent use.
package storage
