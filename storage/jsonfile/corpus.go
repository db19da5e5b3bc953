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

// Package jsonfile reads and writes a corpus as a single JSON array of
// documents, the format produced by the fetch command (ingested_data.json).
//
// Files may carry // and /* */ comments or trailing commas; they are
// stripped before decoding.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/poiesic/signalsearch/core"
	"github.com/poiesic/signalsearch/storage"
)

// DefaultPath is the corpus file name used when none is configured.
const DefaultPath = "ingested_data.json"

// CorpusFile is a corpus stored as a JSON file.
type CorpusFile struct {
	path string
}

var (
	_ storage.CorpusSource = (*CorpusFile)(nil)
	_ storage.CorpusSink   = (*CorpusFile)(nil)
)

// NewCorpusFile returns a CorpusFile for path. An empty path means DefaultPath.
func NewCorpusFile(path string) *CorpusFile {
	if path == "" {
		path = DefaultPath
	}
	return &CorpusFile{path: path}
}

// Path returns the file location.
func (f *CorpusFile) Path() string {
	return f.path
}

// LoadCorpus reads the file and returns its documents in file order.
// Each document gets Id from core.DocumentID and Seq from its 1-based position.
func (f *CorpusFile) LoadCorpus(ctx context.Context) ([]*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", storage.ErrMissingCorpus, f.path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}

	var docs []*core.Document
	if err := json.Unmarshal(jsonc.ToJSON(data), &docs); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", storage.ErrSerializationFailed, f.path, err)
	}

	corpus := make([]*core.Document, 0, len(docs))
	for i, doc := range docs {
		if doc == nil {
			return nil, fmt.Errorf("%w: %s: null entry at position %d", storage.ErrSerializationFailed, f.path, i)
		}
		doc.Id = core.DocumentID(doc)
		doc.Seq = uint64(i) + 1
		corpus = append(corpus, doc)
	}
	return corpus, nil
}

// SaveCorpus replaces the file with docs as an indented JSON array.
// The write goes through a temporary file in the same directory.
func (f *CorpusFile) SaveCorpus(ctx context.Context, docs []*core.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if docs == nil {
		docs = []*core.Document{}
	}

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing %s: %w", f.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", f.path, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("writing %s: %w", f.path, err)
	}
	return nil
}
