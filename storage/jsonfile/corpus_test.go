package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/signalsearch/core"
	"github.com/poiesic/signalsearch/storage"
)

const sampleCorpus = `[
  {
    "author": "alice",
    "skill_signal": "Fix bug in parser",
    "context": "Parser crashed on empty input...",
    "merged_at": "2024-05-01T12:00:00Z",
    "proof_url": "https://github.com/llvm/llvm-project/pull/1.diff"
  },
  {
    "author": "bob",
    "skill_signal": "Add new feature",
    "context": "",
    "merged_at": "2024-05-02T12:00:00Z",
    "proof_url": "https://github.com/llvm/llvm-project/pull/2.diff"
  }
]`

func TestNewCorpusFile_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, NewCorpusFile("").Path())
	assert.Equal(t, "x.json", NewCorpusFile("x.json").Path())
}

func TestLoadCorpus(t *testing.T) {
	ctx := context.Background()

	t.Run("file order and ids", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corpus.json")
		require.NoError(t, os.WriteFile(path, []byte(sampleCorpus), 0644))

		corpus, err := NewCorpusFile(path).LoadCorpus(ctx)
		require.NoError(t, err)
		require.Len(t, corpus, 2)

		assert.Equal(t, "alice", corpus[0].Author)
		assert.Equal(t, "Fix bug in parser", corpus[0].SkillSignal)
		assert.Equal(t, "https://github.com/llvm/llvm-project/pull/1.diff", corpus[0].ProofURL)
		assert.Equal(t, uint64(1), corpus[0].Seq)
		assert.Equal(t, uint64(2), corpus[1].Seq)
		assert.Equal(t, core.DocumentID(corpus[1]), corpus[1].Id)
		assert.NotEqual(t, corpus[0].Id, corpus[1].Id)
	})

	t.Run("comments and trailing commas", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corpus.json")
		content := `// hand-edited
[
  {"author": "alice", "skill_signal": "Fix bug", /* note */ "context": "c",},
]`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		corpus, err := NewCorpusFile(path).LoadCorpus(ctx)
		require.NoError(t, err)
		require.Len(t, corpus, 1)
		assert.Equal(t, "Fix bug", corpus[0].SkillSignal)
	})

	t.Run("empty array", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corpus.json")
		require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))

		corpus, err := NewCorpusFile(path).LoadCorpus(ctx)
		require.NoError(t, err)
		assert.Empty(t, corpus)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewCorpusFile(filepath.Join(t.TempDir(), "absent.json")).LoadCorpus(ctx)
		assert.ErrorIs(t, err, storage.ErrMissingCorpus)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corpus.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"author": `), 0644))

		_, err := NewCorpusFile(path).LoadCorpus(ctx)
		assert.ErrorIs(t, err, storage.ErrSerializationFailed)
	})

	t.Run("null entry", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corpus.json")
		require.NoError(t, os.WriteFile(path, []byte(`[null]`), 0644))

		_, err := NewCorpusFile(path).LoadCorpus(ctx)
		assert.ErrorIs(t, err, storage.ErrSerializationFailed)
	})
}

func TestSaveCorpus(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "corpus.json")
	file := NewCorpusFile(path)

	docs := []*core.Document{
		{Id: 99, Seq: 7, Author: "alice", SkillSignal: "Fix bug", Context: "ctx", MergedAt: "2024-05-01T12:00:00Z", ProofURL: "u1"},
		{Author: "bob", SkillSignal: "Add feature", ProofURL: "u2"},
	}
	require.NoError(t, file.SaveCorpus(ctx, docs))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {\n    \"author\": \"alice\",")
	assert.NotContains(t, string(data), "99", "internal ids are not written")

	loaded, err := file.LoadCorpus(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Fix bug", loaded[0].SkillSignal)
	assert.Equal(t, "Add feature", loaded[1].SkillSignal)

	t.Run("replaces previous contents", func(t *testing.T) {
		require.NoError(t, file.SaveCorpus(ctx, docs[1:]))
		loaded, err := file.LoadCorpus(ctx)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, "bob", loaded[0].Author)
	})

	t.Run("nil writes empty array", func(t *testing.T) {
		require.NoError(t, file.SaveCorpus(ctx, nil))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
