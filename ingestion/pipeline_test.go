package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/signalsearch/core"
	"github.com/poiesic/signalsearch/storage"
	"github.com/poiesic/signalsearch/storage/badger"
	"github.com/poiesic/signalsearch/storage/jsonfile"
)

// testSource implements Source for testing
type testSource struct {
	mu       sync.Mutex
	docs     []*core.Document
	failures []error // returned, in order, before docs are served
	calls    int
	owner    string
	repo     string
	limit    int
}

func (s *testSource) FetchMergedPullRequests(ctx context.Context, owner, repo string, limit int) ([]*core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.owner, s.repo, s.limit = owner, repo, limit
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		return nil, err
	}
	out := make([]*core.Document, len(s.docs))
	for i, d := range s.docs {
		c := *d
		out[i] = &c
	}
	return out, nil
}

// testSink implements storage.CorpusSink for testing
type testSink struct {
	saved [][]*core.Document
	err   error
}

func (s *testSink) SaveCorpus(ctx context.Context, docs []*core.Document) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, docs)
	return nil
}

func mergedDoc(n int) *core.Document {
	return &core.Document{
		Author:      fmt.Sprintf("dev%d", n),
		SkillSignal: fmt.Sprintf("Fix crash in pass %d", n),
		Context:     "Handles the empty-loop case.",
		MergedAt:    "2024-05-01T12:00:00Z",
		ProofURL:    fmt.Sprintf("https://github.com/llvm/llvm-project/pull/%d.diff", n),
	}
}

func setupRepo(t *testing.T) storage.DocumentRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func newTestPipeline(t *testing.T, source Source, opts ...Option) *Pipeline {
	t.Helper()
	opts = append([]Option{WithRetry(3, time.Millisecond), WithPoolSize(2)}, opts...)
	p, err := NewPipeline(source, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestNewPipeline(t *testing.T) {
	t.Run("nil source", func(t *testing.T) {
		_, err := NewPipeline(nil)
		assert.ErrorIs(t, err, ErrSourceRequired)
	})

	t.Run("invalid retry", func(t *testing.T) {
		_, err := NewPipeline(&testSource{}, WithRetry(0, time.Second))
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		p, err := NewPipeline(&testSource{}, WithLogger(nil), WithPoolSize(0))
		require.NoError(t, err)
		defer p.Release()
		assert.NotNil(t, p.logger)
		assert.Equal(t, 1, p.scorePool.Cap())
	})
}

func TestRun_EndToEnd(t *testing.T) {
	ctx := context.Background()
	source := &testSource{docs: []*core.Document{mergedDoc(1), mergedDoc(2), mergedDoc(3)}}
	repo := setupRepo(t)
	file := jsonfile.NewCorpusFile(filepath.Join(t.TempDir(), "ingested_data.json"))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	p := newTestPipeline(t, source,
		WithDocumentRepository(repo),
		WithCorpusSink(file),
		WithLogger(logger))

	report, err := p.Run(ctx, "llvm/llvm-project", 10)
	require.NoError(t, err)

	assert.Equal(t, "llvm", source.owner)
	assert.Equal(t, "llvm-project", source.repo)
	assert.Equal(t, 10, source.limit)

	assert.Equal(t, "llvm/llvm-project", report.Repository)
	assert.Equal(t, 1, report.Attempts)
	assert.Len(t, report.Documents, 3)
	assert.Len(t, report.Added, 3)
	assert.True(t, report.Saved)
	assert.Zero(t, report.Rejected)
	require.Len(t, report.Attributions, 3)
	for i, a := range report.Attributions {
		assert.Same(t, report.Documents[i], a.Document, "attributions keep document order")
		assert.NotZero(t, a.Verdict)
	}

	stored, err := repo.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "dev1", stored[0].Author)

	loaded, err := file.LoadCorpus(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, "Fix crash in pass 3", loaded[2].SkillSignal)

	assert.Contains(t, logs.String(), "ingestion complete")

	t.Run("second run adds nothing new", func(t *testing.T) {
		report, err := p.Run(ctx, "llvm/llvm-project", 10)
		require.NoError(t, err)
		assert.Len(t, report.Documents, 3)
		assert.Empty(t, report.Added)

		count, err := repo.CountDocuments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})
}

func TestRun_RejectsInvalidDocuments(t *testing.T) {
	bad := mergedDoc(2)
	bad.Author = ""
	badTime := mergedDoc(3)
	badTime.MergedAt = "yesterday"
	source := &testSource{docs: []*core.Document{mergedDoc(1), bad, badTime}}
	p := newTestPipeline(t, source)

	report, err := p.Run(context.Background(), "llvm/llvm-project", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Rejected)
	require.Len(t, report.Documents, 1)
	assert.Equal(t, "dev1", report.Documents[0].Author)
	assert.Equal(t, core.DocumentID(report.Documents[0]), report.Documents[0].Id)
}

func TestRun_EmptyBatchLeavesSinkUntouched(t *testing.T) {
	sink := &testSink{}
	p := newTestPipeline(t, &testSource{}, WithCorpusSink(sink))

	report, err := p.Run(context.Background(), "llvm/llvm-project", 10)
	require.NoError(t, err)
	assert.Empty(t, report.Documents)
	assert.Empty(t, report.Attributions)
	assert.False(t, report.Saved)
	assert.Empty(t, sink.saved)
}

func TestRun_RetriesTransientFailures(t *testing.T) {
	source := &testSource{
		docs:     []*core.Document{mergedDoc(1)},
		failures: []error{errors.New("connection reset"), errors.New("502")},
	}
	p := newTestPipeline(t, source)

	report, err := p.Run(context.Background(), "llvm/llvm-project", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Attempts)
	assert.Len(t, report.Documents, 1)
}

func TestRun_GivesUpAfterMaxAttempts(t *testing.T) {
	persistent := errors.New("unreachable")
	source := &testSource{failures: []error{persistent, persistent, persistent, persistent}}
	p := newTestPipeline(t, source)

	_, err := p.Run(context.Background(), "llvm/llvm-project", 10)
	assert.ErrorIs(t, err, persistent)
	assert.Equal(t, 3, source.calls)
}

func TestRun_RetryPolicy(t *testing.T) {
	notFound := errors.New("404")
	source := &testSource{failures: []error{notFound}, docs: []*core.Document{mergedDoc(1)}}
	p := newTestPipeline(t, source, WithRetryPolicy(func(err error) bool {
		return !errors.Is(err, notFound)
	}))

	_, err := p.Run(context.Background(), "llvm/llvm-project", 10)
	assert.ErrorIs(t, err, notFound)
	assert.Equal(t, 1, source.calls, "permanent errors are not retried")
}

func TestRun_InvalidRepository(t *testing.T) {
	source := &testSource{}
	p := newTestPipeline(t, source)

	_, err := p.Run(context.Background(), "llvm", 10)
	assert.Error(t, err)
	assert.Zero(t, source.calls)
}

func TestRun_SinkError(t *testing.T) {
	sinkErr := errors.New("disk full")
	p := newTestPipeline(t, &testSource{docs: []*core.Document{mergedDoc(1)}},
		WithCorpusSink(&testSink{err: sinkErr}))

	_, err := p.Run(context.Background(), "llvm/llvm-project", 10)
	assert.ErrorIs(t, err, sinkErr)
}

func TestRun_Progress(t *testing.T) {
	var buf bytes.Buffer
	docs := make([]*core.Document, 0, 20)
	for i := 1; i <= 20; i++ {
		docs = append(docs, mergedDoc(i))
	}
	p := newTestPipeline(t, &testSource{docs: docs}, WithProgress(&buf))

	report, err := p.Run(context.Background(), "llvm/llvm-project", 20)
	require.NoError(t, err)
	assert.Len(t, report.Attributions, 20)
	assert.Contains(t, buf.String(), "Scoring: 20/20")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}
