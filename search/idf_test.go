package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/signalsearch/core"
)

func docs(titles ...string) []*core.Document {
	corpus := make([]*core.Document, len(titles))
	for i, title := range titles {
		corpus[i] = &core.Document{Author: "author", SkillSignal: title}
	}
	return corpus
}

func TestBuildIDF(t *testing.T) {
	corpus := docs("Fix bug in parser", "Add new feature", "Fix memory leak", "Update documentation")
	idf := BuildIDF(corpus)

	assert.Equal(t, 4, idf.DocumentCount())
	assert.Equal(t, 11, idf.Len())
	assert.InDelta(t, math.Log(4.0/3.0), idf.Weight("fix"), 1e-12)
	assert.InDelta(t, math.Log(4.0/2.0), idf.Weight("bug"), 1e-12)
	assert.True(t, idf.Contains("documentation"))
}

func TestBuildIDF_CountsPresenceNotOccurrence(t *testing.T) {
	corpus := docs("leak leak leak leak", "other words")
	idf := BuildIDF(corpus)

	// df(leak) = 1 regardless of four occurrences
	assert.InDelta(t, math.Log(2.0/2.0), idf.Weight("leak"), 1e-12)
}

func TestBuildIDF_IncludesContext(t *testing.T) {
	corpus := []*core.Document{
		{SkillSignal: "Fix crash", Context: "Null check in Sema"},
	}
	idf := BuildIDF(corpus)

	assert.True(t, idf.Contains("sema"))
	assert.True(t, idf.Contains("crash"))
	assert.Equal(t, 6, idf.Len())
}

func TestBuildIDF_AbsentTermIsZero(t *testing.T) {
	idf := BuildIDF(docs("Fix bug", "Add feature"))

	assert.Equal(t, 0.0, idf.Weight("nonexistent"))
	assert.False(t, idf.Contains("nonexistent"))
}

func TestBuildIDF_UniversalTermIsNegative(t *testing.T) {
	for _, n := range []int{1, 2, 5, 50} {
		titles := make([]string, n)
		for i := range titles {
			titles[i] = "common term"
		}
		idf := BuildIDF(docs(titles...))

		want := math.Log(float64(n) / float64(n+1))
		assert.InDelta(t, want, idf.Weight("common"), 1e-12)
		assert.Less(t, idf.Weight("common"), 0.0)
	}
}

func TestBuildIDF_EmptyCorpus(t *testing.T) {
	idf := BuildIDF(nil)

	assert.Equal(t, 0, idf.Len())
	assert.Equal(t, 0, idf.DocumentCount())
	assert.Equal(t, 0.0, idf.Weight("anything"))
}
