package index

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medgrain/internal/core/domain"
)

func sparseSig() domain.Signature {
	return domain.Signature{Tokenizer: "plain/1", Scheme: domain.SchemeNgramTFIDF, NGram: 2}
}

func TestNGramCounts(t *testing.T) {
	t.Run("bigrams", func(t *testing.T) {
		counts := NGramCounts([]string{"a", "b", "a", "b"}, 2)
		assert.Equal(t, map[string]int{
			"a" + ngramSep + "b": 2,
			"b" + ngramSep + "a": 1,
		}, counts)
	})

	t.Run("shorter than n collapses to one term", func(t *testing.T) {
		counts := NGramCounts([]string{"a"}, 3)
		assert.Equal(t, map[string]int{"a": 1}, counts)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, NGramCounts(nil, 2))
	})

	t.Run("multi-character surfaces do not collide", func(t *testing.T) {
		ab := NGramCounts([]string{"ab", "c"}, 2)
		a := NGramCounts([]string{"a", "bc"}, 2)
		for term := range ab {
			assert.NotContains(t, a, term)
		}
	})
}

func TestNewSnapshotRejectsCorrupt(t *testing.T) {
	ix := &domain.Index{
		Signature: sparseSig(),
		Entries:   []domain.IndexEntry{{ID: "e1", DocumentID: "d1"}},
	}
	_, err := NewSnapshot(ix)
	assert.ErrorIs(t, err, domain.ErrIndexCorrupt)
}

func TestScoreCountsRanksSharedTermsHigher(t *testing.T) {
	ix := &domain.Index{
		Signature: sparseSig(),
		Entries: []domain.IndexEntry{
			{ID: "e1", DocumentID: "d1", Counts: map[string]int{"fe": 2, "ve": 1}},
			{ID: "e2", DocumentID: "d2", Counts: map[string]int{"xx": 3}},
		},
		DocFreq: map[string]int{"fe": 1, "ve": 1, "xx": 1},
	}
	snap, err := NewSnapshot(ix)
	require.NoError(t, err)

	hits := snap.ScoreCounts(map[string]int{"fe": 1})
	require.Len(t, hits, 2)
	assert.Greater(t, hits[0].Score, 0.0)
	assert.Equal(t, 0.0, hits[1].Score)
}

func TestScoreCountsSelfSimilarityIsMaximal(t *testing.T) {
	counts := map[string]int{"ab": 2, "bc": 1, "cd": 4}
	ix := &domain.Index{
		Signature: sparseSig(),
		Entries: []domain.IndexEntry{
			{ID: "e1", DocumentID: "d1", Counts: counts},
			{ID: "e2", DocumentID: "d2", Counts: map[string]int{"ab": 1, "zz": 5}},
		},
		DocFreq: map[string]int{"ab": 2, "bc": 1, "cd": 1, "zz": 1},
	}
	snap, err := NewSnapshot(ix)
	require.NoError(t, err)

	hits := snap.ScoreCounts(counts)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestScoreCountsEmptyQuery(t *testing.T) {
	ix := &domain.Index{
		Signature: sparseSig(),
		Entries:   []domain.IndexEntry{{ID: "e1", DocumentID: "d1", Counts: map[string]int{"ab": 1}}},
		DocFreq:   map[string]int{"ab": 1},
	}
	snap, err := NewSnapshot(ix)
	require.NoError(t, err)

	_, qnorm := snap.QueryWeights(map[string]int{})
	assert.Equal(t, 0.0, qnorm)

	hits := snap.ScoreCounts(map[string]int{})
	for _, h := range hits {
		assert.Equal(t, 0.0, h.Score)
	}
}

func TestScoreDense(t *testing.T) {
	ix := &domain.Index{
		Signature: domain.Signature{Tokenizer: "plain/1", Scheme: domain.SchemeDense, Model: "m"},
		Entries: []domain.IndexEntry{
			{ID: "e1", DocumentID: "d1", Dense: []float32{1, 0}},
			{ID: "e2", DocumentID: "d2", Dense: []float32{0, 1}},
		},
	}
	snap, err := NewSnapshot(ix)
	require.NoError(t, err)

	hits := snap.ScoreDense([]float32{1, 0})
	require.Len(t, hits, 2)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.InDelta(t, 0.0, hits[1].Score, 1e-9)
}

func TestHandleSwap(t *testing.T) {
	ix := &domain.Index{Signature: sparseSig(), DocFreq: map[string]int{}}
	first, err := NewSnapshot(ix)
	require.NoError(t, err)

	h := NewHandle(nil)
	assert.Nil(t, h.Load())

	h.Swap(first)
	assert.Same(t, first, h.Load())

	// Concurrent readers against a swap must not race.
	second, err := NewSnapshot(ix)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s := h.Load()
				assert.NotNil(t, s)
			}
		}()
	}
	h.Swap(second)
	wg.Wait()
	assert.Same(t, second, h.Load())
}
