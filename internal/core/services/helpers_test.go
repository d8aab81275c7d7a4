package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medgrain/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/medgrain/internal/core/domain"
	"github.com/custodia-labs/medgrain/internal/core/ports/driven"
	"github.com/custodia-labs/medgrain/internal/index"
	"github.com/custodia-labs/medgrain/internal/splitter"
	"github.com/custodia-labs/medgrain/internal/tokenizers/plain"
	"github.com/custodia-labs/medgrain/internal/tokenizers/stroke"
)

// --- Test fixtures ---

// newDocs builds documents straight from texts, bypassing ingestion.
func newDocs(texts ...string) []domain.Document {
	docs := make([]domain.Document, len(texts))
	for i, text := range texts {
		docs[i] = domain.Document{
			ID:         domain.NewDocumentID(text),
			Text:       text,
			Script:     domain.DetectScript(text),
			IngestedAt: time.Now(),
		}
	}
	return docs
}

// fixture wires a corpus store, a built index and a retriever around
// the given tokenizer.
type fixture struct {
	corpus    *memory.CorpusStore
	indexer   *IndexerService
	handle    *index.Handle
	retriever *RetrieverService
	index     *domain.Index
}

func newFixture(t *testing.T, tok driven.Tokenizer, ngram int, docs []domain.Document) *fixture {
	t.Helper()
	ctx := context.Background()

	corpus := memory.NewCorpusStore()
	for i := range docs {
		require.NoError(t, corpus.SaveDocument(ctx, &docs[i]))
	}

	indexer := NewIndexerService(tok, splitter.NewWindow(), WithNGram(ngram))
	ix, err := indexer.Build(ctx, docs)
	require.NoError(t, err)

	snap, err := index.NewSnapshot(ix)
	require.NoError(t, err)
	handle := index.NewHandle(snap)

	return &fixture{
		corpus:    corpus,
		indexer:   indexer,
		handle:    handle,
		retriever: NewRetrieverService(handle, tok, nil, corpus),
		index:     ix,
	}
}

func plainFixture(t *testing.T, texts ...string) *fixture {
	t.Helper()
	return newFixture(t, plain.New(), 2, newDocs(texts...))
}

func strokeFixture(t *testing.T, texts ...string) *fixture {
	t.Helper()
	tok, err := stroke.New()
	require.NoError(t, err)
	return newFixture(t, tok, 3, newDocs(texts...))
}
