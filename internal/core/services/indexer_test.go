package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medgrain/internal/core/domain"
	"github.com/custodia-labs/medgrain/internal/core/ports/driving"
	"github.com/custodia-labs/medgrain/internal/splitter"
	"github.com/custodia-labs/medgrain/internal/tokenizers/pinyin"
	"github.com/custodia-labs/medgrain/internal/tokenizers/plain"
)

func TestBuildIsIdempotent(t *testing.T) {
	docs := newDocs("fever for three days", "abdominal pain with vomiting")
	indexer := NewIndexerService(plain.New(), splitter.NewWindow(), WithNGram(2))
	ctx := context.Background()

	first, err := indexer.Build(ctx, docs)
	require.NoError(t, err)
	second, err := indexer.Build(ctx, docs)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildParallelMatchesSerial(t *testing.T) {
	texts := make([]string, 16)
	for i := range texts {
		texts[i] = strings.Repeat("note ", i+1) + "fever and cough"
	}
	docs := newDocs(texts...)
	ctx := context.Background()

	serial := NewIndexerService(plain.New(), splitter.NewWindow(), WithNGram(2), WithWorkers(1))
	parallel := NewIndexerService(plain.New(), splitter.NewWindow(), WithNGram(2), WithWorkers(8))

	want, err := serial.Build(ctx, docs)
	require.NoError(t, err)
	got, err := parallel.Build(ctx, docs)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestBuildSkipsDuplicateDocumentIDs(t *testing.T) {
	doc := newDocs("duplicated note")[0]
	indexer := NewIndexerService(plain.New(), splitter.NewWindow(), WithNGram(2))

	ix, err := indexer.Build(context.Background(), []domain.Document{doc, doc})
	require.NoError(t, err)
	assert.Len(t, ix.Entries, 1)
}

func TestBuildSplitsLongDocuments(t *testing.T) {
	long := strings.Repeat("chronic obstructive pulmonary disease. ", 30)
	indexer := NewIndexerService(plain.New(), splitter.NewWindow(), WithNGram(2))

	ix, err := indexer.Build(context.Background(), newDocs(long))
	require.NoError(t, err)
	assert.Greater(t, len(ix.Entries), 1)
	for _, entry := range ix.Entries {
		assert.NotEmpty(t, entry.Counts)
	}
}

func TestBuildRecordsSignature(t *testing.T) {
	tok, err := pinyin.New()
	require.NoError(t, err)
	indexer := NewIndexerService(tok, splitter.NewWindow(), WithNGram(1))

	ix, err := indexer.Build(context.Background(), newDocs("糖尿病"))
	require.NoError(t, err)
	assert.Equal(t, "pinyin/1", ix.Signature.Tokenizer)
	assert.Equal(t, domain.SchemeNgramTFIDF, ix.Signature.Scheme)
	assert.Equal(t, 1, ix.Signature.NGram)
}

func TestBuildTracksStatus(t *testing.T) {
	indexer := NewIndexerService(plain.New(), splitter.NewWindow())

	_, ok := indexer.LastBuild()
	assert.False(t, ok)

	_, err := indexer.Build(context.Background(), newDocs("note"))
	require.NoError(t, err)

	status, ok := indexer.LastBuild()
	require.True(t, ok)
	assert.Equal(t, driving.BuildStateCompleted, status.State)
	assert.Equal(t, 1, status.DocumentsIndexed)
	assert.NotEmpty(t, status.ID)
}

func TestAppendZeroDocumentsIsUnchanged(t *testing.T) {
	indexer := NewIndexerService(plain.New(), splitter.NewWindow(), WithNGram(2))
	ctx := context.Background()

	ix, err := indexer.Build(ctx, newDocs("fever", "cough"))
	require.NoError(t, err)

	appended, err := indexer.Append(ctx, ix, nil)
	require.NoError(t, err)
	assert.Equal(t, ix.Entries, appended.Entries)
	assert.Equal(t, ix.DocFreq, appended.DocFreq)
	assert.Equal(t, ix.Signature, appended.Signature)
}

func TestAppendExtendsWithoutTouchingExistingEntries(t *testing.T) {
	indexer := NewIndexerService(plain.New(), splitter.NewWindow(), WithNGram(2))
	ctx := context.Background()

	ix, err := indexer.Build(ctx, newDocs("fever for three days"))
	require.NoError(t, err)

	appended, err := indexer.Append(ctx, ix, newDocs("new abdominal note"))
	require.NoError(t, err)

	assert.Len(t, appended.Entries, 2)
	assert.Equal(t, ix.Entries[0], appended.Entries[0])
	// The original index value is untouched.
	assert.Len(t, ix.Entries, 1)
}

func TestAppendRejectsSignatureMismatch(t *testing.T) {
	builderA := NewIndexerService(plain.New(), splitter.NewWindow(), WithNGram(2))
	builderB := NewIndexerService(plain.New(), splitter.NewWindow(), WithNGram(3))
	ctx := context.Background()

	ix, err := builderA.Build(ctx, newDocs("fever"))
	require.NoError(t, err)

	_, err = builderB.Append(ctx, ix, newDocs("cough"))
	assert.ErrorIs(t, err, domain.ErrTokenizerMismatch)
}

func TestAppendRejectsAlreadyIndexedDocument(t *testing.T) {
	indexer := NewIndexerService(plain.New(), splitter.NewWindow(), WithNGram(2))
	ctx := context.Background()

	docs := newDocs("fever for three days")
	ix, err := indexer.Build(ctx, docs)
	require.NoError(t, err)

	_, err = indexer.Append(ctx, ix, docs)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestBuildFailureRecordsStatus(t *testing.T) {
	tok, err := pinyin.New()
	require.NoError(t, err)
	indexer := NewIndexerService(tok, splitter.NewWindow(), WithNGram(1))

	// The pinyin tokenizer rejects pure Latin text.
	_, err = indexer.Build(context.Background(), newDocs("latin only note"))
	require.ErrorIs(t, err, domain.ErrUnsupportedScript)

	status, ok := indexer.LastBuild()
	require.True(t, ok)
	assert.Equal(t, driving.BuildStateFailed, status.State)
	assert.NotEmpty(t, status.Error)
}
