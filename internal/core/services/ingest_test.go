package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medgrain/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/medgrain/internal/core/domain"
	"github.com/custodia-labs/medgrain/internal/core/ports/driving"
)

func TestIngestAssignsContentHashIDs(t *testing.T) {
	svc := NewIngestService(memory.NewCorpusStore())
	ctx := context.Background()

	docs, err := svc.Ingest(ctx, []driving.RawDocument{
		{Text: "发热三天, 咳嗽", Metadata: map[string]string{"source": "ward-a.txt"}},
		{Text: "腹痛伴呕吐"},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, domain.NewDocumentID("发热三天, 咳嗽"), docs[0].ID)
	assert.Equal(t, domain.ScriptHan, docs[1].Script)
	assert.Equal(t, "ward-a.txt", docs[0].Metadata["source"])
}

func TestIngestIdempotent(t *testing.T) {
	store := memory.NewCorpusStore()
	svc := NewIngestService(store)
	ctx := context.Background()

	raws := []driving.RawDocument{{Text: "same medical note"}}

	first, err := svc.Ingest(ctx, raws)
	require.NoError(t, err)
	second, err := svc.Ingest(ctx, raws)
	require.NoError(t, err)

	assert.Equal(t, first[0].ID, second[0].ID)

	all, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestIngestRejectsEmptyText(t *testing.T) {
	svc := NewIngestService(memory.NewCorpusStore())

	_, err := svc.Ingest(context.Background(), []driving.RawDocument{{Text: ""}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
