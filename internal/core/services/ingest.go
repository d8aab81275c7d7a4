package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/medgrain/internal/core/domain"
	"github.com/custodia-labs/medgrain/internal/core/ports/driven"
	"github.com/custodia-labs/medgrain/internal/core/ports/driving"
	"github.com/custodia-labs/medgrain/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService turns raw (text, metadata) pairs into immutable
// documents with deterministic content-hash identifiers.
type IngestService struct {
	store driven.CorpusStore
}

// NewIngestService creates a new ingest service.
func NewIngestService(store driven.CorpusStore) *IngestService {
	return &IngestService{store: store}
}

// Ingest stores the given raw documents. Identical text always maps
// to the same document id, so re-ingesting a corpus is idempotent.
func (s *IngestService) Ingest(ctx context.Context, raws []driving.RawDocument) ([]domain.Document, error) {
	logger.Section("Corpus Ingestion")
	logger.Debug("Ingesting %d raw documents", len(raws))

	docs := make([]domain.Document, 0, len(raws))
	for i, raw := range raws {
		if raw.Text == "" {
			return nil, fmt.Errorf("ingest document %d: empty text: %w", i, domain.ErrInvalidInput)
		}

		doc := domain.Document{
			ID:         domain.NewDocumentID(raw.Text),
			Text:       raw.Text,
			Script:     domain.DetectScript(raw.Text),
			Metadata:   raw.Metadata,
			IngestedAt: time.Now(),
		}

		if err := s.store.SaveDocument(ctx, &doc); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return nil, fmt.Errorf("document %s collides with different text: %w", doc.ID, err)
			}
			return nil, fmt.Errorf("save document %s: %w", doc.ID, err)
		}
		docs = append(docs, doc)
	}

	logger.Info("Ingested %d documents", len(docs))
	return docs, nil
}
