package driving

import (
	"context"

	"github.com/custodia-labs/medgrain/internal/core/domain"
)

// RawDocument is the corpus ingestion boundary: raw text plus
// arbitrary metadata, before an identifier is assigned.
type RawDocument struct {
	// Text is the raw document text.
	Text string

	// Metadata contains arbitrary key-value pairs (source file, section).
	Metadata map[string]string
}

// IngestService accepts raw corpus text and produces immutable
// documents with deterministic content-hash identifiers.
type IngestService interface {
	// Ingest stores the given raw documents. Repeated ingestion of
	// identical text is idempotent: same ID, no duplicate entry.
	// Returns the documents in input order.
	Ingest(ctx context.Context, raws []RawDocument) ([]domain.Document, error)
}
