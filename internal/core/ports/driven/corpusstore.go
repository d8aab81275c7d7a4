package driven

import (
	"context"

	"github.com/custodia-labs/medgrain/internal/core/domain"
)

// CorpusStore persists ingested documents. Documents are immutable:
// saving a document whose ID already exists is a no-op (content-hash
// IDs make repeated ingestion of identical text idempotent).
type CorpusStore interface {
	// SaveDocument stores a document. Returns domain.ErrAlreadyExists
	// if a different document with the same ID is already present.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if absent.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all documents ordered by ID.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// Close releases resources.
	Close() error
}
