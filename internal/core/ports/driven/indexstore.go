package driven

import (
	"context"

	"github.com/custodia-labs/medgrain/internal/core/domain"
)

// IndexStore persists and loads index artifacts. The stored form must
// record the full signature and every corpus statistic needed to
// reproduce query-time vectors identically.
type IndexStore interface {
	// Persist writes the index, replacing any previously stored one.
	// The write is atomic with respect to Load: a concurrent Load sees
	// either the old index or the new one, never a partial write.
	Persist(ctx context.Context, index *domain.Index) error

	// Load reads the stored index. Returns domain.ErrNotFound if no
	// index has been persisted, or domain.ErrIndexCorrupt if the
	// stored signature cannot be parsed or the stored entries are
	// inconsistent with the signature.
	Load(ctx context.Context) (*domain.Index, error)

	// Close releases resources.
	Close() error
}
