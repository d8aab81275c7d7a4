package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/medgrain/internal/core/domain"
)

// BuildState describes the lifecycle of an index build.
type BuildState string

const (
	// BuildStateRunning means the build is in progress.
	BuildStateRunning BuildState = "running"

	// BuildStateCompleted means the build finished successfully.
	BuildStateCompleted BuildState = "completed"

	// BuildStateFailed means the build aborted with an error.
	BuildStateFailed BuildState = "failed"
)

// BuildStatus tracks a single build or append run.
type BuildStatus struct {
	// ID is the unique build-run identifier.
	ID string

	// State is the current lifecycle state.
	State BuildState

	// DocumentsIndexed is the number of documents processed so far.
	DocumentsIndexed int

	// StartedAt is when the run began.
	StartedAt time.Time

	// CompletedAt is when the run finished (zero while running).
	CompletedAt time.Time

	// Error holds the failure message when State is failed.
	Error string
}

// IndexBuilder constructs and extends index artifacts.
type IndexBuilder interface {
	// Build tokenizes and vectorizes the given documents into a new
	// index. Builds are idempotent: re-running on the same documents
	// yields an index with equal similarity rankings for any query.
	Build(ctx context.Context, docs []domain.Document) (*domain.Index, error)

	// Append extends an existing index with new documents without
	// invalidating previously issued entries. Returns a new index
	// value; the input is never mutated. Returns
	// domain.ErrTokenizerMismatch if the builder's tokenizer signature
	// differs from the index's.
	Append(ctx context.Context, index *domain.Index, docs []domain.Document) (*domain.Index, error)

	// LastBuild returns the status of the most recent build run, or
	// false if no build has run.
	LastBuild() (BuildStatus, bool)
}
