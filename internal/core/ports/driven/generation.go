package driven

import (
	"context"

	"github.com/custodia-labs/medgrain/internal/core/domain"
)

// GenerationService wraps a text-generation backend. The core treats
// the backend as opaque and swappable.
//
// The adapter always receives the assembled context block and the
// original query, never a pre-rendered prompt string the core cannot
// audit. Backend failures (timeout, malformed response) are surfaced
// wrapped in domain.ErrGenerationFailed and never converted into an
// empty answer.
//
// Implementations may include:
//   - OpenAI (chat completions)
//   - Ollama (local models)
type GenerationService interface {
	// Generate produces answer text conditioned on the context block
	// and query. It honours ctx cancellation and deadlines; a
	// cancelled call discards the in-flight result.
	Generate(ctx context.Context, block domain.ContextBlock, query string, opts domain.GenerateOptions) (string, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// Ping validates the backend is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
