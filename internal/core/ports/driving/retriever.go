package driving

import (
	"context"

	"github.com/custodia-labs/medgrain/internal/core/domain"
)

// Retriever ranks indexed passages against a query.
type Retriever interface {
	// Retrieve tokenizes the query with the index's recorded
	// tokenizer, scores every indexed passage, and returns at most
	// opts.TopK passages sorted by descending score with ties broken
	// by ascending document id. Passages from the same document are
	// deduplicated, keeping the highest-scoring one. An index with
	// zero entries yields an empty result, not an error.
	Retrieve(ctx context.Context, query string, opts domain.RetrieveOptions) ([]domain.Passage, error)
}

// Assembler merges ranked passages into a bounded context block.
type Assembler interface {
	// Assemble greedily packs passages in rank order under the given
	// character budget. The first passage that alone exceeds the
	// budget is truncated to fit; a passage that would overflow a
	// non-empty block is omitted intact. Output order always matches
	// input rank order.
	Assemble(passages []domain.Passage, budget int) (domain.ContextBlock, error)
}

// AnswerService runs the full retrieval-augmented generation pipeline.
type AnswerService interface {
	// Answer retrieves passages for the query, assembles a context
	// block, and asks the generation backend for an answer.
	Answer(ctx context.Context, query string, opts domain.AnswerOptions) (Answer, error)
}

// Answer is the pipeline output: the generated text plus the evidence
// it was conditioned on, for auditability.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Context is the assembled context block the backend saw.
	Context domain.ContextBlock

	// Passages is the full ranked retrieval result before assembly.
	Passages []domain.Passage
}
