package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/medgrain/internal/core/domain"
	"github.com/custodia-labs/medgrain/internal/core/ports/driven"
	"github.com/custodia-labs/medgrain/internal/core/ports/driving"
	"github.com/custodia-labs/medgrain/internal/logger"
)

// Ensure AnswerPipeline implements the interface.
var _ driving.AnswerService = (*AnswerPipeline)(nil)

// Default pipeline parameters.
const (
	DefaultTopK          = 5
	DefaultContextBudget = 2000
)

// AnswerPipeline runs retrieve, assemble and generate as one
// operation. The generation backend is optional only in the sense
// that constructing the pipeline without one fails fast at Answer.
type AnswerPipeline struct {
	retriever driving.Retriever
	assembler driving.Assembler
	generator driven.GenerationService
}

// NewAnswerPipeline creates the full pipeline.
func NewAnswerPipeline(retriever driving.Retriever, assembler driving.Assembler, generator driven.GenerationService) *AnswerPipeline {
	return &AnswerPipeline{
		retriever: retriever,
		assembler: assembler,
		generator: generator,
	}
}

// Answer retrieves passages for the query, assembles the context
// block and asks the backend for an answer. Backend failures come
// back wrapped in domain.ErrGenerationFailed, never as an empty
// answer.
func (p *AnswerPipeline) Answer(ctx context.Context, query string, opts domain.AnswerOptions) (driving.Answer, error) {
	logger.Section("Answer Pipeline")

	if p.generator == nil {
		return driving.Answer{}, domain.ErrGenerationUnavailable
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	budget := opts.ContextBudget
	if budget <= 0 {
		budget = DefaultContextBudget
	}

	passages, err := p.retriever.Retrieve(ctx, query, domain.RetrieveOptions{TopK: topK})
	if err != nil {
		return driving.Answer{}, fmt.Errorf("retrieve: %w", err)
	}

	block, err := p.assembler.Assemble(passages, budget)
	if err != nil {
		return driving.Answer{}, fmt.Errorf("assemble context: %w", err)
	}

	text, err := p.generator.Generate(ctx, block, query, opts.Generate)
	if err != nil {
		return driving.Answer{}, fmt.Errorf("generate: %w", err)
	}

	logger.Info("Answer generated from %d passages", len(block.Passages))
	return driving.Answer{
		Text:     text,
		Context:  block,
		Passages: passages,
	}, nil
}
