package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/medgrain/internal/core/domain"
	"github.com/custodia-labs/medgrain/internal/core/ports/driving"
	"github.com/custodia-labs/medgrain/internal/logger"
)

// Ensure AssemblerService implements the interface.
var _ driving.Assembler = (*AssemblerService)(nil)

// passageSeparator joins passages in the assembled context.
const passageSeparator = "\n\n"

// AssemblerService merges ranked passages into a bounded context
// block. Greedy in rank order: it never reorders and never splits a
// passage except when the very first one alone exceeds the budget.
type AssemblerService struct{}

// NewAssemblerService creates a new assembler.
func NewAssemblerService() *AssemblerService {
	return &AssemblerService{}
}

// Assemble packs passages under a character budget. The budget counts
// runes of the assembled text, separators included.
func (s *AssemblerService) Assemble(passages []domain.Passage, budget int) (domain.ContextBlock, error) {
	if budget <= 0 {
		return domain.ContextBlock{}, fmt.Errorf("budget must be > 0, got %d: %w", budget, domain.ErrInvalidInput)
	}

	block := domain.ContextBlock{}
	var b strings.Builder
	used := 0
	sepLen := len([]rune(passageSeparator))

	for _, passage := range passages {
		cost := len([]rune(passage.Text))
		if len(block.Passages) > 0 {
			cost += sepLen
		}

		if used+cost > budget {
			if len(block.Passages) == 0 {
				// The top passage alone exceeds the budget: truncate
				// it to fit rather than returning nothing.
				truncated := passage
				truncated.Text = string([]rune(passage.Text)[:budget])
				truncated.End = truncated.Start + budget
				block.Passages = append(block.Passages, truncated)
				b.WriteString(truncated.Text)
				used = budget
				block.Truncated = true
				logger.Debug("Truncated rank-1 passage to %d runes", budget)
			}
			// Later passages that do not fit are omitted intact.
			continue
		}

		if len(block.Passages) > 0 {
			b.WriteString(passageSeparator)
		}
		b.WriteString(passage.Text)
		block.Passages = append(block.Passages, passage)
		used += cost
	}

	block.Text = b.String()
	logger.Debug("Assembled %d/%d passages, %d/%d runes, truncated=%t",
		len(block.Passages), len(passages), used, budget, block.Truncated)
	return block, nil
}
