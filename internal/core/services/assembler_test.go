package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medgrain/internal/core/domain"
)

func rankedPassages(texts ...string) []domain.Passage {
	passages := make([]domain.Passage, len(texts))
	for i, text := range texts {
		passages[i] = domain.Passage{
			DocumentID: domain.NewDocumentID(text),
			Text:       text,
			End:        len([]rune(text)),
			Score:      1.0 - float64(i)*0.1,
			Rank:       i + 1,
		}
	}
	return passages
}

func TestAssembleWithinBudget(t *testing.T) {
	asm := NewAssemblerService()
	passages := rankedPassages("first passage", "second passage")

	block, err := asm.Assemble(passages, 100)
	require.NoError(t, err)

	assert.False(t, block.Truncated)
	assert.Len(t, block.Passages, 2)
	assert.Equal(t, "first passage\n\nsecond passage", block.Text)
	assert.LessOrEqual(t, len([]rune(block.Text)), 100)
}

func TestAssembleOmitsOverflowingPassage(t *testing.T) {
	asm := NewAssemblerService()
	passages := rankedPassages("aaaaaaaaaa", strings.Repeat("b", 50), "cc")

	block, err := asm.Assemble(passages, 20)
	require.NoError(t, err)

	// The 50-rune passage is omitted intact; the later short one fits.
	require.Len(t, block.Passages, 2)
	assert.Equal(t, "aaaaaaaaaa", block.Passages[0].Text)
	assert.Equal(t, "cc", block.Passages[1].Text)
	assert.False(t, block.Truncated)
	assert.LessOrEqual(t, len([]rune(block.Text)), 20)
}

func TestAssembleTruncatesFirstOversizedPassage(t *testing.T) {
	asm := NewAssemblerService()
	passages := rankedPassages(strings.Repeat("x", 100), "short")

	block, err := asm.Assemble(passages, 30)
	require.NoError(t, err)

	assert.True(t, block.Truncated)
	require.NotEmpty(t, block.Passages)
	assert.Equal(t, strings.Repeat("x", 30), block.Passages[0].Text)
	assert.LessOrEqual(t, len([]rune(block.Text)), 30)
}

func TestAssemblePreservesRankOrder(t *testing.T) {
	asm := NewAssemblerService()
	passages := rankedPassages("one", "two", "three", "four")

	block, err := asm.Assemble(passages, 1000)
	require.NoError(t, err)

	require.Len(t, block.Passages, 4)
	for i, p := range block.Passages {
		assert.Equal(t, passages[i].Text, p.Text)
	}
}

func TestAssembleCountsRunesNotBytes(t *testing.T) {
	asm := NewAssemblerService()
	passages := rankedPassages("发热三天伴咳嗽咳痰")

	block, err := asm.Assemble(passages, 4)
	require.NoError(t, err)

	assert.True(t, block.Truncated)
	assert.Equal(t, "发热三天", block.Text)
}

func TestAssembleRejectsNonPositiveBudget(t *testing.T) {
	asm := NewAssemblerService()

	for _, budget := range []int{0, -5} {
		_, err := asm.Assemble(rankedPassages("a"), budget)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}

func TestAssembleEmptyInput(t *testing.T) {
	asm := NewAssemblerService()

	block, err := asm.Assemble(nil, 10)
	require.NoError(t, err)
	assert.Empty(t, block.Passages)
	assert.Empty(t, block.Text)
	assert.False(t, block.Truncated)
}
