// Package plain provides a tokenizer that emits one token per
// Unicode code point. It supports every script and is the baseline
// the stroke and pinyin variants are compared against.
package plain

import (
	"github.com/custodia-labs/medgrain/internal/core/domain"
	"github.com/custodia-labs/medgrain/internal/core/ports/driven"
)

// Ensure Tokenizer implements the interface.
var _ driven.Tokenizer = (*Tokenizer)(nil)

// SignatureName is the recorded variant name and version.
const SignatureName = "plain/1"

// Tokenizer splits text into single code-point tokens.
type Tokenizer struct{}

// New creates a new plain character tokenizer.
func New() *Tokenizer {
	return &Tokenizer{}
}

// Tokenize emits one token per code point. Offsets are code-point
// indices into the source text. Concatenating the surfaces in order
// reconstructs the input exactly.
func (t *Tokenizer) Tokenize(text string, _ domain.Script) ([]domain.Token, error) {
	runes := []rune(text)
	tokens := make([]domain.Token, len(runes))
	for i, r := range runes {
		tokens[i] = domain.Token{
			Surface: string(r),
			Start:   i,
			End:     i + 1,
			Kind:    domain.KindPlain,
		}
	}
	return tokens, nil
}

// Supports reports true for every script.
func (t *Tokenizer) Supports(_ domain.Script) bool {
	return true
}

// Signature returns the variant name and version.
func (t *Tokenizer) Signature() string {
	return SignatureName
}
