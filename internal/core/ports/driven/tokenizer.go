package driven

import (
	"github.com/custodia-labs/medgrain/internal/core/domain"
)

// Tokenizer splits text into character-granular tokens.
//
// Implementations must be deterministic: tokenizing the same text
// twice always yields byte-identical token sequences, with no
// randomness and no locale dependence.
//
// Implementations include:
//   - plain: one token per Unicode code point
//   - stroke: Han characters decomposed to stroke sequences
//   - pinyin: Han characters mapped to romanized syllables
type Tokenizer interface {
	// Tokenize produces the ordered token sequence for text.
	// Returns domain.ErrUnsupportedScript if the script is not
	// supported and no fallback is defined.
	Tokenize(text string, script domain.Script) ([]domain.Token, error)

	// Supports reports whether the tokenizer handles the given script.
	Supports(script domain.Script) bool

	// Signature returns the variant name and version, e.g. "stroke/1".
	// It is recorded in every index the tokenizer contributes to and
	// compared on retrieval and append.
	Signature() string
}
