package domain

// TokenKind identifies which tokenizer variant produced a token.
type TokenKind string

const (
	// KindPlain is a single Unicode code point emitted as-is.
	KindPlain TokenKind = "plain"

	// KindStroke is one brush stroke of a decomposed Han character.
	KindStroke TokenKind = "stroke"

	// KindPinyin is a romanized syllable of a Han character.
	KindPinyin TokenKind = "pinyin"

	// KindUnknownHan is a Han character absent from the decomposition
	// table, emitted whole as a fallback.
	KindUnknownHan TokenKind = "unknown_han"
)

// Token is the atomic unit produced by a tokenizer. Tokens are
// ephemeral: they are recomputed per tokenization call and never
// persisted independently of the document they came from.
type Token struct {
	// Surface is the character, stroke symbol or syllable string.
	Surface string

	// Start is the rune offset of the owning character in the source text.
	Start int

	// End is the rune offset one past the owning character.
	End int

	// Kind identifies the producing tokenizer variant.
	Kind TokenKind
}

// TokenizedDocument is an ordered token sequence with a back-reference
// to the document it came from. Owned by the indexer during build,
// read-only thereafter.
type TokenizedDocument struct {
	// DocumentID links back to the source Document.
	DocumentID string

	// Tokens is the ordered token sequence.
	Tokens []Token
}

// Surfaces returns the token surfaces in order.
func (d *TokenizedDocument) Surfaces() []string {
	out := make([]string, len(d.Tokens))
	for i, t := range d.Tokens {
		out[i] = t.Surface
	}
	return out
}

// SpanSurfaces returns the surfaces of tokens whose owning character
// starts within [start, end). Offsets are rune offsets into the
// source text, matching Token.Start.
func (d *TokenizedDocument) SpanSurfaces(start, end int) []string {
	var out []string
	for i := range d.Tokens {
		if d.Tokens[i].Start >= start && d.Tokens[i].Start < end {
			out = append(out, d.Tokens[i].Surface)
		}
	}
	return out
}
