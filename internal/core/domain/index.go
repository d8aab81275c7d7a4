package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Representation schemes recorded in an index signature.
const (
	// SchemeNgramTFIDF is the sparse n-gram TF-IDF representation.
	SchemeNgramTFIDF = "ngram-tfidf/1"

	// SchemeDense is the dense embedding representation. The embedding
	// model name is recorded alongside in Signature.Model.
	SchemeDense = "dense/1"
)

// Signature identifies the tokenizer and representation scheme that
// produced an index. Indices built with different signatures are never
// comparable; a mismatch is always rejected.
type Signature struct {
	// Tokenizer is the tokenizer variant name and version, e.g. "stroke/1".
	Tokenizer string

	// Scheme is the representation scheme identifier.
	Scheme string

	// NGram is the n-gram order for SchemeNgramTFIDF (0 otherwise).
	NGram int

	// Model is the embedding model name for SchemeDense (empty otherwise).
	Model string
}

// String renders the signature in its persisted form, e.g.
// "stroke/1|ngram-tfidf/1|n=3" or "plain/1|dense/1|model=nomic-embed-text".
func (s Signature) String() string {
	switch s.Scheme {
	case SchemeDense:
		return fmt.Sprintf("%s|%s|model=%s", s.Tokenizer, s.Scheme, s.Model)
	default:
		return fmt.Sprintf("%s|%s|n=%d", s.Tokenizer, s.Scheme, s.NGram)
	}
}

// ParseSignature parses the persisted signature form.
// Returns ErrIndexCorrupt if the string is not a recognised signature.
func ParseSignature(raw string) (Signature, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 3 || parts[0] == "" {
		return Signature{}, fmt.Errorf("parse signature %q: %w", raw, ErrIndexCorrupt)
	}
	sig := Signature{Tokenizer: parts[0], Scheme: parts[1]}
	switch sig.Scheme {
	case SchemeNgramTFIDF:
		order, ok := strings.CutPrefix(parts[2], "n=")
		if !ok {
			return Signature{}, fmt.Errorf("parse signature %q: %w", raw, ErrIndexCorrupt)
		}
		n, err := strconv.Atoi(order)
		if err != nil || n < 1 {
			return Signature{}, fmt.Errorf("parse signature %q: %w", raw, ErrIndexCorrupt)
		}
		sig.NGram = n
	case SchemeDense:
		model, ok := strings.CutPrefix(parts[2], "model=")
		if !ok || model == "" {
			return Signature{}, fmt.Errorf("parse signature %q: %w", raw, ErrIndexCorrupt)
		}
		sig.Model = model
	default:
		return Signature{}, fmt.Errorf("unknown scheme in signature %q: %w", raw, ErrIndexCorrupt)
	}
	return sig, nil
}

// IndexEntry is one indexed passage: a windowed slice of a document
// together with its persisted representation. Counts holds raw n-gram
// counts for the sparse scheme; Dense holds the embedding for the
// dense scheme. Exactly one of the two is populated.
type IndexEntry struct {
	// ID uniquely identifies the entry within the index.
	ID string

	// DocumentID links back to the source document.
	DocumentID string

	// Start is the rune offset of the passage within the document.
	Start int

	// End is the rune offset one past the passage within the document.
	End int

	// Counts maps n-gram term to occurrence count (sparse scheme).
	Counts map[string]int

	// Dense is the embedding vector (dense scheme).
	Dense []float32
}

// Index is the persisted retrieval artifact: the signature, every
// entry's representation, and the corpus statistics needed to
// reproduce query-time vectors identically. Immutable once built;
// append produces a new Index value.
type Index struct {
	// Signature identifies how the representations were produced.
	Signature Signature

	// Entries is the ordered list of indexed passages.
	Entries []IndexEntry

	// DocFreq maps n-gram term to the number of entries containing it
	// (sparse scheme only).
	DocFreq map[string]int
}

// Validate checks internal consistency: every entry carries the
// representation its signature requires and entry IDs are unique.
// Returns ErrIndexCorrupt on any inconsistency.
func (ix *Index) Validate() error {
	seen := make(map[string]struct{}, len(ix.Entries))
	for i := range ix.Entries {
		e := &ix.Entries[i]
		if e.ID == "" || e.DocumentID == "" {
			return fmt.Errorf("entry %d missing identifier: %w", i, ErrIndexCorrupt)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("duplicate entry id %s: %w", e.ID, ErrIndexCorrupt)
		}
		seen[e.ID] = struct{}{}
		switch ix.Signature.Scheme {
		case SchemeNgramTFIDF:
			if e.Counts == nil {
				return fmt.Errorf("entry %s has no term counts: %w", e.ID, ErrIndexCorrupt)
			}
		case SchemeDense:
			if len(e.Dense) == 0 {
				return fmt.Errorf("entry %s has no embedding: %w", e.ID, ErrIndexCorrupt)
			}
		default:
			return fmt.Errorf("unknown scheme %q: %w", ix.Signature.Scheme, ErrIndexCorrupt)
		}
	}
	return nil
}
