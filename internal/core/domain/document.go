package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
	"unicode"
)

// Script identifies the writing system of a document or query.
type Script string

const (
	// ScriptLatin is Latin-character text (English medical notes, etc).
	ScriptLatin Script = "latin"

	// ScriptHan is Chinese ideographic text.
	ScriptHan Script = "han"

	// ScriptMixed is text containing both Latin and Han characters.
	ScriptMixed Script = "mixed"
)

// Document represents an immutable unit of corpus text.
// Documents are created at ingestion and never mutated; removal
// requires a full reindex.
type Document struct {
	// ID is the content-derived identifier, stable across rebuilds.
	// Ingesting identical text always yields the same ID.
	ID string

	// Text is the raw document text.
	Text string

	// Script is the detected or declared writing system.
	Script Script

	// Metadata contains arbitrary key-value pairs (source file, section).
	Metadata map[string]string

	// IngestedAt is when the document entered the corpus.
	IngestedAt time.Time
}

// DocumentIDLength is the number of hex characters in a document ID.
const DocumentIDLength = 16

// NewDocumentID derives a deterministic identifier from raw text.
// It is the first 16 hex characters of the SHA-256 of the text, so
// repeated ingestion of identical text is idempotent.
func NewDocumentID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:DocumentIDLength]
}

// DetectScript classifies text by the characters it contains.
// Text with at least one Han character and at least one Latin letter
// is ScriptMixed; Han-only text is ScriptHan; everything else
// (including digits and punctuation) is ScriptLatin.
func DetectScript(text string) Script {
	var hasHan, hasLatin bool
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			hasHan = true
		case unicode.IsLetter(r):
			hasLatin = true
		}
		if hasHan && hasLatin {
			return ScriptMixed
		}
	}
	if hasHan {
		return ScriptHan
	}
	return ScriptLatin
}
