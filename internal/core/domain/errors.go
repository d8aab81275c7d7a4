package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedScript indicates a tokenizer was invoked on text
	// whose script it does not support and no fallback is defined.
	// Recoverable by selecting another tokenizer.
	ErrUnsupportedScript = errors.New("unsupported script")

	// ErrTokenizerMismatch indicates an attempt to use a tokenizer
	// against an index built with a different tokenizer signature.
	// Fatal to the operation; never silently reconciled.
	ErrTokenizerMismatch = errors.New("tokenizer signature mismatch")

	// ErrIndexCorrupt indicates a persisted index is unreadable or
	// internally inconsistent. Fatal; the caller must rebuild.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrEmptyQuery indicates the tokenized query yields zero tokens
	// and no valid vector can be produced. Recoverable; the caller
	// may re-prompt.
	ErrEmptyQuery = errors.New("empty query")

	// ErrGenerationFailed indicates the generation backend failed.
	// Backend detail is wrapped alongside, never masked as empty output.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrGenerationUnavailable indicates no generation backend is
	// configured. Retrieval-only use remains possible.
	ErrGenerationUnavailable = errors.New("generation backend unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. The dense representation scheme is disabled.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
