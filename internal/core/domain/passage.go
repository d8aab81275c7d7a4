package domain

// Passage is a single retrieval result. The text may be the whole
// document or a windowed slice of it.
type Passage struct {
	// DocumentID links to the source document.
	DocumentID string

	// Text is the passage content.
	Text string

	// Start is the rune offset of the passage within the document.
	Start int

	// End is the rune offset one past the passage within the document.
	End int

	// Score is the similarity score; higher is more relevant.
	Score float64

	// Rank is the 1-based dense rank after deduplication.
	Rank int
}

// ContextBlock is an ordered concatenation of passages bounded by a
// character budget, ready to condition a generation step.
type ContextBlock struct {
	// Passages is the ordered subsequence of the ranked input that
	// fit the budget. Order always matches input rank order.
	Passages []Passage

	// Text is the assembled context.
	Text string

	// Truncated is true if the budget cut off passage content.
	Truncated bool
}

// RetrieveOptions configures a retrieval call.
type RetrieveOptions struct {
	// TopK is the maximum number of passages to return. Must be > 0.
	TopK int
}

// GenerateOptions configures the generation backend.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// AnswerOptions configures the full retrieve-assemble-generate pipeline.
type AnswerOptions struct {
	// TopK is the maximum number of passages to retrieve (default 5).
	TopK int

	// ContextBudget is the character budget for the assembled context
	// (default 2000).
	ContextBudget int

	// Generate configures the generation backend.
	Generate GenerateOptions
}
