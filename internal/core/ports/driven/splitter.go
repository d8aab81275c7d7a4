package driven

import "context"

// Span is a half-open rune-offset range within a document.
type Span struct {
	// Start is the rune offset of the span start.
	Start int

	// End is the rune offset one past the span end.
	End int
}

// Splitter divides document text into passage spans before indexing.
// Spans must cover the document in order and never overlap backwards;
// splitting the same text twice yields identical spans.
//
// Implementations include:
//   - window: fixed-size spans with overlap
//   - semantic: sentence grouping by embedding similarity
type Splitter interface {
	// Split returns the passage spans for text, in document order.
	// A non-empty text always yields at least one span.
	Split(ctx context.Context, text string) ([]Span, error)

	// Name returns the splitter identifier for logging.
	Name() string
}
