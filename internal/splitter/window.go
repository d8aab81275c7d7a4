package splitter

import (
	"context"

	"github.com/custodia-labs/medgrain/internal/core/ports/driven"
)

// Ensure Window implements the interface.
var _ driven.Splitter = (*Window)(nil)

// DefaultWindowSize is the default number of runes per span.
const DefaultWindowSize = 400

// DefaultWindowOverlap is the default number of overlapping runes.
const DefaultWindowOverlap = 80

// Window splits text into fixed-size rune spans with overlap.
type Window struct {
	size    int
	overlap int
}

// WindowOption configures the window splitter.
type WindowOption func(*Window)

// WithSize sets the span size in runes.
func WithSize(size int) WindowOption {
	return func(w *Window) {
		if size > 0 {
			w.size = size
		}
	}
}

// WithOverlap sets the overlap between spans in runes.
func WithOverlap(overlap int) WindowOption {
	return func(w *Window) {
		if overlap >= 0 {
			w.overlap = overlap
		}
	}
}

// NewWindow creates a window splitter with the given options.
func NewWindow(opts ...WindowOption) *Window {
	w := &Window{
		size:    DefaultWindowSize,
		overlap: DefaultWindowOverlap,
	}
	for _, opt := range opts {
		opt(w)
	}
	// Overlap must leave the window moving forward.
	if w.overlap >= w.size {
		w.overlap = w.size / 4
	}
	return w
}

// Split returns fixed-size spans covering the text. The final span
// may be shorter; empty text yields no spans.
func (w *Window) Split(_ context.Context, text string) ([]driven.Span, error) {
	total := len([]rune(text))
	if total == 0 {
		return nil, nil
	}

	step := w.size - w.overlap
	var spans []driven.Span
	for start := 0; start < total; start += step {
		end := start + w.size
		if end > total {
			end = total
		}
		spans = append(spans, driven.Span{Start: start, End: end})
		if end == total {
			break
		}
	}
	return spans, nil
}

// Name returns the splitter identifier.
func (w *Window) Name() string {
	return "window"
}
