package splitter

import (
	"context"
	"fmt"
	"math"

	"github.com/custodia-labs/medgrain/internal/core/ports/driven"
	"github.com/custodia-labs/medgrain/internal/logger"
)

// Ensure Semantic implements the interface.
var _ driven.Splitter = (*Semantic)(nil)

// DefaultNStd is the default number of standard deviations below the
// mean adjacent similarity at which a span boundary is placed.
const DefaultNStd = 1.0

// sentence terminators for both scripts under study.
var terminators = map[rune]struct{}{
	'。': {}, '．': {}, '！': {}, '？': {},
	'.': {}, '!': {}, '?': {}, '\n': {},
}

// Semantic groups sentences into spans by embedding similarity:
// adjacent sentences whose cosine similarity drops more than nStd
// standard deviations below the mean start a new span.
type Semantic struct {
	embedder driven.EmbeddingService
	nStd     float64
}

// SemanticOption configures the semantic splitter.
type SemanticOption func(*Semantic)

// WithNStd sets the boundary threshold in standard deviations.
func WithNStd(n float64) SemanticOption {
	return func(s *Semantic) {
		if n > 0 {
			s.nStd = n
		}
	}
}

// NewSemantic creates a semantic splitter backed by the given
// embedding service.
func NewSemantic(embedder driven.EmbeddingService, opts ...SemanticOption) *Semantic {
	s := &Semantic{
		embedder: embedder,
		nStd:     DefaultNStd,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// sentence is a rune-offset range holding one sentence.
type sentence struct {
	start int
	end   int
	text  string
}

// Split divides text at similarity drops between adjacent sentences.
// Text with fewer than three sentences comes back as a single span.
func (s *Semantic) Split(ctx context.Context, text string) ([]driven.Span, error) {
	total := len([]rune(text))
	if total == 0 {
		return nil, nil
	}

	sentences := splitSentences(text)
	if len(sentences) < 3 {
		return []driven.Span{{Start: 0, End: total}}, nil
	}

	texts := make([]string, len(sentences))
	for i, sent := range sentences {
		texts[i] = sent.text
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed sentences: %w", err)
	}
	if len(embeddings) != len(sentences) {
		return nil, fmt.Errorf("embed sentences: got %d embeddings for %d sentences", len(embeddings), len(sentences))
	}

	sims := make([]float64, len(sentences)-1)
	for i := range sims {
		sims[i] = cosine32(embeddings[i], embeddings[i+1])
	}
	threshold := meanStdThreshold(sims, s.nStd)
	logger.Debug("Semantic split: %d sentences, threshold %.4f", len(sentences), threshold)

	var spans []driven.Span
	spanStart := sentences[0].start
	for i := 1; i < len(sentences); i++ {
		if sims[i-1] < threshold {
			spans = append(spans, driven.Span{Start: spanStart, End: sentences[i-1].end})
			spanStart = sentences[i].start
		}
	}
	spans = append(spans, driven.Span{Start: spanStart, End: total})
	return spans, nil
}

// Name returns the splitter identifier.
func (s *Semantic) Name() string {
	return "semantic"
}

// splitSentences cuts text at sentence terminators, keeping the
// terminator with the preceding sentence. Offsets are rune indices.
func splitSentences(text string) []sentence {
	var sentences []sentence
	runes := []rune(text)
	start := 0
	for i, r := range runes {
		if _, ok := terminators[r]; !ok {
			continue
		}
		if i+1 > start {
			sent := string(runes[start : i+1])
			if hasContent(sent) {
				sentences = append(sentences, sentence{start: start, end: i + 1, text: sent})
			}
		}
		start = i + 1
	}
	if start < len(runes) {
		sent := string(runes[start:])
		if hasContent(sent) {
			sentences = append(sentences, sentence{start: start, end: len(runes), text: sent})
		}
	}
	return sentences
}

// hasContent reports whether a sentence contains anything besides
// whitespace and terminators.
func hasContent(s string) bool {
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		if _, ok := terminators[r]; ok {
			continue
		}
		return true
	}
	return false
}

// meanStdThreshold is mean(sims) - nStd*stddev(sims).
func meanStdThreshold(sims []float64, nStd float64) float64 {
	var sum float64
	for _, v := range sims {
		sum += v
	}
	mean := sum / float64(len(sims))

	var sq float64
	for _, v := range sims {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(sims)))
	return mean - nStd*std
}

func cosine32(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, x := range a {
		na += float64(x) * float64(x)
	}
	for _, x := range b {
		nb += float64(x) * float64(x)
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
