package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/medgrain/internal/core/domain"
	"github.com/custodia-labs/medgrain/internal/core/ports/driven"
	"github.com/custodia-labs/medgrain/internal/core/ports/driving"
	"github.com/custodia-labs/medgrain/internal/index"
	"github.com/custodia-labs/medgrain/internal/logger"
)

// Ensure RetrieverService implements the interface.
var _ driving.Retriever = (*RetrieverService)(nil)

// RetrieverService ranks indexed passages against queries. It reads
// snapshots through a Handle, so retrieval stays safe while a rebuild
// or append swaps a replacement in.
type RetrieverService struct {
	handle    *index.Handle
	tokenizer driven.Tokenizer
	embedder  driven.EmbeddingService
	corpus    driven.CorpusStore
}

// NewRetrieverService creates a retriever. The embedder is required
// only when the index uses the dense scheme.
func NewRetrieverService(handle *index.Handle, tokenizer driven.Tokenizer, embedder driven.EmbeddingService, corpus driven.CorpusStore) *RetrieverService {
	return &RetrieverService{
		handle:    handle,
		tokenizer: tokenizer,
		embedder:  embedder,
		corpus:    corpus,
	}
}

// Retrieve scores every indexed passage against the query and returns
// the top passages, deduplicated per document.
func (s *RetrieverService) Retrieve(ctx context.Context, query string, opts domain.RetrieveOptions) ([]domain.Passage, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q, top_k=%d", query, opts.TopK)

	if opts.TopK <= 0 {
		return nil, fmt.Errorf("top_k must be > 0, got %d: %w", opts.TopK, domain.ErrInvalidInput)
	}

	snap := s.handle.Load()
	if snap == nil {
		return nil, fmt.Errorf("no index loaded: %w", domain.ErrNotFound)
	}
	if snap.Len() == 0 {
		logger.Debug("Index is empty, returning no passages")
		return []domain.Passage{}, nil
	}

	sig := snap.Signature()
	if sig.Tokenizer != s.tokenizer.Signature() {
		return nil, fmt.Errorf("index built with %q, retriever has %q: %w",
			sig.Tokenizer, s.tokenizer.Signature(), domain.ErrTokenizerMismatch)
	}

	hits, err := s.score(ctx, snap, query)
	if err != nil {
		return nil, err
	}

	ranked := rankHits(hits, opts.TopK)
	logger.Debug("Ranked %d hits down to %d passages", len(hits), len(ranked))

	passages, err := s.hydrate(ctx, ranked)
	if err != nil {
		return nil, err
	}
	logger.Info("Retrieved %d passages", len(passages))
	return passages, nil
}

// score tokenizes the query and computes similarities under the
// index's recorded scheme.
func (s *RetrieverService) score(ctx context.Context, snap *index.Snapshot, query string) ([]index.Hit, error) {
	sig := snap.Signature()

	tokens, err := s.tokenizer.Tokenize(query, domain.DetectScript(query))
	if err != nil {
		return nil, fmt.Errorf("tokenize query: %w", err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("query produced no tokens: %w", domain.ErrEmptyQuery)
	}

	switch sig.Scheme {
	case domain.SchemeNgramTFIDF:
		tokenized := domain.TokenizedDocument{Tokens: tokens}
		return snap.ScoreCounts(index.NGramCounts(tokenized.Surfaces(), sig.NGram)), nil

	case domain.SchemeDense:
		if s.embedder == nil {
			return nil, fmt.Errorf("dense index requires an embedder: %w", domain.ErrEmbeddingUnavailable)
		}
		if s.embedder.ModelName() != sig.Model {
			return nil, fmt.Errorf("index embedded with %q, retriever has %q: %w",
				sig.Model, s.embedder.ModelName(), domain.ErrTokenizerMismatch)
		}
		vec, err := s.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		return snap.ScoreDense(vec), nil

	default:
		return nil, fmt.Errorf("unknown scheme %q: %w", sig.Scheme, domain.ErrIndexCorrupt)
	}
}

// rankHits sorts by descending score with ties broken by ascending
// document id then entry id, deduplicates per document keeping the
// best hit, and cuts to topK with dense 1-based ranks.
func rankHits(hits []index.Hit, topK int) []index.Hit {
	sorted := make([]index.Hit, len(hits))
	copy(sorted, hits)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		if sorted[i].Entry.DocumentID != sorted[j].Entry.DocumentID {
			return sorted[i].Entry.DocumentID < sorted[j].Entry.DocumentID
		}
		return sorted[i].Entry.ID < sorted[j].Entry.ID
	})

	seen := make(map[string]struct{}, topK)
	deduped := sorted[:0]
	for _, hit := range sorted {
		if _, dup := seen[hit.Entry.DocumentID]; dup {
			continue
		}
		seen[hit.Entry.DocumentID] = struct{}{}
		deduped = append(deduped, hit)
		if len(deduped) == topK {
			break
		}
	}
	return deduped
}

// hydrate slices passage text out of the source documents. A missing
// document means the index and corpus disagree, which corrupts the
// whole ranking rather than degrading it.
func (s *RetrieverService) hydrate(ctx context.Context, hits []index.Hit) ([]domain.Passage, error) {
	passages := make([]domain.Passage, 0, len(hits))
	for rank, hit := range hits {
		doc, err := s.corpus.GetDocument(ctx, hit.Entry.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("document %s referenced by index but not in corpus: %w",
				hit.Entry.DocumentID, domain.ErrIndexCorrupt)
		}

		runes := []rune(doc.Text)
		start, end := hit.Entry.Start, hit.Entry.End
		if start < 0 || end > len(runes) || start > end {
			return nil, fmt.Errorf("entry %s span [%d,%d) outside document %s: %w",
				hit.Entry.ID, start, end, doc.ID, domain.ErrIndexCorrupt)
		}

		passages = append(passages, domain.Passage{
			DocumentID: doc.ID,
			Text:       string(runes[start:end]),
			Start:      start,
			End:        end,
			Score:      hit.Score,
			Rank:       rank + 1,
		})
	}
	return passages, nil
}
