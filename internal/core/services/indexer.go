package services

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/medgrain/internal/core/domain"
	"github.com/custodia-labs/medgrain/internal/core/ports/driven"
	"github.com/custodia-labs/medgrain/internal/core/ports/driving"
	"github.com/custodia-labs/medgrain/internal/index"
	"github.com/custodia-labs/medgrain/internal/logger"
)

// Ensure IndexerService implements the interface.
var _ driving.IndexBuilder = (*IndexerService)(nil)

// IndexerService builds and extends index artifacts. Per-document
// tokenization and vectorization fan out across workers; corpus-wide
// statistics are merged only after every document is processed.
type IndexerService struct {
	tokenizer driven.Tokenizer
	splitter  driven.Splitter
	embedder  driven.EmbeddingService
	ngram     int
	workers   int

	mu        sync.RWMutex
	lastBuild *driving.BuildStatus
}

// IndexerOption configures the indexer service.
type IndexerOption func(*IndexerService)

// WithNGram sets the n-gram order for the sparse scheme.
func WithNGram(n int) IndexerOption {
	return func(s *IndexerService) {
		if n > 0 {
			s.ngram = n
		}
	}
}

// WithEmbedder switches the service to the dense representation
// scheme backed by the given embedding service.
func WithEmbedder(embedder driven.EmbeddingService) IndexerOption {
	return func(s *IndexerService) {
		s.embedder = embedder
	}
}

// WithWorkers sets the build fan-out width.
func WithWorkers(n int) IndexerOption {
	return func(s *IndexerService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewIndexerService creates an indexer for the given tokenizer and
// splitter. Without options it uses the sparse bigram scheme and one
// worker per CPU.
func NewIndexerService(tokenizer driven.Tokenizer, splitter driven.Splitter, opts ...IndexerOption) *IndexerService {
	s := &IndexerService{
		tokenizer: tokenizer,
		splitter:  splitter,
		ngram:     2,
		workers:   runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signature returns the signature every index built by this service
// carries.
func (s *IndexerService) Signature() domain.Signature {
	if s.embedder != nil {
		return domain.Signature{
			Tokenizer: s.tokenizer.Signature(),
			Scheme:    domain.SchemeDense,
			Model:     s.embedder.ModelName(),
		}
	}
	return domain.Signature{
		Tokenizer: s.tokenizer.Signature(),
		Scheme:    domain.SchemeNgramTFIDF,
		NGram:     s.ngram,
	}
}

// Build tokenizes and vectorizes the documents into a new index.
func (s *IndexerService) Build(ctx context.Context, docs []domain.Document) (*domain.Index, error) {
	logger.Section("Index Build")
	status := s.beginBuild()
	logger.Debug("Build %s: %d documents, signature %s", status.ID, len(docs), s.Signature())

	entries, err := s.vectorize(ctx, docs, nil)
	if err != nil {
		s.finishBuild(status, 0, err)
		return nil, err
	}

	ix := &domain.Index{
		Signature: s.Signature(),
		Entries:   entries,
		DocFreq:   mergeDocFreq(s.Signature(), nil, entries),
	}
	if err := ix.Validate(); err != nil {
		s.finishBuild(status, len(docs), err)
		return nil, fmt.Errorf("validate built index: %w", err)
	}

	s.finishBuild(status, len(docs), nil)
	logger.Info("Build %s: %d entries from %d documents", status.ID, len(entries), len(docs))
	return ix, nil
}

// Append extends an existing index with new documents. The input
// index is never mutated; a new value is returned. Documents whose
// ids are already indexed are rejected rather than overwritten.
func (s *IndexerService) Append(ctx context.Context, ix *domain.Index, docs []domain.Document) (*domain.Index, error) {
	logger.Section("Index Append")
	if ix.Signature != s.Signature() {
		return nil, fmt.Errorf("index signature %q, builder signature %q: %w",
			ix.Signature, s.Signature(), domain.ErrTokenizerMismatch)
	}

	indexed := make(map[string]struct{}, len(ix.Entries))
	for i := range ix.Entries {
		indexed[ix.Entries[i].DocumentID] = struct{}{}
	}
	for i := range docs {
		if _, exists := indexed[docs[i].ID]; exists {
			return nil, fmt.Errorf("document %s already indexed: %w", docs[i].ID, domain.ErrAlreadyExists)
		}
	}

	status := s.beginBuild()
	entries, err := s.vectorize(ctx, docs, indexed)
	if err != nil {
		s.finishBuild(status, 0, err)
		return nil, err
	}

	merged := &domain.Index{
		Signature: ix.Signature,
		Entries:   make([]domain.IndexEntry, 0, len(ix.Entries)+len(entries)),
		DocFreq:   mergeDocFreq(ix.Signature, ix.DocFreq, entries),
	}
	merged.Entries = append(merged.Entries, ix.Entries...)
	merged.Entries = append(merged.Entries, entries...)
	if err := merged.Validate(); err != nil {
		s.finishBuild(status, len(docs), err)
		return nil, fmt.Errorf("validate appended index: %w", err)
	}

	s.finishBuild(status, len(docs), nil)
	logger.Info("Append %s: +%d entries, %d total", status.ID, len(entries), len(merged.Entries))
	return merged, nil
}

// LastBuild returns the status of the most recent build run.
func (s *IndexerService) LastBuild() (driving.BuildStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastBuild == nil {
		return driving.BuildStatus{}, false
	}
	return *s.lastBuild, true
}

// docEntries holds one worker's output, slotted by document position
// so the final entry order is deterministic regardless of scheduling.
type docEntries struct {
	entries []domain.IndexEntry
}

// vectorize fans per-document work out across workers and waits for
// all of them before returning, which is the synchronization barrier
// ahead of the corpus-statistics merge. seen filters duplicate
// document ids within and across calls.
func (s *IndexerService) vectorize(ctx context.Context, docs []domain.Document, seen map[string]struct{}) ([]domain.IndexEntry, error) {
	slots := make([]docEntries, len(docs))
	dedup := make(map[string]struct{}, len(docs))
	for id := range seen {
		dedup[id] = struct{}{}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := range docs {
		doc := &docs[i]
		if _, dup := dedup[doc.ID]; dup {
			logger.Debug("Duplicate document %s in build input, skipping", doc.ID)
			continue
		}
		dedup[doc.ID] = struct{}{}

		slot := &slots[i]
		g.Go(func() error {
			entries, err := s.vectorizeDocument(gctx, doc)
			if err != nil {
				return err
			}
			slot.entries = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var entries []domain.IndexEntry
	for i := range slots {
		entries = append(entries, slots[i].entries...)
	}
	return entries, nil
}

// vectorizeDocument tokenizes one document, splits it into passage
// spans and derives each span's representation.
func (s *IndexerService) vectorizeDocument(ctx context.Context, doc *domain.Document) ([]domain.IndexEntry, error) {
	tokens, err := s.tokenizer.Tokenize(doc.Text, doc.Script)
	if err != nil {
		return nil, fmt.Errorf("tokenize document %s: %w", doc.ID, err)
	}
	tokenized := domain.TokenizedDocument{DocumentID: doc.ID, Tokens: tokens}

	spans, err := s.splitter.Split(ctx, doc.Text)
	if err != nil {
		return nil, fmt.Errorf("split document %s: %w", doc.ID, err)
	}

	runes := []rune(doc.Text)
	entries := make([]domain.IndexEntry, 0, len(spans))
	for k, span := range spans {
		entry := domain.IndexEntry{
			ID:         fmt.Sprintf("%s#%d", doc.ID, k),
			DocumentID: doc.ID,
			Start:      span.Start,
			End:        span.End,
		}

		if s.embedder != nil {
			dense, err := s.embedder.Embed(ctx, string(runes[span.Start:span.End]))
			if err != nil {
				return nil, fmt.Errorf("embed document %s span %d: %w", doc.ID, k, err)
			}
			entry.Dense = dense
		} else {
			entry.Counts = index.NGramCounts(tokenized.SpanSurfaces(span.Start, span.End), s.ngram)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// mergeDocFreq merges new entries' term presence into existing
// document frequencies. Only meaningful for the sparse scheme.
func mergeDocFreq(sig domain.Signature, existing map[string]int, entries []domain.IndexEntry) map[string]int {
	if sig.Scheme != domain.SchemeNgramTFIDF {
		return nil
	}
	merged := make(map[string]int, len(existing))
	for term, df := range existing {
		merged[term] = df
	}
	for i := range entries {
		for term := range entries[i].Counts {
			merged[term]++
		}
	}
	return merged
}

func (s *IndexerService) beginBuild() *driving.BuildStatus {
	status := &driving.BuildStatus{
		ID:        uuid.NewString(),
		State:     driving.BuildStateRunning,
		StartedAt: time.Now(),
	}
	s.mu.Lock()
	s.lastBuild = status
	s.mu.Unlock()
	return status
}

func (s *IndexerService) finishBuild(status *driving.BuildStatus, docsIndexed int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status.DocumentsIndexed = docsIndexed
	status.CompletedAt = time.Now()
	if err != nil {
		status.State = driving.BuildStateFailed
		status.Error = err.Error()
		return
	}
	status.State = driving.BuildStateCompleted
}
