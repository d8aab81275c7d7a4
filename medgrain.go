// Package medgrain is a character-granular retrieval-augmented
// generation library for medical text. Documents are tokenized at
// character granularity (plain characters, stroke sequences or pinyin
// syllables), indexed as sparse n-gram TF-IDF vectors or dense
// embeddings, retrieved by cosine similarity and assembled into a
// bounded context block that conditions a generation backend.
//
// The package wires the internal services together from a TOML
// configuration file; callers that need finer control inject their own
// backends through options.
package medgrain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/medgrain/internal/adapters/driven/config/file"
	embollama "github.com/custodia-labs/medgrain/internal/adapters/driven/embedding/ollama"
	embopenai "github.com/custodia-labs/medgrain/internal/adapters/driven/embedding/openai"
	genollama "github.com/custodia-labs/medgrain/internal/adapters/driven/generation/ollama"
	genopenai "github.com/custodia-labs/medgrain/internal/adapters/driven/generation/openai"
	"github.com/custodia-labs/medgrain/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/medgrain/internal/core/domain"
	"github.com/custodia-labs/medgrain/internal/core/ports/driven"
	"github.com/custodia-labs/medgrain/internal/core/ports/driving"
	"github.com/custodia-labs/medgrain/internal/core/services"
	"github.com/custodia-labs/medgrain/internal/index"
	"github.com/custodia-labs/medgrain/internal/logger"
	"github.com/custodia-labs/medgrain/internal/splitter"
	"github.com/custodia-labs/medgrain/internal/tokenizers"
)

// Re-exported domain types, so callers never import internal packages.
type (
	Document        = domain.Document
	Passage         = domain.Passage
	ContextBlock    = domain.ContextBlock
	RetrieveOptions = domain.RetrieveOptions
	GenerateOptions = domain.GenerateOptions
	AnswerOptions   = domain.AnswerOptions
	RawDocument     = driving.RawDocument
	Answer          = driving.Answer
	BuildStatus     = driving.BuildStatus

	// GenerationService is the text-generation backend interface.
	GenerationService = driven.GenerationService

	// EmbeddingService is the embedding backend interface.
	EmbeddingService = driven.EmbeddingService
)

// Re-exported sentinel errors.
var (
	ErrNotFound              = domain.ErrNotFound
	ErrAlreadyExists         = domain.ErrAlreadyExists
	ErrInvalidInput          = domain.ErrInvalidInput
	ErrUnsupportedScript     = domain.ErrUnsupportedScript
	ErrTokenizerMismatch     = domain.ErrTokenizerMismatch
	ErrIndexCorrupt          = domain.ErrIndexCorrupt
	ErrEmptyQuery            = domain.ErrEmptyQuery
	ErrGenerationFailed      = domain.ErrGenerationFailed
	ErrGenerationUnavailable = domain.ErrGenerationUnavailable
	ErrEmbeddingUnavailable  = domain.ErrEmbeddingUnavailable
)

// Pipeline is the assembled retrieval-augmented generation stack.
type Pipeline struct {
	cfg        driven.ConfigStore
	corpus     driven.CorpusStore
	indexStore driven.IndexStore
	store      *sqlite.Store

	// writeMu serializes index writers. Rebuild and append hold it from
	// reading the served snapshot through persist and swap-in, so a
	// concurrent writer can never base its work on a snapshot that is
	// about to be replaced. Readers stay lock-free through the handle.
	writeMu sync.Mutex

	generator driven.GenerationService
	embedder  driven.EmbeddingService

	handle    *index.Handle
	ingest    *services.IngestService
	indexer   *services.IndexerService
	retriever *services.RetrieverService
	assembler *services.AssemblerService
	answer    *services.AnswerPipeline
}

// Option overrides a piece of the pipeline before wiring.
type Option func(*Pipeline)

// WithGenerationService injects a generation backend, overriding the
// configured one.
func WithGenerationService(svc driven.GenerationService) Option {
	return func(p *Pipeline) {
		p.generator = svc
	}
}

// WithEmbeddingService injects an embedding backend, overriding the
// configured one. When set, the dense representation scheme is used.
func WithEmbeddingService(svc driven.EmbeddingService) Option {
	return func(p *Pipeline) {
		p.embedder = svc
	}
}

// WithStores injects corpus and index stores, replacing the default
// SQLite-backed storage.
func WithStores(corpus driven.CorpusStore, indexStore driven.IndexStore) Option {
	return func(p *Pipeline) {
		p.corpus = corpus
		p.indexStore = indexStore
	}
}

// SetVerbose enables diagnostic logging to stderr.
func SetVerbose(v bool) {
	logger.SetVerbose(v)
}

// Open assembles a pipeline from the TOML configuration in configDir
// (default ~/.medgrain). Any previously persisted index is loaded and
// served immediately.
func Open(configDir string, opts ...Option) (*Pipeline, error) {
	cfg, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}

	p := &Pipeline{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}

	if p.embedder == nil {
		if p.embedder, err = buildEmbedder(cfg); err != nil {
			return nil, err
		}
	}
	if p.generator == nil {
		if p.generator, err = buildGenerator(cfg); err != nil {
			return nil, err
		}
	}

	tokenizer, err := buildTokenizer(cfg)
	if err != nil {
		return nil, err
	}
	split, err := buildSplitter(cfg, p.embedder)
	if err != nil {
		return nil, err
	}

	if p.corpus == nil || p.indexStore == nil {
		store, err := sqlite.NewStore(cfg.GetString(file.KeyDataDir))
		if err != nil {
			return nil, fmt.Errorf("opening storage: %w", err)
		}
		p.store = store
		p.corpus = store.CorpusStore()
		p.indexStore = store.IndexStore()
	}

	indexerOpts := []services.IndexerOption{
		services.WithNGram(ngramOrder(cfg)),
	}
	if p.embedder != nil {
		indexerOpts = append(indexerOpts, services.WithEmbedder(p.embedder))
	}
	if workers := cfg.GetInt(file.KeyWorkers); workers > 0 {
		indexerOpts = append(indexerOpts, services.WithWorkers(workers))
	}

	p.handle = index.NewHandle(nil)
	p.ingest = services.NewIngestService(p.corpus)
	p.indexer = services.NewIndexerService(tokenizer, split, indexerOpts...)
	p.retriever = services.NewRetrieverService(p.handle, tokenizer, p.embedder, p.corpus)
	p.assembler = services.NewAssemblerService()
	p.answer = services.NewAnswerPipeline(p.retriever, p.assembler, p.generator)

	if err := p.loadPersisted(context.Background()); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// loadPersisted serves a previously persisted index if one exists.
// A persisted index whose signature differs from the configured
// tokenizer and scheme is never silently ignored: the caller must
// either change the configuration back or rebuild.
func (p *Pipeline) loadPersisted(ctx context.Context) error {
	stored, err := p.indexStore.Load(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading persisted index: %w", err)
	}
	if stored.Signature != p.indexer.Signature() {
		return fmt.Errorf("persisted index built with %q, configured %q: %w",
			stored.Signature, p.indexer.Signature(), domain.ErrTokenizerMismatch)
	}
	snap, err := index.NewSnapshot(stored)
	if err != nil {
		return fmt.Errorf("loading persisted index: %w", err)
	}
	p.handle.Swap(snap)
	return nil
}

// Ingest stores raw documents in the corpus. Repeated ingestion of
// identical text is idempotent.
func (p *Pipeline) Ingest(ctx context.Context, raws []RawDocument) ([]Document, error) {
	return p.ingest.Ingest(ctx, raws)
}

// BuildIndex rebuilds the index over the whole corpus, persists it and
// swaps it in for queries. Concurrent queries see either the old index
// or the new one; concurrent writers are serialized.
func (p *Pipeline) BuildIndex(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	docs, err := p.corpus.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("listing corpus: %w", err)
	}

	ix, err := p.indexer.Build(ctx, docs)
	if err != nil {
		return err
	}
	return p.install(ctx, ix)
}

// AppendIndex extends the served index with the given documents and
// persists the result. Documents already indexed are rejected with
// ErrAlreadyExists. Writers are serialized: an append always extends
// the snapshot left by the previous writer, never a stale one.
func (p *Pipeline) AppendIndex(ctx context.Context, docs []Document) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	snap := p.handle.Load()
	if snap == nil {
		return fmt.Errorf("no index to append to: %w", domain.ErrNotFound)
	}

	ix, err := p.indexer.Append(ctx, snap.Index(), docs)
	if err != nil {
		return err
	}
	return p.install(ctx, ix)
}

// install persists an index and swaps it in for queries.
func (p *Pipeline) install(ctx context.Context, ix *domain.Index) error {
	snap, err := index.NewSnapshot(ix)
	if err != nil {
		return err
	}
	if err := p.indexStore.Persist(ctx, ix); err != nil {
		return fmt.Errorf("persisting index: %w", err)
	}
	p.handle.Swap(snap)
	return nil
}

// Retrieve ranks indexed passages against the query.
func (p *Pipeline) Retrieve(ctx context.Context, query string, opts RetrieveOptions) ([]Passage, error) {
	return p.retriever.Retrieve(ctx, query, opts)
}

// Assemble packs ranked passages into a bounded context block.
func (p *Pipeline) Assemble(passages []Passage, budget int) (ContextBlock, error) {
	return p.assembler.Assemble(passages, budget)
}

// Answer runs the full retrieve-assemble-generate pipeline.
func (p *Pipeline) Answer(ctx context.Context, query string, opts AnswerOptions) (Answer, error) {
	return p.answer.Answer(ctx, query, opts)
}

// LastBuild returns the status of the most recent index build.
func (p *Pipeline) LastBuild() (BuildStatus, bool) {
	return p.indexer.LastBuild()
}

// Close releases storage and backend resources.
func (p *Pipeline) Close() error {
	var errs []error
	if p.store != nil {
		errs = append(errs, p.store.Close())
	}
	if p.generator != nil {
		errs = append(errs, p.generator.Close())
	}
	if p.embedder != nil {
		errs = append(errs, p.embedder.Close())
	}
	return errors.Join(errs...)
}

// ngramOrder resolves the configured n-gram order, falling back to the
// per-tokenizer default.
func ngramOrder(cfg driven.ConfigStore) int {
	if n := cfg.GetInt(file.KeyNGram); n > 0 {
		return n
	}
	name := cfg.GetString(file.KeyTokenizer)
	if name == "" {
		name = tokenizers.NamePlain
	}
	return tokenizers.DefaultNGram(name)
}

// buildTokenizer constructs the configured tokenizer variant.
func buildTokenizer(cfg driven.ConfigStore) (driven.Tokenizer, error) {
	name := cfg.GetString(file.KeyTokenizer)
	if name == "" {
		name = tokenizers.NamePlain
	}

	tcfg := map[string]any{}
	switch name {
	case tokenizers.NameStroke:
		tcfg["table_path"] = cfg.GetString(file.KeyStrokeTablePath)
	case tokenizers.NamePinyin:
		tcfg["table_path"] = cfg.GetString(file.KeyPinyinTablePath)
	}

	tok, err := tokenizers.Defaults().Build(name, tcfg)
	if err != nil {
		return nil, fmt.Errorf("building tokenizer: %w", err)
	}
	return tok, nil
}

// buildSplitter constructs the configured passage splitter.
func buildSplitter(cfg driven.ConfigStore, embedder driven.EmbeddingService) (driven.Splitter, error) {
	switch name := cfg.GetString(file.KeySplitter); name {
	case "", "window":
		var opts []splitter.WindowOption
		if size := cfg.GetInt(file.KeyWindowSize); size > 0 {
			opts = append(opts, splitter.WithSize(size))
		}
		if overlap := cfg.GetInt(file.KeyWindowOverlap); overlap > 0 {
			opts = append(opts, splitter.WithOverlap(overlap))
		}
		return splitter.NewWindow(opts...), nil
	case "semantic":
		if embedder == nil {
			return nil, fmt.Errorf("semantic splitter requires an embedding backend: %w", domain.ErrEmbeddingUnavailable)
		}
		var opts []splitter.SemanticOption
		if nStd := cfg.GetFloat(file.KeySemanticNStd); nStd > 0 {
			opts = append(opts, splitter.WithNStd(nStd))
		}
		return splitter.NewSemantic(embedder, opts...), nil
	default:
		return nil, fmt.Errorf("unknown splitter %q: %w", name, domain.ErrInvalidInput)
	}
}

// buildGenerator constructs the configured generation backend, if any.
func buildGenerator(cfg driven.ConfigStore) (driven.GenerationService, error) {
	switch backend := cfg.GetString(file.KeyGenerationBackend); backend {
	case "":
		return nil, nil
	case "ollama":
		return genollama.NewGenerationService(genollama.Config{
			BaseURL:           cfg.GetString(file.KeyGenerationBaseURL),
			Model:             cfg.GetString(file.KeyGenerationModel),
			RequestsPerSecond: cfg.GetFloat(file.KeyGenerationRPS),
		}), nil
	case "openai":
		svc, err := genopenai.NewGenerationService(genopenai.Config{
			APIKey:            cfg.GetString(file.KeyGenerationAPIKey),
			BaseURL:           cfg.GetString(file.KeyGenerationBaseURL),
			Model:             cfg.GetString(file.KeyGenerationModel),
			RequestsPerSecond: cfg.GetFloat(file.KeyGenerationRPS),
		})
		if err != nil {
			return nil, fmt.Errorf("building generation backend: %w", err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unknown generation backend %q: %w", backend, domain.ErrInvalidInput)
	}
}

// buildEmbedder constructs the configured embedding backend, if any.
func buildEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	switch backend := cfg.GetString(file.KeyEmbeddingBackend); backend {
	case "":
		return nil, nil
	case "ollama":
		return embollama.NewEmbeddingService(embollama.Config{
			BaseURL:           cfg.GetString(file.KeyEmbeddingBaseURL),
			Model:             cfg.GetString(file.KeyEmbeddingModel),
			Dimensions:        cfg.GetInt(file.KeyEmbeddingDimension),
			RequestsPerSecond: cfg.GetFloat(file.KeyEmbeddingRPS),
		}), nil
	case "openai":
		svc, err := embopenai.NewEmbeddingService(embopenai.Config{
			APIKey:            cfg.GetString(file.KeyEmbeddingAPIKey),
			BaseURL:           cfg.GetString(file.KeyEmbeddingBaseURL),
			Model:             cfg.GetString(file.KeyEmbeddingModel),
			Dimensions:        cfg.GetInt(file.KeyEmbeddingDimension),
			RequestsPerSecond: cfg.GetFloat(file.KeyEmbeddingRPS),
		})
		if err != nil {
			return nil, fmt.Errorf("building embedding backend: %w", err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unknown embedding backend %q: %w", backend, domain.ErrInvalidInput)
	}
}
