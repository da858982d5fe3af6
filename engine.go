// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package engram

import (
	"context"
	"log/slog"

	"github.com/poiesic/engram/ai"
	"github.com/poiesic/engram/ai/local"
	"github.com/poiesic/engram/ai/openai"
	"github.com/poiesic/engram/answer"
	"github.com/poiesic/engram/core"
	"github.com/poiesic/engram/ingest"
	"github.com/poiesic/engram/search"
	"github.com/poiesic/engram/storage"
	"github.com/poiesic/engram/storage/badger"
)

// Engine assembles the full answering stack over one badger database:
// blob backend, capped vector store, embedding failover, searcher, answerer,
// and indexer. It is the single entry point app code talks to.
type Engine struct {
	backend  *badger.Backend
	store    *storage.VectorStore
	provider ai.Provider
	embedder ai.Embedder
	searcher *search.Searcher
	answerer *answer.Answerer
	indexer  *ingest.Indexer
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig   *ai.Config
	provider   ai.Provider
	capacity   int
	inMemory   bool
	logger     *slog.Logger
	searchOpts []search.Option
}

// WithAIConfig sets the AI configuration used to build the default provider
// and to size the embedding fallback.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider supplies a pre-built AI provider instead of the default
// OpenAI-compatible one. The engine takes ownership and closes it on Close.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps all storage in memory; the file path is ignored.
// Intended for tests and ephemeral sessions.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithCapacity overrides the stored-record cap.
// Default is storage.DefaultCapacity.
func WithCapacity(n int) EngineOption {
	return func(o *engineOptions) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithLogger sets a custom logger for every component the engine builds.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSearchOptions forwards options to the engine's searcher, for tuning
// the relevance blend or the recency window.
func WithSearchOptions(opts ...search.Option) EngineOption {
	return func(o *engineOptions) {
		o.searchOpts = append(o.searchOpts, opts...)
	}
}

// NewEngine opens (or creates) the database at filePath and wires the stack.
// The embedding path always carries the local hash fallback, so indexing and
// answering keep working when the embedding host is unreachable.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	// Apply options
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		capacity: storage.DefaultCapacity,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	// Create the capped record store
	store, err := storage.NewVectorStore(backend,
		storage.WithCapacity(options.capacity),
		storage.WithLogger(options.logger))
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	dimensions := options.aiConfig.EmbeddingDimensions
	embedder := ai.NewFailoverEmbedder(provider.Embedder(),
		local.NewHashEmbedder(dimensions), dimensions)

	searchOpts := append([]search.Option{search.WithLogger(options.logger)},
		options.searchOpts...)
	searcher, err := search.NewSearcher(store, embedder, searchOpts...)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	answerer, err := answer.NewAnswerer(searcher, provider.Generator(),
		answer.WithLogger(options.logger))
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	indexer, err := ingest.NewIndexer(store, embedder,
		ingest.WithLogger(options.logger))
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:  backend,
		store:    store,
		provider: provider,
		embedder: embedder,
		searcher: searcher,
		answerer: answerer,
		indexer:  indexer,
		logger:   options.logger,
	}, nil
}

// IndexContent embeds and stores one piece of app content. Indexing an id
// that already exists replaces the stored record.
func (e *Engine) IndexContent(ctx context.Context, id, content string, kind core.Kind, metadata map[string]string) error {
	return e.indexer.Index(ctx, &ingest.Item{
		Id:       id,
		Content:  content,
		Kind:     kind,
		Metadata: metadata,
	})
}

// BatchIndexContent indexes items concurrently; per-item failures are counted
// in the result instead of aborting the batch.
func (e *Engine) BatchIndexContent(ctx context.Context, items []*ingest.Item) *ingest.BatchResult {
	return e.indexer.IndexBatch(ctx, items)
}

// AnswerWithContext answers a natural-language question from the owner's
// indexed records. The response is always usable; an error is returned only
// on context cancellation.
func (e *Engine) AnswerWithContext(ctx context.Context, question, ownerID string, opts *answer.Options) (*answer.Response, error) {
	return e.answerer.Answer(ctx, question, ownerID, opts)
}

// SemanticSearch ranks the owner's records against the query by blended
// relevance.
func (e *Engine) SemanticSearch(ctx context.Context, query, ownerID string, opts *search.Options) ([]core.SearchResult, error) {
	return e.searcher.Search(ctx, query, ownerID, opts)
}

// HybridSearch combines semantic ranking with a keyword-overlap pass.
func (e *Engine) HybridSearch(ctx context.Context, query, ownerID string, opts *search.Options) ([]core.SearchResult, error) {
	return e.searcher.Hybrid(ctx, query, ownerID, opts)
}

// SimilarContent returns records most similar to the one with the given id.
func (e *Engine) SimilarContent(ctx context.Context, id, ownerID string, limit int) ([]core.SearchResult, error) {
	return e.searcher.Similar(ctx, id, ownerID, limit)
}

// StoreStats summarizes the stored collection.
func (e *Engine) StoreStats(ctx context.Context) (core.StoreStats, error) {
	return e.store.Stats(ctx)
}

// ClearStore removes every stored record and the last-indexed marker.
func (e *Engine) ClearStore(ctx context.Context) error {
	return e.store.Clear(ctx)
}

// Reindex re-embeds every stored record, reporting progress through the
// callback. Pass a nil config for defaults.
func (e *Engine) Reindex(ctx context.Context, config *ingest.ReindexConfig, progress ingest.ProgressFn) error {
	return e.indexer.Reindex(ctx, config, progress)
}

// Store returns the record store for callers that need direct access.
func (e *Engine) Store() storage.RecordStore {
	return e.store
}

// Close releases the worker pool, the AI provider, and the backend.
func (e *Engine) Close() error {
	e.indexer.Close()

	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
