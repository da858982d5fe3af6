package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/engram/ai"
	"github.com/poiesic/engram/core"
	"github.com/poiesic/engram/storage"
)

// Item is one piece of app content submitted for indexing. Id follows the
// source entity (re-submitting the same id replaces the stored record), and
// Metadata must carry a non-empty ownerId; see the core.Meta* keys.
type Item struct {
	Id       string
	Content  string
	Kind     core.Kind
	Metadata map[string]string
}

// BatchResult summarizes one IndexBatch call. Errs holds one entry per
// failed item.
type BatchResult struct {
	Indexed int
	Failed  int
	Errs    []error
}

// Indexer turns app content into embedded, stored records. Batch indexing
// runs embeddings concurrently through a worker pool; store writes serialize
// inside the record store.
type Indexer struct {
	store    storage.RecordStore
	embedder ai.Embedder
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithPoolSize sets the worker pool size for concurrent batch indexing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(idx *Indexer) error {
		if size < 1 {
			size = 1
		}

		// Release the old pool
		if idx.pool != nil {
			idx.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		idx.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		idx.logger = logger
		return nil
	}
}

// NewIndexer creates a new indexing pipeline.
func NewIndexer(store storage.RecordStore, embedder ai.Embedder, opts ...Option) (*Indexer, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	idx := &Indexer{
		store:    store,
		embedder: embedder,
		pool:     pool,
		logger:   slog.Default().With("component", "indexer"),
	}

	// Apply options
	for _, opt := range opts {
		if optErr := opt(idx); optErr != nil {
			idx.Close()
			return nil, optErr
		}
	}

	return idx, nil
}

// Index embeds and stores a single item. The stored record carries the item's
// id, so indexing the same id again replaces the previous record instead of
// duplicating it.
func (idx *Indexer) Index(ctx context.Context, item *Item) error {
	record, err := idx.prepare(item)
	if err != nil {
		return err
	}

	embedding, err := idx.embedder.EmbedText(ctx, record.Content)
	if err != nil {
		return fmt.Errorf("embedding %q: %w", record.Id, err)
	}
	record.Embedding = embedding

	return idx.store.Upsert(ctx, record)
}

// IndexBatch indexes items concurrently through the worker pool. Per-item
// failures are logged, counted, and collected; one bad item never aborts the
// rest of the batch.
func (idx *Indexer) IndexBatch(ctx context.Context, items []*Item) *BatchResult {
	result := &BatchResult{}
	if len(items) == 0 {
		return result
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	tally := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			idx.logger.Warn("skipping item", "err", err)
			result.Failed++
			result.Errs = append(result.Errs, err)
			return
		}
		result.Indexed++
	}

	for _, item := range items {
		wg.Add(1)
		submitErr := idx.pool.Submit(func() {
			defer wg.Done()
			tally(idx.Index(ctx, item))
		})
		if submitErr != nil {
			wg.Done()
			tally(submitErr)
		}
	}
	wg.Wait()

	return result
}

// ProgressFn receives reindexing progress after each completed batch.
type ProgressFn func(done, total int)

// ReindexConfig tunes a Reindex run.
type ReindexConfig struct {
	// BatchSize is the number of records re-embedded per store write
	BatchSize int

	// MaxAttempts is the maximum number of attempts per embedding call
	MaxAttempts int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultReindexConfig returns a ReindexConfig with sensible defaults.
func DefaultReindexConfig() *ReindexConfig {
	return &ReindexConfig{
		BatchSize:   100,
		MaxAttempts: 3,
		RetryDelay:  1 * time.Second,
	}
}

// Reindex re-embeds every stored record in batches and upserts the refreshed
// vectors back, for use after switching embedding models. Embedding calls
// retry with exponential backoff; a batch that still fails aborts the run so
// the store is never left partially refreshed without the caller knowing.
// Records keep their CreatedAtMs, so reindexing does not disturb recency
// scoring or eviction order.
func (idx *Indexer) Reindex(ctx context.Context, config *ReindexConfig, progress ProgressFn) error {
	if config == nil {
		config = DefaultReindexConfig()
	}
	if progress == nil {
		progress = func(done, total int) {}
	}
	batchSize := config.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	records, err := idx.store.All(ctx)
	if err != nil {
		return fmt.Errorf("listing records for reindex: %w", err)
	}
	total := len(records)
	if total == 0 {
		progress(0, 0)
		return nil
	}

	idx.logger.Info("reindexing records", "records", total, "batchSize", batchSize)

	done := 0
	for start := 0; start < total; start += batchSize {
		end := min(start+batchSize, total)
		batch := records[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].Content
		}

		var embeddings [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var embedErr error
			embeddings, embedErr = idx.embedder.EmbedTexts(ctx, texts)
			return embedErr
		}, config.MaxAttempts, config.RetryDelay)
		if err != nil {
			return fmt.Errorf("re-embedding batch at record %d after %d attempts: %w", start, config.MaxAttempts, err)
		}
		if len(embeddings) != len(batch) {
			return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(embeddings))
		}

		updated := make([]*core.VectorizedRecord, len(batch))
		for i := range batch {
			batch[i].Embedding = core.NormalizeVector(embeddings[i])
			updated[i] = &batch[i]
		}
		if err := idx.store.UpsertBatch(ctx, updated); err != nil {
			return fmt.Errorf("storing re-embedded batch: %w", err)
		}

		done += len(batch)
		progress(done, total)
	}

	return nil
}

// Close releases the worker pool.
// The indexer should not be used after calling Close.
func (idx *Indexer) Close() {
	if idx.pool != nil {
		idx.pool.Release()
	}
}

// prepare validates the item and builds its record, stamped with the current
// time and still unembedded.
func (idx *Indexer) prepare(item *Item) (*core.VectorizedRecord, error) {
	if item == nil {
		return nil, ErrNilItem
	}

	record := &core.VectorizedRecord{
		Id:          item.Id,
		Content:     normalizeWhitespace(item.Content),
		Kind:        item.Kind,
		Metadata:    item.Metadata,
		CreatedAtMs: time.Now().UnixMilli(),
	}
	if err := core.ValidateRecord(record); err != nil {
		return nil, err
	}
	return record, nil
}

// normalizeWhitespace collapses whitespace runs to single spaces and trims
// the ends, so stored content and keyword matching see canonical spacing.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
