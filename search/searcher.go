package search

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/engram/ai"
	"github.com/poiesic/engram/core"
	"github.com/poiesic/engram/storage"
)

// Default search parameters.
const (
	// DefaultTopK caps result counts when the caller does not.
	DefaultTopK = 5

	// DefaultMinSimilarity discards weak matches before ranking.
	DefaultMinSimilarity = float32(0.3)
)

// Hybrid merge weights applied to records found by both the semantic and
// keyword paths. Single-path scores pass through unchanged.
const (
	hybridSemanticWeight = 0.7
	hybridKeywordWeight  = 0.3
)

// Options narrows a single search call.
type Options struct {
	// TopK caps the number of results. Non-positive uses DefaultTopK.
	TopK int

	// MinSimilarity is the cosine similarity floor applied before ranking.
	// Non-positive uses DefaultMinSimilarity.
	MinSimilarity float32

	// Filter restricts the scanned records by kind, status, priority, or
	// course. Owner scoping happens regardless; the filter only narrows.
	Filter core.ListFilter
}

// normalized resolves nil and zero fields to the package defaults.
func (o *Options) normalized() Options {
	resolved := Options{TopK: DefaultTopK, MinSimilarity: DefaultMinSimilarity}
	if o == nil {
		return resolved
	}
	if o.TopK > 0 {
		resolved.TopK = o.TopK
	}
	if o.MinSimilarity > 0 {
		resolved.MinSimilarity = o.MinSimilarity
	}
	resolved.Filter = o.Filter
	return resolved
}

// Searcher ranks an owner's vectorized records against natural-language
// queries, semantically and with an optional keyword pass.
type Searcher struct {
	store    storage.RecordStore
	embedder ai.Embedder
	weights  Weights
	window   time.Duration
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithWeights sets the relevance blend used for ranking.
// Default is DefaultWeights().
func WithWeights(w Weights) Option {
	return func(s *Searcher) error {
		s.weights = w
		return nil
	}
}

// WithRecencyWindow sets the age at which recency credit runs out.
// Non-positive durations fall back to DefaultRecencyWindow.
func WithRecencyWindow(window time.Duration) Option {
	return func(s *Searcher) error {
		if window <= 0 {
			window = DefaultRecencyWindow
		}
		s.window = window
		return nil
	}
}

// NewSearcher creates a new searcher over the given store and embedder.
func NewSearcher(store storage.RecordStore, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		store:    store,
		embedder: embedder,
		weights:  DefaultWeights(),
		window:   DefaultRecencyWindow,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns the owner's records ranked by relevance against the query.
// An empty query or empty store yields an empty result, not an error.
func (s *Searcher) Search(ctx context.Context, query, ownerID string, opts *Options) ([]core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, ownerID, opts, nil)
}

// SearchWithMonitor is Search with stage callbacks for instrumentation.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query, ownerID string, opts *Options, monitor Monitor) ([]core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	resolved := opts.normalized()

	monitor.Start(query)

	query = strings.TrimSpace(query)
	if query == "" {
		monitor.Finish(nil)
		return []core.SearchResult{}, nil
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	records, err := s.store.List(ctx, ownerID, resolved.Filter)
	if err != nil {
		s.logger.Error("error listing records for search", "owner", ownerID, "err", err)
		return nil, err
	}
	monitor.AfterListing(len(records))

	results := s.rank(records, embedding, strings.ToLower(query), resolved, monitor)
	monitor.Finish(results)
	return results, nil
}

// Hybrid combines semantic ranking with a keyword-overlap pass over the same
// owner-scoped records. Records found by both paths blend
// 0.7*semantic + 0.3*keyword; single-path records keep their score unchanged.
func (s *Searcher) Hybrid(ctx context.Context, query, ownerID string, opts *Options) ([]core.SearchResult, error) {
	return s.HybridWithMonitor(ctx, query, ownerID, opts, nil)
}

// HybridWithMonitor is Hybrid with stage callbacks for instrumentation.
func (s *Searcher) HybridWithMonitor(ctx context.Context, query, ownerID string, opts *Options, monitor Monitor) ([]core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	resolved := opts.normalized()

	monitor.Start(query)

	query = strings.TrimSpace(query)
	if query == "" {
		monitor.Finish(nil)
		return []core.SearchResult{}, nil
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	records, err := s.store.List(ctx, ownerID, resolved.Filter)
	if err != nil {
		s.logger.Error("error listing records for search", "owner", ownerID, "err", err)
		return nil, err
	}
	monitor.AfterListing(len(records))

	results := s.rank(records, embedding, strings.ToLower(query), resolved, monitor)

	indexByID := make(map[string]int, len(results))
	for i, result := range results {
		indexByID[result.Record.Id] = i
	}

	// Keyword pass over the same records
	tokens := tokenizeAndFilter(query)
	for i := range records {
		record := &records[i]
		score := keywordScore(tokens, record)
		if score <= 0 {
			continue
		}
		monitor.KeywordHit(record, score)

		if idx, ok := indexByID[record.Id]; ok {
			// Found by both paths: reweight the semantic result
			results[idx].Relevance = hybridSemanticWeight*results[idx].Relevance +
				hybridKeywordWeight*score
		} else {
			// Keyword-only hit: raw keyword score, no semantic similarity
			results = append(results, core.SearchResult{
				Record:    *record,
				Relevance: score,
			})
		}
	}

	sortByRelevance(results)
	if len(results) > resolved.TopK {
		results = results[:resolved.TopK]
	}
	monitor.Finish(results)
	return results, nil
}

// Similar returns the owner's records closest to an already-indexed record,
// using its stored embedding as the query vector. The anchor record itself is
// excluded. Returns storage.ErrNotFound when the anchor does not exist for
// this owner.
func (s *Searcher) Similar(ctx context.Context, id, ownerID string, limit int) ([]core.SearchResult, error) {
	if limit <= 0 {
		limit = DefaultTopK
	}

	anchor, err := s.store.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	records, err := s.store.List(ctx, ownerID, core.ListFilter{})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	results := make([]core.SearchResult, 0, len(records))
	for i := range records {
		record := &records[i]
		if record.Id == anchor.Id {
			continue
		}
		if len(record.Embedding) != len(anchor.Embedding) {
			continue
		}
		similarity := core.Dot(anchor.Embedding, record.Embedding)
		if similarity < DefaultMinSimilarity {
			continue
		}
		// No query text, so no kind boost contributes
		results = append(results, core.SearchResult{
			Record:     *record,
			Similarity: similarity,
			Relevance:  s.weights.relevance(similarity, record, "", now, s.window),
		})
	}

	sortByRelevance(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// rank scores the listed records against the query embedding and returns the
// top results sorted by relevance.
func (s *Searcher) rank(records []core.VectorizedRecord, embedding []float32, loweredQuery string, resolved Options, monitor Monitor) []core.SearchResult {
	now := time.Now()
	results := make([]core.SearchResult, 0, len(records))

	for i := range records {
		record := &records[i]
		if len(record.Embedding) != len(embedding) {
			s.logger.Debug("skipping record with mismatched embedding",
				"id", record.Id, "dimensions", len(record.Embedding))
			continue
		}
		similarity := core.Dot(embedding, record.Embedding)
		if similarity < resolved.MinSimilarity {
			continue
		}
		monitor.SemanticHit(record, similarity)
		results = append(results, core.SearchResult{
			Record:     *record,
			Similarity: similarity,
			Relevance:  s.weights.relevance(similarity, record, loweredQuery, now, s.window),
		})
	}

	sortByRelevance(results)
	if len(results) > resolved.TopK {
		results = results[:resolved.TopK]
	}
	return results
}

// sortByRelevance sorts descending; the stable sort keeps store order on ties.
func sortByRelevance(results []core.SearchResult) {
	slices.SortStableFunc(results, func(a, b core.SearchResult) int {
		switch {
		case a.Relevance > b.Relevance:
			return -1
		case a.Relevance < b.Relevance:
			return 1
		}
		return 0
	})
}
