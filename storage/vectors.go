package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/engram/core"
)

// Keys owned by the engine in the backing store.
var (
	keyCollection  = []byte("engram:records")
	keyLastIndexed = []byte("engram:lastIndexedAt")
)

// DefaultCapacity is the record cap applied when no WithCapacity option is
// given. Beyond it, upserts evict the oldest records by CreatedAtMs.
const DefaultCapacity = 1000

// VectorStoreOption configures a VectorStore.
type VectorStoreOption func(*VectorStore) error

// WithCapacity sets the maximum number of stored records.
func WithCapacity(n int) VectorStoreOption {
	return func(s *VectorStore) error {
		if n <= 0 {
			return fmt.Errorf("capacity must be positive, got %d", n)
		}
		s.capacity = n
		return nil
	}
}

// WithLogger sets the logger used for store events.
func WithLogger(logger *slog.Logger) VectorStoreOption {
	return func(s *VectorStore) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// VectorStore is a capped, persistent collection of vectorized records over
// a BlobStore. The collection lives in one versioned blob; the decoded form
// is cached in memory and every read-modify-write cycle runs under a single
// mutex, so concurrent upserts cannot interleave on the shared blob.
type VectorStore struct {
	blobs    BlobStore
	capacity int
	logger   *slog.Logger

	mu          sync.Mutex
	loaded      bool
	records     []core.VectorizedRecord
	lastIndexed time.Time
}

var _ RecordStore = (*VectorStore)(nil)

// NewVectorStore creates a VectorStore over the given blob backend.
func NewVectorStore(blobs BlobStore, opts ...VectorStoreOption) (*VectorStore, error) {
	if blobs == nil {
		return nil, errors.New("blob store is required")
	}

	s := &VectorStore{
		blobs:    blobs,
		capacity: DefaultCapacity,
		logger:   slog.Default().With("component", "vectorstore"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// load decodes the persisted collection into the cache. Caller holds mu.
// An incompatible or corrupt blob resets the store to empty rather than
// failing every subsequent operation.
func (s *VectorStore) load() error {
	if s.loaded {
		return nil
	}

	data, err := s.blobs.Get(keyCollection)
	switch {
	case errors.Is(err, ErrNotFound):
		s.records = nil
	case err != nil:
		return fmt.Errorf("load collection: %w", err)
	default:
		records, decodeErr := UnmarshalCollection(data)
		if decodeErr != nil {
			s.logger.Warn("resetting incompatible record collection", "error", decodeErr)
			s.records = nil
		} else {
			s.records = records
		}
	}

	markerData, err := s.blobs.Get(keyLastIndexed)
	switch {
	case errors.Is(err, ErrNotFound):
		s.lastIndexed = time.Time{}
	case err != nil:
		return fmt.Errorf("load marker: %w", err)
	default:
		at, decodeErr := UnmarshalMarker(markerData)
		if decodeErr != nil {
			s.logger.Warn("resetting unreadable last-indexed marker", "error", decodeErr)
			s.lastIndexed = time.Time{}
		} else {
			s.lastIndexed = at
		}
	}

	s.loaded = true
	return nil
}

// persist writes the collection blob and, when indexedAt is non-zero, the
// last-indexed marker. Caller holds mu.
func (s *VectorStore) persist(indexedAt time.Time) error {
	if err := s.blobs.Set(keyCollection, MarshalCollection(s.records)); err != nil {
		return fmt.Errorf("persist collection: %w", err)
	}
	if !indexedAt.IsZero() {
		if err := s.blobs.Set(keyLastIndexed, MarshalMarker(indexedAt)); err != nil {
			return fmt.Errorf("persist marker: %w", err)
		}
		s.lastIndexed = indexedAt
	}
	return nil
}

// Upsert inserts or replaces one record. See RecordStore.
func (s *VectorStore) Upsert(ctx context.Context, record *core.VectorizedRecord) error {
	return s.UpsertBatch(ctx, []*core.VectorizedRecord{record})
}

// UpsertBatch inserts or replaces records in one read-modify-write cycle.
func (s *VectorStore) UpsertBatch(ctx context.Context, records []*core.VectorizedRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, record := range records {
		if err := core.ValidateRecord(record); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}

	for _, record := range records {
		s.upsertOne(cloneRecord(record))
	}
	evicted := s.evict()
	if evicted > 0 {
		s.logger.Debug("evicted oldest records", "count", evicted, "capacity", s.capacity)
	}

	return s.persist(time.Now())
}

// upsertOne replaces the record with the same id in place, or appends.
// Caller holds mu.
func (s *VectorStore) upsertOne(record core.VectorizedRecord) {
	for i := range s.records {
		if s.records[i].Id == record.Id {
			s.records[i] = record
			return
		}
	}
	s.records = append(s.records, record)
}

// evict drops the oldest records until the collection fits the capacity.
// Returns the number of evicted records. Caller holds mu.
func (s *VectorStore) evict() int {
	if len(s.records) <= s.capacity {
		return 0
	}
	// Stable sort keeps insertion order among equal timestamps.
	slices.SortStableFunc(s.records, func(a, b core.VectorizedRecord) int {
		switch {
		case a.CreatedAtMs < b.CreatedAtMs:
			return -1
		case a.CreatedAtMs > b.CreatedAtMs:
			return 1
		}
		return 0
	})
	evicted := len(s.records) - s.capacity
	s.records = slices.Clone(s.records[evicted:])
	return evicted
}

// Get returns the owner's record with the given id. See RecordStore.
func (s *VectorStore) Get(ctx context.Context, ownerID, id string) (*core.VectorizedRecord, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id required", ErrInvalidQuery)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}

	for i := range s.records {
		record := &s.records[i]
		if record.Owner() != ownerID {
			continue
		}
		if record.Id == id {
			clone := cloneRecord(record)
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

// List returns the owner's records passing the filter. See RecordStore.
func (s *VectorStore) List(ctx context.Context, ownerID string, filter core.ListFilter) ([]core.VectorizedRecord, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id required", ErrInvalidQuery)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}

	var out []core.VectorizedRecord
	for i := range s.records {
		record := &s.records[i]
		// Owner scope first; the filter can only narrow within it.
		if record.Owner() != ownerID {
			continue
		}
		if !filter.Match(record) {
			continue
		}
		out = append(out, cloneRecord(record))
	}
	return out, nil
}

// All returns every stored record. Administrative surface; see RecordStore.
func (s *VectorStore) All(ctx context.Context) ([]core.VectorizedRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}

	out := make([]core.VectorizedRecord, 0, len(s.records))
	for i := range s.records {
		out = append(out, cloneRecord(&s.records[i]))
	}
	return out, nil
}

// Stats summarizes the collection. See RecordStore.
func (s *VectorStore) Stats(ctx context.Context) (core.StoreStats, error) {
	if err := ctx.Err(); err != nil {
		return core.StoreStats{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return core.StoreStats{}, err
	}

	stats := core.StoreStats{
		Count:         len(s.records),
		ByKind:        make(map[core.Kind]int, len(core.Kinds())),
		LastIndexedAt: s.lastIndexed,
	}
	for _, kind := range core.Kinds() {
		stats.ByKind[kind] = 0
	}
	for i := range s.records {
		stats.ByKind[s.records[i].Kind]++
	}
	return stats, nil
}

// Clear removes every record and the last-indexed marker.
func (s *VectorStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.blobs.Delete(keyCollection); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}
	if err := s.blobs.Delete(keyLastIndexed); err != nil {
		return fmt.Errorf("clear marker: %w", err)
	}

	s.records = nil
	s.lastIndexed = time.Time{}
	s.loaded = true
	s.logger.Info("vector store cleared")
	return nil
}

// cloneRecord deep-copies a record so cached slices and maps never alias
// caller-held memory.
func cloneRecord(record *core.VectorizedRecord) core.VectorizedRecord {
	clone := *record
	clone.Embedding = slices.Clone(record.Embedding)
	if record.Metadata != nil {
		clone.Metadata = maps.Clone(record.Metadata)
	}
	return clone
}
