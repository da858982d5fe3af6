package storage

import (
	"context"

	"github.com/poiesic/engram/core"
)

// BlobStore is the minimal key-value surface a storage backend must provide.
// Implementations must be thread-safe.
type BlobStore interface {
	// Get returns the value stored under key.
	// Returns ErrNotFound when the key is absent.
	Get(key []byte) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(key, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key []byte) error

	// Close closes the backend and releases resources.
	Close() error
}

// RecordStore provides operations over the indexed record collection.
// Implementations must be thread-safe; writes are serialized so concurrent
// upserts never interleave.
type RecordStore interface {
	// Upsert inserts the record or, when a record with the same Id exists,
	// replaces it in place. Inserting beyond capacity evicts the oldest
	// records by CreatedAtMs.
	Upsert(ctx context.Context, record *core.VectorizedRecord) error

	// UpsertBatch applies Upsert semantics to all records in one
	// read-modify-write cycle.
	UpsertBatch(ctx context.Context, records []*core.VectorizedRecord) error

	// Get returns the record with the given id owned by ownerID.
	// Records owned by anyone else read as ErrNotFound.
	Get(ctx context.Context, ownerID, id string) (*core.VectorizedRecord, error)

	// List returns the owner's records passing the filter. Owner scoping is
	// applied before the filter and cannot be widened by it.
	List(ctx context.Context, ownerID string, filter core.ListFilter) ([]core.VectorizedRecord, error)

	// All returns every stored record regardless of owner. Administrative
	// surface for whole-store maintenance such as reindexing; never exposed
	// on query paths.
	All(ctx context.Context) ([]core.VectorizedRecord, error)

	// Stats summarizes the collection contents.
	Stats(ctx context.Context) (core.StoreStats, error)

	// Clear removes every record and the last-indexed marker.
	Clear(ctx context.Context) error
}
