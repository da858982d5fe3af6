// Package ingest provides the indexing pipeline that turns app content into
// embedded, stored records.
//
// The Indexer type manages the indexing workflow, including:
//   - Validating and whitespace-normalizing submitted items
//   - Generating embeddings (with the configured failover behavior)
//   - Upserting records into the capped store
//
// Batch indexing runs embeddings concurrently through a worker pool, and a
// failed item is counted and skipped rather than aborting the batch. Reindex
// refreshes every stored embedding in retried batches, for use after an
// embedding model change.
package ingest
