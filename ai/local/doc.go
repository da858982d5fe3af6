// Package local provides a deterministic, dependency-free embedder.
//
// HashEmbedder maps each whitespace-split token of the input onto a fixed
// number of buckets via BLAKE2b hashing and L2-normalizes the result. The
// vectors carry no semantic meaning beyond token overlap, but they are
// stable across process restarts and never require a network call, which
// makes the embedder the failover target that keeps indexing and answering
// alive when no embedding service is reachable.
//
// # Usage
//
//	embedder := local.NewHashEmbedder(384)
//	vector, _ := embedder.EmbedText(ctx, "linear algebra homework")
//
// The same text always produces the same vector for a given dimension count.
package local
