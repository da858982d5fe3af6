package local

import (
	"context"
	"encoding/binary"
	"strings"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/engram/ai"
	"github.com/poiesic/engram/core"
)

// DefaultDimensions is the vector length used when none is configured.
const DefaultDimensions = 384

// HashEmbedder implements ai.Embedder with deterministic token hashing.
// It never fails and needs no external service.
type HashEmbedder struct {
	dimensions int
}

var _ ai.Embedder = (*HashEmbedder)(nil)

// NewHashEmbedder creates a hash embedder producing vectors of the given
// length. Non-positive dimensions fall back to DefaultDimensions.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Dimensions returns the length of produced vectors.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// EmbedText hashes each token onto a bucket, weighted by position so earlier
// tokens count more, then L2-normalizes. Text with no tokens produces a zero
// vector, which stays zero rather than being normalized.
func (e *HashEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vector := make([]float32, e.dimensions)
	tokens := strings.Fields(strings.ToLower(text))
	for i, token := range tokens {
		bucket := tokenBucket(token) % uint64(e.dimensions)
		vector[bucket] += 1.0 / float32(i+1)
	}
	return core.NormalizeVector(vector), nil
}

// EmbedTexts embeds each text in order.
func (e *HashEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vector, err := e.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

// tokenBucket hashes a token to a stable 64-bit value using BLAKE2b, so the
// same text maps to the same vector across process restarts.
func tokenBucket(token string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(token))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}
