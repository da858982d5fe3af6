package ai

import (
	"context"
	"log/slog"
)

// FailoverEmbedder wraps a primary embedder with a deterministic fallback.
// Any primary failure, empty result, or dimension mismatch routes to the
// fallback, so EmbedText and EmbedTexts never fail the caller while the
// fallback holds its guarantee of always producing a vector.
//
// The fallback must be infallible (see ai/local.HashEmbedder); only context
// cancellation propagates as an error.
type FailoverEmbedder struct {
	primary    Embedder
	fallback   Embedder
	dimensions int
	logger     *slog.Logger
}

var _ Embedder = (*FailoverEmbedder)(nil)

// NewFailoverEmbedder creates a failover embedder. primary may be nil, in
// which case every call goes straight to the fallback. dimensions is the
// expected vector length; primary vectors of any other length are rejected
// so stored and query vectors stay comparable.
func NewFailoverEmbedder(primary, fallback Embedder, dimensions int) *FailoverEmbedder {
	return &FailoverEmbedder{
		primary:    primary,
		fallback:   fallback,
		dimensions: dimensions,
		logger:     slog.Default().With("component", "failover-embedder"),
	}
}

// EmbedText generates an embedding, falling back on primary failure.
func (e *FailoverEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if e.primary != nil {
		vector, err := e.primary.EmbedText(ctx, text)
		if err == nil && e.usable(vector) {
			return vector, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e.logger.Warn("primary embedder unavailable, using fallback", "error", err)
	}
	return e.fallback.EmbedText(ctx, text)
}

// EmbedTexts generates embeddings for a batch, falling back as a whole when
// the primary fails or returns an unusable batch.
func (e *FailoverEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if e.primary != nil {
		vectors, err := e.primary.EmbedTexts(ctx, texts)
		if err == nil && len(vectors) == len(texts) && e.allUsable(vectors) {
			return vectors, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e.logger.Warn("primary embedder unavailable for batch, using fallback",
			"count", len(texts), "error", err)
	}
	return e.fallback.EmbedTexts(ctx, texts)
}

func (e *FailoverEmbedder) usable(vector []float32) bool {
	if len(vector) == 0 {
		return false
	}
	return e.dimensions <= 0 || len(vector) == e.dimensions
}

func (e *FailoverEmbedder) allUsable(vectors [][]float32) bool {
	for _, vector := range vectors {
		if !e.usable(vector) {
			return false
		}
	}
	return true
}
