package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder lets tests script both sides of the failover without
// importing ai/mock (which would create an import cycle).
type stubEmbedder struct {
	embedTextFunc  func(ctx context.Context, text string) ([]float32, error)
	embedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)
	calls          int
}

func (s *stubEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	return s.embedTextFunc(ctx, text)
}

func (s *stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	return s.embedTextsFunc(ctx, texts)
}

func fixedVector(dim int, fill float32) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = fill
	}
	return v
}

func TestFailoverEmbedderPrimarySuccess(t *testing.T) {
	primary := &stubEmbedder{
		embedTextFunc: func(ctx context.Context, text string) ([]float32, error) {
			return fixedVector(4, 0.5), nil
		},
	}
	fallback := &stubEmbedder{
		embedTextFunc: func(ctx context.Context, text string) ([]float32, error) {
			t.Fatal("fallback should not be called")
			return nil, nil
		},
	}

	embedder := NewFailoverEmbedder(primary, fallback, 4)
	vector, err := embedder.EmbedText(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, fixedVector(4, 0.5), vector)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls)
}

func TestFailoverEmbedderPrimaryError(t *testing.T) {
	primary := &stubEmbedder{
		embedTextFunc: func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("connection refused")
		},
	}
	fallback := &stubEmbedder{
		embedTextFunc: func(ctx context.Context, text string) ([]float32, error) {
			return fixedVector(4, 0.25), nil
		},
	}

	embedder := NewFailoverEmbedder(primary, fallback, 4)
	vector, err := embedder.EmbedText(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, fixedVector(4, 0.25), vector)
	assert.Equal(t, 1, fallback.calls)
}

func TestFailoverEmbedderEmptyVector(t *testing.T) {
	primary := &stubEmbedder{
		embedTextFunc: func(ctx context.Context, text string) ([]float32, error) {
			return []float32{}, nil
		},
	}
	fallback := &stubEmbedder{
		embedTextFunc: func(ctx context.Context, text string) ([]float32, error) {
			return fixedVector(4, 0.25), nil
		},
	}

	embedder := NewFailoverEmbedder(primary, fallback, 4)
	vector, err := embedder.EmbedText(context.Background(), "hello")

	require.NoError(t, err)
	assert.Len(t, vector, 4)
	assert.Equal(t, 1, fallback.calls)
}

func TestFailoverEmbedderDimensionMismatch(t *testing.T) {
	primary := &stubEmbedder{
		embedTextFunc: func(ctx context.Context, text string) ([]float32, error) {
			return fixedVector(768, 0.5), nil
		},
	}
	fallback := &stubEmbedder{
		embedTextFunc: func(ctx context.Context, text string) ([]float32, error) {
			return fixedVector(4, 0.25), nil
		},
	}

	embedder := NewFailoverEmbedder(primary, fallback, 4)
	vector, err := embedder.EmbedText(context.Background(), "hello")

	require.NoError(t, err)
	assert.Len(t, vector, 4)
	assert.Equal(t, 1, fallback.calls)
}

func TestFailoverEmbedderNilPrimary(t *testing.T) {
	fallback := &stubEmbedder{
		embedTextFunc: func(ctx context.Context, text string) ([]float32, error) {
			return fixedVector(4, 0.25), nil
		},
	}

	embedder := NewFailoverEmbedder(nil, fallback, 4)
	vector, err := embedder.EmbedText(context.Background(), "hello")

	require.NoError(t, err)
	assert.Len(t, vector, 4)
	assert.Equal(t, 1, fallback.calls)
}

func TestFailoverEmbedderCancelledContext(t *testing.T) {
	primary := &stubEmbedder{
		embedTextFunc: func(ctx context.Context, text string) ([]float32, error) {
			return nil, ctx.Err()
		},
	}
	fallback := &stubEmbedder{
		embedTextFunc: func(ctx context.Context, text string) ([]float32, error) {
			t.Fatal("fallback should not run after cancellation")
			return nil, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	embedder := NewFailoverEmbedder(primary, fallback, 4)
	_, err := embedder.EmbedText(ctx, "hello")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, fallback.calls)
}

func TestFailoverEmbedderBatch(t *testing.T) {
	t.Run("primary success", func(t *testing.T) {
		primary := &stubEmbedder{
			embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
				vectors := make([][]float32, len(texts))
				for i := range texts {
					vectors[i] = fixedVector(4, 0.5)
				}
				return vectors, nil
			},
		}
		fallback := &stubEmbedder{}

		embedder := NewFailoverEmbedder(primary, fallback, 4)
		vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "b"})

		require.NoError(t, err)
		assert.Len(t, vectors, 2)
		assert.Equal(t, 0, fallback.calls)
	})

	t.Run("count mismatch falls back", func(t *testing.T) {
		primary := &stubEmbedder{
			embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
				return [][]float32{fixedVector(4, 0.5)}, nil
			},
		}
		fallback := &stubEmbedder{
			embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
				vectors := make([][]float32, len(texts))
				for i := range texts {
					vectors[i] = fixedVector(4, 0.25)
				}
				return vectors, nil
			},
		}

		embedder := NewFailoverEmbedder(primary, fallback, 4)
		vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "b"})

		require.NoError(t, err)
		assert.Len(t, vectors, 2)
		assert.Equal(t, 1, fallback.calls)
	})

	t.Run("one bad vector falls back whole batch", func(t *testing.T) {
		primary := &stubEmbedder{
			embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
				return [][]float32{fixedVector(4, 0.5), {}}, nil
			},
		}
		fallback := &stubEmbedder{
			embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
				vectors := make([][]float32, len(texts))
				for i := range texts {
					vectors[i] = fixedVector(4, 0.25)
				}
				return vectors, nil
			},
		}

		embedder := NewFailoverEmbedder(primary, fallback, 4)
		vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "b"})

		require.NoError(t, err)
		assert.Len(t, vectors, 2)
		assert.Equal(t, 1, fallback.calls)
	})
}
