// Package embedder maps text to fixed-dimension unit vectors, following
// the internal/llm.EmbeddingGenerator interface shape, wrapped with a
// gobreaker circuit breaker and a token-bucket rate limiter adapted from
// an HTTP middleware pattern.
package embedder

import (
	"context"
	"errors"
)

// Dimension is the output length of a real text-encoder model. Each
// Embedder reports its own fixed output length through GetDimension;
// MockEmbedder uses MockDimension.
const Dimension = 768

// ErrUnavailable signals the embedder could not produce a vector for this
// call (timeout, backend down, circuit open). Callers should proceed with
// embedding=null per the orchestrator's fallback policy.
var ErrUnavailable = errors.New("embedder: unavailable")

// Embedder maps text to a deterministic, unit-normalized vector whose
// length is the implementation's GetDimension().
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	GetDimension() int
}
