package embedder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scrypster/vestige/internal/embedder"
)

type slowEmbedder struct {
	delay time.Duration
	dim   int
}

func (s slowEmbedder) GetDimension() int { return s.dim }

func (s slowEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	select {
	case <-time.After(s.delay):
		return make([]float32, s.dim), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type failingEmbedder struct{ dim int }

func (f failingEmbedder) GetDimension() int { return f.dim }
func (f failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("backend down")
}

func TestGuarded_TimeoutFallsBackToUnavailable(t *testing.T) {
	cfg := embedder.DefaultGuardedConfig()
	cfg.Timeout = 10 * time.Millisecond
	g := embedder.NewGuarded(slowEmbedder{delay: 100 * time.Millisecond, dim: 8}, cfg)

	_, err := g.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, embedder.ErrUnavailable)
}

func TestGuarded_BreakerTripsAfterRepeatedFailures(t *testing.T) {
	cfg := embedder.DefaultGuardedConfig()
	cfg.CircuitBreaker.MaxFailures = 2
	g := embedder.NewGuarded(failingEmbedder{dim: 8}, cfg)

	for i := 0; i < 2; i++ {
		_, err := g.Embed(context.Background(), "text")
		assert.ErrorIs(t, err, embedder.ErrUnavailable)
	}

	assert.Equal(t, "open", g.BreakerState())

	_, err := g.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, embedder.ErrUnavailable)
}

func TestGuarded_DelegatesDimension(t *testing.T) {
	g := embedder.NewGuarded(slowEmbedder{dim: 8}, embedder.DefaultGuardedConfig())
	assert.Equal(t, 8, g.GetDimension())
}
