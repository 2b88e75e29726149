package embedder_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/vestige/internal/embedder"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := embedder.NewMockEmbedder()
	ctx := context.Background()

	v1, err := m.Embed(ctx, "the quick brown fox")
	require.NoError(t, err)
	v2, err := m.Embed(ctx, "the quick brown fox")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
}

func TestMockEmbedder_UnitNorm(t *testing.T) {
	m := embedder.NewMockEmbedder()
	v, err := m.Embed(context.Background(), "a memory about Paris and France")
	require.NoError(t, err)

	var sumSq float64
	for _, f := range v {
		sumSq += float64(f) * float64(f)
	}
	norm := math.Sqrt(sumSq)
	assert.InDelta(t, 1.0, norm, 1e-6)
}

func TestMockEmbedder_SimilarTextsScoreHigherThanUnrelated(t *testing.T) {
	m := embedder.NewMockEmbedder()
	ctx := context.Background()

	a, err := m.Embed(ctx, "Paris is the capital of France")
	require.NoError(t, err)
	b, err := m.Embed(ctx, "Paris is the capital city of France")
	require.NoError(t, err)
	c, err := m.Embed(ctx, "quantum chromodynamics describes the strong force")
	require.NoError(t, err)

	simAB := cosine(a, b)
	simAC := cosine(a, c)

	assert.Greater(t, simAB, simAC)
}

func TestMockEmbedder_Dimension(t *testing.T) {
	m := embedder.NewMockEmbedder()
	assert.Equal(t, embedder.MockDimension, m.GetDimension())

	v, err := m.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, v, embedder.MockDimension)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
