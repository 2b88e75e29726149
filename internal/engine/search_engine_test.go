package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/vestige/internal/embedder"
	"github.com/scrypster/vestige/internal/engine"
	"github.com/scrypster/vestige/internal/storage"
	"github.com/scrypster/vestige/pkg/types"
)

func TestSearchEngine_KeywordMode(t *testing.T) {
	store := newMemStore()
	_ = store.Store(context.Background(), &types.Memory{ID: "a", Content: "hello world"})
	eng := engine.NewSearchEngine(&memSearch{store: store}, nil)

	out, err := eng.Run(context.Background(), engine.MethodKeyword, "hello", storage.DefaultFusionWeights(), storage.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, "keyword", out.Method)
	assert.Len(t, out.Hits, 1)
}

func TestSearchEngine_VectorModeRequiresEmbedder(t *testing.T) {
	store := newMemStore()
	eng := engine.NewSearchEngine(&memSearch{store: store}, nil)

	_, err := eng.Run(context.Background(), engine.MethodVector, "hello", storage.DefaultFusionWeights(), storage.SearchOptions{})
	assert.Error(t, err)
}

func TestSearchEngine_HybridFallsBackToKeywordWithoutEmbedder(t *testing.T) {
	store := newMemStore()
	_ = store.Store(context.Background(), &types.Memory{ID: "a", Content: "hello world"})
	eng := engine.NewSearchEngine(&memSearch{store: store}, nil)

	out, err := eng.Run(context.Background(), engine.MethodHybrid, "hello", storage.DefaultFusionWeights(), storage.SearchOptions{})
	require.NoError(t, err)
	assert.True(t, out.VectorFallback)
}

func TestSearchEngine_HybridUsesEmbedderWhenAvailable(t *testing.T) {
	store := newMemStore()
	_ = store.Store(context.Background(), &types.Memory{ID: "a", Content: "hello world"})
	eng := engine.NewSearchEngine(&memSearch{store: store}, embedder.NewMockEmbedder())

	out, err := eng.Run(context.Background(), engine.MethodHybrid, "hello", storage.DefaultFusionWeights(), storage.SearchOptions{})
	require.NoError(t, err)
	assert.False(t, out.VectorFallback)
}
