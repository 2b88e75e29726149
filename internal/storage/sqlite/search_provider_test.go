package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/vestige/internal/storage"
	"github.com/scrypster/vestige/pkg/types"
)

func TestFullTextSearch_MatchesContent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Store(ctx, newTestMemory("mem-1", "the quick brown fox")))
	require.NoError(t, store.Store(ctx, newTestMemory("mem-2", "an unrelated sentence")))

	out, err := store.FullTextSearch(ctx, storage.SearchOptions{Query: "fox"})
	require.NoError(t, err)
	require.Len(t, out.Hits, 1)
	assert.Equal(t, "mem-1", out.Hits[0].Memory.ID)
}

func TestFullTextSearch_EmptyQueryFallsBackToList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Store(ctx, newTestMemory("mem-1", "any content")))

	out, err := store.FullTextSearch(ctx, storage.SearchOptions{Query: ""})
	require.NoError(t, err)
	assert.Equal(t, "like_fallback", out.Method)
	assert.Len(t, out.Hits, 1)
}

func TestVectorSearch_RanksByCosineSimilarity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	near := newTestMemory("near", "vector near")
	near.Embedding = []float32{1, 0, 0}
	far := newTestMemory("far", "vector far")
	far.Embedding = []float32{1, 1, 0}
	require.NoError(t, store.Store(ctx, near))
	require.NoError(t, store.Store(ctx, far))

	out, err := store.VectorSearch(ctx, []float32{1, 0, 0}, storage.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, out.Hits, 2)
	assert.Equal(t, "near", out.Hits[0].Memory.ID)
}

func TestVectorSearch_FiltersBelowMinSimilarity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	orth := newTestMemory("orth", "orthogonal")
	orth.Embedding = []float32{0, 1, 0}
	require.NoError(t, store.Store(ctx, orth))

	out, err := store.VectorSearch(ctx, []float32{1, 0, 0}, storage.SearchOptions{MinSimilarity: 0.5})
	require.NoError(t, err)
	assert.Empty(t, out.Hits)
}

func TestHybridSearch_FallsBackToKeywordWithoutVector(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Store(ctx, newTestMemory("mem-1", "fox hunt")))

	out, err := store.HybridSearch(ctx, "fox", nil, storage.DefaultFusionWeights(), storage.SearchOptions{})
	require.NoError(t, err)
	assert.True(t, out.VectorFallback)
	assert.Equal(t, "hybrid", out.Method)
}

func TestHybridSearch_FusesKeywordAndVectorHits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	both := newTestMemory("both", "fox hunting trip")
	both.Embedding = []float32{1, 0, 0}
	keywordOnly := newTestMemory("keyword-only", "fox sighting report")
	keywordOnly.Embedding = []float32{0, 1, 0}
	require.NoError(t, store.Store(ctx, both))
	require.NoError(t, store.Store(ctx, keywordOnly))

	out, err := store.HybridSearch(ctx, "fox", []float32{1, 0, 0}, storage.DefaultFusionWeights(), storage.SearchOptions{})
	require.NoError(t, err)
	assert.False(t, out.VectorFallback)
	require.NotEmpty(t, out.Hits)
	assert.Equal(t, "both", out.Hits[0].Memory.ID)
}

func TestFullTextSearch_RespectsDeletedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Store(ctx, newTestMemory("mem-1", "fox in the garden")))
	require.NoError(t, store.Delete(ctx, "mem-1"))

	out, err := store.FullTextSearch(ctx, storage.SearchOptions{Query: "fox"})
	require.NoError(t, err)
	assert.Empty(t, out.Hits)
}

func TestFullTextSearch_FiltersBySourceType(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fact := newTestMemory("fact-1", "fox fact")
	fact.SourceType = types.SourceTypeFact
	concept := newTestMemory("concept-1", "fox concept")
	concept.SourceType = types.SourceTypeConcept
	require.NoError(t, store.Store(ctx, fact))
	require.NoError(t, store.Store(ctx, concept))

	out, err := store.FullTextSearch(ctx, storage.SearchOptions{Query: "fox", SourceType: types.SourceTypeConcept})
	require.NoError(t, err)
	require.Len(t, out.Hits, 1)
	assert.Equal(t, "concept-1", out.Hits[0].Memory.ID)
}

func TestFullTextSearch_FiltersByRetentionAndTags(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	weak := newTestMemory("weak", "fox weak retention")
	weak.RetentionStrength = 0.1
	weak.Tags = []string{"animal"}
	strong := newTestMemory("strong", "fox strong retention")
	strong.RetentionStrength = 0.9
	strong.Tags = []string{"wildlife"}
	require.NoError(t, store.Store(ctx, weak))
	require.NoError(t, store.Store(ctx, strong))

	out, err := store.FullTextSearch(ctx, storage.SearchOptions{Query: "fox", MinRetention: 0.5})
	require.NoError(t, err)
	require.Len(t, out.Hits, 1)
	assert.Equal(t, "strong", out.Hits[0].Memory.ID)

	out, err = store.FullTextSearch(ctx, storage.SearchOptions{Query: "fox", Tags: []string{"animal"}})
	require.NoError(t, err)
	require.Len(t, out.Hits, 1)
	assert.Equal(t, "weak", out.Hits[0].Memory.ID)
}

func TestVectorSearch_FiltersBySourcePlatform(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	slack := newTestMemory("slack-mem", "vector from slack")
	slack.SourcePlatform = "slack"
	slack.Embedding = []float32{1, 0, 0}
	email := newTestMemory("email-mem", "vector from email")
	email.SourcePlatform = "email"
	email.Embedding = []float32{1, 0, 0}
	require.NoError(t, store.Store(ctx, slack))
	require.NoError(t, store.Store(ctx, email))

	out, err := store.VectorSearch(ctx, []float32{1, 0, 0}, storage.SearchOptions{SourcePlatform: "slack"})
	require.NoError(t, err)
	require.Len(t, out.Hits, 1)
	assert.Equal(t, "slack-mem", out.Hits[0].Memory.ID)
}

func TestFullTextSearch_AppliesMinScoreThreshold(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Store(ctx, newTestMemory("mem-1", "fox in the garden")))

	out, err := store.FullTextSearch(ctx, storage.SearchOptions{Query: "fox", MinScore: 1.0})
	require.NoError(t, err)
	assert.Empty(t, out.Hits)
}
