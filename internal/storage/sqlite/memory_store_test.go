package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/vestige/internal/storage"
	"github.com/scrypster/vestige/internal/storage/sqlite"
	"github.com/scrypster/vestige/pkg/types"
)

func newTestStore(t *testing.T) *sqlite.MemoryStore {
	t.Helper()
	store, err := sqlite.NewMemoryStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestMemory(id, content string) *types.Memory {
	return &types.Memory{
		ID:         id,
		Content:    content,
		SourceType: types.SourceTypeFact,
		Card:       types.NewCard(),
	}
}

func TestStoreAndGet_RoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	m := newTestMemory("mem-1", "Paris is the capital of France")
	require.NoError(t, store.Store(ctx, m))

	got, err := store.Get(ctx, "mem-1")
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France", got.Content)
	assert.Equal(t, types.SourceTypeFact, got.SourceType)
	assert.Equal(t, types.StateNew, got.Card.State)
}

func TestGet_UnknownIDReturnsErrNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_RejectsMissingID(t *testing.T) {
	store := newTestStore(t)
	err := store.Store(context.Background(), &types.Memory{Content: "x", SourceType: types.SourceTypeFact})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestStore_RejectsInvalidSourceType(t *testing.T) {
	store := newTestStore(t)
	err := store.Store(context.Background(), &types.Memory{ID: "mem-1", Content: "x", SourceType: "bogus"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestDeleteAndRestore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Store(ctx, newTestMemory("mem-1", "fact one")))

	require.NoError(t, store.Delete(ctx, "mem-1"))
	_, err := store.Get(ctx, "mem-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Restore(ctx, "mem-1"))
	got, err := store.Get(ctx, "mem-1")
	require.NoError(t, err)
	assert.Equal(t, "mem-1", got.ID)
}

func TestPurge_HardDeletes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Store(ctx, newTestMemory("mem-1", "fact one")))
	require.NoError(t, store.Purge(ctx, "mem-1"))

	err := store.Restore(ctx, "mem-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIncrementAccessCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Store(ctx, newTestMemory("mem-1", "fact one")))

	accessedAt := time.Now().Truncate(time.Second)
	require.NoError(t, store.IncrementAccessCount(ctx, "mem-1", accessedAt))

	got, err := store.Get(ctx, "mem-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.AccessCount)
	require.NotNil(t, got.LastAccessedAt)
	assert.True(t, got.LastAccessedAt.Equal(accessedAt))
}

func TestUpdateCard_PersistsSchedulerOutput(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Store(ctx, newTestMemory("mem-1", "fact one")))

	card := types.CardState{
		Difficulty: 4.2, Stability: 10, State: types.StateReview,
		Reps: 1, Lapses: 0, ScheduledDays: 10,
	}
	require.NoError(t, store.UpdateCard(ctx, "mem-1", card, 0.9, 0.5))

	got, err := store.Get(ctx, "mem-1")
	require.NoError(t, err)
	assert.Equal(t, types.StateReview, got.Card.State)
	assert.InDelta(t, 10.0, got.Card.Stability, 1e-9)
}

func TestDequeueDue_OnlyReturnsDueMemories(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Store(ctx, newTestMemory("due", "due fact")))
	require.NoError(t, store.Store(ctx, newTestMemory("future", "future fact")))

	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(24 * time.Hour)

	dueCard := types.NewCard()
	dueCard.NextReview = &past
	require.NoError(t, store.UpdateCard(ctx, "due", dueCard, 0.9, 0.5))

	futureCard := types.NewCard()
	futureCard.NextReview = &future
	require.NoError(t, store.UpdateCard(ctx, "future", futureCard, 0.9, 0.5))

	out, err := store.DequeueDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "due", out[0].ID)
}

func TestMarkContradicted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Store(ctx, newTestMemory("old", "old fact")))

	require.NoError(t, store.MarkContradicted(ctx, "old", "new"))

	got, err := store.Get(ctx, "old")
	require.NoError(t, err)
	assert.True(t, got.IsContradicted)
	assert.Contains(t, got.ContradictionIDs, "new")

	// Marking the same contradiction twice must not duplicate the ID.
	require.NoError(t, store.MarkContradicted(ctx, "old", "new"))
	got, err = store.Get(ctx, "old")
	require.NoError(t, err)
	assert.Len(t, got.ContradictionIDs, 1)
}

func TestListBySourceType(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Store(ctx, newTestMemory("fact-1", "a fact")))
	code := newTestMemory("code-1", "a snippet")
	code.SourceType = types.SourceTypeCode
	require.NoError(t, store.Store(ctx, code))

	out, err := store.ListBySourceType(ctx, types.SourceTypeCode, storage.ListOptions{})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "code-1", out.Items[0].ID)
}

func TestGetEvolutionChain_WalksSupersedesEdges(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	edges := sqlite.NewEdgeStore(store.GetDB())

	require.NoError(t, store.Store(ctx, newTestMemory("v1", "first version")))
	require.NoError(t, store.Store(ctx, newTestMemory("v2", "second version")))
	require.NoError(t, store.Store(ctx, newTestMemory("v3", "third version")))

	require.NoError(t, edges.CreateEdge(ctx, &types.Edge{ID: "e1", FromID: "v1", ToID: "v2", Kind: types.EdgeKindSupersedes}))
	require.NoError(t, edges.CreateEdge(ctx, &types.Edge{ID: "e2", FromID: "v2", ToID: "v3", Kind: types.EdgeKindSupersedes}))

	chain, err := store.GetEvolutionChain(ctx, "v2")
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, "v1", chain[0].ID)
	assert.Equal(t, "v2", chain[1].ID)
	assert.Equal(t, "v3", chain[2].ID)
}
