// Package storage provides composable storage interfaces for the Vestige
// memory engine. Small, focused interfaces (Interface Segregation) so a
// backend can implement only what it needs, following a split of
// MemoryStore/SearchProvider/EdgeStore rather than one monolithic
// interface.
package storage

import (
	"context"
	"time"

	"github.com/scrypster/vestige/pkg/types"
)

// MemoryStore provides CRUD, FSRS card persistence, and the review queue
// view. This is the core storage interface backing the Memory Lifecycle
// Orchestrator.
type MemoryStore interface {
	// Store creates or updates a memory (upsert semantics).
	Store(ctx context.Context, memory *types.Memory) error

	// Get retrieves a memory by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*types.Memory, error)

	// List retrieves memories with pagination and filtering.
	List(ctx context.Context, opts ListOptions) (*PaginatedResult[types.Memory], error)

	// Update modifies an existing memory. Returns ErrNotFound if absent.
	Update(ctx context.Context, memory *types.Memory) error

	// Delete soft-deletes a memory (sets deleted_at). Returns ErrNotFound
	// if absent.
	Delete(ctx context.Context, id string) error

	// Purge hard-deletes a memory permanently. Returns ErrNotFound if absent.
	Purge(ctx context.Context, id string) error

	// Restore clears deleted_at on a soft-deleted memory. Returns
	// ErrNotFound if absent or not deleted.
	Restore(ctx context.Context, id string) error

	// GetEvolutionChain returns every memory reachable via supersede links
	// touching memoryID (both directions), ordered oldest to newest,
	// capped at 50 memories to prevent unbounded walks.
	GetEvolutionChain(ctx context.Context, memoryID string) ([]*types.Memory, error)

	// ListBySourceType promotes a raw-query escape hatch to a first-class
	// Store method, per the design note on layering leaks.
	ListBySourceType(ctx context.Context, sourceType types.SourceType, opts ListOptions) (*PaginatedResult[types.Memory], error)

	// SearchByTagPrefix likewise promotes tag-prefix lookups to a
	// first-class method instead of a raw query escape hatch.
	SearchByTagPrefix(ctx context.Context, prefix string, opts ListOptions) (*PaginatedResult[types.Memory], error)

	// IncrementAccessCount atomically increments access_count and sets
	// last_accessed_at to accessedAt. Used by the Testing Effect side
	// effect on every successful search hit.
	IncrementAccessCount(ctx context.Context, id string, accessedAt time.Time) error

	// UpdateCard persists the FSRS card fields plus the derived
	// retention_strength/stability_factor after a review.
	UpdateCard(ctx context.Context, id string, card types.CardState, retentionStrength, stabilityFactor float64) error

	// DequeueDue returns up to limit memories whose next_review is due at
	// or before asOf, ordered by next_review ascending — the review
	// queue view.
	DequeueDue(ctx context.Context, asOf time.Time, limit int) ([]*types.Memory, error)

	// MarkContradicted flags memoryID as is_contradicted and appends
	// contradictionID to its contradiction_ids, as part of supersede.
	MarkContradicted(ctx context.Context, memoryID, contradictionID string) error

	// Close releases any resources held by the store.
	Close() error
}

// SearchProvider provides keyword, vector, and hybrid retrieval over the
// Store's indexes.
type SearchProvider interface {
	// FullTextSearch runs a sanitized BM25/FTS5 query, falling back to a
	// LIKE scan if the engine rejects the sanitized query.
	FullTextSearch(ctx context.Context, opts SearchOptions) (*SearchResultSet, error)

	// VectorSearch embeds the query (via the caller-supplied vector) and
	// ranks stored embeddings by cosine similarity.
	VectorSearch(ctx context.Context, queryVector []float32, opts SearchOptions) (*SearchResultSet, error)

	// HybridSearch fuses keyword and vector candidate lists via
	// Reciprocal Rank Fusion. If queryVector is nil, falls back to
	// keyword-only and marks the result set accordingly.
	HybridSearch(ctx context.Context, queryText string, queryVector []float32, weights FusionWeights, opts SearchOptions) (*SearchResultSet, error)
}

// FusionWeights are the per-modality weights and RRF constant used by
// HybridSearch.
type FusionWeights struct {
	Keyword             float64
	Vector              float64
	K                    float64 // RRF constant, default 60
	CandidateMultiplier int     // candidates requested per modality = multiplier * limit
}

// DefaultFusionWeights returns spec.md §4.5's defaults: equal weighting,
// k=60, 3x candidate over-fetch.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{Keyword: 0.5, Vector: 0.5, K: 60, CandidateMultiplier: 3}
}

// EdgeStore manages the memory-to-memory graph used for connection-
// importance and supersede linking.
type EdgeStore interface {
	CreateEdge(ctx context.Context, edge *types.Edge) error
	GetEdges(ctx context.Context, memoryID string) ([]types.Edge, error)
	DeleteEdge(ctx context.Context, id string) error
}
