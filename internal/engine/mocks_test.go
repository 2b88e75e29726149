package engine_test

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/scrypster/vestige/internal/storage"
	"github.com/scrypster/vestige/pkg/types"
)

// memStore is a minimal in-memory storage.MemoryStore, following the same
// mockListStore pattern used elsewhere in this codebase: implement just
// enough of the interface in a map to exercise the engine without a real
// database.
type memStore struct {
	items map[string]*types.Memory
}

func newMemStore() *memStore { return &memStore{items: make(map[string]*types.Memory)} }

func (s *memStore) Store(ctx context.Context, m *types.Memory) error {
	cp := *m
	s.items[m.ID] = &cp
	return nil
}

func (s *memStore) Get(ctx context.Context, id string) (*types.Memory, error) {
	m, ok := s.items[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) List(ctx context.Context, opts storage.ListOptions) (*storage.PaginatedResult[types.Memory], error) {
	opts.Normalize()
	var all []types.Memory
	for _, m := range s.items {
		all = append(all, *m)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	start := opts.Offset()
	end := start + opts.Limit
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	return &storage.PaginatedResult[types.Memory]{
		Items:   all[start:end],
		Total:   len(all),
		Page:    opts.Page,
		HasMore: end < len(all),
	}, nil
}

func (s *memStore) Update(ctx context.Context, m *types.Memory) error {
	if _, ok := s.items[m.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *m
	s.items[m.ID] = &cp
	return nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	m, ok := s.items[id]
	if !ok {
		return storage.ErrNotFound
	}
	now := time.Now()
	m.DeletedAt = &now
	return nil
}

func (s *memStore) Purge(ctx context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *memStore) Restore(ctx context.Context, id string) error {
	m, ok := s.items[id]
	if !ok {
		return storage.ErrNotFound
	}
	m.DeletedAt = nil
	return nil
}

func (s *memStore) GetEvolutionChain(ctx context.Context, memoryID string) ([]*types.Memory, error) {
	return nil, nil
}

func (s *memStore) ListBySourceType(ctx context.Context, st types.SourceType, opts storage.ListOptions) (*storage.PaginatedResult[types.Memory], error) {
	return s.List(ctx, opts)
}

func (s *memStore) SearchByTagPrefix(ctx context.Context, prefix string, opts storage.ListOptions) (*storage.PaginatedResult[types.Memory], error) {
	return s.List(ctx, opts)
}

func (s *memStore) IncrementAccessCount(ctx context.Context, id string, accessedAt time.Time) error {
	m, ok := s.items[id]
	if !ok {
		return storage.ErrNotFound
	}
	m.AccessCount++
	m.LastAccessedAt = &accessedAt
	return nil
}

func (s *memStore) UpdateCard(ctx context.Context, id string, card types.CardState, retention, stability float64) error {
	m, ok := s.items[id]
	if !ok {
		return storage.ErrNotFound
	}
	m.Card = card
	m.RetentionStrength = retention
	m.StabilityFactor = stability
	return nil
}

func (s *memStore) DequeueDue(ctx context.Context, asOf time.Time, limit int) ([]*types.Memory, error) {
	var out []*types.Memory
	for _, m := range s.items {
		if m.Card.NextReview != nil && !m.Card.NextReview.After(asOf) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) MarkContradicted(ctx context.Context, memoryID, contradictionID string) error {
	m, ok := s.items[memoryID]
	if !ok {
		return storage.ErrNotFound
	}
	m.IsContradicted = true
	m.ContradictionIDs = append(m.ContradictionIDs, contradictionID)
	return nil
}

func (s *memStore) Close() error { return nil }

// memSearch is a minimal storage.SearchProvider doing a case-insensitive
// substring match over the same backing map, standing in for FTS5/cosine
// ranking in tests that only need a candidate set to rerank.
type memSearch struct {
	store *memStore
}

func (s *memSearch) FullTextSearch(ctx context.Context, opts storage.SearchOptions) (*storage.SearchResultSet, error) {
	opts.Normalize()
	var hits []storage.SearchHit
	q := strings.ToLower(opts.Query)
	for _, m := range s.store.items {
		if q == "" || strings.Contains(strings.ToLower(m.Content), q) {
			hits = append(hits, storage.SearchHit{Memory: cloneMemory(m), Score: 1.0})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Memory.ID < hits[j].Memory.ID })
	for i := range hits {
		hits[i].Rank = i
	}
	return &storage.SearchResultSet{Hits: hits, Total: len(hits), Method: "keyword"}, nil
}

func (s *memSearch) VectorSearch(ctx context.Context, queryVector []float32, opts storage.SearchOptions) (*storage.SearchResultSet, error) {
	return s.FullTextSearch(ctx, opts)
}

func (s *memSearch) HybridSearch(ctx context.Context, queryText string, queryVector []float32, weights storage.FusionWeights, opts storage.SearchOptions) (*storage.SearchResultSet, error) {
	rs, err := s.FullTextSearch(ctx, opts)
	if err != nil {
		return nil, err
	}
	rs.Method = "hybrid"
	if queryVector == nil {
		rs.VectorFallback = true
	}
	return rs, nil
}

func cloneMemory(m *types.Memory) *types.Memory {
	cp := *m
	return &cp
}

// memEdges is a minimal storage.EdgeStore backed by a slice.
type memEdges struct {
	edges []types.Edge
}

func (e *memEdges) CreateEdge(ctx context.Context, edge *types.Edge) error {
	e.edges = append(e.edges, *edge)
	return nil
}

func (e *memEdges) GetEdges(ctx context.Context, memoryID string) ([]types.Edge, error) {
	var out []types.Edge
	for _, edge := range e.edges {
		if edge.FromID == memoryID || edge.ToID == memoryID {
			out = append(out, edge)
		}
	}
	return out, nil
}

func (e *memEdges) DeleteEdge(ctx context.Context, id string) error {
	for i, edge := range e.edges {
		if edge.ID == id {
			e.edges = append(e.edges[:i], e.edges[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}
