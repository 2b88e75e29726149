package storage

import (
	"errors"
	"time"

	"github.com/scrypster/vestige/pkg/types"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrGraphBoundsExceeded indicates that graph traversal exceeded bounds.
	ErrGraphBoundsExceeded = errors.New("graph bounds exceeded")
)

// PaginatedResult represents a paginated result set with type safety using generics.
type PaginatedResult[T any] struct {
	Items    []T
	Total    int
	Page     int
	PageSize int
	HasMore  bool
}

// ListOptions provides pagination and filtering options for list operations.
type ListOptions struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string

	// SourceType filters by the memory's source_type. Empty means no filter.
	SourceType types.SourceType

	// SourcePlatform filters by the origin tag. Empty means no filter.
	SourcePlatform string

	CreatedAfter  time.Time
	CreatedBefore time.Time

	// MinRetention filters to memories with retention_strength >= this value.
	MinRetention float64

	// TagPrefix restricts to memories with at least one tag sharing this
	// prefix (the Store method promoting a raw-query escape hatch to a
	// first-class call, per the design note on layering leaks).
	TagPrefix string

	IncludeDeleted bool
	OnlyDeleted    bool
}

var allowedSortFields = map[string]bool{
	"created_at":         true,
	"updated_at":         true,
	"id":                 true,
	"next_review":        true,
	"retention_strength": true,
	"access_count":       true,
}

// Normalize applies defaults and validates the ListOptions.
func (o *ListOptions) Normalize() {
	if !allowedSortFields[o.SortBy] {
		o.SortBy = "created_at"
	}
	if o.SortOrder != "asc" && o.SortOrder != "desc" {
		o.SortOrder = "desc"
	}
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = 10
	}
	if o.Limit > 100 {
		o.Limit = 100
	}
}

// Offset calculates the offset for SQL queries based on page and limit.
func (o *ListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// SearchOptions provides options shared by keyword, vector, and hybrid
// search, per spec.md §4.5.
type SearchOptions struct {
	Query string

	Limit  int
	Offset int

	SourceType     types.SourceType
	SourcePlatform string
	Tags           []string

	MinRetention float64
	MaxRetention float64

	CreatedAfter  time.Time
	CreatedBefore time.Time

	// MinScore thresholds the keyword score in FullTextSearch and the fused
	// score in HybridSearch; VectorSearch filters by MinSimilarity instead.
	MinScore float64

	// MinSimilarity thresholds cosine similarity for vector search
	// specifically (default 0.3).
	MinSimilarity float64

	// FuzzyFallback enables the relaxed OR-based retry when the initial
	// keyword search returns zero results.
	FuzzyFallback bool
}

const (
	maxQueryLength       = 1000
	defaultSearchLimit   = 10
	maxSearchLimit       = 100
	defaultMinSimilarity = 0.3
)

// Normalize applies defaults and validates the SearchOptions.
func (o *SearchOptions) Normalize() {
	if len(o.Query) > maxQueryLength {
		o.Query = o.Query[:maxQueryLength]
	}
	if o.Limit < 1 {
		o.Limit = defaultSearchLimit
	}
	if o.Limit > maxSearchLimit {
		o.Limit = maxSearchLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	if o.MinScore < 0 {
		o.MinScore = 0
	}
	if o.MinScore > 1 {
		o.MinScore = 1
	}
	if o.MinSimilarity <= 0 {
		o.MinSimilarity = defaultMinSimilarity
	}
}

// GraphBounds prevents combinatorial explosion during graph traversal.
type GraphBounds struct {
	MaxHops  int
	MaxNodes int
	MaxEdges int
	Timeout  time.Duration

	CreatedAfter  time.Time
	CreatedBefore time.Time
}

// Normalize applies defaults and validates the GraphBounds.
func (g *GraphBounds) Normalize() {
	if g.MaxHops < 1 {
		g.MaxHops = 3
	}
	if g.MaxHops > 10 {
		g.MaxHops = 10
	}
	if g.MaxNodes < 1 {
		g.MaxNodes = 100
	}
	if g.MaxNodes > 1000 {
		g.MaxNodes = 1000
	}
	if g.MaxEdges < 1 {
		g.MaxEdges = 500
	}
	if g.MaxEdges > 5000 {
		g.MaxEdges = 5000
	}
	if g.Timeout == 0 {
		g.Timeout = 30 * time.Second
	}
	if g.Timeout > 5*time.Minute {
		g.Timeout = 5 * time.Minute
	}
}

// MatchesTemporalBounds reports whether createdAt falls within the window
// defined by CreatedAfter/CreatedBefore. A zero bound is unconstrained.
func (g *GraphBounds) MatchesTemporalBounds(createdAt time.Time) bool {
	if !g.CreatedAfter.IsZero() && !createdAt.After(g.CreatedAfter) {
		return false
	}
	if !g.CreatedBefore.IsZero() && !createdAt.Before(g.CreatedBefore) {
		return false
	}
	return true
}

// GraphResult represents the result of a graph traversal operation.
type GraphResult struct {
	Nodes         []string
	Edges         []types.Edge
	BoundsReached []string
}

// SearchHit pairs a matched memory with its modality-specific score and
// enough bookkeeping for fusion/rerank to resolve ties and build reasons.
type SearchHit struct {
	Memory *types.Memory
	Score  float64
	Rank   int // 0-indexed rank within its originating modality
}

// SearchResultSet is what the Search Engine returns: the fused/ranked
// hits plus metadata the orchestrator and reranker need.
type SearchResultSet struct {
	Hits           []SearchHit
	Total          int
	Method         string // "keyword", "vector", "hybrid", or "like_fallback"
	VectorFallback bool   // true if hybrid degraded to keyword-only
}
