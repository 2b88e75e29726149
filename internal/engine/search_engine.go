package engine

import (
	"context"
	"fmt"

	"github.com/scrypster/vestige/internal/embedder"
	"github.com/scrypster/vestige/internal/storage"
)

// SearchEngine wraps a storage.SearchProvider and an Embedder to implement
// spec.md §4.5's three retrieval modes. Adapted from the
// SearchOrchestrator pattern (type-asserting an optional provider off the
// store), generalized so the keyword/vector/hybrid split and the RRF
// weights are first-class instead of hardcoded in sqlite/search_provider.go.
type SearchEngine struct {
	search storage.SearchProvider
	embed  embedder.Embedder
}

// NewSearchEngine builds a SearchEngine. embed may be nil, in which case
// vector and hybrid search degrade to keyword-only per spec.md §4.5's
// embedder-unavailable fallback.
func NewSearchEngine(search storage.SearchProvider, embed embedder.Embedder) *SearchEngine {
	return &SearchEngine{search: search, embed: embed}
}

// Method is the retrieval mode a caller requests.
type Method string

const (
	MethodKeyword Method = "keyword"
	MethodVector  Method = "vector"
	MethodHybrid  Method = "hybrid"
)

// Run executes the requested retrieval mode and returns the raw candidate
// set, before reranking. For MethodVector and MethodHybrid, queryText is
// embedded via the configured Embedder; if embedding fails or no Embedder
// is configured, MethodVector returns an error and MethodHybrid falls back
// to keyword-only (storage.SearchResultSet.VectorFallback=true).
func (e *SearchEngine) Run(ctx context.Context, method Method, queryText string, weights storage.FusionWeights, opts storage.SearchOptions) (*storage.SearchResultSet, error) {
	opts.Normalize()

	switch method {
	case MethodKeyword:
		opts.Query = queryText
		return e.search.FullTextSearch(ctx, opts)

	case MethodVector:
		vec, err := e.embedQuery(ctx, queryText)
		if err != nil {
			return nil, fmt.Errorf("engine: vector search requires an embedder: %w", err)
		}
		return e.search.VectorSearch(ctx, vec, opts)

	case MethodHybrid:
		opts.Query = queryText
		vec, _ := e.embedQuery(ctx, queryText) // nil vec triggers keyword-only fallback
		return e.search.HybridSearch(ctx, queryText, vec, weights, opts)

	default:
		return nil, fmt.Errorf("engine: unknown search method %q", method)
	}
}

func (e *SearchEngine) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if e.embed == nil {
		return nil, embedder.ErrUnavailable
	}
	return e.embed.Embed(ctx, text)
}
