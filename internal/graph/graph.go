// Package graph computes the connection-importance factor and performs
// bounded graph traversal over memory-to-memory edges, using a bounded
// BFS-with-frontier structure repointed at types.Edge rows instead of an
// entity-relationship graph.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/scrypster/vestige/internal/storage"
	"github.com/scrypster/vestige/pkg/types"
)

// defaultConnectionNormCap is the in-degree+out-degree count above which
// the connection score saturates at 1.0. Chosen so a handful of edges
// already meaningfully raises the score without a single densely-linked
// memory dominating every other memory's importance.
const defaultConnectionNormCap = 10.0

// ConnectionScore computes spec.md §4.4's `connection` importance factor:
// bounded-BFS in-degree + out-degree over Edge rows, normalized into [0,1].
// Direct edges only (hop 1) — deeper hops are Traverse's job, not the
// importance factor's.
func ConnectionScore(ctx context.Context, edges storage.EdgeStore, memoryID string) (float64, error) {
	es, err := edges.GetEdges(ctx, memoryID)
	if err != nil {
		return 0, fmt.Errorf("graph: ConnectionScore: %w", err)
	}

	degree := float64(len(es))
	score := degree / defaultConnectionNormCap
	if score > 1.0 {
		score = 1.0
	}
	return score, nil
}

// Traverse performs a bounded multi-hop BFS from startMemoryID over the
// edge graph, honoring bounds.MaxHops/MaxNodes/MaxEdges/Timeout, and
// returns the discovered node IDs and edges. The walk stops after MaxHops
// hops, before expanding another node once MaxNodes nodes are collected,
// before adding another edge once MaxEdges edges are collected, or at the
// timeout; the name of each bound that stopped it ("max_hops",
// "max_nodes", "max_edges", "timeout") is recorded in BoundsReached.
func Traverse(ctx context.Context, edges storage.EdgeStore, startMemoryID string, bounds storage.GraphBounds) (*storage.GraphResult, error) {
	bounds.Normalize()

	deadline := time.Now().Add(bounds.Timeout)
	visited := map[string]bool{startMemoryID: true}
	var nodes []string
	var collectedEdges []types.Edge
	var boundsReached []string

	frontier := []string{startMemoryID}

	for hop := 1; hop <= bounds.MaxHops && len(frontier) > 0; hop++ {
		if time.Now().After(deadline) {
			boundsReached = append(boundsReached, "timeout")
			break
		}

		var nextFrontier []string
		for _, id := range frontier {
			if len(nodes) >= bounds.MaxNodes {
				boundsReached = append(boundsReached, "max_nodes")
				return &storage.GraphResult{Nodes: nodes, Edges: collectedEdges, BoundsReached: dedupe(boundsReached)}, nil
			}

			neighborEdges, err := edges.GetEdges(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("graph: Traverse: %w", err)
			}

			for _, e := range neighborEdges {
				if len(collectedEdges) >= bounds.MaxEdges {
					boundsReached = append(boundsReached, "max_edges")
					return &storage.GraphResult{Nodes: nodes, Edges: collectedEdges, BoundsReached: dedupe(boundsReached)}, nil
				}
				collectedEdges = append(collectedEdges, e)

				neighbor := e.ToID
				if neighbor == id {
					neighbor = e.FromID
				}
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				nodes = append(nodes, neighbor)
				nextFrontier = append(nextFrontier, neighbor)
			}
		}
		frontier = nextFrontier
	}

	if len(frontier) > 0 {
		boundsReached = append(boundsReached, "max_hops")
	}

	return &storage.GraphResult{Nodes: nodes, Edges: collectedEdges, BoundsReached: dedupe(boundsReached)}, nil
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
