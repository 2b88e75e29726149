package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/scrypster/vestige/internal/storage"
	"github.com/scrypster/vestige/pkg/types"
)

// EdgeStore implements storage.EdgeStore using the same SQLite database as
// MemoryStore, collapsing a GraphProvider/RelationshipStore/EmbeddingProvider
// split into the single interface Vestige's memory-to-memory graph needs.
type EdgeStore struct {
	db *sql.DB
}

// NewEdgeStore wraps an already-opened database connection, typically
// MemoryStore.GetDB().
func NewEdgeStore(db *sql.DB) *EdgeStore {
	return &EdgeStore{db: db}
}

// CreateEdge inserts a new memory-to-memory edge.
func (e *EdgeStore) CreateEdge(ctx context.Context, edge *types.Edge) error {
	if edge == nil {
		return storage.ErrInvalidInput
	}
	if edge.ID == "" || edge.FromID == "" || edge.ToID == "" || edge.Kind == "" {
		return fmt.Errorf("%w: edge id, from_id, to_id, and kind are required", storage.ErrInvalidInput)
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now()
	}

	_, err := e.db.ExecContext(ctx,
		"INSERT INTO edges (id, from_id, to_id, kind, weight, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		edge.ID, edge.FromID, edge.ToID, edge.Kind, edge.Weight, edge.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: CreateEdge: %w", err)
	}
	return nil
}

// GetEdges returns every edge touching memoryID, either direction.
func (e *EdgeStore) GetEdges(ctx context.Context, memoryID string) ([]types.Edge, error) {
	rows, err := e.db.QueryContext(ctx,
		"SELECT id, from_id, to_id, kind, weight, created_at FROM edges WHERE from_id = ? OR to_id = ?",
		memoryID, memoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: GetEdges: %w", err)
	}
	defer rows.Close()

	var edges []types.Edge
	for rows.Next() {
		var edge types.Edge
		if err := rows.Scan(&edge.ID, &edge.FromID, &edge.ToID, &edge.Kind, &edge.Weight, &edge.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: GetEdges scan: %w", err)
		}
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}

// DeleteEdge removes an edge by ID.
func (e *EdgeStore) DeleteEdge(ctx context.Context, id string) error {
	result, err := e.db.ExecContext(ctx, "DELETE FROM edges WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("sqlite: DeleteEdge: %w", err)
	}
	return requireRowsAffected(result)
}
