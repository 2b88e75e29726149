package types

import "time"

// Edge is a graph relation between two memories, touched by
// connection-importance computation and supersede linking. Its traversal
// strategy beyond those two consumers is deliberately left open. Replaces
// an entity-to-entity Relationship with a memory-to-memory edge.
type Edge struct {
	ID        string    `json:"id"`
	FromID    string    `json:"from_id"`
	ToID      string    `json:"to_id"`
	Kind      string    `json:"kind"`
	Weight    float64   `json:"weight,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EdgeKindSupersedes marks the link created by the supersede operation:
// old memory -> new memory.
const EdgeKindSupersedes = "supersedes"
