package types

import "time"

// Memory represents a single discrete knowledge item in the engine.
// A Memory is simultaneously a full-text document, a vector, a scheduled
// FSRS review card, and a decaying salience signal; all four views must
// stay mutually consistent as the orchestrator mutates it.
type Memory struct {
	// Core identification fields
	ID      string `json:"id"`      // Unique identifier, assigned on creation
	Content string `json:"content"` // Immutable after creation except via supersede
	Summary string `json:"summary,omitempty"` // Derived, optional

	// Classification and organization
	SourceType     SourceType `json:"source_type"`               // One of the closed SourceType set
	SourcePlatform string     `json:"source_platform,omitempty"` // Free-form short tag identifying origin
	Tags           []string   `json:"tags,omitempty"`            // Set semantics: unique, order-insensitive

	// Extracted entity references (sets; order not significant)
	People   []string `json:"people,omitempty"`
	Concepts []string `json:"concepts,omitempty"`
	Events   []string `json:"events,omitempty"`

	// Timestamps
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`

	// Optional temporal validity window
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`

	// Epistemic signals
	Confidence         float64 `json:"confidence"`          // 0..1
	SentimentIntensity float64 `json:"sentiment_intensity"` // -1..1

	// Contradiction tracking, mutated by supersede
	IsContradicted   bool     `json:"is_contradicted"`
	ContradictionIDs []string `json:"contradiction_ids,omitempty"`

	// Provenance hops, ordered oldest to newest
	SourceChain []string `json:"source_chain,omitempty"`

	// FSRS-6 card state, embedded
	Card CardState `json:"card"`

	// Memory strength, embedded; storage_strength/retrieval_strength are
	// computed lazily (see StorageStrength/RetrievalStrength) rather than
	// persisted, per the open question on whether to keep them as columns.
	RetentionStrength float64 `json:"retention_strength"` // [0,1], current retrievability
	StabilityFactor   float64 `json:"stability_factor"`   // days

	// Embedding; nil if the embedder was unavailable at ingest time
	Embedding []float32 `json:"embedding,omitempty"`

	// Quality signals
	AccessCount int `json:"access_count"`

	// Soft delete (grace period for recovery)
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	// Content deduplication
	ContentHash string `json:"content_hash,omitempty"`
}

// StorageStrength derives the monotonic storage-strength view from Stability,
// per the design note that treats it as computed rather than persisted.
func (m *Memory) StorageStrength() float64 {
	return m.Card.Stability
}

// RetrievalStrength derives the decaying retrieval-strength view from the
// current retrievability, computed rather than persisted.
func (m *Memory) RetrievalStrength() float64 {
	return m.RetentionStrength
}

// HasEmbedding reports whether the memory carries a usable embedding.
func (m *Memory) HasEmbedding() bool {
	return len(m.Embedding) > 0
}
