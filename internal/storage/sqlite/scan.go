package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/scrypster/vestige/pkg/types"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows, letting Get,
// List, and GetEvolutionChain share one unmarshalling path.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanMemory reads one row in memoryColumns order into a types.Memory.
func scanMemory(r rowScanner) (*types.Memory, error) {
	var m types.Memory
	var summary, sourcePlatform, contentHash sql.NullString
	var tagsJSON, peopleJSON, conceptsJSON, eventsJSON sql.NullString
	var contradictionIDsJSON, sourceChainJSON sql.NullString
	var lastAccessedAt, validFrom, validUntil sql.NullTime
	var cardState string
	var cardLastReview, nextReview sql.NullTime
	var embedding []byte
	var embeddingDim int
	var deletedAt sql.NullTime

	err := r.Scan(
		&m.ID, &m.Content, &summary,
		&m.SourceType, &sourcePlatform, &tagsJSON, &peopleJSON, &conceptsJSON, &eventsJSON,
		&m.CreatedAt, &m.UpdatedAt, &lastAccessedAt, &validFrom, &validUntil,
		&m.Confidence, &m.SentimentIntensity,
		&m.IsContradicted, &contradictionIDsJSON, &sourceChainJSON,
		&m.Card.Difficulty, &m.Card.Stability, &cardState, &m.Card.Reps, &m.Card.Lapses,
		&cardLastReview, &m.Card.ScheduledDays, &nextReview,
		&m.RetentionStrength, &m.StabilityFactor,
		&embedding, &embeddingDim,
		&m.AccessCount, &deletedAt, &contentHash,
	)
	if err != nil {
		return nil, err
	}

	m.Card.State = types.State(cardState)
	if summary.Valid {
		m.Summary = summary.String
	}
	if sourcePlatform.Valid {
		m.SourcePlatform = sourcePlatform.String
	}
	if contentHash.Valid {
		m.ContentHash = contentHash.String
	}
	if lastAccessedAt.Valid {
		t := lastAccessedAt.Time
		m.LastAccessedAt = &t
	}
	if validFrom.Valid {
		t := validFrom.Time
		m.ValidFrom = &t
	}
	if validUntil.Valid {
		t := validUntil.Time
		m.ValidUntil = &t
	}
	if cardLastReview.Valid {
		t := cardLastReview.Time
		m.Card.LastReview = &t
	}
	if nextReview.Valid {
		t := nextReview.Time
		m.Card.NextReview = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		m.DeletedAt = &t
	}

	if err := unmarshalOptional(tagsJSON, &m.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if err := unmarshalOptional(peopleJSON, &m.People); err != nil {
		return nil, fmt.Errorf("unmarshal people: %w", err)
	}
	if err := unmarshalOptional(conceptsJSON, &m.Concepts); err != nil {
		return nil, fmt.Errorf("unmarshal concepts: %w", err)
	}
	if err := unmarshalOptional(eventsJSON, &m.Events); err != nil {
		return nil, fmt.Errorf("unmarshal events: %w", err)
	}
	if err := unmarshalOptional(contradictionIDsJSON, &m.ContradictionIDs); err != nil {
		return nil, fmt.Errorf("unmarshal contradiction_ids: %w", err)
	}
	if err := unmarshalOptional(sourceChainJSON, &m.SourceChain); err != nil {
		return nil, fmt.Errorf("unmarshal source_chain: %w", err)
	}

	m.Embedding = deserializeEmbedding(embedding, embeddingDim)

	return &m, nil
}

func unmarshalOptional(ns sql.NullString, dest *[]string) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), dest)
}
