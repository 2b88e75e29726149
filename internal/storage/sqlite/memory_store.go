package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/vestige/internal/storage"
	"github.com/scrypster/vestige/pkg/types"
)

// RunMigrations applies all pending database migrations from the given
// directory, for callers who prefer migration files over the embedded
// Schema constant.
func (s *MemoryStore) RunMigrations(migrationsDir string) error {
	mgr, err := storage.NewMigrationManager(s.db, migrationsDir)
	if err != nil {
		return fmt.Errorf("sqlite: failed to create migration manager: %w", err)
	}
	defer mgr.Close()

	if err := mgr.Up(); err != nil {
		return fmt.Errorf("sqlite: failed to run migrations: %w", err)
	}

	return nil
}

// MemoryStore implements storage.MemoryStore using SQLite.
type MemoryStore struct {
	db *sql.DB
}

// NewMemoryStore creates a new SQLite memory store with WAL self-healing.
// If the initial open fails due to stale WAL files (left behind by a crashed
// process), it verifies no other process holds them and retries once after
// removing the stale -shm/-wal files.
func NewMemoryStore(dsn string) (*MemoryStore, error) {
	store, err := openMemoryStore(dsn)
	if err == nil {
		return store, nil
	}

	if !isRecoverableWALError(err) {
		return nil, err
	}

	dbPath := dbPathFromDSN(dsn)
	if dbPath == "" || dbPath == ":memory:" {
		return nil, err
	}

	if !isWALStale(dbPath) {
		return nil, err
	}

	removeStaleWAL(dbPath)

	store, retryErr := openMemoryStore(dsn)
	if retryErr != nil {
		return nil, fmt.Errorf("failed after WAL recovery: %w (original: %v)", retryErr, err)
	}

	log.Printf("sqlite: recovered from stale WAL files for %s", dbPath)
	return store, nil
}

// openMemoryStore opens a SQLite database, configures WAL mode, and creates the schema.
func openMemoryStore(dsn string) (*MemoryStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Using a single open
	// connection serialises writes and avoids SQLITE_BUSY errors under
	// concurrent load. WAL mode lets readers proceed without blocking it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &MemoryStore{db: db}, nil
}

// memoryColumns is the SELECT column list shared by Get/List/DequeueDue/
// GetEvolutionChain, kept in one place so the scan order never drifts from
// the query order.
const memoryColumns = `
	id, content, summary,
	source_type, source_platform, tags, people, concepts, events,
	created_at, updated_at, last_accessed_at, valid_from, valid_until,
	confidence, sentiment_intensity,
	is_contradicted, contradiction_ids, source_chain,
	card_difficulty, card_stability, card_state, card_reps, card_lapses,
	card_last_review, card_scheduled_days, next_review,
	retention_strength, stability_factor,
	embedding, embedding_dim,
	access_count, deleted_at, content_hash
`

// Store creates or updates a memory (upsert semantics).
func (s *MemoryStore) Store(ctx context.Context, memory *types.Memory) error {
	if memory == nil {
		return storage.ErrInvalidInput
	}
	if memory.ID == "" {
		return fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}
	if memory.Content == "" {
		return fmt.Errorf("%w: memory content is required", storage.ErrInvalidInput)
	}
	if !types.IsValidSourceType(memory.SourceType) {
		return fmt.Errorf("%w: invalid source_type %q", storage.ErrInvalidInput, memory.SourceType)
	}

	memory.ContentHash = fmt.Sprintf("%x", sha256.Sum256([]byte(memory.Content)))

	if memory.CreatedAt.IsZero() {
		memory.CreatedAt = time.Now()
	}
	if memory.UpdatedAt.IsZero() {
		memory.UpdatedAt = time.Now()
	}

	tagsJSON, err := marshalOptional(memory.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	peopleJSON, err := marshalOptional(memory.People)
	if err != nil {
		return fmt.Errorf("failed to marshal people: %w", err)
	}
	conceptsJSON, err := marshalOptional(memory.Concepts)
	if err != nil {
		return fmt.Errorf("failed to marshal concepts: %w", err)
	}
	eventsJSON, err := marshalOptional(memory.Events)
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}
	contradictionIDsJSON, err := marshalOptional(memory.ContradictionIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal contradiction_ids: %w", err)
	}
	sourceChainJSON, err := marshalOptional(memory.SourceChain)
	if err != nil {
		return fmt.Errorf("failed to marshal source_chain: %w", err)
	}

	embeddingBytes := serializeEmbedding(memory.Embedding)

	query := `
		INSERT INTO memories (
			id, content, summary,
			source_type, source_platform, tags, people, concepts, events,
			created_at, updated_at, last_accessed_at, valid_from, valid_until,
			confidence, sentiment_intensity,
			is_contradicted, contradiction_ids, source_chain,
			card_difficulty, card_stability, card_state, card_reps, card_lapses,
			card_last_review, card_scheduled_days, next_review,
			retention_strength, stability_factor,
			embedding, embedding_dim,
			access_count, deleted_at, content_hash
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			summary = excluded.summary,
			source_type = excluded.source_type,
			source_platform = excluded.source_platform,
			tags = excluded.tags,
			people = excluded.people,
			concepts = excluded.concepts,
			events = excluded.events,
			updated_at = excluded.updated_at,
			last_accessed_at = excluded.last_accessed_at,
			valid_from = excluded.valid_from,
			valid_until = excluded.valid_until,
			confidence = excluded.confidence,
			sentiment_intensity = excluded.sentiment_intensity,
			is_contradicted = excluded.is_contradicted,
			contradiction_ids = excluded.contradiction_ids,
			source_chain = excluded.source_chain,
			card_difficulty = excluded.card_difficulty,
			card_stability = excluded.card_stability,
			card_state = excluded.card_state,
			card_reps = excluded.card_reps,
			card_lapses = excluded.card_lapses,
			card_last_review = excluded.card_last_review,
			card_scheduled_days = excluded.card_scheduled_days,
			next_review = excluded.next_review,
			retention_strength = excluded.retention_strength,
			stability_factor = excluded.stability_factor,
			embedding = excluded.embedding,
			embedding_dim = excluded.embedding_dim,
			access_count = excluded.access_count,
			deleted_at = excluded.deleted_at,
			content_hash = excluded.content_hash
	`

	_, err = s.db.ExecContext(ctx, query,
		memory.ID, memory.Content, nullableString(memory.Summary),
		string(memory.SourceType), nullableString(memory.SourcePlatform),
		nullableBytes(tagsJSON), nullableBytes(peopleJSON), nullableBytes(conceptsJSON), nullableBytes(eventsJSON),
		memory.CreatedAt, memory.UpdatedAt, nullableTime(memory.LastAccessedAt),
		nullableTime(memory.ValidFrom), nullableTime(memory.ValidUntil),
		memory.Confidence, memory.SentimentIntensity,
		memory.IsContradicted, nullableBytes(contradictionIDsJSON), nullableBytes(sourceChainJSON),
		memory.Card.Difficulty, memory.Card.Stability, string(memory.Card.State), memory.Card.Reps, memory.Card.Lapses,
		nullableTime(memory.Card.LastReview), memory.Card.ScheduledDays, nullableTime(memory.Card.NextReview),
		memory.RetentionStrength, memory.StabilityFactor,
		nullableBytes(embeddingBytes), len(memory.Embedding),
		memory.AccessCount, nullableTime(memory.DeletedAt), memory.ContentHash,
	)
	if err != nil {
		return fmt.Errorf("failed to store memory: %w", err)
	}

	return nil
}

// Get retrieves a memory by ID. Returns storage.ErrNotFound if absent or
// soft-deleted.
func (s *MemoryStore) Get(ctx context.Context, id string) (*types.Memory, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+memoryColumns+" FROM memories WHERE id = ? AND deleted_at IS NULL", id)
	memory, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memory: %w", err)
	}
	return memory, nil
}

// List retrieves memories with pagination and filtering.
func (s *MemoryStore) List(ctx context.Context, opts storage.ListOptions) (*storage.PaginatedResult[types.Memory], error) {
	opts.Normalize()

	var conditions []string
	var args []interface{}

	if opts.SourceType != "" {
		conditions = append(conditions, "source_type = ?")
		args = append(args, string(opts.SourceType))
	}
	if opts.SourcePlatform != "" {
		conditions = append(conditions, "source_platform = ?")
		args = append(args, opts.SourcePlatform)
	}
	if !opts.CreatedAfter.IsZero() {
		conditions = append(conditions, "created_at > ?")
		args = append(args, opts.CreatedAfter)
	}
	if !opts.CreatedBefore.IsZero() {
		conditions = append(conditions, "created_at < ?")
		args = append(args, opts.CreatedBefore)
	}
	if opts.MinRetention > 0 {
		conditions = append(conditions, "retention_strength >= ?")
		args = append(args, opts.MinRetention)
	}
	if opts.TagPrefix != "" {
		conditions = append(conditions, "tags LIKE ?")
		args = append(args, "%\""+opts.TagPrefix+"%")
	}
	if !opts.IncludeDeleted {
		conditions = append(conditions, "deleted_at IS NULL")
	}
	if opts.OnlyDeleted {
		conditions = append(conditions, "deleted_at IS NOT NULL")
	}

	var whereClause string
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := "SELECT " + memoryColumns + " FROM memories" + whereClause
	query += fmt.Sprintf(" ORDER BY %s %s", opts.SortBy, opts.SortOrder)
	query += " LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, opts.Offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	defer rows.Close()

	var memories []types.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		memories = append(memories, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memories: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM memories" + whereClause
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args[:len(args)-2]...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count memories: %w", err)
	}

	return &storage.PaginatedResult[types.Memory]{
		Items:    memories,
		Total:    total,
		Page:     opts.Page,
		PageSize: opts.Limit,
		HasMore:  opts.Offset()+len(memories) < total,
	}, nil
}

// ListBySourceType promotes a raw-query escape hatch to a first-class
// Store method.
func (s *MemoryStore) ListBySourceType(ctx context.Context, sourceType types.SourceType, opts storage.ListOptions) (*storage.PaginatedResult[types.Memory], error) {
	opts.SourceType = sourceType
	return s.List(ctx, opts)
}

// SearchByTagPrefix likewise promotes tag-prefix lookups to a first-class
// method instead of a raw query escape hatch.
func (s *MemoryStore) SearchByTagPrefix(ctx context.Context, prefix string, opts storage.ListOptions) (*storage.PaginatedResult[types.Memory], error) {
	opts.TagPrefix = prefix
	return s.List(ctx, opts)
}

// Update modifies an existing memory (must already exist).
func (s *MemoryStore) Update(ctx context.Context, memory *types.Memory) error {
	if memory == nil {
		return storage.ErrInvalidInput
	}
	if memory.ID == "" {
		return fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}

	exists, err := s.exists(ctx, memory.ID)
	if err != nil {
		return err
	}
	if !exists {
		return storage.ErrNotFound
	}

	memory.UpdatedAt = time.Now()
	return s.Store(ctx, memory)
}

// Delete soft-deletes a memory by setting deleted_at.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE memories SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		time.Now(), time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	return requireRowsAffected(result)
}

// Purge hard-deletes a memory permanently.
func (s *MemoryStore) Purge(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM memories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to purge memory: %w", err)
	}
	return requireRowsAffected(result)
}

// Restore clears deleted_at on a soft-deleted memory.
func (s *MemoryStore) Restore(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE memories SET deleted_at = NULL, updated_at = ? WHERE id = ? AND deleted_at IS NOT NULL",
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to restore memory: %w", err)
	}
	return requireRowsAffected(result)
}

// GetEvolutionChain returns every memory reachable via "supersedes" edges
// touching memoryID (both directions), ordered oldest to newest, capped at
// 50 memories. Walks the edges table since contradiction_ids is a set, not a
// single supersedes_id parent pointer.
func (s *MemoryStore) GetEvolutionChain(ctx context.Context, memoryID string) ([]*types.Memory, error) {
	if memoryID == "" {
		return nil, fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}

	const maxChain = 50

	fetchByID := func(id string) (*types.Memory, error) {
		row := s.db.QueryRowContext(ctx, "SELECT "+memoryColumns+" FROM memories WHERE id = ?", id)
		return scanMemory(row)
	}

	origin, err := fetchByID(memoryID)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: GetEvolutionChain: %w", err)
	}

	visited := map[string]bool{origin.ID: true}
	chain := []*types.Memory{origin}

	predecessorOf := func(id string) (string, bool) {
		var prev string
		err := s.db.QueryRowContext(ctx, "SELECT from_id FROM edges WHERE to_id = ? AND kind = ? LIMIT 1", id, types.EdgeKindSupersedes).Scan(&prev)
		return prev, err == nil
	}
	successorOf := func(id string) (string, bool) {
		var next string
		err := s.db.QueryRowContext(ctx, "SELECT to_id FROM edges WHERE from_id = ? AND kind = ? LIMIT 1", id, types.EdgeKindSupersedes).Scan(&next)
		return next, err == nil
	}

	// Walk backward from origin to the oldest ancestor.
	node := origin
	for len(chain) < maxChain {
		prevID, ok := predecessorOf(node.ID)
		if !ok || visited[prevID] {
			break
		}
		prev, err := fetchByID(prevID)
		if err != nil {
			break
		}
		visited[prevID] = true
		chain = append([]*types.Memory{prev}, chain...)
		node = prev
	}

	// Walk forward from origin to the newest descendant.
	node = origin
	for len(chain) < maxChain {
		nextID, ok := successorOf(node.ID)
		if !ok || visited[nextID] {
			break
		}
		next, err := fetchByID(nextID)
		if err != nil {
			break
		}
		visited[nextID] = true
		chain = append(chain, next)
		node = next
	}

	return chain, nil
}

// IncrementAccessCount atomically increments access_count and sets
// last_accessed_at, backing the Testing Effect side effect on every
// successful search hit.
func (s *MemoryStore) IncrementAccessCount(ctx context.Context, id string, accessedAt time.Time) error {
	if id == "" {
		return fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE memories SET access_count = access_count + 1, last_accessed_at = ? WHERE id = ? AND deleted_at IS NULL",
		accessedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to increment access count: %w", err)
	}
	return requireRowsAffected(result)
}

// UpdateCard persists the FSRS card fields plus the derived
// retention_strength/stability_factor after a review.
func (s *MemoryStore) UpdateCard(ctx context.Context, id string, card types.CardState, retentionStrength, stabilityFactor float64) error {
	if id == "" {
		return fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE memories SET
			card_difficulty = ?, card_stability = ?, card_state = ?, card_reps = ?, card_lapses = ?,
			card_last_review = ?, card_scheduled_days = ?, next_review = ?,
			retention_strength = ?, stability_factor = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		card.Difficulty, card.Stability, string(card.State), card.Reps, card.Lapses,
		nullableTime(card.LastReview), card.ScheduledDays, nullableTime(card.NextReview),
		retentionStrength, stabilityFactor, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	return requireRowsAffected(result)
}

// DequeueDue returns up to limit memories whose next_review is due at or
// before asOf, ordered by next_review ascending — the review queue view.
func (s *MemoryStore) DequeueDue(ctx context.Context, asOf time.Time, limit int) ([]*types.Memory, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+memoryColumns+" FROM memories WHERE next_review IS NOT NULL AND next_review <= ? AND deleted_at IS NULL ORDER BY next_review ASC LIMIT ?",
		asOf, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue due memories: %w", err)
	}
	defer rows.Close()

	var out []*types.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due memory: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkContradicted flags memoryID as is_contradicted and appends
// contradictionID to its contradiction_ids, as part of supersede.
func (s *MemoryStore) MarkContradicted(ctx context.Context, memoryID, contradictionID string) error {
	memory, err := s.Get(ctx, memoryID)
	if err != nil {
		return err
	}

	memory.IsContradicted = true
	for _, id := range memory.ContradictionIDs {
		if id == contradictionID {
			return s.Update(ctx, memory)
		}
	}
	memory.ContradictionIDs = append(memory.ContradictionIDs, contradictionID)
	return s.Update(ctx, memory)
}

// Close releases the underlying database connection.
func (s *MemoryStore) Close() error {
	return s.db.Close()
}

// GetDB exposes the underlying *sql.DB so EdgeStore can share MemoryStore's
// connection; not meant as a general escape hatch for query logic.
func (s *MemoryStore) GetDB() *sql.DB {
	return s.db
}

func (s *MemoryStore) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM memories WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return exists, nil
}

func requireRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func marshalOptional(v []string) ([]byte, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return json.Marshal(v)
}

// serializeEmbedding packs a []float32 into a little-endian byte slice.
func serializeEmbedding(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeEmbedding unpacks a little-endian byte slice into []float32.
func deserializeEmbedding(b []byte, dim int) []float32 {
	if len(b) == 0 || dim == 0 {
		return nil
	}
	out := make([]float32, dim)
	for i := 0; i < dim && (i+1)*4 <= len(b); i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullableBytes(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// dbPathFromDSN extracts the filesystem path from a SQLite DSN. Handles bare
// paths and file: URIs; returns "" for in-memory databases.
func dbPathFromDSN(dsn string) string {
	if dsn == ":memory:" || dsn == "" {
		return ""
	}

	if strings.HasPrefix(dsn, "file:") {
		u, err := url.Parse(dsn)
		if err != nil {
			return ""
		}
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == ":memory:" || path == "" {
			return ""
		}
		return path
	}

	return dsn
}

// isRecoverableWALError returns true if the error matches patterns caused by
// stale WAL files left behind after a crash.
func isRecoverableWALError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "disk I/O error") ||
		strings.Contains(msg, "database disk image is malformed") ||
		strings.Contains(msg, "unable to open database file")
}

// isWALStale reports whether the -wal file exists and fuser lists no process
// holding the database file open; a failing fuser also counts as stale.
func isWALStale(dbPath string) bool {
	walPath := dbPath + "-wal"
	if !fileExists(walPath) {
		return false
	}
	cmd := exec.Command("fuser", dbPath)
	out, err := cmd.Output()
	return err != nil || len(strings.TrimSpace(string(out))) == 0
}

func removeStaleWAL(dbPath string) {
	_ = os.Remove(dbPath + "-wal")
	_ = os.Remove(dbPath + "-shm")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
