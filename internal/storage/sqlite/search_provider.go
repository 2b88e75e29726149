package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/scrypster/vestige/internal/storage"
	"github.com/scrypster/vestige/pkg/types"
)

// Ensure *MemoryStore implements storage.SearchProvider at compile time.
var _ storage.SearchProvider = (*MemoryStore)(nil)

// ftsMemoryColumns is memoryColumns with the four column names memories_fts
// also defines (id, content, summary, tags) qualified against the "m"
// alias, so FullTextSearch's join against memories_fts doesn't hit
// SQLite's ambiguous-column-name error on an otherwise-unqualified SELECT.
const ftsMemoryColumns = `
	m.id, m.content, m.summary,
	source_type, source_platform, m.tags, people, concepts, events,
	created_at, updated_at, last_accessed_at, valid_from, valid_until,
	confidence, sentiment_intensity,
	is_contradicted, contradiction_ids, source_chain,
	card_difficulty, card_stability, card_state, card_reps, card_lapses,
	card_last_review, card_scheduled_days, next_review,
	retention_strength, stability_factor,
	embedding, embedding_dim,
	access_count, deleted_at, content_hash
`

// FullTextSearch runs a sanitized BM25/FTS5 query against memories_fts,
// weighting content above summary above tags (bm25(fts, 0.0, 3.0, 2.0, 1.0);
// the leading 0.0 is the UNINDEXED id column, per spec.md §4.7's
// content > summary > tags priority). If FTS5 rejects the sanitized query
// (can still happen on pathological input), matches no row, or the query is
// empty, it falls back to a substring LIKE scan ordered by retention_strength
// then recency, per spec.md §4.5's fallback rule.
func (s *MemoryStore) FullTextSearch(ctx context.Context, opts storage.SearchOptions) (*storage.SearchResultSet, error) {
	opts.Normalize()

	if strings.TrimSpace(opts.Query) == "" {
		return s.likeFallbackSearch(ctx, opts)
	}

	ftsQuery := sanitiseFTSQuery(opts.Query)
	filterSQL, filterArgs := buildSearchFilter("m.", opts)

	args := append([]interface{}{ftsQuery}, filterArgs...)
	args = append(args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ftsMemoryColumns+`, bm25(fts, 0.0, 3.0, 2.0, 1.0)
		FROM memories_fts fts
		JOIN memories m ON m.rowid = fts.rowid
		WHERE memories_fts MATCH ? AND m.deleted_at IS NULL`+filterSQL+`
		ORDER BY bm25(fts, 0.0, 3.0, 2.0, 1.0)
		LIMIT ? OFFSET ?`,
		args...)
	if err != nil {
		// FTS5 syntax rejection — degrade to the LIKE fallback rather than
		// surface a query-language error to the caller.
		return s.likeFallbackSearch(ctx, opts)
	}
	defer rows.Close()

	var hits []storage.SearchHit
	rank := 0
	matched := 0
	for rows.Next() {
		m, ftsRank, err := scanMemoryWithRank(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: FullTextSearch scan: %w", err)
		}
		matched++
		// bm25 is negative; more negative is a better match. spec.md §4.5
		// converts via 1 / (1 - rank) into a positive score in (0, 1].
		score := 1.0 / (1.0 - ftsRank)
		if opts.MinScore > 0 && score < opts.MinScore {
			continue
		}
		hits = append(hits, storage.SearchHit{Memory: m, Score: score, Rank: rank})
		rank++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: FullTextSearch rows: %w", err)
	}

	if opts.FuzzyFallback && len(hits) == 0 {
		terms := strings.Fields(opts.Query)
		if len(terms) > 1 {
			relaxed := opts
			relaxed.Query = strings.Join(terms, " OR ")
			relaxed.FuzzyFallback = false
			return s.FullTextSearch(ctx, relaxed)
		}
	}

	if matched == 0 {
		return s.likeFallbackSearch(ctx, opts)
	}

	return &storage.SearchResultSet{Hits: hits, Total: len(hits), Method: "keyword"}, nil
}

// likeFallbackSearch degrades to a substring LIKE scan when FTS5 can't be
// used, ordered by retention_strength then recency, with synthetic scores
// 1 - 0.1*index per spec.md §4.5.
func (s *MemoryStore) likeFallbackSearch(ctx context.Context, opts storage.SearchOptions) (*storage.SearchResultSet, error) {
	pattern := "%" + strings.TrimSpace(opts.Query) + "%"

	filterSQL, filterArgs := buildSearchFilter("", opts)

	query := "SELECT " + memoryColumns + " FROM memories WHERE deleted_at IS NULL" + filterSQL
	args := append([]interface{}{}, filterArgs...)
	if strings.TrimSpace(opts.Query) != "" {
		query += " AND (content LIKE ? OR summary LIKE ? OR tags LIKE ?)"
		args = append(args, pattern, pattern, pattern)
	}
	query += " ORDER BY retention_strength DESC, created_at DESC LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: likeFallbackSearch: %w", err)
	}
	defer rows.Close()

	var hits []storage.SearchHit
	idx := 0
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: likeFallbackSearch scan: %w", err)
		}
		hits = append(hits, storage.SearchHit{Memory: m, Score: 1.0 - 0.1*float64(idx), Rank: idx})
		idx++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: likeFallbackSearch rows: %w", err)
	}

	return &storage.SearchResultSet{Hits: hits, Total: len(hits), Method: "like_fallback"}, nil
}

// vectorSearchMaxCandidates caps how many embeddings are loaded into Go
// memory for a brute-force cosine scan. Selected newest-first so the most
// recently-ingested memories are always considered on large datasets.
const vectorSearchMaxCandidates = 10_000

// VectorSearch ranks stored embeddings by cosine similarity against
// queryVector, filtering out anything below opts.MinSimilarity. Honors the
// same source_type/source_platform/retention/date/tags filter support as
// keyword search, per spec.md §4.5's "equivalent filter support" rule.
func (s *MemoryStore) VectorSearch(ctx context.Context, queryVector []float32, opts storage.SearchOptions) (*storage.SearchResultSet, error) {
	opts.Normalize()

	if len(queryVector) == 0 {
		return &storage.SearchResultSet{Method: "vector"}, nil
	}

	filterSQL, filterArgs := buildSearchFilter("", opts)
	args := append(append([]interface{}{}, filterArgs...), vectorSearchMaxCandidates)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, embedding, embedding_dim
		FROM memories
		WHERE deleted_at IS NULL AND embedding_dim > 0`+filterSQL+`
		ORDER BY created_at DESC
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: VectorSearch: failed to load embeddings: %w", err)
	}
	defer rows.Close()

	type scored struct {
		id    string
		score float64
	}
	var candidates []scored
	for rows.Next() {
		var id string
		var blob []byte
		var dim int
		if err := rows.Scan(&id, &blob, &dim); err != nil {
			continue
		}
		vec := deserializeEmbedding(blob, dim)
		sim := cosineSimilarity(queryVector, vec)
		if sim < opts.MinSimilarity {
			continue
		}
		candidates = append(candidates, scored{id, sim})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: VectorSearch: %w", err)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	total := len(candidates)
	offset := opts.Offset
	if offset >= total {
		return &storage.SearchResultSet{Method: "vector", Total: total}, nil
	}
	end := offset + opts.Limit
	if end > total {
		end = total
	}

	var hits []storage.SearchHit
	for i, c := range candidates[offset:end] {
		m, err := s.Get(ctx, c.id)
		if err != nil {
			continue
		}
		hits = append(hits, storage.SearchHit{Memory: m, Score: c.score, Rank: i})
	}

	return &storage.SearchResultSet{Hits: hits, Total: total, Method: "vector"}, nil
}

// HybridSearch fuses keyword and vector candidate lists via Reciprocal Rank
// Fusion, weighted per-modality by weights.Keyword/weights.Vector with RRF
// constant weights.K — generalizing a hardcoded equal-weight, k=60 fusion
// to spec.md §4.5's configurable scheme. Both candidate stages run with
// opts' filter fields, and fused hits below opts.MinScore are dropped
// before pagination. If queryVector is nil, degrades to keyword-only and
// marks VectorFallback.
func (s *MemoryStore) HybridSearch(ctx context.Context, queryText string, queryVector []float32, weights storage.FusionWeights, opts storage.SearchOptions) (*storage.SearchResultSet, error) {
	opts.Normalize()

	if len(queryVector) == 0 {
		kwOpts := opts
		kwOpts.Query = queryText
		res, err := s.FullTextSearch(ctx, kwOpts)
		if err != nil {
			return nil, err
		}
		res.Method = "hybrid"
		res.VectorFallback = true
		return res, nil
	}

	candidateLimit := weights.CandidateMultiplier * opts.Limit
	if candidateLimit < 30 {
		candidateLimit = 30
	}

	kwOpts := opts
	kwOpts.Query = queryText
	kwOpts.Limit = candidateLimit
	kwOpts.Offset = 0
	kwResult, err := s.FullTextSearch(ctx, kwOpts)
	if err != nil {
		return nil, fmt.Errorf("sqlite: HybridSearch keyword stage: %w", err)
	}

	vecOpts := opts
	vecOpts.Limit = candidateLimit
	vecOpts.Offset = 0
	vecResult, err := s.VectorSearch(ctx, queryVector, vecOpts)
	if err != nil {
		// Vector search failure is non-fatal: fall back to keyword-only.
		res, ferr := s.FullTextSearch(ctx, opts)
		if ferr != nil {
			return nil, ferr
		}
		res.Method = "hybrid"
		res.VectorFallback = true
		return res, nil
	}

	k := weights.K
	if k <= 0 {
		k = 60
	}

	type fused struct {
		memory      *types.Memory
		score       float64
		keywordRank int // -1 if absent, used only to break ties
	}
	byID := make(map[string]*fused)

	for _, hit := range kwResult.Hits {
		byID[hit.Memory.ID] = &fused{
			memory:      hit.Memory,
			score:       weights.Keyword * (1.0 / (k + float64(hit.Rank+1))),
			keywordRank: hit.Rank,
		}
	}
	for _, hit := range vecResult.Hits {
		if f, ok := byID[hit.Memory.ID]; ok {
			f.score += weights.Vector * (1.0 / (k + float64(hit.Rank+1)))
			continue
		}
		byID[hit.Memory.ID] = &fused{
			memory:      hit.Memory,
			score:       weights.Vector * (1.0 / (k + float64(hit.Rank+1))),
			keywordRank: -1,
		}
	}

	ranked := make([]*fused, 0, len(byID))
	for _, f := range byID {
		if opts.MinScore > 0 && f.score < opts.MinScore {
			continue
		}
		ranked = append(ranked, f)
	}
	// Ties broken by original keyword rank (absent keyword rank sorts last).
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		ri, rj := ranked[i].keywordRank, ranked[j].keywordRank
		if ri < 0 {
			ri = int(^uint(0) >> 1)
		}
		if rj < 0 {
			rj = int(^uint(0) >> 1)
		}
		return ri < rj
	})

	total := len(ranked)
	offset := opts.Offset
	if offset >= total {
		return &storage.SearchResultSet{Method: "hybrid", Total: total}, nil
	}
	end := offset + opts.Limit
	if end > total {
		end = total
	}

	var hits []storage.SearchHit
	for i, f := range ranked[offset:end] {
		hits = append(hits, storage.SearchHit{Memory: f.memory, Score: f.score, Rank: i})
	}

	return &storage.SearchResultSet{Hits: hits, Total: total, Method: "hybrid"}, nil
}

// cosineSimilarity computes cosine similarity between two equal-length
// vectors. Returns 0 if lengths differ or either vector has zero magnitude.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// buildSearchFilter builds the shared source_type/source_platform/
// min-max-retention/date-range/tags filter clause spec.md §4.5 requires of
// every search modality, mirroring the inline condition-building style of
// MemoryStore.List. prefix is prepended to each column name so the same
// helper works whether the caller's query aliases the memories table (e.g.
// "m.") or selects from it directly ("").
func buildSearchFilter(prefix string, opts storage.SearchOptions) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if opts.SourceType != "" {
		conds = append(conds, prefix+"source_type = ?")
		args = append(args, string(opts.SourceType))
	}
	if opts.SourcePlatform != "" {
		conds = append(conds, prefix+"source_platform = ?")
		args = append(args, opts.SourcePlatform)
	}
	if opts.MinRetention > 0 {
		conds = append(conds, prefix+"retention_strength >= ?")
		args = append(args, opts.MinRetention)
	}
	if opts.MaxRetention > 0 {
		conds = append(conds, prefix+"retention_strength <= ?")
		args = append(args, opts.MaxRetention)
	}
	if !opts.CreatedAfter.IsZero() {
		conds = append(conds, prefix+"created_at >= ?")
		args = append(args, opts.CreatedAfter)
	}
	if !opts.CreatedBefore.IsZero() {
		conds = append(conds, prefix+"created_at <= ?")
		args = append(args, opts.CreatedBefore)
	}
	for _, tag := range opts.Tags {
		conds = append(conds, prefix+`tags LIKE ?`)
		args = append(args, `%"`+tag+`"%`)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(conds, " AND "), args
}

// sanitiseFTSQuery converts a free-form user query into a safe FTS5 MATCH
// expression: strips FTS5-special characters, removes common stop words,
// and uses prefix matching (term*) for recall.
func sanitiseFTSQuery(query string) string {
	replacer := strings.NewReplacer(
		`"`, ` `, `'`, ` `, `(`, ` `, `)`, ` `, `*`, ` `, `-`, ` `, `^`, ` `, `?`, ` `, `:`, ` `,
	)
	cleaned := replacer.Replace(query)
	words := strings.Fields(strings.ToLower(cleaned))

	stopWords := map[string]bool{
		"a": true, "an": true, "the": true,
		"is": true, "are": true, "was": true, "were": true, "be": true, "been": true, "being": true,
		"have": true, "has": true, "had": true,
		"do": true, "does": true, "did": true,
		"will": true, "would": true, "could": true, "should": true,
		"may": true, "might": true, "shall": true, "can": true,
		"to": true, "of": true, "in": true, "on": true, "at": true,
		"by": true, "for": true, "with": true, "from": true, "as": true,
		"about": true, "into": true, "through": true, "during": true,
		"before": true, "after": true, "above": true, "below": true,
		"between": true, "out": true, "off": true, "over": true, "under": true,
		"what": true, "how": true, "when": true, "where": true, "why": true,
		"who": true, "which": true,
		"this": true, "that": true, "these": true, "those": true,
		"i": true, "you": true, "he": true, "she": true, "it": true, "we": true, "they": true,
		"and": true, "or": true, "but": true, "if": true, "not": true,
		"s": true, "t": true,
	}

	var terms []string
	for _, w := range words {
		if !stopWords[w] && len(w) >= 2 {
			terms = append(terms, w+"*")
		}
	}

	if len(terms) == 0 {
		return strings.ToLower(strings.TrimSpace(cleaned))
	}
	return strings.Join(terms, " OR ")
}

// scanMemoryWithRank reads a FullTextSearch row: memoryColumns followed by
// one trailing weighted bm25 column.
func scanMemoryWithRank(rows *sql.Rows) (*types.Memory, float64, error) {
	scanner := &rankedScanner{rows: rows}
	m, err := scanMemory(scanner)
	if err != nil {
		return nil, 0, err
	}
	return m, scanner.rank, nil
}

// rankedScanner wraps *sql.Rows so scanMemory's fixed argument list can be
// reused, appending one extra destination (rank) after it.
type rankedScanner struct {
	rows *sql.Rows
	rank float64
}

func (r *rankedScanner) Scan(dest ...interface{}) error {
	return r.rows.Scan(append(dest, &r.rank)...)
}
