package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/vestige/internal/clock"
	"github.com/scrypster/vestige/internal/embedder"
	"github.com/scrypster/vestige/internal/graph"
	"github.com/scrypster/vestige/internal/importance"
	"github.com/scrypster/vestige/internal/scheduler"
	"github.com/scrypster/vestige/internal/storage"
	"github.com/scrypster/vestige/pkg/types"
)

// Config bundles the Orchestrator's tunables: a flat struct with a
// documented default constructor and a Validate method, trimmed to the
// lifecycle engine's actual knobs — there is no worker-pool/queue config
// (NumWorkers, QueueSize, ShutdownTimeout) since ingest/review/search are
// synchronous operations here, not queued jobs.
type Config struct {
	Scheduler  scheduler.Config
	Importance importance.Config
	Rerank     RerankConfig
	Fusion     storage.FusionWeights

	// EmbedTimeout bounds every Embedder call; on timeout ingest proceeds
	// with embedding=null per spec.md §5.
	EmbedTimeout time.Duration

	// DefaultMethod is the retrieval mode Search uses when the caller
	// doesn't specify one.
	DefaultMethod Method
}

// DefaultConfig returns spec.md's documented defaults for every
// sub-component.
func DefaultConfig() Config {
	return Config{
		Scheduler:     scheduler.DefaultConfig(),
		Importance:    importance.DefaultConfig(),
		Rerank:        DefaultRerankConfig(),
		Fusion:        storage.DefaultFusionWeights(),
		EmbedTimeout:  5 * time.Second,
		DefaultMethod: MethodHybrid,
	}
}

// Validate reports whether cfg's fields are usable.
func (c *Config) Validate() error {
	if c.EmbedTimeout <= 0 {
		return fmt.Errorf("EmbedTimeout must be > 0, got %v", c.EmbedTimeout)
	}
	return nil
}

// Orchestrator is the Memory Lifecycle Orchestrator, spec.md §4.8's C8:
// the top-level API composing Clock, Store, Embedder, Scheduler,
// Importance Tracker, Search Engine, and Reranker, and enforcing the data
// model's invariants. Follows a config-validation-then-wire-subcomponents
// constructor shape, with the enrichment worker pool replaced by the FSRS
// review path and the Testing Effect side effect.
type Orchestrator struct {
	cfg Config

	clock   clock.Clock
	store   storage.MemoryStore
	search  storage.SearchProvider
	edges   storage.EdgeStore
	embed   embedder.Embedder

	importance *importance.Tracker
	searchEng  *SearchEngine
	rerank     *Reranker
}

// New builds an Orchestrator. embed may be nil (no embedding backend
// configured); ingest then always records embedding=null and search
// degrades to keyword-only, per spec.md §5's embedder-unavailable policy.
func New(cfg Config, clk clock.Clock, store storage.MemoryStore, search storage.SearchProvider, edges storage.EdgeStore, embed embedder.Embedder) (*Orchestrator, error) {
	if store == nil {
		return nil, fmt.Errorf("engine: memory store is required")
	}
	if search == nil {
		return nil, fmt.Errorf("engine: search provider is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine: invalid config: %w", err)
	}

	tracker := importance.New(cfg.Importance, clk)
	return &Orchestrator{
		cfg:        cfg,
		clock:      clk,
		store:      store,
		search:     search,
		edges:      edges,
		embed:      embed,
		importance: tracker,
		searchEng:  NewSearchEngine(search, embed),
		rerank:     NewReranker(clk, tracker),
	}, nil
}

// IngestMeta carries the optional classification fields ingest accepts
// alongside raw content.
type IngestMeta struct {
	SourceType     types.SourceType
	SourcePlatform string
	Tags           []string
	People         []string
	Concepts       []string
	Events         []string
	Confidence     float64
	ValidFrom      *time.Time
	ValidUntil     *time.Time
}

// Ingest embeds content, inserts it with an initial New FSRS card and
// initial ImportanceScore, and returns the new memory's ID. Per spec.md
// §5, an Embedder timeout or failure does not fail ingest: the memory is
// stored with embedding=null.
func (o *Orchestrator) Ingest(ctx context.Context, content string, meta IngestMeta) (string, error) {
	if content == "" {
		return "", fmt.Errorf("%w: content must not be empty", storage.ErrInvalidInput)
	}
	if meta.SourceType == "" {
		meta.SourceType = types.SourceTypeFact
	} else if !types.IsValidSourceType(meta.SourceType) {
		return "", fmt.Errorf("%w: unknown source_type %q", storage.ErrInvalidInput, meta.SourceType)
	}
	if meta.Confidence == 0 {
		meta.Confidence = 1.0
	}

	now := o.clock.Now()
	id := generateID()

	vec := o.tryEmbed(ctx, content)

	m := &types.Memory{
		ID:                 id,
		Content:            content,
		SourceType:         meta.SourceType,
		SourcePlatform:     meta.SourcePlatform,
		Tags:               dedupeStrings(meta.Tags),
		People:             meta.People,
		Concepts:           meta.Concepts,
		Events:             meta.Events,
		CreatedAt:          now,
		UpdatedAt:          now,
		ValidFrom:          meta.ValidFrom,
		ValidUntil:         meta.ValidUntil,
		Confidence:         meta.Confidence,
		Card:               types.NewCard(),
		RetentionStrength:  1.0,
		Embedding:          vec,
	}

	if err := o.store.Store(ctx, m); err != nil {
		return "", fmt.Errorf("engine: ingest: %w", err)
	}

	o.importance.GetOrCreate(id, 0.5)

	return id, nil
}

// tryEmbed embeds text under cfg.EmbedTimeout, returning nil (not an
// error) on timeout or if no Embedder is configured — ingest must
// proceed either way.
func (o *Orchestrator) tryEmbed(ctx context.Context, text string) []float32 {
	if o.embed == nil {
		return nil
	}
	embedCtx, cancel := context.WithTimeout(ctx, o.cfg.EmbedTimeout)
	defer cancel()

	vec, err := o.embed.Embed(embedCtx, text)
	if err != nil {
		log.Printf("engine: embed unavailable, proceeding with embedding=null: %v", err)
		return nil
	}
	return vec
}

// ReviewOutput is what Review returns: the metrics scenario 1/2 of
// spec.md §8 assert against, plus the persisted next_review.
type ReviewOutput struct {
	Card                types.CardState
	NextIntervalDays    float64
	RetrievabilityAfter float64
	NextReview          *time.Time
}

// Review loads the memory's current card, computes elapsed_days via
// Clock, runs the Scheduler, and persists the new card state plus the
// derived retention_strength/stability_factor. Computation and write form
// one atomic unit per spec.md §5: Review is not cancellable once the
// scheduler has produced a result.
func (o *Orchestrator) Review(ctx context.Context, id string, rating types.Rating) (*ReviewOutput, error) {
	if !types.IsValidRating(rating) {
		return nil, fmt.Errorf("%w: invalid rating %d", storage.ErrInvalidInput, rating)
	}

	m, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("engine: review: %w", err)
	}

	now := o.clock.Now()
	elapsed := elapsedDays(m.Card, m.CreatedAt, now)

	var sentiment *float64
	if o.cfg.Scheduler.EnableSentimentBoost {
		s := m.SentimentIntensity
		sentiment = &s
	}

	result, err := scheduler.Review(o.cfg.Scheduler, m.Card, rating, elapsed, sentiment)
	if err != nil {
		return nil, fmt.Errorf("engine: review: %w", err)
	}

	result.Card.LastReview = &now
	next := now.Add(daysToDuration(result.NextIntervalDays))
	result.Card.NextReview = &next

	if err := o.store.UpdateCard(ctx, id, result.Card, result.RetrievabilityAfter, result.Card.Stability); err != nil {
		return nil, fmt.Errorf("engine: review: persist: %w", err)
	}

	return &ReviewOutput{
		Card:                result.Card,
		NextIntervalDays:    result.NextIntervalDays,
		RetrievabilityAfter: result.RetrievabilityAfter,
		NextReview:          result.Card.NextReview,
	}, nil
}

// SearchRequest is what callers pass to Search.
type SearchRequest struct {
	Query  string
	Method Method // zero value uses cfg.DefaultMethod
	Opts   storage.SearchOptions
	Rerank *RerankConfig // nil uses cfg.Rerank
	Trace  func(TraceEvent)
}

// Search runs the requested retrieval mode, reranks, applies the Testing
// Effect side effect, and returns the result set. Honors ctx cancellation
// at the checkpoints spec.md §5 names: after candidate generation, after
// rerank, before the Testing Effect mutation commits partial work is
// discarded and no persistent state is touched.
func (o *Orchestrator) Search(ctx context.Context, req SearchRequest) (*storage.SearchResultSet, error) {
	method := req.Method
	if method == "" {
		method = o.cfg.DefaultMethod
	}
	rerankCfg := o.cfg.Rerank
	if req.Rerank != nil {
		rerankCfg = *req.Rerank
	}

	now := o.clock.Now()
	if req.Trace != nil {
		req.Trace(EventSearchStarted(now, req.Query))
	}

	candidates, err := o.searchEng.Run(ctx, method, req.Query, o.cfg.Fusion, req.Opts)
	if err != nil {
		return nil, fmt.Errorf("engine: search: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Trace != nil {
		req.Trace(EventCandidatesFound(o.clock.Now(), len(candidates.Hits), candidates.Method))
	}

	limit := req.Opts.Limit
	if limit <= 0 {
		limit = len(candidates.Hits)
	}
	reranked := o.rerank.Rerank(rerankCfg, candidates.Hits, limit, req.Trace)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.applyTestingEffect(ctx, reranked, req.Trace)

	candidates.Hits = reranked
	if req.Trace != nil {
		ids := make([]string, len(reranked))
		for i, h := range reranked {
			ids[i] = h.Memory.ID
		}
		req.Trace(EventResultsReturned(o.clock.Now(), ids))
	}
	return candidates, nil
}

// applyTestingEffect mutates last_accessed_at/access_count on the store
// and usage in the Importance Tracker for every returned hit. Per
// spec.md §4.6/§7, this is best-effort: a write failure here is logged
// and swallowed, never returned to the caller.
func (o *Orchestrator) applyTestingEffect(ctx context.Context, hits []storage.SearchHit, trace func(TraceEvent)) {
	now := o.clock.Now()
	for _, h := range hits {
		if err := o.store.IncrementAccessCount(ctx, h.Memory.ID, now); err != nil {
			log.Printf("engine: testing effect: IncrementAccessCount(%s): %v", h.Memory.ID, err)
			continue
		}
		o.importance.OnRetrieved(h.Memory.ID, true)
	}
	if trace != nil {
		trace(EventTestingEffectApplied(now, len(hits)))
	}
}

// DecayTickResult reports how many ImportanceScores were decayed and how
// many connection scores were recomputed, for the caller to log.
type DecayTickResult struct {
	ScoresDecayed      int
	ConnectionsUpdated int
	Failures           int
}

// DecayTick batch-applies Importance decay across every tracked memory
// and, if edges is configured, refreshes each memory's connection factor
// from current graph degree. Advisory: per spec.md §5 it may interleave
// with reads, and per §7 partial failures are counted, not fatal.
func (o *Orchestrator) DecayTick(ctx context.Context) (DecayTickResult, error) {
	createdAt, err := o.allCreatedAt(ctx)
	if err != nil {
		return DecayTickResult{}, fmt.Errorf("engine: decay_tick: %w", err)
	}

	result := DecayTickResult{ScoresDecayed: o.importance.ApplyDecay(createdAt)}

	if o.edges != nil {
		for id := range createdAt {
			score, err := graph.ConnectionScore(ctx, o.edges, id)
			if err != nil {
				result.Failures++
				continue
			}
			o.importance.SetConnection(id, score)
			result.ConnectionsUpdated++
		}
	}

	return result, nil
}

// allCreatedAt pages through every (non-deleted) memory to build the
// created_at map ApplyDecay needs as its fallback reference point for
// never-accessed memories.
func (o *Orchestrator) allCreatedAt(ctx context.Context) (map[string]time.Time, error) {
	out := make(map[string]time.Time)
	page := 1
	for {
		result, err := o.store.List(ctx, storage.ListOptions{Page: page, Limit: 100})
		if err != nil {
			return nil, err
		}
		for _, m := range result.Items {
			out[m.ID] = m.CreatedAt
		}
		if !result.HasMore {
			break
		}
		page++
	}
	return out, nil
}

// Supersede inserts a new memory with newContent, links oldID -> newID
// via a "supersedes" edge, and marks oldID is_contradicted with the new
// ID appended to its contradiction_ids, per spec.md §4.8 and scenario 6.
func (o *Orchestrator) Supersede(ctx context.Context, oldID, newContent string, meta IngestMeta) (string, error) {
	old, err := o.store.Get(ctx, oldID)
	if err != nil {
		return "", fmt.Errorf("engine: supersede: %w", err)
	}

	if meta.SourceType == "" {
		meta.SourceType = old.SourceType
	}
	newID, err := o.Ingest(ctx, newContent, meta)
	if err != nil {
		return "", fmt.Errorf("engine: supersede: ingest replacement: %w", err)
	}

	if o.edges != nil {
		edge := &types.Edge{
			ID:        generateID(),
			FromID:    oldID,
			ToID:      newID,
			Kind:      types.EdgeKindSupersedes,
			CreatedAt: o.clock.Now(),
		}
		if err := o.edges.CreateEdge(ctx, edge); err != nil {
			return "", fmt.Errorf("engine: supersede: create edge: %w", err)
		}
	}

	if err := o.store.MarkContradicted(ctx, oldID, newID); err != nil {
		return "", fmt.Errorf("engine: supersede: mark contradicted: %w", err)
	}

	return newID, nil
}

// elapsedDays computes the real number of days since the card's last
// review (or since createdAt, for a card never reviewed), clamping
// negative/future values to zero per spec.md §7's clock-anomaly handling.
func elapsedDays(card types.CardState, createdAt, now time.Time) float64 {
	reference := createdAt
	if card.LastReview != nil {
		reference = *card.LastReview
	}
	d := now.Sub(reference).Hours() / 24.0
	if d < 0 {
		return 0
	}
	return d
}

func daysToDuration(days float64) time.Duration {
	return time.Duration(days * 24 * float64(time.Hour))
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// generateID returns a random opaque memory/edge ID via google/uuid,
// rather than a domain:slug namespacing scheme — a Memory ID is a flat
// opaque string per spec.md §3.
func generateID() string {
	return "mem-" + uuid.NewString()
}
