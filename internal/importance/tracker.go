// Package importance maintains the four-factor ImportanceScore per memory:
// base, usage, recency, and connection. Follows decay_manager.go's
// half-life exponential decay and confidence_scorer.go's weighted
// multi-factor score with an Overall/final_score recompute, generalized
// from a single decay_score into the four-component model and given a
// ring buffer of usage events for observability.
package importance

import (
	"sync"
	"time"

	"github.com/scrypster/vestige/internal/clock"
	"github.com/scrypster/vestige/pkg/types"
)

// Config tunes the decay formulas. Defaults match spec.md §4.4.
type Config struct {
	RecencyHalfLifeDays float64 // default 14
	UsageGraceDays      float64 // default 7
	UsageDecayRate      float64 // default 0.95
	RingCapacity        int     // default 1000
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		RecencyHalfLifeDays: 14,
		UsageGraceDays:      7,
		UsageDecayRate:      0.95,
		RingCapacity:        1000,
	}
}

const (
	usageHelpfulMultiplier   = 1.15
	usageUnhelpfulMultiplier = 0.95
	componentFloor           = 0.01
	componentCeil            = 1.0
)

// Tracker holds per-memory ImportanceScores in memory, guarded by a
// RWMutex favoring readers since it's a hot path during search, as
// spec.md §5 calls for.
type Tracker struct {
	cfg   Config
	clock clock.Clock

	mu     sync.RWMutex
	scores map[string]*types.ImportanceScore

	ring *ring
}

// New creates a Tracker reading time through clk.
func New(cfg Config, clk clock.Clock) *Tracker {
	if cfg.RingCapacity <= 0 {
		cfg.RingCapacity = 1000
	}
	return &Tracker{
		cfg:    cfg,
		clock:  clk,
		scores: make(map[string]*types.ImportanceScore),
		ring:   newRing(cfg.RingCapacity),
	}
}

// GetOrCreate returns the existing score for id, or initializes one with
// the given base (default 0.5 when base==0).
func (t *Tracker) GetOrCreate(id string, base float64) *types.ImportanceScore {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.scores[id]; ok {
		return s
	}
	s := types.NewImportanceScore(id, base)
	t.scores[id] = &s
	return &s
}

// Get returns the score for id if it exists.
func (t *Tracker) Get(id string) (*types.ImportanceScore, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.scores[id]
	return s, ok
}

// OnRetrieved records a retrieval: usage is multiplied by 1.15 if helpful,
// 0.95 otherwise (both clamped to [0.01,1.0]); recency resets to 1.0;
// counters and last_accessed update. Every call appends a UsageEvent to
// the observability ring buffer.
func (t *Tracker) OnRetrieved(id string, wasHelpful bool) *types.ImportanceScore {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.scores[id]
	if !ok {
		created := types.NewImportanceScore(id, 0)
		s = &created
		t.scores[id] = s
	}

	mult := usageUnhelpfulMultiplier
	if wasHelpful {
		mult = usageHelpfulMultiplier
	}
	s.Usage = clampComponent(s.Usage * mult)
	s.Recency = 1.0
	s.RetrievalCount++
	if wasHelpful {
		s.HelpfulCount++
	}
	now := t.clock.Now()
	s.LastAccessed = &now
	s.Recompute()

	t.ring.push(types.UsageEvent{MemoryID: id, At: now, Helpful: wasHelpful, NewUsage: s.Usage})

	return s
}

// SetBase bounds-writes the base component and recomputes final_score.
func (t *Tracker) SetBase(id string, v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.scores[id]
	if !ok {
		return
	}
	s.Base = clampComponent(v)
	s.Recompute()
}

// SetConnection bounds-writes the connection component and recomputes
// final_score.
func (t *Tracker) SetConnection(id string, v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.scores[id]
	if !ok {
		return
	}
	if v < 0 {
		v = 0
	}
	if v > componentCeil {
		v = componentCeil
	}
	s.Connection = v
	s.Recompute()
}

// ApplyDecay runs the recency-decay and usage-decay passes across every
// tracked score. Returns the number of scores updated. It is advisory: a
// partial failure never aborts the batch (there is none to fail here —
// this is purely in-memory math; persistence is the orchestrator's job).
func (t *Tracker) ApplyDecay(createdAt map[string]time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	updated := 0
	for id, s := range t.scores {
		reference := createdAt[id]
		if s.LastAccessed != nil {
			reference = *s.LastAccessed
		}
		daysSince := now.Sub(reference).Hours() / 24.0
		if daysSince < 0 {
			daysSince = 0
		}

		recency := pow2(-daysSince / t.cfg.RecencyHalfLifeDays)
		s.Recency = clampComponent(recency)

		if daysSince > t.cfg.UsageGraceDays {
			daysPastGrace := daysSince - t.cfg.UsageGraceDays
			s.Usage = clampComponent(s.Usage * powf(t.cfg.UsageDecayRate, daysPastGrace))
		}

		s.Recompute()
		updated++
	}
	return updated
}

// WeightResults transforms each result's score by the matching memory's
// final_score: score' = score * (0.5 + 0.5*final_score), then resorts
// descending. Results without a tracked score pass through unscaled.
func (t *Tracker) WeightResults(results []ScoredID) []ScoredID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]ScoredID, len(results))
	copy(out, results)
	for i := range out {
		if s, ok := t.scores[out[i].ID]; ok {
			out[i].Score *= 0.5 + 0.5*s.FinalScore
		}
	}
	sortByScoreDesc(out)
	return out
}

// ScoredID pairs a memory ID with a search/rerank score, the shape
// WeightResults operates on.
type ScoredID struct {
	ID    string
	Score float64
}

func sortByScoreDesc(results []ScoredID) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}

// TopK returns the K memory IDs with the highest final_score.
func (t *Tracker) TopK(k int) []ScoredID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	all := make([]ScoredID, 0, len(t.scores))
	for id, s := range t.scores {
		all = append(all, ScoredID{ID: id, Score: s.FinalScore})
	}
	sortByScoreDesc(all)
	if k < len(all) {
		all = all[:k]
	}
	return all
}

// Neglected returns memories with high base but low usage (base - usage
// large and positive), most-neglected first.
func (t *Tracker) Neglected(k int) []ScoredID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	all := make([]ScoredID, 0, len(t.scores))
	for id, s := range t.scores {
		all = append(all, ScoredID{ID: id, Score: s.Base - s.Usage})
	}
	sortByScoreDesc(all)
	if k < len(all) {
		all = all[:k]
	}
	return all
}

// ForReview returns memories with high base but low recency, sorted by
// decline (base - recency) descending: candidates most due for review.
func (t *Tracker) ForReview(k int) []ScoredID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	all := make([]ScoredID, 0, len(t.scores))
	for id, s := range t.scores {
		all = append(all, ScoredID{ID: id, Score: s.Base - s.Recency})
	}
	sortByScoreDesc(all)
	if k < len(all) {
		all = all[:k]
	}
	return all
}

// RecentEvents returns up to n most recent usage events, newest first.
func (t *Tracker) RecentEvents(n int) []types.UsageEvent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ring.recent(n)
}

func clampComponent(v float64) float64 {
	if v < componentFloor {
		return componentFloor
	}
	if v > componentCeil {
		return componentCeil
	}
	return v
}
