package engine

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/scrypster/vestige/internal/clock"
	"github.com/scrypster/vestige/internal/importance"
	"github.com/scrypster/vestige/internal/storage"
)

// RerankConfig bundles the Reranker's toggles, following the same
// option-struct-with-explicit-defaults pattern used for SearchOptions and
// GraphBounds.
type RerankConfig struct {
	EnableRecencyDecay bool
	RecencyHalfLifeDays float64 // default 30

	EnableRetentionBoost bool
	RetentionMaxBoost    float64 // default 0.5

	EnableImportanceWeighting bool

	EnableMMRDiversity bool
	MMRLambda          float64 // default 0.7

	EnableSourceInterleaving bool

	KeywordBoost      []string
	KeywordBoostFactor float64 // default 1.5

	TimeWindowDays int // 0 disables the filter
}

// DefaultRerankConfig returns spec.md §4.6's documented defaults, with
// every toggle off except recency decay, retention boost and importance
// weighting — matching
// the orchestrator's "reasonable defaults unless a caller opts in to more"
// posture for MMR/interleaving, which reorder results more aggressively.
func DefaultRerankConfig() RerankConfig {
	return RerankConfig{
		EnableRecencyDecay:   true,
		RecencyHalfLifeDays:  30,
		EnableRetentionBoost: true,
		RetentionMaxBoost:    0.5,
		EnableImportanceWeighting: true,
		MMRLambda:                 0.7,
		KeywordBoostFactor:        1.5,
	}
}

// Reranker applies spec.md §4.6's post-fusion scoring and ordering passes.
type Reranker struct {
	clock      clock.Clock
	importance *importance.Tracker
}

// NewReranker builds a Reranker reading "now" through clk and consulting
// tracker for the importance-weighting pass.
func NewReranker(clk clock.Clock, tracker *importance.Tracker) *Reranker {
	return &Reranker{clock: clk, importance: tracker}
}

// rerankItem carries a SearchHit through the pipeline alongside the
// mutable score the passes below adjust in place.
type rerankItem struct {
	hit   storage.SearchHit
	score float64
}

// Rerank applies every enabled toggle in cfg to hits in this order: time
// window filter first, then recency decay, retention boost, keyword
// boost, importance weighting, MMR diversity and source interleaving. It
// returns at most limit items. trace, if non-nil, receives checkpoint
// events the orchestrator can surface for debugging.
func (r *Reranker) Rerank(cfg RerankConfig, hits []storage.SearchHit, limit int, trace func(TraceEvent)) []storage.SearchHit {
	now := r.clock.Now()
	items := make([]rerankItem, len(hits))
	for i, h := range hits {
		items[i] = rerankItem{hit: h, score: h.Score}
	}

	if cfg.TimeWindowDays > 0 {
		items = r.filterTimeWindow(items, cfg.TimeWindowDays, now, trace)
	}
	if cfg.EnableRecencyDecay {
		r.applyRecencyDecay(items, cfg.RecencyHalfLifeDays, now)
	}
	if cfg.EnableRetentionBoost {
		r.applyRetentionBoost(items, cfg.RetentionMaxBoost)
	}
	if len(cfg.KeywordBoost) > 0 {
		r.applyKeywordBoost(items, cfg.KeywordBoost, cfg.KeywordBoostFactor)
	}
	if cfg.EnableImportanceWeighting && r.importance != nil {
		items = r.applyImportanceWeighting(items)
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })

	if cfg.EnableMMRDiversity {
		items = r.applyMMR(items, cfg.MMRLambda, limit)
	} else if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	if cfg.EnableSourceInterleaving {
		items = interleaveBySource(items)
	}

	if trace != nil {
		trace(EventReranked(now, len(items)))
	}

	out := make([]storage.SearchHit, len(items))
	for i, it := range items {
		h := it.hit
		h.Score = it.score
		out[i] = h
	}
	return out
}

func (r *Reranker) filterTimeWindow(items []rerankItem, windowDays int, now time.Time, trace func(TraceEvent)) []rerankItem {
	cutoff := now.AddDate(0, 0, -windowDays)
	kept := items[:0:0]
	for _, it := range items {
		if it.hit.Memory.CreatedAt.Before(cutoff) {
			if trace != nil {
				trace(EventFilteredOut(now, it.hit.Memory.ID, "time_window"))
			}
			continue
		}
		kept = append(kept, it)
	}
	return kept
}

// applyRecencyDecay blends each item's score with a 2^(-days/half_life)
// factor so recently-accessed memories outrank stale ones of equal
// relevance, per spec.md §4.6.
func (r *Reranker) applyRecencyDecay(items []rerankItem, halfLifeDays float64, now time.Time) {
	if halfLifeDays <= 0 {
		halfLifeDays = 30
	}
	for i := range items {
		m := items[i].hit.Memory
		reference := m.CreatedAt
		if m.LastAccessedAt != nil {
			reference = *m.LastAccessedAt
		}
		days := now.Sub(reference).Hours() / 24.0
		if days < 0 {
			days = 0
		}
		factor := pow2Neg(days / halfLifeDays)
		items[i].score *= 0.7 + 0.3*factor
	}
}

// applyRetentionBoost rewards memories with a high current retrievability.
func (r *Reranker) applyRetentionBoost(items []rerankItem, maxBoost float64) {
	if maxBoost <= 0 {
		maxBoost = 0.5
	}
	for i := range items {
		items[i].score *= 1 + items[i].hit.Memory.RetentionStrength*maxBoost
	}
}

// applyKeywordBoost multiplies the score of every item whose content
// contains one of the listed keywords (case-insensitive substring match).
func (r *Reranker) applyKeywordBoost(items []rerankItem, keywords []string, factor float64) {
	if factor <= 0 {
		factor = 1.5
	}
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	for i := range items {
		content := strings.ToLower(items[i].hit.Memory.Content)
		for _, k := range lowered {
			if k != "" && strings.Contains(content, k) {
				items[i].score *= factor
				break
			}
		}
	}
}

// applyImportanceWeighting delegates to importance.Tracker.WeightResults,
// translating between rerankItem and importance.ScoredID.
func (r *Reranker) applyImportanceWeighting(items []rerankItem) []rerankItem {
	scored := make([]importance.ScoredID, len(items))
	byID := make(map[string]int, len(items))
	for i, it := range items {
		scored[i] = importance.ScoredID{ID: it.hit.Memory.ID, Score: it.score}
		byID[it.hit.Memory.ID] = i
	}
	weighted := r.importance.WeightResults(scored)
	out := make([]rerankItem, len(weighted))
	for i, w := range weighted {
		out[i] = items[byID[w.ID]]
		out[i].score = w.Score
	}
	return out
}

// applyMMR greedily selects up to limit items balancing relevance against
// diversity: at each step pick the item maximizing
// lambda*relevance - (1-lambda)*max_sim_to_selected, where similarity is
// Jaccard over lowercased words longer than two characters.
func (r *Reranker) applyMMR(items []rerankItem, lambda float64, limit int) []rerankItem {
	if limit <= 0 || limit >= len(items) {
		limit = len(items)
	}
	wordSets := make([]map[string]bool, len(items))
	for i, it := range items {
		wordSets[i] = wordSet(it.hit.Memory.Content)
	}

	remaining := make([]int, len(items))
	for i := range remaining {
		remaining[i] = i
	}

	var selected []int
	for len(selected) < limit && len(remaining) > 0 {
		bestIdx, bestRemIdx := -1, 0
		bestMMR := -1e18
		for ri, idx := range remaining {
			maxSim := 0.0
			for _, sIdx := range selected {
				if sim := jaccard(wordSets[idx], wordSets[sIdx]); sim > maxSim {
					maxSim = sim
				}
			}
			mmr := lambda*items[idx].score - (1-lambda)*maxSim
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = idx
				bestRemIdx = ri
			}
		}
		selected = append(selected, bestIdx)
		remaining = append(remaining[:bestRemIdx], remaining[bestRemIdx+1:]...)
	}

	out := make([]rerankItem, len(selected))
	for i, idx := range selected {
		out[i] = items[idx]
	}
	return out
}

// interleaveBySource round-robins items across their source_type groups
// so a single dominant source doesn't monopolize the top of the results.
func interleaveBySource(items []rerankItem) []rerankItem {
	groups := make(map[string][]rerankItem)
	var order []string
	for _, it := range items {
		key := string(it.hit.Memory.SourceType)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], it)
	}

	out := make([]rerankItem, 0, len(items))
	for {
		progressed := false
		for _, key := range order {
			if len(groups[key]) == 0 {
				continue
			}
			out = append(out, groups[key][0])
			groups[key] = groups[key][1:]
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return out
}

func wordSet(content string) map[string]bool {
	words := strings.Fields(strings.ToLower(content))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if len(w) > 2 {
			set[w] = true
		}
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// pow2Neg computes 2^(-x), the same half-life decay shape
// importance.Tracker.ApplyDecay uses for its recency factor.
func pow2Neg(x float64) float64 {
	return math.Pow(2, -x)
}
