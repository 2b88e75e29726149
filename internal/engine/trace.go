package engine

import "time"

// TraceEventKind classifies each trace event emitted during a search.
type TraceEventKind string

const (
	// KindSearchStarted is emitted at the beginning of a search.
	KindSearchStarted TraceEventKind = "search_started"

	// KindCandidatesFound is emitted once candidate generation (keyword,
	// vector, or hybrid fusion) has produced its result set.
	KindCandidatesFound TraceEventKind = "candidates_found"

	// KindReranked is emitted after the Reranker applies its toggles.
	KindReranked TraceEventKind = "reranked"

	// KindFilteredOut is emitted for every candidate the reranker's time
	// window filter drops.
	KindFilteredOut TraceEventKind = "filtered_out"

	// KindTestingEffectApplied is emitted after the Testing Effect side
	// effect has been applied (best-effort) to the returned set.
	KindTestingEffectApplied TraceEventKind = "testing_effect_applied"

	// KindResultsReturned is emitted once the final result set is ready.
	KindResultsReturned TraceEventKind = "results_returned"
)

// TraceEvent is a single structured event emitted during a search
// operation, checked at each cancellation checkpoint spec.md §5 names:
// candidate generation, fusion, rerank, Testing Effect.
type TraceEvent struct {
	Kind TraceEventKind `json:"kind"`
	At   time.Time      `json:"at"`

	MemoryID     string   `json:"memory_id,omitempty"`
	Method       string   `json:"method,omitempty"` // "keyword", "vector", "hybrid", "like_fallback"
	Count        int      `json:"count,omitempty"`
	FilterReason string   `json:"filter_reason,omitempty"`
	Query        string   `json:"query,omitempty"`
	MemoryIDs    []string `json:"memory_ids,omitempty"`
}

func newTraceEvent(at time.Time, kind TraceEventKind) TraceEvent {
	return TraceEvent{Kind: kind, At: at}
}

// EventSearchStarted creates a search_started trace event.
func EventSearchStarted(at time.Time, query string) TraceEvent {
	e := newTraceEvent(at, KindSearchStarted)
	e.Query = query
	return e
}

// EventCandidatesFound creates a candidates_found trace event.
func EventCandidatesFound(at time.Time, count int, method string) TraceEvent {
	e := newTraceEvent(at, KindCandidatesFound)
	e.Count = count
	e.Method = method
	return e
}

// EventReranked creates a reranked trace event.
func EventReranked(at time.Time, count int) TraceEvent {
	e := newTraceEvent(at, KindReranked)
	e.Count = count
	return e
}

// EventFilteredOut creates a filtered_out trace event.
func EventFilteredOut(at time.Time, memoryID, reason string) TraceEvent {
	e := newTraceEvent(at, KindFilteredOut)
	e.MemoryID = memoryID
	e.FilterReason = reason
	return e
}

// EventTestingEffectApplied creates a testing_effect_applied trace event.
func EventTestingEffectApplied(at time.Time, count int) TraceEvent {
	e := newTraceEvent(at, KindTestingEffectApplied)
	e.Count = count
	return e
}

// EventResultsReturned creates a results_returned trace event.
func EventResultsReturned(at time.Time, memoryIDs []string) TraceEvent {
	e := newTraceEvent(at, KindResultsReturned)
	e.MemoryIDs = memoryIDs
	e.Count = len(memoryIDs)
	return e
}
