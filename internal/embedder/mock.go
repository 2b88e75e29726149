package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MockDimension is the default output length of MockEmbedder: spec.md §4.2
// calls for "a small number (~16)" of accumulator dimensions, distinct from
// the 768-dimension real-model output.
const MockDimension = 16

var wordRe = regexp.MustCompile(`[a-z0-9]+`)

// MockEmbedder is the deterministic, offline encoder the core falls back to
// (and tests exercise directly) when no real model is configured. It is
// part of the core, not hidden behind a test build tag, per the design
// note that the real system uses it whenever the ML backend is unavailable.
//
// Construction: tokenize to lowercase words; for each word, hash and
// accumulate a signed contribution into one of MockDimension dimensions;
// add positional decay (1/(pos+1)) into a per-position dimension; add
// small-weight character-trigram contributions; L2-normalize. Identical
// text always yields an identical vector.
type MockEmbedder struct {
	dimension int

	mu    sync.Mutex
	cache *lru.Cache[string, []float32]
}

// NewMockEmbedder creates a mock embedder with the default 16-dimension
// accumulator and a bounded cache of recently embedded texts.
func NewMockEmbedder() *MockEmbedder {
	return NewMockEmbedderWithCache(MockDimension, 10_000)
}

// NewMockEmbedderWithCache lets callers size the accumulator dimension and
// the LRU cache capacity explicitly.
func NewMockEmbedderWithCache(dimension, cacheSize int) *MockEmbedder {
	if dimension <= 0 {
		dimension = MockDimension
	}
	if cacheSize <= 0 {
		cacheSize = 1
	}
	c, _ := lru.New[string, []float32](cacheSize)
	return &MockEmbedder{dimension: dimension, cache: c}
}

// GetDimension returns the embedder's fixed output length.
func (m *MockEmbedder) GetDimension() int {
	return m.dimension
}

// Embed returns the deterministic unit vector for text, consulting the
// cache first.
func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	if v, ok := m.cache.Get(text); ok {
		m.mu.Unlock()
		return v, nil
	}
	m.mu.Unlock()

	vec := m.compute(text)

	m.mu.Lock()
	m.cache.Add(text, vec)
	m.mu.Unlock()

	return vec, nil
}

func (m *MockEmbedder) compute(text string) []float32 {
	vec := make([]float64, m.dimension)

	lower := strings.ToLower(text)
	words := wordRe.FindAllString(lower, -1)

	for pos, word := range words {
		h := hashString(word)
		dim := int(h % uint64(m.dimension))
		sign := 1.0
		if (h>>1)%2 == 0 {
			sign = -1.0
		}
		magnitude := 1.0 + float64(len(word))/10.0
		vec[dim] += sign * magnitude

		posDim := pos % m.dimension
		vec[posDim] += 1.0 / float64(pos+1)
	}

	for _, tri := range trigrams(lower) {
		h := hashString(tri)
		dim := int(h % uint64(m.dimension))
		sign := 1.0
		if (h>>2)%2 == 0 {
			sign = -1.0
		}
		vec[dim] += sign * 0.1
	}

	return normalize(vec, m.dimension)
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func trigrams(s string) []string {
	s = strings.ReplaceAll(s, " ", "")
	if len(s) < 3 {
		return nil
	}
	out := make([]string, 0, len(s)-2)
	for i := 0; i+3 <= len(s); i++ {
		out = append(out, s[i:i+3])
	}
	return out
}

func normalize(vec []float64, dimension int) []float32 {
	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, dimension)
	if norm == 0 {
		// Degenerate input (empty text): return a fixed unit vector rather
		// than dividing by zero.
		out[0] = 1
		return out
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}
