package embedder

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout is the default Embed call budget before the orchestrator
// gives up and proceeds with embedding=null.
const DefaultTimeout = 5 * time.Second

// GuardedConfig configures Guarded.
type GuardedConfig struct {
	Timeout           time.Duration
	RateLimitPerSec   float64 // 0 disables rate limiting
	RateLimitBurst    int
	CircuitBreaker    CircuitBreakerConfig
}

// DefaultGuardedConfig returns the default timeout with no rate limiting
// and the default circuit breaker thresholds.
func DefaultGuardedConfig() GuardedConfig {
	return GuardedConfig{
		Timeout: DefaultTimeout,
		CircuitBreaker: CircuitBreakerConfig{
			MaxFailures:          3,
			Timeout:              30 * time.Second,
			HalfOpenMaxSuccesses: 2,
		},
	}
}

// Guarded wraps a real-model Embedder with a timeout, an optional
// token-bucket rate limiter (same shape as an HTTP rate-limit middleware,
// here gating calls to the embedding backend instead of inbound requests),
// and a circuit breaker so repeated timeouts trip instead of retrying into
// a dead backend on every call.
type Guarded struct {
	inner   Embedder
	timeout time.Duration
	limiter *rate.Limiter
	breaker *CircuitBreaker
}

// NewGuarded wraps inner with cfg's timeout/rate-limit/circuit-breaker
// policy.
func NewGuarded(inner Embedder, cfg GuardedConfig) *Guarded {
	g := &Guarded{
		inner:   inner,
		timeout: cfg.Timeout,
		breaker: NewCircuitBreakerWithConfig(cfg.CircuitBreaker),
	}
	if cfg.RateLimitPerSec > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	return g
}

// GetDimension delegates to the wrapped embedder.
func (g *Guarded) GetDimension() int {
	return g.inner.GetDimension()
}

// Embed enforces the rate limit, then runs the wrapped embedder's Embed
// through the circuit breaker bounded by the configured timeout. On
// timeout, breaker-open, or any other failure it returns ErrUnavailable so
// callers can proceed with embedding=null rather than failing ingest.
func (g *Guarded) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, ErrUnavailable
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := g.breaker.Execute(ctx, func() (interface{}, error) {
		return g.inner.Embed(ctx, text)
	})
	if err != nil {
		return nil, ErrUnavailable
	}

	vec, ok := result.([]float32)
	if !ok {
		return nil, ErrUnavailable
	}
	return vec, nil
}

// BreakerState exposes the underlying circuit breaker's state for
// diagnostics ("closed", "open", "half-open").
func (g *Guarded) BreakerState() string {
	return g.breaker.State()
}
