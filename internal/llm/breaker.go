package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
)

// BreakerProvider stops calling a failing collaborator for a while so that
// battle turns fall back to local problems without waiting on timeouts.
type BreakerProvider struct {
	inner   Provider
	breaker circuitbreaker.CircuitBreaker[*Response]
}

// WithCircuitBreaker wraps a Provider with a fortify circuit breaker. Only
// transient errors count as failures; context cancellation by the caller
// never trips the circuit.
func WithCircuitBreaker(p Provider, cfg BreakerConfig, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	failures := cfg.Failures
	if failures == 0 {
		failures = 3
	}
	openFor := cfg.OpenFor
	if openFor <= 0 {
		openFor = 30 * time.Second
	}

	bp := &BreakerProvider{inner: p}
	bp.breaker = circuitbreaker.New[*Response](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    openFor,
		Timeout:     openFor,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Warn("llm circuit breaker state change",
				"model", p.ModelID(),
				"from", from.String(),
				"to", to.String())
		},
	})
	return bp
}

func (b *BreakerProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var (
		called    bool
		permanent error
	)
	resp, err := b.breaker.Execute(ctx, func(ctx context.Context) (*Response, error) {
		called = true
		resp, err := b.inner.Generate(ctx, req)
		if err != nil && !IsTransient(err) {
			// Reported to the breaker as a success.
			permanent = err
			return nil, nil
		}
		return resp, err
	})
	if permanent != nil {
		return nil, permanent
	}
	if err != nil && !called {
		return nil, &ErrProviderUnavailable{Err: err}
	}
	return resp, err
}

func (b *BreakerProvider) ModelID() string {
	return b.inner.ModelID()
}
