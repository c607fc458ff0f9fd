package llm

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerCapability wraps a Capability with a circuit breaker (§4.2: "a
// circuit breaker ... for the LLM capability"), trading the usual retry on
// every call for short-circuiting once the vendor looks consistently down,
// the same protective layer worker/breaker.go gives source adapters.
type BreakerCapability struct {
	inner   Capability
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerCapability wraps inner with a circuit breaker named for metrics
// and logging purposes. onStateChange may be nil.
func NewBreakerCapability(inner Capability, name string, onStateChange func(name string, from, to gobreaker.State)) *BreakerCapability {
	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: onStateChange,
	})
	return &BreakerCapability{inner: inner, breaker: b}
}

func (c *BreakerCapability) AnalyzeItem(ctx context.Context, title, body string) (ItemAnalysis, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.inner.AnalyzeItem(ctx, title, body)
	})
	if err != nil {
		return ItemAnalysis{}, err
	}
	return out.(ItemAnalysis), nil
}

func (c *BreakerCapability) Synthesize(ctx context.Context, date string, items []ItemInput) (DailySynthesis, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.inner.Synthesize(ctx, date, items)
	})
	if err != nil {
		return DailySynthesis{}, err
	}
	return out.(DailySynthesis), nil
}

func (c *BreakerCapability) Predict(ctx context.Context, kind, horizon string, synthesis DailySynthesis) (PredictionDraft, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.inner.Predict(ctx, kind, horizon, synthesis)
	})
	if err != nil {
		return PredictionDraft{}, err
	}
	return out.(PredictionDraft), nil
}
