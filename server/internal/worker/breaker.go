package worker

import (
	"sync"
	"time"

	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/metrics"
	"github.com/sony/gobreaker"
)

// breakerRegistry hands out one gobreaker.CircuitBreaker per name (the
// feed_fetch handler uses the adapter kind; the LLM capability's breaker is
// built separately in llm/breaker.go), open-on-repeated-failure as a safety
// net layered on top of
// the queue's own per-job backoff: it protects *other* jobs targeting the
// same flaky collaborator from queueing useless calls while it is down.
type breakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func newBreakerRegistry() *breakerRegistry {
	return &breakerRegistry{breakers: make(map[string]*gobreaker.CircuitBreaker)}
}

func (r *breakerRegistry) forName(name string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[name]
	if !ok {
		b = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			},
		})
		r.breakers[name] = b
	}
	return b
}
