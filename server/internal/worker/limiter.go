package worker

import (
	"sync"

	"golang.org/x/time/rate"
)

// limiterRegistry hands out a rate.Limiter per key (source ref or adapter
// kind), lazily created on first use and shared across every worker
// goroutine that touches the same collaborator (§4.2/§4.4/§4.9's per-source
// token bucket requirement).
type limiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newLimiterRegistry(ratePerSecond float64, burst int) *limiterRegistry {
	return &limiterRegistry{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(ratePerSecond),
		burst:    burst,
	}
}

func (r *limiterRegistry) forKey(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limiters[key]
	if !ok {
		l = rate.NewLimiter(r.rate, r.burst)
		r.limiters[key] = l
	}
	return l
}
