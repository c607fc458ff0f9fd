package worker

import "testing"

func TestBreakerRegistrySharesInstancePerName(t *testing.T) {
	r := newBreakerRegistry()

	a1 := r.forName("syndicated")
	a2 := r.forName("syndicated")
	if a1 != a2 {
		t.Fatal("expected forName to return the same *gobreaker.CircuitBreaker for the same name")
	}

	b := r.forName("audio")
	if a1 == b {
		t.Fatal("expected forName to return distinct breakers for distinct names")
	}
}
