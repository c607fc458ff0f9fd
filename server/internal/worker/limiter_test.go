package worker

import "testing"

func TestLimiterRegistrySharesInstancePerKey(t *testing.T) {
	r := newLimiterRegistry(1, 1)

	a1 := r.forKey("source-1")
	a2 := r.forKey("source-1")
	if a1 != a2 {
		t.Fatal("expected forKey to return the same *rate.Limiter for the same key")
	}

	b := r.forKey("source-2")
	if a1 == b {
		t.Fatal("expected forKey to return distinct limiters for distinct keys")
	}
}
