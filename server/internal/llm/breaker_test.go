package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
)

type failingCapability struct {
	calls int
}

func (f *failingCapability) AnalyzeItem(ctx context.Context, title, body string) (ItemAnalysis, error) {
	f.calls++
	return ItemAnalysis{}, errors.New("vendor unavailable")
}

func (f *failingCapability) Synthesize(ctx context.Context, date string, items []ItemInput) (DailySynthesis, error) {
	return DailySynthesis{}, nil
}

func (f *failingCapability) Predict(ctx context.Context, kind, horizon string, synthesis DailySynthesis) (PredictionDraft, error) {
	return PredictionDraft{}, nil
}

func TestBreakerCapabilityOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &failingCapability{}
	var lastState gobreaker.State
	cap := NewBreakerCapability(inner, "test-llm", func(name string, from, to gobreaker.State) {
		lastState = to
	})

	for i := 0; i < 5; i++ {
		if _, err := cap.AnalyzeItem(context.Background(), "t", "b"); err == nil {
			t.Fatal("expected failingCapability to return an error")
		}
	}

	if lastState != gobreaker.StateOpen {
		t.Fatalf("expected the breaker to open after 5 consecutive failures, last state = %v", lastState)
	}

	callsBeforeShortCircuit := inner.calls
	if _, err := cap.AnalyzeItem(context.Background(), "t", "b"); err == nil {
		t.Fatal("expected an error once the breaker is open")
	}
	if inner.calls != callsBeforeShortCircuit {
		t.Error("expected the open breaker to short-circuit without calling the inner capability")
	}
}
