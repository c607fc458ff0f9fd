package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfDefaultsToTransientForUnclassifiedErrors(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != Transient {
		t.Errorf("KindOf(plain error) = %v, want %v", got, Transient)
	}
}

func TestKindOfUnwrapsAppError(t *testing.T) {
	err := Permanentf("op", "bad config")
	if got := KindOf(err); got != Permanent {
		t.Errorf("KindOf(Permanentf) = %v, want %v", got, Permanent)
	}

	wrapped := fmt.Errorf("context: %w", err)
	if got := KindOf(wrapped); got != Permanent {
		t.Errorf("KindOf(wrapped Permanentf) = %v, want %v", got, Permanent)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"transient", Transientf("op", "timeout"), true},
		{"resource", NewAppError(Resource, "op", errors.New("pool exhausted")), true},
		{"permanent", Permanentf("op", "bad input"), false},
		{"data", NewAppError(Data, "op", errors.New("missing field")), false},
		{"invariant breach", NewAppError(InvariantBreach, "op", errors.New("impossible state")), false},
		{"unclassified", errors.New("plain"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryable(tc.err); got != tc.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewAppError(Transient, "store.Get", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to see through AppError to its wrapped cause")
	}
}
