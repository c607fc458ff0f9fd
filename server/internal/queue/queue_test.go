package queue

import (
	"testing"
	"time"

	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
)

func TestBackoffDoublesUntilCap(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 60 * time.Second},
		{1, 60 * time.Second},
		{2, 120 * time.Second},
		{3, 240 * time.Second},
		{4, 480 * time.Second},
		{6, 1920 * time.Second},
		{7, time.Hour}, // 3840s would exceed the cap
		{20, time.Hour},
	}
	for _, tc := range cases {
		if got := Backoff(tc.attempt); got != tc.want {
			t.Errorf("Backoff(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestDedupKeyIsStablePerDisambiguator(t *testing.T) {
	k1 := DedupKey(models.JobFeedFetch, map[string]string{"source_ref": "src-1"})
	k2 := DedupKey(models.JobFeedFetch, map[string]string{"source_ref": "src-1"})
	k3 := DedupKey(models.JobFeedFetch, map[string]string{"source_ref": "src-2"})

	if k1 != k2 {
		t.Fatalf("expected identical dedup keys for identical (kind, source_ref), got %q != %q", k1, k2)
	}
	if k1 == k3 {
		t.Fatalf("expected different dedup keys for different source_ref, got the same %q", k1)
	}
	if k1 == "" {
		t.Fatal("expected a non-empty dedup key for feed_fetch")
	}
}

func TestDedupKeyDisambiguatesByKind(t *testing.T) {
	feed := DedupKey(models.JobFeedFetch, map[string]string{"source_ref": "same-id"})
	process := DedupKey(models.JobContentProcess, map[string]string{"raw_ref": "same-id"})
	if feed == process {
		t.Fatal("expected different job kinds with the same disambiguator to produce different dedup keys")
	}
}

func TestDedupKeyEmptyForUndeduplicatedKinds(t *testing.T) {
	for _, kind := range []models.JobKind{models.JobPredictionCompare, models.JobWorkerHeartbeat} {
		if got := DedupKey(kind, map[string]string{}); got != "" {
			t.Errorf("DedupKey(%s) = %q, want empty (never deduplicated)", kind, got)
		}
	}
}
