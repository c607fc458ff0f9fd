package sources

import (
	"testing"
	"time"

	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
)

func TestContainsAnyIsCaseInsensitive(t *testing.T) {
	if !containsAny("The Fed raised RATES today", []string{"rates"}) {
		t.Error("expected case-insensitive match")
	}
	if containsAny("nothing relevant here", []string{"rates", "inflation"}) {
		t.Error("expected no match")
	}
	if containsAny("anything", []string{""}) {
		t.Error("empty needles should never match")
	}
}

func TestApplyCommonFiltersKeywordsAndLimit(t *testing.T) {
	items := []Item{
		{Title: "Fed raises rates", Description: "monetary policy"},
		{Title: "Local sports update", Description: "nothing financial"},
		{Title: "Inflation data released", Description: "CPI report"},
	}

	filtered := applyCommonFilters(items, models.CommonSourceConfig{
		FilterKeywords: []string{"fed", "inflation"},
	})
	if len(filtered) != 2 {
		t.Fatalf("expected 2 items to survive the filter_keywords allowlist, got %d", len(filtered))
	}

	excluded := applyCommonFilters(items, models.CommonSourceConfig{
		ExcludeKeywords: []string{"sports"},
	})
	if len(excluded) != 2 {
		t.Fatalf("expected 2 items to survive exclude_keywords, got %d", len(excluded))
	}

	capped := applyCommonFilters(items, models.CommonSourceConfig{MaxItems: 1})
	if len(capped) != 1 {
		t.Fatalf("expected max_items to cap the result to 1, got %d", len(capped))
	}
}

func TestForDispatchesByKind(t *testing.T) {
	cases := map[models.SourceKind]interface{}{
		models.SourceSyndicated: &Syndicated{},
		models.SourceAudio:      &Audio{},
		models.SourceVideo:      &Video{},
		models.SourceGeneric:    &GenericEndpoint{},
		models.SourceAggregate:  &Aggregate{},
	}
	for kind, want := range cases {
		adapter, err := For(models.Source{Kind: kind}, Deps{})
		if err != nil {
			t.Fatalf("For(%s) returned error: %v", kind, err)
		}
		if got := adapterTypeName(adapter); got != adapterTypeName(want) {
			t.Errorf("For(%s) = %T, want %T", kind, adapter, want)
		}
	}

	if _, err := For(models.Source{Kind: "unsupported"}, Deps{}); err == nil {
		t.Fatal("expected an error for an unsupported source kind")
	}
}

func adapterTypeName(a interface{}) string {
	switch a.(type) {
	case *Syndicated:
		return "syndicated"
	case *Audio:
		return "audio"
	case *Video:
		return "video"
	case *GenericEndpoint:
		return "generic"
	case *Aggregate:
		return "aggregate"
	default:
		return "unknown"
	}
}

func TestItemTimestampsAreComparable(t *testing.T) {
	now := time.Now()
	it := Item{PublishedAt: now}
	if !it.PublishedAt.Equal(now) {
		t.Fatal("expected PublishedAt to round-trip")
	}
}
