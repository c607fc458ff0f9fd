// Package sources implements the Source Adapter abstraction (C4): one
// fetch_latest/validate capability per source kind, grounded on the
// teacher's rss.Service feed-fetch pipeline (fetch → normalize → aggregate →
// sort → limit) and generalized to syndicated, audio, video, generic-endpoint
// and aggregate kinds per spec.md §4.4.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
)

// Item is one normalized unit returned by an adapter before it becomes a
// models.RawItem (the adapter doesn't know the source's database ID).
type Item struct {
	ExternalID   string
	Title        string
	Description  string
	Body         string
	PublishedAt  time.Time
	Metadata     map[string]interface{}
	IsAggregated bool
}

// Adapter is implemented by every source kind (§4.4).
type Adapter interface {
	// FetchLatest retrieves the newest items from a source, applying any
	// filter_keywords/exclude_keywords/max_items from CommonSourceConfig.
	FetchLatest(ctx context.Context, src models.Source) ([]Item, error)
	// Validate reports whether a source's config is well-formed for this kind.
	Validate(src models.Source) error
}

// For selects the Adapter implementation for a source's kind.
func For(src models.Source, deps Deps) (Adapter, error) {
	switch src.Kind {
	case models.SourceSyndicated:
		return &Syndicated{Deps: deps}, nil
	case models.SourceAudio:
		return &Audio{Deps: deps}, nil
	case models.SourceVideo:
		return &Video{Deps: deps}, nil
	case models.SourceGeneric:
		return &GenericEndpoint{Deps: deps}, nil
	case models.SourceAggregate:
		return &Aggregate{Deps: deps}, nil
	default:
		return nil, models.Permanentf("sources.For", "unsupported source kind %q", src.Kind)
	}
}

// Deps bundles the dependencies adapters need but don't own themselves.
type Deps struct {
	VideoAPIKey string
}

func unmarshalConfig(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parsing source config: %w", err)
	}
	return nil
}

// applyCommonFilters applies filter_keywords/exclude_keywords/max_items from
// CommonSourceConfig, shared by every adapter kind (§6.2).
func applyCommonFilters(items []Item, cfg models.CommonSourceConfig) []Item {
	out := items[:0:0]
	for _, it := range items {
		text := it.Title + " " + it.Description + " " + it.Body
		if len(cfg.FilterKeywords) > 0 && !containsAny(text, cfg.FilterKeywords) {
			continue
		}
		if len(cfg.ExcludeKeywords) > 0 && containsAny(text, cfg.ExcludeKeywords) {
			continue
		}
		out = append(out, it)
	}
	if cfg.MaxItems > 0 && len(out) > cfg.MaxItems {
		out = out[:cfg.MaxItems]
	}
	return out
}

func containsAny(haystack string, needles []string) bool {
	lower := strings.ToLower(haystack)
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
