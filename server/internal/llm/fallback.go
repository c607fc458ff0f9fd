package llm

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// FallbackCapability is the deterministic, network-free implementation used
// when no vendor API key is configured. It applies a fixed finance-vocabulary
// lexicon and regex-based heuristics rather than calling out to a model,
// following the same "degrade gracefully with a regex-based path" shape as
// the teacher's HTML-tag-stripping fallback in extractCleanContent.
type FallbackCapability struct{}

// NewFallbackCapability builds the deterministic Capability.
func NewFallbackCapability() *FallbackCapability {
	return &FallbackCapability{}
}

var (
	tickerPattern = regexp.MustCompile(`\b[A-Z]{1,5}\b`)
	wordSplit     = regexp.MustCompile(`[^a-zA-Z0-9]+`)

	bullishTerms = []string{"rally", "surge", "growth", "beat", "upgrade", "record", "gain", "optimis", "bullish", "soar"}
	bearishTerms = []string{"decline", "slump", "miss", "downgrade", "recession", "loss", "pessimis", "bearish", "plunge", "crash"}

	// knownTickers restricts the uppercase-token ticker heuristic to avoid
	// flagging ordinary acronyms (CEO, GDP) as tickers.
	knownTickers = map[string]bool{
		"AAPL": true, "MSFT": true, "GOOGL": true, "AMZN": true, "TSLA": true,
		"NVDA": true, "META": true, "JPM": true, "XOM": true, "SPY": true,
	}
)

// score returns a -1..1 sentiment estimate by counting lexicon hits.
func score(text string) float64 {
	lower := strings.ToLower(text)
	bull, bear := 0, 0
	for _, t := range bullishTerms {
		bull += strings.Count(lower, t)
	}
	for _, t := range bearishTerms {
		bear += strings.Count(lower, t)
	}
	total := bull + bear
	if total == 0 {
		return 0
	}
	return float64(bull-bear) / float64(total)
}

func topWords(text string, n int) []string {
	counts := map[string]int{}
	for _, w := range wordSplit.Split(strings.ToLower(text), -1) {
		if len(w) < 5 {
			continue
		}
		counts[w]++
	}
	type kv struct {
		k string
		v int
	}
	var kvs []kv
	for k, v := range counts {
		kvs = append(kvs, kv{k, v})
	}
	for i := 0; i < len(kvs); i++ {
		for j := i + 1; j < len(kvs); j++ {
			if kvs[j].v > kvs[i].v {
				kvs[i], kvs[j] = kvs[j], kvs[i]
			}
		}
	}
	if len(kvs) > n {
		kvs = kvs[:n]
	}
	out := make([]string, 0, len(kvs))
	for _, e := range kvs {
		out = append(out, e.k)
	}
	return out
}

func tickersIn(text string) []string {
	var out []string
	for _, m := range tickerPattern.FindAllString(text, -1) {
		if knownTickers[m] {
			out = append(out, m)
		}
	}
	return dedupStrings(out)
}

func dedupStrings(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func sentimentLabel(v float64) string {
	switch {
	case v > 0.15:
		return "bullish"
	case v < -0.15:
		return "bearish"
	default:
		return "neutral"
	}
}

// AnalyzeItem produces a lexicon-based extraction with no network call.
func (f *FallbackCapability) AnalyzeItem(ctx context.Context, title, body string) (ItemAnalysis, error) {
	text := title + " " + body
	summary := title
	if len(body) > 0 {
		if idx := strings.IndexAny(body, ".!?"); idx > 0 && idx < 280 {
			summary = title + " — " + body[:idx+1]
		}
	}
	return ItemAnalysis{
		Topics:    topWords(text, 5),
		Sentiment: score(text),
		Tickers:   tickersIn(text),
		Summary:   summary,
	}, nil
}

// Synthesize aggregates per-item sentiment and topics with no network call.
func (f *FallbackCapability) Synthesize(ctx context.Context, date string, items []ItemInput) (DailySynthesis, error) {
	if len(items) == 0 {
		return DailySynthesis{MarketSentiment: "neutral", Summary: "no items available for " + date}, nil
	}
	var sum float64
	themeCounts := map[string]int{}
	for _, it := range items {
		sum += it.Sentiment
		for _, t := range it.Topics {
			themeCounts[t]++
		}
	}
	avg := sum / float64(len(items))

	var themes []string
	for t := range themeCounts {
		themes = append(themes, t)
		if len(themes) >= 5 {
			break
		}
	}

	return DailySynthesis{
		MarketSentiment: sentimentLabel(avg),
		KeyThemes:       themes,
		Summary:         summarize(date, len(items), avg),
		Confidence:      0.4, // fixed, below the real capability's typical range — signals "fallback used"
	}, nil
}

func summarize(date string, n int, avg float64) string {
	return "Synthesis for " + date + " across " + strconv.Itoa(n) + " items, average sentiment " +
		sentimentLabel(avg) + " (fallback analysis, no model available)."
}

// Predict produces a templated prediction with a fixed, conservative
// confidence, with no network call.
func (f *FallbackCapability) Predict(ctx context.Context, kind, horizon string, synthesis DailySynthesis) (PredictionDraft, error) {
	text := "Based on " + synthesis.MarketSentiment + " sentiment, " + kind + " over the " + horizon +
		" horizon is expected to track recent themes: " + strings.Join(synthesis.KeyThemes, ", ") + "."
	return PredictionDraft{Text: text, Confidence: 0.3}, nil
}
