// Package llm provides the single Capability abstraction used identically by
// the Content Processor (C5), Daily Synthesizer (C6) and Predictor (C7): a
// real vendor-backed implementation and a deterministic fallback that never
// calls out to the network, selected once at startup by whether an API key
// is configured. The teacher called out to a local Ollama instance over raw
// HTTP for every step of its pipeline (ai.Service.callOllama); this package
// keeps that two-path shape but talks to a hosted vendor SDK instead.
package llm

import "context"

// ItemAnalysis is the Content Processor's (C5) extraction result for one item.
type ItemAnalysis struct {
	Topics    []string `json:"topics"`
	Sentiment float64  `json:"sentiment"` // -1..1
	Companies []string `json:"companies"`
	People    []string `json:"people"`
	Locations []string `json:"locations"`
	Tickers   []string `json:"tickers"`
	Summary   string   `json:"summary"`
}

// DailySynthesis is the Daily Synthesizer's (C6) output for one date.
type DailySynthesis struct {
	MarketSentiment string   `json:"market_sentiment"` // bullish | bearish | neutral
	KeyThemes       []string `json:"key_themes"`
	Summary         string   `json:"summary"`
	Confidence      float64  `json:"confidence"`
}

// PredictionDraft is the Predictor's (C7) output for one horizon/kind pair.
type PredictionDraft struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Capability is implemented by both the real vendor-backed client and the
// deterministic fallback so callers never branch on which one they hold.
type Capability interface {
	AnalyzeItem(ctx context.Context, title, body string) (ItemAnalysis, error)
	Synthesize(ctx context.Context, date string, items []ItemInput) (DailySynthesis, error)
	Predict(ctx context.Context, kind, horizon string, synthesis DailySynthesis) (PredictionDraft, error)
}

// ItemInput is the minimal per-item view the synthesizer needs, decoupling
// this package from server/internal/models.
type ItemInput struct {
	Summary   string
	Sentiment float64
	Topics    []string
}
