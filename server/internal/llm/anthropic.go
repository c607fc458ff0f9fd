package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
)

// AnthropicCapability is the real vendor-backed implementation, used when
// MODEL_API_KEY/ANTHROPIC_API_KEY is configured.
type AnthropicCapability struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicCapability builds a Capability backed by the Anthropic API.
func NewAnthropicCapability(apiKey string) *AnthropicCapability {
	return &AnthropicCapability{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.ModelClaude3_5HaikuLatest,
	}
}

func (a *AnthropicCapability) complete(ctx context.Context, system, prompt string) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", models.Transientf("llm.complete", "anthropic request failed: %w", err)
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		sb.WriteString(block.Text)
	}
	return sb.String(), nil
}

// AnalyzeItem asks the model for a structured extraction over one item.
func (a *AnthropicCapability) AnalyzeItem(ctx context.Context, title, body string) (ItemAnalysis, error) {
	prompt := fmt.Sprintf(
		"Analyze this news item and respond with ONLY a JSON object with keys "+
			"topics (string array), sentiment (float -1..1), companies, people, locations, "+
			"tickers (string arrays) and summary (one paragraph).\n\nTitle: %s\n\nBody: %s",
		title, truncate(body, 6000),
	)
	raw, err := a.complete(ctx, itemAnalysisSystemPrompt, prompt)
	if err != nil {
		return ItemAnalysis{}, err
	}
	var out ItemAnalysis
	if err := json.Unmarshal([]byte(extractJSON(raw)), &out); err != nil {
		return ItemAnalysis{}, models.Transientf("llm.AnalyzeItem", "parsing model response: %w", err)
	}
	return out, nil
}

// Synthesize asks the model to produce a daily synthesis across items.
func (a *AnthropicCapability) Synthesize(ctx context.Context, date string, items []ItemInput) (DailySynthesis, error) {
	var sb strings.Builder
	for i, it := range items {
		fmt.Fprintf(&sb, "%d. (%+.2f) %s\n", i+1, it.Sentiment, it.Summary)
	}
	prompt := fmt.Sprintf(
		"You are synthesizing %d items from %s into a daily market brief. Respond with "+
			"ONLY a JSON object with keys market_sentiment (bullish|bearish|neutral), "+
			"key_themes (string array), summary (paragraph) and confidence (float 0..1).\n\n%s",
		len(items), date, sb.String(),
	)
	raw, err := a.complete(ctx, synthesisSystemPrompt, prompt)
	if err != nil {
		return DailySynthesis{}, err
	}
	var out DailySynthesis
	if err := json.Unmarshal([]byte(extractJSON(raw)), &out); err != nil {
		return DailySynthesis{}, models.Transientf("llm.Synthesize", "parsing model response: %w", err)
	}
	return out, nil
}

// Predict asks the model to draft one prediction for a kind/horizon pair.
func (a *AnthropicCapability) Predict(ctx context.Context, kind, horizon string, synthesis DailySynthesis) (PredictionDraft, error) {
	prompt := fmt.Sprintf(
		"Given this daily market synthesis (sentiment=%s, themes=%v, summary=%q), draft a %s "+
			"prediction for the %s horizon. Respond with ONLY a JSON object with keys text and "+
			"confidence (float 0..1).",
		synthesis.MarketSentiment, synthesis.KeyThemes, synthesis.Summary, kind, horizon,
	)
	raw, err := a.complete(ctx, predictionSystemPrompt, prompt)
	if err != nil {
		return PredictionDraft{}, err
	}
	var out PredictionDraft
	if err := json.Unmarshal([]byte(extractJSON(raw)), &out); err != nil {
		return PredictionDraft{}, models.Transientf("llm.Predict", "parsing model response: %w", err)
	}
	return out, nil
}

const (
	itemAnalysisSystemPrompt = "You are a financial news analyst. Always respond with valid JSON only, no prose."
	synthesisSystemPrompt    = "You are a markets editor writing a daily synthesis. Always respond with valid JSON only, no prose."
	predictionSystemPrompt   = "You are a markets forecaster. Always respond with valid JSON only, no prose."
)

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// extractJSON trims any stray prose the model wraps the JSON object in,
// grounded on the teacher's own tag-stripping fallback in extractCleanContent.
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
