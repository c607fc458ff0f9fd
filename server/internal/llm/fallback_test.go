package llm

import (
	"context"
	"testing"
)

func TestScoreSentimentDirection(t *testing.T) {
	cases := []struct {
		name string
		text string
		want func(v float64) bool
	}{
		{"bullish terms dominate", "Stocks rally on record earnings beat and growth", func(v float64) bool { return v > 0 }},
		{"bearish terms dominate", "Markets slump after recession fears and downgrade", func(v float64) bool { return v < 0 }},
		{"no sentiment terms", "The cafeteria menu changed this week", func(v float64) bool { return v == 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := score(tc.text); !tc.want(got) {
				t.Errorf("score(%q) = %v, failed predicate", tc.text, got)
			}
		})
	}
}

func TestSentimentLabelThresholds(t *testing.T) {
	cases := []struct {
		v    float64
		want string
	}{
		{0.5, "bullish"},
		{-0.5, "bearish"},
		{0.0, "neutral"},
		{0.1, "neutral"},
		{-0.1, "neutral"},
	}
	for _, tc := range cases {
		if got := sentimentLabel(tc.v); got != tc.want {
			t.Errorf("sentimentLabel(%v) = %q, want %q", tc.v, got, tc.want)
		}
	}
}

func TestTickersInRestrictsToKnownTickers(t *testing.T) {
	got := tickersIn("AAPL and MSFT rallied while CEO of GDP Corp spoke")
	want := map[string]bool{"AAPL": true, "MSFT": true}
	if len(got) != len(want) {
		t.Fatalf("tickersIn() = %v, want exactly %v", got, want)
	}
	for _, tk := range got {
		if !want[tk] {
			t.Errorf("tickersIn() unexpectedly included non-ticker acronym %q", tk)
		}
	}
}

func TestTopWordsRespectsLimitAndMinLength(t *testing.T) {
	text := "growth growth growth earnings earnings rally cat dog"
	got := topWords(text, 2)
	if len(got) != 2 {
		t.Fatalf("topWords(n=2) returned %d words, want 2", len(got))
	}
	if got[0] != "growth" {
		t.Errorf("topWords() = %v, want most frequent word first (\"growth\")", got)
	}
	for _, w := range got {
		if len(w) < 5 {
			t.Errorf("topWords() included short word %q, want only words >= 5 chars", w)
		}
	}
}

func TestFallbackCapabilitySynthesizeEmptyItems(t *testing.T) {
	f := NewFallbackCapability()
	out, err := f.Synthesize(context.Background(), "2026-07-29", nil)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if out.MarketSentiment != "neutral" {
		t.Errorf("Synthesize(no items) sentiment = %q, want neutral", out.MarketSentiment)
	}
}

func TestFallbackCapabilityAnalyzeItemNoNetwork(t *testing.T) {
	f := NewFallbackCapability()
	out, err := f.AnalyzeItem(context.Background(), "Fed raises rates", "Markets rallied on the surprise decision.")
	if err != nil {
		t.Fatalf("AnalyzeItem() error = %v", err)
	}
	if out.Summary == "" {
		t.Error("expected a non-empty summary")
	}
}
