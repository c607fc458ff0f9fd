package evaluator

import (
	"testing"

	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
)

func TestScoreMarketDirectionAgreement(t *testing.T) {
	latest := models.DailyAnalysis{ID: "a1", Date: "2026-07-28", MarketSentiment: models.SentimentBullish}

	cases := []struct {
		name     string
		text     string
		want     float64
		kind     models.PredictionKind
	}{
		{"matching bullish claim", "Markets are expected to rally further", 1.0, models.PredictionMarketDirection},
		{"contradicting bearish claim", "Expect a broad decline in equities", 0.0, models.PredictionMarketDirection},
		{"ambiguous claim", "Sideways action is likely", InsufficientInputAccuracy, models.PredictionMarketDirection},
		{"non-market-direction kind", "Sector rotation expected", InsufficientInputAccuracy, models.PredictionSectorPerformance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := models.Prediction{Kind: tc.kind, Text: tc.text}
			got, outcome := score(p, latest)
			if got != tc.want {
				t.Errorf("score() accuracy = %v, want %v", got, tc.want)
			}
			if outcome == "" {
				t.Error("expected a non-empty outcome description")
			}
		})
	}
}

func TestScoreBearishLatestAnalysis(t *testing.T) {
	latest := models.DailyAnalysis{ID: "a2", Date: "2026-07-28", MarketSentiment: models.SentimentBearish}
	p := models.Prediction{Kind: models.PredictionMarketDirection, Text: "Expect markets to decline sharply"}
	got, _ := score(p, latest)
	if got != 1.0 {
		t.Errorf("expected a matching bearish claim to score 1.0, got %v", got)
	}
}
