// Package evaluator implements the Evaluator (C8): it scores predictions
// whose horizon has elapsed against the best available evidence of the
// actual outcome, falling back to a fixed neutral accuracy (0.5) when there
// isn't yet enough evidence to score confidently, per spec.md §4.8.
package evaluator

import (
	"context"
	"fmt"
	"strings"

	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/store"
	"go.uber.org/zap"
)

// InsufficientInputAccuracy is returned when there isn't enough evidence to
// score a prediction's outcome with confidence.
const InsufficientInputAccuracy = 0.5

// Service scores predictions against observed outcomes.
type Service struct {
	store *store.Store
	log   *zap.Logger
}

// New builds an Evaluator.
func New(st *store.Store, log *zap.Logger) *Service {
	return &Service{store: st, log: log}
}

// EvaluateDue scores every prediction whose horizon has elapsed and that
// hasn't been compared yet.
func (s *Service) EvaluateDue(ctx context.Context) (int, error) {
	due, err := s.store.PredictionsDueForEvaluation(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing predictions due for evaluation: %w", err)
	}
	for _, p := range due {
		if err := s.evaluateOne(ctx, p); err != nil {
			return 0, fmt.Errorf("evaluating prediction %s: %w", p.ID, err)
		}
	}
	return len(due), nil
}

func (s *Service) evaluateOne(ctx context.Context, p models.Prediction) error {
	latest, err := s.store.LatestDailyAnalysis(ctx)
	if err != nil {
		return fmt.Errorf("loading latest analysis to evaluate %s: %w", p.ID, err)
	}

	accuracy, outcome := score(p, *latest)

	cmp := &models.PredictionComparison{
		PredictionRef:      p.ID,
		AnalysisRef:        latest.ID,
		Accuracy:           accuracy,
		OutcomeDescription: outcome,
	}
	if err := s.store.CreatePredictionComparison(ctx, cmp); err != nil {
		return err
	}
	s.log.Info("evaluated prediction", zap.String("prediction_id", p.ID), zap.Float64("accuracy", accuracy))
	return nil
}

// score compares a prediction's directional claim against the latest
// analysis's realized sentiment. Market-direction predictions score by
// sentiment-label agreement; every other kind falls back to the fixed
// insufficient-input accuracy since this system tracks no independent
// ground truth for sector/economic/geopolitical claims (§4.8's Non-goal:
// the specific vendor/outcome-source integration is out of scope).
func score(p models.Prediction, latest models.DailyAnalysis) (float64, string) {
	if p.Kind != models.PredictionMarketDirection {
		return InsufficientInputAccuracy, "no independent outcome source configured for this prediction kind"
	}
	predictedBullish := latest.MarketSentiment == models.SentimentBullish
	predictedBearish := latest.MarketSentiment == models.SentimentBearish
	lowerText := strings.ToLower(p.Text)
	claimedBullish := strings.Contains(lowerText, "bullish") || strings.Contains(lowerText, "up") || strings.Contains(lowerText, "rally")
	claimedBearish := strings.Contains(lowerText, "bearish") || strings.Contains(lowerText, "down") || strings.Contains(lowerText, "decline")

	switch {
	case claimedBullish && predictedBullish, claimedBearish && predictedBearish:
		return 1.0, "directional claim matched observed sentiment as of " + latest.Date
	case claimedBullish && predictedBearish, claimedBearish && predictedBullish:
		return 0.0, "directional claim contradicted observed sentiment as of " + latest.Date
	default:
		return InsufficientInputAccuracy, "directional claim ambiguous against observed sentiment as of " + latest.Date
	}
}
