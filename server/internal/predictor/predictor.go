// Package predictor implements the Predictor (C7): for each of the fixed
// prediction kinds and horizons (§3), it asks the configured llm.Capability
// to draft a claim against the day's DailyAnalysis and persists the result.
package predictor

import (
	"context"
	"fmt"

	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/llm"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/store"
	"go.uber.org/zap"
)

// Kinds is the fixed set of prediction categories issued per analysis.
var Kinds = []models.PredictionKind{
	models.PredictionMarketDirection,
	models.PredictionSectorPerformance,
	models.PredictionEconomicIndicator,
	models.PredictionGeopoliticalEvent,
}

// Horizons is the fixed set of forward-looking windows issued per kind.
var Horizons = []models.Horizon{
	models.Horizon1Week,
	models.Horizon1Month,
	models.Horizon3Month,
	models.Horizon6Month,
	models.Horizon1Year,
}

// Service runs the prediction pipeline for one date's analysis.
type Service struct {
	store      *store.Store
	capability llm.Capability
	log        *zap.Logger
}

// New builds a Predictor.
func New(st *store.Store, capability llm.Capability, log *zap.Logger) *Service {
	return &Service{store: st, capability: capability, log: log}
}

// GenerateFor issues one prediction per (kind, horizon) pair against the
// analysis for date.
func (s *Service) GenerateFor(ctx context.Context, date string) error {
	analysis, err := s.store.GetDailyAnalysis(ctx, date)
	if err != nil {
		return fmt.Errorf("loading analysis for %s: %w", date, err)
	}

	synthesis := llm.DailySynthesis{
		MarketSentiment: string(analysis.MarketSentiment),
		KeyThemes:       []string(analysis.KeyThemes),
		Summary:         analysis.Summary,
		Confidence:      analysis.Confidence,
	}

	issued := 0
	for _, kind := range Kinds {
		for _, horizon := range Horizons {
			draft, err := s.capability.Predict(ctx, string(kind), string(horizon), synthesis)
			if err != nil {
				return fmt.Errorf("predicting %s/%s for %s: %w", kind, horizon, date, err)
			}
			pred := &models.Prediction{
				AnalysisRef: analysis.ID,
				Kind:        kind,
				Text:        draft.Text,
				Confidence:  draft.Confidence,
				Horizon:     horizon,
			}
			if err := s.store.CreatePrediction(ctx, pred); err != nil {
				return fmt.Errorf("persisting prediction %s/%s for %s: %w", kind, horizon, date, err)
			}
			issued++
		}
	}

	s.log.Info("generated predictions", zap.String("date", date), zap.Int("count", issued))
	return nil
}
