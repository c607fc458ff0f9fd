// Package synthesizer implements the Daily Synthesizer (C6): it selects the
// window of ProcessedItems published on a given date, refuses (transiently,
// so the job retries later) when there are too few to synthesize from, and
// otherwise runs the configured llm.Capability to produce one DailyAnalysis,
// finally enqueuing generate_predictions with a short delay so downstream
// readers see a settled analysis row first.
package synthesizer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/llm"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/queue"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/store"
	"go.uber.org/zap"
)

// MinItemsThreshold is the minimum number of processed items required before
// a date can be synthesized; below this, Synthesize returns a Transient
// apperr so the worker retries later rather than publishing a low-confidence
// analysis from too little evidence.
const MinItemsThreshold = 3

// PredictionDelay is how long generate_predictions waits after daily_analysis
// completes, letting the analysis settle before predictions read it.
const PredictionDelay = 60 * time.Second

// Service runs the daily synthesis pipeline.
type Service struct {
	store      *store.Store
	queue      *queue.Service
	capability llm.Capability
	log        *zap.Logger
}

// New builds a Daily Synthesizer.
func New(st *store.Store, q *queue.Service, capability llm.Capability, log *zap.Logger) *Service {
	return &Service{store: st, queue: q, capability: capability, log: log}
}

// Synthesize builds (or replaces) the DailyAnalysis for date (YYYY-MM-DD).
func (s *Service) Synthesize(ctx context.Context, date string) error {
	items, err := s.store.ProcessedItemsForDate(ctx, date)
	if err != nil {
		return fmt.Errorf("selecting processed items for %s: %w", date, err)
	}
	if len(items) < MinItemsThreshold {
		return models.Transientf("synthesizer.Synthesize", "%w: have %d, need %d for %s",
			models.ErrBelowThreshold, len(items), MinItemsThreshold, date)
	}

	inputs := make([]llm.ItemInput, 0, len(items))
	for _, it := range items {
		inputs = append(inputs, llm.ItemInput{
			Summary:   it.Summary,
			Sentiment: it.SentimentScore,
			Topics:    []string(it.Topics),
		})
	}

	result, err := s.capability.Synthesize(ctx, date, inputs)
	if err != nil {
		return fmt.Errorf("synthesizing %s: %w", date, err)
	}

	blob, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling synthesis blob for %s: %w", date, err)
	}

	analysis := &models.DailyAnalysis{
		Date:            date,
		MarketSentiment: models.MarketSentiment(result.MarketSentiment),
		KeyThemes:       models.StringArray(result.KeyThemes),
		Summary:         result.Summary,
		AIBlob:          blob,
		Confidence:      result.Confidence,
		SourcesAnalyzed: len(items),
	}
	if err := s.store.UpsertDailyAnalysis(ctx, analysis); err != nil {
		return fmt.Errorf("persisting daily analysis for %s: %w", date, err)
	}

	if _, err := s.queue.Enqueue(ctx, models.JobGeneratePredictions, map[string]string{"date": date}, models.DefaultPriority, PredictionDelay); err != nil {
		return fmt.Errorf("enqueuing predictions for %s: %w", date, err)
	}

	s.log.Info("synthesized daily analysis",
		zap.String("date", date),
		zap.String("sentiment", result.MarketSentiment),
		zap.Int("items", len(items)),
	)
	return nil
}
