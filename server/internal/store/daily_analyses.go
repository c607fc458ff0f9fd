package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
)

// UpsertDailyAnalysis inserts or replaces the synthesis for a given date.
func (s *Store) UpsertDailyAnalysis(ctx context.Context, a *models.DailyAnalysis) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO daily_analyses (id, date, market_sentiment, key_themes, summary, ai_blob_json, confidence, sources_analyzed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (date) DO UPDATE SET
			market_sentiment = EXCLUDED.market_sentiment,
			key_themes = EXCLUDED.key_themes,
			summary = EXCLUDED.summary,
			ai_blob_json = EXCLUDED.ai_blob_json,
			confidence = EXCLUDED.confidence,
			sources_analyzed = EXCLUDED.sources_analyzed
	`, a.ID, a.Date, a.MarketSentiment, a.KeyThemes, a.Summary, a.AIBlob, a.Confidence, a.SourcesAnalyzed)
	if err != nil {
		return fmt.Errorf("upserting daily analysis for %s: %w", a.Date, err)
	}
	return nil
}

// GetDailyAnalysis fetches one analysis by its date (YYYY-MM-DD).
func (s *Store) GetDailyAnalysis(ctx context.Context, date string) (*models.DailyAnalysis, error) {
	var a models.DailyAnalysis
	err := s.DB.GetContext(ctx, &a, `SELECT * FROM daily_analyses WHERE date = $1`, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("daily analysis %s: %w", date, models.ErrJobNotFound)
		}
		return nil, fmt.Errorf("getting daily analysis %s: %w", date, err)
	}
	return &a, nil
}

// GetDailyAnalysisByID fetches one analysis by ID.
func (s *Store) GetDailyAnalysisByID(ctx context.Context, id string) (*models.DailyAnalysis, error) {
	var a models.DailyAnalysis
	err := s.DB.GetContext(ctx, &a, `SELECT * FROM daily_analyses WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting daily analysis %s: %w", id, err)
	}
	return &a, nil
}

// LatestDailyAnalysis returns the analysis with the latest date, used by the
// Evaluator and the Freshness Trigger as the most recent synthesis.
func (s *Store) LatestDailyAnalysis(ctx context.Context) (*models.DailyAnalysis, error) {
	var a models.DailyAnalysis
	err := s.DB.GetContext(ctx, &a, `SELECT * FROM daily_analyses ORDER BY date DESC LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("latest daily analysis: %w", models.ErrJobNotFound)
		}
		return nil, fmt.Errorf("getting latest daily analysis: %w", err)
	}
	return &a, nil
}
