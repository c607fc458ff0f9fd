package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
)

// CreatePrediction inserts one prediction against a daily analysis.
func (s *Store) CreatePrediction(ctx context.Context, p *models.Prediction) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO predictions (id, analysis_ref, kind, text, confidence, horizon, data_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.AnalysisRef, p.Kind, p.Text, p.Confidence, p.Horizon, p.Data)
	if err != nil {
		return fmt.Errorf("creating prediction for analysis %s: %w", p.AnalysisRef, err)
	}
	return nil
}

// GetPrediction fetches one prediction by ID.
func (s *Store) GetPrediction(ctx context.Context, id string) (*models.Prediction, error) {
	var p models.Prediction
	err := s.DB.GetContext(ctx, &p, `SELECT * FROM predictions WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting prediction %s: %w", id, err)
	}
	return &p, nil
}

// PredictionsForAnalysis lists every prediction issued against one analysis.
func (s *Store) PredictionsForAnalysis(ctx context.Context, analysisID string) ([]models.Prediction, error) {
	var rows []models.Prediction
	err := s.DB.SelectContext(ctx, &rows, `SELECT * FROM predictions WHERE analysis_ref = $1 ORDER BY created_at`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("listing predictions for analysis %s: %w", analysisID, err)
	}
	return rows, nil
}

// PredictionsDueForEvaluation returns predictions whose horizon has elapsed
// and that have no comparison row yet, for the Evaluator (C8).
func (s *Store) PredictionsDueForEvaluation(ctx context.Context) ([]models.Prediction, error) {
	var rows []models.Prediction
	err := s.DB.SelectContext(ctx, &rows, `
		SELECT p.* FROM predictions p
		JOIN daily_analyses a ON a.id = p.analysis_ref
		LEFT JOIN prediction_comparisons c ON c.prediction_ref = p.id
		WHERE c.id IS NULL
		  AND (
		    (p.horizon = '1w' AND a.date::date <= now() - interval '7 days') OR
		    (p.horizon = '1m' AND a.date::date <= now() - interval '1 month') OR
		    (p.horizon = '3m' AND a.date::date <= now() - interval '3 months') OR
		    (p.horizon = '6m' AND a.date::date <= now() - interval '6 months') OR
		    (p.horizon = '1y' AND a.date::date <= now() - interval '1 year')
		  )
		ORDER BY p.created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("listing predictions due for evaluation: %w", err)
	}
	return rows, nil
}
