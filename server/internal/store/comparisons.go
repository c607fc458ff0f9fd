package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
)

// CreatePredictionComparison records the Evaluator's scoring of one prediction.
func (s *Store) CreatePredictionComparison(ctx context.Context, c *models.PredictionComparison) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO prediction_comparisons (id, prediction_ref, analysis_ref, accuracy, outcome_description)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.PredictionRef, c.AnalysisRef, c.Accuracy, c.OutcomeDescription)
	if err != nil {
		return fmt.Errorf("creating comparison for prediction %s: %w", c.PredictionRef, err)
	}
	return nil
}
