package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
)

// CreateProcessedItem inserts the Content Processor's output for a raw item.
func (s *Store) CreateProcessedItem(ctx context.Context, item *models.ProcessedItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO processed_items (id, raw_ref, normalized_text, topics, sentiment_score, entities_json, summary, processing_metadata_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (raw_ref) DO UPDATE SET
			normalized_text = EXCLUDED.normalized_text,
			topics = EXCLUDED.topics,
			sentiment_score = EXCLUDED.sentiment_score,
			entities_json = EXCLUDED.entities_json,
			summary = EXCLUDED.summary,
			processing_metadata_json = EXCLUDED.processing_metadata_json
	`, item.ID, item.RawRef, item.NormalizedText, item.Topics, item.SentimentScore, item.Entities, item.Summary, item.ProcessingMetadata)
	if err != nil {
		return fmt.Errorf("creating processed item for raw %s: %w", item.RawRef, err)
	}
	return nil
}
