package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
)

// UpsertRawItem inserts a RawItem, deduplicating on (source_ref, external_id).
// It reports whether a new row was actually inserted (false means it was
// already known, used by the fetch handler to decide whether to enqueue
// downstream processing).
func (s *Store) UpsertRawItem(ctx context.Context, item *models.RawItem) (inserted bool, err error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO raw_items (id, source_ref, external_id, title, description, body, published_at, metadata_json, processing_status, is_aggregated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (source_ref, external_id) DO NOTHING
	`, item.ID, item.SourceRef, item.ExternalID, item.Title, item.Description, item.Body, item.PublishedAt, item.Metadata, models.StatusPending, item.IsAggregated)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return false, fmt.Errorf("upserting raw item (pq code %s): %w", pqErr.Code, err)
		}
		return false, fmt.Errorf("upserting raw item: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// GetRawItem fetches one raw item by ID.
func (s *Store) GetRawItem(ctx context.Context, id string) (*models.RawItem, error) {
	var it models.RawItem
	err := s.DB.GetContext(ctx, &it, `SELECT * FROM raw_items WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("raw item %s: %w", id, models.ErrJobNotFound)
		}
		return nil, fmt.Errorf("getting raw item %s: %w", id, err)
	}
	return &it, nil
}

// SetRawItemBody overwrites a raw item's body text, used once transcription
// completes so content_process has real text to analyze.
func (s *Store) SetRawItemBody(ctx context.Context, id string, body string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE raw_items SET body = $2 WHERE id = $1`, id, body)
	if err != nil {
		return fmt.Errorf("setting raw item %s body: %w", id, err)
	}
	return nil
}

// SetRawItemStatus updates a raw item's processing status.
func (s *Store) SetRawItemStatus(ctx context.Context, id string, status models.ProcessingStatus) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE raw_items SET processing_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("setting raw item %s status: %w", id, err)
	}
	return nil
}

// ProcessedItemsForDate returns the processed items whose raw item was
// published on the given calendar date, used by the Daily Synthesizer's
// window selection.
func (s *Store) ProcessedItemsForDate(ctx context.Context, date string) ([]models.ProcessedItem, error) {
	var rows []models.ProcessedItem
	err := s.DB.SelectContext(ctx, &rows, `
		SELECT p.* FROM processed_items p
		JOIN raw_items r ON r.id = p.raw_ref
		WHERE r.published_at::date = $1::date
		ORDER BY p.created_at
	`, date)
	if err != nil {
		return nil, fmt.Errorf("listing processed items for %s: %w", date, err)
	}
	return rows, nil
}
