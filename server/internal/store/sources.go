package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
)

// CreateSource inserts a new source, assigning it an opaque UUID.
func (s *Store) CreateSource(ctx context.Context, src *models.Source) error {
	if src.ID == "" {
		src.ID = uuid.NewString()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO sources (id, name, kind, url, active, config_json)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, src.ID, src.Name, src.Kind, src.URL, src.Active, src.Config)
	if err != nil {
		return fmt.Errorf("creating source: %w", err)
	}
	return nil
}

// GetSource fetches one source by ID.
func (s *Store) GetSource(ctx context.Context, id string) (*models.Source, error) {
	var src models.Source
	err := s.DB.GetContext(ctx, &src, `SELECT * FROM sources WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting source %s: %w", id, err)
	}
	return &src, nil
}

// ListActiveSources returns every source with active = true, optionally filtered by kind.
func (s *Store) ListActiveSources(ctx context.Context, kind models.SourceKind) ([]models.Source, error) {
	var rows []models.Source
	var err error
	if kind == "" {
		err = s.DB.SelectContext(ctx, &rows, `SELECT * FROM sources WHERE active = true ORDER BY name`)
	} else {
		err = s.DB.SelectContext(ctx, &rows, `SELECT * FROM sources WHERE active = true AND kind = $1 ORDER BY name`, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("listing active sources: %w", err)
	}
	return rows, nil
}

// TouchFetched updates a source's last_fetched_at to now.
func (s *Store) TouchFetched(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE sources SET last_fetched_at = now(), updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touching source %s: %w", id, err)
	}
	return nil
}

// AllActiveSourcesForFreshness returns every active source so the Freshness
// Trigger can apply each one's own update-frequency TTL in-process.
func (s *Store) AllActiveSourcesForFreshness(ctx context.Context) ([]models.Source, error) {
	var rows []models.Source
	err := s.DB.SelectContext(ctx, &rows, `
		SELECT * FROM sources WHERE active = true ORDER BY last_fetched_at NULLS FIRST
	`)
	if err != nil {
		return nil, fmt.Errorf("listing sources for freshness check: %w", err)
	}
	return rows, nil
}
