// Package processor implements the Content Processor (C5): it turns one
// completed-fetch RawItem into a ProcessedItem by running the configured
// llm.Capability (real or fallback) over its normalized text, grounded on
// the select→clean→summarize shape of the teacher's ai.Service pipeline but
// re-targeted at structured extraction instead of dossier prose.
package processor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/llm"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/store"
	"go.uber.org/zap"
)

// Service runs the extraction pipeline for one raw item at a time.
type Service struct {
	store      *store.Store
	capability llm.Capability
	log        *zap.Logger
}

// New builds a Content Processor bound to a capability (real or fallback).
func New(st *store.Store, capability llm.Capability, log *zap.Logger) *Service {
	return &Service{store: st, capability: capability, log: log}
}

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// normalize strips markup and collapses whitespace, the same defensive
// cleanup the teacher applied before ever handing text to the model.
func normalize(title, body string) string {
	clean := htmlTagPattern.ReplaceAllString(body, "")
	clean = strings.Join(strings.Fields(clean), " ")
	return strings.TrimSpace(title + ". " + clean)
}

// Process analyzes raw item rawID, persists the resulting ProcessedItem, and
// flips the raw item's processing_status to completed.
func (s *Service) Process(ctx context.Context, rawID string) error {
	raw, err := s.store.GetRawItem(ctx, rawID)
	if err != nil {
		return fmt.Errorf("processing raw item %s: %w", rawID, err)
	}

	if err := s.store.SetRawItemStatus(ctx, raw.ID, models.StatusProcessing); err != nil {
		return err
	}

	normalized := normalize(raw.Title, raw.Body)
	cleanBody := strings.Join(strings.Fields(htmlTagPattern.ReplaceAllString(raw.Body, "")), " ")
	analysis, err := s.capability.AnalyzeItem(ctx, raw.Title, cleanBody)
	if err != nil {
		_ = s.store.SetRawItemStatus(ctx, raw.ID, models.StatusFailed)
		return fmt.Errorf("analyzing raw item %s: %w", rawID, err)
	}

	item := &models.ProcessedItem{
		RawRef:         raw.ID,
		NormalizedText: normalized,
		Topics:         models.StringArray(analysis.Topics),
		SentimentScore: analysis.Sentiment,
		Entities: models.Entities{
			Companies: analysis.Companies,
			People:    analysis.People,
			Locations: analysis.Locations,
			Tickers:   analysis.Tickers,
		},
		Summary: analysis.Summary,
	}
	if err := s.store.CreateProcessedItem(ctx, item); err != nil {
		_ = s.store.SetRawItemStatus(ctx, raw.ID, models.StatusFailed)
		return fmt.Errorf("persisting processed item for raw %s: %w", rawID, err)
	}

	if err := s.store.SetRawItemStatus(ctx, raw.ID, models.StatusCompleted); err != nil {
		return err
	}

	s.log.Info("processed raw item",
		zap.String("raw_ref", raw.ID),
		zap.Float64("sentiment", analysis.Sentiment),
		zap.Int("topics", len(analysis.Topics)),
	)
	return nil
}
