// Package freshness implements the Freshness Trigger (C9): a periodic task
// that inspects the store for stale data and enqueues the job that would
// refresh it, per spec.md §4.9's TTL table. Grounded directly on the
// teacher's scheduler.Service ticker/mutex/start-stop shape, retargeted from
// "deliver dossiers on a user schedule" to "enqueue pipeline jobs when data
// is stale".
package freshness

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/queue"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/store"
	"go.uber.org/zap"
)

// DailyAnalysisTTL is how stale today's analysis may be before it is
// regenerated (§4.9).
const DailyAnalysisTTL = 12 * time.Hour

// PredictionsTTL is how stale the latest analysis's predictions may be
// before they are regenerated (§4.9).
const PredictionsTTL = 6 * time.Hour

// Trigger runs the periodic staleness check.
type Trigger struct {
	store *store.Store
	queue *queue.Service
	log   *zap.Logger
	tick  time.Duration

	mu       sync.Mutex
	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}
}

// New builds a Trigger that checks staleness every tick.
func New(st *store.Store, q *queue.Service, tick time.Duration, log *zap.Logger) *Trigger {
	return &Trigger{store: st, queue: q, log: log, tick: tick, stopChan: make(chan struct{})}
}

// Start begins the ticker loop in the background. Idempotent, mirroring the
// teacher's scheduler.Service.Start.
func (t *Trigger) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		t.log.Warn("freshness trigger already running")
		return
	}
	t.running = true
	t.ticker = time.NewTicker(t.tick)
	stop := make(chan struct{})
	t.stopChan = stop

	go func() {
		for {
			select {
			case <-t.ticker.C:
				t.checkAndEnqueue(ctx)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	t.log.Info("freshness trigger started", zap.Duration("tick", t.tick))
}

// Stop halts the ticker loop.
func (t *Trigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	t.ticker.Stop()
	close(t.stopChan)
	t.log.Info("freshness trigger stopped")
}

func (t *Trigger) checkAndEnqueue(ctx context.Context) {
	t.checkSources(ctx)
	t.checkDailyAnalysis(ctx)
	t.checkPredictions(ctx)
	t.enqueueEvaluationSweep(ctx)
	t.enqueueHeartbeat(ctx)
}

// enqueueEvaluationSweep enqueues prediction_compare every tick; the job
// itself is a no-op when nothing is due, so over-enqueueing costs one cheap
// query rather than missing a window.
func (t *Trigger) enqueueEvaluationSweep(ctx context.Context) {
	if _, err := t.queue.Enqueue(ctx, models.JobPredictionCompare, map[string]string{}, models.DefaultPriority, 0); err != nil {
		t.log.Error("enqueuing prediction_compare", zap.Error(err))
	}
}

// enqueueHeartbeat enqueues worker_heartbeat every tick, keeping the queue
// depth gauges fresh for the admin surface even when the pipeline is idle.
func (t *Trigger) enqueueHeartbeat(ctx context.Context) {
	if _, err := t.queue.Enqueue(ctx, models.JobWorkerHeartbeat, map[string]string{}, models.DefaultPriority, 0); err != nil {
		t.log.Error("enqueuing worker_heartbeat", zap.Error(err))
	}
}

// checkSources enqueues feed_fetch for every active source whose own
// update_frequency TTL has elapsed since its last successful fetch,
// prioritizing the most overdue sources.
func (t *Trigger) checkSources(ctx context.Context) {
	srcs, err := t.store.AllActiveSourcesForFreshness(ctx)
	if err != nil {
		t.log.Error("listing sources for freshness check", zap.Error(err))
		return
	}
	now := time.Now()
	for _, src := range srcs {
		var cfg models.CommonSourceConfig
		if len(src.Config) > 0 {
			if err := json.Unmarshal(src.Config, &cfg); err != nil {
				t.log.Warn("parsing source config for freshness check", zap.String("source_id", src.ID), zap.Error(err))
				continue
			}
		}
		ttl := cfg.UpdateFrequency.TTL()
		stale := src.LastFetchedAt == nil || now.Sub(*src.LastFetchedAt) > ttl
		if !stale {
			continue
		}

		priority := models.DefaultPriority
		if src.LastFetchedAt != nil && now.Sub(*src.LastFetchedAt) > 2*ttl {
			priority = 1 // doubly overdue: jump the queue
		}
		if _, err := t.queue.Enqueue(ctx, models.JobFeedFetch, map[string]string{"source_ref": src.ID}, priority, 0); err != nil {
			t.log.Error("enqueuing feed_fetch", zap.String("source_id", src.ID), zap.Error(err))
		}
	}
}

// checkDailyAnalysis enqueues daily_analysis for today if it's missing or
// older than DailyAnalysisTTL.
func (t *Trigger) checkDailyAnalysis(ctx context.Context) {
	today := time.Now().UTC().Format("2006-01-02")
	analysis, err := t.store.GetDailyAnalysis(ctx, today)
	stale := err != nil || time.Since(analysis.CreatedAt) > DailyAnalysisTTL
	if !stale {
		return
	}
	if _, err := t.queue.Enqueue(ctx, models.JobDailyAnalysis, map[string]string{"date": today}, models.DefaultPriority, 0); err != nil {
		t.log.Error("enqueuing daily_analysis", zap.String("date", today), zap.Error(err))
	}
}

// checkPredictions enqueues generate_predictions for the latest analysis if
// it has none yet, or its existing ones are older than PredictionsTTL. This
// is the safety net behind the synthesizer's own direct hand-off (§4.9).
func (t *Trigger) checkPredictions(ctx context.Context) {
	latest, err := t.store.LatestDailyAnalysis(ctx)
	if err != nil {
		return // no analysis exists yet; nothing to predict from
	}
	preds, err := t.store.PredictionsForAnalysis(ctx, latest.ID)
	if err != nil {
		t.log.Error("listing predictions for freshness check", zap.String("analysis_id", latest.ID), zap.Error(err))
		return
	}
	stale := len(preds) == 0
	if !stale {
		newest := preds[0].CreatedAt
		for _, p := range preds {
			if p.CreatedAt.After(newest) {
				newest = p.CreatedAt
			}
		}
		stale = time.Since(newest) > PredictionsTTL
	}
	if !stale {
		return
	}
	if _, err := t.queue.Enqueue(ctx, models.JobGeneratePredictions, map[string]string{"date": latest.Date}, models.DefaultPriority, 0); err != nil {
		t.log.Error("enqueuing generate_predictions", zap.String("date", latest.Date), zap.Error(err))
	}
}
