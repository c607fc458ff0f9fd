// Package queue implements the durable, database-backed job queue (§4.1):
// idempotent enqueue with kind-specific dedup keys, atomic dequeue via
// Postgres row locking, exponential backoff on failure, and a periodic sweep
// that returns stuck "processing" jobs to retry when their visibility
// timeout elapses.
package queue

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/store"
	"go.uber.org/zap"
)

// Service is the queue's application-level wrapper around the store.
type Service struct {
	store             *store.Store
	log               *zap.Logger
	visibilityTimeout time.Duration
}

// New builds a queue Service bound to the given store.
func New(st *store.Store, log *zap.Logger, visibilityTimeout time.Duration) *Service {
	return &Service{store: st, log: log, visibilityTimeout: visibilityTimeout}
}

// DedupKey derives the idempotency key for a job kind/payload pair (§4.1).
// feed_fetch dedups per source; content_process/transcribe_audio dedup per
// raw item; daily_analysis/generate_predictions dedup per date; everything
// else (prediction_compare, worker_heartbeat) is never deduplicated.
func DedupKey(kind models.JobKind, payload map[string]string) string {
	switch kind {
	case models.JobFeedFetch:
		return hashKey(kind, payload["source_ref"])
	case models.JobContentProcess, models.JobTranscribeAudio:
		return hashKey(kind, payload["raw_ref"])
	case models.JobDailyAnalysis, models.JobGeneratePredictions:
		return hashKey(kind, payload["date"])
	default:
		return ""
	}
}

func hashKey(kind models.JobKind, disambiguator string) string {
	h := sha256.Sum256([]byte(string(kind) + "|" + disambiguator))
	return hex.EncodeToString(h[:])
}

// Enqueue inserts a job of the given kind with the given JSON-able payload,
// applying the kind's dedup key and an optional scheduling delay. It returns
// whether an equivalent job was already queued.
func (s *Service) Enqueue(ctx context.Context, kind models.JobKind, payload map[string]string, priority int, delay time.Duration) (deduped bool, err error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("marshaling payload for %s: %w", kind, err)
	}
	job := &models.Job{
		Kind:     kind,
		Payload:  body,
		Priority: priority,
	}
	_, deduped, err = s.store.EnqueueJob(ctx, job, DedupKey(kind, payload), delay)
	if err != nil {
		return false, err
	}
	if deduped {
		s.log.Debug("enqueue deduplicated", zap.String("kind", string(kind)), zap.Any("payload", payload))
	} else {
		s.log.Info("job enqueued", zap.String("kind", string(kind)), zap.String("id", job.ID))
	}
	return deduped, nil
}

// Dequeue atomically claims the next job, if any.
func (s *Service) Dequeue(ctx context.Context) (*models.Job, error) {
	return s.store.DequeueJob(ctx, s.visibilityTimeout)
}

// Complete marks a job as successfully finished.
func (s *Service) Complete(ctx context.Context, job *models.Job) error {
	return s.store.CompleteJob(ctx, job.ID)
}

// Fail records a job failure, scheduling an exponentially backed-off retry
// unless attempts are exhausted or cause is classified as permanent — a
// permanent error (bad config, malformed payload) will never succeed on
// retry, so it skips straight to the terminal failed state.
func (s *Service) Fail(ctx context.Context, job *models.Job, cause error) error {
	backoff := Backoff(job.Attempts)
	effective := *job
	if !models.IsRetryable(cause) {
		effective.Attempts = effective.MaxAttempts
	}
	if err := s.store.FailJob(ctx, &effective, cause, backoff); err != nil {
		return err
	}
	s.log.Warn("job failed",
		zap.String("kind", string(job.Kind)),
		zap.String("id", job.ID),
		zap.Int("attempt", job.Attempts),
		zap.Int("max_attempts", job.MaxAttempts),
		zap.Error(cause),
	)
	return nil
}

// Backoff computes the retry delay for a given attempt count:
// 60s * 2^(attempt-1), capped at 1 hour, matching spec.md §4.1's
// exponential policy (base 60s, cap 1h).
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	const base = 60 * time.Second
	const cap = time.Hour
	d := base * time.Duration(1<<uint(attempt-1))
	if d > cap || d <= 0 {
		return cap
	}
	return d
}

// errWorkerTimeout is the cause recorded against a job whose visibility
// timeout elapsed while it was still "processing" — its worker presumably
// died mid-flight. Classified Transient so it runs through the normal
// attempts-based retry ladder rather than failing terminally on first sweep.
var errWorkerTimeout = models.NewAppError(models.Transient, "queue.sweep", fmt.Errorf("worker_timeout"))

// Sweep finds stuck "processing" jobs (worker died mid-flight, past their
// visibility timeout) and runs each one through the same fail policy as a
// handler-reported error (§4.1): retry with backoff if attempts remain,
// otherwise terminally failed. Intended to run on a periodic ticker.
func (s *Service) Sweep(ctx context.Context) error {
	expired, err := s.store.SweepExpired(ctx)
	if err != nil {
		return err
	}
	for i := range expired {
		job := expired[i]
		if err := s.Fail(ctx, &job, errWorkerTimeout); err != nil {
			s.log.Error("failed to route timed-out job through fail policy",
				zap.String("id", job.ID), zap.Error(err))
		}
	}
	if len(expired) > 0 {
		s.log.Info("swept expired jobs through fail policy", zap.Int("count", len(expired)))
	}
	return nil
}

// Stats reports the current queue depth by status.
func (s *Service) Stats(ctx context.Context) (store.QueueStats, error) {
	return s.store.Stats(ctx)
}

// RunSweepLoop blocks, sweeping expired jobs every interval until ctx is canceled.
func (s *Service) RunSweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.log.Error("sweep failed", zap.Error(err))
			}
		}
	}
}
