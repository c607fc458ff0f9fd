package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
)

// EnqueueJob inserts a new job, honoring the dedup key (if set) by silently
// no-op'ing when an equivalent job is already pending/processing/retry. The
// dedup lookup and insert happen in a single transaction so concurrent
// enqueues of the same logical work race safely against the unique index
// rather than against each other.
func (s *Store) EnqueueJob(ctx context.Context, job *models.Job, dedupKey string, delay time.Duration) (insertedID string, deduped bool, err error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Priority == 0 {
		job.Priority = models.DefaultPriority
	}
	if job.MaxAttempts == 0 {
		job.MaxAttempts = models.DefaultMaxAttempts
	}
	scheduledAt := time.Now().Add(delay)

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("beginning enqueue tx: %w", err)
	}
	defer tx.Rollback()

	var dedupArg interface{}
	if dedupKey != "" {
		dedupArg = dedupKey
	}

	var id string
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO jobs (id, kind, payload_json, priority, status, max_attempts, scheduled_at, expires_at, dedup_key)
		VALUES ($1, $2, $3, $4, 'pending', $5, $6, $6 + interval '10 minutes', $7)
		ON CONFLICT (dedup_key) WHERE dedup_key IS NOT NULL AND status IN ('pending', 'processing', 'retry') DO NOTHING
		RETURNING id
	`, job.ID, job.Kind, job.Payload, job.Priority, job.MaxAttempts, scheduledAt, dedupArg).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", true, tx.Commit()
	}
	if err != nil {
		return "", false, fmt.Errorf("enqueuing job kind %s: %w", job.Kind, err)
	}
	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("committing enqueue: %w", err)
	}
	return id, false, nil
}

// DequeueJob atomically claims the single most-urgent, earliest-scheduled
// pending/retry job using FOR UPDATE SKIP LOCKED so concurrent workers never
// claim the same row, without any application-level coordination. Lower
// priority values are more urgent (§3/§4.1), with ties broken by scheduled
// time and then by insertion order.
func (s *Store) DequeueJob(ctx context.Context, visibilityTimeout time.Duration) (*models.Job, error) {
	var job models.Job
	err := s.DB.GetContext(ctx, &job, `
		UPDATE jobs SET
			status = 'processing',
			attempts = attempts + 1,
			started_at = now(),
			expires_at = now() + $1
		WHERE id = (
			SELECT id FROM jobs
			WHERE status IN ('pending', 'retry') AND scheduled_at <= now()
			ORDER BY priority ASC, scheduled_at ASC, created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING *
	`, visibilityTimeout)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("dequeuing job: %w", err)
	}
	return &job, nil
}

// CompleteJob marks a job as successfully completed.
func (s *Store) CompleteJob(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE jobs SET status = 'completed', completed_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("completing job %s: %w", id, err)
	}
	return nil
}

// FailJob records a failure. If the job has attempts remaining it is put back
// into 'retry' with an exponential backoff delay; otherwise it is terminally
// 'failed'.
func (s *Store) FailJob(ctx context.Context, job *models.Job, cause error, backoff time.Duration) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if job.Attempts >= job.MaxAttempts {
		_, err := s.DB.ExecContext(ctx, `
			UPDATE jobs SET status = 'failed', error_message = $2, completed_at = now() WHERE id = $1
		`, job.ID, msg)
		if err != nil {
			return fmt.Errorf("terminally failing job %s: %w", job.ID, err)
		}
		return nil
	}
	_, err := s.DB.ExecContext(ctx, `
		UPDATE jobs SET status = 'retry', error_message = $2, scheduled_at = now() + $3 WHERE id = $1
	`, job.ID, msg, backoff)
	if err != nil {
		return fmt.Errorf("scheduling retry for job %s: %w", job.ID, err)
	}
	return nil
}

// SweepExpired finds processing jobs whose visibility timeout has elapsed
// (their worker presumably died), so the caller can route each one through
// the same fail policy FailJob applies to a handler-reported error (§4.1):
// retry with backoff if attempts remain, otherwise terminally failed.
func (s *Store) SweepExpired(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	err := s.DB.SelectContext(ctx, &jobs, `
		SELECT * FROM jobs WHERE status = 'processing' AND expires_at < now()
	`)
	if err != nil {
		return nil, fmt.Errorf("finding expired jobs: %w", err)
	}
	return jobs, nil
}

// QueueStats reports job counts by status, for the admin HTTP surface.
type QueueStats struct {
	Pending    int64 `json:"pending" db:"pending"`
	Processing int64 `json:"processing" db:"processing"`
	Retry      int64 `json:"retry" db:"retry"`
	Completed  int64 `json:"completed" db:"completed"`
	Failed     int64 `json:"failed" db:"failed"`
}

// Stats summarizes the current job queue depth by status.
func (s *Store) Stats(ctx context.Context) (QueueStats, error) {
	var st QueueStats
	err := s.DB.GetContext(ctx, &st, `
		SELECT
			count(*) FILTER (WHERE status = 'pending') AS pending,
			count(*) FILTER (WHERE status = 'processing') AS processing,
			count(*) FILTER (WHERE status = 'retry') AS retry,
			count(*) FILTER (WHERE status = 'completed') AS completed,
			count(*) FILTER (WHERE status = 'failed') AS failed
		FROM jobs
	`)
	if err != nil {
		return QueueStats{}, fmt.Errorf("computing queue stats: %w", err)
	}
	return st, nil
}
