// Package worker implements the Worker Pool (C10): a fixed number of
// goroutines that atomically dequeue jobs and dispatch them to one of the
// seven fixed handlers (§4.3), protected by a per-collaborator rate limiter
// and circuit breaker. Grounded on the ticker/mutex-guarded start-stop shape
// of the teacher's scheduler.Service and on the per-worker
// loop/breaker-gated-dequeue/graceful-shutdown shape of
// flyingrobots-go-redis-work-queue's internal/worker package.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/metrics"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/queue"
	"go.uber.org/zap"
)

// Pool runs Concurrency worker goroutines against a shared queue.Service.
type Pool struct {
	queue        *queue.Service
	log          *zap.Logger
	handlers     map[models.JobKind]Handler
	limiters     *limiterRegistry
	breakers     *breakerRegistry
	concurrency  int
	pollInterval time.Duration
	grace        time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a Pool bound to deps, ready to Start.
func New(q *queue.Service, deps Deps, concurrency int, log *zap.Logger) *Pool {
	limiters := newLimiterRegistry(2.0, 5)
	breakers := newBreakerRegistry()
	return &Pool{
		queue:        q,
		log:          log,
		handlers:     buildHandlers(deps, limiters, breakers),
		limiters:     limiters,
		breakers:     breakers,
		concurrency:  concurrency,
		pollInterval: 2 * time.Second,
		grace:        30 * time.Second,
	}
}

// Start launches the configured number of worker goroutines. Idempotent: a
// second call while already running is a no-op, mirroring the teacher's
// scheduler.Service.Start.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		p.log.Warn("worker pool already running")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		workerID := i
		go func() {
			defer p.wg.Done()
			metrics.WorkersActive.Inc()
			defer metrics.WorkersActive.Dec()
			p.runLoop(runCtx, workerID)
		}()
	}
	p.log.Info("worker pool started", zap.Int("concurrency", p.concurrency))
}

// Stop cancels every worker goroutine and waits up to the grace window for
// them to finish their in-flight job before returning.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("worker pool stopped cleanly")
	case <-time.After(p.grace):
		p.log.Warn("worker pool grace period elapsed with workers still in flight")
	}
}

func (p *Pool) runLoop(ctx context.Context, workerID int) {
	for ctx.Err() == nil {
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.log.Error("dequeue failed", zap.Int("worker", workerID), zap.Error(err))
			sleepOrDone(ctx, p.pollInterval)
			continue
		}
		if job == nil {
			sleepOrDone(ctx, p.pollInterval)
			continue
		}
		p.execute(ctx, job)
	}
}

func (p *Pool) execute(ctx context.Context, job *models.Job) {
	handler, ok := p.handlers[job.Kind]
	if !ok {
		if err := p.queue.Fail(ctx, job, models.Permanentf("worker.execute", "%w: %s", models.ErrUnknownJobKind, job.Kind)); err != nil {
			p.log.Error("failed to record unhandled job kind", zap.String("job_id", job.ID), zap.Error(err))
		}
		return
	}

	start := time.Now()
	err := handler(ctx, job)
	metrics.JobProcessingDuration.WithLabelValues(string(job.Kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.JobsFailed.WithLabelValues(string(job.Kind)).Inc()
		if ferr := p.queue.Fail(ctx, job, err); ferr != nil {
			p.log.Error("failed to record job failure", zap.String("job_id", job.ID), zap.Error(ferr))
		}
		return
	}

	metrics.JobsCompleted.WithLabelValues(string(job.Kind)).Inc()
	if cerr := p.queue.Complete(ctx, job); cerr != nil {
		p.log.Error("failed to mark job complete", zap.String("job_id", job.ID), zap.Error(cerr))
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
