// Command server runs the full content-ingestion and prediction pipeline:
// store, cache, queue, worker pool, freshness trigger and admin HTTP
// surface, wired together and torn down on SIGINT/SIGTERM, in the same
// lifecycle shape as the teacher's cmd/main.go (connect → migrate → start
// background services → serve → signal-driven graceful shutdown).
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/cache"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/config"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/evaluator"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/freshness"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/httpapi"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/llm"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/logging"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/metrics"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/predictor"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/processor"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/queue"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/sources"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/store"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/synthesizer"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/worker"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const shutdownGrace = 30 * time.Second

func main() {
	log := logging.Must()
	defer log.Sync()

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, cfg.StoreURL)
	if err != nil {
		log.Fatal("connecting to store", zap.Error(err))
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		log.Fatal("running migrations", zap.Error(err))
	}

	ch, err := cache.New(ctx, cfg.CacheURL)
	if err != nil {
		log.Fatal("connecting to cache", zap.Error(err))
	}
	defer ch.Close()

	q := queue.New(st, log, cfg.JobVisibility)

	var inner llm.Capability
	if cfg.HasLLM() {
		inner = llm.NewAnthropicCapability(cfg.ModelAPIKey)
		log.Info("using Anthropic-backed analysis capability")
	} else {
		inner = llm.NewFallbackCapability()
		log.Info("no MODEL_API_KEY configured, using deterministic fallback capability")
	}
	capability := llm.NewBreakerCapability(inner, "llm", func(name string, from, to gobreaker.State) {
		metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
	})

	deps := worker.Deps{
		Store:       st,
		Queue:       q,
		Cache:       ch,
		SourceDeps:  sources.Deps{VideoAPIKey: cfg.VideoAPIKey},
		Processor:   processor.New(st, capability, log),
		Synthesizer: synthesizer.New(st, q, capability, log),
		Predictor:   predictor.New(st, capability, log),
		Evaluator:   evaluator.New(st, log),

		TranscriptionAPIURL: cfg.TranscriptionAPIURL,
		TranscriptionAPIKey: cfg.TranscriptionAPIKey,
	}

	pool := worker.New(q, deps, cfg.WorkerConcurrency, log)
	pool.Start(ctx)

	trigger := freshness.New(st, q, cfg.FreshnessTick, log)
	trigger.Start(ctx)

	go q.RunSweepLoop(ctx, cfg.JobVisibility/2)

	mux := http.NewServeMux()
	mux.Handle("/", httpapi.NewRouter(q, log))
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         cfg.AdminAddr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("admin HTTP surface listening", zap.String("addr", cfg.AdminAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("admin HTTP surface failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("admin HTTP surface forced to shutdown", zap.Error(err))
	}

	trigger.Stop()
	pool.Stop()

	log.Info("shutdown complete")
}
