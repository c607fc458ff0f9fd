package worker

import (
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/cache"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/evaluator"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/predictor"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/processor"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/queue"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/sources"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/store"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/synthesizer"
)

// Deps bundles every collaborator a job handler may need. It is built once
// in cmd/server/main.go and shared read-only across every worker goroutine.
type Deps struct {
	Store       *store.Store
	Queue       *queue.Service
	Cache       *cache.Cache
	SourceDeps  sources.Deps
	Processor   *processor.Service
	Synthesizer *synthesizer.Service
	Predictor   *predictor.Service
	Evaluator   *evaluator.Service

	TranscriptionAPIURL string
	TranscriptionAPIKey string
}
