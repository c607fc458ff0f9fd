package worker

import (
	"context"
	"encoding/json"

	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/metrics"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/sources"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/transcription"
)

// Handler executes one dequeued job. Returning an error classified as
// Transient/Resource by models.IsRetryable retries with backoff; anything
// else fails the job terminally on first encounter (§4.3).
type Handler func(ctx context.Context, job *models.Job) error

func buildHandlers(deps Deps, limiters *limiterRegistry, breakers *breakerRegistry) map[models.JobKind]Handler {
	return map[models.JobKind]Handler{
		models.JobFeedFetch:           feedFetchHandler(deps, limiters, breakers),
		models.JobContentProcess:      contentProcessHandler(deps),
		models.JobTranscribeAudio:     transcribeAudioHandler(deps, limiters),
		models.JobDailyAnalysis:       dailyAnalysisHandler(deps),
		models.JobGeneratePredictions: generatePredictionsHandler(deps),
		models.JobPredictionCompare:   predictionCompareHandler(deps),
		models.JobWorkerHeartbeat:     workerHeartbeatHandler(deps),
	}
}

type sourceRefPayload struct {
	SourceRef string `json:"source_ref"`
}

type rawRefPayload struct {
	RawRef string `json:"raw_ref"`
}

type datePayload struct {
	Date string `json:"date"`
}

// feedFetchHandler fetches one source's adapter, enqueuing content_process
// (or transcribe_audio, for audio items the adapter flagged as needing it)
// for every newly-inserted RawItem.
func feedFetchHandler(deps Deps, limiters *limiterRegistry, breakers *breakerRegistry) Handler {
	return func(ctx context.Context, job *models.Job) error {
		var payload sourceRefPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return models.Permanentf("worker.feed_fetch", "decoding payload: %w", err)
		}

		src, err := deps.Store.GetSource(ctx, payload.SourceRef)
		if err != nil {
			return models.Permanentf("worker.feed_fetch", "%w", err)
		}
		adapter, err := sources.For(*src, deps.SourceDeps)
		if err != nil {
			return err
		}
		if err := adapter.Validate(*src); err != nil {
			return err
		}

		if err := limiters.forKey(src.ID).Wait(ctx); err != nil {
			return models.Transientf("worker.feed_fetch", "rate limit wait for %s: %w", src.ID, err)
		}

		breaker := breakers.forName(string(src.Kind))
		result, err := breaker.Execute(func() (interface{}, error) {
			return adapter.FetchLatest(ctx, *src)
		})
		if err != nil {
			metrics.AdapterCalls.WithLabelValues(string(src.Kind), "error").Inc()
			if !models.IsRetryable(err) {
				return err
			}
			return models.Transientf("worker.feed_fetch", "fetching source %s: %w", src.ID, err)
		}
		items := result.([]sources.Item)
		metrics.AdapterCalls.WithLabelValues(string(src.Kind), "ok").Inc()

		for _, it := range items {
			metaBytes, err := json.Marshal(it.Metadata)
			if err != nil {
				return models.Permanentf("worker.feed_fetch", "marshaling item metadata: %w", err)
			}
			raw := &models.RawItem{
				SourceRef:    src.ID,
				ExternalID:   it.ExternalID,
				Title:        it.Title,
				Description:  it.Description,
				Body:         it.Body,
				PublishedAt:  it.PublishedAt,
				Metadata:     metaBytes,
				IsAggregated: it.IsAggregated,
			}
			inserted, err := deps.Store.UpsertRawItem(ctx, raw)
			if err != nil {
				return err
			}
			if !inserted {
				continue
			}

			next := models.JobContentProcess
			if needsTranscription, _ := it.Metadata["needs_transcription"].(bool); needsTranscription {
				next = models.JobTranscribeAudio
			}
			if _, err := deps.Queue.Enqueue(ctx, next, map[string]string{"raw_ref": raw.ID}, models.DefaultPriority, 0); err != nil {
				return err
			}
		}

		if deps.Cache != nil {
			_ = deps.Cache.InvalidateTag(ctx, "source:"+src.ID)
		}
		return deps.Store.TouchFetched(ctx, src.ID)
	}
}

// contentProcessHandler runs the Content Processor over one raw item.
func contentProcessHandler(deps Deps) Handler {
	return func(ctx context.Context, job *models.Job) error {
		var payload rawRefPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return models.Permanentf("worker.content_process", "decoding payload: %w", err)
		}
		if err := deps.Processor.Process(ctx, payload.RawRef); err != nil {
			return err
		}
		if deps.Cache != nil {
			_ = deps.Cache.InvalidateTag(ctx, "raw:"+payload.RawRef)
		}
		return nil
	}
}

// transcribeAudioHandler transcribes one audio raw item's enclosure and
// hands it off to content_process once text is available.
func transcribeAudioHandler(deps Deps, limiters *limiterRegistry) Handler {
	return func(ctx context.Context, job *models.Job) error {
		var payload rawRefPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return models.Permanentf("worker.transcribe_audio", "decoding payload: %w", err)
		}
		raw, err := deps.Store.GetRawItem(ctx, payload.RawRef)
		if err != nil {
			return models.Permanentf("worker.transcribe_audio", "%w", err)
		}
		var meta map[string]interface{}
		if err := json.Unmarshal(raw.Metadata, &meta); err != nil {
			return models.Permanentf("worker.transcribe_audio", "decoding raw item metadata: %w", err)
		}
		audioURL, _ := meta["enclosure_url"].(string)
		transcriptKind, _ := meta["transcript_source"].(string)
		if audioURL == "" {
			return models.Permanentf("worker.transcribe_audio", "raw item %s has no enclosure_url", raw.ID)
		}

		if err := limiters.forKey("transcription").Wait(ctx); err != nil {
			return models.Transientf("worker.transcribe_audio", "rate limit wait: %w", err)
		}

		capability := transcription.Select(transcriptKind, deps.TranscriptionAPIURL, deps.TranscriptionAPIKey)
		text, err := capability.Transcribe(ctx, audioURL)
		if err != nil {
			return err
		}
		if err := deps.Store.SetRawItemBody(ctx, raw.ID, text); err != nil {
			return err
		}
		_, err = deps.Queue.Enqueue(ctx, models.JobContentProcess, map[string]string{"raw_ref": raw.ID}, models.DefaultPriority, 0)
		return err
	}
}

// dailyAnalysisHandler runs the Daily Synthesizer for the job's date.
func dailyAnalysisHandler(deps Deps) Handler {
	return func(ctx context.Context, job *models.Job) error {
		var payload datePayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return models.Permanentf("worker.daily_analysis", "decoding payload: %w", err)
		}
		return deps.Synthesizer.Synthesize(ctx, payload.Date)
	}
}

// generatePredictionsHandler runs the Predictor for the job's date.
func generatePredictionsHandler(deps Deps) Handler {
	return func(ctx context.Context, job *models.Job) error {
		var payload datePayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return models.Permanentf("worker.generate_predictions", "decoding payload: %w", err)
		}
		return deps.Predictor.GenerateFor(ctx, payload.Date)
	}
}

// predictionCompareHandler scores every prediction whose horizon has elapsed.
func predictionCompareHandler(deps Deps) Handler {
	return func(ctx context.Context, job *models.Job) error {
		_, err := deps.Evaluator.EvaluateDue(ctx)
		return err
	}
}

// workerHeartbeatHandler republishes queue depth gauges; scheduled
// periodically by the Freshness Trigger as a liveness and dashboard signal.
func workerHeartbeatHandler(deps Deps) Handler {
	return func(ctx context.Context, job *models.Job) error {
		stats, err := deps.Queue.Stats(ctx)
		if err != nil {
			return err
		}
		metrics.QueueDepth.WithLabelValues("pending").Set(float64(stats.Pending))
		metrics.QueueDepth.WithLabelValues("processing").Set(float64(stats.Processing))
		metrics.QueueDepth.WithLabelValues("retry").Set(float64(stats.Retry))
		metrics.QueueDepth.WithLabelValues("completed").Set(float64(stats.Completed))
		metrics.QueueDepth.WithLabelValues("failed").Set(float64(stats.Failed))
		return nil
	}
}
