// Package models defines the core domain records shared across the pipeline:
// sources, raw items, processed items, daily analyses, predictions, prediction
// comparisons and queue jobs. All other packages depend on these types but
// never on each other's internal representations.
package models

import (
	"encoding/json"
	"time"
)

// SourceKind identifies which adapter handles a Source.
type SourceKind string

const (
	SourceSyndicated SourceKind = "syndicated"
	SourceAudio      SourceKind = "audio"
	SourceVideo      SourceKind = "video"
	SourceGeneric    SourceKind = "generic-endpoint"
	SourceAggregate  SourceKind = "aggregate"
)

// UpdateFrequency maps to a source fetch TTL.
type UpdateFrequency string

const (
	FrequencyRealtime UpdateFrequency = "realtime"
	FrequencyHourly   UpdateFrequency = "hourly"
	FrequencyDaily    UpdateFrequency = "daily"
	FrequencyWeekly   UpdateFrequency = "weekly"
)

// TTL returns the default staleness window for an update frequency.
func (f UpdateFrequency) TTL() time.Duration {
	switch f {
	case FrequencyRealtime:
		return 5 * time.Minute
	case FrequencyHourly:
		return time.Hour
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	case FrequencyDaily:
		return 24 * time.Hour
	default:
		return 4 * time.Hour
	}
}

// Source is a configured external origin of items.
type Source struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Kind          SourceKind      `json:"kind" db:"kind"`
	URL           string          `json:"url" db:"url"`
	Active        bool            `json:"active" db:"active"`
	Config        json.RawMessage `json:"config" db:"config_json"`
	LastFetchedAt *time.Time      `json:"last_fetched_at" db:"last_fetched_at"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// CommonSourceConfig is the set of options shared by every source kind (§6.2).
type CommonSourceConfig struct {
	Categories      []string        `json:"categories,omitempty"`
	Priority        int             `json:"priority,omitempty"`
	UpdateFrequency UpdateFrequency `json:"update_frequency,omitempty"`
	FilterKeywords  []string        `json:"filter_keywords,omitempty"`
	ExcludeKeywords []string        `json:"exclude_keywords,omitempty"`
	MaxItems        int             `json:"max_items,omitempty"`
}

// SyndicatedConfig is the syndicated-kind extension of CommonSourceConfig.
type SyndicatedConfig struct {
	CommonSourceConfig
	ExtractFullContent bool     `json:"extract_full_content,omitempty"`
	ContentSelectors   []string `json:"content_selectors,omitempty"`
	RemoveSelectors    []string `json:"remove_selectors,omitempty"`
}

// AudioConfig is the audio-kind extension of CommonSourceConfig.
type AudioConfig struct {
	CommonSourceConfig
	ExtractTranscript bool   `json:"extract_transcript,omitempty"`
	TranscriptSource  string `json:"transcript_source,omitempty"` // whisper_like | external_api
	MinDuration       int    `json:"min_duration,omitempty"`      // seconds, default 60
	MaxDuration       int    `json:"max_duration,omitempty"`      // seconds, default 7200
	MaxEpisodes       int    `json:"max_episodes,omitempty"`
}

// VideoConfig is the video-kind extension of CommonSourceConfig.
type VideoConfig struct {
	CommonSourceConfig
	APIKey      string `json:"api_key,omitempty"`
	MaxVideos   int    `json:"max_videos,omitempty"`
	MinDuration int    `json:"min_duration,omitempty"`
	MaxDuration int    `json:"max_duration,omitempty"`
	MinViews    int    `json:"min_views,omitempty"`
	SortBy      string `json:"sort_by,omitempty"` // date | view_count | relevance
}

// PaginationConfig describes how a generic endpoint paginates results.
type PaginationConfig struct {
	Type        string `json:"type,omitempty"` // offset | cursor | page | none
	PageSize    int    `json:"page_size,omitempty"`
	MaxPages    int    `json:"max_pages,omitempty"`
	PageParam   string `json:"page_param,omitempty"`
	CursorParam string `json:"cursor_param,omitempty"`
	OffsetParam string `json:"offset_param,omitempty"`
}

// FieldMapping maps a generic endpoint's JSON fields onto RawItem fields.
type FieldMapping struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Body        string `json:"body,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	URL         string `json:"url,omitempty"`
	Author      string `json:"author,omitempty"`
	Tags        string `json:"tags,omitempty"`
}

// AuthConfig describes generic-endpoint authentication.
type AuthConfig struct {
	Type        string            `json:"type,omitempty"` // bearer | basic | apikey | oauth2
	Credentials map[string]string `json:"credentials,omitempty"`
}

// RateLimitConfig is a token-bucket descriptor for an adapter.
type RateLimitConfig struct {
	Requests int `json:"requests,omitempty"`
	PeriodMS int `json:"period_ms,omitempty"`
}

// GenericEndpointConfig is the generic-endpoint-kind extension of CommonSourceConfig.
type GenericEndpointConfig struct {
	CommonSourceConfig
	Method     string            `json:"method,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Auth       AuthConfig        `json:"auth,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
	Body       string            `json:"body,omitempty"`
	Pagination PaginationConfig  `json:"pagination,omitempty"`
	DataPath   string            `json:"data_path,omitempty"`
	Mapping    FieldMapping      `json:"mapping,omitempty"`
	RateLimit  RateLimitConfig   `json:"rate_limit,omitempty"`
}

// SubSource is one member of an aggregate source.
type SubSource struct {
	Kind    SourceKind      `json:"kind"`
	URL     string          `json:"url"`
	Config  json.RawMessage `json:"config,omitempty"`
	Weight  float64         `json:"weight"`
	Enabled bool            `json:"enabled"`
}

// AggregateConfig is the aggregate-kind extension of CommonSourceConfig.
type AggregateConfig struct {
	CommonSourceConfig
	Sources             []SubSource `json:"sources,omitempty"`
	AggregationStrategy string      `json:"aggregation_strategy,omitempty"` // merge | weighted | consensus
	Deduplication       bool        `json:"deduplication,omitempty"`
	CrossReference      bool        `json:"cross_reference,omitempty"`
}

// ProcessingStatus is the lifecycle of a RawItem.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// RawItem is one unit as received from a source, deduplicated per (source, external_id).
type RawItem struct {
	ID               string           `json:"id" db:"id"`
	SourceRef        string           `json:"source_ref" db:"source_ref"`
	ExternalID       string           `json:"external_id" db:"external_id"`
	Title            string           `json:"title" db:"title"`
	Description      string           `json:"description" db:"description"`
	Body             string           `json:"body" db:"body"`
	PublishedAt      time.Time        `json:"published_at" db:"published_at"`
	Metadata         json.RawMessage  `json:"metadata" db:"metadata_json"`
	ProcessingStatus ProcessingStatus `json:"processing_status" db:"processing_status"`
	IsAggregated     bool             `json:"is_aggregated" db:"is_aggregated"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

// Entities is the categorized entity extraction result for a ProcessedItem.
type Entities struct {
	Companies []string `json:"companies,omitempty"`
	People    []string `json:"people,omitempty"`
	Locations []string `json:"locations,omitempty"`
	Tickers   []string `json:"tickers,omitempty"`
}

// ProcessedItem is the analytic view of one RawItem.
type ProcessedItem struct {
	ID                 string          `json:"id" db:"id"`
	RawRef             string          `json:"raw_ref" db:"raw_ref"`
	NormalizedText     string          `json:"normalized_text" db:"normalized_text"`
	Topics             StringArray     `json:"topics" db:"topics"`
	SentimentScore     float64         `json:"sentiment_score" db:"sentiment_score"`
	Entities           Entities        `json:"entities" db:"entities_json"`
	Summary            string          `json:"summary" db:"summary"`
	ProcessingMetadata json.RawMessage `json:"processing_metadata" db:"processing_metadata_json"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
}

// MarketSentiment is the coarse daily sentiment label.
type MarketSentiment string

const (
	SentimentBullish MarketSentiment = "bullish"
	SentimentBearish MarketSentiment = "bearish"
	SentimentNeutral MarketSentiment = "neutral"
)

// DailyAnalysis is one dated synthesis across ProcessedItems.
type DailyAnalysis struct {
	ID              string          `json:"id" db:"id"`
	Date            string          `json:"date" db:"date"` // YYYY-MM-DD
	MarketSentiment MarketSentiment `json:"market_sentiment" db:"market_sentiment"`
	KeyThemes       StringArray     `json:"key_themes" db:"key_themes"`
	Summary         string          `json:"summary" db:"summary"`
	AIBlob          json.RawMessage `json:"ai_blob" db:"ai_blob_json"`
	Confidence      float64         `json:"confidence" db:"confidence"`
	SourcesAnalyzed int             `json:"sources_analyzed" db:"sources_analyzed"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// Horizon is a fixed forward-looking window for a Prediction.
type Horizon string

const (
	Horizon1Week  Horizon = "1w"
	Horizon1Month Horizon = "1m"
	Horizon3Month Horizon = "3m"
	Horizon6Month Horizon = "6m"
	Horizon1Year  Horizon = "1y"
)

// PredictionKind enumerates the predictable claim categories.
type PredictionKind string

const (
	PredictionMarketDirection   PredictionKind = "market_direction"
	PredictionSectorPerformance PredictionKind = "sector_performance"
	PredictionEconomicIndicator PredictionKind = "economic_indicator"
	PredictionGeopoliticalEvent PredictionKind = "geopolitical_event"
)

// Prediction is issued by the Predictor (C7) against one DailyAnalysis.
type Prediction struct {
	ID          string          `json:"id" db:"id"`
	AnalysisRef string          `json:"analysis_ref" db:"analysis_ref"`
	Kind        PredictionKind  `json:"kind" db:"kind"`
	Text        string          `json:"text" db:"text"`
	Confidence  float64         `json:"confidence" db:"confidence"`
	Horizon     Horizon         `json:"horizon" db:"horizon"`
	Data        json.RawMessage `json:"data" db:"data_json"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// PredictionComparison is the Evaluator's (C8) scoring of a prior Prediction.
type PredictionComparison struct {
	ID                 string    `json:"id" db:"id"`
	PredictionRef      string    `json:"prediction_ref" db:"prediction_ref"`
	AnalysisRef        string    `json:"analysis_ref" db:"analysis_ref"`
	Accuracy           float64   `json:"accuracy" db:"accuracy"`
	OutcomeDescription string    `json:"outcome_description" db:"outcome_description"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// JobStatus is a Job's position in the queue state machine (§4.1).
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobRetry      JobStatus = "retry"
)

// JobKind enumerates the fixed set of queue job kinds (§4.3).
type JobKind string

const (
	JobFeedFetch           JobKind = "feed_fetch"
	JobContentProcess      JobKind = "content_process"
	JobTranscribeAudio     JobKind = "transcribe_audio"
	JobDailyAnalysis       JobKind = "daily_analysis"
	JobGeneratePredictions JobKind = "generate_predictions"
	JobPredictionCompare   JobKind = "prediction_compare"
	JobWorkerHeartbeat     JobKind = "worker_heartbeat"
)

// Job is one queue entry (§3, §4.1).
type Job struct {
	ID           string          `json:"id" db:"id"`
	Kind         JobKind         `json:"kind" db:"kind"`
	Payload      json.RawMessage `json:"payload" db:"payload_json"`
	Priority     int             `json:"priority" db:"priority"`
	Status       JobStatus       `json:"status" db:"status"`
	Attempts     int             `json:"attempts" db:"attempts"`
	MaxAttempts  int             `json:"max_attempts" db:"max_attempts"`
	ScheduledAt  time.Time       `json:"scheduled_at" db:"scheduled_at"`
	StartedAt    *time.Time      `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at" db:"completed_at"`
	ExpiresAt    time.Time       `json:"expires_at" db:"expires_at"`
	ErrorMessage string          `json:"error_message" db:"error_message"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// DefaultPriority is the queue priority assigned when the caller does not specify one.
const DefaultPriority = 5

// DefaultMaxAttempts is the retry ceiling assigned when the caller does not specify one.
const DefaultMaxAttempts = 3
