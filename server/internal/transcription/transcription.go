// Package transcription turns an audio source's enclosure URL into text,
// selected per source config (§6.2's transcript_source), grounded on the
// pending/processing/completed/failed job lifecycle used by
// rishikanthc-Scriberr's own transcription task queue.
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
)

// Capability transcribes one audio URL to text.
type Capability interface {
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

// Select returns the Capability named by a source's transcript_source config
// field, defaulting to the external API implementation.
func Select(kind string, apiURL string, apiKey string) Capability {
	switch kind {
	case "whisper_like":
		return &WhisperLike{}
	default:
		return &ExternalAPI{BaseURL: apiURL, APIKey: apiKey, Client: &http.Client{Timeout: 5 * time.Minute}}
	}
}

// WhisperLike is a stub for an out-of-process local transcription tool.
// Invoking the actual tool binary is a deployment concern left out of scope;
// this implementation always reports a permanent error so callers fail fast
// rather than silently producing empty transcripts.
type WhisperLike struct{}

// Transcribe always fails: wiring a local whisper-family binary is a
// deployment-time decision, not something this process can assume exists.
func (w *WhisperLike) Transcribe(ctx context.Context, audioURL string) (string, error) {
	return "", models.Permanentf("transcription.WhisperLike", "no local transcription tool configured for %s", audioURL)
}

// ExternalAPI posts the audio URL to a hosted transcription endpoint.
type ExternalAPI struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

type externalAPIRequest struct {
	AudioURL string `json:"audio_url"`
}

type externalAPIResponse struct {
	Text string `json:"text"`
}

// Transcribe calls the configured external transcription API.
func (e *ExternalAPI) Transcribe(ctx context.Context, audioURL string) (string, error) {
	if e.BaseURL == "" {
		return "", models.Permanentf("transcription.ExternalAPI", "no external_api base URL configured")
	}
	body, err := json.Marshal(externalAPIRequest{AudioURL: audioURL})
	if err != nil {
		return "", fmt.Errorf("marshaling transcription request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building transcription request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.APIKey)
	}
	resp, err := e.Client.Do(req)
	if err != nil {
		return "", models.Transientf("transcription.ExternalAPI", "request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return "", models.Transientf("transcription.ExternalAPI", "server error %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return "", models.Permanentf("transcription.ExternalAPI", "client error %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading transcription response: %w", err)
	}
	var out externalAPIResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", models.Transientf("transcription.ExternalAPI", "parsing response: %w", err)
	}
	return out.Text, nil
}
