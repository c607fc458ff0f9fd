package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
)

// Video resolves a channel to its uploads playlist and paginates results via
// the video platform's public data API, requiring VIDEO_API_KEY. This
// adapter has no direct teacher precedent (dossier never touched video); it
// follows the same declarative-HTTP shape as GenericEndpoint, narrowed to
// the playlistItems/videos two-call resolution spec.md §4.4 describes.
type Video struct {
	Deps
	Client *http.Client
}

const videoAPIBase = "https://www.googleapis.com/youtube/v3"

// Validate requires a channel URL/ID and a configured API key.
func (v *Video) Validate(src models.Source) error {
	if src.URL == "" {
		return models.Permanentf("sources.Video.Validate", "source %s has no channel reference", src.ID)
	}
	if v.VideoAPIKey == "" {
		return models.Permanentf("sources.Video.Validate", "VIDEO_API_KEY not configured")
	}
	return nil
}

func (v *Video) client() *http.Client {
	if v.Client != nil {
		return v.Client
	}
	return &http.Client{Timeout: 20 * time.Second}
}

type videoPlaylistItemsResponse struct {
	Items []struct {
		ContentDetails struct {
			VideoID   string    `json:"videoId"`
			VideoOwnerChannelID string `json:"videoOwnerChannelId"`
		} `json:"contentDetails"`
		Snippet struct {
			Title       string    `json:"title"`
			Description string    `json:"description"`
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

type videoChannelsResponse struct {
	Items []struct {
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type videoDetailsResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// FetchLatest resolves the channel's uploads playlist, pages through its
// items, filters by duration/views, then returns normalized Items.
func (v *Video) FetchLatest(ctx context.Context, src models.Source) ([]Item, error) {
	var cfg models.VideoConfig
	if err := unmarshalConfig(src.Config, &cfg); err != nil {
		return nil, err
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = v.VideoAPIKey
	}

	uploadsPlaylist, err := v.resolveUploadsPlaylist(ctx, src.URL, apiKey)
	if err != nil {
		return nil, err
	}

	maxVideos := cfg.MaxVideos
	if maxVideos == 0 {
		maxVideos = 25
	}

	var raw []videoPlaylistItemsResponse
	pageToken := ""
	for len(raw) == 0 || (len(flattenPlaylist(raw)) < maxVideos && pageToken != "") {
		page, err := v.fetchPlaylistPage(ctx, uploadsPlaylist, apiKey, pageToken)
		if err != nil {
			return nil, err
		}
		raw = append(raw, page)
		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	entries := flattenPlaylist(raw)
	if len(entries) > maxVideos {
		entries = entries[:maxVideos]
	}

	videoIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		videoIDs = append(videoIDs, e.id)
	}
	details, err := v.fetchVideoDetails(ctx, videoIDs, apiKey)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		d := details[e.id]
		if cfg.MinDuration > 0 && d.durationSec < cfg.MinDuration {
			continue
		}
		if cfg.MaxDuration > 0 && d.durationSec > cfg.MaxDuration {
			continue
		}
		if cfg.MinViews > 0 && d.viewCount < cfg.MinViews {
			continue
		}
		items = append(items, Item{
			ExternalID:  e.id,
			Title:       e.title,
			Description: e.description,
			PublishedAt: e.publishedAt,
			Metadata: map[string]interface{}{
				"duration_seconds": d.durationSec,
				"view_count":       d.viewCount,
			},
		})
	}
	return applyCommonFilters(items, cfg.CommonSourceConfig), nil
}

type playlistEntry struct {
	id          string
	title       string
	description string
	publishedAt time.Time
}

func flattenPlaylist(pages []videoPlaylistItemsResponse) []playlistEntry {
	var out []playlistEntry
	for _, p := range pages {
		for _, it := range p.Items {
			out = append(out, playlistEntry{
				id:          it.ContentDetails.VideoID,
				title:       it.Snippet.Title,
				description: it.Snippet.Description,
				publishedAt: it.Snippet.PublishedAt,
			})
		}
	}
	return out
}

func (v *Video) resolveUploadsPlaylist(ctx context.Context, channelRef, apiKey string) (string, error) {
	u := fmt.Sprintf("%s/channels?part=contentDetails&id=%s&key=%s", videoAPIBase, url.QueryEscape(channelRef), apiKey)
	var resp videoChannelsResponse
	if err := v.getJSON(ctx, u, &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", models.Permanentf("sources.Video.resolveUploadsPlaylist", "channel %s not found", channelRef)
	}
	return resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

func (v *Video) fetchPlaylistPage(ctx context.Context, playlistID, apiKey, pageToken string) (videoPlaylistItemsResponse, error) {
	u := fmt.Sprintf("%s/playlistItems?part=snippet,contentDetails&maxResults=50&playlistId=%s&key=%s",
		videoAPIBase, url.QueryEscape(playlistID), apiKey)
	if pageToken != "" {
		u += "&pageToken=" + url.QueryEscape(pageToken)
	}
	var resp videoPlaylistItemsResponse
	if err := v.getJSON(ctx, u, &resp); err != nil {
		return videoPlaylistItemsResponse{}, err
	}
	return resp, nil
}

type videoDetail struct {
	durationSec int
	viewCount   int
}

func (v *Video) fetchVideoDetails(ctx context.Context, ids []string, apiKey string) (map[string]videoDetail, error) {
	out := map[string]videoDetail{}
	if len(ids) == 0 {
		return out, nil
	}
	u := fmt.Sprintf("%s/videos?part=contentDetails,statistics&id=%s&key=%s", videoAPIBase, joinComma(ids), apiKey)
	var resp videoDetailsResponse
	if err := v.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	for _, item := range resp.Items {
		views, _ := strconv.Atoi(item.Statistics.ViewCount)
		out[item.ID] = videoDetail{
			durationSec: parseISO8601Duration(item.ContentDetails.Duration),
			viewCount:   views,
		}
	}
	return out, nil
}

func joinComma(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}

func (v *Video) getJSON(ctx context.Context, u string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building video API request: %w", err)
	}
	resp, err := v.client().Do(req)
	if err != nil {
		return models.Transientf("sources.Video", "request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return models.Transientf("sources.Video", "server error %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return models.Permanentf("sources.Video", "client error %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading video API response: %w", err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parsing video API response: %w", err)
	}
	return nil
}

// parseISO8601Duration parses a subset of ISO-8601 durations ("PT1H2M3S").
func parseISO8601Duration(s string) int {
	total := 0
	num := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int(r-'0')
		case r == 'H':
			total += num * 3600
			num = 0
		case r == 'M':
			total += num * 60
			num = 0
		case r == 'S':
			total += num
			num = 0
		default:
			num = 0
		}
	}
	return total
}
