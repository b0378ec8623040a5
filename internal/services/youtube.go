// YouTube Data API v3 [VideoProvider] implementation
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/shared"
	"golang.org/x/time/rate"
)

const (
	DefaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

	// DefaultSearchResults is the page size the web client asks for.
	DefaultSearchResults = 9

	maxIDsPerRequest = 50
	maxSearchResults = 50
	defaultRateLimit = 5.0
)

// YouTubeOpts configures a [YouTubeService].
type YouTubeOpts struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            *log.Logger
}

// YouTubeService implements [VideoProvider] against the YouTube Data API.
type YouTubeService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

type youtubeThumbnail struct {
	URL string `json:"url"`
}

type youtubeSnippet struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
	Thumbnails   struct {
		Default youtubeThumbnail `json:"default"`
		Medium  youtubeThumbnail `json:"medium"`
	} `json:"thumbnails"`
}

func (s youtubeSnippet) thumbnail() string {
	if s.Thumbnails.Medium.URL != "" {
		return s.Thumbnails.Medium.URL
	}
	return s.Thumbnails.Default.URL
}

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet youtubeSnippet `json:"snippet"`
	} `json:"items"`
}

type youtubeVideosResponse struct {
	Items []struct {
		ID             string         `json:"id"`
		Snippet        youtubeSnippet `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// NewYouTubeService creates a new YouTube service instance.
func NewYouTubeService(opts YouTubeOpts) *YouTubeService {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultYouTubeBaseURL
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRateLimit
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &YouTubeService{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		logger:     opts.Logger,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

func (y *YouTubeService) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	if y.apiKey == "" {
		return fmt.Errorf("%w: YOUTUBE_DATA_API_KEY is not set", shared.ErrMissingCredentials)
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return err
	}

	params.Set("key", y.apiKey)
	apiURL := y.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", shared.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
			return fmt.Errorf("%w: youtube API error (status %d): %s", shared.ErrUpstream, resp.StatusCode, errResp.Error.Message)
		}
		return fmt.Errorf("%w: youtube API error: status %d", shared.ErrUpstream, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrUpstream, err)
		}
	}
	return nil
}

// Search finds videos matching query and fills in duration and view counts with a
// follow-up [YouTubeService.Videos] call.
//
// Calls GET /search?part=snippet&type=video
func (y *YouTubeService) Search(ctx context.Context, query string, max int) ([]models.VideoMetadata, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: Search query is required", shared.ErrValidation)
	}
	if max <= 0 {
		max = DefaultSearchResults
	}
	max = min(max, maxSearchResults)

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(max))

	var resp youtubeSearchResponse
	if err := y.doRequest(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	results := make([]models.VideoMetadata, 0, len(resp.Items))
	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		ids = append(ids, item.ID.VideoID)
		results = append(results, models.VideoMetadata{
			ID:           item.ID.VideoID,
			Title:        item.Snippet.Title,
			ThumbnailURL: item.Snippet.thumbnail(),
			ChannelTitle: item.Snippet.ChannelTitle,
			Description:  item.Snippet.Description,
			PublishedAt:  item.Snippet.PublishedAt,
		})
	}

	details, err := y.Videos(ctx, ids)
	if err != nil {
		y.logger.Warn("search details unavailable", "query", query, "error", err)
		return results, nil
	}

	for i, r := range results {
		if d, ok := details[r.ID]; ok {
			results[i] = d
		}
	}
	return results, nil
}

// Videos looks up metadata for ids in batches of 50. Blank and repeated ids are skipped.
//
// Calls GET /videos?part=snippet,contentDetails,statistics
func (y *YouTubeService) Videos(ctx context.Context, ids []string) (map[string]models.VideoMetadata, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	out := make(map[string]models.VideoMetadata, len(unique))
	for start := 0; start < len(unique); start += maxIDsPerRequest {
		batch := unique[start:min(start+maxIDsPerRequest, len(unique))]

		params := url.Values{}
		params.Set("part", "snippet,contentDetails,statistics")
		params.Set("id", strings.Join(batch, ","))

		var resp youtubeVideosResponse
		if err := y.doRequest(ctx, "/videos", params, &resp); err != nil {
			return nil, err
		}

		for _, item := range resp.Items {
			out[item.ID] = models.VideoMetadata{
				ID:              item.ID,
				Title:           item.Snippet.Title,
				ThumbnailURL:    item.Snippet.thumbnail(),
				ChannelTitle:    item.Snippet.ChannelTitle,
				Description:     item.Snippet.Description,
				DurationISO8601: item.ContentDetails.Duration,
				Duration:        FormatISODuration(item.ContentDetails.Duration),
				ViewCount:       FormatViewCount(item.Statistics.ViewCount),
				PublishedAt:     item.Snippet.PublishedAt,
			}
		}
	}

	y.logger.Debug("fetched video metadata", "requested", len(unique), "found", len(out))
	return out, nil
}
