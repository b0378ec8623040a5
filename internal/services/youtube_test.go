package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/ytplaylists/internal/shared"
	th "github.com/desertthunder/ytplaylists/internal/testing"
)

func videoItem(id string) map[string]any {
	return map[string]any{
		"id": id,
		"snippet": map[string]any{
			"title":        "Title " + id,
			"channelTitle": "Channel",
			"publishedAt":  "2024-01-02T03:04:05Z",
			"thumbnails": map[string]any{
				"default": map[string]any{"url": "https://i.ytimg.com/" + id + "/default.jpg"},
				"medium":  map[string]any{"url": "https://i.ytimg.com/" + id + "/mqdefault.jpg"},
			},
		},
		"contentDetails": map[string]any{"duration": "PT3M45S"},
		"statistics":     map[string]any{"viewCount": "1234567"},
	}
}

func newTestYouTube(t *testing.T, handler http.HandlerFunc) *YouTubeService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewYouTubeService(YouTubeOpts{
		BaseURL:           server.URL,
		APIKey:            "test-key",
		RequestsPerSecond: 1000,
		Logger:            shared.NewLogger(io.Discard),
	})
}

func TestYouTubeService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewYouTubeService", func(t *testing.T) {
		t.Run("creates service with default URL", func(t *testing.T) {
			if svc := NewYouTubeService(YouTubeOpts{}); svc.baseURL != DefaultYouTubeBaseURL {
				t.Errorf("expected baseURL to be %s, got %s", DefaultYouTubeBaseURL, svc.baseURL)
			}
		})

		t.Run("creates service with custom URL", func(t *testing.T) {
			customURL := "http://localhost:9000"
			if svc := NewYouTubeService(YouTubeOpts{BaseURL: customURL + "/"}); svc.baseURL != customURL {
				t.Errorf("expected baseURL to be %s, got %s", customURL, svc.baseURL)
			}
		})
	})

	t.Run("Name", func(t *testing.T) {
		if svc := NewYouTubeService(YouTubeOpts{}); svc.Name() != "YouTube" {
			t.Errorf("expected name to be 'YouTube', got %s", svc.Name())
		}
	})

	t.Run("Videos", func(t *testing.T) {
		t.Run("maps response and skips unknown ids", func(t *testing.T) {
			svc := newTestYouTube(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/videos" {
					t.Errorf("expected path /videos, got %s", r.URL.Path)
				}
				q := r.URL.Query()
				if q.Get("key") != "test-key" {
					t.Errorf("expected api key to be sent, got %q", q.Get("key"))
				}
				if q.Get("part") != "snippet,contentDetails,statistics" {
					t.Errorf("unexpected part %q", q.Get("part"))
				}
				if q.Get("id") != "aaa,bbb" {
					t.Errorf("expected deduplicated ids, got %q", q.Get("id"))
				}
				json.NewEncoder(w).Encode(map[string]any{"items": []any{videoItem("aaa")}})
			})

			videos, err := svc.Videos(ctx, []string{"aaa", "bbb", "aaa", " "})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(videos) != 1 {
				t.Fatalf("expected 1 video, got %d", len(videos))
			}

			v := videos["aaa"]
			if v.Title != "Title aaa" {
				t.Errorf("unexpected title %q", v.Title)
			}
			if v.ThumbnailURL != "https://i.ytimg.com/aaa/mqdefault.jpg" {
				t.Errorf("expected medium thumbnail, got %q", v.ThumbnailURL)
			}
			if v.Duration != "3:45" || v.DurationISO8601 != "PT3M45S" {
				t.Errorf("unexpected duration %q / %q", v.Duration, v.DurationISO8601)
			}
			if v.ViewCount != "1,234,567" {
				t.Errorf("unexpected view count %q", v.ViewCount)
			}
		})

		t.Run("batches by 50", func(t *testing.T) {
			var calls atomic.Int32
			svc := newTestYouTube(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				ids := strings.Split(r.URL.Query().Get("id"), ",")
				if len(ids) > 50 {
					t.Errorf("batch too large: %d", len(ids))
				}
				items := make([]any, 0, len(ids))
				for _, id := range ids {
					items = append(items, videoItem(id))
				}
				json.NewEncoder(w).Encode(map[string]any{"items": items})
			})

			ids := make([]string, 120)
			for i := range ids {
				ids[i] = fmt.Sprintf("vid%03d", i)
			}

			videos, err := svc.Videos(ctx, ids)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(videos) != 120 {
				t.Errorf("expected 120 videos, got %d", len(videos))
			}
			if calls.Load() != 3 {
				t.Errorf("expected 3 requests, got %d", calls.Load())
			}
		})

		t.Run("no ids makes no request", func(t *testing.T) {
			svc := newTestYouTube(t, func(w http.ResponseWriter, r *http.Request) {
				t.Error("unexpected request")
			})
			if videos, err := svc.Videos(ctx, nil); err != nil || len(videos) != 0 {
				t.Errorf("expected empty result, got %v, %v", videos, err)
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("merges details in result order", func(t *testing.T) {
			svc := newTestYouTube(t, func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/search":
					q := r.URL.Query()
					if q.Get("q") != "lofi beats" || q.Get("type") != "video" || q.Get("maxResults") != "9" {
						t.Errorf("unexpected search params %v", q)
					}
					json.NewEncoder(w).Encode(map[string]any{"items": []any{
						map[string]any{"id": map[string]any{"videoId": "bbb"}, "snippet": map[string]any{"title": "B"}},
						map[string]any{"id": map[string]any{"videoId": "aaa"}, "snippet": map[string]any{"title": "A"}},
						map[string]any{"id": map[string]any{"channelId": "chan"}, "snippet": map[string]any{"title": "C"}},
					}})
				case "/videos":
					json.NewEncoder(w).Encode(map[string]any{"items": []any{videoItem("aaa"), videoItem("bbb")}})
				default:
					t.Errorf("unexpected path %s", r.URL.Path)
				}
			})

			results, err := svc.Search(ctx, " lofi beats ", 0)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(results) != 2 {
				t.Fatalf("expected 2 results, got %d", len(results))
			}
			if results[0].ID != "bbb" || results[1].ID != "aaa" {
				t.Errorf("expected search order to be kept, got %s, %s", results[0].ID, results[1].ID)
			}
			if results[0].Duration != "3:45" {
				t.Errorf("expected details to be merged, got %+v", results[0])
			}
		})

		t.Run("details failure keeps snippets", func(t *testing.T) {
			svc := newTestYouTube(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/videos" {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				json.NewEncoder(w).Encode(map[string]any{"items": []any{
					map[string]any{"id": map[string]any{"videoId": "aaa"}, "snippet": map[string]any{"title": "A"}},
				}})
			})

			results, err := svc.Search(ctx, "query", 5)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(results) != 1 || results[0].Title != "A" {
				t.Errorf("unexpected results %+v", results)
			}
		})

		t.Run("empty query", func(t *testing.T) {
			svc := NewYouTubeService(YouTubeOpts{APIKey: "k"})
			if _, err := svc.Search(ctx, "  ", 5); !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	})

	t.Run("errors", func(t *testing.T) {
		t.Run("missing api key", func(t *testing.T) {
			svc := NewYouTubeService(YouTubeOpts{})
			if _, err := svc.Videos(ctx, []string{"aaa"}); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("api error message", func(t *testing.T) {
			svc := newTestYouTube(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":{"code":403,"message":"quotaExceeded"}}`))
			})

			_, err := svc.Videos(ctx, []string{"aaa"})
			if !errors.Is(err, shared.ErrUpstream) {
				t.Fatalf("expected ErrUpstream, got %v", err)
			}
			if !strings.Contains(err.Error(), "quotaExceeded") {
				t.Errorf("expected API message in error, got %v", err)
			}
		})

		t.Run("transport failure", func(t *testing.T) {
			transport := th.NewFailingTransport(errors.New("connection refused"))
			svc := NewYouTubeService(YouTubeOpts{
				APIKey:     "k",
				HTTPClient: &http.Client{Transport: transport},
			})
			if _, err := svc.Videos(ctx, []string{"aaa"}); !errors.Is(err, shared.ErrUpstream) {
				t.Errorf("expected ErrUpstream, got %v", err)
			}
			if transport.Attempts() != 1 {
				t.Errorf("expected one request, got %d", transport.Attempts())
			}
		})

		t.Run("malformed body", func(t *testing.T) {
			svc := newTestYouTube(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			})
			if _, err := svc.Videos(ctx, []string{"aaa"}); !errors.Is(err, shared.ErrUpstream) {
				t.Errorf("expected ErrUpstream, got %v", err)
			}
		})
	})
}

func TestURLs(t *testing.T) {
	if got := WatchURL("dQw4w9WgXcQ"); got != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("unexpected watch url %s", got)
	}
	if got := EmbedURL("dQw4w9WgXcQ"); !strings.HasPrefix(got, "https://www.youtube.com/embed/dQw4w9WgXcQ?") {
		t.Errorf("unexpected embed url %s", got)
	}
}
