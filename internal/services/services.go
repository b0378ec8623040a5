// package services defines interface VideoProvider for looking up YouTube video metadata
package services

import (
	"context"
	"net/url"

	"github.com/desertthunder/ytplaylists/internal/models"
)

// VideoProvider looks up video metadata by search query or by id.
type VideoProvider interface {
	// Search returns up to max videos matching query, in relevance order.
	Search(ctx context.Context, query string, max int) ([]models.VideoMetadata, error)

	// Videos returns metadata keyed by video id. Unknown ids are absent from the map.
	Videos(ctx context.Context, ids []string) (map[string]models.VideoMetadata, error)

	// Name returns the name of the provider (e.g., "YouTube")
	Name() string
}

// WatchURL returns the youtube.com page for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
}

// EmbedURL returns the embeddable player url for a video id.
func EmbedURL(videoID string) string {
	return "https://www.youtube.com/embed/" + url.PathEscape(videoID) + "?autoplay=1&enablejsapi=1"
}
