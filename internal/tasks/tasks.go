// package tasks implements long-running playlist jobs: exports and metadata cache warming.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/shared"
)

// Library is the read side of the playlist store.
type Library interface {
	GetPlaylist(ctx context.Context, id string) (*models.Playlist, error)
	ListPlaylistsForUser(ctx context.Context, username string) ([]*models.Playlist, error)
}

// MetadataSource looks up video metadata by id.
type MetadataSource interface {
	Videos(ctx context.Context, ids []string) (map[string]models.VideoMetadata, error)
}

// WarmResult summarises a cache warm run.
type WarmResult struct {
	Playlists int      // Playlists scanned
	Videos    int      // Distinct videos requested
	Found     int      // Videos the provider returned
	Missing   []string // Video IDs the provider did not know
}

// PlaylistEngine runs playlist jobs against the store and a metadata source.
type PlaylistEngine struct {
	library  Library
	metadata MetadataSource
	logger   *log.Logger
	now      func() time.Time
}

// NewPlaylistEngine creates a new PlaylistEngine. metadata may be nil, in which case exports
// are marked degraded.
func NewPlaylistEngine(library Library, metadata MetadataSource, logger *log.Logger) *PlaylistEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PlaylistEngine{library: library, metadata: metadata, logger: logger, now: time.Now}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *PlaylistEngine) lookup(ctx context.Context, ids []string) (map[string]models.VideoMetadata, error) {
	if e.metadata == nil {
		return nil, fmt.Errorf("%w: no video provider configured", shared.ErrServiceUnavailable)
	}
	if len(ids) == 0 {
		return map[string]models.VideoMetadata{}, nil
	}
	return e.metadata.Videos(ctx, ids)
}

// Export loads a playlist and joins it with video metadata. A failed lookup does not fail
// the export; it is marked degraded and songs fall back to placeholder titles.
func (e *PlaylistEngine) Export(ctx context.Context, playlistID, owner string) (*models.PlaylistExport, error) {
	if e.library == nil {
		return nil, fmt.Errorf("%w: playlist store not initialized", shared.ErrServiceUnavailable)
	}

	playlist, err := e.library.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	export := &models.PlaylistExport{
		Playlist:   *playlist,
		Owner:      owner,
		ExportedAt: e.now(),
	}

	metadata, err := e.lookup(ctx, playlist.YouTubeIDs())
	if err != nil {
		e.logger.Warn("exporting without video details", "playlist", playlistID, "error", err)
		export.Degraded = true
	}
	export.Songs = models.Enrich(playlist.Songs, metadata)
	return export, nil
}

// WarmCache requests metadata for every video in the user's playlists so later lookups are
// served from the cache. Missing videos are reported, not treated as errors.
func (e *PlaylistEngine) WarmCache(ctx context.Context, progress chan<- ProgressUpdate, username string) (*WarmResult, error) {
	if e.library == nil {
		return nil, fmt.Errorf("%w: playlist store not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchPlaylistsUpdate(username))
	playlists, err := e.library.ListPlaylistsForUser(ctx, username)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var ids []string
	for _, p := range playlists {
		for _, id := range p.YouTubeIDs() {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	result := &WarmResult{Playlists: len(playlists), Videos: len(ids)}
	e.sendProgress(progress, fetchMetadataUpdate(len(ids)))

	metadata, err := e.lookup(ctx, ids)
	if err != nil {
		return result, err
	}

	for _, id := range ids {
		if _, ok := metadata[id]; ok {
			result.Found++
		} else {
			result.Missing = append(result.Missing, id)
		}
	}
	e.sendProgress(progress, warmCompletedUpdate(result))
	return result, nil
}
