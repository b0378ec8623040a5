package playback

import (
	"errors"
	"sync"

	"github.com/desertthunder/ytplaylists/internal/models"
)

// recordingPlayer records every call and lets tests fire state changes.
type recordingPlayer struct {
	mu       sync.Mutex
	loaded   []string
	plays    int
	stops    int
	loadErr  error
	callback func(PlayerState)
}

func (p *recordingPlayer) Load(videoID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return p.loadErr
	}
	p.loaded = append(p.loaded, videoID)
	return nil
}

func (p *recordingPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays++
	return nil
}

func (p *recordingPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	return nil
}

func (p *recordingPlayer) OnStateChange(fn func(PlayerState)) {
	p.callback = fn
}

func (p *recordingPlayer) fire(s PlayerState) {
	p.callback(s)
}

func (p *recordingPlayer) last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.loaded) == 0 {
		return ""
	}
	return p.loaded[len(p.loaded)-1]
}

func (p *recordingPlayer) loads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.loaded)
}

var errPlayerBroken = errors.New("player broken")

// entries builds enriched entries whose entry id, video id and title are all name.
func entries(names ...string) []models.EnrichedSongEntry {
	out := make([]models.EnrichedSongEntry, len(names))
	for i, n := range names {
		out[i] = models.EnrichedSongEntry{
			SongEntry: models.SongEntry{EntryID: n, YouTubeID: n},
			Metadata:  &models.VideoMetadata{ID: n, Title: n},
		}
	}
	return out
}

func entryIDs(es []models.EnrichedSongEntry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.EntryID
	}
	return out
}
