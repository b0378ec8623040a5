package server

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplaylists/internal/playback"
	"github.com/desertthunder/ytplaylists/internal/services"
)

// remotePlayer mirrors the embedded player running in the browser. The browser reports
// the natural end of a video with POST /api/player/ended.
type remotePlayer struct {
	mu      sync.Mutex
	videoID string
	state   playback.PlayerState
}

func (p *remotePlayer) Load(videoID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.videoID = videoID
	p.state = playback.PlayerBuffering
	return nil
}

func (p *remotePlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = playback.PlayerPlaying
	return nil
}

func (p *remotePlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = playback.PlayerUnstarted
	return nil
}

func (p *remotePlayer) OnStateChange(func(playback.PlayerState)) {}

// embedURL is the video the browser should show, or empty when stopped.
func (p *remotePlayer) embedURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == playback.PlayerUnstarted || p.videoID == "" {
		return ""
	}
	return services.EmbedURL(p.videoID)
}

type userPlayer struct {
	session *playback.Session
	player  *remotePlayer
}

// PlayerRegistry holds one playback session per logged-in user.
type PlayerRegistry struct {
	mu       sync.Mutex
	sessions map[string]*userPlayer
	library  playback.Library
	metadata playback.MetadataSource
	logger   *log.Logger
}

func NewPlayerRegistry(library playback.Library, metadata playback.MetadataSource, logger *log.Logger) *PlayerRegistry {
	return &PlayerRegistry{
		sessions: map[string]*userPlayer{},
		library:  library,
		metadata: metadata,
		logger:   logger,
	}
}

// Get returns the user's session, creating it on first use.
func (r *PlayerRegistry) Get(username string) *userPlayer {
	r.mu.Lock()
	defer r.mu.Unlock()

	if up, ok := r.sessions[username]; ok {
		return up
	}

	player := &remotePlayer{}
	up := &userPlayer{
		session: playback.NewSession(r.library, r.metadata, player, r.logger.With("user", username)),
		player:  player,
	}
	r.sessions[username] = up
	return up
}

// Lookup returns the user's session without creating one.
func (r *PlayerRegistry) Lookup(username string) (*userPlayer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	up, ok := r.sessions[username]
	return up, ok
}

// Drop discards the user's session, closing its player.
func (r *PlayerRegistry) Drop(username string) {
	r.mu.Lock()
	up, ok := r.sessions[username]
	delete(r.sessions, username)
	r.mu.Unlock()

	if ok {
		r.close(username, up)
	}
}

// CloseAll closes every session.
func (r *PlayerRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, up := range r.sessions {
		r.close(name, up)
		delete(r.sessions, name)
	}
}

func (r *PlayerRegistry) close(username string, up *userPlayer) {
	if err := up.session.Close(); err != nil {
		r.logger.Warn("failed to close player session", "user", username, "error", err)
	}
}
