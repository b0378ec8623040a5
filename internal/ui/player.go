package ui

import (
	"sync"

	"github.com/desertthunder/ytplaylists/internal/playback"
	"github.com/desertthunder/ytplaylists/internal/services"
	"github.com/desertthunder/ytplaylists/internal/shared"
)

// BrowserPlayer plays videos by opening their watch page in the system browser.
//
// The browser cannot report when a video finishes, so the user signals it with [BrowserPlayer.Finish].
type BrowserPlayer struct {
	mu       sync.Mutex
	open     func(url string) error
	videoID  string
	state    playback.PlayerState
	onChange func(playback.PlayerState)
}

var _ playback.Player = (*BrowserPlayer)(nil)

// NewBrowserPlayer uses open to show a URL, defaulting to [shared.OpenBrowser].
func NewBrowserPlayer(open func(url string) error) *BrowserPlayer {
	if open == nil {
		open = shared.OpenBrowser
	}
	return &BrowserPlayer{open: open}
}

func (p *BrowserPlayer) Load(videoID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.videoID = videoID
	p.state = playback.PlayerBuffering
	return nil
}

func (p *BrowserPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.open(services.WatchURL(p.videoID)); err != nil {
		return err
	}
	p.state = playback.PlayerPlaying
	return nil
}

func (p *BrowserPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = playback.PlayerUnstarted
	return nil
}

func (p *BrowserPlayer) OnStateChange(fn func(playback.PlayerState)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// Finish reports that the current video ended. It is a no-op unless a video is playing.
func (p *BrowserPlayer) Finish() {
	p.mu.Lock()
	if p.state != playback.PlayerPlaying {
		p.mu.Unlock()
		return
	}
	p.state = playback.PlayerEnded
	fn := p.onChange
	p.mu.Unlock()

	if fn != nil {
		fn(playback.PlayerEnded)
	}
}

// State returns the last state the player moved to.
func (p *BrowserPlayer) State() playback.PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
