// Package playback sequences playback of a playlist's visible songs.
//
// A [Controller] owns the queue and the player, a [View] derives the filtered and sorted
// song list, and a [Session] ties both to the playlist store and the metadata provider.
package playback

import "errors"

var (
	ErrQueueEmpty       = errors.New("queue is empty")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrEntryNotVisible  = errors.New("entry is not in the visible list")
	ErrNoPlaylist       = errors.New("no playlist selected")
	ErrSelectionChanged = errors.New("playlist selection changed")
)

// State represents the controller state. Pausing is left to the player.
type State int

const (
	StateIdle    State = iota // No player open, current index is -1 or the queue is parked
	StatePlaying              // queue[current] is loaded
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PlayerState is reported by a [Player] through its state change callback.
type PlayerState int

const (
	PlayerUnstarted PlayerState = iota
	PlayerPlaying
	PlayerPaused
	PlayerBuffering
	PlayerEnded
)

func (s PlayerState) String() string {
	switch s {
	case PlayerUnstarted:
		return "unstarted"
	case PlayerPlaying:
		return "playing"
	case PlayerPaused:
		return "paused"
	case PlayerBuffering:
		return "buffering"
	case PlayerEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Player is the video surface the controller drives.
//
// Implementations must not invoke the state change callback from inside Load, Play or Stop.
type Player interface {
	Load(videoID string) error
	Play() error
	Stop() error
	OnStateChange(fn func(PlayerState))
}
