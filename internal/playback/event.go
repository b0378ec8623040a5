package playback

import "github.com/desertthunder/ytplaylists/internal/models"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted EventType = iota // A queue item was loaded into the player
	EventStateChanged                  // Controller moved to idle without finishing the queue
	EventQueueEnded                    // Last item ended naturally
	EventQueueChanged                  // Queue contents changed without a state change
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventStateChanged:
		return "state_changed"
	case EventQueueEnded:
		return "queue_ended"
	case EventQueueChanged:
		return "queue_changed"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type  EventType
	Entry *models.EnrichedSongEntry // Loaded entry (nil unless a track started)
	Index int
	State State
}
