package playback

import (
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/shared"
)

const eventBufferSize = 16

// Controller manages sequential playback over a queue copied from the visible list.
//
// The queue is a snapshot: later filter or sort changes do not reorder it. Deletions are
// applied through [Controller.OnEntryDeleted].
type Controller struct {
	mu sync.Mutex

	player  Player
	queue   []models.EnrichedSongEntry
	current int
	state   State

	events chan Event
	logger *log.Logger
}

// Snapshot is a point-in-time copy of the controller.
type Snapshot struct {
	State        State                      `json:"state"`
	CurrentIndex int                        `json:"currentIndex"`
	Current      *models.EnrichedSongEntry  `json:"current"`
	Queue        []models.EnrichedSongEntry `json:"queue"`
	CanPrevious  bool                       `json:"canPrevious"`
	CanNext      bool                       `json:"canNext"`
}

// NewController creates a controller driving player. The player's ended signal advances
// the queue as [Controller.Ended] does.
func NewController(player Player, logger *log.Logger) *Controller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	c := &Controller{
		player:  player,
		queue:   []models.EnrichedSongEntry{},
		current: -1,
		state:   StateIdle,
		events:  make(chan Event, eventBufferSize),
		logger:  logger,
	}

	player.OnStateChange(func(ps PlayerState) {
		if ps != PlayerEnded {
			return
		}
		if err := c.Ended(); err != nil {
			c.logger.Error("failed to advance after track end", "error", err)
		}
	})
	return c
}

// Events returns the event channel. Events are dropped when nobody drains it.
func (c *Controller) Events() <-chan Event {
	return c.events
}

func (c *Controller) sendEventLocked(e Event) {
	e.State = c.state
	select {
	case c.events <- e:
	default:
	}
}

// loadLocked plays queue[i] and commits i as the current index on success.
func (c *Controller) loadLocked(i int) error {
	entry := c.queue[i]
	if err := c.player.Load(entry.YouTubeID); err != nil {
		return fmt.Errorf("failed to load %s: %w", entry.YouTubeID, err)
	}
	if err := c.player.Play(); err != nil {
		return fmt.Errorf("failed to play %s: %w", entry.YouTubeID, err)
	}

	c.current = i
	c.state = StatePlaying
	c.logger.Debug("track started", "index", i, "youtube_id", entry.YouTubeID)
	c.sendEventLocked(Event{Type: EventTrackStarted, Entry: &entry, Index: i})
	return nil
}

func (c *Controller) stopLocked() error {
	if c.state == StateIdle {
		return nil
	}
	c.state = StateIdle
	if err := c.player.Stop(); err != nil {
		return fmt.Errorf("failed to stop player: %w", err)
	}
	return nil
}

// Start replaces the queue with a copy of visible and plays its first item.
func (c *Controller) Start(visible []models.EnrichedSongEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.startLocked(visible)
}

func (c *Controller) startLocked(visible []models.EnrichedSongEntry) error {
	if len(visible) == 0 {
		return ErrQueueEmpty
	}

	prevQueue, prevCurrent := c.queue, c.current
	c.queue = slices.Clone(visible)
	if err := c.loadLocked(0); err != nil {
		c.queue, c.current = prevQueue, prevCurrent
		return err
	}
	return nil
}

// Resume continues the parked queue. With nothing parked (an empty queue, or index -1
// after the queue ended) it starts over from visible, and does nothing when visible is empty.
// An index past the end restarts the parked queue from its first item.
func (c *Controller) Resume(visible []models.EnrichedSongEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case len(c.queue) == 0 || c.current < 0:
		if len(visible) == 0 {
			return nil
		}
		return c.startLocked(visible)
	case c.current >= len(c.queue):
		return c.loadLocked(0)
	}
	return c.loadLocked(c.current)
}

// PlayAt rebuilds the queue as visible[index:] and plays its first item.
func (c *Controller) PlayAt(visible []models.EnrichedSongEntry, index int) error {
	if index < 0 || index >= len(visible) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(visible))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.startLocked(visible[index:])
}

// PlayEntry is [Controller.PlayAt] for the visible item with entryID.
func (c *Controller) PlayEntry(visible []models.EnrichedSongEntry, entryID string) error {
	i := slices.IndexFunc(visible, func(e models.EnrichedSongEntry) bool { return e.EntryID == entryID })
	if i < 0 {
		return ErrEntryNotVisible
	}
	return c.PlayAt(visible, i)
}

// Next plays the following item. It is a no-op on the last item or an empty queue.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.queue) == 0 || c.current >= len(c.queue)-1 {
		return nil
	}
	return c.loadLocked(c.current + 1)
}

// Previous plays the preceding item. It is a no-op at index 0 or below.
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current <= 0 {
		return nil
	}
	return c.loadLocked(c.current - 1)
}

// Ended handles the natural end of the current video: advance, or go idle with index -1
// after the last item.
func (c *Controller) Ended() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePlaying || len(c.queue) == 0 {
		return nil
	}
	if c.current < len(c.queue)-1 {
		return c.loadLocked(c.current + 1)
	}

	c.current = -1
	err := c.stopLocked()
	c.sendEventLocked(Event{Type: EventQueueEnded, Index: -1})
	return err
}

// Close stops the player and parks the queue so [Controller.Resume] can continue it.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasPlaying := c.state == StatePlaying
	err := c.stopLocked()
	if wasPlaying {
		c.sendEventLocked(Event{Type: EventStateChanged, Index: c.current})
	}
	return err
}

// Reset closes the player and discards the queue. Used when switching playlists.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.stopLocked()
	c.queue = []models.EnrichedSongEntry{}
	c.current = -1
	c.sendEventLocked(Event{Type: EventStateChanged, Index: -1})
	return err
}

// OnEntryDeleted removes entryID from the queue, keeping the current index on the same
// logical item. Deleting the current item plays its successor (or the new last item)
// while playing; emptying the queue goes idle.
func (c *Controller) OnEntryDeleted(entryID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.IndexFunc(c.queue, func(e models.EnrichedSongEntry) bool { return e.EntryID == entryID })
	if i < 0 {
		return nil
	}
	c.queue = slices.Delete(c.queue, i, i+1)

	switch {
	case i < c.current:
		c.current--
	case i > c.current:
	case len(c.queue) == 0:
		c.current = -1
		err := c.stopLocked()
		c.sendEventLocked(Event{Type: EventStateChanged, Index: -1})
		return err
	default:
		c.current = min(c.current, len(c.queue)-1)
		if c.state == StatePlaying {
			return c.loadLocked(c.current)
		}
	}

	c.sendEventLocked(Event{Type: EventQueueChanged, Index: c.current})
	return nil
}

// UpdateRating changes the rating on queued copies of entryID.
func (c *Controller) UpdateRating(entryID string, rating int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.queue {
		if c.queue[i].EntryID == entryID {
			c.queue[i].Rating = rating
		}
	}
}

// ApplyMetadata attaches late metadata to queued entries by video id.
func (c *Controller) ApplyMetadata(metadata map[string]models.VideoMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.queue {
		if m, ok := metadata[c.queue[i].YouTubeID]; ok {
			c.queue[i].Metadata = &m
		}
	}
}

// Queue returns a copy of the queue.
func (c *Controller) Queue() []models.EnrichedSongEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.queue)
}

func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Current returns the loaded entry, if any.
func (c *Controller) Current() (models.EnrichedSongEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
}

func (c *Controller) currentLocked() (models.EnrichedSongEntry, bool) {
	if c.current < 0 || c.current >= len(c.queue) {
		return models.EnrichedSongEntry{}, false
	}
	return c.queue[c.current], true
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CanPrevious reports whether [Controller.Previous] would move.
func (c *Controller) CanPrevious() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current > 0
}

// CanNext reports whether [Controller.Next] would move.
func (c *Controller) CanNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue) > 0 && c.current < len(c.queue)-1
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:        c.state,
		CurrentIndex: c.current,
		Queue:        slices.Clone(c.queue),
		CanPrevious:  c.current > 0,
		CanNext:      len(c.queue) > 0 && c.current < len(c.queue)-1,
	}
	if e, ok := c.currentLocked(); ok {
		snap.Current = &e
	}
	return snap
}
