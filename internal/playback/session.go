package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/shared"
)

// Library is the part of the playlist store a session edits through.
type Library interface {
	GetPlaylist(ctx context.Context, id string) (*models.Playlist, error)
	AddSong(ctx context.Context, playlistID, youtubeID string) (*models.Playlist, error)
	RemoveSong(ctx context.Context, playlistID, entryID string) (*models.Playlist, error)
	RateSongValue(ctx context.Context, playlistID, entryID string, rating int) (*models.SongEntry, error)
}

// MetadataSource looks up video metadata by id. Missing ids are absent from the result.
type MetadataSource interface {
	Videos(ctx context.Context, ids []string) (map[string]models.VideoMetadata, error)
}

// Token identifies one playlist selection. Results fetched under a token are applied only
// while it is still the active selection.
type Token struct {
	PlaylistID string
	Generation uint64
}

// Session binds a playlist view and a controller to the store and metadata source.
//
// Store and provider calls run without the session lock held so a slow lookup never blocks
// playback commands; their results are checked against the active [Token] before they are
// applied. Lock order is Session then Controller.
type Session struct {
	mu sync.Mutex

	library    Library
	metadata   MetadataSource
	view       *View
	controller *Controller
	logger     *log.Logger

	active   Token
	degraded bool
}

// SessionSnapshot is the presentation state of a session.
type SessionSnapshot struct {
	PlaylistID string                     `json:"playlistId"`
	Filter     string                     `json:"filter"`
	Sort       SortType                   `json:"sort"`
	Visible    []models.EnrichedSongEntry `json:"visible"`
	Degraded   bool                       `json:"degraded"`
	Player     Snapshot                   `json:"player"`
}

// NewSession creates a session. metadata may be nil, in which case every entry renders
// with the unknown title.
func NewSession(library Library, metadata MetadataSource, player Player, logger *log.Logger) *Session {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Session{
		library:    library,
		metadata:   metadata,
		view:       NewView(),
		controller: NewController(player, logger),
		logger:     logger,
	}
}

// Controller exposes the controller for event subscription.
func (s *Session) Controller() *Controller {
	return s.controller
}

func (s *Session) isActive(tok Token) bool {
	return tok.PlaylistID != "" && tok == s.active
}

// Select makes playlistID the active playlist: playback is reset, then songs are loaded in
// store order without metadata. Call [Session.Enrich] with the returned token to fill in
// titles.
func (s *Session) Select(ctx context.Context, playlistID string) (Token, error) {
	s.mu.Lock()
	s.active = Token{PlaylistID: playlistID, Generation: s.active.Generation + 1}
	tok := s.active
	s.degraded = false
	s.view.Clear(playlistID)
	if err := s.controller.Reset(); err != nil {
		s.logger.Warn("failed to stop player on playlist switch", "error", err)
	}
	s.mu.Unlock()

	playlist, err := s.library.GetPlaylist(ctx, playlistID)
	if err != nil {
		return tok, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isActive(tok) {
		return tok, ErrSelectionChanged
	}
	s.view.SetSongs(playlistID, models.Enrich(playlist.Songs, nil))
	return tok, nil
}

// Open selects playlistID and enriches it.
func (s *Session) Open(ctx context.Context, playlistID string) error {
	tok, err := s.Select(ctx, playlistID)
	if err != nil {
		return err
	}
	return s.Enrich(ctx, tok)
}

// Enrich fetches metadata for every song of the selection identified by tok.
//
// A provider failure is degraded mode: entries keep the unknown title and nil is returned.
// Results arriving after the selection changed are discarded.
func (s *Session) Enrich(ctx context.Context, tok Token) error {
	s.mu.Lock()
	if !s.isActive(tok) {
		s.mu.Unlock()
		return nil
	}
	ids := make([]string, 0)
	seen := map[string]bool{}
	for _, song := range s.view.Songs() {
		if !seen[song.YouTubeID] {
			seen[song.YouTubeID] = true
			ids = append(ids, song.YouTubeID)
		}
	}
	s.mu.Unlock()

	return s.enrich(ctx, tok, ids)
}

func (s *Session) enrich(ctx context.Context, tok Token, ids []string) error {
	if s.metadata == nil || len(ids) == 0 {
		return nil
	}

	metadata, err := s.metadata.Videos(ctx, ids)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isActive(tok) {
		s.logger.Debug("discarding metadata for inactive playlist", "playlist", tok.PlaylistID, "generation", tok.Generation)
		return nil
	}
	if err != nil {
		s.logger.Warn("metadata unavailable, showing placeholders", "playlist", tok.PlaylistID, "error", err)
		s.degraded = true
		return nil
	}

	s.view.ApplyMetadata(metadata)
	s.controller.ApplyMetadata(metadata)
	return nil
}

// Active returns the current selection token.
func (s *Session) Active() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Session) activePlaylist() (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active.PlaylistID == "" {
		return Token{}, ErrNoPlaylist
	}
	return s.active, nil
}

// Add appends youtubeID to the active playlist and enriches the new entry.
func (s *Session) Add(ctx context.Context, youtubeID string) (*models.SongEntry, error) {
	tok, err := s.activePlaylist()
	if err != nil {
		return nil, err
	}

	playlist, err := s.library.AddSong(ctx, tok.PlaylistID, youtubeID)
	if err != nil {
		return nil, err
	}
	if len(playlist.Songs) == 0 {
		return nil, fmt.Errorf("%w: Song not found in playlist", shared.ErrNotFound)
	}
	entry := playlist.Songs[len(playlist.Songs)-1]

	s.mu.Lock()
	if s.isActive(tok) && !s.view.Contains(entry.EntryID) {
		s.view.Add(models.EnrichedSongEntry{SongEntry: entry})
	}
	s.mu.Unlock()

	return &entry, s.enrich(ctx, tok, []string{entry.YouTubeID})
}

// Rate stores a rating and then mirrors it into the view and queue. A vanished entry is
// dropped locally instead of failing.
func (s *Session) Rate(ctx context.Context, entryID string, rating int) error {
	tok, err := s.activePlaylist()
	if err != nil {
		return err
	}

	_, err = s.library.RateSongValue(ctx, tok.PlaylistID, entryID, rating)
	if errors.Is(err, shared.ErrNotFound) {
		s.logger.Info("rated entry no longer exists", "entry", entryID)
		return s.dropLocal(tok, entryID)
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isActive(tok) {
		s.view.UpdateRating(entryID, rating)
		s.controller.UpdateRating(entryID, rating)
	}
	return nil
}

// Delete removes an entry from the store, then from the view and queue. Deleting an entry
// that is already gone counts as success.
func (s *Session) Delete(ctx context.Context, entryID string) error {
	tok, err := s.activePlaylist()
	if err != nil {
		return err
	}

	_, err = s.library.RemoveSong(ctx, tok.PlaylistID, entryID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	return s.dropLocal(tok, entryID)
}

func (s *Session) dropLocal(tok Token, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isActive(tok) {
		return nil
	}
	s.view.Remove(entryID)
	return s.controller.OnEntryDeleted(entryID)
}

func (s *Session) SetFilter(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.SetFilter(text)
}

func (s *Session) Sort(t SortType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Sort(t)
}

// Visible returns the filtered, sorted song list.
func (s *Session) Visible() []models.EnrichedSongEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Visible()
}

// Start queues the visible list and plays from its top.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.Start(s.view.Visible())
}

// Resume continues the parked queue, or starts the visible list when there is none.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.Resume(s.view.Visible())
}

// PlayAt plays from position index of the visible list.
func (s *Session) PlayAt(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.PlayAt(s.view.Visible(), index)
}

// PlayEntry plays from the visible entry with entryID.
func (s *Session) PlayEntry(entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.PlayEntry(s.view.Visible(), entryID)
}

func (s *Session) Next() error     { return s.controller.Next() }
func (s *Session) Previous() error { return s.controller.Previous() }
func (s *Session) Ended() error    { return s.controller.Ended() }
func (s *Session) Close() error    { return s.controller.Close() }

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		PlaylistID: s.view.PlaylistID(),
		Filter:     s.view.Filter(),
		Sort:       s.view.SortType(),
		Visible:    s.view.Visible(),
		Degraded:   s.degraded,
		Player:     s.controller.Snapshot(),
	}
}
