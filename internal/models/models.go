// package models defines the data model for the playlist manager
package models

import (
	"context"
	"encoding/json"
	"time"
)

const (
	// MinRating and MaxRating bound a set rating. Zero means unrated.
	MinRating = 1
	MaxRating = 10

	// UnknownTitle is shown for entries whose metadata lookup failed.
	UnknownTitle = "Unknown Title"
	// PlaceholderThumbnail is shown for entries whose metadata lookup failed.
	PlaceholderThumbnail = "https://via.placeholder.com/120x90"
)

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName,omitempty"`
	AvatarRef    string    `json:"avatarRef"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Playlist is a user-owned, ordered collection of [SongEntry].
type Playlist struct {
	ID      string      `json:"id"`
	OwnerID string      `json:"ownerId"`
	Name    string      `json:"name"`
	Songs   []SongEntry `json:"songs"`
}

// Entry returns the song entry with the given id.
func (p *Playlist) Entry(entryID string) (SongEntry, bool) {
	for _, s := range p.Songs {
		if s.EntryID == entryID {
			return s, true
		}
	}
	return SongEntry{}, false
}

// YouTubeIDs returns the distinct video ids referenced by the playlist in first-seen order.
func (p *Playlist) YouTubeIDs() []string {
	seen := make(map[string]bool, len(p.Songs))
	ids := make([]string, 0, len(p.Songs))
	for _, s := range p.Songs {
		if !seen[s.YouTubeID] {
			seen[s.YouTubeID] = true
			ids = append(ids, s.YouTubeID)
		}
	}
	return ids
}

// SongEntry is one playlist line item. A Rating of 0 means the entry is unrated
// and is encoded as null.
type SongEntry struct {
	EntryID   string
	YouTubeID string
	Rating    int
}

// Rated reports whether the entry has been given a rating.
func (s SongEntry) Rated() bool { return s.Rating != 0 }

type songEntryJSON struct {
	EntryID   string `json:"entryId"`
	YouTubeID string `json:"youtubeId"`
	Rating    *int   `json:"rating"`
}

func (s SongEntry) MarshalJSON() ([]byte, error) {
	out := songEntryJSON{EntryID: s.EntryID, YouTubeID: s.YouTubeID}
	if s.Rated() {
		r := s.Rating
		out.Rating = &r
	}
	return json.Marshal(out)
}

func (s *SongEntry) UnmarshalJSON(data []byte) error {
	var in songEntryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.EntryID, s.YouTubeID, s.Rating = in.EntryID, in.YouTubeID, 0
	if in.Rating != nil {
		s.Rating = *in.Rating
	}
	return nil
}

// VideoMetadata is what the video provider knows about one video id.
type VideoMetadata struct {
	ID              string `json:"videoId"`
	Title           string `json:"title"`
	ThumbnailURL    string `json:"thumbnail"`
	ChannelTitle    string `json:"channelTitle,omitempty"`
	Description     string `json:"description,omitempty"`
	DurationISO8601 string `json:"durationIso8601,omitempty"`
	Duration        string `json:"duration,omitempty"`
	ViewCount       string `json:"viewCount,omitempty"`
	PublishedAt     string `json:"publishedAt,omitempty"`
}

// EnrichedSongEntry joins a [SongEntry] with its metadata. Metadata is nil when the
// provider had no match or was unavailable.
type EnrichedSongEntry struct {
	SongEntry
	Metadata *VideoMetadata
}

// Title returns the video title or [UnknownTitle].
func (e EnrichedSongEntry) Title() string {
	if e.Metadata == nil || e.Metadata.Title == "" {
		return UnknownTitle
	}
	return e.Metadata.Title
}

// Thumbnail returns the thumbnail url or [PlaceholderThumbnail].
func (e EnrichedSongEntry) Thumbnail() string {
	if e.Metadata == nil || e.Metadata.ThumbnailURL == "" {
		return PlaceholderThumbnail
	}
	return e.Metadata.ThumbnailURL
}

type enrichedJSON struct {
	songEntryJSON
	Title     string         `json:"title"`
	Thumbnail string         `json:"thumbnail"`
	Metadata  *VideoMetadata `json:"metadata"`
}

func (e EnrichedSongEntry) MarshalJSON() ([]byte, error) {
	out := enrichedJSON{
		songEntryJSON: songEntryJSON{EntryID: e.EntryID, YouTubeID: e.YouTubeID},
		Title:         e.Title(),
		Thumbnail:     e.Thumbnail(),
		Metadata:      e.Metadata,
	}
	if e.Rated() {
		r := e.Rating
		out.Rating = &r
	}
	return json.Marshal(out)
}

// Enrich joins songs with metadata by video id, preserving song order.
func Enrich(songs []SongEntry, metadata map[string]VideoMetadata) []EnrichedSongEntry {
	out := make([]EnrichedSongEntry, len(songs))
	for i, s := range songs {
		out[i] = EnrichedSongEntry{SongEntry: s}
		if m, ok := metadata[s.YouTubeID]; ok {
			out[i].Metadata = &m
		}
	}
	return out
}

// PlaylistExport is a playlist joined with whatever video metadata was available when it
// was exported.
type PlaylistExport struct {
	Playlist   Playlist            `json:"playlist"`
	Owner      string              `json:"owner"`
	Songs      []EnrichedSongEntry `json:"songs"`
	Degraded   bool                `json:"degraded,omitempty"`
	ExportedAt time.Time           `json:"exportedAt"`
}

// Backend is the persistence contract used by the playlist store.
//
// Every call is atomic on its own. Lookups of absent entities return an error wrapping
// shared.ErrNotFound, uniqueness violations wrap shared.ErrConflict.
type Backend interface {
	CreateUser(ctx context.Context, user *User) error            // CreateUser assigns ID and CreatedAt and inserts the user
	GetUser(ctx context.Context, username string) (*User, error) // GetUser looks a user up by username
	EmailExists(ctx context.Context, email string) (bool, error) // EmailExists reports whether the email is registered
	DeleteUser(ctx context.Context, username string) error       // DeleteUser removes the user and cascades to owned playlists

	CreatePlaylist(ctx context.Context, playlist *Playlist) error           // CreatePlaylist assigns ID and inserts an empty playlist
	GetPlaylist(ctx context.Context, id string) (*Playlist, error)          // GetPlaylist returns a playlist with its songs in order
	RenamePlaylist(ctx context.Context, id, name string) error              // RenamePlaylist updates the playlist name
	DeletePlaylist(ctx context.Context, id string) error                    // DeletePlaylist removes the playlist and its songs
	ListPlaylists(ctx context.Context, ownerID string) ([]*Playlist, error) // ListPlaylists returns the owner's playlists in insertion order

	AddSong(ctx context.Context, playlistID string, entry *SongEntry) error      // AddSong assigns EntryID and appends the entry
	RemoveSong(ctx context.Context, playlistID, entryID string) error            // RemoveSong deletes one entry
	SetRating(ctx context.Context, playlistID, entryID string, rating int) error // SetRating updates one entry's rating

	Close() error
}
