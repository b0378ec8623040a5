package playback

import (
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/ytplaylists/internal/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortType selects the canonical song order.
type SortType int

const (
	SortNone   SortType = iota // Store insertion order
	SortName                   // Title, locale-aware ascending
	SortRating                 // Rating descending, unrated last
)

func (s SortType) String() string {
	switch s {
	case SortName:
		return "name"
	case SortRating:
		return "rating"
	default:
		return "none"
	}
}

func (s SortType) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SortType) UnmarshalText(text []byte) error {
	parsed, err := ParseSortType(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSortType accepts "none", "name" or "rating". The empty string is "none".
func ParseSortType(s string) (SortType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SortNone, nil
	case "name":
		return SortName, nil
	case "rating":
		return SortRating, nil
	default:
		return SortNone, fmt.Errorf("unknown sort type %q", s)
	}
}

// View holds a playlist's enriched songs in canonical order and derives the visible list.
//
// Sorting reorders the canonical list itself, so a filter applied after a sort sees the
// sorted order. A View is not safe for concurrent use.
type View struct {
	playlistID string
	songs      []models.EnrichedSongEntry
	position   map[string]int
	nextPos    int
	filter     string
	sort       SortType
	collator   *collate.Collator
}

// NewView returns an empty view.
func NewView() *View {
	return &View{
		songs:    []models.EnrichedSongEntry{},
		position: map[string]int{},
		collator: collate.New(language.Und),
	}
}

func (v *View) PlaylistID() string { return v.playlistID }
func (v *View) Filter() string     { return v.filter }
func (v *View) SortType() SortType { return v.sort }

// SetSongs replaces the canonical list with songs in store order and reapplies the sort.
func (v *View) SetSongs(playlistID string, songs []models.EnrichedSongEntry) {
	v.playlistID = playlistID
	v.songs = slices.Clone(songs)
	v.position = make(map[string]int, len(songs))
	for i, s := range songs {
		v.position[s.EntryID] = i
	}
	v.nextPos = len(songs)
	v.apply()
}

// Clear forgets the songs but keeps filter and sort.
func (v *View) Clear(playlistID string) {
	v.SetSongs(playlistID, nil)
}

// Songs returns the canonical list.
func (v *View) Songs() []models.EnrichedSongEntry {
	return slices.Clone(v.songs)
}

// SetFilter sets the case-insensitive title filter.
func (v *View) SetFilter(text string) {
	v.filter = text
}

// Sort reorders the canonical list.
func (v *View) Sort(t SortType) {
	v.sort = t
	v.apply()
}

func (v *View) apply() {
	switch v.sort {
	case SortName:
		slices.SortStableFunc(v.songs, func(a, b models.EnrichedSongEntry) int {
			return v.collator.CompareString(a.Title(), b.Title())
		})
	case SortRating:
		slices.SortStableFunc(v.songs, func(a, b models.EnrichedSongEntry) int {
			return b.Rating - a.Rating
		})
	default:
		slices.SortStableFunc(v.songs, func(a, b models.EnrichedSongEntry) int {
			return v.position[a.EntryID] - v.position[b.EntryID]
		})
	}
}

// Visible returns the canonical songs whose title contains the filter, ignoring case.
func (v *View) Visible() []models.EnrichedSongEntry {
	needle := strings.ToLower(v.filter)
	out := make([]models.EnrichedSongEntry, 0, len(v.songs))
	for _, s := range v.songs {
		if strings.Contains(strings.ToLower(s.Title()), needle) {
			out = append(out, s)
		}
	}
	return out
}

// Contains reports whether entryID is in the canonical list.
func (v *View) Contains(entryID string) bool {
	_, ok := v.position[entryID]
	return ok
}

// Add appends a new entry after every existing one in store order.
func (v *View) Add(entry models.EnrichedSongEntry) {
	v.position[entry.EntryID] = v.nextPos
	v.nextPos++
	v.songs = append(v.songs, entry)
	v.apply()
}

// UpdateRating sets an entry's rating, re-sorting when sorted by rating.
func (v *View) UpdateRating(entryID string, rating int) bool {
	i := v.index(entryID)
	if i < 0 {
		return false
	}
	v.songs[i].Rating = rating
	if v.sort == SortRating {
		v.apply()
	}
	return true
}

// Remove drops an entry from the canonical list.
func (v *View) Remove(entryID string) bool {
	i := v.index(entryID)
	if i < 0 {
		return false
	}
	v.songs = slices.Delete(v.songs, i, i+1)
	delete(v.position, entryID)
	return true
}

// ApplyMetadata attaches metadata to entries still present, by video id.
func (v *View) ApplyMetadata(metadata map[string]models.VideoMetadata) {
	for i := range v.songs {
		if m, ok := metadata[v.songs[i].YouTubeID]; ok {
			v.songs[i].Metadata = &m
		}
	}
	if v.sort == SortName {
		v.apply()
	}
}

func (v *View) index(entryID string) int {
	return slices.IndexFunc(v.songs, func(s models.EnrichedSongEntry) bool { return s.EntryID == entryID })
}
