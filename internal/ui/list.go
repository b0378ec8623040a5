package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ytplaylists/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = songItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist *models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	if len(i.playlist.Songs) == 1 {
		return "1 song"
	}
	return fmt.Sprintf("%d songs", len(i.playlist.Songs))
}

// songItem wraps [models.EnrichedSongEntry] to implement [list.Item].
type songItem struct {
	song    models.EnrichedSongEntry
	playing bool
}

func (i songItem) FilterValue() string { return i.song.Title() }

func (i songItem) Title() string {
	if i.playing {
		return "▶ " + i.song.Title()
	}
	return i.song.Title()
}

func (i songItem) Description() string {
	var parts []string
	if m := i.song.Metadata; m != nil {
		if m.ChannelTitle != "" {
			parts = append(parts, m.ChannelTitle)
		}
		if m.Duration != "" {
			parts = append(parts, m.Duration)
		}
	}
	parts = append(parts, theme.rating(i.song.Rating))
	return strings.Join(parts, " • ")
}
