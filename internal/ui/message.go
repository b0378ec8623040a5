package ui

import (
	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/playback"
)

// playlistsFetchedMsg carries the user's playlists.
type playlistsFetchedMsg struct {
	playlists []*models.Playlist
	err       error
}

// playlistOpenedMsg reports that a playlist was loaded into the session.
type playlistOpenedMsg struct {
	playlist *models.Playlist
	err      error
}

// actionDoneMsg reports the outcome of a store-backed edit.
type actionDoneMsg struct {
	status string
	err    error
}

// playerEventMsg forwards a controller event.
type playerEventMsg playback.Event
