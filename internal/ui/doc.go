// Package ui implements an interactive terminal player using bubbletea's Elm architecture.
//
// The TUI has two main views:
//  1. [PlaylistListView] : Browse the user's playlists
//  2. [SongListView] : Filter, sort, rate, add and delete songs, and drive playback
//
// Filtering, adding a song and confirming a delete are modal views layered on the song list.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern. Store edits run as commands
// through a playback.Session so the queue stays consistent, and controller events arrive as messages.
//
// [BrowserPlayer] opens each video in the system browser. Since the browser cannot report the end of a
// video, the e key tells the player it finished, which advances the queue.
//
// Keyboard navigation uses vim-style bindings with contextual help displayed via charmbracelet/bubbles/help.
package ui
