package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/playback"
	"github.com/desertthunder/ytplaylists/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	SongListView
	FilterView
	AddSongView
	ConfirmDeleteView
)

// Library lists a user's playlists.
type Library interface {
	ListPlaylistsForUser(ctx context.Context, username string) ([]*models.Playlist, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	username string
	library  Library
	session  *playback.Session
	player   *BrowserPlayer

	width        int
	height       int
	playlistList list.Model
	songList     list.Model
	input        textinput.Model
	playlistName string
	pending      *models.EnrichedSongEntry

	status string
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model for username. player may be nil when the session drives
// a player that cannot be told a video finished.
func NewModel(ctx context.Context, username string, library Library, session *playback.Session, player *BrowserPlayer) *Model {
	input := textinput.New()
	input.CharLimit = 200

	playlistList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	playlistList.Title = fmt.Sprintf("%s's playlists", username)

	songList := list.New(nil, theme.songDelegate(), 0, 0)
	songList.SetFilteringEnabled(false)

	return &Model{
		ctx:          ctx,
		view:         PlaylistListView,
		username:     username,
		library:      library,
		session:      session,
		player:       player,
		playlistList: playlistList,
		songList:     songList,
		input:        input,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init fetches the user's playlists and starts listening for player events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchPlaylists(), m.waitForEvent())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.songList.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case SongListView:
			return m.handleSongListKeys(msg)
		case FilterView:
			return m.handleFilterKeys(msg)
		case AddSongView:
			return m.handleAddSongKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		return m, m.playlistList.SetItems(items)

	case playlistOpenedMsg:
		if errors.Is(msg.err, playback.ErrSelectionChanged) {
			return m, nil
		}
		m.setResult("", msg.err)
		if msg.err == nil {
			m.playlistName = msg.playlist.Name
			m.view = SongListView
			m.songList.Select(0)
		}
		return m, m.refreshSongs()

	case actionDoneMsg:
		m.setResult(msg.status, msg.err)
		return m, m.refreshSongs()

	case playerEventMsg:
		m.status = describeEvent(playback.Event(msg))
		return m, tea.Batch(m.refreshSongs(), m.waitForEvent())
	}

	return m.updateLists(msg)
}

func (m *Model) setResult(status string, err error) {
	m.status = status
	m.err = err
}

func describeEvent(e playback.Event) string {
	switch e.Type {
	case playback.EventTrackStarted:
		if e.Entry != nil {
			return fmt.Sprintf("Playing: %s", e.Entry.Title())
		}
	case playback.EventQueueEnded:
		return "Reached the end of the queue"
	case playback.EventStateChanged:
		return "Stopped"
	}
	return ""
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case PlaylistListView:
		body = m.renderPlaylistList()
	case SongListView:
		body = m.renderSongList()
	case FilterView:
		body = m.renderPrompt("Filter songs by title")
	case AddSongView:
		body = m.renderPrompt("Add a YouTube video ID")
	case ConfirmDeleteView:
		body = m.renderConfirm()
	}

	if m.err != nil {
		body += "\n" + theme.failure.Render("Error: "+shared.Message(m.err))
	}
	return body
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.err = nil
			return m, m.openPlaylist(pl.playlist)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) selectedSong() (models.EnrichedSongEntry, bool) {
	item, ok := m.songList.SelectedItem().(songItem)
	return item.song, ok
}

func (m *Model) handleSongListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.session.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.back):
		m.session.Close()
		m.setResult("", nil)
		m.view = PlaylistListView
		return m, m.fetchPlaylists()

	case key.Matches(msg, m.keys.filter):
		m.input.SetValue(m.session.Snapshot().Filter)
		m.input.Placeholder = "title contains..."
		m.input.Focus()
		m.view = FilterView
		return m, textinput.Blink

	case key.Matches(msg, m.keys.sort):
		next := (m.session.Snapshot().Sort + 1) % (playback.SortRating + 1)
		m.session.Sort(next)
		m.status = "Sorted by " + next.String()
		return m, m.refreshSongs()

	case key.Matches(msg, m.keys.rate):
		song, ok := m.selectedSong()
		if !ok {
			return m, nil
		}
		rating := int(msg.String()[0] - '0')
		if rating == 0 {
			rating = models.MaxRating
		}
		return m, m.rateSong(song, rating)

	case key.Matches(msg, m.keys.add):
		m.input.SetValue("")
		m.input.Placeholder = "dQw4w9WgXcQ"
		m.input.Focus()
		m.view = AddSongView
		return m, textinput.Blink

	case key.Matches(msg, m.keys.remove):
		if song, ok := m.selectedSong(); ok {
			m.pending = &song
			m.view = ConfirmDeleteView
		}
		return m, nil

	case key.Matches(msg, m.keys.enter):
		if song, ok := m.selectedSong(); ok {
			m.setResult("", m.session.PlayEntry(song.EntryID))
		}
		return m, m.refreshSongs()
	case key.Matches(msg, m.keys.start):
		m.setResult("", m.session.Start())
		return m, m.refreshSongs()
	case key.Matches(msg, m.keys.resume):
		m.setResult("", m.session.Resume())
		return m, m.refreshSongs()
	case key.Matches(msg, m.keys.next):
		m.setResult("", m.session.Next())
		return m, m.refreshSongs()
	case key.Matches(msg, m.keys.previous):
		m.setResult("", m.session.Previous())
		return m, m.refreshSongs()
	case key.Matches(msg, m.keys.ended):
		if m.player != nil {
			m.player.Finish()
		} else {
			m.setResult("", m.session.Ended())
		}
		return m, m.refreshSongs()
	case key.Matches(msg, m.keys.stop):
		m.setResult("Stopped", m.session.Close())
		return m, m.refreshSongs()
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.input.Blur()
		m.view = SongListView
		return m, nil
	case tea.KeyEsc:
		m.input.Blur()
		m.session.SetFilter("")
		m.view = SongListView
		return m, m.refreshSongs()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.session.SetFilter(m.input.Value())
	m.songList.Select(0)
	return m, tea.Batch(cmd, m.refreshSongs())
}

func (m *Model) handleAddSongKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.input.Blur()
		m.view = SongListView
		return m, m.addSong(m.input.Value())
	case tea.KeyEsc:
		m.input.Blur()
		m.view = SongListView
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		song := m.pending
		m.pending = nil
		m.view = SongListView
		return m, m.deleteSong(*song)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.pending = nil
		m.view = SongListView
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case SongListView:
		m.songList, cmd = m.songList.Update(msg)
	}
	return m, cmd
}

// refreshSongs rebuilds the song list from the session's visible entries.
func (m *Model) refreshSongs() tea.Cmd {
	snap := m.session.Snapshot()

	var playing string
	if snap.Player.Current != nil && snap.Player.State == playback.StatePlaying {
		playing = snap.Player.Current.EntryID
	}

	items := make([]list.Item, len(snap.Visible))
	for i, song := range snap.Visible {
		items[i] = songItem{song: song, playing: song.EntryID == playing}
	}
	m.songList.Title = m.playlistName
	return m.songList.SetItems(items)
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.library.ListPlaylistsForUser(m.ctx, m.username)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) openPlaylist(playlist *models.Playlist) tea.Cmd {
	return func() tea.Msg {
		tok, err := m.session.Select(m.ctx, playlist.ID)
		if err != nil {
			return playlistOpenedMsg{err: err}
		}
		if err := m.session.Enrich(m.ctx, tok); err != nil {
			return playlistOpenedMsg{err: err}
		}
		return playlistOpenedMsg{playlist: playlist}
	}
}

func (m *Model) rateSong(song models.EnrichedSongEntry, rating int) tea.Cmd {
	return func() tea.Msg {
		err := m.session.Rate(m.ctx, song.EntryID, rating)
		return actionDoneMsg{status: fmt.Sprintf("Rated %s %d/%d", song.Title(), rating, models.MaxRating), err: err}
	}
}

func (m *Model) addSong(youtubeID string) tea.Cmd {
	return func() tea.Msg {
		entry, err := m.session.Add(m.ctx, youtubeID)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: "Added " + entry.YouTubeID}
	}
}

func (m *Model) deleteSong(song models.EnrichedSongEntry) tea.Cmd {
	return func() tea.Msg {
		err := m.session.Delete(m.ctx, song.EntryID)
		return actionDoneMsg{status: "Deleted " + song.Title(), err: err}
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.session.Controller().Events()
	return func() tea.Msg {
		select {
		case e := <-events:
			return playerEventMsg(e)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderNowPlaying(snap playback.SessionSnapshot) string {
	if snap.Player.State != playback.StatePlaying || snap.Player.Current == nil {
		return theme.idle.Render("■ Idle")
	}
	return theme.nowPlaying.Render(fmt.Sprintf("▶ %d/%d %s",
		snap.Player.CurrentIndex+1, len(snap.Player.Queue), snap.Player.Current.Title()))
}

func (m *Model) renderSongList() string {
	snap := m.session.Snapshot()

	var info []string
	info = append(info, "sort: "+snap.Sort.String())
	if snap.Filter != "" {
		info = append(info, fmt.Sprintf("filter: %q", snap.Filter))
	}
	if snap.Degraded {
		info = append(info, theme.degraded.Render("video details unavailable"))
	}

	header := fmt.Sprintf("%s\n%s", m.renderNowPlaying(snap), theme.hint.Render(strings.Join(info, " • ")))
	if m.status != "" {
		header += "\n" + m.status
	}

	helpKeys := []key.Binding{
		m.keys.enter, m.keys.start, m.keys.next, m.keys.previous, m.keys.ended, m.keys.stop,
		m.keys.filter, m.keys.sort, m.keys.rate, m.keys.add, m.keys.remove, m.keys.back,
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", header, m.songList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderPrompt(title string) string {
	return fmt.Sprintf("%s\n%s\n\n%s", theme.heading.Render(title), m.input.View(),
		theme.hint.Render("enter to confirm • esc to cancel"))
}

func (m *Model) renderConfirm() string {
	name := ""
	if m.pending != nil {
		name = m.pending.Title()
	}
	title := theme.heading.Render(fmt.Sprintf("Delete '%s' from %s?", name, m.playlistName))
	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s", title, m.help.ShortHelpView(helpKeys))
}
