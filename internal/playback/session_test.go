package playback

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"testing"

	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/shared"
	th "github.com/desertthunder/ytplaylists/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryLibrary is an in-memory [Library]. Err, when set, fails every mutation.
type memoryLibrary struct {
	mu        sync.Mutex
	playlists map[string]*models.Playlist
	nextID    int
	err       error
}

func newMemoryLibrary(playlists ...*models.Playlist) *memoryLibrary {
	l := &memoryLibrary{playlists: map[string]*models.Playlist{}}
	for _, p := range playlists {
		l.playlists[p.ID] = p
	}
	return l
}

func (l *memoryLibrary) get(id string) (*models.Playlist, error) {
	p, ok := l.playlists[id]
	if !ok {
		return nil, fmt.Errorf("%w: Playlist not found", shared.ErrNotFound)
	}
	return p, nil
}

func (l *memoryLibrary) copyOf(p *models.Playlist) *models.Playlist {
	out := *p
	out.Songs = slices.Clone(p.Songs)
	return &out
}

func (l *memoryLibrary) GetPlaylist(_ context.Context, id string) (*models.Playlist, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, err := l.get(id)
	if err != nil {
		return nil, err
	}
	return l.copyOf(p), nil
}

func (l *memoryLibrary) AddSong(_ context.Context, playlistID, youtubeID string) (*models.Playlist, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	p, err := l.get(playlistID)
	if err != nil {
		return nil, err
	}
	l.nextID++
	p.Songs = append(p.Songs, models.SongEntry{EntryID: fmt.Sprintf("new%d", l.nextID), YouTubeID: youtubeID})
	return l.copyOf(p), nil
}

func (l *memoryLibrary) RemoveSong(_ context.Context, playlistID, entryID string) (*models.Playlist, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	p, err := l.get(playlistID)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(p.Songs, func(s models.SongEntry) bool { return s.EntryID == entryID })
	if i < 0 {
		return nil, fmt.Errorf("%w: Song not found in playlist", shared.ErrNotFound)
	}
	p.Songs = slices.Delete(p.Songs, i, i+1)
	return l.copyOf(p), nil
}

func (l *memoryLibrary) RateSongValue(_ context.Context, playlistID, entryID string, rating int) (*models.SongEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	p, err := l.get(playlistID)
	if err != nil {
		return nil, err
	}
	for i := range p.Songs {
		if p.Songs[i].EntryID == entryID {
			p.Songs[i].Rating = rating
			s := p.Songs[i]
			return &s, nil
		}
	}
	return nil, fmt.Errorf("%w: Song not found in playlist", shared.ErrNotFound)
}

// gatedSource blocks each Videos call until release is closed.
type gatedSource struct {
	inner   MetadataSource
	started chan struct{}
	release chan struct{}
}

func (g *gatedSource) Videos(ctx context.Context, ids []string) (map[string]models.VideoMetadata, error) {
	g.started <- struct{}{}
	<-g.release
	return g.inner.Videos(ctx, ids)
}

func fixture() (*memoryLibrary, *th.MockProvider) {
	lib := newMemoryLibrary(
		&models.Playlist{ID: "pl1", OwnerID: "u", Name: "One", Songs: []models.SongEntry{
			{EntryID: "A", YouTubeID: "ya"},
			{EntryID: "B", YouTubeID: "yb", Rating: 4},
			{EntryID: "C", YouTubeID: "yc"},
		}},
		&models.Playlist{ID: "pl2", OwnerID: "u", Name: "Two", Songs: []models.SongEntry{
			{EntryID: "X", YouTubeID: "yx"},
		}},
	)
	provider := th.NewMockProvider(
		models.VideoMetadata{ID: "ya", Title: "Cat Song"},
		models.VideoMetadata{ID: "yb", Title: "Dog Song"},
		models.VideoMetadata{ID: "yc", Title: "Bird Cat"},
		models.VideoMetadata{ID: "yx", Title: "Xylophone"},
	)
	return lib, provider
}

func newTestSession(t *testing.T, lib Library, source MetadataSource) (*Session, *recordingPlayer) {
	t.Helper()
	player := &recordingPlayer{}
	return NewSession(lib, source, player, shared.NewLogger(io.Discard)), player
}

func titles(es []models.EnrichedSongEntry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Title()
	}
	return out
}

func TestSessionOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("loads and enriches", func(t *testing.T) {
		lib, provider := fixture()
		s, _ := newTestSession(t, lib, provider)

		require.NoError(t, s.Open(ctx, "pl1"))
		assert.Equal(t, []string{"Cat Song", "Dog Song", "Bird Cat"}, titles(s.Visible()))
		assert.False(t, s.Snapshot().Degraded)
	})

	t.Run("missing metadata uses the sentinel", func(t *testing.T) {
		lib, _ := fixture()
		s, _ := newTestSession(t, lib, th.NewMockProvider(models.VideoMetadata{ID: "ya", Title: "Cat Song"}))

		require.NoError(t, s.Open(ctx, "pl1"))
		visible := s.Visible()
		assert.Equal(t, []string{"Cat Song", models.UnknownTitle, models.UnknownTitle}, titles(visible))
		assert.Equal(t, models.PlaceholderThumbnail, visible[1].Thumbnail())
	})

	t.Run("upstream failure is degraded mode", func(t *testing.T) {
		lib, provider := fixture()
		provider.Err = fmt.Errorf("%w: quota", shared.ErrUpstream)
		s, player := newTestSession(t, lib, provider)

		require.NoError(t, s.Open(ctx, "pl1"))
		assert.True(t, s.Snapshot().Degraded)
		assert.Len(t, s.Visible(), 3)

		require.NoError(t, s.Start())
		assert.Equal(t, "ya", player.last())
	})

	t.Run("unknown playlist", func(t *testing.T) {
		lib, provider := fixture()
		s, _ := newTestSession(t, lib, provider)
		assert.ErrorIs(t, s.Open(ctx, "nope"), shared.ErrNotFound)
	})

	t.Run("switching playlists resets playback", func(t *testing.T) {
		lib, provider := fixture()
		s, player := newTestSession(t, lib, provider)

		require.NoError(t, s.Open(ctx, "pl1"))
		require.NoError(t, s.Start())
		require.NoError(t, s.Open(ctx, "pl2"))

		snap := s.Snapshot()
		assert.Equal(t, "pl2", snap.PlaylistID)
		assert.Empty(t, snap.Player.Queue)
		assert.Equal(t, -1, snap.Player.CurrentIndex)
		assert.Equal(t, 1, player.stops)
	})
}

func TestSessionDiscardsStaleMetadata(t *testing.T) {
	ctx := context.Background()
	lib, provider := fixture()
	gate := &gatedSource{inner: provider, started: make(chan struct{}, 2), release: make(chan struct{})}
	s, _ := newTestSession(t, lib, gate)

	first, err := s.Select(ctx, "pl1")
	require.NoError(t, err)

	done := make(chan error)
	go func() { done <- s.Enrich(ctx, first) }()
	<-gate.started

	second, err := s.Select(ctx, "pl2")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	close(gate.release)
	require.NoError(t, <-done)

	assert.Equal(t, "pl2", s.Snapshot().PlaylistID)
	assert.Equal(t, []string{models.UnknownTitle}, titles(s.Visible()))

	require.NoError(t, s.Enrich(ctx, second))
	<-gate.started
	assert.Equal(t, []string{"Xylophone"}, titles(s.Visible()))
}

func TestSessionDiscardsMetadataForDeletedEntry(t *testing.T) {
	ctx := context.Background()
	lib, provider := fixture()
	gate := &gatedSource{inner: provider, started: make(chan struct{}, 2), release: make(chan struct{})}
	s, _ := newTestSession(t, lib, gate)

	tok, err := s.Select(ctx, "pl1")
	require.NoError(t, err)

	done := make(chan error)
	go func() { done <- s.Enrich(ctx, tok) }()
	<-gate.started

	require.NoError(t, s.Delete(ctx, "B"))
	close(gate.release)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"A", "C"}, entryIDs(s.Visible()))
	assert.Equal(t, []string{"Cat Song", "Bird Cat"}, titles(s.Visible()))
}

func TestSessionEdits(t *testing.T) {
	ctx := context.Background()

	t.Run("delete current entry plays successor", func(t *testing.T) {
		lib, provider := fixture()
		s, player := newTestSession(t, lib, provider)
		require.NoError(t, s.Open(ctx, "pl1"))
		require.NoError(t, s.Start())
		require.NoError(t, s.Next())

		require.NoError(t, s.Delete(ctx, "B"))
		snap := s.Snapshot()
		assert.Equal(t, []string{"A", "C"}, entryIDs(snap.Player.Queue))
		assert.Equal(t, 1, snap.Player.CurrentIndex)
		assert.Equal(t, "yc", player.last())
		assert.NotContains(t, entryIDs(s.Visible()), "B")

		stored, err := lib.GetPlaylist(ctx, "pl1")
		require.NoError(t, err)
		assert.Len(t, stored.Songs, 2)
	})

	t.Run("store failure leaves state unchanged", func(t *testing.T) {
		lib, provider := fixture()
		s, _ := newTestSession(t, lib, provider)
		require.NoError(t, s.Open(ctx, "pl1"))
		require.NoError(t, s.Start())
		before := s.Snapshot()

		lib.err = fmt.Errorf("%w: disk full", shared.ErrServiceUnavailable)
		assert.Error(t, s.Delete(ctx, "A"))
		assert.Error(t, s.Rate(ctx, "A", 5))
		_, err := s.Add(ctx, "yz")
		assert.Error(t, err)

		assert.Equal(t, before, s.Snapshot())
	})

	t.Run("vanished entry is resolved locally", func(t *testing.T) {
		lib, provider := fixture()
		s, _ := newTestSession(t, lib, provider)
		require.NoError(t, s.Open(ctx, "pl1"))

		_, err := lib.RemoveSong(ctx, "pl1", "C")
		require.NoError(t, err)

		require.NoError(t, s.Rate(ctx, "C", 7))
		assert.Equal(t, []string{"A", "B"}, entryIDs(s.Visible()))
		require.NoError(t, s.Delete(ctx, "C"))
	})

	t.Run("rate updates view and queue", func(t *testing.T) {
		lib, provider := fixture()
		s, _ := newTestSession(t, lib, provider)
		require.NoError(t, s.Open(ctx, "pl1"))
		require.NoError(t, s.Start())
		s.Sort(SortRating)

		require.NoError(t, s.Rate(ctx, "C", 9))
		assert.Equal(t, []string{"C", "B", "A"}, entryIDs(s.Visible()))
		assert.Equal(t, 9, s.Snapshot().Player.Queue[2].Rating)
	})

	t.Run("add enriches the new entry", func(t *testing.T) {
		lib, provider := fixture()
		s, _ := newTestSession(t, lib, provider)
		require.NoError(t, s.Open(ctx, "pl1"))

		entry, err := s.Add(ctx, "yx")
		require.NoError(t, err)
		visible := s.Visible()
		require.Len(t, visible, 4)
		assert.Equal(t, entry.EntryID, visible[3].EntryID)
		assert.Equal(t, "Xylophone", visible[3].Title())
	})

	t.Run("no playlist selected", func(t *testing.T) {
		lib, provider := fixture()
		s, _ := newTestSession(t, lib, provider)
		assert.ErrorIs(t, s.Delete(ctx, "A"), ErrNoPlaylist)
		assert.ErrorIs(t, s.Start(), ErrQueueEmpty)
	})
}

func TestSessionFilterSortPlay(t *testing.T) {
	ctx := context.Background()
	lib, provider := fixture()
	s, player := newTestSession(t, lib, provider)
	require.NoError(t, s.Open(ctx, "pl1"))

	s.SetFilter("cat")
	s.Sort(SortName)
	assert.Equal(t, []string{"Bird Cat", "Cat Song"}, titles(s.Visible()))

	require.NoError(t, s.PlayAt(1))
	assert.Equal(t, "ya", player.last())
	assert.Equal(t, []string{"A"}, entryIDs(s.Snapshot().Player.Queue))

	require.NoError(t, s.PlayEntry("C"))
	assert.Equal(t, []string{"C", "A"}, entryIDs(s.Snapshot().Player.Queue))

	s.SetFilter("")
	assert.Equal(t, []string{"Bird Cat", "Cat Song", "Dog Song"}, titles(s.Visible()))

	require.NoError(t, s.Close())
	require.NoError(t, s.Resume())
	assert.Equal(t, "yc", player.last())
	require.NoError(t, s.Ended())
	require.NoError(t, s.Ended())
	assert.Equal(t, StateIdle, s.Snapshot().Player.State)
}
