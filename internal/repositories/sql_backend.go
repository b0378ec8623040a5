package repositories

import (
	"context"
	"database/sql"

	"github.com/desertthunder/ytplaylists/internal/models"
)

var _ models.Backend = (*SQLBackend)(nil)

// SQLBackend implements [models.Backend] on SQLite.
type SQLBackend struct {
	db        *sql.DB
	users     *UserRepository
	playlists *PlaylistRepository
	songs     *SongRepository
}

// NewSQLBackend wraps a migrated database.
func NewSQLBackend(db *sql.DB) *SQLBackend {
	return &SQLBackend{
		db:        db,
		users:     NewUserRepository(db),
		playlists: NewPlaylistRepository(db),
		songs:     NewSongRepository(db),
	}
}

func (b *SQLBackend) CreateUser(ctx context.Context, user *models.User) error {
	return b.users.Create(ctx, user)
}

func (b *SQLBackend) GetUser(ctx context.Context, username string) (*models.User, error) {
	return b.users.GetByUsername(ctx, username)
}

func (b *SQLBackend) EmailExists(ctx context.Context, email string) (bool, error) {
	return b.users.EmailExists(ctx, email)
}

func (b *SQLBackend) DeleteUser(ctx context.Context, username string) error {
	return b.users.DeleteByUsername(ctx, username)
}

func (b *SQLBackend) CreatePlaylist(ctx context.Context, playlist *models.Playlist) error {
	return b.playlists.Create(ctx, playlist)
}

// GetPlaylist returns the playlist with its songs in insertion order.
func (b *SQLBackend) GetPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	p, err := b.playlists.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Songs, err = b.songs.ListByPlaylist(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (b *SQLBackend) RenamePlaylist(ctx context.Context, id, name string) error {
	return b.playlists.Rename(ctx, id, name)
}

func (b *SQLBackend) DeletePlaylist(ctx context.Context, id string) error {
	return b.playlists.Delete(ctx, id)
}

// ListPlaylists returns the owner's playlists with their songs.
func (b *SQLBackend) ListPlaylists(ctx context.Context, ownerID string) ([]*models.Playlist, error) {
	playlists, err := b.playlists.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	for _, p := range playlists {
		if p.Songs, err = b.songs.ListByPlaylist(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return playlists, nil
}

func (b *SQLBackend) AddSong(ctx context.Context, playlistID string, entry *models.SongEntry) error {
	return b.songs.Add(ctx, playlistID, entry)
}

func (b *SQLBackend) RemoveSong(ctx context.Context, playlistID, entryID string) error {
	return b.songs.Remove(ctx, playlistID, entryID)
}

func (b *SQLBackend) SetRating(ctx context.Context, playlistID, entryID string, rating int) error {
	return b.songs.SetRating(ctx, playlistID, entryID, rating)
}

func (b *SQLBackend) Close() error {
	return b.db.Close()
}
