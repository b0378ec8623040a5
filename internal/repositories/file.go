package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/shared"
)

var _ models.Backend = (*FileBackend)(nil)

// fileUser is the on-disk user record. Unlike [models.User] it keeps the password hash.
type fileUser struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName,omitempty"`
	AvatarRef    string    `json:"avatarRef"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u fileUser) model() *models.User {
	return &models.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		AvatarRef:    u.AvatarRef,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

type fileDocument struct {
	Users     []fileUser         `json:"users"`
	Playlists []*models.Playlist `json:"playlists"`
}

func (d *fileDocument) clone() *fileDocument {
	out := &fileDocument{
		Users:     slices.Clone(d.Users),
		Playlists: make([]*models.Playlist, len(d.Playlists)),
	}
	for i, p := range d.Playlists {
		out.Playlists[i] = copyPlaylist(p)
	}
	return out
}

func (d *fileDocument) user(username string) (int, bool) {
	idx := slices.IndexFunc(d.Users, func(u fileUser) bool { return u.Username == username })
	return idx, idx >= 0
}

func (d *fileDocument) playlist(id string) (*models.Playlist, bool) {
	idx := slices.IndexFunc(d.Playlists, func(p *models.Playlist) bool { return p.ID == id })
	if idx < 0 {
		return nil, false
	}
	return d.Playlists[idx], true
}

func copyPlaylist(p *models.Playlist) *models.Playlist {
	c := *p
	c.Songs = slices.Clone(p.Songs)
	if c.Songs == nil {
		c.Songs = []models.SongEntry{}
	}
	return &c
}

// FileBackend implements [models.Backend] on a single JSON document.
//
// Every mutation is applied to a copy of the document, written to a temporary file and
// renamed over the original; the in-memory state only changes once the rename succeeds.
type FileBackend struct {
	mu   sync.Mutex
	path string
	doc  *fileDocument
}

// NewFileBackend loads the document at path, starting empty when the file does not exist yet.
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: file backend requires a path", shared.ErrInvalidConfig)
	}

	b := &FileBackend{path: path, doc: &fileDocument{}}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return b, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, b.doc); err != nil {
			return nil, fmt.Errorf("failed to parse data file %s: %w", path, err)
		}
	}
	return b, nil
}

// mutate applies fn to a copy of the document and persists it.
func (b *FileBackend) mutate(fn func(doc *fileDocument) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.doc.clone()
	if err := fn(next); err != nil {
		return err
	}

	if err := b.write(next); err != nil {
		return err
	}

	b.doc = next
	return nil
}

func (b *FileBackend) read(fn func(doc *fileDocument) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return fn(b.doc)
}

func (b *FileBackend) write(doc *fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data file: %w", err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}

func (b *FileBackend) CreateUser(_ context.Context, user *models.User) error {
	return b.mutate(func(doc *fileDocument) error {
		if _, taken := doc.user(user.Username); taken {
			return errUsernameTaken
		}
		if slices.ContainsFunc(doc.Users, func(u fileUser) bool { return u.Email == user.Email }) {
			return errEmailTaken
		}

		user.ID = shared.GenerateID()
		user.CreatedAt = time.Now().UTC()
		doc.Users = append(doc.Users, fileUser{
			ID:           user.ID,
			Username:     user.Username,
			Email:        user.Email,
			FirstName:    user.FirstName,
			LastName:     user.LastName,
			AvatarRef:    user.AvatarRef,
			PasswordHash: user.PasswordHash,
			CreatedAt:    user.CreatedAt,
		})
		return nil
	})
}

func (b *FileBackend) GetUser(_ context.Context, username string) (*models.User, error) {
	var user *models.User
	err := b.read(func(doc *fileDocument) error {
		idx, ok := doc.user(username)
		if !ok {
			return errUserNotFound
		}
		user = doc.Users[idx].model()
		return nil
	})
	return user, err
}

func (b *FileBackend) EmailExists(_ context.Context, email string) (bool, error) {
	var exists bool
	err := b.read(func(doc *fileDocument) error {
		exists = slices.ContainsFunc(doc.Users, func(u fileUser) bool { return u.Email == email })
		return nil
	})
	return exists, err
}

// DeleteUser removes the user and every playlist they own in the same write.
func (b *FileBackend) DeleteUser(_ context.Context, username string) error {
	return b.mutate(func(doc *fileDocument) error {
		idx, ok := doc.user(username)
		if !ok {
			return errUserNotFound
		}
		ownerID := doc.Users[idx].ID
		doc.Users = slices.Delete(doc.Users, idx, idx+1)
		doc.Playlists = slices.DeleteFunc(doc.Playlists, func(p *models.Playlist) bool { return p.OwnerID == ownerID })
		return nil
	})
}

func (b *FileBackend) CreatePlaylist(_ context.Context, playlist *models.Playlist) error {
	return b.mutate(func(doc *fileDocument) error {
		if !slices.ContainsFunc(doc.Users, func(u fileUser) bool { return u.ID == playlist.OwnerID }) {
			return errUserNotFound
		}

		playlist.ID = shared.GenerateID()
		playlist.Songs = []models.SongEntry{}
		doc.Playlists = append(doc.Playlists, copyPlaylist(playlist))
		return nil
	})
}

func (b *FileBackend) GetPlaylist(_ context.Context, id string) (*models.Playlist, error) {
	var playlist *models.Playlist
	err := b.read(func(doc *fileDocument) error {
		p, ok := doc.playlist(id)
		if !ok {
			return errPlaylistNotFound
		}
		playlist = copyPlaylist(p)
		return nil
	})
	return playlist, err
}

func (b *FileBackend) RenamePlaylist(_ context.Context, id, name string) error {
	return b.mutate(func(doc *fileDocument) error {
		p, ok := doc.playlist(id)
		if !ok {
			return errPlaylistNotFound
		}
		p.Name = name
		return nil
	})
}

func (b *FileBackend) DeletePlaylist(_ context.Context, id string) error {
	return b.mutate(func(doc *fileDocument) error {
		before := len(doc.Playlists)
		doc.Playlists = slices.DeleteFunc(doc.Playlists, func(p *models.Playlist) bool { return p.ID == id })
		if len(doc.Playlists) == before {
			return errPlaylistNotFound
		}
		return nil
	})
}

func (b *FileBackend) ListPlaylists(_ context.Context, ownerID string) ([]*models.Playlist, error) {
	playlists := []*models.Playlist{}
	err := b.read(func(doc *fileDocument) error {
		for _, p := range doc.Playlists {
			if p.OwnerID == ownerID {
				playlists = append(playlists, copyPlaylist(p))
			}
		}
		return nil
	})
	return playlists, err
}

func (b *FileBackend) AddSong(_ context.Context, playlistID string, entry *models.SongEntry) error {
	return b.mutate(func(doc *fileDocument) error {
		p, ok := doc.playlist(playlistID)
		if !ok {
			return errPlaylistNotFound
		}
		entry.EntryID = shared.GenerateID()
		p.Songs = append(p.Songs, *entry)
		return nil
	})
}

func (b *FileBackend) RemoveSong(_ context.Context, playlistID, entryID string) error {
	return b.mutate(func(doc *fileDocument) error {
		p, ok := doc.playlist(playlistID)
		if !ok {
			return errPlaylistNotFound
		}
		idx := slices.IndexFunc(p.Songs, func(s models.SongEntry) bool { return s.EntryID == entryID })
		if idx < 0 {
			return errSongNotFound
		}
		p.Songs = slices.Delete(p.Songs, idx, idx+1)
		return nil
	})
}

func (b *FileBackend) SetRating(_ context.Context, playlistID, entryID string, rating int) error {
	return b.mutate(func(doc *fileDocument) error {
		p, ok := doc.playlist(playlistID)
		if !ok {
			return errPlaylistNotFound
		}
		idx := slices.IndexFunc(p.Songs, func(s models.SongEntry) bool { return s.EntryID == entryID })
		if idx < 0 {
			return errSongNotFound
		}
		p.Songs[idx].Rating = rating
		return nil
	})
}

// Close is a no-op; every mutation is already on disk.
func (b *FileBackend) Close() error { return nil }
