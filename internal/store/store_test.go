package store

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/repositories"
	"github.com/desertthunder/ytplaylists/internal/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func sqliteBackend(t *testing.T) models.Backend {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	require.NoError(t, err)
	require.NoError(t, shared.RunMigrations(db))
	t.Cleanup(func() { db.Close() })
	return repositories.NewSQLBackend(db)
}

func fileBackend(t *testing.T) models.Backend {
	t.Helper()
	b, err := repositories.NewFileBackend(filepath.Join(t.TempDir(), "playlists.json"))
	require.NoError(t, err)
	return b
}

func newTestStore(t *testing.T, backend models.Backend) *Store {
	t.Helper()
	return New(Opts{
		Backend:    backend,
		Logger:     shared.NewLogger(io.Discard),
		BcryptCost: bcrypt.MinCost,
	})
}

// eachBackend runs fn once per persistence adapter.
func eachBackend(t *testing.T, fn func(t *testing.T, s *Store)) {
	for name, build := range map[string]func(*testing.T) models.Backend{
		"sqlite": sqliteBackend,
		"file":   fileBackend,
	} {
		t.Run(name, func(t *testing.T) {
			fn(t, newTestStore(t, build(t)))
		})
	}
}

func validRegistration() Registration {
	return Registration{
		Username:  "listener",
		Email:     "listener@example.com",
		Password:  "abc123",
		FirstName: "Ada",
		AvatarRef: "avatar3.svg",
	}
}

func register(t *testing.T, s *Store, username string) *models.User {
	t.Helper()
	reg := validRegistration()
	reg.Username = username
	reg.Email = username + "@example.com"
	user, err := s.CreateUser(context.Background(), reg)
	require.NoError(t, err)
	return user
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()

	eachBackend(t, func(t *testing.T, s *Store) {
		t.Run("password rules", func(t *testing.T) {
			reg := validRegistration()

			reg.Password = "abc12"
			_, err := s.CreateUser(ctx, reg)
			require.ErrorIs(t, err, shared.ErrValidation)
			assert.Equal(t, "Password must be at least 6 characters long.", shared.Message(err))

			reg.Password = "abcdef"
			_, err = s.CreateUser(ctx, reg)
			require.ErrorIs(t, err, shared.ErrValidation)
			assert.Equal(t, "Password must contain at least one letter and one non-letter character.", shared.Message(err))

			reg.Password = "abc123"
			user, err := s.CreateUser(ctx, reg)
			require.NoError(t, err)
			assert.Equal(t, "listener", user.Username)
			assert.Empty(t, user.PasswordHash)
			assert.NotEmpty(t, user.ID)
		})

		t.Run("conflicts check username first", func(t *testing.T) {
			reg := validRegistration()
			_, err := s.CreateUser(ctx, reg)
			require.ErrorIs(t, err, shared.ErrConflict)
			assert.Equal(t, "Username is already taken.", shared.Message(err))

			reg.Username = "listener2"
			_, err = s.CreateUser(ctx, reg)
			require.ErrorIs(t, err, shared.ErrConflict)
			assert.Equal(t, "Email is already registered.", shared.Message(err))
		})

		t.Run("stored hash verifies", func(t *testing.T) {
			user, err := s.Authenticate(ctx, "listener", "abc123")
			require.NoError(t, err)
			assert.Equal(t, "listener@example.com", user.Email)
			assert.Empty(t, user.PasswordHash)
		})
	})
}

func TestRegistrationValidation(t *testing.T) {
	s := newTestStore(t, fileBackend(t))

	tests := []struct {
		name   string
		modify func(r *Registration)
		want   string
	}{
		{"short username", func(r *Registration) { r.Username = "abc" }, "Username must be at least 6 characters long."},
		{"bad email", func(r *Registration) { r.Email = "not-an-email" }, "Invalid email format."},
		{"email with space", func(r *Registration) { r.Email = "a b@example.com" }, "Invalid email format."},
		{"blank first name", func(r *Registration) { r.FirstName = "   " }, "First name cannot be empty."},
		{"digits in first name", func(r *Registration) { r.FirstName = "Ada2" }, "First name cannot contain digits."},
		{"empty avatar", func(r *Registration) { r.AvatarRef = "" }, "Image URL cannot be empty."},
		{"malformed avatar", func(r *Registration) { r.AvatarRef = "avatar.png" }, "Invalid image URL format."},
		{"password over 72 bytes", func(r *Registration) { r.Password = strings.Repeat("ab1", 27) }, "Password must be at most 72 bytes long."},
		{"multibyte password over 72 bytes", func(r *Registration) { r.Password = strings.Repeat("éa1", 20) }, "Password must be at most 72 bytes long."},
		{"username checked before email", func(r *Registration) {
			r.Username = "abc"
			r.Email = "bad"
		}, "Username must be at least 6 characters long."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := validRegistration()
			tt.modify(&reg)

			_, err := s.CreateUser(context.Background(), reg)
			require.ErrorIs(t, err, shared.ErrValidation)
			assert.Equal(t, tt.want, shared.Message(err))
		})
	}

	t.Run("nothing persisted on failure", func(t *testing.T) {
		_, err := s.GetUser(context.Background(), "abc")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestValidAvatarRef(t *testing.T) {
	assert.True(t, ValidAvatarRef("avatar1.svg"))
	assert.True(t, ValidAvatarRef("https://cdn.example.com/me.png"))
	assert.False(t, ValidAvatarRef("me.png"))
	assert.False(t, ValidAvatarRef("/static/me.png"))
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	eachBackend(t, func(t *testing.T, s *Store) {
		register(t, s, "listener")

		_, err := s.Authenticate(ctx, "listener", "wrong1")
		require.ErrorIs(t, err, shared.ErrAuth)
		wrongPassword := shared.Message(err)

		_, err = s.Authenticate(ctx, "nobody1", "abc123")
		require.ErrorIs(t, err, shared.ErrAuth)
		assert.Equal(t, wrongPassword, shared.Message(err))
		assert.Equal(t, "Invalid username or password.", wrongPassword)
	})
}

func TestUserLookups(t *testing.T) {
	ctx := context.Background()

	eachBackend(t, func(t *testing.T, s *Store) {
		register(t, s, "listener")

		avatar, err := s.UserAvatar(ctx, "listener")
		require.NoError(t, err)
		assert.Equal(t, "avatar3.svg", avatar)

		_, err = s.UserAvatar(ctx, "missing")
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = s.GetUser(ctx, "missing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPlaylists(t *testing.T) {
	ctx := context.Background()

	eachBackend(t, func(t *testing.T, s *Store) {
		register(t, s, "listener")
		register(t, s, "another")

		t.Run("create trims and rejects blank names", func(t *testing.T) {
			_, err := s.CreatePlaylist(ctx, "   ", "listener")
			require.ErrorIs(t, err, shared.ErrValidation)
			assert.Equal(t, "Playlist name is required and cannot be empty", shared.Message(err))

			p, err := s.CreatePlaylist(ctx, "  Road trip  ", "listener")
			require.NoError(t, err)
			assert.Equal(t, "Road trip", p.Name)
			assert.NotEmpty(t, p.ID)
			assert.Empty(t, p.Songs)
		})

		t.Run("unknown owner", func(t *testing.T) {
			_, err := s.CreatePlaylist(ctx, "Mix", "nobody1")
			assert.ErrorIs(t, err, shared.ErrNotFound)
		})

		t.Run("names are not unique and list keeps order", func(t *testing.T) {
			_, err := s.CreatePlaylist(ctx, "Road trip", "listener")
			require.NoError(t, err)
			_, err = s.CreatePlaylist(ctx, "Focus", "listener")
			require.NoError(t, err)

			lists, err := s.ListPlaylistsForUser(ctx, "listener")
			require.NoError(t, err)
			require.Len(t, lists, 3)
			assert.Equal(t, []string{"Road trip", "Road trip", "Focus"},
				[]string{lists[0].Name, lists[1].Name, lists[2].Name})

			others, err := s.ListPlaylistsForUser(ctx, "another")
			require.NoError(t, err)
			assert.Empty(t, others)

			_, err = s.ListPlaylistsForUser(ctx, "nobody1")
			assert.ErrorIs(t, err, shared.ErrNotFound)
		})

		t.Run("rename and ownership", func(t *testing.T) {
			p, err := s.CreatePlaylist(ctx, "Old", "listener")
			require.NoError(t, err)

			renamed, err := s.RenamePlaylist(ctx, p.ID, " New ")
			require.NoError(t, err)
			assert.Equal(t, "New", renamed.Name)

			_, err = s.RenamePlaylist(ctx, p.ID, "")
			assert.ErrorIs(t, err, shared.ErrValidation)
			_, err = s.RenamePlaylist(ctx, "missing", "Name")
			assert.ErrorIs(t, err, shared.ErrNotFound)

			owns, err := s.OwnsPlaylist(ctx, "listener", p.ID)
			require.NoError(t, err)
			assert.True(t, owns)

			owns, err = s.OwnsPlaylist(ctx, "another", p.ID)
			require.NoError(t, err)
			assert.False(t, owns)
		})

		t.Run("delete twice", func(t *testing.T) {
			p, err := s.CreatePlaylist(ctx, "Gone", "listener")
			require.NoError(t, err)
			_, err = s.AddSong(ctx, p.ID, "dQw4w9WgXcQ")
			require.NoError(t, err)

			require.NoError(t, s.DeletePlaylist(ctx, p.ID))
			assert.ErrorIs(t, s.DeletePlaylist(ctx, p.ID), shared.ErrNotFound)

			_, err = s.GetPlaylist(ctx, p.ID)
			assert.ErrorIs(t, err, shared.ErrNotFound)
		})
	})
}

func TestSongs(t *testing.T) {
	ctx := context.Background()

	eachBackend(t, func(t *testing.T, s *Store) {
		register(t, s, "listener")
		p, err := s.CreatePlaylist(ctx, "Mix", "listener")
		require.NoError(t, err)

		t.Run("add keeps order and allows duplicates", func(t *testing.T) {
			_, err := s.AddSong(ctx, p.ID, "  ")
			require.ErrorIs(t, err, shared.ErrValidation)
			assert.Equal(t, "youtubeId is required", shared.Message(err))

			for _, id := range []string{"aaa", " bbb ", "aaa"} {
				p, err = s.AddSong(ctx, p.ID, id)
				require.NoError(t, err)
			}
			require.Len(t, p.Songs, 3)
			assert.Equal(t, "aaa", p.Songs[0].YouTubeID)
			assert.Equal(t, "bbb", p.Songs[1].YouTubeID)
			assert.NotEqual(t, p.Songs[0].EntryID, p.Songs[2].EntryID)
			assert.False(t, p.Songs[0].Rated())

			_, err = s.AddSong(ctx, "missing", "ccc")
			assert.ErrorIs(t, err, shared.ErrNotFound)
		})

		t.Run("rating bounds", func(t *testing.T) {
			entryID := p.Songs[0].EntryID

			for _, raw := range []string{"0", "11", "abc", "7.5", "-3"} {
				_, err := s.RateSong(ctx, p.ID, entryID, raw)
				require.ErrorIs(t, err, shared.ErrValidation, raw)
				assert.Equal(t, "Rating must be a number between 1 and 10", shared.Message(err))
			}

			_, err := s.RateSong(ctx, p.ID, entryID, "")
			require.ErrorIs(t, err, shared.ErrValidation)
			assert.Equal(t, "Rating is required", shared.Message(err))

			entry, err := s.RateSong(ctx, p.ID, entryID, " 7 ")
			require.NoError(t, err)
			assert.Equal(t, 7, entry.Rating)

			stored, err := s.GetPlaylist(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, 7, stored.Songs[0].Rating)

			_, err = s.RateSongValue(ctx, p.ID, "missing", 5)
			assert.ErrorIs(t, err, shared.ErrNotFound)
			_, err = s.RateSongValue(ctx, p.ID, entryID, 0)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})

		t.Run("remove keeps relative order", func(t *testing.T) {
			middle := p.Songs[1].EntryID
			updated, err := s.RemoveSong(ctx, p.ID, middle)
			require.NoError(t, err)
			require.Len(t, updated.Songs, 2)
			assert.Equal(t, p.Songs[0].EntryID, updated.Songs[0].EntryID)
			assert.Equal(t, p.Songs[2].EntryID, updated.Songs[1].EntryID)

			_, err = s.RemoveSong(ctx, p.ID, middle)
			require.ErrorIs(t, err, shared.ErrNotFound)
			assert.Equal(t, "Song not found in playlist", shared.Message(err))
		})
	})
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()

	eachBackend(t, func(t *testing.T, s *Store) {
		register(t, s, "listener")
		p, err := s.CreatePlaylist(ctx, "Mix", "listener")
		require.NoError(t, err)
		_, err = s.AddSong(ctx, p.ID, "aaa")
		require.NoError(t, err)

		require.NoError(t, s.DeleteUser(ctx, "listener"))
		assert.ErrorIs(t, s.DeleteUser(ctx, "listener"), shared.ErrNotFound)

		_, err = s.GetPlaylist(ctx, p.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		// the username is free again
		register(t, s, "listener")
	})
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "playlists.json")

	backend, err := repositories.NewFileBackend(path)
	require.NoError(t, err)
	s := newTestStore(t, backend)

	register(t, s, "listener")
	p, err := s.CreatePlaylist(ctx, "Mix", "listener")
	require.NoError(t, err)
	p, err = s.AddSong(ctx, p.ID, "aaa")
	require.NoError(t, err)
	_, err = s.RateSongValue(ctx, p.ID, p.Songs[0].EntryID, 9)
	require.NoError(t, err)
	want, err := s.GetPlaylist(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := repositories.NewFileBackend(path)
	require.NoError(t, err)
	got, err := newTestStore(t, reopened).GetPlaylist(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = newTestStore(t, reopened).Authenticate(ctx, "listener", "abc123")
	assert.NoError(t, err)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(Opts{
		Backend:    fileBackend(t),
		Logger:     shared.NewLogger(io.Discard),
		BcryptCost: bcrypt.MinCost,
		Registerer: reg,
	})

	register(t, s, "listener")
	_, err := s.CreatePlaylist(context.Background(), "", "listener")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.ops.WithLabelValues("create_user", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.ops.WithLabelValues("create_playlist", "validation")))
}

func TestParseRating(t *testing.T) {
	for raw, want := range map[string]int{"1": 1, "10": 10, " 5": 5} {
		got, err := ParseRating(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
