package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/shared"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost matches the cost the hashes in existing user files were created with.
const DefaultBcryptCost = 10

var errBadCredentials = fmt.Errorf("%w: Invalid username or password.", shared.ErrAuth)

// Opts configures a [Store].
type Opts struct {
	Backend    models.Backend
	Logger     *log.Logger
	BcryptCost int
	// Registerer receives the store operation counter. Nil disables metrics.
	Registerer prometheus.Registerer
}

// Store is the playlist store. It is safe for concurrent use; mutations are serialized.
type Store struct {
	mu         sync.Mutex
	backend    models.Backend
	validate   *validator.Validate
	logger     *log.Logger
	bcryptCost int
	ops        *prometheus.CounterVec
}

// New builds a store over opts.Backend.
func New(opts Opts) *Store {
	s := &Store{
		backend:    opts.Backend,
		validate:   newValidator(),
		logger:     opts.Logger,
		bcryptCost: opts.BcryptCost,
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(nil)
	}
	if s.bcryptCost == 0 {
		s.bcryptCost = DefaultBcryptCost
	}

	if opts.Registerer != nil {
		s.ops = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ytp_store_operations_total",
				Help: "Playlist store operations by name and outcome",
			},
			[]string{"op", "result"},
		)
		opts.Registerer.MustRegister(s.ops)
	}
	return s
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// observe counts an operation outcome, labelled by the sentinel it wraps.
func (s *Store) observe(op string, err error) {
	if s.ops == nil {
		return
	}
	s.ops.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, shared.ErrValidation):
		return "validation"
	case errors.Is(err, shared.ErrConflict):
		return "conflict"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrAuth):
		return "auth"
	default:
		return "error"
	}
}

// CreateUser validates reg, rejects a taken username or email, and stores the user with a
// bcrypt hash of the password. The returned user carries no hash.
func (s *Store) CreateUser(ctx context.Context, reg Registration) (user *models.User, err error) {
	defer func() { s.observe("create_user", err) }()

	if err := s.validateRegistration(reg); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch _, err := s.backend.GetUser(ctx, reg.Username); {
	case err == nil:
		return nil, fmt.Errorf("%w: Username is already taken.", shared.ErrConflict)
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	taken, err := s.backend.EmailExists(ctx, reg.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: Email is already registered.", shared.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, registrationMessages["Password.bcrypt_len"])
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user = &models.User{
		Username:     reg.Username,
		Email:        reg.Email,
		FirstName:    strings.TrimSpace(reg.FirstName),
		LastName:     strings.TrimSpace(reg.LastName),
		AvatarRef:    reg.AvatarRef,
		PasswordHash: string(hash),
	}
	if err := s.backend.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "username", user.Username)
	user.PasswordHash = ""
	return user, nil
}

// Authenticate checks a username and password. Unknown users and wrong passwords fail
// with the same error.
func (s *Store) Authenticate(ctx context.Context, username, password string) (user *models.User, err error) {
	defer func() { s.observe("authenticate", err) }()

	user, err = s.backend.GetUser(ctx, username)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("password mismatch", "username", username)
		return nil, errBadCredentials
	}

	user.PasswordHash = ""
	return user, nil
}

// GetUser returns the user without the password hash.
func (s *Store) GetUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.backend.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UserAvatar returns the user's avatar reference.
func (s *Store) UserAvatar(ctx context.Context, username string) (string, error) {
	user, err := s.backend.GetUser(ctx, username)
	if err != nil {
		return "", err
	}
	return user.AvatarRef, nil
}

// DeleteUser removes a user together with their playlists.
func (s *Store) DeleteUser(ctx context.Context, username string) (err error) {
	defer func() { s.observe("delete_user", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.DeleteUser(ctx, username); err != nil {
		return err
	}
	s.logger.Info("user deleted", "username", username)
	return nil
}

// CreatePlaylist creates an empty playlist owned by ownerUsername.
func (s *Store) CreatePlaylist(ctx context.Context, name, ownerUsername string) (playlist *models.Playlist, err error) {
	defer func() { s.observe("create_playlist", err) }()

	name, err = normalizeName(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.backend.GetUser(ctx, ownerUsername)
	if err != nil {
		return nil, err
	}

	playlist = &models.Playlist{OwnerID: owner.ID, Name: name, Songs: []models.SongEntry{}}
	if err := s.backend.CreatePlaylist(ctx, playlist); err != nil {
		return nil, err
	}

	s.logger.Debug("playlist created", "id", playlist.ID, "owner", ownerUsername)
	return playlist, nil
}

// GetPlaylist returns a playlist with its songs in order.
func (s *Store) GetPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	return s.backend.GetPlaylist(ctx, id)
}

// RenamePlaylist changes a playlist's name.
func (s *Store) RenamePlaylist(ctx context.Context, id, name string) (playlist *models.Playlist, err error) {
	defer func() { s.observe("rename_playlist", err) }()

	name, err = normalizeName(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.RenamePlaylist(ctx, id, name); err != nil {
		return nil, err
	}
	return s.backend.GetPlaylist(ctx, id)
}

// DeletePlaylist removes a playlist and its songs. Deleting twice fails with not found.
func (s *Store) DeletePlaylist(ctx context.Context, id string) (err error) {
	defer func() { s.observe("delete_playlist", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.DeletePlaylist(ctx, id)
}

// AddSong appends an unrated entry for youtubeID. Duplicate videos get distinct entries.
func (s *Store) AddSong(ctx context.Context, playlistID, youtubeID string) (playlist *models.Playlist, err error) {
	defer func() { s.observe("add_song", err) }()

	youtubeID = strings.TrimSpace(youtubeID)
	if youtubeID == "" {
		return nil, fmt.Errorf("%w: youtubeId is required", shared.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.AddSong(ctx, playlistID, &models.SongEntry{YouTubeID: youtubeID}); err != nil {
		return nil, err
	}
	return s.backend.GetPlaylist(ctx, playlistID)
}

// RemoveSong deletes one entry. Other entries keep their order.
func (s *Store) RemoveSong(ctx context.Context, playlistID, entryID string) (playlist *models.Playlist, err error) {
	defer func() { s.observe("remove_song", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.RemoveSong(ctx, playlistID, entryID); err != nil {
		return nil, err
	}
	return s.backend.GetPlaylist(ctx, playlistID)
}

// RateSong parses a client supplied rating and applies it. See [ParseRating].
func (s *Store) RateSong(ctx context.Context, playlistID, entryID, rating string) (*models.SongEntry, error) {
	value, err := ParseRating(rating)
	if err != nil {
		s.observe("rate_song", err)
		return nil, err
	}
	return s.RateSongValue(ctx, playlistID, entryID, value)
}

// RateSongValue sets an entry's rating to a value in [1,10] and returns the updated entry.
func (s *Store) RateSongValue(ctx context.Context, playlistID, entryID string, rating int) (entry *models.SongEntry, err error) {
	defer func() { s.observe("rate_song", err) }()

	if err := checkRating(rating); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.SetRating(ctx, playlistID, entryID, rating); err != nil {
		return nil, err
	}

	playlist, err := s.backend.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	updated, ok := playlist.Entry(entryID)
	if !ok {
		return nil, fmt.Errorf("%w: Song not found in playlist", shared.ErrNotFound)
	}
	return &updated, nil
}

// ListPlaylistsForUser returns the user's playlists in creation order.
func (s *Store) ListPlaylistsForUser(ctx context.Context, username string) ([]*models.Playlist, error) {
	user, err := s.backend.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.backend.ListPlaylists(ctx, user.ID)
}

// OwnsPlaylist reports whether username owns the playlist.
func (s *Store) OwnsPlaylist(ctx context.Context, username, playlistID string) (bool, error) {
	user, err := s.backend.GetUser(ctx, username)
	if err != nil {
		return false, err
	}

	playlist, err := s.backend.GetPlaylist(ctx, playlistID)
	if err != nil {
		return false, err
	}
	return playlist.OwnerID == user.ID, nil
}
