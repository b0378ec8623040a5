package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/shared"
)

// PlaylistRepository persists playlist rows. Songs live in [SongRepository].
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist with a generated ID and sequence.
//
// An owner that does not exist is reported as not found.
func (r *PlaylistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		sequence, err := NextSequence(ctx, tx, "playlists")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}

		id := shared.GenerateID()
		now := time.Now().UTC()

		query := `
			INSERT INTO playlists (id, sequence, owner_id, name, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`

		if _, err := tx.ExecContext(ctx, query, id, sequence, playlist.OwnerID, playlist.Name, now, now); err != nil {
			if err := constraintError(err); errors.Is(err, shared.ErrNotFound) {
				return errUserNotFound
			}
			return fmt.Errorf("failed to insert playlist: %w", err)
		}

		playlist.ID = id
		playlist.Songs = []models.SongEntry{}
		return nil
	})
}

// Get retrieves a playlist by ID without its songs.
func (r *PlaylistRepository) Get(ctx context.Context, id string) (*models.Playlist, error) {
	query := `SELECT id, owner_id, name FROM playlists WHERE id = ?`

	var p models.Playlist
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.OwnerID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errPlaylistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist: %w", err)
	}

	p.Songs = []models.SongEntry{}
	return &p, nil
}

// Rename updates the playlist name.
func (r *PlaylistRepository) Rename(ctx context.Context, id, name string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE playlists SET name = ?, updated_at = ? WHERE id = ?", name, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}
	return checkAffected(result, errPlaylistNotFound)
}

// Delete removes a playlist. Its songs are removed by the foreign key cascade.
func (r *PlaylistRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM playlists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	return checkAffected(result, errPlaylistNotFound)
}

// ListByOwner retrieves the owner's playlists in insertion order, without songs.
func (r *PlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Playlist, error) {
	query := `
		SELECT id, owner_id, name
		FROM playlists
		WHERE owner_id = ?
		ORDER BY sequence ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []*models.Playlist{}
	for rows.Next() {
		p := &models.Playlist{Songs: []models.SongEntry{}}
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// exists reports whether the playlist row is present.
func (r *PlaylistRepository) exists(ctx context.Context, q querier, id string) (bool, error) {
	var exists bool
	if err := q.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM playlists WHERE id = ?)", id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to query playlist: %w", err)
	}
	return exists, nil
}
