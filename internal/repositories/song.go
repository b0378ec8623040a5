package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/shared"
)

// SongRepository persists the ordered entries of each playlist.
type SongRepository struct {
	db        *sql.DB
	playlists *PlaylistRepository
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db, playlists: NewPlaylistRepository(db)}
}

// Add appends an entry to the end of the playlist and assigns its EntryID.
func (r *SongRepository) Add(ctx context.Context, playlistID string, entry *models.SongEntry) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.requirePlaylist(ctx, tx, playlistID); err != nil {
			return err
		}

		var position int
		err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(position), 0) + 1 FROM playlist_songs WHERE playlist_id = ?", playlistID,
		).Scan(&position)
		if err != nil {
			return fmt.Errorf("failed to compute position: %w", err)
		}

		id := shared.GenerateID()
		query := `
			INSERT INTO playlist_songs (id, playlist_id, youtube_id, rating, position, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.ExecContext(ctx, query, id, playlistID, entry.YouTubeID, entry.Rating, position, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to insert song: %w", constraintError(err))
		}

		entry.EntryID = id
		return nil
	})
}

// Remove deletes one entry from the playlist.
func (r *SongRepository) Remove(ctx context.Context, playlistID, entryID string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.requirePlaylist(ctx, tx, playlistID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM playlist_songs WHERE id = ? AND playlist_id = ?", entryID, playlistID)
		if err != nil {
			return fmt.Errorf("failed to delete song: %w", err)
		}
		return checkAffected(result, errSongNotFound)
	})
}

// SetRating updates the rating of one entry.
func (r *SongRepository) SetRating(ctx context.Context, playlistID, entryID string, rating int) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.requirePlaylist(ctx, tx, playlistID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			"UPDATE playlist_songs SET rating = ? WHERE id = ? AND playlist_id = ?", rating, entryID, playlistID,
		)
		if err != nil {
			return fmt.Errorf("failed to update rating: %w", err)
		}
		return checkAffected(result, errSongNotFound)
	})
}

// ListByPlaylist returns the playlist's entries in insertion order.
func (r *SongRepository) ListByPlaylist(ctx context.Context, playlistID string) ([]models.SongEntry, error) {
	query := `
		SELECT id, youtube_id, rating
		FROM playlist_songs
		WHERE playlist_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := []models.SongEntry{}
	for rows.Next() {
		var s models.SongEntry
		if err := rows.Scan(&s.EntryID, &s.YouTubeID, &s.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

func (r *SongRepository) requirePlaylist(ctx context.Context, q querier, playlistID string) error {
	ok, err := r.playlists.exists(ctx, q, playlistID)
	if err != nil {
		return err
	}
	if !ok {
		return errPlaylistNotFound
	}
	return nil
}
