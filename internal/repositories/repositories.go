package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/shared"
	"github.com/mattn/go-sqlite3"
)

var (
	errUserNotFound     = fmt.Errorf("%w: User not found", shared.ErrNotFound)
	errPlaylistNotFound = fmt.Errorf("%w: Playlist not found", shared.ErrNotFound)
	errSongNotFound     = fmt.Errorf("%w: Song not found in playlist", shared.ErrNotFound)
	errUsernameTaken    = fmt.Errorf("%w: Username is already taken.", shared.ErrConflict)
	errEmailTaken       = fmt.Errorf("%w: Email is already registered.", shared.ErrConflict)
)

// querier is satisfied by both [sql.DB] and [sql.Tx].
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers give rows a stable insertion order independent of their UUIDs and timestamps.
// Must be called inside the transaction that inserts the row.
func NextSequence(ctx context.Context, q querier, table string) (int, error) {
	sequenceTable := table + "_sequence"

	if _, err := q.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable)); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	if err := q.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	return sequence, nil
}

// withTx runs fn in a transaction, committing when fn returns nil.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// checkAffected converts a zero-row result into notFound.
func checkAffected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

// constraintError maps SQLite constraint violations to domain errors.
func constraintError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		msg := sqliteErr.Error()
		switch {
		case strings.Contains(msg, "users.username"):
			return errUsernameTaken
		case strings.Contains(msg, "users.email"):
			return errEmailTaken
		}
		return fmt.Errorf("%w: %v", shared.ErrConflict, err)
	case sqlite3.ErrConstraintForeignKey:
		return fmt.Errorf("%w: %v", shared.ErrNotFound, err)
	}
	return err
}

// Open builds the backend selected by cfg.Driver, running migrations for SQLite.
func Open(cfg shared.DatabaseConfig, logger *log.Logger) (models.Backend, error) {
	switch cfg.Driver {
	case "file":
		logger.Debug("opening file backend", "path", cfg.FilePath)
		return NewFileBackend(cfg.FilePath)
	case "sqlite", "":
		logger.Debug("opening sqlite backend", "path", cfg.Path)
		db, err := shared.NewDatabase(cfg.Path)
		if err != nil {
			return nil, err
		}
		shared.ConfigureDatabase(db, cfg.Path, cfg.MaxOpenConns, cfg.MaxIdleConns)

		applied, err := shared.ApplyPending(db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		for _, m := range applied {
			logger.Info("applied migration", "version", m.Version, "name", m.Name)
		}
		return NewSQLBackend(db), nil
	default:
		return nil, fmt.Errorf("%w: unknown database driver %q", shared.ErrInvalidConfig, cfg.Driver)
	}
}
