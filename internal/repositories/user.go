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

// UserRepository persists [models.User] rows.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user with a generated ID and sequence.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		sequence, err := NextSequence(ctx, tx, "users")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}

		id := shared.GenerateID()
		createdAt := time.Now().UTC()

		query := `
			INSERT INTO users (id, sequence, username, email, first_name, last_name, avatar_ref, password_hash, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		_, err = tx.ExecContext(ctx, query,
			id, sequence, user.Username, user.Email, user.FirstName, user.LastName, user.AvatarRef, user.PasswordHash, createdAt,
		)
		if err != nil {
			return constraintError(fmt.Errorf("failed to insert user: %w", err))
		}

		user.ID = id
		user.CreatedAt = createdAt
		return nil
	})
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, email, first_name, last_name, avatar_ref, password_hash, created_at
		FROM users
		WHERE username = ?
	`

	var u models.User
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.AvatarRef, &u.PasswordHash, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &u, nil
}

// EmailExists reports whether a user registered the given email.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)", email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query email: %w", err)
	}
	return exists, nil
}

// DeleteByUsername removes a user. Owned playlists and their songs are removed by the foreign key cascade.
func (r *UserRepository) DeleteByUsername(ctx context.Context, username string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE username = ?", username)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return checkAffected(result, errUserNotFound)
}
