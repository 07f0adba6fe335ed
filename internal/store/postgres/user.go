package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/quillhq/quill/internal/model"
	"github.com/quillhq/quill/internal/store"
)

// CreateUser inserts a new user into the database.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, hashed_password, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.HashedPassword,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT id, email, hashed_password, created_at
		FROM users
		WHERE id = $1
	`

	user, err := scanUser(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, email, hashed_password, created_at
		FROM users
		WHERE email = $1
	`

	user, err := scanUser(s.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// UpdateUserEmail changes a user's email address.
func (s *Store) UpdateUserEmail(ctx context.Context, id, email string) (*model.User, error) {
	query := `
		UPDATE users SET email = $2
		WHERE id = $1
		RETURNING id, email, hashed_password, created_at
	`

	user, err := scanUser(s.pool.QueryRow(ctx, query, id, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, store.ErrEmailExists
		}
		return nil, fmt.Errorf("failed to update user email: %w", err)
	}

	return user, nil
}

// CreateAccessToken stores a freshly issued token.
func (s *Store) CreateAccessToken(ctx context.Context, token *model.AccessToken) error {
	query := `
		INSERT INTO access_tokens (access_token, user_id, expiration_date)
		VALUES ($1, $2, $3)
	`

	if _, err := s.pool.Exec(ctx, query, token.Token, token.UserID, token.ExpirationDate); err != nil {
		return fmt.Errorf("failed to create access token: %w", err)
	}
	return nil
}

// GetAccessToken retrieves a token that is still valid at now.
func (s *Store) GetAccessToken(ctx context.Context, token string, now time.Time) (*model.AccessToken, error) {
	query := `
		SELECT access_token, user_id, expiration_date
		FROM access_tokens
		WHERE access_token = $1 AND expiration_date > $2
	`

	var t model.AccessToken
	err := s.pool.QueryRow(ctx, query, token, now).Scan(&t.Token, &t.UserID, &t.ExpirationDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	return &t, nil
}

// DeleteExpiredAccessTokens prunes tokens expired at now.
func (s *Store) DeleteExpiredAccessTokens(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM access_tokens WHERE expiration_date <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
