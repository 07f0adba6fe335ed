package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/quillhq/quill/internal/model"
	"github.com/quillhq/quill/internal/store"
)

// CreateUser inserts a new user into the database.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, hashed_password, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query, user.ID, user.Email, user.HashedPassword, user.CreatedAt.UTC())
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
	return s.getUser(ctx, `SELECT id, email, hashed_password, created_at FROM users WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by their email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, `SELECT id, email, hashed_password, created_at FROM users WHERE email = ?`, email)
}

func (s *Store) getUser(ctx context.Context, query string, arg string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.HashedPassword, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// UpdateUserEmail changes a user's email address.
func (s *Store) UpdateUserEmail(ctx context.Context, id, email string) (*model.User, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET email = ? WHERE id = ?`, email, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrEmailExists
		}
		return nil, fmt.Errorf("failed to update user email: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetUserByID(ctx, id)
}

// CreateAccessToken stores a freshly issued token.
func (s *Store) CreateAccessToken(ctx context.Context, token *model.AccessToken) error {
	query := `
		INSERT INTO access_tokens (access_token, user_id, expiration_date)
		VALUES (?, ?, ?)
	`

	if _, err := s.db.ExecContext(ctx, query, token.Token, token.UserID, token.ExpirationDate.UTC()); err != nil {
		return fmt.Errorf("failed to create access token: %w", err)
	}
	return nil
}

// GetAccessToken retrieves a token that is still valid at now.
func (s *Store) GetAccessToken(ctx context.Context, token string, now time.Time) (*model.AccessToken, error) {
	query := `
		SELECT access_token, user_id, expiration_date
		FROM access_tokens
		WHERE access_token = ?
	`

	var t model.AccessToken
	err := s.db.QueryRowContext(ctx, query, token).Scan(&t.Token, &t.UserID, &t.ExpirationDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	// Timestamps are stored as text, so expiry is compared in Go.
	if t.IsExpired(now) {
		return nil, store.ErrNotFound
	}

	return &t, nil
}

// DeleteExpiredAccessTokens prunes tokens expired at now.
func (s *Store) DeleteExpiredAccessTokens(ctx context.Context, now time.Time) (int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT access_token, expiration_date FROM access_tokens`)
	if err != nil {
		return 0, fmt.Errorf("failed to scan access tokens: %w", err)
	}

	var expired []string
	for rows.Next() {
		var (
			token string
			exp   time.Time
		)
		if err := rows.Scan(&token, &exp); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan access token: %w", err)
		}
		if !now.Before(exp) {
			expired = append(expired, token)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to iterate access tokens: %w", err)
	}

	var deleted int64
	for _, token := range expired {
		res, err := s.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE access_token = ?`, token)
		if err != nil {
			return deleted, fmt.Errorf("failed to delete access token: %w", err)
		}
		n, _ := res.RowsAffected()
		deleted += n
	}

	return deleted, nil
}
