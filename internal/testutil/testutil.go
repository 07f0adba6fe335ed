// Package testutil holds shared helpers for unit and integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/quillhq/quill/internal/model"
	"github.com/quillhq/quill/internal/store/migrate"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema reverts every migration on the PostgreSQL database at dsn
// and applies them again.
func ResetSchema(ctx context.Context, dsn string) error {
	db, err := migrate.Open(migrate.Postgres, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	runner, err := migrate.New(db, migrate.Postgres)
	if err != nil {
		return err
	}

	for {
		v, err := runner.Down(ctx)
		if err != nil {
			return fmt.Errorf("revert schema: %w", err)
		}
		if v == 0 {
			break
		}
	}

	if _, err := runner.Up(ctx); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// NewRedis starts an in-process Redis server and returns a client for it.
// Both are closed when the test ends.
func NewRedis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return client, mr
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestPost creates a post with sensible defaults.
func NewTestPost(t testing.TB, title string) *model.Post {
	t.Helper()
	return &model.Post{
		Title:           title,
		Content:         "Content of " + title,
		PublicationDate: time.Now().UTC().Truncate(time.Second),
		Comments:        []*model.Comment{},
	}
}

// NewTestUser creates a user with a unique ID. HashedPassword is left for
// the caller since hashing is slow.
func NewTestUser(t testing.TB, email string) *model.User {
	t.Helper()
	return &model.User{
		ID:        UniqueID(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
}

// UniqueID generates a unique, sortable ID for tests.
func UniqueID() string {
	return ulid.Make().String()
}
