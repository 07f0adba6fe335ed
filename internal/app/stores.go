// Package app assembles the API from configuration: storage backends,
// services, realtime sockets and the HTTP router.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/quillhq/quill/internal/config"
	"github.com/quillhq/quill/internal/handler"
	"github.com/quillhq/quill/internal/store"
	"github.com/quillhq/quill/internal/store/migrate"
	"github.com/quillhq/quill/internal/store/mongo"
	"github.com/quillhq/quill/internal/store/postgres"
	"github.com/quillhq/quill/internal/store/sqlite"
)

// Stores holds the persistence backends selected by configuration.
// Users always live in the SQL database; posts follow POSTS_BACKEND.
type Stores struct {
	Posts store.PostStore
	Users store.UserStore

	deps    []handler.Dependency
	closers []func(ctx context.Context) error
}

// OpenStores connects the configured backends. PostgreSQL schemas are
// managed with `quillctl migrate`; SQLite databases are migrated on open.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	s := &Stores{}

	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.Users, s.Posts = db, db
		s.deps = append(s.deps, handler.Dependency{Name: "database", Checker: db})
		s.closers = append(s.closers, func(context.Context) error { return db.Close() })
	default:
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.Users, s.Posts = db, db
		s.deps = append(s.deps, handler.Dependency{Name: "database", Checker: db})
		s.closers = append(s.closers, func(context.Context) error { db.Close(); return nil })
	}

	if cfg.PostsBackend == config.BackendMongo {
		docs, err := mongo.New(ctx, cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.Posts = docs
		s.deps = append(s.deps, handler.Dependency{Name: "mongo", Checker: docs})
		s.closers = append(s.closers, docs.Close)
	}

	return s, nil
}

// Dependencies lists the backends for the readiness probe.
func (s *Stores) Dependencies() []handler.Dependency {
	return s.deps
}

// Close releases every backend, most recently opened first.
// It implements server.ShutdownFunc.
func (s *Stores) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Dialect maps a DATABASE_DRIVER value to its migration dialect.
func Dialect(driver string) (migrate.Dialect, error) {
	switch driver {
	case config.DriverPostgres:
		return migrate.Postgres, nil
	case config.DriverSQLite:
		return migrate.SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}
