// Package migrate applies the embedded SQL schema to PostgreSQL or SQLite
// through database/sql.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Dialect selects the SQL flavour of the embedded migrations.
type Dialect string

// Supported dialects.
const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Migration is one numbered schema step.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// Open opens a database/sql handle for the dialect.
func Open(dialect Dialect, dsn string) (*sql.DB, error) {
	switch dialect {
	case Postgres:
		return sql.Open("postgres", dsn)
	case SQLite:
		return sql.Open("sqlite3", dsn)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
}

// Load reads and orders the embedded migrations for a dialect.
func Load(dialect Dialect) ([]Migration, error) {
	dir := path.Join("migrations", string(dialect))
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s migrations: %w", dialect, err)
	}

	byVersion := make(map[int]*Migration)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}

		version, name, direction, err := parseFileName(e.Name())
		if err != nil {
			return nil, err
		}

		body, err := fs.ReadFile(migrationsFS, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}
		if direction == "up" {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("migration %06d_%s is missing its up or down file", m.Version, m.Name)
		}
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// parseFileName splits "000001_posts.up.sql" into its parts.
func parseFileName(fileName string) (int, string, string, error) {
	base := strings.TrimSuffix(fileName, ".sql")

	var direction string
	switch {
	case strings.HasSuffix(base, ".up"):
		direction = "up"
	case strings.HasSuffix(base, ".down"):
		direction = "down"
	default:
		return 0, "", "", fmt.Errorf("invalid migration filename %s: missing .up or .down", fileName)
	}
	base = strings.TrimSuffix(base, "."+direction)

	num, name, ok := strings.Cut(base, "_")
	if !ok {
		return 0, "", "", fmt.Errorf("invalid migration filename %s: expected NNNNNN_name", fileName)
	}
	version, err := strconv.Atoi(num)
	if err != nil {
		return 0, "", "", fmt.Errorf("invalid version number in filename %s: %w", fileName, err)
	}

	return version, name, direction, nil
}

// Runner applies migrations and tracks them in schema_migrations.
type Runner struct {
	db         *sql.DB
	dialect    Dialect
	migrations []Migration
	now        func() time.Time
}

// New creates a Runner over db.
func New(db *sql.DB, dialect Dialect) (*Runner, error) {
	migrations, err := Load(dialect)
	if err != nil {
		return nil, err
	}
	return &Runner{db: db, dialect: dialect, migrations: migrations, now: time.Now}, nil
}

// Up applies every pending migration in order and returns the applied versions.
// Running it on an up-to-date schema is a no-op.
func (r *Runner) Up(ctx context.Context) ([]int, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}

	done, err := r.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	var applied []int
	for _, m := range r.migrations {
		if done[m.Version] {
			continue
		}
		insert := r.bind(`INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`)
		if err := r.apply(ctx, m, m.Up, insert, m.Version, r.now().UTC()); err != nil {
			return applied, err
		}
		applied = append(applied, m.Version)
	}

	return applied, nil
}

// Down reverts the most recent migration. It returns the reverted version,
// or 0 when nothing is applied.
func (r *Runner) Down(ctx context.Context) (int, error) {
	if err := r.ensureTable(ctx); err != nil {
		return 0, err
	}

	current, err := r.Version(ctx)
	if err != nil || current == 0 {
		return 0, err
	}

	for _, m := range r.migrations {
		if m.Version != current {
			continue
		}
		del := r.bind(`DELETE FROM schema_migrations WHERE version = $1`)
		if err := r.apply(ctx, m, m.Down, del, m.Version); err != nil {
			return 0, err
		}
		return current, nil
	}

	return 0, fmt.Errorf("applied version %d has no embedded migration", current)
}

// Version returns the highest applied version, 0 for a fresh database.
func (r *Runner) Version(ctx context.Context) (int, error) {
	var v int
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// Status is Version for databases that may never have been migrated.
func (r *Runner) Status(ctx context.Context) (int, error) {
	if err := r.ensureTable(ctx); err != nil {
		return 0, err
	}
	return r.Version(ctx)
}

func (r *Runner) ensureTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

func (r *Runner) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}
	defer rows.Close()

	done := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		done[v] = true
	}
	return done, rows.Err()
}

// apply runs one migration body and its bookkeeping statement in a transaction.
func (r *Runner) apply(ctx context.Context, m Migration, body, bookkeeping string, args ...any) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.Version, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return describe(m, err)
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, args...); err != nil {
		return fmt.Errorf("record migration %d: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.Version, err)
	}
	return nil
}

// bind rewrites $N placeholders for dialects that only take "?".
func (r *Runner) bind(query string) string {
	if r.dialect != SQLite {
		return query
	}
	for i := 9; i >= 1; i-- {
		query = strings.ReplaceAll(query, "$"+strconv.Itoa(i), "?")
	}
	return query
}

// describe adds the PostgreSQL condition name to migration failures.
func describe(m Migration, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("migration %06d_%s failed (%s): %w", m.Version, m.Name, pqErr.Code.Name(), err)
	}
	return fmt.Errorf("migration %06d_%s failed: %w", m.Version, m.Name, err)
}
