package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (creating if needed) the history database at path and
// runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir %s: %w", dir, err)
		}
	}

	db, err := sqlx.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open history db %s: %w", path, ErrConnectionFailed)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history db %s: %w", path, ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("%v: %w", err, ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations applies the embedded schema migrations.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Writes
// =============================================================================

// SaveRun persists a run and its outcomes in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run Run, outcomes []Outcome) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO runs (release_id, project, started_at, finished_at, clean)
		VALUES (:release_id, :project, :started_at, :finished_at, :clean)`, run)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ReleaseID, err)
	}

	for i := range outcomes {
		outcomes[i].ReleaseID = run.ReleaseID
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO outcomes (release_id, kind, target, server, state, error, duration_ms)
			VALUES (:release_id, :kind, :target, :server, :state, :error, :duration_ms)`, outcomes[i])
		if err != nil {
			return fmt.Errorf("insert outcome for %s: %w", outcomes[i].Target, err)
		}
	}

	return tx.Commit()
}

// =============================================================================
// Reads
// =============================================================================

// ListRuns returns runs newest-first. With a target filter, only runs that
// touched that entry are returned.
func (s *SQLiteStore) ListRuns(ctx context.Context, target string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []Run
	var err error
	if target == "" {
		err = s.db.SelectContext(ctx, &runs, `
			SELECT * FROM runs ORDER BY release_id DESC LIMIT ?`, limit)
	} else {
		err = s.db.SelectContext(ctx, &runs, `
			SELECT r.* FROM runs r
			WHERE EXISTS (
				SELECT 1 FROM outcomes o
				WHERE o.release_id = r.release_id AND o.target = ?
			)
			ORDER BY r.release_id DESC LIMIT ?`, target, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ListOutcomes returns the outcomes of one run.
func (s *SQLiteStore) ListOutcomes(ctx context.Context, releaseID string) ([]Outcome, error) {
	var outcomes []Outcome
	err := s.db.SelectContext(ctx, &outcomes, `
		SELECT * FROM outcomes WHERE release_id = ? ORDER BY id`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes for %s: %w", releaseID, err)
	}
	return outcomes, nil
}
