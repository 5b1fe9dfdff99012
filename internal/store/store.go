package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

var (
	// ErrNotFound is returned when a row does not exist for the owner.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for values the store refuses to persist.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrWrongOwner is returned when a row exists but belongs to another owner.
	ErrWrongOwner = errors.New("belongs to another owner")
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	q  querier
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, q: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// InTx runs fn against a store bound to a single transaction. The transaction
// commits when fn returns nil. Nested calls reuse the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Store{q: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

// Timestamps are epoch milliseconds; date keys are YYYY-MM-DD text.
// time_entries.task_id has no foreign key: deleting a task keeps its history.
func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL,
		title       TEXT NOT NULL,
		topic       TEXT NOT NULL DEFAULT '',
		subtopic    TEXT NOT NULL DEFAULT '',
		color       TEXT NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner_id);

	CREATE TABLE IF NOT EXISTS time_entries (
		id               TEXT PRIMARY KEY,
		owner_id         TEXT NOT NULL,
		task_id          TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL CHECK(duration_minutes > 0),
		started_at       INTEGER NOT NULL,
		note             TEXT NOT NULL DEFAULT '',
		task_title       TEXT NOT NULL DEFAULT '',
		task_topic       TEXT NOT NULL DEFAULT '',
		task_subtopic    TEXT NOT NULL DEFAULT '',
		task_color       TEXT NOT NULL DEFAULT '',
		created_at       INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_owner_start ON time_entries(owner_id, started_at);
	CREATE INDEX IF NOT EXISTS idx_entries_owner_task  ON time_entries(owner_id, task_id);

	CREATE TABLE IF NOT EXISTS user_settings (
		owner_id  TEXT NOT NULL,
		key       TEXT NOT NULL,
		value     TEXT NOT NULL,
		PRIMARY KEY (owner_id, key)
	);

	CREATE TABLE IF NOT EXISTS daily_stats (
		owner_id          TEXT NOT NULL,
		date              TEXT NOT NULL,
		daily_minutes     INTEGER NOT NULL DEFAULT 0,
		tasks_worked_on   INTEGER NOT NULL DEFAULT 0,
		streak_count      INTEGER NOT NULL DEFAULT 0,
		consistency_score INTEGER NOT NULL DEFAULT 0,
		momentum          INTEGER NOT NULL DEFAULT 0,
		created_at        INTEGER NOT NULL,
		updated_at        INTEGER NOT NULL,
		PRIMARY KEY (owner_id, date)
	);

	CREATE TABLE IF NOT EXISTS milestones (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL,
		type        TEXT NOT NULL,
		value       INTEGER NOT NULL,
		achieved_at INTEGER NOT NULL,
		task_id     TEXT NOT NULL DEFAULT '',
		task_title  TEXT NOT NULL DEFAULT '',
		metadata    TEXT NOT NULL DEFAULT '{}',
		UNIQUE(owner_id, type, value)
	);

	CREATE TABLE IF NOT EXISTS celebrations (
		id           TEXT PRIMARY KEY,
		owner_id     TEXT NOT NULL,
		type         TEXT NOT NULL,
		triggered_at INTEGER NOT NULL,
		value        INTEGER,
		milestone_id TEXT REFERENCES milestones(id),
		priority     INTEGER NOT NULL DEFAULT 0,
		shown        INTEGER NOT NULL DEFAULT 0,
		shown_at     INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_celebrations_pending ON celebrations(owner_id, shown, triggered_at);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/tempo/tempo.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "tempo", "tempo.db"), nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
