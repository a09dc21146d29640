// Package store persists answers, summaries, rewards, challenges and LLM
// request events in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// DefaultPollInterval is how often challenge subscriptions check for changes.
const DefaultPollInterval = 250 * time.Millisecond

// Store is the SQLite implementation of every persistence interface in the
// app: answer and summary sinks, history, rewards, challenges and LLM events.
type Store struct {
	db     *sql.DB
	drv    *entsql.Driver
	logger *slog.Logger
	now    func() time.Time

	pollInterval time.Duration

	// writeMu serializes write transactions. SQLite allows one writer at a
	// time, and a deferred transaction that upgrades its lock fails with
	// SQLITE_BUSY instead of waiting on busy_timeout.
	writeMu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithPollInterval sets the challenge subscription poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithClock overrides time.Now for the timestamps the store assigns itself.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the store logger. Nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and runs auto-migration.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", withConnPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	if err := migrate(ctx, drv); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	if err := seedSequence(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:           db,
		drv:          drv,
		logger:       slog.Default(),
		now:          time.Now,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

// connPragmas must hold on every pooled connection, so they travel in the
// DSN instead of being executed once.
var connPragmas = []string{"foreign_keys(1)", "busy_timeout(5000)"}

func withConnPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	for _, p := range connPragmas {
		dsn += sep + "_pragma=" + p
		sep = "&"
	}
	return dsn
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. MATHQUEST_DB environment variable
// 2. $XDG_DATA_HOME/mathquest/mathquest.db
// 3. ~/.local/share/mathquest/mathquest.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("MATHQUEST_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "mathquest", "mathquest.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// inTx runs fn in a write transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			return errors.Join(err, rerr)
		}
		return err
	}
	return tx.Commit()
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
