// Package cache stores the last backend responses on disk so the CLI and the
// local service keep working offline.
package cache

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tartampluch/go-birthday-tracker/internal/config"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrMiss is returned by Get when the key has never been stored.
var ErrMiss = errors.New(config.ErrCacheMiss)

// Store is a small key/value table of JSON documents with their fetch time.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the cache database in dataDir and runs pending migrations.
// Pass config.MemoryDSN for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	dsn := config.MemoryDSN
	if dataDir != config.MemoryDSN {
		if err := os.MkdirAll(dataDir, config.DirPermUserRWX); err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrCreateDir, err)
		}
		dsn = filepath.Join(dataDir, config.CacheFileName)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCacheOpen, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", config.ErrCacheOpen, err)
	}

	// One connection: an in-memory database is private to its connection, and
	// a single writer avoids "database is locked" errors.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = " + strconv.Itoa(config.CacheBusyTimeoutMS),
		"PRAGMA journal_mode=WAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", config.ErrCacheOpen, err)
		}
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", config.ErrCacheMigrate, err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores value as JSON under key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrCacheWrite, err)
	}

	fetchedAt := s.now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entries (key, value, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, fetched_at = excluded.fetched_at`,
		key, data, fetchedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrCacheWrite, err)
	}

	slog.Debug(config.MsgCacheStored,
		config.LogKeyComponent, config.CompCache,
		config.LogKeyKey, key,
		config.LogKeySizeBytes, len(data))
	return nil
}

// Get decodes the entry stored under key into dst and returns when it was stored.
// It returns ErrMiss when the key is absent.
func (s *Store) Get(ctx context.Context, key string, dst any) (time.Time, error) {
	var (
		data      []byte
		fetchedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, fetched_at FROM entries WHERE key = ?`, key).Scan(&data, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrMiss
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", config.ErrCacheRead, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", config.ErrCacheRead, err)
	}
	return time.UnixMilli(fetchedAt).UTC(), nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%s: %w", config.ErrCacheDelete, err)
	}
	return nil
}

// migrate applies embedded SQL migrations that have not been recorded in schema_version.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}
		if err := s.apply(version, entry.Name()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) apply(version int, name string) error {
	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
		return fmt.Errorf("checking migration %d: %w", version, err)
	}
	if exists > 0 {
		return nil
	}

	content, err := migrationsFS.ReadFile("migrations/" + name)
	if err != nil {
		return fmt.Errorf("reading migration %s: %w", name, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration %d: %w", version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(string(content)); err != nil {
		return fmt.Errorf("applying migration %d: %w", version, err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("recording migration %d: %w", version, err)
	}
	return tx.Commit()
}

// parseMigrationVersion reads the numeric prefix of "001_entries.sql".
func parseMigrationVersion(name string) (int, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, fmt.Errorf("invalid migration filename %q", name)
	}
	v, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, fmt.Errorf("invalid migration version in %q: %w", name, err)
	}
	return v, nil
}
