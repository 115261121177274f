package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"

	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER,
	hit_count  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at ON cache_entries(expires_at);
`

const pragmas = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;
`

// Stats aggregates every stored row, expired or not.
type Stats struct {
	Entries    int64 `json:"entries"`
	TotalBytes int64 `json:"total_bytes"`
	TotalHits  int64 `json:"total_hits"`
}

// PersistentCache is a durable key/value store on a single SQLite file.
//
// Payloads are stored as JSON. A row whose expires_at has passed is
// logically absent: reads delete it, and Prune removes such rows in bulk.
// Each method runs as one statement or one transaction; a Has followed by a
// Set is not atomic.
type PersistentCache struct {
	db     *sql.DB
	path   string
	now    func() time.Time
	closed atomic.Bool
}

// PersistentOption configures a PersistentCache.
type PersistentOption func(*PersistentCache)

// WithClock overrides the time source used for expiry decisions.
func WithClock(now func() time.Time) PersistentOption {
	return func(c *PersistentCache) {
		if now != nil {
			c.now = now
		}
	}
}

// OpenPersistentCache opens (creating if needed) the store at path.
// The containing directory is created first; any failure is wrapped in ErrInit.
func OpenPersistentCache(path string, opts ...PersistentOption) (*PersistentCache, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInit)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create directory %s: %w", ErrInit, dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrInit, path, err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(pragmas); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: configure %s: %w", ErrInit, path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create schema: %w", ErrInit, err)
	}

	c := &PersistentCache{db: db, path: path, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Path returns the file backing the store.
func (c *PersistentCache) Path() string { return c.path }

// Get decodes the payload for key into dst and increments its hit count.
// It returns (false, nil) when the key is unknown or expired; an expired row
// is deleted.
func (c *PersistentCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	payload, ok, err := c.read(ctx, key, true)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("cache: decode %q: %w", key, err)
	}
	return true, nil
}

// Has reports whether key holds an unexpired row. An expired row is deleted.
// The hit count is left untouched.
func (c *PersistentCache) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := c.read(ctx, key, false)
	return ok, err
}

func (c *PersistentCache) read(ctx context.Context, key string, hit bool) ([]byte, bool, error) {
	if c.closed.Load() {
		return nil, false, ErrClosed
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("cache: begin read: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		payload   []byte
		expiresAt sql.NullInt64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: read %q: %w", key, err)
	}

	if expiresAt.Valid && expiresAt.Int64 <= c.now().UnixMilli() {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
			return nil, false, fmt.Errorf("cache: delete expired %q: %w", key, err)
		}
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("cache: commit expiry of %q: %w", key, err)
		}
		return nil, false, nil
	}

	if hit {
		if _, err := tx.ExecContext(ctx,
			`UPDATE cache_entries SET hit_count = hit_count + 1 WHERE key = ?`, key,
		); err != nil {
			return nil, false, fmt.Errorf("cache: count hit %q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("cache: commit read %q: %w", key, err)
	}
	return payload, true, nil
}

// Set upserts value under key. A ttl <= 0 stores a permanent row.
// Overwriting resets the hit count to zero.
func (c *PersistentCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %q: %w", key, err)
	}

	now := c.now()
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: now.Add(ttl).UnixMilli(), Valid: true}
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, payload, created_at, expires_at, hit_count)
		VALUES (?, ?, ?, ?, 0)
		ON CONFLICT(key) DO UPDATE SET
			payload    = excluded.payload,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at,
			hit_count  = 0`,
		key, payload, now.UnixMilli(), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("cache: write %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Idempotent - no error on miss.
func (c *PersistentCache) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if _, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("cache: delete %q: %w", key, err)
	}
	return nil
}

// InvalidateByPrefix deletes every row whose key starts with prefix and
// returns the number removed. An empty prefix matches every row.
func (c *PersistentCache) InvalidateByPrefix(ctx context.Context, prefix string) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	// substr counts characters, so compare against the prefix's rune count.
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE substr(key, 1, ?) = ?`,
		utf8.RuneCountInString(prefix), prefix,
	)
	if err != nil {
		return 0, fmt.Errorf("cache: invalidate prefix %q: %w", prefix, err)
	}
	return affected(res)
}

// Prune deletes every expired row and returns the number removed.
func (c *PersistentCache) Prune(ctx context.Context) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		c.now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("cache: prune: %w", err)
	}
	return affected(res)
}

// Stats returns row count, payload bytes and hit count across all rows.
func (c *PersistentCache) Stats(ctx context.Context) (Stats, error) {
	if c.closed.Load() {
		return Stats{}, ErrClosed
	}
	var s Stats
	err := c.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(length(payload)), 0), COALESCE(SUM(hit_count), 0)
		FROM cache_entries`,
	).Scan(&s.Entries, &s.TotalBytes, &s.TotalHits)
	if err != nil {
		return Stats{}, fmt.Errorf("cache: stats: %w", err)
	}
	return s, nil
}

// Ping verifies the database is reachable.
func (c *PersistentCache) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.db.PingContext(ctx)
}

// Close releases the database. Subsequent calls return ErrClosed.
func (c *PersistentCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.db.Close()
}

func affected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cache: rows affected: %w", err)
	}
	return int(n), nil
}

// Ensure PersistentCache implements PersistentTier
var _ PersistentTier = (*PersistentCache)(nil)
