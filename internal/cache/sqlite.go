package cache

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLite persists entries in a local SQLite file.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS response_cache (
	id         TEXT NOT NULL,
	cache_key  TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	cached_at  INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_response_cache_expires_at ON response_cache(expires_at);
`

// NewSQLite opens the database at dsn, configures WAL mode and migrates.
func NewSQLite(ctx context.Context, dsn string, ttl time.Duration) (*SQLite, error) {
	if dsn == "" {
		dsn = "dengue-atlas-cache.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "cache: sqlite exec %s", pragma)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteMigration); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "cache: sqlite migrate")
	}
	return &SQLite{db: db, ttl: ttlOr(ttl, DefaultTTL), now: time.Now}, nil
}

// Get returns a live entry.
func (c *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var body []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT body FROM response_cache WHERE cache_key = ? AND expires_at > ?`,
		key, c.now().UnixMilli(),
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "cache: sqlite get")
	}
	return body, true, nil
}

// Set upserts an entry.
func (c *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := c.now()
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO response_cache (id, cache_key, body, cached_at, expires_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET id = excluded.id, body = excluded.body,
		 cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		uuid.NewString(), key, value, now.UnixMilli(), now.Add(ttlOr(ttl, c.ttl)).UnixMilli(),
	)
	return eris.Wrap(err, "cache: sqlite set")
}

// Delete removes a key.
func (c *SQLite) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM response_cache WHERE cache_key = ?`, key)
	return eris.Wrap(err, "cache: sqlite delete")
}

// Purge drops expired rows and returns how many were removed.
func (c *SQLite) Purge(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM response_cache WHERE expires_at <= ?`, c.now().UnixMilli())
	if err != nil {
		return 0, eris.Wrap(err, "cache: sqlite purge")
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Close closes the database.
func (c *SQLite) Close() error {
	return c.db.Close()
}
