package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the cache needs.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Postgres stores entries in a shared Postgres table so several server
// instances see the same responses.
type Postgres struct {
	pool Pool
	ttl  time.Duration
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS response_cache (
	id         TEXT NOT NULL,
	cache_key  TEXT PRIMARY KEY,
	body       BYTEA NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_response_cache_expires_at ON response_cache(expires_at);
`

// NewPostgres creates a pool, pings it and migrates the cache table.
func NewPostgres(ctx context.Context, connString string, ttl time.Duration) (*Postgres, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "cache: parse postgres config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "cache: create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "cache: ping postgres")
	}

	c := NewPostgresPool(pool, ttl)
	if err := c.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return c, nil
}

// NewPostgresPool wraps an existing pool.
func NewPostgresPool(pool Pool, ttl time.Duration) *Postgres {
	return &Postgres{pool: pool, ttl: ttlOr(ttl, DefaultTTL)}
}

// Migrate creates the cache table.
func (c *Postgres) Migrate(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "cache: postgres migrate")
}

// Get returns a live entry.
func (c *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var body []byte
	err := c.pool.QueryRow(ctx,
		`SELECT body FROM response_cache WHERE cache_key = $1 AND expires_at > now()`, key,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "cache: postgres get")
	}
	return body, true, nil
}

// Set upserts an entry.
func (c *Postgres) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := c.pool.Exec(ctx,
		`INSERT INTO response_cache (id, cache_key, body, cached_at, expires_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (cache_key) DO UPDATE SET id = EXCLUDED.id, body = EXCLUDED.body,
		 cached_at = EXCLUDED.cached_at, expires_at = EXCLUDED.expires_at`,
		uuid.NewString(), key, value, now, now.Add(ttlOr(ttl, c.ttl)),
	)
	return eris.Wrap(err, "cache: postgres set")
}

// Delete removes a key.
func (c *Postgres) Delete(ctx context.Context, key string) error {
	_, err := c.pool.Exec(ctx, `DELETE FROM response_cache WHERE cache_key = $1`, key)
	return eris.Wrap(err, "cache: postgres delete")
}

// Close closes the pool.
func (c *Postgres) Close() error {
	c.pool.Close()
	return nil
}
