// Package cache stores analytics API responses keyed by request URL.
package cache

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// Cache is a byte-value store with per-entry expiry.
type Cache interface {
	// Get returns the value and true on a live hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for ttl; ttl <= 0 uses the driver default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes a key; missing keys are not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Driver names accepted by New.
const (
	DriverNone     = "none"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and tunes a cache driver.
type Config struct {
	Driver     string        `mapstructure:"driver"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
	// DSN is a file path for sqlite, a URL for redis or postgres.
	DSN       string `mapstructure:"dsn"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// DefaultTTL applies when neither the config nor the caller sets one.
const DefaultTTL = 10 * time.Minute

// New opens the configured driver. DriverNone returns a nil Cache.
func New(ctx context.Context, cfg Config) (Cache, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	switch cfg.Driver {
	case "", DriverNone:
		return nil, nil
	case DriverMemory:
		return NewMemory(cfg.MaxEntries, cfg.TTL), nil
	case DriverRedis:
		c, err := NewRedis(ctx, cfg.DSN, cfg.KeyPrefix, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return c, nil
	case DriverSQLite:
		c, err := NewSQLite(ctx, cfg.DSN, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return c, nil
	case DriverPostgres:
		c, err := NewPostgres(ctx, cfg.DSN, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, eris.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}

func ttlOr(ttl, def time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return def
}
