// Package cache stores rendered diagrams keyed by a hash of everything that
// went into them.
//
// Three backends implement [Cache]:
//   - [FileCache]: one JSON entry per key under a local directory (CLI default)
//   - [RedisCache]: shared cache for CI runners, entries expire server-side
//   - [NullCache]: caching disabled
//
// Keys come from a [Keyer]. [DefaultKeyer] hashes the diagram inputs and the
// options that change the output; [ScopedKeyer] prefixes another keyer so
// several projects can share one Redis database.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is a byte store with optional expiry. Implementations must be safe
// for concurrent use.
type Cache interface {
	// Get returns the stored value and whether it was found. Expired and
	// corrupt entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	// Clear removes all entries and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Options selects and configures a backend.
type Options struct {
	Backend   string
	Dir       string
	RedisAddr string
}

// Open returns the configured backend. An empty backend means [BackendNone].
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case BackendFile:
		c, err := NewFileCache(opts.Dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, opts.RedisAddr)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendNone, "":
		return NewNullCache(), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
}

// NullCache misses every lookup and stores nothing.
type NullCache struct{}

func NewNullCache() *NullCache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error { return nil }
func (*NullCache) Clear(context.Context) (int, error) { return 0, nil }
func (*NullCache) Close() error { return nil }

var (
	_ Cache   = (*NullCache)(nil)
	_ Clearer = (*NullCache)(nil)
)
