package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Package storage remembers which product fingerprints were already published.

// Store tracks seen product fingerprints.
type Store interface {
	Close() error
	SeenProduct(ctx context.Context, key string) (bool, error)
	MarkProduct(ctx context.Context, key string) error
}

// Options selects and tunes the backend.
type Options struct {
	Type            string
	Path            string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	TTL             time.Duration
	CleanupInterval time.Duration
}

const (
	defaultTTL             = 5 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(opts Options) (Store, error) {
	typ := strings.TrimSpace(strings.ToLower(opts.Type))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(opts.Path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(opts.Path, opts)
	case "redis":
		if strings.TrimSpace(opts.RedisAddr) == "" {
			return nil, fmt.Errorf("redis storage requires an address")
		}
		return openRedis(opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error { return nil }

func (noopStore) SeenProduct(context.Context, string) (bool, error) { return false, nil }

func (noopStore) MarkProduct(context.Context, string) error { return nil }
