package printcache

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/db"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/printdoc"
)

// kvStore is the subset of db.KVStore the Redis driver uses.
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetNX(ctx context.Context, key string, value []byte) error
}

// RedisCache stores pages as two write-once Redis keys.
type RedisCache struct {
	store  kvStore
	prefix string
	logger *zap.Logger
}

// NewRedisCache creates the Redis driver. prefix is prepended to every key.
func NewRedisCache(store kvStore, prefix string, logger *zap.Logger) *RedisCache {
	return &RedisCache{store: store, prefix: prefix, logger: logger}
}

// Save writes both keys concurrently. An existing key is a save failure.
func (c *RedisCache) Save(ctx context.Context, key uuid.UUID, metadata, content string) error {
	var g errgroup.Group
	g.Go(func() error {
		return c.set(ctx, key, false, content)
	})
	g.Go(func() error {
		return c.set(ctx, key, true, metadata)
	})
	return g.Wait() //nolint:wrapcheck // set already returns the classified error
}

func (c *RedisCache) set(ctx context.Context, key uuid.UUID, isMetadata bool, value string) error {
	k := c.prefix + printdoc.ContentKey(key)
	if isMetadata {
		k = c.prefix + printdoc.MetadataKey(key)
	}
	if err := c.store.SetNX(ctx, k, []byte(value)); err != nil {
		c.logger.Error("Print page save failed", zap.String("key", k), zap.Error(err))
		return &domain.PrintSaveFailureError{Key: key.String(), Metadata: isMetadata, Err: err}
	}
	return nil
}

// Get reads the page HTML.
func (c *RedisCache) Get(ctx context.Context, key uuid.UUID) (string, bool, error) {
	k := c.prefix + printdoc.ContentKey(key)
	data, err := c.store.Get(ctx, k)
	if errors.Is(err, db.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		c.logger.Error("Print page fetch failed", zap.String("key", k), zap.Error(err))
		return "", false, &domain.PrintFetchFailureError{Key: k, Err: err}
	}
	return string(data), true, nil
}
