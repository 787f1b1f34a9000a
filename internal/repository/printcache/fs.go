package printcache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/db"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/printdoc"
)

// FileCache stores pages as files in one directory.
type FileCache struct {
	dir    string
	logger *zap.Logger
}

// NewFileCache creates the directory if needed.
func NewFileCache(dir string, logger *zap.Logger) (*FileCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: cache directory not set", domain.ErrConfiguration)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &FileCache{dir: dir, logger: logger}, nil
}

// Ping checks that the cache directory is still there.
func (c *FileCache) Ping(_ context.Context) error {
	info, err := os.Stat(c.dir)
	if err != nil {
		return fmt.Errorf("stat cache directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cache path %q is not a directory", c.dir)
	}
	return nil
}

// Save writes both files concurrently. Each name is claimed exclusively and
// then filled by an atomic replace; an existing file is a save failure.
func (c *FileCache) Save(_ context.Context, key uuid.UUID, metadata, content string) error {
	var g errgroup.Group
	g.Go(func() error {
		return c.write(key, false, content)
	})
	g.Go(func() error {
		return c.write(key, true, metadata)
	})
	return g.Wait() //nolint:wrapcheck // write already returns the classified error
}

func (c *FileCache) write(key uuid.UUID, isMetadata bool, value string) error {
	name := printdoc.ContentKey(key)
	if isMetadata {
		name = printdoc.MetadataKey(key)
	}
	path := filepath.Join(c.dir, name)

	// O_EXCL claims the name so that only one writer proceeds to the replace.
	claim, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640) //nolint:gosec // name is a parsed UUID
	if errors.Is(err, fs.ErrExist) {
		return &domain.PrintSaveFailureError{Key: key.String(), Metadata: isMetadata, Err: db.ErrKeyExists}
	}
	if err == nil {
		err = claim.Close()
	}
	if err == nil {
		err = atomic.WriteFile(path, strings.NewReader(value))
		if err != nil {
			_ = os.Remove(path)
		}
	}
	if err != nil {
		c.logger.Error("Print page save failed", zap.String("path", path), zap.Error(err))
		return &domain.PrintSaveFailureError{Key: key.String(), Metadata: isMetadata, Err: err}
	}
	return nil
}

// Get reads the page HTML.
func (c *FileCache) Get(_ context.Context, key uuid.UUID) (string, bool, error) {
	path := filepath.Join(c.dir, printdoc.ContentKey(key))
	data, err := os.ReadFile(path) //nolint:gosec // name is a parsed UUID
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		c.logger.Error("Print page fetch failed", zap.String("path", path), zap.Error(err))
		return "", false, &domain.PrintFetchFailureError{Key: printdoc.ContentKey(key), Err: err}
	}
	return string(data), true, nil
}
