package printcache

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/db"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/printdoc"
)

// MemoryCache keeps pages in process memory. Pages are lost on restart.
type MemoryCache struct {
	mu      sync.RWMutex
	objects map[string]string
}

// NewMemoryCache creates an empty in-memory driver.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{objects: make(map[string]string)}
}

// Ping always succeeds.
func (c *MemoryCache) Ping(_ context.Context) error { return nil }

// Save stores both objects. An existing key is a save failure.
func (c *MemoryCache) Save(_ context.Context, key uuid.UUID, metadata, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.objects[printdoc.ContentKey(key)]; ok {
		return &domain.PrintSaveFailureError{Key: key.String(), Err: db.ErrKeyExists}
	}
	if _, ok := c.objects[printdoc.MetadataKey(key)]; ok {
		return &domain.PrintSaveFailureError{Key: key.String(), Metadata: true, Err: db.ErrKeyExists}
	}
	c.objects[printdoc.ContentKey(key)] = content
	c.objects[printdoc.MetadataKey(key)] = metadata
	return nil
}

// Get reads the page HTML.
func (c *MemoryCache) Get(_ context.Context, key uuid.UUID) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	content, ok := c.objects[printdoc.ContentKey(key)]
	return content, ok, nil
}

// Metadata returns the stored metadata for a page.
func (c *MemoryCache) Metadata(key uuid.UUID) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	md, ok := c.objects[printdoc.MetadataKey(key)]
	return md, ok
}

// Len returns the number of stored pages.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.objects) / 2
}
