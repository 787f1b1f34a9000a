// Package printcache persists rendered print pages. Every driver stores a page
// as two objects: the HTML under the page key and the request metadata under
// the key plus "-metadata". Pages are written once and never updated.
package printcache

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/metrics"
)

// Driver names.
const (
	DriverS3     = "s3"
	DriverRedis  = "redis"
	DriverFS     = "fs"
	DriverMemory = "memory"
)

// Content types of the two stored objects.
const (
	ContentTypeHTML = "text/html"
	ContentTypeJSON = "application/json"
)

// Cache is implemented by every driver.
type Cache interface {
	Save(ctx context.Context, key uuid.UUID, metadata, content string) error
	Get(ctx context.Context, key uuid.UUID) (content string, found bool, err error)
}

// Instrumented records cache operation counts and latency per driver.
type Instrumented struct {
	inner  Cache
	driver string
}

// NewInstrumented wraps a driver with metrics.
func NewInstrumented(inner Cache, driver string) *Instrumented {
	return &Instrumented{inner: inner, driver: driver}
}

// Save delegates to the wrapped driver.
func (c *Instrumented) Save(ctx context.Context, key uuid.UUID, metadata, content string) error {
	start := time.Now()
	err := c.inner.Save(ctx, key, metadata, content)
	c.observe("save", start, resultOf(err, true))
	return err //nolint:wrapcheck // decorator must not change the driver's error
}

// Get delegates to the wrapped driver.
func (c *Instrumented) Get(ctx context.Context, key uuid.UUID) (string, bool, error) {
	start := time.Now()
	content, found, err := c.inner.Get(ctx, key)
	c.observe("get", start, resultOf(err, found))
	return content, found, err //nolint:wrapcheck // decorator must not change the driver's error
}

func (c *Instrumented) observe(op string, start time.Time, result string) {
	metrics.CacheOperationDuration.WithLabelValues(c.driver, op).Observe(time.Since(start).Seconds())
	metrics.CacheOperationsTotal.WithLabelValues(c.driver, op, result).Inc()
}

func resultOf(err error, found bool) string {
	switch {
	case err != nil:
		return "error"
	case !found:
		return "miss"
	default:
		return "ok"
	}
}
