package cipher

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ytget/ytdl/internal/logger"
)

// Cache maps script version ids to the token sequence extracted from that
// version. Entries are never evicted or replaced.
//
// A single mutex covers the lookup and, on a miss, the whole fetch, extract
// and store sequence. Concurrent misses for different versions therefore
// serialize behind one another.
type Cache struct {
	mu      sync.Mutex
	entries map[string]TokenSequence

	extractor *Extractor
	metrics   *Metrics
	log       *logger.ComponentLogger
}

// NewCache returns an empty cache using the default extractor.
func NewCache() *Cache {
	return &Cache{
		entries:   make(map[string]TokenSequence),
		extractor: defaultExtractor,
		log:       logger.WithComponent(logger.ComponentCipher),
	}
}

// WithExtractor sets the extractor used on a miss.
func (c *Cache) WithExtractor(e *Extractor) *Cache {
	if e != nil {
		c.extractor = e
	}
	return c
}

// WithMetrics enables Prometheus accounting.
func (c *Cache) WithMetrics(m *Metrics) *Cache {
	c.metrics = m
	return c
}

// WithLogger overrides the component logger.
func (c *Cache) WithLogger(l *logger.ComponentLogger) *Cache {
	if l != nil {
		c.log = l
	}
	return c
}

// GetOrBuild returns the token sequence for versionID. On a miss fetch is
// called for the script text and the extracted sequence is stored. Fetch and
// extraction failures are returned and not cached, so the next call retries.
// The returned sequence is a copy the caller may modify.
func (c *Cache) GetOrBuild(ctx context.Context, versionID string, fetch func(context.Context) (string, error)) (TokenSequence, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq, ok := c.entries[versionID]; ok {
		c.metrics.hit()
		return seq.Clone(), nil
	}
	c.metrics.miss()
	c.log.Debug("token sequence cache miss", map[string]interface{}{"version": versionID})

	script, err := fetch(ctx)
	if err != nil {
		c.metrics.failure(err)
		return nil, err
	}

	start := time.Now()
	seq, err := c.extractor.Extract(script)
	c.metrics.observe(time.Since(start))
	if err != nil {
		c.metrics.failure(err)
		c.log.Warn("token sequence extraction failed", map[string]interface{}{
			"version": versionID,
			"error":   err.Error(),
		})
		return nil, err
	}

	c.entries[versionID] = seq
	c.log.Info("token sequence cached", map[string]interface{}{
		"version": versionID,
		"tokens":  len(seq),
	})
	return seq.Clone(), nil
}

// Peek returns a copy of the cached sequence for versionID without fetching.
func (c *Cache) Peek(versionID string) (TokenSequence, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq, ok := c.entries[versionID]
	return seq.Clone(), ok
}

// Len returns the number of cached versions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Versions returns the cached version ids in sorted order.
func (c *Cache) Versions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.entries))
	for v := range c.entries {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
