package i18n

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrEmptyLocale is returned for blank locale arguments.
var ErrEmptyLocale = errors.New("i18n: empty locale")

// Meta describes how one bundle lookup was satisfied.
type Meta struct {
	CacheUsed bool
	LoadTime  time.Duration
	LoadedAt  time.Time
}

// LocaleMetrics counts per-locale cache usage.
type LocaleMetrics struct {
	Requests int64
	Hits     int64
	Misses   int64
	Errors   int64
}

// Stats summarizes the current cache contents.
type Stats struct {
	Size int
}

// Cache is the process-wide translation cache. An entry is written once per
// locale on first successful load and served from memory afterwards; there is
// no TTL, only Clear. Concurrent first loads for the same locale are
// deduplicated so the loader runs once.
type Cache struct {
	loader Loader

	mu      sync.RWMutex
	entries map[string]cacheEntry
	usage   map[string]*LocaleMetrics

	group singleflight.Group
	now   func() time.Time
}

type cacheEntry struct {
	messages Messages
	loadedAt time.Time
	loadTime time.Duration
}

// NewCache creates a cache over the given loader.
func NewCache(loader Loader) *Cache {
	return &Cache{
		loader:  loader,
		entries: make(map[string]cacheEntry),
		usage:   make(map[string]*LocaleMetrics),
		now:     time.Now,
	}
}

// Get returns the bundle for locale, loading it on first use. A failed load
// returns (nil, meta, err) and leaves every other cached locale untouched.
func (c *Cache) Get(ctx context.Context, locale string) (Messages, Meta, error) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		c.recordError(locale)
		return nil, Meta{}, ErrEmptyLocale
	}

	c.mu.RLock()
	entry, ok := c.entries[locale]
	c.mu.RUnlock()
	if ok {
		c.recordHit(locale)
		return entry.messages, Meta{CacheUsed: true, LoadTime: entry.loadTime, LoadedAt: entry.loadedAt}, nil
	}

	// Concurrent callers for one uncached locale share a single load.
	v, err, _ := c.group.Do(locale, func() (interface{}, error) {
		if cached, ok := c.lookup(locale); ok {
			return cached, nil
		}

		start := c.now()
		messages, err := c.loader.Load(ctx, locale)
		if err != nil {
			return cacheEntry{}, err
		}
		e := cacheEntry{
			messages: messages,
			loadedAt: c.now(),
			loadTime: c.now().Sub(start),
		}
		c.mu.Lock()
		c.entries[locale] = e
		c.mu.Unlock()
		return e, nil
	})
	if err != nil {
		c.recordError(locale)
		return nil, Meta{}, err
	}

	e := v.(cacheEntry)
	c.recordMiss(locale)
	return e.messages, Meta{CacheUsed: false, LoadTime: e.loadTime, LoadedAt: e.loadedAt}, nil
}

// Clear drops all cached entries. Usage metrics are kept; use ResetMetrics.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// CacheStats returns the current entry count.
func (c *Cache) CacheStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Size: len(c.entries)}
}

// Metrics returns a copy of the per-locale usage counters.
func (c *Cache) Metrics() map[string]LocaleMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]LocaleMetrics, len(c.usage))
	for locale, m := range c.usage {
		out[locale] = *m
	}
	return out
}

// ErrorRate returns errors / total requests across all locales, 0 when idle.
func (c *Cache) ErrorRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total, errors int64
	for _, m := range c.usage {
		total += m.Requests
		errors += m.Errors
	}
	if total == 0 {
		return 0
	}
	return float64(errors) / float64(total)
}

// ResetMetrics zeroes all usage counters.
func (c *Cache) ResetMetrics() {
	c.mu.Lock()
	c.usage = make(map[string]*LocaleMetrics)
	c.mu.Unlock()
}

func (c *Cache) lookup(locale string) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[locale]
	return e, ok
}

func (c *Cache) metricsFor(locale string) *LocaleMetrics {
	if m, ok := c.usage[locale]; ok {
		return m
	}
	m := &LocaleMetrics{}
	c.usage[locale] = m
	return m
}

func (c *Cache) recordHit(locale string) {
	c.mu.Lock()
	m := c.metricsFor(locale)
	m.Requests++
	m.Hits++
	c.mu.Unlock()
}

func (c *Cache) recordMiss(locale string) {
	c.mu.Lock()
	m := c.metricsFor(locale)
	m.Requests++
	m.Misses++
	c.mu.Unlock()
}

func (c *Cache) recordError(locale string) {
	c.mu.Lock()
	m := c.metricsFor(locale)
	m.Requests++
	m.Errors++
	c.mu.Unlock()
}
