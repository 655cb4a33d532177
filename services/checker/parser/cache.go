// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package parser

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/nuchem/services/checker/chemistry"
	"github.com/AleutianAI/nuchem/services/checker/nuclear"
)

// CacheOptions configures CachedParser.
type CacheOptions struct {
	// MaxEntries is the maximum number of cached trees across both domains.
	// Default: 1024
	MaxEntries int

	// TTL is how long a tree stays cached. Zero keeps entries until evicted.
	// Default: 10 minutes
	TTL time.Duration

	// FlightTimeout bounds a shared upstream parse. The shared parse does
	// not inherit cancellation from whichever caller started it.
	// Default: DefaultTimeout
	FlightTimeout time.Duration

	// OnLookup, when set, is called once per lookup with the outcome.
	OnLookup func(domain Domain, hit bool)
}

// DefaultCacheOptions returns the default cache settings.
func DefaultCacheOptions() CacheOptions {
	return CacheOptions{
		MaxEntries:    1024,
		TTL:           10 * time.Minute,
		FlightTimeout: DefaultTimeout,
	}
}

// CacheOption is a functional option for configuring CachedParser.
type CacheOption func(*CacheOptions)

// WithMaxEntries sets the maximum number of cached trees.
func WithMaxEntries(n int) CacheOption {
	return func(o *CacheOptions) {
		if n > 0 {
			o.MaxEntries = n
		}
	}
}

// WithTTL sets how long a cached tree stays valid.
func WithTTL(d time.Duration) CacheOption {
	return func(o *CacheOptions) {
		if d >= 0 {
			o.TTL = d
		}
	}
}

// WithFlightTimeout bounds each shared upstream parse.
func WithFlightTimeout(d time.Duration) CacheOption {
	return func(o *CacheOptions) {
		if d > 0 {
			o.FlightTimeout = d
		}
	}
}

// WithLookupObserver registers a callback for cache hits and misses.
func WithLookupObserver(fn func(domain Domain, hit bool)) CacheOption {
	return func(o *CacheOptions) {
		o.OnLookup = fn
	}
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
}

type cacheEntry struct {
	key      string
	value    any
	storedAt time.Time
	element  *list.Element
}

// CachedParser memoises another Parser.
//
// # Description
//
// Trees are cached by domain and exact expression text in an LRU list.
// Concurrent misses for the same key share one upstream call. That call
// keeps the first caller's context values but not its cancellation, so a
// caller that gives up only stops waiting; the others still get the tree.
// Failed parses are not cached. Syntax errors are cached like any other tree
// because they come back as *ErrorNode values.
//
// # Thread Safety
//
// CachedParser is safe for concurrent use.
type CachedParser struct {
	next    Parser
	options CacheOptions

	mu      sync.Mutex
	entries map[string]*cacheEntry
	lru     *list.List
	flight  singleflight.Group

	hits      int64
	misses    int64
	evictions int64
}

// NewCachedParser wraps next with an LRU cache.
func NewCachedParser(next Parser, opts ...CacheOption) *CachedParser {
	options := DefaultCacheOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &CachedParser{
		next:    next,
		options: options,
		entries: make(map[string]*cacheEntry),
		lru:     list.New(),
	}
}

// ParseChemistry implements Parser.
func (c *CachedParser) ParseChemistry(ctx context.Context, expression string) (chemistry.Node, error) {
	v, err := c.getOrParse(ctx, DomainChemistry, expression, func(ctx context.Context) (any, error) {
		return c.next.ParseChemistry(ctx, expression)
	})
	if err != nil {
		return nil, err
	}
	node, _ := v.(chemistry.Node)
	return node, nil
}

// ParseNuclear implements Parser.
func (c *CachedParser) ParseNuclear(ctx context.Context, expression string) (nuclear.Node, error) {
	v, err := c.getOrParse(ctx, DomainNuclear, expression, func(ctx context.Context) (any, error) {
		return c.next.ParseNuclear(ctx, expression)
	})
	if err != nil {
		return nil, err
	}
	node, _ := v.(nuclear.Node)
	return node, nil
}

// Stats returns a snapshot of the cache counters.
func (c *CachedParser) Stats() CacheStats {
	c.mu.Lock()
	entries := len(c.entries)
	c.mu.Unlock()
	return CacheStats{
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
		Entries:   entries,
	}
}

// Purge drops every cached tree.
func (c *CachedParser) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
	c.lru.Init()
}

func (c *CachedParser) getOrParse(ctx context.Context, domain Domain, expression string, parse func(context.Context) (any, error)) (any, error) {
	key := string(domain) + "\x00" + expression

	if v, ok := c.get(key); ok {
		c.observe(domain, true)
		return v, nil
	}
	c.observe(domain, false)

	flightCtx := context.WithoutCancel(ctx)
	result := c.flight.DoChan(key, func() (any, error) {
		// Another flight may have filled the entry while this one waited.
		if v, ok := c.get(key); ok {
			return v, nil
		}
		ctx, cancel := context.WithTimeout(flightCtx, c.options.FlightTimeout)
		defer cancel()
		v, err := parse(ctx)
		if err != nil {
			return nil, err
		}
		c.put(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-result:
		return r.Val, r.Err
	}
}

func (c *CachedParser) observe(domain Domain, hit bool) {
	if hit {
		atomic.AddInt64(&c.hits, 1)
	} else {
		atomic.AddInt64(&c.misses, 1)
	}
	if c.options.OnLookup != nil {
		c.options.OnLookup(domain, hit)
	}
}

func (c *CachedParser) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.options.TTL > 0 && time.Since(entry.storedAt) > c.options.TTL {
		c.removeLocked(entry)
		return nil, false
	}
	c.lru.MoveToFront(entry.element)
	return entry.value, true
}

func (c *CachedParser) put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.value = value
		entry.storedAt = time.Now()
		c.lru.MoveToFront(entry.element)
		return
	}

	entry := &cacheEntry{key: key, value: value, storedAt: time.Now()}
	entry.element = c.lru.PushFront(entry)
	c.entries[key] = entry

	for len(c.entries) > c.options.MaxEntries {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest.Value.(*cacheEntry))
		atomic.AddInt64(&c.evictions, 1)
	}
}

func (c *CachedParser) removeLocked(entry *cacheEntry) {
	c.lru.Remove(entry.element)
	delete(c.entries, entry.key)
}
