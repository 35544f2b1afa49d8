// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package cache provides the in-memory result caches used by the
recommendation engine.

Two implementations satisfy Cacher (and recommend.ResultCache):

  - Cache: TTL expiry with an optional entry bound; a background sweep
    removes expired entries until Close.
  - LFUCache: bounded Least Frequently Used eviction with per-entry TTL;
    O(1) get, set and evict.

Both support DeletePrefix, which the engine uses to drop every cached
result for one user after a rating:

	c := cache.NewCacher(cache.CacheConfig{Type: cache.CacheTypeLFU, TTL: 5 * time.Minute, Capacity: 10000})
	defer c.Close()
	engine.SetCache(c)

# Thread Safety

All methods are safe for concurrent use.
*/
package cache
