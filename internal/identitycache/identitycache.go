// Copyright 2026 The sqlcore Authors.
// Licensed under the Apache License, Version 2.0, see LICENSE file for details.
// Package identitycache implements the per-table record identity cache:
// the set of cache keys whose records the host has already received in
// materialized form. It is a plain mutex-guarded set, not a distributed
// cache; the cache is process-local and owned by a single Connection.
package identitycache

import "sync"

// Cache is a Connection-owned set of cache keys, formed as
// table + "$" + id.
type Cache struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// New returns an empty identity cache.
func New() *Cache {
	return &Cache{keys: map[string]struct{}{}}
}

// Key forms the cache key for a (table, id) pair.
func Key(table, id string) string {
	return table + "$" + id
}

// IsCached reports whether key is present.
func (c *Cache) IsCached(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.keys[key]
	return ok
}

// MarkAsCached adds key to the set.
func (c *Cache) MarkAsCached(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[key] = struct{}{}
}

// RemoveFromCache removes key from the set, if present.
func (c *Cache) RemoveFromCache(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, key)
}

// Clear empties the set, used by unsafeResetDatabase.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = map[string]struct{}{}
}

// Snapshot returns a copy of the current key set, for tests asserting
// rollback leaves the cache byte-identical to its pre-batch state.
func (c *Cache) Snapshot() map[string]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]struct{}, len(c.keys))
	for k := range c.keys {
		out[k] = struct{}{}
	}
	return out
}
