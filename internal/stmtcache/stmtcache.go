// Copyright 2026 The sqlcore Authors.
// Licensed under the Apache License, Version 2.0, see LICENSE file for details.
// Package stmtcache implements a prepared-statement cache: an
// exact-string-keyed map from SQL text to a prepared statement, amortizing
// parse cost across the life of a Connection. Entries are never evicted;
// a statement lives as long as the Connection that prepared it.
package stmtcache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/reactivedb/sqlcore/internal/dberr"
)

// entry pairs a prepared statement with its placeholder count, since
// database/sql does not expose that count directly once a Stmt exists.
type entry struct {
	stmt         *sql.Stmt
	placeholders int
}

// Cache is a Connection-owned, never-evicting prepared statement cache.
// Prepare and CloseAll hold an internal mutex, so concurrent calls do not
// corrupt the entry map.
type Cache struct {
	db      *sql.DB
	mu      sync.Mutex
	entries map[string]*entry
}

// New returns a statement cache backed by db.
func New(db *sql.DB) *Cache {
	return &Cache{db: db, entries: map[string]*entry{}}
}

// Prepare returns the cached statement for sql, preparing it on first use.
// The SQL text is the cache key; a prepare(sql) call always returns the
// same underlying *sql.Stmt for the life of the Cache.
func (c *Cache) Prepare(ctx context.Context, query string) (*sql.Stmt, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[query]; ok {
		return e.stmt, e.placeholders, nil
	}

	stmt, err := c.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, 0, dberr.Db("Failed to prepare query statement", dberr.PhasePrepare, err)
	}

	e := &entry{stmt: stmt, placeholders: countPlaceholders(query)}
	c.entries[query] = e
	return e.stmt, e.placeholders, nil
}

// CloseAll finalizes every cached statement. Called once, at Connection
// teardown; the cache must not be used afterwards.
func (c *Cache) CloseAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for query, e := range c.entries {
		if err := e.stmt.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to finalize statement for %q: %w", query, err)
		}
	}
	c.entries = map[string]*entry{}
	return firstErr
}

// countPlaceholders counts '?' tokens outside of single- and double-quoted
// string literals. Placeholders are always the unnamed '?' form here, never
// the named :name/$name/@name forms, so a quote-aware scan of '?' is
// sufficient and avoids pulling in a full SQL tokenizer for one integer.
func countPlaceholders(query string) int {
	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '?':
			n++
		}
	}
	return n
}
