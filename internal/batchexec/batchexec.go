// Copyright 2026 The sqlcore Authors.
// Licensed under the Apache License, Version 2.0, see LICENSE file for details.
// Package batchexec runs a compound list of parameterized mutations
// atomically and applies deferred Identity Cache deltas only after commit,
// so the cache never reflects a write that the database later rolls back.
package batchexec

import (
	"context"

	"github.com/reactivedb/sqlcore/hostvalue"
	"github.com/reactivedb/sqlcore/internal/binder"
	"github.com/reactivedb/sqlcore/internal/dberr"
	"github.com/reactivedb/sqlcore/internal/identitycache"
	"github.com/reactivedb/sqlcore/internal/stmtcache"
	"github.com/reactivedb/sqlcore/internal/txn"
)

// CacheBehavior tags a batch operation with how it affects the Identity
// Cache on success.
type CacheBehavior int8

const (
	CacheNone            CacheBehavior = 0
	CacheMarkOnSuccess   CacheBehavior = 1
	CacheRemoveOnSuccess CacheBehavior = -1
)

// Op is one batch operation: a cache-behavior tag, the table it targets (for
// cache-key formation, ignored when Behavior is CacheNone), the SQL text,
// and an ordered sequence of argument lists to apply to it.
type Op struct {
	Behavior    CacheBehavior
	Table       string
	SQL         string
	ArgsBatches [][]hostvalue.Value
}

// Run executes ops inside tx, preparing/binding each statement through
// stmts, and on success applies the accumulated cache deltas to cache in
// insert-then-remove order (so a key touched by both nets to removed).
// Run never itself begins or commits tx; the caller owns that so schema
// operations and batch operations can share one Coordinator lifecycle.
func Run(ctx context.Context, stmts *stmtcache.Cache, tx *txn.Coordinator, cache *identitycache.Cache, ops []Op) error {
	var toAdd, toRemove []string

	for _, op := range ops {
		for _, args := range op.ArgsBatches {
			stmt, placeholders, err := stmts.Prepare(ctx, op.SQL)
			if err != nil {
				return err
			}
			txStmt := tx.Stmt(stmt)

			bound, err := binder.Bind(op.SQL, placeholders, args)
			if err != nil {
				return err
			}

			if _, err := txStmt.ExecContext(ctx, bound...); err != nil {
				return dberr.Db("Failed to execute batch statement", dberr.PhaseStep, err)
			}

			if op.Behavior != CacheNone {
				if len(args) == 0 {
					return dberr.InvalidArgType(0, "undefined")
				}
				id, ok := args[0].AsString()
				if !ok {
					return dberr.InvalidArgType(0, args[0].Kind().String())
				}
				key := identitycache.Key(op.Table, id)
				switch op.Behavior {
				case CacheMarkOnSuccess:
					toAdd = append(toAdd, key)
				case CacheRemoveOnSuccess:
					toRemove = append(toRemove, key)
				}
			}
		}
	}

	for _, key := range toAdd {
		cache.MarkAsCached(key)
	}
	for _, key := range toRemove {
		cache.RemoveFromCache(key)
	}
	return nil
}
