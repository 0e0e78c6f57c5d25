// Copyright 2026 The sqlcore Authors.
// Licensed under the Apache License, Version 2.0, see LICENSE file for details.
// Package txn implements the transaction coordinator: begin/commit/rollback
// with a disciplined rollback-on-throw policy. At most one Coordinator is
// ever open on a Connection at a time, enforced by the caller.
package txn

import (
	"context"
	"database/sql"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"

	"github.com/reactivedb/sqlcore/internal/dberr"
	"github.com/reactivedb/sqlcore/internal/dblog"
)

// Coordinator wraps a single open *sql.Tx.
type Coordinator struct {
	tx  *sql.Tx
	log dblog.Logger
}

// Begin opens an exclusive transaction. Exclusive locking is chosen because
// the host does not coordinate concurrent writers; the Connection opens its
// DSN with "_txlock=exclusive" (a mattn/go-sqlite3 driver option) so that a
// plain db.BeginTx already issues "BEGIN EXCLUSIVE" at the driver level. A
// bounded retry absorbs a transient SQLITE_BUSY from a competing checkpoint
// before surfacing a DbError.
func Begin(ctx context.Context, db *sql.DB, log dblog.Logger, attempts uint) (*Coordinator, error) {
	if log == nil {
		log = dblog.Noop{}
	}

	var tx *sql.Tx
	err := retry.Retry(func(uint) error {
		t, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		tx = t
		return nil
	}, retryStrategies(attempts)...)
	if err != nil {
		return nil, dberr.Db("Failed to begin exclusive transaction", dberr.PhaseExec, err)
	}
	return &Coordinator{tx: tx, log: log}, nil
}

func retryStrategies(attempts uint) []strategy.Strategy {
	if attempts <= 1 {
		return []strategy.Strategy{strategy.Limit(1)}
	}
	return []strategy.Strategy{
		strategy.Limit(attempts),
		strategy.Backoff(backoff.Incremental(10*time.Millisecond, 20*time.Millisecond)),
	}
}

// Commit commits the transaction.
func (c *Coordinator) Commit() error {
	if err := c.tx.Commit(); err != nil {
		return dberr.Db("Failed to commit transaction", dberr.PhaseExec, err)
	}
	return nil
}

// Rollback logs a prominent error (rollback is treated as abnormal), then
// issues the rollback. If the rollback itself fails the error is logged and
// swallowed: the underlying engine may already have rolled back
// automatically after certain I/O or memory errors, and trying again would
// surface a spurious error that hides the original cause.
func (c *Coordinator) Rollback(cause error) {
	c.log.Error("rolling back transaction", cause, map[string]any{"rollback": true})
	if err := c.tx.Rollback(); err != nil {
		c.log.Error("rollback failed, swallowing", err, map[string]any{"harmless": true})
	}
}

// Stmt binds a cached statement to this transaction for the duration of the
// call, matching database/sql's tx.Stmt convention.
func (c *Coordinator) Stmt(stmt *sql.Stmt) *sql.Stmt {
	return c.tx.Stmt(stmt)
}

// ExecContext runs sql directly on the transaction, for the schema and
// migration scripts that are not routed through the statement cache.
func (c *Coordinator) ExecContext(ctx context.Context, query string) error {
	if _, err := c.tx.ExecContext(ctx, query); err != nil {
		return dberr.Db("Failed to execute statement", dberr.PhaseExec, err)
	}
	return nil
}

// QueryRowContext runs a single-row query directly on the transaction, for
// reading the user_version pragma inside a migration or reset.
func (c *Coordinator) QueryRowContext(ctx context.Context, query string) *sql.Row {
	return c.tx.QueryRowContext(ctx, query)
}
