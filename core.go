// Copyright 2026 The sqlcore Authors.
// Licensed under the Apache License, Version 2.0, see LICENSE file for details.
// Package sqlcore implements the coordination layer between an embedded
// SQLite database and a document-flavored reactive data framework host: a
// prepared-statement cache, a per-table record identity cache, transactional
// batch mutation, schema installation/migration, and three-shape query
// result projection.
package sqlcore

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"

	"github.com/reactivedb/sqlcore/config"
	"github.com/reactivedb/sqlcore/hostvalue"
	"github.com/reactivedb/sqlcore/internal/batchexec"
	"github.com/reactivedb/sqlcore/internal/binder"
	"github.com/reactivedb/sqlcore/internal/dberr"
	"github.com/reactivedb/sqlcore/internal/dblog"
	"github.com/reactivedb/sqlcore/internal/identitycache"
	"github.com/reactivedb/sqlcore/internal/schema"
	"github.com/reactivedb/sqlcore/internal/shaper"
	"github.com/reactivedb/sqlcore/internal/stmtcache"
	"github.com/reactivedb/sqlcore/internal/txn"
)

// Re-export the option constructors so callers only need this package.
type Option = config.Option

var (
	WithAndroidTempStore = config.WithAndroidTempStore
	WithBusyTimeout      = config.WithBusyTimeout
	WithRetry            = config.WithRetry
)

// Connection is a process-local, single-owner handle to one on-disk or
// in-memory SQLite database. It exclusively owns its statement cache and
// identity cache and is not safe for concurrent use from multiple
// goroutines; the host is expected to serialize calls through one thread.
type Connection struct {
	db     *sql.DB
	stmts  *stmtcache.Cache
	ids    *identitycache.Cache
	log    dblog.Logger
	opts   config.Options
	active *txn.Coordinator // non-nil while a transaction is open
}

// Open opens the database at path: it turns on WAL journaling
// unconditionally, sets "_txlock=exclusive" so Begin issues "BEGIN
// EXCLUSIVE" at the driver level, and, when WithAndroidTempStore is given,
// switches to an in-memory temp store. Open fails if any pragma fails.
func Open(path string, opts ...Option) (*Connection, error) {
	o := config.Resolve(opts...)

	dsn := buildDSN(path, o)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, dberr.Db("Failed to open database", dberr.PhaseConfig, err)
	}
	// database/sql pools connections internally; only one goroutine ever
	// drives a Connection at a time, so the pool never sees concurrent
	// callers. The pool is left unbounded rather than capped at one:
	// preparing a new, not-yet-cached statement while a batch's exclusive
	// transaction holds the only checked-out connection must not deadlock
	// waiting for a connection that will never free up until that same
	// call returns.
	if _, err := db.ExecContext(context.Background(), "pragma journal_mode = WAL;"); err != nil {
		db.Close()
		return nil, dberr.Db("Failed to set journal_mode", dberr.PhaseConfig, err)
	}
	if o.AndroidTempStore {
		if _, err := db.ExecContext(context.Background(), "pragma temp_store = memory;"); err != nil {
			db.Close()
			return nil, dberr.Db("Failed to set temp_store", dberr.PhaseConfig, err)
		}
	}

	return &Connection{
		db:    db,
		stmts: stmtcache.New(db),
		ids:   identitycache.New(),
		log:   dblog.Noop{},
		opts:  o,
	}, nil
}

func buildDSN(path string, o config.Options) string {
	q := url.Values{}
	q.Set("_txlock", "exclusive")
	if o.BusyTimeout > 0 {
		q.Set("_busy_timeout", fmt.Sprintf("%d", o.BusyTimeout.Milliseconds()))
	}
	if path == ":memory:" {
		// database/sql pools more than one connection to the driver; without
		// a shared cache, each pooled connection to ":memory:" would see its
		// own empty database instead of one shared in-memory database.
		q.Set("cache", "shared")
	}
	return "file:" + path + "?" + q.Encode()
}

// WithLogger attaches a logger used for the prominent rollback-error log
// and other "log before raise" error paths. Connections default to a no-op
// logger.
func (c *Connection) WithLogger(l dblog.Logger) *Connection {
	if l != nil {
		c.log = l
	}
	return c
}

// Close finalizes every cached statement before closing the underlying
// handle.
func (c *Connection) Close() error {
	closeErr := c.stmts.CloseAll()
	if err := c.db.Close(); err != nil {
		return err
	}
	return closeErr
}

func (c *Connection) logErr(op string, err error) error {
	if err != nil {
		c.log.Error(op, err, nil)
	}
	return err
}

// --- Query façade -------------------------------------------------------

// Find returns id alone if the record is already in the identity cache,
// otherwise loads and shapes the full row, marking it cached.
func (c *Connection) Find(ctx context.Context, table, id string) (hostvalue.Value, error) {
	key := identitycache.Key(table, id)
	if c.ids.IsCached(key) {
		return hostvalue.String(id), nil
	}

	sqlText := fmt.Sprintf("select * from `%s` where id == ? limit 1", table)
	stmt, placeholders, err := c.stmts.Prepare(ctx, sqlText)
	if err != nil {
		return hostvalue.Value{}, c.logErr("find: prepare", err)
	}
	args, err := binder.Bind(sqlText, placeholders, []hostvalue.Value{hostvalue.String(id)})
	if err != nil {
		return hostvalue.Value{}, c.logErr("find: bind", err)
	}

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return hostvalue.Value{}, c.logErr("find: query", dberr.Db("Failed to run find query", dberr.PhaseStep, err))
	}
	defer rows.Close()

	if !rows.Next() {
		return hostvalue.Null(), nil
	}
	dict, err := shaper.Dictionary(rows)
	if err != nil {
		return hostvalue.Value{}, c.logErr("find: shape", err)
	}
	c.ids.MarkAsCached(key)
	return dict, nil
}

// Query runs sql with args against table, returning a mixed array of id
// strings (for already-cached records) and Dictionary shapes (newly
// materialized).
func (c *Connection) Query(ctx context.Context, table, sqlText string, args []hostvalue.Value) (hostvalue.Value, error) {
	rows, err := c.run(ctx, sqlText, args)
	if err != nil {
		return hostvalue.Value{}, err
	}
	defer rows.Close()

	var out []hostvalue.Value
	for rows.Next() {
		names, values, err := shaper.RowValues(rows)
		if err != nil {
			return hostvalue.Value{}, c.logErr("query: shape", err)
		}
		id, err := requireID(sqlText, names, values)
		if err != nil {
			return hostvalue.Value{}, c.logErr("query: id", err)
		}
		key := identitycache.Key(table, id)
		if c.ids.IsCached(key) {
			out = append(out, hostvalue.String(id))
			continue
		}
		c.ids.MarkAsCached(key)
		out = append(out, dictionaryFrom(names, values))
	}
	if err := rows.Err(); err != nil {
		return hostvalue.Value{}, c.logErr("query: rows", dberr.Db("Failed reading rows", dberr.PhaseStep, err))
	}
	return hostvalue.ArrayOf(out...), nil
}

// QueryAsArray is like Query, but the first element of the result is the
// Column Header Array, and materialized rows are shaped as Positional
// Arrays instead of dictionaries.
func (c *Connection) QueryAsArray(ctx context.Context, table, sqlText string, args []hostvalue.Value) (hostvalue.Value, error) {
	rows, err := c.run(ctx, sqlText, args)
	if err != nil {
		return hostvalue.Value{}, err
	}
	defer rows.Close()

	header, err := shaper.ColumnNames(rows)
	if err != nil {
		return hostvalue.Value{}, c.logErr("queryAsArray: header", err)
	}
	out := []hostvalue.Value{header}

	for rows.Next() {
		names, values, err := shaper.RowValues(rows)
		if err != nil {
			return hostvalue.Value{}, c.logErr("queryAsArray: shape", err)
		}
		id, err := requireID(sqlText, names, values)
		if err != nil {
			return hostvalue.Value{}, c.logErr("queryAsArray: id", err)
		}
		key := identitycache.Key(table, id)
		if c.ids.IsCached(key) {
			out = append(out, hostvalue.String(id))
			continue
		}
		c.ids.MarkAsCached(key)
		out = append(out, hostvalue.ArrayOf(values...))
	}
	if err := rows.Err(); err != nil {
		return hostvalue.Value{}, c.logErr("queryAsArray: rows", dberr.Db("Failed reading rows", dberr.PhaseStep, err))
	}
	return hostvalue.ArrayOf(out...), nil
}

// QueryIds returns only the id strings of the rows sql selects.
func (c *Connection) QueryIds(ctx context.Context, sqlText string, args []hostvalue.Value) (hostvalue.Value, error) {
	rows, err := c.run(ctx, sqlText, args)
	if err != nil {
		return hostvalue.Value{}, err
	}
	defer rows.Close()

	var out []hostvalue.Value
	for rows.Next() {
		names, values, err := shaper.RowValues(rows)
		if err != nil {
			return hostvalue.Value{}, c.logErr("queryIds: shape", err)
		}
		id, err := requireID(sqlText, names, values)
		if err != nil {
			return hostvalue.Value{}, c.logErr("queryIds: id", err)
		}
		out = append(out, hostvalue.String(id))
	}
	if err := rows.Err(); err != nil {
		return hostvalue.Value{}, c.logErr("queryIds: rows", dberr.Db("Failed reading rows", dberr.PhaseStep, err))
	}
	return hostvalue.ArrayOf(out...), nil
}

// UnsafeQueryRaw returns a host array of Dictionaries with no Identity
// Cache interaction, for diagnostics and ad-hoc queries.
func (c *Connection) UnsafeQueryRaw(ctx context.Context, sqlText string, args []hostvalue.Value) (hostvalue.Value, error) {
	rows, err := c.run(ctx, sqlText, args)
	if err != nil {
		return hostvalue.Value{}, err
	}
	defer rows.Close()

	var out []hostvalue.Value
	for rows.Next() {
		dict, err := shaper.Dictionary(rows)
		if err != nil {
			return hostvalue.Value{}, c.logErr("unsafeQueryRaw: shape", err)
		}
		out = append(out, dict)
	}
	if err := rows.Err(); err != nil {
		return hostvalue.Value{}, c.logErr("unsafeQueryRaw: rows", dberr.Db("Failed reading rows", dberr.PhaseStep, err))
	}
	return hostvalue.ArrayOf(out...), nil
}

// Count runs sql, requiring exactly one row and one column, and returns its
// value as an integer host number. An empty result raises a DbError rather
// than silently returning 0.
func (c *Connection) Count(ctx context.Context, sqlText string, args []hostvalue.Value) (hostvalue.Value, error) {
	rows, err := c.run(ctx, sqlText, args)
	if err != nil {
		return hostvalue.Value{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		return hostvalue.Value{}, c.logErr("count: empty", dberr.Db("count query returned no rows", dberr.PhaseStep, sql.ErrNoRows))
	}
	_, values, err := shaper.RowValues(rows)
	if err != nil {
		return hostvalue.Value{}, c.logErr("count: shape", err)
	}
	if len(values) != 1 {
		return hostvalue.Value{}, c.logErr("count: columns", dberr.Db(fmt.Sprintf("count query returned %d columns, expected 1", len(values)), dberr.PhaseStep, nil))
	}
	if rows.Next() {
		return hostvalue.Value{}, c.logErr("count: rows", dberr.Db("count query returned more than one row", dberr.PhaseStep, nil))
	}
	n, ok := values[0].AsNumber()
	if !ok {
		return hostvalue.Value{}, c.logErr("count: value", dberr.Db(fmt.Sprintf("count query returned a %s, expected a number", values[0].Kind()), dberr.PhaseStep, nil))
	}
	return hostvalue.Number(float64(int64(n))), nil
}

// GetLocal reads a value from the local_storage table, returning host null
// if no row exists or the stored value is SQL NULL.
func (c *Connection) GetLocal(ctx context.Context, key string) (hostvalue.Value, error) {
	rows, err := c.run(ctx, "select value from local_storage where key = ?", []hostvalue.Value{hostvalue.String(key)})
	if err != nil {
		return hostvalue.Value{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		return hostvalue.Null(), nil
	}
	_, values, err := shaper.RowValues(rows)
	if err != nil {
		return hostvalue.Value{}, c.logErr("getLocal: shape", err)
	}
	return values[0], nil
}

func (c *Connection) run(ctx context.Context, sqlText string, args []hostvalue.Value) (*sql.Rows, error) {
	stmt, placeholders, err := c.stmts.Prepare(ctx, sqlText)
	if err != nil {
		return nil, c.logErr("run: prepare", err)
	}
	bound, err := binder.Bind(sqlText, placeholders, args)
	if err != nil {
		return nil, c.logErr("run: bind", err)
	}
	rows, err := stmt.QueryContext(ctx, bound...)
	if err != nil {
		return nil, c.logErr("run: query", dberr.Db("Failed to run query", dberr.PhaseStep, err))
	}
	return rows, nil
}

func requireID(sqlText string, names []string, values []hostvalue.Value) (string, error) {
	if len(names) == 0 || names[0] != "id" {
		return "", dberr.MissingId(sqlText)
	}
	id, ok := values[0].AsString()
	if !ok {
		return "", dberr.MissingId(sqlText)
	}
	return id, nil
}

func dictionaryFrom(names []string, values []hostvalue.Value) hostvalue.Value {
	obj := hostvalue.Object()
	for i, name := range names {
		obj = obj.SetProperty(name, values[i])
	}
	return obj
}

// --- Mutation & schema operations --------------------------------------

// BatchOp is one operation in a Batch call: a cache-behavior tag, the table
// it targets, the SQL text, and an ordered sequence of argument lists.
type BatchOp = batchexec.Op

// CacheBehavior tags a BatchOp with how it affects the Identity Cache on
// success.
type CacheBehavior = batchexec.CacheBehavior

// Cache-behavior constants for BatchOp.Behavior.
const (
	CacheNone            = batchexec.CacheNone
	CacheMarkOnSuccess   = batchexec.CacheMarkOnSuccess
	CacheRemoveOnSuccess = batchexec.CacheRemoveOnSuccess
)

// Batch executes ops atomically: begin, run every operation in order,
// commit, then apply cache deltas; on any failure, rollback and discard the
// deltas.
func (c *Connection) Batch(ctx context.Context, ops []BatchOp) error {
	if c.active != nil {
		return c.logErr("batch: begin", dberr.Db("a transaction is already open on this connection", dberr.PhaseExec, nil))
	}
	tx, err := txn.Begin(ctx, c.db, c.log, c.opts.RetryAttempts)
	if err != nil {
		return c.logErr("batch: begin", err)
	}
	c.active = tx
	defer func() { c.active = nil }()

	if err := batchexec.Run(ctx, c.stmts, tx, c.ids, ops); err != nil {
		tx.Rollback(err)
		return c.logErr("batch", err)
	}
	if err := tx.Commit(); err != nil {
		return c.logErr("batch: commit", err)
	}
	return nil
}

// UnsafeResetDatabase installs schemaSQL as a fresh schema and sets the
// user version, discarding all existing data and cache state.
func (c *Connection) UnsafeResetDatabase(ctx context.Context, schemaSQL string, version int) error {
	if err := schema.ResetDatabase(ctx, c.db, c.ids, schemaSQL, version); err != nil {
		return c.logErr("unsafeResetDatabase", err)
	}
	return nil
}

// Migrate applies migrationSQL after asserting the current user version
// equals fromVersion, then sets it to toVersion.
func (c *Connection) Migrate(ctx context.Context, migrationSQL string, fromVersion, toVersion int) error {
	if err := schema.Migrate(ctx, c.db, migrationSQL, fromVersion, toVersion); err != nil {
		return c.logErr("migrate", err)
	}
	return nil
}

// GetUserVersion reads the current schema user-version counter.
func (c *Connection) GetUserVersion(ctx context.Context) (int, error) {
	v, err := schema.GetUserVersion(ctx, c.db)
	return v, c.logErr("getUserVersion", err)
}

// SetUserVersion writes the schema user-version counter.
func (c *Connection) SetUserVersion(ctx context.Context, v int) error {
	return c.logErr("setUserVersion", schema.SetUserVersion(ctx, c.db, v))
}
