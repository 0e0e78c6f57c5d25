package batchexec_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/reactivedb/sqlcore/hostvalue"
	"github.com/reactivedb/sqlcore/internal/batchexec"
	"github.com/reactivedb/sqlcore/internal/identitycache"
	"github.com/reactivedb/sqlcore/internal/stmtcache"
	"github.com/reactivedb/sqlcore/internal/txn"
)

func openMemDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?_txlock=exclusive&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(`create table t (id text primary key, name text)`)
	require.NoError(t, err)
	return db
}

func TestRunAppliesCacheDeltasAfterLoop(t *testing.T) {
	ctx := context.Background()
	db := openMemDB(t)
	stmts := stmtcache.New(db)
	cache := identitycache.New()

	tx, err := txn.Begin(ctx, db, nil, 1)
	require.NoError(t, err)

	ops := []batchexec.Op{
		{
			Behavior: batchexec.CacheMarkOnSuccess,
			Table:    "t",
			SQL:      "insert into t values(?, ?)",
			ArgsBatches: [][]hostvalue.Value{
				{hostvalue.String("x1"), hostvalue.String("one")},
			},
		},
	}
	require.NoError(t, batchexec.Run(ctx, stmts, tx, cache, ops))
	// Cache deltas apply once Run returns, independent of commit; the
	// caller is responsible for not applying them if it then rolls back.
	require.True(t, cache.IsCached(identitycache.Key("t", "x1")))
	require.NoError(t, tx.Commit())
}

func TestRunFailsOnConstraintViolationBeforeApplyingCache(t *testing.T) {
	ctx := context.Background()
	db := openMemDB(t)
	stmts := stmtcache.New(db)
	cache := identitycache.New()

	tx, err := txn.Begin(ctx, db, nil, 1)
	require.NoError(t, err)

	ops := []batchexec.Op{
		{
			Behavior: batchexec.CacheMarkOnSuccess,
			Table:    "t",
			SQL:      "insert into t values(?, ?)",
			ArgsBatches: [][]hostvalue.Value{
				{hostvalue.String("dup"), hostvalue.String("one")},
				{hostvalue.String("dup"), hostvalue.String("two")},
			},
		},
	}
	err = batchexec.Run(ctx, stmts, tx, cache, ops)
	require.Error(t, err)
	// The first insert's key must not have been applied: Run only applies
	// deltas after every op in the batch succeeds.
	require.False(t, cache.IsCached(identitycache.Key("t", "dup")))
	tx.Rollback(err)
}

func TestRunRejectsCacheBehaviorWithNoArgs(t *testing.T) {
	ctx := context.Background()
	db := openMemDB(t)
	stmts := stmtcache.New(db)
	cache := identitycache.New()

	tx, err := txn.Begin(ctx, db, nil, 1)
	require.NoError(t, err)

	ops := []batchexec.Op{
		{
			Behavior: batchexec.CacheMarkOnSuccess,
			Table:    "t",
			SQL:      "insert into t default values",
			ArgsBatches: [][]hostvalue.Value{
				{},
			},
		},
	}
	// A cache-affecting op with an empty argument list has no id to key off
	// of; Run must report a typed error rather than panic on args[0].
	err = batchexec.Run(ctx, stmts, tx, cache, ops)
	require.Error(t, err)
	tx.Rollback(err)
}

func TestRunRemovesOnCacheRemoveBehavior(t *testing.T) {
	ctx := context.Background()
	db := openMemDB(t)
	stmts := stmtcache.New(db)
	cache := identitycache.New()
	cache.MarkAsCached(identitycache.Key("t", "x2"))

	_, err := db.ExecContext(ctx, "insert into t values ('x2', 'two')")
	require.NoError(t, err)

	tx, err := txn.Begin(ctx, db, nil, 1)
	require.NoError(t, err)

	ops := []batchexec.Op{
		{
			Behavior: batchexec.CacheRemoveOnSuccess,
			Table:    "t",
			SQL:      "delete from t where id = ?",
			ArgsBatches: [][]hostvalue.Value{
				{hostvalue.String("x2")},
			},
		},
	}
	require.NoError(t, batchexec.Run(ctx, stmts, tx, cache, ops))
	require.False(t, cache.IsCached(identitycache.Key("t", "x2")))
	require.NoError(t, tx.Commit())
}
