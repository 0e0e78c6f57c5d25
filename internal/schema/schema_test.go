package schema_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/reactivedb/sqlcore/internal/identitycache"
	"github.com/reactivedb/sqlcore/internal/schema"
)

func openMemDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?_txlock=exclusive&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestResetDatabaseInstallsSchemaAndVersion(t *testing.T) {
	ctx := context.Background()
	db := openMemDB(t)
	cache := identitycache.New()
	cache.MarkAsCached("stale$1")

	require.NoError(t, schema.ResetDatabase(ctx, db, cache, "create table notes (id text primary key)", 5))

	v, err := schema.GetUserVersion(ctx, db)
	require.NoError(t, err)
	require.Equal(t, 5, v)

	require.Empty(t, cache.Snapshot(), "reset must clear the identity cache")

	_, err = db.ExecContext(ctx, "insert into notes values ('n1')")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "insert into local_storage values ('k', 'v')")
	require.NoError(t, err)
}

func TestResetDatabaseDropsPriorObjects(t *testing.T) {
	ctx := context.Background()
	db := openMemDB(t)
	cache := identitycache.New()

	require.NoError(t, schema.ResetDatabase(ctx, db, cache, "create table old_table (id text primary key)", 1))
	require.NoError(t, schema.ResetDatabase(ctx, db, cache, "create table fresh (id text primary key)", 2))

	var name string
	err := db.QueryRowContext(ctx, "select name from sqlite_master where name = 'old_table'").Scan(&name)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestMigrateChecksPreconditionVersion(t *testing.T) {
	ctx := context.Background()
	db := openMemDB(t)
	cache := identitycache.New()

	require.NoError(t, schema.ResetDatabase(ctx, db, cache, "create table t (id text primary key)", 1))
	require.NoError(t, schema.Migrate(ctx, db, "alter table t add column extra text", 1, 2))

	v, err := schema.GetUserVersion(ctx, db)
	require.NoError(t, err)
	require.Equal(t, 2, v)

	err = schema.Migrate(ctx, db, "alter table t add column other text", 1, 3)
	require.Error(t, err)
}

func TestSetAndGetUserVersion(t *testing.T) {
	ctx := context.Background()
	db := openMemDB(t)

	require.NoError(t, schema.SetUserVersion(ctx, db, 42))
	v, err := schema.GetUserVersion(ctx, db)
	require.NoError(t, err)
	require.Equal(t, 42, v)
}
