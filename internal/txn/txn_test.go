package txn_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/reactivedb/sqlcore/internal/txn"
)

func openMemDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?_txlock=exclusive&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(`create table t (id text primary key)`)
	require.NoError(t, err)
	return db
}

func TestCommitPersistsChanges(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	c, err := txn.Begin(ctx, db, nil, 1)
	require.NoError(t, err)
	require.NoError(t, c.ExecContext(ctx, "insert into t values ('a')"))
	require.NoError(t, c.Commit())

	row := db.QueryRowContext(ctx, "select count(*) from t")
	var n int
	require.NoError(t, row.Scan(&n))
	require.Equal(t, 1, n)
}

func TestRollbackDiscardsChanges(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	c, err := txn.Begin(ctx, db, nil, 1)
	require.NoError(t, err)
	require.NoError(t, c.ExecContext(ctx, "insert into t values ('b')"))
	c.Rollback(errors.New("simulated failure"))

	row := db.QueryRowContext(ctx, "select count(*) from t")
	var n int
	require.NoError(t, row.Scan(&n))
	require.Equal(t, 0, n)
}
