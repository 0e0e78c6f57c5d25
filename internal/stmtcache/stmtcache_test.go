package stmtcache_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactivedb/sqlcore/internal/stmtcache"
)

func openMemDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(`create table t (id text primary key, name text)`)
	require.NoError(t, err)
	return db
}

func TestPrepareReturnsSameStatementForSameText(t *testing.T) {
	db := openMemDB(t)
	c := stmtcache.New(db)
	ctx := context.Background()

	s1, n1, err := c.Prepare(ctx, "select * from t where id = ?")
	require.NoError(t, err)
	s2, n2, err := c.Prepare(ctx, "select * from t where id = ?")
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, 1, n1)
	assert.Equal(t, n1, n2)
}

func TestPrepareCountsPlaceholdersIgnoringQuotedQuestionMarks(t *testing.T) {
	db := openMemDB(t)
	c := stmtcache.New(db)
	ctx := context.Background()

	_, n, err := c.Prepare(ctx, "select * from t where name = 'literal?' and id = ?")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCloseAllFinalizesStatements(t *testing.T) {
	db := openMemDB(t)
	c := stmtcache.New(db)
	ctx := context.Background()

	_, _, err := c.Prepare(ctx, "select * from t")
	require.NoError(t, err)
	require.NoError(t, c.CloseAll())
}
