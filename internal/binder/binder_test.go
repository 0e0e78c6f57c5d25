package binder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactivedb/sqlcore/hostvalue"
	"github.com/reactivedb/sqlcore/internal/binder"
	"github.com/reactivedb/sqlcore/internal/dberr"
)

func TestBindCountMismatch(t *testing.T) {
	_, err := binder.Bind("select * from t where id = ?", 1, nil)
	require.Error(t, err)
	var target *dberr.ArgMismatchError
	assert.ErrorAs(t, err, &target)
}

func TestBindConvertsEachKind(t *testing.T) {
	args := []hostvalue.Value{
		hostvalue.Null(),
		hostvalue.String("hi"),
		hostvalue.Number(3.5),
		hostvalue.Bool(true),
		hostvalue.Bool(false),
	}
	out, err := binder.Bind("select ?, ?, ?, ?, ?", 5, args)
	require.NoError(t, err)
	require.Len(t, out, 5)
	assert.Nil(t, out[0])
	assert.Equal(t, "hi", out[1])
	assert.Equal(t, 3.5, out[2])
	assert.Equal(t, int64(1), out[3])
	assert.Equal(t, int64(0), out[4])
}

func TestBindRejectsUnsupportedKind(t *testing.T) {
	_, err := binder.Bind("select ?", 1, []hostvalue.Value{hostvalue.ArrayOf()})
	require.Error(t, err)
	var target *dberr.InvalidArgTypeError
	assert.ErrorAs(t, err, &target)
}
