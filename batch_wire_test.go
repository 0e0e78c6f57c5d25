package sqlcore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlcore "github.com/reactivedb/sqlcore"
	"github.com/reactivedb/sqlcore/hostvalue"
)

func TestDecodeBatchHappyPath(t *testing.T) {
	wire := hostvalue.ArrayOf(
		hostvalue.ArrayOf(
			hostvalue.Number(1),
			hostvalue.String("tasks"),
			hostvalue.String("insert into tasks values(?, ?)"),
			hostvalue.ArrayOf(hostvalue.ArrayOf(hostvalue.String("t1"), hostvalue.String("a"))),
		),
	)

	ops, err := sqlcore.DecodeBatch(wire)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, sqlcore.CacheMarkOnSuccess, ops[0].Behavior)
	assert.Equal(t, "tasks", ops[0].Table)
	assert.Equal(t, "insert into tasks values(?, ?)", ops[0].SQL)
	require.Len(t, ops[0].ArgsBatches, 1)
}

func TestDecodeBatchRejectsNonArray(t *testing.T) {
	_, err := sqlcore.DecodeBatch(hostvalue.String("nope"))
	assert.Error(t, err)
}

func TestDecodeBatchRejectsWrongTupleLength(t *testing.T) {
	wire := hostvalue.ArrayOf(hostvalue.ArrayOf(hostvalue.Number(0), hostvalue.String("t")))
	_, err := sqlcore.DecodeBatch(wire)
	assert.Error(t, err)
}

func TestCacheBehaviorFromInt(t *testing.T) {
	assert.Equal(t, sqlcore.CacheMarkOnSuccess, sqlcore.CacheBehaviorFromInt(1))
	assert.Equal(t, sqlcore.CacheRemoveOnSuccess, sqlcore.CacheBehaviorFromInt(-1))
	assert.Equal(t, sqlcore.CacheNone, sqlcore.CacheBehaviorFromInt(0))
}
