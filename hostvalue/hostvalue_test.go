package hostvalue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactivedb/sqlcore/hostvalue"
)

func TestZeroValueIsNull(t *testing.T) {
	var v hostvalue.Value
	assert.Equal(t, hostvalue.KindNull, v.Kind())
	assert.True(t, v.IsNullish())
}

func TestUndefinedIsNullish(t *testing.T) {
	assert.True(t, hostvalue.Undefined().IsNullish())
	assert.False(t, hostvalue.String("").IsNullish())
}

func TestArrayPreallocatesNulls(t *testing.T) {
	a := hostvalue.Array(3)
	require.Equal(t, 3, a.Len())
	for i := 0; i < 3; i++ {
		assert.Equal(t, hostvalue.KindNull, a.At(i).Kind())
	}
	a.SetAt(1, hostvalue.Number(42))
	v, ok := a.At(1).AsNumber()
	require.True(t, ok)
	assert.Equal(t, float64(42), v)
}

func TestObjectPreservesInsertionOrder(t *testing.T) {
	o := hostvalue.Object()
	o = o.SetProperty("b", hostvalue.Number(2))
	o = o.SetProperty("a", hostvalue.Number(1))
	o = o.SetProperty("b", hostvalue.Number(22))

	assert.Equal(t, []string{"b", "a"}, o.Keys())
	v, ok := o.GetProperty("b")
	require.True(t, ok)
	n, _ := v.AsNumber()
	assert.Equal(t, float64(22), n)
}

func TestAsAccessorsReportKindMismatch(t *testing.T) {
	s := hostvalue.String("x")
	_, ok := s.AsNumber()
	assert.False(t, ok)
	_, ok = s.AsBool()
	assert.False(t, ok)
}

func TestArrayOfKindString(t *testing.T) {
	arr := hostvalue.ArrayOf(hostvalue.String("a"), hostvalue.Bool(true))
	assert.Equal(t, "array", arr.Kind().String())
	assert.Equal(t, 2, arr.Len())
}
