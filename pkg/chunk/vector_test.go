package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecdb/lanescan/pkg/common"
)

func TestFlatVectorRoundTrip(t *testing.T) {
	vec := NewFlatVector(common.IntegerType(), 16)
	vec.SetValue(0, IntegerValue(42))
	vec.SetValue(1, NullValue(common.IntegerType()))
	vec.SetValue(2, IntegerValue(-7))

	val := vec.GetValue(0)
	require.False(t, val.IsNull)
	assert.Equal(t, int64(42), val.I64)

	assert.True(t, vec.GetValue(1).IsNull)
	assert.Equal(t, int64(-7), vec.GetValue(2).I64)
}

func TestFlatVectorSlice(t *testing.T) {
	vec := NewFlatVector(common.BigintType(), 8)
	data := GetSliceInPhyFormatFlat[int64](vec)
	for i := range data[:8] {
		data[i] = int64(i * 10)
	}
	assert.Equal(t, int64(30), vec.GetValue(3).I64)
}

func TestConstVectorReference(t *testing.T) {
	vec := NewConstVector(common.DoubleType())
	vec.ReferenceValue(DoubleValue(3.5))
	require.Equal(t, PF_CONST, vec.PhyFormat())
	assert.Equal(t, 3.5, vec.GetValue(0).F64)
	assert.Equal(t, 3.5, vec.GetValue(100).F64)

	vec.ReferenceValue(NullValue(common.DoubleType()))
	assert.True(t, IsNullInPhyFormatConst(vec))
}

func TestVarcharVector(t *testing.T) {
	vec := NewFlatVector(common.VarcharType(), 4)
	vec.SetValue(0, VarcharValue("abc"))
	vec.SetValue(1, VarcharValue(""))
	assert.Equal(t, "abc", vec.GetValue(0).Str)
	assert.Equal(t, "", vec.GetValue(1).Str)
}
