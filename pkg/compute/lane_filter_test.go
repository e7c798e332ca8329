// Copyright 2024-2025 vecdb
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package compute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecdb/lanescan/pkg/chunk"
	"github.com/vecdb/lanescan/pkg/common"
	"github.com/vecdb/lanescan/pkg/storage"
	"github.com/vecdb/lanescan/pkg/util"
)

func testDefs() []*storage.ColumnDefinition {
	return []*storage.ColumnDefinition{
		{Name: "id", Typ: common.IntegerType()},
		{Name: "price", Typ: common.DoubleType(), Nullable: true},
		{Name: "name", Typ: common.VarcharType()},
	}
}

// buildTestTable appends the rows in one committed transaction. Each row
// is (id, price, name); a nil price loads as null.
func buildTestTable(t *testing.T, rows [][3]any) (*storage.TxnMgr, *storage.DataTable) {
	t.Helper()
	table := storage.NewDataTable(1, "public", "t", testDefs())
	txnMgr := storage.NewTxnMgr()
	txn, err := txnMgr.NewTxn("w")
	require.NoError(t, err)

	data := &chunk.Chunk{}
	data.Init(table.ColumnTypes(), util.DefaultVectorSize)
	pos := 0
	flush := func() {
		if pos == 0 {
			return
		}
		data.SetCard(pos)
		require.NoError(t, table.Append(txn, data))
		data.Init(table.ColumnTypes(), util.DefaultVectorSize)
		pos = 0
	}
	for _, row := range rows {
		data.Data[0].SetValue(pos, chunk.IntegerValue(row[0].(int32)))
		if row[1] == nil {
			data.Data[1].SetValue(pos, chunk.NullValue(common.DoubleType()))
		} else {
			data.Data[1].SetValue(pos, chunk.DoubleValue(row[1].(float64)))
		}
		data.Data[2].SetValue(pos, chunk.VarcharValue(row[2].(string)))
		pos++
		if pos == util.DefaultVectorSize {
			flush()
		}
	}
	flush()
	require.NoError(t, txnMgr.Commit(txn))
	return txnMgr, table
}

func idCol() *Expr {
	return NewColumnRef(0, "id", common.IntegerType(), false)
}

func priceCol() *Expr {
	return NewColumnRef(1, "price", common.DoubleType(), true)
}

func nameCol() *Expr {
	return NewColumnRef(2, "name", common.VarcharType(), false)
}

func TestCompileFilterPartition(t *testing.T) {
	pred := NewConjunction(ET_And,
		NewComparison(ET_Greater, idCol(), NewConst(chunk.IntegerValue(5))),
		NewComparison(ET_Like, nameCol(), NewConst(chunk.VarcharValue("a%"))))
	cf, err := CompileFilter(pred)
	require.NoError(t, err)
	assert.Len(t, cf.LanePredicates(), 1)
	assert.NotNil(t, cf.Residual())
	assert.False(t, cf.FullyLaneEligible())

	pred = NewConjunction(ET_And,
		NewComparison(ET_Greater, idCol(), NewConst(chunk.IntegerValue(5))),
		NewComparison(ET_Less, priceCol(), NewConst(chunk.DoubleValue(3.0))))
	cf, err = CompileFilter(pred)
	require.NoError(t, err)
	assert.Len(t, cf.LanePredicates(), 2)
	assert.Nil(t, cf.Residual())
	assert.True(t, cf.FullyLaneEligible())

	cf, err = CompileFilter(nil)
	require.NoError(t, err)
	assert.True(t, cf.Empty())
}

func TestCompileFilterTypeError(t *testing.T) {
	pred := NewComparison(ET_Greater, idCol(), NewConst(chunk.VarcharValue("x")))
	_, err := CompileFilter(pred)
	assert.Error(t, err)
}

func TestFilterRangeAlignedAndRemainder(t *testing.T) {
	// 40 rows, 8 hits in the aligned 32-row prefix, 2 in the remainder
	prefixHits := map[int]bool{2: true, 5: true, 9: true, 13: true, 17: true, 21: true, 25: true, 29: true}
	rows := make([][3]any, 40)
	for i := range rows {
		id := int32(1)
		if prefixHits[i] || i == 33 || i == 38 {
			id = 100
		}
		rows[i] = [3]any{id, 1.0, "x"}
	}
	_, table := buildTestTable(t, rows)

	cf, err := CompileFilter(
		NewComparison(ET_Greater, idCol(), NewConst(chunk.IntegerValue(5))))
	require.NoError(t, err)

	sel := chunk.NewSelectVector(util.DefaultVectorSize)
	n, err := cf.FilterRange(table.Chunk(0), 40, sel)
	require.NoError(t, err)
	require.Equal(t, 10, n)

	want := []int{2, 5, 9, 13, 17, 21, 25, 29, 33, 38}
	assert.Equal(t, want, sel.SelVec[:n])
	assert.IsIncreasing(t, sel.SelVec[:n])
	for _, row := range sel.SelVec[:n] {
		assert.Greater(t, table.Chunk(0).ColumnVector(0).GetValue(row).I64, int64(5))
	}
}

func TestLaneScalarEquivalence(t *testing.T) {
	// spans two aligned lane groups plus a remainder
	count := 2*util.LaneWidth + 11
	rows := make([][3]any, count)
	for i := range rows {
		rows[i] = [3]any{int32((i * 37) % 50), float64(i%7) * 2.5, "x"}
	}
	_, table := buildTestTable(t, rows)
	grp := table.Chunk(0)

	pred := NewConjunction(ET_And,
		NewComparison(ET_GreaterEqual, idCol(), NewConst(chunk.IntegerValue(10))),
		NewComparison(ET_NotEqual, priceCol(), NewConst(chunk.DoubleValue(5.0))))
	cf, err := CompileFilter(pred)
	require.NoError(t, err)

	sel := chunk.NewSelectVector(util.DefaultVectorSize)
	n, err := cf.FilterRange(grp, count, sel)
	require.NoError(t, err)

	var want []int
	for i := 0; i < count; i++ {
		id := grp.ColumnVector(0).GetValue(i).I64
		price := grp.ColumnVector(1).GetValue(i).F64
		if id >= 10 && price != 5.0 {
			want = append(want, i)
		}
	}
	assert.Equal(t, want, sel.SelVec[:n])
}

func TestNullRowsExcluded(t *testing.T) {
	rows := [][3]any{
		{int32(1), 10.0, "x"},
		{int32(2), nil, "x"},
		{int32(3), -5.0, "x"},
		{int32(4), nil, "x"},
	}
	_, table := buildTestTable(t, rows)
	sel := chunk.NewSelectVector(util.DefaultVectorSize)

	// null price fails every comparison, whatever the constant
	for _, op := range []ET_SubTyp{ET_Greater, ET_Less, ET_Equal, ET_NotEqual} {
		cf, err := CompileFilter(
			NewComparison(op, priceCol(), NewConst(chunk.DoubleValue(-100.0))))
		require.NoError(t, err)
		n, err := cf.FilterRange(table.Chunk(0), 4, sel)
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			assert.NotContains(t, []int{1, 3}, sel.GetIndex(i))
		}
	}
}

func TestNullConstantMatchesNothing(t *testing.T) {
	rows := [][3]any{
		{int32(1), 1.0, "x"},
		{int32(2), 2.0, "x"},
	}
	_, table := buildTestTable(t, rows)

	cf, err := CompileFilter(
		NewComparison(ET_Greater, idCol(), NewConst(chunk.NullValue(common.IntegerType()))))
	require.NoError(t, err)
	sel := chunk.NewSelectVector(util.DefaultVectorSize)
	n, err := cf.FilterRange(table.Chunk(0), 2, sel)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDisjunctionKeepsRowOrder(t *testing.T) {
	rows := make([][3]any, 10)
	for i := range rows {
		rows[i] = [3]any{int32(i), float64(i), "x"}
	}
	_, table := buildTestTable(t, rows)

	// both branches match, each over a different half of the chunk
	pred := NewConjunction(ET_Or,
		NewComparison(ET_GreaterEqual, idCol(), NewConst(chunk.IntegerValue(5))),
		NewComparison(ET_Less, idCol(), NewConst(chunk.IntegerValue(5))))
	cf, err := CompileFilter(pred)
	require.NoError(t, err)

	sel := chunk.NewSelectVector(util.DefaultVectorSize)
	n, err := cf.FilterRange(table.Chunk(0), 10, sel)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, sel.SelVec[:n])
}

func TestFilterSelectionNarrowsInPlace(t *testing.T) {
	rows := make([][3]any, 80)
	for i := range rows {
		rows[i] = [3]any{int32(i), 1.0, "x"}
	}
	_, table := buildTestTable(t, rows)

	cf, err := CompileFilter(
		NewComparison(ET_Less, idCol(), NewConst(chunk.IntegerValue(40))))
	require.NoError(t, err)

	sel := chunk.NewSelectVector(util.DefaultVectorSize)
	candidates := 0
	for i := 0; i < 80; i += 2 {
		sel.SetIndex(candidates, i)
		candidates++
	}
	sel.SetCount(candidates)

	n, err := cf.FilterSelection(table.Chunk(0), sel, candidates)
	require.NoError(t, err)
	require.Equal(t, 20, n)
	assert.LessOrEqual(t, n, candidates)
	for i := 0; i < n; i++ {
		assert.Equal(t, i*2, sel.GetIndex(i))
	}
	assert.IsIncreasing(t, sel.SelVec[:n])
}

func TestResidualIdempotent(t *testing.T) {
	rows := [][3]any{
		{int32(1), 1.0, "apple"},
		{int32(2), 1.0, "banana"},
		{int32(3), 1.0, "apricot"},
		{int32(4), 1.0, "cherry"},
	}
	_, table := buildTestTable(t, rows)

	cf, err := CompileFilter(
		NewComparison(ET_Like, nameCol(), NewConst(chunk.VarcharValue("a%"))))
	require.NoError(t, err)
	require.NotNil(t, cf.Residual())

	sel := chunk.NewSelectVector(util.DefaultVectorSize)
	n, err := cf.FilterRange(table.Chunk(0), 4, sel)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	first := append([]int{}, sel.SelVec[:n]...)

	// reapplying the filter to its own survivors changes nothing
	n2, err := cf.FilterSelection(table.Chunk(0), sel, n)
	require.NoError(t, err)
	assert.Equal(t, n, n2)
	assert.Equal(t, first, sel.SelVec[:n2])
}

func TestZonePredicateCompilation(t *testing.T) {
	cf, err := CompileFilter(
		NewComparison(ET_Greater, idCol(), NewConst(chunk.IntegerValue(5))))
	require.NoError(t, err)
	require.Len(t, cf.ZonePredicates(), 1)
	zp := cf.ZonePredicates()[0]
	assert.Equal(t, 0, zp.ColIdx)
	assert.Equal(t, storage.ZoneGreater, zp.Op)
	assert.Equal(t, int64(5), zp.Constant.I64)

	// constant on the left flips the comparison
	cf, err = CompileFilter(
		NewComparison(ET_Greater, NewConst(chunk.IntegerValue(5)), idCol()))
	require.NoError(t, err)
	require.Len(t, cf.ZonePredicates(), 1)
	assert.Equal(t, storage.ZoneLess, cf.ZonePredicates()[0].Op)
}

func TestMixedTypeComparison(t *testing.T) {
	rows := [][3]any{
		{int32(1), 1.5, "x"},
		{int32(2), 2.5, "x"},
		{int32(3), 3.5, "x"},
	}
	_, table := buildTestTable(t, rows)

	// int32 column against a bigint constant promotes to bigint lanes
	cf, err := CompileFilter(
		NewComparison(ET_GreaterEqual, idCol(), NewConst(chunk.BigintValue(2))))
	require.NoError(t, err)
	require.Len(t, cf.LanePredicates(), 1)

	sel := chunk.NewSelectVector(util.DefaultVectorSize)
	n, err := cf.FilterRange(table.Chunk(0), 3, sel)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, sel.SelVec[:n])

	// int32 column against a double constant promotes to double lanes
	cf, err = CompileFilter(
		NewComparison(ET_Less, idCol(), NewConst(chunk.DoubleValue(2.5))))
	require.NoError(t, err)
	require.Len(t, cf.LanePredicates(), 1)
	n, err = cf.FilterRange(table.Chunk(0), 3, sel)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, sel.SelVec[:n])
}
