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
	"github.com/vecdb/lanescan/pkg/util"
)

// testChunk builds an executable view with columns (id int, price double,
// name varchar); a nil price is null.
func testChunk(t *testing.T, rows [][3]any) *chunk.Chunk {
	t.Helper()
	data := &chunk.Chunk{}
	data.Init([]common.LType{
		common.IntegerType(),
		common.DoubleType(),
		common.VarcharType(),
	}, util.DefaultVectorSize)
	for i, row := range rows {
		data.Data[0].SetValue(i, chunk.IntegerValue(row[0].(int32)))
		if row[1] == nil {
			data.Data[1].SetValue(i, chunk.NullValue(common.DoubleType()))
		} else {
			data.Data[1].SetValue(i, chunk.DoubleValue(row[1].(float64)))
		}
		data.Data[2].SetValue(i, chunk.VarcharValue(row[2].(string)))
	}
	data.SetCard(len(rows))
	return data
}

func selectWith(t *testing.T, data *chunk.Chunk, pred *Expr) []int {
	t.Helper()
	prepared, err := prepareResidual(pred)
	require.NoError(t, err)
	exec := NewExprExec(prepared)
	trueSel := chunk.NewSelectVector(util.DefaultVectorSize)
	n, err := exec.executeSelect(data, nil, data.Card(), trueSel, nil)
	require.NoError(t, err)
	return trueSel.SelVec[:n]
}

func TestSelectComparison(t *testing.T) {
	data := testChunk(t, [][3]any{
		{int32(1), 1.0, "a"},
		{int32(5), 2.0, "b"},
		{int32(9), 3.0, "c"},
	})
	got := selectWith(t, data,
		NewComparison(ET_GreaterEqual, idCol(), NewConst(chunk.IntegerValue(5))))
	assert.Equal(t, []int{1, 2}, got)
}

func TestSelectNullCollapses(t *testing.T) {
	data := testChunk(t, [][3]any{
		{int32(1), nil, "a"},
		{int32(2), 5.0, "b"},
		{int32(3), nil, "c"},
	})
	for _, op := range []ET_SubTyp{ET_Equal, ET_NotEqual, ET_Less, ET_Greater} {
		got := selectWith(t, data,
			NewComparison(op, priceCol(), NewConst(chunk.DoubleValue(5.0))))
		assert.NotContains(t, got, 0, op.String())
		assert.NotContains(t, got, 2, op.String())
	}
}

func TestSelectAnd(t *testing.T) {
	data := testChunk(t, [][3]any{
		{int32(1), 10.0, "a"},
		{int32(5), 10.0, "b"},
		{int32(5), 1.0, "c"},
		{int32(9), 10.0, "d"},
	})
	pred := NewConjunction(ET_And,
		NewComparison(ET_GreaterEqual, idCol(), NewConst(chunk.IntegerValue(5))),
		NewComparison(ET_Greater, priceCol(), NewConst(chunk.DoubleValue(5.0))))
	assert.Equal(t, []int{1, 3}, selectWith(t, data, pred))
}

func TestSelectOr(t *testing.T) {
	data := testChunk(t, [][3]any{
		{int32(1), 10.0, "a"},
		{int32(5), 1.0, "b"},
		{int32(2), 1.0, "c"},
	})
	pred := NewConjunction(ET_Or,
		NewComparison(ET_GreaterEqual, idCol(), NewConst(chunk.IntegerValue(5))),
		NewComparison(ET_Greater, priceCol(), NewConst(chunk.DoubleValue(5.0))))
	// the first branch hits row 1 and the second row 0; survivors still
	// come back in row order
	assert.Equal(t, []int{0, 1}, selectWith(t, data, pred))
}

func TestSelectLike(t *testing.T) {
	data := testChunk(t, [][3]any{
		{int32(1), 1.0, "apple"},
		{int32(2), 1.0, "banana"},
		{int32(3), 1.0, "apricot"},
		{int32(4), 1.0, "grape"},
	})
	got := selectWith(t, data,
		NewComparison(ET_Like, nameCol(), NewConst(chunk.VarcharValue("a%"))))
	assert.Equal(t, []int{0, 2}, got)

	got = selectWith(t, data,
		NewComparison(ET_Like, nameCol(), NewConst(chunk.VarcharValue("%ap%"))))
	assert.Equal(t, []int{0, 2, 3}, got)

	got = selectWith(t, data,
		NewComparison(ET_NotLike, nameCol(), NewConst(chunk.VarcharValue("a%"))))
	assert.Equal(t, []int{1, 3}, got)
}

func TestSelectWithCandidateSelection(t *testing.T) {
	data := testChunk(t, [][3]any{
		{int32(10), 1.0, "a"},
		{int32(1), 1.0, "b"},
		{int32(10), 1.0, "c"},
		{int32(10), 1.0, "d"},
	})
	pred := NewComparison(ET_Equal, idCol(), NewConst(chunk.IntegerValue(10)))
	prepared, err := prepareResidual(pred)
	require.NoError(t, err)
	exec := NewExprExec(prepared)

	sel := chunk.NewSelectVector(util.DefaultVectorSize)
	sel.SetIndex(0, 1)
	sel.SetIndex(1, 2)
	sel.SetIndex(2, 3)
	sel.SetCount(3)

	// trueSel aliases the candidate selection: narrowed in place
	n, err := exec.executeSelect(data, sel, 3, sel, nil)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	assert.Equal(t, []int{2, 3}, sel.SelVec[:n])
}

func TestSelectConstComparison(t *testing.T) {
	data := testChunk(t, [][3]any{
		{int32(1), 1.0, "a"},
		{int32(2), 1.0, "b"},
	})
	got := selectWith(t, data,
		NewComparison(ET_Less, NewConst(chunk.IntegerValue(1)), NewConst(chunk.IntegerValue(2))))
	assert.Equal(t, []int{0, 1}, got)

	got = selectWith(t, data,
		NewComparison(ET_Greater, NewConst(chunk.IntegerValue(1)), NewConst(chunk.IntegerValue(2))))
	assert.Empty(t, got)
}

func TestWildcardMatch(t *testing.T) {
	match := func(pattern, target string) bool {
		p := common.NewString(pattern)
		s := common.NewString(target)
		return WildcardMatch(&p, &s)
	}
	assert.True(t, match("a%", "apple"))
	assert.True(t, match("%pp%", "apple"))
	assert.True(t, match("a___e", "apple"))
	assert.False(t, match("a__e", "apple"))
	assert.False(t, match("b%", "apple"))
	assert.True(t, match("%", ""))
}
